// Package types defines the catalog data structures shared by the explorer packages.
package types

import (
	"bytes"
	"fmt"
)

const (
	FormatJSON     = "json"
	FormatRaw      = "raw"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"

	CommandBuild = "build"
	CommandWatch = "watch"
	CommandServe = "serve"
	CommandInit  = "init"

	// DefaultCatalogName names the root document.
	DefaultCatalogName = "OSINT Explorer"
	// DefaultDataRoot is the directory scanned when nothing else is configured.
	DefaultDataRoot = "data"
	// DefaultOutputPath is where the rendered document is written.
	DefaultOutputPath = "public/data.json"
	// DefaultToolsFileName is the per-directory data file.
	DefaultToolsFileName = "tools.yaml"
	// ToolsFieldName is the key holding the tool sequence inside a tools file.
	ToolsFieldName = "tools"

	nameFieldName     = "name"
	childrenFieldName = "children"
)

// CategoryNode is one directory-derived node of the catalog. The root document
// is a CategoryNode carrying the catalog name.
type CategoryNode struct {
	Name     string  `json:"name"`
	Children []Entry `json:"children"`
}

// Entry is a leaf tool record, a nested category, or, when a tools sequence
// holds something other than a mapping, that element's value as written.
type Entry struct {
	Tool     *ToolRecord
	Category *CategoryNode
	Value    any
}

// NewToolEntry wraps a tool record as an entry.
func NewToolEntry(record ToolRecord) Entry {
	return Entry{Tool: &record}
}

// NewValueEntry wraps a non-mapping tools element as an opaque leaf.
func NewValueEntry(value any) Entry {
	return Entry{Value: value}
}

// NewCategoryEntry wraps a named child sequence as an entry.
func NewCategoryEntry(name string, children []Entry) Entry {
	if children == nil {
		children = []Entry{}
	}
	return Entry{Category: &CategoryNode{Name: name, Children: children}}
}

// IsCategory reports whether the entry is a nested category.
func (entry Entry) IsCategory() bool {
	return entry.Category != nil
}

// DisplayName returns the category name or the tool's name field.
func (entry Entry) DisplayName() string {
	if entry.Category != nil {
		return entry.Category.Name
	}
	if entry.Tool != nil {
		return entry.Tool.StringField(nameFieldName)
	}
	if text, isString := entry.Value.(string); isString {
		return text
	}
	return ""
}

// IsValue reports whether the entry is an opaque non-mapping leaf.
func (entry Entry) IsValue() bool {
	return entry.Tool == nil && entry.Category == nil
}

// ValueText renders a value entry as text: strings as written, anything else as JSON.
func (entry Entry) ValueText() string {
	if text, isString := entry.Value.(string); isString {
		return text
	}
	encoded, encodeError := marshalValue(entry.Value)
	if encodeError != nil {
		return fmt.Sprint(entry.Value)
	}
	return string(encoded)
}

// MarshalJSON always emits children as an array.
func (node CategoryNode) MarshalJSON() ([]byte, error) {
	children := node.Children
	if children == nil {
		children = []Entry{}
	}
	var buffer bytes.Buffer
	buffer.WriteString("{")
	nameBytes, nameError := marshalValue(node.Name)
	if nameError != nil {
		return nil, nameError
	}
	buffer.WriteString(`"name":`)
	buffer.Write(nameBytes)
	buffer.WriteString(`,"children":[`)
	for childIndex, child := range children {
		if childIndex > 0 {
			buffer.WriteString(",")
		}
		childBytes, childError := child.MarshalJSON()
		if childError != nil {
			return nil, childError
		}
		buffer.Write(childBytes)
	}
	buffer.WriteString("]}")
	return buffer.Bytes(), nil
}

// UnmarshalJSON decodes a category, classifying each child object.
func (node *CategoryNode) UnmarshalJSON(data []byte) error {
	decoded, decodeError := decodeOrderedJSON(data)
	if decodeError != nil {
		return decodeError
	}
	record, isRecord := decoded.(ToolRecord)
	if !isRecord {
		return fmt.Errorf("category must be a JSON object")
	}
	category, isCategory := categoryFromRecord(record)
	if !isCategory {
		return fmt.Errorf("object is not a category: expected only %q and %q", nameFieldName, childrenFieldName)
	}
	*node = *category
	return nil
}

// MarshalJSON renders the wrapped tool or category.
func (entry Entry) MarshalJSON() ([]byte, error) {
	switch {
	case entry.Category != nil:
		return entry.Category.MarshalJSON()
	case entry.Tool != nil:
		return entry.Tool.MarshalJSON()
	default:
		return marshalValue(entry.Value)
	}
}

// UnmarshalJSON treats objects with exactly a string name and an array of
// children as categories, every other object as a tool record, and any other
// JSON value as an opaque leaf.
func (entry *Entry) UnmarshalJSON(data []byte) error {
	decoded, decodeError := decodeOrderedJSON(data)
	if decodeError != nil {
		return decodeError
	}
	*entry = entryFromValue(decoded)
	return nil
}

func entryFromValue(value any) Entry {
	record, isRecord := value.(ToolRecord)
	if !isRecord {
		return NewValueEntry(value)
	}
	if category, isCategory := categoryFromRecord(record); isCategory {
		return Entry{Category: category}
	}
	return NewToolEntry(record)
}

func categoryFromRecord(record ToolRecord) (*CategoryNode, bool) {
	if record.Len() != 2 {
		return nil, false
	}
	nameValue, hasName := record.Get(nameFieldName)
	childrenValue, hasChildren := record.Get(childrenFieldName)
	if !hasName || !hasChildren {
		return nil, false
	}
	name, nameIsString := nameValue.(string)
	rawChildren, childrenIsList := childrenValue.([]any)
	if !nameIsString || !childrenIsList {
		return nil, false
	}
	children := make([]Entry, 0, len(rawChildren))
	for _, rawChild := range rawChildren {
		children = append(children, entryFromValue(rawChild))
	}
	return &CategoryNode{Name: name, Children: children}, true
}

