package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/temirov/explorer/internal/types"
)

// ToolsFileStatus is the outcome of reading a directory's tools file.
type ToolsFileStatus int

const (
	// ToolsFileMissing means the directory has no tools file. It is not an error.
	ToolsFileMissing ToolsFileStatus = iota
	// ToolsFileLoaded means the file held a well-formed tools sequence.
	ToolsFileLoaded
	// ToolsFileMalformed means the file exists but contributes no tools.
	ToolsFileMalformed
)

const (
	maximumNestingDepth = 64
	yamlMergeTag        = "!!merge"

	errorReadToolsFileFormat  = "reading %s: %w"
	errorParseToolsFileFormat = "parsing yaml: %w"
	errorToolElementFormat    = "tools element %d: %w"
)

var (
	// ErrToolsDocumentEmpty reports a tools file without any YAML content.
	ErrToolsDocumentEmpty = errors.New("document is empty")
	// ErrToolsDocumentNotMapping reports a top-level value that is not a mapping.
	ErrToolsDocumentNotMapping = errors.New("document is not a mapping")
	// ErrToolsFieldMissing reports a mapping without the tools key.
	ErrToolsFieldMissing = fmt.Errorf("%q field is missing", types.ToolsFieldName)
	// ErrToolsFieldNotSequence reports a tools value that is not a sequence.
	ErrToolsFieldNotSequence = fmt.Errorf("%q field is not a sequence", types.ToolsFieldName)
	// ErrNestingTooDeep reports values nested beyond maximumNestingDepth, which includes recursive aliases.
	ErrNestingTooDeep = errors.New("value nesting is too deep")
)

// ToolsFile is the validated content of one tools file.
type ToolsFile struct {
	Path   string
	Status ToolsFileStatus
	// Tools holds every element of the tools sequence in file order.
	Tools []types.Entry
	// OpaqueElements counts sequence elements that were not mappings. They are
	// kept in Tools as value entries.
	OpaqueElements int
	Err            error
}

// LoadToolsFile reads fileName inside directoryPath and validates its shape once.
// A missing file yields ToolsFileMissing; read or shape failures yield
// ToolsFileMalformed with the cause in Err.
//
// #nosec G304
func LoadToolsFile(directoryPath string, fileName string) ToolsFile {
	toolsFilePath := filepath.Join(directoryPath, fileName)
	result := ToolsFile{Path: toolsFilePath, Tools: []types.Entry{}}

	fileData, readError := os.ReadFile(toolsFilePath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			result.Status = ToolsFileMissing
			return result
		}
		result.Status = ToolsFileMalformed
		result.Err = fmt.Errorf(errorReadToolsFileFormat, toolsFilePath, readError)
		return result
	}

	tools, opaqueElements, parseError := ParseToolsDocument(fileData)
	if parseError != nil {
		result.Status = ToolsFileMalformed
		result.Err = parseError
		return result
	}
	result.Status = ToolsFileLoaded
	result.Tools = tools
	result.OpaqueElements = opaqueElements
	return result
}

// ParseToolsDocument extracts the tools sequence from a tools file body. Mappings
// become tool entries and every other element is kept as a value entry; the
// second result counts those value entries.
func ParseToolsDocument(fileData []byte) ([]types.Entry, int, error) {
	var document yaml.Node
	if unmarshalError := yaml.Unmarshal(fileData, &document); unmarshalError != nil {
		return nil, 0, fmt.Errorf(errorParseToolsFileFormat, unmarshalError)
	}
	if document.Kind == 0 || len(document.Content) == 0 {
		return nil, 0, ErrToolsDocumentEmpty
	}

	rootNode := resolveAlias(document.Content[0])
	if rootNode.Kind != yaml.MappingNode {
		return nil, 0, ErrToolsDocumentNotMapping
	}

	var toolsNode *yaml.Node
	for keyIndex := 0; keyIndex+1 < len(rootNode.Content); keyIndex += 2 {
		if rootNode.Content[keyIndex].Value == types.ToolsFieldName {
			toolsNode = resolveAlias(rootNode.Content[keyIndex+1])
		}
	}
	if toolsNode == nil {
		return nil, 0, ErrToolsFieldMissing
	}
	if toolsNode.Kind != yaml.SequenceNode {
		return nil, 0, ErrToolsFieldNotSequence
	}

	tools := make([]types.Entry, 0, len(toolsNode.Content))
	opaqueElements := 0
	for elementIndex, elementNode := range toolsNode.Content {
		resolvedElement := resolveAlias(elementNode)
		if resolvedElement.Kind == yaml.MappingNode {
			record, convertError := convertMapping(resolvedElement, 0)
			if convertError != nil {
				return nil, 0, fmt.Errorf(errorToolElementFormat, elementIndex, convertError)
			}
			tools = append(tools, types.NewToolEntry(record))
			continue
		}
		value, convertError := convertNode(resolvedElement, 0)
		if convertError != nil {
			return nil, 0, fmt.Errorf(errorToolElementFormat, elementIndex, convertError)
		}
		opaqueElements++
		tools = append(tools, types.NewValueEntry(value))
	}
	return tools, opaqueElements, nil
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	resolved := node
	for hops := 0; resolved != nil && resolved.Kind == yaml.AliasNode && resolved.Alias != nil && hops < maximumNestingDepth; hops++ {
		resolved = resolved.Alias
	}
	return resolved
}

func convertMapping(node *yaml.Node, depth int) (types.ToolRecord, error) {
	if depth > maximumNestingDepth {
		return types.ToolRecord{}, ErrNestingTooDeep
	}
	record := types.ToolRecord{}
	for keyIndex := 0; keyIndex+1 < len(node.Content); keyIndex += 2 {
		keyNode := resolveAlias(node.Content[keyIndex])
		valueNode := resolveAlias(node.Content[keyIndex+1])
		if keyNode.Tag == yamlMergeTag {
			if mergeError := mergeInto(&record, valueNode, depth+1); mergeError != nil {
				return types.ToolRecord{}, mergeError
			}
			continue
		}
		value, convertError := convertNode(valueNode, depth+1)
		if convertError != nil {
			return types.ToolRecord{}, convertError
		}
		record.Set(keyNode.Value, value)
	}
	return record, nil
}

// mergeInto applies a YAML merge key; keys already present keep their values.
func mergeInto(record *types.ToolRecord, valueNode *yaml.Node, depth int) error {
	var sources []*yaml.Node
	switch valueNode.Kind {
	case yaml.MappingNode:
		sources = []*yaml.Node{valueNode}
	case yaml.SequenceNode:
		for _, sourceNode := range valueNode.Content {
			sources = append(sources, resolveAlias(sourceNode))
		}
	default:
		return nil
	}
	for _, sourceNode := range sources {
		if sourceNode.Kind != yaml.MappingNode {
			continue
		}
		merged, convertError := convertMapping(sourceNode, depth)
		if convertError != nil {
			return convertError
		}
		for _, field := range merged.Fields() {
			if _, exists := record.Get(field.Key); !exists {
				record.Set(field.Key, field.Value)
			}
		}
	}
	return nil
}

func convertNode(node *yaml.Node, depth int) (any, error) {
	if depth > maximumNestingDepth {
		return nil, ErrNestingTooDeep
	}
	resolved := resolveAlias(node)
	switch resolved.Kind {
	case yaml.MappingNode:
		return convertMapping(resolved, depth)
	case yaml.SequenceNode:
		items := make([]any, 0, len(resolved.Content))
		for _, itemNode := range resolved.Content {
			item, convertError := convertNode(itemNode, depth+1)
			if convertError != nil {
				return nil, convertError
			}
			items = append(items, item)
		}
		return items, nil
	case yaml.ScalarNode:
		return convertScalar(resolved), nil
	default:
		return nil, nil
	}
}

// convertScalar keeps numbers and booleans typed and renders every other
// scalar, including timestamps and non-finite floats, as its source text.
func convertScalar(node *yaml.Node) any {
	switch node.ShortTag() {
	case "!!null":
		return nil
	case "!!bool":
		var booleanValue bool
		if decodeError := node.Decode(&booleanValue); decodeError == nil {
			return booleanValue
		}
	case "!!int":
		var integerValue int
		if decodeError := node.Decode(&integerValue); decodeError == nil {
			return integerValue
		}
	case "!!float":
		var floatValue float64
		if decodeError := node.Decode(&floatValue); decodeError == nil && !math.IsInf(floatValue, 0) && !math.IsNaN(floatValue) {
			return floatValue
		}
	}
	return node.Value
}
