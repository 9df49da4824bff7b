// Package output renders catalog documents and writes them to disk.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/explorer/internal/types"
)

const (
	// DefaultIndentWidth is the number of spaces used per JSON nesting level.
	DefaultIndentWidth = 4

	indentPrefix = ""
	indentUnit   = " "

	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "

	toolNodeFormat        = "%s[Tool] %s\n"
	toolNodeWithURLFormat = "%s[Tool] %s (%s)\n"
	valueNodeFormat       = "%s[Value] %s\n"
	categoryNodeFormat    = "%s%s\n"
	unnamedToolLabel      = "(unnamed)"
	toolURLFieldName      = "url"

	invalidFormatMessage      = "invalid format value '%s'"
	negativeIndentMessage     = "indent must not be negative, got %d"
	errorEncodeJSONFormat     = "encoding catalog: %w"
	errorCreateDirectoryFmt   = "creating output directory %s: %w"
	errorWriteOutputFormat    = "writing output %s: %w"
	outputDirectoryPermission = 0o755
	outputFilePermission      = 0o644
)

// IsSupportedFormat reports whether the provided format is recognized.
func IsSupportedFormat(format string) bool {
	switch format {
	case types.FormatJSON, types.FormatRaw, types.FormatMarkdown, types.FormatHTML:
		return true
	default:
		return false
	}
}

// Render returns the document encoded in format. indentWidth applies to JSON only.
func Render(document types.CategoryNode, format string, indentWidth int) ([]byte, error) {
	switch format {
	case types.FormatJSON:
		return RenderJSON(document, indentWidth)
	case types.FormatRaw:
		var buffer bytes.Buffer
		WriteTreeRaw(&buffer, document)
		return buffer.Bytes(), nil
	case types.FormatMarkdown:
		return RenderMarkdown(document), nil
	case types.FormatHTML:
		return RenderHTML(document)
	default:
		return nil, fmt.Errorf(invalidFormatMessage, format)
	}
}

// RenderJSON pretty-prints the document with indentWidth spaces per level, leaves
// HTML characters unescaped, and ends the output with a newline. An indentWidth of
// zero produces a single line.
func RenderJSON(document types.CategoryNode, indentWidth int) ([]byte, error) {
	if indentWidth < 0 {
		return nil, fmt.Errorf(negativeIndentMessage, indentWidth)
	}
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent(indentPrefix, strings.Repeat(indentUnit, indentWidth))
	if encodeError := encoder.Encode(document); encodeError != nil {
		return nil, fmt.Errorf(errorEncodeJSONFormat, encodeError)
	}
	return buffer.Bytes(), nil
}

// WriteTreeRaw renders the document as an indented tree to the provided writer.
func WriteTreeRaw(writer io.Writer, document types.CategoryNode) {
	fmt.Fprintf(writer, categoryNodeFormat, "", document.Name)
	renderTreeChildren(writer, document.Children, "")
}

func renderTreeChildren(writer io.Writer, children []types.Entry, prefix string) {
	for index, child := range children {
		isLast := index == len(children)-1
		connector := treeBranchConnector
		childPrefix := prefix + treeBranchPadding
		if isLast {
			connector = treeLastConnector
			childPrefix = prefix + treeLastPadding
		}
		linePrefix := prefix + connector

		if child.Category != nil {
			fmt.Fprintf(writer, categoryNodeFormat, linePrefix, child.Category.Name)
			renderTreeChildren(writer, child.Category.Children, childPrefix)
			continue
		}
		if child.IsValue() {
			fmt.Fprintf(writer, valueNodeFormat, linePrefix, child.ValueText())
			continue
		}
		toolName := toolLabel(child)
		if toolURL := child.Tool.StringField(toolURLFieldName); toolURL != "" {
			fmt.Fprintf(writer, toolNodeWithURLFormat, linePrefix, toolName, toolURL)
		} else {
			fmt.Fprintf(writer, toolNodeFormat, linePrefix, toolName)
		}
	}
}

func toolLabel(entry types.Entry) string {
	if name := entry.DisplayName(); name != "" {
		return name
	}
	return unnamedToolLabel
}

// WriteDocument writes content to outputPath, creating missing parent directories.
// Any failure is returned; callers treat it as fatal.
func WriteDocument(outputPath string, content []byte) error {
	outputDirectory := filepath.Dir(outputPath)
	if makeDirectoryError := os.MkdirAll(outputDirectory, outputDirectoryPermission); makeDirectoryError != nil {
		return fmt.Errorf(errorCreateDirectoryFmt, outputDirectory, makeDirectoryError)
	}
	if writeError := os.WriteFile(outputPath, content, outputFilePermission); writeError != nil {
		return fmt.Errorf(errorWriteOutputFormat, outputPath, writeError)
	}
	return nil
}
