package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/temirov/explorer/internal/types"
)

const (
	maximumHeadingLevel      = 6
	headingMarker            = "#"
	markdownLinkFormat       = "- [%s](%s)"
	markdownPlainItemFormat  = "- %s"
	markdownDescriptionFmt   = ": %s"
	toolDescriptionFieldName = "description"

	htmlDocumentOpenFormat = "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n"
	htmlDocumentClose      = "</body>\n</html>\n"
	errorConvertHTMLFormat = "converting markdown to html: %w"
)

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"[", `\[`,
	"]", `\]`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"<", `\<`,
)

// RenderMarkdown renders the document as nested headings with one list item per tool.
// Categories deeper than six levels reuse the smallest heading.
func RenderMarkdown(document types.CategoryNode) []byte {
	var buffer bytes.Buffer
	writeMarkdownCategory(&buffer, document, 1)
	return buffer.Bytes()
}

func writeMarkdownCategory(buffer *bytes.Buffer, node types.CategoryNode, level int) {
	headingLevel := level
	if headingLevel > maximumHeadingLevel {
		headingLevel = maximumHeadingLevel
	}
	buffer.WriteString(strings.Repeat(headingMarker, headingLevel) + " " + escapeMarkdown(node.Name) + "\n\n")

	wroteTools := false
	for _, child := range node.Children {
		if child.Category != nil {
			continue
		}
		buffer.WriteString(markdownToolItem(child))
		buffer.WriteString("\n")
		wroteTools = true
	}
	if wroteTools {
		buffer.WriteString("\n")
	}

	for _, child := range node.Children {
		if child.Category != nil {
			writeMarkdownCategory(buffer, *child.Category, level+1)
		}
	}
}

func markdownToolItem(entry types.Entry) string {
	if entry.IsValue() {
		return fmt.Sprintf(markdownPlainItemFormat, escapeMarkdown(entry.ValueText()))
	}
	toolName := escapeMarkdown(toolLabel(entry))
	var item string
	if toolURL := entry.Tool.StringField(toolURLFieldName); toolURL != "" {
		item = fmt.Sprintf(markdownLinkFormat, toolName, toolURL)
	} else {
		item = fmt.Sprintf(markdownPlainItemFormat, toolName)
	}
	if description := strings.TrimSpace(entry.Tool.StringField(toolDescriptionFieldName)); description != "" {
		item += fmt.Sprintf(markdownDescriptionFmt, escapeMarkdown(strings.Join(strings.Fields(description), " ")))
	}
	return item
}

func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

// RenderHTML converts the markdown rendering into a standalone HTML page.
func RenderHTML(document types.CategoryNode) ([]byte, error) {
	converter := goldmark.New(goldmark.WithExtensions(extension.Linkify))
	var body bytes.Buffer
	if convertError := converter.Convert(RenderMarkdown(document), &body); convertError != nil {
		return nil, fmt.Errorf(errorConvertHTMLFormat, convertError)
	}

	var page bytes.Buffer
	fmt.Fprintf(&page, htmlDocumentOpenFormat, htmlTitleEscaper.Replace(document.Name))
	page.Write(body.Bytes())
	page.WriteString(htmlDocumentClose)
	return page.Bytes(), nil
}

var htmlTitleEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
