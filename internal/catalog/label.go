package catalog

import "strings"

const labelSeparator = "-"

// ParseCategoryLabel derives a category name from a directory basename.
// The basename is split on the first dash only and the remainder, trimmed of
// surrounding whitespace, is the label: "01-search-engines" becomes
// "search-engines". A basename without a dash, or whose remainder is blank, is
// used unchanged.
func ParseCategoryLabel(baseName string) string {
	_, remainder, hasSeparator := strings.Cut(baseName, labelSeparator)
	if !hasSeparator {
		return baseName
	}
	label := strings.TrimSpace(remainder)
	if label == "" {
		return baseName
	}
	return label
}
