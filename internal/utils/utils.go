// Package utils contains general helper functions used across the explorer tool.
package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// File and directory names used across the project.
const (
	// IgnoreFileName lists glob patterns, relative to the data root, that the walk skips.
	IgnoreFileName = ".explorerignore"
	// GlobalConfigDirectoryName is the directory under the home directory holding global configuration.
	GlobalConfigDirectoryName = ".explorer"
	// GlobalConfigFileName is the configuration file inside GlobalConfigDirectoryName.
	GlobalConfigFileName = "config.yaml"
	// LocalConfigFileName is the configuration file looked up in the working directory.
	LocalConfigFileName = ".explorer.yaml"
	// HiddenEntryPrefix marks hidden entries, which skip_hidden leaves out.
	HiddenEntryPrefix = "."
)

const (
	pathSegmentSeparator = "/"
	descendantSuffix     = "/**"
)

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// ContainsString checks if a slice of strings contains a specific target string.
func ContainsString(stringSlice []string, targetString string) bool {
	for _, currentString := range stringSlice {
		if currentString == targetString {
			return true
		}
	}
	return false
}

// RelativePathOrSelf calculates the slash-separated relative path from root to fullPath.
// Returns the cleaned fullPath if relative calculation fails.
// Returns "." if fullPath and root resolve to the same directory.
func RelativePathOrSelf(fullPath, root string) string {
	cleanPath := filepath.Clean(fullPath)
	absoluteRoot, err := filepath.Abs(root)
	if err != nil {
		return cleanPath
	}
	cleanAbsoluteRoot := filepath.Clean(absoluteRoot)
	absolutePath, err := filepath.Abs(cleanPath)
	if err == nil {
		cleanPath = absolutePath
	}

	if cleanPath == cleanAbsoluteRoot {
		return "."
	}

	relativePath, relErr := filepath.Rel(cleanAbsoluteRoot, cleanPath)
	if relErr != nil {
		return cleanPath
	}
	return filepath.ToSlash(relativePath)
}

// ValidatePatterns reports the first pattern doublestar cannot parse.
func ValidatePatterns(patterns []string) error {
	for _, pattern := range patterns {
		normalizedPattern := normalizePattern(pattern)
		if normalizedPattern == "" {
			continue
		}
		if !doublestar.ValidatePattern(normalizedPattern) {
			return fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}
	return nil
}

// ShouldIgnoreByPath reports whether a path relative to the data root is excluded.
// Patterns use doublestar syntax with forward slashes. A pattern without a slash
// matches any single path segment, so "drafts" skips every directory named drafts.
// A pattern containing a slash, or starting with one, is anchored at the data root
// and also excludes everything below the matched directory. A trailing slash is
// accepted and ignored since only directories are ever tested.
func ShouldIgnoreByPath(relativePath string, ignorePatterns []string) bool {
	normalizedPath := strings.ReplaceAll(relativePath, "\\", pathSegmentSeparator)
	normalizedPath = strings.TrimPrefix(normalizedPath, "./")
	if normalizedPath == "" || normalizedPath == "." {
		return false
	}
	pathSegments := strings.Split(normalizedPath, pathSegmentSeparator)

	for _, patternValue := range ignorePatterns {
		isAnchored := strings.HasPrefix(strings.ReplaceAll(patternValue, "\\", pathSegmentSeparator), pathSegmentSeparator)
		normalizedPattern := normalizePattern(patternValue)
		if normalizedPattern == "" {
			continue
		}

		if !isAnchored && !strings.Contains(normalizedPattern, pathSegmentSeparator) {
			for _, pathSegment := range pathSegments {
				isMatched, matchError := doublestar.Match(normalizedPattern, pathSegment)
				if matchError == nil && isMatched {
					return true
				}
			}
			continue
		}

		isMatched, matchError := doublestar.Match(normalizedPattern, normalizedPath)
		if matchError == nil && isMatched {
			return true
		}
		isMatched, matchError = doublestar.Match(normalizedPattern+descendantSuffix, normalizedPath)
		if matchError == nil && isMatched {
			return true
		}
	}

	return false
}

// IsHiddenName reports whether a directory entry name starts with a dot.
func IsHiddenName(name string) bool {
	return strings.HasPrefix(name, HiddenEntryPrefix) && name != "." && name != ".."
}

func normalizePattern(pattern string) string {
	normalizedPattern := strings.TrimSpace(strings.ReplaceAll(pattern, "\\", pathSegmentSeparator))
	normalizedPattern = strings.TrimPrefix(normalizedPattern, pathSegmentSeparator)
	return strings.TrimSuffix(normalizedPattern, pathSegmentSeparator)
}
