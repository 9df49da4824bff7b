package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/explorer/internal/utils"
)

// categoryFileName defines the name of the data file used in tests.
const categoryFileName = "tools.yaml"

// draftsDirectoryName defines a directory excluded at any depth.
const draftsDirectoryName = "drafts"

// nestedDraftsPath defines a drafts directory below a category.
const nestedDraftsPath = "01-search/" + draftsDirectoryName

// anchoredArchivePattern defines a pattern anchored at the data root.
const anchoredArchivePattern = "/99-archive"

// TestDeduplicatePatterns verifies that DeduplicatePatterns removes duplicate patterns.
func TestDeduplicatePatterns(t *testing.T) {
	testCases := []struct {
		testName string
		patterns []string
		expected []string
	}{
		{
			testName: "removes duplicates",
			patterns: []string{"a", "b", "a"},
			expected: []string{"a", "b"},
		},
		{
			testName: "keeps unique",
			patterns: []string{"a", "b"},
			expected: []string{"a", "b"},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.testName, func(t *testing.T) {
			require.Equal(t, testCase.expected, utils.DeduplicatePatterns(testCase.patterns))
		})
	}
}

// TestContainsString verifies that ContainsString locates strings in a slice.
func TestContainsString(t *testing.T) {
	require.True(t, utils.ContainsString([]string{"alpha", "beta"}, "beta"))
	require.False(t, utils.ContainsString([]string{"alpha", "beta"}, "gamma"))
}

// TestRelativePathOrSelf verifies relative path calculations.
func TestRelativePathOrSelf(t *testing.T) {
	temporaryRoot := t.TempDir()
	nestedDirectory := filepath.Join(temporaryRoot, "01-search")
	require.NoError(t, os.MkdirAll(nestedDirectory, 0o755))
	nestedFile := filepath.Join(nestedDirectory, categoryFileName)
	require.NoError(t, os.WriteFile(nestedFile, []byte("tools: []\n"), 0o600))
	testCases := []struct {
		testName string
		fullPath string
		root     string
		expected string
	}{
		{
			testName: "root path returns dot",
			fullPath: temporaryRoot,
			root:     temporaryRoot,
			expected: ".",
		},
		{
			testName: "nested path uses forward slashes",
			fullPath: nestedFile,
			root:     temporaryRoot,
			expected: "01-search/" + categoryFileName,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.testName, func(t *testing.T) {
			require.Equal(t, testCase.expected, utils.RelativePathOrSelf(testCase.fullPath, testCase.root))
		})
	}
}

// TestShouldIgnoreByPath verifies doublestar-based exclusion rules.
func TestShouldIgnoreByPath(t *testing.T) {
	testCases := []struct {
		testName       string
		relativePath   string
		patterns       []string
		expectedIgnore bool
	}{
		{
			testName:       "root is never ignored",
			relativePath:   ".",
			patterns:       []string{"*"},
			expectedIgnore: false,
		},
		{
			testName:       "bare name matches at root",
			relativePath:   draftsDirectoryName,
			patterns:       []string{draftsDirectoryName},
			expectedIgnore: true,
		},
		{
			testName:       "bare name matches nested segment",
			relativePath:   nestedDraftsPath,
			patterns:       []string{draftsDirectoryName},
			expectedIgnore: true,
		},
		{
			testName:       "trailing slash is accepted",
			relativePath:   nestedDraftsPath,
			patterns:       []string{draftsDirectoryName + "/"},
			expectedIgnore: true,
		},
		{
			testName:       "wildcard segment",
			relativePath:   "01-search/tmp-cache",
			patterns:       []string{"tmp-*"},
			expectedIgnore: true,
		},
		{
			testName:       "anchored pattern matches root child",
			relativePath:   "99-archive",
			patterns:       []string{anchoredArchivePattern},
			expectedIgnore: true,
		},
		{
			testName:       "anchored pattern excludes descendants",
			relativePath:   "99-archive/01-old",
			patterns:       []string{anchoredArchivePattern},
			expectedIgnore: true,
		},
		{
			testName:       "anchored pattern does not match nested name",
			relativePath:   "01-search/99-archive",
			patterns:       []string{anchoredArchivePattern},
			expectedIgnore: false,
		},
		{
			testName:       "double star pattern",
			relativePath:   "01-search/02-engines/experimental",
			patterns:       []string{"01-search/**/experimental"},
			expectedIgnore: true,
		},
		{
			testName:       "backslashes are normalized",
			relativePath:   `01-search\drafts`,
			patterns:       []string{`01-search\drafts`},
			expectedIgnore: true,
		},
		{
			testName:       "not ignored",
			relativePath:   "01-search/02-engines",
			patterns:       []string{draftsDirectoryName, anchoredArchivePattern},
			expectedIgnore: false,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.testName, func(t *testing.T) {
			require.Equal(t, testCase.expectedIgnore, utils.ShouldIgnoreByPath(testCase.relativePath, testCase.patterns))
		})
	}
}

// TestValidatePatterns verifies malformed globs are reported.
func TestValidatePatterns(t *testing.T) {
	require.NoError(t, utils.ValidatePatterns([]string{"drafts", "/99-archive/", "**/tmp-*"}))
	require.Error(t, utils.ValidatePatterns([]string{"[unterminated"}))
}

// TestIsHiddenName verifies dot-prefixed names are hidden.
func TestIsHiddenName(t *testing.T) {
	require.True(t, utils.IsHiddenName(".git"))
	require.False(t, utils.IsHiddenName("01-search"))
	require.False(t, utils.IsHiddenName("."))
}
