package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/explorer/internal/utils"
)

// writeTestFile creates a file with the specified content, failing the test on error.
func writeTestFile(t *testing.T, filePath string, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
}

// TestLoadIgnoreFilePatternsSkipsCommentsAndBlanks verifies that only pattern lines are returned, in file order.
func TestLoadIgnoreFilePatternsSkipsCommentsAndBlanks(t *testing.T) {
	dataRoot := t.TempDir()
	ignoreFilePath := filepath.Join(dataRoot, utils.IgnoreFileName)
	writeTestFile(t, ignoreFilePath, "# staging areas\n\ndrafts\n  /99-archive  \n**/tmp\n")

	patternList, loadError := LoadIgnoreFilePatterns(ignoreFilePath)
	require.NoError(t, loadError)
	require.Equal(t, []string{"drafts", "/99-archive", "**/tmp"}, patternList)
}

// TestLoadIgnoreFilePatternsMissingFile verifies that a missing ignore file is not an error.
func TestLoadIgnoreFilePatternsMissingFile(t *testing.T) {
	patternList, loadError := LoadIgnoreFilePatterns(filepath.Join(t.TempDir(), utils.IgnoreFileName))
	require.NoError(t, loadError)
	require.Empty(t, patternList)
}

// TestLoadCombinedIgnorePatterns verifies ignore file and configured patterns are merged without duplicates.
func TestLoadCombinedIgnorePatterns(t *testing.T) {
	testCases := []struct {
		name              string
		ignoreFileContent string
		exclusionPatterns []string
		useIgnoreFile     bool
		expectedPatterns  []string
		expectError       bool
	}{
		{
			name:              "ignore file then exclusions",
			ignoreFileContent: "drafts\narchive\ndrafts\n",
			exclusionPatterns: []string{"archive", " scratch ", ""},
			useIgnoreFile:     true,
			expectedPatterns:  []string{"drafts", "archive", "scratch"},
		},
		{
			name:              "ignore file disabled",
			ignoreFileContent: "drafts\n",
			exclusionPatterns: []string{"scratch"},
			useIgnoreFile:     false,
			expectedPatterns:  []string{"scratch"},
		},
		{
			name:              "invalid pattern rejected",
			ignoreFileContent: "[broken\n",
			useIgnoreFile:     true,
			expectError:       true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			dataRoot := t.TempDir()
			writeTestFile(t, filepath.Join(dataRoot, utils.IgnoreFileName), testCase.ignoreFileContent)

			patternList, loadError := LoadCombinedIgnorePatterns(dataRoot, testCase.exclusionPatterns, testCase.useIgnoreFile)
			if testCase.expectError {
				require.Error(t, loadError)
				return
			}
			require.NoError(t, loadError)
			require.Equal(t, testCase.expectedPatterns, patternList)
		})
	}
}
