// Package config loads layered application settings and the data root's ignore file.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/explorer/internal/utils"
)

const (
	ignoreCommentPrefix    = "#"
	errorLoadIgnoreFormat  = "loading %s from %s: %w"
	errorCloseIgnoreFormat = "Warning: failed to close %s: %v\n"
)

// LoadIgnoreFilePatterns reads an ignore file and returns its patterns in order.
// Blank lines and lines starting with # are skipped. A missing file yields no patterns.
//
// #nosec G304
func LoadIgnoreFilePatterns(ignoreFilePath string) ([]string, error) {
	fileHandle, openFileError := os.Open(ignoreFilePath)
	if openFileError != nil {
		if os.IsNotExist(openFileError) {
			return nil, nil
		}
		return nil, openFileError
	}
	defer func() {
		closeError := fileHandle.Close()
		if closeError != nil {
			fmt.Fprintf(os.Stderr, errorCloseIgnoreFormat, ignoreFilePath, closeError)
		}
	}()

	var ignorePatterns []string
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, ignoreCommentPrefix) {
			continue
		}
		ignorePatterns = append(ignorePatterns, trimmedLine)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, scanError
	}
	return ignorePatterns, nil
}

// LoadCombinedIgnorePatterns returns the patterns that exclude directories below
// dataRootPath: those of the data root's ignore file when useIgnoreFile is set,
// followed by exclusionPatterns. Duplicates are dropped and every pattern is validated.
func LoadCombinedIgnorePatterns(dataRootPath string, exclusionPatterns []string, useIgnoreFile bool) ([]string, error) {
	var combinedPatterns []string

	if useIgnoreFile {
		ignoreFilePath := filepath.Join(dataRootPath, utils.IgnoreFileName)
		ignoreFilePatterns, loadError := LoadIgnoreFilePatterns(ignoreFilePath)
		if loadError != nil {
			return nil, fmt.Errorf(errorLoadIgnoreFormat, utils.IgnoreFileName, dataRootPath, loadError)
		}
		combinedPatterns = append(combinedPatterns, ignoreFilePatterns...)
	}

	deduplicatedPatterns := utils.DeduplicatePatterns(combinedPatterns)

	for _, pattern := range exclusionPatterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" {
			continue
		}
		if !utils.ContainsString(deduplicatedPatterns, trimmedPattern) {
			deduplicatedPatterns = append(deduplicatedPatterns, trimmedPattern)
		}
	}

	if validationError := utils.ValidatePatterns(deduplicatedPatterns); validationError != nil {
		return nil, fmt.Errorf(errorLoadIgnoreFormat, utils.IgnoreFileName, dataRootPath, validationError)
	}
	return deduplicatedPatterns, nil
}
