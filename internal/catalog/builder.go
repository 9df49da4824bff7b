// Package catalog turns a directory tree of tools files into a nested catalog document.
package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/explorer/internal/types"
	"github.com/temirov/explorer/internal/utils"
)

const (
	logEnterDirectory       = "scanning directory"
	logToolsLoaded          = "loaded tools"
	logToolsMissing         = "no tools file"
	logOpaqueElements       = "keeping tool entries that are not mappings as plain values"
	logMalformedToolsFile   = "skipping malformed tools file"
	logUnreadableDirectory  = "skipping unreadable directory"
	logUnresolvableSymlink  = "skipping unresolvable directory link"
	logCycleDetected        = "skipping directory cycle"
	logIgnoredDirectory     = "ignoring directory"
	logHiddenDirectory      = "ignoring hidden directory"
	logPrunedDirectory      = "pruning empty directory"
	logBrokenEntry          = "skipping entry that cannot be inspected"
	logFieldPath            = "path"
	logFieldCount           = "count"
	logFieldAncestor        = "ancestor"
	errorAbsolutePathFormat = "getting absolute path for %s: %w"
	errorStatRootFormat     = "inspecting data root %s: %w"
	errorRootNotDirFormat   = "data root %s is not a directory"
)

// TreeBuilder builds the catalog from a data root. A TreeBuilder walks one tree
// at a time and must not be shared between goroutines during a build.
type TreeBuilder struct {
	// ToolsFileName is the per-directory data file; empty means tools.yaml.
	ToolsFileName string
	// CatalogName names the root document; empty means the default catalog name.
	CatalogName string
	// IgnorePatterns are doublestar globs relative to the data root.
	IgnorePatterns []string
	// SkipHidden ignores directories whose names start with a dot.
	SkipHidden bool
	// SkipSymlinks ignores symbolic links to directories instead of following them.
	SkipSymlinks bool
	// Logger receives progress and diagnostic messages; nil discards them.
	Logger *zap.Logger

	rootDirectoryPath string
	ancestors         map[string]string
	problems          []Problem
}

// Result is the outcome of BuildDocument.
type Result struct {
	Document types.CategoryNode
	Problems []Problem
}

// BuildDocument validates the data root, walks it, and wraps the root's children
// under the catalog name. The root's own basename never appears in the document.
// Only an unusable data root is returned as an error; failures below the root
// are reported through Result.Problems.
func (treeBuilder *TreeBuilder) BuildDocument(rootDirectoryPath string) (Result, error) {
	absoluteRootPath, absolutePathError := filepath.Abs(rootDirectoryPath)
	if absolutePathError != nil {
		return Result{}, fmt.Errorf(errorAbsolutePathFormat, rootDirectoryPath, absolutePathError)
	}
	rootInfo, rootStatError := os.Stat(absoluteRootPath)
	if rootStatError != nil {
		return Result{}, fmt.Errorf(errorStatRootFormat, rootDirectoryPath, rootStatError)
	}
	if !rootInfo.IsDir() {
		return Result{}, fmt.Errorf(errorRootNotDirFormat, rootDirectoryPath)
	}

	rootNode := treeBuilder.Build(absoluteRootPath)
	catalogName := treeBuilder.CatalogName
	if catalogName == "" {
		catalogName = types.DefaultCatalogName
	}
	return Result{
		Document: types.CategoryNode{Name: catalogName, Children: rootNode.Children},
		Problems: treeBuilder.Problems(),
	}, nil
}

// Build walks directoryPath and returns its node. The node's name is the label
// parsed from the basename and its children are the directory's tools followed
// by every non-empty subcategory. Children is never nil.
func (treeBuilder *TreeBuilder) Build(directoryPath string) types.CategoryNode {
	treeBuilder.rootDirectoryPath = directoryPath
	treeBuilder.ancestors = map[string]string{}
	treeBuilder.problems = nil
	if realRootPath, resolveError := filepath.EvalSymlinks(directoryPath); resolveError == nil {
		treeBuilder.ancestors[realRootPath] = directoryPath
	}

	return types.CategoryNode{
		Name:     ParseCategoryLabel(filepath.Base(directoryPath)),
		Children: treeBuilder.buildChildren(directoryPath),
	}
}

// Problems returns the failures contained during the last Build.
func (treeBuilder *TreeBuilder) Problems() []Problem {
	return append([]Problem(nil), treeBuilder.problems...)
}

// buildChildren returns the entries of one directory. Any failure to list the
// directory quarantines it: the directory contributes an empty sequence.
func (treeBuilder *TreeBuilder) buildChildren(currentDirectoryPath string) []types.Entry {
	logger := treeBuilder.logger()
	children := []types.Entry{}
	logger.Debug(logEnterDirectory, zap.String(logFieldPath, currentDirectoryPath))

	directoryEntries, readDirectoryError := os.ReadDir(currentDirectoryPath)
	if readDirectoryError != nil {
		treeBuilder.recordProblem(ProblemSubdirectoryAccess, currentDirectoryPath, readDirectoryError)
		logger.Warn(logUnreadableDirectory, zap.String(logFieldPath, currentDirectoryPath), zap.Error(readDirectoryError))
		return children
	}

	toolsFile := LoadToolsFile(currentDirectoryPath, treeBuilder.toolsFileName())
	switch toolsFile.Status {
	case ToolsFileLoaded:
		children = append(children, toolsFile.Tools...)
		logger.Debug(logToolsLoaded, zap.String(logFieldPath, toolsFile.Path), zap.Int(logFieldCount, len(toolsFile.Tools)))
		if toolsFile.OpaqueElements > 0 {
			logger.Warn(logOpaqueElements, zap.String(logFieldPath, toolsFile.Path), zap.Int(logFieldCount, toolsFile.OpaqueElements))
		}
	case ToolsFileMalformed:
		treeBuilder.recordProblem(ProblemMalformedDataFile, toolsFile.Path, toolsFile.Err)
		logger.Warn(logMalformedToolsFile, zap.String(logFieldPath, toolsFile.Path), zap.Error(toolsFile.Err))
	default:
		logger.Debug(logToolsMissing, zap.String(logFieldPath, currentDirectoryPath))
	}

	var subcategories []types.Entry
	for _, directoryEntry := range directoryEntries {
		childPath := filepath.Join(currentDirectoryPath, directoryEntry.Name())
		isDirectory, inspectError := treeBuilder.isDirectory(childPath, directoryEntry)
		if inspectError != nil {
			logger.Debug(logBrokenEntry, zap.String(logFieldPath, childPath), zap.Error(inspectError))
			continue
		}
		if !isDirectory {
			continue
		}
		if treeBuilder.SkipHidden && utils.IsHiddenName(directoryEntry.Name()) {
			logger.Debug(logHiddenDirectory, zap.String(logFieldPath, childPath))
			continue
		}
		relativeChildPath := utils.RelativePathOrSelf(childPath, treeBuilder.rootDirectoryPath)
		if utils.ShouldIgnoreByPath(relativeChildPath, treeBuilder.IgnorePatterns) {
			logger.Debug(logIgnoredDirectory, zap.String(logFieldPath, childPath))
			continue
		}

		realChildPath, resolveError := filepath.EvalSymlinks(childPath)
		if resolveError != nil {
			treeBuilder.recordProblem(ProblemSubdirectoryAccess, childPath, resolveError)
			logger.Warn(logUnresolvableSymlink, zap.String(logFieldPath, childPath), zap.Error(resolveError))
			continue
		}
		if ancestorPath, onCurrentPath := treeBuilder.ancestors[realChildPath]; onCurrentPath {
			treeBuilder.recordProblem(ProblemCycleDetected, childPath, fmt.Errorf("resolves to ancestor %s", ancestorPath))
			logger.Warn(logCycleDetected, zap.String(logFieldPath, childPath), zap.String(logFieldAncestor, ancestorPath))
			continue
		}

		treeBuilder.ancestors[realChildPath] = childPath
		grandchildren := treeBuilder.buildChildren(childPath)
		delete(treeBuilder.ancestors, realChildPath)

		if len(grandchildren) == 0 {
			logger.Debug(logPrunedDirectory, zap.String(logFieldPath, childPath))
			continue
		}
		subcategories = append(subcategories, types.NewCategoryEntry(ParseCategoryLabel(directoryEntry.Name()), grandchildren))
	}

	return append(children, subcategories...)
}

// isDirectory reports whether the entry is a directory, following symbolic links
// unless SkipSymlinks is set.
func (treeBuilder *TreeBuilder) isDirectory(childPath string, directoryEntry fs.DirEntry) (bool, error) {
	if directoryEntry.IsDir() {
		return true, nil
	}
	if directoryEntry.Type()&fs.ModeSymlink == 0 || treeBuilder.SkipSymlinks {
		return false, nil
	}
	targetInfo, statError := os.Stat(childPath)
	if statError != nil {
		return false, statError
	}
	return targetInfo.IsDir(), nil
}

func (treeBuilder *TreeBuilder) recordProblem(kind ProblemKind, path string, cause error) {
	treeBuilder.problems = append(treeBuilder.problems, Problem{Kind: kind, Path: path, Err: cause})
}

func (treeBuilder *TreeBuilder) toolsFileName() string {
	if treeBuilder.ToolsFileName == "" {
		return types.DefaultToolsFileName
	}
	return treeBuilder.ToolsFileName
}

func (treeBuilder *TreeBuilder) logger() *zap.Logger {
	if treeBuilder.Logger == nil {
		return zap.NewNop()
	}
	return treeBuilder.Logger
}
