package catalog_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/explorer/internal/catalog"
	"github.com/temirov/explorer/internal/types"
)

const (
	alphaBetaTools = "tools:\n  - name: Alpha\n    url: https://alpha.example\n  - name: Beta\n    url: https://beta.example\n"
	gammaTools     = "tools:\n  - name: Gamma\n    description: nested tool\n"
)

func writeToolsFile(t *testing.T, directory string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(directory, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(directory, types.DefaultToolsFileName), []byte(content), 0o600))
}

func entryNames(entries []types.Entry) []string {
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.DisplayName())
	}
	return names
}

func TestBuildEmptyDirectoryYieldsEmptyChildren(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "01-empty", "02-deeper"), 0o755))

	treeBuilder := &catalog.TreeBuilder{}
	node := treeBuilder.Build(root)

	require.NotNil(t, node.Children)
	require.Empty(t, node.Children)
	require.Empty(t, treeBuilder.Problems())
}

func TestBuildAdoptsToolsInOrder(t *testing.T) {
	root := t.TempDir()
	writeToolsFile(t, root, alphaBetaTools)

	node := (&catalog.TreeBuilder{}).Build(root)

	require.Equal(t, []string{"Alpha", "Beta"}, entryNames(node.Children))
	for _, child := range node.Children {
		require.False(t, child.IsCategory())
	}
	require.Equal(t, "https://alpha.example", node.Children[0].Tool.StringField("url"))
}

func TestBuildPromotesNonEmptySubdirectories(t *testing.T) {
	root := t.TempDir()
	writeToolsFile(t, root, alphaBetaTools)
	writeToolsFile(t, filepath.Join(root, "03-search-tools"), gammaTools)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "04-empty"), 0o755))

	node := (&catalog.TreeBuilder{}).Build(root)

	require.Equal(t, []string{"Alpha", "Beta", "search-tools"}, entryNames(node.Children))
	subcategory := node.Children[2]
	require.True(t, subcategory.IsCategory())
	require.Equal(t, []string{"Gamma"}, entryNames(subcategory.Category.Children))
}

func TestBuildKeepsCategoriesWithOnlyNestedTools(t *testing.T) {
	root := t.TempDir()
	writeToolsFile(t, filepath.Join(root, "01-people", "01-social"), gammaTools)
	writeToolsFile(t, filepath.Join(root, "02-maps"), alphaBetaTools)

	node := (&catalog.TreeBuilder{}).Build(root)

	require.Equal(t, []string{"people", "maps"}, entryNames(node.Children))
	people := node.Children[0].Category
	require.Equal(t, []string{"social"}, entryNames(people.Children))
	require.Equal(t, []string{"Gamma"}, entryNames(people.Children[0].Category.Children))
}

func TestBuildQuarantinesMalformedToolsFiles(t *testing.T) {
	root := t.TempDir()
	writeToolsFile(t, filepath.Join(root, "01-broken"), "tools: \"not-a-list\"\n")
	writeToolsFile(t, filepath.Join(root, "02-missing-field"), "items:\n  - name: Lost\n")
	writeToolsFile(t, filepath.Join(root, "03-invalid"), "tools: [unclosed\n")
	writeToolsFile(t, filepath.Join(root, "04-good"), gammaTools)

	core, recorded := observer.New(zapcore.WarnLevel)
	treeBuilder := &catalog.TreeBuilder{Logger: zap.New(core)}
	node := treeBuilder.Build(root)

	require.Equal(t, []string{"good"}, entryNames(node.Children))
	problems := treeBuilder.Problems()
	require.Len(t, problems, 3)
	for _, problem := range problems {
		require.Equal(t, catalog.ProblemMalformedDataFile, problem.Kind)
		require.Error(t, problem.Err)
	}
	require.Equal(t, 3, recorded.FilterMessage("skipping malformed tools file").Len())
}

func TestBuildKeepsCategoriesHoldingOnlyPlainValues(t *testing.T) {
	root := t.TempDir()
	writeToolsFile(t, filepath.Join(root, "01-misc"), "tools:\n  - just-a-string\n")

	core, recorded := observer.New(zapcore.WarnLevel)
	treeBuilder := &catalog.TreeBuilder{Logger: zap.New(core)}
	node := treeBuilder.Build(root)

	require.Equal(t, []string{"misc"}, entryNames(node.Children))
	misc := node.Children[0].Category
	require.Len(t, misc.Children, 1)
	require.True(t, misc.Children[0].IsValue())
	require.Equal(t, "just-a-string", misc.Children[0].Value)
	require.Empty(t, treeBuilder.Problems())
	require.Equal(t, 1, recorded.FilterMessage("keeping tool entries that are not mappings as plain values").Len())

	encoded, encodeError := json.Marshal(node.Children)
	require.NoError(t, encodeError)
	require.Equal(t, `[{"name":"misc","children":["just-a-string"]}]`, string(encoded))
}

func TestBuildMalformedFileStillKeepsSubcategories(t *testing.T) {
	root := t.TempDir()
	category := filepath.Join(root, "01-search")
	writeToolsFile(t, category, "tools: 7\n")
	writeToolsFile(t, filepath.Join(category, "01-engines"), gammaTools)

	node := (&catalog.TreeBuilder{}).Build(root)

	require.Equal(t, []string{"search"}, entryNames(node.Children))
	require.Equal(t, []string{"engines"}, entryNames(node.Children[0].Category.Children))
}

func TestBuildQuarantinesUnreadableDirectories(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}
	root := t.TempDir()
	locked := filepath.Join(root, "01-locked")
	writeToolsFile(t, locked, gammaTools)
	writeToolsFile(t, filepath.Join(root, "02-open"), alphaBetaTools)
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	treeBuilder := &catalog.TreeBuilder{}
	node := treeBuilder.Build(root)

	require.Equal(t, []string{"open"}, entryNames(node.Children))
	problems := treeBuilder.Problems()
	require.Len(t, problems, 1)
	require.Equal(t, catalog.ProblemSubdirectoryAccess, problems[0].Kind)
	require.Equal(t, locked, problems[0].Path)
}

func TestBuildStopsAtSymlinkCycles(t *testing.T) {
	root := t.TempDir()
	category := filepath.Join(root, "01-loop")
	writeToolsFile(t, category, gammaTools)
	if linkError := os.Symlink(root, filepath.Join(category, "02-back")); linkError != nil {
		t.Skipf("symlinks unavailable: %v", linkError)
	}

	treeBuilder := &catalog.TreeBuilder{}
	node := treeBuilder.Build(root)

	require.Equal(t, []string{"loop"}, entryNames(node.Children))
	require.Equal(t, []string{"Gamma"}, entryNames(node.Children[0].Category.Children))
	problems := treeBuilder.Problems()
	require.Len(t, problems, 1)
	require.Equal(t, catalog.ProblemCycleDetected, problems[0].Kind)
}

func TestBuildFollowsSymlinkedDirectoriesUnlessSkipped(t *testing.T) {
	root := t.TempDir()
	shared := filepath.Join(t.TempDir(), "shared")
	writeToolsFile(t, shared, gammaTools)
	if linkError := os.Symlink(shared, filepath.Join(root, "05-linked")); linkError != nil {
		t.Skipf("symlinks unavailable: %v", linkError)
	}

	followed := (&catalog.TreeBuilder{}).Build(root)
	require.Equal(t, []string{"linked"}, entryNames(followed.Children))

	skipped := (&catalog.TreeBuilder{SkipSymlinks: true}).Build(root)
	require.Empty(t, skipped.Children)
}

func TestBuildHonorsIgnorePatternsAndHiddenDirectories(t *testing.T) {
	root := t.TempDir()
	writeToolsFile(t, filepath.Join(root, "01-search"), alphaBetaTools)
	writeToolsFile(t, filepath.Join(root, "01-search", "drafts"), gammaTools)
	writeToolsFile(t, filepath.Join(root, "99-archive"), gammaTools)
	writeToolsFile(t, filepath.Join(root, ".staging"), gammaTools)

	everything := (&catalog.TreeBuilder{}).Build(root)
	require.Equal(t, []string{".staging", "search", "archive"}, entryNames(everything.Children))

	treeBuilder := &catalog.TreeBuilder{
		IgnorePatterns: []string{"drafts", "/99-archive"},
		SkipHidden:     true,
	}
	filtered := treeBuilder.Build(root)
	require.Equal(t, []string{"search"}, entryNames(filtered.Children))
	require.Equal(t, []string{"Alpha", "Beta"}, entryNames(filtered.Children[0].Category.Children))
}

func TestBuildUsesConfiguredToolsFileName(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "catalog.yml"), []byte(alphaBetaTools), 0o600))
	writeToolsFile(t, root, gammaTools)

	node := (&catalog.TreeBuilder{ToolsFileName: "catalog.yml"}).Build(root)

	require.Equal(t, []string{"Alpha", "Beta"}, entryNames(node.Children))
}

func TestBuildDocumentWrapsRootUnderCatalogName(t *testing.T) {
	root := filepath.Join(t.TempDir(), "07-data")
	writeToolsFile(t, root, alphaBetaTools)

	defaultResult, buildError := (&catalog.TreeBuilder{}).BuildDocument(root)
	require.NoError(t, buildError)
	require.Equal(t, types.DefaultCatalogName, defaultResult.Document.Name)
	require.Equal(t, []string{"Alpha", "Beta"}, entryNames(defaultResult.Document.Children))

	namedResult, buildError := (&catalog.TreeBuilder{CatalogName: "Field Kit"}).BuildDocument(root)
	require.NoError(t, buildError)
	require.Equal(t, "Field Kit", namedResult.Document.Name)
}

func TestBuildDocumentRejectsUnusableRoot(t *testing.T) {
	_, missingError := (&catalog.TreeBuilder{}).BuildDocument(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, missingError)

	filePath := filepath.Join(t.TempDir(), "tools.yaml")
	require.NoError(t, os.WriteFile(filePath, []byte(alphaBetaTools), 0o600))
	_, fileError := (&catalog.TreeBuilder{}).BuildDocument(filePath)
	require.Error(t, fileError)
}

func TestBuildDocumentRoundTripsThroughJSON(t *testing.T) {
	root := t.TempDir()
	writeToolsFile(t, root, "tools:\n  - name: Root Tool\n    url: https://root.example/?a=1&b=2\n    stars: 12\n    score: 0.5\n    tags: [a, b]\n")
	writeToolsFile(t, filepath.Join(root, "01-search"), gammaTools)
	writeToolsFile(t, filepath.Join(root, "01-search", "02-engines"), alphaBetaTools)

	result, buildError := (&catalog.TreeBuilder{}).BuildDocument(root)
	require.NoError(t, buildError)

	encoded, encodeError := json.Marshal(result.Document)
	require.NoError(t, encodeError)
	require.NotContains(t, string(encoded), `"children":null`)

	var decoded types.CategoryNode
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	require.Equal(t, result.Document, decoded)
}
