package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/explorer/internal/catalog"
	"github.com/temirov/explorer/internal/config"
	"github.com/temirov/explorer/internal/output"
	"github.com/temirov/explorer/internal/types"
	"github.com/temirov/explorer/internal/utils"
)

const (
	dataFlagName         = "data"
	outputFlagName       = "output"
	formatFlagName       = "format"
	nameFlagName         = "name"
	toolsFileFlagName    = "tools-file"
	indentFlagName       = "indent"
	strictFlagName       = "strict"
	stdoutFlagName       = "stdout"
	skipHiddenFlagName   = "skip-hidden"
	skipSymlinksFlagName = "skip-symlinks"
	exclusionFlagName    = "e"
	noIgnoreFlagName     = "no-ignore"
	copyFlagName         = "copy"

	buildUse              = types.CommandBuild
	buildAlias            = "b"
	buildShortDescription = "build the catalog document (" + buildAlias + ")"
	buildLongDescription  = `Walk the data root and write the merged catalog.
Each directory contributes the tools listed in its tools file followed by one category per non-empty subdirectory.
Category names are the directory name after its first dash, so 03-search-tools becomes "search-tools".
Malformed tools files and unreadable directories are reported and skipped; use --strict to fail on them.`
	buildUsageExample = `  # Build with the defaults
  explorer build

  # Build a custom tree as raw text on stdout
  explorer build --data ./catalog --format raw --stdout

  # Exclude drafts and fail on malformed files
  explorer build -e drafts --strict`

	dataFlagDescription         = "data root to walk"
	outputFlagDescription       = "file the rendered catalog is written to"
	formatFlagDescription       = "output format: json, raw, markdown, or html"
	nameFlagDescription         = "name of the root catalog node"
	toolsFileFlagDescription    = "per-directory tools file name"
	indentFlagDescription       = "spaces per JSON nesting level"
	strictFlagDescription       = "exit with an error when any file or directory was skipped"
	stdoutFlagDescription       = "print the rendered catalog instead of writing the output file"
	skipHiddenFlagDescription   = "skip directories whose names start with a dot"
	skipSymlinksFlagDescription = "do not follow symbolic links to directories"
	exclusionFlagDescription    = "exclude directories matching a glob relative to the data root"
	noIgnoreFlagDescription     = "do not read " + utils.IgnoreFileName + " from the data root"
	copyFlagDescription         = "copy the rendered catalog to the clipboard"

	invalidFormatMessage    = "invalid format value '%s'"
	errorStrictFormat       = "%d problem(s) found while building the catalog"
	errorAbsoluteDataRoot   = "resolving data root %s: %w"
	logProblem              = "problem"
	logCatalogWritten       = "catalog written"
	logCatalogCopied        = "catalog copied to clipboard"
	logClipboardFailed      = "clipboard copy failed"
	logBuildSummary         = "catalog built"
	logFieldKind            = "kind"
	logFieldPath            = "path"
	logFieldSize            = "size"
	logFieldProblems        = "problems"
	logFieldEntries         = "entries"
	logFieldFormat          = "format"
	defaultIgnoreFileInUse  = true
	defaultStrictBehavior   = false
	defaultSkipHidden       = false
	defaultSkipSymlinks     = false
	defaultClipboardEnabled = false
)

// ErrStrictProblems is returned in strict mode when the build recorded problems.
var ErrStrictProblems = errors.New("strict build failed")

// buildFlags stores values of the build command flags.
type buildFlags struct {
	dataRoot          string
	outputPath        string
	format            string
	catalogName       string
	toolsFileName     string
	indentWidth       int
	strict            bool
	writeStdout       bool
	skipHidden        bool
	skipSymlinks      bool
	exclusionPatterns []string
	disableIgnoreFile bool
	copyToClipboard   bool
}

// buildSettings is the outcome of layering flags over configuration over defaults.
type buildSettings struct {
	dataRoot        string
	outputPath      string
	format          string
	catalogName     string
	toolsFileName   string
	indentWidth     int
	strict          bool
	writeStdout     bool
	skipHidden      bool
	skipSymlinks    bool
	excludePatterns []string
	useIgnoreFile   bool
	copyToClipboard bool
}

// addBuildFlags registers the flags shared by build, watch, and serve.
func addBuildFlags(command *cobra.Command, flags *buildFlags) {
	command.Flags().StringVar(&flags.dataRoot, dataFlagName, types.DefaultDataRoot, dataFlagDescription)
	command.Flags().StringVar(&flags.outputPath, outputFlagName, types.DefaultOutputPath, outputFlagDescription)
	command.Flags().StringVar(&flags.catalogName, nameFlagName, types.DefaultCatalogName, nameFlagDescription)
	command.Flags().StringVar(&flags.toolsFileName, toolsFileFlagName, types.DefaultToolsFileName, toolsFileFlagDescription)
	command.Flags().IntVar(&flags.indentWidth, indentFlagName, output.DefaultIndentWidth, indentFlagDescription)
	registerBooleanFlag(command.Flags(), &flags.skipHidden, skipHiddenFlagName, defaultSkipHidden, skipHiddenFlagDescription)
	registerBooleanFlag(command.Flags(), &flags.skipSymlinks, skipSymlinksFlagName, defaultSkipSymlinks, skipSymlinksFlagDescription)
	command.Flags().StringArrayVarP(&flags.exclusionPatterns, exclusionFlagName, exclusionFlagName, nil, exclusionFlagDescription)
	command.Flags().BoolVar(&flags.disableIgnoreFile, noIgnoreFlagName, false, noIgnoreFlagDescription)
}

// createBuildCommand returns the build subcommand.
func createBuildCommand(app *application) *cobra.Command {
	var flags buildFlags

	buildCommand := &cobra.Command{
		Use:     buildUse,
		Aliases: []string{buildAlias},
		Short:   buildShortDescription,
		Long:    buildLongDescription,
		Example: buildUsageExample,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return app.runBuild(command, flags)
		},
	}

	addBuildFlags(buildCommand, &flags)
	buildCommand.Flags().StringVar(&flags.format, formatFlagName, types.FormatJSON, formatFlagDescription)
	registerBooleanFlag(buildCommand.Flags(), &flags.strict, strictFlagName, defaultStrictBehavior, strictFlagDescription)
	registerBooleanFlag(buildCommand.Flags(), &flags.writeStdout, stdoutFlagName, false, stdoutFlagDescription)
	registerCopyFlag(buildCommand.Flags(), &flags.copyToClipboard)
	return buildCommand
}

// resolveBuildSettings layers explicitly set flags over configuration over defaults.
func resolveBuildSettings(command *cobra.Command, flags buildFlags, configuration config.BuildConfiguration) buildSettings {
	flagChanged := func(name string) bool {
		if command == nil {
			return false
		}
		lookup := command.Flags().Lookup(name)
		return lookup != nil && lookup.Changed
	}

	settings := buildSettings{
		dataRoot:        config.StringValue(configuration.DataRoot, types.DefaultDataRoot),
		outputPath:      config.StringValue(configuration.Output, types.DefaultOutputPath),
		format:          config.StringValue(configuration.Format, types.FormatJSON),
		catalogName:     config.StringValue(configuration.CatalogName, types.DefaultCatalogName),
		toolsFileName:   config.StringValue(configuration.ToolsFile, types.DefaultToolsFileName),
		indentWidth:     config.IntValue(configuration.Indent, output.DefaultIndentWidth),
		strict:          config.BoolValue(configuration.Strict, defaultStrictBehavior),
		skipHidden:      config.BoolValue(configuration.SkipHidden, defaultSkipHidden),
		skipSymlinks:    config.BoolValue(configuration.SkipSymlinks, defaultSkipSymlinks),
		excludePatterns: append([]string{}, configuration.Paths.Exclude...),
		useIgnoreFile:   config.BoolValue(configuration.Paths.UseIgnoreFile, defaultIgnoreFileInUse),
		copyToClipboard: config.BoolValue(configuration.Clipboard, defaultClipboardEnabled),
	}

	if flagChanged(dataFlagName) {
		settings.dataRoot = flags.dataRoot
	}
	if flagChanged(outputFlagName) {
		settings.outputPath = flags.outputPath
	}
	if flagChanged(formatFlagName) {
		settings.format = flags.format
	}
	if flagChanged(nameFlagName) {
		settings.catalogName = flags.catalogName
	}
	if flagChanged(toolsFileFlagName) {
		settings.toolsFileName = flags.toolsFileName
	}
	if flagChanged(indentFlagName) {
		settings.indentWidth = flags.indentWidth
	}
	if flagChanged(strictFlagName) {
		settings.strict = flags.strict
	}
	if flagChanged(stdoutFlagName) {
		settings.writeStdout = flags.writeStdout
	}
	if flagChanged(skipHiddenFlagName) {
		settings.skipHidden = flags.skipHidden
	}
	if flagChanged(skipSymlinksFlagName) {
		settings.skipSymlinks = flags.skipSymlinks
	}
	if flagChanged(noIgnoreFlagName) {
		settings.useIgnoreFile = !flags.disableIgnoreFile
	}
	if flagChanged(copyFlagName) {
		settings.copyToClipboard = flags.copyToClipboard
	}
	settings.excludePatterns = utils.DeduplicatePatterns(append(settings.excludePatterns, flags.exclusionPatterns...))
	settings.format = strings.ToLower(strings.TrimSpace(settings.format))
	return settings
}

// runBuild builds, renders, and delivers the catalog once.
func (app *application) runBuild(command *cobra.Command, flags buildFlags) error {
	settings := resolveBuildSettings(command, flags, app.configuration.Build)
	if !output.IsSupportedFormat(settings.format) {
		return fmt.Errorf(invalidFormatMessage, settings.format)
	}

	result, rendered, renderError := app.renderCatalog(settings)
	if renderError != nil {
		return renderError
	}

	if settings.writeStdout {
		if _, writeError := app.output().Write(rendered); writeError != nil {
			return writeError
		}
	} else {
		if writeError := output.WriteDocument(settings.outputPath, rendered); writeError != nil {
			return writeError
		}
		app.logWritten(settings, rendered)
	}

	if settings.copyToClipboard && app.copier != nil {
		if copyError := app.copier.Copy(string(rendered)); copyError != nil {
			app.logger.Warn(logClipboardFailed, zap.Error(copyError))
		} else {
			app.logger.Info(logCatalogCopied)
		}
	}

	if settings.strict && len(result.Problems) > 0 {
		return fmt.Errorf("%w: "+errorStrictFormat, ErrStrictProblems, len(result.Problems))
	}
	return nil
}

func (app *application) logWritten(settings buildSettings, rendered []byte) {
	app.logger.Info(logCatalogWritten,
		zap.String(logFieldPath, settings.outputPath),
		zap.String(logFieldFormat, settings.format),
		zap.String(logFieldSize, utils.FormatFileSize(int64(len(rendered)))),
	)
}

// buildCatalog walks the data root once with the resolved settings and logs every
// problem the walk contained.
func (app *application) buildCatalog(settings buildSettings) (catalog.Result, error) {
	dataRootPath, absoluteError := filepath.Abs(settings.dataRoot)
	if absoluteError != nil {
		return catalog.Result{}, fmt.Errorf(errorAbsoluteDataRoot, settings.dataRoot, absoluteError)
	}
	ignorePatterns, ignoreError := config.LoadCombinedIgnorePatterns(dataRootPath, settings.excludePatterns, settings.useIgnoreFile)
	if ignoreError != nil {
		return catalog.Result{}, ignoreError
	}

	treeBuilder := &catalog.TreeBuilder{
		ToolsFileName:  settings.toolsFileName,
		CatalogName:    settings.catalogName,
		IgnorePatterns: ignorePatterns,
		SkipHidden:     settings.skipHidden,
		SkipSymlinks:   settings.skipSymlinks,
		Logger:         app.logger,
	}
	result, buildError := treeBuilder.BuildDocument(dataRootPath)
	if buildError != nil {
		return catalog.Result{}, buildError
	}

	for _, problem := range result.Problems {
		app.logger.Debug(logProblem, zap.String(logFieldKind, string(problem.Kind)), zap.String(logFieldPath, problem.Path), zap.Error(problem.Err))
	}
	app.logger.Info(logBuildSummary,
		zap.String(logFieldPath, dataRootPath),
		zap.Int(logFieldEntries, len(result.Document.Children)),
		zap.Int(logFieldProblems, len(result.Problems)),
	)
	return result, nil
}
