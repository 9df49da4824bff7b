package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/explorer/internal/catalog"
	"github.com/temirov/explorer/internal/config"
	"github.com/temirov/explorer/internal/output"
	"github.com/temirov/explorer/internal/services/watch"
	"github.com/temirov/explorer/internal/types"
)

const (
	debounceFlagName        = "debounce"
	debounceFlagDescription = "quiet period before a burst of changes triggers a rebuild"

	watchUse              = types.CommandWatch
	watchAlias            = "w"
	watchShortDescription = "rebuild the catalog whenever the data root changes (" + watchAlias + ")"
	watchLongDescription  = `Build the catalog once, then watch every directory below the data root and rebuild after each burst of changes.
Changes inside excluded or hidden directories are ignored when the build would skip them too. Press Ctrl+C to stop.`
	watchUsageExample = `  # Rebuild public/data.json while editing data/
  explorer watch

  # Wait a full second of quiet before rebuilding
  explorer watch --debounce 1s`

	logRebuildStarted = "rebuilding catalog"
	logFieldChanged   = "changed"
)

// createWatchCommand returns the watch subcommand.
func createWatchCommand(app *application) *cobra.Command {
	var flags buildFlags
	var debounce = watch.DefaultDebounce

	watchCommand := &cobra.Command{
		Use:     watchUse,
		Aliases: []string{watchAlias},
		Short:   watchShortDescription,
		Long:    watchLongDescription,
		Example: watchUsageExample,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			settings := resolveBuildSettings(command, flags, app.configuration.Build)
			if !output.IsSupportedFormat(settings.format) {
				return fmt.Errorf(invalidFormatMessage, settings.format)
			}
			if !command.Flags().Changed(debounceFlagName) && app.configuration.Watch.Debounce > 0 {
				debounce = app.configuration.Watch.Debounce
			}
			signalContext, stop := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if _, writeError := app.writeCatalog(settings); writeError != nil {
				return writeError
			}
			watchService, serviceError := app.newWatchService(settings, debounce)
			if serviceError != nil {
				return serviceError
			}
			return watchService.Run(signalContext)
		},
	}

	addBuildFlags(watchCommand, &flags)
	watchCommand.Flags().StringVar(&flags.format, formatFlagName, types.FormatJSON, formatFlagDescription)
	watchCommand.Flags().DurationVar(&debounce, debounceFlagName, watch.DefaultDebounce, debounceFlagDescription)
	return watchCommand
}

// newWatchService returns a watcher that rewrites the output file after each burst of changes.
func (app *application) newWatchService(settings buildSettings, debounce time.Duration) (*watch.Service, error) {
	dataRootPath, absoluteError := filepath.Abs(settings.dataRoot)
	if absoluteError != nil {
		return nil, fmt.Errorf(errorAbsoluteDataRoot, settings.dataRoot, absoluteError)
	}
	ignorePatterns, ignoreError := config.LoadCombinedIgnorePatterns(dataRootPath, settings.excludePatterns, settings.useIgnoreFile)
	if ignoreError != nil {
		return nil, ignoreError
	}
	return watch.NewService(watch.Options{
		DataRoot:       dataRootPath,
		IgnorePatterns: ignorePatterns,
		SkipHidden:     settings.skipHidden,
		ExcludedPaths:  []string{settings.outputPath},
		Debounce:       debounce,
		Logger:         app.logger,
	}, func(ctx context.Context, changedPaths []string) error {
		app.logger.Debug(logRebuildStarted, zap.Strings(logFieldChanged, changedPaths))
		_, writeError := app.writeCatalog(settings)
		return writeError
	})
}

// renderCatalog builds the catalog and renders it in the configured format.
func (app *application) renderCatalog(settings buildSettings) (catalog.Result, []byte, error) {
	result, buildError := app.buildCatalog(settings)
	if buildError != nil {
		return catalog.Result{}, nil, buildError
	}
	rendered, renderError := output.Render(result.Document, settings.format, settings.indentWidth)
	if renderError != nil {
		return catalog.Result{}, nil, renderError
	}
	return result, rendered, nil
}

// writeCatalog renders the catalog and writes it to the output path.
func (app *application) writeCatalog(settings buildSettings) (catalog.Result, error) {
	result, rendered, renderError := app.renderCatalog(settings)
	if renderError != nil {
		return catalog.Result{}, renderError
	}
	if writeError := output.WriteDocument(settings.outputPath, rendered); writeError != nil {
		return catalog.Result{}, writeError
	}
	app.logWritten(settings, rendered)
	return result, nil
}
