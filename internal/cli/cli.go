// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/explorer/internal/config"
	"github.com/temirov/explorer/internal/services/clipboard"
	"github.com/temirov/explorer/internal/utils"
)

const (
	configFlagName         = "config"
	verboseFlagName        = "verbose"
	versionFlagName        = "version"
	versionTemplate        = "explorer version: %s\n"
	rootUse                = "explorer"
	rootShortDescription   = "build the OSINT Explorer catalog from a tree of tools files"
	rootLongDescription    = `explorer walks a data directory where every directory may hold a tools.yaml file
and merges them into one nested JSON catalog for the explorer front end.
Run without a command to build data/ into public/data.json.
Use build for custom paths and formats, watch to rebuild on change, serve to host the front end, and init to write a configuration file.`
	rootUsageExample = `  # Build data/ into public/data.json
  explorer

  # Build another tree as markdown on stdout
  explorer build --data catalog --format markdown --stdout

  # Serve the front end and rebuild on change
  explorer serve --watch`

	configFlagDescription  = "configuration file to read instead of " + utils.LocalConfigFileName
	verboseFlagDescription = "log debug details"
	versionFlagDescription = "display application version"

	errorLoadConfigurationFormat = "loading configuration: %w"
)

// application carries state shared by every command of one invocation.
type application struct {
	configurationPath string
	verbose           bool
	showVersion       bool
	configuration     config.ApplicationConfiguration
	logger            *zap.Logger
	loggerLevel       *zap.AtomicLevel
	copier            clipboard.Copier
	standardOutput    io.Writer
}

// Execute runs the explorer application with the process arguments. Every command
// logs through logger; --verbose lowers loggerLevel to debug.
func Execute(ctx context.Context, logger *zap.Logger, loggerLevel zap.AtomicLevel) error {
	app := &application{
		logger:         logger,
		loggerLevel:    &loggerLevel,
		copier:         clipboard.NewService(),
		standardOutput: os.Stdout,
	}
	rootCommand := createRootCommand(app)
	rootCommand.SetArgs(normalizeFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.ExecuteContext(ctx)
}

// createRootCommand builds the root Cobra command. Without a subcommand it builds
// the catalog with the configured or default paths.
func createRootCommand(app *application) *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Example:       rootUsageExample,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return app.runBuild(command, buildFlags{})
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			if app.showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
			return app.prepare()
		},
	}
	rootCommand.PersistentFlags().StringVar(&app.configurationPath, configFlagName, "", configFlagDescription)
	registerBooleanFlag(rootCommand.PersistentFlags(), &app.verbose, verboseFlagName, false, verboseFlagDescription)
	rootCommand.PersistentFlags().BoolVar(&app.showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.AddCommand(
		createBuildCommand(app),
		createWatchCommand(app),
		createServeCommand(app),
		createInitCommand(app),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// prepare applies --verbose and loads configuration once flags are parsed.
func (app *application) prepare() error {
	if app.logger == nil {
		app.logger = zap.NewNop()
	}
	if app.verbose && app.loggerLevel != nil {
		app.loggerLevel.SetLevel(zapcore.DebugLevel)
	}
	configuration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{ExplicitFilePath: app.configurationPath})
	if configurationError != nil {
		return fmt.Errorf(errorLoadConfigurationFormat, configurationError)
	}
	app.configuration = configuration
	return nil
}

func (app *application) output() io.Writer {
	if app.standardOutput == nil {
		return os.Stdout
	}
	return app.standardOutput
}
