package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/explorer/internal/config"
	"github.com/temirov/explorer/internal/services/server"
	"github.com/temirov/explorer/internal/services/watch"
	"github.com/temirov/explorer/internal/types"
)

const (
	addressFlagName        = "address"
	publicFlagName         = "public"
	watchFlagName          = "watch"
	addressFlagDescription = "address the HTTP server listens on"
	publicFlagDescription  = "directory holding the explorer front end"
	watchFlagDescription   = "rebuild the catalog whenever the data root changes"

	serveUse              = types.CommandServe
	serveAlias            = "s"
	serveShortDescription = "serve the explorer front end and its catalog (" + serveAlias + ")"
	serveLongDescription  = `Build the catalog as JSON, then serve the public directory over HTTP.
GET /data.json returns the built document, GET /api/catalog rebuilds it on every request, and GET /health reports readiness.
Use --watch to keep the built document current while serving.`
	serveUsageExample = `  # Serve public/ on the default address
  explorer serve

  # Serve on all interfaces and rebuild on change
  explorer serve --address 0.0.0.0:8080 --watch`
)

// serveFlags stores values of the serve command flags.
type serveFlags struct {
	build      buildFlags
	address    string
	publicDir  string
	watchFiles bool
}

// createServeCommand returns the serve subcommand.
func createServeCommand(app *application) *cobra.Command {
	var flags serveFlags

	serveCommand := &cobra.Command{
		Use:     serveUse,
		Aliases: []string{serveAlias},
		Short:   serveShortDescription,
		Long:    serveLongDescription,
		Example: serveUsageExample,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return app.runServe(command, flags)
		},
	}

	addBuildFlags(serveCommand, &flags.build)
	serveCommand.Flags().StringVar(&flags.address, addressFlagName, server.DefaultAddress, addressFlagDescription)
	serveCommand.Flags().StringVar(&flags.publicDir, publicFlagName, server.DefaultPublicDirectory, publicFlagDescription)
	registerBooleanFlag(serveCommand.Flags(), &flags.watchFiles, watchFlagName, false, watchFlagDescription)
	return serveCommand
}

// runServe serves until SIGINT or SIGTERM. With --watch the watcher shares the
// server's lifetime and either failing stops both.
func (app *application) runServe(command *cobra.Command, flags serveFlags) error {
	settings := resolveBuildSettings(command, flags.build, app.configuration.Build)
	settings.format = types.FormatJSON

	serveConfiguration := app.configuration.Serve
	address := config.StringValue(serveConfiguration.Address, server.DefaultAddress)
	if command.Flags().Changed(addressFlagName) {
		address = flags.address
	}
	publicDir := config.StringValue(serveConfiguration.PublicDir, server.DefaultPublicDirectory)
	if command.Flags().Changed(publicFlagName) {
		publicDir = flags.publicDir
	}
	watchFiles := config.BoolValue(serveConfiguration.Watch, false)
	if command.Flags().Changed(watchFlagName) {
		watchFiles = flags.watchFiles
	}

	if _, writeError := app.writeCatalog(settings); writeError != nil {
		return writeError
	}

	signalContext, stop := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	group, groupContext := errgroup.WithContext(signalContext)

	httpServer := server.NewServer(server.Options{
		Address:         address,
		PublicDirectory: publicDir,
		DocumentPath:    settings.outputPath,
		Catalog: func(ctx context.Context) ([]byte, error) {
			_, rendered, renderError := app.renderCatalog(settings)
			return rendered, renderError
		},
		Logger: app.logger,
	})
	group.Go(func() error {
		return httpServer.Run(groupContext)
	})

	if watchFiles {
		debounce := app.configuration.Watch.Debounce
		if debounce <= 0 {
			debounce = watch.DefaultDebounce
		}
		watchService, serviceError := app.newWatchService(settings, debounce)
		if serviceError != nil {
			stop()
			_ = group.Wait()
			return serviceError
		}
		group.Go(func() error {
			return watchService.Run(groupContext)
		})
	}

	return group.Wait()
}
