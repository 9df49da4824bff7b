package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/explorer/internal/config"
	"github.com/temirov/explorer/internal/types"
	"github.com/temirov/explorer/internal/utils"
)

const (
	globalFlagName         = "global"
	forceFlagName          = "force"
	globalFlagDescription  = "write ~/" + utils.GlobalConfigDirectoryName + "/" + utils.GlobalConfigFileName + " instead of ./" + utils.LocalConfigFileName
	forceFlagDescription   = "overwrite an existing configuration file"
	initUse                = types.CommandInit
	initShortDescription   = "write a configuration file with the default settings"
	initLongDescription    = `Write a configuration file listing every build, serve, and watch setting with its default value.
Settings in ./` + utils.LocalConfigFileName + ` override the global file; command line flags override both.`
	initCompletedTemplate = "configuration written to %s\n"
)

// createInitCommand returns the init subcommand.
func createInitCommand(app *application) *cobra.Command {
	var useGlobal bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if useGlobal {
				target = config.InitTargetGlobal
			}
			destinationPath, initError := config.InitializeConfiguration(config.InitOptions{Target: target, Force: force})
			if initError != nil {
				return initError
			}
			fmt.Fprintf(app.output(), initCompletedTemplate, destinationPath)
			return nil
		},
	}
	registerBooleanFlag(initCommand.Flags(), &useGlobal, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	return initCommand
}
