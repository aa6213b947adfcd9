package cli

import (
	"github.com/spf13/cobra"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/config"
)

// RootOptions holds global flags for all commands
type RootOptions struct {
	ConfigFile string
}

// NewRootCommand creates the root command for the sync CLI
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "c360sync",
		Short: "Active Directory to Compliance 360 employee sync",
		Long: `Reads users from Active Directory and synchronizes them into the
Compliance 360 HR system: employees, groups, departments and typed
employee relationships.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.ConfigFile != "" {
				config.SetConfigFile(opts.ConfigFile)
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "path to configuration file")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewClearCacheCommand(opts))

	return cmd
}
