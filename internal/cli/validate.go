package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/config"
)

// NewValidateCommand creates the validate command
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration without running anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "configuration is valid: %d job(s)\n", len(cfg.Jobs))
			for _, job := range cfg.Jobs {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: domain %s, %d output stream(s)\n",
					job.Name, job.Domain, len(job.OutputStreams))
			}
			return nil
		},
	}
}
