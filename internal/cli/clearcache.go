package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/cache"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/config"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/metrics"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/stream/apistream"
)

// NewClearCacheCommand creates the clear-cache command
func NewClearCacheCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache [job]",
		Short: "Delete persisted cache state so jobs resolve everything fresh",
		Long: `Delete the persisted cache state for the named job, or for every
configured job when no name is given. The next run resolves employees,
groups, departments and lookup values from the remote system again and
performs a full write of every user.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			log := logger.NewLogger(cfg)
			factory := cache.NewFactory(log, metrics.New(), cfg)

			cleared := 0
			for i := range cfg.Jobs {
				job := &cfg.Jobs[i]
				if len(args) == 1 && job.Name != args[0] {
					continue
				}

				// the change-detection cache plus the resolution caches
				store, err := factory.Open(job.Name, false)
				if err == nil {
					err = store.Clear()
				}
				if err == nil {
					err = apistream.ClearCaches(factory, job.Name)
				}
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "cleared caches for job %s\n", job.Name)
				cleared++
			}

			if len(args) == 1 && cleared == 0 {
				return fmt.Errorf("no job named %q in the configuration", args[0])
			}
			return nil
		},
	}
}
