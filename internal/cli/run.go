package cli

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/config"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/container"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/metrics"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/sync"
)

// NewRunCommand creates the run command
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the configured sync jobs",
		Long: `Run every configured sync job. Jobs with an interval keep running on
their schedule until the process is stopped; jobs without one run once.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runService()
		},
	}
}

func runService() error {
	app := fx.New(
		container.Module,
		fx.Invoke(registerLifecycle),
	)
	app.Run()
	return nil
}

func registerLifecycle(lc fx.Lifecycle, shutdowner fx.Shutdowner,
	cfg *config.Config, log *logger.Logger, m *metrics.Metrics, service *sync.Service) {

	runCtx, cancel := context.WithCancel(context.Background())
	var metricsServer *http.Server

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if cfg.Metrics.Enabled {
				metricsServer = &http.Server{
					Addr:    cfg.Metrics.ListenAddress,
					Handler: m.Handler(),
				}
				go func() {
					log.Infof("metrics listening on %s", cfg.Metrics.ListenAddress)
					if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						log.Errorf("metrics listener failed: %v", err)
					}
				}()
			}

			go func() {
				if err := service.Run(runCtx); err != nil && err != context.Canceled {
					log.Errorf("sync service stopped: %v", err)
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			if metricsServer != nil {
				shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
				defer shutdownCancel()
				return metricsServer.Shutdown(shutdownCtx)
			}
			return nil
		},
	})
}
