package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/okian/osupp/internal/app"
	"github.com/okian/osupp/internal/config"
	"github.com/okian/osupp/internal/domain/model"
	"github.com/okian/osupp/pkg/logger"
	"github.com/okian/osupp/pkg/metrics"
)

func newRootCmd() *cobra.Command {
	var modeFlag string

	cmd := &cobra.Command{
		Use:   "osupp",
		Short: "osu! performance points processor",
		Long:  "osupp recomputes pp ratings for scores and users in one game mode, polling for new scores and newly ranked beatmaps and driving full reprocessing runs.",
	}
	cmd.PersistentFlags().StringVar(&modeFlag, "mode", "", "game mode to process: standard, taiko, catch, mania (defaults to the configured mode)")

	cmd.AddCommand(newMonitorCmd(&modeFlag))
	cmd.AddCommand(newProcessAllCmd(&modeFlag))
	cmd.AddCommand(newProcessUsersCmd(&modeFlag))
	return cmd
}

// bootstrap loads configuration, resolves the game mode, starts the
// ambient metrics exposition server, and wires up Dependencies for one
// subcommand invocation.
func bootstrap(ctx context.Context, modeFlag string) (*app.Dependencies, error) {
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel))
		_ = logger.SetLevelString("info")
	}

	modeName := cfg.Mode
	if modeFlag != "" {
		modeName = modeFlag
	}
	mode, ok := model.ParseMode(modeName)
	if !ok {
		return nil, fmt.Errorf("unknown game mode %q", modeName)
	}

	go serveMetrics(ctx, cfg.MetricsAddr)

	return app.Bootstrap(ctx, cfg, mode)
}

// serveMetrics exposes the Prometheus registry over HTTP until ctx is
// canceled, the ambient observability surface every subcommand carries
// regardless of which pipeline operation it runs.
func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Get().Error(ctx, "metrics server failed", logger.Error(err))
	}
}

// rootContext returns a context canceled on SIGINT/SIGTERM, matching the
// teacher's signal-driven shutdown.
func rootContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
