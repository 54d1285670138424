package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/penwyp/go-kiln-monitor/internal/config"
	"github.com/penwyp/go-kiln-monitor/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulated kiln telemetry API",
	Long: `Serves the REST API the dashboard reads, backed by a seeded kiln simulator
and a SQLite store for settings, recommendations and the agent action log.

Besides the /api endpoints it exposes /api/ws (alert push channel), /healthz
and /metrics (Prometheus). Anomaly rules are reloaded when the config file
changes.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080",
		"Listen address")
	serveCmd.Flags().String("db", "",
		"SQLite database path (default ~/.go-kiln-monitor/kiln.db, or :memory:)")
	serveCmd.Flags().Int64("seed", 42,
		"Simulator seed")
	serveCmd.Flags().Duration("alert-interval", 0,
		"Interval between anomaly sweeps pushed to websocket clients (default 45s)")
	serveCmd.Flags().String("log-level", "info",
		"Log level (debug, info, warn, error)")
	serveCmd.Flags().String("log-format", "json",
		"Log format (json, console)")
}

func runServe(cmd *cobra.Command, args []string) error {
	v, cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if debug {
		cfg.Logging.Level = "debug"
	}
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, v, cfg, logger)
}

// serve runs the API until ctx is done.
func serve(ctx context.Context, v *viper.Viper, cfg *config.Config, logger *zap.Logger) error {
	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Warn("store close failed", zap.Error(err))
		}
	}()

	if file := v.ConfigFileUsed(); file != "" {
		config.Watch(v, func(c *config.Config) {
			srv.SetRules(c.Anomaly.Rules)
		}, func(err error) {
			logger.Warn("config reload rejected", zap.Error(err))
		})
		logger.Info("watching config file", zap.String("file", file))
	}
	return srv.Run(ctx)
}
