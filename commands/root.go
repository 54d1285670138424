package commands

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penwyp/go-kiln-monitor/internal/application/dashboard"
	"github.com/penwyp/go-kiln-monitor/internal/config"
	"github.com/penwyp/go-kiln-monitor/internal/data/api"
	"github.com/penwyp/go-kiln-monitor/internal/util"
)

var (
	// Logging related
	debug bool

	// Config file, shared by every command
	configFile string

	rootCmd = &cobra.Command{
		Use:   "go-kiln-monitor [flags]",
		Short: "Cement kiln monitoring dashboard",
		Long: `go-kiln-monitor is a terminal dashboard for a cement kiln line.

It polls the plant telemetry API for kiln health, energy, quality, process flow,
variance and AI agent data, and raises operator alerts in a floating assistant
panel that can be dragged and resized with the mouse or the keyboard.

Examples:
  go-kiln-monitor                                   # Dashboard against http://localhost:8080
  go-kiln-monitor --api-url http://plant:8080       # Dashboard against another API
  go-kiln-monitor --view energy_cockpit --layout compact
  go-kiln-monitor --alert-source websocket          # Live alerts from the API
  go-kiln-monitor serve                             # Run the simulated telemetry API
  go-kiln-monitor report kiln_health --timerange 7d # Print one view and exit`,
		RunE:          runDashboard,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

const defaultLogFile = "~/.go-kiln-monitor/logs/app.log"

// flagKeys maps command flags onto configuration keys. A flag given on the
// command line wins over the environment and the config file.
var flagKeys = map[string]string{
	"api-url":            "api.base_url",
	"timeout":            "api.timeout",
	"view":               "dashboard.default_view",
	"layout":             "dashboard.layout",
	"timezone":           "dashboard.timezone",
	"time-format":        "dashboard.time_format",
	"refresh-rate":       "dashboard.refresh_rate",
	"refresh-per-second": "dashboard.ui_refresh_per_second",
	"mouse":              "dashboard.mouse",
	"alert-source":       "dashboard.alert_source",
	"alert-file":         "dashboard.alert_feed_file",
	"addr":               "server.addr",
	"db":                 "server.db_path",
	"seed":               "server.seed",
	"alert-interval":     "server.alert_interval",
	"log-level":          "logging.level",
	"log-format":         "logging.format",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"Config file (default ~/.go-kiln-monitor/config.yaml)")
	rootCmd.PersistentFlags().String("api-url", "http://localhost:8080",
		"Telemetry API base URL")
	rootCmd.PersistentFlags().Duration("timeout", 0,
		"API request timeout (default from config, 10s)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")

	// Display
	rootCmd.Flags().String("view", "overview",
		"Start view (overview, kiln_health, energy_cockpit, predictive_quality, process_flow, variance_analysis, agent_actions, settings)")
	rootCmd.Flags().String("layout", "full",
		"Layout style (full, compact)")
	rootCmd.Flags().String("timezone", "Local",
		"Timezone setting (e.g., Asia/Shanghai, UTC)")
	rootCmd.Flags().String("time-format", "24h",
		"Time format (12h or 24h)")
	rootCmd.Flags().Bool("mouse", true,
		"Enable mouse dragging of the assistant panel")

	// Refresh
	rootCmd.Flags().Duration("refresh-rate", 0,
		"Data refresh interval (default 30s)")
	rootCmd.Flags().Float64("refresh-per-second", 1.0,
		"Display refresh rate (0.1-20 Hz)")

	// Alerts
	rootCmd.Flags().String("alert-source", config.AlertSourceScripted,
		"Alert feed (scripted, websocket, file, none)")
	rootCmd.Flags().String("alert-file", "",
		"JSONL alert feed for --alert-source file")
}

func Execute() error {
	return rootCmd.Execute()
}

// loadSettings reads the config file and environment, then overlays the
// flags the user actually set on cmd.
func loadSettings(cmd *cobra.Command) (*viper.Viper, *config.Config, error) {
	v, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, nil, err
	}
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, nil, fmt.Errorf("bind --%s: %w", name, err)
			}
		}
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return v, cfg, nil
}

// initLogging sends the structured log to the log file; --debug mirrors it
// on the console.
func initLogging() {
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}
	logFile := config.ExpandPath(defaultLogFile)
	if err := ensureDir(filepath.Dir(logFile)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot create log directory: %v\n", err)
	}
	if err := util.InitLogger(logLevel, logFile, debug); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
}

func runDashboard(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	initLogging()
	defer util.CloseLogger()

	client, err := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}
	svc := api.NewCachedClient(client, cfg.API.CacheTTL, cfg.API.StaleOnError)

	dc := dashboard.FromConfig(cfg)
	dc.AlertChannelURL = client.AlertChannelURL()

	o, err := dashboard.NewOrchestrator(dc, svc)
	if err != nil {
		return fmt.Errorf("failed to start dashboard: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return o.Run(ctx)
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
