package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-kiln-monitor/internal/analyzer"
	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/data/api"
	"github.com/penwyp/go-kiln-monitor/internal/util"
)

var (
	reportTimeRange    string
	reportOutputFormat string
	reportLimit        int
)

var reportCmd = &cobra.Command{
	Use:   "report <view>",
	Short: "Print one dashboard view with derived metrics",
	Long: `Fetches a single view from the telemetry API and prints its rows together
with derived metrics (averages, trends, in-band percentages).

Examples:
  go-kiln-monitor report kiln_health
  go-kiln-monitor report predictive_quality --timerange 30d -o summary
  go-kiln-monitor report variance_analysis -o csv > variance.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportTimeRange, "timerange", "t", "",
		"Time range for time-scoped views (24h, 7d, 30d); default depends on the view")
	reportCmd.Flags().StringVarP(&reportOutputFormat, "output", "o", "table",
		"Output format (table, json, csv, summary)")
	reportCmd.Flags().StringVar(&reportOutputFormat, "format", "",
		"Alias for --output")
	reportCmd.Flags().IntVar(&reportLimit, "limit", 0,
		"Keep only the latest N rows (0 = unlimited)")
}

func runReport(cmd *cobra.Command, args []string) error {
	view, err := model.ParseView(args[0])
	if err != nil {
		return err
	}
	var tr model.TimeRange
	if reportTimeRange != "" {
		if tr, err = model.ParseTimeRange(reportTimeRange); err != nil {
			return err
		}
	}

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

	a := analyzer.New(&analyzer.Config{
		View:         view,
		TimeRange:    tr,
		OutputFormat: reportOutputFormat,
		Limit:        reportLimit,
		Timeout:      cfg.API.Timeout,
	}, api.NewCachedClient(client, cfg.API.CacheTTL, cfg.API.StaleOnError), cmd.OutOrStdout())
	return a.Run(cmd.Context())
}
