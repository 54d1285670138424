package analyzer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/data/api"
	"github.com/penwyp/go-kiln-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-kiln-monitor/internal/util"
)

type Config struct {
	View         model.View
	TimeRange    model.TimeRange
	OutputFormat string
	Limit        int
	Timeout      time.Duration
}

// Analyzer fetches one view and prints it as a report.
type Analyzer struct {
	config *Config
	svc    api.Service
	out    io.Writer
}

func New(config *Config, svc api.Service, out io.Writer) *Analyzer {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.TimeRange == "" {
		config.TimeRange, _ = config.View.DefaultTimeRange()
	}
	return &Analyzer{config: config, svc: svc, out: out}
}

func (a *Analyzer) Run(ctx context.Context) error {
	startTime := time.Now()
	util.LogInfo("Starting report", util.F("view", a.config.View), util.F("timerange", a.config.TimeRange))

	out, err := formatter.New(a.config.OutputFormat, a.out)
	if err != nil {
		return err
	}

	// Phase 1: Fetch and flatten
	buildStart := time.Now()
	report, err := a.Build(ctx)
	if err != nil {
		return err
	}
	buildDuration := time.Since(buildStart)
	util.LogDebug("Report built", util.F("duration", buildDuration), util.F("rows", len(report.Rows)))

	if a.config.Limit > 0 && len(report.Rows) > a.config.Limit {
		util.LogDebug("Applying row limit", util.F("from", len(report.Rows)), util.F("to", a.config.Limit))
		report.Rows = report.Rows[len(report.Rows)-a.config.Limit:]
	}

	// Phase 2: Format and output
	outputStart := time.Now()
	err = out.Format(report)
	outputDuration := time.Since(outputStart)

	if c, ok := a.svc.(*api.CachedClient); ok {
		stats := c.Stats()
		util.LogDebug("Response cache", util.F("entries", stats.Entries), util.F("hits", stats.Hits), util.F("misses", stats.Misses))
	}
	util.LogDebug("Report finished", util.F("total", time.Since(startTime)),
		util.F("build", buildDuration), util.F("output", outputDuration))
	return err
}

// Build fetches the configured view and flattens it into a report. Rows
// keep the order the API sent; the latest point comes last.
func (a *Analyzer) Build(ctx context.Context) (*formatter.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	view := a.config.View
	report := &formatter.Report{
		View:        string(view),
		Title:       view.Title(),
		GeneratedAt: util.GetTimeProvider().Now(),
	}
	if _, scoped := view.DefaultTimeRange(); scoped {
		report.TimeRange = string(a.config.TimeRange)
	}

	var err error
	switch view {
	case model.ViewOverview:
		var o *model.Overview
		if o, err = a.svc.Overview(ctx); err == nil {
			buildOverview(report, o)
		}
	case model.ViewKilnHealth:
		var k *model.KilnHealth
		if k, err = a.svc.KilnHealth(ctx, a.config.TimeRange); err == nil {
			buildKiln(report, k)
		}
	case model.ViewEnergy:
		var e *model.EnergyCockpit
		if e, err = a.svc.EnergyCockpit(ctx, a.config.TimeRange); err == nil {
			buildEnergy(report, e)
		}
	case model.ViewQuality:
		var q *model.PredictiveQuality
		if q, err = a.svc.PredictiveQuality(ctx, a.config.TimeRange); err == nil {
			buildQuality(report, q)
		}
	case model.ViewFlow:
		var nodes []model.ProcessNode
		if nodes, err = a.svc.ProcessFlow(ctx); err == nil {
			buildFlow(report, nodes)
		}
	case model.ViewVariance:
		var rows []model.VarianceRow
		if rows, err = a.svc.VarianceAnalysis(ctx); err == nil {
			buildVariance(report, rows)
		}
	case model.ViewAgent:
		var recs []model.Recommendation
		var actions []model.AgentAction
		if recs, err = a.svc.Recommendations(ctx); err == nil {
			if actions, err = a.svc.AgentActions(ctx); err == nil {
				buildAgent(report, recs, actions)
			}
		}
	case model.ViewSettings:
		var s *model.Settings
		if s, err = a.svc.Settings(ctx); err == nil {
			buildSettings(report, s)
		}
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownView, view)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", view.Title(), err)
	}
	return report, nil
}
