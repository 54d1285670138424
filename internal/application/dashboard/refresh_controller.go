package dashboard

import (
	"context"
	"sync"

	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/data/api"
	"github.com/penwyp/go-kiln-monitor/internal/util"
)

// RefreshController decides when views fetch and routes refreshes past the
// response cache
type RefreshController struct {
	views *Views
	cache CacheController

	refreshMutex sync.Mutex // Prevent overlapping refresh rounds
}

// NewRefreshController creates a new RefreshController instance. cache may
// be nil when the service does not cache.
func NewRefreshController(views *Views, cache CacheController) *RefreshController {
	return &RefreshController{views: views, cache: cache}
}

// Activate shows view with tr. Views without a time range ignore tr.
func (rc *RefreshController) Activate(ctx context.Context, view model.View, tr model.TimeRange) bool {
	loader, ok := rc.views.For(view)
	if !ok {
		return false
	}
	if _, scoped := view.DefaultTimeRange(); !scoped {
		tr = ""
	}
	return loader.Activate(ctx, tr)
}

// Refresh refetches view bypassing the response cache.
func (rc *RefreshController) Refresh(ctx context.Context, view model.View) bool {
	loader, ok := rc.views.For(view)
	if !ok {
		return false
	}
	return loader.Refresh(api.Fresh(ctx))
}

// RefreshData refreshes the visible view together with the settings that
// gate notifications. It returns how many fetches were started.
func (rc *RefreshController) RefreshData(ctx context.Context, active model.View) int {
	rc.refreshMutex.Lock()
	defer rc.refreshMutex.Unlock()

	started := 0
	for _, view := range []model.View{active, model.ViewSettings} {
		if rc.Refresh(ctx, view) {
			started++
		}
		if active == model.ViewSettings {
			break
		}
	}
	util.LogDebug("data refresh", util.F("view", active), util.F("fetches", started))
	return started
}

// ClearCache drops cached responses and refetches the visible view.
func (rc *RefreshController) ClearCache(ctx context.Context, view model.View) {
	if rc.cache != nil {
		rc.cache.ClearCache()
		util.LogInfo("response cache cleared")
	}
	rc.Refresh(ctx, view)
}
