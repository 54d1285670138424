package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/data/api"
)

func TestRefreshController(t *testing.T) {
	ctx := context.Background()

	t.Run("untimed_views_ignore_the_range", func(t *testing.T) {
		svc := newFakeService()
		views := NewViews(svc, nil)
		rc := NewRefreshController(views, svc)

		assert.True(t, rc.Activate(ctx, model.ViewOverview, model.Range7d))
		views.Wait()
		assert.Equal(t, []model.TimeRange{""}, svc.Calls(api.PathOverview))

		// Any token maps to the same empty one, so no refetch.
		assert.False(t, rc.Activate(ctx, model.ViewOverview, model.Range30d))
	})

	t.Run("timed_views_fetch_per_range", func(t *testing.T) {
		svc := newFakeService()
		views := NewViews(svc, nil)
		rc := NewRefreshController(views, svc)

		rc.Activate(ctx, model.ViewQuality, model.Range7d)
		views.Wait()
		rc.Activate(ctx, model.ViewQuality, model.Range30d)
		views.Wait()
		assert.Equal(t, []model.TimeRange{model.Range7d, model.Range30d}, svc.Calls(api.PathPredictiveQuality))
	})

	t.Run("unknown_view", func(t *testing.T) {
		rc := NewRefreshController(NewViews(newFakeService(), nil), nil)
		assert.False(t, rc.Activate(ctx, model.View("boiler"), ""))
		assert.False(t, rc.Refresh(ctx, model.View("boiler")))
	})

	t.Run("refresh_data_covers_active_and_settings", func(t *testing.T) {
		svc := newFakeService()
		views := NewViews(svc, nil)
		rc := NewRefreshController(views, svc)

		// Nothing loaded yet.
		assert.Equal(t, 0, rc.RefreshData(ctx, model.ViewKilnHealth))

		rc.Activate(ctx, model.ViewKilnHealth, model.Range24h)
		rc.Activate(ctx, model.ViewSettings, "")
		views.Wait()

		assert.Equal(t, 2, rc.RefreshData(ctx, model.ViewKilnHealth))
		views.Wait()
		assert.Len(t, svc.Calls(api.PathKilnHealth), 2)
		assert.Len(t, svc.Calls(api.PathSettings), 2)

		assert.Equal(t, 1, rc.RefreshData(ctx, model.ViewSettings))
		views.Wait()
		assert.Len(t, svc.Calls(api.PathSettings), 3)
	})

	t.Run("clear_cache_refetches", func(t *testing.T) {
		svc := newFakeService()
		views := NewViews(svc, nil)
		rc := NewRefreshController(views, svc)

		rc.Activate(ctx, model.ViewVariance, "")
		views.Wait()
		rc.ClearCache(ctx, model.ViewVariance)
		views.Wait()

		assert.Equal(t, 1, svc.cleared)
		assert.Len(t, svc.Calls(api.PathVarianceAnalysis), 2)
	})

	t.Run("clear_cache_without_cache", func(t *testing.T) {
		svc := newFakeService()
		views := NewViews(svc, nil)
		rc := NewRefreshController(views, nil)

		rc.Activate(ctx, model.ViewVariance, "")
		views.Wait()
		rc.ClearCache(ctx, model.ViewVariance)
		views.Wait()

		assert.Equal(t, 0, svc.cleared)
		assert.Len(t, svc.Calls(api.PathVarianceAnalysis), 2)
	})
}
