package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-kiln-monitor/internal/config"
	"github.com/penwyp/go-kiln-monitor/internal/core/geometry"
	"github.com/penwyp/go-kiln-monitor/internal/core/model"
)

func TestDashboardConfigValidate(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := &DashboardConfig{}
		require.NoError(t, c.Validate())
		assert.Equal(t, LayoutFull, c.Layout)
		assert.Equal(t, model.ViewOverview, c.DefaultView)
		assert.Equal(t, config.AlertSourceScripted, c.AlertSource)
		assert.Equal(t, 30*time.Second, c.DataRefreshInterval)
		assert.Equal(t, geometry.Size{Width: 28, Height: 8}, c.PanelMin)
		assert.Equal(t, c.PanelMin, c.PanelSize)
		assert.NotZero(t, c.Assistant.FeedbackDelay)
	})

	t.Run("panel_grows_to_minimum", func(t *testing.T) {
		c := &DashboardConfig{PanelSize: geometry.Size{Width: 10, Height: 30}}
		require.NoError(t, c.Validate())
		assert.Equal(t, geometry.Size{Width: 28, Height: 30}, c.PanelSize)
	})

	t.Run("bad_layout", func(t *testing.T) {
		assert.Error(t, (&DashboardConfig{Layout: "grid"}).Validate())
	})

	t.Run("bad_view", func(t *testing.T) {
		err := (&DashboardConfig{DefaultView: "boiler"}).Validate()
		assert.ErrorIs(t, err, model.ErrUnknownView)
	})
}
