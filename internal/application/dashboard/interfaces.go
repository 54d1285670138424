package dashboard

import (
	"context"

	"github.com/penwyp/go-kiln-monitor/internal/core/events"
	"github.com/penwyp/go-kiln-monitor/internal/core/geometry"
	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/presentation/interaction"
)

// DisplayController handles terminal display operations
type DisplayController interface {
	// EnterAlternateScreen switches to alternate terminal screen
	EnterAlternateScreen()
	// ExitAlternateScreen returns to normal terminal screen
	ExitAlternateScreen()
	// ClearScreen clears the terminal screen
	ClearScreen()
	// Viewport returns the terminal size in cells
	Viewport() geometry.Size
	// RenderWithState draws the shell state
	RenderWithState(app *model.AppState, state model.InteractionState)
}

// InputHandler processes keyboard and pointer events
type InputHandler interface {
	// Events returns a channel of input events
	Events() <-chan interaction.InputEvent
	// Close cleans up input handler resources
	Close() error
}

// EventSource is an alert feed that can be shut down
type EventSource interface {
	events.Source
	Close() error
}

// CacheController is implemented by services that keep a response cache
type CacheController interface {
	ClearCache()
}

// RefreshStrategy manages data refresh operations
type RefreshStrategy interface {
	// Activate shows a view, fetching only when needed
	Activate(ctx context.Context, view model.View, tr model.TimeRange) bool
	// Refresh refetches a view bypassing the response cache
	Refresh(ctx context.Context, view model.View) bool
	// ClearCache drops cached responses and refetches the view
	ClearCache(ctx context.Context, view model.View)
}
