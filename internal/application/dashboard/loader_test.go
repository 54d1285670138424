package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/data/api"
)

// recordingFetch returns the token it was asked for, optionally blocking
// until the token's gate is opened.
type recordingFetch struct {
	mu    sync.Mutex
	calls []model.TimeRange
	gates map[model.TimeRange]chan struct{}
}

func newRecordingFetch() *recordingFetch {
	return &recordingFetch{gates: make(map[model.TimeRange]chan struct{})}
}

func (r *recordingFetch) hold(tr model.TimeRange) chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	gate := make(chan struct{})
	r.gates[tr] = gate
	return gate
}

// fetch ignores cancellation on purpose, like a server that answers late.
func (r *recordingFetch) fetch(_ context.Context, tr model.TimeRange) (string, error) {
	r.mu.Lock()
	r.calls = append(r.calls, tr)
	gate := r.gates[tr]
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return "data-" + string(tr), nil
}

func (r *recordingFetch) Calls() []model.TimeRange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.TimeRange(nil), r.calls...)
}

func TestViewLoaderFetchesOncePerToken(t *testing.T) {
	rf := newRecordingFetch()
	l := NewViewLoader(model.ViewEnergy, rf.fetch, nil)
	ctx := context.Background()

	assert.True(t, l.Activate(ctx, model.Range7d))
	l.Wait()
	assert.Equal(t, []model.TimeRange{model.Range7d}, rf.Calls())

	// Same token while ready: no refetch.
	assert.False(t, l.Activate(ctx, model.Range7d))
	l.Wait()
	assert.Equal(t, []model.TimeRange{model.Range7d}, rf.Calls())

	assert.True(t, l.Activate(ctx, model.Range24h))
	l.Wait()
	assert.Equal(t, []model.TimeRange{model.Range7d, model.Range24h}, rf.Calls())

	snap := l.Snapshot()
	assert.Equal(t, model.StatusReady, snap.Status)
	assert.Equal(t, model.Range24h, snap.TimeRange)
	assert.Equal(t, "data-24h", snap.Data)
}

func TestViewLoaderNoRefetchWhileLoading(t *testing.T) {
	rf := newRecordingFetch()
	gate := rf.hold(model.Range7d)
	l := NewViewLoader(model.ViewEnergy, rf.fetch, nil)

	assert.True(t, l.Activate(context.Background(), model.Range7d))
	assert.False(t, l.Activate(context.Background(), model.Range7d))
	assert.Equal(t, model.StatusLoading, l.Status())

	close(gate)
	l.Wait()
	assert.Len(t, rf.Calls(), 1)
	assert.Equal(t, model.StatusReady, l.Status())
}

func TestViewLoaderDropsStaleResponse(t *testing.T) {
	rf := newRecordingFetch()
	slow := rf.hold(model.Range7d)
	l := NewViewLoader(model.ViewEnergy, rf.fetch, nil)
	ctx := context.Background()

	l.Activate(ctx, model.Range7d)
	l.Activate(ctx, model.Range24h)

	require.Eventually(t, func() bool { return l.Status() == model.StatusReady }, time.Second, 5*time.Millisecond)

	// The 7d answer arrives after the 24h one and must be ignored.
	close(slow)
	l.Wait()

	snap := l.Snapshot()
	assert.Equal(t, model.Range24h, snap.TimeRange)
	assert.Equal(t, "data-24h", snap.Data)
	assert.Equal(t, []model.TimeRange{model.Range7d, model.Range24h}, rf.Calls())
}

func TestViewLoaderError(t *testing.T) {
	var calls atomic.Int32
	fail := true
	fetch := func(context.Context, model.TimeRange) (string, error) {
		calls.Add(1)
		if fail {
			return "", &api.Error{Kind: api.KindNetwork, Endpoint: api.PathKilnHealth, Err: errors.New("connection refused")}
		}
		return "ok", nil
	}
	l := NewViewLoader(model.ViewKilnHealth, fetch, nil)
	ctx := context.Background()

	l.Activate(ctx, model.Range24h)
	l.Wait()
	snap := l.Snapshot()
	assert.Equal(t, model.StatusError, snap.Status)
	assert.True(t, api.IsKind(snap.Err, api.KindNetwork))
	assert.False(t, snap.HasData())

	// An errored view refetches on activation.
	fail = false
	assert.True(t, l.Activate(ctx, model.Range24h))
	l.Wait()
	assert.Equal(t, model.StatusReady, l.Status())
	assert.EqualValues(t, 2, calls.Load())
}

func TestViewLoaderPartial(t *testing.T) {
	fetch := func(context.Context, model.TimeRange) (*model.Settings, error) {
		return &model.Settings{Language: "en"}, nil
	}
	l := NewViewLoader(model.ViewSettings, fetch, nil)
	l.Activate(context.Background(), "")
	l.Wait()

	snap := l.Snapshot()
	assert.Equal(t, model.StatusPartial, snap.Status)
	assert.Equal(t, []string{"darkMode", "notificationsEnabled"}, snap.Missing)
	assert.True(t, snap.HasData())
}

func TestViewLoaderRefreshKeepsData(t *testing.T) {
	rf := newRecordingFetch()
	var updates atomic.Int32
	l := NewViewLoader(model.ViewKilnHealth, rf.fetch, func(model.View) { updates.Add(1) })
	ctx := context.Background()

	assert.False(t, l.Refresh(ctx), "nothing to refresh before the first activation")

	l.Activate(ctx, model.Range24h)
	l.Wait()

	gate := rf.hold(model.Range24h)
	assert.True(t, l.Refresh(ctx))
	snap := l.Snapshot()
	assert.True(t, snap.Refreshing)
	assert.Equal(t, model.StatusReady, snap.Status)
	assert.Equal(t, "data-24h", snap.Data)

	close(gate)
	l.Wait()
	assert.False(t, l.Snapshot().Refreshing)
	assert.Len(t, rf.Calls(), 2)
	// loading, ready, refreshing, ready
	assert.EqualValues(t, 4, updates.Load())
}

func TestViewLoaderClose(t *testing.T) {
	var updates atomic.Int32
	fetch := func(ctx context.Context, _ model.TimeRange) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	l := NewViewLoader(model.ViewOverview, fetch, func(model.View) { updates.Add(1) })

	l.Activate(context.Background(), "")
	l.Close()
	l.Wait()

	assert.Equal(t, model.StatusLoading, l.Status())
	assert.EqualValues(t, 1, updates.Load(), "no update after close")
	assert.False(t, l.Activate(context.Background(), model.Range7d))
}
