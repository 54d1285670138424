package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/data/api"
	"github.com/penwyp/go-kiln-monitor/internal/util"
)

// FetchFunc loads one view payload. Views that ignore the time range
// receive the empty token.
type FetchFunc[T any] func(ctx context.Context, tr model.TimeRange) (T, error)

// ViewLoader runs the fetch for one view and keeps its latest snapshot.
//
// Every request carries a generation number. A response is applied only if
// its generation is still current when it completes, so a slow response for
// an old time range can never overwrite a newer one. Starting a request
// cancels the previous one.
type ViewLoader[T any] struct {
	view     model.View
	fetch    FetchFunc[T]
	onUpdate func(model.View)
	now      func() time.Time

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	snap   model.ViewSnapshot[T]
	closed bool
	wg     sync.WaitGroup
}

// NewViewLoader creates an idle loader. onUpdate is called, outside the
// lock, after every applied state change.
func NewViewLoader[T any](view model.View, fetch FetchFunc[T], onUpdate func(model.View)) *ViewLoader[T] {
	return &ViewLoader[T]{
		view:     view,
		fetch:    fetch,
		onUpdate: onUpdate,
		now:      func() time.Time { return util.GetTimeProvider().Now() },
	}
}

// Activate shows the view for tr. It issues exactly one request unless the
// loader already holds, or is already loading, data for the same token.
// It reports whether a request was started.
func (l *ViewLoader[T]) Activate(ctx context.Context, tr model.TimeRange) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	if l.snap.TimeRange == tr {
		switch l.snap.Status {
		case model.StatusLoading, model.StatusReady, model.StatusPartial:
			l.mu.Unlock()
			return false
		}
	}

	var zero T
	l.snap = model.ViewSnapshot[T]{Status: model.StatusLoading, TimeRange: tr, Data: zero}
	gen := l.startLocked(ctx, tr)
	l.mu.Unlock()

	util.LogDebug("view fetch started", util.F("view", l.view), util.F("timerange", tr), util.F("generation", gen))
	l.notify()
	return true
}

// Refresh refetches the current token. Data already shown stays visible
// until the new response arrives.
func (l *ViewLoader[T]) Refresh(ctx context.Context) bool {
	l.mu.Lock()
	if l.closed || l.snap.Status == model.StatusIdle {
		l.mu.Unlock()
		return false
	}
	tr := l.snap.TimeRange
	if l.snap.HasData() {
		l.snap.Refreshing = true
	} else {
		var zero T
		l.snap = model.ViewSnapshot[T]{Status: model.StatusLoading, TimeRange: tr, Data: zero}
	}
	gen := l.startLocked(ctx, tr)
	l.mu.Unlock()

	util.LogDebug("view refresh started", util.F("view", l.view), util.F("timerange", tr), util.F("generation", gen))
	l.notify()
	return true
}

func (l *ViewLoader[T]) startLocked(parent context.Context, tr model.TimeRange) uint64 {
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	l.cancel = cancel
	l.gen++
	gen := l.gen

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer cancel()
		data, err := l.fetch(ctx, tr)
		l.complete(gen, tr, data, err)
	}()
	return gen
}

func (l *ViewLoader[T]) complete(gen uint64, tr model.TimeRange, data T, err error) {
	l.mu.Lock()
	if l.closed || gen != l.gen {
		l.mu.Unlock()
		util.LogDebug("stale view response dropped", util.F("view", l.view), util.F("timerange", tr), util.F("generation", gen))
		return
	}
	l.cancel = nil

	if err != nil {
		if errors.Is(err, context.Canceled) || api.IsKind(err, api.KindCanceled) {
			// Parent context ended; nothing will read the result.
			l.mu.Unlock()
			return
		}
		l.snap.Status = model.StatusError
		l.snap.Err = err
		l.snap.Refreshing = false
		l.mu.Unlock()

		util.LogWarn("view fetch failed", util.F("view", l.view), util.F("timerange", tr), util.F("error", err.Error()))
		l.notify()
		return
	}

	l.snap = model.ViewSnapshot[T]{
		Status:    model.StatusReady,
		TimeRange: tr,
		Data:      data,
		UpdatedAt: l.now(),
	}
	if p, ok := any(data).(model.Partial); ok {
		if missing := p.Missing(); len(missing) > 0 {
			l.snap.Status = model.StatusPartial
			l.snap.Missing = missing
		}
	}
	status := l.snap.Status
	l.mu.Unlock()

	util.LogDebug("view fetch completed", util.F("view", l.view), util.F("timerange", tr), util.F("status", status.String()))
	l.notify()
}

// Snapshot returns a copy of the loader state.
func (l *ViewLoader[T]) Snapshot() model.ViewSnapshot[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.snap
	if s.Missing != nil {
		s.Missing = append([]string(nil), s.Missing...)
	}
	return s
}

// Status is a shortcut for Snapshot().Status.
func (l *ViewLoader[T]) Status() model.LoadStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snap.Status
}

// Close cancels the in-flight request. No state changes are applied after
// Close returns.
func (l *ViewLoader[T]) Close() {
	l.mu.Lock()
	l.closed = true
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.mu.Unlock()
}

// Wait blocks until every started request has finished.
func (l *ViewLoader[T]) Wait() {
	l.wg.Wait()
}

func (l *ViewLoader[T]) notify() {
	if l.onUpdate != nil {
		l.onUpdate(l.view)
	}
}
