package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/util"
)

var ErrSourceClosed = errors.New("event source closed")

type Kind string

const KindAlert Kind = "alert"

// Event is one notification delivered to the dashboard.
type Event struct {
	Kind  Kind
	Alert model.Alert
}

// Source delivers events one at a time. Next blocks until an event is
// available, the context is done, or the source is closed.
type Source interface {
	Next(ctx context.Context) (Event, error)
}

// Pump feeds every event from src to handle until ctx is done or the source
// closes. It returns nil on a clean stop.
func Pump(ctx context.Context, src Source, handle func(Event)) error {
	for {
		ev, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrSourceClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		handle(ev)
	}
}

// DecodeAlert parses one alert message. Both the push envelope
// {"type":"alert","payload":{...}} and a bare alert object are accepted.
// Missing id and raise time are filled in.
func DecodeAlert(data []byte) (model.Alert, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := sonic.Unmarshal(data, &probe); err != nil {
		return model.Alert{}, fmt.Errorf("decode alert: %w", err)
	}

	var alert model.Alert
	if probe.Type != "" {
		if probe.Type != model.EnvelopeAlert {
			return model.Alert{}, fmt.Errorf("decode alert: unexpected message type %q", probe.Type)
		}
		var env model.AlertEnvelope
		if err := sonic.Unmarshal(data, &env); err != nil {
			return model.Alert{}, fmt.Errorf("decode alert: %w", err)
		}
		alert = env.Alert
	} else if err := sonic.Unmarshal(data, &alert); err != nil {
		return model.Alert{}, fmt.Errorf("decode alert: %w", err)
	}

	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.RaisedAt.IsZero() {
		alert.RaisedAt = util.GetTimeProvider().Now()
	}
	if err := model.Validate(&alert); err != nil {
		return model.Alert{}, fmt.Errorf("invalid alert: %w", err)
	}
	return alert, nil
}

// splitFrames splits a websocket message that may carry several
// newline-separated frames.
func splitFrames(msg []byte) [][]byte {
	var out [][]byte
	for _, line := range strings.Split(string(msg), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, []byte(line))
		}
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
