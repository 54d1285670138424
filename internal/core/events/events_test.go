package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/testing/fixtures"
)

func nextWithin(t *testing.T, src Source, d time.Duration) (Event, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return src.Next(ctx)
}

func TestDecodeAlert(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
		wantErr bool
	}{
		{
			name:    "envelope",
			input:   `{"type":"alert","payload":{"message":"High temp","target_node_id":"5"}}`,
			wantMsg: "High temp",
		},
		{
			name:    "bare alert",
			input:   `{"id":"a1","message":"Oxygen dip","target_node_id":"4","severity":"critical"}`,
			wantMsg: "Oxygen dip",
		},
		{name: "other message type", input: `{"type":"data","payload":{}}`, wantErr: true},
		{name: "missing message", input: `{"target_node_id":"5"}`, wantErr: true},
		{name: "bad severity", input: `{"message":"x","target_node_id":"5","severity":"apocalyptic"}`, wantErr: true},
		{name: "not json", input: `kiln`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert, err := DecodeAlert([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMsg, alert.Message)
			assert.NotEmpty(t, alert.ID)
			assert.False(t, alert.RaisedAt.IsZero())
		})
	}
}

func TestScriptedSourceFiresOnce(t *testing.T) {
	src := NewScriptedSource(20 * time.Millisecond)
	defer src.Close()

	start := time.Now()
	ev, err := nextWithin(t, src, time.Second)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
	assert.Equal(t, KindAlert, ev.Kind)
	assert.Equal(t, DemoTargetNode, ev.Alert.TargetNodeID)
	require.NotNil(t, ev.Alert.RecommendationID)
	assert.NotEmpty(t, ev.Alert.Message)

	_, err = nextWithin(t, src, 50*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScriptedSourceClose(t *testing.T) {
	src := NewScriptedSource(time.Hour)
	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = src.Close()
	}()
	_, err := nextWithin(t, src, time.Second)
	assert.ErrorIs(t, err, ErrSourceClosed)
}

func TestPumpStopsOnClose(t *testing.T) {
	src := NewScriptedSource(5 * time.Millisecond)
	got := make(chan Event, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- Pump(context.Background(), src, func(ev Event) { got <- ev })
	}()

	select {
	case ev := <-got:
		assert.Equal(t, DemoTargetNode, ev.Alert.TargetNodeID)
	case <-time.After(time.Second):
		t.Fatal("no event pumped")
	}
	require.NoError(t, src.Close())
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("pump did not stop")
	}
}

func TestFileSourceTailsAppendedLines(t *testing.T) {
	feed, err := fixtures.NewAlertFeed(t.TempDir(), "alerts.jsonl")
	require.NoError(t, err)
	require.NoError(t, feed.Append(model.NewAlert("old alert", "3", time.Now())))

	src, err := NewFileSource(feed.Path(), false)
	require.NoError(t, err)
	defer src.Close()

	require.NoError(t, feed.Append(model.NewAlert("High temp spike!", "5", time.Now())))
	ev, err := nextWithin(t, src, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "High temp spike!", ev.Alert.Message)

	// A line split across two writes is delivered once complete.
	require.NoError(t, feed.AppendRaw(`{"message":"Oxygen dip",`))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, feed.AppendRaw(`"target_node_id":"4"}`+"\n"))
	ev, err = nextWithin(t, src, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Oxygen dip", ev.Alert.Message)

	// Malformed lines are skipped.
	require.NoError(t, feed.AppendRaw("not json\n"))
	require.NoError(t, feed.Append(model.NewAlert("after junk", "6", time.Now())))
	ev, err = nextWithin(t, src, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "after junk", ev.Alert.Message)
}

func TestFileSourceReplaysFromStart(t *testing.T) {
	feed, err := fixtures.NewAlertFeed(t.TempDir(), "alerts.jsonl")
	require.NoError(t, err)
	require.NoError(t, feed.Append(model.NewAlert("first", "5", time.Now())))

	src, err := NewFileSource(feed.Path(), true)
	require.NoError(t, err)
	defer src.Close()

	ev, err := nextWithin(t, src, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "first", ev.Alert.Message)
}

func TestFileSourceHandlesRotation(t *testing.T) {
	feed, err := fixtures.NewAlertFeed(t.TempDir(), "alerts.jsonl")
	require.NoError(t, err)
	require.NoError(t, feed.Append(
		model.NewAlert("one", "5", time.Now()),
		model.NewAlert("two", "5", time.Now()),
	))

	src, err := NewFileSource(feed.Path(), false)
	require.NoError(t, err)
	defer src.Close()

	require.NoError(t, feed.Replace(model.NewAlert("rotated", "5", time.Now())))
	ev, err := nextWithin(t, src, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "rotated", ev.Alert.Message)
}

func TestFileSourceClose(t *testing.T) {
	src, err := NewFileSource(t.TempDir()+"/feed/alerts.jsonl", false)
	require.NoError(t, err)
	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
	_, err = nextWithin(t, src, time.Second)
	assert.ErrorIs(t, err, ErrSourceClosed)
}

func wsServer(t *testing.T, messages ...string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, m := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		// Hold the connection until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketSourceReceivesAlerts(t *testing.T) {
	srv := wsServer(t,
		`{"type":"alert","payload":{"message":"High temp","target_node_id":"5"}}`,
		`{"type":"data","payload":{}}`+"\n"+`{"type":"alert","payload":{"message":"Oxygen dip","target_node_id":"4"}}`,
	)
	src := NewWebSocketSource(wsURL(srv), 10*time.Millisecond)
	defer src.Close()

	ev, err := nextWithin(t, src, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "High temp", ev.Alert.Message)
	assert.True(t, src.Connected())

	ev, err = nextWithin(t, src, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Oxygen dip", ev.Alert.Message)
}

func TestWebSocketSourceRetriesUntilCancelled(t *testing.T) {
	src := NewWebSocketSource("ws://127.0.0.1:1/api/ws", 10*time.Millisecond)
	defer src.Close()

	_, err := nextWithin(t, src, 100*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, src.Connected())
}

func TestWebSocketSourceClose(t *testing.T) {
	srv := wsServer(t)
	src := NewWebSocketSource(wsURL(srv), 10*time.Millisecond)

	errCh := make(chan error, 1)
	go func() {
		_, err := src.Next(context.Background())
		errCh <- err
	}()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, src.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrSourceClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not return after Close")
	}
}
