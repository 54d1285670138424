package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/penwyp/go-kiln-monitor/internal/util"
)

const (
	wsHandshakeTimeout = 10 * time.Second
	wsMaxMessageSize   = 64 * 1024
)

// WebSocketSource subscribes to the server's alert push channel and
// reconnects after a fixed delay whenever the connection drops.
type WebSocketSource struct {
	url            string
	reconnectDelay time.Duration
	dialer         *websocket.Dialer

	mu        sync.Mutex
	conn      *websocket.Conn
	pending   [][]byte
	connected atomic.Bool
	done      chan struct{}
	once      sync.Once
}

func NewWebSocketSource(url string, reconnectDelay time.Duration) *WebSocketSource {
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	return &WebSocketSource{
		url:            url,
		reconnectDelay: reconnectDelay,
		dialer:         &websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout},
		done:           make(chan struct{}),
	}
}

// Connected reports whether the push channel is currently up.
func (s *WebSocketSource) Connected() bool {
	return s.connected.Load()
}

func (s *WebSocketSource) Next(ctx context.Context) (Event, error) {
	for {
		if s.isClosed() {
			return Event{}, ErrSourceClosed
		}
		if err := ctx.Err(); err != nil {
			return Event{}, err
		}

		if frame, ok := s.popPending(); ok {
			alert, err := DecodeAlert(frame)
			if err != nil {
				util.LogWarn("skipping malformed push message", util.F("error", err.Error()))
				continue
			}
			return Event{Kind: KindAlert, Alert: alert}, nil
		}

		conn, err := s.connection(ctx)
		if err != nil {
			util.LogDebug("alert channel dial failed", util.F("url", s.url), util.F("error", err.Error()))
			if err := s.wait(ctx); err != nil {
				return Event{}, err
			}
			continue
		}

		msg, err := s.read(ctx, conn)
		if err != nil {
			s.drop(conn)
			if s.isClosed() {
				return Event{}, ErrSourceClosed
			}
			if ctx.Err() != nil {
				return Event{}, ctx.Err()
			}
			util.LogWarn("alert channel disconnected", util.F("error", err.Error()))
			if err := s.wait(ctx); err != nil {
				return Event{}, err
			}
			continue
		}

		s.mu.Lock()
		s.pending = append(s.pending, splitFrames(msg)...)
		s.mu.Unlock()
	}
}

// read blocks on the connection; cancelling ctx closes it to unblock.
func (s *WebSocketSource) read(ctx context.Context, conn *websocket.Conn) ([]byte, error) {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	_, msg, err := conn.ReadMessage()
	return msg, err
}

func (s *WebSocketSource) connection(ctx context.Context) (*websocket.Conn, error) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		return conn, nil
	}

	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(wsMaxMessageSize)

	s.mu.Lock()
	if s.isClosed() {
		s.mu.Unlock()
		_ = conn.Close()
		return nil, ErrSourceClosed
	}
	s.conn = conn
	s.mu.Unlock()
	s.connected.Store(true)
	util.LogInfo("alert channel connected", util.F("url", s.url))
	return conn, nil
}

func (s *WebSocketSource) drop(conn *websocket.Conn) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
	s.connected.Store(false)
	_ = conn.Close()
}

func (s *WebSocketSource) popPending() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil, false
	}
	frame := s.pending[0]
	s.pending = s.pending[1:]
	return frame, true
}

func (s *WebSocketSource) wait(ctx context.Context) error {
	select {
	case <-s.done:
		return ErrSourceClosed
	default:
	}
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-waitCtx.Done():
		}
	}()
	if err := sleepCtx(waitCtx, s.reconnectDelay); err != nil {
		if s.isClosed() {
			return ErrSourceClosed
		}
		return err
	}
	return nil
}

func (s *WebSocketSource) isClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *WebSocketSource) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		conn := s.conn
		s.conn = nil
		s.mu.Unlock()
		s.connected.Store(false)
		if conn != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		}
	})
	return nil
}

