// Package transcript implements the realtime transcript socket client:
// one websocket transport scoped to a (meeting, participant) pair,
// inbound transcript events, outbound audio and text frames, and
// automatic fixed-delay reconnection.
package transcript

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxmeet/voxmeet/internal/observability"
	"github.com/voxmeet/voxmeet/internal/protocol"
)

// State is the socket lifecycle state. StateError is reported to the
// state callback but is not a resting state; the machine proceeds to
// closed and reconnects.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateClosed     State = "closed"
	StateError      State = "error"
)

type Options struct {
	// BaseURL is the ws:// or wss:// endpoint root.
	BaseURL       string
	MeetingID     string
	ParticipantID string

	// ReconnectDelay is the fixed wait between transport loss and the
	// next attempt. No backoff growth, no retry cap.
	ReconnectDelay time.Duration

	OnEvent func(protocol.TranscriptEvent)
	OnState func(State)

	Metrics *observability.Metrics
}

type Client struct {
	opts   Options
	dialer *websocket.Dialer
	feed   *Feed

	mu     sync.Mutex
	state  State
	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}

	writeMu sync.Mutex
}

func NewClient(opts Options) *Client {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = 3 * time.Second
	}
	return &Client{
		opts:   opts,
		dialer: websocket.DefaultDialer,
		feed:   NewFeed(),
		state:  StateIdle,
	}
}

// Feed returns the in-memory ordered sequence of received transcript
// events. It lives as long as the client.
func (c *Client) Feed() *Feed { return c.feed }

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Endpoint returns the transport address for this client.
func (c *Client) Endpoint() string {
	return strings.TrimRight(c.opts.BaseURL, "/") +
		"/ws/" + url.PathEscape(c.opts.MeetingID) +
		"/" + url.PathEscape(c.opts.ParticipantID)
}

// Connect starts the connection loop. It is a no-op when the loop is
// already running.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.run(ctx)
}

// run is the single task loop driving the state machine. Cancellation
// of ctx is the only way it terminates.
func (c *Client) run(ctx context.Context) {
	defer close(c.done)
	for {
		c.setState(StateConnecting)

		conn, _, err := c.dialer.DialContext(ctx, c.Endpoint(), nil)
		if err != nil {
			if ctx.Err() != nil {
				c.setState(StateClosed)
				return
			}
			c.setState(StateError)
			c.setState(StateClosed)
		} else {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()

			// Disconnect may have landed between the dial and the store
			// above; its cancel cannot reach an unregistered conn, so
			// re-check before entering the read loop.
			if ctx.Err() != nil {
				c.mu.Lock()
				c.conn = nil
				c.mu.Unlock()
				_ = conn.Close()
				c.setState(StateClosed)
				return
			}
			c.setState(StateOpen)

			readErr := c.readLoop(conn)

			c.mu.Lock()
			c.conn = nil
			c.mu.Unlock()
			_ = conn.Close()

			if ctx.Err() == nil && readErr != nil && !websocket.IsCloseError(readErr, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.setState(StateError)
			}
			c.setState(StateClosed)
		}

		if ctx.Err() != nil {
			return
		}
		if c.opts.Metrics != nil {
			c.opts.Metrics.Reconnects.Inc()
		}
		timer := time.NewTimer(c.opts.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	conn.SetReadLimit(2 << 20)
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if msgType != websocket.TextMessage {
			continue
		}
		parsed, err := protocol.ParseServerMessage(data)
		if err != nil {
			// Malformed frames never surface past the client boundary.
			if c.opts.Metrics != nil {
				c.opts.Metrics.DroppedFrames.Inc()
			}
			continue
		}
		switch msg := parsed.(type) {
		case protocol.TranscriptEvent:
			c.observeInbound(string(protocol.TypeTranscript))
			c.feed.append(msg)
			if c.opts.OnEvent != nil {
				c.opts.OnEvent(msg)
			}
		case protocol.SystemEvent:
			c.observeInbound(string(protocol.TypeSystemEvent))
		case protocol.ErrorEvent:
			c.observeInbound(string(protocol.TypeErrorEvent))
		}
	}
}

// SendAudioChunk sends one raw binary audio frame. It is a silent
// no-op unless the transport is currently open; data sent during a
// reconnect gap is lost by design (at-most-once, no buffering).
func (c *Client) SendAudioChunk(chunk []byte) {
	conn := c.openConn()
	if conn == nil || len(chunk) == 0 {
		return
	}
	c.writeMu.Lock()
	err := conn.WriteMessage(websocket.BinaryMessage, chunk)
	c.writeMu.Unlock()
	if err == nil && c.opts.Metrics != nil {
		c.opts.Metrics.AudioChunksSent.Inc()
		c.opts.Metrics.WSMessages.WithLabelValues("outbound", "audio").Inc()
	}
}

// SendText sends one plain text frame, under the same no-op policy as
// SendAudioChunk.
func (c *Client) SendText(value string) {
	conn := c.openConn()
	if conn == nil || value == "" {
		return
	}
	c.writeMu.Lock()
	err := conn.WriteMessage(websocket.TextMessage, []byte(value))
	c.writeMu.Unlock()
	if err == nil && c.opts.Metrics != nil {
		c.opts.Metrics.WSMessages.WithLabelValues("outbound", "text").Inc()
	}
}

// Disconnect disables reconnection, cancels any pending attempt, closes
// the transport if open, and waits for the loop to stop. Idempotent.
// Must not be called from the client's own callbacks.
func (c *Client) Disconnect() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	done := c.done
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()

	// Read the conn only after cancellation so a transport established
	// concurrently with this call still gets closed and cannot keep the
	// read loop alive.
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
	<-done
}

func (c *Client) openConn() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOpen {
		return nil
	}
	return c.conn
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	if c.opts.Metrics != nil {
		c.opts.Metrics.SocketTransitions.WithLabelValues(string(s)).Inc()
	}
	if c.opts.OnState != nil {
		c.opts.OnState(s)
	}
}

func (c *Client) observeInbound(msgType string) {
	if c.opts.Metrics != nil {
		c.opts.Metrics.WSMessages.WithLabelValues("inbound", msgType).Inc()
	}
}

// DeriveWSBase maps an http(s) API base URL onto the matching ws(s)
// endpoint root.
func DeriveWSBase(apiBaseURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(apiBaseURL))
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", fmt.Errorf("base URL host is required")
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String(), nil
}
