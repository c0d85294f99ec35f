package transcript

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxmeet/voxmeet/internal/protocol"
)

// wsHarness runs a websocket endpoint that hands each accepted
// connection to handle and counts dials.
type wsHarness struct {
	server *httptest.Server
	dials  atomic.Int64
}

func newWSHarness(t *testing.T, handle func(*websocket.Conn)) *wsHarness {
	t.Helper()
	h := &wsHarness{}
	upgrader := websocket.Upgrader{}
	h.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/ws/") {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.dials.Add(1)
		handle(conn)
	}))
	t.Cleanup(h.server.Close)
	return h
}

func (h *wsHarness) wsBase(t *testing.T) string {
	t.Helper()
	base, err := DeriveWSBase(h.server.URL)
	if err != nil {
		t.Fatalf("DeriveWSBase() error = %v", err)
	}
	return base
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestEndpointPath(t *testing.T) {
	c := NewClient(Options{BaseURL: "ws://example.com", MeetingID: "m-1", ParticipantID: "p-42"})
	if got := c.Endpoint(); got != "ws://example.com/ws/m-1/p-42" {
		t.Fatalf("Endpoint() = %q", got)
	}
}

func TestSendWhileNotOpenIsNoOp(t *testing.T) {
	received := make(chan []byte, 8)
	h := newWSHarness(t, func(conn *websocket.Conn) {
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- data
		}
	})

	c := NewClient(Options{
		BaseURL:        h.wsBase(t),
		MeetingID:      "m-1",
		ParticipantID:  "p-1",
		ReconnectDelay: 50 * time.Millisecond,
	})

	// Never connected: sends must not panic and must not reach any
	// transport.
	c.SendAudioChunk([]byte{1, 2, 3})
	c.SendText("hello")
	if c.State() != StateIdle {
		t.Fatalf("State() = %q, want idle", c.State())
	}

	c.Connect()
	defer c.Disconnect()
	if !waitFor(t, 2*time.Second, func() bool { return c.State() == StateOpen }) {
		t.Fatalf("client never reached open, state = %q", c.State())
	}
	c.SendAudioChunk([]byte{4, 5})

	select {
	case data := <-received:
		if len(data) != 2 {
			t.Fatalf("received %d bytes, want 2", len(data))
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("open-state send never reached the server")
	}
	select {
	case data := <-received:
		t.Fatalf("unexpected extra frame %v from pre-open sends", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestReconnectAfterTransportClose(t *testing.T) {
	h := newWSHarness(t, func(conn *websocket.Conn) {
		// Drop every connection immediately to force reconnects.
		conn.Close()
	})

	c := NewClient(Options{
		BaseURL:        h.wsBase(t),
		MeetingID:      "m-1",
		ParticipantID:  "p-1",
		ReconnectDelay: 40 * time.Millisecond,
	})
	c.Connect()
	defer c.Disconnect()

	if !waitFor(t, 2*time.Second, func() bool { return h.dials.Load() >= 2 }) {
		t.Fatalf("dials = %d, want at least 2 (reconnect)", h.dials.Load())
	}
}

func TestDisconnectCancelsPendingReconnect(t *testing.T) {
	h := newWSHarness(t, func(conn *websocket.Conn) {
		conn.Close()
	})

	c := NewClient(Options{
		BaseURL:        h.wsBase(t),
		MeetingID:      "m-1",
		ParticipantID:  "p-1",
		ReconnectDelay: 300 * time.Millisecond,
	})
	c.Connect()

	if !waitFor(t, 2*time.Second, func() bool { return h.dials.Load() == 1 }) {
		t.Fatalf("first dial never happened")
	}
	// Disconnect during the reconnect window.
	c.Disconnect()
	time.Sleep(700 * time.Millisecond)
	if got := h.dials.Load(); got != 1 {
		t.Fatalf("dials after Disconnect = %d, want 1", got)
	}
	if c.State() != StateClosed {
		t.Fatalf("State() = %q, want closed", c.State())
	}
	// Idempotent.
	c.Disconnect()
}

func TestDisconnectDuringDialWindowAlwaysReturns(t *testing.T) {
	// Hold every accepted connection open so a leaked read loop would
	// block forever.
	hold := make(chan struct{})
	defer close(hold)
	h := newWSHarness(t, func(conn *websocket.Conn) {
		<-hold
		conn.Close()
	})

	// Sweep the gap between the dial completing and the conn being
	// registered; Disconnect must return no matter where it lands.
	for i := 0; i < 40; i++ {
		c := NewClient(Options{
			BaseURL:        h.wsBase(t),
			MeetingID:      "m-1",
			ParticipantID:  "p-1",
			ReconnectDelay: time.Second,
		})
		c.Connect()
		time.Sleep(time.Duration(i*50) * time.Microsecond)

		returned := make(chan struct{})
		go func() {
			c.Disconnect()
			close(returned)
		}()
		select {
		case <-returned:
		case <-time.After(5 * time.Second):
			t.Fatalf("iteration %d: Disconnect never returned", i)
		}
		if c.State() != StateClosed && c.State() != StateIdle {
			t.Fatalf("iteration %d: State() = %q after Disconnect", i, c.State())
		}
	}
}

func TestConnectIsNoOpWhileRunning(t *testing.T) {
	hold := make(chan struct{})
	h := newWSHarness(t, func(conn *websocket.Conn) {
		<-hold
		conn.Close()
	})
	defer close(hold)

	c := NewClient(Options{
		BaseURL:        h.wsBase(t),
		MeetingID:      "m-1",
		ParticipantID:  "p-1",
		ReconnectDelay: time.Second,
	})
	c.Connect()
	defer c.Disconnect()

	if !waitFor(t, 2*time.Second, func() bool { return c.State() == StateOpen }) {
		t.Fatalf("client never reached open")
	}
	c.Connect()
	c.Connect()
	time.Sleep(100 * time.Millisecond)
	if got := h.dials.Load(); got != 1 {
		t.Fatalf("dials = %d after repeat Connect, want 1", got)
	}
}

func TestMalformedFramesAreDropped(t *testing.T) {
	frames := []string{
		`not json at all`,
		`{"type":"transcript"}`,
		`{"type":"transcript","speaker_id":"p-9","speaker_name":"Bo","text":"ciao","language":"it","timestamp":"2026-08-30T10:00:00Z"}`,
	}
	h := newWSHarness(t, func(conn *websocket.Conn) {
		defer conn.Close()
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// Keep the connection up until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	var mu sync.Mutex
	var events []protocol.TranscriptEvent
	c := NewClient(Options{
		BaseURL:        h.wsBase(t),
		MeetingID:      "m-1",
		ParticipantID:  "p-1",
		ReconnectDelay: 50 * time.Millisecond,
		OnEvent: func(e protocol.TranscriptEvent) {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
		},
	})
	c.Connect()
	defer c.Disconnect()

	ok := waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 1
	})
	if !ok {
		t.Fatalf("transcript callback count wrong")
	}
	mu.Lock()
	defer mu.Unlock()
	if events[0].SpeakerID != "p-9" || events[0].Text != "ciao" {
		t.Fatalf("unexpected event %+v", events[0])
	}
	if c.Feed().Len() != 1 {
		t.Fatalf("feed length = %d, want 1", c.Feed().Len())
	}
}

func TestFeedSnapshotIsCopy(t *testing.T) {
	f := NewFeed()
	f.append(protocol.TranscriptEvent{SpeakerID: "p-1", Text: "a"})
	snap := f.Snapshot()
	snap[0].Text = "mutated"
	if f.Snapshot()[0].Text != "a" {
		t.Fatalf("Snapshot() must not alias the feed")
	}
}

func TestDeriveWSBase(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"http://localhost:8000", "ws://localhost:8000", true},
		{"https://meet.example.com/", "wss://meet.example.com", true},
		{"wss://meet.example.com", "wss://meet.example.com", true},
		{"ftp://meet.example.com", "", false},
	}
	for _, tc := range cases {
		got, err := DeriveWSBase(tc.in)
		if tc.ok != (err == nil) {
			t.Fatalf("DeriveWSBase(%q) err = %v, ok = %v", tc.in, err, tc.ok)
		}
		if tc.ok && got != tc.want {
			t.Fatalf("DeriveWSBase(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
