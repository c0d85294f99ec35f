package capture

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
)

// MockCapture serves canned PCM bytes, for tests and dry runs.
type MockCapture struct {
	Data     []byte
	StartErr error

	mu      sync.Mutex
	started []*MockStream
}

func (c *MockCapture) Start(_ context.Context, _ Config) (Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.StartErr != nil {
		return nil, c.StartErr
	}
	s := &MockStream{r: bytes.NewReader(c.Data)}
	c.started = append(c.started, s)
	return s, nil
}

func (c *MockCapture) Started() []*MockStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*MockStream, len(c.started))
	copy(out, c.started)
	return out
}

type MockStream struct {
	r *bytes.Reader

	mu      sync.Mutex
	stopped bool
}

var errStreamStopped = errors.New("stream stopped")

func (s *MockStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return 0, io.EOF
	}
	return s.r.Read(p)
}

func (s *MockStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}

func (s *MockStream) Close() error { return s.Stop() }

func (s *MockStream) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}
