// Package capture acquires raw microphone audio for chunked
// transmission over the transcript socket. Capture failure degrades
// the meeting to transcript-less operation; it is never fatal.
package capture

import (
	"context"
	"io"
)

// Config describes how the microphone should be captured.
type Config struct {
	SampleRate int
	Channels   int
	Device     string
}

// Stream is a live capture session delivering PCM16LE bytes.
type Stream interface {
	io.ReadCloser
	Stop() error
}

// Capture creates microphone capture streams.
type Capture interface {
	Start(ctx context.Context, cfg Config) (Stream, error)
}
