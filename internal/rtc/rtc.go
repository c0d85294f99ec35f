// Package rtc is the boundary to the external realtime audio SDK. The
// SDK itself is an opaque collaborator: the client acquires a channel
// token from the backend and drives a publish/subscribe session keyed
// by it.
package rtc

import (
	"context"
	"errors"
	"io"

	"github.com/voxmeet/voxmeet/internal/api"
)

var ErrNotJoined = errors.New("rtc channel not joined")

// Track is a publishable audio source.
type Track interface {
	io.Reader
	SampleRate() int
}

// Channel is one joined publish/subscribe audio session.
type Channel interface {
	// Publish starts publishing the captured track. A failure degrades
	// the session to listen-only; it is never fatal to the meeting.
	Publish(ctx context.Context, track Track) error
	Unpublish() error
	Leave() error
}

// Provider joins channels from backend-issued tokens.
type Provider interface {
	Join(ctx context.Context, token api.ChannelToken) (Channel, error)
}

// ReaderTrack adapts any reader into a Track.
type ReaderTrack struct {
	R    io.Reader
	Rate int
}

func (t ReaderTrack) Read(p []byte) (int, error) { return t.R.Read(p) }

func (t ReaderTrack) SampleRate() int {
	if t.Rate <= 0 {
		return 16000
	}
	return t.Rate
}
