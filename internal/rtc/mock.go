package rtc

import (
	"context"
	"sync"

	"github.com/voxmeet/voxmeet/internal/api"
)

// MockProvider is a local stand-in used when no SDK bridge is
// configured, and by tests. It accepts every token and discards
// published audio.
type MockProvider struct {
	mu      sync.Mutex
	joined  []*MockChannel
	JoinErr error
}

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (p *MockProvider) Join(_ context.Context, token api.ChannelToken) (Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.JoinErr != nil {
		return nil, p.JoinErr
	}
	ch := &MockChannel{Token: token}
	p.joined = append(p.joined, ch)
	return ch, nil
}

// Joined returns every channel handed out so far.
func (p *MockProvider) Joined() []*MockChannel {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*MockChannel, len(p.joined))
	copy(out, p.joined)
	return out
}

type MockChannel struct {
	Token api.ChannelToken

	mu          sync.Mutex
	published   bool
	unpublished int
	left        int
	PublishErr  error
}

func (c *MockChannel) Publish(_ context.Context, track Track) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.PublishErr != nil {
		return c.PublishErr
	}
	if track == nil {
		return ErrNotJoined
	}
	c.published = true
	return nil
}

func (c *MockChannel) Unpublish() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = false
	c.unpublished++
	return nil
}

func (c *MockChannel) Leave() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.left++
	return nil
}

func (c *MockChannel) Published() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.published
}

func (c *MockChannel) LeaveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.left
}
