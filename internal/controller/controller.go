// Package controller establishes one realtime meeting session for the
// current viewer and guarantees teardown of every acquired resource on
// exit, regardless of which acquisitions succeeded.
package controller

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/voxmeet/voxmeet/internal/api"
	"github.com/voxmeet/voxmeet/internal/archive"
	"github.com/voxmeet/voxmeet/internal/audio"
	"github.com/voxmeet/voxmeet/internal/capture"
	"github.com/voxmeet/voxmeet/internal/observability"
	"github.com/voxmeet/voxmeet/internal/protocol"
	"github.com/voxmeet/voxmeet/internal/rtc"
	"github.com/voxmeet/voxmeet/internal/transcript"
)

// ErrLoginRequired is terminal: no participant id was supplied and no
// authenticated identity is present.
var ErrLoginRequired = errors.New("log in or use an invite link to join this meeting")

// Cap on the opt-in local recording buffer.
const maxRecordBytes = 1 << 28

// IdentitySource reports the current authenticated identity, or nil.
type IdentitySource interface {
	Identity() *api.Identity
}

type Options struct {
	API      *api.Client
	Identity IdentitySource
	RTC      rtc.Provider
	Capture  capture.Capture
	Archive  archive.Store
	Metrics  *observability.Metrics

	// Code is the meeting's human code.
	Code string
	// ParticipantID, when set, selects the link-join path: the id is
	// adopted directly with no authentication.
	ParticipantID string
	// Name overrides the participant display name on the host path.
	Name     string
	Language string

	WSBaseURL      string
	ReconnectDelay time.Duration
	SampleRate     int
	ChunkMillis    int
	LevelInterval  time.Duration

	// RecordWAVPath, when set, dumps the captured microphone audio to a
	// WAV file on teardown.
	RecordWAVPath string

	OnTranscript func(protocol.TranscriptEvent)
	OnLevel      func(float64)
}

type Controller struct {
	opts Options

	meeting     api.Meeting
	roster      []api.Participant
	participant api.Participant
	listenOnly  bool

	mu        sync.Mutex
	started   bool
	tornDown  bool
	channel   rtc.Channel
	published bool
	micStream   capture.Stream
	chunkStream capture.Stream
	pumpDone    chan struct{}
	socket    *transcript.Client
	meter     *capture.LevelMeter
	levelStop context.CancelFunc
	recorded  bytes.Buffer
}

func New(opts Options) *Controller {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 16000
	}
	if opts.ChunkMillis <= 0 {
		opts.ChunkMillis = 100
	}
	if opts.LevelInterval <= 0 {
		opts.LevelInterval = 100 * time.Millisecond
	}
	return &Controller{opts: opts, meter: capture.NewLevelMeter()}
}

// Start runs the initialization sequence exactly once. A failure in
// meeting resolution or participant identity aborts; media and channel
// failures degrade the session instead.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return errors.New("controller already started")
	}
	c.started = true
	c.mu.Unlock()

	// 1. Resolve the meeting by its human code. Terminal on failure.
	meeting, err := c.opts.API.GetMeetingByCode(ctx, c.opts.Code)
	if err != nil {
		return fmt.Errorf("resolve meeting %q: %w", c.opts.Code, err)
	}
	c.meeting = meeting

	// 2. Best-effort roster fetch.
	roster, err := c.opts.API.ListParticipants(ctx, meeting.ID)
	if err != nil {
		log.Printf("controller: roster fetch failed: %v", err)
	} else {
		c.roster = roster
	}

	// 3. Participant identity. Terminal when neither a supplied id nor
	// an authenticated identity is available.
	if err := c.resolveParticipant(ctx); err != nil {
		return err
	}
	c.observeSession("joined")

	// 4. Audio channel + transcript socket. Failures degrade.
	c.acquireAudioChannel(ctx)
	c.openSocket()

	// 5. Chunked capture into the socket. Failure degrades to a
	// transcript-less call.
	c.startChunkCapture(ctx)

	c.startLevelSampling()
	return nil
}

func (c *Controller) resolveParticipant(ctx context.Context) error {
	if c.opts.ParticipantID != "" {
		// Link-join: adopt the supplied id directly, no authentication.
		c.participant = api.Participant{ID: c.opts.ParticipantID, MeetingID: c.meeting.ID}
		for _, p := range c.roster {
			if p.ID == c.opts.ParticipantID {
				c.participant = p
				break
			}
		}
		return nil
	}

	var id *api.Identity
	if c.opts.Identity != nil {
		id = c.opts.Identity.Identity()
	}
	if id == nil {
		return ErrLoginRequired
	}

	name := c.opts.Name
	if name == "" {
		name = id.Name
	}
	if name == "" {
		name = id.Email
	}
	language := c.opts.Language
	if language == "" && len(c.meeting.AllowedLanguages) > 0 {
		language = c.meeting.AllowedLanguages[0]
	}

	participant, err := c.opts.API.JoinMeeting(ctx, c.meeting.ID, api.JoinMeetingRequest{
		Name:         name,
		Language:     language,
		IsRegistered: true,
	})
	if err != nil {
		return fmt.Errorf("join meeting: %w", err)
	}
	c.participant = participant
	return nil
}

func (c *Controller) acquireAudioChannel(ctx context.Context) {
	token, err := c.opts.API.ChannelToken(ctx, c.meeting.ID)
	if err != nil {
		log.Printf("controller: channel token unavailable, listen-only: %v", err)
		c.listenOnly = true
		c.observeSession("listen_only")
		return
	}

	channel, err := c.opts.RTC.Join(ctx, token)
	if err != nil {
		log.Printf("controller: audio channel join failed, listen-only: %v", err)
		c.listenOnly = true
		c.observeSession("listen_only")
		return
	}
	c.mu.Lock()
	c.channel = channel
	c.mu.Unlock()

	stream, err := c.opts.Capture.Start(ctx, capture.Config{SampleRate: c.opts.SampleRate})
	if err != nil {
		// Denied or missing microphone: stay joined, publish nothing.
		log.Printf("controller: microphone unavailable, listen-only: %v", err)
		c.listenOnly = true
		c.observeSession("listen_only")
		return
	}
	c.mu.Lock()
	c.micStream = stream
	c.mu.Unlock()

	if err := channel.Publish(ctx, rtc.ReaderTrack{R: stream, Rate: c.opts.SampleRate}); err != nil {
		log.Printf("controller: publish failed, listen-only: %v", err)
		c.listenOnly = true
		c.observeSession("listen_only")
		return
	}
	c.mu.Lock()
	c.published = true
	c.mu.Unlock()
}

func (c *Controller) openSocket() {
	socket := transcript.NewClient(transcript.Options{
		BaseURL:        c.opts.WSBaseURL,
		MeetingID:      c.meeting.ID,
		ParticipantID:  c.participant.ID,
		ReconnectDelay: c.opts.ReconnectDelay,
		Metrics:        c.opts.Metrics,
		OnEvent:        c.handleTranscript,
	})
	c.mu.Lock()
	c.socket = socket
	c.mu.Unlock()
	socket.Connect()
}

func (c *Controller) handleTranscript(e protocol.TranscriptEvent) {
	if c.opts.Archive != nil {
		rec := archive.FromEvent(c.meeting.ID, c.participant.ID, e)
		if err := c.opts.Archive.SaveEvent(context.Background(), rec); err != nil {
			log.Printf("controller: archive write failed: %v", err)
		}
	}
	if c.opts.OnTranscript != nil {
		c.opts.OnTranscript(e)
	}
}

func (c *Controller) startChunkCapture(ctx context.Context) {
	stream, err := c.opts.Capture.Start(ctx, capture.Config{SampleRate: c.opts.SampleRate})
	if err != nil {
		log.Printf("controller: chunk capture unavailable, transcripts disabled: %v", err)
		c.observeSession("transcripts_unavailable")
		return
	}

	chunkSize := c.opts.SampleRate * 2 * c.opts.ChunkMillis / 1000
	done := make(chan struct{})

	c.mu.Lock()
	socket := c.socket
	c.pumpDone = done
	c.mu.Unlock()

	go capture.Pump(stream, c.meter, chunkSize, func(chunk []byte) {
		socket.SendAudioChunk(chunk)
		c.record(chunk)
	}, done)

	c.mu.Lock()
	c.chunkStream = stream
	c.mu.Unlock()
}

func (c *Controller) record(chunk []byte) {
	if c.opts.RecordWAVPath == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.recorded.Len()+len(chunk) > maxRecordBytes {
		return
	}
	c.recorded.Write(chunk)
}

func (c *Controller) startLevelSampling() {
	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.levelStop = cancel
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(c.opts.LevelInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				level := c.meter.Level()
				if c.opts.Metrics != nil {
					c.opts.Metrics.MicLevel.Set(level)
				}
				if c.opts.OnLevel != nil {
					c.opts.OnLevel(level)
				}
			}
		}
	}()
}

// Meeting returns the resolved meeting.
func (c *Controller) Meeting() api.Meeting { return c.meeting }

// Participant returns the established participant.
func (c *Controller) Participant() api.Participant { return c.participant }

// Roster returns the participants fetched at join time.
func (c *Controller) Roster() []api.Participant { return c.roster }

// ListenOnly reports whether audio publishing was degraded away.
func (c *Controller) ListenOnly() bool { return c.listenOnly }

// Feed returns the live transcript feed, or nil before the socket
// exists.
func (c *Controller) Feed() *transcript.Feed {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.socket == nil {
		return nil
	}
	return c.socket.Feed()
}

// SocketState reports the transcript socket state.
func (c *Controller) SocketState() transcript.State {
	c.mu.Lock()
	socket := c.socket
	c.mu.Unlock()
	if socket == nil {
		return transcript.StateIdle
	}
	return socket.State()
}

// Level returns the most recent sampled microphone level.
func (c *Controller) Level() float64 { return c.meter.Level() }

// Leave tears down whatever was actually acquired. Each release step
// runs independently; sub-failures are collected and logged, never
// propagated. Safe to call twice and safe to call when initialization
// never completed.
func (c *Controller) Leave(ctx context.Context) {
	c.mu.Lock()
	if c.tornDown {
		c.mu.Unlock()
		return
	}
	c.tornDown = true
	channel := c.channel
	published := c.published
	micStream := c.micStream
	chunkStream := c.chunkStream
	pumpDone := c.pumpDone
	socket := c.socket
	levelStop := c.levelStop
	participantID := c.participant.ID
	c.mu.Unlock()

	var errs []error

	if chunkStream != nil {
		if err := chunkStream.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop chunk capture: %w", err))
		}
	}
	if micStream != nil {
		if err := micStream.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("release capture: %w", err))
		}
	}
	if pumpDone != nil {
		select {
		case <-pumpDone:
		case <-time.After(2 * time.Second):
			errs = append(errs, errors.New("chunk pump did not stop in time"))
		}
	}

	if levelStop != nil {
		levelStop()
	}
	c.meter.Reset()

	if socket != nil {
		socket.Disconnect()
	}

	if channel != nil {
		if published {
			if err := channel.Unpublish(); err != nil {
				errs = append(errs, fmt.Errorf("unpublish: %w", err))
			}
		}
		if err := channel.Leave(); err != nil {
			errs = append(errs, fmt.Errorf("leave channel: %w", err))
		}
	}

	if participantID != "" {
		if err := c.opts.API.LeaveMeeting(ctx, participantID); err != nil {
			errs = append(errs, fmt.Errorf("notify leave: %w", err))
		}
	}

	c.writeRecording(&errs)

	c.observeSession("left")
	if len(errs) > 0 {
		log.Printf("controller: teardown finished with sub-failures: %v", errors.Join(errs...))
	}
}

func (c *Controller) writeRecording(errs *[]error) {
	if c.opts.RecordWAVPath == "" {
		return
	}
	c.mu.Lock()
	pcm := append([]byte(nil), c.recorded.Bytes()...)
	c.mu.Unlock()
	if len(pcm) == 0 {
		return
	}
	if err := audio.WriteWAVPCM16LEFile(c.opts.RecordWAVPath, pcm, c.opts.SampleRate); err != nil {
		*errs = append(*errs, fmt.Errorf("write recording: %w", err))
	}
}

func (c *Controller) observeSession(event string) {
	if c.opts.Metrics != nil {
		c.opts.Metrics.SessionEvents.WithLabelValues(event).Inc()
	}
}
