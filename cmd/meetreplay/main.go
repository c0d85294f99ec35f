// meetreplay joins a meeting as a synthetic participant and replays a
// WAV file over the transcript socket as paced PCM chunks. It exists to
// exercise a meeting backend without a microphone.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/voxmeet/voxmeet/internal/api"
	"github.com/voxmeet/voxmeet/internal/audio"
	"github.com/voxmeet/voxmeet/internal/credential"
	"github.com/voxmeet/voxmeet/internal/protocol"
	"github.com/voxmeet/voxmeet/internal/transcript"
)

type options struct {
	baseURL  string
	code     string
	wavPath  string
	name     string
	language string
	chunkMS  int
	realtime float64
	loops    int
	verbose  bool
}

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "meetreplay: %v\n", err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "meetreplay: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var cfg options
	flag.StringVar(&cfg.baseURL, "base-url", "http://127.0.0.1:8000", "meeting backend base URL")
	flag.StringVar(&cfg.code, "code", "", "meeting code to join")
	flag.StringVar(&cfg.wavPath, "wav", "", "path to a 16-bit PCM WAV file to replay")
	flag.StringVar(&cfg.name, "name", "replay-bot", "participant display name")
	flag.StringVar(&cfg.language, "language", "en", "participant language")
	flag.IntVar(&cfg.chunkMS, "chunk-ms", 100, "audio chunk size in milliseconds")
	flag.Float64Var(&cfg.realtime, "realtime", 1.0, "chunk pacing multiplier (1.0=realtime, 2.0=2x)")
	flag.IntVar(&cfg.loops, "loops", 1, "how many times to replay the file")
	flag.BoolVar(&cfg.verbose, "verbose", true, "print replay progress")
	flag.Parse()

	cfg.baseURL = strings.TrimRight(strings.TrimSpace(cfg.baseURL), "/")
	if cfg.baseURL == "" {
		return options{}, fmt.Errorf("base-url is required")
	}
	if strings.TrimSpace(cfg.code) == "" {
		return options{}, fmt.Errorf("code is required")
	}
	if strings.TrimSpace(cfg.wavPath) == "" {
		return options{}, fmt.Errorf("wav is required")
	}
	if cfg.chunkMS < 10 || cfg.chunkMS > 2000 {
		return options{}, fmt.Errorf("chunk-ms must be in [10,2000]")
	}
	if cfg.realtime <= 0 {
		return options{}, fmt.Errorf("realtime must be > 0")
	}
	if cfg.loops <= 0 {
		cfg.loops = 1
	}
	return cfg, nil
}

func run(cfg options) error {
	data, err := os.ReadFile(cfg.wavPath)
	if err != nil {
		return fmt.Errorf("read wav: %w", err)
	}
	pcm, sampleRate, err := audio.DecodeWAVPCM16(data)
	if err != nil {
		return fmt.Errorf("decode wav: %w", err)
	}
	if len(pcm) == 0 {
		return fmt.Errorf("wav produced no PCM bytes")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := api.New(cfg.baseURL, 30*time.Second, credential.NewHolder(), nil)
	meeting, err := client.GetMeetingByCode(ctx, cfg.code)
	if err != nil {
		return fmt.Errorf("resolve meeting: %w", err)
	}
	participant, err := client.JoinMeeting(ctx, meeting.ID, api.JoinMeetingRequest{
		Name:     cfg.name,
		Language: cfg.language,
	})
	if err != nil {
		return fmt.Errorf("join meeting: %w", err)
	}
	defer func() {
		_ = client.LeaveMeeting(context.Background(), participant.ID)
	}()

	if cfg.verbose {
		fmt.Printf("meetreplay: meeting=%s participant=%s sample_rate=%dHz bytes=%d\n",
			meeting.ID, participant.ID, sampleRate, len(pcm))
	}

	wsBase, err := transcript.DeriveWSBase(cfg.baseURL)
	if err != nil {
		return fmt.Errorf("build ws URL: %w", err)
	}
	socket := transcript.NewClient(transcript.Options{
		BaseURL:       wsBase,
		MeetingID:     meeting.ID,
		ParticipantID: participant.ID,
		OnEvent: func(e protocol.TranscriptEvent) {
			if cfg.verbose {
				fmt.Printf("[%s] %s: %s\n", e.Timestamp.Format("15:04:05"), e.SpeakerName, e.TextIn(cfg.language))
			}
		},
	})
	socket.Connect()
	defer socket.Disconnect()

	if err := awaitOpen(ctx, socket, 10*time.Second); err != nil {
		return err
	}

	for loop := 0; loop < cfg.loops; loop++ {
		if cfg.verbose && cfg.loops > 1 {
			fmt.Printf("meetreplay: loop %d/%d\n", loop+1, cfg.loops)
		}
		if err := replay(ctx, socket, pcm, sampleRate, cfg.chunkMS, cfg.realtime); err != nil {
			return err
		}
	}

	if cfg.verbose {
		fmt.Println("meetreplay: replay completed")
	}
	return nil
}

func awaitOpen(ctx context.Context, socket *transcript.Client, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if socket.State() == transcript.StateOpen {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
	}
	return fmt.Errorf("socket never opened within %s", timeout)
}

func replay(ctx context.Context, socket *transcript.Client, pcm []byte, sampleRate, chunkMS int, realtime float64) error {
	bytesPerChunk := sampleRate * 2 * chunkMS / 1000
	if bytesPerChunk < 2 {
		bytesPerChunk = 2
	}
	if bytesPerChunk%2 != 0 {
		bytesPerChunk++
	}

	for off := 0; off < len(pcm); {
		end := off + bytesPerChunk
		if end > len(pcm) {
			end = len(pcm)
		}
		if (end-off)%2 != 0 {
			end--
		}
		if end <= off {
			break
		}
		socket.SendAudioChunk(pcm[off:end])
		chunkBytes := end - off
		off = end

		chunkDuration := time.Duration(float64(time.Duration(chunkBytes)*time.Second/time.Duration(sampleRate*2)) / realtime)
		if chunkDuration <= 0 {
			chunkDuration = 10 * time.Millisecond
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(chunkDuration):
		}
	}
	return nil
}
