package capture

import (
	"encoding/binary"
	"math"
	"testing"
)

func pcm16(samples ...int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(s))
	}
	return out
}

func TestLevelMeterSilence(t *testing.T) {
	m := NewLevelMeter()
	if m.Level() != 0 {
		t.Fatalf("Level() before feed = %v, want 0", m.Level())
	}
	m.Feed(pcm16(0, 0, 0, 0))
	if m.Level() != 0 {
		t.Fatalf("Level() for silence = %v, want 0", m.Level())
	}
}

func TestLevelMeterFullScale(t *testing.T) {
	m := NewLevelMeter()
	m.Feed(pcm16(32767, -32768, 32767, -32768))
	if got := m.Level(); math.Abs(got-1.0) > 0.001 {
		t.Fatalf("Level() for full-scale square = %v, want ~1.0", got)
	}
}

func TestLevelMeterTracksLatestChunk(t *testing.T) {
	m := NewLevelMeter()
	m.Feed(pcm16(16384, -16384))
	loud := m.Level()
	m.Feed(pcm16(1024, -1024))
	quiet := m.Level()
	if quiet >= loud {
		t.Fatalf("quiet level %v should be below loud level %v", quiet, loud)
	}

	m.Feed(nil) // absent data keeps the last level
	if m.Level() != quiet {
		t.Fatalf("Level() after empty feed = %v, want %v", m.Level(), quiet)
	}

	m.Reset()
	if m.Level() != 0 {
		t.Fatalf("Level() after Reset = %v, want 0", m.Level())
	}
}
