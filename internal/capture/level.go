package capture

import (
	"encoding/binary"
	"math"
	"sync"
)

// LevelMeter tracks the RMS level of the most recent PCM16LE chunk,
// normalized to [0,1]. It tolerates never being fed.
type LevelMeter struct {
	mu    sync.Mutex
	level float64
}

func NewLevelMeter() *LevelMeter {
	return &LevelMeter{}
}

func (m *LevelMeter) Feed(pcm []byte) {
	n := len(pcm) / 2
	if n == 0 {
		return
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		v := float64(s) / 32768.0
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(n))

	m.mu.Lock()
	m.level = rms
	m.mu.Unlock()
}

// Level returns the most recent RMS level, zero when nothing has been
// fed yet.
func (m *LevelMeter) Level() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

// Reset clears the level, used when capture is released.
func (m *LevelMeter) Reset() {
	m.mu.Lock()
	m.level = 0
	m.mu.Unlock()
}
