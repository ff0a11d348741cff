package app

import (
	"math"
	"sync"
	"time"

	"github.com/rowdy-raedon/V2T/dictation"
)

// levelInterval caps how often level events reach the frontend. The capture
// device delivers buffers far faster than the meter needs to move.
const levelInterval = 100 * time.Millisecond

// LevelMeter turns raw capture buffers into a slow stream of input-level
// events driving the visualizer. It keeps the loudest reading seen between
// emissions so short peaks are not lost to the throttle.
type LevelMeter struct {
	mu   sync.Mutex
	emit func(name string, data any)
	peak float32
	last time.Time
	seq  int
}

// NewLevelMeter subscribes to the capture source. Samples only flow while
// the device is started, so the meter is idle whenever dictation is.
func NewLevelMeter(source dictation.AudioSource, emit func(name string, data any)) *LevelMeter {
	m := &LevelMeter{emit: emit}
	source.OnAudio(m.handle)
	return m
}

// handle runs on the audio device's thread and must not block.
func (m *LevelMeter) handle(samples []float32) {
	if len(samples) == 0 {
		return
	}

	var sum float64
	for _, v := range samples {
		sum += float64(v) * float64(v)
	}
	level := float32(math.Sqrt(sum / float64(len(samples))))

	m.mu.Lock()
	defer m.mu.Unlock()

	if level > m.peak {
		m.peak = level
	}

	now := time.Now()
	if now.Sub(m.last) < levelInterval {
		return
	}

	m.seq++
	m.emit(EventLevel, AudioLevel{
		Level:     m.peak,
		Timestamp: now.UnixMilli(),
		Seq:       m.seq,
	})
	m.peak = 0
	m.last = now
}
