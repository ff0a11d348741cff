// Package audiocapture provides microphone capture through miniaudio.
package audiocapture

import (
	"errors"
	"sync"
	"time"
)

// ErrAlreadyCapturing is returned when trying to start capture while already capturing.
var ErrAlreadyCapturing = errors.New("already capturing audio")

// Capture reads PCM audio from the default microphone and fans it out to
// registered callbacks.
type Capture struct {
	mu sync.RWMutex

	// State
	capturing  bool
	startTime  time.Time
	sampleRate int

	// Callbacks
	onAudio []func(samples []float32)

	impl captureImpl
}

// captureImpl is the device-level capture implementation interface.
type captureImpl interface {
	start(sampleRate int, callback func(samples []float32)) error
	stop() error
}

// Config holds configuration for audio capture.
type Config struct {
	SampleRate int // Sample rate, default 16000 Hz (what transcription services expect)
}

// DefaultConfig returns the default capture configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate: 16000,
	}
}

// New creates a new microphone capture instance. The device itself is not
// opened until Start.
func New(cfg Config) *Capture {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}

	return &Capture{
		sampleRate: cfg.SampleRate,
		impl:       newCaptureImpl(),
	}
}

// Start opens the default microphone and begins capturing.
// Device errors are returned to the caller; the capture stays stopped.
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capturing {
		return ErrAlreadyCapturing
	}

	err := c.impl.start(c.sampleRate, func(samples []float32) {
		c.handleAudio(samples)
	})
	if err != nil {
		return err
	}

	c.capturing = true
	c.startTime = time.Now()
	return nil
}

// Stop stops capturing audio. Stopping a stopped capture is a no-op.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.capturing {
		return nil
	}

	err := c.impl.stop()
	c.capturing = false
	return err
}

// IsCapturing returns true if currently capturing audio.
func (c *Capture) IsCapturing() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.capturing
}

// Duration returns how long capture has been running.
func (c *Capture) Duration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.capturing {
		return 0
	}
	return time.Since(c.startTime)
}

// OnAudio registers a callback for audio data. Callbacks run on the audio
// device's thread and receive float32 samples in the range [-1, 1]; they
// must not block.
func (c *Capture) OnAudio(callback func(samples []float32)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAudio = append(c.onAudio, callback)
}

// SampleRate returns the configured sample rate.
func (c *Capture) SampleRate() int {
	return c.sampleRate
}

func (c *Capture) handleAudio(samples []float32) {
	c.mu.RLock()
	callbacks := c.onAudio
	c.mu.RUnlock()

	for _, cb := range callbacks {
		cb(samples)
	}
}
