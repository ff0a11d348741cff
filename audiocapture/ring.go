package audiocapture

import "sync"

// RingBuffer is a thread-safe circular buffer for audio samples. The
// dictation listener uses one to keep a little audio from before speech
// onset, so the first syllable of a phrase is not clipped.
type RingBuffer struct {
	mu       sync.RWMutex
	data     []float32
	writePos int
	size     int
	filled   int
}

// NewRingBuffer creates a new ring buffer with the given capacity in samples.
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{
		data: make([]float32, size),
		size: size,
	}
}

// Write appends samples, overwriting the oldest data once full.
func (rb *RingBuffer) Write(samples []float32) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	// Writes larger than the buffer reduce to their tail.
	if len(samples) > rb.size {
		samples = samples[len(samples)-rb.size:]
	}

	for len(samples) > 0 {
		n := copy(rb.data[rb.writePos:], samples)
		rb.writePos = (rb.writePos + n) % rb.size
		rb.filled = min(rb.filled+n, rb.size)
		samples = samples[n:]
	}
}

// Read returns the most recent n samples, oldest first. Fewer samples are
// returned when the buffer holds fewer.
func (rb *RingBuffer) Read(n int) []float32 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	n = min(n, rb.filled)
	if n == 0 {
		return nil
	}

	out := make([]float32, n)
	start := (rb.writePos - n + rb.size) % rb.size
	m := copy(out, rb.data[start:])
	copy(out[m:], rb.data[:rb.writePos])
	return out
}

// Clear empties the buffer.
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.writePos = 0
	rb.filled = 0
}

// Len returns the number of samples in the buffer.
func (rb *RingBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.filled
}
