package stt

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockResult is one scripted answer from a Mock recognizer.
type MockResult struct {
	Text string
	Err  error
}

// Mock is a scripted Recognizer for tests and offline development
// (set V2T_MOCK_STT=1 to run the app against it).
type Mock struct {
	// Delay is an artificial per-call latency, applied before answering.
	Delay time.Duration

	mu     sync.Mutex
	script []MockResult
	calls  int
}

// NewMock creates a Mock that answers with the given results in order.
// Once the script runs out it answers with generated placeholder text.
func NewMock(script ...MockResult) *Mock {
	return &Mock{script: script}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Transcribe(ctx context.Context, audio []float32, language string) (*Result, error) {
	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Delay):
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if len(m.script) == 0 {
		return &Result{
			Text:     fmt.Sprintf("mock transcript %d", m.calls),
			Language: language,
		}, nil
	}

	next := m.script[0]
	m.script = m.script[1:]
	if next.Err != nil {
		return nil, next.Err
	}
	return &Result{Text: next.Text, Language: language}, nil
}

// Calls reports how many times Transcribe has been invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *Mock) Close() error { return nil }
