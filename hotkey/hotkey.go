// Package hotkey listens for a global key combination using gohook.
// Each press of the combination emits one toggle event; the surface
// decides whether that means start or stop.
package hotkey

import (
	"fmt"
	"strings"
	"sync"

	hook "github.com/robotn/gohook"
)

// Listener watches for a global key combination.
type Listener struct {
	keys []string
	ch   chan struct{}
	done chan struct{}
	once sync.Once
}

// Parse splits a combination like "ctrl+shift+space" into lowercase key
// names in the form gohook expects.
func Parse(combo string) ([]string, error) {
	parts := strings.Split(combo, "+")
	keys := make([]string, 0, len(parts))
	for _, part := range parts {
		key := strings.ToLower(strings.TrimSpace(part))
		if key == "" {
			return nil, fmt.Errorf("invalid hotkey %q", combo)
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("invalid hotkey %q", combo)
	}
	return keys, nil
}

// NewListener creates a listener for the given key names.
func NewListener(keys []string) *Listener {
	return &Listener{
		keys: keys,
		ch:   make(chan struct{}, 16),
		done: make(chan struct{}),
	}
}

// Events returns the channel that receives one value per press. The
// channel is closed when Stop is called.
func (l *Listener) Events() <-chan struct{} {
	return l.ch
}

// Run hooks the keyboard and blocks until Stop is called. Run it in a
// goroutine.
func (l *Listener) Run() {
	hook.Register(hook.KeyDown, l.keys, func(e hook.Event) {
		select {
		case l.ch <- struct{}{}:
		default: // don't block the hook thread
		}
	})

	evChan := hook.Start()
	go func() {
		<-l.done
		hook.End()
	}()
	<-hook.Process(evChan)
	close(l.ch)
}

// Stop terminates the listener. Safe to call multiple times.
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}
