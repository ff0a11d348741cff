package dictation

import (
	"context"
	"errors"
	"time"

	"github.com/rowdy-raedon/V2T/audiocapture"
)

// ErrNoSpeech is returned by Listen when no speech begins within the
// configured wait timeout. The dictation loop treats it as a cue to
// report that it is still listening, not as a failure.
var ErrNoSpeech = errors.New("dictation: no speech detected")

// AudioSource is the slice of the capture device the listener needs.
type AudioSource interface {
	Start() error
	Stop() error
	OnAudio(callback func(samples []float32))
	SampleRate() int
}

// PhraseSource yields bounded spans of microphone audio, one per call.
type PhraseSource interface {
	Listen(ctx context.Context) (Phrase, error)
}

// Phrase is one bounded span of captured audio.
type Phrase struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the phrase length as wall-clock audio time.
func (p Phrase) Duration() time.Duration {
	if p.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(p.Samples)) * time.Second / time.Duration(p.SampleRate)
}

// listener chops the capture stream into phrases. Frames arrive on the
// audio device thread and are handed over through a buffered channel;
// Listen consumes them on the caller's goroutine.
type listener struct {
	frames     chan []float32
	sampleRate int

	vadThreshold float32
	waitTimeout  time.Duration
	phraseLimit  time.Duration
	silenceTail  time.Duration
	preRoll      time.Duration
}

func newListener(source AudioSource, cfg Config) *listener {
	l := &listener{
		frames:       make(chan []float32, 64),
		sampleRate:   source.SampleRate(),
		vadThreshold: cfg.VADThreshold,
		waitTimeout:  cfg.WaitTimeout,
		phraseLimit:  cfg.PhraseLimit,
		silenceTail:  cfg.SilenceTail,
		preRoll:      cfg.PreRoll,
	}
	source.OnAudio(l.push)
	return l
}

// push hands one capture frame to the listening loop. It never blocks
// the audio thread; frames are dropped when the channel is full.
func (l *listener) push(samples []float32) {
	select {
	case l.frames <- samples:
	default:
		// Channel full, skip
	}
}

// Listen blocks until one bounded phrase has been captured. Waiting for
// speech to begin is bounded by the wait timeout; once speech starts,
// capture runs until the silence tail or the phrase limit, whichever
// comes first. A short pre-roll of audio from just before speech onset
// is included so the first syllable is not clipped.
func (l *listener) Listen(ctx context.Context) (Phrase, error) {
	vad := NewVAD(l.vadThreshold, l.sampleRate, l.silenceTail)
	preroll := audiocapture.NewRingBuffer(durationSamples(l.preRoll, l.sampleRate))

	// Frames buffered before this call belong to the previous phrase.
	l.drain()

	var buf []float32
	inPhrase := false
	maxSamples := durationSamples(l.phraseLimit, l.sampleRate)

	wait := time.NewTimer(l.waitTimeout)
	defer wait.Stop()

	for {
		select {
		case <-ctx.Done():
			return Phrase{}, ctx.Err()

		case <-wait.C:
			if !inPhrase {
				return Phrase{}, ErrNoSpeech
			}
			// The wait bound only covers speech onset.

		case frame := <-l.frames:
			event := vad.Process(frame)

			if !inPhrase {
				if event != EventSpeechStart {
					preroll.Write(frame)
					continue
				}
				inPhrase = true
				buf = append(buf, preroll.Read(preroll.Len())...)
			}

			buf = append(buf, frame...)

			if event == EventSpeechEnd || len(buf) >= maxSamples {
				return Phrase{Samples: buf, SampleRate: l.sampleRate}, nil
			}
		}
	}
}

// drain discards any frames queued between Listen calls.
func (l *listener) drain() {
	for {
		select {
		case <-l.frames:
		default:
			return
		}
	}
}
