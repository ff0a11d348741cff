package dictation

import (
	"math"
	"time"
)

// EventType identifies what a processed frame meant for speech detection.
type EventType int

const (
	// EventNone means nothing of interest happened.
	EventNone EventType = iota
	// EventSpeechStart means speech began on this frame.
	EventSpeechStart
	// EventSpeechContinue means an ongoing phrase is still being captured.
	EventSpeechContinue
	// EventSpeechEnd means the trailing silence ran long enough to close
	// the phrase.
	EventSpeechEnd
)

// VAD is an energy-based voice activity detector. Durations are counted
// in samples rather than wall-clock time, so detection is deterministic
// for a given stream of frames.
type VAD struct {
	threshold   float32
	tailSamples int

	inSpeech   bool
	silenceRun int
}

// NewVAD returns a detector that treats frames with RMS energy above
// threshold as speech and closes a phrase after silenceTail of quiet.
func NewVAD(threshold float32, sampleRate int, silenceTail time.Duration) *VAD {
	return &VAD{
		threshold:   threshold,
		tailSamples: durationSamples(silenceTail, sampleRate),
	}
}

// durationSamples converts a duration to a sample count at the given rate.
func durationSamples(d time.Duration, sampleRate int) int {
	return int(d.Seconds() * float64(sampleRate))
}

// Process consumes one frame and reports the resulting speech event.
func (v *VAD) Process(samples []float32) EventType {
	if len(samples) == 0 {
		return EventNone
	}

	if calculateRMS(samples) > v.threshold {
		v.silenceRun = 0
		if !v.inSpeech {
			v.inSpeech = true
			return EventSpeechStart
		}
		return EventSpeechContinue
	}

	if !v.inSpeech {
		return EventNone
	}

	v.silenceRun += len(samples)
	if v.silenceRun >= v.tailSamples {
		v.inSpeech = false
		v.silenceRun = 0
		return EventSpeechEnd
	}
	return EventSpeechContinue
}

// InSpeech reports whether the detector is inside a phrase.
func (v *VAD) InSpeech() bool {
	return v.inSpeech
}

// Reset returns the detector to its initial quiet state.
func (v *VAD) Reset() {
	v.inSpeech = false
	v.silenceRun = 0
}

// calculateRMS computes the root mean square energy of audio samples.
func calculateRMS(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return float32(math.Sqrt(sum / float64(len(samples))))
}
