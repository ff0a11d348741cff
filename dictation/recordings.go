package dictation

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Keeper writes captured phrases to disk as WAV files, for users who want
// to review what the recognizer was sent.
type Keeper struct {
	dir string
}

// NewKeeper returns a keeper that writes into dir. The directory is
// created on first save.
func NewKeeper(dir string) *Keeper {
	return &Keeper{dir: dir}
}

// Dir returns the directory recordings are written to.
func (k *Keeper) Dir() string {
	return k.dir
}

// Save writes one phrase as a 16-bit mono WAV file and returns its path.
func (k *Keeper) Save(p Phrase) (string, error) {
	if err := os.MkdirAll(k.dir, 0755); err != nil {
		return "", fmt.Errorf("create recordings dir: %w", err)
	}

	name := "phrase-" + time.Now().Format("20060102-150405.000") + ".wav"
	path := filepath.Join(k.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create recording: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, p.SampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: p.SampleRate},
		Data:           make([]int, len(p.Samples)),
		SourceBitDepth: 16,
	}
	for i, s := range p.Samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		buf.Data[i] = int(s * 32767)
	}

	if err := enc.Write(buf); err != nil {
		return "", fmt.Errorf("write recording: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("finalize recording: %w", err)
	}
	return path, nil
}
