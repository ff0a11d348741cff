package audiocapture

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"
)

// malgoDevice captures from the default microphone through miniaudio.
// miniaudio talks to CoreAudio, WASAPI, ALSA and PulseAudio, so a single
// implementation serves every platform the app builds on.
type malgoDevice struct {
	mu     sync.Mutex
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	active bool
}

func newCaptureImpl() captureImpl {
	return &malgoDevice{}
}

func (d *malgoDevice) start(sampleRate int, callback func(samples []float32)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return ErrAlreadyCapturing
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		slog.Debug("miniaudio", "message", strings.TrimSpace(message))
	})
	if err != nil {
		return fmt.Errorf("init audio context: %w", err)
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = 1
	cfg.SampleRate = uint32(sampleRate)
	cfg.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			callback(bytesToFloat32(input))
		},
	}

	device, err := malgo.InitDevice(ctx.Context, cfg, callbacks)
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("open capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("start capture device: %w", err)
	}

	d.ctx = ctx
	d.device = device
	d.active = true
	return nil
}

func (d *malgoDevice) stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}

	d.device.Uninit()
	if err := d.ctx.Uninit(); err != nil {
		slog.Warn("uninit audio context", "error", err)
	}
	d.ctx.Free()

	d.device = nil
	d.ctx = nil
	d.active = false
	return nil
}

// bytesToFloat32 reinterprets the device's raw little-endian f32 frames.
func bytesToFloat32(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		bits := binary.LittleEndian.Uint32(b[i*4:])
		out[i] = math.Float32frombits(bits)
	}
	return out
}
