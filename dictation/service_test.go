package dictation

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rowdy-raedon/V2T/internal/types"
	"github.com/rowdy-raedon/V2T/stt"
)

type sourceStep struct {
	phrase Phrase
	err    error
}

// scriptedSource plays back a fixed sequence of Listen results. Once the
// script is exhausted it blocks like a listener hearing silence forever,
// until the context is cancelled.
type scriptedSource struct {
	mu     sync.Mutex
	script []sourceStep
}

func (s *scriptedSource) Listen(ctx context.Context) (Phrase, error) {
	s.mu.Lock()
	if len(s.script) == 0 {
		s.mu.Unlock()
		<-ctx.Done()
		return Phrase{}, ctx.Err()
	}
	step := s.script[0]
	s.script = s.script[1:]
	s.mu.Unlock()
	return step.phrase, step.err
}

// gatedSource reports each Listen call and then blocks it until a Release,
// ignoring context cancellation, the way a read stuck inside a device call
// would.
type gatedSource struct {
	entered chan struct{}
	gate    chan struct{}
}

func newGatedSource() *gatedSource {
	return &gatedSource{
		entered: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
}

func (g *gatedSource) Listen(ctx context.Context) (Phrase, error) {
	g.entered <- struct{}{}
	<-g.gate
	if err := ctx.Err(); err != nil {
		return Phrase{}, err
	}
	return Phrase{}, ErrNoSpeech
}

// Release unblocks one Listen call.
func (g *gatedSource) Release() { g.gate <- struct{}{} }

func (g *gatedSource) awaitListen(t *testing.T) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a Listen call")
	}
}

func nextStatus(t *testing.T, svc *Service) types.Status {
	t.Helper()
	select {
	case st := <-svc.Statuses():
		return st
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a status update")
	}
	return types.Status{}
}

func nextPhrase(t *testing.T, svc *Service) types.Phrase {
	t.Helper()
	select {
	case p := <-svc.Phrases():
		return p
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a phrase")
	}
	return types.Phrase{}
}

func waitIdle(t *testing.T, svc *Service) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for svc.Recording() {
		if time.Now().After(deadline) {
			t.Fatal("service never returned to idle")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func samplePhrase(n int) Phrase {
	return Phrase{Samples: make([]float32, n), SampleRate: 16000}
}

func TestLoopTransientEventsKeepRecording(t *testing.T) {
	source := &scriptedSource{script: []sourceStep{
		{err: ErrNoSpeech},
		{phrase: samplePhrase(1600)},
	}}
	recognizer := stt.NewMock(stt.MockResult{Err: stt.ErrUnintelligible})
	svc := NewService(DefaultConfig(), source, recognizer)

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	wantKinds := []string{
		types.StatusRecording,
		types.StatusListening,
		types.StatusProcessing,
		types.StatusUnrecognized,
	}
	for _, want := range wantKinds {
		if st := nextStatus(t, svc); st.Kind != want {
			t.Fatalf("status kind = %q, want %q", st.Kind, want)
		}
	}

	if !svc.Recording() {
		t.Error("transient events must not stop the loop")
	}

	svc.Stop()
	if st := nextStatus(t, svc); st.Kind != types.StatusStopped {
		t.Errorf("status kind after Stop = %q, want %q", st.Kind, types.StatusStopped)
	}
	if err := svc.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestLoopDeliversRecognizedPhrases(t *testing.T) {
	source := &scriptedSource{script: []sourceStep{
		{phrase: samplePhrase(1600)},
		{phrase: samplePhrase(3200)},
	}}
	recognizer := stt.NewMock(
		stt.MockResult{Text: "hello world"},
		stt.MockResult{Text: "how are you"},
	)
	svc := NewService(DefaultConfig(), source, recognizer)

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	first := nextPhrase(t, svc)
	if first.Text != "hello world" {
		t.Errorf("first phrase text = %q, want %q", first.Text, "hello world")
	}
	if first.ID == "" {
		t.Error("phrase ID should not be empty")
	}
	if first.Language != "en-US" {
		t.Errorf("phrase language = %q, want en-US", first.Language)
	}
	if first.Duration != 100 {
		t.Errorf("phrase duration = %dms, want 100ms", first.Duration)
	}
	if first.Timestamp <= 0 {
		t.Error("phrase timestamp should be set")
	}

	second := nextPhrase(t, svc)
	if second.Text != "how are you" {
		t.Errorf("second phrase text = %q, want %q", second.Text, "how are you")
	}
	if second.ID == first.ID {
		t.Error("phrase IDs should be unique")
	}

	svc.Stop()
	if err := svc.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestLoopFatalRecognitionError(t *testing.T) {
	source := &scriptedSource{script: []sourceStep{
		{phrase: samplePhrase(1600)},
	}}
	recognizer := stt.NewMock(stt.MockResult{Err: errors.New("service exploded")})
	svc := NewService(DefaultConfig(), source, recognizer)

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	wantKinds := []string{
		types.StatusRecording,
		types.StatusProcessing,
		types.StatusError,
	}
	var last types.Status
	for _, want := range wantKinds {
		last = nextStatus(t, svc)
		if last.Kind != want {
			t.Fatalf("status kind = %q, want %q", last.Kind, want)
		}
	}
	if !strings.Contains(last.Message, "service exploded") {
		t.Errorf("error status %q should carry the cause", last.Message)
	}

	waitIdle(t, svc)
	if err := svc.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestStopLandsWithinOneIteration(t *testing.T) {
	source := &scriptedSource{}
	svc := NewService(DefaultConfig(), source, stt.NewMock())

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !svc.Recording() {
		t.Fatal("service should be recording after Start")
	}

	svc.Stop()
	if svc.Recording() {
		t.Error("Recording() should be false immediately after Stop")
	}

	closed := make(chan struct{})
	go func() {
		svc.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after Stop")
	}
}

func TestStartWhileRecording(t *testing.T) {
	svc := NewService(DefaultConfig(), &scriptedSource{}, stt.NewMock())

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := svc.Start(context.Background()); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRecording", err)
	}

	svc.Stop()
	svc.Close()
}

func TestRestartWhileWorkerWindsDown(t *testing.T) {
	source := newGatedSource()
	svc := NewService(DefaultConfig(), source, stt.NewMock())

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	source.awaitListen(t)
	svc.Stop()

	// Press record again while the first worker is still blocked in
	// Listen. Start must hold off until that worker has exited; returning
	// early would let the stale cleanup tear down the new session.
	restarted := make(chan error, 1)
	go func() {
		restarted <- svc.Start(context.Background())
	}()

	select {
	case err := <-restarted:
		t.Fatalf("Start() returned %v while the previous worker was still up", err)
	case <-time.After(50 * time.Millisecond):
	}

	source.Release()

	select {
	case err := <-restarted:
		if err != nil {
			t.Fatalf("restarted Start() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Start() never finished after the previous worker exited")
	}
	if !svc.Recording() {
		t.Fatal("service should be recording after the restart")
	}

	// Wind the second session down the same way; each session must close
	// only its own done channel.
	source.awaitListen(t)
	svc.Stop()
	source.Release()
	if err := svc.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestStartMicrophoneUnavailable(t *testing.T) {
	deviceErr := errors.New("device busy")
	svc := NewService(DefaultConfig(), &scriptedSource{}, stt.NewMock())
	svc.audio = &fakeSource{rate: 16000, startErr: deviceErr}

	err := svc.Start(context.Background())
	if !errors.Is(err, deviceErr) {
		t.Fatalf("Start() error = %v, want wrapped %v", err, deviceErr)
	}
	if svc.Recording() {
		t.Error("service must stay idle when the microphone is unavailable")
	}

	// The failed start must not leave a status behind.
	select {
	case st := <-svc.Statuses():
		t.Errorf("unexpected status %+v after failed start", st)
	default:
	}
}

func TestStopIdleIsNoOp(t *testing.T) {
	svc := NewService(DefaultConfig(), &scriptedSource{}, stt.NewMock())

	svc.Stop()
	if svc.Recording() {
		t.Error("Recording() should be false")
	}
	select {
	case st := <-svc.Statuses():
		t.Errorf("unexpected status %+v from idle Stop", st)
	default:
	}
}

func TestLanguageAppliedToPhrases(t *testing.T) {
	source := &scriptedSource{script: []sourceStep{
		{phrase: samplePhrase(1600)},
	}}
	svc := NewService(DefaultConfig(), source, stt.NewMock(stt.MockResult{Text: "bonjour"}))
	svc.SetLanguage("fr-FR")

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	p := nextPhrase(t, svc)
	if p.Language != "fr-FR" {
		t.Errorf("phrase language = %q, want fr-FR", p.Language)
	}

	svc.Stop()
	svc.Close()
}

func TestKeeperSavesPhrases(t *testing.T) {
	dir := t.TempDir()
	source := &scriptedSource{script: []sourceStep{
		{phrase: samplePhrase(1600)},
	}}
	svc := NewService(DefaultConfig(), source, stt.NewMock(stt.MockResult{Text: "kept"}))
	svc.SetKeeper(NewKeeper(dir))

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	nextPhrase(t, svc)

	svc.Stop()
	svc.Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d recordings, want 1", len(entries))
	}
	if !strings.HasSuffix(entries[0].Name(), ".wav") {
		t.Errorf("recording %q should be a .wav file", entries[0].Name())
	}
	info, err := entries[0].Info()
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if info.Size() <= 44 {
		t.Errorf("recording is %d bytes, expected audio past the header", info.Size())
	}
}
