package audio

import (
	"log/slog"
	"testing"

	"github.com/sidekey-app/sidekey/config"
)

func newTestEngine() *Engine {
	return NewEngine(slog.Default(), config.Default())
}

func TestStopWhileStoppedIsNoop(t *testing.T) {
	e := newTestEngine()
	if err := e.Stop(); err != nil {
		t.Fatalf("Stop on stopped engine: %v", err)
	}
	if err := e.Stop(); err != nil {
		t.Fatalf("repeated Stop: %v", err)
	}
	if e.State() != Stopped {
		t.Errorf("state = %v, want stopped", e.State())
	}
}

func TestKeyUpStartsDuckingHold(t *testing.T) {
	e := newTestEngine()

	e.SetKeyDown(true)
	if !e.params.keyDown.Load() {
		t.Fatal("key flag not set")
	}

	e.SetKeyDown(false)
	if got := e.params.duckingHold.Load(); got != duckingHoldSamples {
		t.Errorf("ducking hold = %d, want %d", got, duckingHoldSamples)
	}
}

func TestApplyUpdatesHotParams(t *testing.T) {
	e := newTestEngine()

	s := config.Default()
	s.SidetoneFrequency = 750
	s.MicVolume = 1.2
	s.SidetoneRoute = config.RouteBoth
	s.MicDucking = true
	e.Apply(s)

	if got := e.params.frequency.Load(); got != 750 {
		t.Errorf("frequency = %v, want 750", got)
	}
	if got := e.params.micVolume.Load(); got != 1.2 {
		t.Errorf("mic volume = %v, want 1.2", got)
	}
	if e.params.loadRoute() != RouteBoth {
		t.Errorf("route = %v, want both", e.params.loadRoute())
	}
	if !e.params.ducking.Load() {
		t.Error("ducking flag not set")
	}
}

func TestStopPlaybackWhileIdleIsNoop(t *testing.T) {
	e := newTestEngine()
	e.StopPlayback()
	e.StopPlayback()
}

func TestStateStrings(t *testing.T) {
	states := map[State]string{
		Stopped:  "stopped",
		Starting: "starting",
		Running:  "running",
		Stopping: "stopping",
	}
	for s, want := range states {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
