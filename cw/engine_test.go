package cw

import (
	"testing"
	"time"
)

// key drives the engine with a scripted transition at base+offset.
func key(t *testing.T, e *Engine, down bool, base time.Time, offsetMs int) (Decoded, bool) {
	t.Helper()
	return e.Transition(down, base.Add(time.Duration(offsetMs)*time.Millisecond))
}

func TestEngineDecodesSAt20WPM(t *testing.T) {
	e := NewEngine()
	base := time.Now()

	// dit 60 ms, unit gaps, then the next character starts after a
	// letter gap of 180 ms.
	offsets := []struct {
		down bool
		ms   int
	}{
		{true, 0}, {false, 60},
		{true, 120}, {false, 180},
		{true, 240}, {false, 300},
	}
	for _, o := range offsets {
		if d, ok := key(t, e, o.down, base, o.ms); ok {
			t.Fatalf("premature decode %q", d.Text)
		}
	}

	d, ok := key(t, e, true, base, 480)
	if !ok || d.Text != "S" {
		t.Fatalf("decoded %q (ok=%v), want S", d.Text, ok)
	}
	if d.WPM < 19 || d.WPM > 21 {
		t.Errorf("WPM = %.1f, want ~20", d.WPM)
	}
}

func TestEngineTimeoutFlush(t *testing.T) {
	e := NewEngine()
	base := time.Now()

	key(t, e, true, base, 0)
	key(t, e, false, base, 60)
	key(t, e, true, base, 120)
	key(t, e, false, base, 180) // ".." pending

	if _, ok := e.CheckTimeout(base.Add(500 * time.Millisecond)); ok {
		t.Fatal("flushed before the timeout elapsed")
	}

	d, ok := e.CheckTimeout(base.Add(2 * time.Second))
	if !ok || d.Text != "I " {
		t.Fatalf("flush = %q (ok=%v), want %q", d.Text, ok, "I ")
	}

	// A second check must not emit again.
	if d, ok := e.CheckTimeout(base.Add(4 * time.Second)); ok {
		t.Errorf("repeated flush emitted %q", d.Text)
	}
}

func TestEngineIgnoresRedundantTransitions(t *testing.T) {
	e := NewEngine()
	base := time.Now()

	key(t, e, false, base, 0) // up while already up
	key(t, e, true, base, 10)
	key(t, e, true, base, 20) // down while already down
	key(t, e, false, base, 70)

	d, ok := e.CheckTimeout(base.Add(3 * time.Second))
	if !ok || d.Text != "E " {
		t.Fatalf("flush = %q (ok=%v), want %q", d.Text, ok, "E ")
	}
}

func TestEngineClear(t *testing.T) {
	e := NewEngine()
	base := time.Now()

	key(t, e, true, base, 0)
	key(t, e, false, base, 60)
	e.Clear()

	if d, ok := e.CheckTimeout(base.Add(3 * time.Second)); ok {
		t.Errorf("decoded %q after clear", d.Text)
	}
}
