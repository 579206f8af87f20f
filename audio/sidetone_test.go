package audio

import (
	"math"
	"testing"
)

func TestSidetoneRampUp(t *testing.T) {
	s := newSidetone(600, sampleRate)

	rampSamples := int(rampSeconds * sampleRate) // 240 at 48 kHz
	for i := 0; i < rampSamples; i++ {
		sample := s.next(true)
		if a := math.Abs(float64(sample)); a > float64(s.envelope)+1e-6 {
			t.Fatalf("sample %d amplitude %v exceeds envelope %v", i, a, s.envelope)
		}
	}
	if s.envelope < 0.999 {
		t.Errorf("envelope = %v after full ramp, want 1", s.envelope)
	}
}

func TestSidetoneRampDownToSilence(t *testing.T) {
	s := newSidetone(600, sampleRate)
	for i := 0; i < 500; i++ {
		s.next(true)
	}

	rampSamples := int(rampSeconds * sampleRate)
	for i := 0; i < rampSamples+1; i++ {
		s.next(false)
	}
	if s.envelope != 0 {
		t.Fatalf("envelope = %v after full decay, want 0", s.envelope)
	}
	if got := s.next(false); got != 0 {
		t.Errorf("sample after decay = %v, want silence", got)
	}
}

func TestSidetoneNoStepDiscontinuity(t *testing.T) {
	s := newSidetone(600, sampleRate)

	// Key clicks come from sample-to-sample jumps. The envelope limits
	// the step to ramp rate plus the tone's own slope.
	prev := s.next(true)
	maxStep := 2*math.Pi*600/sampleRate + 1/(rampSeconds*sampleRate) + 0.001
	for i := 0; i < 2000; i++ {
		keyDown := i < 1000
		cur := s.next(keyDown)
		if step := math.Abs(float64(cur - prev)); step > float64(maxStep) {
			t.Fatalf("sample %d jumps by %v, max %v", i, step, maxStep)
		}
		prev = cur
	}
}

func TestSidetoneFrequencyPeriod(t *testing.T) {
	s := newSidetone(1000, sampleRate)
	for i := 0; i < 2*int(rampSeconds*sampleRate); i++ {
		s.next(true) // settle the envelope
	}

	// Count zero crossings over one second of samples: a 1 kHz sine
	// crosses zero 2000 times.
	crossings := 0
	prev := s.next(true)
	for i := 0; i < sampleRate; i++ {
		cur := s.next(true)
		if (prev < 0) != (cur < 0) {
			crossings++
		}
		prev = cur
	}
	if crossings < 1990 || crossings > 2010 {
		t.Errorf("zero crossings = %d, want ~2000", crossings)
	}
}
