package audio

import "math"

// Attack and decay ramp length. Long enough to kill keying clicks,
// short enough to keep crisp element edges at high speed.
const rampSeconds = 0.005

// sidetone is a sine generator with a linear attack/decay envelope keyed
// by the key-down flag. Each output stream owns its own generator so
// stream phases are independent; they are all keyed by the same flag.
type sidetone struct {
	phase      float32
	increment  float32
	sampleRate float32
	frequency  float32
	envelope   float32
	rampStep   float32
}

func newSidetone(frequency, sampleRate float32) *sidetone {
	s := &sidetone{sampleRate: sampleRate}
	s.setFrequency(frequency)
	s.rampStep = 1 / (rampSeconds * sampleRate)
	return s
}

func (s *sidetone) setFrequency(frequency float32) {
	s.frequency = frequency
	s.increment = 2 * math.Pi * frequency / s.sampleRate
}

// next produces one unit-amplitude sample; the caller scales it by the
// stream's volume. The generator advances even when the envelope is
// zero so tone phase stays continuous across elements.
func (s *sidetone) next(keyDown bool) float32 {
	if keyDown {
		s.envelope += s.rampStep
		if s.envelope > 1 {
			s.envelope = 1
		}
	} else {
		s.envelope -= s.rampStep
		if s.envelope < 0 {
			s.envelope = 0
		}
	}

	sample := float32(math.Sin(float64(s.phase))) * s.envelope

	s.phase += s.increment
	if s.phase >= 2*math.Pi {
		s.phase -= 2 * math.Pi
	}
	return sample
}
