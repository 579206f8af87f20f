package audio

// The mixing code runs inside portaudio callbacks. It must not block,
// allocate, or take a contended lock; everything it shares with the
// control thread goes through the atomic cells in params.

// Ducking hold after key-up, in samples (~250 ms at 48 kHz), so the mic
// unmutes after the tone tail instead of clipping it.
const duckingHoldSamples = 12000

// outputMixer fills one output stream. The remote mixer combines mic and
// sidetone and feeds the recorder tap; the local monitor carries sidetone
// only, so the operator never hears their own voice back.
type outputMixer struct {
	p     *params
	tone  *sidetone
	mic   *ring     // nil for the local monitor
	rec   *Recorder // nil for the local monitor
	local bool
}

func (m *outputMixer) fill(out []float32) {
	include := m.p.loadRoute().carriesSidetone(m.local)
	keyDown := m.p.keyDown.Load()

	if freq := m.p.frequency.Load(); freq != m.tone.frequency {
		m.tone.setFrequency(freq)
	}

	if m.local {
		vol := m.p.localVolume.Load()
		for i := range out {
			// Advance the generator even when routed away so the
			// envelope and phase stay in step with the other stream.
			sample := m.tone.next(keyDown)
			if !include {
				sample = 0
			}
			out[i] = sample * vol
		}
		return
	}

	toneVol := m.p.toneVolume.Load()
	micVol := m.p.micVolume.Load()
	ducking := m.p.ducking.Load()

	var peak float32
	for i := range out {
		tone := m.tone.next(keyDown)
		if !include {
			tone = 0
		}

		raw, _ := m.mic.pop() // silence when the ring is empty
		mic := raw * micVol
		if ducking && (keyDown || m.p.duckingHold.Load() > 0) {
			mic = 0
		}

		mixed := clamp(tone*toneVol + mic)
		if m.rec != nil {
			m.rec.capture(mixed)
		}
		if a := abs32(mixed); a > peak {
			peak = a
		}
		out[i] = mixed
	}

	if ducking && !keyDown {
		if hold := m.p.duckingHold.Load(); hold > 0 {
			n := uint32(len(out))
			if n > hold {
				n = hold
			}
			m.p.duckingHold.Store(hold - n)
		}
	}
	smooth(&m.p.outputLevel, peak)
}

// captureInput moves mic samples into the ring and meters the raw input.
func captureInput(p *params, mic *ring, in []float32) {
	var peak float32
	for _, s := range in {
		mic.push(s) // a full ring drops samples rather than blocking
		if a := abs32(s); a > peak {
			peak = a
		}
	}
	smooth(&p.micLevel, peak)
}

func clamp(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

func abs32(s float32) float32 {
	if s < 0 {
		return -s
	}
	return s
}
