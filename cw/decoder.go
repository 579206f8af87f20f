// Package cw decodes key transition timings back into text, adapting to
// the operator's sending speed.
package cw

import "strings"

const (
	ditBufferSize = 30

	// Durations below this are treated as contact glitches and ignored.
	noiseThresholdMs = 2.0

	// Dit samples outside this range are implausible and discarded.
	minDitSampleMs = 10.0
	maxDitSampleMs = 500.0

	// Default estimate corresponds to 20 WPM.
	defaultDitMs = 60.0
)

// Decoder is an adaptive Morse decoder. It classifies tone and gap
// durations against a running dit-length estimate, so it follows the
// sender's speed instead of assuming one. Not safe for concurrent use.
type Decoder struct {
	pattern strings.Builder

	// Ring of recent dit-length estimates, oldest first. The estimate is
	// a linearly weighted average with the newest sample heaviest.
	ditBuffer []float64
	ditMs     float64

	output strings.Builder
}

// NewDecoder returns a decoder primed for a mid-range sending speed.
func NewDecoder() *Decoder {
	return &Decoder{
		ditBuffer: make([]float64, 0, ditBufferSize),
		ditMs:     defaultDitMs,
	}
}

// AddTiming feeds one timing in milliseconds: positive for tone (key
// down), negative for silence. It returns any text completed by this
// timing, or "".
func (d *Decoder) AddTiming(ms float64) string {
	if ms > -noiseThresholdMs && ms < noiseThresholdMs {
		return ""
	}
	if ms > 0 {
		d.processTone(ms)
	} else {
		d.processGap(-ms)
	}
	return d.takeOutput()
}

// processTone classifies a key-down duration as dit or dah. The threshold
// is twice the dit estimate, the midpoint between a 1-unit dit and a
// 3-unit dah.
func (d *Decoder) processTone(ms float64) {
	if ms < d.ditMs*2 {
		d.pattern.WriteByte('.')
		d.addDitSample(ms)
	} else {
		d.pattern.WriteByte('-')
		d.addDitSample(ms / 3)
	}
}

// processGap classifies a silence duration. Gaps past 2 dit units close
// the character; past 5 units (midpoint of the 3-unit letter gap and the
// 7-unit word gap) they also close the word. Intra-character gaps are
// ignored.
func (d *Decoder) processGap(ms float64) {
	charThreshold := d.ditMs * 2
	wordThreshold := d.ditMs * 5

	if ms < charThreshold {
		return
	}

	d.closePattern()

	if ms >= wordThreshold {
		out := d.output.String()
		if out != "" && !strings.HasSuffix(out, " ") {
			d.output.WriteByte(' ')
		}
		return
	}

	// A letter gap is nominally 3 dit units, so it contributes to the
	// speed estimate. Word gaps carry thinking pauses and do not.
	d.addDitSample(ms / 3)
}

func (d *Decoder) closePattern() {
	if d.pattern.Len() == 0 {
		return
	}
	d.output.WriteRune(lookupPattern(d.pattern.String()))
	d.pattern.Reset()
}

// Flush closes any pending pattern, e.g. after a long idle timeout, and
// returns the completed text.
func (d *Decoder) Flush() string {
	d.closePattern()
	return d.takeOutput()
}

func (d *Decoder) takeOutput() string {
	if d.output.Len() == 0 {
		return ""
	}
	out := d.output.String()
	d.output.Reset()
	return out
}

func (d *Decoder) addDitSample(ms float64) {
	if ms < minDitSampleMs || ms > maxDitSampleMs {
		return
	}

	d.ditBuffer = append(d.ditBuffer, ms)
	if len(d.ditBuffer) > ditBufferSize {
		d.ditBuffer = d.ditBuffer[1:]
	}

	var weightedSum, totalWeight float64
	for i, dit := range d.ditBuffer {
		w := float64(i + 1)
		weightedSum += dit * w
		totalWeight += w
	}
	d.ditMs = weightedSum / totalWeight
}

// WPM reports the estimated sending speed, from the PARIS convention of
// 50 dit units per word.
func (d *Decoder) WPM() float64 {
	if d.ditMs <= 0 {
		return 20
	}
	return 1200 / d.ditMs
}

// DitLengthMs reports the current dit-length estimate.
func (d *Decoder) DitLengthMs() float64 { return d.ditMs }

// Reset clears the in-progress pattern and pending output. The speed
// estimate survives so decoding continues at the learned speed.
func (d *Decoder) Reset() {
	d.pattern.Reset()
	d.output.Reset()
}
