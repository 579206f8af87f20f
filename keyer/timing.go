package keyer

import (
	"time"

	"github.com/sidekey-app/sidekey/config"
)

// Timing derives element durations from the speed settings. Durations are
// fixed at element start; a changed Timing applies from the next element on.
type Timing struct {
	WPM       float64
	Ratio     float64 // dah length in dit units
	Weighting float64 // -0.5..0.5, shifts mark length against the trailing space
}

// TimingFromSettings extracts the timing parameters from a settings snapshot.
func TimingFromSettings(s config.Settings) Timing {
	return Timing{WPM: s.WPM, Ratio: s.DitDahRatio, Weighting: s.Weighting}
}

// unit is the dit duration in seconds: the PARIS convention, 1.2 / WPM.
func (t Timing) unit() float64 {
	return 1.2 / t.WPM
}

// Dit returns the nominal dit unit at the configured speed.
func (t Timing) Dit() time.Duration {
	return secs(t.unit())
}

// Mark returns the keyed duration of e. Weighting lengthens or shortens the
// mark; the trailing space absorbs the difference so the element period and
// the WPM mapping are unchanged.
func (t Timing) Mark(e Element) time.Duration {
	units := 1.0
	if e == ElementDah {
		units = t.Ratio
	}
	return secs((units + t.Weighting) * t.unit())
}

// Space returns the silent gap following a mark, before the next element
// may begin.
func (t Timing) Space() time.Duration {
	return secs((1 - t.Weighting) * t.unit())
}

func secs(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
