package cw

import (
	"sync"
	"time"
)

// Pending characters are flushed after this much silence.
const flushTimeout = 1500 * time.Millisecond

// Decoded is a completed piece of decoded text with the speed estimate at
// the time it was closed.
type Decoded struct {
	Text string
	WPM  float64
}

// Engine turns timestamped key transitions into decoder timings. It is
// safe for concurrent use; the keyer event path and the periodic timeout
// check run on different goroutines.
type Engine struct {
	mu      sync.Mutex
	decoder *Decoder

	downAt time.Time
	upAt   time.Time
	isDown bool
	keyed  bool // at least one transition seen since the last flush
}

// NewEngine returns an engine with a fresh decoder.
func NewEngine() *Engine {
	return &Engine{decoder: NewDecoder()}
}

// Transition reports a key line change at the given time. When the change
// completes a character or word, it is returned with ok true.
func (e *Engine) Transition(down bool, at time.Time) (Decoded, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out string
	switch {
	case down && !e.isDown:
		if e.keyed {
			gap := at.Sub(e.upAt)
			out = e.decoder.AddTiming(-gap.Seconds() * 1000)
		}
		e.downAt = at
		e.isDown = true
		e.keyed = true
	case !down && e.isDown:
		tone := at.Sub(e.downAt)
		out = e.decoder.AddTiming(tone.Seconds() * 1000)
		e.upAt = at
		e.isDown = false
	default:
		// Redundant transition, nothing to time.
		return Decoded{}, false
	}

	if out == "" {
		return Decoded{}, false
	}
	return Decoded{Text: out, WPM: e.decoder.WPM()}, true
}

// CheckTimeout flushes the pending character once the key has been up
// long enough. Call it periodically from a ticker.
func (e *Engine) CheckTimeout(now time.Time) (Decoded, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.keyed || e.isDown {
		return Decoded{}, false
	}
	gap := now.Sub(e.upAt)
	if gap < flushTimeout {
		return Decoded{}, false
	}

	// Feed the long gap first so a word boundary is recorded, then flush
	// whatever pattern remains.
	out := e.decoder.AddTiming(-gap.Seconds() * 1000)
	if out == "" {
		out = e.decoder.Flush()
	}
	e.keyed = false

	if out == "" {
		return Decoded{}, false
	}
	return Decoded{Text: out, WPM: e.decoder.WPM()}, true
}

// WPM reports the current speed estimate.
func (e *Engine) WPM() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.decoder.WPM()
}

// Clear discards the in-progress character and pending text. The speed
// estimate is kept.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.decoder.Reset()
	e.keyed = false
	e.isDown = false
}
