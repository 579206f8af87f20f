package cw

import (
	"math"
	"strings"
	"testing"
)

// reverse lookup for building idealized timing streams in tests.
var patternFor = func() map[rune]string {
	m := make(map[rune]string, len(morseTable))
	for pattern, ch := range morseTable {
		m[ch] = pattern
	}
	return m
}()

// feedText streams text as idealized timings at the given dit length and
// returns everything the decoder emitted.
func feedText(t *testing.T, d *Decoder, text string, ditMs float64) string {
	t.Helper()
	var out strings.Builder

	for i, ch := range text {
		if ch == ' ' {
			out.WriteString(d.AddTiming(-7 * ditMs))
			continue
		}
		pattern, ok := patternFor[ch]
		if !ok {
			t.Fatalf("no pattern for %q", ch)
		}
		if i > 0 && text[i-1] != ' ' {
			out.WriteString(d.AddTiming(-3 * ditMs))
		}
		for j, sym := range pattern {
			if j > 0 {
				out.WriteString(d.AddTiming(-ditMs))
			}
			if sym == '.' {
				out.WriteString(d.AddTiming(ditMs))
			} else {
				out.WriteString(d.AddTiming(3 * ditMs))
			}
		}
	}
	out.WriteString(d.Flush())
	return out.String()
}

func TestDecodeS(t *testing.T) {
	d := NewDecoder()
	// Three 60 ms dits with unit gaps, then a letter gap: 'S' at 20 WPM.
	var out string
	out += d.AddTiming(60)
	out += d.AddTiming(-60)
	out += d.AddTiming(60)
	out += d.AddTiming(-60)
	out += d.AddTiming(60)
	out += d.AddTiming(-180)
	if out != "S" {
		t.Errorf("decoded %q, want %q", out, "S")
	}
}

func TestRoundTrip(t *testing.T) {
	texts := []string{
		"SOS",
		"CQ CQ DE K6ABC",
		"THE QUICK BROWN FOX 1234567890",
		"HELLO, WORLD?",
	}
	for _, text := range texts {
		t.Run(text, func(t *testing.T) {
			d := NewDecoder()
			got := feedText(t, d, text, 60)
			if got != text {
				t.Errorf("round trip = %q, want %q", got, text)
			}
		})
	}
}

func TestWPMConvergence(t *testing.T) {
	d := NewDecoder()
	// Steady dits at 40 ms: true speed 30 WPM.
	for i := 0; i < 30; i++ {
		d.AddTiming(40)
		d.AddTiming(-40)
	}
	got := d.WPM()
	if math.Abs(got-30)/30 > 0.05 {
		t.Errorf("WPM = %.1f, want within 5%% of 30", got)
	}
}

func TestAdaptsAcrossSpeedChange(t *testing.T) {
	d := NewDecoder()
	feedText(t, d, "PARIS PARIS", 60)
	// The sender speeds up; decoding must still be exact.
	got := feedText(t, d, "PARIS", 40)
	if !strings.HasSuffix(got, "PARIS") {
		t.Errorf("after speed change decoded %q, want PARIS suffix", got)
	}
}

func TestUnknownPatternPlaceholder(t *testing.T) {
	d := NewDecoder()
	for i := 0; i < 8; i++ {
		if i > 0 {
			d.AddTiming(-60)
		}
		d.AddTiming(60)
	}
	if got := d.Flush(); got != string(unknownPattern) {
		t.Errorf("decoded %q, want placeholder %q", got, string(unknownPattern))
	}
}

func TestGlitchesIgnored(t *testing.T) {
	d := NewDecoder()
	d.AddTiming(60)
	d.AddTiming(-1) // contact bounce, below noise floor
	d.AddTiming(1)
	d.AddTiming(-60)
	d.AddTiming(60)
	d.AddTiming(-60)
	d.AddTiming(60)
	if got := d.Flush(); got != "S" {
		t.Errorf("decoded %q, want %q", got, "S")
	}
}

func TestExtremeDurationsDoNotSkewEstimate(t *testing.T) {
	d := NewDecoder()
	d.AddTiming(60)
	before := d.DitLengthMs()
	// A 3 second key-down is counted as a dah but its implausible
	// dit estimate must be discarded.
	d.AddTiming(3000)
	if got := d.DitLengthMs(); got != before {
		t.Errorf("dit estimate moved from %.1f to %.1f", before, got)
	}
}

func TestWordSpacing(t *testing.T) {
	d := NewDecoder()
	got := feedText(t, d, "AB CD", 60)
	if got != "AB CD" {
		t.Errorf("decoded %q, want %q", got, "AB CD")
	}
}

func TestResetKeepsSpeed(t *testing.T) {
	d := NewDecoder()
	feedText(t, d, "PARIS", 40)
	learned := d.WPM()

	d.Reset()
	if d.Flush() != "" {
		t.Error("pattern survived reset")
	}
	if got := d.WPM(); got != learned {
		t.Errorf("WPM after reset = %.1f, want %.1f", got, learned)
	}
}
