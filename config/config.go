// Package config handles application settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	appName          = "sidekey"
	settingsFileName = "settings.json"
)

// KeyerMode selects how paddle contacts are turned into elements.
type KeyerMode string

// Supported keyer modes.
const (
	ModeStraight        KeyerMode = "straight"
	ModeBug             KeyerMode = "bug"
	ModeElectricBug     KeyerMode = "electric-bug"
	ModeSingleDotPaddle KeyerMode = "single-dot"
	ModeUltimatic       KeyerMode = "ultimatic"
	ModePlainIambic     KeyerMode = "plain-iambic"
	ModeIambicA         KeyerMode = "iambic-a"
	ModeIambicB         KeyerMode = "iambic-b"
	ModeKeyahead        KeyerMode = "keyahead"
)

// Valid reports whether m is one of the supported modes.
func (m KeyerMode) Valid() bool {
	switch m {
	case ModeStraight, ModeBug, ModeElectricBug, ModeSingleDotPaddle,
		ModeUltimatic, ModePlainIambic, ModeIambicA, ModeIambicB, ModeKeyahead:
		return true
	}
	return false
}

// SidetoneRoute selects which output streams carry the sidetone.
type SidetoneRoute string

// Sidetone routing policies.
const (
	RouteOutputOnly SidetoneRoute = "output-only" // virtual device only, silent locally
	RouteLocalOnly  SidetoneRoute = "local-only"  // local monitoring only
	RouteBoth       SidetoneRoute = "both"
)

// Valid reports whether r is one of the supported routes.
func (r SidetoneRoute) Valid() bool {
	switch r {
	case RouteOutputOnly, RouteLocalOnly, RouteBoth:
		return true
	}
	return false
}

// Settings is the durable application configuration. The audio and keyer
// engines consume a validated snapshot of it; they never read the file.
type Settings struct {
	// Keyer
	KeyerMode   KeyerMode `json:"keyerMode"`
	WPM         float64   `json:"wpm"`
	DitDahRatio float64   `json:"ditDahRatio"`
	Weighting   float64   `json:"weighting"`
	SwapPaddles bool      `json:"swapPaddles"`

	// Sidetone
	SidetoneFrequency   float64       `json:"sidetoneFrequency"`
	SidetoneVolume      float64       `json:"sidetoneVolume"`      // remote/output route
	LocalSidetoneVolume float64       `json:"localSidetoneVolume"` // local monitoring
	SidetoneRoute       SidetoneRoute `json:"sidetoneRoute"`

	// Microphone
	MicVolume  float64 `json:"micVolume"`
	MicDucking bool    `json:"micDucking"`

	// Devices
	MIDIDevice        string `json:"midiDevice,omitempty"`
	InputDevice       string `json:"inputDevice,omitempty"`
	OutputDevice      string `json:"outputDevice,omitempty"`
	LocalOutputDevice string `json:"localOutputDevice,omitempty"`
}

// Default returns the settings used on first run.
func Default() Settings {
	return Settings{
		KeyerMode:           ModeStraight,
		WPM:                 18,
		DitDahRatio:         3.0,
		Weighting:           0,
		SidetoneFrequency:   600,
		SidetoneVolume:      0.5,
		LocalSidetoneVolume: 0.3,
		SidetoneRoute:       RouteOutputOnly,
		MicVolume:           1.0,
	}
}

// Validate checks every field range. An error rejects the whole settings
// update; the previously valid settings must stay in effect.
func (s Settings) Validate() error {
	if !s.KeyerMode.Valid() {
		return fmt.Errorf("unknown keyer mode %q", s.KeyerMode)
	}
	if s.WPM < 5 || s.WPM > 50 {
		return fmt.Errorf("wpm %.1f out of range [5, 50]", s.WPM)
	}
	if s.DitDahRatio < 2 || s.DitDahRatio > 4.5 {
		return fmt.Errorf("dit:dah ratio %.2f out of range [2, 4.5]", s.DitDahRatio)
	}
	if s.Weighting < -0.5 || s.Weighting > 0.5 {
		return fmt.Errorf("weighting %.2f out of range [-0.5, 0.5]", s.Weighting)
	}
	if s.SidetoneFrequency < 400 || s.SidetoneFrequency > 1000 {
		return fmt.Errorf("sidetone frequency %.0f Hz out of range [400, 1000]", s.SidetoneFrequency)
	}
	if s.SidetoneVolume < 0 || s.SidetoneVolume > 1 {
		return fmt.Errorf("sidetone volume %.2f out of range [0, 1]", s.SidetoneVolume)
	}
	if s.LocalSidetoneVolume < 0 || s.LocalSidetoneVolume > 1 {
		return fmt.Errorf("local sidetone volume %.2f out of range [0, 1]", s.LocalSidetoneVolume)
	}
	if !s.SidetoneRoute.Valid() {
		return fmt.Errorf("unknown sidetone route %q", s.SidetoneRoute)
	}
	if s.MicVolume < 0 || s.MicVolume > 1.5 {
		return fmt.Errorf("mic volume %.2f out of range [0, 1.5]", s.MicVolume)
	}
	return nil
}

// Load reads settings from the config file.
// Returns defaults if the file doesn't exist.
func Load() (Settings, error) {
	path, err := settingsPath()
	if err != nil {
		return Default(), fmt.Errorf("get settings path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("read settings: %w", err)
	}

	s := Default()
	if err := json.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("unmarshal settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		// A hand-edited or stale file must not poison the session.
		return Default(), fmt.Errorf("stored settings invalid: %w", err)
	}
	return s, nil
}

// Save persists the settings to disk.
func (s Settings) Save() error {
	if err := s.Validate(); err != nil {
		return err
	}

	path, err := settingsPath()
	if err != nil {
		return fmt.Errorf("get settings path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func settingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, settingsFileName), nil
}
