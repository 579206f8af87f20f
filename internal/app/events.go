// Package app provides the core application service for Wails bindings.
package app

// Event names for frontend communication.
const (
	// EventDecoded carries one decoded character or word with the WPM
	// estimate, per completed character.
	EventDecoded = "cw:decoded"
	// EventKey mirrors every key line transition for the on-screen key
	// indicator.
	EventKey = "cw:key"
	// EventMIDIStatus reports adapter connects and disconnects.
	EventMIDIStatus = "midi:status"
)
