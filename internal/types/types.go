// Package types provides shared type definitions for the application.
package types

// DeviceInfo identifies an audio device for selection in the frontend.
type DeviceInfo struct {
	DisplayName  string `json:"displayName"`
	InternalName string `json:"internalName"`
	MaxInputs    int    `json:"maxInputs"`
	MaxOutputs   int    `json:"maxOutputs"`
}

// KeyEvent is the payload of the "cw:key" event, one per key transition.
type KeyEvent struct {
	Down bool `json:"down"`
}

// DecodedEvent is the payload of the "cw:decoded" event, one per completed
// character (or word-boundary space).
type DecodedEvent struct {
	Character string  `json:"character"`
	WPM       float64 `json:"wpm"`
}

// MIDIStatusEvent is the payload of the "midi:status" event.
type MIDIStatusEvent struct {
	Connected bool   `json:"connected"`
	Device    string `json:"device,omitempty"`
}

// RecordingState is the polled snapshot of the test record/playback facility.
type RecordingState struct {
	TakeID           string  `json:"takeId,omitempty"`
	IsRecording      bool    `json:"isRecording"`
	IsPlaying        bool    `json:"isPlaying"`
	SamplesRecorded  int     `json:"samplesRecorded"`
	SampleRate       int     `json:"sampleRate"`
	DurationSeconds  float64 `json:"durationSeconds"`
	PlaybackProgress float64 `json:"playbackProgress"`
}
