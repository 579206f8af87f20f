package app

import (
	"fmt"
	"log/slog"

	"github.com/sidekey-app/sidekey/config"
	"github.com/sidekey-app/sidekey/internal/types"
	"github.com/sidekey-app/sidekey/keyer"
)

// ListMIDIDevices returns the available MIDI input ports.
func (s *Service) ListMIDIDevices() []string {
	return s.midi.Devices()
}

// ConnectMIDIDevice opens the named adapter and syncs the current keyer
// settings to it.
func (s *Service) ConnectMIDIDevice(name string) error {
	if err := s.midi.Connect(name); err != nil {
		return err
	}
	s.mu.Lock()
	settings := s.settings
	s.mu.Unlock()
	s.syncAdapter(settings)

	settings.MIDIDevice = name
	return s.storeSettings(settings)
}

// DisconnectMIDIDevice closes the adapter connection.
func (s *Service) DisconnectMIDIDevice() {
	s.midi.Disconnect()
}

// KeyDown injects a synthetic paddle press, bypassing hardware. Used by
// the UI's on-screen paddles and for setup testing.
func (s *Service) KeyDown(isDit bool) {
	s.keyer.Press(paddleFor(isDit))
}

// KeyUp releases both synthetic paddles.
func (s *Service) KeyUp() {
	s.keyer.ReleaseAll()
}

func paddleFor(isDit bool) keyer.Paddle {
	if isDit {
		return keyer.PaddleDit
	}
	return keyer.PaddleDah
}

// ListInputDevices enumerates devices usable as a microphone source.
func (s *Service) ListInputDevices() ([]types.DeviceInfo, error) {
	devices, err := s.audio.Devices()
	if err != nil {
		return nil, err
	}
	inputs := devices[:0]
	for _, d := range devices {
		if d.MaxInputs > 0 {
			inputs = append(inputs, d)
		}
	}
	return inputs, nil
}

// ListOutputDevices enumerates devices usable as an output or monitor.
func (s *Service) ListOutputDevices() ([]types.DeviceInfo, error) {
	devices, err := s.audio.Devices()
	if err != nil {
		return nil, err
	}
	outputs := devices[:0]
	for _, d := range devices {
		if d.MaxOutputs > 0 {
			outputs = append(outputs, d)
		}
	}
	return outputs, nil
}

// StartAudioWithDevices starts the graph with a mixed output and a mic
// input.
func (s *Service) StartAudioWithDevices(output, input string) error {
	return s.audio.Start(output, input)
}

// StartAudioWithAllDevices additionally opens a local monitor output.
func (s *Service) StartAudioWithAllDevices(output, input, local string) error {
	return s.audio.StartAll(output, input, local)
}

// StopAudio stops the graph. A no-op when already stopped.
func (s *Service) StopAudio() error {
	return s.audio.Stop()
}

// GetSettings returns the current settings snapshot.
func (s *Service) GetSettings() config.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings validates and applies a full settings snapshot. An
// invalid snapshot is rejected in full; the previous settings stay in
// effect.
func (s *Service) UpdateSettings(settings config.Settings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	s.mu.Lock()
	prev := s.settings
	s.settings = settings
	s.mu.Unlock()

	// Hot-path parameters take effect without a stream restart.
	s.audio.Apply(settings)
	s.keyer.SetTiming(keyer.TimingFromSettings(settings))
	if settings.KeyerMode != prev.KeyerMode || settings.SwapPaddles != prev.SwapPaddles {
		s.keyer.SetMode(settings.KeyerMode, settings.SwapPaddles)
	}
	s.syncAdapter(settings)

	if err := settings.Save(); err != nil {
		slog.Error("persist settings", "error", err)
	}
	return nil
}

func (s *Service) storeSettings(settings config.Settings) error {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	return settings.Save()
}

// syncAdapter pushes speed, mode and sidetone pitch to a connected
// adapter so hardware keying matches the application.
func (s *Service) syncAdapter(settings config.Settings) {
	if _, connected := s.midi.Connected(); !connected {
		return
	}
	if err := s.midi.SendSpeed(settings.WPM); err != nil {
		slog.Warn("sync adapter speed", "error", err)
	}
	if err := s.midi.SendKeyerMode(settings.KeyerMode); err != nil {
		slog.Warn("sync adapter mode", "error", err)
	}
	if err := s.midi.SendSidetoneNote(frequencyToNote(settings.SidetoneFrequency)); err != nil {
		slog.Warn("sync adapter sidetone", "error", err)
	}
}

// GetMicLevel reports the smoothed mic input level for metering.
func (s *Service) GetMicLevel() float64 {
	return s.audio.MicLevel()
}

// GetOutputLevel reports the smoothed mixed output level.
func (s *Service) GetOutputLevel() float64 {
	return s.audio.OutputLevel()
}

// GetDecodedWPM reports the decoder's current speed estimate.
func (s *Service) GetDecodedWPM() float64 {
	return s.decoder.WPM()
}

// ClearDecoder resets the in-progress character. The learned speed
// estimate survives.
func (s *Service) ClearDecoder() {
	s.decoder.Clear()
}

// StartTestRecording begins capturing the mixed output, returning the
// take ID.
func (s *Service) StartTestRecording() (string, error) {
	return s.audio.Recorder().Start()
}

// StopTestRecording ends the capture.
func (s *Service) StopTestRecording() error {
	return s.audio.Recorder().Stop()
}

// PlayTestRecording plays the take through the given device, outside the
// live graph.
func (s *Service) PlayTestRecording(localDevice string) error {
	return s.audio.PlayRecording(localDevice)
}

// StopTestPlayback cancels playback. A no-op when idle.
func (s *Service) StopTestPlayback() {
	s.audio.StopPlayback()
}

// GetTestRecordingState reports recorder status for UI polling.
func (s *Service) GetTestRecordingState() types.RecordingState {
	return s.audio.Recorder().State()
}

// ExportTestRecording writes the take to a WAV file.
func (s *Service) ExportTestRecording(path string) error {
	return s.audio.Recorder().Export(path)
}
