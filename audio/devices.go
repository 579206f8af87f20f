package audio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"

	"github.com/sidekey-app/sidekey/internal/types"
)

// ErrDeviceNotFound is returned when a named device is absent. Callers
// must treat it as fatal for the reconfiguration, not retry silently.
var ErrDeviceNotFound = errors.New("audio device not found")

// Devices lists every device visible to the host, with channel counts so
// the UI can offer inputs and outputs separately.
func (e *Engine) Devices() ([]types.DeviceInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureInit(); err != nil {
		return nil, err
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}

	out := make([]types.DeviceInfo, 0, len(devices))
	for _, d := range devices {
		out = append(out, types.DeviceInfo{
			DisplayName:  d.Name,
			InternalName: d.Name,
			MaxInputs:    d.MaxInputChannels,
			MaxOutputs:   d.MaxOutputChannels,
		})
	}
	return out, nil
}

// findDevice resolves a device name to host device info. An empty name
// selects the default device; otherwise exact match first, then prefix
// match, so truncated UI names still resolve.
func findDevice(name string, input bool) (*portaudio.DeviceInfo, error) {
	if name == "" {
		if input {
			return portaudio.DefaultInputDevice()
		}
		return portaudio.DefaultOutputDevice()
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}

	usable := func(d *portaudio.DeviceInfo) bool {
		if input {
			return d.MaxInputChannels > 0
		}
		return d.MaxOutputChannels > 0
	}

	for _, d := range devices {
		if d.Name == name && usable(d) {
			return d, nil
		}
	}
	for _, d := range devices {
		if strings.HasPrefix(d.Name, name) && usable(d) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
}
