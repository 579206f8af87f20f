// Package input connects a Vail-style MIDI keyer adapter to the keyer
// engine: paddle contacts arrive as note events, and speed, sidetone and
// mode settings are pushed back to the adapter as MIDI messages.
package input

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // registers the MIDI driver

	"github.com/sidekey-app/sidekey/config"
	"github.com/sidekey-app/sidekey/keyer"
)

// Adapter protocol: CC0 selects MIDI mode, CC1 carries the dit duration
// as value*2 ms, CC2 the sidetone note, and a program change selects the
// keyer type on the adapter itself.
const (
	ccMode         = 0
	ccDitDuration  = 1
	ccSidetoneNote = 2
	modeMIDI       = 0
)

// Keyer type codes for the adapter's program change. Code 0 is the
// adapter's passthrough mode and never maps to a local mode.
var modePrograms = map[config.KeyerMode]uint8{
	config.ModeStraight:        1,
	config.ModeBug:             2,
	config.ModeElectricBug:     3,
	config.ModeSingleDotPaddle: 4,
	config.ModeUltimatic:       5,
	config.ModePlainIambic:     6,
	config.ModeIambicA:         7,
	config.ModeIambicB:         8,
	config.ModeKeyahead:        9,
}

// ErrNotConnected is returned when an adapter command is sent without an
// open connection.
var ErrNotConnected = errors.New("midi device not connected")

// PaddleEvent is one paddle contact transition from the adapter.
type PaddleEvent struct {
	Paddle keyer.Paddle
	Down   bool
}

// StatusFunc is notified on connect and disconnect.
type StatusFunc func(connected bool, device string)

// MIDI owns the adapter connection. Incoming note events are delivered in
// order on the Events channel; outgoing commands go through the paired
// output port when the adapter exposes one.
type MIDI struct {
	log    *slog.Logger
	status StatusFunc
	events chan PaddleEvent

	mu     sync.Mutex
	stop   func()
	send   func(midi.Message) error
	device string
}

// New returns a disconnected handler. status may be nil.
func New(log *slog.Logger, status StatusFunc) *MIDI {
	return &MIDI{
		log:    log,
		status: status,
		events: make(chan PaddleEvent, 128),
	}
}

// Devices lists the available MIDI input ports.
func (m *MIDI) Devices() []string {
	ports := midi.GetInPorts()
	names := make([]string, 0, len(ports))
	for _, p := range ports {
		names = append(names, p.String())
	}
	return names
}

// Events delivers paddle transitions in arrival order.
func (m *MIDI) Events() <-chan PaddleEvent {
	return m.events
}

// Connect opens the named input port, tearing down any previous
// connection first. When a matching output port exists, the adapter is
// switched into MIDI mode so it sends note events instead of keystrokes.
func (m *MIDI) Connect(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnectLocked()

	in, err := midi.FindInPort(name)
	if err != nil {
		return fmt.Errorf("midi input %q: %w", name, err)
	}

	stop, err := midi.ListenTo(in, m.handleMessage)
	if err != nil {
		return fmt.Errorf("listen to %q: %w", name, err)
	}
	m.stop = stop
	m.device = name

	if out, err := midi.FindOutPort(name); err == nil {
		if send, err := midi.SendTo(out); err == nil {
			m.send = send
			if err := send(midi.ControlChange(0, ccMode, modeMIDI)); err != nil {
				m.log.Warn("midi mode switch failed", "device", name, "error", err)
			}
		}
	} else {
		m.log.Info("midi device has no output port, adapter sync disabled", "device", name)
	}

	m.log.Info("midi connected", "device", name)
	if m.status != nil {
		m.status(true, name)
	}
	return nil
}

// Disconnect closes the connection. Safe to call when not connected.
func (m *MIDI) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnectLocked()
}

func (m *MIDI) disconnectLocked() {
	if m.stop == nil {
		return
	}
	m.stop()
	m.stop = nil
	m.send = nil
	device := m.device
	m.device = ""

	m.log.Info("midi disconnected", "device", device)
	if m.status != nil {
		m.status(false, device)
	}
}

// Connected reports the active device name, if any.
func (m *MIDI) Connected() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.device, m.stop != nil
}

// handleMessage runs on the driver's callback goroutine; it must not
// block, so a full event channel drops rather than stalling the driver.
func (m *MIDI) handleMessage(msg midi.Message, timestampms int32) {
	var ch, key, vel uint8
	var ev PaddleEvent
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		ev = PaddleEvent{Paddle: paddleForNote(key), Down: true}
	case msg.GetNoteEnd(&ch, &key):
		ev = PaddleEvent{Paddle: paddleForNote(key), Down: false}
	default:
		return
	}

	select {
	case m.events <- ev:
	default:
		m.log.Warn("midi event dropped, channel full")
	}
}

// paddleForNote maps the adapter's note numbers to paddles. Notes 1 and
// 61 are the dit contact; everything else is dah.
func paddleForNote(note uint8) keyer.Paddle {
	if note == 1 || note == 61 {
		return keyer.PaddleDit
	}
	return keyer.PaddleDah
}

// SendKeyerMode selects the keyer type on the adapter so its own keying
// matches the application's.
func (m *MIDI) SendKeyerMode(mode config.KeyerMode) error {
	program, ok := modePrograms[mode]
	if !ok {
		return fmt.Errorf("no adapter program for mode %q", mode)
	}
	return m.sendMessage(midi.ProgramChange(0, program))
}

// SendSpeed pushes the dit duration for the given WPM to the adapter.
func (m *MIDI) SendSpeed(wpm float64) error {
	return m.sendMessage(midi.ControlChange(0, ccDitDuration, speedValue(wpm)))
}

// speedValue encodes a WPM as the adapter's CC1 value, half the dit
// duration in milliseconds.
func speedValue(wpm float64) uint8 {
	ditMs := 1200 / wpm
	return uint8(min(int(ditMs/2), 127))
}

// SendSidetoneNote sets the adapter's own sidetone pitch.
func (m *MIDI) SendSidetoneNote(note uint8) error {
	if note > 127 {
		note = 127
	}
	return m.sendMessage(midi.ControlChange(0, ccSidetoneNote, note))
}

func (m *MIDI) sendMessage(msg midi.Message) error {
	m.mu.Lock()
	send := m.send
	m.mu.Unlock()
	if send == nil {
		return ErrNotConnected
	}
	return send(msg)
}

// Close disconnects and releases the driver.
func (m *MIDI) Close() {
	m.Disconnect()
	midi.CloseDriver()
}
