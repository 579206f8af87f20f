package app

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/wailsapp/wails/v3/pkg/application"

	"github.com/sidekey-app/sidekey/audio"
	"github.com/sidekey-app/sidekey/config"
	"github.com/sidekey-app/sidekey/cw"
	"github.com/sidekey-app/sidekey/input"
	"github.com/sidekey-app/sidekey/internal/types"
	"github.com/sidekey-app/sidekey/keyer"
)

// How often pending decoder output is checked for the idle flush.
const flushInterval = 50 * time.Millisecond

// Service wires the keyer, decoder, audio engine and MIDI input together
// and exposes the command surface to the frontend. It orchestrates; the
// real-time work lives in the sub-packages.
type Service struct {
	app    *application.App
	window application.Window

	mu       sync.Mutex // guards settings
	settings config.Settings

	audio   *audio.Engine
	decoder *cw.Engine
	keyer   *keyer.Scheduler
	midi    *input.MIDI

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates the service. Call Init after the Wails app is created.
func New() *Service {
	return &Service{}
}

// Init wires the engines and starts the background loops. Must be called
// after the Wails application is created.
func (s *Service) Init(app *application.App, window application.Window) {
	s.app = app
	s.window = window
	s.initCore()
}

// initCore builds the engine graph. Split from Init so tests can run the
// service without a Wails application.
func (s *Service) initCore() {
	settings, err := config.Load()
	if err != nil {
		slog.Error("load settings, using defaults", "error", err)
	}
	s.settings = settings

	s.audio = audio.NewEngine(slog.Default(), settings)
	s.decoder = cw.NewEngine()
	s.keyer = keyer.NewScheduler(
		settings.KeyerMode, settings.SwapPaddles,
		keyer.TimingFromSettings(settings), s.onKeyTransition)
	s.midi = input.New(slog.Default(), s.onMIDIStatus)

	s.done = make(chan struct{})
	s.wg.Add(2)
	go s.midiLoop()
	go s.flushLoop()
}

// Shutdown stops the background loops and releases every device.
func (s *Service) Shutdown() {
	close(s.done)
	s.wg.Wait()

	s.keyer.Close()
	s.midi.Close()
	if err := s.audio.Close(); err != nil {
		slog.Error("close audio engine", "error", err)
	}
}

// onKeyTransition fans out every key line transition in fixed order: the
// audio key flag first so the tone edge is sampled in the next callback
// period, then the decoder, then the UI event. Tone and decoded text
// therefore always agree about what was sent.
func (s *Service) onKeyTransition(down bool, at time.Time) {
	s.audio.SetKeyDown(down)

	if decoded, ok := s.decoder.Transition(down, at); ok {
		s.emit(EventDecoded, types.DecodedEvent{
			Character: decoded.Text,
			WPM:       decoded.WPM,
		})
	}

	s.emit(EventKey, types.KeyEvent{Down: down})
}

func (s *Service) onMIDIStatus(connected bool, device string) {
	if !connected {
		// Absent hardware must read as idle, never as held paddles.
		s.keyer.ReleaseAll()
	}
	s.emit(EventMIDIStatus, types.MIDIStatusEvent{
		Connected: connected,
		Device:    device,
	})
}

// midiLoop forwards adapter paddle events into the keyer.
func (s *Service) midiLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.midi.Events():
			if ev.Down {
				s.keyer.Press(ev.Paddle)
			} else {
				s.keyer.Release(ev.Paddle)
			}
		}
	}
}

// flushLoop emits a pending character once the operator stops sending.
func (s *Service) flushLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			if decoded, ok := s.decoder.CheckTimeout(now); ok {
				s.emit(EventDecoded, types.DecodedEvent{
					Character: decoded.Text,
					WPM:       decoded.WPM,
				})
			}
		}
	}
}

// emit is a safe wrapper around app.Event.Emit.
func (s *Service) emit(name string, data any) {
	if s.app != nil {
		s.app.Event.Emit(name, data)
	}
}

// frequencyToNote converts a sidetone frequency to the nearest MIDI note
// for the adapter's CC2.
func frequencyToNote(hz float64) uint8 {
	note := math.Round(69 + 12*math.Log2(hz/440))
	if note < 0 {
		return 0
	}
	if note > 127 {
		return 127
	}
	return uint8(note)
}
