// Package audio owns the real-time audio graph: microphone capture, the
// sidetone generators, mixing and routing to the output devices, level
// metering, and the test recorder.
package audio

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"github.com/sidekey-app/sidekey/config"
)

const (
	sampleRate      = 48000
	framesPerBuffer = 256

	// Mic ring capacity, about 100 ms at 48 kHz. Enough to absorb
	// callback jitter without adding noticeable voice latency.
	micRingSize = 4800
)

// State is the engine lifecycle phase.
type State int32

// Engine states. Transitions only happen under the reconfiguration lock.
const (
	Stopped State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// Engine manages the device streams. All lifecycle operations are
// serialized on one mutex: a start or stop fully releases the previous
// device handles before any new stream opens, so hot-swapping devices
// never leaves two streams fighting over one device.
type Engine struct {
	log *slog.Logger

	mu       sync.Mutex // serializes start/stop/reconfiguration
	state    atomic.Int32
	paInit   bool
	streams  []*portaudio.Stream
	mic      *ring
	params   params
	recorder *Recorder

	playMu   sync.Mutex
	playStop chan struct{}
	playWG   sync.WaitGroup
}

// NewEngine returns a stopped engine configured from the given settings.
func NewEngine(log *slog.Logger, s config.Settings) *Engine {
	e := &Engine{
		log:      log,
		recorder: NewRecorder(sampleRate),
	}
	e.params.apply(s)
	return e
}

// State reports the current lifecycle phase.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Apply updates the hot-path parameters from a validated settings
// snapshot. No stream restart; the next callback period sees the values.
func (e *Engine) Apply(s config.Settings) {
	e.params.apply(s)
}

// SetKeyDown drives the sidetone envelope and mic ducking. On key-up the
// ducking hold starts so the mic stays muted through the tone tail.
func (e *Engine) SetKeyDown(down bool) {
	e.params.keyDown.Store(down)
	if !down {
		e.params.duckingHold.Store(duckingHoldSamples)
	}
}

// MicLevel reports the smoothed peak level of the raw mic input.
func (e *Engine) MicLevel() float64 {
	return float64(e.params.micLevel.Load())
}

// OutputLevel reports the smoothed peak level of the mixed output.
func (e *Engine) OutputLevel() float64 {
	return float64(e.params.outputLevel.Load())
}

// Recorder returns the test recorder.
func (e *Engine) Recorder() *Recorder {
	return e.recorder
}

// Start opens the mic input and the mixed output device. Any running
// streams are fully released first.
func (e *Engine) Start(output, input string) error {
	return e.start(output, input, "", false)
}

// StartAll additionally opens a local monitor output.
func (e *Engine) StartAll(output, input, local string) error {
	return e.start(output, input, local, true)
}

func (e *Engine) start(output, input, local string, withLocal bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if State(e.state.Load()) != Stopped {
		e.stopLocked()
	}
	e.state.Store(int32(Starting))

	if err := e.ensureInit(); err != nil {
		e.state.Store(int32(Stopped))
		return err
	}

	if err := e.openStreams(output, input, local, withLocal); err != nil {
		// No half-open state: release whatever did open.
		e.closeStreamsLocked()
		e.state.Store(int32(Stopped))
		return err
	}

	e.state.Store(int32(Running))
	e.log.Info("audio started",
		"output", output, "input", input, "local", local,
		"sampleRate", sampleRate)
	return nil
}

func (e *Engine) openStreams(output, input, local string, withLocal bool) error {
	outDev, err := findDevice(output, false)
	if err != nil {
		return fmt.Errorf("output device: %w", err)
	}
	inDev, err := findDevice(input, true)
	if err != nil {
		return fmt.Errorf("input device: %w", err)
	}
	var localDev *portaudio.DeviceInfo
	if withLocal {
		localDev, err = findDevice(local, false)
		if err != nil {
			return fmt.Errorf("local device: %w", err)
		}
	}

	// Fresh ring each start so a new session never replays stale mic audio.
	e.mic = newRing(micRingSize)

	inParams := portaudio.LowLatencyParameters(inDev, nil)
	inParams.Input.Channels = 1
	inParams.SampleRate = sampleRate
	inParams.FramesPerBuffer = framesPerBuffer
	inStream, err := portaudio.OpenStream(inParams, func(in []float32) {
		captureInput(&e.params, e.mic, in)
	})
	if err != nil {
		return fmt.Errorf("open input stream: %w", err)
	}
	e.streams = append(e.streams, inStream)

	// Each output stream gets its own generator; phase is independent
	// but both are keyed by the same flag.
	outMixer := &outputMixer{
		p:    &e.params,
		tone: newSidetone(e.params.frequency.Load(), sampleRate),
		mic:  e.mic,
		rec:  e.recorder,
	}
	outParams := portaudio.LowLatencyParameters(nil, outDev)
	outParams.Output.Channels = 1
	outParams.SampleRate = sampleRate
	outParams.FramesPerBuffer = framesPerBuffer
	outStream, err := portaudio.OpenStream(outParams, func(out []float32) {
		outMixer.fill(out)
	})
	if err != nil {
		return fmt.Errorf("open output stream: %w", err)
	}
	e.streams = append(e.streams, outStream)

	if withLocal {
		localMixer := &outputMixer{
			p:     &e.params,
			tone:  newSidetone(e.params.frequency.Load(), sampleRate),
			local: true,
		}
		localParams := portaudio.LowLatencyParameters(nil, localDev)
		localParams.Output.Channels = 1
		localParams.SampleRate = sampleRate
		localParams.FramesPerBuffer = framesPerBuffer
		localStream, err := portaudio.OpenStream(localParams, func(out []float32) {
			localMixer.fill(out)
		})
		if err != nil {
			return fmt.Errorf("open local stream: %w", err)
		}
		e.streams = append(e.streams, localStream)
	}

	for _, s := range e.streams {
		if err := s.Start(); err != nil {
			return fmt.Errorf("start stream: %w", err)
		}
	}
	return nil
}

// Stop tears down the streams. Calling it while already stopped is a
// no-op, not an error.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if State(e.state.Load()) == Stopped {
		return nil
	}
	e.stopLocked()
	e.log.Info("audio stopped")
	return nil
}

func (e *Engine) stopLocked() {
	e.state.Store(int32(Stopping))
	e.closeStreamsLocked()
	e.state.Store(int32(Stopped))
}

func (e *Engine) closeStreamsLocked() {
	for _, s := range e.streams {
		if err := s.Stop(); err != nil {
			e.log.Warn("stream stop failed", "error", err)
		}
		if err := s.Close(); err != nil {
			e.log.Warn("stream close failed", "error", err)
		}
	}
	e.streams = nil
}

// Close stops the engine and releases the host API.
func (e *Engine) Close() error {
	e.StopPlayback()
	e.playWG.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	if State(e.state.Load()) != Stopped {
		e.stopLocked()
	}
	if e.paInit {
		e.paInit = false
		if err := portaudio.Terminate(); err != nil {
			return fmt.Errorf("terminate audio host: %w", err)
		}
	}
	return nil
}

func (e *Engine) ensureInit() error {
	if e.paInit {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initialize audio host: %w", err)
	}
	e.paInit = true
	return nil
}
