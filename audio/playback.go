package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Playback writes in larger blocks than the live graph; latency does not
// matter when auditioning a take.
const playbackFrames = 1024

// PlayRecording plays the captured take through the given output device,
// outside the live mixing graph. It returns once playback has started;
// progress is reported through the recorder state.
func (e *Engine) PlayRecording(device string) error {
	samples, err := e.recorder.Samples()
	if err != nil {
		return err
	}
	if err := e.recorder.beginPlayback(); err != nil {
		return err
	}

	e.mu.Lock()
	stream, buf, err := e.openPlaybackStream(device)
	e.mu.Unlock()
	if err != nil {
		e.recorder.endPlayback()
		return err
	}

	stop := make(chan struct{})
	e.playMu.Lock()
	e.playStop = stop
	e.playMu.Unlock()

	e.playWG.Add(1)
	go e.runPlayback(stream, buf, samples, stop)

	e.log.Info("test playback started",
		"device", device, "samples", len(samples))
	return nil
}

func (e *Engine) openPlaybackStream(device string) (*portaudio.Stream, []float32, error) {
	if err := e.ensureInit(); err != nil {
		return nil, nil, err
	}
	dev, err := findDevice(device, false)
	if err != nil {
		return nil, nil, fmt.Errorf("playback device: %w", err)
	}

	p := portaudio.HighLatencyParameters(nil, dev)
	p.Output.Channels = 1
	p.SampleRate = float64(e.recorder.SampleRate())
	p.FramesPerBuffer = playbackFrames

	buf := make([]float32, playbackFrames)
	stream, err := portaudio.OpenStream(p, buf)
	if err != nil {
		return nil, nil, fmt.Errorf("open playback stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, nil, fmt.Errorf("start playback stream: %w", err)
	}
	return stream, buf, nil
}

func (e *Engine) runPlayback(stream *portaudio.Stream, buf, samples []float32, stop chan struct{}) {
	defer e.playWG.Done()
	defer func() {
		if err := stream.Stop(); err != nil {
			e.log.Warn("playback stream stop failed", "error", err)
		}
		stream.Close()
		e.recorder.endPlayback()

		e.playMu.Lock()
		if e.playStop == stop {
			e.playStop = nil
		}
		e.playMu.Unlock()
	}()

	pos := 0
	for pos < len(samples) {
		select {
		case <-stop:
			return
		default:
		}

		n := copy(buf, samples[pos:])
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
		if err := stream.Write(); err != nil {
			e.log.Warn("playback write failed", "error", err)
			return
		}
		pos += n
		e.recorder.setPlaybackPos(pos)
	}
}

// StopPlayback cancels a running playback. Calling it while idle is a
// no-op.
func (e *Engine) StopPlayback() {
	e.playMu.Lock()
	defer e.playMu.Unlock()
	if e.playStop != nil {
		close(e.playStop)
		e.playStop = nil
	}
}
