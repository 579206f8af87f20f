package audio

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"

	"github.com/sidekey-app/sidekey/internal/types"
)

// Test recordings capture at most this much of the mixed stream.
const maxRecordingSeconds = 5

// Recorder errors.
var (
	ErrAlreadyRecording = errors.New("already recording")
	ErrNotRecording     = errors.New("not recording")
	ErrNoRecording      = errors.New("no recording available")
	ErrAlreadyPlaying   = errors.New("playback already running")
)

// Recorder captures a short window of the mixed output stream so the
// operator can hear exactly what the far side receives. The capture tap
// sits inside the output callback; it uses TryLock and drops samples
// under contention rather than blocking the real-time thread.
type Recorder struct {
	recording atomic.Bool
	playing   atomic.Bool
	count     atomic.Uint32 // samples recorded, mirrored for lock-free state reads
	playPos   atomic.Uint32

	mu         sync.Mutex
	buf        []float32
	takeID     string
	sampleRate int
}

// NewRecorder returns a recorder capturing at the given sample rate.
func NewRecorder(sampleRate int) *Recorder {
	return &Recorder{
		buf:        make([]float32, 0, sampleRate*maxRecordingSeconds),
		sampleRate: sampleRate,
	}
}

// Start begins a new take, discarding any previous one.
func (r *Recorder) Start() (string, error) {
	if r.playing.Load() {
		return "", ErrAlreadyPlaying
	}
	if !r.recording.CompareAndSwap(false, true) {
		return "", ErrAlreadyRecording
	}

	r.mu.Lock()
	r.buf = r.buf[:0]
	r.takeID = uuid.NewString()
	id := r.takeID
	r.mu.Unlock()
	r.count.Store(0)
	return id, nil
}

// Stop ends the current take. The captured samples stay available for
// playback and export.
func (r *Recorder) Stop() error {
	if !r.recording.CompareAndSwap(true, false) {
		return ErrNotRecording
	}
	return nil
}

// capture appends one mixed sample. Called from the output callback.
func (r *Recorder) capture(s float32) {
	if !r.recording.Load() {
		return
	}
	if !r.mu.TryLock() {
		return
	}
	if len(r.buf) < r.sampleRate*maxRecordingSeconds {
		r.buf = append(r.buf, s)
		r.count.Store(uint32(len(r.buf)))
	}
	r.mu.Unlock()
}

// Samples returns a copy of the captured take.
func (r *Recorder) Samples() ([]float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.buf) == 0 {
		return nil, ErrNoRecording
	}
	out := make([]float32, len(r.buf))
	copy(out, r.buf)
	return out, nil
}

// SampleRate reports the capture rate.
func (r *Recorder) SampleRate() int { return r.sampleRate }

// beginPlayback marks playback active. It fails while recording so the
// two uses of the buffer never overlap.
func (r *Recorder) beginPlayback() error {
	if r.recording.Load() {
		return ErrAlreadyRecording
	}
	if !r.playing.CompareAndSwap(false, true) {
		return ErrAlreadyPlaying
	}
	r.playPos.Store(0)
	return nil
}

func (r *Recorder) endPlayback() {
	r.playing.Store(false)
	r.playPos.Store(0)
}

func (r *Recorder) setPlaybackPos(samples int) {
	r.playPos.Store(uint32(samples))
}

// State reports the recorder status for UI polling.
func (r *Recorder) State() types.RecordingState {
	r.mu.Lock()
	id := r.takeID
	r.mu.Unlock()

	count := int(r.count.Load())
	st := types.RecordingState{
		TakeID:          id,
		IsRecording:     r.recording.Load(),
		IsPlaying:       r.playing.Load(),
		SamplesRecorded: count,
		SampleRate:      r.sampleRate,
		DurationSeconds: float64(count) / float64(r.sampleRate),
	}
	if st.IsPlaying && count > 0 {
		st.PlaybackProgress = float64(r.playPos.Load()) / float64(count)
	}
	return st
}

// Export writes the take to path as 16-bit mono WAV.
func (r *Recorder) Export(path string) error {
	samples, err := r.Samples()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav file: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, r.sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: r.sampleRate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(clamp(s) * 32767)
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}
