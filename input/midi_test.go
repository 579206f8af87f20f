package input

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/sidekey-app/sidekey/config"
	"github.com/sidekey-app/sidekey/keyer"
)

func TestPaddleForNote(t *testing.T) {
	tests := []struct {
		note uint8
		want keyer.Paddle
	}{
		{1, keyer.PaddleDit},
		{61, keyer.PaddleDit},
		{2, keyer.PaddleDah},
		{62, keyer.PaddleDah},
		{0, keyer.PaddleDah},
	}
	for _, tt := range tests {
		if got := paddleForNote(tt.note); got != tt.want {
			t.Errorf("paddleForNote(%d) = %v, want %v", tt.note, got, tt.want)
		}
	}
}

func TestEveryModeHasAdapterProgram(t *testing.T) {
	modes := []config.KeyerMode{
		config.ModeStraight, config.ModeBug, config.ModeElectricBug,
		config.ModeSingleDotPaddle, config.ModeUltimatic, config.ModePlainIambic,
		config.ModeIambicA, config.ModeIambicB, config.ModeKeyahead,
	}
	seen := make(map[uint8]config.KeyerMode)
	for _, mode := range modes {
		program, ok := modePrograms[mode]
		if !ok {
			t.Errorf("mode %q has no adapter program", mode)
			continue
		}
		if program < 1 || program > 9 {
			t.Errorf("mode %q program = %d, want 1..9", mode, program)
		}
		if prev, dup := seen[program]; dup {
			t.Errorf("program %d assigned to both %q and %q", program, prev, mode)
		}
		seen[program] = mode
	}
}

func TestSpeedValue(t *testing.T) {
	tests := []struct {
		wpm  float64
		want uint8
	}{
		{20, 30}, // 60 ms dit
		{30, 20},
		{12, 50},
		{5, 120},
	}
	for _, tt := range tests {
		if got := speedValue(tt.wpm); got != tt.want {
			t.Errorf("speedValue(%v) = %d, want %d", tt.wpm, got, tt.want)
		}
	}
}

func TestSendWithoutConnection(t *testing.T) {
	m := New(slog.Default(), nil)
	if err := m.SendKeyerMode(config.ModeIambicB); !errors.Is(err, ErrNotConnected) {
		t.Errorf("SendKeyerMode = %v, want ErrNotConnected", err)
	}
	if err := m.SendSpeed(20); !errors.Is(err, ErrNotConnected) {
		t.Errorf("SendSpeed = %v, want ErrNotConnected", err)
	}
	if err := m.SendSidetoneNote(69); !errors.Is(err, ErrNotConnected) {
		t.Errorf("SendSidetoneNote = %v, want ErrNotConnected", err)
	}
}

func TestDisconnectWhileDisconnectedIsNoop(t *testing.T) {
	m := New(slog.Default(), nil)
	m.Disconnect()
	if _, connected := m.Connected(); connected {
		t.Error("reports connected without a connection")
	}
}

func TestNoteEventsQueueInOrder(t *testing.T) {
	m := New(slog.Default(), nil)

	// Drive the handler directly with raw messages the way the driver
	// callback would.
	m.handleMessage([]byte{0x90, 1, 100}, 0)  // dit down
	m.handleMessage([]byte{0x90, 1, 0}, 1)    // dit up via NoteOn vel 0
	m.handleMessage([]byte{0x90, 2, 100}, 2)  // dah down
	m.handleMessage([]byte{0x80, 2, 0}, 3)    // dah up
	m.handleMessage([]byte{0xB0, 0, 0}, 4)    // control change, not a paddle

	want := []PaddleEvent{
		{keyer.PaddleDit, true},
		{keyer.PaddleDit, false},
		{keyer.PaddleDah, true},
		{keyer.PaddleDah, false},
	}
	for i, w := range want {
		select {
		case got := <-m.Events():
			if got != w {
				t.Errorf("event %d = %+v, want %+v", i, got, w)
			}
		default:
			t.Fatalf("event %d missing", i)
		}
	}
	select {
	case ev := <-m.Events():
		t.Errorf("unexpected extra event %+v", ev)
	default:
	}
}
