package keyer

import "github.com/sidekey-app/sidekey/config"

// Machine is the per-mode keying state machine. It is clock-free: the
// caller reports paddle transitions and element-boundary ticks, and the
// machine answers with the element to start or a manual key line change.
// It is not safe for concurrent use; the scheduler serializes access.
type Machine struct {
	mode config.KeyerMode
	swap bool

	ditDown bool
	dahDown bool

	sending  Element // element in progress, ElementNone when idle
	memory   Element // one-slot latch (dot/dash memory, keyahead buffer)
	lastHit  Element // most recently pressed paddle's element (ultimatic)
	squeezed bool    // both paddles seen down during the current element
	manual   bool    // manual key line held (straight key, bug dah lever)
}

// NewMachine returns a machine in the given mode with all contacts up.
func NewMachine(mode config.KeyerMode, swap bool) *Machine {
	return &Machine{mode: mode, swap: swap}
}

// Reset configures a new mode and clears all state. Any in-progress
// element is forgotten; the caller must also drop its timers.
func (m *Machine) Reset(mode config.KeyerMode, swap bool) {
	*m = Machine{mode: mode, swap: swap}
}

// Mode returns the active keying mode.
func (m *Machine) Mode() config.KeyerMode { return m.mode }

func (m *Machine) resolve(p Paddle) Paddle {
	if m.swap {
		if p == PaddleDit {
			return PaddleDah
		}
		return PaddleDit
	}
	return p
}

func elementFor(p Paddle) Element {
	if p == PaddleDit {
		return ElementDit
	}
	return ElementDah
}

// Press reports a paddle contact closing.
func (m *Machine) Press(p Paddle) Output {
	p = m.resolve(p)
	if p == PaddleDit {
		m.ditDown = true
	} else {
		m.dahDown = true
	}
	e := elementFor(p)
	m.lastHit = e
	if m.ditDown && m.dahDown && m.sending != ElementNone {
		m.squeezed = true
	}

	switch m.mode {
	case config.ModeStraight:
		if !m.manual {
			m.manual = true
			return Output{Key: KeyDown}
		}
		return Output{}

	case config.ModeBug:
		if p == PaddleDah {
			if !m.manual {
				m.manual = true
				return Output{Key: KeyDown}
			}
			return Output{}
		}
		return m.startIfIdle(ElementDit)

	case config.ModeSingleDotPaddle:
		// Single-lever key: either contact produces one dit per press.
		if m.sending != ElementNone {
			m.memory = ElementDit
			return Output{}
		}
		return m.start(ElementDit)

	case config.ModeElectricBug, config.ModeUltimatic, config.ModePlainIambic:
		return m.startIfIdle(e)

	case config.ModeIambicA, config.ModeIambicB:
		if m.sending != ElementNone {
			if e != m.sending && m.memory == ElementNone {
				m.memory = e
			}
			return Output{}
		}
		return m.start(e)

	case config.ModeKeyahead:
		if m.sending != ElementNone {
			if m.memory == ElementNone {
				m.memory = e
			}
			return Output{}
		}
		return m.start(e)
	}
	return Output{}
}

// Release reports a paddle contact opening. Releasing a paddle that is
// not down is a no-op, so absent hardware never produces spurious output.
func (m *Machine) Release(p Paddle) Output {
	p = m.resolve(p)
	wasDown := false
	if p == PaddleDit {
		wasDown = m.ditDown
		m.ditDown = false
	} else {
		wasDown = m.dahDown
		m.dahDown = false
	}
	if !wasDown {
		return Output{}
	}

	// Ultimatic: releasing the winning paddle reverts to the other.
	if elementFor(p) == m.lastHit {
		switch {
		case m.ditDown:
			m.lastHit = ElementDit
		case m.dahDown:
			m.lastHit = ElementDah
		}
	}

	// Mode A cancels the latch on full release: nothing may follow the
	// element in progress once both paddles are up.
	if m.mode == config.ModeIambicA && !m.ditDown && !m.dahDown {
		m.memory = ElementNone
	}

	switch m.mode {
	case config.ModeStraight:
		if m.manual && !m.ditDown && !m.dahDown {
			m.manual = false
			return Output{Key: KeyUp}
		}
	case config.ModeBug:
		if p == PaddleDah && m.manual {
			m.manual = false
			return Output{Key: KeyUp}
		}
	}
	return Output{}
}

// ElementDone reports that the current element's period (mark plus
// trailing space) has elapsed. It returns the next element to start, or
// none if the keyer goes idle.
func (m *Machine) ElementDone() Output {
	prev := m.sending
	m.sending = ElementNone
	mem := m.memory
	m.memory = ElementNone
	squeezed := m.squeezed
	m.squeezed = false

	var next Element
	switch m.mode {
	case config.ModeBug:
		if m.ditDown {
			next = ElementDit
		}

	case config.ModeElectricBug:
		// Continue the held element; no iambic alternation.
		switch {
		case prev == ElementDit && m.ditDown, prev == ElementDah && m.dahDown:
			next = prev
		case m.ditDown:
			next = ElementDit
		case m.dahDown:
			next = ElementDah
		}

	case config.ModeSingleDotPaddle:
		next = mem // one queued dit at most, holding does not repeat

	case config.ModeUltimatic:
		switch {
		case m.ditDown && m.dahDown:
			next = m.lastHit
		case m.ditDown:
			next = ElementDit
		case m.dahDown:
			next = ElementDah
		}

	case config.ModePlainIambic:
		next = m.alternate(prev)

	case config.ModeIambicA:
		// Latched tap wins over the held paddle so the insert is not lost.
		next = mem
		if next == ElementNone {
			next = m.alternate(prev)
		}

	case config.ModeIambicB:
		next = mem
		if next == ElementNone {
			next = m.alternate(prev)
		}
		if next == ElementNone && squeezed {
			next = prev.Opposite()
		}

	case config.ModeKeyahead:
		next = mem
		if next == ElementNone {
			next = m.alternate(prev)
		}
	}

	if next == ElementNone {
		return Output{}
	}
	return m.start(next)
}

// alternate is the shared squeeze rule: both paddles alternate against the
// previous element, a single paddle repeats its own.
func (m *Machine) alternate(prev Element) Element {
	switch {
	case m.ditDown && m.dahDown:
		if prev == ElementNone {
			return m.lastHit
		}
		return prev.Opposite()
	case m.ditDown:
		return ElementDit
	case m.dahDown:
		return ElementDah
	}
	return ElementNone
}

func (m *Machine) startIfIdle(e Element) Output {
	if m.sending != ElementNone {
		return Output{}
	}
	return m.start(e)
}

func (m *Machine) start(e Element) Output {
	m.sending = e
	if m.ditDown && m.dahDown {
		m.squeezed = true
	}
	return Output{Start: e}
}
