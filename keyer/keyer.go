// Package keyer converts paddle contact transitions into timed Morse
// elements according to the selected keying mode.
package keyer

// Paddle identifies a physical paddle contact.
type Paddle int

// Paddle contacts before any swap is applied.
const (
	PaddleDit Paddle = iota
	PaddleDah
)

// Element is a timed Morse element.
type Element int

// Element kinds. ElementNone means no element.
const (
	ElementNone Element = iota
	ElementDit
	ElementDah
)

func (e Element) String() string {
	switch e {
	case ElementDit:
		return "dit"
	case ElementDah:
		return "dah"
	default:
		return "none"
	}
}

// Opposite returns the other element kind.
func (e Element) Opposite() Element {
	switch e {
	case ElementDit:
		return ElementDah
	case ElementDah:
		return ElementDit
	default:
		return ElementNone
	}
}

// KeyChange is a manual key line transition requested by the machine.
// Timed elements do not use it; the scheduler keys those itself.
type KeyChange int

// Manual key line transitions.
const (
	KeyUnchanged KeyChange = iota
	KeyDown
	KeyUp
)

// Output is what a machine transition produced: a timed element to start
// now, a manual key line change, or neither.
type Output struct {
	Start Element
	Key   KeyChange
}
