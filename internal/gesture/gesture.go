// Package gesture turns a chronologically ordered stream of raw kernel
// input events from one multi-touch trackpad into discrete gestures:
// taps and directional swipes, each annotated with a finger count.
package gesture

import (
	"fmt"
	"time"

	"github.com/gestured/gestured/internal/geom"
)

// Kind distinguishes the two gesture shapes the daemon recognizes.
type Kind uint8

const (
	Tap Kind = iota + 1
	Swipe
)

func (k Kind) String() string {
	switch k {
	case Tap:
		return "tap"
	case Swipe:
		return "swipe"
	}
	return "unknown"
}

// Gesture is one recognized interaction. It is a comparable value so it
// can key a gesture-to-action lookup table directly. Direction is only
// meaningful for swipes and is always the zero value for taps.
type Gesture struct {
	Kind      Kind
	Fingers   int
	Direction geom.Direction
}

// NewTap returns the tap gesture for the given finger count.
func NewTap(fingers int) Gesture {
	return Gesture{Kind: Tap, Fingers: fingers}
}

// NewSwipe returns the swipe gesture for the given finger count and direction.
func NewSwipe(fingers int, dir geom.Direction) Gesture {
	return Gesture{Kind: Swipe, Fingers: fingers, Direction: dir}
}

func (g Gesture) String() string {
	if g.Kind == Swipe {
		return fmt.Sprintf("%d-finger swipe %s", g.Fingers, g.Direction)
	}
	return fmt.Sprintf("%d-finger %s", g.Fingers, g.Kind)
}

// ParseDirection maps a configuration string to a direction.
func ParseDirection(s string) (geom.Direction, error) {
	switch s {
	case "up":
		return geom.Up, nil
	case "down":
		return geom.Down, nil
	case "left":
		return geom.Left, nil
	case "right":
		return geom.Right, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// MaxFingers is the largest finger count a gesture reports. Devices that
// track more tools than this are clamped to it.
const MaxFingers = 4

// Tuning holds the calibration constants of the recognizer. The historical
// values of these drifted over time; they are configuration-level knobs,
// not physical truths.
type Tuning struct {
	// MaxTapDistance is the travel, in device units, beyond which a
	// touch is a swipe rather than a tap.
	MaxTapDistance float64
	// Debounce suppresses a gesture completed too soon after the last
	// emitted one.
	Debounce time.Duration
	// EventTimeout discards in-flight state when the device timestamp
	// jumps by more than this, e.g. after resume from sleep.
	EventTimeout time.Duration
	// DirectionBias is the horizontal preference of the direction
	// classifier.
	DirectionBias float64
	// InitialSlots sizes the tool-tracking table; it grows on demand
	// when a driver reports a higher slot index.
	InitialSlots int
}

// DefaultTuning mirrors the constants the recognizer was calibrated with.
func DefaultTuning() Tuning {
	return Tuning{
		MaxTapDistance: 100,
		Debounce:       100 * time.Millisecond,
		EventTimeout:   10 * time.Second,
		DirectionBias:  geom.DefaultBias,
		InitialSlots:   5,
	}
}
