package evdev

import "errors"

// ErrDesync reports that the kernel dropped events for this device
// (buffer overrun); the caller must do one resynchronizing read before
// resuming normal reads.
var ErrDesync = errors.New("evdev: dropped events, stream desynchronized")

// ReadMode selects how a transport delivers the next event.
type ReadMode uint8

const (
	// ReadNormal delivers the stream in order.
	ReadNormal ReadMode = iota
	// ReadSync discards the remainder of the corrupt report after a
	// SYN_DROPPED, then resumes delivery.
	ReadSync
)

// Status annotates a delivered event.
type Status uint8

const (
	StatusNormal Status = iota
	// StatusSync marks the first event delivered after resynchronizing.
	StatusSync
)

// Event type and code constants from the kernel's input-event-codes.h.
// This is the fixed external vocabulary the daemon recognizes; anything
// else coming off a device is ignored.
const (
	EvSyn = 0x00 // synchronization events
	EvKey = 0x01 // key/button events
	EvAbs = 0x03 // absolute axis events
)

// EV_SYN codes.
const (
	SynReport  = 0x00 // report boundary: preceding events form one snapshot
	SynDropped = 0x03 // kernel buffer overrun, stream is desynchronized
)

// EV_ABS codes.
const (
	AbsX            = 0x00 // overall x, not differentiated by slot
	AbsY            = 0x01 // overall y, not differentiated by slot
	AbsPressure     = 0x18 // overall pressure
	AbsMtSlot       = 0x2f // selects the slot the following MT events apply to
	AbsMtPositionX  = 0x35 // per-slot x
	AbsMtPositionY  = 0x36 // per-slot y
	AbsMtTrackingID = 0x39 // tool id for the slot; -1 means the tool lifted
	AbsMtPressure   = 0x3a // per-slot pressure
)

// EV_KEY codes.
const (
	BtnLeft          = 0x110 // physical button press (force touch / click)
	BtnRight         = 0x111
	BtnMiddle        = 0x112
	BtnToolFinger    = 0x145 // one finger on the pad
	BtnToolQuintTap  = 0x148 // five fingers; treated as the four-finger cap
	BtnTouch         = 0x14a
	BtnToolDoubleTap = 0x14d // two fingers
	BtnToolTripleTap = 0x14e // three fingers
	BtnToolQuadTap   = 0x14f // four fingers
)

// Event is one raw kernel input event with its device-supplied timestamp
// in seconds. Immutable once produced by the transport.
type Event struct {
	Time  float64
	Type  uint16
	Code  uint16
	Value int32
}
