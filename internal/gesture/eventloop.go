package gesture

import (
	"log/slog"

	"github.com/gestured/gestured/internal/evdev"
	"github.com/gestured/gestured/internal/geom"
)

// eventKind is the tagged translation of a raw (type, code) pair. Raw
// codes are never reinterpreted blindly; anything outside the vocabulary
// maps to kindIgnore.
type eventKind uint8

const (
	kindIgnore eventKind = iota
	kindReport            // SYN_REPORT boundary
	kindOverallX          // ABS_X, non-slotted
	kindOverallY          // ABS_Y, non-slotted
	kindSlotSelect        // ABS_MT_SLOT
	kindSlotX             // ABS_MT_POSITION_X
	kindSlotY             // ABS_MT_POSITION_Y
	kindTracking          // ABS_MT_TRACKING_ID
	kindToolCount         // BTN_TOOL_* finger-count signal
	kindButton            // physical button (force touch)
)

// classify translates a raw event type and code into its kind. For
// kindToolCount the second return is the finger count the code stands for.
func classify(typ, code uint16) (eventKind, int) {
	switch typ {
	case evdev.EvSyn:
		if code == evdev.SynReport {
			return kindReport, 0
		}
	case evdev.EvAbs:
		switch code {
		case evdev.AbsX:
			return kindOverallX, 0
		case evdev.AbsY:
			return kindOverallY, 0
		case evdev.AbsMtSlot:
			return kindSlotSelect, 0
		case evdev.AbsMtPositionX:
			return kindSlotX, 0
		case evdev.AbsMtPositionY:
			return kindSlotY, 0
		case evdev.AbsMtTrackingID:
			return kindTracking, 0
		}
	case evdev.EvKey:
		switch code {
		case evdev.BtnLeft, evdev.BtnRight, evdev.BtnMiddle:
			return kindButton, 0
		case evdev.BtnToolFinger:
			return kindToolCount, 1
		case evdev.BtnToolDoubleTap:
			return kindToolCount, 2
		case evdev.BtnToolTripleTap:
			return kindToolCount, 3
		case evdev.BtnToolQuadTap:
			return kindToolCount, 4
		case evdev.BtnToolQuintTap:
			// Five tools; clamped to the largest count a gesture carries.
			return kindToolCount, MaxFingers
		}
	}
	return kindIgnore, 0
}

// slotState tracks one tool (finger) independently of all others.
type slotState struct {
	complete bool // tool lifted (tracking id -1)
	started  bool
	start    geom.Point
	ended    bool
	end      geom.Point
}

// push records a position sample: the first becomes the start, every
// later one updates the end.
func (s *slotState) push(p geom.Point) {
	if !s.started {
		s.started = true
		s.start = p
		return
	}
	s.ended = true
	s.end = p
}

// active reports whether the slot currently tracks a touching tool.
func (s *slotState) active() bool {
	return s.started && !s.complete
}

// last returns the most recent position recorded for the slot.
func (s *slotState) last() (geom.Point, bool) {
	if s.ended {
		return s.end, true
	}
	if s.started {
		return s.start, true
	}
	return geom.Point{}, false
}

// EventLoop consumes raw events for one device and emits at most one
// gesture per report boundary. It is not safe for concurrent use; each
// device session owns exactly one.
type EventLoop struct {
	tuning Tuning
	log    *slog.Logger
	report []evdev.Event
	state  touchpadState
}

// New returns an EventLoop in its idle state.
func New(tuning Tuning) *EventLoop {
	l := &EventLoop{
		tuning: tuning,
		log:    slog.Default(),
	}
	l.state.slots = make([]slotState, tuning.InitialSlots)
	return l
}

// AddEvent feeds one raw event. At a SYN_REPORT boundary the accumulated
// report is interpreted and a gesture is returned if one finalized.
func (l *EventLoop) AddEvent(time float64, typ, code uint16, value int32) (Gesture, bool) {
	l.report = append(l.report, evdev.Event{Time: time, Type: typ, Code: code, Value: value})
	if kind, _ := classify(typ, code); kind != kindReport {
		return Gesture{}, false
	}
	g, ok := l.state.update(l.report, l.tuning, l.log)
	l.report = l.report[:0]
	return g, ok
}

// Reset unconditionally discards the in-flight report and gesture state.
// Used when the device stream desynchronizes.
func (l *EventLoop) Reset() {
	l.report = l.report[:0]
	l.state.reset()
}

// touchpadState is the per-device aggregate the interpreter mutates.
// At most one gesture is in flight at a time; maxFingers is monotonically
// non-decreasing within a gesture.
type touchpadState struct {
	slots []slotState

	hasStart bool
	start    geom.Point
	hasEnd   bool
	end      geom.Point

	// Overall (non-slotted) axes persist across reports so a driver may
	// omit the one that did not change.
	hasOX, hasOY bool
	overallX     int32
	overallY     int32

	lastTS          float64
	lastGestureTime float64 // debounce anchor, survives resets
	gestureStart    float64
	gestureEnd      float64

	curFingers int // 0 while no tool is down
	maxFingers int // high-water mark for the current gesture
	lastSlot   int

	// withBtnTool latches once the device proves it emits explicit
	// BTN_TOOL_* counts; the slot-count fallback is then disabled for
	// the rest of the session. First signal type seen wins.
	withBtnTool bool
}

// reset returns the state to idle. The debounce anchor, the device
// timestamp and the explicit-signal latch survive; everything else is
// per-gesture.
func (s *touchpadState) reset() {
	clear(s.slots)
	s.hasStart = false
	s.hasEnd = false
	s.hasOX = false
	s.hasOY = false
	s.gestureStart = 0
	s.gestureEnd = 0
	s.curFingers = 0
	s.maxFingers = 0
	s.lastSlot = 0
}

// pushPosition records an overall gesture position: first sample is the
// start, later samples move the end.
func (s *touchpadState) pushPosition(p geom.Point) {
	if !s.hasStart {
		s.hasStart = true
		s.start = p
		return
	}
	s.hasEnd = true
	s.end = p
}

// setFingers applies a new observed finger count. Exceeding the running
// maximum restarts the gesture positionally: whatever was accumulated
// before this instant was build-up noise.
func (s *touchpadState) setFingers(n int, ts float64) {
	if n > s.maxFingers {
		s.hasStart = false
		s.hasEnd = false
		s.maxFingers = n
		s.gestureStart = ts
	}
	if n == 0 && s.curFingers > 0 {
		s.gestureEnd = ts
	}
	s.curFingers = n
}

// slot returns the slot at idx, growing the table when a driver reports
// a higher index than seen before.
func (s *touchpadState) slot(idx int) *slotState {
	for idx >= len(s.slots) {
		s.slots = append(s.slots, slotState{})
	}
	return &s.slots[idx]
}

// activeSlots counts tools currently touching.
func (s *touchpadState) activeSlots() int {
	n := 0
	for i := range s.slots {
		if s.slots[i].active() {
			n++
		}
	}
	return n
}

// update interprets one report. It runs the guards, dispatches every
// event, applies the implicit finger-count fallback, ingests positions,
// and finalizes the gesture when all tools have lifted.
func (s *touchpadState) update(report []evdev.Event, tuning Tuning, log *slog.Logger) (Gesture, bool) {
	timeout := tuning.EventTimeout.Seconds()

	// Stale-gesture guard: a clock discontinuity (suspend, desync)
	// invalidates everything in flight.
	for _, ev := range report {
		if s.lastTS > 0 && ev.Time-s.lastTS >= timeout {
			log.Debug("event gap exceeded timeout, discarding state",
				"gap", ev.Time-s.lastTS)
			s.lastTS = ev.Time
			s.reset()
			return Gesture{}, false
		}
		s.lastTS = ev.Time
	}

	// Force-touch guard: a physical click mid-gesture invalidates the
	// gesture rather than producing a spurious tap or swipe.
	for _, ev := range report {
		if kind, _ := classify(ev.Type, ev.Code); kind == kindButton && ev.Value == 1 {
			log.Debug("physical button press, discarding gesture")
			s.reset()
			return Gesture{}, false
		}
	}

	var (
		sawOverall   bool
		slotX, slotY int32
		sawX, sawY   bool
	)
	for _, ev := range report {
		kind, fingers := classify(ev.Type, ev.Code)
		switch kind {
		case kindOverallX:
			s.overallX = ev.Value
			s.hasOX = true
			sawOverall = true
		case kindOverallY:
			s.overallY = ev.Value
			s.hasOY = true
			sawOverall = true
		case kindSlotSelect:
			s.lastSlot = int(ev.Value)
			*s.slot(s.lastSlot) = slotState{}
			sawX, sawY = false, false
		case kindSlotX:
			slotX = ev.Value
			sawX = true
			slot := s.slot(s.lastSlot)
			if sawY {
				slot.push(geom.Point{X: slotX, Y: slotY})
				sawX, sawY = false, false
			} else if p, ok := slot.last(); ok {
				// Driver omitted the unchanged axis; reuse it.
				slot.push(geom.Point{X: slotX, Y: p.Y})
				sawX = false
			}
		case kindSlotY:
			slotY = ev.Value
			sawY = true
			slot := s.slot(s.lastSlot)
			if sawX {
				slot.push(geom.Point{X: slotX, Y: slotY})
				sawX, sawY = false, false
			} else if p, ok := slot.last(); ok {
				slot.push(geom.Point{X: p.X, Y: slotY})
				sawY = false
			}
		case kindTracking:
			if ev.Value == -1 {
				s.slot(s.lastSlot).complete = true
			}
		case kindToolCount:
			s.withBtnTool = true
			if ev.Value == 1 {
				s.setFingers(fingers, ev.Time)
				s.gestureStart = ev.Time
			} else if ev.Value == 0 {
				s.setFingers(0, ev.Time)
			}
		}
	}

	// Implicit fallback for devices that never emit BTN_TOOL_* counts:
	// infer the finger count from the number of active slots.
	if !s.withBtnTool {
		n := s.activeSlots()
		if n > MaxFingers {
			n = MaxFingers
		}
		if n != s.curFingers {
			s.setFingers(n, s.lastTS)
		}
	}

	// Position ingestion. A finger-count decrease is tear-down; its
	// position change must not drag the end point around.
	if s.maxFingers > 0 && s.curFingers == s.maxFingers {
		if p, ok := s.reportPosition(sawOverall); ok {
			s.pushPosition(p)
		}
	}

	if s.curFingers == 0 && s.maxFingers > 0 {
		return s.finalize(tuning, log)
	}
	return Gesture{}, false
}

// reportPosition yields the gesture position observed this report: the
// overall axes when the device reports them, otherwise any one active
// slot's position as a stand-in.
func (s *touchpadState) reportPosition(sawOverall bool) (geom.Point, bool) {
	if sawOverall && s.hasOX && s.hasOY {
		return geom.Point{X: s.overallX, Y: s.overallY}, true
	}
	if s.hasOX || s.hasOY {
		// Device does report overall axes; wait for both.
		return geom.Point{}, false
	}
	if s.lastSlot < len(s.slots) {
		if p, ok := s.slots[s.lastSlot].last(); ok {
			return p, true
		}
	}
	for i := range s.slots {
		if s.slots[i].active() {
			if p, ok := s.slots[i].last(); ok {
				return p, true
			}
		}
	}
	return geom.Point{}, false
}

// finalize classifies the completed interaction and resets the state.
// Only the debounce anchor survives, and only an emitted gesture moves it.
func (s *touchpadState) finalize(tuning Tuning, log *slog.Logger) (Gesture, bool) {
	defer s.reset()

	if !s.hasStart {
		log.Debug("gesture ended with no start position recorded")
		return Gesture{}, false
	}

	fingers := s.maxFingers
	if fingers > MaxFingers {
		fingers = MaxFingers
	}

	distance := 0.0
	if s.hasEnd {
		distance = geom.Distance(s.start, s.end)
	}

	if s.lastTS-s.lastGestureTime <= tuning.Debounce.Seconds() {
		log.Debug("gesture suppressed by debounce", "distance", distance)
		return Gesture{}, false
	}
	s.lastGestureTime = s.lastTS

	if distance < tuning.MaxTapDistance {
		return NewTap(fingers), true
	}
	return NewSwipe(fingers, geom.DirectionBiased(s.start, s.end, tuning.DirectionBias)), true
}
