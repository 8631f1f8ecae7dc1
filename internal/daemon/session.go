//go:build linux

package daemon

import (
	"errors"
	"log/slog"

	"golang.org/x/sys/unix"

	"github.com/gestured/gestured/internal/config"
	"github.com/gestured/gestured/internal/epoll"
	"github.com/gestured/gestured/internal/evdev"
	"github.com/gestured/gestured/internal/gesture"
)

// Transport is the session's view of one device event source. Implemented
// by *evdev.Device; faked in tests.
type Transport interface {
	// NextEvent returns the next raw event without blocking. Errors
	// distinguish unix.EAGAIN (no data), evdev.ErrDesync (overrun,
	// retry with evdev.ReadSync) and fatal conditions.
	NextEvent(mode evdev.ReadMode) (evdev.Event, evdev.Status, error)
	Fd() int
	Name() string
	Close() error
}

// Session owns one device, one event interpreter and one multiplexer.
// Sessions are fully independent of each other; the only shared state is
// the pair of reload/stop notifiers.
type Session struct {
	transport Transport
	gestures  config.GestureMap
	events    *gesture.EventLoop
	exec      Executor
	reload    *Notifier
	stop      *Notifier
	log       *slog.Logger
}

// NewSession wires a session for one configured device.
func NewSession(t Transport, table config.GestureMap, tuning gesture.Tuning, exec Executor, reload, stop *Notifier) *Session {
	return &Session{
		transport: t,
		gestures:  table,
		events:    gesture.New(tuning),
		exec:      exec,
		reload:    reload,
		stop:      stop,
		log:       slog.Default().With("device", t.Name()),
	}
}

// Run is the session's read/interpret/dispatch loop. It returns when the
// reload or stop flag is raised or the device fails; the transport and
// the multiplexer are released on every exit path.
func (s *Session) Run() {
	defer s.transport.Close()

	ep, err := epoll.New()
	if err != nil {
		s.log.Error("cannot create multiplexer", "error", err)
		return
	}
	defer ep.Close()

	if _, err := ep.Register(s.transport.Fd(), true); err != nil {
		s.log.Error("cannot register device descriptor", "error", err)
		return
	}

	var wakeToks []epoll.Token
	var wakeFds []int
	for _, n := range []*Notifier{s.reload, s.stop} {
		fd, cancel, err := n.Subscribe()
		if err != nil {
			s.log.Error("cannot create wakeup pipe", "error", err)
			return
		}
		defer cancel()
		tok, err := ep.Register(fd, true)
		if err != nil {
			s.log.Error("cannot register wakeup pipe", "error", err)
			return
		}
		wakeToks = append(wakeToks, tok)
		wakeFds = append(wakeFds, fd)
	}

	mode := evdev.ReadNormal
	for {
		if s.reload.Raised() || s.stop.Raised() {
			s.log.Debug("session exiting, reload or shutdown requested")
			return
		}

		ev, _, err := s.transport.NextEvent(mode)
		switch {
		case err == nil:
			if mode == evdev.ReadSync {
				// One resynchronizing read, then back to normal.
				mode = evdev.ReadNormal
			}
			if g, ok := s.events.AddEvent(ev.Time, ev.Type, ev.Code, ev.Value); ok {
				dispatch(s.gestures, g, s.exec, s.log)
			}

		case errors.Is(err, unix.EAGAIN):
			mode = evdev.ReadNormal
			if !s.await(ep, wakeToks, wakeFds) {
				return
			}

		case errors.Is(err, evdev.ErrDesync):
			s.log.Warn("kernel dropped events, resynchronizing")
			s.events.Reset()
			mode = evdev.ReadSync

		default:
			s.log.Error("device read failed", "error", err)
			return
		}
	}
}

// await blocks until the device or a wakeup pipe has data. Interrupted
// waits are retried; any other wait failure is fatal to this session.
func (s *Session) await(ep *epoll.Epoll, wakeToks []epoll.Token, wakeFds []int) bool {
	for {
		err := ep.Wait(-1)
		if err == nil {
			for i, tok := range wakeToks {
				if ep.IsReady(tok) {
					drainPipe(wakeFds[i])
				}
			}
			return true
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		s.log.Error("multiplexer wait failed", "error", err)
		return false
	}
}

// drainPipe empties a nonblocking wakeup pipe so its readiness does not
// re-fire on the next wait.
func drainPipe(fd int) {
	var buf [16]byte
	for {
		if _, err := unix.Read(fd, buf[:]); err != nil {
			return
		}
	}
}
