//go:build linux

// Package epoll is a thin readiness-notification wrapper around
// epoll(7). Sessions use it to block until a device descriptor has data
// instead of busy-polling.
package epoll

import (
	"time"

	"golang.org/x/sys/unix"
)

// Token pairs a registered descriptor with an internal key so callers
// can ask "was this one ready?" without re-querying the kernel.
type Token struct {
	fd  int
	key uint64
}

// Epoll multiplexes read-readiness over a set of descriptors. Not safe
// for concurrent use; each session owns its own instance.
type Epoll struct {
	fd      int
	ready   []unix.EpollEvent
	nready  int
	nextKey uint64
}

// New creates the epoll instance. Fails with the underlying OS error if
// the kernel facility cannot be created.
func New() (*Epoll, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &Epoll{fd: fd}, nil
}

// Register adds fd for read-readiness interest. A non-persistent
// registration fires once and stays disarmed until Renew is called,
// which avoids spinning on a descriptor whose data was already drained.
func (e *Epoll) Register(fd int, persistent bool) (Token, error) {
	key := e.nextKey
	e.nextKey++

	events := uint32(unix.EPOLLIN)
	if !persistent {
		events |= unix.EPOLLONESHOT
	}
	ev := unix.EpollEvent{Events: events, Fd: int32(fd), Pad: int32(key)}
	if err := unix.EpollCtl(e.fd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return Token{}, err
	}
	e.ready = append(e.ready, unix.EpollEvent{})
	return Token{fd: fd, key: key}, nil
}

// Renew re-arms a one-shot registration after it has fired.
func (e *Epoll) Renew(t Token) error {
	ev := unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLONESHOT,
		Fd:     int32(t.fd),
		Pad:    int32(t.key),
	}
	return unix.EpollCtl(e.fd, unix.EPOLL_CTL_MOD, t.fd, &ev)
}

// Unregister removes interest in the descriptor entirely.
func (e *Epoll) Unregister(t Token) error {
	return unix.EpollCtl(e.fd, unix.EPOLL_CTL_DEL, t.fd, nil)
}

// Wait blocks until at least one registered descriptor is ready or the
// timeout elapses; a negative timeout blocks indefinitely. An
// interrupted wait returns unix.EINTR, which callers must treat as
// retryable rather than a failure.
func (e *Epoll) Wait(timeout time.Duration) error {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout.Milliseconds())
	}

	e.nready = 0
	if len(e.ready) == 0 {
		e.ready = append(e.ready, unix.EpollEvent{})
	}
	n, err := unix.EpollWait(e.fd, e.ready, ms)
	if err != nil {
		return err
	}
	e.nready = n
	return nil
}

// IsReady reports whether t's descriptor was among those reported ready
// by the most recent Wait. Only valid between a Wait and the next one.
func (e *Epoll) IsReady(t Token) bool {
	for _, ev := range e.ready[:e.nready] {
		if ev.Pad == int32(t.key) {
			return ev.Events&unix.EPOLLIN != 0
		}
	}
	return false
}

// Close releases the epoll descriptor.
func (e *Epoll) Close() error {
	return unix.Close(e.fd)
}
