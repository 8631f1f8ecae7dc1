//go:build linux

package daemon

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Notifier is a process-wide flag settable from outside normal control
// flow (signal handlers, filesystem watchers). Raising it also writes to
// every subscribed wakeup pipe so sessions blocked in an epoll wait
// notice immediately instead of on their next device event.
type Notifier struct {
	raised atomic.Bool

	mu    sync.Mutex
	wakes map[int]struct{} // pipe write ends
}

// NewNotifier returns a lowered notifier with no subscribers.
func NewNotifier() *Notifier {
	return &Notifier{wakes: make(map[int]struct{})}
}

// Raise sets the flag and wakes all subscribers.
func (n *Notifier) Raise() {
	n.raised.Store(true)
	n.mu.Lock()
	defer n.mu.Unlock()
	for fd := range n.wakes {
		// Nonblocking; a full pipe already has a pending wakeup.
		_, _ = unix.Write(fd, []byte{1})
	}
}

// Raised reports whether the flag is set.
func (n *Notifier) Raised() bool {
	return n.raised.Load()
}

// Clear lowers the flag, returning whether it was raised.
func (n *Notifier) Clear() bool {
	return n.raised.Swap(false)
}

// Subscribe creates a wakeup pipe for one session. The returned
// descriptor is the nonblocking read end to register with the session's
// multiplexer; cancel removes the subscription and closes both ends.
func (n *Notifier) Subscribe() (fd int, cancel func(), err error) {
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return 0, nil, err
	}
	n.mu.Lock()
	n.wakes[p[1]] = struct{}{}
	n.mu.Unlock()

	cancel = func() {
		n.mu.Lock()
		delete(n.wakes, p[1])
		n.mu.Unlock()
		_ = unix.Close(p[1])
		_ = unix.Close(p[0])
	}
	return p[0], cancel, nil
}
