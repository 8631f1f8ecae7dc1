//go:build linux

package evdev

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// eventSize is sizeof(struct input_event) on 64-bit: a 16-byte timeval
// followed by type, code and value.
const eventSize = 16 + 2 + 2 + 4

// readChunk is how many raw events one read syscall asks for.
const readChunk = 64

// Device is one open input device, read without blocking. Reads tolerate
// short counts: bytes of a partially delivered event are kept until the
// rest arrives.
type Device struct {
	fd   int
	path string
	name string

	buf     []byte
	pending []byte
	skipSyn bool // mid-resync: discarding until the next SYN_REPORT
}

// Open opens an input device node for non-blocking reads.
func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	d := &Device{
		fd:   fd,
		path: path,
		buf:  make([]byte, readChunk*eventSize),
	}
	d.name = deviceName(fd, path)
	return d, nil
}

// Fd exposes the descriptor for multiplexer registration.
func (d *Device) Fd() int { return d.fd }

// Path returns the device node path.
func (d *Device) Path() string { return d.path }

// Name returns a human-readable device identity for logging.
func (d *Device) Name() string { return d.name }

// Close releases the descriptor.
func (d *Device) Close() error {
	return unix.Close(d.fd)
}

// NextEvent returns the next raw event. Errors distinguish three cases:
// unix.EAGAIN when no data is available, ErrDesync when the kernel
// reported an overrun (the caller should retry with ReadSync), and
// anything else as fatal for this device.
func (d *Device) NextEvent(mode ReadMode) (Event, Status, error) {
	if mode == ReadSync {
		d.skipSyn = true
	}
	for {
		ev, err := d.next()
		if err != nil {
			return Event{}, StatusNormal, err
		}
		if d.skipSyn {
			if ev.Type == EvSyn && ev.Code == SynReport {
				d.skipSyn = false
			}
			continue
		}
		if ev.Type == EvSyn && ev.Code == SynDropped {
			return ev, StatusSync, ErrDesync
		}
		if mode == ReadSync {
			return ev, StatusSync, nil
		}
		return ev, StatusNormal, nil
	}
}

// next parses one event out of the pending buffer, refilling it from the
// descriptor as needed.
func (d *Device) next() (Event, error) {
	for len(d.pending) < eventSize {
		n, err := unix.Read(d.fd, d.buf)
		if err != nil {
			return Event{}, err
		}
		if n == 0 {
			return Event{}, fmt.Errorf("%s: device closed", d.path)
		}
		d.pending = append(d.pending, d.buf[:n]...)
	}

	raw := d.pending[:eventSize]
	sec := int64(binary.LittleEndian.Uint64(raw[0:8]))
	usec := int64(binary.LittleEndian.Uint64(raw[8:16]))
	ev := Event{
		Time:  float64(sec) + float64(usec)/1e6,
		Type:  binary.LittleEndian.Uint16(raw[16:18]),
		Code:  binary.LittleEndian.Uint16(raw[18:20]),
		Value: int32(binary.LittleEndian.Uint32(raw[20:24])),
	}
	d.pending = d.pending[eventSize:]
	if len(d.pending) == 0 {
		d.pending = nil
	}
	return ev, nil
}

// ioctl request encoding (the kernel's _IOC macro).
const (
	iocNRShift   = 0
	iocTypeShift = 8
	iocSizeShift = 16
	iocDirShift  = 30
	iocRead      = 2
)

// eviocgname builds EVIOCGNAME(size).
func eviocgname(size int) uint {
	return uint(iocRead<<iocDirShift | size<<iocSizeShift | 'E'<<iocTypeShift | 0x06<<iocNRShift)
}

// deviceName asks the kernel for the device's name, falling back to the
// node path when the ioctl is not supported.
func deviceName(fd int, path string) string {
	name := make([]byte, 256)
	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		uintptr(fd),
		uintptr(eviocgname(len(name))),
		uintptr(unsafe.Pointer(&name[0])),
	)
	if errno != 0 {
		return path
	}
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return string(name)
}
