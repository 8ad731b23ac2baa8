//go:build linux

package backend

import (
	"io"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/tty-core/ttydrv/termios"
)

// Serial is a back-end for a UART-style line. Input/output move through an
// io.ReadWriter exactly like Console (grounded the same way, on
// kylelemons-goat's pump-goroutine shape), but Ioctl additionally mirrors
// termios settings down to a real open file descriptor via
// golang.org/x/sys/unix, when one is supplied — grounded on
// Daedaluz-goserial/ioctl_linux.go and port_linux.go, which drive a real
// serial port's framing/speed through exactly these ioctls.
//
// Fd may be 0 (or negative) for a loopback/simulated serial line with no
// real hardware backing it, in which case Ioctl is a harmless no-op — the
// same "no-op for what doesn't apply" shape as backend.Nop, but scoped to
// just the hardware-facing method.
type Serial struct {
	mu       sync.Mutex
	buffered []byte
	rw       io.ReadWriter
	notify   func()
	closed   bool

	fd int // real device fd for Ioctl mirroring; <= 0 means none
}

// NewSerial starts pumping input from rw and returns a Serial back-end that
// writes output to rw. If fd > 0, Ioctl mirrors termios changes to that file
// descriptor with unix.IoctlSetTermios.
func NewSerial(rw io.ReadWriter, fd int, notify func()) *Serial {
	s := &Serial{rw: rw, fd: fd, notify: notify}
	if rw != nil {
		go s.pump(rw)
	}
	return s
}

func (s *Serial) pump(r io.Reader) {
	buf := make([]byte, 256)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			s.mu.Lock()
			if !s.closed {
				s.buffered = append(s.buffered, buf[:n]...)
			}
			s.mu.Unlock()
			if s.notify != nil {
				s.notify()
			}
		}
		if err != nil {
			return
		}
	}
}

// DevRead implements Ops.
func (s *Serial) DevRead(feed func(byte) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for n < len(s.buffered) {
		if !feed(s.buffered[n]) {
			break
		}
		n++
	}
	s.buffered = s.buffered[n:]
	return n
}

// Readable implements Ops.
func (s *Serial) Readable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buffered) > 0
}

// DevWrite implements Ops.
func (s *Serial) DevWrite(p []byte) (int, error) {
	if s.rw == nil {
		return len(p), nil
	}
	return s.rw.Write(p)
}

// Writable implements Ops.
func (s *Serial) Writable() bool { return true }

// Echo implements Ops.
func (s *Serial) Echo(b byte) {
	if s.rw != nil {
		s.rw.Write([]byte{b})
	}
}

// ICancel implements Ops.
func (s *Serial) ICancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffered = nil
}

// OCancel implements Ops; nothing is queued beyond the immediate Write call.
func (s *Serial) OCancel() {}

// Break implements Ops. With a real fd this would be TCSBRK/TIOCSBRK+
// TIOCCBRK; without one it is a no-op.
func (s *Serial) Break() {
	if s.fd > 0 {
		_ = unix.IoctlSetPointerInt(s.fd, unix.TCSBRK, 0)
	}
}

// Close implements Ops.
func (s *Serial) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.buffered = nil
}

// Ioctl implements Ops, mirroring termios speed/framing to the real device
// when one is attached.
func (s *Serial) Ioctl(req int, t *termios.Termios) error {
	if s.fd <= 0 || t == nil {
		return nil
	}
	switch req {
	case termios.TCSETS, termios.TCSETSW, termios.TCSETSF:
		native := unix.Termios{
			Iflag:  uint32(t.Iflag),
			Oflag:  uint32(t.Oflag),
			Cflag:  uint32(t.Cflag),
			Lflag:  uint32(t.Lflag),
			Ispeed: t.Ispeed,
			Ospeed: t.Ospeed,
		}
		copy(native.Cc[:], t.Cc[:])
		return unix.IoctlSetTermios(s.fd, unix.TCSETS, &native)
	default:
		return nil
	}
}
