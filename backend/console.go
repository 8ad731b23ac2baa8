package backend

import (
	"io"
	"sync"

	"github.com/tty-core/ttydrv/termios"
)

// Console is a back-end that pumps bytes from an io.Reader (e.g. the
// keyboard translator's output, out of scope per spec.md §1) into an
// internal buffer the driver drains non-blockingly, and writes output
// straight through to an io.Writer (the screen renderer). It is grounded on
// kylelemons-goat/term/term.go's run() goroutine, which does the same
// "background read, hand chunks to the synchronous side" shape for its
// io.Reader console.
//
// The pump goroutine stands in for the spec's keyboard-interrupt upcall: it
// and Serial's pump are the only goroutines in this module that run
// concurrently with the driver's single-threaded loop, and it communicates
// with that loop only by
// appending to a mutex-guarded buffer and calling notify, mirroring "back-end
// ISR upcalls raise a per-line events flag" (spec.md §2).
type Console struct {
	mu       sync.Mutex
	buffered []byte
	out      io.Writer
	notify   func()
	closed   bool
}

// NewConsole starts pumping r into an internal buffer and returns a Console
// that writes echoed/output bytes to w. notify is called (possibly from the
// pump goroutine) whenever new input becomes available; it should raise the
// owning line's events flag and wake the driver's dispatch loop.
func NewConsole(r io.Reader, w io.Writer, notify func()) *Console {
	c := &Console{out: w, notify: notify}
	if r != nil {
		go c.pump(r)
	}
	return c
}

// SetNotify replaces the notify callback after construction. Used by
// driver.New to wire a line-aware wake-up once the owning line exists,
// since a back-end is built before the driver that will hold it.
func (c *Console) SetNotify(f func()) {
	c.mu.Lock()
	c.notify = f
	c.mu.Unlock()
}

func (c *Console) pump(r io.Reader) {
	buf := make([]byte, 256)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			c.mu.Lock()
			if !c.closed {
				c.buffered = append(c.buffered, buf[:n]...)
			}
			notify := c.notify
			c.mu.Unlock()
			if notify != nil {
				notify()
			}
		}
		if err != nil {
			return
		}
	}
}

// DevRead implements Ops.
func (c *Console) DevRead(feed func(byte) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for n < len(c.buffered) {
		if !feed(c.buffered[n]) {
			break
		}
		n++
	}
	c.buffered = c.buffered[n:]
	return n
}

// Readable implements Ops.
func (c *Console) Readable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffered) > 0
}

// DevWrite implements Ops.
func (c *Console) DevWrite(p []byte) (int, error) {
	if c.out == nil {
		return len(p), nil
	}
	return c.out.Write(p)
}

// Writable implements Ops: a screen write never blocks in this model.
func (c *Console) Writable() bool { return true }

// Echo implements Ops.
func (c *Console) Echo(b byte) {
	if c.out != nil {
		c.out.Write([]byte{b})
	}
}

// ICancel implements Ops: drops any buffered but undelivered input.
func (c *Console) ICancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buffered = nil
}

// OCancel implements Ops; the console has no in-flight output to discard.
func (c *Console) OCancel() {}

// Break implements Ops; consoles have no break condition.
func (c *Console) Break() {}

// Close implements Ops.
func (c *Console) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.buffered = nil
}

// Ioctl implements Ops. A plain console has no real framing/speed to
// reconfigure; KIOCSMAP/TIOCSFON are handled by ConsoleWithFont since they
// are console-only extensions the spec names in passing (§4.7).
func (c *Console) Ioctl(int, *termios.Termios) error { return nil }

// ConsoleWithFont extends Console with the two console-only ioctls the spec
// calls out: KIOCSMAP (load a keymap) and TIOCSFON (load an 8x16 console
// font). Both are opaque payloads from the driver's point of view; this
// back-end just stores the most recent one, standing in for "poke the
// framebuffer renderer."
type ConsoleWithFont struct {
	*Console

	mu     sync.Mutex
	keymap []byte
	font   []byte
}

// NewConsoleWithFont wraps NewConsole with keymap/font ioctl support.
func NewConsoleWithFont(r io.Reader, w io.Writer, notify func()) *ConsoleWithFont {
	return &ConsoleWithFont{Console: NewConsole(r, w, notify)}
}

// Ioctl implements Ops, overriding Console.Ioctl to additionally recognize
// KIOCSMAP and TIOCSFON; every other request code is a no-op success,
// matching the embedded Console's behavior.
func (c *ConsoleWithFont) Ioctl(req int, t *termios.Termios) error {
	switch req {
	case termios.KIOCSMAP:
		// The payload itself is copied in by the driver's ioctl dispatch
		// before this call in a full implementation; here we just record
		// that a load happened.
		c.mu.Lock()
		c.keymap = []byte{}
		c.mu.Unlock()
		return nil
	case termios.TIOCSFON:
		c.mu.Lock()
		c.font = make([]byte, termios.FontSize)
		c.mu.Unlock()
		return nil
	default:
		return c.Console.Ioctl(req, t)
	}
}
