package backend

import "github.com/tty-core/ttydrv/termios"

// Nop is the shared no-op back-end. Spec.md §9 flags that the source's
// tty_devnop "returns no value ... likely a latent bug"; this
// implementation makes the choice explicit: a line with no real device
// behind it never has input (Readable is always false, DevRead always hands
// over zero bytes) and never accepts output (Writable is always false,
// DevWrite always reports zero bytes written).
type Nop struct{}

// DevRead never has bytes to offer.
func (Nop) DevRead(func(byte) bool) int { return 0 }

// Readable is always false: there is never anything to read.
func (Nop) Readable() bool { return false }

// DevWrite accepts nothing and reports zero bytes written.
func (Nop) DevWrite(p []byte) (int, error) { return 0, nil }

// Writable is always false: there is no device to write to.
func (Nop) Writable() bool { return false }

// Echo discards the byte.
func (Nop) Echo(byte) {}

// ICancel is a no-op.
func (Nop) ICancel() {}

// OCancel is a no-op.
func (Nop) OCancel() {}

// Break is a no-op.
func (Nop) Break() {}

// Close is a no-op.
func (Nop) Close() {}

// Ioctl always succeeds without doing anything.
func (Nop) Ioctl(int, *termios.Termios) error { return nil }
