// Package backend defines the device back-end contract the driver invokes
// (spec.md §3 "back-end upcall table", §6 "Back-end operation vector") and a
// handful of concrete back-ends that stand in for the spec's out-of-scope
// hardware/peer collaborators: a loopback console, a serial line looped back
// to a peer io.ReadWriter, and a PTY pair. The driver core never reaches
// past this interface into real hardware or another process — exactly the
// spec's "described only by the interfaces the core requires" boundary.
package backend

import "github.com/tty-core/ttydrv/termios"

// Ops is the device back-end contract a line's driver object holds. It is
// the spec's "function-pointer back-end" re-expressed as a Go interface
// value, per spec.md §9's design note: "each line holds a value implementing
// the back-end contract ... The no-op back-end handles optional operations
// uniformly."
type Ops interface {
	// DevRead pulls whatever input bytes are currently available from the
	// device/peer and passes each one, in arrival order, to feed. feed
	// returns false to ask DevRead to stop handing over bytes (used when
	// the line's input ring fills mid-feed, spec.md §4.4 step 9). DevRead
	// returns the number of bytes it successfully handed to feed.
	DevRead(feed func(b byte) bool) int

	// Readable reports whether DevRead would hand over at least one byte
	// without blocking; the spec's devread(line, probe=1).
	Readable() bool

	// DevWrite writes already-post-processed output bytes (out_process has
	// already run over them) to the device or peer, returning the number of
	// bytes actually accepted.
	DevWrite(p []byte) (int, error)

	// Writable reports whether DevWrite would accept at least one byte
	// without blocking; the spec's devwrite(line, probe=1).
	Writable() bool

	// Echo emits one raw byte on the device's output path, bypassing
	// out_process — used for the echo/erase/reprint discipline, which does
	// its own width accounting (spec.md §4.5).
	Echo(b byte)

	// ICancel discards any input the back-end is holding uncommitted.
	ICancel()
	// OCancel discards any output the back-end has not yet transmitted.
	OCancel()
	// Break asserts a framing break condition, if the transport has one.
	Break()
	// Close releases back-end resources; called when the line's last
	// opener closes it.
	Close()
	// Ioctl lets the back-end mirror a termios/winsize change down to real
	// hardware (speed, framing, console font/keymap). req is one of the
	// termios package's ioctl request constants.
	Ioctl(req int, t *termios.Termios) error
}
