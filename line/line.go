// Package line implements the per-line terminal state and the POSIX line
// discipline algorithms that operate on it: input cooking (in_process),
// canonical-boundary-respecting delivery (in_transfer), output
// post-processing (out_process), the echo/erase/reprint quartet, and
// attribute recomputation after an ioctl (setattr). See spec.md §3-§4.
//
// A Line owns no concurrency of its own; it is plain state mutated
// synchronously by the driver's single-threaded dispatch loop (spec.md §5).
// Request/reply bookkeeping (suspend, revive, cancel matching) lives in the
// driver package, which reads and writes the slot fields declared here.
package line

import (
	"time"

	"github.com/tty-core/ttydrv/backend"
	"github.com/tty-core/ttydrv/ringbuf"
	"github.com/tty-core/ttydrv/termios"
)

// Signal identifies one of the few signals the line discipline itself can
// provoke (ISIG characters, hangup, window resize). Delivery to a process
// group is an external capability (spec.md §1's "kernel message-passing
// primitives" are out of scope); a Line only calls the RaiseSignal callback
// it was built with.
type Signal int

// Signals the line discipline raises.
const (
	SIGINT Signal = iota
	SIGQUIT
	SIGHUP
	SIGWINCH
)

func (s Signal) String() string {
	switch s {
	case SIGINT:
		return "SIGINT"
	case SIGQUIT:
		return "SIGQUIT"
	case SIGHUP:
		return "SIGHUP"
	case SIGWINCH:
		return "SIGWINCH"
	default:
		return "SIGNAL(?)"
	}
}

// ReadSlot is the pending-reader bookkeeping from spec.md §3. Buffer stands
// in for the bounce-buffer-then-copy-to-user-memory step of in_transfer;
// the actual virtual-address copy is the out-of-scope kernel primitive, so
// the driver drains Buffer into user memory itself once InTransfer reports
// progress.
type ReadSlot struct {
	Active   bool
	Caller   int32
	ProcNr   int32
	Buffer   []byte
	Left     int
	Cum      int
	Nonblock bool
	Revive   bool // inrepcode: true once suspended, reified later by a revive reply
	Min      int  // effective VMIN for this specific outstanding read
}

// WriteSlot is the pending-writer bookkeeping from spec.md §3.
type WriteSlot struct {
	Active   bool
	Caller   int32
	ProcNr   int32
	Data     []byte
	Left     int
	Cum      int
	Nonblock bool
	Revive   bool
}

// IoctlSlot is the pending-ioctl bookkeeping from spec.md §3, used only by
// TCSETSW/TCSETSF/TCDRAIN, which must wait for pending output to drain
// before applying (or merely observing) a termios change.
type IoctlSlot struct {
	Active  bool
	Caller  int32
	ProcNr  int32
	Req     int
	Next    termios.Termios
}

// SelectMask is the readiness bitmask spec.md §4.10 computes.
type SelectMask int

// Readiness bits.
const (
	SelectRead SelectMask = 1 << iota
	SelectWrite
	SelectException
)

// SelectSlot is the pending-watcher bookkeeping from spec.md §3.
type SelectSlot struct {
	Ops  SelectMask
	Proc int32
}

// Line is the per-device state spec.md §3 describes: identity, termios,
// the tagged input ring, the three pending-request slots, select
// bookkeeping, and the back-end this line drives bytes through.
type Line struct {
	Minor int
	Index int
	Ops   backend.Ops

	Termios  termios.Termios
	Winsize  termios.Winsize
	Position int
	Pgrp     int32
	OpenCt   int

	Inhibited bool // IXOFF/IXON flow-control latch
	Escaped   bool // literal-next (VLNEXT) latch
	Reprint   bool // dirty-echo flag: characters typed since the last reprint

	Ring *ringbuf.Ring

	Read   ReadSlot
	Write  WriteSlot
	Ioctl  IoctlSlot
	Select SelectSlot

	Events bool // edge flag: something changed that the dispatcher must observe

	Min        int  // baseline effective VMIN, recomputed by SetAttr
	TimerArmed bool // whether this line currently has an inter-byte/VTIME timer armed

	// ArmTimer and DisarmTimer let in_process (and SetAttr, and cancel) drive
	// this line's entry in the driver's shared timerset without the line
	// package depending on it directly.
	ArmTimer    func(d time.Duration)
	DisarmTimer func()

	// RaiseSignal delivers sig to pgrp. Process-group signal delivery is an
	// external capability (spec.md §1); a nil RaiseSignal makes every
	// signal-raising path a no-op, which is adequate for tests and for
	// back-ends with no associated process group.
	RaiseSignal func(pgrp int32, sig Signal)
}

// New returns a freshly initialized Line for the given minor/index, backed
// by ops (backend.Nop{} if ops is nil), with an input ring of the given
// capacity. Termios and winsize start at POSIX cooked defaults.
func New(minor, index int, ops backend.Ops, ringCapacity int) *Line {
	if ops == nil {
		ops = backend.Nop{}
	}
	l := &Line{
		Minor:   minor,
		Index:   index,
		Ops:     ops,
		Termios: termios.Default(),
		Ring:    ringbuf.New(ringCapacity),
		Min:     1,
	}
	return l
}

// Open records a new opener. Per spec.md §3's lifecycle note, lines are
// never destroyed; open/close only adjust OpenCt and reset state.
func (l *Line) Open() {
	l.OpenCt++
}

// Close drops one opener. When the last opener closes, termios and winsize
// reset to defaults and the back-end is asked to cancel outstanding I/O and
// close, per spec.md §3's invariant: "close on the last opener resets
// termios and winsize to defaults and asks the back-end to cancel and
// close."
func (l *Line) Close() {
	if l.OpenCt > 0 {
		l.OpenCt--
	}
	if l.OpenCt > 0 {
		return
	}
	l.Termios = termios.Default()
	l.Winsize = termios.Winsize{}
	l.Min = 1
	l.Inhibited = false
	l.Escaped = false
	l.Reprint = false
	l.Ring.Reset()
	l.Ops.ICancel()
	l.Ops.OCancel()
	l.Ops.Close()
}

// SetWinsize installs a new window size, raising SIGWINCH to the line's
// foreground process group if it actually changed. This resolves spec.md
// §9's open question ("TIOCSWINSZ is expected to raise SIGWINCH but the
// source does not") in favor of implementing it, per the spec's own
// recommendation.
func (l *Line) SetWinsize(ws termios.Winsize) {
	if ws == l.Winsize {
		return
	}
	l.Winsize = ws
	l.raiseSignal(SIGWINCH)
}

// CancelRead clears an outstanding read request, per spec.md §4.11: drop
// whatever partial bytes were accumulated, disarm any read timer, and raise
// events so the dispatcher notices the slot is free.
func (l *Line) CancelRead() {
	if !l.Read.Active {
		return
	}
	l.Read = ReadSlot{}
	if l.DisarmTimer != nil {
		l.DisarmTimer()
	}
	l.TimerArmed = false
	l.Events = true
}

// CancelWrite clears an outstanding write request, invoking the back-end's
// OCancel to discard whatever had not yet been transmitted.
func (l *Line) CancelWrite() {
	if !l.Write.Active {
		return
	}
	l.Ops.OCancel()
	l.Write = WriteSlot{}
	l.Events = true
}

// CancelIoctl clears an outstanding drain-for-ioctl request (TCSETSW/
// TCSETSF/TCDRAIN waiting on outleft==0).
func (l *Line) CancelIoctl() {
	l.Ioctl = IoctlSlot{}
}

func (l *Line) raiseSignal(sig Signal) {
	if l.RaiseSignal != nil {
		l.RaiseSignal(l.Pgrp, sig)
	}
}
