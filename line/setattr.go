package line

import (
	"github.com/tty-core/ttydrv/ringbuf"
	"github.com/tty-core/ttydrv/termios"
)

// SetAttr implements setattr (spec.md §4.8): installs next as the line's
// termios and reacts to whatever changed. Invoked after every TCSETS*
// ioctl once any drain-for-output precondition has been satisfied.
func (l *Line) SetAttr(next termios.Termios) {
	prev := l.Termios
	l.Termios = next

	if prev.Canonical() && !next.Canonical() {
		// Turning canonical mode off makes every word already in the ring
		// immediately deliverable.
		l.Ring.TagAll(ringbuf.EOT)
	}

	if l.DisarmTimer != nil {
		l.DisarmTimer()
	}
	l.TimerArmed = false

	switch {
	case next.Canonical():
		l.Min = 1
	case next.Char(termios.VMIN) == 0 && next.Char(termios.VTIME) > 0:
		// The timer forces min:=0 on fire; until then treat a VTIME-only
		// read as wanting at least one byte.
		l.Min = 1
	default:
		l.Min = int(next.Char(termios.VMIN))
	}

	if next.Iflag&termios.IXON == 0 {
		l.Inhibited = false
		l.Events = true
	}

	if prev.Ospeed != 0 && next.Ospeed == 0 {
		l.raiseSignal(SIGHUP)
		// Forces any outstanding read to complete with whatever is buffered,
		// including zero bytes, the same way a fired VTIME timer does.
		if l.Read.Active {
			l.Read.Min = 0
		}
		l.Events = true
	}

	if l.Ops != nil {
		_ = l.Ops.Ioctl(termios.TCSETS, &l.Termios)
	}
}
