package line

import (
	"time"

	"github.com/tty-core/ttydrv/ringbuf"
	"github.com/tty-core/ttydrv/termios"
)

// InProcess cooks inbound bytes per spec.md §4.4: stripping, literal-next
// and reprint interception, CR/LF translation, canonical erase/kill/EOF/EOL
// handling, IXON flow control, ISIG signal generation, overflow handling,
// and echo, enqueueing the result onto the input ring. It returns the
// number of bytes consumed, which may be less than len(data) if the ring
// filled mid-pass in raw mode (step 9: "stop processing further bytes in
// raw mode").
func (l *Line) InProcess(data []byte) int {
	consumed := 0
	for _, ch := range data {
		if !l.inProcessByte(ch) {
			break
		}
		consumed++
	}
	return consumed
}

func (l *Line) inProcessByte(ch byte) bool {
	t := &l.Termios

	if t.Iflag&termios.ISTRIP != 0 {
		ch &= 0x7f
	}

	// Step 2: IEXTEN literal-next. A byte arriving right after VLNEXT is
	// tagged ESC below (suppressing further interpretation) instead of
	// being interpreted itself.
	literal := l.Escaped
	l.Escaped = false

	if !literal && t.Lflag&termios.IEXTEN != 0 && isEnabled(t, termios.VLNEXT, ch) {
		l.Escaped = true
		l.RawEcho('^')
		l.RawEcho('\b')
		return true
	}

	// Step 3: IEXTEN reprint.
	if !literal && t.Lflag&termios.IEXTEN != 0 && isEnabled(t, termios.VREPRINT, ch) {
		l.DoReprint()
		return true
	}

	// Step 4: POSIX-VDISABLE protection. A byte whose value happens to
	// equal the disable sentinel (0) would otherwise spuriously match a
	// disabled control-character slot in the comparisons below; treat it
	// like a literal-next byte instead.
	suppress := literal || ch == termios.VDISABLE

	// Step 5: CR/LF translation.
	if !suppress {
		switch {
		case t.Iflag&termios.IGNCR != 0 && ch == '\r':
			return true
		case t.Iflag&termios.ICRNL != 0 && ch == '\r':
			ch = '\n'
		case t.Iflag&termios.INLCR != 0 && ch == '\n':
			ch = '\r'
		}
	}

	// Step 6: ICANON erase/kill/EOF/EOL.
	if !suppress && t.Canonical() {
		switch {
		case isEnabled(t, termios.VERASE, ch):
			erased := l.BackOver()
			if t.Lflag&termios.ECHOE == 0 && erased {
				l.RawEcho(ch)
			}
			return true
		case isEnabled(t, termios.VKILL, ch):
			for l.BackOver() {
			}
			if t.Lflag&termios.ECHOE == 0 {
				l.RawEcho(ch)
				if t.Lflag&termios.ECHOK != 0 {
					l.RawEcho('\n')
				}
			}
			return true
		case isEnabled(t, termios.VEOF, ch):
			return l.enqueue(ch, ringbuf.EOT|ringbuf.EOF)
		case ch == '\n':
			return l.enqueue(ch, ringbuf.EOT)
		case isEnabled(t, termios.VEOL, ch):
			return l.enqueue(ch, ringbuf.EOT)
		}
	}

	// Step 7: IXON flow control.
	if !suppress && t.Iflag&termios.IXON != 0 {
		if isEnabled(t, termios.VSTOP, ch) {
			l.Inhibited = true
			l.Events = true
			return true
		}
		if l.Inhibited {
			start := isEnabled(t, termios.VSTART, ch)
			if start || t.Iflag&termios.IXANY != 0 {
				l.Inhibited = false
				l.Events = true
				if start {
					return true
				}
			}
		}
	}

	// Step 8: ISIG.
	if !suppress && t.Lflag&termios.ISIG != 0 {
		if isEnabled(t, termios.VINTR, ch) {
			l.raiseSignal(SIGINT)
			l.RawEcho(ch)
			return true
		}
		if isEnabled(t, termios.VQUIT, ch) {
			l.raiseSignal(SIGQUIT)
			l.RawEcho(ch)
			return true
		}
	}

	tag := ringbuf.Tag(0)
	if suppress {
		tag |= ringbuf.ESC
	}
	if !t.Canonical() {
		// Step 10 (part): in raw mode every stored byte is a deliverable unit.
		tag |= ringbuf.EOT
	}

	return l.enqueue(ch, tag)
}

// isEnabled reports whether ch matches the control character stored at cc,
// guarding against a disabled (VDISABLE) slot ever matching.
func isEnabled(t *termios.Termios, cc termios.CC, ch byte) bool {
	v := t.Char(cc)
	return v != termios.VDISABLE && ch == v
}

// enqueue is steps 9-12 of in_process: overflow handling, inter-byte timer
// arming, echo, and pushing the tagged word onto the ring.
func (l *Line) enqueue(ch byte, tag ringbuf.Tag) bool {
	t := &l.Termios

	if l.Ring.Full() {
		if t.Canonical() {
			// Step 9: drop in canonical mode, keep processing.
			return true
		}
		// Step 9: stop processing further bytes in raw mode.
		return false
	}

	// Step 10: in raw mode with VMIN>0 and VTIME>0, arm the inter-byte
	// timer unless this line's timer is already armed.
	if !t.Canonical() {
		vmin, vtime := t.Char(termios.VMIN), t.Char(termios.VTIME)
		if vmin > 0 && vtime > 0 && !l.TimerArmed && l.ArmTimer != nil {
			l.ArmTimer(time.Duration(vtime) * 100 * time.Millisecond)
			l.TimerArmed = true
		}
	}

	// Step 11: echo.
	echoNow := t.Lflag&termios.ECHO != 0 ||
		(tag&ringbuf.EOT != 0 && ch == '\n' && t.Lflag&termios.ECHONL != 0)

	w := ringbuf.NewWord(ch).WithTag(tag)
	if echoNow {
		w = l.echoWord(w)
	}

	// Step 12: enqueue.
	l.Ring.Push(w)
	l.Events = true
	if l.Ring.Full() {
		// "if ring now full, call in_transfer to drain" — InTransfer is
		// idempotent and cheap to call speculatively; the driver's event
		// pump calls it on every Events-raising pass, so setting Events
		// here is what actually triggers that drain.
		l.Events = true
	}
	return true
}
