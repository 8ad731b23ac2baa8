package line

import "github.com/tty-core/ttydrv/ringbuf"

// InTransfer implements in_transfer (spec.md §4.2): copies ready bytes from
// the input ring into the outstanding read's bounce buffer, honoring
// canonical line boundaries. It reports whether the read slot is now
// satisfied and should be completed by the driver (either because inleft
// reached 0, a canonical EOT boundary was reached, or min==0 means "deliver
// whatever is present, even zero bytes" — the VTIME-forced and hangup
// paths).
//
// Delivery rule: delivers when inleft>0 and eotct>=min. In canonical mode,
// delivery stops at and including the EOT word, so a single read call never
// crosses a line boundary. EOF-tagged words are consumed but never copied
// into the caller's buffer.
func (l *Line) InTransfer() bool {
	rs := &l.Read
	if !rs.Active || rs.Left <= 0 {
		return false
	}
	if l.Ring.EOTCount() < rs.Min {
		return false
	}

	canonical := l.Termios.Canonical()

	for rs.Left > 0 {
		w, ok := l.Ring.Peek()
		if !ok {
			break
		}
		l.Ring.Pop()

		if w.Has(ringbuf.EOF) {
			if canonical {
				rs.Left = 0
				return true
			}
			continue
		}

		rs.Buffer = append(rs.Buffer, w.Char())
		rs.Cum++
		rs.Left--

		if canonical && w.Has(ringbuf.EOT) {
			rs.Left = 0
			return true
		}
	}

	if rs.Left == 0 {
		return true
	}
	// min==0 means this attempt is complete regardless of how much was
	// delivered: the VTIME-expiry and hangup paths both force min to 0
	// specifically so a read that has been waiting returns immediately,
	// even with zero bytes (observed by the caller as EOF/timeout).
	return rs.Min == 0
}
