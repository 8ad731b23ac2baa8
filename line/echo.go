package line

import (
	"github.com/tty-core/ttydrv/ringbuf"
	"github.com/tty-core/ttydrv/termios"
)

// RawEcho emits one byte straight to the back-end's output path, bypassing
// width accounting. Used for the fixed two/one-byte indicators the
// discipline emits outside the normal per-character echo contract: the
// literal-next marker, an erase/kill character echoed because ECHOE is
// off, and the ISIG interrupt/quit characters.
func (l *Line) RawEcho(ch byte) {
	l.Ops.Echo(ch)
}

// echoWord implements tty_echo (spec.md §4.5): renders w's character on
// the back-end's output path and returns w with its echoed width stored in
// LEN, for later use by BackOver/DoReprint.
func (l *Line) echoWord(w ringbuf.Word) ringbuf.Word {
	ch := w.Char()
	width := 0

	switch {
	case ch == '\t':
		for {
			l.Ops.Echo(' ')
			l.Position = (l.Position + 1) % termios.TabSize
			width++
			if l.Position == 0 {
				break
			}
		}
	case w.Has(ringbuf.EOT) && (ch == '\n' || ch == '\r'):
		// Physical newline: emit raw, width 0 (position reset is the
		// back-end's concern for real output; out_process handles it for
		// the bytes that actually flow through it).
		l.Ops.Echo(ch)
		l.Position = 0
	case ch < 0x20:
		l.Ops.Echo('^')
		l.Ops.Echo('@' + ch)
		width = 2
	case ch == 0x7f:
		l.Ops.Echo('^')
		l.Ops.Echo('?')
		width = 2
	default:
		l.Ops.Echo(ch)
		width = 1
	}

	if w.Has(ringbuf.EOF) {
		// EOF is consumed, never delivered; its echo (if any) must be
		// invisible on screen.
		for i := 0; i < width; i++ {
			l.Ops.Echo('\b')
		}
	}

	return w.WithLen(width)
}

// BackOver implements back_over: pops the newest erasable (non-EOT) word
// from the ring and, if ECHOE is set, visually erases it with "\b \b"
// repeated for its echoed width. It returns false (and leaves the ring
// untouched) if the ring is empty or the newest word is an EOT boundary —
// line breaks are never erased.
func (l *Line) BackOver() bool {
	w, ok := l.Ring.PopTail()
	if !ok {
		return false
	}
	if l.Termios.Lflag&termios.ECHOE != 0 {
		for i := 0; i < w.Len(); i++ {
			l.Ops.Echo('\b')
			l.Ops.Echo(' ')
			l.Ops.Echo('\b')
		}
	}
	l.Events = true
	return true
}

// DoReprint implements reprint: walks back from the tail to the prior EOT
// boundary (or the start of the ring), echoes the VREPRINT character
// itself in ^X form (it is not stored in the ring), then CR LF,
// then re-echoes every word since that boundary in forward order,
// refreshing each word's stored LEN since the rendered width may differ
// this time around. It is a no-op if nothing has been typed since the last
// EOT. Clears the Reprint dirty flag.
func (l *Line) DoReprint() {
	n := l.Ring.LastNonEOTOffset()
	if n == 0 {
		l.Reprint = false
		return
	}

	reprintCh := l.Termios.Char(termios.VREPRINT)
	l.Ops.Echo('^')
	l.Ops.Echo('@' + reprintCh)
	l.Ops.Echo('\r')
	l.Ops.Echo('\n')

	saved := l.Reprint
	for offset := n - 1; offset >= 0; offset-- {
		w, ok := l.Ring.PeekAt(offset)
		if !ok {
			continue
		}
		l.Reprint = false
		w = l.echoWord(w)
		l.Ring.UpdateTail(offset, w)
		l.Reprint = saved
	}

	l.Reprint = false
}
