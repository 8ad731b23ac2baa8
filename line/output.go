package line

import "github.com/tty-core/ttydrv/termios"

// OutProcess implements out_process (spec.md §4.6): post-processes bytes a
// writer wants put on the wire, tracking and updating the column position
// that echo and future out_process calls rely on.
//
// The source runs this in place over a fixed-capacity circular device
// output buffer, stopping when a rewriting expansion (CRNL, tab-to-spaces)
// cannot fit in the free slots remaining. This re-implementation targets an
// io.Writer back-end instead, which has no such fixed-capacity constraint
// of its own (it already has to handle partial writes/blocking on its own
// terms — see backend.Ops.Writable), so OutProcess collapses to a single
// pass producing a freshly sized output slice; the column-tracking and
// expansion rules themselves are unchanged.
func (l *Line) OutProcess(data []byte) []byte {
	opost := l.Termios.Oflag&termios.OPOST != 0

	out := make([]byte, 0, len(data))
	for _, ch := range data {
		switch ch {
		case 0x07: // BEL: no column change.
			out = append(out, ch)
		case 0x08: // BS
			out = append(out, ch)
			if l.Position > 0 {
				l.Position--
			}
		case '\r':
			out = append(out, ch)
			l.Position = 0
		case '\n':
			if opost && l.Termios.Oflag&termios.ONLCR != 0 {
				out = append(out, '\r', '\n')
			} else {
				out = append(out, ch)
			}
			l.Position = 0
		case '\t':
			width := termios.TabSize - (l.Position % termios.TabSize)
			if opost && l.Termios.Oflag&termios.XTABS != 0 {
				for i := 0; i < width; i++ {
					out = append(out, ' ')
				}
			} else {
				out = append(out, ch)
			}
			l.Position = (l.Position + width) % termios.TabSize
		default:
			out = append(out, ch)
			l.Position = (l.Position + 1) % termios.TabSize
		}
	}
	return out
}
