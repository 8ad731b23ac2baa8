package driver

import (
	"encoding/binary"

	"github.com/tty-core/ttydrv/line"
	"github.com/tty-core/ttydrv/termios"
)

// doIoctl implements the IOCTL dispatch table from spec.md §4.7.
func (d *Driver) doIoctl(entry *tableEntry, req Request) Reply {
	l := entry.line

	// tcdrain(3) has no ioctl number of its own on Linux; it is implemented
	// as ioctl(fd, TCSBRK, 1). The two are told apart here the same way libc
	// tells them apart: by the argument, not the request code, so TCDRAIN is
	// not a separate switch case (it would collide with TCSBRK's constant).
	isDrainOnly := req.IoctlReq == termios.TCSBRK && len(req.Data) >= 1 && req.Data[0] == 1

	switch {
	case req.IoctlReq == termios.TCSETSW || req.IoctlReq == termios.TCSETSF || isDrainOnly:
		if l.Write.Active {
			l.Ioctl = line.IoctlSlot{Active: true, ProcNr: req.ProcNr, Req: req.IoctlReq}
			if !isDrainOnly {
				t, ok := decodeTermios(req.Data)
				if !ok {
					l.Ioctl = line.IoctlSlot{}
					return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusFault}
				}
				l.Ioctl.Next = t
			}
			return Reply{Kind: ReplyNone, ProcNr: req.ProcNr, Status: StatusSuspend}
		}
		if req.IoctlReq == termios.TCSETSF {
			l.CancelRead()
		}
		if !isDrainOnly {
			t, ok := decodeTermios(req.Data)
			if !ok {
				return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusFault}
			}
			l.SetAttr(t)
		}
		return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusOK}

	case req.IoctlReq == termios.TCSETS:
		t, ok := decodeTermios(req.Data)
		if !ok {
			return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusFault}
		}
		l.SetAttr(t)
		return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusOK}

	case req.IoctlReq == termios.TCGETS:
		return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusOK, Data: encodeTermios(l.Termios)}

	case req.IoctlReq == termios.TCFLSH:
		if len(req.Data) < 1 {
			return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusInvalid}
		}
		switch req.Data[0] {
		case termios.TCIFLUSH:
			l.Ring.Reset()
		case termios.TCOFLUSH:
			l.Ops.OCancel()
		case termios.TCIOFLUSH:
			l.Ring.Reset()
			l.Ops.OCancel()
		default:
			return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusInvalid}
		}
		return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusOK}

	case req.IoctlReq == termios.TCXONC:
		if len(req.Data) < 1 {
			return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusInvalid}
		}
		switch req.Data[0] {
		case termios.TCOOFF:
			l.Inhibited = true
			l.Events = true
		case termios.TCOON:
			l.Inhibited = false
			l.Events = true
		case termios.TCIOFF:
			l.RawEcho(l.Termios.Char(termios.VSTOP))
		case termios.TCION:
			l.RawEcho(l.Termios.Char(termios.VSTART))
		default:
			return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusInvalid}
		}
		return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusOK}

	case req.IoctlReq == termios.TCSBRK:
		l.Ops.Break()
		return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusOK}

	case req.IoctlReq == termios.TIOCGWINSZ:
		return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusOK, Data: encodeWinsize(l.Winsize)}

	case req.IoctlReq == termios.TIOCSWINSZ:
		ws, ok := decodeWinsize(req.Data)
		if !ok {
			return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusFault}
		}
		l.SetWinsize(ws)
		return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusOK}

	case req.IoctlReq == termios.KIOCSMAP || req.IoctlReq == termios.TIOCSFON:
		if entry.kind != kindConsole {
			return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusNotATTY}
		}
		if err := l.Ops.Ioctl(req.IoctlReq, &l.Termios); err != nil {
			return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusInvalid}
		}
		return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusOK}

	default:
		return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusNotATTY}
	}
}

// applyDrainedIoctl runs the TCSETSW/TCSETSF/TCDRAIN continuation once
// pending output has fully drained, per spec.md §4.7: "event pump calls
// dev_ioctl when outleft==0, which then cancels input for TCSETSF, copies
// in the new termios (TCSETS*), calls setattr, and replies with revive."
func (d *Driver) applyDrainedIoctl(l *line.Line) {
	req := l.Ioctl.Req
	if req == termios.TCSETSF {
		l.CancelRead()
	}
	if req != termios.TCDRAIN {
		l.SetAttr(l.Ioctl.Next)
	}
	reply := Reply{Kind: ReplyRevive, ProcNr: l.Ioctl.ProcNr, Status: StatusOK}
	l.Ioctl = line.IoctlSlot{}
	d.cfg.Revive(reply)
}

func decodeTermios(data []byte) (termios.Termios, bool) {
	var t termios.Termios
	const fixedSize = 4 * 4 // Iflag/Oflag/Cflag/Lflag as uint32
	if len(data) < fixedSize+32+8 {
		return t, false
	}
	t.Iflag = termios.InputFlag(binary.LittleEndian.Uint32(data[0:4]))
	t.Oflag = termios.OutputFlag(binary.LittleEndian.Uint32(data[4:8]))
	t.Cflag = termios.ControlFlag(binary.LittleEndian.Uint32(data[8:12]))
	t.Lflag = termios.LocalFlag(binary.LittleEndian.Uint32(data[12:16]))
	copy(t.Cc[:], data[16:48])
	t.Ispeed = binary.LittleEndian.Uint32(data[48:52])
	t.Ospeed = binary.LittleEndian.Uint32(data[52:56])
	return t, true
}

func encodeTermios(t termios.Termios) []byte {
	out := make([]byte, 56)
	binary.LittleEndian.PutUint32(out[0:4], uint32(t.Iflag))
	binary.LittleEndian.PutUint32(out[4:8], uint32(t.Oflag))
	binary.LittleEndian.PutUint32(out[8:12], uint32(t.Cflag))
	binary.LittleEndian.PutUint32(out[12:16], uint32(t.Lflag))
	copy(out[16:48], t.Cc[:])
	binary.LittleEndian.PutUint32(out[48:52], t.Ispeed)
	binary.LittleEndian.PutUint32(out[52:56], t.Ospeed)
	return out
}

func decodeWinsize(data []byte) (termios.Winsize, bool) {
	var ws termios.Winsize
	if len(data) < 8 {
		return ws, false
	}
	ws.Row = binary.LittleEndian.Uint16(data[0:2])
	ws.Col = binary.LittleEndian.Uint16(data[2:4])
	ws.Xpixel = binary.LittleEndian.Uint16(data[4:6])
	ws.Ypixel = binary.LittleEndian.Uint16(data[6:8])
	return ws, true
}

func encodeWinsize(ws termios.Winsize) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint16(out[0:2], ws.Row)
	binary.LittleEndian.PutUint16(out[2:4], ws.Col)
	binary.LittleEndian.PutUint16(out[4:6], ws.Xpixel)
	binary.LittleEndian.PutUint16(out[6:8], ws.Ypixel)
	return out
}
