package driver

import "github.com/tty-core/ttydrv/line"

// doPTYMasterRead and doPTYMasterWrite implement the master-side forwarding
// spec.md §6 calls for: non-ioctl requests on a PTY's master line bypass
// in_process/out_process entirely and relay raw bytes to the back-end,
// reusing ReadSlot/WriteSlot purely as suspend/revive bookkeeping so
// doCancel, doSelect, and the event pump can treat a master line like any
// other pending request.
func (d *Driver) doPTYMasterRead(l *line.Line, req Request) Reply {
	if l.Read.Active {
		return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusIOInProgress}
	}
	if req.Count <= 0 {
		return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusInvalid}
	}

	l.Read = line.ReadSlot{Active: true, ProcNr: req.ProcNr, Left: req.Count, Nonblock: req.Nonblock}
	d.drainPTYMasterRead(l)

	if len(l.Read.Buffer) > 0 {
		return d.finishRead(l)
	}

	if l.Read.Nonblock {
		l.Read = line.ReadSlot{}
		return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusWouldBlock}
	}

	l.Read.Revive = true
	return Reply{Kind: ReplyNone, ProcNr: req.ProcNr, Status: StatusSuspend}
}

func (d *Driver) drainPTYMasterRead(l *line.Line) {
	if !l.Read.Active || l.Read.Left <= 0 {
		return
	}
	l.Ops.DevRead(func(b byte) bool {
		if l.Read.Left <= 0 {
			return false
		}
		l.Read.Buffer = append(l.Read.Buffer, b)
		l.Read.Cum++
		l.Read.Left--
		return l.Read.Left > 0
	})
}

func (d *Driver) doPTYMasterWrite(l *line.Line, req Request) Reply {
	if l.Write.Active {
		return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusIOInProgress}
	}
	if req.Count <= 0 || len(req.Data) != req.Count {
		return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusInvalid}
	}

	l.Write = line.WriteSlot{
		Active:   true,
		ProcNr:   req.ProcNr,
		Data:     append([]byte(nil), req.Data...),
		Left:     req.Count,
		Nonblock: req.Nonblock,
	}

	d.pumpPTYMasterWriteOnce(l)

	if len(l.Write.Data) == 0 {
		reply := Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: Status(l.Write.Cum)}
		l.Write = line.WriteSlot{}
		return reply
	}

	if l.Write.Nonblock {
		cum := l.Write.Cum
		l.Write = line.WriteSlot{}
		if cum > 0 {
			return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: Status(cum)}
		}
		return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusWouldBlock}
	}

	l.Write.Revive = true
	return Reply{Kind: ReplyNone, ProcNr: req.ProcNr, Status: StatusSuspend}
}

func (d *Driver) pumpPTYMasterWriteOnce(l *line.Line) {
	if len(l.Write.Data) == 0 {
		return
	}
	n, err := l.Ops.DevWrite(l.Write.Data)
	if err != nil {
		d.log.Warn("pty master write failed", "line", l.Index, "err", err)
	}
	if n > len(l.Write.Data) {
		n = len(l.Write.Data)
	}
	l.Write.Data = l.Write.Data[n:]
	l.Write.Cum += n
	l.Write.Left -= n
}

// handlePTYMasterEvents is the event-pump counterpart of HandleEvents for a
// master line: it drains whatever the back-end has buffered straight into a
// waiting reader and pushes a waiting writer, without running any cooking.
func (d *Driver) handlePTYMasterEvents(l *line.Line) {
	l.Events = false

	d.drainPTYMasterRead(l)
	if l.Read.Active && len(l.Read.Buffer) > 0 {
		d.completeRead(l)
	}

	if l.Write.Active {
		d.pumpPTYMasterWriteOnce(l)
		if len(l.Write.Data) == 0 {
			reply := Reply{ProcNr: l.Write.ProcNr, Status: Status(l.Write.Cum)}
			wasSuspended := l.Write.Revive
			l.Write = line.WriteSlot{}
			if wasSuspended {
				reply.Kind = ReplyRevive
				d.cfg.Revive(reply)
			}
		}
	}

	d.selectRetry(l)
}
