package driver

import "github.com/tty-core/ttydrv/line"

// doWrite implements do_write (spec.md §4.3).
func (d *Driver) doWrite(l *line.Line, req Request) Reply {
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

	if !l.Inhibited {
		d.pumpWriteOnce(l)
	}

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

// pumpWriteOnce is the write side of the event pump, factored out so doWrite
// can invoke it synchronously once before deciding whether to suspend, and
// HandleEvents (driver/events.go's pumpWrite) can invoke the same logic
// later to drain a suspended write as back-end writability returns.
func (d *Driver) pumpWriteOnce(l *line.Line) {
	if len(l.Write.Data) == 0 {
		return
	}
	out := l.OutProcess(l.Write.Data)
	n, err := l.Ops.DevWrite(out)
	if err != nil {
		d.log.Warn("device write failed", "line", l.Index, "err", err)
	}
	if n > len(l.Write.Data) {
		n = len(l.Write.Data)
	}
	l.Write.Data = l.Write.Data[n:]
	l.Write.Cum += n
	l.Write.Left -= n
}
