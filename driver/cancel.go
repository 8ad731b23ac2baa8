package driver

import "github.com/tty-core/ttydrv/line"

// doCancel implements do_cancel (spec.md §4.11): revoke whichever
// outstanding request on this line belongs to req.ProcNr, matched against
// req.CancelOps (SelectRead for a pending read, SelectWrite for a pending
// write or drain-ioctl), and revive the canceled caller with
// StatusInterrupted. Replies StatusOK to the cancel request itself
// regardless of whether anything was actually outstanding to cancel —
// canceling a request that already completed is a no-op, not an error.
func (d *Driver) doCancel(l *line.Line, req Request) Reply {
	if req.CancelOps&line.SelectRead != 0 && l.Read.Active && l.Read.ProcNr == req.ProcNr {
		procNr := l.Read.ProcNr
		l.CancelRead()
		d.cfg.Revive(Reply{Kind: ReplyRevive, ProcNr: procNr, Status: StatusInterrupted})
	}

	if req.CancelOps&line.SelectWrite != 0 {
		if l.Write.Active && l.Write.ProcNr == req.ProcNr {
			procNr := l.Write.ProcNr
			l.CancelWrite()
			d.cfg.Revive(Reply{Kind: ReplyRevive, ProcNr: procNr, Status: StatusInterrupted})
		}
		if l.Ioctl.Active && l.Ioctl.ProcNr == req.ProcNr {
			procNr := l.Ioctl.ProcNr
			l.CancelIoctl()
			d.cfg.Revive(Reply{Kind: ReplyRevive, ProcNr: procNr, Status: StatusInterrupted})
		}
	}

	if l.Select.Proc == req.ProcNr {
		l.Select = line.SelectSlot{}
	}

	return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusOK}
}
