package driver

import (
	"time"

	"github.com/tty-core/ttydrv/line"
	"github.com/tty-core/ttydrv/termios"
)

// doRead implements do_read (spec.md §4.2).
func (d *Driver) doRead(l *line.Line, req Request) Reply {
	if l.Read.Active {
		return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusIOInProgress}
	}
	if req.Count <= 0 {
		return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusInvalid}
	}

	l.Read = line.ReadSlot{
		Active:   true,
		ProcNr:   req.ProcNr,
		Left:     req.Count,
		Nonblock: req.Nonblock,
	}
	d.armReadTimer(l)

	if l.InTransfer() {
		return d.finishRead(l)
	}

	// Pull whatever the back-end already has waiting, same as the event
	// pump's devread step, before deciding whether to suspend.
	l.Ops.DevRead(func(b byte) bool { return l.InProcess([]byte{b}) == 1 })
	if l.InTransfer() {
		return d.finishRead(l)
	}

	if l.Read.Nonblock {
		cum, data := l.Read.Cum, l.Read.Buffer
		l.Read = line.ReadSlot{}
		if cum > 0 {
			return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: Status(cum), Data: data}
		}
		return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusWouldBlock}
	}

	l.Read.Revive = true
	return Reply{Kind: ReplyNone, ProcNr: req.ProcNr, Status: StatusSuspend}
}

// armReadTimer computes the VMIN/VTIME effective-min table from spec.md
// §4.2/§4.9 for a freshly started read, arming the single-shot VTIME-only
// timer up front when that row applies.
func (d *Driver) armReadTimer(l *line.Line) {
	t := &l.Termios
	vmin, vtime := t.Char(termios.VMIN), t.Char(termios.VTIME)

	switch {
	case t.Canonical():
		l.Read.Min = 1
	case vtime > 0 && vmin == 0:
		// Raw, VTIME>0, VMIN=0: arm a single-shot read timer now; effective
		// min:=1 until the timer forces it to 0.
		l.Read.Min = 1
		if l.ArmTimer != nil {
			l.ArmTimer(time.Duration(vtime) * 100 * time.Millisecond)
			l.TimerArmed = true
		}
	case vtime > 0 && vmin > 0:
		// Raw, VTIME>0, VMIN>0: inter-byte timer, armed on the first
		// received byte by in_process — unless input is already queued, in
		// which case it's effectively already "mid inter-byte wait".
		l.Read.Min = int(vmin)
		if l.Ring.Len() > 0 && !l.TimerArmed && l.ArmTimer != nil {
			l.ArmTimer(time.Duration(vtime) * 100 * time.Millisecond)
			l.TimerArmed = true
		}
	default:
		// Canonical with VTIME==0 is handled above; this is raw with
		// VTIME==0, where effective min is VMIN directly (VMIN==0 meaning
		// "return immediately with whatever is present").
		l.Read.Min = int(vmin)
	}
}

func (d *Driver) finishRead(l *line.Line) Reply {
	reply := Reply{Kind: ReplyTaskReply, ProcNr: l.Read.ProcNr, Status: Status(l.Read.Cum), Data: l.Read.Buffer}
	if l.DisarmTimer != nil {
		l.DisarmTimer()
	}
	l.TimerArmed = false
	l.Read = line.ReadSlot{}
	return reply
}
