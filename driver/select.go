package driver

import "github.com/tty-core/ttydrv/line"

// doSelect implements do_select (spec.md §4.10): report whatever is ready
// immediately, and if req.SelectWatch asks for notification on the rest,
// remember the watcher so selectRetry (driver/events.go) can wake it later.
func (d *Driver) doSelect(l *line.Line, req Request) Reply {
	ready := l.SelectTry(req.SelectOps)

	if !req.SelectWatch || ready == req.SelectOps {
		l.Select = line.SelectSlot{}
		return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusOK, SelectReady: ready}
	}

	l.Select = line.SelectSlot{Ops: req.SelectOps &^ ready, Proc: req.ProcNr}
	return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusOK, SelectReady: ready}
}
