package driver

import (
	"context"
	"time"

	"github.com/tty-core/ttydrv/line"
)

// Envelope pairs a synchronous Request with the channel Dispatch's reply is
// sent on. Every request gets exactly one value on Reply; for a suspended
// request that value has Kind ReplyNone and Status StatusSuspend, and its
// eventual completion arrives later through Config.Revive instead, like the
// spec's REVIVE message.
type Envelope struct {
	Request Request
	Reply   chan<- Reply
}

// HandleEvents is the event pump (spec.md §2/§4.1's `handle_events`): pulls
// whatever input is available from idx's back-end through in_process,
// pushes any pending output, and finally attempts in_transfer to satisfy a
// waiting reader. It is called whenever a line's Events flag is observed
// set, and is idempotent if called speculatively.
func (d *Driver) HandleEvents(idx int) {
	if idx < 0 || idx >= len(d.entries) {
		return
	}
	if d.entries[idx].kind == kindPTYMaster {
		d.handlePTYMasterEvents(d.entries[idx].line)
		return
	}

	l := d.lineAt(idx)
	if l == nil {
		return
	}
	l.Events = false

	l.Ops.DevRead(func(b byte) bool {
		return l.InProcess([]byte{b}) == 1
	})

	if !l.Inhibited {
		d.pumpWrite(l)
	}

	if l.Read.Active {
		if l.InTransfer() {
			d.completeRead(l)
		}
	}

	if l.Ioctl.Active && !l.Write.Active {
		d.applyDrainedIoctl(l)
	}

	d.selectRetry(l)
}

// pollBackends marks Events for any line whose back-end reports readiness.
// A back-end's own upcall goroutine (Console's pump, a PTY peer write)
// never touches Line state directly — it only calls Driver.Wake — so this
// is where that asynchronous readiness actually gets folded into the
// single-threaded Events bookkeeping scanEvents relies on.
func (d *Driver) pollBackends() {
	for i := range d.entries {
		l := d.entries[i].line
		if l.Ops.Readable() {
			l.Events = true
		}
		if l.Write.Active && l.Ops.Writable() {
			l.Events = true
		}
	}
}

// scanEvents runs HandleEvents for every line whose Events flag is set,
// before the dispatcher blocks on its next receive — spec.md §5's
// guarantee that "after any back-end upcall sets events, the next loop
// iteration will observe and drain it before blocking on another message."
func (d *Driver) scanEvents() {
	for i := range d.entries {
		if d.entries[i].line.Events {
			d.HandleEvents(i)
		}
	}
}

// expireTimers forces min:=0 and raises events for every line whose read
// timer has fired, per spec.md §4.9's expiry callback, then drains the
// resulting events immediately.
func (d *Driver) expireTimers(now time.Time) {
	for _, idx := range d.timers.ExpireDue(now) {
		l := d.lineAt(idx)
		if l == nil {
			continue
		}
		l.TimerArmed = false
		l.Read.Min = 0
		l.Events = true
	}
	d.scanEvents()
}

func (d *Driver) nextTimeout(now time.Time) time.Duration {
	deadline, ok := d.timers.NextDeadline()
	if !ok {
		return time.Hour
	}
	if !deadline.After(now) {
		return 0
	}
	return deadline.Sub(now)
}

// Run is the single-threaded dispatch loop (spec.md §4.1/§5): on each
// iteration it drains pending line events, then makes exactly one blocking
// receive — either a synchronous Request or the next timer deadline —
// which is the spec's single suspension point. It returns when ctx is
// done.
//
// Grounded on kylelemons-goat/term/term.go's run(), which loops forever,
// drains pending mutations via t.yield() before every blocking read; and
// on ehrlich-b/go-ublk/internal/queue/runner.go's ioLoop, whose halt-on-
// invariant-violation shape this adapts for spec.md §7's fatal-error class
// (a *FatalError panic here is not recovered — it propagates out of Run so
// an embedder sees the crash, matching "halts the driver with a
// diagnostic").
func (d *Driver) Run(ctx context.Context, requests <-chan Envelope) {
	for {
		d.pollBackends()
		d.scanEvents()

		timeout := d.nextTimeout(time.Now())
		timer := time.NewTimer(timeout)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case env, ok := <-requests:
			timer.Stop()
			if !ok {
				return
			}
			d.handleEnvelope(env)
		case <-timer.C:
			d.expireTimers(time.Now())
		case <-d.wake:
			timer.Stop()
		}
	}
}

func (d *Driver) handleEnvelope(env Envelope) {
	reply := d.Dispatch(env.Request)
	if env.Reply != nil {
		env.Reply <- reply
	}
}

// Dispatch routes one Request to its handler, per spec.md §4.1. An unknown
// or unconfigured minor yields StatusBadMinor for any device request.
func (d *Driver) Dispatch(req Request) Reply {
	switch req.Op {
	case OpTimerTick:
		d.expireTimers(time.Now())
		return Reply{Kind: ReplyNone}
	case OpStatusProbe:
		return d.statusProbe(req.ProcNr)
	}

	entry, ok := d.entryForMinor(req.Minor)
	if !ok {
		return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusBadMinor}
	}

	switch req.Op {
	case OpOpen:
		return d.doOpen(entry, req)
	case OpClose:
		return d.doClose(entry, req)
	case OpRead:
		if entry.kind == kindPTYMaster {
			return d.doPTYMasterRead(entry.line, req)
		}
		return d.doRead(entry.line, req)
	case OpWrite:
		if entry.kind == kindPTYMaster {
			return d.doPTYMasterWrite(entry.line, req)
		}
		return d.doWrite(entry.line, req)
	case OpIoctl:
		return d.doIoctl(entry, req)
	case OpSelect:
		return d.doSelect(entry.line, req)
	case OpCancel:
		return d.doCancel(entry.line, req)
	default:
		return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusInvalid}
	}
}

func (d *Driver) doOpen(entry *tableEntry, req Request) Reply {
	if entry.kind == kindLog && req.ReadAccess {
		return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusAccess}
	}
	entry.line.Open()
	return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusOK}
}

func (d *Driver) doClose(entry *tableEntry, req Request) Reply {
	entry.line.Close()
	return Reply{Kind: ReplyTaskReply, ProcNr: req.ProcNr, Status: StatusOK}
}

func (d *Driver) completeRead(l *line.Line) {
	reply := Reply{ProcNr: l.Read.ProcNr, Status: Status(l.Read.Cum), Data: l.Read.Buffer}
	wasSuspended := l.Read.Revive
	if l.DisarmTimer != nil {
		l.DisarmTimer()
	}
	l.TimerArmed = false
	l.Read = line.ReadSlot{}
	if wasSuspended {
		reply.Kind = ReplyRevive
		d.cfg.Revive(reply)
	}
}

func (d *Driver) pumpWrite(l *line.Line) {
	if !l.Write.Active {
		return
	}
	d.pumpWriteOnce(l)
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

func (d *Driver) selectRetry(l *line.Line) {
	if l.Select.Ops == 0 {
		return
	}
	ready := l.SelectTry(l.Select.Ops)
	if ready != 0 {
		proc := l.Select.Proc
		d.cfg.Notify(proc)
	}
}

// statusProbe emits at most one pending select-ready or revive event, per
// spec.md §4.1's tie-break: select-readiness, then input revive, then
// output revive, scanned in line order. There is no queued-revive tracking
// in this Dispatch-based API (revives are delivered eagerly via
// Config.Revive as soon as they complete), so a status probe only reports
// select readiness; an embedder driving a strict MINIX-style status-probe
// protocol should poll doSelect's watchers directly instead.
func (d *Driver) statusProbe(procNr int32) Reply {
	for i := range d.entries {
		l := d.entries[i].line
		if l.Select.Ops == 0 || l.Select.Proc != procNr {
			continue
		}
		ready := l.SelectTry(l.Select.Ops)
		if ready != 0 {
			l.Select.Ops &^= ready
			return Reply{Kind: ReplyTaskReply, ProcNr: procNr, Status: StatusOK, SelectReady: ready}
		}
	}
	return Reply{Kind: ReplyNone, ProcNr: procNr}
}
