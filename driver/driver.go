package driver

import (
	"time"

	"github.com/tty-core/ttydrv/backend"
	"github.com/tty-core/ttydrv/internal/logging"
	"github.com/tty-core/ttydrv/line"
	"github.com/tty-core/ttydrv/timerset"
)

// Minor device numbering, spec.md §6. Each range starts where the previous
// one ends; the exact base values are this driver's own choice (the spec
// leaves CONS_MINOR et al. as named constants without fixing their values).
const (
	ConsMinorBase = 0
)

// Config configures a Driver's static line table and collaborators. There
// is no file-backed configuration source (spec.md's driver is an in-memory
// service with no persisted state, §6) — Config is a plain struct built by
// the embedder, mirroring ehrlich-b/go-ublk's Config pattern.
type Config struct {
	RingCapacity int

	ConsoleBackends []backend.Ops
	SerialBackends  []backend.Ops
	PTYBackends     []backend.Ops // replica side; full line discipline, one Line per entry

	// PTYMasterBackends holds the master side of a PTY pair. Per spec.md §6,
	// "master-side non-ioctl requests are forwarded wholesale to the PTY
	// subsystem": reads and writes bypass in_process/out_process entirely
	// and relay raw bytes to/from the back-end, while ioctls (e.g.
	// TIOCSWINSZ) are still handled by the normal line machinery.
	PTYMasterBackends []backend.Ops

	// LogBackends holds write-only log-device lines. Per spec.md §6, "opens
	// of the log minor with read permission fail with access-denied."
	LogBackends []backend.Ops

	// Revive delivers an asynchronous completion reply for a previously
	// suspended request (spec.md §6's REVIVE message). It stands in for the
	// kernel's send primitive, which is out of scope; failure of the real
	// send is what spec.md §7 calls a fatal driver-invariant violation, so
	// embedders whose Revive can fail should panic with a *FatalError
	// rather than returning an error Run has no slot for.
	Revive func(Reply)

	// Notify wakes a process that recorded a select watch, per spec.md
	// §4.10's select_retry. Stands in for the kernel notify primitive.
	Notify func(procNr int32)

	// RaiseSignal delivers a line-discipline-generated signal (ISIG's
	// SIGINT/SIGQUIT, hangup's SIGHUP, a winsize change's SIGWINCH) to a
	// real process group, per spec.md §4.4 step 8's "external
	// process-signal capability" — the same class of out-of-scope
	// collaborator as Revive/Notify. A nil RaiseSignal logs the signal at
	// debug level instead of delivering it, which is adequate for tests.
	RaiseSignal func(pgrp int32, sig line.Signal)

	Logger *logging.Logger
}

// DefaultConfig returns a Config with a single no-backend console line, a
// 256-word ring capacity, and no-op Revive/Notify (suitable for tests or a
// driver instance whose embedder wires those in later).
func DefaultConfig() *Config {
	return &Config{
		RingCapacity:    256,
		ConsoleBackends: []backend.Ops{backend.Nop{}},
		Revive:          func(Reply) {},
		Notify:          func(int32) {},
		Logger:          logging.Default(),
	}
}

// lineKind records which minor range a line belongs to, for the handful of
// requests that behave differently by device class: doOpen denies read
// access to a log-minor line (kindLog), and Dispatch/HandleEvents route a
// PTY master line (kindPTYMaster) through a raw forwarding path instead of
// the normal in_process/out_process cooking.
type lineKind int

const (
	kindConsole lineKind = iota
	kindSerial
	kindPTY
	kindPTYMaster
	kindLog
)

type tableEntry struct {
	minor int
	kind  lineKind
	line  *line.Line
}

// Driver owns the line table, the shared timer set, and the collaborators
// every handler needs. It replaces the spec's global `tty_table`/
// `tty_timers`/`ccurrent` (spec.md §9) with fields of a single object
// threaded through every handler, per that section's explicit instruction.
type Driver struct {
	cfg     *Config
	entries []tableEntry
	byMinor map[int]*tableEntry
	timers  *timerset.Set
	log     *logging.Logger
	wake    chan struct{}
}

// notifySetter is the optional interface a back-end implements (Console,
// PTY) to accept a post-construction notify callback. Back-ends are built
// by the embedder before the line table exists (they're handed in through
// Config), so they can't be given a line-aware notify callback at
// construction time; New wires one in here instead, once each line's index
// is known.
type notifySetter interface {
	SetNotify(func())
}

// Wake interrupts Run's blocking select so it re-polls back-end readiness
// on its next iteration. Safe to call from any goroutine — it is the only
// thing a back-end's own upcall goroutine (Console's pump, a PTY peer
// write) is allowed to touch, since Line state itself is only ever mutated
// from the single dispatch goroutine (see package doc).
func (d *Driver) Wake() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// New builds the fixed static line table: consoles, then serial lines,
// then PTYs, in that order (spec.md §3's lifecycle note). Lines persist for
// the driver's lifetime; Close only resets them.
func New(cfg *Config) *Driver {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	cap := cfg.RingCapacity
	if cap <= 0 {
		cap = 256
	}

	d := &Driver{
		cfg:     cfg,
		timers:  timerset.New(),
		byMinor: make(map[int]*tableEntry),
		log:     logger,
		wake:    make(chan struct{}, 1),
	}

	minor := ConsMinorBase
	add := func(kind lineKind, ops backend.Ops) {
		idx := len(d.entries)
		l := line.New(minor, idx, ops, cap)
		d.wireLine(l)
		if ns, ok := ops.(notifySetter); ok {
			ns.SetNotify(d.Wake)
		}
		d.entries = append(d.entries, tableEntry{minor: minor, kind: kind, line: l})
		d.byMinor[minor] = &d.entries[len(d.entries)-1]
		minor++
	}

	for _, ops := range cfg.ConsoleBackends {
		add(kindConsole, ops)
	}
	for _, ops := range cfg.SerialBackends {
		add(kindSerial, ops)
	}
	for _, ops := range cfg.PTYBackends {
		add(kindPTY, ops)
	}
	for _, ops := range cfg.PTYMasterBackends {
		add(kindPTYMaster, ops)
	}
	for _, ops := range cfg.LogBackends {
		add(kindLog, ops)
	}

	return d
}

// wireLine installs the timer and signal callbacks a freshly created Line
// needs, closing over that line's own index so the shared timerset and
// Revive/Notify collaborators can be driven without the line package
// depending on them.
func (d *Driver) wireLine(l *line.Line) {
	idx := l.Index
	l.ArmTimer = func(dur time.Duration) {
		d.timers.Arm(idx, time.Now(), dur)
	}
	l.DisarmTimer = func() {
		d.timers.Cancel(idx)
	}
	l.RaiseSignal = func(pgrp int32, sig line.Signal) {
		if d.cfg.RaiseSignal != nil {
			d.cfg.RaiseSignal(pgrp, sig)
			return
		}
		d.log.Debug("signal raised", "line", idx, "pgrp", pgrp, "signal", sig.String())
	}
}

func (d *Driver) lineAt(idx int) *line.Line {
	if idx < 0 || idx >= len(d.entries) {
		return nil
	}
	return d.entries[idx].line
}

func (d *Driver) entryForMinor(minor int) (*tableEntry, bool) {
	e, ok := d.byMinor[minor]
	return e, ok
}

func (d *Driver) fatal(op string, err error) {
	panic(&FatalError{Op: op, Err: err})
}
