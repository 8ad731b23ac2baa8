package driver

import "github.com/tty-core/ttydrv/line"

// Op identifies which dispatcher handler a Request is routed to, per
// spec.md §4.1's "device request for a specific minor" list plus the
// asynchronous-notification and status-probe request classes.
type Op int

// Request operations.
const (
	OpRead Op = iota
	OpWrite
	OpIoctl
	OpOpen
	OpClose
	OpSelect
	OpCancel
	OpStatusProbe

	// Asynchronous notifications. Dispatch handles OpTimerTick without
	// consulting Minor; OpHardwareInterrupt and OpShutdown have no handler
	// and get StatusInvalid for a configured minor (StatusBadMinor
	// otherwise).
	OpTimerTick
	OpHardwareInterrupt
	OpShutdown
)

// Request is the message contract from spec.md §6: {m_type, source, minor,
// proc_nr, count, flags, addr, request_code, spec}. addr (a user virtual
// address) is represented here as a plain []byte: the virtual-to-physical
// memory copy primitive is out of scope (spec.md §1), so callers hand the
// driver the bytes directly (for writes/ioctl-in) or get a []byte back (for
// reads/ioctl-out) instead of a raw address the driver would need to fault
// in itself.
type Request struct {
	Op       Op
	Minor    int
	ProcNr   int32
	Count    int
	Nonblock bool

	// ReadAccess is valid when Op == OpOpen: whether the opener requested
	// read permission. Only the log minor consults it (spec.md §6).
	ReadAccess bool

	// IoctlReq is the ioctl request code (termios package constants), valid
	// when Op == OpIoctl.
	IoctlReq int
	// Data carries write payload bytes or ioctl "copy-in" bytes (a new
	// termios, a winsize, an int, a keymap/font blob) depending on Op and
	// IoctlReq.
	Data []byte

	// SelectOps/SelectWatch are valid when Op == OpSelect.
	SelectOps   line.SelectMask
	SelectWatch bool

	// CancelOps is valid when Op == OpCancel: which of read/write to match
	// against the outstanding slots.
	CancelOps line.SelectMask
}

// ReplyKind distinguishes an immediate reply from a later revive, per
// spec.md §6's {type: TASK_REPLY|REVIVE, ...}.
type ReplyKind int

// Reply kinds.
const (
	ReplyTaskReply ReplyKind = iota
	ReplyRevive
	ReplyNone // no reply yet (a suspended request), a timer tick, or a status probe that found nothing pending
)

// Reply is the driver's response to a Request or a later revive.
type Reply struct {
	Kind   ReplyKind
	ProcNr int32
	Status Status
	// Data carries read payload bytes or ioctl "copy-out" bytes (TCGETS,
	// TIOCGWINSZ), mirroring Request.Data's role on the way in.
	Data []byte
	// SelectReady is valid for an OpSelect/OpStatusProbe reply that reports
	// readiness.
	SelectReady line.SelectMask
}
