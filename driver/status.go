// Package driver implements the dispatcher and request handlers from
// spec.md §4.1-4.11: the line table, the single-threaded event loop, the
// per-operation handlers (read/write/ioctl/open/close/select/cancel), the
// event pump, and the suspend/revive machinery that replaces a blocked
// thread with a recorded continuation (spec.md §9).
package driver

import "fmt"

// Status is the numeric reply code the spec's message contract carries
// (spec.md §6): a non-negative byte count on success, or one of the named
// negative error codes below. It is never surfaced as a Go error across
// the dispatch boundary — requests fail softly, the driver does not.
type Status int

// Status codes, spec.md §7.
const (
	StatusOK          Status = 0
	StatusBadMinor    Status = -1 // ENXIO: unknown or unconfigured minor
	StatusIOInProgress Status = -2 // EIO: overlapping request on the same line
	StatusInvalid     Status = -3 // EINVAL: zero/negative count, bad flag
	StatusFault       Status = -4 // EFAULT: user buffer unmappable
	StatusWouldBlock  Status = -5 // EAGAIN
	StatusInterrupted Status = -6 // EINTR: cancelled
	StatusNotATTY     Status = -7 // ENOTTY: unsupported ioctl
	StatusAccess      Status = -8 // EACCES: log device opened for read
	StatusSuspend     Status = -9 // sentinel: no reply yet, a revive will follow
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusBadMinor:
		return "ENXIO"
	case StatusIOInProgress:
		return "EIO"
	case StatusInvalid:
		return "EINVAL"
	case StatusFault:
		return "EFAULT"
	case StatusWouldBlock:
		return "EAGAIN"
	case StatusInterrupted:
		return "EINTR"
	case StatusNotATTY:
		return "ENOTTY"
	case StatusAccess:
		return "EACCES"
	case StatusSuspend:
		return "SUSPEND"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// FatalError marks a driver invariant violation per spec.md §7: failure of
// a kernel primitive the driver depends on absolutely (send, setalarm,
// getuptime, kill) represents kernel-side corruption, not a request-level
// error, and halts the driver with a diagnostic. Run does not recover it: a
// *FatalError panic propagates out of Run like any other panic.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("ttydrv: fatal: %s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }
