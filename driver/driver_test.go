package driver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tty-core/ttydrv/backend"
	"github.com/tty-core/ttydrv/line"
	"github.com/tty-core/ttydrv/termios"
)

// recordingOps is a minimal backend.Ops double, mirroring line_test.go's,
// used to drive reads by pushing bytes through a feed function directly
// rather than an actual io.Reader goroutine.
type recordingOps struct {
	feed      []byte
	written   []byte
	writable  bool
	icancels  int
	ocancels  int
	breaks    int
	lastIoctl int
}

func (o *recordingOps) DevRead(cb func(byte) bool) int {
	n := 0
	for len(o.feed) > 0 {
		b := o.feed[0]
		o.feed = o.feed[1:]
		n++
		if !cb(b) {
			break
		}
	}
	return n
}
func (o *recordingOps) Readable() bool { return len(o.feed) > 0 }
func (o *recordingOps) DevWrite(p []byte) (int, error) {
	if !o.writable {
		return 0, nil
	}
	o.written = append(o.written, p...)
	return len(p), nil
}
func (o *recordingOps) Writable() bool { return o.writable }
func (o *recordingOps) Echo(byte)      {}
func (o *recordingOps) ICancel()       { o.icancels++ }
func (o *recordingOps) OCancel()       { o.ocancels++ }
func (o *recordingOps) Break()         { o.breaks++ }
func (o *recordingOps) Close()         {}
func (o *recordingOps) Ioctl(req int, t *termios.Termios) error {
	o.lastIoctl = req
	return nil
}

func newTestDriver(ops *recordingOps) (*Driver, chan Reply) {
	revived := make(chan Reply, 8)
	cfg := &Config{
		RingCapacity:    64,
		ConsoleBackends: []backend.Ops{ops},
		Revive:          func(r Reply) { revived <- r },
		Notify:          func(int32) {},
	}
	return New(cfg), revived
}

func TestDispatchBadMinorIsENXIO(t *testing.T) {
	d, _ := newTestDriver(&recordingOps{})
	reply := d.Dispatch(Request{Op: OpRead, Minor: 99, ProcNr: 1, Count: 1})
	assert.Equal(t, StatusBadMinor, reply.Status)
}

func TestReadCompletesImmediatelyWhenLineIsFullBeforeRead(t *testing.T) {
	ops := &recordingOps{feed: []byte("hi\n")}
	d, revived := newTestDriver(ops)
	d.Dispatch(Request{Op: OpOpen, Minor: 0, ProcNr: 1})

	reply := d.Dispatch(Request{Op: OpRead, Minor: 0, ProcNr: 1, Count: 10})
	require.Equal(t, ReplyTaskReply, reply.Kind)
	assert.Equal(t, Status(3), reply.Status)
	assert.Equal(t, []byte("hi\n"), reply.Data)
	assert.Empty(t, revived)
}

func TestReadSuspendsThenRevivesOnNextByte(t *testing.T) {
	ops := &recordingOps{}
	d, revived := newTestDriver(ops)
	d.Dispatch(Request{Op: OpOpen, Minor: 0, ProcNr: 1})

	reply := d.Dispatch(Request{Op: OpRead, Minor: 0, ProcNr: 1, Count: 10})
	require.Equal(t, StatusSuspend, reply.Status)
	require.Equal(t, ReplyNone, reply.Kind)

	l := d.entries[0].line
	ops.feed = []byte("x\n")
	l.Events = true
	d.scanEvents()

	select {
	case r := <-revived:
		assert.Equal(t, ReplyRevive, r.Kind)
		assert.Equal(t, []byte("x\n"), r.Data)
	default:
		t.Fatal("expected a revive")
	}
}

func TestReadNonblockReturnsEAGAINWithNothingBuffered(t *testing.T) {
	ops := &recordingOps{}
	d, _ := newTestDriver(ops)
	d.Dispatch(Request{Op: OpOpen, Minor: 0, ProcNr: 1})

	reply := d.Dispatch(Request{Op: OpRead, Minor: 0, ProcNr: 1, Count: 10, Nonblock: true})
	assert.Equal(t, StatusWouldBlock, reply.Status)
}

func TestReadRejectsOverlappingRequest(t *testing.T) {
	ops := &recordingOps{}
	d, _ := newTestDriver(ops)
	d.Dispatch(Request{Op: OpOpen, Minor: 0, ProcNr: 1})
	d.Dispatch(Request{Op: OpRead, Minor: 0, ProcNr: 1, Count: 10})

	reply := d.Dispatch(Request{Op: OpRead, Minor: 0, ProcNr: 2, Count: 1})
	assert.Equal(t, StatusIOInProgress, reply.Status)
}

func TestWriteAppliesOutProcessThenCompletesImmediately(t *testing.T) {
	ops := &recordingOps{writable: true}
	d, _ := newTestDriver(ops)
	d.Dispatch(Request{Op: OpOpen, Minor: 0, ProcNr: 1})

	reply := d.Dispatch(Request{Op: OpWrite, Minor: 0, ProcNr: 1, Count: 2, Data: []byte("a\n")})
	require.Equal(t, ReplyTaskReply, reply.Kind)
	assert.Equal(t, Status(2), reply.Status)
	assert.Equal(t, []byte("a\r\n"), ops.written)
}

func TestIoctlTCGETSRoundTripsTCSETS(t *testing.T) {
	ops := &recordingOps{}
	d, _ := newTestDriver(ops)
	d.Dispatch(Request{Op: OpOpen, Minor: 0, ProcNr: 1})

	get := d.Dispatch(Request{Op: OpIoctl, Minor: 0, ProcNr: 1, IoctlReq: termios.TCGETS})
	require.Equal(t, StatusOK, get.Status)
	require.Len(t, get.Data, 56)

	set := d.Dispatch(Request{Op: OpIoctl, Minor: 0, ProcNr: 1, IoctlReq: termios.TCSETS, Data: get.Data})
	assert.Equal(t, StatusOK, set.Status)
}

func TestIoctlTCSETSWSuspendsUntilWriteDrains(t *testing.T) {
	ops := &recordingOps{writable: false}
	d, revived := newTestDriver(ops)
	d.Dispatch(Request{Op: OpOpen, Minor: 0, ProcNr: 1})

	wr := d.Dispatch(Request{Op: OpWrite, Minor: 0, ProcNr: 1, Count: 1, Data: []byte("x")})
	require.Equal(t, StatusSuspend, wr.Status)

	l := d.entries[0].line
	payload := make([]byte, 56)
	rep := d.Dispatch(Request{Op: OpIoctl, Minor: 0, ProcNr: 2, IoctlReq: termios.TCSETSW, Data: payload})
	require.Equal(t, StatusSuspend, rep.Status)
	assert.True(t, l.Ioctl.Active)

	l.Write.Left = 0
	l.Write.Data = nil
	l.Events = true
	d.scanEvents()

	found := false
	for len(revived) > 0 {
		r := <-revived
		if r.ProcNr == 2 {
			found = true
			assert.Equal(t, StatusOK, r.Status)
		}
	}
	assert.True(t, found, "expected the drained ioctl to revive proc 2")
}

func TestIoctlTCFLSHClearsInputRing(t *testing.T) {
	ops := &recordingOps{feed: []byte("ab")}
	d, _ := newTestDriver(ops)
	d.Dispatch(Request{Op: OpOpen, Minor: 0, ProcNr: 1})

	l := d.entries[0].line
	l.Ops.DevRead(func(b byte) bool { return l.InProcess([]byte{b}) == 1 })
	require.True(t, l.Ring.Len() > 0)

	reply := d.Dispatch(Request{Op: OpIoctl, Minor: 0, ProcNr: 1, IoctlReq: termios.TCFLSH, Data: []byte{termios.TCIFLUSH}})
	assert.Equal(t, StatusOK, reply.Status)
	assert.Equal(t, 0, l.Ring.Len())
}

func TestIoctlTCSBRKCallsBackendBreak(t *testing.T) {
	ops := &recordingOps{}
	d, _ := newTestDriver(ops)
	d.Dispatch(Request{Op: OpOpen, Minor: 0, ProcNr: 1})

	reply := d.Dispatch(Request{Op: OpIoctl, Minor: 0, ProcNr: 1, IoctlReq: termios.TCSBRK})
	assert.Equal(t, StatusOK, reply.Status)
	assert.Equal(t, 1, ops.breaks)
}

func TestIoctlTCDRAINSharesTCSBRKNumberButSkipsBreak(t *testing.T) {
	ops := &recordingOps{writable: true}
	d, _ := newTestDriver(ops)
	d.Dispatch(Request{Op: OpOpen, Minor: 0, ProcNr: 1})

	reply := d.Dispatch(Request{Op: OpIoctl, Minor: 0, ProcNr: 1, IoctlReq: termios.TCSBRK, Data: []byte{1}})
	assert.Equal(t, StatusOK, reply.Status)
	assert.Equal(t, 0, ops.breaks)
}

func TestSelectReportsReadReadyInRawModeWithBufferedBytes(t *testing.T) {
	ops := &recordingOps{feed: []byte("x")}
	d, _ := newTestDriver(ops)
	d.Dispatch(Request{Op: OpOpen, Minor: 0, ProcNr: 1})

	l := d.entries[0].line
	l.Termios.Lflag &^= termios.ICANON
	l.Ops.DevRead(func(b byte) bool { return l.InProcess([]byte{b}) == 1 })

	reply := d.Dispatch(Request{Op: OpSelect, Minor: 0, ProcNr: 1, SelectOps: line.SelectRead})
	assert.Equal(t, line.SelectRead, reply.SelectReady)
}

func TestSelectWatchRemembersUnmetOpsForLaterNotify(t *testing.T) {
	ops := &recordingOps{}
	d, _ := newTestDriver(ops)
	d.Dispatch(Request{Op: OpOpen, Minor: 0, ProcNr: 1})

	reply := d.Dispatch(Request{Op: OpSelect, Minor: 0, ProcNr: 1, SelectOps: line.SelectRead, SelectWatch: true})
	assert.Equal(t, line.SelectMask(0), reply.SelectReady)

	l := d.entries[0].line
	assert.Equal(t, line.SelectRead, l.Select.Ops)
	assert.Equal(t, int32(1), l.Select.Proc)
}

func TestCancelInterruptsSuspendedRead(t *testing.T) {
	ops := &recordingOps{}
	d, revived := newTestDriver(ops)
	d.Dispatch(Request{Op: OpOpen, Minor: 0, ProcNr: 1})

	d.Dispatch(Request{Op: OpRead, Minor: 0, ProcNr: 1, Count: 10})
	reply := d.Dispatch(Request{Op: OpCancel, Minor: 0, ProcNr: 1, CancelOps: line.SelectRead})
	assert.Equal(t, StatusOK, reply.Status)

	require.Len(t, revived, 1)
	r := <-revived
	assert.Equal(t, StatusInterrupted, r.Status)
	assert.False(t, d.entries[0].line.Read.Active)
}

func TestCancelOnAlreadyCompletedRequestIsANoOp(t *testing.T) {
	ops := &recordingOps{}
	d, revived := newTestDriver(ops)
	d.Dispatch(Request{Op: OpOpen, Minor: 0, ProcNr: 1})

	reply := d.Dispatch(Request{Op: OpCancel, Minor: 0, ProcNr: 1, CancelOps: line.SelectRead})
	assert.Equal(t, StatusOK, reply.Status)
	assert.Empty(t, revived)
}

func TestVTIMEOnlyReadCompletesWithZeroBytesOnTimeout(t *testing.T) {
	ops := &recordingOps{}
	d, revived := newTestDriver(ops)
	d.Dispatch(Request{Op: OpOpen, Minor: 0, ProcNr: 1})

	l := d.entries[0].line
	l.Termios.Lflag &^= termios.ICANON
	l.Termios.SetChar(termios.VMIN, 0)
	l.Termios.SetChar(termios.VTIME, 1)

	reply := d.Dispatch(Request{Op: OpRead, Minor: 0, ProcNr: 1, Count: 10})
	require.Equal(t, StatusSuspend, reply.Status)
	assert.True(t, l.TimerArmed)

	d.expireTimers(time.Now().Add(time.Hour))

	require.Len(t, revived, 1)
	r := <-revived
	assert.Equal(t, Status(0), r.Status)
}

func TestOpenLogMinorWithReadAccessIsDenied(t *testing.T) {
	logOps := &recordingOps{}
	cfg := &Config{
		RingCapacity: 64,
		LogBackends:  []backend.Ops{logOps},
		Revive:       func(Reply) {},
		Notify:       func(int32) {},
	}
	d := New(cfg)

	reply := d.Dispatch(Request{Op: OpOpen, Minor: 0, ProcNr: 1, ReadAccess: true})
	assert.Equal(t, StatusAccess, reply.Status)

	reply = d.Dispatch(Request{Op: OpOpen, Minor: 0, ProcNr: 1})
	assert.Equal(t, StatusOK, reply.Status)
}

func TestPTYMasterReadWriteBypassLineDiscipline(t *testing.T) {
	masterOps := &recordingOps{writable: true}
	cfg := &Config{
		RingCapacity:      64,
		PTYMasterBackends: []backend.Ops{masterOps},
		Revive:            func(Reply) {},
		Notify:            func(int32) {},
	}
	d := New(cfg)
	d.Dispatch(Request{Op: OpOpen, Minor: 0, ProcNr: 1})

	// A write through the master line reaches the back-end unprocessed: no
	// ONLCR rewrite, unlike a console/replica line (see
	// TestWriteAppliesOutProcessThenCompletesImmediately).
	reply := d.Dispatch(Request{Op: OpWrite, Minor: 0, ProcNr: 1, Count: 2, Data: []byte("a\n")})
	require.Equal(t, ReplyTaskReply, reply.Kind)
	assert.Equal(t, Status(2), reply.Status)
	assert.Equal(t, []byte("a\n"), masterOps.written)

	// A read pulls raw bytes straight off the back-end, with no canonical
	// line buffering or erase/echo processing applied.
	masterOps.feed = []byte("raw\x08bytes")
	read := d.Dispatch(Request{Op: OpRead, Minor: 0, ProcNr: 1, Count: 64})
	require.Equal(t, ReplyTaskReply, read.Kind)
	assert.Equal(t, []byte("raw\x08bytes"), read.Data)
}

func TestPTYMasterReadSuspendsThenRevivesViaEventPump(t *testing.T) {
	masterOps := &recordingOps{}
	cfg := &Config{
		RingCapacity:      64,
		PTYMasterBackends: []backend.Ops{masterOps},
		Revive:            func(r Reply) {},
		Notify:            func(int32) {},
	}
	revived := make(chan Reply, 8)
	cfg.Revive = func(r Reply) { revived <- r }
	d := New(cfg)
	d.Dispatch(Request{Op: OpOpen, Minor: 0, ProcNr: 1})

	reply := d.Dispatch(Request{Op: OpRead, Minor: 0, ProcNr: 1, Count: 10})
	require.Equal(t, StatusSuspend, reply.Status)

	l := d.entries[0].line
	masterOps.feed = []byte("hi")
	l.Events = true
	d.scanEvents()

	require.Len(t, revived, 1)
	r := <-revived
	assert.Equal(t, ReplyRevive, r.Kind)
	assert.Equal(t, []byte("hi"), r.Data)
}

func TestRunDispatchesRequestsOverChannelUntilContextCancelled(t *testing.T) {
	ops := &recordingOps{feed: []byte("z\n")}
	d, _ := newTestDriver(ops)

	ctx, cancel := context.WithCancel(context.Background())
	requests := make(chan Envelope)
	done := make(chan struct{})
	go func() {
		d.Run(ctx, requests)
		close(done)
	}()

	reply := make(chan Reply, 1)
	requests <- Envelope{Request: Request{Op: OpOpen, Minor: 0, ProcNr: 1}, Reply: reply}
	require.Equal(t, StatusOK, (<-reply).Status)

	requests <- Envelope{Request: Request{Op: OpRead, Minor: 0, ProcNr: 1, Count: 10}, Reply: reply}
	r := <-reply
	assert.Equal(t, Status(2), r.Status)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
