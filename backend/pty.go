package backend

import (
	"sync"

	"github.com/tty-core/ttydrv/termios"
)

// PTY is a back-end for one half of a pseudo-terminal pair: writes on this
// side become readable input on the peer, and vice versa. This stands in
// for the spec's "PTY peer" collaborator (out of scope as hardware, but its
// shape — master/replica byte relay, master-side non-ioctl requests
// forwarded wholesale per spec.md §6 — is this module's concern).
//
// Grounded on the master/replica split in
// other_examples/e0cbc125_cubxxw-gvisor__pkg-sentry-fsimpl-devpts-master.go.go
// (masterFileDescription.Read/Write delegate to the line discipline's
// output/input queues) without pulling in any of gvisor's VFS machinery.
type PTY struct {
	mu       sync.Mutex
	buffered []byte
	peer     *PTY
	notify   func()
	closed   bool
}

// NewPTYPair creates a connected master/replica pair. notifyMaster/notifyReplica
// are called when the other side writes, to raise that side's events flag.
func NewPTYPair(notifyMaster, notifyReplica func()) (master, replica *PTY) {
	master = &PTY{notify: notifyMaster}
	replica = &PTY{notify: notifyReplica}
	master.peer, replica.peer = replica, master
	return master, replica
}

// DevRead implements Ops.
func (p *PTY) DevRead(feed func(byte) bool) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for n < len(p.buffered) {
		if !feed(p.buffered[n]) {
			break
		}
		n++
	}
	p.buffered = p.buffered[n:]
	return n
}

// Readable implements Ops.
func (p *PTY) Readable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buffered) > 0
}

// SetNotify replaces the notify callback after construction. Used by
// driver.New to wire a line-aware wake-up once the owning line exists.
func (p *PTY) SetNotify(f func()) {
	p.mu.Lock()
	p.notify = f
	p.mu.Unlock()
}

// DevWrite implements Ops: hands p's bytes to the peer's input buffer.
func (p *PTY) DevWrite(data []byte) (int, error) {
	peer := p.peer
	if peer == nil {
		return len(data), nil
	}
	peer.mu.Lock()
	if !peer.closed {
		peer.buffered = append(peer.buffered, data...)
	}
	notify := peer.notify
	peer.mu.Unlock()
	if notify != nil {
		notify()
	}
	return len(data), nil
}

// Writable implements Ops: a PTY write only blocks if the peer is closed,
// which this simplified model never reports as unwritable.
func (p *PTY) Writable() bool { return true }

// Echo implements Ops: echoing on a PTY is just another peer-directed write.
func (p *PTY) Echo(b byte) { p.DevWrite([]byte{b}) }

// ICancel implements Ops.
func (p *PTY) ICancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffered = nil
}

// OCancel implements Ops; there is no separate output queue to discard here
// since DevWrite delivers synchronously to the peer's input buffer.
func (p *PTY) OCancel() {}

// Break implements Ops; PTYs have no line-level break condition.
func (p *PTY) Break() {}

// Close implements Ops.
func (p *PTY) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.buffered = nil
}

// Ioctl implements Ops. Per spec.md §6, "master-side non-ioctl requests are
// forwarded wholesale to the PTY subsystem" — ioctls issued on the replica
// side that affect the pair (e.g. a future window-size ioctl) are the
// driver's concern via line.Line.SetWinsize, not this back-end's; PTY itself
// has no hardware framing to mirror.
func (p *PTY) Ioctl(int, *termios.Termios) error { return nil }
