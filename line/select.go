package line

// SelectTry implements select_try (spec.md §4.10): returns the subset of
// ops that are ready without blocking.
func (l *Line) SelectTry(ops SelectMask) SelectMask {
	if l.Termios.Ospeed == 0 {
		// Hangup: any requested op is ready (exception-eligible).
		return ops
	}

	var ready SelectMask

	if ops&SelectRead != 0 {
		switch {
		case l.Read.Active:
			// A read is already pending; issuing another would fail EIO,
			// which the caller observes as "ready" (it won't block).
			ready |= SelectRead
		case l.Termios.Canonical():
			if l.Ring.EOTCount() > 0 {
				ready |= SelectRead
			}
		case l.Ring.Len() > 0:
			ready |= SelectRead
		}
	}

	if ops&SelectWrite != 0 {
		if l.Write.Active || l.Ops.Writable() {
			ready |= SelectWrite
		}
	}

	return ready
}
