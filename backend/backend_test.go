package backend

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopNeverReadableNeverWritable(t *testing.T) {
	var n Nop
	assert.False(t, n.Readable())
	assert.False(t, n.Writable())

	written, err := n.DevWrite([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 0, written)

	count := n.DevRead(func(byte) bool { t.Fatal("should never be called"); return true })
	assert.Equal(t, 0, count)
}

func TestConsolePumpsInputAndNotifies(t *testing.T) {
	pr, pw := io.Pipe()
	var out bytes.Buffer
	notified := make(chan struct{}, 8)

	c := NewConsole(pr, &out, func() {
		select {
		case notified <- struct{}{}:
		default:
		}
	})

	go pw.Write([]byte("hi"))

	select {
	case <-notified:
	case <-time.After(time.Second):
		t.Fatal("notify never fired")
	}

	// Give the pump a moment to fully drain the write.
	var got []byte
	for i := 0; i < 50 && len(got) < 2; i++ {
		c.DevRead(func(b byte) bool { got = append(got, b); return true })
		if len(got) < 2 {
			time.Sleep(10 * time.Millisecond)
		}
	}
	assert.Equal(t, "hi", string(got))

	c.DevWrite([]byte("echo"))
	assert.Equal(t, "echo", out.String())

	pw.Close()
}

func TestConsoleICancelDropsBuffered(t *testing.T) {
	c := NewConsole(nil, nil, nil)
	c.mu.Lock()
	c.buffered = []byte("xyz")
	c.mu.Unlock()

	assert.True(t, c.Readable())
	c.ICancel()
	assert.False(t, c.Readable())
}

func TestPTYPairRelaysBytes(t *testing.T) {
	masterNotified := make(chan struct{}, 1)
	replicaNotified := make(chan struct{}, 1)
	master, replica := NewPTYPair(
		func() { masterNotified <- struct{}{} },
		func() { replicaNotified <- struct{}{} },
	)

	n, err := master.DevWrite([]byte("ab"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	select {
	case <-replicaNotified:
	default:
		t.Fatal("replica should have been notified")
	}

	assert.True(t, replica.Readable())
	var got []byte
	replica.DevRead(func(b byte) bool { got = append(got, b); return true })
	assert.Equal(t, "ab", string(got))

	_, _ = replica.DevWrite([]byte("c"))
	select {
	case <-masterNotified:
	default:
		t.Fatal("master should have been notified")
	}
	assert.True(t, master.Readable())
}

func TestPTYCloseStopsDelivery(t *testing.T) {
	master, replica := NewPTYPair(nil, nil)
	replica.Close()
	master.DevWrite([]byte("x"))
	assert.False(t, replica.Readable())
}
