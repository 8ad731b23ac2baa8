//go:build linux

package termios

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultIsCanonicalAndEchoing(t *testing.T) {
	tio := Default()
	assert.True(t, tio.Canonical())
	assert.NotZero(t, tio.Lflag&ECHO)
	assert.NotZero(t, tio.Lflag&ECHOE)
	assert.NotZero(t, tio.Lflag&ISIG)
}

func TestCharRoundTrip(t *testing.T) {
	var tio Termios
	tio.SetChar(VERASE, 8)
	assert.Equal(t, byte(8), tio.Char(VERASE))
}

func TestCharOutOfRangeIsSafe(t *testing.T) {
	var tio Termios
	assert.Equal(t, byte(0), tio.Char(CC(-1)))
	tio.SetChar(CC(999), 5) // must not panic
}
