//go:build !rp2040

package boards

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"powercode-go/sleep"
)

func TestSelectedLimits(t *testing.T) {
	lim := Selected.Limits()
	assert.Equal(t, sleep.Limits{PinCount: 24, WakePin: 17}, lim)
	assert.Less(t, lim.WakePin, lim.PinCount)
	assert.Len(t, Selected.UART, 3)
}
