//go:build !rp2040

package platform

import (
	"powercode-go/services/power/internal/boards"
	"powercode-go/sleep"
	"powercode-go/sleep/sim"
)

// Open returns a simulated device shaped like b. Nothing is pending, so a
// stop-mode entry on the host wakes straight away with no reason.
func Open(b boards.Board) (sleep.Resources, error) {
	return sim.New(b.Limits(), len(b.UART)).Resources(), nil
}
