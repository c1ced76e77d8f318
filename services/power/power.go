// Package power runs the sleep controller as a bus service.
//
// Controls (request/reply, payload types.SleepRequest or its object form):
//
//	hal/power/sleep/control/validate -> types.SleepReply
//	hal/power/sleep/control/enter    -> types.SleepReply (+ Wakeup on stop)
//
// Retained:
//
//	hal/power/sleep/state   types.PowerState
//	hal/power/sleep/wakeup  types.WakeupReport
//
// Configuration is read from config/power.
package power

import (
	"context"

	"powercode-go/bus"
	"powercode-go/services/power/internal/boards"
	"powercode-go/services/power/internal/platform"
	"powercode-go/services/power/internal/service"
)

// Run binds the selected board and serves until ctx is cancelled.
func Run(ctx context.Context, conn *bus.Connection) error {
	b := boards.Selected
	res, err := platform.Open(b)
	if err != nil {
		println("[power] platform open failed:", err.Error())
		return err
	}
	println("[power] board", b.Name, "pins", b.PinCount, "wake", b.WakePin)
	service.New(conn, res, b.Limits()).Run(ctx)
	return nil
}
