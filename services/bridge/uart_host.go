//go:build !rp2040

package bridge

import (
	"context"
	"io"

	"go.bug.st/serial"

	"powercode-go/errcode"
)

func init() { UARTDial = dialSerial }

// dialSerial opens a host serial port, for running the firmware stack on a
// Linux board or against a USB adapter.
func dialSerial(_ context.Context, u UARTConfig) (io.ReadWriteCloser, error) {
	if u.Device == "" {
		return nil, &errcode.E{C: errcode.InvalidArgument, Op: "uart", Msg: "device path required on host"}
	}
	baud := u.Baud
	if baud <= 0 {
		baud = 115200
	}
	return serial.Open(u.Device, &serial.Mode{BaudRate: baud})
}
