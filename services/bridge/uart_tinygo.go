//go:build rp2040

package bridge

import (
	"context"
	"io"
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

func init() { UARTDial = dialUARTX }

// dialUARTX picks the RP2040 UART instance from the TX pin.
func dialUARTX(ctx context.Context, u UARTConfig) (io.ReadWriteCloser, error) {
	hw := uartx.UART0
	switch u.TxPin {
	case 4, 8, 20, 24:
		hw = uartx.UART1
	}
	if err := hw.Configure(uartx.UARTConfig{
		BaudRate: uint32(u.Baud),
		TX:       machine.Pin(u.TxPin),
		RX:       machine.Pin(u.RxPin),
	}); err != nil {
		return nil, err
	}
	lctx, cancel := context.WithCancel(ctx)
	return &uartLink{ctx: lctx, cancel: cancel, u: hw}, nil
}

// uartLink adapts uartx to io.ReadWriteCloser. Close unblocks a pending
// read; the UART itself stays configured.
type uartLink struct {
	ctx    context.Context
	cancel context.CancelFunc
	u      *uartx.UART
}

func (l *uartLink) Read(p []byte) (int, error) {
	n, err := l.u.RecvSomeContext(l.ctx, p)
	if n == 0 && err == nil {
		err = l.ctx.Err()
	}
	return n, err
}

func (l *uartLink) Write(p []byte) (int, error) { return l.u.Write(p) }

func (l *uartLink) Close() error {
	l.cancel()
	return nil
}
