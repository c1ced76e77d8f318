//go:build !rp2040

package boards

// Selected on host builds is the simulated device used by tests and tools.
var Selected = Board{
	Name:     "sim",
	PinCount: 24,
	WakePin:  17,
	UART:     []string{"uart0", "uart1", "uart2"},
}
