package boards

import "powercode-go/sleep"

// Board describes the sleep-relevant shape of the PCB/SoC. Operating
// parameters (reason pool size, bridge wiring) come from config instead.
type Board struct {
	Name string

	// GPIOs 0..PinCount-1 can be armed as stop-mode wake sources.
	PinCount int
	// WakePin is the only pin able to bring the part out of hibernate.
	WakePin int

	// Serial ports flushed before stop, in index order.
	UART []string

	// ExternalRTC means wake alarms are programmed into a DS3231 on I2C0
	// whose INT/SQW output is wired to RTCIntPin.
	ExternalRTC bool
	RTCIntPin   int

	Defaults struct {
		I2C0_SDA, I2C0_SCL int
		UART0_TX, UART0_RX int
	}
}

// Limits returns the validation limits for the board.
func (b Board) Limits() sleep.Limits {
	return sleep.Limits{PinCount: b.PinCount, WakePin: b.WakePin}
}
