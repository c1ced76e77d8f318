//go:build rp2040

package boards

// Pico with a DS3231 module on GP4/GP5 and its INT/SQW on GP21. GP22 is
// reserved as the dormant wake button.
var Selected = func() Board {
	b := Board{
		Name:        "pico",
		PinCount:    29,
		WakePin:     22,
		UART:        []string{"uart0", "uart1"},
		ExternalRTC: true,
		RTCIntPin:   21,
	}
	b.Defaults.I2C0_SDA, b.Defaults.I2C0_SCL = 4, 5
	b.Defaults.UART0_TX, b.Defaults.UART0_RX = 0, 1
	return b
}()
