package sleep

// PinMode is the input configuration applied to a GPIO wakeup pin.
type PinMode uint8

const (
	PinInput PinMode = iota
	PinInputPullup
	PinInputPulldown
)

// Tick is the system tick timer.
type Tick interface {
	Enable()
	Disable()
}

// USB is the primary high-speed serial interface.
type USB interface {
	Detach()
	Attach()
}

// Serial is the set of asynchronous serial ports, numbered [0, Ports()).
type Serial interface {
	Ports() int
	Enabled(port int) bool
	Flush(port int) // blocks until the transmit path is empty
}

// Pins configures GPIO and maps pins to external interrupt lines.
type Pins interface {
	SetMode(pin int, mode PinMode)
	Line(pin int) int
}

// IRQState is the opaque global interrupt state saved on entry to a
// critical section.
type IRQState uintptr

// Interrupts is the interrupt controller.
type Interrupts interface {
	// Disable masks global interrupt delivery and returns the previous state.
	Disable() IRQState
	Restore(IRQState)

	// Suspend parks external-line dispatch; Resume restores it. Calls pair
	// exactly and do not nest.
	Suspend()
	Resume()

	// Attach arms pin for edge without a handler; Detach disarms it.
	Attach(pin int, edge Edge) error
	Detach(pin int)

	// AlarmPending reports the RTC alarm line. ExternalPending reports any
	// external interrupt group, checked in ascending priority order.
	// LinePending reports one external line.
	AlarmPending() bool
	ExternalPending() bool
	LinePending(line int) bool
}

// AlarmClock is the real-time clock alarm.
type AlarmClock interface {
	CancelAlarm()
	// SetAlarm arms an alarm seconds from now.
	SetAlarm(seconds uint32)
	// RouteAlarm connects the alarm signal to its interrupt line so it can
	// end a stop-mode wait.
	RouteAlarm()
}

// Power holds the power-management primitives.
type Power interface {
	// EnterStop waits for an interrupt with the regulator in low-power mode.
	// It returns once any armed line is pending.
	EnterStop()
	// EnterStandby does not return on success. A return means the transition
	// could not begin.
	EnterStandby() error
	SetWakePin(enabled bool)
}

// Clock restores the clock tree after stop mode.
type Clock interface {
	// EnableOscillator starts the external oscillator and waits for it;
	// false means it never became ready.
	EnableOscillator() bool
	// EnableMultiplier starts the PLL and waits for lock without a bound.
	EnableMultiplier()
	// SelectMultiplied switches the system clock to the PLL and waits for
	// the switch to be reported.
	SelectMultiplied()
	// Reset performs a full system reset and does not return.
	Reset()
}

// Resources is everything the controllers drive.
type Resources struct {
	Tick   Tick
	USB    USB
	Serial Serial
	Pins   Pins
	IRQ    Interrupts
	RTC    AlarmClock
	Power  Power
	Clock  Clock
}

// wakePinMode picks the pull that holds the pin away from the wake edge.
func wakePinMode(e Edge) PinMode {
	switch e {
	case EdgeRising:
		return PinInputPulldown
	case EdgeFalling:
		return PinInputPullup
	default:
		return PinInput
	}
}
