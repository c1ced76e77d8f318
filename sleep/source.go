package sleep

// Source is one wakeup source. The variant set is closed: GPIO, RTC and
// Network are the only implementations.
type Source interface {
	Kind() Kind
	isSource()
}

// GPIO wakes on an edge of Pin.
type GPIO struct {
	Pin  int
	Edge Edge
}

// RTC wakes after DurationMs. Alarms have one second resolution; the
// sub-second remainder is dropped when armed.
type RTC struct {
	DurationMs uint32
}

// Network wakes on a network event. It carries no parameters.
type Network struct{}

func (GPIO) Kind() Kind    { return KindGPIO }
func (RTC) Kind() Kind     { return KindRTC }
func (Network) Kind() Kind { return KindNetwork }

func (GPIO) isSource()    {}
func (RTC) isSource()     {}
func (Network) isSource() {}

// Seconds is the alarm offset programmed for this source.
func (r RTC) Seconds() uint32 { return r.DurationMs / 1000 }

// MinRTCDurationMs is the shortest accepted RTC wakeup.
const MinRTCDurationMs = 1000

// Request is a single sleep call. It is owned by the caller; validation and
// entry only read it.
type Request struct {
	Mode    Mode
	Sources []Source
}

// kindOf accepts only the value variants. nil entries and pointers to a
// variant report KindUnknown and are rejected by validation.
func kindOf(s Source) Kind {
	switch s.(type) {
	case GPIO:
		return KindGPIO
	case RTC:
		return KindRTC
	case Network:
		return KindNetwork
	default:
		return KindUnknown
	}
}
