package sleep

// Mode selects the sleep depth.
type Mode uint8

const (
	ModeNone Mode = iota
	ModeStop
	ModeUltraLowPower // recognised, never accepted
	ModeHibernate
	modeMax
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeStop:
		return "stop"
	case ModeUltraLowPower:
		return "ultra_low_power"
	case ModeHibernate:
		return "hibernate"
	default:
		return "unknown"
	}
}

// ParseMode maps a bus/config name to a Mode. Unknown names map to ModeNone,
// which validation rejects.
func ParseMode(s string) Mode {
	switch s {
	case "stop":
		return ModeStop
	case "ultra_low_power", "ulp":
		return ModeUltraLowPower
	case "hibernate", "standby":
		return ModeHibernate
	default:
		return ModeNone
	}
}

// Kind tags a wakeup source variant.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindGPIO
	KindRTC
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindGPIO:
		return "gpio"
	case KindRTC:
		return "rtc"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Edge selects the pin transition that wakes the device. The zero value is
// not a valid edge.
type Edge uint8

const (
	EdgeInvalid Edge = iota
	EdgeRising
	EdgeFalling
	EdgeChange
)

func (e Edge) String() string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	case EdgeChange:
		return "change"
	default:
		return "invalid"
	}
}

// ParseEdge maps "rising", "falling" and "change" (or "both") to an Edge.
func ParseEdge(s string) Edge {
	switch s {
	case "rising":
		return EdgeRising
	case "falling":
		return EdgeFalling
	case "change", "both":
		return EdgeChange
	default:
		return EdgeInvalid
	}
}

// State is the Stop controller's position in its sequence.
type State uint8

const (
	StateIdle State = iota
	StatePreparing
	StateSuspended
	StateResuming
)

func (s State) String() string {
	switch s {
	case StatePreparing:
		return "preparing"
	case StateSuspended:
		return "suspended"
	case StateResuming:
		return "resuming"
	default:
		return "idle"
	}
}
