package types

// ---- Sleep control payloads ----
//
// Carried on hal/power/sleep/control/{validate,enter}. The same shapes are
// used in-process, in CBOR bridge frames and in sleepctl plan files.

type SleepSource struct {
	Kind       string `json:"kind" cbor:"kind" yaml:"kind"` // "gpio", "rtc", "network"
	Pin        int    `json:"pin,omitempty" cbor:"pin,omitempty" yaml:"pin,omitempty"`
	Edge       string `json:"edge,omitempty" cbor:"edge,omitempty" yaml:"edge,omitempty"` // "rising", "falling", "change"
	DurationMs uint32 `json:"duration_ms,omitempty" cbor:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
}

type SleepRequest struct {
	Mode    string        `json:"mode" cbor:"mode" yaml:"mode"` // "stop", "hibernate", ...
	Sources []SleepSource `json:"sources" cbor:"sources" yaml:"sources"`
}

// WakeupReport names the source that ended a stop-mode wait.
type WakeupReport struct {
	Kind string `json:"kind" cbor:"kind"`
	Pin  int    `json:"pin" cbor:"pin"` // meaningful for gpio only; 0 is a valid pin
	Edge string `json:"edge,omitempty" cbor:"edge,omitempty"`
	TS   int64  `json:"ts_ms" cbor:"ts_ms"`
}

type SleepReply struct {
	OK     bool          `json:"ok" cbor:"ok"`
	Error  string        `json:"error,omitempty" cbor:"error,omitempty"`
	Wakeup *WakeupReport `json:"wakeup,omitempty" cbor:"wakeup,omitempty"`
}

// ---- Power service state (retained) ----

type PowerState struct {
	Level  string `json:"level" cbor:"level"`   // "idle", "ready", "sleeping", "error", "stopped"
	Status string `json:"status" cbor:"status"` // short code
	Error  string `json:"error,omitempty" cbor:"error,omitempty"`
	TS     int64  `json:"ts_ms" cbor:"ts_ms"`
}

// PowerConfig arrives on config/power.
type PowerConfig struct {
	PinCount          int  `json:"pin_count"`
	WakePin           int  `json:"wake_pin"`
	ReasonSlots       int  `json:"reason_slots"`
	WantReason        bool `json:"want_reason"`
	HibernateSettleMs int  `json:"hibernate_settle_ms"`
}
