package sleep

import "powercode-go/errcode"

// Limits are the board constants validation depends on.
type Limits struct {
	PinCount int // valid pins are [0, PinCount)
	WakePin  int // the only pin able to leave hibernate
}

// rule checks one source for one mode. Sources reaching a rule are of the
// kind the rule is registered for.
type rule func(lim Limits, s Source) error

// rules is indexed by mode, then by source kind. A missing entry means the
// kind is not supported in that mode.
var rules = map[Mode]map[Kind]rule{
	ModeStop: {
		KindGPIO:    gpioStop,
		KindRTC:     rtcDuration,
		KindNetwork: allow,
	},
	ModeHibernate: {
		KindGPIO:    gpioHibernate,
		KindRTC:     rtcDuration,
		KindNetwork: reject,
	},
}

// Validate checks req against lim without touching hardware. The first
// failing rule wins; nil means the request may be entered.
func Validate(req Request, lim Limits) error {
	if req.Mode == ModeNone || req.Mode >= modeMax {
		return errcode.InvalidArgument
	}
	if req.Mode == ModeUltraLowPower {
		return errcode.NotSupported
	}
	// Stop needs something to end the wait.
	if req.Mode == ModeStop && len(req.Sources) == 0 {
		return errcode.InvalidArgument
	}
	byKind := rules[req.Mode]
	for _, s := range req.Sources {
		check, ok := byKind[kindOf(s)]
		if !ok {
			return errcode.NotSupported
		}
		if err := check(lim, s); err != nil {
			return err
		}
	}
	return nil
}

func validEdge(e Edge) bool {
	return e == EdgeRising || e == EdgeFalling || e == EdgeChange
}

func gpioStop(lim Limits, s Source) error {
	g := s.(GPIO)
	if !validEdge(g.Edge) {
		return errcode.InvalidArgument
	}
	if g.Pin < 0 || g.Pin >= lim.PinCount {
		return errcode.LimitExceeded
	}
	return nil
}

func gpioHibernate(lim Limits, s Source) error {
	g := s.(GPIO)
	if !validEdge(g.Edge) {
		return errcode.InvalidArgument
	}
	if g.Pin != lim.WakePin {
		return errcode.NotSupported
	}
	return nil
}

func rtcDuration(_ Limits, s Source) error {
	if s.(RTC).DurationMs < MinRTCDurationMs {
		return errcode.InvalidArgument
	}
	return nil
}

func allow(Limits, Source) error  { return nil }
func reject(Limits, Source) error { return errcode.NotSupported }
