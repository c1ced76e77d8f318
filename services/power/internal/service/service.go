package service

import (
	"context"
	"time"

	"powercode-go/bus"
	"powercode-go/errcode"
	"powercode-go/services/power/sleepreq"
	"powercode-go/sleep"
	"powercode-go/types"
	"powercode-go/x/timex"
)

const (
	ctrlValidate = "validate"
	ctrlEnter    = "enter"

	defaultSettle = 50 * time.Millisecond
)

var (
	topicConfigPower = bus.T("config", "power")
	topicCtrl        = bus.T("hal", "power", "sleep", "control", "+")
	topicState       = bus.T("hal", "power", "sleep", "state")
	topicWakeup      = bus.T("hal", "power", "sleep", "wakeup")
)

// Service exposes one sleep controller on the bus. Requests are handled in
// arrival order on the Run goroutine; a stop-mode entry blocks it until the
// device wakes.
type Service struct {
	conn *bus.Connection
	res  sleep.Resources
	lim  sleep.Limits

	ctrl       *sleep.Controller
	wantReason bool
	settle     time.Duration

	now func() time.Time
}

// New builds a service over res with the board's limits as defaults until
// config/power arrives.
func New(conn *bus.Connection, res sleep.Resources, lim sleep.Limits) *Service {
	return &Service{
		conn:       conn,
		res:        res,
		lim:        lim,
		ctrl:       sleep.New(res, lim),
		wantReason: true,
		settle:     defaultSettle,
		now:        time.Now,
	}
}

func (s *Service) Run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicConfigPower)
	ctrlSub := s.conn.Subscribe(topicCtrl)
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(ctrlSub)

	s.publishState("ready", "board_defaults", nil)

	for {
		select {
		case <-ctx.Done():
			s.publishState("stopped", "context_cancelled", nil)
			return

		case msg, ok := <-cfgSub.Channel():
			if !ok {
				return
			}
			cfg, err := decodeConfig(msg.Payload)
			if err != nil {
				println("[power] config rejected:", err.Error())
				s.publishState("error", "config_decode_failed", err)
				continue
			}
			s.applyConfig(cfg)
			s.publishState("ready", "configured", nil)

		case msg, ok := <-ctrlSub.Channel():
			if !ok {
				return
			}
			method, _ := msg.Topic.At(msg.Topic.Len() - 1).(string)
			switch method {
			case ctrlValidate:
				s.handleValidate(msg)
			case ctrlEnter:
				s.handleEnter(msg)
			default:
				s.replyErr(msg, errcode.NotSupported)
			}
		}
	}
}

func (s *Service) applyConfig(cfg types.PowerConfig) {
	lim := s.lim
	if cfg.PinCount > 0 {
		lim.PinCount = cfg.PinCount
	}
	if cfg.WakePin >= 0 {
		lim.WakePin = cfg.WakePin
	}
	slots := cfg.ReasonSlots
	if slots <= 0 {
		slots = sleep.DefaultReasonSlots
	}
	s.lim = lim
	s.ctrl = sleep.New(s.res, lim, sleep.WithReasonSlots(slots))
	s.wantReason = cfg.WantReason
	s.settle = timex.Ms(cfg.HibernateSettleMs)
	println("[power] configured pins", lim.PinCount, "wake", lim.WakePin, "slots", slots)
}

func (s *Service) handleValidate(msg *bus.Message) {
	req, err := sleepreq.Decode(msg.Payload)
	if err == nil {
		err = s.ctrl.Validate(req)
	}
	if err != nil {
		s.replyErr(msg, err)
		return
	}
	s.conn.Reply(msg, types.SleepReply{OK: true}, false)
}

func (s *Service) handleEnter(msg *bus.Message) {
	req, err := sleepreq.Decode(msg.Payload)
	if err == nil {
		err = s.ctrl.Validate(req)
	}
	if err != nil {
		s.replyErr(msg, err)
		return
	}

	if req.Mode == sleep.ModeHibernate {
		s.hibernate(msg, req)
		return
	}

	s.publishState("sleeping", req.Mode.String(), nil)
	r, err := s.ctrl.Enter(req, s.wantReason)
	if err != nil {
		code := errcode.Of(err)
		println("[power] enter:", err.Error())
		s.replyErr(msg, err)
		if code == errcode.NoMemory {
			// Awake and restored; only the report was lost.
			s.publishState("ready", "awake_no_report", err)
		} else {
			s.publishState("error", "enter_failed", err)
		}
		return
	}

	rep := types.SleepReply{OK: true}
	if r != nil {
		w := sleepreq.Report(r, s.now().UnixMilli())
		r.Release()
		rep.Wakeup = &w
		s.conn.Publish(s.conn.NewMessage(topicWakeup, w, true))
		println("[power] woke on", w.Kind)
	}
	s.conn.Reply(msg, rep, false)
	s.publishState("ready", "awake", nil)
}

// hibernate acknowledges before entering, since success never returns.
// The settle delay gives the reply time to leave over a bridge link.
func (s *Service) hibernate(msg *bus.Message, req sleep.Request) {
	s.conn.Reply(msg, types.SleepReply{OK: true}, false)
	s.publishState("sleeping", "hibernate", nil)
	println("[power] hibernate")
	if s.settle > 0 {
		time.Sleep(s.settle)
	}
	_, err := s.ctrl.Enter(req, false)
	println("[power] hibernate failed:", err.Error())
	s.publishState("error", "hibernate_failed", err)
}

func (s *Service) replyErr(msg *bus.Message, err error) {
	s.conn.Reply(msg, types.SleepReply{OK: false, Error: string(errcode.Of(err))}, false)
}

func (s *Service) publishState(level, status string, err error) {
	pl := types.PowerState{Level: level, Status: status, TS: s.now().UnixMilli()}
	if err != nil {
		pl.Error = err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(topicState, pl, true))
}

// decodeConfig accepts the typed config or the object map the config
// service publishes. Missing keys keep their defaults; wake_pin -1 keeps
// the board's.
func decodeConfig(p any) (types.PowerConfig, error) {
	cfg := types.PowerConfig{WakePin: -1, WantReason: true, HibernateSettleMs: int(defaultSettle / time.Millisecond)}
	switch v := p.(type) {
	case types.PowerConfig:
		return v, nil
	case map[string]any:
		if n, ok := sleepreq.AsInt(v["pin_count"]); ok {
			cfg.PinCount = n
		}
		if n, ok := sleepreq.AsInt(v["wake_pin"]); ok {
			cfg.WakePin = n
		}
		if n, ok := sleepreq.AsInt(v["reason_slots"]); ok {
			cfg.ReasonSlots = n
		}
		if b, ok := v["want_reason"].(bool); ok {
			cfg.WantReason = b
		}
		if n, ok := sleepreq.AsInt(v["hibernate_settle_ms"]); ok && n >= 0 {
			cfg.HibernateSettleMs = n
		}
		return cfg, nil
	default:
		return cfg, errcode.InvalidPayload
	}
}
