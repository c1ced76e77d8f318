package sleep

import (
	"sync/atomic"

	"powercode-go/errcode"
)

// DefaultReasonSlots is the report pool size when no option overrides it.
const DefaultReasonSlots = 2

// Controller owns the sleep sequencing for one device.
type Controller struct {
	res     Resources
	lim     Limits
	reasons *reasonPool

	busy  atomic.Bool
	state atomic.Uint32
}

// Option adjusts a Controller at construction.
type Option func(*Controller)

// WithReasonSlots sets how many wakeup reports may be outstanding at once.
func WithReasonSlots(n int) Option {
	return func(c *Controller) { c.reasons = newReasonPool(n) }
}

// New builds a Controller over res. Every Resources field must be set.
func New(res Resources, lim Limits, opts ...Option) *Controller {
	c := &Controller{res: res, lim: lim}
	for _, o := range opts {
		o(c)
	}
	if c.reasons == nil {
		c.reasons = newReasonPool(DefaultReasonSlots)
	}
	return c
}

// Limits returns the board limits used for validation.
func (c *Controller) Limits() Limits { return c.lim }

// Validate checks req against this controller's limits. It has no side
// effects and may be called at any time.
func (c *Controller) Validate(req Request) error { return Validate(req, c.lim) }

// State reports where the controller is in its sequence.
func (c *Controller) State() State { return State(c.state.Load()) }

// Outstanding counts wakeup reports handed out and not yet released.
func (c *Controller) Outstanding() int { return c.reasons.outstanding() }

// Enter validates req and sleeps.
//
// ModeStop blocks until an armed source is pending, restores the device and
// returns. When wantReason is set and a configured source was pending, the
// returned Reason describes it and the caller must Release it. A nil Reason
// with a nil error means no configured source matched. errcode.NoMemory
// means the device woke normally but no report could be stored.
//
// ModeHibernate does not return on success.
//
// Calls do not nest; a second caller gets errcode.Busy.
func (c *Controller) Enter(req Request, wantReason bool) (*Reason, error) {
	if err := Validate(req, c.lim); err != nil {
		return nil, err
	}
	if !c.busy.CompareAndSwap(false, true) {
		return nil, errcode.Busy
	}
	defer c.busy.Store(false)

	switch req.Mode {
	case ModeStop:
		return c.enterStop(req, wantReason)
	case ModeHibernate:
		return nil, c.enterHibernate(req)
	default:
		return nil, errcode.NotSupported
	}
}

func (c *Controller) setState(s State) { c.state.Store(uint32(s)) }
