package sleep

import (
	"errors"

	"powercode-go/errcode"
)

var errStandbyReturned = errors.New("standby returned")

// enterHibernate arms the alarm and wake pin and enters standby. On success
// it does not return; resumption is a restart.
func (c *Controller) enterHibernate(req Request) error {
	r := c.res
	wakePin := false
	armed := false
	for _, s := range req.Sources {
		switch v := s.(type) {
		case RTC:
			r.RTC.CancelAlarm()
			r.RTC.SetAlarm(v.Seconds())
			armed = true
		case GPIO:
			// Only the wake pin is legal here, so one flag is enough.
			wakePin = true
		}
	}
	// Always written so a previous call cannot leave it enabled.
	r.Power.SetWakePin(wakePin)

	c.setState(StateSuspended)
	err := r.Power.EnterStandby()

	// Standby did not begin: undo what was armed.
	if armed {
		r.RTC.CancelAlarm()
	}
	r.Power.SetWakePin(false)
	c.setState(StateIdle)
	if err == nil {
		err = errStandbyReturned
	}
	return &errcode.E{C: errcode.Error, Op: "hibernate", Err: err}
}
