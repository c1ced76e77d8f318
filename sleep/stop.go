package sleep

// enterStop runs Preparing → Suspended → Resuming and returns to Idle.
// Restoration is deferred so every exit path, including an arming failure,
// leaves the critical section with peripherals back.
func (c *Controller) enterStop(req Request, want bool) (*Reason, error) {
	r := c.res
	c.setState(StatePreparing)
	defer c.setState(StateIdle)

	q := quiescer{tick: r.Tick, usb: r.USB, serial: r.Serial}
	q.suspend()
	defer q.resume()

	st := r.IRQ.Disable()
	defer r.IRQ.Restore(st)

	r.IRQ.Suspend()
	defer r.IRQ.Resume()

	// Disarm covers every configured source, armed or not, and runs after
	// the reason has been read.
	defer c.disarmStop(req.Sources)
	if err := c.armStop(req.Sources); err != nil {
		return nil, err
	}

	c.setState(StateSuspended)
	r.Power.EnterStop()

	c.setState(StateResuming)
	c.restoreClocks()
	return c.resolve(req.Sources, want)
}

func (c *Controller) armStop(sources []Source) error {
	r := c.res
	for _, s := range sources {
		switch v := s.(type) {
		case GPIO:
			r.Pins.SetMode(v.Pin, wakePinMode(v.Edge))
			if err := r.IRQ.Attach(v.Pin, v.Edge); err != nil {
				return err
			}
		case RTC:
			r.RTC.CancelAlarm()
			r.RTC.SetAlarm(v.Seconds())
			r.RTC.RouteAlarm()
		}
	}
	return nil
}

func (c *Controller) disarmStop(sources []Source) {
	r := c.res
	for _, s := range sources {
		switch v := s.(type) {
		case RTC:
			// Cancelled even when a pin woke us, so the alarm cannot fire
			// into the application later.
			r.RTC.CancelAlarm()
		case GPIO:
			r.IRQ.Detach(v.Pin)
		}
	}
}

// restoreClocks brings the clock tree back after the wait. An oscillator
// that never becomes ready resets the device.
func (c *Controller) restoreClocks() {
	clk := c.res.Clock
	if !clk.EnableOscillator() {
		clk.Reset()
	}
	clk.EnableMultiplier()
	clk.SelectMultiplied()
}
