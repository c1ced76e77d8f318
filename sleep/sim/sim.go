// Package sim is an in-memory device implementing every sleep collaborator.
// It records the primitive call sequence and exposes a comparable snapshot
// of hardware state so tests can check that a sleep call put everything back.
package sim

import (
	"errors"
	"runtime"
	"sync"

	"powercode-go/sleep"
)

// MaxPins bounds the simulated GPIO bank.
const MaxPins = 64

// Snapshot is the hardware state a sleep call must restore. Pin modes are
// left out: wake pins keep their input configuration after a stop.
type Snapshot struct {
	TickEnabled  bool
	USBAttached  bool
	IRQEnabled   bool
	ExtSuspended bool

	AlarmArmed   bool
	AlarmSeconds uint32
	AlarmRouted  bool
	WakePin      bool

	Attached uint64 // bit n: pin n has an armed trigger
	Pending  uint32 // bit n: external line n pending
	AlarmPnd bool

	Oscillator bool
	PLL        bool
	SysClkPLL  bool
}

// Hardware is the simulated device.
type Hardware struct {
	mu sync.Mutex

	lim   sleep.Limits
	snap  Snapshot
	modes [MaxPins]sleep.PinMode
	edges [MaxPins]sleep.Edge

	uartEnabled []bool
	uartQueued  []int

	calls      []string
	violations []string

	// OnStop runs inside EnterStop, after the clock tree dropped. Tests use
	// it to raise pending flags.
	OnStop func(h *Hardware)
	// OscillatorFails makes EnableOscillator report failure.
	OscillatorFails bool
	// StandbyErr, when set, is returned by EnterStandby instead of ending
	// the calling goroutine.
	StandbyErr error
	// AttachErr injects an Attach failure for a pin.
	AttachErr map[int]error

	lastAlarm uint32
	resets    int
	standbys  int
	stops     int
	flushes   []int
}

// ErrBadPin is returned by Attach for pins outside the bank.
var ErrBadPin = errors.New("sim: bad pin")

// New returns a running device: clocks on the PLL, tick on, USB attached,
// interrupts enabled, uarts ports present and disabled.
func New(lim sleep.Limits, uarts int) *Hardware {
	return &Hardware{
		lim: lim,
		snap: Snapshot{
			TickEnabled: true,
			USBAttached: true,
			IRQEnabled:  true,
			Oscillator:  true,
			PLL:         true,
			SysClkPLL:   true,
		},
		uartEnabled: make([]bool, uarts),
		uartQueued:  make([]int, uarts),
	}
}

// Resources exposes the device as sleep collaborators.
func (h *Hardware) Resources() sleep.Resources {
	return sleep.Resources{
		Tick:   tick{h},
		USB:    usb{h},
		Serial: serial{h},
		Pins:   pins{h},
		IRQ:    irq{h},
		RTC:    rtc{h},
		Power:  power{h},
		Clock:  clock{h},
	}
}

// Limits returns the board limits the device was built with.
func (h *Hardware) Limits() sleep.Limits { return h.lim }

// Snapshot returns the current hardware state.
func (h *Hardware) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snap
}

// Calls returns the primitive call log in order.
func (h *Hardware) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

// Violations lists ordering rule breaches seen so far (nested suspend,
// restore without disable, and so on).
func (h *Hardware) Violations() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.violations...)
}

// PinMode returns the last mode set on pin.
func (h *Hardware) PinMode(pin int) sleep.PinMode {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.modes[pin]
}

// LastAlarm is the seconds value of the most recent SetAlarm.
func (h *Hardware) LastAlarm() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastAlarm
}

// Counters.
func (h *Hardware) Resets() int   { h.mu.Lock(); defer h.mu.Unlock(); return h.resets }
func (h *Hardware) Standbys() int { h.mu.Lock(); defer h.mu.Unlock(); return h.standbys }
func (h *Hardware) Stops() int    { h.mu.Lock(); defer h.mu.Unlock(); return h.stops }

// Flushes lists the serial ports flushed, in order.
func (h *Hardware) Flushes() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int(nil), h.flushes...)
}

// EnableUART marks port enabled with queued bytes awaiting transmission.
func (h *Hardware) EnableUART(port, queued int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.uartEnabled[port] = true
	h.uartQueued[port] = queued
}

// Queued reports bytes still waiting on port.
func (h *Hardware) Queued(port int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.uartQueued[port]
}

// FirePin raises the external line of pin if a trigger is armed on it.
// Call from OnStop.
func (h *Hardware) FirePin(pin int) {
	if pin < 0 || pin >= MaxPins {
		return
	}
	if h.snap.Attached&(1<<uint(pin)) != 0 {
		h.snap.Pending |= 1 << uint(line(pin))
	}
}

// FireAlarm raises the alarm line if an alarm is armed and routed.
// Call from OnStop.
func (h *Hardware) FireAlarm() {
	if h.snap.AlarmArmed && h.snap.AlarmRouted {
		h.snap.AlarmPnd = true
	}
}

func line(pin int) int { return pin % 16 }

func (h *Hardware) log(call string) { h.calls = append(h.calls, call) }

func (h *Hardware) violate(v string) { h.violations = append(h.violations, v) }

// ---- collaborators ----

type tick struct{ h *Hardware }

func (t tick) Enable() {
	t.h.mu.Lock()
	defer t.h.mu.Unlock()
	t.h.log("tick.enable")
	t.h.snap.TickEnabled = true
}

func (t tick) Disable() {
	t.h.mu.Lock()
	defer t.h.mu.Unlock()
	t.h.log("tick.disable")
	t.h.snap.TickEnabled = false
}

type usb struct{ h *Hardware }

func (u usb) Detach() {
	u.h.mu.Lock()
	defer u.h.mu.Unlock()
	u.h.log("usb.detach")
	u.h.snap.USBAttached = false
}

func (u usb) Attach() {
	u.h.mu.Lock()
	defer u.h.mu.Unlock()
	u.h.log("usb.attach")
	u.h.snap.USBAttached = true
}

type serial struct{ h *Hardware }

func (s serial) Ports() int {
	s.h.mu.Lock()
	defer s.h.mu.Unlock()
	return len(s.h.uartEnabled)
}

func (s serial) Enabled(port int) bool {
	s.h.mu.Lock()
	defer s.h.mu.Unlock()
	return s.h.uartEnabled[port]
}

func (s serial) Flush(port int) {
	s.h.mu.Lock()
	defer s.h.mu.Unlock()
	s.h.log("uart.flush")
	s.h.uartQueued[port] = 0
	s.h.flushes = append(s.h.flushes, port)
}

type pins struct{ h *Hardware }

func (p pins) SetMode(pin int, mode sleep.PinMode) {
	p.h.mu.Lock()
	defer p.h.mu.Unlock()
	p.h.log("pin.mode")
	if pin >= 0 && pin < MaxPins {
		p.h.modes[pin] = mode
	}
}

func (p pins) Line(pin int) int { return line(pin) }

type irq struct{ h *Hardware }

func (i irq) Disable() sleep.IRQState {
	i.h.mu.Lock()
	defer i.h.mu.Unlock()
	i.h.log("irq.disable")
	var st sleep.IRQState
	if i.h.snap.IRQEnabled {
		st = 1
	}
	i.h.snap.IRQEnabled = false
	return st
}

func (i irq) Restore(st sleep.IRQState) {
	i.h.mu.Lock()
	defer i.h.mu.Unlock()
	i.h.log("irq.restore")
	if i.h.snap.IRQEnabled {
		i.h.violate("restore without disable")
	}
	i.h.snap.IRQEnabled = st == 1
}

func (i irq) Suspend() {
	i.h.mu.Lock()
	defer i.h.mu.Unlock()
	i.h.log("ext.suspend")
	if i.h.snap.ExtSuspended {
		i.h.violate("nested suspend")
	}
	i.h.snap.ExtSuspended = true
}

// Resume also drops the alarm routing, as the controller's restore does on
// hardware.
func (i irq) Resume() {
	i.h.mu.Lock()
	defer i.h.mu.Unlock()
	i.h.log("ext.resume")
	if !i.h.snap.ExtSuspended {
		i.h.violate("resume without suspend")
	}
	i.h.snap.ExtSuspended = false
	i.h.snap.AlarmRouted = false
}

func (i irq) Attach(pin int, edge sleep.Edge) error {
	i.h.mu.Lock()
	defer i.h.mu.Unlock()
	i.h.log("ext.attach")
	if err := i.h.AttachErr[pin]; err != nil {
		return err
	}
	if pin < 0 || pin >= MaxPins {
		return ErrBadPin
	}
	if i.h.snap.IRQEnabled {
		i.h.violate("attach with interrupts enabled")
	}
	i.h.snap.Attached |= 1 << uint(pin)
	i.h.edges[pin] = edge
	return nil
}

func (i irq) Detach(pin int) {
	i.h.mu.Lock()
	defer i.h.mu.Unlock()
	i.h.log("ext.detach")
	if pin < 0 || pin >= MaxPins {
		return
	}
	i.h.snap.Attached &^= 1 << uint(pin)
	i.h.snap.Pending &^= 1 << uint(line(pin))
	i.h.edges[pin] = sleep.EdgeInvalid
}

func (i irq) AlarmPending() bool {
	i.h.mu.Lock()
	defer i.h.mu.Unlock()
	return i.h.snap.AlarmPnd
}

func (i irq) ExternalPending() bool {
	i.h.mu.Lock()
	defer i.h.mu.Unlock()
	return i.h.snap.Pending != 0
}

func (i irq) LinePending(l int) bool {
	i.h.mu.Lock()
	defer i.h.mu.Unlock()
	return i.h.snap.Pending&(1<<uint(l)) != 0
}

type rtc struct{ h *Hardware }

func (r rtc) CancelAlarm() {
	r.h.mu.Lock()
	defer r.h.mu.Unlock()
	r.h.log("rtc.cancel")
	r.h.snap.AlarmArmed = false
	r.h.snap.AlarmSeconds = 0
	r.h.snap.AlarmPnd = false
}

func (r rtc) SetAlarm(seconds uint32) {
	r.h.mu.Lock()
	defer r.h.mu.Unlock()
	r.h.log("rtc.set")
	r.h.snap.AlarmArmed = true
	r.h.snap.AlarmSeconds = seconds
	r.h.lastAlarm = seconds
}

func (r rtc) RouteAlarm() {
	r.h.mu.Lock()
	defer r.h.mu.Unlock()
	r.h.log("rtc.route")
	r.h.snap.AlarmRouted = true
}

type power struct{ h *Hardware }

// EnterStop drops the clock tree to the internal oscillator, runs OnStop
// and returns. With nothing pending it behaves as a spurious wakeup.
func (p power) EnterStop() {
	p.h.mu.Lock()
	p.h.log("pwr.stop")
	if p.h.snap.IRQEnabled {
		p.h.violate("stop with interrupts enabled")
	}
	p.h.stops++
	p.h.snap.Oscillator = false
	p.h.snap.PLL = false
	p.h.snap.SysClkPLL = false
	hook := p.h.OnStop
	if hook != nil {
		hook(p.h) // hooks run under the lock and touch snap directly
	}
	p.h.mu.Unlock()
}

// EnterStandby ends the calling goroutine, the host equivalent of a
// context that does not survive standby.
func (p power) EnterStandby() error {
	p.h.mu.Lock()
	p.h.log("pwr.standby")
	p.h.standbys++
	err := p.h.StandbyErr
	p.h.mu.Unlock()
	if err != nil {
		return err
	}
	runtime.Goexit()
	return nil
}

func (p power) SetWakePin(enabled bool) {
	p.h.mu.Lock()
	defer p.h.mu.Unlock()
	p.h.log("pwr.wakepin")
	p.h.snap.WakePin = enabled
}

type clock struct{ h *Hardware }

func (c clock) EnableOscillator() bool {
	c.h.mu.Lock()
	defer c.h.mu.Unlock()
	c.h.log("clk.osc")
	if c.h.OscillatorFails {
		return false
	}
	c.h.snap.Oscillator = true
	return true
}

func (c clock) EnableMultiplier() {
	c.h.mu.Lock()
	defer c.h.mu.Unlock()
	c.h.log("clk.pll")
	if !c.h.snap.Oscillator {
		c.h.violate("pll without oscillator")
	}
	c.h.snap.PLL = true
}

func (c clock) SelectMultiplied() {
	c.h.mu.Lock()
	defer c.h.mu.Unlock()
	c.h.log("clk.sysclk")
	if !c.h.snap.PLL {
		c.h.violate("sysclk switch without pll")
	}
	c.h.snap.SysClkPLL = true
}

// Reset ends the calling goroutine; a reset never returns.
func (c clock) Reset() {
	c.h.mu.Lock()
	c.h.log("clk.reset")
	c.h.resets++
	c.h.mu.Unlock()
	runtime.Goexit()
}
