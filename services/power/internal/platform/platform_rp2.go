//go:build rp2040

package platform

import (
	"device/arm"
	"errors"
	"machine"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"

	"powercode-go/drivers/ds3231"
	"powercode-go/services/power/internal/boards"
	"powercode-go/sleep"
)

// ---- RP2040 register map (the subset the sleep sequence touches) ----

const (
	sysTickCSR = 0xE000E010
	nvicISER   = 0xE000E100
	nvicICER   = 0xE000E180
	nvicISPR   = 0xE000E200
	nvicICPR   = 0xE000E280
	scbAIRCR   = 0xE000ED0C
	scbSCR     = 0xE000ED10

	clocksBase = 0x40008000
	ioBank0    = 0x40014000
	xoscBase   = 0x40024000
	pllSysBase = 0x40028000
	usbRegs    = 0x50110000
)

const (
	irqIOBank0 = 13

	scrSleepDeep    = 1 << 2
	aircrSysReset   = 0x05FA0004
	sysTickEnable   = 1 << 0
	sysTickTickInt  = 1 << 1
	usbSieCtrl      = 0x4C
	usbPullupEnable = 1 << 16

	clkRefCtrl     = 0x30
	clkSysCtrl     = 0x3C
	clkSysSelected = 0x44

	xoscCtrl       = 0x00
	xoscStatus     = 0x04
	xoscDormant    = 0x08
	xoscStartup    = 0x0C
	xoscEnable     = 0xFAB << 12
	xoscDisable    = 0xD1E << 12
	xoscRange1to15 = 0xAA0
	xoscStable     = 1 << 31
	xoscDormantCmd = 0x636F6D61 // "coma"

	pllCS       = 0x00
	pllPWR      = 0x04
	pllLock     = 1 << 31
	pllPD       = 1 << 0
	pllPostDiv  = 1 << 3
	pllVCOPD    = 1 << 5
	pllPowerOff = pllPD | pllPostDiv | pllVCOPD

	ioIntr0         = 0x0F0
	ioProc0Inte0    = 0x100
	ioProc0Ints0    = 0x120
	ioDormantInte0  = 0x160
	ioEdgeLow       = 1 << 2
	ioEdgeHigh      = 1 << 3
	ioEdges         = ioEdgeLow | ioEdgeHigh
	uartCR          = 0x30
	uartFR          = 0x18
	uartEnable      = 1 << 0
	uartBusy        = 1 << 3
	xoscStableSpins = 1 << 20
)

var uartBase = [...]uintptr{0x40034000, 0x40038000}

func reg(addr uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(addr))
}

// gpioReg returns the bank register holding pin's four event bits and the
// shift of those bits.
func gpioReg(base uintptr, pin int) (*volatile.Register32, uint32) {
	return reg(ioBank0 + base + uintptr(pin/8)*4), uint32(pin%8) * 4
}

func edgeBits(e sleep.Edge) uint32 {
	switch e {
	case sleep.EdgeRising:
		return ioEdgeHigh
	case sleep.EdgeFalling:
		return ioEdgeLow
	default:
		return ioEdges
	}
}

// ---- device ----

type device struct {
	board boards.Board
	rtc   *ds3231.Device

	tickCSR    uint32
	wakePin    bool
	alarmArmed bool
}

// Open binds the sleep collaborators to the RP2040 and, when the board has
// one, the external DS3231 on I2C0.
func Open(b boards.Board) (sleep.Resources, error) {
	d := &device{board: b}
	if b.ExternalRTC {
		i2c := machine.I2C0
		err := i2c.Configure(machine.I2CConfig{
			Frequency: 400 * machine.KHz,
			SDA:       machine.Pin(b.Defaults.I2C0_SDA),
			SCL:       machine.Pin(b.Defaults.I2C0_SCL),
		})
		if err != nil {
			return sleep.Resources{}, err
		}
		rtc := ds3231.New(i2c)
		d.rtc = &rtc
		machine.Pin(b.RTCIntPin).Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	}
	return sleep.Resources{
		Tick:   tick{d},
		USB:    usb{},
		Serial: serial{d},
		Pins:   pins{},
		IRQ:    irq{d},
		RTC:    rtc{d},
		Power:  power{d},
		Clock:  clock{},
	}, nil
}

// ---- tick ----

type tick struct{ d *device }

func (t tick) Disable() {
	csr := reg(sysTickCSR)
	t.d.tickCSR = csr.Get()
	csr.ClearBits(sysTickEnable | sysTickTickInt)
}

func (t tick) Enable() {
	reg(sysTickCSR).SetBits(t.d.tickCSR & (sysTickEnable | sysTickTickInt))
}

// ---- usb: pull-up removal looks like a cable pull to the host ----

type usb struct{}

func (usb) Detach() { reg(usbRegs + usbSieCtrl).ClearBits(usbPullupEnable) }
func (usb) Attach() { reg(usbRegs + usbSieCtrl).SetBits(usbPullupEnable) }

// ---- serial ----

type serial struct{ d *device }

func (s serial) Ports() int {
	if n := len(s.d.board.UART); n < len(uartBase) {
		return n
	}
	return len(uartBase)
}

func (serial) Enabled(port int) bool {
	return reg(uartBase[port]+uartCR).HasBits(uartEnable)
}

func (serial) Flush(port int) {
	fr := reg(uartBase[port] + uartFR)
	for fr.HasBits(uartBusy) {
	}
}

// ---- pins ----

type pins struct{}

func (pins) SetMode(pin int, m sleep.PinMode) {
	mode := machine.PinInput
	switch m {
	case sleep.PinInputPullup:
		mode = machine.PinInputPullup
	case sleep.PinInputPulldown:
		mode = machine.PinInputPulldown
	}
	machine.Pin(pin).Configure(machine.PinConfig{Mode: mode})
}

// Every GPIO has its own event bits; the line is the pin.
func (pins) Line(pin int) int { return pin }

// ---- interrupts ----

type irq struct{ d *device }

var savedISER uint32

func (irq) Disable() sleep.IRQState  { return sleep.IRQState(interrupt.Disable()) }
func (irq) Restore(st sleep.IRQState) { interrupt.Restore(interrupt.State(st)) }

// Suspend masks every NVIC line; wake sources re-enable the GPIO bank line.
func (irq) Suspend() {
	savedISER = reg(nvicISER).Get()
	reg(nvicICER).Set(0xFFFFFFFF)
}

func (i irq) Resume() {
	if i.d.rtc != nil {
		i.disarm(i.d.board.RTCIntPin)
	}
	reg(nvicICPR).Set(1 << irqIOBank0)
	reg(nvicISER).Set(savedISER)
}

func (i irq) Attach(pin int, e sleep.Edge) error {
	if pin < 0 || pin >= i.d.board.PinCount {
		return errors.New("rp2: pin out of range")
	}
	i.arm(pin, edgeBits(e))
	return nil
}

func (i irq) Detach(pin int) { i.disarm(pin) }

func (i irq) arm(pin int, bits uint32) {
	intr, sh := gpioReg(ioIntr0, pin)
	intr.Set(ioEdges << sh) // write-1-to-clear stale edges
	inte, _ := gpioReg(ioProc0Inte0, pin)
	inte.SetBits(bits << sh)
	reg(nvicISER).Set(1 << irqIOBank0)
}

func (irq) disarm(pin int) {
	inte, sh := gpioReg(ioProc0Inte0, pin)
	inte.ClearBits(ioEdges << sh)
	intr, _ := gpioReg(ioIntr0, pin)
	intr.Set(ioEdges << sh)
}

// AlarmPending reads the DS3231 flag; the INT line alone cannot tell a
// late alarm from one cancelled after it fired.
func (i irq) AlarmPending() bool {
	if i.d.rtc == nil || !i.d.alarmArmed {
		return false
	}
	fired, err := i.d.rtc.Alarm1Fired()
	return err == nil && fired
}

func (irq) ExternalPending() bool {
	return reg(nvicISPR).HasBits(1 << irqIOBank0)
}

func (irq) LinePending(line int) bool {
	ints, sh := gpioReg(ioProc0Ints0, line)
	return ints.Get()&(ioEdges<<sh) != 0
}

// ---- rtc ----

type rtc struct{ d *device }

func (r rtc) CancelAlarm() {
	r.d.alarmArmed = false
	if r.d.rtc == nil {
		return
	}
	_ = r.d.rtc.EnableAlarm1(false)
	_ = r.d.rtc.ClearAlarm1()
}

func (r rtc) SetAlarm(seconds uint32) {
	if r.d.rtc == nil {
		return
	}
	if r.d.rtc.SetAlarm1In(seconds) == nil && r.d.rtc.EnableAlarm1(true) == nil {
		r.d.alarmArmed = true
	}
}

// RouteAlarm arms the GPIO wired to INT/SQW (active low).
func (r rtc) RouteAlarm() {
	if r.d.rtc == nil || !r.d.alarmArmed {
		return
	}
	irq{r.d}.arm(r.d.board.RTCIntPin, ioEdgeLow)
}

// ---- power ----

type power struct{ d *device }

// EnterStop parks clk_sys on the ring oscillator, powers down PLL_SYS and
// the crystal, then waits for an enabled interrupt with SLEEPDEEP set.
func (power) EnterStop() {
	reg(clocksBase + clkSysCtrl).ClearBits(1) // src = clk_ref
	for !reg(clocksBase + clkSysSelected).HasBits(1) {
	}
	reg(clocksBase + clkRefCtrl).ClearBits(3) // clk_ref = rosc
	reg(pllSysBase + pllPWR).SetBits(pllPowerOff)
	reg(xoscBase + xoscCtrl).Set(xoscRange1to15 | xoscDisable)

	reg(scbSCR).SetBits(scrSleepDeep)
	arm.Asm("wfi")
	reg(scbSCR).ClearBits(scrSleepDeep)
}

func (p power) SetWakePin(enabled bool) {
	p.d.wakePin = enabled
	pin := p.d.board.WakePin
	inte, sh := gpioReg(ioDormantInte0, pin)
	if !enabled {
		inte.ClearBits(ioEdges << sh)
		return
	}
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	inte.SetBits(ioEdgeHigh << sh)
}

// EnterStandby puts the crystal in DORMANT. Any wake, from the wake pin or
// the DS3231 INT line, is followed by a system reset so resumption is a
// restart. It returns only if dormant cannot be entered.
func (p power) EnterStandby() error {
	if !reg(xoscBase + xoscStatus).HasBits(xoscStable) {
		return errors.New("rp2: xosc not running")
	}
	if p.d.alarmArmed {
		inte, sh := gpioReg(ioDormantInte0, p.d.board.RTCIntPin)
		inte.SetBits(ioEdgeLow << sh)
	}
	reg(clocksBase + clkSysCtrl).ClearBits(1)
	reg(clocksBase + clkRefCtrl).ReplaceBits(2, 3, 0) // clk_ref = xosc
	reg(xoscBase + xoscDormant).Set(xoscDormantCmd)
	reg(scbAIRCR).Set(aircrSysReset)
	for {
		arm.Asm("wfi")
	}
}

// ---- clock ----

type clock struct{}

// EnableOscillator restarts the crystal. A crystal that does not report
// stable within the spin budget is treated as failed.
func (clock) EnableOscillator() bool {
	reg(xoscBase + xoscStartup).Set(47) // ~1 ms at 12 MHz
	reg(xoscBase + xoscCtrl).Set(xoscRange1to15 | xoscEnable)
	st := reg(xoscBase + xoscStatus)
	for i := 0; i < xoscStableSpins; i++ {
		if st.HasBits(xoscStable) {
			reg(clocksBase + clkRefCtrl).ReplaceBits(2, 3, 0)
			return true
		}
	}
	return false
}

// EnableMultiplier powers PLL_SYS back up with its dividers untouched and
// waits for lock.
func (clock) EnableMultiplier() {
	reg(pllSysBase + pllPWR).ClearBits(pllPowerOff)
	for !reg(pllSysBase + pllCS).HasBits(pllLock) {
	}
}

// SelectMultiplied switches clk_sys back to its aux source, pll_sys.
func (clock) SelectMultiplied() {
	ctrl := reg(clocksBase + clkSysCtrl)
	ctrl.ReplaceBits(0, 7, 5) // auxsrc = clksrc_pll_sys
	ctrl.SetBits(1)
	for !reg(clocksBase + clkSysSelected).HasBits(2) {
	}
}

func (clock) Reset() {
	reg(scbAIRCR).Set(aircrSysReset)
	for {
		arm.Asm("wfi")
	}
}
