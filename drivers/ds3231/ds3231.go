// Package ds3231 drives the alarm side of a DS3231 real-time clock.
//
// Only alarm 1 is used. It matches on date, hours, minutes and seconds, so
// an alarm set more than a month ahead fires at the first matching date.
// The INT/SQW output is driven low while the alarm flag is set and the
// interrupt is enabled; clearing the flag releases it.
package ds3231

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
)

// I2C address.
const Address = 0x68

// Registers.
const (
	regSeconds = 0x00
	regAlarm1  = 0x07
	regControl = 0x0E
	regStatus  = 0x0F
)

// Control and status bits.
const (
	ctrlA1IE  = 1 << 0
	ctrlINTCN = 1 << 2
	ctrlEOSC  = 1 << 7 // oscillator disable on battery (active high)

	statA1F = 1 << 0
	statOSF = 1 << 7

	hour12 = 1 << 6
	hourPM = 1 << 5
)

var (
	ErrProtocol = errors.New("ds3231: protocol error")
	ErrStopped  = errors.New("ds3231: oscillator stopped")
)

// Device is a DS3231 on an I2C bus.
type Device struct {
	bus     drivers.I2C
	Address uint16
	buf     [8]byte
}

// New creates a Device. The bus must already be configured; the chip is not
// touched.
func New(bus drivers.I2C) Device {
	return Device{bus: bus, Address: Address}
}

// ReadTime returns the clock as UTC. ErrStopped means the oscillator stopped
// at some point and the value cannot be trusted.
func (d *Device) ReadTime() (time.Time, error) {
	st, err := d.readReg(regStatus)
	if err != nil {
		return time.Time{}, err
	}
	b := d.buf[:7]
	if err := d.bus.Tx(d.Address, []byte{regSeconds}, b); err != nil {
		return time.Time{}, err
	}
	sec := fromBCD(b[0] & 0x7F)
	min := fromBCD(b[1] & 0x7F)
	hour := decodeHour(b[2])
	day := fromBCD(b[4] & 0x3F)
	month := fromBCD(b[5] & 0x1F)
	year := 2000 + fromBCD(b[6])
	if b[5]&0x80 != 0 {
		year += 100
	}
	if sec > 59 || min > 59 || hour > 23 || day < 1 || day > 31 || month < 1 || month > 12 {
		return time.Time{}, ErrProtocol
	}
	t := time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC)
	if st&statOSF != 0 {
		return t, ErrStopped
	}
	return t, nil
}

// SetTime writes t (taken as UTC) in 24-hour mode and clears the
// oscillator-stopped flag.
func (d *Device) SetTime(t time.Time) error {
	t = t.UTC()
	year := t.Year() - 2000
	century := byte(0)
	if year >= 100 {
		year -= 100
		century = 0x80
	}
	if year < 0 || year > 99 {
		return ErrProtocol
	}
	w := []byte{
		regSeconds,
		toBCD(t.Second()),
		toBCD(t.Minute()),
		toBCD(t.Hour()),
		byte(t.Weekday()) + 1,
		toBCD(t.Day()),
		toBCD(int(t.Month())) | century,
		toBCD(year),
	}
	if err := d.bus.Tx(d.Address, w, nil); err != nil {
		return err
	}
	return d.updateReg(regStatus, statOSF, 0)
}

// SetAlarm1 programs alarm 1 to match t's date, hour, minute and second.
// The alarm flag is cleared so a stale match cannot fire immediately.
func (d *Device) SetAlarm1(t time.Time) error {
	t = t.UTC()
	w := []byte{
		regAlarm1,
		toBCD(t.Second()),
		toBCD(t.Minute()),
		toBCD(t.Hour()),
		toBCD(t.Day()), // DY/DT = 0: match date
	}
	if err := d.bus.Tx(d.Address, w, nil); err != nil {
		return err
	}
	return d.ClearAlarm1()
}

// SetAlarm1In arms alarm 1 seconds after the current clock reading.
func (d *Device) SetAlarm1In(seconds uint32) error {
	now, err := d.ReadTime()
	if err != nil && !errors.Is(err, ErrStopped) {
		return err
	}
	return d.SetAlarm1(now.Add(time.Duration(seconds) * time.Second))
}

// EnableAlarm1 routes alarm 1 to INT/SQW (or stops doing so).
func (d *Device) EnableAlarm1(on bool) error {
	set := byte(ctrlINTCN)
	if on {
		set |= ctrlA1IE
	}
	return d.updateReg(regControl, ctrlINTCN|ctrlA1IE|ctrlEOSC, set)
}

// Alarm1Fired reports the alarm 1 flag.
func (d *Device) Alarm1Fired() (bool, error) {
	st, err := d.readReg(regStatus)
	if err != nil {
		return false, err
	}
	return st&statA1F != 0, nil
}

// ClearAlarm1 clears the alarm 1 flag, releasing INT/SQW.
func (d *Device) ClearAlarm1() error {
	return d.updateReg(regStatus, statA1F, 0)
}

// ---- register helpers ----

func (d *Device) readReg(reg byte) (byte, error) {
	r := d.buf[:1]
	if err := d.bus.Tx(d.Address, []byte{reg}, r); err != nil {
		return 0, err
	}
	return r[0], nil
}

// updateReg replaces the bits in mask with set.
func (d *Device) updateReg(reg, mask, set byte) error {
	v, err := d.readReg(reg)
	if err != nil {
		return err
	}
	v = v&^mask | set&mask
	return d.bus.Tx(d.Address, []byte{reg, v}, nil)
}

func decodeHour(b byte) int {
	if b&hour12 == 0 {
		return fromBCD(b & 0x3F)
	}
	h := fromBCD(b & 0x1F) // 1..12
	if h == 12 {
		h = 0
	}
	if b&hourPM != 0 {
		h += 12
	}
	return h
}

func toBCD(v int) byte   { return byte(v/10<<4 | v%10) }
func fromBCD(b byte) int { return int(b>>4)*10 + int(b&0x0F) }
