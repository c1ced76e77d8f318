package ds3231

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBus is a register file behind the DS3231 pointer protocol: the first
// written byte sets the pointer, further bytes are stored, reads continue
// from the pointer.
type fakeBus struct {
	regs [0x13]byte
	err  error
	txs  int
}

func (f *fakeBus) Tx(addr uint16, w, r []byte) error {
	f.txs++
	if f.err != nil {
		return f.err
	}
	if addr != Address {
		return errors.New("nack")
	}
	p := 0
	if len(w) > 0 {
		p = int(w[0])
		for _, b := range w[1:] {
			f.regs[p%len(f.regs)] = b
			p++
		}
	}
	for i := range r {
		r[i] = f.regs[(p+i)%len(f.regs)]
	}
	return nil
}

func TestBCD(t *testing.T) {
	for _, v := range []int{0, 9, 10, 45, 59, 99} {
		assert.Equal(t, v, fromBCD(toBCD(v)))
	}
	assert.Equal(t, byte(0x59), toBCD(59))
}

func TestSetAndReadTime(t *testing.T) {
	bus := &fakeBus{}
	bus.regs[regStatus] = statOSF
	d := New(bus)

	want := time.Date(2026, time.March, 14, 15, 9, 26, 0, time.UTC)
	require.NoError(t, d.SetTime(want))

	assert.Equal(t, byte(0x26), bus.regs[0x00])
	assert.Equal(t, byte(0x15), bus.regs[0x02])
	assert.Equal(t, byte(0x26), bus.regs[0x06])
	assert.Zero(t, bus.regs[regStatus]&statOSF)

	got, err := d.ReadTime()
	require.NoError(t, err)
	assert.True(t, want.Equal(got))
}

func TestReadTimeTwelveHourMode(t *testing.T) {
	bus := &fakeBus{}
	copy(bus.regs[:], []byte{0x00, 0x30, hour12 | hourPM | 0x11, 1, 0x02, 0x01, 0x25})
	d := New(bus)

	got, err := d.ReadTime()
	require.NoError(t, err)
	assert.Equal(t, 23, got.Hour())
	assert.Equal(t, 30, got.Minute())
}

func TestReadTimeOscillatorStopped(t *testing.T) {
	bus := &fakeBus{}
	copy(bus.regs[:], []byte{0x00, 0x00, 0x00, 1, 0x01, 0x01, 0x00})
	bus.regs[regStatus] = statOSF
	d := New(bus)

	_, err := d.ReadTime()
	assert.ErrorIs(t, err, ErrStopped)
}

func TestReadTimeGarbage(t *testing.T) {
	bus := &fakeBus{}
	copy(bus.regs[:], []byte{0x7F, 0x00, 0x00, 1, 0x01, 0x01, 0x00})
	d := New(bus)

	_, err := d.ReadTime()
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestSetAlarm1In(t *testing.T) {
	bus := &fakeBus{}
	d := New(bus)
	require.NoError(t, d.SetTime(time.Date(2026, time.January, 31, 23, 59, 50, 0, time.UTC)))
	bus.regs[regStatus] = statA1F

	require.NoError(t, d.SetAlarm1In(15))

	// 23:59:50 + 15 s rolls over into 1 February 00:00:05.
	assert.Equal(t, []byte{0x05, 0x00, 0x00, 0x01}, bus.regs[regAlarm1:regAlarm1+4])
	fired, err := d.Alarm1Fired()
	require.NoError(t, err)
	assert.False(t, fired)
}

func TestEnableAlarm1(t *testing.T) {
	bus := &fakeBus{}
	bus.regs[regControl] = ctrlEOSC | 0x18 // rate select bits survive
	d := New(bus)

	require.NoError(t, d.EnableAlarm1(true))
	assert.Equal(t, byte(0x18|ctrlINTCN|ctrlA1IE), bus.regs[regControl])

	require.NoError(t, d.EnableAlarm1(false))
	assert.Equal(t, byte(0x18|ctrlINTCN), bus.regs[regControl])
}

func TestAlarmFlag(t *testing.T) {
	bus := &fakeBus{}
	bus.regs[regStatus] = statA1F | 0x02
	d := New(bus)

	fired, err := d.Alarm1Fired()
	require.NoError(t, err)
	assert.True(t, fired)

	require.NoError(t, d.ClearAlarm1())
	assert.Equal(t, byte(0x02), bus.regs[regStatus])
}

func TestBusError(t *testing.T) {
	boom := errors.New("bus stuck")
	d := New(&fakeBus{err: boom})

	_, err := d.ReadTime()
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, d.EnableAlarm1(true), boom)
}
