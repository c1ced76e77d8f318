package sleep_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"powercode-go/errcode"
	"powercode-go/sleep"
)

var testLimits = sleep.Limits{PinCount: 24, WakePin: 17}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  sleep.Request
		want error
	}{
		{"none mode", sleep.Request{Mode: sleep.ModeNone}, errcode.InvalidArgument},
		{"mode past range", sleep.Request{Mode: sleep.Mode(9), Sources: []sleep.Source{sleep.RTC{DurationMs: 5000}}}, errcode.InvalidArgument},
		{"ultra low power", sleep.Request{Mode: sleep.ModeUltraLowPower}, errcode.NotSupported},
		{"ultra low power with sources", sleep.Request{Mode: sleep.ModeUltraLowPower, Sources: []sleep.Source{sleep.RTC{DurationMs: 5000}}}, errcode.NotSupported},
		{"stop without sources", sleep.Request{Mode: sleep.ModeStop}, errcode.InvalidArgument},
		{"stop rtc below minimum", sleep.Request{Mode: sleep.ModeStop, Sources: []sleep.Source{sleep.RTC{DurationMs: 999}}}, errcode.InvalidArgument},
		{"stop rtc at minimum", sleep.Request{Mode: sleep.ModeStop, Sources: []sleep.Source{sleep.RTC{DurationMs: 1000}}}, nil},
		{"stop gpio valid", sleep.Request{Mode: sleep.ModeStop, Sources: []sleep.Source{sleep.GPIO{Pin: 3, Edge: sleep.EdgeFalling}}}, nil},
		{"stop gpio last pin", sleep.Request{Mode: sleep.ModeStop, Sources: []sleep.Source{sleep.GPIO{Pin: 23, Edge: sleep.EdgeChange}}}, nil},
		{"stop gpio pin out of range", sleep.Request{Mode: sleep.ModeStop, Sources: []sleep.Source{sleep.GPIO{Pin: 24, Edge: sleep.EdgeRising}}}, errcode.LimitExceeded},
		{"stop gpio negative pin", sleep.Request{Mode: sleep.ModeStop, Sources: []sleep.Source{sleep.GPIO{Pin: -1, Edge: sleep.EdgeRising}}}, errcode.LimitExceeded},
		{"stop gpio bad edge beats bad pin", sleep.Request{Mode: sleep.ModeStop, Sources: []sleep.Source{sleep.GPIO{Pin: 99}}}, errcode.InvalidArgument},
		{"stop network", sleep.Request{Mode: sleep.ModeStop, Sources: []sleep.Source{sleep.Network{}}}, nil},
		{"stop nil source", sleep.Request{Mode: sleep.ModeStop, Sources: []sleep.Source{nil}}, errcode.NotSupported},
		{"stop pointer source", sleep.Request{Mode: sleep.ModeStop, Sources: []sleep.Source{&sleep.RTC{DurationMs: 5000}}}, errcode.NotSupported},
		{"hibernate no sources", sleep.Request{Mode: sleep.ModeHibernate}, nil},
		{"hibernate wake pin", sleep.Request{Mode: sleep.ModeHibernate, Sources: []sleep.Source{sleep.GPIO{Pin: 17, Edge: sleep.EdgeRising}}}, nil},
		{"hibernate other pin", sleep.Request{Mode: sleep.ModeHibernate, Sources: []sleep.Source{sleep.GPIO{Pin: 3, Edge: sleep.EdgeRising}}}, errcode.NotSupported},
		{"hibernate pin past range", sleep.Request{Mode: sleep.ModeHibernate, Sources: []sleep.Source{sleep.GPIO{Pin: 40, Edge: sleep.EdgeRising}}}, errcode.NotSupported},
		{"hibernate wake pin bad edge", sleep.Request{Mode: sleep.ModeHibernate, Sources: []sleep.Source{sleep.GPIO{Pin: 17}}}, errcode.InvalidArgument},
		{"hibernate network", sleep.Request{Mode: sleep.ModeHibernate, Sources: []sleep.Source{sleep.Network{}}}, errcode.NotSupported},
		{"hibernate rtc", sleep.Request{Mode: sleep.ModeHibernate, Sources: []sleep.Source{sleep.RTC{DurationMs: 60000}}}, nil},
		{"first failure wins", sleep.Request{Mode: sleep.ModeStop, Sources: []sleep.Source{
			sleep.RTC{DurationMs: 10},
			sleep.GPIO{Pin: 100, Edge: sleep.EdgeRising},
		}}, errcode.InvalidArgument},
		{"order follows sequence", sleep.Request{Mode: sleep.ModeStop, Sources: []sleep.Source{
			sleep.GPIO{Pin: 100, Edge: sleep.EdgeRising},
			sleep.RTC{DurationMs: 10},
		}}, errcode.LimitExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := sleep.Validate(tt.req, testLimits)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateIsIdempotentAndReadOnly(t *testing.T) {
	t.Parallel()

	srcs := []sleep.Source{
		sleep.GPIO{Pin: 2, Edge: sleep.EdgeRising},
		sleep.RTC{DurationMs: 1500},
		sleep.Network{},
	}
	req := sleep.Request{Mode: sleep.ModeStop, Sources: srcs}
	before := append([]sleep.Source(nil), srcs...)

	first := sleep.Validate(req, testLimits)
	second := sleep.Validate(req, testLimits)

	assert.Equal(t, first, second)
	assert.Equal(t, before, req.Sources)
}

func TestParseNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, sleep.ModeStop, sleep.ParseMode("stop"))
	assert.Equal(t, sleep.ModeHibernate, sleep.ParseMode("standby"))
	assert.Equal(t, sleep.ModeUltraLowPower, sleep.ParseMode("ulp"))
	assert.Equal(t, sleep.ModeNone, sleep.ParseMode("deep"))
	assert.Equal(t, sleep.EdgeChange, sleep.ParseEdge("both"))
	assert.Equal(t, sleep.EdgeInvalid, sleep.ParseEdge(""))
	assert.Equal(t, "hibernate", sleep.ModeHibernate.String())
	assert.Equal(t, "falling", sleep.EdgeFalling.String())
	assert.Equal(t, "rtc", sleep.RTC{}.Kind().String())
}
