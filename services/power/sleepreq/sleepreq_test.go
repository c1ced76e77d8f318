package sleepreq

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powercode-go/errcode"
	"powercode-go/sleep"
	"powercode-go/types"
)

func TestDecode(t *testing.T) {
	typed := types.SleepRequest{Mode: "stop", Sources: []types.SleepSource{
		{Kind: "gpio", Pin: 4, Edge: "falling"},
		{Kind: "rtc", DurationMs: 2500},
		{Kind: "network"},
	}}
	want := sleep.Request{Mode: sleep.ModeStop, Sources: []sleep.Source{
		sleep.GPIO{Pin: 4, Edge: sleep.EdgeFalling},
		sleep.RTC{DurationMs: 2500},
		sleep.Network{},
	}}

	tests := []struct {
		name    string
		payload any
		want    sleep.Request
		code    errcode.Code
	}{
		{"typed", typed, want, errcode.OK},
		{"pointer", &typed, want, errcode.OK},
		{"json map", map[string]any{
			"mode": "stop",
			"sources": []any{
				map[string]any{"kind": "gpio", "pin": float64(4), "edge": "falling"},
				map[string]any{"kind": "rtc", "duration_ms": float64(2500)},
				map[string]any{"kind": "network"},
			},
		}, want, errcode.OK},
		{"cbor map", map[string]any{
			"mode": "stop",
			"sources": []any{
				map[string]any{"kind": "gpio", "pin": uint64(4), "edge": "falling"},
				map[string]any{"kind": "rtc", "duration_ms": uint64(2500)},
				map[string]any{"kind": "network"},
			},
		}, want, errcode.OK},
		{"hibernate no sources", map[string]any{"mode": "hibernate"}, sleep.Request{Mode: sleep.ModeHibernate}, errcode.OK},
		{"unknown mode passes through", types.SleepRequest{Mode: "nap"}, sleep.Request{Mode: sleep.ModeNone}, errcode.OK},
		{"unknown kind", types.SleepRequest{Mode: "stop", Sources: []types.SleepSource{{Kind: "usb"}}}, sleep.Request{}, errcode.InvalidPayload},
		{"mode not a string", map[string]any{"mode": 2}, sleep.Request{}, errcode.InvalidPayload},
		{"source not an object", map[string]any{"mode": "stop", "sources": []any{"rtc"}}, sleep.Request{}, errcode.InvalidPayload},
		{"duration past uint32", map[string]any{"mode": "stop", "sources": []any{
			map[string]any{"kind": "rtc", "duration_ms": float64(4294968296)},
		}}, sleep.Request{}, errcode.InvalidPayload},
		{"negative duration", map[string]any{"mode": "stop", "sources": []any{
			map[string]any{"kind": "rtc", "duration_ms": int64(-1)},
		}}, sleep.Request{}, errcode.InvalidPayload},
		{"duration not a number", map[string]any{"mode": "stop", "sources": []any{
			map[string]any{"kind": "rtc", "duration_ms": "1h"},
		}}, sleep.Request{}, errcode.InvalidPayload},
		{"largest duration", map[string]any{"mode": "stop", "sources": []any{
			map[string]any{"kind": "rtc", "duration_ms": uint64(math.MaxUint32)},
		}}, sleep.Request{Mode: sleep.ModeStop, Sources: []sleep.Source{sleep.RTC{DurationMs: math.MaxUint32}}}, errcode.OK},
		{"nil pointer", (*types.SleepRequest)(nil), sleep.Request{}, errcode.InvalidPayload},
		{"wrong type", "stop", sleep.Request{}, errcode.InvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.payload)
			assert.Equal(t, tt.code, errcode.Of(err))
			if err == nil {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDecodeEdgeLeftForValidation(t *testing.T) {
	req, err := Decode(types.SleepRequest{Mode: "stop", Sources: []types.SleepSource{{Kind: "gpio", Pin: 1, Edge: "sideways"}}})
	require.NoError(t, err)
	assert.Equal(t, errcode.InvalidArgument, sleep.Validate(req, sleep.Limits{PinCount: 8}))
}

func TestAsInt(t *testing.T) {
	for _, v := range []any{int(7), int8(7), int32(7), int64(7), uint8(7), uint64(7), float32(7.9), float64(7.2)} {
		n, ok := AsInt(v)
		assert.True(t, ok, "%T", v)
		assert.Equal(t, 7, n, "%T", v)
	}
	_, ok := AsInt("7")
	assert.False(t, ok)
}
