//go:build !rp2040

package power_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"powercode-go/bus"
	"powercode-go/services/power"
	"powercode-go/types"
)

func TestRunOnSimulatedBoard(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("test")
	state := conn.Subscribe(bus.T("hal", "power", "sleep", "state"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- power.Run(ctx, b.NewConnection("power")) }()

	select {
	case <-state.Channel():
	case <-time.After(time.Second):
		t.Fatal("power service never published state")
	}

	rctx, rcancel := context.WithTimeout(context.Background(), time.Second)
	defer rcancel()
	req := conn.NewMessage(bus.T("hal", "power", "sleep", "control", "enter"),
		types.SleepRequest{Mode: "stop", Sources: []types.SleepSource{{Kind: "rtc", DurationMs: 1000}}}, false)
	rep, err := conn.RequestWait(rctx, req)
	require.NoError(t, err)
	require.Equal(t, types.SleepReply{OK: true}, rep.Payload)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
