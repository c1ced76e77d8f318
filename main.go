package main

import (
	"context"
	"time"

	"powercode-go/bus"
	"powercode-go/services/bridge"
	"powercode-go/services/config"
	"powercode-go/services/heartbeat"
	"powercode-go/services/power"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(bootDelay)
	println("[main] boot", deviceName)

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, deviceName)
	b := bus.NewBus(4)

	go heartbeat.New(b.NewConnection("heartbeat")).Run(ctx)
	go bridge.Start(ctx, b.NewConnection("bridge"))

	// Power subscribes before config publishes; the sections are retained
	// either way.
	powerConn := b.NewConnection("power")
	done := make(chan error, 1)
	go func() { done <- power.Run(ctx, powerConn) }()

	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	// A host hibernate ends the power goroutine without sending on done.
	if err := <-done; err != nil {
		println("[main] power stopped:", err.Error())
	}
	select {}
}
