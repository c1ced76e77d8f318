// Package heartbeat prints a periodic liveness line carrying the last
// retained power state. The line stops while the device is in stop mode,
// which makes sleeps visible on the console.
package heartbeat

import (
	"context"
	"time"

	"powercode-go/bus"
	"powercode-go/services/power/sleepreq"
	"powercode-go/types"
	"powercode-go/x/timex"
)

var (
	topicConfig     = bus.T("config", "heartbeat")
	topicPowerState = bus.T("hal", "power", "sleep", "state")
)

const defaultInterval = 5 * time.Second

type Service struct {
	conn  *bus.Connection
	state types.PowerState
	beats int

	// print is swapped in tests.
	print func(beat int, st types.PowerState)
}

func New(conn *bus.Connection) *Service {
	return &Service{conn: conn, print: printBeat}
}

// Run blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicConfig)
	defer s.conn.Unsubscribe(cfgSub)
	stSub := s.conn.Subscribe(topicPowerState)
	defer s.conn.Unsubscribe(stSub)

	tick := time.NewTicker(defaultInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			println("[heartbeat] stopping")
			return
		case <-tick.C:
			s.beats++
			s.print(s.beats, s.state)
		case msg := <-stSub.Channel():
			if st, ok := msg.Payload.(types.PowerState); ok {
				s.state = st
			}
		case msg := <-cfgSub.Channel():
			if iv, ok := interval(msg.Payload); ok {
				tick.Reset(iv)
				println("[heartbeat] interval", int(iv/time.Millisecond), "ms")
			}
		}
	}
}

// interval reads {"interval_ms": n} and rejects non-positive values.
func interval(p any) (time.Duration, bool) {
	m, ok := p.(map[string]any)
	if !ok {
		return 0, false
	}
	ms, ok := sleepreq.AsInt(m["interval_ms"])
	if !ok || ms <= 0 {
		return 0, false
	}
	return timex.Ms(ms), true
}

func printBeat(beat int, st types.PowerState) {
	level := st.Level
	if level == "" {
		level = "unknown"
	}
	println("[heartbeat]", beat, level, st.Status)
}
