// Package bridge carries bus requests over a serial link so a host can
// drive the device's services. The device answers requests whose topic
// falls under an allowed prefix and relays the local reply.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"powercode-go/bus"
	"powercode-go/errcode"
	"powercode-go/x/timex"
)

// -----------------------------------------------------------------------------
// Public entry point
// -----------------------------------------------------------------------------

// Start starts the bridge service. It blocks until ctx is cancelled.
// It listens for config on topic {"config","bridge"} and (re)configures the link.
func Start(ctx context.Context, conn *bus.Connection) {
	s := &Service{
		conn:       conn,
		stateTopic: bus.T("bridge", "state"),
	}
	s.run(ctx)
}

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// Config is the configuration expected on "config/bridge".
type Config struct {
	Transport TransportConfig `json:"transport"`
	// Forward lists first topic tokens a remote request may address.
	// Empty means {"hal"}.
	Forward []string `json:"forward,omitempty"`
	// RequestTimeoutMS bounds a forwarded request when the remote sets no
	// timeout of its own. Zero waits for as long as the link is up, which a
	// long stop-mode sleep needs.
	RequestTimeoutMS int `json:"request_timeout_ms,omitempty"`
}

type TransportConfig struct {
	// "uart" (provided here) or other names registered via RegisterTransport.
	Type string      `json:"type"`
	UART *UARTConfig `json:"uart,omitempty"`
}

// UARTConfig carries enough information for the platform dialler to open
// the UART. Pins select the instance on MCU builds; Device names the port
// on host builds.
type UARTConfig struct {
	Baud   int    `json:"baud"`
	RxPin  int    `json:"rx_pin"`
	TxPin  int    `json:"tx_pin"`
	Device string `json:"device,omitempty"`
}

// -----------------------------------------------------------------------------
// Service
// -----------------------------------------------------------------------------

type Service struct {
	conn       *bus.Connection
	stateTopic bus.Topic

	mu     sync.Mutex
	curRun context.CancelFunc
	curCfg atomic.Value // stores Config
}

// run waits for config and supervises a single link instance.
func (s *Service) run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(bus.T("config", "bridge"))
	defer s.conn.Unsubscribe(cfgSub)

	s.publishState("idle", "awaiting_config", nil)

	for {
		select {
		case <-ctx.Done():
			s.stopCurrent()
			return
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				s.publishState("error", "config_subscription_closed", nil)
				return
			}
			cfg, err := decodeConfig(msg.Payload)
			if err != nil {
				s.publishState("error", "config_decode_failed", err)
				continue
			}
			s.reconfigure(ctx, cfg)
		}
	}
}

func (s *Service) stopCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.curRun != nil {
		s.curRun()
		s.curRun = nil
	}
}

func (s *Service) reconfigure(parent context.Context, cfg Config) {
	s.mu.Lock()
	if s.curRun != nil {
		s.curRun()
		s.curRun = nil
	}
	ctx, cancel := context.WithCancel(parent)
	s.curRun = cancel
	s.mu.Unlock()

	s.curCfg.Store(cfg)
	go s.runLink(ctx, cfg)
}

// -----------------------------------------------------------------------------
// Link supervision and I/O
// -----------------------------------------------------------------------------

func (s *Service) runLink(ctx context.Context, cfg Config) {
	tr, err := newTransport(cfg.Transport)
	if err != nil {
		s.publishState("error", "transport_init_failed", err)
		return
	}

	backoff := backoffSeq(250*time.Millisecond, 5*time.Second)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		rwc, err := tr.Open(ctx)
		if err != nil {
			delay := backoff()
			s.publishState("degraded", "dial_failed_retrying", retryErr(err, delay))
			if !sleep(ctx, delay) {
				return
			}
			continue
		}

		println("[bridge] link up on", tr.String())
		s.publishState("up", "link_established", nil)
		err = s.handleLink(ctx, cfg, rwc)
		_ = rwc.Close()
		if err != nil {
			delay := backoff()
			println("[bridge] link lost:", err.Error())
			s.publishState("degraded", "link_lost_retrying", retryErr(err, delay))
			if !sleep(ctx, delay) {
				return
			}
			continue
		}
		// Clean close: restart only on new config.
		s.publishState("idle", "link_closed", nil)
		return
	}
}

// handleLink owns the active link: it answers pings, forwards requests and
// pings the peer every few seconds.
func (s *Service) handleLink(ctx context.Context, cfg Config, rwc io.ReadWriteCloser) error {
	rd := newFramedReader(rwc)
	wr := newFramedWriter(rwc)

	lctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for {
			f, err := rd.ReadFrame()
			if err != nil {
				errCh <- err
				return
			}
			switch f.Type {
			case framePing:
				if err := wr.WriteFrame(Frame{Type: framePong}); err != nil {
					errCh <- err
					return
				}
			case framePong:
			case frameRequest:
				go s.forward(lctx, cfg, wr, f.Payload)
			case frameClose:
				return
			}
		}
	}()

	tick := time.NewTicker(5 * time.Second)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = wr.WriteFrame(Frame{Type: frameClose})
			return nil
		case err := <-errCh:
			return err
		case <-tick.C:
			if err := wr.WriteFrame(Frame{Type: framePing}); err != nil {
				return err
			}
		}
	}
}

// forward runs one remote request against the local bus and writes the
// reply frame. Undecodable bodies are dropped; there is no ID to answer.
func (s *Service) forward(ctx context.Context, cfg Config, wr *framedWriter, body []byte) {
	var req wireRequest
	if err := decMode.Unmarshal(body, &req); err != nil {
		println("[bridge] bad request frame:", err.Error())
		return
	}
	rep := wireReply{ID: req.ID}
	if payload, err := s.request(ctx, cfg, req); err != nil {
		rep.Error = string(errcode.Of(err))
	} else if rep.Payload, err = encMode.Marshal(payload); err != nil {
		rep.Error = string(errcode.InvalidPayload)
	}
	b, err := encMode.Marshal(rep)
	if err != nil {
		return
	}
	if err := wr.WriteFrame(Frame{Type: frameReply, Payload: b}); err != nil {
		println("[bridge] reply write failed:", err.Error())
	}
}

func (s *Service) request(ctx context.Context, cfg Config, req wireRequest) (any, error) {
	topic, ok := localTopic(cfg.Forward, req.Topic)
	if !ok {
		return nil, errcode.InvalidTopic
	}
	var payload any
	if len(req.Payload) > 0 {
		if err := decMode.Unmarshal(req.Payload, &payload); err != nil {
			return nil, errcode.InvalidPayload
		}
	}
	timeout := timex.Ms(req.TimeoutMs)
	if timeout == 0 {
		timeout = timex.Ms(cfg.RequestTimeoutMS)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	m, err := s.conn.RequestWait(ctx, s.conn.NewMessage(topic, payload, false))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, errcode.Timeout
		}
		return nil, err
	}
	return m.Payload, nil
}

// localTopic admits topics whose first token is in allow and that carry no
// wildcard.
func localTopic(allow []string, toks []string) (bus.Topic, bool) {
	if len(toks) == 0 {
		return nil, false
	}
	if len(allow) == 0 {
		allow = []string{"hal"}
	}
	ok := false
	for _, a := range allow {
		if toks[0] == a {
			ok = true
			break
		}
	}
	if !ok {
		return nil, false
	}
	t := make(bus.Topic, len(toks))
	for i, tok := range toks {
		if tok == "+" || tok == "#" || tok == "" {
			return nil, false
		}
		t[i] = tok
	}
	return t, true
}

// -----------------------------------------------------------------------------
// Transport registry
// -----------------------------------------------------------------------------

// Transport is a pluggable link dialler/owner.
type Transport interface {
	Open(ctx context.Context) (io.ReadWriteCloser, error)
	String() string
}

type transportFactory func(TransportConfig) (Transport, error)

var (
	regMu     sync.RWMutex
	registry  = map[string]transportFactory{}
	errNoDial = errors.New("UARTDial not implemented")
)

// RegisterTransport allows external packages to add transports.
func RegisterTransport(name string, f transportFactory) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[name] = f
}

func newTransport(cfg TransportConfig) (Transport, error) {
	regMu.RLock()
	f, ok := registry[cfg.Type]
	regMu.RUnlock()
	if ok {
		return f(cfg)
	}
	switch cfg.Type {
	case "uart":
		return newUARTTransport(cfg)
	default:
		return nil, &errcode.E{C: errcode.NotSupported, Op: "transport", Msg: "unknown type " + strconv.Quote(cfg.Type)}
	}
}

// UARTDial opens the configured UART. Platform files set a default; tests
// replace it.
var UARTDial func(ctx context.Context, u UARTConfig) (io.ReadWriteCloser, error)

type uartTransport struct {
	cfg TransportConfig
}

func newUARTTransport(cfg TransportConfig) (Transport, error) {
	if cfg.UART == nil {
		return nil, &errcode.E{C: errcode.InvalidArgument, Op: "transport", Msg: "uart transport requires uart config"}
	}
	return &uartTransport{cfg: cfg}, nil
}

func (u *uartTransport) Open(ctx context.Context) (io.ReadWriteCloser, error) {
	if UARTDial == nil {
		return nil, errNoDial
	}
	return UARTDial(ctx, *u.cfg.UART)
}

func (u *uartTransport) String() string { return "uart" }

// -----------------------------------------------------------------------------
// Utilities
// -----------------------------------------------------------------------------

func decodeConfig(p any) (Config, error) {
	var cfg Config
	switch v := p.(type) {
	case Config:
		return v, nil
	case []byte:
		if err := json.Unmarshal(v, &cfg); err != nil {
			return cfg, err
		}
	case string:
		if err := json.Unmarshal([]byte(v), &cfg); err != nil {
			return cfg, err
		}
	case map[string]any:
		// Already decoded by the config service; re-marshal for simplicity.
		b, err := json.Marshal(v)
		if err != nil {
			return cfg, err
		}
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, errcode.InvalidPayload
	}
	return cfg, nil
}

func (s *Service) publishState(level, status string, err error) {
	payload := map[string]any{
		"level":  level,  // "up", "degraded", "error", "idle"
		"status": status, // short machine string
		"ts_ms":  timex.NowMs(),
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(s.stateTopic, payload, true))
}

func retryErr(err error, delay time.Duration) error {
	return &errcode.E{C: errcode.NotReady, Msg: err.Error() + " (retry in " + delay.String() + ")"}
}

func backoffSeq(min, max time.Duration) func() time.Duration {
	if min <= 0 {
		min = 100 * time.Millisecond
	}
	if max < min {
		max = min
	}
	var cur = min
	return func() time.Duration {
		d := cur
		cur *= 2
		if cur > max {
			cur = max
		}
		return d
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
