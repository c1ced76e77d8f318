package config

import (
	"context"

	"gopkg.in/yaml.v3"

	"powercode-go/bus"
	"powercode-go/errcode"
)

// -----------------------------------------------------------------------------
// String constants (live in flash, not RAM)
// -----------------------------------------------------------------------------

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for device ID
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// publishConfig parses the device's embedded object and publishes each
// top-level key retained on config/<key>. Services pick up their section
// whenever they subscribe.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return &errcode.E{C: errcode.InvalidArgument, Op: "config", Msg: "missing device ID in context"}
	}

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return &errcode.E{C: errcode.NotReady, Op: "config", Msg: "no embedded config for device " + device}
	}

	m, err := parseObject(raw)
	if err != nil {
		return err
	}
	for k, v := range m {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
	println("[config] published", len(m), "sections for", device)
	return nil
}

// parseObject decodes the embedded document. It is written as JSON, which
// YAML accepts unchanged; integers decode as int and objects as
// map[string]any.
func parseObject(raw []byte) (map[string]any, error) {
	var val any
	if err := yaml.Unmarshal(raw, &val); err != nil {
		return nil, &errcode.E{C: errcode.InvalidPayload, Op: "config", Msg: "malformed config", Err: err}
	}
	m, ok := val.(map[string]any)
	if !ok {
		return nil, &errcode.E{C: errcode.InvalidPayload, Op: "config", Msg: "embedded config is not an object"}
	}
	return m, nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			println("[config]", err.Error())
		}
	}()
}
