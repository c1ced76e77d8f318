package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

const cfgPico = `{
  "power": {
    "pin_count": 29,
    "wake_pin": 22,
    "reason_slots": 2,
    "want_reason": true,
    "hibernate_settle_ms": 50
  },
  "heartbeat": {"interval_ms": 5000},
  "bridge": {
    "transport": {
      "type": "uart",
      "uart": {"baud": 115200, "tx_pin": 0, "rx_pin": 1}
    }
  }
}`

// The simulated board keeps its descriptor limits; only service behaviour
// is configured.
const cfgSim = `{
  "power": {
    "reason_slots": 4,
    "want_reason": true,
    "hibernate_settle_ms": 0
  },
  "heartbeat": {"interval_ms": 10000}
}`

var embeddedConfigs = map[string][]byte{
	"pico": []byte(cfgPico),
	"sim":  []byte(cfgSim),
}
