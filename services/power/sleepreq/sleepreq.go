// Package sleepreq converts sleep control payloads between their wire
// shapes (typed structs, decoded JSON/CBOR maps) and sleep.Request.
package sleepreq

import (
	"math"

	"powercode-go/errcode"
	"powercode-go/sleep"
	"powercode-go/types"
)

// Decode accepts a types.SleepRequest (value or pointer) or a decoded
// object map. Unknown modes and edges are passed through as their invalid
// values so validation reports them; unknown source kinds are a payload
// error.
func Decode(p any) (sleep.Request, error) {
	switch v := p.(type) {
	case types.SleepRequest:
		return FromWire(v)
	case *types.SleepRequest:
		if v == nil {
			return sleep.Request{}, errcode.InvalidPayload
		}
		return FromWire(*v)
	case map[string]any:
		w, err := wireFromMap(v)
		if err != nil {
			return sleep.Request{}, err
		}
		return FromWire(w)
	default:
		return sleep.Request{}, errcode.InvalidPayload
	}
}

// FromWire builds a sleep.Request from its wire form.
func FromWire(r types.SleepRequest) (sleep.Request, error) {
	req := sleep.Request{Mode: sleep.ParseMode(r.Mode)}
	if len(r.Sources) > 0 {
		req.Sources = make([]sleep.Source, 0, len(r.Sources))
	}
	for _, s := range r.Sources {
		switch s.Kind {
		case "gpio":
			req.Sources = append(req.Sources, sleep.GPIO{Pin: s.Pin, Edge: sleep.ParseEdge(s.Edge)})
		case "rtc":
			req.Sources = append(req.Sources, sleep.RTC{DurationMs: s.DurationMs})
		case "network":
			req.Sources = append(req.Sources, sleep.Network{})
		default:
			return sleep.Request{}, &errcode.E{C: errcode.InvalidPayload, Op: "decode", Msg: "source kind " + s.Kind}
		}
	}
	return req, nil
}

// Report renders a wakeup reason for the bus.
func Report(r *sleep.Reason, tsMs int64) types.WakeupReport {
	rep := types.WakeupReport{Kind: r.Kind().String(), TS: tsMs}
	if g, ok := r.Source().(sleep.GPIO); ok {
		rep.Pin = g.Pin
		rep.Edge = g.Edge.String()
	}
	return rep
}

func wireFromMap(m map[string]any) (types.SleepRequest, error) {
	var r types.SleepRequest
	mode, ok := m["mode"].(string)
	if !ok {
		return r, &errcode.E{C: errcode.InvalidPayload, Op: "decode", Msg: "mode"}
	}
	r.Mode = mode
	raw, _ := m["sources"].([]any)
	for _, e := range raw {
		sm, ok := e.(map[string]any)
		if !ok {
			return r, &errcode.E{C: errcode.InvalidPayload, Op: "decode", Msg: "source"}
		}
		var s types.SleepSource
		s.Kind, _ = sm["kind"].(string)
		s.Edge, _ = sm["edge"].(string)
		if v, ok := AsInt(sm["pin"]); ok {
			s.Pin = v
		}
		if v, ok := sm["duration_ms"]; ok {
			ms, err := durationMs(v)
			if err != nil {
				return r, err
			}
			s.DurationMs = ms
		}
		r.Sources = append(r.Sources, s)
	}
	return r, nil
}

// durationMs range-checks before narrowing; the wire field is a uint32.
func durationMs(t any) (uint32, error) {
	f, ok := asFloat(t)
	if !ok || f < 0 || f > math.MaxUint32 {
		return 0, &errcode.E{C: errcode.InvalidPayload, Op: "decode", Msg: "duration_ms out of range"}
	}
	return uint32(f), nil
}

func asFloat(t any) (float64, bool) {
	switch v := t.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	if n, ok := AsInt(t); ok {
		return float64(n), true
	}
	return 0, false
}

// AsInt accepts any numeric type a decoder may produce.
func AsInt(t any) (int, bool) {
	switch v := t.(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return int(v), true
	case float32:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
