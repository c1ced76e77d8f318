// Package timex holds the millisecond conversions shared by services that
// carry times as plain integers on the bus.
package timex

import "time"

// NowMs returns Unix milliseconds, the ts_ms stamp on retained state.
func NowMs() int64 { return time.Now().UnixMilli() }

// Ms converts a configured millisecond count. Negative counts give zero.
func Ms[T ~int | ~int32 | ~int64 | ~uint32](n T) time.Duration {
	if n < 0 {
		return 0
	}
	return time.Duration(n) * time.Millisecond
}

// ToMs truncates d to whole milliseconds, saturating at the uint32 range
// used on the wire.
func ToMs(d time.Duration) uint32 {
	ms := d / time.Millisecond
	switch {
	case ms <= 0:
		return 0
	case ms > 0xFFFFFFFF:
		return 0xFFFFFFFF
	}
	return uint32(ms)
}
