//go:build rp2040

package main

import "time"

const (
	deviceName = "pico"
	bootDelay  = 2 * time.Second
)
