//go:build !rp2040

package main

const (
	deviceName = "sim"
	bootDelay  = 0
)
