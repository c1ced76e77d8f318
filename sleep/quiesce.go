package sleep

// quiescer parks the peripherals that must not run across a stop-mode
// window and brings them back afterwards.
type quiescer struct {
	tick   Tick
	usb    USB
	serial Serial
}

func (q quiescer) suspend() {
	q.tick.Disable()
	q.usb.Detach()
	for port := 0; port < q.serial.Ports(); port++ {
		if q.serial.Enabled(port) {
			q.serial.Flush(port)
		}
	}
}

func (q quiescer) resume() {
	q.tick.Enable()
	q.usb.Attach()
}
