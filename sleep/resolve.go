package sleep

import (
	"sync/atomic"

	"powercode-go/errcode"
)

// Reason reports the source that ended a stop-mode wait. For RTC wakeups
// DurationMs is zero; for GPIO wakeups the pin is the configured one.
//
// The caller owns a Reason and must Release it once.
type Reason struct {
	src  Source
	pool *reasonPool
	slot int
	gen  uint32
}

// Source returns the reported source, or nil after Release.
func (r *Reason) Source() Source { return r.src }

// Kind is the reported source kind.
func (r *Reason) Kind() Kind { return kindOf(r.src) }

// Release hands the report back. Releasing twice is a no-op, and a stale
// handle never frees a slot that has since been reissued.
func (r *Reason) Release() {
	if r == nil || r.src == nil {
		return
	}
	r.src = nil
	r.pool.put(r.slot, r.gen)
}

// reasonPool bounds the reports outstanding at once. Exhaustion is the
// allocation failure reported as NoMemory.
//
// Each slot word holds gen<<1 | inUse. Freeing a slot bumps its generation
// so handles from earlier issues no longer match.
type reasonPool struct {
	slots []uint32
}

func newReasonPool(n int) *reasonPool {
	if n < 0 {
		n = 0
	}
	return &reasonPool{slots: make([]uint32, n)}
}

func (p *reasonPool) get(src Source) *Reason {
	for i := range p.slots {
		w := atomic.LoadUint32(&p.slots[i])
		if w&1 != 0 {
			continue
		}
		if atomic.CompareAndSwapUint32(&p.slots[i], w, w|1) {
			return &Reason{src: src, pool: p, slot: i, gen: w >> 1}
		}
	}
	return nil
}

func (p *reasonPool) put(slot int, gen uint32) {
	atomic.CompareAndSwapUint32(&p.slots[slot], gen<<1|1, (gen+1)<<1)
}

// outstanding counts reports not yet released.
func (p *reasonPool) outstanding() int {
	n := 0
	for i := range p.slots {
		n += int(atomic.LoadUint32(&p.slots[i]) & 1)
	}
	return n
}

// resolve walks sources in order and reports the first one whose pending
// flag is set. No match is not an error. A report is built only when the
// caller asked for one.
func (c *Controller) resolve(sources []Source, want bool) (*Reason, error) {
	irq := c.res.IRQ
	for _, s := range sources {
		var hit Source
		switch v := s.(type) {
		case RTC:
			if irq.AlarmPending() {
				hit = RTC{}
			}
		case GPIO:
			if irq.ExternalPending() && irq.LinePending(c.res.Pins.Line(v.Pin)) {
				hit = GPIO{Pin: v.Pin, Edge: v.Edge}
			}
		}
		if hit == nil {
			continue
		}
		if !want {
			return nil, nil
		}
		r := c.reasons.get(hit)
		if r == nil {
			return nil, errcode.NoMemory
		}
		return r, nil
	}
	return nil, nil
}
