package bridge

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"powercode-go/errcode"
	"powercode-go/x/timex"
)

// Client drives a device's bus over a bridge link. It answers the device's
// pings while waiting. Calls must not overlap.
type Client struct {
	rwc    io.ReadWriteCloser
	wr     *framedWriter
	frames chan Frame
	err    error // set before frames closes
	next   atomic.Uint32
}

// NewClient starts reading frames from rwc. Close releases it.
func NewClient(rwc io.ReadWriteCloser) *Client {
	c := &Client{
		rwc:    rwc,
		wr:     newFramedWriter(rwc),
		frames: make(chan Frame, 4),
	}
	go c.readLoop(newFramedReader(rwc))
	return c
}

func (c *Client) readLoop(rd *framedReader) {
	defer close(c.frames)
	for {
		f, err := rd.ReadFrame()
		if err != nil {
			c.err = err
			return
		}
		c.frames <- f
	}
}

// Close sends a close frame and closes the link.
func (c *Client) Close() error {
	_ = c.wr.WriteFrame(Frame{Type: frameClose})
	return c.rwc.Close()
}

// Call sends payload as a request on topic and decodes the reply payload
// into out. timeout bounds the device-side wait; zero leaves it to the
// device. A device-side failure comes back as an errcode.Code.
func (c *Client) Call(ctx context.Context, topic []string, payload any, timeout time.Duration, out any) error {
	body, err := encMode.Marshal(payload)
	if err != nil {
		return err
	}
	req := wireRequest{ID: c.next.Add(1), Topic: topic, Payload: body, TimeoutMs: timex.ToMs(timeout)}
	b, err := encMode.Marshal(req)
	if err != nil {
		return err
	}
	if err := c.wr.WriteFrame(Frame{Type: frameRequest, Payload: b}); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-c.frames:
			if !ok {
				if c.err != nil {
					return c.err
				}
				return io.EOF
			}
			switch f.Type {
			case framePing:
				if err := c.wr.WriteFrame(Frame{Type: framePong}); err != nil {
					return err
				}
			case frameReply:
				var rep wireReply
				if err := decMode.Unmarshal(f.Payload, &rep); err != nil {
					return err
				}
				if rep.ID != req.ID {
					continue // stale reply to an abandoned call
				}
				if rep.Error != "" {
					return errcode.Code(rep.Error)
				}
				if out == nil || len(rep.Payload) == 0 {
					return nil
				}
				return decMode.Unmarshal(rep.Payload, out)
			case frameClose:
				return io.EOF
			}
		}
	}
}
