package bridge

import (
	"io"
	"reflect"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"powercode-go/errcode"
)

// -----------------------------------------------------------------------------
// Framing: type byte, 16-bit big-endian length, body. Request and reply
// bodies are CBOR.
// -----------------------------------------------------------------------------

const (
	framePing    byte = 0x01
	framePong    byte = 0x02
	frameRequest byte = 0x20
	frameReply   byte = 0x21
	frameClose   byte = 0x7f

	maxFrame = 0xFFFF
)

// Frame is a length-prefixed frame.
type Frame struct {
	Type    byte
	Payload []byte
}

type framedReader struct{ r io.Reader }

// framedWriter serialises whole frames; request goroutines share it.
type framedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newFramedReader(r io.Reader) *framedReader { return &framedReader{r: r} }
func newFramedWriter(w io.Writer) *framedWriter { return &framedWriter{w: w} }

func (fr *framedReader) ReadFrame() (Frame, error) {
	var hdr [3]byte
	if _, err := io.ReadFull(fr.r, hdr[:]); err != nil {
		return Frame{}, err
	}
	typ := hdr[0]
	n := int(hdr[1])<<8 | int(hdr[2])
	var buf []byte
	if n > 0 {
		buf = make([]byte, n)
		if _, err := io.ReadFull(fr.r, buf); err != nil {
			return Frame{}, err
		}
	}
	return Frame{Type: typ, Payload: buf}, nil
}

func (fw *framedWriter) WriteFrame(f Frame) error {
	if len(f.Payload) > maxFrame {
		return &errcode.E{C: errcode.LimitExceeded, Op: "frame", Msg: "payload too large"}
	}
	buf := make([]byte, 0, 3+len(f.Payload))
	buf = append(buf, f.Type, byte(len(f.Payload)>>8), byte(len(f.Payload)))
	buf = append(buf, f.Payload...)

	fw.mu.Lock()
	defer fw.mu.Unlock()
	_, err := fw.w.Write(buf)
	return err
}

// -----------------------------------------------------------------------------
// Bodies
// -----------------------------------------------------------------------------

// wireRequest asks the far side to run a bus request on Topic.
type wireRequest struct {
	ID        uint32          `cbor:"id"`
	Topic     []string        `cbor:"topic"`
	Payload   cbor.RawMessage `cbor:"payload,omitempty"`
	TimeoutMs uint32          `cbor:"timeout_ms,omitempty"`
}

// wireReply answers the request with the same ID. Error carries an errcode
// string when no reply payload could be produced.
type wireReply struct {
	ID      uint32          `cbor:"id"`
	Payload cbor.RawMessage `cbor:"payload,omitempty"`
	Error   string          `cbor:"error,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = (cbor.EncOptions{Sort: cbor.SortCanonical}).EncMode(); err != nil {
		panic(err)
	}
	// Objects decode to map[string]any, the same shape config payloads have.
	dec := cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any(nil))}
	if decMode, err = dec.DecMode(); err != nil {
		panic(err)
	}
}
