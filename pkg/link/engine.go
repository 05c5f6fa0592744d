package link

import (
	"context"
	"io"

	"github.com/golang/glog"
)

// Engine is the device-side run loop. It pulls bytes off the transport
// one at a time, feeds the receiver and dispatches completed frames
// synchronously within the same call. A slow handler therefore stalls
// byte reception for its duration; the transport's own buffering has to
// absorb bytes arriving in that window. There is exactly one frame in
// flight at any time.
type Engine struct {
	ReadWriter io.ReadWriter
	Handlers   Handlers

	recv Receiver
	disp *Dispatcher
}

// NewEngine creates an Engine. Handlers may be assigned afterwards, as
// handler implementations usually need the engine's Sender first.
func NewEngine(rw io.ReadWriter, h Handlers) *Engine {
	e := &Engine{ReadWriter: rw, Handlers: h}
	e.disp = NewDispatcher(h, NewSender(rw))
	return e
}

// Sender exposes the outbound encoder for handlers that emit their own
// telemetry frames.
func (e *Engine) Sender() *Sender {
	return e.disp.Sender
}

// Dispatcher exposes dispatch configuration such as the settle delay.
func (e *Engine) Dispatcher() *Dispatcher {
	return e.disp
}

// Feed routes one byte through the state machine and dispatches any
// completed frame. Interrupt-style byte sources call it directly; Run
// is the polling driver over the same path.
func (e *Engine) Feed(b byte) error {
	e.disp.Handlers = e.Handlers
	res := e.recv.Feed(b)
	if res.BadChecksum {
		glog.V(2).Info("checksum mismatch, NACK")
		return e.disp.Sender.SendNACK()
	}
	if res.Frame != nil {
		glog.V(4).Infof("frame cmd=%#02x len=%d", res.Frame.Command, len(res.Frame.Payload))
		return e.disp.Dispatch(res.Frame)
	}
	return nil
}

// Run reads the transport byte-by-byte until the context is canceled
// or the transport fails. io.EOF terminates cleanly.
func (e *Engine) Run(ctx context.Context) error {
	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := e.ReadWriter.Read(buf)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if n == 0 {
			continue
		}
		if err := e.Feed(buf[0]); err != nil {
			return err
		}
	}
}
