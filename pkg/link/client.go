package link

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"
)

// CallResult is the outcome of a command issued through Client.
type CallResult struct {
	Err  error
	Code byte
	Data []byte
}

// Call is a pending command waiting for its reply.
type Call struct {
	command  byte
	expect   byte
	resultCh chan CallResult
	next     *Call
}

// Command returns the command code this call was issued with.
func (c *Call) Command() byte {
	return c.command
}

// ResultChan returns the chan to retrieve the result.
func (c *Call) ResultChan() <-chan CallResult {
	return c.resultCh
}

// Client drives the host side of the link over a byte stream. Commands
// are resolved in order: the device answers synchronously, so replies
// arrive in the order commands were sent.
type Client struct {
	rw     io.ReadWriter
	sender *Sender
	recv   Receiver

	head *Call
	tail *Call
	lock sync.Mutex

	telemetryCh chan *Frame
	dropped     int
}

// NewClient creates a Client over a byte stream.
func NewClient(rw io.ReadWriter) *Client {
	return &Client{
		rw:          rw,
		sender:      NewSender(rw),
		telemetryCh: make(chan *Frame, 4),
	}
}

// TelemetryChan surfaces telemetry frames no pending call claimed, e.g.
// the intermediate frames of an all-sensors request.
func (c *Client) TelemetryChan() <-chan *Frame {
	return c.telemetryCh
}

// Dropped reports frames discarded host-side for checksum mismatch.
// The host does not NACK; it re-requests if it cares.
func (c *Client) Dropped() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.dropped
}

// Do sends a command expecting an ACK or NACK reply.
func (c *Client) Do(cmd byte, payload []byte) *Call {
	return c.do(cmd, payload, RespACK)
}

// Query sends a request resolved by the typed data response respCode.
func (c *Client) Query(cmd, respCode byte) *Call {
	return c.do(cmd, nil, respCode)
}

// SetSpeed commands the differential motor speeds, -100..100 each.
func (c *Client) SetSpeed(left, right int8) *Call {
	ms := MotorSpeed{Left: left, Right: right}
	return c.Do(CmdMotorSetSpeed, ms.Marshal())
}

// Stop commands a normal motor stop.
func (c *Client) Stop() *Call {
	return c.Do(CmdMotorStop, nil)
}

// EmergencyStop commands an immediate motor cutoff.
func (c *Client) EmergencyStop() *Call {
	return c.Do(CmdMotorEmergencyStop, nil)
}

// SetLED sets the indicator state.
func (c *Client) SetLED(state byte) *Call {
	return c.Do(CmdLEDControl, []byte{state})
}

// SetBuzzer sets the audible alert state.
func (c *Client) SetBuzzer(state byte) *Call {
	return c.Do(CmdBuzzerControl, []byte{state})
}

// Reset commands a device reboot. The device ACKs before rebooting.
func (c *Client) Reset() *Call {
	return c.Do(CmdReset, nil)
}

// RequestIMU requests one IMU sample.
func (c *Client) RequestIMU() *Call {
	return c.Query(CmdIMURequest, RespIMUData)
}

// RequestUltrasonic requests one ultrasonic sample.
func (c *Client) RequestUltrasonic() *Call {
	return c.Query(CmdUltrasonicRequest, RespUltrasonicData)
}

// RequestStatus requests the system status.
func (c *Client) RequestStatus() *Call {
	return c.Query(CmdSystemStatusRequest, RespSystemStatus)
}

// RequestAllSensors triggers the composite sensor sweep. The call
// resolves on the final system status frame; the IMU and ultrasonic
// frames of the sweep arrive on TelemetryChan.
func (c *Client) RequestAllSensors() *Call {
	return c.Query(CmdAllSensorsRequest, RespSystemStatus)
}

func (c *Client) do(cmd byte, payload []byte, expect byte) *Call {
	call := &Call{command: cmd, expect: expect, resultCh: make(chan CallResult, 1)}
	c.lock.Lock()
	defer c.lock.Unlock()
	if err := c.sender.Send(cmd, payload); err != nil {
		call.resultCh <- CallResult{Err: err}
		return call
	}
	if c.head == nil {
		c.head = call
	} else {
		c.tail.next = call
	}
	c.tail = call
	return call
}

// Run reads the transport byte-by-byte, resolving pending calls and
// delivering telemetry, until the context is canceled or the transport
// fails.
func (c *Client) Run(ctx context.Context) error {
	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := c.rw.Read(buf)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if n == 0 {
			continue
		}
		c.feed(buf[0])
	}
}

func (c *Client) feed(b byte) {
	res := c.recv.Feed(b)
	if res.BadChecksum {
		c.lock.Lock()
		c.dropped++
		c.lock.Unlock()
		glog.V(2).Info("dropping frame with bad checksum")
		return
	}
	if res.Frame != nil {
		c.handleFrame(res.Frame)
	}
}

func (c *Client) handleFrame(f *Frame) {
	expect := f.Command
	if expect == RespNACK {
		// ACK and NACK resolve the same kind of pending call.
		expect = RespACK
	}
	call, skipped := c.take(expect)
	if call == nil {
		select {
		case c.telemetryCh <- f:
		default:
			glog.V(2).Infof("telemetry overflow, dropping %#02x", f.Command)
		}
		return
	}
	for _, s := range skipped {
		s.resultCh <- CallResult{Err: ErrNoReply}
	}
	if f.Command == RespNACK {
		call.resultCh <- CallResult{Err: ErrNACK, Code: f.Command}
		return
	}
	call.resultCh <- CallResult{Code: f.Command, Data: f.Payload}
}

// take pops the first pending call expecting the given response code,
// together with the earlier calls it passes over. If no pending call
// matches, the queue is left untouched.
func (c *Client) take(expect byte) (match *Call, skipped []*Call) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for curr := c.head; curr != nil; curr = curr.next {
		if curr.expect == expect {
			match = curr
			break
		}
		skipped = append(skipped, curr)
	}
	if match == nil {
		return nil, nil
	}
	if c.head = match.next; c.head == nil {
		c.tail = nil
	}
	match.next = nil
	return
}
