package link

// Receiver is the byte-level frame state machine. It owns all transient
// receive state; no frame outlives a single completed dispatch. The
// zero value is ready to use.
type Receiver struct {
	state   recvState
	cmd     byte
	length  byte
	recvLen byte
	payload [MaxPayload]byte
}

type recvState int

const (
	stateIdle     recvState = iota // discarding until StartMarker
	stateCmd                       // waiting for command code
	stateLength                    // waiting for declared payload length
	stateData                      // accumulating payload bytes
	stateChecksum                  // waiting for checksum byte
)

// Result reports the outcome of feeding one byte.
type Result struct {
	// Frame is set when a frame completed with a matching checksum.
	Frame *Frame
	// BadChecksum is set when a frame completed framing but failed
	// checksum validation; the caller owes the host exactly one NACK.
	BadChecksum bool
}

// Idle reports whether the receiver is between frames.
func (r *Receiver) Idle() bool {
	return r.state == stateIdle
}

// Reset discards any partial frame and returns to idle.
func (r *Receiver) Reset() {
	r.state = stateIdle
}

// Feed consumes one byte. Interrupt-style byte callbacks and polling
// loops must both route bytes through here so behavior is identical.
//
// The trailing EndMarker of a frame is never inspected: the declared
// length decides where the frame ends, and the end byte is consumed as
// noise by the idle state. This matches the firmware's relaxed framing
// and must not be "fixed" by validating the end byte, as that would
// change which frames are accepted.
func (r *Receiver) Feed(b byte) (res Result) {
	switch r.state {
	case stateIdle:
		if b == StartMarker {
			r.state = stateCmd
		}
	case stateCmd:
		r.cmd, r.state = b, stateLength
	case stateLength:
		if b > MaxPayload {
			// A corrupt length byte is indistinguishable from line
			// noise; drop silently and resynchronize. Responding here
			// would amplify noise on the channel.
			r.state = stateIdle
			break
		}
		r.length, r.recvLen = b, 0
		if b == 0 {
			r.state = stateChecksum
		} else {
			r.state = stateData
		}
	case stateData:
		r.payload[r.recvLen] = b
		r.recvLen++
		if r.recvLen >= r.length {
			r.state = stateChecksum
		}
	case stateChecksum:
		r.state = stateIdle
		var payload []byte
		if r.length > 0 {
			payload = make([]byte, r.length)
			copy(payload, r.payload[:r.length])
		}
		if b != Checksum(r.cmd, payload) {
			res.BadChecksum = true
			break
		}
		res.Frame = &Frame{Command: r.cmd, Payload: payload}
	}
	return
}
