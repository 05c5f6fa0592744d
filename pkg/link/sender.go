package link

import "io"

// ByteWriter is the transport sink: a single, ordering-preserving
// send_byte primitive. bufio.Writer and bytes.Buffer satisfy it.
type ByteWriter interface {
	WriteByte(byte) error
}

type singleByteWriter struct {
	w   io.Writer
	buf [1]byte
}

func (s *singleByteWriter) WriteByte(b byte) error {
	s.buf[0] = b
	_, err := s.w.Write(s.buf[:])
	return err
}

// NewByteWriter adapts an io.Writer into a ByteWriter. Writers already
// providing WriteByte are used directly.
func NewByteWriter(w io.Writer) ByteWriter {
	if bw, ok := w.(ByteWriter); ok {
		return bw
	}
	return &singleByteWriter{w: w}
}

// Sender encodes outgoing frames onto a ByteWriter.
type Sender struct {
	W ByteWriter
}

// NewSender creates a Sender over an io.Writer.
func NewSender(w io.Writer) *Sender {
	return &Sender{W: NewByteWriter(w)}
}

// Send serializes one frame: start marker, command, length, payload,
// checksum, end marker, in strict order, one byte at a time. Oversized
// payloads are refused before any byte is written.
func (s *Sender) Send(cmd byte, payload []byte) error {
	if len(payload) > MaxPayload {
		return ErrPayloadTooLarge
	}
	f := Frame{Command: cmd, Payload: payload}
	for _, b := range f.Bytes() {
		if err := s.W.WriteByte(b); err != nil {
			return err
		}
	}
	return nil
}

// SendACK sends the zero-payload acceptance frame.
func (s *Sender) SendACK() error {
	return s.Send(RespACK, nil)
}

// SendNACK sends the zero-payload rejection frame.
func (s *Sender) SendNACK() error {
	return s.Send(RespNACK, nil)
}

// SendIMU sends an IMU telemetry frame.
func (s *Sender) SendIMU(sample *IMUSample) error {
	return s.Send(RespIMUData, sample.Marshal())
}

// SendUltrasonic sends an ultrasonic telemetry frame.
func (s *Sender) SendUltrasonic(sample *UltrasonicSample) error {
	return s.Send(RespUltrasonicData, sample.Marshal())
}

// SendSystemStatus sends a system status frame.
func (s *Sender) SendSystemStatus(status *SystemStatus) error {
	return s.Send(RespSystemStatus, status.Marshal())
}
