package link

import "io"

// Framing markers and limits.
const (
	// StartMarker opens every frame on the wire.
	StartMarker byte = 0xaa
	// EndMarker closes every outgoing frame. The receiver does not
	// inspect it; the declared length is authoritative.
	EndMarker byte = 0x55

	// MaxPayload is the largest payload one frame can carry.
	MaxPayload = 64

	// MaxFrameLen is the on-wire size of a fully populated frame.
	MaxFrameLen = MaxPayload + 5
)

// Command codes accepted from the host, grouped by subsystem.
const (
	CmdMotorSetSpeed      byte = 0x01
	CmdMotorStop          byte = 0x02
	CmdMotorEmergencyStop byte = 0x03

	CmdIMURequest        byte = 0x10
	CmdUltrasonicRequest byte = 0x11
	CmdAllSensorsRequest byte = 0x12

	CmdLEDControl          byte = 0x20
	CmdBuzzerControl       byte = 0x21
	CmdSystemStatusRequest byte = 0x22
	CmdReset               byte = 0x23
)

// Response codes sent to the host, outside the command ranges.
const (
	RespACK  byte = 0xa0
	RespNACK byte = 0xa1

	RespIMUData        byte = 0xb0
	RespUltrasonicData byte = 0xb1
	// RespAllSensorsData is reserved. A combined record of all sensor
	// readings does not fit in MaxPayload, so the all-sensors command
	// replies with individual telemetry frames instead.
	RespAllSensorsData byte = 0xb2
	RespSystemStatus   byte = 0xb3
)

// Frame contains the information of one protocol message.
type Frame struct {
	Command byte
	Payload []byte
}

// Bytes returns encoded bytes for sending.
func (f *Frame) Bytes() []byte {
	b := make([]byte, len(f.Payload)+5)
	b[0], b[1], b[2] = StartMarker, f.Command, byte(len(f.Payload))
	copy(b[3:], f.Payload)
	b[len(b)-2] = Checksum(f.Command, f.Payload)
	b[len(b)-1] = EndMarker
	return b
}

// WriteTo writes encoded bytes.
func (f *Frame) WriteTo(w io.Writer) (n int, err error) {
	return w.Write(f.Bytes())
}
