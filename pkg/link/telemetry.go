package link

import (
	"bytes"
	"encoding/binary"
)

// Typed payload records use a fixed little-endian layout with no
// padding, matching the little-endian MCUs the firmware targets.
var wireOrder = binary.LittleEndian

// Ultrasonic sentinel readings in centimeters.
const (
	// NoEcho is reported when no echo returned within the timeout.
	NoEcho float32 = 400.0
	// InvalidReading is reserved for an invalid reading upstream.
	InvalidReading float32 = -1.0
)

// Encoded record sizes in bytes.
const (
	MotorSpeedLen       = 2
	IMUSampleLen        = 48
	UltrasonicSampleLen = 16
	SystemStatusLen     = 10
)

// MotorSpeed is the payload of CmdMotorSetSpeed. Values range
// -100..100; positive drives forward.
type MotorSpeed struct {
	Left  int8
	Right int8
}

// Marshal encodes the record.
func (m *MotorSpeed) Marshal() []byte {
	return []byte{byte(m.Left), byte(m.Right)}
}

// Unmarshal decodes the record.
func (m *MotorSpeed) Unmarshal(p []byte) error {
	if len(p) != MotorSpeedLen {
		return ErrBadRecordLen
	}
	m.Left, m.Right = int8(p[0]), int8(p[1])
	return nil
}

// IMUSample is the payload of RespIMUData: accelerometer, gyroscope and
// magnetometer vectors plus the fused attitude angles.
type IMUSample struct {
	Accel [3]float32
	Gyro  [3]float32
	Mag   [3]float32
	Roll  float32
	Pitch float32
	Yaw   float32
}

// Marshal encodes the record.
func (s *IMUSample) Marshal() []byte {
	return marshalRecord(IMUSampleLen, s)
}

// Unmarshal decodes the record.
func (s *IMUSample) Unmarshal(p []byte) error {
	return unmarshalRecord(p, IMUSampleLen, s)
}

// UltrasonicSample is the payload of RespUltrasonicData: distances in
// centimeters for the four rangers.
type UltrasonicSample struct {
	Front float32
	Rear  float32
	Left  float32
	Right float32
}

// Marshal encodes the record.
func (s *UltrasonicSample) Marshal() []byte {
	return marshalRecord(UltrasonicSampleLen, s)
}

// Unmarshal decodes the record.
func (s *UltrasonicSample) Unmarshal(p []byte) error {
	return unmarshalRecord(p, UltrasonicSampleLen, s)
}

// SystemStatus is the payload of RespSystemStatus.
type SystemStatus struct {
	Uptime       uint32 // seconds since boot
	BatteryVolts float32
	CPULoad      uint8 // percent
	ErrorCount   uint8
}

// Marshal encodes the record.
func (s *SystemStatus) Marshal() []byte {
	return marshalRecord(SystemStatusLen, s)
}

// Unmarshal decodes the record.
func (s *SystemStatus) Unmarshal(p []byte) error {
	return unmarshalRecord(p, SystemStatusLen, s)
}

func marshalRecord(size int, rec interface{}) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, size))
	binary.Write(buf, wireOrder, rec)
	return buf.Bytes()
}

func unmarshalRecord(p []byte, size int, rec interface{}) error {
	if len(p) != size {
		return ErrBadRecordLen
	}
	return binary.Read(bytes.NewReader(p), wireOrder, rec)
}
