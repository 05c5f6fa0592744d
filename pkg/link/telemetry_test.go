package link

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMotorSpeedRecord(t *testing.T) {
	ms := MotorSpeed{Left: 50, Right: -50}
	require.Equal(t, []byte{50, 0xce}, ms.Marshal())

	var decoded MotorSpeed
	require.NoError(t, decoded.Unmarshal([]byte{50, 0xce}))
	require.Equal(t, ms, decoded)

	require.Equal(t, ErrBadRecordLen, decoded.Unmarshal([]byte{1}))
	require.Equal(t, ErrBadRecordLen, decoded.Unmarshal([]byte{1, 2, 3}))
}

func TestIMUSampleLayout(t *testing.T) {
	s := IMUSample{
		Accel: [3]float32{1, 0, 0},
		Yaw:   -90,
	}
	b := s.Marshal()
	require.Len(t, b, IMUSampleLen)
	// accel.x = 1.0 leads the record, little-endian
	require.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, b[0:4])
	// yaw = -90.0 trails it
	require.Equal(t, []byte{0x00, 0x00, 0xb4, 0xc2}, b[44:48])

	var decoded IMUSample
	require.NoError(t, decoded.Unmarshal(b))
	require.Equal(t, s, decoded)
	require.Equal(t, ErrBadRecordLen, decoded.Unmarshal(b[:40]))
}

func TestUltrasonicSampleLayout(t *testing.T) {
	s := UltrasonicSample{Front: 12.5, Rear: NoEcho, Left: InvalidReading, Right: 100}
	b := s.Marshal()
	require.Len(t, b, UltrasonicSampleLen)
	// 400.0 no-echo sentinel
	require.Equal(t, []byte{0x00, 0x00, 0xc8, 0x43}, b[4:8])
	// -1.0 invalid-reading sentinel
	require.Equal(t, []byte{0x00, 0x00, 0x80, 0xbf}, b[8:12])

	var decoded UltrasonicSample
	require.NoError(t, decoded.Unmarshal(b))
	require.Equal(t, s, decoded)
}

func TestSystemStatusLayout(t *testing.T) {
	s := SystemStatus{Uptime: 1, BatteryVolts: 8.0, CPULoad: 42, ErrorCount: 3}
	b := s.Marshal()
	require.Equal(t, []byte{
		0x01, 0x00, 0x00, 0x00, // uptime
		0x00, 0x00, 0x00, 0x41, // battery 8.0
		42, 3,
	}, b)

	var decoded SystemStatus
	require.NoError(t, decoded.Unmarshal(b))
	require.Equal(t, s, decoded)
	require.Equal(t, ErrBadRecordLen, decoded.Unmarshal(b[:9]))
}
