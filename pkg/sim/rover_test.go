package sim

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roverlink/rover.go/pkg/link"
)

func newTestRover() (*Rover, *bytes.Buffer) {
	var out bytes.Buffer
	return NewRoverSeed(link.NewSender(&out), 1), &out
}

func decodeFrames(t *testing.T, raw []byte) []*link.Frame {
	var recv link.Receiver
	var frames []*link.Frame
	for _, b := range raw {
		res := recv.Feed(b)
		require.False(t, res.BadChecksum)
		if res.Frame != nil {
			frames = append(frames, res.Frame)
		}
	}
	return frames
}

func TestRoverMotors(t *testing.T) {
	rover, _ := newTestRover()

	rover.SetMotorSpeed(50, -50)
	left, right := rover.Speeds()
	require.Equal(t, int8(50), left)
	require.Equal(t, int8(-50), right)

	rover.SetMotorSpeed(127, -128)
	left, right = rover.Speeds()
	require.Equal(t, int8(MaxSpeed), left)
	require.Equal(t, int8(-MaxSpeed), right)

	rover.StopMotors()
	left, right = rover.Speeds()
	require.Zero(t, left)
	require.Zero(t, right)

	rover.SetMotorSpeed(30, 30)
	rover.EmergencyStop()
	left, right = rover.Speeds()
	require.Zero(t, left)
	require.Zero(t, right)
}

func TestRoverIndicators(t *testing.T) {
	rover, _ := newTestRover()
	rover.SetLED(1)
	rover.SetBuzzer(1)
	require.Equal(t, byte(1), rover.LED())
	require.Equal(t, byte(1), rover.Buzzer())
	rover.SetLED(0)
	require.Equal(t, byte(0), rover.LED())
	require.Equal(t, byte(1), rover.Buzzer())
}

func TestRoverTelemetry(t *testing.T) {
	rover, out := newTestRover()
	rover.SendIMU()
	rover.SendUltrasonic()
	rover.SendSystemStatus()

	frames := decodeFrames(t, out.Bytes())
	require.Len(t, frames, 3)
	require.Equal(t, link.RespIMUData, frames[0].Command)
	require.Equal(t, link.RespUltrasonicData, frames[1].Command)
	require.Equal(t, link.RespSystemStatus, frames[2].Command)

	var sonar link.UltrasonicSample
	require.NoError(t, sonar.Unmarshal(frames[1].Payload))
	for _, d := range []float32{sonar.Front, sonar.Rear, sonar.Left, sonar.Right} {
		require.True(t, d > 0 && d <= link.NoEcho, "distance %v out of range", d)
	}

	var status link.SystemStatus
	require.NoError(t, status.Unmarshal(frames[2].Payload))
	require.True(t, status.BatteryVolts > 8.0 && status.BatteryVolts < 8.6)
	require.Zero(t, status.ErrorCount)
}

func TestRoverReset(t *testing.T) {
	rover, _ := newTestRover()
	var resets int
	rover.OnReset = func() { resets++ }
	rover.Reset()
	require.Equal(t, 1, resets)
}

func TestRoverWithEngine(t *testing.T) {
	stream := &bufferStream{}
	engine := link.NewEngine(stream, nil)
	rover := NewRoverSeed(engine.Sender(), 1)
	engine.Handlers = rover

	f := link.Frame{Command: link.CmdMotorSetSpeed, Payload: []byte{20, 40}}
	stream.in.Write(f.Bytes())
	require.NoError(t, engine.Run(context.Background()))

	left, right := rover.Speeds()
	require.Equal(t, int8(20), left)
	require.Equal(t, int8(40), right)
	frames := decodeFrames(t, stream.out.Bytes())
	require.Len(t, frames, 1)
	require.Equal(t, link.RespACK, frames[0].Command)
}

type bufferStream struct {
	in  bytes.Buffer
	out bytes.Buffer
}

func (s *bufferStream) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s *bufferStream) Write(p []byte) (int, error) { return s.out.Write(p) }
