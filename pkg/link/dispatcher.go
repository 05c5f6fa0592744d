package link

import (
	"time"

	"github.com/golang/glog"
)

// Handlers is the registry of operations the dispatcher invokes. The
// surrounding system supplies it; the protocol core never implements
// it. Every method is synchronous: the dispatcher blocks until the
// handler returns or has sent its own response. Handlers must not call
// back into the receive path.
//
// The Send* methods serve query commands and are themselves responsible
// for emitting the corresponding typed telemetry frame.
type Handlers interface {
	SetMotorSpeed(left, right int8)
	StopMotors()
	EmergencyStop()
	SendIMU()
	SendUltrasonic()
	SendSystemStatus()
	SetLED(state byte)
	SetBuzzer(state byte)
	// Reset hands control to the reboot mechanism. Normal operation
	// must not resume after it is called.
	Reset()
}

// Default dispatcher timings.
const (
	// DefaultSettleDelay separates hardware-bound reads in the
	// all-sensors sequence; echo-based ranging needs the bus idle
	// between trigger pulses.
	DefaultSettleDelay = 50 * time.Millisecond
	// DefaultFlushDelay lets the transport drain the reset ACK before
	// control is handed to the reboot path.
	DefaultFlushDelay = 10 * time.Millisecond
)

// Dispatcher routes validated frames to handlers and emits ACK/NACK
// replies. Query commands are answered by the handlers themselves.
type Dispatcher struct {
	Handlers Handlers
	Sender   *Sender

	SettleDelay time.Duration
	FlushDelay  time.Duration
}

// NewDispatcher creates a Dispatcher with default timings.
func NewDispatcher(h Handlers, s *Sender) *Dispatcher {
	return &Dispatcher{
		Handlers:    h,
		Sender:      s,
		SettleDelay: DefaultSettleDelay,
		FlushDelay:  DefaultFlushDelay,
	}
}

// Dispatch handles one validated frame.
//
// Fixed-arity commands are rejected with NACK on a payload length
// mismatch, with no side effect. Zero-arity action commands accept any
// payload length once framing succeeded. Unknown commands are NACKed.
func (d *Dispatcher) Dispatch(f *Frame) error {
	switch f.Command {
	case CmdMotorSetSpeed:
		var ms MotorSpeed
		if ms.Unmarshal(f.Payload) != nil {
			glog.V(2).Infof("motor speed arity mismatch: %d bytes", len(f.Payload))
			return d.Sender.SendNACK()
		}
		d.Handlers.SetMotorSpeed(ms.Left, ms.Right)
		return d.Sender.SendACK()
	case CmdMotorStop:
		d.Handlers.StopMotors()
		return d.Sender.SendACK()
	case CmdMotorEmergencyStop:
		d.Handlers.EmergencyStop()
		return d.Sender.SendACK()
	case CmdIMURequest:
		d.Handlers.SendIMU()
	case CmdUltrasonicRequest:
		d.Handlers.SendUltrasonic()
	case CmdSystemStatusRequest:
		d.Handlers.SendSystemStatus()
	case CmdAllSensorsRequest:
		d.Handlers.SendIMU()
		d.settle()
		d.Handlers.SendUltrasonic()
		d.settle()
		d.Handlers.SendSystemStatus()
	case CmdLEDControl:
		if len(f.Payload) != 1 {
			return d.Sender.SendNACK()
		}
		d.Handlers.SetLED(f.Payload[0])
		return d.Sender.SendACK()
	case CmdBuzzerControl:
		if len(f.Payload) != 1 {
			return d.Sender.SendNACK()
		}
		d.Handlers.SetBuzzer(f.Payload[0])
		return d.Sender.SendACK()
	case CmdReset:
		if err := d.Sender.SendACK(); err != nil {
			return err
		}
		if d.FlushDelay > 0 {
			time.Sleep(d.FlushDelay)
		}
		glog.Warning("reset commanded")
		d.Handlers.Reset()
	default:
		glog.V(2).Infof("unknown command %#02x", f.Command)
		return d.Sender.SendNACK()
	}
	return nil
}

func (d *Dispatcher) settle() {
	if d.SettleDelay > 0 {
		time.Sleep(d.SettleDelay)
	}
}
