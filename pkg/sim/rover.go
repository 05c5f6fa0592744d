// Package sim provides a simulated rover implementing the link handler
// registry, for tests and for running the device daemon without
// hardware.
package sim

import (
	"math/rand"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/roverlink/rover.go/pkg/link"
)

// MaxSpeed bounds the commanded motor speed in either direction.
const MaxSpeed = 100

// Rover is a simulated vehicle. Its handler methods mirror what the
// firmware does on hardware: mutate actuator state or synthesize a
// sensor reading and send it as a telemetry frame.
type Rover struct {
	Sender *link.Sender

	// OnReset is invoked when a reset is commanded, after the ACK has
	// been written. The daemon installs a shutdown here; tests install
	// a probe. Defaults to a no-op.
	OnReset func()

	lock    sync.Mutex
	left    int8
	right   int8
	led     byte
	buzzer  byte
	started time.Time
	errs    uint8
	rnd     *rand.Rand
}

// NewRover creates a Rover sending telemetry through sender.
func NewRover(sender *link.Sender) *Rover {
	return NewRoverSeed(sender, time.Now().UnixNano())
}

// NewRoverSeed creates a Rover with a fixed noise seed, for
// deterministic tests.
func NewRoverSeed(sender *link.Sender, seed int64) *Rover {
	return &Rover{
		Sender:  sender,
		started: time.Now(),
		rnd:     rand.New(rand.NewSource(seed)),
	}
}

// SetMotorSpeed implements link.Handlers.
func (r *Rover) SetMotorSpeed(left, right int8) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.left, r.right = clampSpeed(left), clampSpeed(right)
	glog.V(2).Infof("motors %d/%d", r.left, r.right)
}

// StopMotors implements link.Handlers.
func (r *Rover) StopMotors() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.left, r.right = 0, 0
	glog.V(2).Info("motors stopped")
}

// EmergencyStop implements link.Handlers. On hardware this also cuts
// the motor driver enable line; here it only zeroes the speeds.
func (r *Rover) EmergencyStop() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.left, r.right = 0, 0
	glog.Warning("emergency stop")
}

// SendIMU implements link.Handlers.
func (r *Rover) SendIMU() {
	r.lock.Lock()
	sample := link.IMUSample{
		Accel: [3]float32{r.noise(0.05), r.noise(0.05), 1.0 + r.noise(0.05)},
		Gyro:  [3]float32{r.noise(1.5), r.noise(1.5), r.turnRate()},
		Mag:   [3]float32{25 + r.noise(2), -8 + r.noise(2), 40 + r.noise(2)},
		Roll:  r.noise(1),
		Pitch: r.noise(1),
		Yaw:   r.noise(180),
	}
	r.lock.Unlock()
	r.send(func() error { return r.Sender.SendIMU(&sample) })
}

// SendUltrasonic implements link.Handlers.
func (r *Rover) SendUltrasonic() {
	r.lock.Lock()
	sample := link.UltrasonicSample{
		Front: r.distance(),
		Rear:  r.distance(),
		Left:  r.distance(),
		Right: r.distance(),
	}
	r.lock.Unlock()
	r.send(func() error { return r.Sender.SendUltrasonic(&sample) })
}

// SendSystemStatus implements link.Handlers.
func (r *Rover) SendSystemStatus() {
	r.lock.Lock()
	uptime := uint32(time.Since(r.started) / time.Second)
	status := link.SystemStatus{
		Uptime: uptime,
		// Two LiPo cells, sagging slowly from full charge.
		BatteryVolts: 8.4 - 0.0001*float32(uptime) + r.noise(0.02),
		CPULoad:      uint8(5 + r.rnd.Intn(20)),
		ErrorCount:   r.errs,
	}
	r.lock.Unlock()
	r.send(func() error { return r.Sender.SendSystemStatus(&status) })
}

// SetLED implements link.Handlers.
func (r *Rover) SetLED(state byte) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.led = state
	glog.V(2).Infof("led %d", state)
}

// SetBuzzer implements link.Handlers.
func (r *Rover) SetBuzzer(state byte) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.buzzer = state
	glog.V(2).Infof("buzzer %d", state)
}

// Reset implements link.Handlers.
func (r *Rover) Reset() {
	if fn := r.OnReset; fn != nil {
		fn()
	}
}

// Speeds returns the commanded motor speeds.
func (r *Rover) Speeds() (left, right int8) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.left, r.right
}

// LED returns the indicator state.
func (r *Rover) LED() byte {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.led
}

// Buzzer returns the audible alert state.
func (r *Rover) Buzzer() byte {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.buzzer
}

func (r *Rover) send(fn func() error) {
	if err := fn(); err != nil {
		glog.Errorf("telemetry send failed: %v", err)
		r.lock.Lock()
		if r.errs < 0xff {
			r.errs++
		}
		r.lock.Unlock()
	}
}

func (r *Rover) noise(amp float32) float32 {
	return amp * 2 * (r.rnd.Float32() - 0.5)
}

func (r *Rover) turnRate() float32 {
	return float32(int(r.right)-int(r.left)) * 0.5
}

func (r *Rover) distance() float32 {
	// Roughly one reading in sixteen gets no echo back.
	if r.rnd.Intn(16) == 0 {
		return link.NoEcho
	}
	return 10 + 300*r.rnd.Float32()
}

func clampSpeed(v int8) int8 {
	if v > MaxSpeed {
		return MaxSpeed
	}
	if v < -MaxSpeed {
		return -MaxSpeed
	}
	return v
}
