package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"io"
	"net/http"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	fx "github.com/roverlink/rover.go/pkg/framework"
	"github.com/roverlink/rover.go/pkg/link"
	"github.com/roverlink/rover.go/pkg/sim"
	"github.com/roverlink/rover.go/pkg/transport/mqtt"
	"github.com/roverlink/rover.go/pkg/transport/serial"
	"github.com/roverlink/rover.go/pkg/transport/websocket"
)

// roverd runs the simulated rover behind one of the link transports.
// A commanded reset shuts the daemon down after the ACK flushed; the
// surrounding supervisor plays the role of the watchdog and restarts it.

var (
	serialDevice = flag.String("serial", "", "Serial device to serve the link on.")
	serialBaud   = flag.Int("baud", serial.DefaultBaud, "Serial baud rate.")
	mqttURL      = flag.String("mqtt", "", "MQTT broker URL (mqtt://host:port/prefix).")
	wsListen     = flag.String("ws-listen", "", "Websocket listen address.")
	deviceName   = flag.String("name", "", "Device name, defaults to derived machine ID.")
)

func name() string {
	if *deviceName != "" {
		return *deviceName
	}
	id, err := machineid.ID()
	if err != nil {
		glog.Exitf("machine id: %v", err)
	}
	if len(id) > 8 {
		id = id[:8]
	}
	return "rover-" + id
}

func newEngine(runner *fx.Runner, rw io.ReadWriter) *link.Engine {
	engine := link.NewEngine(rw, nil)
	rover := sim.NewRover(engine.Sender())
	rover.OnReset = func() {
		glog.Warning("reset commanded, shutting down for restart")
		runner.Cancel()
	}
	engine.Handlers = rover
	return engine
}

func main() {
	flag.Parse()
	runner := fx.NewRunner().HandleSignals()

	switch {
	case *serialDevice != "":
		conf := serial.NewConfig(*serialDevice)
		conf.Baud = *serialBaud
		port, err := conf.Open()
		if err != nil {
			glog.Exitf("open %s: %v", *serialDevice, err)
		}
		engine := newEngine(runner, port)
		runner.Go(fx.NamedRun("engine", fx.RunFunc(func(ctx context.Context) error {
			return fx.RunWithContextCloser(ctx, port, func() error {
				return engine.Run(ctx)
			})
		})))
	case *mqttURL != "":
		queue, err := mqtt.NewQueue(*mqttURL)
		if err != nil {
			glog.Exitf("mqtt connect: %v", err)
		}
		rw := mqtt.NewReadWriter(queue).ForDevice(name())
		glog.Infof("serving link as %s", name())
		runner.Go(fx.NamedRun("mqtt", rw))
		runner.Go(fx.NamedRun("engine", newEngine(runner, rw)))
	case *wsListen != "":
		srv := &http.Server{
			Addr: *wsListen,
			Handler: websocket.Handler(func(rw io.ReadWriter) {
				if err := newEngine(runner, rw).Run(runner.Context); err != nil && err != context.Canceled {
					glog.Errorf("link session: %v", err)
				}
			}),
		}
		glog.Infof("listening on ws://%s", *wsListen)
		runner.Go(fx.NamedRun("http", fx.RunFunc(func(ctx context.Context) error {
			return fx.RunWithContextCancel(ctx, func() { srv.Close() }, func() error {
				if err := srv.ListenAndServe(); err != http.ErrServerClosed {
					return err
				}
				return nil
			})
		})))
	default:
		glog.Exit("one of -serial, -mqtt or -ws-listen is required")
	}

	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}
