package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/roverlink/rover.go/pkg/link"
	"github.com/roverlink/rover.go/pkg/transport/mqtt"
	"github.com/roverlink/rover.go/pkg/transport/serial"
	"github.com/roverlink/rover.go/pkg/transport/websocket"
)

const unconnectedPrompt = "[none] > "

var (
	evalOnly   = flag.Bool("e", false, "Evaluation only, no interactive shell.")
	outputJSON = flag.Bool("json", false, "Print telemetry in JSON.")
	cmdTimeout = flag.Duration("timeout", 2*time.Second, "Reply timeout per command.")
)

// console holds the shell and the current link connection.
type console struct {
	shell  *ishell.Shell
	client *link.Client
	closer io.Closer
	cancel func()
}

func (cs *console) connected() bool {
	return cs.client != nil
}

func (cs *console) connect(c *ishell.Context, rw io.ReadWriter, closer io.Closer, extra func(context.Context), prompt string) {
	cs.disconnect()
	ctx, cancel := context.WithCancel(context.Background())
	cs.client, cs.closer, cs.cancel = link.NewClient(rw), closer, cancel
	if extra != nil {
		go extra(ctx)
	}
	client := cs.client
	go func() {
		if err := client.Run(ctx); err != nil && err != context.Canceled {
			glog.Errorf("link closed: %v", err)
		}
	}()
	cs.shell.SetPrompt("[" + prompt + "] > ")
	c.Printf("connected: %s\n", prompt)
}

func (cs *console) disconnect() {
	if cs.cancel != nil {
		cs.cancel()
	}
	if cs.closer != nil {
		cs.closer.Close()
	}
	cs.client, cs.closer, cs.cancel = nil, nil, nil
	cs.shell.SetPrompt(unconnectedPrompt)
}

// wait blocks for one call result within the reply timeout.
func (cs *console) wait(call *link.Call) (link.CallResult, error) {
	select {
	case r := <-call.ResultChan():
		return r, r.Err
	case <-time.After(*cmdTimeout):
		return link.CallResult{}, fmt.Errorf("timeout waiting for reply")
	}
}

func (cs *console) doAck(c *ishell.Context, call *link.Call) {
	if _, err := cs.wait(call); err != nil {
		c.Err(err)
		return
	}
	c.Println("ok")
}

func (cs *console) printRecord(c *ishell.Context, kind string, rec interface{}) {
	if *outputJSON {
		out, err := json.Marshal(map[string]interface{}{kind: rec})
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Printf("%s: %+v\n", kind, rec)
}

func (cs *console) printFrame(c *ishell.Context, code byte, data []byte) {
	var rec interface {
		Unmarshal([]byte) error
	}
	var kind string
	switch code {
	case link.RespIMUData:
		rec, kind = &link.IMUSample{}, "imu"
	case link.RespUltrasonicData:
		rec, kind = &link.UltrasonicSample{}, "ultrasonic"
	case link.RespSystemStatus:
		rec, kind = &link.SystemStatus{}, "status"
	default:
		c.Printf("frame %#02x: % x\n", code, data)
		return
	}
	if err := rec.Unmarshal(data); err != nil {
		c.Err(err)
		return
	}
	cs.printRecord(c, kind, rec)
}

func (cs *console) doQuery(c *ishell.Context, call *link.Call) {
	r, err := cs.wait(call)
	if err != nil {
		c.Err(err)
		return
	}
	cs.printFrame(c, r.Code, r.Data)
}

// mustBeConnected wraps command funcs requiring a connection.
func (cs *console) mustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if !cs.connected() {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

func parseSpeed(arg string) (int8, error) {
	v, err := strconv.ParseInt(arg, 10, 8)
	if err != nil {
		return 0, err
	}
	if v < -100 || v > 100 {
		return 0, fmt.Errorf("speed out of range: %d", v)
	}
	return int8(v), nil
}

func parseState(arg string) (byte, error) {
	switch arg {
	case "on", "1":
		return 1, nil
	case "off", "0":
		return 0, nil
	}
	return 0, fmt.Errorf("expect on/off")
}

func (cs *console) cmdConnect(c *ishell.Context) {
	if len(c.Args) < 2 {
		c.Err(fmt.Errorf("usage: connect serial <device> [baud] | mqtt <url> <name> | ws <url>"))
		return
	}
	switch c.Args[0] {
	case "serial":
		conf := serial.NewConfig(c.Args[1])
		if len(c.Args) > 2 {
			baud, err := strconv.Atoi(c.Args[2])
			if err != nil {
				c.Err(err)
				return
			}
			conf.Baud = baud
		}
		port, err := conf.Open()
		if err != nil {
			c.Err(err)
			return
		}
		cs.connect(c, port, port, nil, c.Args[1])
	case "mqtt":
		if len(c.Args) < 3 {
			c.Err(fmt.Errorf("usage: connect mqtt <url> <name>"))
			return
		}
		queue, err := mqtt.NewQueue(c.Args[1])
		if err != nil {
			c.Err(err)
			return
		}
		rw := mqtt.NewReadWriter(queue).ForHost(c.Args[2])
		cs.connect(c, rw, nil, func(ctx context.Context) {
			defer queue.Close()
			rw.Run(ctx)
		}, c.Args[2])
	case "ws":
		conn, err := websocket.Dial(c.Args[1], "http://localhost/")
		if err != nil {
			c.Err(err)
			return
		}
		cs.connect(c, conn, conn, nil, c.Args[1])
	default:
		c.Err(fmt.Errorf("unknown transport %q", c.Args[0]))
	}
}

func (cs *console) cmdSensors(c *ishell.Context) {
	call := cs.client.RequestAllSensors()
	deadline := time.After(*cmdTimeout + 2*link.DefaultSettleDelay)
	for {
		select {
		case f := <-cs.client.TelemetryChan():
			cs.printFrame(c, f.Command, f.Payload)
		case r := <-call.ResultChan():
			if r.Err != nil {
				c.Err(r.Err)
				return
			}
			cs.printFrame(c, r.Code, r.Data)
			return
		case <-deadline:
			c.Err(fmt.Errorf("timeout waiting for sensor sweep"))
			return
		}
	}
}

func (cs *console) addCmds() {
	cs.shell.AddCmd(&ishell.Cmd{
		Name: "connect",
		Help: "connect serial <device> [baud] | mqtt <url> <name> | ws <url>",
		Func: cs.cmdConnect,
	})
	cs.shell.AddCmd(&ishell.Cmd{
		Name: "disconnect",
		Help: "close the current connection",
		Func: func(c *ishell.Context) { cs.disconnect() },
	})
	cs.shell.AddCmd(&ishell.Cmd{
		Name: "speed",
		Help: "speed <left> <right> (-100..100)",
		Func: cs.mustBeConnected(func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Err(fmt.Errorf("usage: speed <left> <right>"))
				return
			}
			left, err := parseSpeed(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			right, err := parseSpeed(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			cs.doAck(c, cs.client.SetSpeed(left, right))
		}),
	})
	cs.shell.AddCmd(&ishell.Cmd{
		Name: "stop",
		Help: "stop the motors",
		Func: cs.mustBeConnected(func(c *ishell.Context) {
			cs.doAck(c, cs.client.Stop())
		}),
	})
	cs.shell.AddCmd(&ishell.Cmd{
		Name: "estop",
		Help: "emergency stop",
		Func: cs.mustBeConnected(func(c *ishell.Context) {
			cs.doAck(c, cs.client.EmergencyStop())
		}),
	})
	cs.shell.AddCmd(&ishell.Cmd{
		Name: "led",
		Help: "led on|off",
		Func: cs.mustBeConnected(func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("usage: led on|off"))
				return
			}
			state, err := parseState(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			cs.doAck(c, cs.client.SetLED(state))
		}),
	})
	cs.shell.AddCmd(&ishell.Cmd{
		Name: "buzzer",
		Help: "buzzer on|off",
		Func: cs.mustBeConnected(func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("usage: buzzer on|off"))
				return
			}
			state, err := parseState(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			cs.doAck(c, cs.client.SetBuzzer(state))
		}),
	})
	cs.shell.AddCmd(&ishell.Cmd{
		Name: "imu",
		Help: "request an IMU sample",
		Func: cs.mustBeConnected(func(c *ishell.Context) {
			cs.doQuery(c, cs.client.RequestIMU())
		}),
	})
	cs.shell.AddCmd(&ishell.Cmd{
		Name: "sonar",
		Help: "request an ultrasonic sample",
		Func: cs.mustBeConnected(func(c *ishell.Context) {
			cs.doQuery(c, cs.client.RequestUltrasonic())
		}),
	})
	cs.shell.AddCmd(&ishell.Cmd{
		Name: "status",
		Help: "request the system status",
		Func: cs.mustBeConnected(func(c *ishell.Context) {
			cs.doQuery(c, cs.client.RequestStatus())
		}),
	})
	cs.shell.AddCmd(&ishell.Cmd{
		Name: "sensors",
		Help: "request the full sensor sweep",
		Func: cs.mustBeConnected(cs.cmdSensors),
	})
	cs.shell.AddCmd(&ishell.Cmd{
		Name: "reset",
		Help: "reboot the device (acknowledged before reboot)",
		Func: cs.mustBeConnected(func(c *ishell.Context) {
			cs.doAck(c, cs.client.Reset())
			cs.disconnect()
		}),
	})
}

func main() {
	flag.Parse()

	cs := &console{shell: ishell.New()}
	cs.shell.SetPrompt(unconnectedPrompt)
	cs.addCmds()
	defer cs.disconnect()

	if *evalOnly || len(flag.Args()) > 0 {
		if err := cs.shell.Process(flag.Args()...); err != nil {
			glog.Exit(err)
		}
		return
	}
	cs.shell.Println("rover link console; type 'help' for commands")
	cs.shell.Run()
}
