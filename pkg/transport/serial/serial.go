// Package serial provides the serial port transport for the link.
package serial

import (
	"io"
	"time"

	tarm "github.com/tarm/serial"
)

// Config describes a serial link endpoint.
type Config struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

// DefaultBaud matches the firmware's UART configuration.
const DefaultBaud = 115200

// NewConfig creates a Config with defaults.
func NewConfig(device string) *Config {
	return &Config{Device: device, Baud: DefaultBaud}
}

// Open opens the port as a byte stream for the link engine or client.
func (c *Config) Open() (io.ReadWriteCloser, error) {
	baud := c.Baud
	if baud == 0 {
		baud = DefaultBaud
	}
	return tarm.OpenPort(&tarm.Config{
		Name:        c.Device,
		Baud:        baud,
		ReadTimeout: c.ReadTimeout,
	})
}
