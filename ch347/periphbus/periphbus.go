// Package periphbus adapts a periph.io I2C bus to the ch347.Device contract
// and registers it as the "periph" driver. The device path is a bus name or
// number as known to i2creg, for example "1" or "I2C1".
package periphbus

import (
	"fmt"
	"sync"

	"github.com/BertoldVdb/ch347eeprom/ch347"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var (
	hostOnce sync.Once
	hostErr  error
)

func init() {
	ch347.Register("periph", func(name string) (ch347.Device, error) {
		dev, err := Open(name)
		if err != nil {
			return nil, err
		}
		return dev, nil
	})
}

// Device wraps a periph.io bus
type Device struct {
	bus i2c.BusCloser
	log *logrus.Entry
}

// New wraps an already opened bus
func New(bus i2c.BusCloser) *Device {
	return &Device{bus: bus}
}

// Open initializes the periph host drivers and opens the named bus
func Open(name string) (*Device, error) {
	hostOnce.Do(func() {
		_, hostErr = host.Init()
	})
	if hostErr != nil {
		return nil, fmt.Errorf("periph host initialization failed: %w", hostErr)
	}

	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, err
	}

	return New(bus), nil
}

func (d *Device) SetLogger(log *logrus.Entry) {
	d.log = log
}

func (d *Device) SetI2CMode(mode ch347.Mode) error {
	f := mode.Frequency()
	if f == 0 {
		return ch347.ErrorInvalidSpeed
	}

	if d.log != nil {
		d.log.WithField("bus", d.bus.String()).Debugf("Setting bus speed to %s", f)
	}
	return d.bus.SetSpeed(f)
}

func (d *Device) StreamI2C(writeBuf []byte, readBuf []byte) error {
	if len(writeBuf) == 0 {
		return ch347.ErrorNoAddress
	}

	addr := uint16(writeBuf[0] >> 1)

	var w []byte
	if len(writeBuf) > 1 {
		w = writeBuf[1:]
	}
	var r []byte
	if len(readBuf) > 0 {
		r = readBuf
	}

	/* periph host drivers skip empty transactions, probe with a one byte read */
	if w == nil && r == nil {
		var b [1]byte
		return d.bus.Tx(addr, nil, b[:])
	}

	return d.bus.Tx(addr, w, r)
}

func (d *Device) Close() error {
	return d.bus.Close()
}
