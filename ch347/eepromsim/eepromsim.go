// Package eepromsim emulates a 24Cxx style EEPROM behind a bridge. The memory
// contents are kept in an image file, so a dry run of a write can be inspected
// afterwards and a read can be tested without hardware.
package eepromsim

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/BertoldVdb/ch347eeprom/ch347"
	"github.com/sirupsen/logrus"
)

const (
	ErrorNack         = ch347.Error("NACK received")
	ErrorShortAddress = ch347.Error("Transaction ended inside the memory address")
	ErrorClosed       = ch347.Error("Image is closed")
)

// Config describes the emulated memory
type Config struct {
	BusAddress    uint8
	AddressLength int
	PageSize      int
	Size          int
}

// DefaultConfig is a 24C256: 32KiB, 64 byte pages, two address bytes
var DefaultConfig = Config{
	BusAddress:    0x50,
	AddressLength: 2,
	PageSize:      64,
	Size:          32768,
}

// Device is an opened image
type Device struct {
	sync.Mutex
	conf Config
	file *os.File
	mem  []byte
	ptr  int
	mode ch347.Mode
	log  *logrus.Entry
}

// Opener returns a ch347.Opener using conf
func Opener(conf Config) ch347.Opener {
	return func(path string) (ch347.Device, error) {
		dev, err := Open(path, conf)
		if err != nil {
			return nil, err
		}
		return dev, nil
	}
}

func (c Config) validate() error {
	if c.BusAddress > 0x7F {
		return fmt.Errorf("invalid bus address 0x%x", c.BusAddress)
	}
	if c.AddressLength < 1 || c.AddressLength > 2 {
		return fmt.Errorf("invalid address length %d", c.AddressLength)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("invalid page size %d", c.PageSize)
	}
	if c.Size < 1 || c.Size > 1<<(8*uint(c.AddressLength)) {
		return fmt.Errorf("invalid size %d for %d address bytes", c.Size, c.AddressLength)
	}
	if c.Size%c.PageSize != 0 {
		return fmt.Errorf("size %d is not a multiple of the page size %d", c.Size, c.PageSize)
	}
	return nil
}

// Open opens the image at path. A missing image is created and filled with
// 0xFF. An existing image must have exactly conf.Size bytes.
func Open(path string, conf Config) (*Device, error) {
	if err := conf.validate(); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}

	d := &Device{
		conf: conf,
		file: file,
	}

	if err := d.load(); err != nil {
		file.Close()
		return nil, err
	}

	return d, nil
}

func (d *Device) load() error {
	fileStat, err := d.file.Stat()
	if err != nil {
		return err
	}

	if fileStat.Size() == 0 {
		d.mem = bytes.Repeat([]byte{0xFF}, d.conf.Size)
		_, err := d.file.WriteAt(d.mem, 0)
		return err
	}

	if fileStat.Size() != int64(d.conf.Size) {
		return fmt.Errorf("image %q has %d bytes, want %d", d.file.Name(), fileStat.Size(), d.conf.Size)
	}

	d.mem = make([]byte, d.conf.Size)
	_, err = io.ReadFull(io.NewSectionReader(d.file, 0, fileStat.Size()), d.mem)
	return err
}

func (d *Device) SetLogger(log *logrus.Entry) {
	d.log = log
}

func (d *Device) SetI2CMode(mode ch347.Mode) error {
	if mode.Frequency() == 0 {
		return ch347.ErrorInvalidSpeed
	}

	d.Lock()
	d.mode = mode
	d.Unlock()
	return nil
}

// Mode returns the last configured mode
func (d *Device) Mode() ch347.Mode {
	d.Lock()
	defer d.Unlock()
	return d.mode
}

// Memory returns a copy of the emulated memory
func (d *Device) Memory() []byte {
	d.Lock()
	defer d.Unlock()

	result := make([]byte, len(d.mem))
	copy(result, d.mem)
	return result
}

func (d *Device) StreamI2C(writeBuf []byte, readBuf []byte) error {
	if len(writeBuf) == 0 {
		return ch347.ErrorNoAddress
	}

	d.Lock()
	defer d.Unlock()

	if d.file == nil {
		return ErrorClosed
	}

	if writeBuf[0]>>1 != d.conf.BusAddress {
		return ErrorNack
	}

	payload := writeBuf[1:]
	if len(payload) > 0 {
		if len(payload) < d.conf.AddressLength {
			return ErrorShortAddress
		}

		ptr := 0
		for _, b := range payload[:d.conf.AddressLength] {
			ptr = ptr<<8 | int(b)
		}
		d.ptr = ptr % d.conf.Size

		if err := d.write(payload[d.conf.AddressLength:]); err != nil {
			return err
		}
	}

	for i := range readBuf {
		readBuf[i] = d.mem[d.ptr]
		d.ptr = (d.ptr + 1) % d.conf.Size
	}

	return nil
}

func (d *Device) write(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	/* Writes roll over inside the page that contains the pointer */
	pageBase := d.ptr - d.ptr%d.conf.PageSize
	offset := d.ptr - pageBase

	for _, b := range data {
		d.mem[pageBase+offset] = b
		offset = (offset + 1) % d.conf.PageSize
	}

	if _, err := d.file.WriteAt(d.mem[pageBase:pageBase+d.conf.PageSize], int64(pageBase)); err != nil {
		return err
	}

	if d.log != nil {
		d.log.Debugf("Wrote %d bytes in page 0x%x", len(data), pageBase)
	}

	d.ptr = (pageBase + offset) % d.conf.Size
	return nil
}

func (d *Device) Close() error {
	d.Lock()
	defer d.Unlock()

	if d.file == nil {
		return ErrorClosed
	}
	err := d.file.Close()
	d.file = nil
	return err
}
