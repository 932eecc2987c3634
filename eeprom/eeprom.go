// Package eeprom implements scanning, reading and page-wise writing of I2C
// memories through a ch347.Device.
//
// All transactions are built in two fixed buffers owned by the Programmer: a
// command buffer of WriteBufferLength bytes and a data buffer of
// ReadBufferLength bytes that receives reads and stages files for writing.
package eeprom

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BertoldVdb/ch347eeprom/ch347"
	"github.com/sigurn/crc8"
	"github.com/sirupsen/logrus"
)

const (
	WriteBufferLength = 512
	ReadBufferLength  = 65536

	MaxBusAddress = 0x7F

	// DefaultWriteDelay covers the write cycle time of common EEPROMs
	DefaultWriteDelay = 5 * time.Millisecond
)

var crcTable *crc8.Table

func init() {
	crcParam := crc8.Params{
		Poly: 0x07,
		Init: 0x00,
		Name: "CRC-8",
	}
	crcTable = crc8.MakeTable(crcParam)
}

// Checksum returns the CRC-8 of data
func Checksum(data []byte) uint8 {
	return crc8.Checksum(data, crcTable)
}

// Programmer runs operations on one device. It is not safe for concurrent use.
type Programmer struct {
	dev ch347.Device
	log *logrus.Entry

	// WriteDelay is the pause after every page write
	WriteDelay time.Duration

	writeBuf [WriteBufferLength]byte
	readBuf  [ReadBufferLength]byte
}

// New creates a Programmer for dev. Both dev and log may be nil.
func New(dev ch347.Device, log *logrus.Entry) *Programmer {
	if log == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		log = logrus.NewEntry(logger)
	}

	return &Programmer{
		dev:        dev,
		log:        log,
		WriteDelay: DefaultWriteDelay,
	}
}

// SetDevice replaces the device used for transactions. Stage does not need a
// device, so a file can be loaded before the bridge is opened.
func (p *Programmer) SetDevice(dev ch347.Device) {
	p.dev = dev
}

// Probe returns true if a device acknowledges busAddress
func (p *Programmer) Probe(busAddress uint8) bool {
	p.writeBuf[0] = busAddress << 1
	return p.dev.StreamI2C(p.writeBuf[:1], nil) == nil
}

// Scan probes every address from 0x01 up to MaxBusAddress and returns the ones
// that answered
func (p *Programmer) Scan(ctx context.Context) ([]uint8, error) {
	var found []uint8

	for addr := 1; addr <= MaxBusAddress; addr++ {
		if err := ctx.Err(); err != nil {
			return found, err
		}
		if p.Probe(uint8(addr)) {
			p.log.Debugf("Device found at 0x%02x", addr)
			found = append(found, uint8(addr))
		}
	}

	return found, nil
}

func (p *Programmer) maxReadLength() int {
	if limiter, ok := p.dev.(ch347.ReadLimiter); ok {
		if limit := limiter.MaxReadLength(); limit > 0 && limit < ReadBufferLength {
			return limit
		}
	}
	return ReadBufferLength
}

func (p *Programmer) readInto(ctx context.Context, t Target, address int, buf []byte) error {
	limit := p.maxReadLength()

	for offset := 0; offset < len(buf); {
		if err := ctx.Err(); err != nil {
			return err
		}

		n := len(buf) - offset
		if n > limit {
			n = limit
		}

		chunkAddress := (address + offset) % t.AddressSpace()
		hl := t.header(p.writeBuf[:], chunkAddress)
		if err := p.dev.StreamI2C(p.writeBuf[:hl], buf[offset:offset+n]); err != nil {
			return &ReadError{Address: chunkAddress, Err: err}
		}
		offset += n
	}

	return nil
}

// Read reads length bytes starting at address. The returned slice points into
// the Programmer and is valid until the next call.
func (p *Programmer) Read(ctx context.Context, t Target, address int, length int) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := t.ValidateAddress(address); err != nil {
		return nil, err
	}
	if err := ValidateReadLength(length); err != nil {
		return nil, err
	}

	buf := p.readBuf[:length]
	if err := p.readInto(ctx, t, address, buf); err != nil {
		return nil, err
	}

	p.log.WithField("crc8", fmt.Sprintf("%02x", Checksum(buf))).Infof("Read %d bytes from %s at 0x%x", length, t, address)
	return buf, nil
}

// Stage loads the file at path into the data buffer. The returned slice points
// into the Programmer and can be passed to Write.
func (p *Programmer) Stage(path string) ([]byte, error) {
	fileStat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("Failed to stat file: %w", err)
	}
	if fileStat.Size() > ReadBufferLength {
		return nil, ErrorFileTooLarge
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Failed to open file: %w", err)
	}
	defer file.Close()

	buf := p.readBuf[:fileStat.Size()]
	if _, err := io.ReadFull(file, buf); err != nil {
		return nil, fmt.Errorf("Failed to read file: %w", err)
	}

	return buf, nil
}

func (p *Programmer) delay(ctx context.Context) {
	if p.WriteDelay <= 0 {
		return
	}

	timer := time.NewTimer(p.WriteDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Write stores data starting at address. Transactions carry at most pageSize
// bytes and never cross a page boundary. They are sent in increasing address
// order and each one is followed by WriteDelay. The first failing transaction
// aborts the write with a *WriteError.
func (p *Programmer) Write(ctx context.Context, t Target, address int, pageSize int, data []byte) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := t.ValidateAddress(address); err != nil {
		return err
	}
	if err := t.ValidatePageSize(pageSize); err != nil {
		return err
	}
	if len(data) > ReadBufferLength {
		return ErrorFileTooLarge
	}
	if address+len(data) > t.AddressSpace() {
		return ErrorOverflow
	}

	for offset := 0; offset < len(data); {
		if err := ctx.Err(); err != nil {
			return err
		}

		pageAddress := address + offset
		n := pageSize - pageAddress%pageSize
		if n > len(data)-offset {
			n = len(data) - offset
		}

		hl := t.header(p.writeBuf[:], pageAddress)
		copy(p.writeBuf[hl:], data[offset:offset+n])

		if err := p.dev.StreamI2C(p.writeBuf[:hl+n], nil); err != nil {
			return &WriteError{Address: pageAddress, Err: err}
		}
		p.log.Debugf("Wrote %d bytes at 0x%x", n, pageAddress)

		offset += n
		p.delay(ctx)
	}

	p.log.WithField("crc8", fmt.Sprintf("%02x", Checksum(data))).Infof("Wrote %d bytes to %s at 0x%x", len(data), t, address)
	return nil
}

// Verify reads back len(data) bytes at address and compares them with data
func (p *Programmer) Verify(ctx context.Context, t Target, address int, data []byte) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := t.ValidateAddress(address); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if len(data) > ReadBufferLength {
		return ErrorFileTooLarge
	}

	readBack := make([]byte, len(data))
	if err := p.readInto(ctx, t, address, readBack); err != nil {
		return err
	}

	for i := range data {
		if readBack[i] != data[i] {
			return &VerifyError{Address: address + i, Want: data[i], Got: readBack[i]}
		}
	}

	p.log.WithField("crc8", fmt.Sprintf("%02x", Checksum(readBack))).Infof("Verified %d bytes", len(data))
	return nil
}
