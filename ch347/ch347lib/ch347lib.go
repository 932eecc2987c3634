//go:build cgo && ch347lib

package ch347lib

/*
#cgo LDFLAGS: -lch347
#include <stdbool.h>
#include <stdlib.h>
#include <ch34x/ch347_lib.h>

static int ch347_open(const char *path) {
	return CH347OpenDevice(path);
}

static int ch347_close(int fd) {
	return CH347CloseDevice(fd) ? 1 : 0;
}

static int ch347_i2c_set(int fd, int mode) {
	return CH347I2C_Set(fd, mode) ? 1 : 0;
}

static int ch347_stream_i2c(int fd, int writeLength, void *writeBuffer, int readLength, void *readBuffer) {
	return CH347StreamI2C(fd, writeLength, writeBuffer, readLength, readBuffer) ? 1 : 0;
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/BertoldVdb/ch347eeprom/ch347"
)

const (
	ErrorOpen    = ch347.Error("CH347OpenDevice failed")
	ErrorClose   = ch347.Error("CH347CloseDevice failed")
	ErrorSetMode = ch347.Error("CH347I2C_Set failed")
	ErrorStream  = ch347.Error("CH347StreamI2C failed")
	ErrorClosed  = ch347.Error("Device is closed")
)

// Device is a bridge opened through the vendor library
type Device struct {
	mutex  sync.Mutex
	fd     C.int
	closed bool
}

func init() {
	ch347.Register("ch347", func(path string) (ch347.Device, error) {
		dev, err := Open(path)
		if err != nil {
			return nil, err
		}
		return dev, nil
	})
}

// Open opens a device node created by the vendor kernel driver, for example
// /dev/ch34x_pis0
func Open(path string) (*Device, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	fd := C.ch347_open(cPath)
	if fd < 0 {
		return nil, fmt.Errorf("%w: %s", ErrorOpen, path)
	}

	return &Device{fd: fd}, nil
}

// FD returns the handle the vendor library returned
func (d *Device) FD() int {
	return int(d.fd)
}

func (d *Device) SetI2CMode(mode ch347.Mode) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.closed {
		return ErrorClosed
	}
	if C.ch347_i2c_set(d.fd, C.int(mode)) == 0 {
		return ErrorSetMode
	}
	return nil
}

func (d *Device) StreamI2C(writeBuf []byte, readBuf []byte) error {
	if len(writeBuf) == 0 {
		return ch347.ErrorNoAddress
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.closed {
		return ErrorClosed
	}

	/* The library only reads from and writes to the buffers during the call */
	var readPtr unsafe.Pointer
	if len(readBuf) > 0 {
		readPtr = unsafe.Pointer(&readBuf[0])
	}

	rc := C.ch347_stream_i2c(d.fd, C.int(len(writeBuf)), unsafe.Pointer(&writeBuf[0]), C.int(len(readBuf)), readPtr)
	if rc == 0 {
		return ErrorStream
	}
	return nil
}

func (d *Device) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.closed {
		return ErrorClosed
	}
	d.closed = true

	if C.ch347_close(d.fd) == 0 {
		return ErrorClose
	}
	return nil
}
