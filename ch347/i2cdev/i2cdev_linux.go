package i2cdev

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"unsafe"

	"github.com/BertoldVdb/ch347eeprom/ch347"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Bus is an opened /dev/i2c-N device
type Bus struct {
	mutex sync.Mutex
	file  *os.File
	log   *logrus.Entry
}

func init() {
	ch347.Register("i2cdev", func(path string) (ch347.Device, error) {
		bus, err := Open(path)
		if err != nil {
			return nil, err
		}
		return bus, nil
	})
}

// Open opens the i2c-dev node at path
func Open(path string) (*Bus, error) {
	file, err := os.OpenFile(path, unix.O_RDWR|unix.O_NOCTTY, 0600)
	if err != nil {
		return nil, err
	}

	return &Bus{file: file}, nil
}

// Transfer writes writeBuf to the device at address and then reads readBuf
// using a repeated start
func (b *Bus) Transfer(address uint16, writeBuf []byte, readBuf []byte) error {
	transfer, err := buildMessages(address, writeBuf, readBuf)
	if err != nil {
		return err
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.file == nil {
		return ErrorClosed
	}

	param := rdWrRaw{
		Messages:    uintptr(unsafe.Pointer(&transfer[0])),
		NumMessages: uint32(len(transfer)),
	}

	_, _, errNo := unix.Syscall(unix.SYS_IOCTL, b.file.Fd(), i2cRdWr, uintptr(unsafe.Pointer(&param)))

	runtime.KeepAlive(transfer)
	runtime.KeepAlive(writeBuf)
	runtime.KeepAlive(readBuf)

	if errNo != 0 {
		return fmt.Errorf("I2C transfer to 0x%02x failed: %s", address, errNo.Error())
	}

	return nil
}

func (b *Bus) StreamI2C(writeBuf []byte, readBuf []byte) error {
	if len(writeBuf) == 0 {
		return ch347.ErrorNoAddress
	}
	return b.Transfer(uint16(writeBuf[0]>>1), writeBuf[1:], readBuf)
}

func (b *Bus) SetI2CMode(mode ch347.Mode) error {
	if b.log != nil {
		b.log.WithField("mode", mode).Warn("The kernel adapter owns the bus clock, requested speed is ignored")
	}
	return nil
}

func (b *Bus) SetLogger(log *logrus.Entry) {
	b.log = log
}

func (b *Bus) MaxReadLength() int {
	return MaxMessageLength
}

func (b *Bus) Close() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.file == nil {
		return ErrorClosed
	}
	err := b.file.Close()
	b.file = nil
	return err
}
