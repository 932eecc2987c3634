// Package i2cdev drives an I2C adapter exposed by the Linux kernel as
// /dev/i2c-N. It registers the "i2cdev" driver.
//
// The kernel owns the bus clock, so SetI2CMode only logs the request.
package i2cdev

import (
	"unsafe"

	"github.com/BertoldVdb/ch347eeprom/ch347"
)

// MaxMessageLength is the largest message i2c-dev accepts
const MaxMessageLength = 8192

const (
	ErrorMessageTooLong = ch347.Error("I2C message too long")
	ErrorClosed         = ch347.Error("Bus is closed")
)

const (
	i2cFlagRead uint16  = 0x0001
	i2cRdWr     uintptr = 0x00000707
)

// msg mirrors struct i2c_msg
type msg struct {
	Address uint16
	Flags   uint16
	Len     uint16
	Buf     uintptr
}

// rdWrRaw mirrors struct i2c_rdwr_ioctl_data
type rdWrRaw struct {
	Messages    uintptr
	NumMessages uint32
}

func bufferPointer(buf []byte) uintptr {
	if len(buf) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&buf[0]))
}

// buildMessages returns the kernel messages for one transaction. A transfer
// without read data always has a write message, so an empty transfer becomes
// a zero length write that only checks for an ACK.
func buildMessages(address uint16, writeBuf []byte, readBuf []byte) ([]msg, error) {
	if len(writeBuf) > MaxMessageLength || len(readBuf) > MaxMessageLength {
		return nil, ErrorMessageTooLong
	}

	var transfer []msg
	if len(writeBuf) > 0 || len(readBuf) == 0 {
		transfer = append(transfer, msg{
			Address: address,
			Len:     uint16(len(writeBuf)),
			Buf:     bufferPointer(writeBuf),
		})
	}
	if len(readBuf) > 0 {
		transfer = append(transfer, msg{
			Address: address,
			Flags:   i2cFlagRead,
			Len:     uint16(len(readBuf)),
			Buf:     bufferPointer(readBuf),
		})
	}

	return transfer, nil
}
