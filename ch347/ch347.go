// Package ch347 describes the contract between the EEPROM tool and the
// library that talks to the USB to I2C bridge.
//
// A bridge is opened through a named driver (see Register and Open). The
// resulting Device can change the I2C clock and run stream transactions.
package ch347

import (
	"sort"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"
)

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrorInvalidSpeed  = Error("Invalid speed")
	ErrorUnknownDriver = Error("Unknown driver")
	ErrorNoAddress     = Error("Transaction without address byte")
)

// Device is an opened bridge.
type Device interface {
	// SetI2CMode configures the I2C clock of the bridge.
	SetI2CMode(mode Mode) error

	// StreamI2C runs one I2C transaction. writeBuf[0] holds the 8 bit address
	// byte (7 bit address shifted left by one), the rest of writeBuf is sent to
	// the device. After that len(readBuf) bytes are read using a repeated start.
	// A writeBuf containing only the address byte and an empty readBuf probes
	// the address.
	StreamI2C(writeBuf []byte, readBuf []byte) error

	Close() error
}

// ReadLimiter is implemented by devices that can not read an arbitrary
// amount of bytes in one transaction.
type ReadLimiter interface {
	MaxReadLength() int
}

// LogSetter is implemented by devices that can report diagnostics
type LogSetter interface {
	SetLogger(log *logrus.Entry)
}

// Mode is the clock setting as understood by the vendor library.
type Mode int

const (
	Mode20kHz  Mode = 0
	Mode100kHz Mode = 1
	Mode400kHz Mode = 2
	Mode750kHz Mode = 3
	Mode50kHz  Mode = 4
	Mode200kHz Mode = 5
	Mode1MHz   Mode = 6
)

var speedToMode = map[int]Mode{
	20:   Mode20kHz,
	100:  Mode100kHz,
	400:  Mode400kHz,
	750:  Mode750kHz,
	50:   Mode50kHz,
	200:  Mode200kHz,
	1000: Mode1MHz,
}

// ModeForSpeed converts a clock speed in kHz to a Mode
func ModeForSpeed(kHz int) (Mode, error) {
	mode, ok := speedToMode[kHz]
	if !ok {
		return 0, ErrorInvalidSpeed
	}
	return mode, nil
}

// Speeds returns the supported clock speeds in kHz, sorted
func Speeds() []int {
	var result []int
	for speed := range speedToMode {
		result = append(result, speed)
	}
	sort.Ints(result)
	return result
}

// KiloHertz returns the clock speed of the mode in kHz. Unknown modes return 0.
func (m Mode) KiloHertz() int {
	for speed, mode := range speedToMode {
		if mode == m {
			return speed
		}
	}
	return 0
}

// Frequency returns the clock speed of the mode
func (m Mode) Frequency() physic.Frequency {
	return physic.Frequency(m.KiloHertz()) * physic.KiloHertz
}

func (m Mode) String() string {
	return m.Frequency().String()
}
