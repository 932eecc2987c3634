package eeprom

import "fmt"

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrorBusAddress    = Error("Invalid I2C address")
	ErrorAddressLength = Error("Invalid address length")
	ErrorAddress       = Error("Invalid address")
	ErrorLength        = Error("Invalid length")
	ErrorFileTooLarge  = Error("File is too large")
	ErrorOverflow      = Error("Data does not fit in the address space")
)

// ReadError is returned when a read transaction fails
type ReadError struct {
	Address int
	Err     error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("Failed to read I2C data at address %x: %v", e.Address, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError is returned when a page write fails. Pages before Address were
// written.
type WriteError struct {
	Address int
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("Failed to write I2C data at address %x: %v", e.Address, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// VerifyError reports the first byte that differs after a write
type VerifyError struct {
	Address int
	Want    byte
	Got     byte
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("Verify failed at address %x: read %02x, expected %02x", e.Address, e.Got, e.Want)
}
