package eeprom

import "fmt"

// Target is a memory device on the bus
type Target struct {
	// BusAddress is the 7 bit I2C address
	BusAddress uint8
	// AddressLength is the number of memory address bytes sent after the
	// bus address, most significant byte first
	AddressLength int
}

// Validate checks the bus address and the address length
func (t Target) Validate() error {
	if t.BusAddress > MaxBusAddress {
		return ErrorBusAddress
	}
	if t.AddressLength < 1 || t.AddressLength > 2 {
		return ErrorAddressLength
	}
	return nil
}

// AddressSpace is the number of bytes that can be addressed
func (t Target) AddressSpace() int {
	return 1 << (8 * uint(t.AddressLength))
}

// ValidateAddress checks that address fits in AddressLength bytes
func (t Target) ValidateAddress(address int) error {
	if address < 0 || address >= t.AddressSpace() {
		return ErrorAddress
	}
	return nil
}

// MaxPageSize is the largest payload that fits in the command buffer
func (t Target) MaxPageSize() int {
	return WriteBufferLength - 1 - t.AddressLength
}

// ValidatePageSize checks that a page and its header fit in the command buffer
func (t Target) ValidatePageSize(pageSize int) error {
	if pageSize < 1 || pageSize > t.MaxPageSize() {
		return ErrorLength
	}
	return nil
}

// ValidateReadLength checks that length fits in the read buffer
func ValidateReadLength(length int) error {
	if length < 1 || length > ReadBufferLength {
		return ErrorLength
	}
	return nil
}

// header stores the command header for address at the start of buf and
// returns its length
func (t Target) header(buf []byte, address int) int {
	buf[0] = t.BusAddress << 1
	for i := 0; i < t.AddressLength; i++ {
		shift := 8 * uint(t.AddressLength-1-i)
		buf[1+i] = byte(address >> shift)
	}
	return 1 + t.AddressLength
}

func (t Target) String() string {
	return fmt.Sprintf("0x%02x/%d", t.BusAddress, t.AddressLength)
}
