package main

import (
	"errors"
	"strconv"
	"strings"

	"github.com/BertoldVdb/ch347eeprom/ch347"
	"github.com/BertoldVdb/ch347eeprom/eeprom"
)

const usageText = `Usage: ch347eeprom [flags] <device> <speed>
  scan
  read i2c_address address_length address length
  write i2c_address address_length address page_size file_name`

var (
	errUsage     = errors.New("usage")
	errOperation = errors.New("Invalid operation")
)

type operation int

const (
	opScan operation = iota
	opRead
	opWrite
)

var operations = map[string]struct {
	op   operation
	argc int
}{
	"scan":  {opScan, 3},
	"read":  {opRead, 7},
	"write": {opWrite, 8},
}

type request struct {
	device string
	mode   ch347.Mode
	op     operation

	target  eeprom.Target
	address int
	// length is the read length or the write page size
	length int
	file   string
}

// parseNumber accepts decimal or 0x prefixed hex
func parseNumber(s string) (int, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseInt(s[2:], 16, 32)
		return int(v), err
	}
	v, err := strconv.ParseInt(s, 10, 32)
	return int(v), err
}

func parseBusAddress(s string) (uint8, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || v > eeprom.MaxBusAddress {
		return 0, eeprom.ErrorBusAddress
	}
	return uint8(v), nil
}

func parseArgs(args []string) (request, error) {
	var req request

	if len(args) < 3 {
		return req, errUsage
	}
	req.device = args[0]

	speed, err := strconv.Atoi(args[1])
	if err != nil {
		return req, ch347.ErrorInvalidSpeed
	}
	if req.mode, err = ch347.ModeForSpeed(speed); err != nil {
		return req, err
	}

	op, ok := operations[args[2]]
	if !ok {
		return req, errOperation
	}
	if len(args) != op.argc {
		return req, errUsage
	}
	req.op = op.op
	if req.op == opScan {
		return req, nil
	}

	if req.target.BusAddress, err = parseBusAddress(args[3]); err != nil {
		return req, err
	}

	if req.target.AddressLength, err = parseNumber(args[4]); err != nil {
		return req, eeprom.ErrorAddressLength
	}
	if err := req.target.Validate(); err != nil {
		return req, err
	}

	if req.address, err = parseNumber(args[5]); err != nil {
		return req, eeprom.ErrorAddress
	}
	if err := req.target.ValidateAddress(req.address); err != nil {
		return req, err
	}

	if req.length, err = parseNumber(args[6]); err != nil {
		return req, eeprom.ErrorLength
	}
	if req.op == opRead {
		err = eeprom.ValidateReadLength(req.length)
	} else {
		err = req.target.ValidatePageSize(req.length)
		req.file = args[7]
	}

	return req, err
}
