// Package ch347lib registers the "ch347" driver, a binding to the WCH vendor
// library (libch347, header ch34x/ch347_lib.h).
//
// The binding needs cgo and is only compiled with the ch347lib build tag:
//
//	go build -tags ch347lib ./cmd/ch347eeprom
//
// Without the tag importing this package has no effect.
package ch347lib
