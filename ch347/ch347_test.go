package ch347

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/physic"
)

func TestModeForSpeed(t *testing.T) {
	testCases := []struct {
		kHz       int
		mode      Mode
		wantError bool
	}{
		{kHz: 20, mode: 0},
		{kHz: 100, mode: 1},
		{kHz: 400, mode: 2},
		{kHz: 750, mode: 3},
		{kHz: 50, mode: 4},
		{kHz: 200, mode: 5},
		{kHz: 1000, mode: 6},
		{kHz: 0, wantError: true},
		{kHz: 10, wantError: true},
		{kHz: 3400, wantError: true},
		{kHz: -100, wantError: true},
	}

	for _, tc := range testCases {
		mode, err := ModeForSpeed(tc.kHz)
		if (err != nil) != tc.wantError {
			t.Fatalf("Test %d kHz: failed = %t (%v), want %t", tc.kHz, err != nil, err, tc.wantError)
		}
		if err != nil {
			if err != ErrorInvalidSpeed {
				t.Errorf("Test %d kHz: got error %v, want %v", tc.kHz, err, ErrorInvalidSpeed)
			}
			continue
		}
		if mode != tc.mode {
			t.Errorf("Test %d kHz: got mode %d, want %d", tc.kHz, mode, tc.mode)
		}
		if mode.KiloHertz() != tc.kHz {
			t.Errorf("Test %d kHz: round trip gave %d kHz", tc.kHz, mode.KiloHertz())
		}
	}
}

func TestModeFrequency(t *testing.T) {
	if f := Mode400kHz.Frequency(); f != 400*physic.KiloHertz {
		t.Errorf("Mode400kHz frequency is %v", f)
	}
	if f := Mode1MHz.Frequency(); f != physic.MegaHertz {
		t.Errorf("Mode1MHz frequency is %v", f)
	}
	if f := Mode(42).Frequency(); f != 0 {
		t.Errorf("Unknown mode has frequency %v", f)
	}
}

func TestSpeeds(t *testing.T) {
	want := []int{20, 50, 100, 200, 400, 750, 1000}
	got := Speeds()
	if len(got) != len(want) {
		t.Fatalf("Got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Got %v, want %v", got, want)
		}
	}
}

type nopDevice struct {
	path string
}

func (n *nopDevice) SetI2CMode(mode Mode) error { return nil }
func (n *nopDevice) StreamI2C(w, r []byte) error { return nil }
func (n *nopDevice) Close() error                { return nil }

func TestRegistry(t *testing.T) {
	opener := func(path string) (Device, error) {
		return &nopDevice{path: path}, nil
	}

	if err := Register("test-nop", opener); err != nil {
		t.Fatal("Register failed", err)
	}
	defer Unregister("test-nop")

	if err := Register("test-nop", opener); err == nil {
		t.Error("Registering a driver twice did not fail")
	}
	if err := Register("test-nil", nil); err == nil {
		t.Error("Registering a nil opener did not fail")
	}

	found := false
	for _, name := range Drivers() {
		if name == "test-nop" {
			found = true
		}
	}
	if !found {
		t.Error("Registered driver is not listed")
	}

	dev, err := Open("test-nop", "/dev/null")
	if err != nil {
		t.Fatal("Open failed", err)
	}
	if dev.(*nopDevice).path != "/dev/null" {
		t.Error("Opener did not receive the path")
	}

	_, err = Open("does-not-exist", "/dev/null")
	if !errors.Is(err, ErrorUnknownDriver) {
		t.Error("Opening an unknown driver returned", err)
	}
}
