package eepromsim

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/BertoldVdb/ch347eeprom/ch347"
)

func newTestDevice(t *testing.T, conf Config) (*Device, string) {
	path := filepath.Join(t.TempDir(), "eeprom.bin")
	dev, err := Open(path, conf)
	if err != nil {
		t.Fatalf("Cannot open image: %v", err)
	}
	return dev, path
}

func TestBlankImage(t *testing.T) {
	conf := Config{BusAddress: 0x50, AddressLength: 1, PageSize: 8, Size: 256}
	dev, path := newTestDevice(t, conf)
	defer dev.Close()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(content, bytes.Repeat([]byte{0xFF}, 256)) {
		t.Error("New image is not blank")
	}
}

func TestProbe(t *testing.T) {
	dev, _ := newTestDevice(t, DefaultConfig)
	defer dev.Close()

	if err := dev.StreamI2C([]byte{0x50 << 1}, nil); err != nil {
		t.Error("Probe at the emulated address failed", err)
	}
	if err := dev.StreamI2C([]byte{0x51 << 1}, nil); err != ErrorNack {
		t.Error("Probe at another address returned", err)
	}
	if err := dev.StreamI2C(nil, nil); err != ch347.ErrorNoAddress {
		t.Error("Empty transaction returned", err)
	}
}

func TestWriteRead(t *testing.T) {
	conf := Config{BusAddress: 0x50, AddressLength: 2, PageSize: 8, Size: 1024}
	dev, path := newTestDevice(t, conf)

	/* Write 4 bytes at 0x0102 */
	if err := dev.StreamI2C([]byte{0xA0, 0x01, 0x02, 'a', 'b', 'c', 'd'}, nil); err != nil {
		t.Fatal("Write failed", err)
	}

	/* Random read */
	buf := make([]byte, 6)
	if err := dev.StreamI2C([]byte{0xA0, 0x01, 0x01}, buf); err != nil {
		t.Fatal("Read failed", err)
	}
	if !bytes.Equal(buf, []byte{0xFF, 'a', 'b', 'c', 'd', 0xFF}) {
		t.Errorf("Random read returned %x", buf)
	}

	/* Current address read continues after the last byte */
	buf = make([]byte, 1)
	if err := dev.StreamI2C([]byte{0xA0}, buf); err != nil {
		t.Fatal("Read failed", err)
	}
	if buf[0] != 0xFF {
		t.Errorf("Current address read returned %x", buf)
	}

	if err := dev.Close(); err != nil {
		t.Fatal("Close failed", err)
	}

	/* Data must be persisted */
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(content[0x102:0x106], []byte("abcd")) {
		t.Errorf("Image holds %x", content[0x100:0x108])
	}

	dev, err = Open(path, conf)
	if err != nil {
		t.Fatal("Reopen failed", err)
	}
	defer dev.Close()
	if !bytes.Equal(dev.Memory()[0x102:0x106], []byte("abcd")) {
		t.Error("Reopened image lost data")
	}
}

func TestPageRollover(t *testing.T) {
	conf := Config{BusAddress: 0x50, AddressLength: 1, PageSize: 4, Size: 16}
	dev, _ := newTestDevice(t, conf)
	defer dev.Close()

	/* Writing 3 bytes at 0x06 wraps to the start of page 0x04 */
	if err := dev.StreamI2C([]byte{0xA0, 0x06, 1, 2, 3}, nil); err != nil {
		t.Fatal("Write failed", err)
	}

	want := bytes.Repeat([]byte{0xFF}, 16)
	want[6] = 1
	want[7] = 2
	want[4] = 3
	if got := dev.Memory(); !bytes.Equal(got, want) {
		t.Errorf("Memory is %x, want %x", got, want)
	}
}

func TestLastPage(t *testing.T) {
	conf := Config{BusAddress: 0x50, AddressLength: 1, PageSize: 4, Size: 16}
	dev, _ := newTestDevice(t, conf)
	defer dev.Close()

	/* Writing the last byte of the memory rolls the pointer to the start of its page */
	if err := dev.StreamI2C([]byte{0xA0, 0x0F, 0x42}, nil); err != nil {
		t.Fatal("Write failed", err)
	}

	buf := make([]byte, 1)
	if err := dev.StreamI2C([]byte{0xA0}, buf); err != nil {
		t.Fatal("Current address read failed", err)
	}
	if buf[0] != 0xFF {
		t.Errorf("Current address read returned %x", buf)
	}

	/* Sequential reads wrap at the end of the memory */
	buf = make([]byte, 2)
	if err := dev.StreamI2C([]byte{0xA0, 0x0F}, buf); err != nil {
		t.Fatal("Read failed", err)
	}
	if !bytes.Equal(buf, []byte{0x42, 0xFF}) {
		t.Errorf("Read returned %x", buf)
	}
}

func TestShortAddress(t *testing.T) {
	dev, _ := newTestDevice(t, DefaultConfig)
	defer dev.Close()

	if err := dev.StreamI2C([]byte{0xA0, 0x01}, nil); err != ErrorShortAddress {
		t.Error("Truncated address returned", err)
	}
}

func TestOpenErrors(t *testing.T) {
	testCases := []struct {
		desc string
		conf Config
	}{
		{desc: "Bus address", conf: Config{BusAddress: 0x80, AddressLength: 1, PageSize: 8, Size: 256}},
		{desc: "Address length", conf: Config{BusAddress: 0x50, AddressLength: 3, PageSize: 8, Size: 256}},
		{desc: "Page size", conf: Config{BusAddress: 0x50, AddressLength: 1, PageSize: 0, Size: 256}},
		{desc: "Size", conf: Config{BusAddress: 0x50, AddressLength: 1, PageSize: 8, Size: 512}},
		{desc: "Partial last page", conf: Config{BusAddress: 0x50, AddressLength: 1, PageSize: 64, Size: 100}},
	}

	for _, tc := range testCases {
		path := filepath.Join(t.TempDir(), "eeprom.bin")
		if _, err := Open(path, tc.conf); err == nil {
			t.Errorf("Test %q: expected Open() to fail", tc.desc)
		}
	}

	/* An existing image with the wrong size is rejected */
	path := filepath.Join(t.TempDir(), "small.bin")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path, DefaultConfig); err == nil {
		t.Error("Expected Open() to fail on a short image")
	}
}

func TestModeAndClose(t *testing.T) {
	dev, _ := newTestDevice(t, DefaultConfig)

	if err := dev.SetI2CMode(ch347.Mode400kHz); err != nil {
		t.Fatal("SetI2CMode failed", err)
	}
	if dev.Mode() != ch347.Mode400kHz {
		t.Error("Mode was not stored")
	}
	if err := dev.SetI2CMode(ch347.Mode(12)); err == nil {
		t.Error("Invalid mode was accepted")
	}

	if err := dev.Close(); err != nil {
		t.Fatal("Close failed", err)
	}
	if err := dev.Close(); err != ErrorClosed {
		t.Error("Second close returned", err)
	}
	if err := dev.StreamI2C([]byte{0xA0}, nil); err != ErrorClosed {
		t.Error("Transaction after close returned", err)
	}
}
