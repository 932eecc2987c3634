package i2cdev

import (
	"testing"
)

func TestBuildMessages(t *testing.T) {
	writeBuf := []byte{0x00, 0x10}
	readBuf := make([]byte, 4)

	testCases := []struct {
		desc      string
		write     []byte
		read      []byte
		wantFlags []uint16
		wantLen   []uint16
		wantError bool
	}{
		{
			desc:      "Probe",
			wantFlags: []uint16{0},
			wantLen:   []uint16{0},
		},
		{
			desc:      "Write only",
			write:     writeBuf,
			wantFlags: []uint16{0},
			wantLen:   []uint16{2},
		},
		{
			desc:      "Write then read",
			write:     writeBuf,
			read:      readBuf,
			wantFlags: []uint16{0, i2cFlagRead},
			wantLen:   []uint16{2, 4},
		},
		{
			desc:      "Read only",
			read:      readBuf,
			wantFlags: []uint16{i2cFlagRead},
			wantLen:   []uint16{4},
		},
		{
			desc:      "Read too long",
			write:     writeBuf,
			read:      make([]byte, MaxMessageLength+1),
			wantError: true,
		},
	}

	for _, tc := range testCases {
		msgs, err := buildMessages(0x50, tc.write, tc.read)
		if (err != nil) != tc.wantError {
			t.Fatalf("Test %q: failed = %t (%v), want %t", tc.desc, err != nil, err, tc.wantError)
		}
		if err != nil {
			continue
		}

		if len(msgs) != len(tc.wantFlags) {
			t.Fatalf("Test %q: got %d messages, want %d", tc.desc, len(msgs), len(tc.wantFlags))
		}
		for i, m := range msgs {
			if m.Address != 0x50 {
				t.Errorf("Test %q: message %d has address %x", tc.desc, i, m.Address)
			}
			if m.Flags != tc.wantFlags[i] {
				t.Errorf("Test %q: message %d has flags %x, want %x", tc.desc, i, m.Flags, tc.wantFlags[i])
			}
			if m.Len != tc.wantLen[i] {
				t.Errorf("Test %q: message %d has length %d, want %d", tc.desc, i, m.Len, tc.wantLen[i])
			}
			if (m.Len == 0) != (m.Buf == 0) {
				t.Errorf("Test %q: message %d buffer pointer does not match its length", tc.desc, i)
			}
		}
	}
}
