// Package hexgrid prints byte buffers and bus scan results as 16 column tables
package hexgrid

import (
	"bufio"
	"fmt"
	"io"
)

const columns = 16

// Dump writes data as a hex table. Rows are labelled with their index, so
// row 0x10 starts at offset 0x100.
func Dump(w io.Writer, data []byte) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("   ")
	for i := 0; i < columns; i++ {
		fmt.Fprintf(bw, " %02x", i)
	}

	for i, b := range data {
		if i%columns == 0 {
			fmt.Fprintf(bw, "\n%02x:", i/columns)
		}
		fmt.Fprintf(bw, " %02x", b)
	}
	bw.WriteByte('\n')

	return bw.Flush()
}

// ScanTable writes an i2cdetect style grid of the 7 bit addresses 0x01 to
// 0x7F. Addresses in found are printed, the others show "--".
func ScanTable(w io.Writer, found []uint8) error {
	var present [0x80]bool
	for _, addr := range found {
		if addr < 0x80 {
			present[addr] = true
		}
	}

	bw := bufio.NewWriter(w)

	bw.WriteString("   ")
	for i := 0; i < columns; i++ {
		fmt.Fprintf(bw, "  %x", i)
	}
	bw.WriteString("\n00:   ")

	for addr := 1; addr < 0x80; addr++ {
		if addr%columns == 0 {
			fmt.Fprintf(bw, "\n%02x:", addr)
		}
		if present[addr] {
			fmt.Fprintf(bw, " %02x", addr)
		} else {
			bw.WriteString(" --")
		}
	}
	bw.WriteByte('\n')

	return bw.Flush()
}
