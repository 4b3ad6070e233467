package disasm

import (
	"strings"

	"golang.design/x/clipboard"
)

// CopyTrace joins the given trace/listing lines and copies them to the
// system clipboard, grounded on the teacher repository's
// pkg/utils.CopyImage (same golang.design/x/clipboard dependency, applied
// here to the debugger's "copy trace line(s)" action rather than a tile
// image).
func CopyTrace(lines []string) error {
	if err := clipboard.Init(); err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtText, []byte(strings.Join(lines, "\n")))
	return nil
}

// Listing formats count decoded entries starting at addr as plain text
// lines, in increasing-address order, suitable for CopyTrace or a
// debugger listing pane.
func (d *Disassembler) Listing(addr uint16, count int) []string {
	lines := make([]string, 0, count)
	for i := 0; i < count && len(lines) < count; {
		e, ok := d.Lookup(addr)
		if !ok {
			addr++
			i++
			continue
		}
		lines = append(lines, formatListing(e))
		addr += uint16(e.Length)
		i++
	}
	return lines
}

func formatListing(e Entry) string {
	return entryHex(e.Address) + ": " + e.Mnemonic
}

func entryHex(addr uint16) string {
	const hexDigits = "0123456789ABCDEF"
	b := [4]byte{hexDigits[addr>>12&0xF], hexDigits[addr>>8&0xF], hexDigits[addr>>4&0xF], hexDigits[addr&0xF]}
	return string(b[:])
}
