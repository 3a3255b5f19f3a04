package models

import (
	"encoding/hex"
	"fmt"
	"strings"
)

func printable(b byte) bool { return b >= 0x20 && b <= 0x7e }

// Repr quotes p for trace output, escaping unprintable bytes and truncating
// to strsize characters when strsize > 0.
func Repr(p []byte, strsize int) string {
	parts := make([]string, len(p))
	total := 0
	for i, b := range p {
		if printable(b) {
			parts[i] = string(b)
		} else {
			parts[i] = fmt.Sprintf("\\x%02x", b)
		}
		total += len(parts[i])
	}
	if strsize <= 0 || total <= strsize {
		return "\"" + strings.Join(parts, "") + "\""
	}
	// drop whole escapes so we never cut one in half
	n := len(parts)
	for n > 0 && total > strsize-3 {
		n--
		total -= len(parts[n])
	}
	return "\"" + strings.Join(parts[:n], "") + "\"..."
}

// HexDump formats mem as word-grouped hex lines starting at base.
func HexDump(base uint64, mem []byte, bits int) []string {
	wsz := bits / 8
	addrFmt := fmt.Sprintf("0x%%0%dx:", wsz*2)
	words := ((80 - wsz*2 - 4) * 3 / 4) / ((wsz + 1) * 2)
	lineSize := words * wsz

	var out []string
	for off := 0; off < len(mem); off += lineSize {
		line := mem[off:]
		hexes := make([]string, words)
		text := make([]string, words)
		for j := 0; j < words; j++ {
			start, end := j*wsz, (j+1)*wsz
			if start >= len(line) {
				hexes[j] = strings.Repeat(" ", wsz*2)
				text[j] = strings.Repeat(" ", wsz)
				continue
			}
			pad := 0
			if end > len(line) {
				pad = end - len(line)
				end = len(line)
			}
			word := line[start:end]
			clean := make([]byte, len(word))
			for k, b := range word {
				if printable(b) {
					clean[k] = b
				} else {
					clean[k] = '.'
				}
			}
			hexes[j] = hex.EncodeToString(word) + strings.Repeat("  ", pad)
			text[j] = string(clean) + strings.Repeat(" ", pad)
		}
		out = append(out, fmt.Sprintf(addrFmt, base+uint64(off))+" "+strings.Join(hexes, " ")+" ["+strings.Join(text, " ")+"]")
	}
	return out
}
