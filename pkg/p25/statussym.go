package p25

import "github.com/dvmgo/dvmfne/pkg/bitutil"

// StripStatusSymbols removes the 2-bit status dibit inserted every
// StatusSymbolStep bits starting at StatusSymbol0Start, returning the
// data bits with the symbols removed (spec.md §4.3).
func StripStatusSymbols(frame []byte) []bool {
	bits := bitutil.BytesToBits(frame)
	out := make([]bool, 0, len(bits))
	for i := 0; i < len(bits); {
		if i == StatusSymbol0Start || (i > StatusSymbol0Start && (i-StatusSymbol0Start)%StatusSymbolStep == 0) {
			i += 2
			continue
		}
		out = append(out, bits[i])
		i++
	}
	return out
}

// InsertStatusSymbols reinserts status dibits (value 0, the idle
// pattern) into a bit stream at the same offsets StripStatusSymbols
// removes them from, producing wire-ready data. statusValue lets
// callers inject the live status dibit value (busy/idle) when known.
func InsertStatusSymbols(data []bool, statusValue uint8) []byte {
	out := make([]bool, 0, len(data)+len(data)/StatusSymbolStep*2+2)
	s0 := (statusValue>>1)&1 == 1
	s1 := statusValue&1 == 1
	src := 0
	pos := 0
	for src < len(data) {
		if pos == StatusSymbol0Start || (pos > StatusSymbol0Start && (pos-StatusSymbol0Start)%StatusSymbolStep == 0) {
			out = append(out, s0, s1)
			pos += 2
			continue
		}
		out = append(out, data[src])
		src++
		pos++
	}
	return bitutil.BitsToBytes(out)
}
