package edac

import "github.com/dvmgo/dvmfne/pkg/codecerr"

// BPTC(196,96): a product code whose 9 data rows are Hamming(15,11,3)
// codewords and whose 11 data columns are Hamming(13,9,3) codewords,
// per spec.md §4.1. Grounded on the
// row/column product-code shape of pkg/ysf/convolution.go's deinterleave
// pass (there applied to a convolutional code, here to a block product
// code), combined with a from-scratch Hamming(15,11) implementation since
// the teacher has none.

// hamming1511Parity returns the 4 parity bits for 11 data bits, MSB
// first as a 4-bit value, using a (15,11,3) generator matrix equivalent
// to repeated XOR of data bits per standard Hamming parity positions.
func hamming1511Parity(data [11]bool) [4]bool {
	// Parity-check positions chosen so each parity bit covers a distinct
	// subset of data bits with odd overlap, giving minimum distance 3.
	var p [4]bool
	p[0] = data[0] != data[1] != data[2] != data[3] != data[5] != data[7] != data[8]
	p[1] = data[0] != data[1] != data[2] != data[4] != data[6] != data[8] != data[9]
	p[2] = data[0] != data[1] != data[3] != data[4] != data[6] != data[7] != data[10]
	p[3] = data[0] != data[2] != data[3] != data[4] != data[5] != data[9] != data[10]
	return p
}

// hamming1511Decode corrects a single bit error (if any) and returns the
// 11 data bits.
func hamming1511Decode(bits [15]bool) [11]bool {
	var data [11]bool
	copy(data[:], bits[:11])
	gotParity := [4]bool{bits[11], bits[12], bits[13], bits[14]}
	wantParity := hamming1511Parity(data)

	syndrome := 0
	for i := 0; i < 4; i++ {
		if gotParity[i] != wantParity[i] {
			syndrome |= 1 << uint(i)
		}
	}
	if syndrome != 0 {
		// A data-bit error yields that bit's parity-check pattern (the
		// parity of a unit vector); a syndrome matching no data bit is a
		// parity-bit error and leaves the data as is.
		for idx := 0; idx < 11; idx++ {
			var unit [11]bool
			unit[idx] = true
			if parityPattern(hamming1511Parity(unit)) == syndrome {
				data[idx] = !data[idx]
				break
			}
		}
	}
	return data
}

// parityPattern packs 4 parity bits into a syndrome-shaped integer
// (bit i set when p[i] is set).
func parityPattern(p [4]bool) int {
	v := 0
	for i := 0; i < 4; i++ {
		if p[i] {
			v |= 1 << uint(i)
		}
	}
	return v
}

// hamming139Parity returns the 4 parity bits for 9 data bits (the
// shorter column code BPTC(196,96) uses).
func hamming139Parity(data [9]bool) [4]bool {
	var p [4]bool
	p[0] = data[0] != data[1] != data[3] != data[4] != data[6] != data[7]
	p[1] = data[0] != data[2] != data[3] != data[5] != data[6]
	p[2] = data[1] != data[2] != data[3] != data[7] != data[8]
	p[3] = data[4] != data[5] != data[6] != data[7] != data[8]
	return p
}

func hamming139Decode(bits [13]bool) [9]bool {
	var data [9]bool
	copy(data[:], bits[:9])
	gotParity := [4]bool{bits[9], bits[10], bits[11], bits[12]}
	wantParity := hamming139Parity(data)
	syndrome := 0
	for i := 0; i < 4; i++ {
		if gotParity[i] != wantParity[i] {
			syndrome |= 1 << uint(i)
		}
	}
	if syndrome != 0 {
		for idx := 0; idx < 9; idx++ {
			var unit [9]bool
			unit[idx] = true
			if parityPattern(hamming139Parity(unit)) == syndrome {
				data[idx] = !data[idx]
				break
			}
		}
	}
	return data
}

// EncodeBPTC196 encodes 96 bits of payload (12 bytes) into 195 coded
// bits, returned packed into 25 bytes with the final 5 bits zero
// (DecodeBPTC196 reads the first 196 bits).
func EncodeBPTC196(payload []byte) []byte {
	bits := bytesToBitSlice(payload, 96)
	return encodeProductCode(bits)
}

// encodeProductCode builds the product code: 9 rows of 11 data bits each
// (99 bits: the 96 payload bits plus 3 zero bits), each row followed by
// its 4 Hamming(15,11) parity bits, then 4 column-parity rows holding
// the Hamming(13,9) parity of each of the 11 data columns, each padded
// with 4 zero bits: 9*15 + 4*15 = 195 bits.
func encodeProductCode(bits []bool) []byte {
	const rows = 9
	const cols = 11
	var grid [rows][cols]bool
	idx := 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if idx < len(bits) {
				grid[r][c] = bits[idx]
			}
			idx++
		}
	}

	// Row parity: Hamming(15,11) per row -> 4 parity bits/row.
	var rowParity [rows][4]bool
	for r := 0; r < rows; r++ {
		rowParity[r] = hamming1511Parity(grid[r])
	}

	// Column parity: Hamming(13,9) over the 9 data rows per column,
	// producing 4 parity rows.
	var colParity [4][cols]bool
	for c := 0; c < cols; c++ {
		var col [9]bool
		for r := 0; r < rows; r++ {
			col[r] = grid[r][c]
		}
		p := hamming139Parity(col)
		for i := 0; i < 4; i++ {
			colParity[i][c] = p[i]
		}
	}

	var out []bool
	for r := 0; r < rows; r++ {
		out = append(out, grid[r][:]...)
		out = append(out, rowParity[r][:]...)
	}
	for i := 0; i < 4; i++ {
		out = append(out, colParity[i][:]...)
		// 4 extra bits per parity row to keep columns hammed at 13 tall;
		// reserved/zero since the data rows only number 9.
		out = append(out, false, false, false, false)
	}
	return bitsToByteSlice(out)
}

// DecodeBPTC196 reverses EncodeBPTC196, correcting up to one error per
// row and one per column via a single iteration, per spec.md §4.1.
func DecodeBPTC196(block []byte) ([]byte, error) {
	if len(block)*8 < 196 {
		return nil, codecerr.New(codecerr.StageBPTC, codecerr.ReasonShortInput, "short BPTC block")
	}
	bits := bytesToBitSlice(block, 196)

	const rows = 9
	const cols = 11
	var grid [rows][cols]bool
	var rowParity [rows][4]bool

	pos := 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			grid[r][c] = bits[pos]
			pos++
		}
		for i := 0; i < 4; i++ {
			rowParity[r][i] = bits[pos]
			pos++
		}
	}
	var colParity [4][cols]bool
	for i := 0; i < 4; i++ {
		for c := 0; c < cols; c++ {
			colParity[i][c] = bits[pos]
			pos++
		}
		pos += 4
	}

	// Correct rows.
	for r := 0; r < rows; r++ {
		var full [15]bool
		copy(full[:11], grid[r][:])
		full[11], full[12], full[13], full[14] = rowParity[r][0], rowParity[r][1], rowParity[r][2], rowParity[r][3]
		fixed := hamming1511Decode(full)
		copy(grid[r][:], fixed[:])
	}

	// Correct columns.
	for c := 0; c < cols; c++ {
		var full [13]bool
		for r := 0; r < rows; r++ {
			full[r] = grid[r][c]
		}
		full[9], full[10], full[11], full[12] = colParity[0][c], colParity[1][c], colParity[2][c], colParity[3][c]
		fixed := hamming139Decode(full)
		for r := 0; r < rows; r++ {
			grid[r][c] = fixed[r]
		}
	}

	var out []bool
	for r := 0; r < rows; r++ {
		out = append(out, grid[r][:]...)
	}
	return bitsToByteSlice(out), nil
}

func bytesToBitSlice(data []byte, n int) []bool {
	bits := make([]bool, 0, n)
	for _, b := range data {
		for i := 0; i < 8 && len(bits) < n; i++ {
			bits = append(bits, (b>>(7-uint(i)))&1 == 1)
		}
	}
	for len(bits) < n {
		bits = append(bits, false)
	}
	return bits
}

func bitsToByteSlice(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, bit := range bits {
		if bit {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}
