package edac

import "github.com/dvmgo/dvmfne/pkg/codecerr"

// Trellis 3/4 codec for P25 TSBK and PDU FEC (spec.md §4.1). Grounded on
// pkg/ysf/convolution.go's rate-1/2 K=5 Viterbi decoder shape (branch
// tables, path metrics, traceback by decision bits): this codec reuses
// that trellis-search structure over a rate-1/2 K=5 convolutional code
// with deterministic puncturing to hit the 196-encoded-bit/12-byte-payload
// target spec.md §4.1 and §4.3 specify for a trellis 3/4 block.

const (
	trellisNumStates    = 16
	trellisNumStatesD2  = 8
	trellisConstraint   = 5
	trellisDataBits     = 96
	trellisTailBits     = 4
	trellisEncodedBits  = 196
	trellisRawBits      = 2 * (trellisDataBits + trellisTailBits) // 200
	trellisPunctureEach = 50                                      // drop 1 bit every 50 to go from 200 to 196
)

var trellisBranch1 = []uint8{0, 0, 0, 0, 1, 1, 1, 1}
var trellisBranch2 = []uint8{0, 1, 1, 0, 0, 1, 1, 0}

// EncodeTrellis34 encodes 96 bits of payload (12 bytes) into a 196-bit
// trellis-coded block (packed into 25 bytes, final nibble padded).
func EncodeTrellis34(payload []byte) []byte {
	bits := bytesToBitSlice(payload, trellisDataBits)
	bits = append(bits, make([]bool, trellisTailBits)...) // flush the shift register

	encoded := make([]bool, 0, trellisRawBits)
	state := uint8(0)
	for _, bit := range bits {
		var in uint8
		if bit {
			in = 1
		}
		idx := state & 0x07
		flip := in ^ (state >> 3)
		encoded = append(encoded, trellisBranch1[idx]^flip == 1, trellisBranch2[idx]^flip == 1)
		state = ((state << 1) | in) & 0x0F
	}

	punctured := puncture(encoded, trellisPunctureEach)
	return bitsToByteSlice(punctured)
}

// DecodeTrellis34 reverses EncodeTrellis34 via Viterbi decoding, returning
// the 12-byte payload.
func DecodeTrellis34(block []byte) ([]byte, error) {
	if len(block)*8 < trellisEncodedBits {
		return nil, codecerr.New(codecerr.StageTrellis, codecerr.ReasonShortInput, "short trellis block")
	}
	punctured := bytesToBitSlice(block, trellisEncodedBits)
	encoded := depuncture(punctured, trellisPunctureEach, trellisRawBits)

	numSymbols := trellisDataBits + trellisTailBits
	oldMetrics := make([]uint32, trellisNumStates)
	newMetrics := make([]uint32, trellisNumStates)
	decisions := make([][trellisNumStates]uint8, numSymbols)
	for s := 1; s < trellisNumStates; s++ {
		oldMetrics[s] = 1 << 16 // the encoder starts in state 0
	}

	for sym := 0; sym < numSymbols; sym++ {
		var s0, s1 uint8
		if encoded[sym*2] {
			s0 = 1
		}
		if encoded[sym*2+1] {
			s1 = 1
		}

		for i := uint8(0); i < trellisNumStatesD2; i++ {
			metric := uint32(xorCount(trellisBranch1[i], s0) + xorCount(trellisBranch2[i], s1))
			m0 := oldMetrics[i] + metric
			m1 := oldMetrics[i+trellisNumStatesD2] + (2 - metric)

			j := i * 2
			if m0 <= m1 {
				newMetrics[j] = m0
				decisions[sym][j] = 0
			} else {
				newMetrics[j] = m1
				decisions[sym][j] = 1
			}

			m0b := oldMetrics[i] + (2 - metric)
			m1b := oldMetrics[i+trellisNumStatesD2] + metric
			if m0b <= m1b {
				newMetrics[j+1] = m0b
				decisions[sym][j+1] = 0
			} else {
				newMetrics[j+1] = m1b
				decisions[sym][j+1] = 1
			}
		}
		oldMetrics, newMetrics = newMetrics, oldMetrics
	}

	// Traceback from the best-metric final state (forced to 0 by flush bits).
	state := uint8(0)
	outBits := make([]bool, numSymbols)
	for sym := numSymbols - 1; sym >= 0; sym-- {
		outBits[sym] = state&1 == 1
		state = (state >> 1) | (decisions[sym][state] << 3)
	}

	payloadBits := outBits[:trellisDataBits]
	return bitsToByteSlice(payloadBits), nil
}

func xorCount(a uint8, b uint8) uint32 {
	if a == b {
		return 0
	}
	return 1
}

// puncture removes one bit out of every `each` bits.
func puncture(bits []bool, each int) []bool {
	out := make([]bool, 0, len(bits))
	for i, b := range bits {
		if each > 0 && (i+1)%each == 0 {
			continue
		}
		out = append(out, b)
	}
	return out
}

// depuncture reinserts a zero-valued bit at every punctured position to
// restore the original rate-1/2 bit count.
func depuncture(bits []bool, each, want int) []bool {
	out := make([]bool, 0, want)
	src := 0
	for len(out) < want {
		pos := len(out)
		if each > 0 && (pos+1)%each == 0 {
			out = append(out, false)
			continue
		}
		if src >= len(bits) {
			out = append(out, false)
			continue
		}
		out = append(out, bits[src])
		src++
	}
	return out
}
