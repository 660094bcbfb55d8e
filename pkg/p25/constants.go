// Package p25 implements the P25 (TIA-102) air-interface frame codecs
// the FNE router uses to decode, validate, and re-encode bursts
// forwarded between peers: NID/sync recognition, HDU, LDU1/LDU2, TDU,
// TDULC, TSDU/TSBK, and PDU. FEC is delegated to pkg/edac; this package
// adds P25's status-symbol framing and per-DUID field layout. Grounded
// on the Parse/Encode-struct idiom pkg/protocol uses for DMR HBP
// packets, generalized to P25's bit-packed wire format.
package p25

// DUID identifies the P25 Data Unit carried after the NID.
type DUID uint8

const (
	DUIDHDU    DUID = 0x00
	DUIDTDU    DUID = 0x03
	DUIDLDU1   DUID = 0x05
	DUIDVSELP1 DUID = 0x06
	DUIDTSDU   DUID = 0x07
	DUIDVSELP2 DUID = 0x09
	DUIDLDU2   DUID = 0x0A
	DUIDPDU    DUID = 0x0C
	DUIDTDULC  DUID = 0x0F
)

// Status symbol positions within a 1728-bit LDU frame: one status
// dibit occupies bits 70/71 and recurs every 72 bits, leaving 70 data
// bits between status symbols (spec.md §4.3/§6).
const (
	StatusSymbol0Start = 70
	StatusSymbol1Start = 71
	StatusSymbolStep   = 72
)

// StartSync is the 48-bit P25 start-of-frame sync pattern (spec.md §6).
var StartSync = []byte{0x55, 0x75, 0xF5, 0xFF, 0x77, 0xFF}

// Algorithm IDs carried by HDU/LDU2 crypto metadata.
const (
	AlgIDUnencrypted = 0x80
	AlgIDAES256      = 0x84
	AlgIDARC4        = 0xAA
	AlgIDDES         = 0x81
)

// Manufacturer IDs.
const (
	MFIDStandard = 0x00
	MFIDDVM      = 0x90
)
