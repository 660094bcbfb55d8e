package edac

import "github.com/dvmgo/dvmfne/pkg/codecerr"

// MaxSyncBitErrors is the tuneable error tolerance for sync-word matching
// (spec.md §4.1's MAX_SYNC_BYTES_ERRS), counted in bits: a sync word
// with up to four differing bits still matches.
var MaxSyncBitErrors = 4

// MatchSync compares a candidate sync word against the wire bytes at a
// known offset, tolerating up to MaxSyncBitErrors bit differences. It
// returns the number of bit errors found and whether the match is within
// tolerance.
func MatchSync(candidate, wire []byte) (bitErrors int, ok bool) {
	n := len(candidate)
	if len(wire) < n {
		return 0, false
	}
	errs := 0
	for i := 0; i < n; i++ {
		diff := candidate[i] ^ wire[i]
		errs += PopCountLocal(uint32(diff))
	}
	return errs, errs <= MaxSyncBitErrors
}

// MatchSyncMasked is MatchSync but ignores bits cleared in mask (mask bit
// 1 = must match), as DMR's sync words require (outer nibbles of the
// first/last mask byte carry payload, not sync).
func MatchSyncMasked(candidate, wire, mask []byte) (bitErrors int, ok bool) {
	n := len(candidate)
	if len(wire) < n || len(mask) < n {
		return 0, false
	}
	errs := 0
	for i := 0; i < n; i++ {
		diff := (candidate[i] ^ wire[i]) & mask[i]
		errs += PopCountLocal(uint32(diff))
	}
	return errs, errs <= MaxSyncBitErrors
}

// ErrSyncNotFound is returned by frame codecs when no configured sync
// word matches within tolerance.
var ErrSyncNotFound = codecerr.New(codecerr.StageSync, codecerr.ReasonSyncErrorLimit, "no sync word matched within tolerance")
