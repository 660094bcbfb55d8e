package edac

import "github.com/dvmgo/dvmfne/pkg/codecerr"

// Generic Reed-Solomon codec over GF(2^8), parametrized by total codeword
// length n and data length k (n-k parity symbols). Grounded on spec.md
// §4.1's RS(12,9) requirement and generalized for P25's RS(24,12) (link
// control) and RS(36,20) (HDU); all three share the same GF(256) field
// and differ only in n/k, so one generator-polynomial-based codec serves
// all of pkg/dmr and pkg/p25.
type RS struct {
	N, K int
	gen  []byte
}

// NewRS builds a systematic Reed-Solomon codec for codeword length n and
// data length k. Parity symbol count is n-k.
func NewRS(n, k int) *RS {
	nsym := n - k
	gen := []byte{1}
	for i := 0; i < nsym; i++ {
		gen = gfPolyMul(gen, []byte{1, gfPow(2, i)})
	}
	return &RS{N: n, K: k, gen: gen}
}

// Encode takes K data bytes and returns an N-byte systematic codeword
// (data followed by N-K parity bytes).
func (r *RS) Encode(data []byte) []byte {
	if len(data) != r.K {
		padded := make([]byte, r.K)
		copy(padded, data)
		data = padded
	}
	nsym := r.N - r.K
	msg := make([]byte, r.K+nsym)
	copy(msg, data)

	remainder := make([]byte, len(msg))
	copy(remainder, msg)
	for i := 0; i < r.K; i++ {
		coef := remainder[i]
		if coef == 0 {
			continue
		}
		for j, gc := range r.gen {
			if gc == 0 {
				continue
			}
			remainder[i+j] ^= gfMul(gc, coef)
		}
	}

	out := make([]byte, r.N)
	copy(out, data)
	copy(out[r.K:], remainder[r.K:r.K+nsym])
	return out
}

func (r *RS) syndromes(codeword []byte) []byte {
	nsym := r.N - r.K
	synd := make([]byte, nsym)
	allZero := true
	for i := 0; i < nsym; i++ {
		s := gfPolyEval(codeword, gfPow(2, i))
		synd[i] = s
		if s != 0 {
			allZero = false
		}
	}
	if allZero {
		return nil
	}
	return synd
}

// berlekampMassey finds the error locator polynomial from the syndromes.
func berlekampMassey(synd []byte) []byte {
	errLoc := []byte{1}
	oldLoc := []byte{1}

	for i := range synd {
		oldLoc = append(oldLoc, 0)
		delta := synd[i]
		for j := 1; j < len(errLoc); j++ {
			delta ^= gfMul(errLoc[len(errLoc)-1-j], synd[i-j])
		}
		if delta != 0 {
			if len(oldLoc) > len(errLoc) {
				newLoc := gfPolyScale(oldLoc, delta)
				oldLoc = gfPolyScale(errLoc, gfInv(delta))
				errLoc = newLoc
			}
			errLoc = gfPolyXOR(errLoc, gfPolyScale(oldLoc, delta))
		}
	}
	return errLoc
}

func gfPolyScale(p []byte, x byte) []byte {
	out := make([]byte, len(p))
	for i, c := range p {
		out[i] = gfMul(c, x)
	}
	return out
}

func gfPolyXOR(p, q []byte) []byte {
	n := len(p)
	if len(q) > n {
		n = len(q)
	}
	out := make([]byte, n)
	for i := 0; i < len(p); i++ {
		out[n-len(p)+i] ^= p[i]
	}
	for i := 0; i < len(q); i++ {
		out[n-len(q)+i] ^= q[i]
	}
	return out
}

// Decode corrects up to floor((N-K)/2) symbol errors in codeword and
// returns the K-byte data portion. Returns a codecerr.Error if the
// codeword is uncorrectable.
func (r *RS) Decode(codeword []byte) ([]byte, error) {
	if len(codeword) != r.N {
		return nil, codecerr.New(codecerr.StageReedSolomon, codecerr.ReasonShortInput, "bad codeword length")
	}
	nsym := r.N - r.K
	maxErrors := nsym / 2

	work := make([]byte, len(codeword))
	copy(work, codeword)

	synd := r.syndromes(work)
	if synd == nil {
		return work[:r.K], nil
	}

	errLoc := berlekampMassey(synd)
	numErrors := len(errLoc) - 1
	if numErrors <= 0 || numErrors > maxErrors {
		return nil, codecerr.New(codecerr.StageReedSolomon, codecerr.ReasonUncorrectable, "too many errors")
	}

	// Chien search: find roots of errLoc (positions of errors).
	var errPos []int
	for i := 0; i < r.N; i++ {
		x := gfPow(2, i)
		// errLoc is high-degree-first; evaluate at x^-1 conceptually by
		// evaluating the reversed polynomial at x.
		rev := make([]byte, len(errLoc))
		for j, c := range errLoc {
			rev[len(errLoc)-1-j] = c
		}
		if gfPolyEval(rev, x) == 0 {
			errPos = append(errPos, r.N-1-i)
		}
	}
	if len(errPos) != numErrors {
		return nil, codecerr.New(codecerr.StageReedSolomon, codecerr.ReasonUncorrectable, "locator root mismatch")
	}

	// Forney algorithm for error magnitudes (syndromes start at alpha^0):
	// e = X * Omega(X^-1) / Lambda'(X^-1), with X = alpha^l.
	errEval := computeErrorEvaluator(synd, errLoc, numErrors)
	for _, pos := range errPos {
		l := r.N - 1 - pos
		xInv := gfPow(2, -l)
		// Lambda' keeps only the odd-degree terms in GF(2^m); lambda_j
		// sits at errLoc[len(errLoc)-1-j].
		var denom byte
		for j := 1; j < len(errLoc); j += 2 {
			denom ^= gfMul(errLoc[len(errLoc)-1-j], gfPow(xInv, j-1))
		}
		if denom == 0 {
			denom = 1
		}
		ySym := gfPolyEval(errEval, xInv)
		magnitude := gfDiv(gfMul(gfPow(2, l), ySym), denom)
		if pos < len(work) {
			work[pos] ^= magnitude
		}
	}

	if r.syndromes(work) != nil {
		return nil, codecerr.New(codecerr.StageReedSolomon, codecerr.ReasonUncorrectable, "residual syndrome nonzero")
	}
	return work[:r.K], nil
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

// computeErrorEvaluator computes the error evaluator polynomial
// Omega(x) = S(x) * Lambda(x) mod x^nsym.
func computeErrorEvaluator(synd, errLoc []byte, nsym int) []byte {
	sRev := reverseBytes(synd)
	prod := gfPolyMul(append([]byte{1}, sRev...), errLoc)
	if len(prod) > nsym {
		prod = prod[len(prod)-nsym:]
	}
	return prod
}

// Standard codec instances named after the wire protocols that use them.
var (
	RS129  = NewRS(12, 9)  // DMR Full/Privacy LC, per spec.md §4.1
	RS2412 = NewRS(24, 12) // P25 LDU link control
	RS3620 = NewRS(36, 20) // P25 HDU
)
