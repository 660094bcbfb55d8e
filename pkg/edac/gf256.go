package edac

// GF(2^8) arithmetic with primitive polynomial x^8+x^4+x^3+x^2+1 (0x11D),
// the field TIA-102's Reed-Solomon codes (RS(12,9), RS(24,12), RS(36,20))
// are all defined over. Shared by pkg/edac's Reed-Solomon codecs.

const gfPrimPoly = 0x11D

// The tables are built by a package-level variable initializer rather
// than an init function, so they are ready before the RS codec
// instances in rs.go (also package-level variables) are built from them.
var gfExp, gfLog = buildGFTables()

func buildGFTables() (exp [512]byte, logt [256]byte) {
	x := 1
	for i := 0; i < 255; i++ {
		exp[i] = byte(x)
		logt[x] = byte(i)
		x <<= 1
		if x&0x100 != 0 {
			x ^= gfPrimPoly
		}
	}
	for i := 255; i < 512; i++ {
		exp[i] = exp[i-255]
	}
	return exp, logt
}

func gfMul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return gfExp[int(gfLog[a])+int(gfLog[b])]
}

func gfDiv(a, b byte) byte {
	if a == 0 {
		return 0
	}
	return gfExp[(int(gfLog[a])-int(gfLog[b])+255)%255]
}

func gfPow(a byte, n int) byte {
	if a == 0 {
		return 0
	}
	e := (int(gfLog[a]) * n) % 255
	if e < 0 {
		e += 255
	}
	return gfExp[e]
}

func gfInv(a byte) byte {
	return gfExp[255-int(gfLog[a])]
}

// gfPolyMul multiplies two polynomials (coefficients high-degree first).
func gfPolyMul(p, q []byte) []byte {
	out := make([]byte, len(p)+len(q)-1)
	for i, pc := range p {
		if pc == 0 {
			continue
		}
		for j, qc := range q {
			if qc == 0 {
				continue
			}
			out[i+j] ^= gfMul(pc, qc)
		}
	}
	return out
}

// gfPolyEval evaluates polynomial p (high-degree first) at x.
func gfPolyEval(p []byte, x byte) byte {
	y := p[0]
	for i := 1; i < len(p); i++ {
		y = gfMul(y, x) ^ p[i]
	}
	return y
}
