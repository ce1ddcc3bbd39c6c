package alu

import "math/big"

// Exception flag bits, in the bit positions the real fflags/fcsr CSR uses:
// NV is the high bit of the 5-bit field, NX the low bit.
const (
	FlagNX uint8 = 1 << 0
	FlagUF uint8 = 1 << 1
	FlagOF uint8 = 1 << 2
	FlagDZ uint8 = 1 << 3
	FlagNV uint8 = 1 << 4
)

// roundingMode maps the 3-bit RISC-V rm encoding to the big.Float mode
// that performs the equivalent rounding during a single Float operation
// (spec.md 4.D; SPEC_FULL.md section 2 explains why big.Float is used in
// place of a host fesetround call). Callers resolve rm=7 ("dyn": read
// frm) before calling — the ALU itself stays a pure function of its
// arguments, never touching register-file state.
func roundingMode(rm uint8) big.RoundingMode {
	switch rm {
	case 0:
		return big.ToNearestEven
	case 1:
		return big.ToZero
	case 2:
		return big.ToNegativeInf
	case 3:
		return big.ToPositiveInf
	case 4:
		return big.ToNearestAway
	default:
		return big.ToNearestEven
	}
}

// fusedPrec is the working precision used for the exact intermediate
// product/sum in a fused multiply-add: wide enough that multiplying two
// 53-bit mantissas and adding a third never itself loses a bit before the
// single final rounding at the target precision. The sum widens it by the
// exponent gap between product and addend so that stays true when the two
// are far apart.
const fusedPrec = 240

func fusedCompute(prec uint, mode big.RoundingMode, a, b, c *big.Float, negProduct, negAddend bool) (*big.Float, big.Accuracy) {
	prod := new(big.Float).SetPrec(fusedPrec).Mul(a, b)
	if negProduct {
		prod.Neg(prod)
	}
	addend := c
	if negAddend {
		addend = new(big.Float).SetPrec(fusedPrec).Neg(c)
	}
	sumPrec := uint(fusedPrec)
	if prod.Sign() != 0 && addend.Sign() != 0 {
		gap := prod.MantExp(nil) - addend.MantExp(nil)
		if gap < 0 {
			gap = -gap
		}
		sumPrec += uint(gap)
	}
	sum := new(big.Float).SetPrec(sumPrec).Add(prod, addend)
	z := new(big.Float).SetPrec(prec).SetMode(mode)
	z.Set(sum)
	return z, z.Acc()
}
