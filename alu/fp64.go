package alu

import (
	"math"
	"math/big"

	"rv64sim/isa"
)

const (
	qnan64     uint64 = 0x7ff8000000000000
	signMask64 uint64 = 0x8000000000000000
	expMask64  uint64 = 0x7ff0000000000000
	mantMask64 uint64 = 0x000fffffffffffff
)

func f64IsNaN(bits uint64) bool  { return bits&expMask64 == expMask64 && bits&mantMask64 != 0 }
func f64IsSNaN(bits uint64) bool { return f64IsNaN(bits) && bits&0x0008000000000000 == 0 }
func f64IsInf(bits uint64) bool  { return bits&expMask64 == expMask64 && bits&mantMask64 == 0 }
func f64IsZero(bits uint64) bool { return bits&0x7fffffffffffffff == 0 }
func f64Sign(bits uint64) bool   { return bits&signMask64 != 0 }

func toBig64(bits uint64) *big.Float {
	f := math.Float64frombits(bits)
	return new(big.Float).SetPrec(53).SetFloat64(f)
}

const minNormalFloat64 = 2.2250738585072014e-308

func packFloat64(z *big.Float, acc big.Accuracy, sign bool) (uint64, uint8) {
	var flags uint8
	if acc != big.Exact {
		flags |= FlagNX
	}
	wasNonzero := z.Sign() != 0
	f64, _ := z.Float64()
	if math.IsInf(f64, 0) {
		flags |= FlagOF | FlagNX
		if sign {
			return signMask64 | expMask64, flags
		}
		return expMask64, flags
	}
	if wasNonzero && math.Abs(f64) < minNormalFloat64 {
		flags |= FlagUF
	}
	bits := math.Float64bits(f64)
	if sign {
		bits |= signMask64
	}
	return bits, flags
}

// DFPExecute is FPExecute's double-precision counterpart; see FPExecute's
// doc comment for the result/flags convention.
func DFPExecute(op isa.Tag, a, b, c uint64, rm uint8) (uint64, uint8) {
	mode := roundingMode(rm)

	switch op {
	case isa.FaddD, isa.FsubD:
		bb := b
		if op == isa.FsubD {
			bb = b ^ signMask64
		}
		return f64Arith(a, bb, mode, func(z, x, y *big.Float) *big.Float { return z.Add(x, y) }, 'a')
	case isa.FmulD:
		return f64Arith(a, b, mode, func(z, x, y *big.Float) *big.Float { return z.Mul(x, y) }, 'm')
	case isa.FdivD:
		return f64Div(a, b, mode)
	case isa.FsqrtD:
		return f64Sqrt(a, mode)

	case isa.FmaddD, isa.FmsubD, isa.FnmsubD, isa.FnmaddD:
		return f64Fma(op, a, b, c, mode)

	case isa.FsgnjD:
		return a&0x7fffffffffffffff | b&signMask64, 0
	case isa.FsgnjnD:
		return a&0x7fffffffffffffff | (^b)&signMask64, 0
	case isa.FsgnjxD:
		return a ^ (b & signMask64), 0

	case isa.FminD, isa.FmaxD:
		return f64MinMax(op, a, b)

	case isa.FeqD, isa.FltD, isa.FleD:
		return f64Compare(op, a, b)

	case isa.FclassD:
		return uint64(f64Class(a)), 0

	case isa.FcvtWD, isa.FcvtWuD, isa.FcvtLD, isa.FcvtLuD:
		return f64ToInt(op, a, mode)
	case isa.FcvtDW, isa.FcvtDWu, isa.FcvtDL, isa.FcvtDLu:
		return f64FromInt(op, a, b, mode)

	case isa.FmvXD:
		return a, 0
	case isa.FmvDX:
		return a, 0

	case isa.FcvtSD:
		return f64ToF32(a, mode)
	}
	return 0, 0
}

func f64Arith(a, b uint64, mode big.RoundingMode, op func(z, x, y *big.Float) *big.Float, kind byte) (uint64, uint8) {
	if f64IsNaN(a) || f64IsNaN(b) {
		var flags uint8
		if f64IsSNaN(a) || f64IsSNaN(b) {
			flags = FlagNV
		}
		return qnan64, flags
	}
	aInf, bInf := f64IsInf(a), f64IsInf(b)
	if aInf || bInf {
		if aInf && bInf {
			asign, bsign := f64Sign(a), f64Sign(b)
			if kind == 'a' && asign != bsign {
				return qnan64, FlagNV
			}
			sign := asign
			if kind == 'm' {
				sign = asign != bsign
			}
			return boolSign64(sign) | expMask64, 0
		}
		if kind == 'm' && (f64IsZero(a) || f64IsZero(b)) {
			return qnan64, FlagNV
		}
		if aInf {
			sign := f64Sign(a)
			if kind == 'm' {
				sign = f64Sign(a) != f64Sign(b)
			}
			return boolSign64(sign) | expMask64, 0
		}
		sign := f64Sign(b)
		if kind == 'm' {
			sign = f64Sign(a) != f64Sign(b)
		}
		return boolSign64(sign) | expMask64, 0
	}
	x, y := toBig64(a), toBig64(b)
	z := op(new(big.Float).SetPrec(53).SetMode(mode), x, y)
	acc := z.Acc()
	sign := z.Sign() < 0
	bits, flags := packFloat64(z, acc, sign)
	return bits, flags
}

func f64Div(a, b uint64, mode big.RoundingMode) (uint64, uint8) {
	if f64IsNaN(a) || f64IsNaN(b) {
		var flags uint8
		if f64IsSNaN(a) || f64IsSNaN(b) {
			flags = FlagNV
		}
		return qnan64, flags
	}
	sign := f64Sign(a) != f64Sign(b)
	if f64IsZero(b) {
		if f64IsZero(a) {
			return qnan64, FlagNV
		}
		if f64IsInf(a) {
			return boolSign64(sign) | expMask64, 0
		}
		return boolSign64(sign) | expMask64, FlagDZ
	}
	if f64IsInf(a) && f64IsInf(b) {
		return qnan64, FlagNV
	}
	if f64IsInf(a) {
		return boolSign64(sign) | expMask64, 0
	}
	if f64IsInf(b) {
		return boolSign64(sign), 0
	}
	x, y := toBig64(a), toBig64(b)
	z := new(big.Float).SetPrec(53).SetMode(mode).Quo(x, y)
	acc := z.Acc()
	bits, flags := packFloat64(z, acc, sign)
	return bits, flags
}

func f64Sqrt(a uint64, mode big.RoundingMode) (uint64, uint8) {
	if f64IsNaN(a) {
		var flags uint8
		if f64IsSNaN(a) {
			flags = FlagNV
		}
		return qnan64, flags
	}
	if f64Sign(a) && !f64IsZero(a) {
		return qnan64, FlagNV
	}
	if f64IsZero(a) || f64IsInf(a) {
		return a, 0
	}
	x := toBig64(a)
	z := new(big.Float).SetPrec(53).SetMode(mode).Sqrt(x)
	acc := z.Acc()
	bits, flags := packFloat64(z, acc, false)
	return bits, flags
}

func f64Fma(op isa.Tag, a, b, c uint64, mode big.RoundingMode) (uint64, uint8) {
	if f64IsNaN(a) || f64IsNaN(b) || f64IsNaN(c) {
		var flags uint8
		if f64IsSNaN(a) || f64IsSNaN(b) || f64IsSNaN(c) {
			flags = FlagNV
		}
		return qnan64, flags
	}
	if (f64IsInf(a) && f64IsZero(b)) || (f64IsZero(a) && f64IsInf(b)) {
		return qnan64, FlagNV
	}
	negProduct := op == isa.FnmsubD || op == isa.FnmaddD
	negAddend := op == isa.FmsubD || op == isa.FnmaddD
	x, y, z := toBig64(a), toBig64(b), toBig64(c)
	r, acc := fusedCompute(53, mode, x, y, z, negProduct, negAddend)
	sign := r.Sign() < 0
	bits, flags := packFloat64(r, acc, sign)
	return bits, flags
}

func f64MinMax(op isa.Tag, a, b uint64) (uint64, uint8) {
	var flags uint8
	if f64IsSNaN(a) || f64IsSNaN(b) {
		flags = FlagNV
	}
	aNaN, bNaN := f64IsNaN(a), f64IsNaN(b)
	if aNaN && bNaN {
		return qnan64, flags
	}
	if aNaN {
		return b, flags
	}
	if bNaN {
		return a, flags
	}
	if f64IsZero(a) && f64IsZero(b) && f64Sign(a) != f64Sign(b) {
		if op == isa.FminD {
			if f64Sign(a) {
				return a, flags
			}
			return b, flags
		}
		if f64Sign(a) {
			return b, flags
		}
		return a, flags
	}
	fa := math.Float64frombits(a)
	fb := math.Float64frombits(b)
	if op == isa.FminD {
		if fa < fb {
			return a, flags
		}
		return b, flags
	}
	if fa > fb {
		return a, flags
	}
	return b, flags
}

func f64Compare(op isa.Tag, a, b uint64) (uint64, uint8) {
	var flags uint8
	if f64IsSNaN(a) || f64IsSNaN(b) {
		flags = FlagNV
	} else if (f64IsNaN(a) || f64IsNaN(b)) && op != isa.FeqD {
		flags = FlagNV
	}
	if f64IsNaN(a) || f64IsNaN(b) {
		return 0, flags
	}
	fa := math.Float64frombits(a)
	fb := math.Float64frombits(b)
	var result bool
	switch op {
	case isa.FeqD:
		result = fa == fb
	case isa.FltD:
		result = fa < fb
	case isa.FleD:
		result = fa <= fb
	}
	return boolU64(result), flags
}

func f64Class(a uint64) uint32 {
	switch {
	case f64IsSNaN(a):
		return 1 << 8
	case f64IsNaN(a):
		return 1 << 9
	case f64IsInf(a):
		if f64Sign(a) {
			return 1 << 0
		}
		return 1 << 7
	case f64IsZero(a):
		if f64Sign(a) {
			return 1 << 3
		}
		return 1 << 4
	default:
		exp := (a & expMask64) >> 52
		if exp == 0 {
			if f64Sign(a) {
				return 1 << 2
			}
			return 1 << 5
		}
		if f64Sign(a) {
			return 1 << 1
		}
		return 1 << 6
	}
}

func f64ToInt(op isa.Tag, a uint64, mode big.RoundingMode) (uint64, uint8) {
	unsigned := op == isa.FcvtWuD || op == isa.FcvtLuD
	wide := op == isa.FcvtLD || op == isa.FcvtLuD

	if f64IsNaN(a) {
		return maxIntResult(unsigned, wide), FlagNV
	}
	f := math.Float64frombits(a)
	if f64IsInf(a) {
		if f64Sign(a) {
			return minIntResult(unsigned, wide), FlagNV
		}
		return maxIntResult(unsigned, wide), FlagNV
	}

	val := roundToIntModeF64(f, mode)
	inexact := val != f

	if unsigned {
		if val < 0 {
			return 0, FlagNV
		}
		limit := float64(math.MaxUint32)
		if wide {
			limit = 18446744073709551615.0
		}
		if val > limit {
			return maxIntResult(true, wide), FlagNV
		}
		u := uint64(val)
		var flags uint8
		if inexact {
			flags = FlagNX
		}
		if !wide {
			u &= 0xffffffff
		}
		return u, flags
	}

	lo, hi := float64(math.MinInt32), float64(math.MaxInt32)
	if wide {
		lo, hi = -9223372036854775808.0, 9223372036854775807.0
	}
	if val < lo {
		return minIntResult(false, wide), FlagNV
	}
	if val > hi {
		return maxIntResult(false, wide), FlagNV
	}
	var flags uint8
	if inexact {
		flags = FlagNX
	}
	return uint64(int64(val)), flags
}

func roundToIntModeF64(f float64, mode big.RoundingMode) float64 {
	switch mode {
	case big.ToZero:
		return math.Trunc(f)
	case big.ToNegativeInf:
		return math.Floor(f)
	case big.ToPositiveInf:
		return math.Ceil(f)
	case big.ToNearestAway:
		return math.Round(f)
	default:
		return math.RoundToEven(f)
	}
}

func f64FromInt(op isa.Tag, a, b uint64, mode big.RoundingMode) (uint64, uint8) {
	raw := a | b<<32
	var f float64
	switch op {
	case isa.FcvtDW:
		f = float64(int32(uint32(a)))
	case isa.FcvtDWu:
		f = float64(uint32(a))
	case isa.FcvtDL:
		f = float64(int64(raw))
	case isa.FcvtDLu:
		f = float64(raw)
	}
	z := new(big.Float).SetPrec(53).SetMode(mode).SetFloat64(f)
	acc := z.Acc()
	bits, flags := packFloat64(z, acc, f < 0)
	return bits, flags
}

func f64ToF32(a uint64, mode big.RoundingMode) (uint64, uint8) {
	if f64IsNaN(a) {
		var flags uint8
		if f64IsSNaN(a) {
			flags = FlagNV
		}
		return uint64(qnan32), flags
	}
	if f64IsInf(a) {
		sign := f64Sign(a)
		return uint64(boolSign32(sign) | expMask32), 0
	}
	x := toBig64(a)
	z := new(big.Float).SetPrec(24).SetMode(mode)
	z.Set(x)
	acc := z.Acc()
	sign := z.Sign() < 0
	bits, flags := packFloat32(z, acc, sign)
	return uint64(bits), flags
}

func boolSign64(negative bool) uint64 {
	if negative {
		return signMask64
	}
	return 0
}
