package alu

import (
	"math"
	"math/big"

	"rv64sim/isa"
)

const (
	qnan32     uint32 = 0x7fc00000
	signMask32 uint32 = 0x80000000
	expMask32  uint32 = 0x7f800000
	mantMask32 uint32 = 0x007fffff

	minNormalFloat32 = 1.1754943508222875e-38
)

func f32IsNaN(bits uint32) bool  { return bits&expMask32 == expMask32 && bits&mantMask32 != 0 }
func f32IsSNaN(bits uint32) bool { return f32IsNaN(bits) && bits&0x00400000 == 0 }
func f32IsInf(bits uint32) bool  { return bits&expMask32 == expMask32 && bits&mantMask32 == 0 }
func f32IsZero(bits uint32) bool { return bits&0x7fffffff == 0 }
func f32Sign(bits uint32) bool   { return bits&signMask32 != 0 }

func toBig32(bits uint32) *big.Float {
	f := math.Float32frombits(bits)
	return new(big.Float).SetPrec(24).SetFloat64(float64(f))
}

// packFloat32 rounds z (already computed at 24-bit precision/mode) back to a
// float32 bit pattern, flagging overflow/underflow against the true float32
// exponent range that big.Float, having no bounded exponent, never enforces
// on its own.
func packFloat32(z *big.Float, acc big.Accuracy, sign bool) (uint32, uint8) {
	var flags uint8
	if acc != big.Exact {
		flags |= FlagNX
	}
	f64, _ := z.Float64()
	mag := math.Abs(f64)
	if mag > math.MaxFloat32 {
		flags |= FlagOF | FlagNX
		if sign {
			return 0xff800000, flags
		}
		return 0x7f800000, flags
	}
	f32 := float32(f64)
	if mag != 0 && mag < math.MaxFloat32 && float32(mag) < minNormalFloat32 {
		flags |= FlagUF
	}
	return math.Float32bits(f32), flags
}

// FPExecute performs one single-precision ALU operation. Float-typed inputs
// and the float-typed half of the result travel as raw float32 bit patterns;
// operations that produce an integer (conversions, compares, fclass, fmv.x.w)
// return it zero- or sign-extended into the low bits of the uint64 result.
// rm is the already-resolved 3-bit rounding mode (the caller reads frm when
// the instruction's rm field is 7; see roundingMode's doc comment).
func FPExecute(op isa.Tag, a, b, c uint32, rm uint8) (uint64, uint8) {
	mode := roundingMode(rm)

	switch op {
	case isa.FaddS, isa.FsubS:
		bb := b
		if op == isa.FsubS {
			bb = b ^ signMask32
		}
		return f32Arith(a, bb, mode, func(z, x, y *big.Float) *big.Float { return z.Add(x, y) }, 'a')
	case isa.FmulS:
		return f32Arith(a, b, mode, func(z, x, y *big.Float) *big.Float { return z.Mul(x, y) }, 'm')
	case isa.FdivS:
		return f32Div(a, b, mode)
	case isa.FsqrtS:
		return f32Sqrt(a, mode)

	case isa.FmaddS, isa.FmsubS, isa.FnmsubS, isa.FnmaddS:
		return f32Fma(op, a, b, c, mode)

	case isa.FsgnjS:
		return uint64(a&0x7fffffff | b&signMask32), 0
	case isa.FsgnjnS:
		return uint64(a&0x7fffffff | (^b)&signMask32), 0
	case isa.FsgnjxS:
		return uint64(a ^ (b & signMask32)), 0

	case isa.FminS, isa.FmaxS:
		return f32MinMax(op, a, b)

	case isa.FeqS, isa.FltS, isa.FleS:
		return f32Compare(op, a, b)

	case isa.FclassS:
		return uint64(f32Class(a)), 0

	case isa.FcvtWS, isa.FcvtWuS, isa.FcvtLS, isa.FcvtLuS:
		return f32ToInt(op, a, mode)
	case isa.FcvtSW, isa.FcvtSWu, isa.FcvtSL, isa.FcvtSLu:
		return f32FromInt(op, a, b, mode)

	case isa.FmvXW:
		return uint64(int64(int32(a))), 0
	case isa.FmvWX:
		return uint64(a), 0

	case isa.FcvtDS:
		return f32ToF64(a, mode)
	}
	return 0, 0
}

func f32Arith(a, b uint32, mode big.RoundingMode, op func(z, x, y *big.Float) *big.Float, kind byte) (uint64, uint8) {
	if f32IsNaN(a) || f32IsNaN(b) {
		var flags uint8
		if f32IsSNaN(a) || f32IsSNaN(b) {
			flags = FlagNV
		}
		return uint64(qnan32), flags
	}
	aInf, bInf := f32IsInf(a), f32IsInf(b)
	if aInf || bInf {
		// kind 'a' already folded subtraction into addition by flipping b's sign.
		if aInf && bInf {
			asign, bsign := f32Sign(a), f32Sign(b)
			if kind == 'a' && asign != bsign {
				return uint64(qnan32), FlagNV
			}
			if kind == 'm' {
				sign := asign != bsign
				return uint64(boolSign32(sign) | expMask32), 0
			}
			sign := asign
			return uint64(boolSign32(sign) | expMask32), 0
		}
		if kind == 'm' && (f32IsZero(a) || f32IsZero(b)) {
			return uint64(qnan32), FlagNV
		}
		if aInf {
			sign := f32Sign(a)
			if kind == 'm' {
				sign = f32Sign(a) != f32Sign(b)
			}
			return uint64(boolSign32(sign) | expMask32), 0
		}
		sign := f32Sign(b)
		if kind == 'm' {
			sign = f32Sign(a) != f32Sign(b)
		}
		return uint64(boolSign32(sign) | expMask32), 0
	}
	x, y := toBig32(a), toBig32(b)
	z := op(new(big.Float).SetPrec(24).SetMode(mode), x, y)
	acc := z.Acc()
	sign := z.Sign() < 0
	bits, flags := packFloat32(z, acc, sign)
	return uint64(bits), flags
}

func f32Div(a, b uint32, mode big.RoundingMode) (uint64, uint8) {
	if f32IsNaN(a) || f32IsNaN(b) {
		var flags uint8
		if f32IsSNaN(a) || f32IsSNaN(b) {
			flags = FlagNV
		}
		return uint64(qnan32), flags
	}
	sign := f32Sign(a) != f32Sign(b)
	if f32IsZero(b) {
		if f32IsZero(a) {
			return uint64(qnan32), FlagNV
		}
		if f32IsInf(a) {
			return uint64(boolSign32(sign) | expMask32), 0
		}
		return uint64(boolSign32(sign) | expMask32), FlagDZ
	}
	if f32IsInf(a) && f32IsInf(b) {
		return uint64(qnan32), FlagNV
	}
	if f32IsInf(a) {
		return uint64(boolSign32(sign) | expMask32), 0
	}
	if f32IsInf(b) {
		return uint64(boolSign32(sign)), 0
	}
	x, y := toBig32(a), toBig32(b)
	z := new(big.Float).SetPrec(24).SetMode(mode).Quo(x, y)
	acc := z.Acc()
	bits, flags := packFloat32(z, acc, sign)
	return uint64(bits), flags
}

func f32Sqrt(a uint32, mode big.RoundingMode) (uint64, uint8) {
	if f32IsNaN(a) {
		var flags uint8
		if f32IsSNaN(a) {
			flags = FlagNV
		}
		return uint64(qnan32), flags
	}
	if f32Sign(a) && !f32IsZero(a) {
		return uint64(qnan32), FlagNV
	}
	if f32IsZero(a) {
		return uint64(a), 0
	}
	if f32IsInf(a) {
		return uint64(a), 0
	}
	x := toBig32(a)
	z := new(big.Float).SetPrec(24).SetMode(mode).Sqrt(x)
	acc := z.Acc()
	bits, flags := packFloat32(z, acc, false)
	return uint64(bits), flags
}

func f32Fma(op isa.Tag, a, b, c uint32, mode big.RoundingMode) (uint64, uint8) {
	if f32IsNaN(a) || f32IsNaN(b) || f32IsNaN(c) {
		var flags uint8
		if f32IsSNaN(a) || f32IsSNaN(b) || f32IsSNaN(c) {
			flags = FlagNV
		}
		return uint64(qnan32), flags
	}
	if (f32IsInf(a) && f32IsZero(b)) || (f32IsZero(a) && f32IsInf(b)) {
		return uint64(qnan32), FlagNV
	}
	negProduct := op == isa.FnmsubS || op == isa.FnmaddS
	negAddend := op == isa.FmsubS || op == isa.FnmaddS
	x, y, z := toBig32(a), toBig32(b), toBig32(c)
	r, acc := fusedCompute(24, mode, x, y, z, negProduct, negAddend)
	sign := r.Sign() < 0
	bits, flags := packFloat32(r, acc, sign)
	return uint64(bits), flags
}

func f32MinMax(op isa.Tag, a, b uint32) (uint64, uint8) {
	var flags uint8
	if f32IsSNaN(a) || f32IsSNaN(b) {
		flags = FlagNV
	}
	aNaN, bNaN := f32IsNaN(a), f32IsNaN(b)
	if aNaN && bNaN {
		return uint64(qnan32), flags
	}
	if aNaN {
		return uint64(b), flags
	}
	if bNaN {
		return uint64(a), flags
	}
	if f32IsZero(a) && f32IsZero(b) && f32Sign(a) != f32Sign(b) {
		if op == isa.FminS {
			if f32Sign(a) {
				return uint64(a), flags
			}
			return uint64(b), flags
		}
		if f32Sign(a) {
			return uint64(b), flags
		}
		return uint64(a), flags
	}
	fa := math.Float32frombits(a)
	fb := math.Float32frombits(b)
	if op == isa.FminS {
		if fa < fb {
			return uint64(a), flags
		}
		return uint64(b), flags
	}
	if fa > fb {
		return uint64(a), flags
	}
	return uint64(b), flags
}

func f32Compare(op isa.Tag, a, b uint32) (uint64, uint8) {
	var flags uint8
	if f32IsSNaN(a) || f32IsSNaN(b) {
		flags = FlagNV
	} else if (f32IsNaN(a) || f32IsNaN(b)) && op != isa.FeqS {
		flags = FlagNV
	}
	if f32IsNaN(a) || f32IsNaN(b) {
		return 0, flags
	}
	fa := math.Float32frombits(a)
	fb := math.Float32frombits(b)
	var result bool
	switch op {
	case isa.FeqS:
		result = fa == fb
	case isa.FltS:
		result = fa < fb
	case isa.FleS:
		result = fa <= fb
	}
	return boolU64(result), flags
}

// f32Class builds the 10-bit fclass mask (SPEC_FULL.md 4, bit 0 = -inf up
// through bit 9 = quiet NaN).
func f32Class(a uint32) uint32 {
	switch {
	case f32IsSNaN(a):
		return 1 << 8
	case f32IsNaN(a):
		return 1 << 9
	case f32IsInf(a):
		if f32Sign(a) {
			return 1 << 0
		}
		return 1 << 7
	case f32IsZero(a):
		if f32Sign(a) {
			return 1 << 3
		}
		return 1 << 4
	default:
		exp := (a & expMask32) >> 23
		if exp == 0 {
			if f32Sign(a) {
				return 1 << 2
			}
			return 1 << 5
		}
		if f32Sign(a) {
			return 1 << 1
		}
		return 1 << 6
	}
}

func f32ToInt(op isa.Tag, a uint32, mode big.RoundingMode) (uint64, uint8) {
	unsigned := op == isa.FcvtWuS || op == isa.FcvtLuS
	wide := op == isa.FcvtLS || op == isa.FcvtLuS

	if f32IsNaN(a) {
		return maxIntResult(unsigned, wide), FlagNV
	}
	f := math.Float32frombits(a)
	if f32IsInf(a) {
		if f32Sign(a) {
			return minIntResult(unsigned, wide), FlagNV
		}
		return maxIntResult(unsigned, wide), FlagNV
	}

	val := roundToIntMode(f, mode)
	inexact := val != float64(f)

	if unsigned {
		if val < 0 {
			return 0, FlagNV
		}
		limit := uint64(math.MaxUint32)
		if wide {
			limit = math.MaxUint64
		}
		if val > float64(limit) {
			return limit, FlagNV
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
		return uint64(int64(lo)), FlagNV
	}
	if val > hi {
		return uint64(int64(hi)), FlagNV
	}
	var flags uint8
	if inexact {
		flags = FlagNX
	}
	return uint64(int64(val)), flags
}

func roundToIntMode(f float32, mode big.RoundingMode) float64 {
	v := float64(f)
	switch mode {
	case big.ToZero:
		return math.Trunc(v)
	case big.ToNegativeInf:
		return math.Floor(v)
	case big.ToPositiveInf:
		return math.Ceil(v)
	case big.ToNearestAway:
		return math.Round(v)
	default:
		return math.RoundToEven(v)
	}
}

func maxIntResult(unsigned, wide bool) uint64 {
	if unsigned {
		if wide {
			return math.MaxUint64
		}
		return math.MaxUint32
	}
	if wide {
		return math.MaxInt64
	}
	return uint64(uint32(math.MaxInt32))
}

func minIntResult(unsigned, wide bool) uint64 {
	if unsigned {
		return 0
	}
	if wide {
		return 1 << 63
	}
	return 0xFFFFFFFF80000000 // math.MinInt32 sign-extended to 64 bits
}

func f32FromInt(op isa.Tag, a, b uint32, mode big.RoundingMode) (uint64, uint8) {
	raw := uint64(a) | uint64(b)<<32
	var f float64
	switch op {
	case isa.FcvtSW:
		f = float64(int32(a))
	case isa.FcvtSWu:
		f = float64(a)
	case isa.FcvtSL:
		f = float64(int64(raw))
	case isa.FcvtSLu:
		f = float64(raw)
	}
	z := new(big.Float).SetPrec(24).SetMode(mode).SetFloat64(f)
	acc := z.Acc()
	bits, flags := packFloat32(z, acc, f < 0)
	return uint64(bits), flags
}

func f32ToF64(a uint32, mode big.RoundingMode) (uint64, uint8) {
	if f32IsNaN(a) {
		var flags uint8
		if f32IsSNaN(a) {
			flags = FlagNV
		}
		return qnan64, flags
	}
	f := math.Float32frombits(a)
	return math.Float64bits(float64(f)), 0
}

func boolSign32(negative bool) uint32 {
	if negative {
		return signMask32
	}
	return 0
}
