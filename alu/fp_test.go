package alu

import (
	"math"
	"testing"

	"rv64sim/isa"
)

func f32(v float32) uint32 { return math.Float32bits(v) }
func f64(v float64) uint64 { return math.Float64bits(v) }

func TestFPExecuteBasicArithmetic(t *testing.T) {
	r, flags := FPExecute(isa.FaddS, f32(1.5), f32(2.25), 0, 0)
	if got := math.Float32frombits(uint32(r)); got != 3.75 {
		t.Fatalf("fadd.s: got %v, want 3.75", got)
	}
	if flags != 0 {
		t.Fatalf("fadd.s: unexpected flags 0x%x", flags)
	}

	r, _ = FPExecute(isa.FsubS, f32(5), f32(2), 0, 0)
	if got := math.Float32frombits(uint32(r)); got != 3 {
		t.Fatalf("fsub.s: got %v, want 3", got)
	}

	r, _ = FPExecute(isa.FmulS, f32(2), f32(3), 0, 0)
	if got := math.Float32frombits(uint32(r)); got != 6 {
		t.Fatalf("fmul.s: got %v, want 6", got)
	}

	r, _ = FPExecute(isa.FdivS, f32(6), f32(3), 0, 0)
	if got := math.Float32frombits(uint32(r)); got != 2 {
		t.Fatalf("fdiv.s: got %v, want 2", got)
	}
}

func TestFPExecuteDivByZero(t *testing.T) {
	r, flags := FPExecute(isa.FdivS, f32(1), f32(0), 0, 0)
	got := math.Float32frombits(uint32(r))
	if !math.IsInf(float64(got), 1) {
		t.Fatalf("1/0: got %v, want +Inf", got)
	}
	if flags&FlagDZ == 0 {
		t.Fatalf("1/0: expected DZ flag, got 0x%x", flags)
	}

	r, flags = FPExecute(isa.FdivS, f32(0), f32(0), 0, 0)
	if !f32IsNaN(uint32(r)) {
		t.Fatalf("0/0: expected NaN, got bits 0x%x", r)
	}
	if flags&FlagNV == 0 {
		t.Fatalf("0/0: expected NV flag, got 0x%x", flags)
	}
}

func TestFPExecuteSqrtOfNegativeIsInvalid(t *testing.T) {
	r, flags := FPExecute(isa.FsqrtS, f32(-4), 0, 0, 0)
	if !f32IsNaN(uint32(r)) {
		t.Fatalf("sqrt(-4): expected NaN, got bits 0x%x", r)
	}
	if flags&FlagNV == 0 {
		t.Fatalf("sqrt(-4): expected NV flag")
	}
}

func TestFPExecuteCompareAndClass(t *testing.T) {
	r, _ := FPExecute(isa.FeqS, f32(1), f32(1), 0, 0)
	if r != 1 {
		t.Fatalf("feq.s 1,1: got %d, want 1", r)
	}
	r, _ = FPExecute(isa.FltS, f32(1), f32(2), 0, 0)
	if r != 1 {
		t.Fatalf("flt.s 1,2: got %d, want 1", r)
	}

	r, _ = FPExecute(isa.FclassS, f32(0), 0, 0, 0)
	if r != 1<<4 {
		t.Fatalf("fclass.s(+0): got bit pattern 0x%x, want bit 4 set", r)
	}
	r, _ = FPExecute(isa.FclassS, f32(float32(math.Inf(-1))), 0, 0, 0)
	if r != 1<<0 {
		t.Fatalf("fclass.s(-inf): got 0x%x, want bit 0 set", r)
	}
}

func TestFPExecuteFusedMultiplyAdd(t *testing.T) {
	// fmadd.s: (2 * 3) + 1 = 7, single rounding.
	r, flags := FPExecute(isa.FmaddS, f32(2), f32(3), f32(1), 0)
	if got := math.Float32frombits(uint32(r)); got != 7 {
		t.Fatalf("fmadd.s: got %v, want 7", got)
	}
	if flags&FlagNX != 0 {
		t.Fatalf("fmadd.s: unexpected inexact flag on an exact result")
	}
}

func TestFPExecuteConversions(t *testing.T) {
	r, _ := FPExecute(isa.FcvtWS, f32(3.7), 0, 0, 0) // round to nearest even -> 4
	if int32(uint32(r)) != 4 {
		t.Fatalf("fcvt.w.s(3.7): got %d, want 4", int32(uint32(r)))
	}

	r, flags := FPExecute(isa.FcvtWS, f32(float32(math.Inf(1))), 0, 0, 0)
	if int32(uint32(r)) != math.MaxInt32 {
		t.Fatalf("fcvt.w.s(+inf): got %d, want MaxInt32", int32(uint32(r)))
	}
	if flags&FlagNV == 0 {
		t.Fatalf("fcvt.w.s(+inf): expected NV flag")
	}

	r, _ = FPExecute(isa.FcvtSW, f32(0)|42, 0, 0, 0) // a holds the raw int32 bit pattern
	if got := math.Float32frombits(uint32(r)); got != 42 {
		t.Fatalf("fcvt.s.w(42): got %v, want 42", got)
	}
}

func TestDFPExecuteMirrorsSingle(t *testing.T) {
	r, flags := DFPExecute(isa.FaddD, f64(1.5), f64(2.25), 0, 0)
	if got := math.Float64frombits(r); got != 3.75 {
		t.Fatalf("fadd.d: got %v, want 3.75", got)
	}
	if flags != 0 {
		t.Fatalf("fadd.d: unexpected flags 0x%x", flags)
	}

	r, flags = DFPExecute(isa.FdivD, f64(1), f64(0), 0, 0)
	if !math.IsInf(math.Float64frombits(r), 1) {
		t.Fatalf("1.0/0.0: expected +Inf")
	}
	if flags&FlagDZ == 0 {
		t.Fatalf("1.0/0.0: expected DZ flag")
	}
}

func TestDoublePrecisionRoundTripConversion(t *testing.T) {
	r, _ := FPExecute(isa.FcvtDS, f32(1.5), 0, 0, 0)
	if got := math.Float64frombits(r); got != 1.5 {
		t.Fatalf("fcvt.d.s(1.5): got %v, want 1.5", got)
	}

	r, _ = DFPExecute(isa.FcvtSD, f64(1.5), 0, 0, 0)
	if got := math.Float32frombits(uint32(r)); got != 1.5 {
		t.Fatalf("fcvt.s.d(1.5): got %v, want 1.5", got)
	}
}
