package alu

import (
	"testing"

	"rv64sim/isa"
)

func assertEq(t *testing.T, got, want uint64, what string) {
	t.Helper()
	if got != want {
		t.Fatalf("%s: got 0x%x, want 0x%x", what, got, want)
	}
}

func TestExecuteIntArithmetic(t *testing.T) {
	r, ovf := ExecuteInt(isa.Add, 2, 3)
	assertEq(t, r, 5, "add")
	if ovf {
		t.Fatal("add: unexpected overflow")
	}

	r, ovf = ExecuteInt(isa.Add, uint64(1<<63-1), 1)
	assertEq(t, r, 1<<63, "add overflow wraparound")
	if !ovf {
		t.Fatal("add: expected signed overflow")
	}

	r, _ = ExecuteInt(isa.Sub, 10, 3)
	assertEq(t, r, 7, "sub")

	r, _ = ExecuteInt(isa.Sll, 1, 4)
	assertEq(t, r, 16, "sll")

	r, _ = ExecuteInt(isa.Sra, uint64(^uint64(0)), 1)
	assertEq(t, r, uint64(^uint64(0)), "sra keeps sign")

	r, _ = ExecuteInt(isa.Slt, ^uint64(0), 0)
	assertEq(t, r, 1, "slt signed")

	r, _ = ExecuteInt(isa.Sltu, ^uint64(0), 0)
	assertEq(t, r, 0, "sltu unsigned")
}

func TestExecuteIntDivisionSemantics(t *testing.T) {
	r, ovf := ExecuteInt(isa.Div, 10, 0)
	assertEq(t, r, ^uint64(0), "div by zero")
	if ovf {
		t.Fatal("div by zero is not an overflow case")
	}

	r, _ = ExecuteInt(isa.Rem, 10, 0)
	assertEq(t, r, 10, "rem by zero returns dividend")

	minInt := uint64(1) << 63
	r, ovf = ExecuteInt(isa.Div, minInt, ^uint64(0))
	assertEq(t, r, minInt, "INT_MIN/-1 wraps to INT_MIN")
	if !ovf {
		t.Fatal("INT_MIN/-1 expected overflow flag")
	}

	r, ovf = ExecuteInt(isa.Rem, minInt, ^uint64(0))
	assertEq(t, r, 0, "INT_MIN rem -1 is 0")
	if !ovf {
		t.Fatal("INT_MIN rem -1 expected overflow flag")
	}

	r, _ = ExecuteInt(isa.Divu, 10, 0)
	assertEq(t, r, ^uint64(0), "divu by zero")

	r, _ = ExecuteInt(isa.Remu, 10, 0)
	assertEq(t, r, 10, "remu by zero returns dividend")
}

func TestExecuteIntMultiplyHighHalves(t *testing.T) {
	a := ^uint64(1) // -2
	b := uint64(int64(3))
	lo, _ := ExecuteInt(isa.Mul, a, b)
	assertEq(t, lo, ^uint64(5), "mul low word") // -6

	hi, _ := ExecuteInt(isa.Mulh, a, b)
	assertEq(t, hi, ^uint64(0), "mulh sign-extends negative product's high word")

	hiu, _ := ExecuteInt(isa.Mulhu, 1<<32, 1<<32)
	assertEq(t, hiu, 1, "mulhu")
}

func TestExecuteIntWordOps(t *testing.T) {
	r, _ := ExecuteInt(isa.Addiw, 0x7fffffff, 1)
	assertEq(t, r, 0xFFFFFFFF80000000, "addiw sign-extends 32-bit result")

	r, _ = ExecuteInt(isa.Sraiw, uint64(uint32(0x80000000)), 4)
	assertEq(t, r, 0xFFFFFFFFF8000000, "sraiw arithmetic shift then sign-extend")
}
