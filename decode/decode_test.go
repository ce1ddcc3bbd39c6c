package decode

import (
	"testing"

	"rv64sim/asmparse"
	"rv64sim/encoder"
	"rv64sim/isa"
)

func encodeOne(t *testing.T, u asmparse.ICUnit) uint32 {
	t.Helper()
	prog := &asmparse.Program{Units: []asmparse.ICUnit{u}}
	words, bag := encoder.Encode(prog)
	if bag.Failed() {
		t.Fatalf("encode failed: %s", bag.Render())
	}
	return words[0]
}

func TestDecodeRTypeAssertsRegWriteOnly(t *testing.T) {
	word := encodeOne(t, asmparse.ICUnit{Opcode: isa.Add, Rd: "x1", Rs1: "x2", Rs2: "x3", Rm: 7})
	s, ok := Decode(word)
	if !ok {
		t.Fatalf("decode failed for word 0x%08x", word)
	}
	if !s.RegWrite || s.AluSrc || s.MemRead || s.MemWrite || s.Branch || s.Jump {
		t.Fatalf("add: got %+v, want only RegWrite set", s)
	}
}

func TestDecodeITypeAssertsAluSrc(t *testing.T) {
	word := encodeOne(t, asmparse.ICUnit{Opcode: isa.Addi, Rd: "x1", Rs1: "x2", Imm: "5", Rm: 7})
	s, ok := Decode(word)
	if !ok {
		t.Fatalf("decode failed for word 0x%08x", word)
	}
	if !s.RegWrite || !s.AluSrc {
		t.Fatalf("addi: got %+v, want RegWrite and AluSrc set", s)
	}
}

func TestDecodeLoadStoreSignals(t *testing.T) {
	word := encodeOne(t, asmparse.ICUnit{Opcode: isa.Lw, Rd: "x1", Rs1: "x2", Imm: "0", Rm: 7})
	s, ok := Decode(word)
	if !ok {
		t.Fatalf("decode failed for word 0x%08x", word)
	}
	if !s.MemRead || !s.RegWrite || !s.AluSrc || s.MemWrite {
		t.Fatalf("lw: got %+v, want MemRead+RegWrite+AluSrc", s)
	}

	word = encodeOne(t, asmparse.ICUnit{Opcode: isa.Sw, Rs1: "x2", Rs2: "x3", Imm: "0", Rm: 7})
	s, ok = Decode(word)
	if !ok {
		t.Fatalf("decode failed for word 0x%08x", word)
	}
	if !s.MemWrite || !s.AluSrc || s.RegWrite || s.MemRead {
		t.Fatalf("sw: got %+v, want only MemWrite+AluSrc", s)
	}
}

func TestDecodeBranchAssertsBranchNotJump(t *testing.T) {
	word := encodeOne(t, asmparse.ICUnit{Opcode: isa.Beq, Rs1: "x1", Rs2: "x2", Imm: "8", Rm: 7})
	s, ok := Decode(word)
	if !ok {
		t.Fatalf("decode failed for word 0x%08x", word)
	}
	if !s.Branch || s.Jump || s.RegWrite {
		t.Fatalf("beq: got %+v, want only Branch set", s)
	}
}

func TestDecodeJalrAssertsJumpAndAluSrc(t *testing.T) {
	word := encodeOne(t, asmparse.ICUnit{Opcode: isa.Jalr, Rd: "x1", Rs1: "x2", Imm: "0", Rm: 7})
	s, ok := Decode(word)
	if !ok {
		t.Fatalf("decode failed for word 0x%08x", word)
	}
	if !s.Jump || !s.RegWrite || !s.AluSrc {
		t.Fatalf("jalr: got %+v, want Jump+RegWrite+AluSrc", s)
	}
}

func TestDecodeCSRAssertsIsCSR(t *testing.T) {
	word := encodeOne(t, asmparse.ICUnit{Opcode: isa.Csrrw, Rd: "x1", Rs1: "x2", Imm: "1", Rm: 7})
	s, ok := Decode(word)
	if !ok {
		t.Fatalf("decode failed for word 0x%08x", word)
	}
	if !s.IsCSR || !s.RegWrite {
		t.Fatalf("csrrw: got %+v, want IsCSR+RegWrite", s)
	}
}

func TestDecodeFloatOpAssertsIsFloat(t *testing.T) {
	word := encodeOne(t, asmparse.ICUnit{Opcode: isa.FaddS, Rd: "f1", Rs1: "f2", Rs2: "f3", Rm: 7})
	s, ok := Decode(word)
	if !ok {
		t.Fatalf("decode failed for word 0x%08x", word)
	}
	if !s.IsFloat || s.IsDouble {
		t.Fatalf("fadd.s: got %+v, want IsFloat set and IsDouble clear", s)
	}

	word = encodeOne(t, asmparse.ICUnit{Opcode: isa.FaddD, Rd: "f1", Rs1: "f2", Rs2: "f3", Rm: 7})
	s, ok = Decode(word)
	if !ok {
		t.Fatalf("decode failed for word 0x%08x", word)
	}
	if !s.IsFloat || !s.IsDouble {
		t.Fatalf("fadd.d: got %+v, want IsFloat and IsDouble set", s)
	}
}

func TestDecodeRejectsIllegalWord(t *testing.T) {
	if _, ok := Decode(0xFFFFFFFF); ok {
		t.Fatal("expected decode of an all-ones word to fail")
	}
}
