package encoder

import (
	"testing"

	"rv64sim/asmparse"
	"rv64sim/isa"
)

func encodeOne(t *testing.T, u asmparse.ICUnit) uint32 {
	t.Helper()
	prog := &asmparse.Program{Units: []asmparse.ICUnit{u}}
	words, bag := Encode(prog)
	if bag.Failed() {
		t.Fatalf("encode failed: %s", bag.Render())
	}
	return words[0]
}

func TestEncodeDecodeRoundTripRType(t *testing.T) {
	word := encodeOne(t, asmparse.ICUnit{Opcode: isa.Add, Rd: "x1", Rs1: "x2", Rs2: "x3", Rm: 7})
	d, ok := Decode(word)
	if !ok {
		t.Fatalf("decode failed for word 0x%08x", word)
	}
	if d.Tag != isa.Add || d.Rd != 1 || d.Rs1 != 2 || d.Rs2 != 3 {
		t.Fatalf("got %+v, want add x1,x2,x3", d)
	}
}

func TestEncodeDecodeRoundTripIType(t *testing.T) {
	word := encodeOne(t, asmparse.ICUnit{Opcode: isa.Addi, Rd: "x5", Rs1: "x6", Imm: "100", Rm: 7})
	d, ok := Decode(word)
	if !ok {
		t.Fatalf("decode failed for word 0x%08x", word)
	}
	if d.Tag != isa.Addi || d.Rd != 5 || d.Rs1 != 6 || d.Imm != 100 {
		t.Fatalf("got %+v, want addi x5,x6,100", d)
	}
}

func TestEncodeDecodeRoundTripNegativeImmediate(t *testing.T) {
	word := encodeOne(t, asmparse.ICUnit{Opcode: isa.Addi, Rd: "x5", Rs1: "x0", Imm: "-1", Rm: 7})
	d, ok := Decode(word)
	if !ok {
		t.Fatalf("decode failed for word 0x%08x", word)
	}
	if d.Imm != -1 {
		t.Fatalf("addi x5,x0,-1: got imm %d, want -1", d.Imm)
	}
}

func TestEncodeDecodeRoundTripBType(t *testing.T) {
	word := encodeOne(t, asmparse.ICUnit{Opcode: isa.Beq, Rs1: "x1", Rs2: "x2", Imm: "16", Rm: 7})
	d, ok := Decode(word)
	if !ok {
		t.Fatalf("decode failed for word 0x%08x", word)
	}
	if d.Tag != isa.Beq || d.Rs1 != 1 || d.Rs2 != 2 || d.Imm != 16 {
		t.Fatalf("got %+v, want beq x1,x2,+16", d)
	}
}

func TestEncodeDecodeRoundTripStoreLoad(t *testing.T) {
	word := encodeOne(t, asmparse.ICUnit{Opcode: isa.Sw, Rs1: "x1", Rs2: "x2", Imm: "8", Rm: 7})
	d, ok := Decode(word)
	if !ok {
		t.Fatalf("decode failed for word 0x%08x", word)
	}
	if d.Tag != isa.Sw || d.Rs1 != 1 || d.Rs2 != 2 || d.Imm != 8 {
		t.Fatalf("got %+v, want sw x2,8(x1)", d)
	}

	word = encodeOne(t, asmparse.ICUnit{Opcode: isa.Lw, Rd: "x3", Rs1: "x1", Imm: "8", Rm: 7})
	d, ok = Decode(word)
	if !ok {
		t.Fatalf("decode failed for word 0x%08x", word)
	}
	if d.Tag != isa.Lw || d.Rd != 3 || d.Rs1 != 1 || d.Imm != 8 {
		t.Fatalf("got %+v, want lw x3,8(x1)", d)
	}
}

func TestEncodeFsdStoresValueFromRd(t *testing.T) {
	// fsd's value operand is parsed into Rd (see asmparse.tryShape); the
	// encoder must place it into the instruction's rs2 field.
	word := encodeOne(t, asmparse.ICUnit{Opcode: isa.Fsd, Rd: "f5", Rs1: "x1", Imm: "0", Rm: 7})
	d, ok := Decode(word)
	if !ok {
		t.Fatalf("decode failed for word 0x%08x", word)
	}
	if d.Tag != isa.Fsd || d.Rs1 != 1 || d.Rs2 != 5 {
		t.Fatalf("got %+v, want fsd f5,0(x1) encoded with rs2=5", d)
	}
}

func TestDisassembleRoundTrip(t *testing.T) {
	word := encodeOne(t, asmparse.ICUnit{Opcode: isa.Add, Rd: "x1", Rs1: "x2", Rs2: "x3", Rm: 7})
	text, ok := Disassemble(word)
	if !ok {
		t.Fatalf("disassemble failed for word 0x%08x", word)
	}
	if text == "" {
		t.Fatal("disassemble returned empty text")
	}
	prog, diags := asmparse.Parse("t.s", text, asmparse.DefaultOptions())
	if diags.Failed() {
		t.Fatalf("re-assembling %q failed: %s", text, diags.Render())
	}
	if again := encodeOne(t, prog.Units[0]); again != word {
		t.Fatalf("re-assembling %q gave 0x%08x, want 0x%08x", text, again, word)
	}
}

func TestDecodeRejectsIllegalWord(t *testing.T) {
	if _, ok := Decode(0xFFFFFFFF); ok {
		t.Fatal("expected decode of an all-ones word to fail")
	}
}
