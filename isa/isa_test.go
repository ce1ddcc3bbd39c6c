package isa

import "testing"

func TestLookupResolvesKnownMnemonics(t *testing.T) {
	tag, ok := Lookup("addi")
	if !ok || tag != Addi {
		t.Fatalf("got (%v, %v), want (Addi, true)", tag, ok)
	}
	if _, ok := Lookup("nosuch"); ok {
		t.Fatal("expected an unknown mnemonic to fail lookup")
	}
}

func TestExtensionOfClassifiesEachExtension(t *testing.T) {
	if ExtensionOf(Add) != ExtI {
		t.Fatalf("add: got %v, want ExtI", ExtensionOf(Add))
	}
	if ExtensionOf(Mul) != ExtM {
		t.Fatalf("mul: got %v, want ExtM", ExtensionOf(Mul))
	}
	if ExtensionOf(FaddS) != ExtF {
		t.Fatalf("fadd.s: got %v, want ExtF", ExtensionOf(FaddS))
	}
	if ExtensionOf(FaddD) != ExtD {
		t.Fatalf("fadd.d: got %v, want ExtD", ExtensionOf(FaddD))
	}
	if ExtensionOf(Csrrw) != ExtZicsr {
		t.Fatalf("csrrw: got %v, want ExtZicsr", ExtensionOf(Csrrw))
	}
}

func TestIsDoubleDistinguishesSingleFromDoublePrecision(t *testing.T) {
	if IsDouble(FaddS) {
		t.Fatal("fadd.s must not be classified as double precision")
	}
	if !IsDouble(FaddD) {
		t.Fatal("fadd.d must be classified as double precision")
	}
}

func TestFormatOfKnownEncodableTags(t *testing.T) {
	if FormatOf(Add) != FormatR {
		t.Fatalf("add: got %v, want FormatR", FormatOf(Add))
	}
	if FormatOf(Addi) != FormatI {
		t.Fatalf("addi: got %v, want FormatI", FormatOf(Addi))
	}
}

func TestFieldsOfReturnsEncodingBitsForRealOpcodes(t *testing.T) {
	f, ok := FieldsOf(Add)
	if !ok {
		t.Fatal("expected Add to have concrete encoding fields")
	}
	_ = f
}
