package regfile

import "testing"

func TestGPRZeroRegisterIsHardwired(t *testing.T) {
	f := New()
	f.WriteGPR(0, 0xdeadbeef)
	if f.ReadGPR(0) != 0 {
		t.Fatalf("x0: got %d, want 0 after write", f.ReadGPR(0))
	}
}

func TestGPRReadWriteRoundTrip(t *testing.T) {
	f := New()
	f.WriteGPR(5, 42)
	if got := f.ReadGPR(5); got != 42 {
		t.Fatalf("x5: got %d, want 42", got)
	}
}

func TestResetClearsStateAndRestoresDefaultRoundingMode(t *testing.T) {
	f := New()
	f.WriteGPR(1, 1)
	f.WriteCSR(CsrFrm, 3)
	f.Reset()
	if f.ReadGPR(1) != 0 {
		t.Fatalf("x1 after reset: got %d, want 0", f.ReadGPR(1))
	}
	if f.ReadCSR(CsrFrm) != 0 {
		t.Fatalf("frm after reset: got %d, want 0 (round-to-nearest-even)", f.ReadCSR(CsrFrm))
	}
}

func TestResolveGPRAcceptsNumericAndABINames(t *testing.T) {
	i, ok := ResolveGPR("x10")
	if !ok || i != 10 {
		t.Fatalf("x10: got (%d, %v), want (10, true)", i, ok)
	}
	i, ok = ResolveGPR("a0")
	if !ok || i != 10 {
		t.Fatalf("a0: got (%d, %v), want (10, true)", i, ok)
	}
	i, ok = ResolveGPR("sp")
	if !ok || i != 2 {
		t.Fatalf("sp: got (%d, %v), want (2, true)", i, ok)
	}
	if _, ok := ResolveGPR("nope"); ok {
		t.Fatal("expected unknown register name to fail resolution")
	}
}

func TestNanBoxingRoundTrip(t *testing.T) {
	boxed := NanBox32(0x3f800000) // 1.0f
	if !IsNanBoxed(boxed) {
		t.Fatal("expected a freshly NaN-boxed value to read back as boxed")
	}
	if uint32(boxed) != 0x3f800000 {
		t.Fatalf("got low 32 bits 0x%x, want 0x3f800000", uint32(boxed))
	}
	if IsNanBoxed(0x0000000000000000) {
		t.Fatal("a zero 64-bit pattern must not read as NaN-boxed")
	}
}

func TestModifyByNameAcrossAllThreeFiles(t *testing.T) {
	f := New()
	if err := f.ModifyByName("a0", 5); err != nil {
		t.Fatalf("modify a0: %v", err)
	}
	if f.ReadGPR(10) != 5 {
		t.Fatalf("a0/x10: got %d, want 5", f.ReadGPR(10))
	}

	if err := f.ModifyByName("fa0", 0x3ff0000000000000); err != nil {
		t.Fatalf("modify fa0: %v", err)
	}
	if f.ReadFPR(10) != 0x3ff0000000000000 {
		t.Fatalf("fa0/f10: got 0x%x", f.ReadFPR(10))
	}

	if err := f.ModifyByName("fflags", 7); err != nil {
		t.Fatalf("modify fflags: %v", err)
	}
	if f.ReadCSR(CsrFflags) != 7 {
		t.Fatalf("fflags: got %d, want 7", f.ReadCSR(CsrFflags))
	}

	if err := f.ModifyByName("bogus", 1); err == nil {
		t.Fatal("expected an error for an unknown register name")
	}
}
