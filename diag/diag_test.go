package diag

import "testing"

func TestBagFailedReflectsCount(t *testing.T) {
	var b Bag
	if b.Failed() {
		t.Fatal("an empty bag must not report failure")
	}
	b.Add(Diagnostic{Kind: Syntax, MainMessage: "bad"})
	if !b.Failed() {
		t.Fatal("a bag with one diagnostic must report failure")
	}
	if b.Count() != 1 {
		t.Fatalf("got count %d, want 1", b.Count())
	}
}

func TestDiagnosticRenderIncludesCaretUnderColumn(t *testing.T) {
	d := Diagnostic{
		Kind:        UnexpectedToken,
		Filename:    "t.s",
		Line:        3,
		Column:      5,
		SourceLine:  "addi x1, x0, ?",
		MainMessage: "unexpected token",
	}
	out := d.Render()
	if out == "" {
		t.Fatal("expected non-empty rendered output")
	}
	want := "t.s:3:5: UnexpectedToken: unexpected token"
	if len(out) < len(want) || out[:len(want)] != want {
		t.Fatalf("got %q, want it to start with %q", out, want)
	}
}
