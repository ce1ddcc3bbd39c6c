package lexer

import (
	"testing"

	"rv64sim/token"
)

func TestTokenizeSimpleInstructionLine(t *testing.T) {
	l := New("addi x1, x0, 5")
	lines := l.Lines()
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	toks := lines[0].Tokens
	if len(toks) != 6 {
		t.Fatalf("got %d tokens, want 6 (opcode register comma register comma number)", len(toks))
	}
	if toks[0].Kind != token.Opcode || toks[0].Lexeme != "addi" {
		t.Fatalf("got %+v, want opcode \"addi\"", toks[0])
	}
	if toks[1].Kind != token.GpRegister || toks[1].Lexeme != "x1" {
		t.Fatalf("got %+v, want GP register \"x1\"", toks[1])
	}
	if toks[2].Kind != token.Comma {
		t.Fatalf("got %+v, want comma", toks[2])
	}
	if toks[5].Kind != token.Number || toks[5].Lexeme != "5" {
		t.Fatalf("got %+v, want number \"5\"", toks[5])
	}
}

func TestTokenizeSkipsCommentsAndBlankLines(t *testing.T) {
	l := New("# a comment\n\naddi x1, x0, 1 ; trailing comment")
	lines := l.Lines()
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1 (comment and blank lines dropped)", len(lines))
	}
	if lines[0].Number != 3 {
		t.Fatalf("got line number %d, want 3", lines[0].Number)
	}
}

func TestTokenizeLabelDefinitionVsReference(t *testing.T) {
	l := New("loop:\n  jal x0, loop")
	lines := l.Lines()
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].Tokens[0].Kind != token.Label {
		t.Fatalf("got %+v, want a Label token for \"loop:\"", lines[0].Tokens[0])
	}
	last := lines[1].Tokens[len(lines[1].Tokens)-1]
	if last.Kind != token.LabelRef {
		t.Fatalf("got %+v, want a LabelRef token for the jal target", last)
	}
}

func TestTokenizeBaseOffsetOperand(t *testing.T) {
	l := New("lw x1, 8(x2)")
	toks := l.Lines()[0].Tokens
	var kinds []token.Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	want := []token.Kind{
		token.Opcode, token.GpRegister, token.Comma,
		token.Number, token.LParen, token.GpRegister, token.RParen,
	}
	if len(kinds) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(kinds), len(want))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestTokenizeStringLiteralWithEscape(t *testing.T) {
	l := New(`.string "hi\n"`)
	toks := l.Lines()[0].Tokens
	if len(toks) != 2 {
		t.Fatalf("got %d tokens, want 2 (directive, string)", len(toks))
	}
	if toks[1].Kind != token.String {
		t.Fatalf("got %+v, want a String token", toks[1])
	}
	if toks[1].Lexeme != "hi\n" {
		t.Fatalf("got lexeme %q, want escaped \"hi\\n\"", toks[1].Lexeme)
	}
}

func TestTokenizeInvalidTokenAbandonsLine(t *testing.T) {
	l := New("addi x1, x0, @")
	lines := l.Lines()
	if len(lines) != 0 {
		t.Fatalf("got %d lines, want 0 (line with a bad token is dropped)", len(lines))
	}
	if len(l.BadLines) != 1 || l.BadLines[0] != 1 {
		t.Fatalf("got BadLines %v, want [1]", l.BadLines)
	}
}

func TestParseIntegerAcceptsHexOctalBinaryAndDecimal(t *testing.T) {
	cases := map[string]int64{
		"10":    10,
		"-5":    -5,
		"0x1F":  31,
		"0b101": 5,
		"0o17":  15,
	}
	for lexeme, want := range cases {
		got, err := ParseInteger(lexeme)
		if err != nil {
			t.Fatalf("ParseInteger(%q): %v", lexeme, err)
		}
		if got != want {
			t.Fatalf("ParseInteger(%q): got %d, want %d", lexeme, got, want)
		}
	}
}
