package asmparse

import (
	"fmt"
	"strings"

	"rv64sim/diag"
	"rv64sim/lexer"
	"rv64sim/regfile"
	"rv64sim/token"
)

// Options configures section base addresses, mirroring the subset of
// config.Config the parser needs (spec.md section 6 "Configuration
// recognized"). Kept decoupled from package config so asmparse has no
// dependency on the ambient configuration layer.
type Options struct {
	DataSectionStart uint64
	TextSectionStart uint64
	BssSectionStart  uint64
}

// DefaultOptions returns the defaults spec.md section 6 specifies.
func DefaultOptions() Options {
	return Options{
		DataSectionStart: 0x10000000,
		TextSectionStart: 0,
		BssSectionStart:  0x11000000,
	}
}

type section int

const (
	secText section = iota
	secData
	secBss
)

type parser struct {
	filename string
	rawLines []string
	bag      *diag.Bag
	opts     Options

	section     section
	textIndex   int // number of ICUnits emitted so far
	dataCursor  uint64
	symbols     map[string]Symbol
	units       []ICUnit
	data        []Literal
	backpatch   []int
}

// Parse tokenizes and parses src (from filename, for diagnostics) into a
// Program. It never stops at the first error: the lexer and parser are
// recoverable per spec.md section 7, so one run reports every diagnostic.
func Parse(filename, src string, opts Options) (*Program, *diag.Bag) {
	bag := &diag.Bag{}
	lx := lexer.New(src)
	lines := lx.Lines()
	rawLines := strings.Split(src, "\n")

	for _, bl := range lx.BadLines {
		bag.Add(diag.Diagnostic{
			Kind:        diag.Syntax,
			Filename:    filename,
			Line:        bl,
			Column:      1,
			SourceLine:  sourceLineOf(rawLines, bl),
			MainMessage: "could not tokenize line",
		})
	}

	p := &parser{
		filename: filename,
		rawLines: rawLines,
		bag:      bag,
		opts:     opts,
		section:  secText,
		symbols:  make(map[string]Symbol),
	}
	p.dataCursor = opts.DataSectionStart

	for _, ln := range lines {
		p.parseLine(ln)
	}

	p.resolveBackpatches()

	prog := &Program{
		Units:      p.units,
		Symbols:    p.symbols,
		Data:       p.data,
		DataBase:   opts.DataSectionStart,
		TextBase:   opts.TextSectionStart,
		BackPatch:  p.backpatch,
		SourceFile: filename,
	}
	return prog, bag
}

func sourceLineOf(lines []string, n int) string {
	if n-1 >= 0 && n-1 < len(lines) {
		return lines[n-1]
	}
	return ""
}

func (p *parser) srcLine(lineNo int) string {
	return sourceLineOf(p.rawLines, lineNo)
}

func (p *parser) diagAt(kind diag.Kind, line, col int, main, sub string) {
	p.bag.Add(diag.Diagnostic{
		Kind:        kind,
		Filename:    p.filename,
		Line:        line,
		Column:      col,
		SourceLine:  p.srcLine(line),
		MainMessage: main,
		SubMessage:  sub,
	})
}

func (p *parser) textAddress() uint64 {
	return p.opts.TextSectionStart + uint64(p.textIndex)*4
}

func (p *parser) defineSymbol(name string, line int, isData bool) {
	if _, exists := p.symbols[name]; exists {
		p.diagAt(diag.LabelRedefinition, line, 1,
			fmt.Sprintf("label %q redefined", name),
			fmt.Sprintf("previously defined on line %d", p.symbols[name].DefiningLine))
		return
	}
	addr := p.textAddress()
	if isData {
		addr = p.dataCursor
	}
	p.symbols[name] = Symbol{Address: addr, DefiningLine: line, IsData: isData}
}

func (p *parser) emit(unit ICUnit) {
	// Canonicalize ABI/alias register spellings to xN/fN once, here, so
	// every later pass (range checks, back-patching, encoding) only ever
	// sees the canonical form. Non-register fields (Imm, a CSR literal
	// smuggled through Rs2 for csrrwi-family units) pass through
	// unchanged since they never match a register alias.
	unit.Rd = canonicalizeReg(unit.Rd)
	unit.Rs1 = canonicalizeReg(unit.Rs1)
	unit.Rs2 = canonicalizeReg(unit.Rs2)
	unit.Rs3 = canonicalizeReg(unit.Rs3)

	if unit.Label != "" {
		p.backpatch = append(p.backpatch, len(p.units))
	}
	p.units = append(p.units, unit)
	p.textIndex++
}

func canonicalizeReg(name string) string {
	if name == "" {
		return name
	}
	if c, ok := canonicalGPR(name); ok {
		return c
	}
	if c, ok := canonicalFPR(name); ok {
		return c
	}
	return name
}

func (p *parser) parseLine(ln lexer.Line) {
	toks := ln.Tokens
	if len(toks) == 0 {
		return
	}
	i := 0

	// Leading label definition.
	if toks[i].Kind == token.Label {
		p.defineSymbol(toks[i].Lexeme, toks[i].Line, p.section == secData || p.section == secBss)
		i++
		if i >= len(toks) {
			return
		}
	}

	switch toks[i].Kind {
	case token.Directive:
		p.parseDirective(toks[i:])
	case token.Opcode:
		if p.section == secText {
			p.parseInstruction(toks[i:])
		} else {
			p.diagAt(diag.UnexpectedToken, toks[i].Line, toks[i].Column,
				"opcode not permitted outside .text section", "")
		}
	default:
		p.diagAt(diag.UnexpectedToken, toks[i].Line, toks[i].Column,
			fmt.Sprintf("unexpected token %q at top level", toks[i].Lexeme), "")
	}
}

func (p *parser) parseDirective(toks []token.Token) {
	name := toks[0].Lexeme
	switch name {
	case ".text":
		p.section = secText
	case ".data":
		p.section = secData
	case ".bss":
		p.section = secBss
	case ".dword", ".word", ".halfword", ".byte", ".string":
		if p.section != secData {
			p.diagAt(diag.UnexpectedToken, toks[0].Line, toks[0].Column,
				"data directive used outside .data section", "")
			return
		}
		p.parseDataDirective(name, toks[1:])
	default:
		p.diagAt(diag.UnexpectedToken, toks[0].Line, toks[0].Column,
			fmt.Sprintf("unknown directive %q", name), "")
	}
}

func (p *parser) parseDataDirective(name string, toks []token.Token) {
	if len(toks) == 0 {
		p.diagAt(diag.Syntax, 0, 0, fmt.Sprintf("%s requires at least one literal", name), "")
		return
	}
	items := splitOnCommas(toks)
	for _, item := range items {
		if len(item) == 0 {
			continue
		}
		p.parseDataLiteral(name, item)
	}
}

func splitOnCommas(toks []token.Token) [][]token.Token {
	var out [][]token.Token
	var cur []token.Token
	for _, t := range toks {
		if t.Kind == token.Comma {
			out = append(out, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	out = append(out, cur)
	return out
}

func (p *parser) parseDataLiteral(directive string, item []token.Token) {
	if len(item) == 0 {
		return
	}
	t := item[0]
	switch directive {
	case ".string":
		if t.Kind != token.String {
			p.diagAt(diag.UnexpectedOperand, t.Line, t.Column, ".string expects a string literal", "")
			return
		}
		bytes := append([]byte(t.Lexeme), 0)
		p.data = append(p.data, Literal{Kind: LitString, Bytes: bytes})
		p.dataCursor += uint64(len(bytes))
	case ".byte", ".halfword", ".word", ".dword":
		if t.Kind != token.Number {
			p.diagAt(diag.UnexpectedOperand, t.Line, t.Column, directive+" expects a numeric literal", "")
			return
		}
		v, err := lexer.ParseInteger(t.Lexeme)
		if err != nil {
			p.diagAt(diag.UnexpectedOperand, t.Line, t.Column, "malformed numeric literal: "+err.Error(), "")
			return
		}
		switch directive {
		case ".byte":
			p.data = append(p.data, Literal{Kind: LitU8, U8: uint8(v)})
			p.dataCursor += 1
		case ".halfword":
			p.data = append(p.data, Literal{Kind: LitU16, U16: uint16(v)})
			p.dataCursor += 2
		case ".word":
			p.data = append(p.data, Literal{Kind: LitU32, U32: uint32(v)})
			p.dataCursor += 4
		case ".dword":
			p.data = append(p.data, Literal{Kind: LitU64, U64: uint64(v)})
			p.dataCursor += 8
		}
	}
}

// canonicalGPR/FPR normalize an ABI or numeric register name to its
// canonical xN/fN spelling, the way spec.md 4.B describes alias
// resolution happening once, early.
func canonicalGPR(name string) (string, bool) {
	i, ok := regfile.ResolveGPR(name)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("x%d", i), true
}

func canonicalFPR(name string) (string, bool) {
	i, ok := regfile.ResolveFPR(name)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("f%d", i), true
}
