package asmparse

import (
	"fmt"
	"strconv"

	"rv64sim/diag"
	"rv64sim/isa"
	"rv64sim/lexer"
	"rv64sim/regfile"
	"rv64sim/token"
)

// rmCode maps a rounding-mode mnemonic to its 3-bit field encoding
// (spec.md GLOSSARY "rm field"); dyn (7) defers to the frm CSR.
var rmCode = map[string]uint8{
	"rne": 0, "rtz": 1, "rdn": 2, "rup": 3, "rmm": 4, "dyn": 7,
}

// parseInstruction matches the operand tokens following an opcode against
// the mnemonic's permitted shapes (isa.ShapesOf) and emits one ICUnit, or a
// pseudo-instruction's expansion into one or more ICUnits (spec.md 4.F).
func (p *parser) parseInstruction(toks []token.Token) {
	opTok := toks[0]
	tag, ok := isa.Lookup(opTok.Lexeme)
	if !ok {
		p.diagAt(diag.UnexpectedToken, opTok.Line, opTok.Column,
			fmt.Sprintf("unknown mnemonic %q", opTok.Lexeme), "")
		return
	}
	operands := toks[1:]

	if tag.IsPseudo() {
		p.expandPseudo(tag, opTok, operands)
		return
	}

	unit, ok := p.matchShape(tag, opTok, operands)
	if !ok {
		return
	}
	p.checkRanges(unit)
	p.emit(unit)
}

// matchShape tries each permitted shape for tag in turn and returns the
// first one whose operand tokens fit.
func (p *parser) matchShape(tag isa.Tag, opTok token.Token, operands []token.Token) (ICUnit, bool) {
	for _, shape := range isa.ShapesOf(tag) {
		if unit, ok := p.tryShape(tag, shape, opTok, operands); ok {
			return unit, true
		}
	}
	p.diagAt(diag.UnexpectedOperand, opTok.Line, opTok.Column,
		fmt.Sprintf("operands do not match any accepted form of %q", opTok.Lexeme), "")
	return ICUnit{}, false
}

func (p *parser) tryShape(tag isa.Tag, shape isa.Shape, opTok token.Token, ops []token.Token) (ICUnit, bool) {
	u := ICUnit{Opcode: tag, SourceLine: opTok.Line, Rm: 7}

	switch shape {
	case isa.ShapeNone:
		return u, len(ops) == 0

	case isa.ShapeThreeGPR:
		rd, rs1, rs2, ok := threeRegs(ops, token.GpRegister)
		if !ok {
			return u, false
		}
		u.Rd, u.Rs1, u.Rs2 = rd, rs1, rs2
		return u, true

	case isa.ShapeTwoGPRImm:
		rd, rs1, ok := twoRegsThenImm(ops, token.GpRegister)
		if !ok {
			return u, false
		}
		u.Rd, u.Rs1 = rd, rs1
		u.Imm = ops[4].Lexeme
		return u, true

	case isa.ShapeGPRImm:
		if len(ops) != 3 || ops[0].Kind != token.GpRegister || ops[1].Kind != token.Comma ||
			ops[2].Kind != token.Number {
			return u, false
		}
		u.Rd = ops[0].Lexeme
		u.Imm = ops[2].Lexeme
		return u, true

	case isa.ShapeGPRLabel:
		if len(ops) != 3 || ops[0].Kind != token.GpRegister || ops[1].Kind != token.Comma ||
			ops[2].Kind != token.LabelRef {
			return u, false
		}
		u.Rd = ops[0].Lexeme
		u.Label = ops[2].Lexeme
		return u, true

	case isa.ShapeGPRLabelOrImm:
		if len(ops) != 3 || ops[0].Kind != token.GpRegister || ops[1].Kind != token.Comma {
			return u, false
		}
		u.Rd = ops[0].Lexeme
		switch ops[2].Kind {
		case token.LabelRef:
			u.Label = ops[2].Lexeme
		case token.Number:
			u.Imm = ops[2].Lexeme
		default:
			return u, false
		}
		return u, true

	case isa.ShapeGPRBaseOffset:
		rd, imm, rs1, ok := baseOffset(ops, token.GpRegister)
		if !ok {
			return u, false
		}
		u.Rd, u.Imm, u.Rs1 = rd, imm, rs1
		return u, true

	case isa.ShapeFPRBaseOffset:
		fd, imm, rs1, ok := baseOffset(ops, token.FpRegister)
		if !ok {
			return u, false
		}
		u.Rd, u.Imm, u.Rs1 = fd, imm, rs1
		return u, true

	case isa.ShapeGPRGPRBaseOffset:
		if len(ops) < 2 || ops[0].Kind != token.GpRegister || ops[1].Kind != token.Comma {
			return u, false
		}
		imm, rs1, ok := offsetOnly(ops[2:])
		if !ok {
			return u, false
		}
		u.Rs2, u.Imm, u.Rs1 = ops[0].Lexeme, imm, rs1
		return u, true

	case isa.ShapeTwoGPRLabel:
		if len(ops) != 5 || ops[0].Kind != token.GpRegister || ops[1].Kind != token.Comma ||
			ops[2].Kind != token.GpRegister || ops[3].Kind != token.Comma || ops[4].Kind != token.LabelRef {
			return u, false
		}
		u.Rs1, u.Rs2, u.Label = ops[0].Lexeme, ops[2].Lexeme, ops[4].Lexeme
		return u, true

	case isa.ShapeOneGPR:
		if len(ops) != 1 || ops[0].Kind != token.GpRegister {
			return u, false
		}
		u.Rs1 = ops[0].Lexeme
		return u, true

	case isa.ShapeGPRGPR:
		if len(ops) != 3 || ops[0].Kind != token.GpRegister || ops[1].Kind != token.Comma ||
			ops[2].Kind != token.GpRegister {
			return u, false
		}
		u.Rd, u.Rs1 = ops[0].Lexeme, ops[2].Lexeme
		return u, true

	case isa.ShapeThreeFPR:
		rd, rs1, rs2, rest, ok := threeRegsRm(ops, token.FpRegister)
		if !ok {
			return u, false
		}
		u.Rd, u.Rs1, u.Rs2 = rd, rs1, rs2
		p.consumeRm(&u, rest)
		return u, true

	case isa.ShapeFourFPR:
		if len(ops) < 7 || ops[0].Kind != token.FpRegister || ops[1].Kind != token.Comma ||
			ops[2].Kind != token.FpRegister || ops[3].Kind != token.Comma ||
			ops[4].Kind != token.FpRegister || ops[5].Kind != token.Comma || ops[6].Kind != token.FpRegister {
			return u, false
		}
		u.Rd, u.Rs1, u.Rs2, u.Rs3 = ops[0].Lexeme, ops[2].Lexeme, ops[4].Lexeme, ops[6].Lexeme
		p.consumeRm(&u, ops[7:])
		return u, true

	case isa.ShapeTwoFPR:
		if len(ops) < 3 || ops[0].Kind != token.FpRegister || ops[1].Kind != token.Comma ||
			ops[2].Kind != token.FpRegister {
			return u, false
		}
		u.Rd, u.Rs1 = ops[0].Lexeme, ops[2].Lexeme
		p.consumeRm(&u, ops[3:])
		return u, true

	case isa.ShapeGPRFPR:
		if len(ops) < 3 || ops[0].Kind != token.GpRegister || ops[1].Kind != token.Comma ||
			ops[2].Kind != token.FpRegister {
			return u, false
		}
		u.Rd, u.Rs1 = ops[0].Lexeme, ops[2].Lexeme
		p.consumeRm(&u, ops[3:])
		return u, true

	case isa.ShapeGPRFPRFPR:
		rd, fs1, fs2, rest, ok := threeRegsMixed(ops)
		if !ok {
			return u, false
		}
		u.Rd, u.Rs1, u.Rs2 = rd, fs1, fs2
		p.consumeRm(&u, rest)
		return u, true

	case isa.ShapeFPRGPR:
		if len(ops) < 3 || ops[0].Kind != token.FpRegister || ops[1].Kind != token.Comma ||
			ops[2].Kind != token.GpRegister {
			return u, false
		}
		u.Rd, u.Rs1 = ops[0].Lexeme, ops[2].Lexeme
		p.consumeRm(&u, ops[3:])
		return u, true

	case isa.ShapeCSRReg:
		if len(ops) != 5 || ops[0].Kind != token.GpRegister || ops[1].Kind != token.Comma ||
			ops[3].Kind != token.Comma || ops[4].Kind != token.GpRegister {
			return u, false
		}
		u.Rd, u.Imm, u.Rs1 = ops[0].Lexeme, csrOperand(ops[2].Lexeme), ops[4].Lexeme
		return u, true

	case isa.ShapeCSRImm:
		if len(ops) != 5 || ops[0].Kind != token.GpRegister || ops[1].Kind != token.Comma ||
			ops[3].Kind != token.Comma || ops[4].Kind != token.Number {
			return u, false
		}
		u.Rd = ops[0].Lexeme
		// Imm carries the CSR address; Rs2 carries the 5-bit immediate,
		// mirroring how csrrwi's rs1 field is repurposed as a literal.
		u.Imm = csrOperand(ops[2].Lexeme)
		u.Rs2 = ops[4].Lexeme
		return u, true
	}
	return u, false
}

// csrOperand returns a CSR operand as it is stored in Imm: a CSR name the
// register file recognizes (fflags, frm, fcsr) becomes its decimal address;
// any other lexeme is kept as written.
func csrOperand(lexeme string) string {
	if addr, ok := regfile.ResolveCSR(lexeme); ok {
		return strconv.Itoa(addr)
	}
	return lexeme
}

func (p *parser) consumeRm(u *ICUnit, rest []token.Token) {
	if len(rest) == 2 && rest[0].Kind == token.Comma && rest[1].Kind == token.RoundingMode {
		u.Rm = rmCode[rest[1].Lexeme]
	}
}

func threeRegs(ops []token.Token, kind token.Kind) (a, b, c string, ok bool) {
	if len(ops) != 5 || ops[0].Kind != kind || ops[1].Kind != token.Comma ||
		ops[2].Kind != kind || ops[3].Kind != token.Comma || ops[4].Kind != kind {
		return "", "", "", false
	}
	return ops[0].Lexeme, ops[2].Lexeme, ops[4].Lexeme, true
}

// threeRegsRm is threeRegs but tolerant of a trailing ", rm" rounding-mode
// suffix, returning the unconsumed tail for the caller to inspect.
func threeRegsRm(ops []token.Token, kind token.Kind) (a, b, c string, rest []token.Token, ok bool) {
	if len(ops) < 5 || ops[0].Kind != kind || ops[1].Kind != token.Comma ||
		ops[2].Kind != kind || ops[3].Kind != token.Comma || ops[4].Kind != kind {
		return "", "", "", nil, false
	}
	return ops[0].Lexeme, ops[2].Lexeme, ops[4].Lexeme, ops[5:], true
}

// threeRegsMixed matches "gpr, fpr, fpr[, rm]" for feq/flt/fle.
func threeRegsMixed(ops []token.Token) (rd, fs1, fs2 string, rest []token.Token, ok bool) {
	if len(ops) < 5 || ops[0].Kind != token.GpRegister || ops[1].Kind != token.Comma ||
		ops[2].Kind != token.FpRegister || ops[3].Kind != token.Comma || ops[4].Kind != token.FpRegister {
		return "", "", "", nil, false
	}
	return ops[0].Lexeme, ops[2].Lexeme, ops[4].Lexeme, ops[5:], true
}

func twoRegsThenImm(ops []token.Token, kind token.Kind) (a, b string, ok bool) {
	if len(ops) != 5 || ops[0].Kind != kind || ops[1].Kind != token.Comma ||
		ops[2].Kind != kind || ops[3].Kind != token.Comma || ops[4].Kind != token.Number {
		return "", "", false
	}
	return ops[0].Lexeme, ops[2].Lexeme, true
}

// offsetOnly matches "imm(base)" on its own, the tail shared by every
// base-offset addressing form.
func offsetOnly(ops []token.Token) (imm, base string, ok bool) {
	if len(ops) != 4 || ops[0].Kind != token.Number || ops[1].Kind != token.LParen ||
		ops[2].Kind != token.GpRegister || ops[3].Kind != token.RParen {
		return "", "", false
	}
	return ops[0].Lexeme, ops[2].Lexeme, true
}

// baseOffset matches "reg, imm(base)".
func baseOffset(ops []token.Token, kind token.Kind) (reg, imm, base string, ok bool) {
	if len(ops) < 2 || ops[0].Kind != kind || ops[1].Kind != token.Comma {
		return "", "", "", false
	}
	imm, base, ok = offsetOnly(ops[2:])
	if !ok {
		return "", "", "", false
	}
	return ops[0].Lexeme, imm, base, true
}

// expandPseudo lowers a pseudo-instruction into one or more real ICUnits,
// per spec.md 4.F's expansion table. la is intentionally rejected: spec.md's
// Open Question on address-of-label resolves toward leaving the assembler
// free of a designated "upper" register convention rather than guessing one.
func (p *parser) expandPseudo(tag isa.Tag, opTok token.Token, ops []token.Token) {
	line := opTok.Line
	switch tag {
	case isa.Nop:
		if len(ops) != 0 {
			p.diagAt(diag.UnexpectedOperand, opTok.Line, opTok.Column, "nop takes no operands", "")
			return
		}
		p.emit(ICUnit{Opcode: isa.Addi, Rd: "x0", Rs1: "x0", Imm: "0", SourceLine: line, Rm: 7})

	case isa.Ret:
		if len(ops) != 0 {
			p.diagAt(diag.UnexpectedOperand, opTok.Line, opTok.Column, "ret takes no operands", "")
			return
		}
		p.emit(ICUnit{Opcode: isa.Jalr, Rd: "x0", Rs1: "x1", Imm: "0", SourceLine: line, Rm: 7})

	case isa.Mv:
		if len(ops) != 3 || ops[0].Kind != token.GpRegister || ops[1].Kind != token.Comma || ops[2].Kind != token.GpRegister {
			p.diagAt(diag.UnexpectedOperand, opTok.Line, opTok.Column, "mv expects rd, rs", "")
			return
		}
		p.emit(ICUnit{Opcode: isa.Addi, Rd: ops[0].Lexeme, Rs1: ops[2].Lexeme, Imm: "0", SourceLine: line, Rm: 7})

	case isa.Not:
		if len(ops) != 3 || ops[0].Kind != token.GpRegister || ops[1].Kind != token.Comma || ops[2].Kind != token.GpRegister {
			p.diagAt(diag.UnexpectedOperand, opTok.Line, opTok.Column, "not expects rd, rs", "")
			return
		}
		p.emit(ICUnit{Opcode: isa.Xori, Rd: ops[0].Lexeme, Rs1: ops[2].Lexeme, Imm: "-1", SourceLine: line, Rm: 7})

	case isa.Neg:
		if len(ops) != 3 || ops[0].Kind != token.GpRegister || ops[1].Kind != token.Comma || ops[2].Kind != token.GpRegister {
			p.diagAt(diag.UnexpectedOperand, opTok.Line, opTok.Column, "neg expects rd, rs", "")
			return
		}
		p.emit(ICUnit{Opcode: isa.Sub, Rd: ops[0].Lexeme, Rs1: "x0", Rs2: ops[2].Lexeme, SourceLine: line, Rm: 7})

	case isa.Jr:
		if len(ops) != 1 || ops[0].Kind != token.GpRegister {
			p.diagAt(diag.UnexpectedOperand, opTok.Line, opTok.Column, "jr expects rs", "")
			return
		}
		p.emit(ICUnit{Opcode: isa.Jalr, Rd: "x0", Rs1: ops[0].Lexeme, Imm: "0", SourceLine: line, Rm: 7})

	case isa.J:
		if len(ops) != 1 {
			p.diagAt(diag.UnexpectedOperand, opTok.Line, opTok.Column, "j expects a label or immediate", "")
			return
		}
		u := ICUnit{Opcode: isa.Jal, Rd: "x0", SourceLine: line, Rm: 7}
		switch ops[0].Kind {
		case token.LabelRef:
			u.Label = ops[0].Lexeme
		case token.Number:
			u.Imm = ops[0].Lexeme
		default:
			p.diagAt(diag.UnexpectedOperand, opTok.Line, opTok.Column, "j expects a label or immediate", "")
			return
		}
		p.emit(u)

	case isa.Beqz, isa.Bnez:
		if len(ops) != 3 || ops[0].Kind != token.GpRegister || ops[1].Kind != token.Comma || ops[2].Kind != token.LabelRef {
			p.diagAt(diag.UnexpectedOperand, opTok.Line, opTok.Column, opTok.Lexeme+" expects rs, label", "")
			return
		}
		real := isa.Beq
		if tag == isa.Bnez {
			real = isa.Bne
		}
		p.emit(ICUnit{Opcode: real, Rs1: ops[0].Lexeme, Rs2: "x0", Label: ops[2].Lexeme, SourceLine: line, Rm: 7})

	case isa.Li:
		if len(ops) != 3 || ops[0].Kind != token.GpRegister || ops[1].Kind != token.Comma || ops[2].Kind != token.Number {
			p.diagAt(diag.UnexpectedOperand, opTok.Line, opTok.Column, "li expects rd, imm", "")
			return
		}
		p.expandLi(ops[0].Lexeme, ops[2], line)

	case isa.La:
		p.diagAt(diag.UnexpectedOperand, opTok.Line, opTok.Column,
			"la is not supported", "use lui/auipc-based addressing explicitly")

	default:
		p.diagAt(diag.Syntax, opTok.Line, opTok.Column, "unhandled pseudo-instruction "+opTok.Lexeme, "")
	}
}

// expandLi expands li into addi when the immediate fits 12 signed bits, or
// lui+addi otherwise (spec.md 4.F), computing the two pieces so the low
// half's sign extension is cancelled out, the standard RISC-V idiom.
func (p *parser) expandLi(rd string, imm token.Token, line int) {
	v, err := parseSignedImm(imm.Lexeme)
	if err != nil {
		p.diagAt(diag.UnexpectedOperand, imm.Line, imm.Column, "malformed immediate: "+err.Error(), "")
		return
	}
	if v >= -2048 && v <= 2047 {
		p.emit(ICUnit{Opcode: isa.Addi, Rd: rd, Rs1: "x0", Imm: strconv.FormatInt(v, 10), SourceLine: line, Rm: 7})
		return
	}
	low := v & 0xFFF
	if low >= 0x800 {
		low -= 0x1000
	}
	hi := (v - low) >> 12
	p.emit(ICUnit{Opcode: isa.Lui, Rd: rd, Imm: strconv.FormatInt(hi&0xFFFFF, 10), SourceLine: line, Rm: 7})
	p.emit(ICUnit{Opcode: isa.Addi, Rd: rd, Rs1: rd, Imm: strconv.FormatInt(low, 10), SourceLine: line, Rm: 7})
}

func parseSignedImm(lexeme string) (int64, error) {
	return lexer.ParseInteger(lexeme)
}
