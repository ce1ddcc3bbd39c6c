package asmparse

import (
	"fmt"

	"rv64sim/diag"
	"rv64sim/isa"
	"rv64sim/lexer"
)

// checkRanges validates an immediate operand's range and alignment against
// its instruction format, for units whose immediate is already a concrete
// numeric literal (spec.md 4.F first-pass checks). Units carrying a label
// reference are checked later, once the label resolves (resolveBackpatches).
func (p *parser) checkRanges(u ICUnit) {
	if u.Imm == "" || u.Label != "" {
		return
	}
	v, err := lexer.ParseInteger(u.Imm)
	if err != nil {
		p.diagAt(diag.UnexpectedOperand, u.SourceLine, 1, "malformed immediate: "+err.Error(), "")
		return
	}
	p.checkImmRange(u.Opcode, v, u.SourceLine)
}

// checkImmRange enforces the signed-field width spec.md assigns to each
// instruction format, plus the alignment each control-transfer format
// requires.
func (p *parser) checkImmRange(tag isa.Tag, v int64, line int) {
	switch tag {
	case isa.Lui, isa.Auipc:
		if v < 0 || v > 0xFFFFF {
			p.diagAt(diag.ImmediateOutOfRange, line, 1,
				fmt.Sprintf("immediate %d out of range for %s (0..1048575)", v, tag), "")
		}
	case isa.Beq, isa.Bne, isa.Blt, isa.Bge, isa.Bltu, isa.Bgeu:
		if v < -4096 || v > 4094 {
			p.diagAt(diag.ImmediateOutOfRange, line, 1,
				fmt.Sprintf("branch offset %d out of range (-4096..4094)", v), "")
			return
		}
		if v%2 != 0 {
			p.diagAt(diag.MisalignedImmediate, line, 1,
				fmt.Sprintf("branch offset %d is not 2-byte aligned", v), "")
		}
	case isa.Jal:
		if v < -1048576 || v > 1048574 {
			p.diagAt(diag.ImmediateOutOfRange, line, 1,
				fmt.Sprintf("jal offset %d out of range (-1048576..1048574)", v), "")
			return
		}
		if v%2 != 0 {
			p.diagAt(diag.MisalignedImmediate, line, 1,
				fmt.Sprintf("jal offset %d is not 2-byte aligned", v), "")
		}
	case isa.Slli, isa.Srli, isa.Srai, isa.Slliw, isa.Srliw, isa.Sraiw:
		max := int64(63)
		if tag == isa.Slliw || tag == isa.Srliw || tag == isa.Sraiw {
			max = 31
		}
		if v < 0 || v > max {
			p.diagAt(diag.ImmediateOutOfRange, line, 1,
				fmt.Sprintf("shift amount %d out of range (0..%d)", v, max), "")
		}
	default:
		if v < -2048 || v > 2047 {
			p.diagAt(diag.ImmediateOutOfRange, line, 1,
				fmt.Sprintf("immediate %d out of range for %s (-2048..2047)", v, tag), "")
		}
	}
}

// resolveBackpatches fills in every unit's Imm field from its Label once
// every label in the program is known, then re-runs the range/alignment
// check now that the actual displacement is known (spec.md component G
// "back-patch resolution", performed here rather than in package encoder
// because the displacement is PC-relative and both PC and symbol address
// are already on hand from the first pass).
func (p *parser) resolveBackpatches() {
	for _, idx := range p.backpatch {
		u := &p.units[idx]
		if u.Label == "" {
			continue
		}
		sym, ok := p.symbols[u.Label]
		if !ok {
			p.diagAt(diag.InvalidLabelRef, u.SourceLine, 1,
				fmt.Sprintf("undefined label %q", u.Label), "")
			continue
		}
		pc := p.opts.TextSectionStart + uint64(idx)*4
		var disp int64
		switch u.Opcode {
		case isa.Beq, isa.Bne, isa.Blt, isa.Bge, isa.Bltu, isa.Bgeu, isa.Jal:
			if sym.IsData {
				p.diagAt(diag.InvalidLabelRef, u.SourceLine, 1,
					fmt.Sprintf("%s cannot branch to data label %q", u.Opcode, u.Label), "")
				continue
			}
			disp = int64(sym.Address) - int64(pc)
		default:
			// Non-PC-relative label use (e.g. a rejected la) never reaches
			// here; anything else that carries a Label is address-absolute.
			disp = int64(sym.Address)
		}
		u.Imm = fmt.Sprintf("%d", disp)
		u.Label = ""
		u.Resolved = true
		p.checkImmRange(u.Opcode, disp, u.SourceLine)
	}
}
