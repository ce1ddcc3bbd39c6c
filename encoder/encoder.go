// Package encoder implements the bit-exact second pass (spec.md component
// G): it walks a parsed Program's intermediate-code units and emits one
// 32-bit little-endian word per unit, using the same static tables the
// parser and decoder consult (isa.FieldsOf, isa.FormatOf).
package encoder

import (
	"fmt"
	"strconv"
	"strings"

	"rv64sim/asmparse"
	"rv64sim/diag"
	"rv64sim/isa"
	"rv64sim/lexer"
)

// Encode builds the machine-code image for an already-parsed, already
// back-patched Program. It never stops at the first bad unit: every unit
// is attempted, and failures are collected in the returned Bag, mirroring
// the parser's own recoverable policy (spec.md section 7).
func Encode(prog *asmparse.Program) ([]uint32, *diag.Bag) {
	bag := &diag.Bag{}
	words := make([]uint32, len(prog.Units))
	for i, u := range prog.Units {
		w, err := encodeUnit(u)
		if err != nil {
			bag.Add(diag.Diagnostic{
				Kind:        diag.ImmediateOutOfRange,
				Filename:    prog.SourceFile,
				Line:        u.SourceLine,
				MainMessage: err.Error(),
			})
			continue
		}
		words[i] = w
	}
	return words, bag
}

func regIndex(name string) uint32 {
	if name == "" {
		return 0
	}
	n, err := strconv.Atoi(name[1:])
	if err != nil {
		return 0
	}
	return uint32(n)
}

func immOf(u asmparse.ICUnit) (int64, error) {
	if u.Imm == "" {
		return 0, nil
	}
	return lexer.ParseInteger(u.Imm)
}

// encodeUnit builds one instruction word. It assumes u.Imm holds a resolved
// numeric literal (the parser's back-patch pass guarantees this for every
// unit that reaches the encoder) and that register names are already
// canonical xN/fN (the parser canonicalizes on emit).
func encodeUnit(u asmparse.ICUnit) (uint32, error) {
	fields, ok := isa.FieldsOf(u.Opcode)
	if !ok {
		return 0, fmt.Errorf("%s: no encoding fields registered", u.Opcode)
	}

	imm, err := immOf(u)
	if err != nil {
		return 0, fmt.Errorf("line %d: malformed immediate for %s: %w", u.SourceLine, u.Opcode, err)
	}
	if u.Opcode == isa.Ebreak {
		imm = 1
	}

	rd := regIndex(u.Rd)
	rs1 := regIndex(u.Rs1)
	rs2 := regIndex(u.Rs2)
	rs3 := regIndex(u.Rs3)

	switch isa.FormatOf(u.Opcode) {
	case isa.FormatU:
		return fields.Opcode | rd<<7 | (uint32(imm)&0xFFFFF)<<12, nil

	case isa.FormatJ:
		uimm := uint32(imm)
		word := fields.Opcode | rd<<7
		word |= ((uimm >> 20) & 0x1) << 31
		word |= ((uimm >> 1) & 0x3FF) << 21
		word |= ((uimm >> 11) & 0x1) << 20
		word |= ((uimm >> 12) & 0xFF) << 12
		return word, nil

	case isa.FormatB:
		uimm := uint32(imm)
		word := fields.Opcode | uint32(fields.Funct3)<<12 | rs1<<15 | rs2<<20
		word |= ((uimm >> 12) & 0x1) << 31
		word |= ((uimm >> 5) & 0x3F) << 25
		word |= ((uimm >> 1) & 0xF) << 8
		word |= ((uimm >> 11) & 0x1) << 7
		return word, nil

	case isa.FormatS:
		valueReg := rs2
		if u.Opcode == isa.Fsw || u.Opcode == isa.Fsd {
			valueReg = rd // the store-value operand was parsed into Rd (see asmparse.tryShape)
		}
		uimm := uint32(imm)
		word := fields.Opcode | uint32(fields.Funct3)<<12 | rs1<<15 | valueReg<<20
		word |= (uimm & 0x1F) << 7
		word |= ((uimm >> 5) & 0x7F) << 25
		return word, nil

	case isa.FormatR4:
		word := fields.Opcode | rd<<7 | uint32(u.Rm)<<12 | rs1<<15 | rs2<<20
		word |= uint32(fields.Funct2) << 25
		word |= rs3 << 27
		return word, nil

	case isa.FormatR:
		rs2Field := rs2
		if fields.Rs2Sel != isa.None {
			rs2Field = uint32(fields.Rs2Sel)
		}
		funct3 := fields.Funct3
		if funct3 == isa.None {
			funct3 = int32(u.Rm)
		}
		word := fields.Opcode | rd<<7 | uint32(funct3)<<12 | rs1<<15 | rs2Field<<20
		word |= uint32(fields.Funct7) << 25
		return word, nil

	default: // FormatI, including shifts, loads, jalr, csr, fence/ecall/ebreak
		return encodeI(u, fields, imm, rd, rs1)
	}
}

func encodeI(u asmparse.ICUnit, fields isa.Fields, imm int64, rd, rs1 uint32) (uint32, error) {
	funct3 := fields.Funct3
	if funct3 == isa.None {
		funct3 = 0
	}

	switch {
	case isa.IsShift64(u.Opcode):
		shamt := uint32(imm) & 0x3F
		funct6 := uint32(fields.Funct7) >> 1
		imm12 := (funct6 << 6) | shamt
		return fields.Opcode | rd<<7 | uint32(funct3)<<12 | rs1<<15 | imm12<<20, nil

	case isa.IsShift32(u.Opcode):
		shamt := uint32(imm) & 0x1F
		imm12 := (uint32(fields.Funct7) << 5) | shamt
		return fields.Opcode | rd<<7 | uint32(funct3)<<12 | rs1<<15 | imm12<<20, nil

	case u.Opcode == isa.Csrrwi || u.Opcode == isa.Csrrsi || u.Opcode == isa.Csrrci:
		csrAddr := uint32(imm) & 0xFFF
		zimm, err := lexer.ParseInteger(u.Rs2)
		if err != nil {
			return 0, fmt.Errorf("line %d: malformed csr immediate: %w", u.SourceLine, err)
		}
		return fields.Opcode | rd<<7 | uint32(funct3)<<12 | (uint32(zimm)&0x1F)<<15 | csrAddr<<20, nil

	case u.Opcode == isa.Csrrw || u.Opcode == isa.Csrrs || u.Opcode == isa.Csrrc:
		csrAddr := uint32(imm) & 0xFFF
		return fields.Opcode | rd<<7 | uint32(funct3)<<12 | rs1<<15 | csrAddr<<20, nil

	default:
		imm12 := uint32(imm) & 0xFFF
		return fields.Opcode | rd<<7 | uint32(funct3)<<12 | rs1<<15 | imm12<<20, nil
	}
}

// Decoded is a word's parsed-out field values. Rd, Rs1, Rs2 and Rs3 always
// hold the raw register slices of the word (Rs2 is zeroed where the rs2
// slot is a fixed selector); Imm and Rm are set only for the formats that
// carry them and are zero otherwise.
type Decoded struct {
	Tag            isa.Tag
	Rd, Rs1, Rs2, Rs3 uint32
	Imm            int64
	Rm             uint8
}

// Decode is the machine's fetch-stage word decoder: the structured
// counterpart to Disassemble's text rendering, used by the decode/control
// unit and the CPU's execute stage.
func Decode(word uint32) (Decoded, bool) {
	tag, fields, ok := lookupEncoding(word)
	if !ok {
		return Decoded{}, false
	}
	d := Decoded{
		Tag: tag,
		Rd:  (word >> 7) & 0x1F,
		Rs1: (word >> 15) & 0x1F,
		Rs2: (word >> 20) & 0x1F,
		Rs3: (word >> 27) & 0x1F,
	}
	switch isa.FormatOf(tag) {
	case isa.FormatU:
		d.Imm = int64(word & 0xFFFFF000)
	case isa.FormatJ:
		d.Imm = decodeJImm(word)
	case isa.FormatB:
		d.Imm = decodeBImm(word)
	case isa.FormatS:
		d.Imm = decodeSImm(word)
	case isa.FormatR4:
		d.Rm = uint8((word >> 12) & 0x7)
	case isa.FormatR:
		if fields.Funct3 == isa.None {
			d.Rm = uint8((word >> 12) & 0x7)
		}
		if fields.Rs2Sel != isa.None {
			d.Rs2 = 0
		}
	default: // FormatI
		switch {
		case isa.IsShift64(tag):
			d.Imm = int64((word >> 20) & 0x3F)
		case isa.IsShift32(tag):
			d.Imm = int64((word >> 20) & 0x1F)
		case tag == isa.Csrrw, tag == isa.Csrrs, tag == isa.Csrrc,
			tag == isa.Csrrwi, tag == isa.Csrrsi, tag == isa.Csrrci:
			d.Imm = int64((word >> 20) & 0xFFF)
		default:
			d.Imm = decodeIImm(word)
		}
	}
	return d, true
}

// Disassemble renders a single encoded word back to assembly text, used by
// spec.md 8.4's round-trip property (re-assembling the disassembly yields
// the same machine code); the shell's memory print shows raw bytes and does
// not call it. It returns ("", false) for a word matching no known encoding.
func Disassemble(word uint32) (string, bool) {
	tag, fields, ok := lookupEncoding(word)
	if !ok {
		return "", false
	}
	rd := (word >> 7) & 0x1F
	rs1 := (word >> 15) & 0x1F
	rs2 := (word >> 20) & 0x1F
	rs3 := (word >> 27) & 0x1F

	var b strings.Builder
	b.WriteString(tag.String())

	switch isa.FormatOf(tag) {
	case isa.FormatU:
		imm := int64(word >> 12)
		fmt.Fprintf(&b, " x%d, %d", rd, imm)
	case isa.FormatJ:
		imm := decodeJImm(word)
		fmt.Fprintf(&b, " x%d, %d", rd, imm)
	case isa.FormatB:
		imm := decodeBImm(word)
		fmt.Fprintf(&b, " x%d, x%d, %d", rs1, rs2, imm)
	case isa.FormatS:
		imm := decodeSImm(word)
		prefix := "x"
		if tag == isa.Fsw || tag == isa.Fsd {
			prefix = "f"
		}
		fmt.Fprintf(&b, " %s%d, %d(x%d)", prefix, rs2, imm, rs1)
	case isa.FormatR4:
		fmt.Fprintf(&b, " f%d, f%d, f%d, f%d", rd, rs1, rs2, rs3)
	case isa.FormatR:
		rdPrefix, rs1Prefix, rs2Prefix := operandPrefixes(tag)
		if fields.Rs2Sel != isa.None {
			fmt.Fprintf(&b, " %s%d, %s%d", rdPrefix, rd, rs1Prefix, rs1)
		} else {
			fmt.Fprintf(&b, " %s%d, %s%d, %s%d", rdPrefix, rd, rs1Prefix, rs1, rs2Prefix, rs2)
		}
	default:
		b.WriteString(disassembleI(tag, fields, word, rd, rs1))
	}
	return b.String(), true
}

func disassembleI(tag isa.Tag, fields isa.Fields, word uint32, rd, rs1 uint32) string {
	switch {
	case isa.IsShift64(tag):
		shamt := (word >> 20) & 0x3F
		return fmt.Sprintf(" x%d, x%d, %d", rd, rs1, shamt)
	case isa.IsShift32(tag):
		shamt := (word >> 20) & 0x1F
		return fmt.Sprintf(" x%d, x%d, %d", rd, rs1, shamt)
	case tag == isa.Csrrwi || tag == isa.Csrrsi || tag == isa.Csrrci:
		csr := (word >> 20) & 0xFFF
		zimm := rs1
		return fmt.Sprintf(" x%d, %d, %d", rd, csr, zimm)
	case tag == isa.Csrrw || tag == isa.Csrrs || tag == isa.Csrrc:
		csr := (word >> 20) & 0xFFF
		return fmt.Sprintf(" x%d, %d, x%d", rd, csr, rs1)
	case tag == isa.Fence || tag == isa.Fencei || tag == isa.Ecall || tag == isa.Ebreak:
		return ""
	case tag == isa.Lb || tag == isa.Lh || tag == isa.Lw || tag == isa.Lbu || tag == isa.Lhu || tag == isa.Lwu || tag == isa.Ld:
		imm := decodeIImm(word)
		return fmt.Sprintf(" x%d, %d(x%d)", rd, imm, rs1)
	case tag == isa.Flw || tag == isa.Fld:
		imm := decodeIImm(word)
		return fmt.Sprintf(" f%d, %d(x%d)", rd, imm, rs1)
	case tag == isa.Jalr:
		imm := decodeIImm(word)
		return fmt.Sprintf(" x%d, x%d, %d", rd, rs1, imm)
	default:
		imm := decodeIImm(word)
		return fmt.Sprintf(" x%d, x%d, %d", rd, rs1, imm)
	}
}

func operandPrefixes(tag isa.Tag) (rd, rs1, rs2 string) {
	switch isa.ExtensionOf(tag) {
	case isa.ExtF, isa.ExtD:
		switch tag {
		case isa.FcvtWS, isa.FcvtWuS, isa.FcvtLS, isa.FcvtLuS, isa.FmvXW, isa.FclassS,
			isa.FeqS, isa.FltS, isa.FleS,
			isa.FcvtWD, isa.FcvtWuD, isa.FcvtLD, isa.FcvtLuD, isa.FclassD,
			isa.FeqD, isa.FltD, isa.FleD:
			return "x", "f", "f"
		case isa.FcvtSW, isa.FcvtSWu, isa.FcvtSL, isa.FcvtSLu, isa.FmvWX,
			isa.FcvtDW, isa.FcvtDWu, isa.FcvtDL, isa.FcvtDLu:
			return "f", "x", "x"
		case isa.FmvXD:
			return "x", "f", "f"
		case isa.FmvDX:
			return "f", "x", "x"
		default:
			return "f", "f", "f"
		}
	default:
		return "x", "x", "x"
	}
}

func decodeIImm(word uint32) int64 {
	raw := int64(int32(word) >> 20)
	return raw
}

func decodeSImm(word uint32) int64 {
	lo := (word >> 7) & 0x1F
	hi := (word >> 25) & 0x7F
	v := (hi << 5) | lo
	return signExtend(v, 12)
}

func decodeBImm(word uint32) int64 {
	b11 := (word >> 7) & 0x1
	b41 := (word >> 8) & 0xF
	b105 := (word >> 25) & 0x3F
	b12 := (word >> 31) & 0x1
	v := (b12 << 12) | (b11 << 11) | (b105 << 5) | (b41 << 1)
	return signExtend(v, 13)
}

func decodeJImm(word uint32) int64 {
	b20 := (word >> 31) & 0x1
	b101 := (word >> 21) & 0x3FF
	b11 := (word >> 20) & 0x1
	b1912 := (word >> 12) & 0xFF
	v := (b20 << 20) | (b1912 << 12) | (b11 << 11) | (b101 << 1)
	return signExtend(v, 21)
}

func signExtend(v uint32, bits int) int64 {
	shift := 32 - bits
	return int64(int32(v<<uint(shift)) >> uint(shift))
}
