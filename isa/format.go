package isa

// Format names which of the seven bit-layouts in spec.md 4.F "Emission" a
// tag's word uses. FP arithmetic, compare, convert, classify, and move
// instructions all share the R layout with the GPR arithmetic opcodes:
// RISC-V repurposes the rs2 field as a fixed selector (table.go's Rs2Sel)
// for the single-operand forms, and the funct3 slot as the rm field for
// anything whose rounding mode is an operand rather than fixed.
type Format int

const (
	FormatI Format = iota
	FormatR
	FormatR4
	FormatS
	FormatB
	FormatU
	FormatJ
)

var formatOf = map[Tag]Format{}

func init() {
	uFmt := []Tag{Lui, Auipc}
	jFmt := []Tag{Jal}
	bFmt := []Tag{Beq, Bne, Blt, Bge, Bltu, Bgeu}
	sFmt := []Tag{Sb, Sh, Sw, Sd, Fsw, Fsd}
	r4Fmt := []Tag{FmaddS, FmsubS, FnmsubS, FnmaddS, FmaddD, FmsubD, FnmsubD, FnmaddD}
	rFmt := []Tag{
		Add, Sub, Sll, Slt, Sltu, Xor, Srl, Sra, Or, And,
		Addw, Subw, Sllw, Srlw, Sraw,
		Mul, Mulh, Mulhsu, Mulhu, Div, Divu, Rem, Remu,
		Mulw, Divw, Divuw, Remw, Remuw,
		FaddS, FsubS, FmulS, FdivS, FsqrtS, FsgnjS, FsgnjnS, FsgnjxS, FminS, FmaxS,
		FcvtWS, FcvtWuS, FcvtLS, FcvtLuS, FmvXW, FeqS, FltS, FleS, FclassS,
		FcvtSW, FcvtSWu, FcvtSL, FcvtSLu, FmvWX,
		FaddD, FsubD, FmulD, FdivD, FsqrtD, FsgnjD, FsgnjnD, FsgnjxD, FminD, FmaxD,
		FcvtWD, FcvtWuD, FcvtLD, FcvtLuD, FeqD, FltD, FleD, FclassD,
		FcvtDW, FcvtDWu, FcvtDL, FcvtDLu, FcvtDS, FcvtSD, FmvXD, FmvDX,
	}
	for _, t := range uFmt {
		formatOf[t] = FormatU
	}
	for _, t := range jFmt {
		formatOf[t] = FormatJ
	}
	for _, t := range bFmt {
		formatOf[t] = FormatB
	}
	for _, t := range sFmt {
		formatOf[t] = FormatS
	}
	for _, t := range r4Fmt {
		formatOf[t] = FormatR4
	}
	for _, t := range rFmt {
		formatOf[t] = FormatR
	}
}

// FormatOf reports a tag's word layout. Tags absent from the table
// (loads, I-type arithmetic, jalr, fence/ecall/ebreak, the CSR family)
// default to FormatI.
func FormatOf(t Tag) Format {
	if f, ok := formatOf[t]; ok {
		return f
	}
	return FormatI
}

// IsShift64 reports whether t is one of the 64-bit-width shift-immediate
// instructions, whose imm field packs a 6-bit shamt under a 6-bit funct6
// rather than the 7-bit-funct7/5-bit-shamt split the 32-bit-word shifts use.
func IsShift64(t Tag) bool {
	switch t {
	case Slli, Srli, Srai:
		return true
	default:
		return false
	}
}

// IsShift32 reports whether t is a 32-bit-word shift-immediate (*iw).
func IsShift32(t Tag) bool {
	switch t {
	case Slliw, Srliw, Sraiw:
		return true
	default:
		return false
	}
}
