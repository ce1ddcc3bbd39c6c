package isa

// Shape names a fixed lookahead pattern of operand tokens that a mnemonic
// may accept. The parser (component F) matches the remaining tokens of the
// current line against the shapes permitted for that mnemonic.
type Shape int

const (
	ShapeNone          Shape = iota // no operands: ecall, ebreak, fence, ret
	ShapeThreeGPR                   // rd, rs1, rs2
	ShapeTwoGPRImm                  // rd, rs1, imm
	ShapeGPRImm                     // rd, imm (lui, auipc, li)
	ShapeGPRLabel                   // rd, label (la)
	ShapeGPRLabelOrImm             // rd, label-or-imm (jal accepts both)
	ShapeGPRBaseOffset              // rd, imm(rs1) — loads
	ShapeGPRGPRBaseOffset           // rs2, imm(rs1) — stores, with rs2==src
	ShapeTwoGPRLabel               // rs1, rs2, label — branches
	ShapeOneGPR                     // rd or rs1 alone (jr)
	ShapeGPRGPR                    // rd, rs (mv, not, neg)
	ShapeThreeFPR                  // fd, fs1, fs2
	ShapeFourFPR                   // fd, fs1, fs2, fs3 (fused)
	ShapeTwoFPR                    // fd, fs1 (fsqrt, fsgnj forms folded into three; kept for symmetry)
	ShapeFPRBaseOffset              // fd, imm(rs1) — float loads
	ShapeGPRFPR                    // rd(int), fs1 — fmv.x.*, fcvt.*.s/d, fclass
	ShapeFPRGPR                    // fd, rs1(int) — fmv.*.x, fcvt.s/d.*
	ShapeCSRImm                    // rd, csr, uimm5 — csrrwi family
	ShapeCSRReg                    // rd, csr, rs1 — csrrw family
	ShapeGPRFPRFPR                 // rd(int), fs1, fs2 — feq/flt/fle
)

var shapesOf = map[Tag][]Shape{
	Lui: {ShapeGPRImm}, Auipc: {ShapeGPRImm},
	Jal: {ShapeGPRLabelOrImm},
	Jalr: {ShapeTwoGPRImm, ShapeGPRBaseOffset},

	Beq: {ShapeTwoGPRLabel}, Bne: {ShapeTwoGPRLabel}, Blt: {ShapeTwoGPRLabel},
	Bge: {ShapeTwoGPRLabel}, Bltu: {ShapeTwoGPRLabel}, Bgeu: {ShapeTwoGPRLabel},

	Lb: {ShapeGPRBaseOffset}, Lh: {ShapeGPRBaseOffset}, Lw: {ShapeGPRBaseOffset},
	Lbu: {ShapeGPRBaseOffset}, Lhu: {ShapeGPRBaseOffset}, Lwu: {ShapeGPRBaseOffset}, Ld: {ShapeGPRBaseOffset},
	Sb: {ShapeGPRGPRBaseOffset}, Sh: {ShapeGPRGPRBaseOffset}, Sw: {ShapeGPRGPRBaseOffset}, Sd: {ShapeGPRGPRBaseOffset},

	Addi: {ShapeTwoGPRImm}, Slti: {ShapeTwoGPRImm}, Sltiu: {ShapeTwoGPRImm},
	Xori: {ShapeTwoGPRImm}, Ori: {ShapeTwoGPRImm}, Andi: {ShapeTwoGPRImm},
	Slli: {ShapeTwoGPRImm}, Srli: {ShapeTwoGPRImm}, Srai: {ShapeTwoGPRImm},

	Add: {ShapeThreeGPR}, Sub: {ShapeThreeGPR}, Sll: {ShapeThreeGPR}, Slt: {ShapeThreeGPR},
	Sltu: {ShapeThreeGPR}, Xor: {ShapeThreeGPR}, Srl: {ShapeThreeGPR}, Sra: {ShapeThreeGPR},
	Or: {ShapeThreeGPR}, And: {ShapeThreeGPR},

	Fence: {ShapeNone}, Fencei: {ShapeNone}, Ecall: {ShapeNone}, Ebreak: {ShapeNone},

	Addiw: {ShapeTwoGPRImm}, Slliw: {ShapeTwoGPRImm}, Srliw: {ShapeTwoGPRImm}, Sraiw: {ShapeTwoGPRImm},
	Addw: {ShapeThreeGPR}, Subw: {ShapeThreeGPR}, Sllw: {ShapeThreeGPR}, Srlw: {ShapeThreeGPR}, Sraw: {ShapeThreeGPR},

	Mul: {ShapeThreeGPR}, Mulh: {ShapeThreeGPR}, Mulhsu: {ShapeThreeGPR}, Mulhu: {ShapeThreeGPR},
	Div: {ShapeThreeGPR}, Divu: {ShapeThreeGPR}, Rem: {ShapeThreeGPR}, Remu: {ShapeThreeGPR},
	Mulw: {ShapeThreeGPR}, Divw: {ShapeThreeGPR}, Divuw: {ShapeThreeGPR}, Remw: {ShapeThreeGPR}, Remuw: {ShapeThreeGPR},

	Csrrw: {ShapeCSRReg}, Csrrs: {ShapeCSRReg}, Csrrc: {ShapeCSRReg},
	Csrrwi: {ShapeCSRImm}, Csrrsi: {ShapeCSRImm}, Csrrci: {ShapeCSRImm},

	Flw: {ShapeFPRBaseOffset}, Fld: {ShapeFPRBaseOffset},
	Fsw: {ShapeFPRBaseOffset}, Fsd: {ShapeFPRBaseOffset},

	FmaddS: {ShapeFourFPR}, FmsubS: {ShapeFourFPR}, FnmsubS: {ShapeFourFPR}, FnmaddS: {ShapeFourFPR},
	FmaddD: {ShapeFourFPR}, FmsubD: {ShapeFourFPR}, FnmsubD: {ShapeFourFPR}, FnmaddD: {ShapeFourFPR},

	FaddS: {ShapeThreeFPR}, FsubS: {ShapeThreeFPR}, FmulS: {ShapeThreeFPR}, FdivS: {ShapeThreeFPR},
	FsqrtS: {ShapeTwoFPR},
	FsgnjS: {ShapeThreeFPR}, FsgnjnS: {ShapeThreeFPR}, FsgnjxS: {ShapeThreeFPR},
	FminS: {ShapeThreeFPR}, FmaxS: {ShapeThreeFPR},
	FcvtWS: {ShapeGPRFPR}, FcvtWuS: {ShapeGPRFPR}, FcvtLS: {ShapeGPRFPR}, FcvtLuS: {ShapeGPRFPR},
	FmvXW: {ShapeGPRFPR}, FclassS: {ShapeGPRFPR},
	FeqS: {ShapeGPRFPRFPR}, FltS: {ShapeGPRFPRFPR}, FleS: {ShapeGPRFPRFPR},
	FcvtSW: {ShapeFPRGPR}, FcvtSWu: {ShapeFPRGPR}, FcvtSL: {ShapeFPRGPR}, FcvtSLu: {ShapeFPRGPR},
	FmvWX: {ShapeFPRGPR},

	FaddD: {ShapeThreeFPR}, FsubD: {ShapeThreeFPR}, FmulD: {ShapeThreeFPR}, FdivD: {ShapeThreeFPR},
	FsqrtD: {ShapeTwoFPR},
	FsgnjD: {ShapeThreeFPR}, FsgnjnD: {ShapeThreeFPR}, FsgnjxD: {ShapeThreeFPR},
	FminD: {ShapeThreeFPR}, FmaxD: {ShapeThreeFPR},
	FcvtWD: {ShapeGPRFPR}, FcvtWuD: {ShapeGPRFPR}, FcvtLD: {ShapeGPRFPR}, FcvtLuD: {ShapeGPRFPR},
	FeqD: {ShapeGPRFPRFPR}, FltD: {ShapeGPRFPRFPR}, FleD: {ShapeGPRFPRFPR}, FclassD: {ShapeGPRFPR},
	FcvtDW: {ShapeFPRGPR}, FcvtDWu: {ShapeFPRGPR}, FcvtDL: {ShapeFPRGPR}, FcvtDLu: {ShapeFPRGPR},
	FcvtDS: {ShapeTwoFPR}, FcvtSD: {ShapeTwoFPR},
	FmvXD: {ShapeGPRFPR}, FmvDX: {ShapeFPRGPR},

	Nop: {ShapeNone}, Li: {ShapeGPRImm}, Mv: {ShapeGPRGPR}, Not: {ShapeGPRGPR},
	La: {ShapeGPRLabel}, J: {ShapeGPRLabelOrImm}, Jr: {ShapeOneGPR}, Ret: {ShapeNone},
	Beqz: {ShapeTwoGPRLabel}, Bnez: {ShapeTwoGPRLabel}, Neg: {ShapeGPRGPR},
}

// ShapesOf returns the permitted syntactic shapes for a mnemonic.
func ShapesOf(t Tag) []Shape {
	return shapesOf[t]
}
