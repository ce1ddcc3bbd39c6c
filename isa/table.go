package isa

// Fields holds the bit-level identity of an instruction: the fields that,
// together with the format, are enough to encode or decode it. Fields not
// used by a given format hold the sentinel value None.
//
// Rs2Sel holds the fixed rs2-field value used by single-operand OP-FP
// instructions (conversions, fmv, fclass) where the real ISA repurposes the
// rs2 slot as a second opcode selector instead of a register number.
type Fields struct {
	Opcode uint32
	Funct3 int32
	Funct7 int32
	Funct2 int32
	Rs2Sel int32
}

const None int32 = -1

// Extension names the ISA extension an instruction belongs to. Neither the
// assembler nor the machine gates on config.MExtensionEnabled et al.: every
// extension is always accepted.
type Extension int

const (
	ExtI Extension = iota
	ExtM
	ExtF
	ExtD
	ExtZicsr
)

// RISC-V standard 7-bit opcode groups.
const (
	OpLui      uint32 = 0b0110111
	OpAuipc    uint32 = 0b0010111
	OpJal      uint32 = 0b1101111
	OpJalr     uint32 = 0b1100111
	OpBranch   uint32 = 0b1100011
	OpLoad     uint32 = 0b0000011
	OpStore    uint32 = 0b0100011
	OpImm      uint32 = 0b0010011
	OpReg      uint32 = 0b0110011
	OpImm32    uint32 = 0b0011011
	OpReg32    uint32 = 0b0111011
	OpMiscMem  uint32 = 0b0001111
	OpSystem   uint32 = 0b1110011
	OpLoadFP   uint32 = 0b0000111
	OpStoreFP  uint32 = 0b0100111
	OpFmadd    uint32 = 0b1000011
	OpFmsub    uint32 = 0b1000111
	OpFnmsub   uint32 = 0b1001011
	OpFnmadd   uint32 = 0b1001111
	OpFP       uint32 = 0b1010011
)

var fieldsOf = map[Tag]Fields{
	Lui:   {OpLui, None, None, None, None},
	Auipc: {OpAuipc, None, None, None, None},
	Jal:   {OpJal, None, None, None, None},
	Jalr:  {OpJalr, 0b000, None, None, None},

	Beq:  {OpBranch, 0b000, None, None, None},
	Bne:  {OpBranch, 0b001, None, None, None},
	Blt:  {OpBranch, 0b100, None, None, None},
	Bge:  {OpBranch, 0b101, None, None, None},
	Bltu: {OpBranch, 0b110, None, None, None},
	Bgeu: {OpBranch, 0b111, None, None, None},

	Lb:  {OpLoad, 0b000, None, None, None},
	Lh:  {OpLoad, 0b001, None, None, None},
	Lw:  {OpLoad, 0b010, None, None, None},
	Ld:  {OpLoad, 0b011, None, None, None},
	Lbu: {OpLoad, 0b100, None, None, None},
	Lhu: {OpLoad, 0b101, None, None, None},
	Lwu: {OpLoad, 0b110, None, None, None},

	Sb: {OpStore, 0b000, None, None, None},
	Sh: {OpStore, 0b001, None, None, None},
	Sw: {OpStore, 0b010, None, None, None},
	Sd: {OpStore, 0b011, None, None, None},

	Addi:  {OpImm, 0b000, None, None, None},
	Slti:  {OpImm, 0b010, None, None, None},
	Sltiu: {OpImm, 0b011, None, None, None},
	Xori:  {OpImm, 0b100, None, None, None},
	Ori:   {OpImm, 0b110, None, None, None},
	Andi:  {OpImm, 0b111, None, None, None},
	Slli:  {OpImm, 0b001, 0b0000000, None, None},
	Srli:  {OpImm, 0b101, 0b0000000, None, None},
	Srai:  {OpImm, 0b101, 0b0100000, None, None},

	Add: {OpReg, 0b000, 0b0000000, None, None},
	Sub: {OpReg, 0b000, 0b0100000, None, None},
	Sll: {OpReg, 0b001, 0b0000000, None, None},
	Slt: {OpReg, 0b010, 0b0000000, None, None},
	Sltu: {OpReg, 0b011, 0b0000000, None, None},
	Xor: {OpReg, 0b100, 0b0000000, None, None},
	Srl: {OpReg, 0b101, 0b0000000, None, None},
	Sra: {OpReg, 0b101, 0b0100000, None, None},
	Or:  {OpReg, 0b110, 0b0000000, None, None},
	And: {OpReg, 0b111, 0b0000000, None, None},

	Fence:  {OpMiscMem, 0b000, None, None, None},
	Fencei: {OpMiscMem, 0b001, None, None, None},
	Ecall:  {OpSystem, 0b000, None, None, None},
	Ebreak: {OpSystem, 0b000, None, None, None},

	Addiw: {OpImm32, 0b000, None, None, None},
	Slliw: {OpImm32, 0b001, 0b0000000, None, None},
	Srliw: {OpImm32, 0b101, 0b0000000, None, None},
	Sraiw: {OpImm32, 0b101, 0b0100000, None, None},
	Addw:  {OpReg32, 0b000, 0b0000000, None, None},
	Subw:  {OpReg32, 0b000, 0b0100000, None, None},
	Sllw:  {OpReg32, 0b001, 0b0000000, None, None},
	Srlw:  {OpReg32, 0b101, 0b0000000, None, None},
	Sraw:  {OpReg32, 0b101, 0b0100000, None, None},

	Mul:    {OpReg, 0b000, 0b0000001, None, None},
	Mulh:   {OpReg, 0b001, 0b0000001, None, None},
	Mulhsu: {OpReg, 0b010, 0b0000001, None, None},
	Mulhu:  {OpReg, 0b011, 0b0000001, None, None},
	Div:    {OpReg, 0b100, 0b0000001, None, None},
	Divu:   {OpReg, 0b101, 0b0000001, None, None},
	Rem:    {OpReg, 0b110, 0b0000001, None, None},
	Remu:   {OpReg, 0b111, 0b0000001, None, None},
	Mulw:   {OpReg32, 0b000, 0b0000001, None, None},
	Divw:   {OpReg32, 0b100, 0b0000001, None, None},
	Divuw:  {OpReg32, 0b101, 0b0000001, None, None},
	Remw:   {OpReg32, 0b110, 0b0000001, None, None},
	Remuw:  {OpReg32, 0b111, 0b0000001, None, None},

	Csrrw:  {OpSystem, 0b001, None, None, None},
	Csrrs:  {OpSystem, 0b010, None, None, None},
	Csrrc:  {OpSystem, 0b011, None, None, None},
	Csrrwi: {OpSystem, 0b101, None, None, None},
	Csrrsi: {OpSystem, 0b110, None, None, None},
	Csrrci: {OpSystem, 0b111, None, None, None},

	Flw: {OpLoadFP, 0b010, None, None, None},
	Fsw: {OpStoreFP, 0b010, None, None, None},
	Fld: {OpLoadFP, 0b011, None, None, None},
	Fsd: {OpStoreFP, 0b011, None, None, None},

	FmaddS: {OpFmadd, None, None, 0b00, None},
	FmsubS: {OpFmsub, None, None, 0b00, None},
	FnmsubS: {OpFnmsub, None, None, 0b00, None},
	FnmaddS: {OpFnmadd, None, None, 0b00, None},
	FmaddD: {OpFmadd, None, None, 0b01, None},
	FmsubD: {OpFmsub, None, None, 0b01, None},
	FnmsubD: {OpFnmsub, None, None, 0b01, None},
	FnmaddD: {OpFnmadd, None, None, 0b01, None},

	FaddS: {OpFP, None, 0b0000000, None, None},
	FsubS: {OpFP, None, 0b0000100, None, None},
	FmulS: {OpFP, None, 0b0001000, None, None},
	FdivS: {OpFP, None, 0b0001100, None, None},
	FsqrtS: {OpFP, None, 0b0101100, None, 0b00000},
	FsgnjS: {OpFP, 0b000, 0b0010000, None, None},
	FsgnjnS: {OpFP, 0b001, 0b0010000, None, None},
	FsgnjxS: {OpFP, 0b010, 0b0010000, None, None},
	FminS: {OpFP, 0b000, 0b0010100, None, None},
	FmaxS: {OpFP, 0b001, 0b0010100, None, None},
	FcvtWS: {OpFP, None, 0b1100000, None, 0b00000},
	FcvtWuS: {OpFP, None, 0b1100000, None, 0b00001},
	FcvtLS: {OpFP, None, 0b1100000, None, 0b00010},
	FcvtLuS: {OpFP, None, 0b1100000, None, 0b00011},
	FmvXW: {OpFP, 0b000, 0b1110000, None, 0b00000},
	FclassS: {OpFP, 0b001, 0b1110000, None, 0b00000},
	FeqS: {OpFP, 0b010, 0b1010000, None, None},
	FltS: {OpFP, 0b001, 0b1010000, None, None},
	FleS: {OpFP, 0b000, 0b1010000, None, None},
	FcvtSW: {OpFP, None, 0b1101000, None, 0b00000},
	FcvtSWu: {OpFP, None, 0b1101000, None, 0b00001},
	FcvtSL: {OpFP, None, 0b1101000, None, 0b00010},
	FcvtSLu: {OpFP, None, 0b1101000, None, 0b00011},
	FmvWX: {OpFP, 0b000, 0b1111000, None, 0b00000},

	FaddD: {OpFP, None, 0b0000001, None, None},
	FsubD: {OpFP, None, 0b0000101, None, None},
	FmulD: {OpFP, None, 0b0001001, None, None},
	FdivD: {OpFP, None, 0b0001101, None, None},
	FsqrtD: {OpFP, None, 0b0101101, None, 0b00000},
	FsgnjD: {OpFP, 0b000, 0b0010001, None, None},
	FsgnjnD: {OpFP, 0b001, 0b0010001, None, None},
	FsgnjxD: {OpFP, 0b010, 0b0010001, None, None},
	FminD: {OpFP, 0b000, 0b0010101, None, None},
	FmaxD: {OpFP, 0b001, 0b0010101, None, None},
	FcvtWD: {OpFP, None, 0b1100001, None, 0b00000},
	FcvtWuD: {OpFP, None, 0b1100001, None, 0b00001},
	FcvtLD: {OpFP, None, 0b1100001, None, 0b00010},
	FcvtLuD: {OpFP, None, 0b1100001, None, 0b00011},
	FeqD: {OpFP, 0b010, 0b1010001, None, None},
	FltD: {OpFP, 0b001, 0b1010001, None, None},
	FleD: {OpFP, 0b000, 0b1010001, None, None},
	FclassD: {OpFP, 0b001, 0b1110001, None, 0b00000},
	FcvtDW: {OpFP, None, 0b1101001, None, 0b00000},
	FcvtDWu: {OpFP, None, 0b1101001, None, 0b00001},
	FcvtDL: {OpFP, None, 0b1101001, None, 0b00010},
	FcvtDLu: {OpFP, None, 0b1101001, None, 0b00011},
	FcvtDS: {OpFP, None, 0b0100001, None, 0b00000},
	FcvtSD: {OpFP, None, 0b0100000, None, 0b00001},
	FmvXD: {OpFP, 0b000, 0b1110001, None, 0b00000},
	FmvDX: {OpFP, 0b000, 0b1111001, None, 0b00000},
}

// FieldsOf returns the bit-level fields for a concrete (non-pseudo) tag.
func FieldsOf(t Tag) (Fields, bool) {
	f, ok := fieldsOf[t]
	return f, ok
}

var extensionOf = map[Tag]Extension{}

func init() {
	mExt := []Tag{Mul, Mulh, Mulhsu, Mulhu, Div, Divu, Rem, Remu, Mulw, Divw, Divuw, Remw, Remuw}
	for _, t := range mExt {
		extensionOf[t] = ExtM
	}
	fExt := []Tag{Flw, Fsw, FmaddS, FmsubS, FnmsubS, FnmaddS, FaddS, FsubS, FmulS, FdivS, FsqrtS,
		FsgnjS, FsgnjnS, FsgnjxS, FminS, FmaxS, FcvtWS, FcvtWuS, FcvtLS, FcvtLuS, FmvXW,
		FeqS, FltS, FleS, FclassS, FcvtSW, FcvtSWu, FcvtSL, FcvtSLu, FmvWX}
	for _, t := range fExt {
		extensionOf[t] = ExtF
	}
	dExt := []Tag{Fld, Fsd, FmaddD, FmsubD, FnmsubD, FnmaddD, FaddD, FsubD, FmulD, FdivD, FsqrtD,
		FsgnjD, FsgnjnD, FsgnjxD, FminD, FmaxD, FcvtWD, FcvtWuD, FcvtLD, FcvtLuD,
		FeqD, FltD, FleD, FclassD, FcvtDW, FcvtDWu, FcvtDL, FcvtDLu, FcvtDS, FcvtSD, FmvXD, FmvDX}
	for _, t := range dExt {
		extensionOf[t] = ExtD
	}
	zicsr := []Tag{Csrrw, Csrrs, Csrrc, Csrrwi, Csrrsi, Csrrci}
	for _, t := range zicsr {
		extensionOf[t] = ExtZicsr
	}
}

// ExtensionOf reports which ISA extension owns a tag. Tags not present
// default to ExtI (the base integer extension, always enabled).
func ExtensionOf(t Tag) Extension {
	if e, ok := extensionOf[t]; ok {
		return e
	}
	return ExtI
}

// IsDouble reports whether a float tag operates on double rather than
// single precision, used to pick the NaN-boxing width on FPR writeback.
func IsDouble(t Tag) bool {
	return ExtensionOf(t) == ExtD
}
