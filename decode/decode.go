// Package decode implements the control/decode unit (spec.md 4.G,
// component I): it derives datapath control signals and an ALU operation
// selector from an already-fetched word, using the same static isa tables
// the parser and encoder consult so no second source of truth exists for
// instruction identity.
package decode

import (
	"rv64sim/encoder"
	"rv64sim/isa"
)

// Signals is the control word the execution driver reads off a decoded
// instruction before dispatching to the ALU and memory stages.
type Signals struct {
	Decoded encoder.Decoded

	RegWrite bool
	MemRead  bool
	MemWrite bool
	AluSrc   bool // true: second ALU operand is the immediate, not rs2
	Branch   bool // conditional branch (resolved against ALU/compare result)
	Jump     bool // unconditional control transfer (jal/jalr)

	IsFloat    bool // operands/result live in the FPR file, not GPR
	IsDouble   bool // double- rather than single-precision float op
	IsCSR      bool
	IsSyscall  bool // ecall
	IsBreak    bool // ebreak

	AluOp isa.Tag // the operation to hand to alu.ExecuteInt/FPExecute/DFPExecute
}

// Decode derives control signals for one fetched word. ok is false when the
// word doesn't match any known encoding (spec.md 4.H step 1's illegal
// instruction case).
func Decode(word uint32) (Signals, bool) {
	d, ok := encoder.Decode(word)
	if !ok {
		return Signals{}, false
	}

	s := Signals{Decoded: d, AluOp: d.Tag}
	s.IsDouble = isa.IsDouble(d.Tag)
	s.IsFloat = isa.ExtensionOf(d.Tag) == isa.ExtF || isa.ExtensionOf(d.Tag) == isa.ExtD

	switch d.Tag {
	case isa.Sb, isa.Sh, isa.Sw, isa.Sd, isa.Fsw, isa.Fsd:
		s.MemWrite = true
		s.AluSrc = true
	case isa.Lb, isa.Lh, isa.Lw, isa.Lbu, isa.Lhu, isa.Lwu, isa.Ld, isa.Flw, isa.Fld:
		s.MemRead = true
		s.AluSrc = true
		s.RegWrite = true
	case isa.Beq, isa.Bne, isa.Blt, isa.Bge, isa.Bltu, isa.Bgeu:
		s.Branch = true
	case isa.Jal, isa.Jalr:
		s.Jump = true
		s.RegWrite = true
		if d.Tag == isa.Jalr {
			s.AluSrc = true
		}
	case isa.Lui, isa.Auipc:
		s.RegWrite = true
	case isa.Ecall:
		s.IsSyscall = true
	case isa.Ebreak:
		s.IsBreak = true
	case isa.Fence, isa.Fencei:
		// no-ops (spec.md 4.C.Non-goals): no control signals asserted.
	case isa.Csrrw, isa.Csrrs, isa.Csrrc, isa.Csrrwi, isa.Csrrsi, isa.Csrrci:
		s.IsCSR = true
		s.RegWrite = true
	default:
		// Remaining R/R4/I-format arithmetic, logic, shift, and FP compute
		// instructions (integer OP/OP-IMM, M-extension, all non-load/store
		// OP-FP forms, fused multiply-add): all write a result register,
		// and I-format forms take their second operand from the immediate.
		s.RegWrite = true
		if isa.FormatOf(d.Tag) == isa.FormatI {
			s.AluSrc = true
		}
	}
	return s, true
}
