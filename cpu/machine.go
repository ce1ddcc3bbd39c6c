// Package cpu implements the execution driver (spec.md component J):
// fetch/decode/execute/memory/writeback, branch and jump resolution,
// syscall dispatch, breakpoint-aware stepping, and the undo/redo history
// that makes every retired instruction reversible.
package cpu

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"rv64sim/alu"
	"rv64sim/asmparse"
	"rv64sim/config"
	"rv64sim/decode"
	"rv64sim/encoder"
	"rv64sim/isa"
	"rv64sim/memory"
	"rv64sim/regfile"
)

// Machine is the simulator's complete runtime state: registers, memory,
// program counter, breakpoints, and undo/redo history.
type Machine struct {
	Regs *regfile.File
	Mem  *memory.Memory
	Cfg  config.Config

	PC      uint64
	TextEnd uint64

	Halted   bool
	ExitCode int64

	stopRequested bool

	breakpoints map[uint64]bool

	undoStack []*delta
	redoStack []*delta

	InstructionsRetired int64
	Cycles              int64

	Input  *InputQueue
	Stdout io.Writer
	Stderr io.Writer
}

// New returns a freshly reset machine for the given configuration.
func New(cfg config.Config) *Machine {
	m := &Machine{
		Cfg:         cfg,
		breakpoints: make(map[uint64]bool),
		Input:       NewInputQueue(64),
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}
	m.Reset()
	return m
}

// Reset zeroes all architectural state and drops both history stacks
// (spec.md 4.I "reset()").
func (m *Machine) Reset() {
	m.Regs = regfile.New()
	m.Mem = memory.New(m.Cfg.MemorySize, m.Cfg.MemoryBlockSize)
	m.PC = m.Cfg.TextSectionStart
	m.TextEnd = m.Cfg.TextSectionStart
	m.Halted = false
	m.ExitCode = 0
	m.stopRequested = false
	m.undoStack = nil
	m.redoStack = nil
	m.InstructionsRetired = 0
	m.Cycles = 0
}

// Load installs an assembled program's machine code and data image, and
// resets the program counter to the text base.
func (m *Machine) Load(prog *asmparse.Program, words []uint32) error {
	m.Reset()
	addr := prog.TextBase
	for _, w := range words {
		if err := m.Mem.WriteWord(addr, w); err != nil {
			return fmt.Errorf("load: %w", err)
		}
		addr += 4
	}
	m.PC = prog.TextBase
	m.TextEnd = addr

	addr = prog.DataBase
	for _, lit := range prog.Data {
		if err := m.writeLiteral(addr, lit); err != nil {
			return fmt.Errorf("load data: %w", err)
		}
		addr += uint64(lit.Width())
	}
	return nil
}

func (m *Machine) writeLiteral(addr uint64, lit asmparse.Literal) error {
	switch lit.Kind {
	case asmparse.LitU8:
		return m.Mem.WriteByte(addr, lit.U8)
	case asmparse.LitU16:
		return m.Mem.WriteHalfword(addr, lit.U16)
	case asmparse.LitU32:
		return m.Mem.WriteWord(addr, lit.U32)
	case asmparse.LitU64:
		return m.Mem.WriteDoubleword(addr, lit.U64)
	case asmparse.LitString:
		for i, b := range lit.Bytes {
			if err := m.Mem.WriteByte(addr+uint64(i), b); err != nil {
				return err
			}
		}
	}
	return nil
}

// RequestStop sets the monotonic stop flag the run loops test between
// instructions (spec.md section 5).
func (m *Machine) RequestStop() { m.stopRequested = true }

// ClearStop clears the stop flag, allowing a subsequent run() to proceed.
func (m *Machine) ClearStop() { m.stopRequested = false }

// AddBreakpoint installs a breakpoint at a text address.
func (m *Machine) AddBreakpoint(addr uint64) { m.breakpoints[addr] = true }

// RemoveBreakpoint removes a breakpoint at a text address.
func (m *Machine) RemoveBreakpoint(addr uint64) { delete(m.breakpoints, addr) }

// HasBreakpoint reports whether addr carries a breakpoint.
func (m *Machine) HasBreakpoint(addr uint64) bool { return m.breakpoints[addr] }

// Step executes exactly one instruction (spec.md 4.I "step()").
func (m *Machine) Step() ([]Event, error) {
	if m.Halted {
		return []Event{{Status: StatusProgramEnd}}, nil
	}

	word, err := m.Mem.ReadWord(m.PC)
	if err != nil {
		return nil, err
	}
	fetchPC := m.PC
	m.PC += 4

	sig, ok := decode.Decode(word)
	if !ok {
		return nil, fmt.Errorf("illegal instruction at 0x%x: 0x%08x", fetchPC, word)
	}

	d := &delta{OldPC: fetchPC}
	events, err := m.execute(sig, fetchPC, d)
	if err != nil {
		return nil, err
	}
	d.NewPC = m.PC

	m.undoStack = append(m.undoStack, d)
	m.redoStack = nil
	m.InstructionsRetired++
	m.Cycles++

	events = append(events, Event{Status: StatusStepCompleted})
	if m.Halted || m.PC >= m.TextEnd {
		events = append(events, Event{Status: StatusLastInstructionStepped})
	}
	return events, nil
}

// Run executes step() until end-of-text, a stop request, an exit syscall,
// or the configured instruction limit (spec.md 4.I "run()").
func (m *Machine) Run() ([]Event, error) {
	var all []Event
	var retired int64
	for {
		if m.stopRequested || m.Halted || m.PC >= m.TextEnd {
			all = append(all, Event{Status: StatusProgramEnd})
			return all, nil
		}
		if m.Cfg.InstructionExecutionLimit > 0 && retired >= m.Cfg.InstructionExecutionLimit {
			return all, nil
		}
		events, err := m.Step()
		if err != nil {
			return all, err
		}
		all = append(all, events...)
		retired++
		if m.Halted {
			return all, nil
		}
	}
}

// DebugRun performs one step of a debug run (spec.md 4.I "debug_run()"):
// if the current address carries a breakpoint it returns BreakpointHit
// without executing anything, otherwise it executes exactly one
// instruction. The caller owns the loop around it, the per-step delay and
// the instruction limit.
func (m *Machine) DebugRun() ([]Event, error) {
	if m.HasBreakpoint(m.PC) {
		return []Event{{Status: StatusBreakpointHit, Addr: m.PC}}, nil
	}
	events, err := m.Step()
	if err != nil {
		return events, err
	}
	if m.stopRequested || m.Halted || m.PC >= m.TextEnd {
		events = append(events, Event{Status: StatusProgramEnd})
	}
	return events, nil
}

// Undo reverses the last retired instruction (spec.md 4.I "undo()").
func (m *Machine) Undo() Event {
	if len(m.undoStack) == 0 {
		return Event{Status: StatusNoMoreUndo}
	}
	d := m.undoStack[len(m.undoStack)-1]
	m.undoStack = m.undoStack[:len(m.undoStack)-1]
	d.undo(m)
	m.redoStack = append(m.redoStack, d)
	m.InstructionsRetired--
	return Event{Status: StatusUndoCompleted}
}

// Redo replays a previously undone instruction (spec.md 4.I "redo()").
func (m *Machine) Redo() Event {
	if len(m.redoStack) == 0 {
		return Event{Status: StatusNoMoreRedo}
	}
	d := m.redoStack[len(m.redoStack)-1]
	m.redoStack = m.redoStack[:len(m.redoStack)-1]
	d.redo(m)
	m.undoStack = append(m.undoStack, d)
	m.InstructionsRetired++
	return Event{Status: StatusUndoCompleted}
}

func (m *Machine) execute(sig decode.Signals, fetchPC uint64, d *delta) ([]Event, error) {
	dec := sig.Decoded
	tag := dec.Tag

	switch {
	case sig.IsSyscall:
		return m.syscall(d), nil
	case sig.IsBreak:
		return []Event{{Status: StatusBreakpointHit, Addr: fetchPC}}, nil
	case tag == isa.Fence, tag == isa.Fencei:
		return nil, nil
	case sig.IsCSR:
		m.execCSR(tag, dec, d)
		return nil, nil
	case sig.Jump:
		m.execJump(tag, dec, fetchPC, d)
		return nil, nil
	case sig.Branch:
		m.execBranch(tag, dec, fetchPC, d)
		return nil, nil
	case tag == isa.Lui:
		m.writeGPR(d, int(dec.Rd), uint64(dec.Imm))
		return nil, nil
	case tag == isa.Auipc:
		m.writeGPR(d, int(dec.Rd), fetchPC+uint64(dec.Imm))
		return nil, nil
	case sig.MemRead:
		return nil, m.execLoad(tag, dec, d)
	case sig.MemWrite:
		return nil, m.execStore(tag, dec, d)
	case sig.IsFloat:
		m.execFloat(tag, dec, d)
		return nil, nil
	default:
		m.execInt(tag, dec, sig.AluSrc, d)
		return nil, nil
	}
}

func (m *Machine) execInt(tag isa.Tag, dec encoder.Decoded, aluSrc bool, d *delta) {
	a := m.Regs.ReadGPR(int(dec.Rs1))
	var b uint64
	if aluSrc {
		b = uint64(dec.Imm)
	} else {
		b = m.Regs.ReadGPR(int(dec.Rs2))
	}
	result, _ := alu.ExecuteInt(tag, a, b)
	m.writeGPR(d, int(dec.Rd), result)
}

func (m *Machine) execJump(tag isa.Tag, dec encoder.Decoded, fetchPC uint64, d *delta) {
	retAddr := m.PC // already advanced past fetchPC by fetch
	switch tag {
	case isa.Jal:
		m.writeGPR(d, int(dec.Rd), retAddr)
		m.PC = fetchPC + uint64(dec.Imm)
	case isa.Jalr:
		rs1 := m.Regs.ReadGPR(int(dec.Rs1))
		target := (rs1 + uint64(dec.Imm)) &^ 1
		m.writeGPR(d, int(dec.Rd), retAddr)
		m.PC = target
	}
}

func (m *Machine) execBranch(tag isa.Tag, dec encoder.Decoded, fetchPC uint64, d *delta) {
	a := m.Regs.ReadGPR(int(dec.Rs1))
	b := m.Regs.ReadGPR(int(dec.Rs2))
	var taken bool
	switch tag {
	case isa.Beq:
		taken = a == b
	case isa.Bne:
		taken = a != b
	case isa.Blt:
		taken = int64(a) < int64(b)
	case isa.Bge:
		taken = int64(a) >= int64(b)
	case isa.Bltu:
		taken = a < b
	case isa.Bgeu:
		taken = a >= b
	}
	if taken {
		m.PC = fetchPC + uint64(dec.Imm)
	}
}

func (m *Machine) execCSR(tag isa.Tag, dec encoder.Decoded, d *delta) {
	csrAddr := int(dec.Imm)
	old := m.Regs.ReadCSR(csrAddr)
	m.writeGPR(d, int(dec.Rd), old)

	var newVal uint64
	suppress := false
	switch tag {
	case isa.Csrrw:
		newVal = m.Regs.ReadGPR(int(dec.Rs1))
	case isa.Csrrs:
		rs1v := m.Regs.ReadGPR(int(dec.Rs1))
		newVal = old | rs1v
		suppress = dec.Rs1 == 0
	case isa.Csrrc:
		rs1v := m.Regs.ReadGPR(int(dec.Rs1))
		newVal = old &^ rs1v
		suppress = dec.Rs1 == 0
	case isa.Csrrwi:
		newVal = uint64(dec.Rs1)
	case isa.Csrrsi:
		newVal = old | uint64(dec.Rs1)
		suppress = dec.Rs1 == 0
	case isa.Csrrci:
		newVal = old &^ uint64(dec.Rs1)
		suppress = dec.Rs1 == 0
	}
	if !suppress {
		m.writeCSR(d, csrAddr, newVal)
	}
}

// isIntDest reports whether a float-opcode instruction's result lands in
// the integer register file rather than the FP one (conversions, compares,
// fclass, fmv.x.*).
func isIntDest(tag isa.Tag) bool {
	switch tag {
	case isa.FcvtWS, isa.FcvtWuS, isa.FcvtLS, isa.FcvtLuS, isa.FmvXW,
		isa.FeqS, isa.FltS, isa.FleS, isa.FclassS,
		isa.FcvtWD, isa.FcvtWuD, isa.FcvtLD, isa.FcvtLuD,
		isa.FeqD, isa.FltD, isa.FleD, isa.FclassD, isa.FmvXD:
		return true
	default:
		return false
	}
}

func (m *Machine) execFloat(tag isa.Tag, dec encoder.Decoded, d *delta) {
	var a, b uint64
	switch tag {
	case isa.FcvtSL, isa.FcvtSLu:
		// alu.FPExecute's operands are 32 bits wide, so f32FromInt
		// reconstructs the 64-bit GPR source as a (low 32) | b<<32 (high 32).
		gpr := m.Regs.ReadGPR(int(dec.Rs1))
		a = gpr & 0xFFFFFFFF
		b = gpr >> 32
	case isa.FcvtSW, isa.FcvtSWu, isa.FmvWX,
		isa.FcvtDW, isa.FcvtDWu, isa.FcvtDL, isa.FcvtDLu, isa.FmvDX:
		a = m.Regs.ReadGPR(int(dec.Rs1))
	default:
		a = m.Regs.ReadFPR(int(dec.Rs1))
		b = m.Regs.ReadFPR(int(dec.Rs2))
	}
	c := m.Regs.ReadFPR(int(dec.Rs3))
	rm := dec.Rm
	if rm == 7 {
		rm = uint8(m.Regs.ReadCSR(regfile.CsrFrm))
	}

	var result uint64
	var flags uint8
	// fcvt.d.s takes a single-precision source and fcvt.s.d produces a
	// single-precision result, so they pick the ALU and the writeback width
	// by the precision on that side.
	if isa.IsDouble(tag) && tag != isa.FcvtDS {
		result, flags = alu.DFPExecute(tag, a, b, c, rm)
	} else {
		result, flags = alu.FPExecute(tag, uint32(a), uint32(b), uint32(c), rm)
	}
	m.accrueFlags(d, flags)

	if isIntDest(tag) {
		m.writeGPR(d, int(dec.Rd), result)
	} else if isa.IsDouble(tag) && tag != isa.FcvtSD {
		m.writeFPR(d, int(dec.Rd), result)
	} else {
		m.writeFPR(d, int(dec.Rd), regfile.NanBox32(uint32(result)))
	}
}

func (m *Machine) accrueFlags(d *delta, flags uint8) {
	if flags == 0 {
		return
	}
	old := m.Regs.ReadCSR(regfile.CsrFflags)
	newVal := old | uint64(flags)
	if newVal != old {
		m.writeCSR(d, regfile.CsrFflags, newVal)
	}
	frm := m.Regs.ReadCSR(regfile.CsrFrm)
	m.writeCSR(d, regfile.CsrFcsr, (frm<<5)|newVal&0x1f)
}

func (m *Machine) execLoad(tag isa.Tag, dec encoder.Decoded, d *delta) error {
	addr := m.Regs.ReadGPR(int(dec.Rs1)) + uint64(dec.Imm)
	n := loadWidth(tag)
	raw, err := m.loadBytes(addr, n)
	if err != nil {
		return err
	}
	switch tag {
	case isa.Lb:
		m.writeGPR(d, int(dec.Rd), uint64(int64(int8(raw))))
	case isa.Lh:
		m.writeGPR(d, int(dec.Rd), uint64(int64(int16(raw))))
	case isa.Lw:
		m.writeGPR(d, int(dec.Rd), uint64(int64(int32(raw))))
	case isa.Lbu, isa.Lhu, isa.Lwu:
		m.writeGPR(d, int(dec.Rd), raw)
	case isa.Ld:
		m.writeGPR(d, int(dec.Rd), raw)
	case isa.Flw:
		m.writeFPR(d, int(dec.Rd), regfile.NanBox32(uint32(raw)))
	case isa.Fld:
		m.writeFPR(d, int(dec.Rd), raw)
	}
	return nil
}

func (m *Machine) execStore(tag isa.Tag, dec encoder.Decoded, d *delta) error {
	addr := m.Regs.ReadGPR(int(dec.Rs1)) + uint64(dec.Imm)
	var value uint64
	switch tag {
	case isa.Fsw, isa.Fsd:
		value = m.Regs.ReadFPR(int(dec.Rd)) // store-value operand parsed into Rd; see asmparse.tryShape
	default:
		value = m.Regs.ReadGPR(int(dec.Rs2))
	}
	n := storeWidth(tag)
	return m.storeBytes(d, addr, widthBytes(value, n))
}

func loadWidth(tag isa.Tag) int {
	switch tag {
	case isa.Lb, isa.Lbu:
		return 1
	case isa.Lh, isa.Lhu:
		return 2
	case isa.Lw, isa.Lwu, isa.Flw:
		return 4
	default:
		return 8
	}
}

func storeWidth(tag isa.Tag) int {
	switch tag {
	case isa.Sb:
		return 1
	case isa.Sh:
		return 2
	case isa.Sw, isa.Fsw:
		return 4
	default:
		return 8
	}
}

func widthBytes(v uint64, n int) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return append([]byte(nil), b[:n]...)
}

func (m *Machine) loadBytes(addr uint64, n int) (uint64, error) {
	buf := make([]byte, 8)
	for i := 0; i < n; i++ {
		b, err := m.Mem.ReadByte(addr + uint64(i))
		if err != nil {
			return 0, err
		}
		buf[i] = b
	}
	return binary.LittleEndian.Uint64(buf), nil
}

func (m *Machine) storeBytes(d *delta, addr uint64, newBytes []byte) error {
	old := make([]byte, len(newBytes))
	for i := range newBytes {
		b, err := m.Mem.ReadByte(addr + uint64(i))
		if err != nil {
			return err
		}
		old[i] = b
	}
	for i, b := range newBytes {
		if err := m.Mem.WriteByte(addr+uint64(i), b); err != nil {
			return err
		}
	}
	d.Mem = append(d.Mem, memWrite{Addr: addr, Old: old, New: append([]byte(nil), newBytes...)})
	return nil
}

func (m *Machine) writeGPR(d *delta, idx int, v uint64) {
	if idx == 0 {
		return
	}
	old := m.Regs.ReadGPR(idx)
	m.Regs.WriteGPR(idx, v)
	d.addReg('i', idx, old, v)
}

func (m *Machine) writeFPR(d *delta, idx int, v uint64) {
	old := m.Regs.ReadFPR(idx)
	m.Regs.WriteFPR(idx, v)
	d.addReg('f', idx, old, v)
}

func (m *Machine) writeCSR(d *delta, idx int, v uint64) {
	old := m.Regs.ReadCSR(idx)
	m.Regs.WriteCSR(idx, v)
	d.addReg('c', idx, old, v)
}
