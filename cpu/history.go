package cpu

// memWrite captures one store's before/after bytes so undo can restore the
// exact prior content without needing whole-memory snapshots.
type memWrite struct {
	Addr uint64
	Old  []byte
	New  []byte
}

// regWrite captures one register write's prior value. Kind distinguishes
// which file Index belongs to.
type regWrite struct {
	Kind byte // 'i' = GPR, 'f' = FPR, 'c' = CSR
	Index int
	Old   uint64
	New   uint64
}

// delta is everything one retired instruction changed: the architectural
// diff spec.md 4.H step 7 says to push onto the undo stack.
type delta struct {
	OldPC uint64
	NewPC uint64
	Regs  []regWrite
	Mem   []memWrite
}

func (d *delta) addReg(kind byte, index int, old, new_ uint64) {
	if old == new_ {
		return
	}
	d.Regs = append(d.Regs, regWrite{Kind: kind, Index: index, Old: old, New: new_})
}

// undo reverts this delta's effects on m, restoring old PC.
func (d *delta) undo(m *Machine) {
	for i := len(d.Regs) - 1; i >= 0; i-- {
		r := d.Regs[i]
		writeReg(m, r.Kind, r.Index, r.Old)
	}
	for i := len(d.Mem) - 1; i >= 0; i-- {
		w := d.Mem[i]
		for j, b := range w.Old {
			m.Mem.WriteByte(w.Addr+uint64(j), b)
		}
	}
	m.PC = d.OldPC
}

// redo replays this delta's effects on m, restoring new PC.
func (d *delta) redo(m *Machine) {
	for _, r := range d.Regs {
		writeReg(m, r.Kind, r.Index, r.New)
	}
	for _, w := range d.Mem {
		for j, b := range w.New {
			m.Mem.WriteByte(w.Addr+uint64(j), b)
		}
	}
	m.PC = d.NewPC
}

func writeReg(m *Machine, kind byte, index int, v uint64) {
	switch kind {
	case 'i':
		m.Regs.WriteGPR(index, v)
	case 'f':
		m.Regs.WriteFPR(index, v)
	case 'c':
		m.Regs.WriteCSR(index, v)
	}
}
