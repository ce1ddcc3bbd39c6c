package cpu

import (
	"math"
	"strings"
	"testing"

	"rv64sim/asmparse"
	"rv64sim/config"
	"rv64sim/encoder"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func assembleAndLoad(t *testing.T, source string) *Machine {
	t.Helper()
	prog, diags := asmparse.Parse("test.s", source, asmparse.DefaultOptions())
	assert(t, !diags.Failed(), "parse failed: %s", diags.Render())

	words, encDiags := encoder.Encode(prog)
	assert(t, !encDiags.Failed(), "encode failed: %s", encDiags.Render())

	m := New(config.Default())
	err := m.Load(prog, words)
	assert(t, err == nil, "load failed: %v", err)
	return m
}

func TestStepArithmetic(t *testing.T) {
	m := assembleAndLoad(t, `
		addi x1, x0, 5
		addi x2, x0, 7
		add  x3, x1, x2
	`)
	for i := 0; i < 3; i++ {
		_, err := m.Step()
		assert(t, err == nil, "step %d: %v", i, err)
	}
	assert(t, m.Regs.ReadGPR(3) == 12, "x3: got %d, want 12", m.Regs.ReadGPR(3))
}

func TestRunStopsAtProgramEnd(t *testing.T) {
	m := assembleAndLoad(t, `
		addi x1, x0, 1
		addi x1, x1, 1
		addi x1, x1, 1
	`)
	events, err := m.Run()
	assert(t, err == nil, "run: %v", err)
	assert(t, m.Regs.ReadGPR(1) == 3, "x1: got %d, want 3", m.Regs.ReadGPR(1))

	found := false
	for _, ev := range events {
		if ev.Status == StatusProgramEnd {
			found = true
		}
	}
	assert(t, found, "expected VM_PROGRAM_END among run events")
}

func TestUndoRedoReversesArchitecturalState(t *testing.T) {
	m := assembleAndLoad(t, `
		addi x1, x0, 5
		addi x1, x1, 10
	`)
	_, err := m.Step()
	assert(t, err == nil, "step 1: %v", err)
	_, err = m.Step()
	assert(t, err == nil, "step 2: %v", err)
	assert(t, m.Regs.ReadGPR(1) == 15, "x1 after two steps: got %d, want 15", m.Regs.ReadGPR(1))

	ev := m.Undo()
	assert(t, ev.Status == StatusUndoCompleted, "undo: got %s", ev.Status)
	assert(t, m.Regs.ReadGPR(1) == 5, "x1 after undo: got %d, want 5", m.Regs.ReadGPR(1))

	ev = m.Redo()
	assert(t, ev.Status == StatusUndoCompleted, "redo: got %s", ev.Status)
	assert(t, m.Regs.ReadGPR(1) == 15, "x1 after redo: got %d, want 15", m.Regs.ReadGPR(1))

	// Undo twice more, then a third time should report no-more-undo.
	m.Undo()
	m.Undo()
	ev = m.Undo()
	assert(t, ev.Status == StatusNoMoreUndo, "undo past bottom: got %s", ev.Status)
}

func TestBranchAndJumpResolveToFetchPC(t *testing.T) {
	m := assembleAndLoad(t, `
		addi x1, x0, 0
		jal  x5, skip
		addi x1, x0, 99
	skip:
		addi x2, x0, 1
	`)
	_, err := m.Run()
	assert(t, err == nil, "run: %v", err)
	assert(t, m.Regs.ReadGPR(1) == 0, "x1 should never be written (jal skips over it): got %d", m.Regs.ReadGPR(1))
	assert(t, m.Regs.ReadGPR(2) == 1, "x2: got %d, want 1", m.Regs.ReadGPR(2))
	assert(t, m.Regs.ReadGPR(5) == 8, "x5 (return address): got %d, want 8", m.Regs.ReadGPR(5))
}

func TestLoadStoreRoundTrip(t *testing.T) {
	m := assembleAndLoad(t, `
		addi x1, x0, 1000
		addi x2, x0, 42
		sw   x2, 0(x1)
		lw   x3, 0(x1)
	`)
	_, err := m.Run()
	assert(t, err == nil, "run: %v", err)
	assert(t, m.Regs.ReadGPR(3) == 42, "x3: got %d, want 42", m.Regs.ReadGPR(3))
}

func TestFcvtSWReadsGPRSource(t *testing.T) {
	m := assembleAndLoad(t, `
		addi      x1, x0, 42
		fcvt.s.w  f1, x1
		fmv.x.w   x2, f1
	`)
	_, err := m.Run()
	assert(t, err == nil, "run: %v", err)
	f := math.Float32frombits(uint32(m.Regs.ReadFPR(1)))
	assert(t, f == 42, "f1 after fcvt.s.w: got %v, want 42", f)
	assert(t, m.Regs.ReadGPR(2) == uint64(math.Float32bits(42)), "x2 after fmv.x.w (raw bits of 42.0): got 0x%x, want 0x%x", m.Regs.ReadGPR(2), math.Float32bits(42))
}

func TestFmvWXMovesRawGPRBitsIntoFPR(t *testing.T) {
	m := assembleAndLoad(t, `
		addi     x1, x0, 1
		fmv.w.x  f1, x1
	`)
	_, err := m.Run()
	assert(t, err == nil, "run: %v", err)
	assert(t, uint32(m.Regs.ReadFPR(1)) == 1, "f1 raw bits: got 0x%x, want 0x1", uint32(m.Regs.ReadFPR(1)))
}

func TestCSRWriteSuppressionOnZeroSource(t *testing.T) {
	m := assembleAndLoad(t, `
		csrrwi x1, fflags, 5
		csrrs  x2, fflags, x0
	`)
	_, err := m.Run()
	assert(t, err == nil, "run: %v", err)
	assert(t, m.Regs.ReadGPR(2) == 5, "fflags should be unchanged (5) after csrrs x0: got %d", m.Regs.ReadGPR(2))
}

func TestInputQueueBlocksUntilSubmit(t *testing.T) {
	q := NewInputQueue(1)
	done := make(chan string, 1)
	go func() { done <- q.Take() }()
	q.Submit("hello")
	line := <-done
	assert(t, line == "hello", "got %q, want hello", line)
}

func TestDisassembleSmokeOverLoadedProgram(t *testing.T) {
	m := assembleAndLoad(t, `addi x1, x0, 1`)
	word, err := m.Mem.ReadWord(m.Cfg.TextSectionStart)
	assert(t, err == nil, "read word: %v", err)
	text, ok := encoder.Disassemble(word)
	assert(t, ok, "disassemble failed for loaded word 0x%08x", word)
	assert(t, strings.Contains(text, "addi"), "got %q, want it to mention addi", text)
}
