package cpu

import (
	"fmt"
	"math"
	"strconv"
)

// Syscall numbers the core recognizes (spec.md 4.J).
const (
	SysPrintInt    = 1
	SysPrintFloat  = 2
	SysPrintDouble = 3
	SysPrintString = 4
	SysReadLine    = 5
	SysWrite       = 6
	SysExit        = 93
)

// InputQueue is a bounded FIFO of text lines the host submits and the
// read-line syscall blocks to consume, the single permitted cross-thread
// handoff point (spec.md section 5), grounded on the teacher's device
// request/response channel pattern (vm/devices.go's nonBlockingChan) but
// simplified to the one direction this core needs.
type InputQueue struct {
	lines chan string
}

// NewInputQueue returns a queue with the given line capacity.
func NewInputQueue(capacity int) *InputQueue {
	return &InputQueue{lines: make(chan string, capacity)}
}

// Submit enqueues a line from outside the execution thread. It never blocks
// the caller past the queue's capacity bound.
func (q *InputQueue) Submit(line string) {
	q.lines <- line
}

// Take blocks until a line is available, called from inside the read-line
// syscall handler.
func (q *InputQueue) Take() string {
	return <-q.lines
}

// syscall dispatches one ecall. It returns the events to report (stdout/
// stdin delimiters) and records every memory byte it touches into the
// current delta so undo can reverse it (spec.md 4.J last paragraph).
func (m *Machine) syscall(d *delta) []Event {
	a7 := m.Regs.ReadGPR(17)
	a0 := m.Regs.ReadGPR(10)
	a1 := m.Regs.ReadGPR(11)
	a2 := m.Regs.ReadGPR(12)

	var events []Event
	switch a7 {
	case SysPrintInt:
		events = append(events, Event{Status: StatusStdoutStart})
		fmt.Fprintf(m.Stdout, "%d", int64(a0))
		events = append(events, Event{Status: StatusStdoutEnd})

	case SysPrintFloat:
		events = append(events, Event{Status: StatusStdoutStart})
		f := math.Float32frombits(uint32(a0))
		fmt.Fprint(m.Stdout, strconv.FormatFloat(float64(f), 'g', -1, 32))
		events = append(events, Event{Status: StatusStdoutEnd})

	case SysPrintDouble:
		events = append(events, Event{Status: StatusStdoutStart})
		f := math.Float64frombits(a0)
		fmt.Fprint(m.Stdout, strconv.FormatFloat(f, 'g', -1, 64))
		events = append(events, Event{Status: StatusStdoutEnd})

	case SysPrintString:
		events = append(events, Event{Status: StatusStdoutStart})
		addr := a0
		for {
			b, err := m.Mem.ReadByte(addr)
			if err != nil || b == 0 {
				break
			}
			fmt.Fprintf(m.Stdout, "%c", b)
			addr++
		}
		events = append(events, Event{Status: StatusStdoutEnd})

	case SysReadLine:
		events = append(events, Event{Status: StatusStdinStart})
		line := m.Input.Take()
		n := copyLineToMemory(m, d, a1, a2, line)
		m.writeGPR(d, 10, uint64(n))
		events = append(events, Event{Status: StatusStdinEnd})

	case SysWrite:
		events = append(events, Event{Status: StatusStdoutStart})
		var n int
		for i := uint64(0); i < a2; i++ {
			b, err := m.Mem.ReadByte(a1 + i)
			if err != nil {
				break
			}
			fmt.Fprintf(m.Stdout, "%c", b)
			n++
		}
		m.writeGPR(d, 10, uint64(n))
		events = append(events, Event{Status: StatusStdoutEnd})

	case SysExit:
		m.Halted = true
		m.ExitCode = int64(a0)
		events = append(events, Event{Status: StatusExit, Code: int64(a0)})

	default:
		fmt.Fprintf(m.Stderr, "warning: unknown syscall number %d\n", a7)
	}
	return events
}

// copyLineToMemory writes up to maxLen bytes of line into guest memory at
// addr, NUL-terminating if room remains, tracking the overwritten bytes in
// d for undo.
func copyLineToMemory(m *Machine, d *delta, addr, maxLen uint64, line string) int {
	b := []byte(line)
	n := len(b)
	if uint64(n) > maxLen {
		n = int(maxLen)
	}
	old := make([]byte, 0, n+1)
	for i := 0; i < n; i++ {
		prev, _ := m.Mem.ReadByte(addr + uint64(i))
		old = append(old, prev)
		m.Mem.WriteByte(addr+uint64(i), b[i])
	}
	if uint64(n) < maxLen {
		prev, _ := m.Mem.ReadByte(addr + uint64(n))
		old = append(old, prev)
		m.Mem.WriteByte(addr+uint64(n), 0)
	}
	d.Mem = append(d.Mem, memWrite{Addr: addr, Old: old, New: readBack(m, addr, len(old))})
	return n
}

func readBack(m *Machine, addr uint64, n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i], _ = m.Mem.ReadByte(addr + uint64(i))
	}
	return out
}
