// Command rvsim is the external shell collaborator referenced throughout
// spec.md section 6: a line-oriented command loop that assembles, loads,
// runs, and inspects one machine, reporting the core's status tags back
// to the caller one per line.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"rv64sim/asmparse"
	"rv64sim/config"
	"rv64sim/cpu"
	"rv64sim/encoder"
)

// snapshot is the structured state dump spec.md section 6 "Persisted
// state" names: {pc, cycles, instructions_retired, gpr[32], fpr[32],
// csr[...], status_tag}.
type snapshot struct {
	PC                 uint64            `json:"pc"`
	Cycles             int64             `json:"cycles"`
	InstructionsRetired int64            `json:"instructions_retired"`
	GPR                [32]uint64        `json:"gpr"`
	FPR                [32]uint64        `json:"fpr"`
	CSR                map[string]uint64 `json:"csr"`
	StatusTag          string            `json:"status_tag"`
}

func main() {
	m := cpu.New(config.Default())
	sh := &shell{m: m, out: os.Stdout, lineMap: map[int]uint64{}}

	scanner := bufio.NewScanner(os.Stdin)
	sh.emit(cpu.Event{Status: cpu.StatusStarted})
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !sh.dispatch(line) {
			return
		}
	}
}

type shell struct {
	m       *cpu.Machine
	out     *os.File
	lineMap map[int]uint64
}

// dispatch runs one command line. It returns false when the shell should
// exit (the "exit" command).
func (sh *shell) dispatch(line string) bool {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "load":
		sh.cmdLoad(args)
	case "run":
		sh.cmdRun()
	case "debug":
		sh.cmdDebug()
	case "step":
		sh.cmdStep()
	case "undo":
		sh.emit(sh.m.Undo())
	case "redo":
		sh.emit(sh.m.Redo())
	case "reset":
		sh.m.Reset()
		sh.lineMap = map[int]uint64{}
		sh.emit(cpu.Event{Status: cpu.StatusStarted})
	case "add_breakpoint":
		sh.cmdBreakpoint(args, true)
	case "remove_breakpoint":
		sh.cmdBreakpoint(args, false)
	case "modify_register":
		sh.cmdModifyRegister(args)
	case "dump_mem":
		sh.cmdMem(args, true)
	case "print_mem":
		sh.cmdMem(args, false)
	case "exit":
		sh.cmdDump("state")
		sh.emit(cpu.Event{Status: cpu.StatusExit})
		return false
	default:
		fmt.Fprintf(sh.out, "unknown command: %s\n", cmd)
	}
	return true
}

func (sh *shell) cmdLoad(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(sh.out, "usage: load <path>")
		return
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(sh.out, "error:", err)
		return
	}
	opts := asmparse.DefaultOptions()
	opts.TextSectionStart = sh.m.Cfg.TextSectionStart
	opts.DataSectionStart = sh.m.Cfg.DataSectionStart
	opts.BssSectionStart = sh.m.Cfg.BssSectionStart
	prog, diags := asmparse.Parse(args[0], string(src), opts)
	if diags.Failed() {
		fmt.Fprint(sh.out, diags.Render())
		return
	}
	words, encDiags := encoder.Encode(prog)
	if encDiags.Failed() {
		fmt.Fprint(sh.out, encDiags.Render())
		return
	}
	if err := sh.m.Load(prog, words); err != nil {
		fmt.Fprintln(sh.out, "error:", err)
		return
	}
	sh.lineMap = buildLineMap(prog)
	sh.emit(cpu.Event{Status: cpu.StatusStarted})
}

func buildLineMap(prog *asmparse.Program) map[int]uint64 {
	m := make(map[int]uint64, len(prog.Units))
	addr := prog.TextBase
	for _, u := range prog.Units {
		m[u.SourceLine] = addr
		addr += 4
	}
	return m
}

func (sh *shell) cmdRun() {
	events, err := sh.m.Run()
	sh.emitAll(events)
	if err != nil {
		fmt.Fprintln(sh.out, "error:", err)
	}
}

func (sh *shell) cmdDebug() {
	var retired int64
	for {
		if limit := sh.m.Cfg.InstructionExecutionLimit; limit > 0 && retired >= limit {
			return
		}
		events, err := sh.m.DebugRun()
		sh.emitAll(events)
		if err != nil {
			fmt.Fprintln(sh.out, "error:", err)
			return
		}
		retired++
		if sh.m.Halted || sh.m.PC >= sh.m.TextEnd {
			return
		}
		for _, ev := range events {
			if ev.Status == cpu.StatusBreakpointHit {
				return
			}
		}
		if sh.m.Cfg.RunStepDelay > 0 {
			time.Sleep(time.Duration(sh.m.Cfg.RunStepDelay) * time.Millisecond)
		}
	}
}

func (sh *shell) cmdStep() {
	events, err := sh.m.Step()
	sh.emitAll(events)
	if err != nil {
		fmt.Fprintln(sh.out, "error:", err)
	}
}

func (sh *shell) cmdBreakpoint(args []string, add bool) {
	if len(args) != 1 {
		fmt.Fprintln(sh.out, "usage: add_breakpoint|remove_breakpoint <address-or-line>")
		return
	}
	addr, ok := sh.resolveBreakpointArg(args[0])
	if !ok {
		fmt.Fprintln(sh.out, "unknown line or address:", args[0])
		return
	}
	if add {
		sh.m.AddBreakpoint(addr)
	} else {
		sh.m.RemoveBreakpoint(addr)
	}
}

// resolveBreakpointArg accepts either a byte address (0x-prefixed or
// decimal) or a source line number, consulting the line->address map the
// last load() built (spec.md 6 "Breakpoint addresses").
func (sh *shell) resolveBreakpointArg(arg string) (uint64, bool) {
	if addr, ok := sh.lineMap[mustAtoi(arg)]; ok {
		return addr, true
	}
	v, err := strconv.ParseUint(arg, 0, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func (sh *shell) cmdModifyRegister(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(sh.out, "usage: modify_register <name> <value>")
		return
	}
	v, err := strconv.ParseUint(args[1], 0, 64)
	if err != nil {
		fmt.Fprintln(sh.out, "error:", err)
		return
	}
	if err := sh.m.Regs.ModifyByName(args[0], v); err != nil {
		fmt.Fprintln(sh.out, "error:", err)
	}
}

func (sh *shell) cmdMem(args []string, persist bool) {
	if len(args) < 2 {
		fmt.Fprintln(sh.out, "usage: dump_mem|print_mem <address> <rows> [address rows ...]")
		return
	}
	for i := 0; i+1 < len(args); i += 2 {
		addr, err := strconv.ParseUint(args[i], 0, 64)
		if err != nil {
			fmt.Fprintln(sh.out, "error:", err)
			continue
		}
		rows, err := strconv.Atoi(args[i+1])
		if err != nil {
			fmt.Fprintln(sh.out, "error:", err)
			continue
		}
		text := sh.m.Mem.Dump(addr, rows)
		if persist {
			if err := os.WriteFile(memDumpPath(addr), []byte(text), 0o644); err != nil {
				fmt.Fprintln(sh.out, "error:", err)
			}
			continue
		}
		fmt.Fprint(sh.out, text)
	}
}

func memDumpPath(addr uint64) string {
	return fmt.Sprintf("rvsim-mem-0x%08x.dump", addr)
}

// cmdDump writes the overall VM-state snapshot spec.md section 6
// "Persisted state" names, in JSON since the serialization collaborator
// isn't otherwise constrained by the spec.
func (sh *shell) cmdDump(tag string) {
	snap := snapshot{
		PC:                  sh.m.PC,
		Cycles:              sh.m.Cycles,
		InstructionsRetired: sh.m.InstructionsRetired,
		CSR:                 map[string]uint64{},
		StatusTag:           tag,
	}
	for i := 0; i < 32; i++ {
		snap.GPR[i] = sh.m.Regs.ReadGPR(i)
		snap.FPR[i] = sh.m.Regs.ReadFPR(i)
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		fmt.Fprintln(sh.out, "error:", err)
		return
	}
	if err := os.WriteFile("rvsim-state.json", b, 0o644); err != nil {
		fmt.Fprintln(sh.out, "error:", err)
	}
}

func (sh *shell) emit(ev cpu.Event) {
	switch ev.Status {
	case cpu.StatusBreakpointHit:
		fmt.Fprintf(sh.out, "%s 0x%x\n", ev.Status, ev.Addr)
	case cpu.StatusExit:
		fmt.Fprintf(sh.out, "%s %d\n", ev.Status, ev.Code)
	default:
		fmt.Fprintln(sh.out, ev.Status)
	}
}

func (sh *shell) emitAll(events []cpu.Event) {
	for _, ev := range events {
		sh.emit(ev)
	}
}
