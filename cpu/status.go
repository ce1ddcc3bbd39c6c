package cpu

// Status is a one-line tag the core reports after each driver operation
// (spec.md 6 "Status events"), mirroring the vm package's status-string
// convention but widened to the full set the execution driver needs.
type Status string

const (
	StatusStarted               Status = "VM_STARTED"
	StatusStepCompleted         Status = "VM_STEP_COMPLETED"
	StatusLastInstructionStepped Status = "VM_LAST_INSTRUCTION_STEPPED"
	StatusProgramEnd            Status = "VM_PROGRAM_END"
	StatusBreakpointHit         Status = "VM_BREAKPOINT_HIT"
	StatusUndoCompleted         Status = "VM_UNDO_COMPLETED"
	StatusNoMoreUndo            Status = "VM_NO_MORE_UNDO"
	StatusNoMoreRedo            Status = "VM_NO_MORE_REDO"
	StatusExit                  Status = "VM_EXIT"
	StatusStdoutStart           Status = "VM_STDOUT_START"
	StatusStdoutEnd             Status = "VM_STDOUT_END"
	StatusStdinStart            Status = "VM_STDIN_START"
	StatusStdinEnd               Status = "VM_STDIN_END"
)

// Event pairs a status tag with whatever context it carries (a breakpoint
// address, an exit code).
type Event struct {
	Status Status
	Addr   uint64
	Code   int64
}
