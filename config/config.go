// Package config holds the simulator's startup configuration: memory
// layout, section base addresses, extension toggles, and the execution
// limits the shell surfaces as run-time knobs (spec.md 6 "configuration").
package config

// Defaults mirror spec.md 6's named constants.
const (
	DefaultMemorySize      = 1 << 24 // 16 MiB
	DefaultMemoryBlockSize = 1024
	DefaultTextSectionStart = 0x00000000
	DefaultDataSectionStart = 0x10000000
	DefaultBssSectionStart  = 0x11000000
	DefaultInstructionLimit = 1_000_000
)

// ProcessorType selects the pipeline-timing model the execution driver
// would charge cycles against; pipeline-stage timing itself is out of
// scope (spec.md Non-goals), so this field is carried but never branched
// on.
type ProcessorType string

const (
	ProcessorSingleStage ProcessorType = "single_stage"
	ProcessorMultiStage  ProcessorType = "multi_stage"
)

// Config is the simulator's one configuration object, constructed once at
// startup and threaded read-only into the assembler and machine.
type Config struct {
	ProcessorType ProcessorType

	MemorySize      uint64
	MemoryBlockSize uint64

	TextSectionStart uint64
	DataSectionStart uint64
	BssSectionStart  uint64

	// RunStepDelay is an optional artificial delay (milliseconds) the shell's
	// debug_run loop sleeps between steps, for watching execution live.
	RunStepDelay int64

	// InstructionExecutionLimit bounds a single run()/debug_run() call so a
	// runaway program (infinite loop, missing ecall exit) cannot hang the
	// shell forever.
	InstructionExecutionLimit int64

	MExtensionEnabled bool
	FExtensionEnabled bool
	DExtensionEnabled bool
}

// Default returns the simulator's out-of-the-box configuration.
func Default() Config {
	return Config{
		ProcessorType:   ProcessorSingleStage,
		MemorySize:      DefaultMemorySize,
		MemoryBlockSize: DefaultMemoryBlockSize,

		TextSectionStart: DefaultTextSectionStart,
		DataSectionStart: DefaultDataSectionStart,
		BssSectionStart:  DefaultBssSectionStart,

		InstructionExecutionLimit: DefaultInstructionLimit,

		MExtensionEnabled: true,
		FExtensionEnabled: true,
		DExtensionEnabled: true,
	}
}
