package config

import "testing"

func TestDefaultMatchesNamedConstants(t *testing.T) {
	c := Default()
	if c.ProcessorType != ProcessorSingleStage {
		t.Fatalf("got processor type %q, want %q", c.ProcessorType, ProcessorSingleStage)
	}
	if c.MemorySize != DefaultMemorySize {
		t.Fatalf("got memory size %d, want %d", c.MemorySize, DefaultMemorySize)
	}
	if c.TextSectionStart != 0 || c.DataSectionStart != 0x10000000 || c.BssSectionStart != 0x11000000 {
		t.Fatalf("got sections (text=0x%x data=0x%x bss=0x%x), want (0x0, 0x10000000, 0x11000000)",
			c.TextSectionStart, c.DataSectionStart, c.BssSectionStart)
	}
	if !c.MExtensionEnabled || !c.FExtensionEnabled || !c.DExtensionEnabled {
		t.Fatal("default config should enable M, F, and D extensions")
	}
	if c.InstructionExecutionLimit != DefaultInstructionLimit {
		t.Fatalf("got instruction limit %d, want %d", c.InstructionExecutionLimit, DefaultInstructionLimit)
	}
}
