// Package regfile implements the simulator's register file (spec.md
// component B): 32 integer registers, 32 floating-point registers, and a
// 4096-entry CSR space, plus ABI-alias resolution.
package regfile

import "fmt"

const (
	NumGPR = 32
	NumFPR = 32
	NumCSR = 4096
)

// CSR addresses the core actually implements (spec.md data model).
const (
	CsrFflags = 0x001
	CsrFrm    = 0x002
	CsrFcsr   = 0x003
)

// File is the architectural register state. Integer register 0 always
// reads as zero and silently discards writes (spec.md invariant).
type File struct {
	gpr [NumGPR]uint64
	fpr [NumFPR]uint64
	csr [NumCSR]uint64
}

// New returns a register file in its reset state.
func New() *File {
	f := &File{}
	f.Reset()
	return f
}

// Reset zeroes every register, then sets frm to round-to-nearest-even (0),
// matching spec.md's register-file invariant.
func (f *File) Reset() {
	for i := range f.gpr {
		f.gpr[i] = 0
	}
	for i := range f.fpr {
		f.fpr[i] = 0
	}
	for i := range f.csr {
		f.csr[i] = 0
	}
	f.csr[CsrFrm] = 0
}

// ReadGPR reads integer register i. Register 0 always reads zero.
func (f *File) ReadGPR(i int) uint64 {
	if i == 0 {
		return 0
	}
	return f.gpr[i]
}

// WriteGPR writes integer register i. Writes to register 0 are discarded.
func (f *File) WriteGPR(i int, v uint64) {
	if i == 0 {
		return
	}
	f.gpr[i] = v
}

// ReadFPR reads the raw 64-bit pattern of floating-point register i.
func (f *File) ReadFPR(i int) uint64 {
	return f.fpr[i]
}

// WriteFPR writes the raw 64-bit pattern of floating-point register i.
func (f *File) WriteFPR(i int, v uint64) {
	f.fpr[i] = v
}

// ReadCSR reads control/status register i.
func (f *File) ReadCSR(i int) uint64 {
	return f.csr[i]
}

// WriteCSR writes control/status register i.
func (f *File) WriteCSR(i int, v uint64) {
	f.csr[i] = v
}

// NanBox32 packs an f32 bit pattern into a NaN-boxed 64-bit FPR value: the
// upper 32 bits are set to all-ones so the value reads back as a NaN (a
// negative quiet NaN, since the top mantissa bit is set) if ever
// misinterpreted as f64 (spec.md GLOSSARY "NaN-boxing").
func NanBox32(bits32 uint32) uint64 {
	return 0xFFFFFFFF00000000 | uint64(bits32)
}

// IsNanBoxed reports whether a 64-bit FPR value carries a properly
// NaN-boxed f32 (upper 32 bits all ones). The machine does not consult it:
// single-precision operations use the low 32 bits of an FPR whether or not
// the value is boxed.
func IsNanBoxed(bits64 uint64) bool {
	return bits64>>32 == 0xFFFFFFFF
}

// gprNames indexes the ABI names for integer registers by number.
var gprNames = [NumGPR]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// fprNames indexes the ABI names for floating-point registers by number.
var fprNames = [NumFPR]string{
	"ft0", "ft1", "ft2", "ft3", "ft4", "ft5", "ft6", "ft7",
	"fs0", "fs1", "fa0", "fa1", "fa2", "fa3", "fa4", "fa5",
	"fa6", "fa7", "fs2", "fs3", "fs4", "fs5", "fs6", "fs7",
	"fs8", "fs9", "fs10", "fs11", "ft8", "ft9", "ft10", "ft11",
}

var gprAliasToIndex map[string]int
var fprAliasToIndex map[string]int

func init() {
	gprAliasToIndex = make(map[string]int, NumGPR*2)
	for i := 0; i < NumGPR; i++ {
		gprAliasToIndex[fmt.Sprintf("x%d", i)] = i
		gprAliasToIndex[gprNames[i]] = i
	}
	// fp/s0 alias to the same register.
	gprAliasToIndex["fp"] = 8

	fprAliasToIndex = make(map[string]int, NumFPR*2)
	for i := 0; i < NumFPR; i++ {
		fprAliasToIndex[fmt.Sprintf("f%d", i)] = i
		fprAliasToIndex[fprNames[i]] = i
	}
}

// ResolveGPR maps a numeric (xN) or ABI-alias integer register name to its
// index. The bool result is false for unknown names.
func ResolveGPR(name string) (int, bool) {
	i, ok := gprAliasToIndex[name]
	return i, ok
}

// ResolveFPR maps a numeric (fN) or ABI-alias floating-point register name
// to its index.
func ResolveFPR(name string) (int, bool) {
	i, ok := fprAliasToIndex[name]
	return i, ok
}

// IsGPRName reports whether name denotes an integer register.
func IsGPRName(name string) bool {
	_, ok := gprAliasToIndex[name]
	return ok
}

// IsFPRName reports whether name denotes a floating-point register.
func IsFPRName(name string) bool {
	_, ok := fprAliasToIndex[name]
	return ok
}

// csrNameToAddress maps the CSR names the core recognizes to their address.
var csrNameToAddress = map[string]int{
	"fflags": CsrFflags,
	"frm":    CsrFrm,
	"fcsr":   CsrFcsr,
}

// ResolveCSR maps a CSR name to its address.
func ResolveCSR(name string) (int, bool) {
	i, ok := csrNameToAddress[name]
	return i, ok
}

// ModifyByName writes value to whichever register class name resolves to,
// normalizing ABI aliases first (spec.md component B: modify_by_name).
func (f *File) ModifyByName(name string, value uint64) error {
	if i, ok := ResolveGPR(name); ok {
		f.WriteGPR(i, value)
		return nil
	}
	if i, ok := ResolveFPR(name); ok {
		f.WriteFPR(i, value)
		return nil
	}
	if i, ok := ResolveCSR(name); ok {
		f.WriteCSR(i, value)
		return nil
	}
	return fmt.Errorf("unknown register name: %s", name)
}
