package encoder

import "rv64sim/isa"

// lookupEncoding is the reverse index shared by Disassemble and Decode: given
// a raw word, find the tag whose table entry (isa.FieldsOf) matches its
// opcode/funct fields. It is a linear scan over the (small, fixed)
// instruction table, and since Decode calls it for every fetched word, the
// scan runs once per executed instruction.
func lookupEncoding(word uint32) (isa.Tag, isa.Fields, bool) {
	opcode := word & 0x7F
	funct3 := int32((word >> 12) & 0x7)
	funct7 := int32((word >> 25) & 0x7F)
	funct2 := int32((word >> 25) & 0x3)
	rs2 := int32((word >> 20) & 0x1F)

	for _, tag := range isa.AllEncodable() {
		fields, ok := isa.FieldsOf(tag)
		if !ok || fields.Opcode != opcode {
			continue
		}
		switch isa.FormatOf(tag) {
		case isa.FormatU, isa.FormatJ:
			return tag, fields, true
		case isa.FormatB, isa.FormatS:
			if fields.Funct3 == funct3 {
				return tag, fields, true
			}
		case isa.FormatR4:
			if fields.Funct2 == funct2 {
				return tag, fields, true
			}
		case isa.FormatR:
			if fields.Funct7 != isa.None && fields.Funct7 != funct7 {
				continue
			}
			if fields.Funct3 != isa.None && fields.Funct3 != funct3 {
				continue
			}
			if fields.Rs2Sel != isa.None && fields.Rs2Sel != rs2 {
				continue
			}
			return tag, fields, true
		default: // FormatI
			if fields.Funct3 != isa.None && fields.Funct3 != funct3 {
				continue
			}
			switch {
			case isa.IsShift64(tag):
				if (word>>26)&0x3F != uint32(fields.Funct7)>>1 {
					continue
				}
			case isa.IsShift32(tag):
				if (word>>25)&0x7F != uint32(fields.Funct7) {
					continue
				}
			case tag == isa.Ecall:
				if (word>>20)&0xFFF != 0 {
					continue
				}
			case tag == isa.Ebreak:
				if (word>>20)&0xFFF != 1 {
					continue
				}
			}
			return tag, fields, true
		}
	}
	return isa.Invalid, isa.Fields{}, false
}
