// Package token defines the lexical tokens produced by the assembler's
// lexer (spec.md component E / data model "Token").
package token

// Kind enumerates every token kind the lexer can produce.
type Kind int

const (
	Invalid Kind = iota
	Eof
	Identifier
	Directive
	Opcode
	GpRegister
	FpRegister
	RoundingMode
	Number
	String
	Label    // definition, ends with ':'
	LabelRef // use
	Comma
	LParen
	RParen
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "Invalid"
	case Eof:
		return "Eof"
	case Identifier:
		return "Identifier"
	case Directive:
		return "Directive"
	case Opcode:
		return "Opcode"
	case GpRegister:
		return "GpRegister"
	case FpRegister:
		return "FpRegister"
	case RoundingMode:
		return "RoundingMode"
	case Number:
		return "Number"
	case String:
		return "String"
	case Label:
		return "Label"
	case LabelRef:
		return "LabelRef"
	case Comma:
		return "Comma"
	case LParen:
		return "LParen"
	case RParen:
		return "RParen"
	default:
		return "?"
	}
}

// Token is one lexeme with its source position, as laid out in spec.md's
// data model: (kind, lexeme, line, column).
type Token struct {
	Kind   Kind
	Lexeme string
	Line   int
	Column int
}
