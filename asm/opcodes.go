// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package asm

import "fmt"

// Op is an instruction's 8-bit opcode.
type Op uint8

// Format describes how an instruction's low 24 bits are split into operands.
type Format uint8

const (
	FormatNone Format = iota
	FormatA           // ra
	FormatAB          // ra rb
	FormatABC         // ra rb rc
	FormatABCD        // ra rb rc rd
	FormatABI         // ra rb imm12
	FormatAI          // ra imm18
	FormatI           // imm24
)

// Opcode values. 0x00 is deliberately unassigned so that zeroed memory never
// decodes to a valid instruction.
const (
	ADD  Op = 0x10
	SUB  Op = 0x11
	MUL  Op = 0x12
	DIV  Op = 0x13
	MOD  Op = 0x14
	EXP  Op = 0x15
	AND  Op = 0x16
	OR   Op = 0x17
	XOR  Op = 0x18
	SLL  Op = 0x19
	SRL  Op = 0x1a
	EQ   Op = 0x1b
	LT   Op = 0x1c
	GT   Op = 0x1d
	NOT  Op = 0x1e
	MOVE Op = 0x1f

	ADDI Op = 0x20
	SUBI Op = 0x21
	MULI Op = 0x22
	DIVI Op = 0x23
	MODI Op = 0x24
	EXPI Op = 0x25
	ANDI Op = 0x26
	ORI  Op = 0x27
	XORI Op = 0x28
	SLLI Op = 0x29
	SRLI Op = 0x2a
	MOVI Op = 0x2b

	LB   Op = 0x30
	LW   Op = 0x31
	SB   Op = 0x32
	SW   Op = 0x33
	MCP  Op = 0x34
	MCPI Op = 0x35
	MEQ  Op = 0x36
	MCL  Op = 0x37
	MCLI Op = 0x38
	CFEI Op = 0x39
	CFSI Op = 0x3a
	ALOC Op = 0x3b

	JI   Op = 0x40
	JNEI Op = 0x41
	JNZI Op = 0x42
	JMP  Op = 0x43
	RET  Op = 0x44
	RETD Op = 0x45
	RVRT Op = 0x46
	CALL Op = 0x47

	SRW  Op = 0x50
	SWW  Op = 0x51
	SRWQ Op = 0x52
	SWWQ Op = 0x53

	LOG  Op = 0x60
	LOGD Op = 0x61

	S256 Op = 0x70
	K256 Op = 0x71
	ECR  Op = 0x72

	NOOP Op = 0x80
	FLAG Op = 0x81
	BHEI Op = 0x82
	BAL  Op = 0x83
	GM   Op = 0x84
)

type opInfo struct {
	name   string
	format Format
}

var ops = [256]opInfo{
	ADD:  {"ADD", FormatABC},
	SUB:  {"SUB", FormatABC},
	MUL:  {"MUL", FormatABC},
	DIV:  {"DIV", FormatABC},
	MOD:  {"MOD", FormatABC},
	EXP:  {"EXP", FormatABC},
	AND:  {"AND", FormatABC},
	OR:   {"OR", FormatABC},
	XOR:  {"XOR", FormatABC},
	SLL:  {"SLL", FormatABC},
	SRL:  {"SRL", FormatABC},
	EQ:   {"EQ", FormatABC},
	LT:   {"LT", FormatABC},
	GT:   {"GT", FormatABC},
	NOT:  {"NOT", FormatAB},
	MOVE: {"MOVE", FormatAB},

	ADDI: {"ADDI", FormatABI},
	SUBI: {"SUBI", FormatABI},
	MULI: {"MULI", FormatABI},
	DIVI: {"DIVI", FormatABI},
	MODI: {"MODI", FormatABI},
	EXPI: {"EXPI", FormatABI},
	ANDI: {"ANDI", FormatABI},
	ORI:  {"ORI", FormatABI},
	XORI: {"XORI", FormatABI},
	SLLI: {"SLLI", FormatABI},
	SRLI: {"SRLI", FormatABI},
	MOVI: {"MOVI", FormatAI},

	LB:   {"LB", FormatABI},
	LW:   {"LW", FormatABI},
	SB:   {"SB", FormatABI},
	SW:   {"SW", FormatABI},
	MCP:  {"MCP", FormatABC},
	MCPI: {"MCPI", FormatABI},
	MEQ:  {"MEQ", FormatABCD},
	MCL:  {"MCL", FormatAB},
	MCLI: {"MCLI", FormatAI},
	CFEI: {"CFEI", FormatI},
	CFSI: {"CFSI", FormatI},
	ALOC: {"ALOC", FormatA},

	JI:   {"JI", FormatI},
	JNEI: {"JNEI", FormatABI},
	JNZI: {"JNZI", FormatAI},
	JMP:  {"JMP", FormatA},
	RET:  {"RET", FormatA},
	RETD: {"RETD", FormatAB},
	RVRT: {"RVRT", FormatA},
	CALL: {"CALL", FormatAB},

	SRW:  {"SRW", FormatABC},
	SWW:  {"SWW", FormatABC},
	SRWQ: {"SRWQ", FormatABC},
	SWWQ: {"SWWQ", FormatABC},

	LOG:  {"LOG", FormatABCD},
	LOGD: {"LOGD", FormatABCD},

	S256: {"S256", FormatABC},
	K256: {"K256", FormatABC},
	ECR:  {"ECR", FormatABC},

	NOOP: {"NOOP", FormatNone},
	FLAG: {"FLAG", FormatA},
	BHEI: {"BHEI", FormatA},
	BAL:  {"BAL", FormatAB},
	GM:   {"GM", FormatAI},
}

// Valid reports whether [op] is an assigned opcode.
func (op Op) Valid() bool { return ops[op].name != "" }

// Format returns the operand layout of [op].
func (op Op) Format() Format { return ops[op].format }

func (op Op) String() string {
	if !op.Valid() {
		return fmt.Sprintf("UNKNOWN(0x%02x)", uint8(op))
	}
	return ops[op].name
}
