// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package asm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// InstructionSize is the width of every encoded instruction in bytes.
const InstructionSize = 4

const (
	MaxImm12 = 1<<12 - 1
	MaxImm18 = 1<<18 - 1
	MaxImm24 = 1<<24 - 1
)

var (
	ErrUnalignedProgram = errors.New("program length is not a multiple of the instruction size")
	ErrShortProgram     = errors.New("unexpected end of program")
	ErrReservedBits     = errors.New("operand bits unused by the format are set")
)

// unusedBits are the low 24 bits each format leaves unused. They must be
// zero.
var unusedBits = map[Format]uint32{
	FormatNone: MaxImm24,
	FormatA:    1<<18 - 1,
	FormatAB:   1<<12 - 1,
	FormatABC:  1<<6 - 1,
}

// Instruction is a decoded 32-bit instruction word:
//
//	op[31:24] ra[23:18] rb[17:12] rc[11:6] rd[5:0]
type Instruction uint32

func (i Instruction) Op() Op         { return Op(i >> 24) }
func (i Instruction) RA() RegisterID { return RegisterID(i>>18) & 0x3f }
func (i Instruction) RB() RegisterID { return RegisterID(i>>12) & 0x3f }
func (i Instruction) RC() RegisterID { return RegisterID(i>>6) & 0x3f }
func (i Instruction) RD() RegisterID { return RegisterID(i) & 0x3f }
func (i Instruction) Imm12() uint64  { return uint64(i) & MaxImm12 }
func (i Instruction) Imm18() uint64  { return uint64(i) & MaxImm18 }
func (i Instruction) Imm24() uint64  { return uint64(i) & MaxImm24 }

// Verify fails if [i] sets any operand bit its format does not use.
func (i Instruction) Verify() error {
	if uint32(i)&unusedBits[i.Op().Format()] != 0 {
		return ErrReservedBits
	}
	return nil
}

// Bytes returns the big-endian encoding of [i].
func (i Instruction) Bytes() []byte {
	var b [InstructionSize]byte
	binary.BigEndian.PutUint32(b[:], uint32(i))
	return b[:]
}

func (i Instruction) String() string {
	op := i.Op()
	switch op.Format() {
	case FormatA:
		return fmt.Sprintf("%s r%d", op, i.RA())
	case FormatAB:
		return fmt.Sprintf("%s r%d r%d", op, i.RA(), i.RB())
	case FormatABC:
		return fmt.Sprintf("%s r%d r%d r%d", op, i.RA(), i.RB(), i.RC())
	case FormatABCD:
		return fmt.Sprintf("%s r%d r%d r%d r%d", op, i.RA(), i.RB(), i.RC(), i.RD())
	case FormatABI:
		return fmt.Sprintf("%s r%d r%d 0x%x", op, i.RA(), i.RB(), i.Imm12())
	case FormatAI:
		return fmt.Sprintf("%s r%d 0x%x", op, i.RA(), i.Imm18())
	case FormatI:
		return fmt.Sprintf("%s 0x%x", op, i.Imm24())
	default:
		return op.String()
	}
}

// Decode reads the instruction at byte offset [offset] of [code].
func Decode(code []byte, offset uint64) (Instruction, error) {
	if offset > uint64(len(code)) || uint64(len(code))-offset < InstructionSize {
		return 0, ErrShortProgram
	}
	return Instruction(binary.BigEndian.Uint32(code[offset:])), nil
}

// Disassemble renders [code] one instruction per line.
func Disassemble(code []byte) (string, error) {
	if len(code)%InstructionSize != 0 {
		return "", ErrUnalignedProgram
	}
	lines := make([]string, 0, len(code)/InstructionSize)
	for off := 0; off < len(code); off += InstructionSize {
		inst, _ := Decode(code, uint64(off))
		lines = append(lines, inst.String())
	}
	return strings.Join(lines, "\n"), nil
}

func reg(r RegisterID) uint32 { return uint32(r) & 0x3f }

// Op0 encodes an instruction without operands.
func Op0(op Op) Instruction { return Instruction(uint32(op) << 24) }

// OpA encodes a single-register instruction.
func OpA(op Op, ra RegisterID) Instruction {
	return Instruction(uint32(op)<<24 | reg(ra)<<18)
}

// OpAB encodes a two-register instruction.
func OpAB(op Op, ra, rb RegisterID) Instruction {
	return Instruction(uint32(op)<<24 | reg(ra)<<18 | reg(rb)<<12)
}

// OpABC encodes a three-register instruction.
func OpABC(op Op, ra, rb, rc RegisterID) Instruction {
	return Instruction(uint32(op)<<24 | reg(ra)<<18 | reg(rb)<<12 | reg(rc)<<6)
}

// OpABCD encodes a four-register instruction.
func OpABCD(op Op, ra, rb, rc, rd RegisterID) Instruction {
	return Instruction(uint32(op)<<24 | reg(ra)<<18 | reg(rb)<<12 | reg(rc)<<6 | reg(rd))
}

// OpABI encodes two registers and a 12-bit immediate. The immediate is truncated.
func OpABI(op Op, ra, rb RegisterID, imm uint32) Instruction {
	return Instruction(uint32(op)<<24 | reg(ra)<<18 | reg(rb)<<12 | imm&MaxImm12)
}

// OpAI encodes one register and an 18-bit immediate. The immediate is truncated.
func OpAI(op Op, ra RegisterID, imm uint32) Instruction {
	return Instruction(uint32(op)<<24 | reg(ra)<<18 | imm&MaxImm18)
}

// OpI encodes a 24-bit immediate. The immediate is truncated.
func OpI(op Op, imm uint32) Instruction {
	return Instruction(uint32(op)<<24 | imm&MaxImm24)
}
