// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package interpreter

import (
	"math/bits"

	"github.com/ava-labs/ledgervm/asm"
)

// Arithmetic wraps modulo 2^64. OF receives the carry of ADD, the borrow of
// SUB, the high word of MUL and 1 when EXP overflows; every other ALU
// instruction clears it. Division and modulo by zero fault.

type aluFn func(b, c uint64) (result, of uint64, err error)

func aluAdd(b, c uint64) (uint64, uint64, error) {
	sum, carry := bits.Add64(b, c, 0)
	return sum, carry, nil
}

func aluSub(b, c uint64) (uint64, uint64, error) {
	diff, borrow := bits.Sub64(b, c, 0)
	return diff, borrow, nil
}

func aluMul(b, c uint64) (uint64, uint64, error) {
	hi, lo := bits.Mul64(b, c)
	return lo, hi, nil
}

func aluDiv(b, c uint64) (uint64, uint64, error) {
	if c == 0 {
		return 0, 0, ErrArithmetic
	}
	return b / c, 0, nil
}

func aluMod(b, c uint64) (uint64, uint64, error) {
	if c == 0 {
		return 0, 0, ErrArithmetic
	}
	return b % c, 0, nil
}

func aluExp(base, e uint64) (uint64, uint64, error) {
	result := uint64(1)
	overflow, baseOverflow := false, false
	for e > 0 {
		if e&1 == 1 {
			hi, lo := bits.Mul64(result, base)
			result = lo
			overflow = overflow || hi != 0 || baseOverflow
		}
		e >>= 1
		if e > 0 {
			hi, lo := bits.Mul64(base, base)
			base = lo
			baseOverflow = baseOverflow || hi != 0
		}
	}
	return result, boolToWord(overflow), nil
}

func aluAnd(b, c uint64) (uint64, uint64, error) { return b & c, 0, nil }
func aluOr(b, c uint64) (uint64, uint64, error)  { return b | c, 0, nil }
func aluXor(b, c uint64) (uint64, uint64, error) { return b ^ c, 0, nil }

func aluSll(b, c uint64) (uint64, uint64, error) {
	if c >= 64 {
		return 0, 0, nil
	}
	return b << c, 0, nil
}

func aluSrl(b, c uint64) (uint64, uint64, error) {
	if c >= 64 {
		return 0, 0, nil
	}
	return b >> c, 0, nil
}

func aluEq(b, c uint64) (uint64, uint64, error) { return boolToWord(b == c), 0, nil }
func aluLt(b, c uint64) (uint64, uint64, error) { return boolToWord(b < c), 0, nil }
func aluGt(b, c uint64) (uint64, uint64, error) { return boolToWord(b > c), 0, nil }

// aluReg builds a handler computing ra = rb op rc.
func aluReg(fn aluFn) handler {
	return func(vm *VM, inst asm.Instruction) error {
		return vm.aluStore(inst.RA(), fn, vm.regs[inst.RB()], vm.regs[inst.RC()])
	}
}

// aluImm builds a handler computing ra = rb op imm12.
func aluImm(fn aluFn) handler {
	return func(vm *VM, inst asm.Instruction) error {
		return vm.aluStore(inst.RA(), fn, vm.regs[inst.RB()], inst.Imm12())
	}
}

func (vm *VM) aluStore(ra asm.RegisterID, fn aluFn, b, c uint64) error {
	if err := checkWritable(ra); err != nil {
		return err
	}
	result, of, err := fn(b, c)
	if err != nil {
		return err
	}
	vm.regs[asm.RegOF] = of
	vm.regs[ra] = result
	return nil
}

func opNot(vm *VM, inst asm.Instruction) error {
	return vm.aluStore(inst.RA(), func(b, _ uint64) (uint64, uint64, error) {
		return ^b, 0, nil
	}, vm.regs[inst.RB()], 0)
}

func opMove(vm *VM, inst asm.Instruction) error {
	return vm.aluStore(inst.RA(), func(b, _ uint64) (uint64, uint64, error) {
		return b, 0, nil
	}, vm.regs[inst.RB()], 0)
}

func opMovi(vm *VM, inst asm.Instruction) error {
	return vm.aluStore(inst.RA(), func(_, c uint64) (uint64, uint64, error) {
		return c, 0, nil
	}, 0, inst.Imm18())
}
