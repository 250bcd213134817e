// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package interpreter

import (
	"bytes"
	"encoding/binary"

	safemath "github.com/ava-labs/avalanchego/utils/math"

	"github.com/ava-labs/ledgervm/asm"
)

// Reads may touch any byte of memory. Writes are limited to the current
// frame's stack [SSP, SP) and the heap [HP, MemorySize).

func (vm *VM) span(addr, n uint64) (uint64, error) {
	end, err := safemath.Add64(addr, n)
	if err != nil || end > uint64(len(vm.mem)) {
		return 0, ErrMemoryOverflow
	}
	return end, nil
}

func (vm *VM) read(addr, n uint64) ([]byte, error) {
	end, err := vm.span(addr, n)
	if err != nil {
		return nil, err
	}
	return vm.mem[addr:end], nil
}

func (vm *VM) writable(addr, n uint64) ([]byte, error) {
	end, err := vm.span(addr, n)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return vm.mem[addr:end], nil
	}
	inStack := addr >= vm.regs[asm.RegSSP] && end <= vm.regs[asm.RegSP]
	inHeap := addr >= vm.regs[asm.RegHP]
	if !inStack && !inHeap {
		return nil, ErrMemoryOwnership
	}
	return vm.mem[addr:end], nil
}

// wordAddr computes rb + imm*8 for the word-addressed load and store.
func wordAddr(base, imm uint64) (uint64, error) {
	offset, err := safemath.Mul64(imm, wordSize)
	if err != nil {
		return 0, ErrMemoryOverflow
	}
	addr, err := safemath.Add64(base, offset)
	if err != nil {
		return 0, ErrMemoryOverflow
	}
	return addr, nil
}

func opLb(vm *VM, inst asm.Instruction) error {
	if err := checkWritable(inst.RA()); err != nil {
		return err
	}
	addr, err := safemath.Add64(vm.regs[inst.RB()], inst.Imm12())
	if err != nil {
		return ErrMemoryOverflow
	}
	b, err := vm.read(addr, 1)
	if err != nil {
		return err
	}
	vm.regs[inst.RA()] = uint64(b[0])
	return nil
}

func opLw(vm *VM, inst asm.Instruction) error {
	if err := checkWritable(inst.RA()); err != nil {
		return err
	}
	addr, err := wordAddr(vm.regs[inst.RB()], inst.Imm12())
	if err != nil {
		return err
	}
	b, err := vm.read(addr, wordSize)
	if err != nil {
		return err
	}
	vm.regs[inst.RA()] = binary.BigEndian.Uint64(b)
	return nil
}

func opSb(vm *VM, inst asm.Instruction) error {
	addr, err := safemath.Add64(vm.regs[inst.RA()], inst.Imm12())
	if err != nil {
		return ErrMemoryOverflow
	}
	b, err := vm.writable(addr, 1)
	if err != nil {
		return err
	}
	b[0] = byte(vm.regs[inst.RB()])
	return nil
}

func opSw(vm *VM, inst asm.Instruction) error {
	addr, err := wordAddr(vm.regs[inst.RA()], inst.Imm12())
	if err != nil {
		return err
	}
	b, err := vm.writable(addr, wordSize)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint64(b, vm.regs[inst.RB()])
	return nil
}

func (vm *VM) memCopy(dst, src, n uint64) error {
	if err := vm.charge(chunks(n)); err != nil {
		return err
	}
	from, err := vm.read(src, n)
	if err != nil {
		return err
	}
	to, err := vm.writable(dst, n)
	if err != nil {
		return err
	}
	copy(to, from)
	return nil
}

func opMcp(vm *VM, inst asm.Instruction) error {
	return vm.memCopy(vm.regs[inst.RA()], vm.regs[inst.RB()], vm.regs[inst.RC()])
}

func opMcpi(vm *VM, inst asm.Instruction) error {
	return vm.memCopy(vm.regs[inst.RA()], vm.regs[inst.RB()], inst.Imm12())
}

func opMeq(vm *VM, inst asm.Instruction) error {
	if err := checkWritable(inst.RA()); err != nil {
		return err
	}
	n := vm.regs[inst.RD()]
	if err := vm.charge(chunks(n)); err != nil {
		return err
	}
	a, err := vm.read(vm.regs[inst.RB()], n)
	if err != nil {
		return err
	}
	b, err := vm.read(vm.regs[inst.RC()], n)
	if err != nil {
		return err
	}
	vm.regs[inst.RA()] = boolToWord(bytes.Equal(a, b))
	return nil
}

func (vm *VM) memClear(addr, n uint64) error {
	if err := vm.charge(chunks(n)); err != nil {
		return err
	}
	b, err := vm.writable(addr, n)
	if err != nil {
		return err
	}
	for i := range b {
		b[i] = 0
	}
	return nil
}

func opMcl(vm *VM, inst asm.Instruction) error {
	return vm.memClear(vm.regs[inst.RA()], vm.regs[inst.RB()])
}

func opMcli(vm *VM, inst asm.Instruction) error {
	return vm.memClear(vm.regs[inst.RA()], inst.Imm18())
}

// opCfei extends the stack by imm24 bytes.
func opCfei(vm *VM, inst asm.Instruction) error {
	sp, err := safemath.Add64(vm.regs[asm.RegSP], inst.Imm24())
	if err != nil || sp > vm.regs[asm.RegHP] {
		return ErrMemoryOverflow
	}
	vm.regs[asm.RegSP] = sp
	return nil
}

// opCfsi shrinks the stack by imm24 bytes.
func opCfsi(vm *VM, inst asm.Instruction) error {
	sp, err := safemath.Sub64(vm.regs[asm.RegSP], inst.Imm24())
	if err != nil || sp < vm.regs[asm.RegSSP] {
		return ErrMemoryOverflow
	}
	vm.regs[asm.RegSP] = sp
	return nil
}

// opAloc grows the heap down by ra bytes.
func opAloc(vm *VM, inst asm.Instruction) error {
	hp, err := safemath.Sub64(vm.regs[asm.RegHP], vm.regs[inst.RA()])
	if err != nil || hp < vm.regs[asm.RegSP] {
		return ErrMemoryOverflow
	}
	vm.regs[asm.RegHP] = hp
	return nil
}
