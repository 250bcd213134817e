// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package interpreter

import (
	"encoding/binary"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	safemath "github.com/ava-labs/avalanchego/utils/math"

	"github.com/ava-labs/ledgervm/asm"
	"github.com/ava-labs/ledgervm/receipts"
)

// jump moves the program counter to instruction [index] of the running
// program.
func (vm *VM) jump(index uint64) error {
	offset, err := safemath.Mul64(index, asm.InstructionSize)
	if err != nil {
		return ErrProgramOverflow
	}
	target, err := safemath.Add64(vm.regs[asm.RegIS], offset)
	if err != nil || target >= vm.programEnd {
		return ErrProgramOverflow
	}
	vm.regs[asm.RegPC] = target
	return nil
}

func opJi(vm *VM, inst asm.Instruction) error {
	return vm.jump(inst.Imm24())
}

func opJnei(vm *VM, inst asm.Instruction) error {
	if vm.regs[inst.RA()] == vm.regs[inst.RB()] {
		return nil
	}
	return vm.jump(inst.Imm12())
}

func opJnzi(vm *VM, inst asm.Instruction) error {
	if vm.regs[inst.RA()] == 0 {
		return nil
	}
	return vm.jump(inst.Imm18())
}

func opJmp(vm *VM, inst asm.Instruction) error {
	return vm.jump(vm.regs[inst.RA()])
}

func opRet(vm *VM, inst asm.Instruction) error {
	val := vm.regs[inst.RA()]
	if err := vm.emit(receipts.Return(vm.contractID, val, vm.pc, vm.regs[asm.RegIS])); err != nil {
		return err
	}
	if !vm.inContract() {
		vm.retVal = val
		vm.halt(StatusSuccess)
		return nil
	}
	vm.popFrame(val, 0)
	return nil
}

func opRetd(vm *VM, inst asm.Instruction) error {
	ptr, n := vm.regs[inst.RA()], vm.regs[inst.RB()]
	if err := vm.charge(receiptBytes(n)); err != nil {
		return err
	}
	data, err := vm.read(ptr, n)
	if err != nil {
		return err
	}
	data = append([]byte(nil), data...)
	digest := ids.ID(hashing.ComputeHash256Array(data))
	if err := vm.emit(receipts.ReturnData(vm.contractID, ptr, digest, data, vm.pc, vm.regs[asm.RegIS])); err != nil {
		return err
	}
	if !vm.inContract() {
		vm.retBuf = data
		vm.halt(StatusSuccess)
		return nil
	}
	vm.popFrame(ptr, n)
	return nil
}

func opRvrt(vm *VM, inst asm.Instruction) error {
	val := vm.regs[inst.RA()]
	if err := vm.emit(receipts.Revert(vm.contractID, val, vm.pc, vm.regs[asm.RegIS])); err != nil {
		return err
	}
	vm.retVal = val
	vm.halt(StatusRevert)
	return nil
}

// opCall enters the contract named by the frame header at ra, forwarding rb
// gas (0 forwards all of the current context's gas).
func opCall(vm *VM, inst asm.Instruction) error {
	header, err := vm.read(vm.regs[inst.RA()], FrameHeaderSize)
	if err != nil {
		return err
	}
	var contractID ids.ID
	copy(contractID[:], header)
	param1 := binary.BigEndian.Uint64(header[32:])
	param2 := binary.BigEndian.Uint64(header[40:])

	if len(vm.frames) >= vm.params.MaxCallDepth {
		return ErrCallStackOverflow
	}
	if !vm.ctx.Contracts.Contains(contractID) {
		return ErrContractNotInInputs
	}
	code, ok, err := vm.view.ContractCode(contractID)
	if err != nil {
		return &viewError{err}
	}
	if !ok {
		return ErrContractNotFound
	}
	if err := vm.charge(chunks(uint64(len(code)))); err != nil {
		return err
	}

	fp := vm.regs[asm.RegSP]
	codeStart := fp + FrameHeaderSize
	sp := align(codeStart + uint64(len(code)))
	if sp > vm.regs[asm.RegHP] {
		return ErrMemoryOverflow
	}

	gas := vm.regs[inst.RB()]
	if gas == 0 || gas > vm.regs[asm.RegCGAS] {
		gas = vm.regs[asm.RegCGAS]
	}

	if err := vm.emit(receipts.Call(vm.contractID, contractID, gas, param1, param2, vm.pc, vm.regs[asm.RegIS])); err != nil {
		return err
	}

	copy(vm.mem[fp:], header)
	copy(vm.mem[codeStart:], code)

	vm.regs[asm.RegCGAS] -= gas
	vm.frames = append(vm.frames, frame{
		regs:       vm.regs,
		contractID: vm.contractID,
		programEnd: vm.programEnd,
	})
	vm.regs[asm.RegCGAS] = gas
	vm.regs[asm.RegFP] = fp
	vm.regs[asm.RegSSP] = sp
	vm.regs[asm.RegSP] = sp
	vm.regs[asm.RegIS] = codeStart
	vm.regs[asm.RegPC] = codeStart
	vm.regs[asm.RegBAL] = 0
	vm.regs[asm.RegRET] = 0
	vm.regs[asm.RegRETL] = 0
	vm.contractID = contractID
	vm.programEnd = codeStart + uint64(len(code))
	return nil
}

// popFrame returns to the caller. The caller's registers are restored except
// for the global gas and the heap pointer, which are shared by all frames.
// Unused context gas flows back to the caller.
func (vm *VM) popFrame(ret, retl uint64) {
	top := vm.frames[len(vm.frames)-1]
	vm.frames = vm.frames[:len(vm.frames)-1]

	ggas, cgas, hp := vm.regs[asm.RegGGAS], vm.regs[asm.RegCGAS], vm.regs[asm.RegHP]
	vm.regs = top.regs
	vm.regs[asm.RegGGAS] = ggas
	vm.regs[asm.RegCGAS] = top.regs[asm.RegCGAS] + cgas
	vm.regs[asm.RegHP] = hp
	vm.regs[asm.RegRET] = ret
	vm.regs[asm.RegRETL] = retl
	vm.contractID = top.contractID
	vm.programEnd = top.programEnd
}
