// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package interpreter

import (
	"bytes"
	"encoding/binary"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/tidwall/btree"

	"github.com/ava-labs/ledgervm/asm"
	"github.com/ava-labs/ledgervm/tx"
)

const slotKeyLen = 2 * 32

// slot is a pending storage write keyed by contract ID ‖ storage key.
type slot struct {
	key   []byte
	value ids.ID
}

func slotLess(a, b slot) bool {
	return bytes.Compare(a.key, b.key) < 0
}

func newWriteSet() *btree.BTreeG[slot] {
	return btree.NewBTreeGOptions(slotLess, btree.Options{
		NoLocks: true,
	})
}

func (vm *VM) writeSet() []Write {
	writes := make([]Write, 0, vm.writes.Len())
	vm.writes.Scan(func(s slot) bool {
		w := Write{Value: s.value}
		copy(w.ContractID[:], s.key[:32])
		copy(w.Key[:], s.key[32:])
		writes = append(writes, w)
		return true
	})
	return writes
}

// loadSlot reads through the pending writes to the storage view.
func (vm *VM) loadSlot(key ids.ID) (ids.ID, bool, error) {
	if s, ok := vm.writes.Get(slot{key: tx.SlotKey(vm.contractID, key)}); ok {
		return s.value, true, nil
	}
	value, ok, err := vm.view.StorageSlot(vm.contractID, key)
	if err != nil {
		return ids.Empty, false, &viewError{err}
	}
	return value, ok, nil
}

// storeSlot records a write and reports whether the slot was already set.
func (vm *VM) storeSlot(key, value ids.ID) (bool, error) {
	_, existed, err := vm.loadSlot(key)
	if err != nil {
		return false, err
	}
	vm.writes.Set(slot{key: tx.SlotKey(vm.contractID, key), value: value})
	return existed, nil
}

func (vm *VM) readKey(addr uint64) (ids.ID, error) {
	b, err := vm.read(addr, 32)
	if err != nil {
		return ids.Empty, err
	}
	var key ids.ID
	copy(key[:], b)
	return key, nil
}

// opSrw: ra = first word of slot mem[rc..rc+32), rb = whether it is set.
func opSrw(vm *VM, inst asm.Instruction) error {
	if !vm.inContract() {
		return ErrExpectedInternalContext
	}
	if err := checkWritable(inst.RA(), inst.RB()); err != nil {
		return err
	}
	key, err := vm.readKey(vm.regs[inst.RC()])
	if err != nil {
		return err
	}
	value, ok, err := vm.loadSlot(key)
	if err != nil {
		return err
	}
	vm.regs[inst.RA()] = binary.BigEndian.Uint64(value[:wordSize])
	vm.regs[inst.RB()] = boolToWord(ok)
	return nil
}

// opSww: slot mem[ra..ra+32) = rc, rb = whether it was set before.
func opSww(vm *VM, inst asm.Instruction) error {
	if !vm.inContract() {
		return ErrExpectedInternalContext
	}
	if err := checkWritable(inst.RB()); err != nil {
		return err
	}
	key, err := vm.readKey(vm.regs[inst.RA()])
	if err != nil {
		return err
	}
	var value ids.ID
	binary.BigEndian.PutUint64(value[:wordSize], vm.regs[inst.RC()])
	existed, err := vm.storeSlot(key, value)
	if err != nil {
		return err
	}
	vm.regs[inst.RB()] = boolToWord(existed)
	return nil
}

// opSrwq: mem[ra..ra+32) = slot mem[rc..rc+32), rb = whether it is set.
func opSrwq(vm *VM, inst asm.Instruction) error {
	if !vm.inContract() {
		return ErrExpectedInternalContext
	}
	if err := checkWritable(inst.RB()); err != nil {
		return err
	}
	key, err := vm.readKey(vm.regs[inst.RC()])
	if err != nil {
		return err
	}
	dst, err := vm.writable(vm.regs[inst.RA()], 32)
	if err != nil {
		return err
	}
	value, ok, err := vm.loadSlot(key)
	if err != nil {
		return err
	}
	copy(dst, value[:])
	vm.regs[inst.RB()] = boolToWord(ok)
	return nil
}

// opSwwq: slot mem[ra..ra+32) = mem[rc..rc+32), rb = whether it was set.
func opSwwq(vm *VM, inst asm.Instruction) error {
	if !vm.inContract() {
		return ErrExpectedInternalContext
	}
	if err := checkWritable(inst.RB()); err != nil {
		return err
	}
	key, err := vm.readKey(vm.regs[inst.RA()])
	if err != nil {
		return err
	}
	value, err := vm.readKey(vm.regs[inst.RC()])
	if err != nil {
		return err
	}
	existed, err := vm.storeSlot(key, value)
	if err != nil {
		return err
	}
	vm.regs[inst.RB()] = boolToWord(existed)
	return nil
}
