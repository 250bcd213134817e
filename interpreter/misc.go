// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package interpreter

import (
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/crypto"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"golang.org/x/crypto/sha3"

	"github.com/ava-labs/ledgervm/asm"
	"github.com/ava-labs/ledgervm/receipts"
)

// Metadata selectors accepted by GM.
const (
	GMIsCallerExternal = 1
	GMCallDepth        = 2
	GMTxIDAddress      = 3
)

const (
	signatureLen = uint64(crypto.SECP256K1RSigLen)
	shortIDLen   = 20
)

var secp256k1 crypto.FactorySECP256K1R

func opLog(vm *VM, inst asm.Instruction) error {
	return vm.emit(receipts.LogReceipt(
		vm.contractID,
		vm.regs[inst.RA()],
		vm.regs[inst.RB()],
		vm.regs[inst.RC()],
		vm.regs[inst.RD()],
		vm.pc,
		vm.regs[asm.RegIS],
	))
}

// opLogd logs ra, rb and the rd bytes at rc.
func opLogd(vm *VM, inst asm.Instruction) error {
	ptr, n := vm.regs[inst.RC()], vm.regs[inst.RD()]
	if err := vm.charge(receiptBytes(n)); err != nil {
		return err
	}
	data, err := vm.read(ptr, n)
	if err != nil {
		return err
	}
	data = append([]byte(nil), data...)
	return vm.emit(receipts.LogDataReceipt(
		vm.contractID,
		vm.regs[inst.RA()],
		vm.regs[inst.RB()],
		ptr,
		hashing.ComputeHash256Array(data),
		data,
		vm.pc,
		vm.regs[asm.RegIS],
	))
}

// digest writes hash(mem[rb..rb+rc)) to mem[ra..ra+32).
func (vm *VM) digest(inst asm.Instruction, hash func([]byte) []byte) error {
	n := vm.regs[inst.RC()]
	if err := vm.charge(chunks(n)); err != nil {
		return err
	}
	dst, err := vm.writable(vm.regs[inst.RA()], 32)
	if err != nil {
		return err
	}
	src, err := vm.read(vm.regs[inst.RB()], n)
	if err != nil {
		return err
	}
	copy(dst, hash(src))
	return nil
}

func opS256(vm *VM, inst asm.Instruction) error {
	return vm.digest(inst, hashing.ComputeHash256)
}

func opK256(vm *VM, inst asm.Instruction) error {
	return vm.digest(inst, func(b []byte) []byte {
		h := sha3.NewLegacyKeccak256()
		_, _ = h.Write(b)
		return h.Sum(nil)
	})
}

// opEcr recovers the signer of the 32-byte hash at rc from the signature at
// rb and writes its 20-byte address to ra. A bad signature sets ERR and
// writes zeros.
func opEcr(vm *VM, inst asm.Instruction) error {
	dst, err := vm.writable(vm.regs[inst.RA()], shortIDLen)
	if err != nil {
		return err
	}
	sig, err := vm.read(vm.regs[inst.RB()], signatureLen)
	if err != nil {
		return err
	}
	hash, err := vm.read(vm.regs[inst.RC()], 32)
	if err != nil {
		return err
	}
	pub, err := secp256k1.RecoverHashPublicKey(hash, sig)
	if err != nil {
		vm.regs[asm.RegERR] = 1
		copy(dst, ids.ShortEmpty[:])
		return nil
	}
	addr := pub.Address()
	vm.regs[asm.RegERR] = 0
	copy(dst, addr[:])
	return nil
}

func opNoop(*VM, asm.Instruction) error { return nil }

func opFlag(vm *VM, inst asm.Instruction) error {
	vm.regs[asm.RegFLAG] = vm.regs[inst.RA()]
	return nil
}

func opBhei(vm *VM, inst asm.Instruction) error {
	return vm.setReg(inst.RA(), vm.ctx.Height)
}

// opBal loads the free balance of the asset whose ID is at rb.
func opBal(vm *VM, inst asm.Instruction) error {
	if err := checkWritable(inst.RA()); err != nil {
		return err
	}
	assetID, err := vm.readKey(vm.regs[inst.RB()])
	if err != nil {
		return err
	}
	vm.regs[inst.RA()] = vm.ctx.Balances[assetID]
	return nil
}

func opGm(vm *VM, inst asm.Instruction) error {
	if err := checkWritable(inst.RA()); err != nil {
		return err
	}
	switch inst.Imm18() {
	case GMIsCallerExternal:
		if !vm.inContract() {
			return ErrExpectedInternalContext
		}
		vm.regs[inst.RA()] = boolToWord(len(vm.frames) == 1)
	case GMCallDepth:
		vm.regs[inst.RA()] = uint64(len(vm.frames))
	case GMTxIDAddress:
		vm.regs[inst.RA()] = 0
	default:
		return ErrInvalidMetadataIdentifier
	}
	return nil
}
