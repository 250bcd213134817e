// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package interpreter

import (
	"math"

	safemath "github.com/ava-labs/avalanchego/utils/math"

	"github.com/ava-labs/ledgervm/asm"
)

const (
	// GasPerChunk is charged for every started 64-byte chunk a dynamic
	// instruction touches, on top of its base cost.
	GasPerChunk = 1
	chunkSize   = 64

	// GasPerByte is charged for every byte LOGD and RETD copy into a
	// receipt.
	GasPerByte = 1
)

// GasCosts is the base cost of each opcode. Every valid opcode costs at
// least 1.
var GasCosts [256]uint64

func init() {
	for op := 0; op < len(GasCosts); op++ {
		if asm.Op(op).Valid() {
			GasCosts[op] = 1
		}
	}
	for op, cost := range map[asm.Op]uint64{
		asm.MUL:  2,
		asm.DIV:  2,
		asm.MOD:  2,
		asm.EXP:  4,
		asm.MULI: 2,
		asm.DIVI: 2,
		asm.MODI: 2,
		asm.EXPI: 4,
		asm.MCP:  2,
		asm.MCPI: 2,
		asm.MEQ:  2,
		asm.MCL:  2,
		asm.MCLI: 2,
		asm.RETD: 5,
		asm.CALL: 50,
		asm.SRW:  20,
		asm.SRWQ: 20,
		asm.SWW:  40,
		asm.SWWQ: 40,
		asm.LOG:  5,
		asm.LOGD: 5,
		asm.S256: 10,
		asm.K256: 10,
		asm.ECR:  100,
		asm.BAL:  5,
	} {
		GasCosts[op] = cost
	}
}

// chunks returns the dynamic cost of touching [n] bytes.
func chunks(n uint64) uint64 {
	return (n/chunkSize + boolToWord(n%chunkSize != 0)) * GasPerChunk
}

// receiptBytes returns the dynamic cost of copying [n] bytes into a receipt.
func receiptBytes(n uint64) uint64 {
	cost, err := safemath.Mul64(n, GasPerByte)
	if err != nil {
		return math.MaxUint64
	}
	return cost
}

// charge deducts [amount] from both the global and context gas. When either
// is insufficient all remaining gas is consumed.
func (vm *VM) charge(amount uint64) error {
	if amount > vm.regs[asm.RegGGAS] || amount > vm.regs[asm.RegCGAS] {
		vm.regs[asm.RegGGAS] = 0
		vm.regs[asm.RegCGAS] = 0
		return ErrOutOfGas
	}
	vm.regs[asm.RegGGAS] -= amount
	vm.regs[asm.RegCGAS] -= amount
	return nil
}
