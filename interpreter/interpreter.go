// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package interpreter implements the register machine transaction scripts
// and contracts run on.
//
// Execution is a pure function of the program, the script data, the
// transaction context and the storage view. The machine never touches the
// wall clock, randomness or committed state, and every instruction costs at
// least one unit of gas, so a run terminates after at most gasLimit steps.
package interpreter

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/tidwall/btree"

	"github.com/ava-labs/ledgervm/asm"
	"github.com/ava-labs/ledgervm/receipts"
	"github.com/ava-labs/ledgervm/tx"
)

const (
	// ScriptOffset is the memory address the script is loaded at. The
	// transaction ID occupies the bytes before it.
	ScriptOffset = 32

	// FrameHeaderSize is the size of the call frame header: the callee's
	// contract ID followed by the two call parameters.
	FrameHeaderSize = 32 + 2*8

	wordSize = 8
)

var errProgramTooLarge = errors.New("program and script data exceed memory")

// Status is how a run ended.
type Status uint8

const (
	StatusSuccess Status = iota
	StatusRevert
	StatusFault
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusRevert:
		return "Revert"
	case StatusFault:
		return "Fault"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Result maps a status onto the ScriptResult receipt code.
func (s Status) Result() receipts.Result {
	switch s {
	case StatusSuccess:
		return receipts.ResultSuccess
	case StatusRevert:
		return receipts.ResultRevert
	default:
		return receipts.ResultPanic
	}
}

// StorageView is the read-only state a run may observe.
type StorageView interface {
	StorageSlot(contractID, key ids.ID) (ids.ID, bool, error)
	ContractCode(contractID ids.ID) ([]byte, bool, error)
}

// Context is the transaction-level information exposed to a run.
type Context struct {
	TxID   ids.ID
	Height uint64
	// Balances is the free balance of each asset: inputs minus coin outputs
	// and, for the base asset, the maximum fee.
	Balances map[ids.ID]uint64
	// Contracts are the contracts the transaction declared as inputs. Only
	// these may be called.
	Contracts ids.Set
}

// Write is one entry of the contract storage write set.
type Write struct {
	ContractID ids.ID
	Key        ids.ID
	Value      ids.ID
}

// Result is everything a run produces.
type Result struct {
	Status      Status
	ReturnValue uint64
	ReturnData  []byte

	// Set when Status is StatusFault.
	Reason receipts.PanicReason
	Err    error

	// PC, IS and ContractID locate the instruction the run ended on; Depth
	// is the call depth at that point.
	PC         uint64
	IS         uint64
	ContractID ids.ID
	Depth      int

	GasUsed  uint64
	Receipts []*receipts.Receipt

	// Writes holds the storage writes in (contract, key) order. It is empty
	// unless Status is StatusSuccess.
	Writes []Write
}

type frame struct {
	regs       [asm.NumRegisters]uint64
	contractID ids.ID
	programEnd uint64
}

// VM is a single-use machine. Execute creates one per run.
type VM struct {
	params tx.Params
	ctx    *Context
	view   StorageView

	regs [asm.NumRegisters]uint64
	mem  []byte

	frames     []frame
	contractID ids.ID
	programEnd uint64

	// pc is the address of the instruction being executed. regs[RegPC]
	// already points at the next one while it runs.
	pc uint64

	writes *btree.BTreeG[slot]
	log    receipts.Log

	done   bool
	status Status
	retVal uint64
	retBuf []byte
}

// Execute runs [program] with [scriptData] until it returns, reverts, faults
// or runs out of gas. The returned error is reserved for failures of [view];
// program misbehavior is always reported through Result.
func Execute(
	params tx.Params,
	program []byte,
	scriptData []byte,
	ctx *Context,
	view StorageView,
	gasLimit uint64,
) (*Result, error) {
	vm, err := newVM(params, program, scriptData, ctx, view, gasLimit)
	if err != nil {
		return nil, err
	}
	return vm.run()
}

func newVM(
	params tx.Params,
	program []byte,
	scriptData []byte,
	ctx *Context,
	view StorageView,
	gasLimit uint64,
) (*VM, error) {
	dataOffset := align(ScriptOffset + uint64(len(program)))
	stackStart := align(dataOffset + uint64(len(scriptData)))
	if stackStart > params.MemorySize {
		return nil, errProgramTooLarge
	}

	vm := &VM{
		params:     params,
		ctx:        ctx,
		view:       view,
		mem:        make([]byte, params.MemorySize),
		programEnd: ScriptOffset + uint64(len(program)),
		writes:     newWriteSet(),
	}
	copy(vm.mem, ctx.TxID[:])
	copy(vm.mem[ScriptOffset:], program)
	copy(vm.mem[dataOffset:], scriptData)

	vm.regs[asm.RegOne] = 1
	vm.regs[asm.RegPC] = ScriptOffset
	vm.regs[asm.RegIS] = ScriptOffset
	vm.regs[asm.RegSSP] = stackStart
	vm.regs[asm.RegSP] = stackStart
	vm.regs[asm.RegHP] = params.MemorySize
	vm.regs[asm.RegGGAS] = gasLimit
	vm.regs[asm.RegCGAS] = gasLimit
	return vm, nil
}

func (vm *VM) run() (*Result, error) {
	gasLimit := vm.regs[asm.RegGGAS]
	for !vm.done {
		if err := vm.step(); err != nil {
			var ve *viewError
			if errors.As(err, &ve) {
				return nil, ve.err
			}
			vm.fault(err)
		}
	}

	res := &Result{
		Status:      vm.status,
		ReturnValue: vm.retVal,
		ReturnData:  vm.retBuf,
		PC:          vm.pc,
		IS:          vm.regs[asm.RegIS],
		ContractID:  vm.contractID,
		Depth:       len(vm.frames),
		GasUsed:     gasLimit - vm.regs[asm.RegGGAS],
		Receipts:    vm.log.Receipts(),
	}
	switch vm.status {
	case StatusSuccess:
		res.Writes = vm.writeSet()
	case StatusFault:
		res.Reason = vm.log.Last().Reason
		res.Err = FaultError(res.Reason)
	}
	return res, nil
}

// step fetches, charges and executes one instruction.
func (vm *VM) step() error {
	vm.pc = vm.regs[asm.RegPC]
	if vm.pc < vm.regs[asm.RegIS] || vm.pc+asm.InstructionSize > vm.programEnd {
		return ErrProgramOverflow
	}
	inst, err := asm.Decode(vm.mem, vm.pc)
	if err != nil {
		return ErrProgramOverflow
	}
	op := inst.Op()
	h := handlers[op]
	if h == nil {
		return ErrInvalidInstruction
	}
	if err := inst.Verify(); err != nil {
		return ErrReservedBitsSet
	}
	if err := vm.charge(GasCosts[op]); err != nil {
		return err
	}
	vm.regs[asm.RegPC] += asm.InstructionSize
	return h(vm, inst)
}

// emit appends [r] to the run's receipts unless that would take them past
// MaxReceiptsSize.
func (vm *VM) emit(r *receipts.Receipt) error {
	if vm.log.Size()+r.Size() > vm.params.MaxReceiptsSize {
		return ErrReceiptsTooLarge
	}
	vm.log.Append(r)
	return nil
}

func (vm *VM) fault(err error) {
	reason, ok := faultReasons[err]
	if !ok {
		reason = receipts.ReasonInvalidInstruction
	}
	vm.log.Append(receipts.Panic(vm.contractID, reason, vm.pc, vm.regs[asm.RegIS]))
	vm.halt(StatusFault)
}

func (vm *VM) halt(status Status) {
	vm.done = true
	vm.status = status
}

// inContract reports whether the current frame is a contract call.
func (vm *VM) inContract() bool { return len(vm.frames) > 0 }

// setReg writes a program-visible register.
func (vm *VM) setReg(r asm.RegisterID, v uint64) error {
	if r < asm.RegWritable {
		return ErrReservedRegisterNotWritable
	}
	vm.regs[r] = v
	return nil
}

// checkWritable fails if any of [rs] is reserved. Instructions call it before
// they have any other effect.
func checkWritable(rs ...asm.RegisterID) error {
	for _, r := range rs {
		if r < asm.RegWritable {
			return ErrReservedRegisterNotWritable
		}
	}
	return nil
}

func align(n uint64) uint64 {
	return (n + wordSize - 1) &^ (wordSize - 1)
}

func boolToWord(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
