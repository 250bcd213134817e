// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package interpreter

import (
	"errors"

	"github.com/ava-labs/ledgervm/receipts"
)

// Faults. Each one ends execution deterministically and maps onto exactly
// one receipts.PanicReason.
var (
	ErrOutOfGas                    = errors.New("out of gas")
	ErrInvalidInstruction          = errors.New("invalid instruction")
	ErrReservedRegisterNotWritable = errors.New("reserved register not writable")
	ErrMemoryOverflow              = errors.New("memory access out of bounds")
	ErrMemoryOwnership             = errors.New("memory write outside owned region")
	ErrArithmetic                  = errors.New("arithmetic error")
	ErrProgramOverflow             = errors.New("program counter outside program")
	ErrCallStackOverflow           = errors.New("call stack overflow")
	ErrExpectedInternalContext     = errors.New("instruction requires a contract context")
	ErrContractNotInInputs         = errors.New("contract not in transaction inputs")
	ErrContractNotFound            = errors.New("contract not found")
	ErrInvalidMetadataIdentifier   = errors.New("invalid metadata identifier")
	ErrReceiptsTooLarge            = errors.New("receipts exceed size limit")
	ErrReservedBitsSet             = errors.New("unused operand bits set")
)

var faultReasons = map[error]receipts.PanicReason{
	ErrOutOfGas:                    receipts.ReasonOutOfGas,
	ErrInvalidInstruction:          receipts.ReasonInvalidInstruction,
	ErrReservedRegisterNotWritable: receipts.ReasonReservedRegisterNotWritable,
	ErrMemoryOverflow:              receipts.ReasonMemoryOverflow,
	ErrMemoryOwnership:             receipts.ReasonMemoryOwnership,
	ErrArithmetic:                  receipts.ReasonArithmeticError,
	ErrProgramOverflow:             receipts.ReasonProgramOverflow,
	ErrCallStackOverflow:           receipts.ReasonCallStackOverflow,
	ErrExpectedInternalContext:     receipts.ReasonExpectedInternalContext,
	ErrContractNotInInputs:         receipts.ReasonContractNotInInputs,
	ErrContractNotFound:            receipts.ReasonContractNotFound,
	ErrInvalidMetadataIdentifier:   receipts.ReasonInvalidMetadataIdentifier,
	ErrReceiptsTooLarge:            receipts.ReasonReceiptsTooLarge,
	ErrReservedBitsSet:             receipts.ReasonReservedBitsSet,
}

// FaultError returns the fault sentinel for [reason], or nil.
func FaultError(reason receipts.PanicReason) error {
	for err, r := range faultReasons {
		if r == reason {
			return err
		}
	}
	return nil
}

// viewError marks a failure of the storage view. It is never a fault.
type viewError struct{ err error }

func (e *viewError) Error() string { return "storage view: " + e.err.Error() }
func (e *viewError) Unwrap() error { return e.err }
