// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package receipts

import "fmt"

// PanicReason records why the VM faulted.
type PanicReason uint8

const (
	ReasonNone PanicReason = iota
	ReasonOutOfGas
	ReasonInvalidInstruction
	ReasonReservedRegisterNotWritable
	ReasonMemoryOverflow
	ReasonMemoryOwnership
	ReasonArithmeticError
	ReasonProgramOverflow
	ReasonCallStackOverflow
	ReasonExpectedInternalContext
	ReasonContractNotInInputs
	ReasonContractNotFound
	ReasonInvalidMetadataIdentifier
	ReasonReceiptsTooLarge
	ReasonReservedBitsSet
)

var reasonNames = [...]string{
	ReasonNone:                        "None",
	ReasonOutOfGas:                    "OutOfGas",
	ReasonInvalidInstruction:          "InvalidInstruction",
	ReasonReservedRegisterNotWritable: "ReservedRegisterNotWritable",
	ReasonMemoryOverflow:              "MemoryOverflow",
	ReasonMemoryOwnership:             "MemoryOwnership",
	ReasonArithmeticError:             "ArithmeticError",
	ReasonProgramOverflow:             "ProgramOverflow",
	ReasonCallStackOverflow:           "CallStackOverflow",
	ReasonExpectedInternalContext:     "ExpectedInternalContext",
	ReasonContractNotInInputs:         "ContractNotInInputs",
	ReasonContractNotFound:            "ContractNotFound",
	ReasonInvalidMetadataIdentifier:   "InvalidMetadataIdentifier",
	ReasonReceiptsTooLarge:            "ReceiptsTooLarge",
	ReasonReservedBitsSet:             "ReservedBitsSet",
}

func (r PanicReason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return fmt.Sprintf("PanicReason(%d)", uint8(r))
}

func (r PanicReason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *PanicReason) UnmarshalText(text []byte) error {
	for i, name := range reasonNames {
		if name == string(text) {
			*r = PanicReason(i)
			return nil
		}
	}
	return fmt.Errorf("unknown panic reason %q", text)
}
