// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tx

import "github.com/ava-labs/avalanchego/utils/units"

// Params are the protocol limits transactions and the VM are held to.
type Params struct {
	MaxInputs           int    `json:"maxInputs"`
	MaxOutputs          int    `json:"maxOutputs"`
	MaxWitnesses        int    `json:"maxWitnesses"`
	MaxGasPerTx         uint64 `json:"maxGasPerTx"`
	MaxScriptLength     int    `json:"maxScriptLength"`
	MaxScriptDataLength int    `json:"maxScriptDataLength"`
	MaxWitnessLength    int    `json:"maxWitnessLength"`
	MaxStorageSlots     int    `json:"maxStorageSlots"`
	MaxContractSize     int    `json:"maxContractSize"`
	MaxTxSize           uint64 `json:"maxTxSize"`
	MemorySize          uint64 `json:"memorySize"`
	MaxCallDepth        int    `json:"maxCallDepth"`
	// MaxReceiptsSize caps the receipts a single run may emit. Crossing it
	// faults the run.
	MaxReceiptsSize uint64 `json:"maxReceiptsSize"`
}

const maxTxSize = units.MiB

var DefaultParams = Params{
	MaxInputs:           255,
	MaxOutputs:          255,
	MaxWitnesses:        255,
	MaxGasPerTx:         100_000_000,
	MaxScriptLength:     64 * units.KiB,
	MaxScriptDataLength: 64 * units.KiB,
	MaxWitnessLength:    64 * units.KiB,
	MaxStorageSlots:     255,
	MaxContractSize:     64 * units.KiB,
	MaxTxSize:           maxTxSize,
	MemorySize:          units.MiB,
	MaxCallDepth:        64,
	MaxReceiptsSize:     units.MiB,
}
