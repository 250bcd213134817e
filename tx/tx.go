// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package tx defines transactions, their inputs and outputs, and the binary
// encoding they are submitted in.
package tx

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
)

// Type distinguishes script transactions from contract deployments.
type Type uint8

const (
	TypeScript Type = iota
	TypeCreate
)

func (t Type) String() string {
	switch t {
	case TypeScript:
		return "Script"
	case TypeCreate:
		return "Create"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// BaseAssetID is the asset fees are paid in.
var BaseAssetID = ids.Empty

// UTXOID names the [OutputIndex]th output of transaction [TxID].
type UTXOID struct {
	TxID        ids.ID `serialize:"true" json:"txID"`
	OutputIndex uint8  `serialize:"true" json:"outputIndex"`
}

// Key is the storage key of the referenced output.
func (u UTXOID) Key() []byte {
	key := make([]byte, len(u.TxID)+1)
	copy(key, u.TxID[:])
	key[len(u.TxID)] = u.OutputIndex
	return key
}

func (u UTXOID) String() string { return fmt.Sprintf("%s:%d", u.TxID, u.OutputIndex) }

// Input is one of CoinInput or ContractInput.
type Input interface {
	isInput()
}

// Output is one of CoinOutput, ChangeOutput, ContractOutput or
// ContractCreatedOutput.
type Output interface {
	isOutput()
}

// CoinInput spends an unspent coin. Owner, Amount, AssetID and Maturity must
// match the coin being spent.
type CoinInput struct {
	UTXOID       UTXOID      `serialize:"true" json:"utxoID"`
	Owner        ids.ShortID `serialize:"true" json:"owner"`
	Amount       uint64      `serialize:"true" json:"amount"`
	AssetID      ids.ID      `serialize:"true" json:"assetID"`
	WitnessIndex uint8       `serialize:"true" json:"witnessIndex"`
	Maturity     uint32      `serialize:"true" json:"maturity"`
}

// ContractInput grants the script access to a deployed contract.
type ContractInput struct {
	ContractID ids.ID `serialize:"true" json:"contractID"`
}

// CoinOutput creates a coin for [To].
type CoinOutput struct {
	To      ids.ShortID `serialize:"true" json:"to"`
	Amount  uint64      `serialize:"true" json:"amount"`
	AssetID ids.ID      `serialize:"true" json:"assetID"`
}

// ChangeOutput receives the unspent remainder of [AssetID]. Amount is filled
// in by the block producer.
type ChangeOutput struct {
	To      ids.ShortID `serialize:"true" json:"to"`
	Amount  uint64      `serialize:"true" json:"amount"`
	AssetID ids.ID      `serialize:"true" json:"assetID"`
}

// ContractOutput pairs with the contract input at [InputIndex].
type ContractOutput struct {
	InputIndex uint8 `serialize:"true" json:"inputIndex"`
}

// ContractCreatedOutput announces the contract a Create transaction deploys.
type ContractCreatedOutput struct {
	ContractID ids.ID `serialize:"true" json:"contractID"`
	StateRoot  ids.ID `serialize:"true" json:"stateRoot"`
}

func (*CoinInput) isInput()     {}
func (*ContractInput) isInput() {}

func (*CoinOutput) isOutput()            {}
func (*ChangeOutput) isOutput()          {}
func (*ContractOutput) isOutput()        {}
func (*ContractCreatedOutput) isOutput() {}

// StorageSlot is an initial contract storage entry of a Create transaction.
type StorageSlot struct {
	Key   ids.ID `serialize:"true" json:"key"`
	Value ids.ID `serialize:"true" json:"value"`
}

// Tx is a script or create transaction.
type Tx struct {
	Type     Type   `serialize:"true" json:"type"`
	GasPrice uint64 `serialize:"true" json:"gasPrice"`
	GasLimit uint64 `serialize:"true" json:"gasLimit"`
	// BytePrice is paid for every byte of the encoded transaction.
	BytePrice uint64 `serialize:"true" json:"bytePrice"`
	Maturity  uint64 `serialize:"true" json:"maturity"`

	Inputs    []Input  `serialize:"true" json:"inputs"`
	Outputs   []Output `serialize:"true" json:"outputs"`
	Witnesses [][]byte `serialize:"true" json:"witnesses"`

	Script     []byte `serialize:"true" json:"script"`
	ScriptData []byte `serialize:"true" json:"scriptData"`

	BytecodeWitnessIndex uint8         `serialize:"true" json:"bytecodeWitnessIndex"`
	Salt                 ids.ID        `serialize:"true" json:"salt"`
	StorageSlots         []StorageSlot `serialize:"true" json:"storageSlots"`

	ReceiptsRoot ids.ID `serialize:"true" json:"receiptsRoot"`

	id    ids.ID
	bytes []byte
}

// CoinInputs returns the coin inputs in input order.
func (t *Tx) CoinInputs() []*CoinInput {
	var out []*CoinInput
	for _, in := range t.Inputs {
		if c, ok := in.(*CoinInput); ok {
			out = append(out, c)
		}
	}
	return out
}

// ContractIDs returns the contracts referenced by contract inputs.
func (t *Tx) ContractIDs() []ids.ID {
	var out []ids.ID
	for _, in := range t.Inputs {
		if c, ok := in.(*ContractInput); ok {
			out = append(out, c.ContractID)
		}
	}
	return out
}

// UTXOID returns the identifier of this transaction's [index]th output.
func (t *Tx) UTXOID(index int) UTXOID {
	return UTXOID{TxID: t.id, OutputIndex: uint8(index)}
}

// Bytecode returns the contract code carried by a Create transaction.
func (t *Tx) Bytecode() []byte {
	if int(t.BytecodeWitnessIndex) >= len(t.Witnesses) {
		return nil
	}
	return t.Witnesses[t.BytecodeWitnessIndex]
}

// SlotKey concatenates a contract ID and a storage key.
func SlotKey(contractID, key ids.ID) []byte {
	b := make([]byte, 0, 2*len(key))
	b = append(b, contractID[:]...)
	return append(b, key[:]...)
}
