// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

var errWrongVersion = errors.New("wrong version")

// CoinStatus tracks whether a coin may still be spent.
type CoinStatus uint8

const (
	CoinUnspent CoinStatus = iota
	CoinSpent
)

func (s CoinStatus) String() string {
	if s == CoinSpent {
		return "Spent"
	}
	return "Unspent"
}

func (s CoinStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *CoinStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Unspent":
		*s = CoinUnspent
	case "Spent":
		*s = CoinSpent
	default:
		return fmt.Errorf("unknown coin status %q", text)
	}
	return nil
}

// Coin is a spendable output. Spent coins are kept so that they can never be
// recreated or spent again.
type Coin struct {
	Owner        ids.ShortID `serialize:"true" json:"owner"`
	Amount       uint64      `serialize:"true" json:"amount"`
	AssetID      ids.ID      `serialize:"true" json:"assetID"`
	Maturity     uint32      `serialize:"true" json:"maturity"`
	BlockCreated uint64      `serialize:"true" json:"blockCreated"`
	Status       CoinStatus  `serialize:"true" json:"status"`
}

// Spendable reports whether the coin is unspent and mature at [height].
func (c *Coin) Spendable(height uint64) bool {
	return c.Status == CoinUnspent && height >= c.BlockCreated+uint64(c.Maturity)
}

// Contract is deployed contract code.
type Contract struct {
	Code      []byte `serialize:"true" json:"code"`
	Salt      ids.ID `serialize:"true" json:"salt"`
	StateRoot ids.ID `serialize:"true" json:"stateRoot"`
	Height    uint64 `serialize:"true" json:"height"`
}

// TxStatusKind is the final disposition of a submitted transaction.
type TxStatusKind uint8

const (
	// StatusSuccess: executed and applied.
	StatusSuccess TxStatusKind = iota
	// StatusReverted: the script reverted. Inputs were spent and the fee
	// charged, nothing else was applied.
	StatusReverted
	// StatusFailed: the VM faulted. State effects depend on the fault policy.
	StatusFailed
	// StatusRejected: failed validation. No state was changed.
	StatusRejected
)

var statusNames = [...]string{
	StatusSuccess:  "Success",
	StatusReverted: "Reverted",
	StatusFailed:   "Failed",
	StatusRejected: "Rejected",
}

func (k TxStatusKind) String() string {
	if int(k) < len(statusNames) {
		return statusNames[k]
	}
	return fmt.Sprintf("TxStatusKind(%d)", uint8(k))
}

func (k TxStatusKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *TxStatusKind) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if name == string(text) {
			*k = TxStatusKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown transaction status %q", text)
}

// Included reports whether the transaction is part of its block's
// transaction list.
func (k TxStatusKind) Included() bool {
	return k == StatusSuccess || k == StatusReverted
}

// TxStatus records what happened to a transaction and in which block.
type TxStatus struct {
	Kind      TxStatusKind `serialize:"true" json:"kind"`
	BlockID   ids.ID       `serialize:"true" json:"blockID"`
	Height    uint64       `serialize:"true" json:"height"`
	Timestamp int64        `serialize:"true" json:"timestamp"`
	Reason    string       `serialize:"true" json:"reason"`
	GasUsed   uint64       `serialize:"true" json:"gasUsed"`
	Fee       uint64       `serialize:"true" json:"fee"`
}

// Exclusion names a transaction left out of a block and why.
type Exclusion struct {
	TxID   ids.ID       `serialize:"true" json:"txID"`
	Kind   TxStatusKind `serialize:"true" json:"kind"`
	Reason string       `serialize:"true" json:"reason"`
}

// Block is a produced block. It is immutable once committed.
type Block struct {
	ParentID     ids.ID      `serialize:"true" json:"parentID"`
	Height       uint64      `serialize:"true" json:"height"`
	Timestamp    int64       `serialize:"true" json:"timestamp"`
	TxRoot       ids.ID      `serialize:"true" json:"txRoot"`
	ReceiptsRoot ids.ID      `serialize:"true" json:"receiptsRoot"`
	TotalFees    uint64      `serialize:"true" json:"totalFees"`
	TotalGas     uint64      `serialize:"true" json:"totalGas"`
	Txs          []ids.ID    `serialize:"true" json:"txs"`
	Excluded     []Exclusion `serialize:"true" json:"excluded"`

	id    ids.ID
	bytes []byte
}

// Initialize computes the block's encoding and ID.
func (b *Block) Initialize() error {
	bytes, err := Codec.Marshal(CodecVersion, b)
	if err != nil {
		return fmt.Errorf("failed to marshal block: %w", err)
	}
	b.bytes = bytes
	b.id = hashing.ComputeHash256Array(bytes)
	return nil
}

func (b *Block) ID() ids.ID    { return b.id }
func (b *Block) Bytes() []byte { return b.bytes }

// ParseBlock decodes and initializes a block.
func ParseBlock(bytes []byte) (*Block, error) {
	b := &Block{}
	version, err := Codec.Unmarshal(bytes, b)
	if err != nil {
		return nil, err
	}
	if version != CodecVersion {
		return nil, errWrongVersion
	}
	b.bytes = bytes
	b.id = hashing.ComputeHash256Array(bytes)
	return b, nil
}

func marshal(v interface{}) ([]byte, error) {
	return Codec.Marshal(CodecVersion, v)
}

func unmarshal(bytes []byte, v interface{}) error {
	version, err := Codec.Unmarshal(bytes, v)
	if err != nil {
		return err
	}
	if version != CodecVersion {
		return errWrongVersion
	}
	return nil
}
