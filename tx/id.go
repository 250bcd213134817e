// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tx

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/crypto"
	"github.com/ava-labs/avalanchego/utils/hashing"

	"github.com/ava-labs/ledgervm/merkle"
)

var (
	// ErrDecode wraps every failure to parse transaction bytes.
	ErrDecode = errors.New("failed to decode transaction")

	errWrongVersion = errors.New("wrong codec version")
)

// Parse decodes and initializes a transaction.
func Parse(b []byte) (*Tx, error) {
	t := &Tx{}
	version, err := Codec.Unmarshal(b, t)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if version != CodecVersion {
		return nil, fmt.Errorf("%w: %v %d", ErrDecode, errWrongVersion, version)
	}
	for i, in := range t.Inputs {
		if in == nil {
			return nil, fmt.Errorf("%w: nil input %d", ErrDecode, i)
		}
	}
	for i, out := range t.Outputs {
		if out == nil {
			return nil, fmt.Errorf("%w: nil output %d", ErrDecode, i)
		}
	}
	if err := t.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return t, nil
}

// Initialize computes and caches the transaction's ID and encoding. It must
// be called again after any field changes.
func (t *Tx) Initialize() error {
	signed, err := Codec.Marshal(CodecVersion, t)
	if err != nil {
		return err
	}
	unsigned, err := Codec.Marshal(CodecVersion, t.idView())
	if err != nil {
		return err
	}
	t.bytes = signed
	t.id = hashing.ComputeHash256Array(unsigned)
	return nil
}

// ID is the hash of the transaction without the fields filled in after
// signing: witnesses, the receipts root and change amounts.
func (t *Tx) ID() ids.ID { return t.id }

// Bytes returns the full encoding computed by Initialize.
func (t *Tx) Bytes() []byte { return t.bytes }

func (t *Tx) idView() *Tx {
	view := *t
	view.Witnesses = nil
	view.ReceiptsRoot = ids.Empty
	view.Outputs = make([]Output, len(t.Outputs))
	for i, out := range t.Outputs {
		if change, ok := out.(*ChangeOutput); ok {
			zeroed := *change
			zeroed.Amount = 0
			out = &zeroed
		}
		view.Outputs[i] = out
	}
	return &view
}

// Sign appends one witness per key, in key order, signing the transaction ID.
func (t *Tx) Sign(keys ...*crypto.PrivateKeySECP256K1R) error {
	if err := t.Initialize(); err != nil {
		return err
	}
	id := t.ID()
	for _, key := range keys {
		sig, err := key.SignHash(id[:])
		if err != nil {
			return fmt.Errorf("failed to sign %s: %w", id, err)
		}
		t.Witnesses = append(t.Witnesses, sig)
	}
	return t.Initialize()
}

// StateRoot commits to a sorted list of storage slots.
func StateRoot(slots []StorageSlot) ids.ID {
	leaves := make([][]byte, len(slots))
	for i, slot := range slots {
		leaves[i] = SlotKey(slot.Key, slot.Value)
	}
	return merkle.Root(leaves)
}

// ContractID derives the identifier a Create transaction deploys to.
func ContractID(salt ids.ID, code []byte, stateRoot ids.ID) ids.ID {
	codeRoot := hashing.ComputeHash256Array(code)
	preimage := make([]byte, 0, 3*len(salt))
	preimage = append(preimage, salt[:]...)
	preimage = append(preimage, codeRoot[:]...)
	preimage = append(preimage, stateRoot[:]...)
	return hashing.ComputeHash256Array(preimage)
}

// OwnerOf returns the address a key's coins are owned by.
func OwnerOf(key *crypto.PrivateKeySECP256K1R) ids.ShortID {
	return key.PublicKey().Address()
}
