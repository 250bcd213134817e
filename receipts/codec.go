// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package receipts

import (
	"errors"
	"math"

	"github.com/ava-labs/avalanchego/codec"
	"github.com/ava-labs/avalanchego/codec/linearcodec"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"

	"github.com/ava-labs/ledgervm/merkle"
)

const codecVersion = 0

var (
	errWrongVersion = errors.New("wrong receipt codec version")

	Codec codec.Manager
)

func init() {
	c := linearcodec.NewDefault()
	Codec = codec.NewManager(math.MaxInt32)
	if err := Codec.RegisterCodec(codecVersion, c); err != nil {
		panic(err)
	}
}

// list is the persisted form of a transaction's receipts.
type list struct {
	Receipts []*Receipt `serialize:"true"`
}

// Bytes returns the canonical encoding of [r].
func (r *Receipt) Bytes() ([]byte, error) {
	return Codec.Marshal(codecVersion, r)
}

// Hash returns the hash of the canonical encoding of [r].
func (r *Receipt) Hash() (ids.ID, error) {
	b, err := r.Bytes()
	if err != nil {
		return ids.Empty, err
	}
	return hashing.ComputeHash256Array(b), nil
}

// Marshal encodes an ordered receipt list.
func Marshal(rs []*Receipt) ([]byte, error) {
	return Codec.Marshal(codecVersion, &list{Receipts: rs})
}

// Unmarshal decodes a receipt list produced by Marshal.
func Unmarshal(b []byte) ([]*Receipt, error) {
	l := list{}
	version, err := Codec.Unmarshal(b, &l)
	if err != nil {
		return nil, err
	}
	if version != codecVersion {
		return nil, errWrongVersion
	}
	return l.Receipts, nil
}

// Root commits to an ordered receipt list.
func Root(rs []*Receipt) (ids.ID, error) {
	leaves := make([][]byte, len(rs))
	for i, r := range rs {
		b, err := r.Bytes()
		if err != nil {
			return ids.Empty, err
		}
		leaves[i] = b
	}
	return merkle.Root(leaves), nil
}
