// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package merkle computes binary merkle roots over ordered leaves.
package merkle

import (
	"crypto/sha256"
	"math/bits"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

var (
	leafPrefix     = []byte{0x00}
	interiorPrefix = []byte{0x01}

	// EmptyRoot is the root of a tree with no leaves.
	EmptyRoot = ids.ID(hashing.ComputeHash256Array(nil))
)

// Root returns the merkle root of [leaves]. Leaves are hashed with a 0x00
// prefix and interior nodes with a 0x01 prefix so that a leaf can never be
// confused with an interior node.
func Root(leaves [][]byte) ids.ID {
	if len(leaves) == 0 {
		return EmptyRoot
	}
	return root(leaves)
}

// RootOfIDs is a convenience wrapper for trees whose leaves are IDs.
func RootOfIDs(leaves []ids.ID) ids.ID {
	raw := make([][]byte, len(leaves))
	for i := range leaves {
		raw[i] = leaves[i][:]
	}
	return Root(raw)
}

func root(leaves [][]byte) ids.ID {
	h := sha256.New()
	if len(leaves) == 1 {
		h.Write(leafPrefix)
		h.Write(leaves[0])
		return sum(h.Sum(nil))
	}

	k := prevPowerOfTwo(len(leaves))
	left := root(leaves[:k])
	right := root(leaves[k:])

	h.Write(interiorPrefix)
	h.Write(left[:])
	h.Write(right[:])
	return sum(h.Sum(nil))
}

func sum(b []byte) ids.ID {
	var id ids.ID
	copy(id[:], b)
	return id
}

// prevPowerOfTwo returns the largest power of two k such that k < n <= 2k.
func prevPowerOfTwo(n int) int {
	if n&(n-1) == 0 {
		return n / 2
	}
	return 1 << (bits.Len(uint(n)) - 1)
}
