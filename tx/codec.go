// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tx

import (
	"github.com/ava-labs/avalanchego/codec"
	"github.com/ava-labs/avalanchego/codec/linearcodec"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const (
	// CodecVersion is the current default codec version
	CodecVersion = 0
)

// Codec serializes transactions. Interface values are prefixed with the
// registration index of their concrete type, so the order below is part of
// the wire format.
var Codec codec.Manager

func init() {
	c := linearcodec.NewDefault()
	Codec = codec.NewManager(maxTxSize)

	errs := wrappers.Errs{}
	errs.Add(
		c.RegisterType(&CoinInput{}),
		c.RegisterType(&ContractInput{}),
		c.RegisterType(&CoinOutput{}),
		c.RegisterType(&ChangeOutput{}),
		c.RegisterType(&ContractOutput{}),
		c.RegisterType(&ContractCreatedOutput{}),
	)
	errs.Add(
		Codec.RegisterCodec(CodecVersion, c),
	)
	if errs.Errored() {
		panic(errs.Err)
	}
}
