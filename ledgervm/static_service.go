// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledgervm

import (
	stdjson "encoding/json"
	"fmt"
	"net/http"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	cjson "github.com/ava-labs/avalanchego/utils/json"
	"github.com/gorilla/rpc/v2"

	"github.com/ava-labs/ledgervm/tx"
)

// StaticService serves calls that do not need a ledger.
type StaticService struct{}

// CreateStaticHandlers returns the handlers of the static API, keyed like
// CreateHandlers.
func CreateStaticHandlers() (map[string]http.Handler, error) {
	server := rpc.NewServer()
	codec := cjson.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	if err := server.RegisterService(&StaticService{}, Name); err != nil {
		return nil, err
	}
	return map[string]http.Handler{
		"": server,
	}, nil
}

// BuildGenesisReply is the reply from BuildGenesis
type BuildGenesisReply struct {
	// Bytes is the hex encoded genesis file.
	Bytes string `json:"bytes"`
	Hash  ids.ID `json:"hash"`
}

// BuildGenesis checks a genesis and returns the encoding a node is started
// with together with its hash.
func (*StaticService) BuildGenesis(_ *http.Request, args *Genesis, reply *BuildGenesisReply) error {
	genesisBytes, err := stdjson.Marshal(args)
	if err != nil {
		return err
	}
	hash, _, err := ParseGenesis(genesisBytes)
	if err != nil {
		return err
	}
	reply.Bytes, err = formatting.EncodeWithChecksum(formatting.Hex, genesisBytes)
	if err != nil {
		return fmt.Errorf("couldn't encode genesis as string: %w", err)
	}
	reply.Hash = hash
	return nil
}

// DecodeTxReply is the reply from DecodeTx
type DecodeTxReply struct {
	TxID ids.ID `json:"txID"`
	Tx   *tx.Tx `json:"tx"`
}

// DecodeTx returns the ID and the readable form of a hex encoded transaction.
func (*StaticService) DecodeTx(_ *http.Request, args *SubmitArgs, reply *DecodeTxReply) error {
	txBytes, err := formatting.Decode(formatting.Hex, args.Tx)
	if err != nil {
		return fmt.Errorf("couldn't decode transaction: %w", err)
	}
	t, err := tx.Parse(txBytes)
	if err != nil {
		return err
	}
	reply.TxID = t.ID()
	reply.Tx = t
	return nil
}
