// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledgervm

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/ava-labs/avalanchego/utils/json"

	"github.com/ava-labs/ledgervm/asm"
	"github.com/ava-labs/ledgervm/executor"
	"github.com/ava-labs/ledgervm/state"
	"github.com/ava-labs/ledgervm/tx"
)

var (
	errZeroGenesisCoin      = errors.New("genesis coin has zero amount")
	errDuplicateSlot        = errors.New("duplicate genesis storage slot")
	errUnalignedGenesisCode = errors.New("genesis contract code is not a whole number of instructions")
)

// Genesis is the JSON form of the initial ledger.
type Genesis struct {
	Timestamp json.Uint64       `json:"timestamp"`
	Coins     []GenesisCoin     `json:"coins"`
	Contracts []GenesisContract `json:"contracts"`
}

type GenesisCoin struct {
	Owner    ids.ShortID `json:"owner"`
	Amount   json.Uint64 `json:"amount"`
	AssetID  ids.ID      `json:"assetID"`
	Maturity json.Uint32 `json:"maturity"`
}

type GenesisContract struct {
	// Code is hex encoded.
	Code  string        `json:"code"`
	Salt  ids.ID        `json:"salt"`
	Slots []GenesisSlot `json:"slots"`
}

type GenesisSlot struct {
	Key   ids.ID `json:"key"`
	Value ids.ID `json:"value"`
}

// ParseGenesis decodes [genesisBytes] and returns its hash together with the
// ledger it describes.
func ParseGenesis(genesisBytes []byte) (ids.ID, *executor.Genesis, error) {
	g := Genesis{}
	if err := stdjson.Unmarshal(genesisBytes, &g); err != nil {
		return ids.Empty, nil, fmt.Errorf("failed to unmarshal genesis: %w", err)
	}

	out := &executor.Genesis{Timestamp: int64(g.Timestamp)}
	for i, coin := range g.Coins {
		if coin.Amount == 0 {
			return ids.Empty, nil, fmt.Errorf("%w: coin %d", errZeroGenesisCoin, i)
		}
		out.Coins = append(out.Coins, &state.Coin{
			Owner:    coin.Owner,
			Amount:   uint64(coin.Amount),
			AssetID:  coin.AssetID,
			Maturity: uint32(coin.Maturity),
		})
	}
	for i, contract := range g.Contracts {
		code, err := formatting.Decode(formatting.Hex, contract.Code)
		if err != nil {
			return ids.Empty, nil, fmt.Errorf("failed to decode code of genesis contract %d: %w", i, err)
		}
		if len(code)%asm.InstructionSize != 0 {
			return ids.Empty, nil, fmt.Errorf("%w: contract %d", errUnalignedGenesisCode, i)
		}
		slots := make([]tx.StorageSlot, len(contract.Slots))
		for j, slot := range contract.Slots {
			slots[j] = tx.StorageSlot{Key: slot.Key, Value: slot.Value}
		}
		sort.Slice(slots, func(a, b int) bool {
			return bytes.Compare(slots[a].Key[:], slots[b].Key[:]) < 0
		})
		for j := 1; j < len(slots); j++ {
			if slots[j-1].Key == slots[j].Key {
				return ids.Empty, nil, fmt.Errorf("%w: contract %d key %s", errDuplicateSlot, i, slots[j].Key)
			}
		}
		out.Contracts = append(out.Contracts, &executor.GenesisContract{
			Code:  code,
			Salt:  contract.Salt,
			Slots: slots,
		})
	}
	return hashing.ComputeHash256Array(genesisBytes), out, nil
}
