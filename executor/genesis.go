// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/ledgervm/merkle"
	"github.com/ava-labs/ledgervm/receipts"
	"github.com/ava-labs/ledgervm/state"
	"github.com/ava-labs/ledgervm/tx"
)

var errGenesisMismatch = errors.New("ledger was initialized with a different genesis")

// Genesis is the ledger before the first block.
type Genesis struct {
	Timestamp int64
	Coins     []*state.Coin
	Contracts []*GenesisContract
}

type GenesisContract struct {
	Code  []byte
	Salt  ids.ID
	Slots []tx.StorageSlot
}

// GenesisUTXOID is the ID of the [index]th coin of the genesis identified by
// [hash].
func GenesisUTXOID(hash ids.ID, index int) tx.UTXOID {
	return tx.UTXOID{TxID: hash.Prefix(uint64(index))}
}

// Initialize commits [g] as block 0. [hash] identifies [g]: initializing an
// existing ledger with the same hash returns its genesis block, any other
// hash fails.
func (e *Executor) Initialize(hash ids.ID, g *Genesis) (*state.Block, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	delta := e.store.Begin()
	defer delta.Abort()

	existing, err := delta.GetGenesisHash()
	switch {
	case err == nil:
		if existing != hash {
			return nil, fmt.Errorf("%w: have %s, got %s", errGenesisMismatch, existing, hash)
		}
		blkID, err := delta.GetBlockIDAtHeight(0)
		if err != nil {
			return nil, fmt.Errorf("%w: genesis block: %v", ErrStorage, err)
		}
		return delta.GetBlock(blkID)
	case !errors.Is(err, database.ErrNotFound):
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	for i, coin := range g.Coins {
		c := *coin
		c.BlockCreated = 0
		c.Status = state.CoinUnspent
		if err := delta.PutCoin(GenesisUTXOID(hash, i), &c); err != nil {
			return nil, err
		}
	}
	for _, contract := range g.Contracts {
		stateRoot := tx.StateRoot(contract.Slots)
		contractID := tx.ContractID(contract.Salt, contract.Code, stateRoot)
		if err := delta.PutContract(contractID, &state.Contract{
			Code:      contract.Code,
			Salt:      contract.Salt,
			StateRoot: stateRoot,
		}); err != nil {
			return nil, err
		}
		for _, slot := range contract.Slots {
			if err := delta.PutStorageSlot(contractID, slot.Key, slot.Value); err != nil {
				return nil, err
			}
		}
	}

	blk := &state.Block{
		Timestamp: g.Timestamp,
		TxRoot:    merkle.RootOfIDs(nil),
	}
	if blk.ReceiptsRoot, err = receipts.Root(nil); err != nil {
		return nil, err
	}
	if err := blk.Initialize(); err != nil {
		return nil, err
	}
	if err := delta.PutBlock(blk); err != nil {
		return nil, err
	}
	if err := delta.SetGenesisHash(hash); err != nil {
		return nil, err
	}
	if err := delta.Commit(); err != nil {
		return nil, fmt.Errorf("%w: committing genesis: %v", ErrStorage, err)
	}

	e.log.Info("genesis committed",
		"blkID", blk.ID(),
		"coins", len(g.Coins),
		"contracts", len(g.Contracts),
	)
	return blk, nil
}
