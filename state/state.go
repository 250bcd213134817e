// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/ledgervm/receipts"
	"github.com/ava-labs/ledgervm/tx"
)

// State is a pending delta layered over a parent database. Reads see the
// delta first. Nothing reaches the parent until Commit.
type State struct {
	*reader

	db *versiondb.Database
}

func newState(parent database.Database) *State {
	db := versiondb.New(parent)
	return &State{
		reader: newReader(db),
		db:     db,
	}
}

// Nested returns a delta over this one. Committing it folds its writes into
// [s]; aborting it discards them.
func (s *State) Nested() *State {
	return newState(s.db)
}

// Commit flushes the pending writes to the parent in one batch.
func (s *State) Commit() error {
	return s.db.Commit()
}

// Abort discards the pending writes.
func (s *State) Abort() {
	s.db.Abort()
}

func (s *State) PutCoin(utxoID tx.UTXOID, coin *Coin) error {
	bytes, err := marshal(coin)
	if err != nil {
		return fmt.Errorf("failed to marshal coin %s: %w", utxoID, err)
	}
	return s.coinDB.Put(utxoID.Key(), bytes)
}

// SpendCoin marks an existing coin spent.
func (s *State) SpendCoin(utxoID tx.UTXOID) error {
	coin, err := s.GetCoin(utxoID)
	if err != nil {
		return fmt.Errorf("failed to get coin %s: %w", utxoID, err)
	}
	coin.Status = CoinSpent
	return s.PutCoin(utxoID, coin)
}

func (s *State) PutContract(contractID ids.ID, contract *Contract) error {
	bytes, err := marshal(contract)
	if err != nil {
		return fmt.Errorf("failed to marshal contract %s: %w", contractID, err)
	}
	return s.contractDB.Put(contractID[:], bytes)
}

func (s *State) PutStorageSlot(contractID, key, value ids.ID) error {
	return s.storageDB.Put(tx.SlotKey(contractID, key), value[:])
}

func (s *State) PutTx(t *tx.Tx) error {
	txID := t.ID()
	return s.txDB.Put(txID[:], t.Bytes())
}

// PutReceipts records the receipts [txID] left in the block at [height]. A
// transaction excluded from one block may run again in a later one, so the
// key includes the height.
func (s *State) PutReceipts(height uint64, txID ids.ID, rs []*receipts.Receipt) error {
	bytes, err := receipts.Marshal(rs)
	if err != nil {
		return fmt.Errorf("failed to marshal receipts of %s: %w", txID, err)
	}
	return s.receiptDB.Put(receiptKey(height, txID), bytes)
}

func (s *State) PutTxStatus(txID ids.ID, status *TxStatus) error {
	bytes, err := marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status of %s: %w", txID, err)
	}
	return s.statusDB.Put(txID[:], bytes)
}

// PutBlock indexes [blk] by ID and height and makes it the last accepted
// block.
func (s *State) PutBlock(blk *Block) error {
	blkID := blk.ID()
	if err := s.blockDB.Put(blkID[:], blk.Bytes()); err != nil {
		return fmt.Errorf("failed to put block %s into block index: %w", blkID, err)
	}
	if err := s.heightDB.Put(heightKey(blk.Height), blkID[:]); err != nil {
		return fmt.Errorf("failed to put block %s into height index: %w", blkID, err)
	}
	if err := s.singletonDB.Put(lastAcceptedKey, blkID[:]); err != nil {
		return fmt.Errorf("failed to set last accepted block %s: %w", blkID, err)
	}
	return nil
}

func (s *State) SetGenesisHash(hash ids.ID) error {
	return s.singletonDB.Put(genesisKey, hash[:])
}
