// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/ledgervm/receipts"
	"github.com/ava-labs/ledgervm/tx"
)

var (
	// These are prefixes for db keys.
	// It's important to set different prefixes for each separate database objects.
	coinPrefix      = []byte("coin")
	contractPrefix  = []byte("contract")
	storagePrefix   = []byte("storage")
	blockPrefix     = []byte("block")
	heightPrefix    = []byte("height")
	txPrefix        = []byte("tx")
	receiptPrefix   = []byte("receipt")
	statusPrefix    = []byte("status")
	singletonPrefix = []byte("singleton")

	lastAcceptedKey = []byte("lastAccepted")
	genesisKey      = []byte("genesis")

	_ Chain = (*reader)(nil)
)

// Chain is a read-only view of the ledger. Lookups of missing entries return
// database.ErrNotFound.
type Chain interface {
	GetCoin(utxoID tx.UTXOID) (*Coin, error)
	GetContract(contractID ids.ID) (*Contract, error)
	HasTx(txID ids.ID) (bool, error)
	GetTx(txID ids.ID) (*tx.Tx, error)
	// GetReceipts returns the receipts of the latest run of [txID].
	GetReceipts(txID ids.ID) ([]*receipts.Receipt, error)
	GetReceiptsAt(height uint64, txID ids.ID) ([]*receipts.Receipt, error)
	GetTxStatus(txID ids.ID) (*TxStatus, error)
	GetBlock(blkID ids.ID) (*Block, error)
	GetBlockIDAtHeight(height uint64) (ids.ID, error)
	GetLastAccepted() (ids.ID, error)
	GetGenesisHash() (ids.ID, error)

	// StorageSlot and ContractCode make a Chain usable as the VM's storage
	// view.
	StorageSlot(contractID, key ids.ID) (ids.ID, bool, error)
	ContractCode(contractID ids.ID) ([]byte, bool, error)
}

// reader implements Chain over a set of prefixed sub-stores.
type reader struct {
	coinDB      database.Database
	contractDB  database.Database
	storageDB   database.Database
	blockDB     database.Database
	heightDB    database.Database
	txDB        database.Database
	receiptDB   database.Database
	statusDB    database.Database
	singletonDB database.Database

	// blkCache is only set on the committed view.
	blkCache cache.Cacher
}

func newReader(db database.Database) *reader {
	return &reader{
		coinDB:      prefixdb.New(coinPrefix, db),
		contractDB:  prefixdb.New(contractPrefix, db),
		storageDB:   prefixdb.New(storagePrefix, db),
		blockDB:     prefixdb.New(blockPrefix, db),
		heightDB:    prefixdb.New(heightPrefix, db),
		txDB:        prefixdb.New(txPrefix, db),
		receiptDB:   prefixdb.New(receiptPrefix, db),
		statusDB:    prefixdb.New(statusPrefix, db),
		singletonDB: prefixdb.New(singletonPrefix, db),
	}
}

func heightKey(height uint64) []byte {
	key := make([]byte, wrappers.LongLen)
	binary.BigEndian.PutUint64(key, height)
	return key
}

// receiptKey is height || txID.
func receiptKey(height uint64, txID ids.ID) []byte {
	key := make([]byte, wrappers.LongLen+len(txID))
	binary.BigEndian.PutUint64(key, height)
	copy(key[wrappers.LongLen:], txID[:])
	return key
}

func (r *reader) GetCoin(utxoID tx.UTXOID) (*Coin, error) {
	bytes, err := r.coinDB.Get(utxoID.Key())
	if err != nil {
		return nil, err
	}
	coin := &Coin{}
	if err := unmarshal(bytes, coin); err != nil {
		return nil, fmt.Errorf("failed to parse coin %s: %w", utxoID, err)
	}
	return coin, nil
}

func (r *reader) GetContract(contractID ids.ID) (*Contract, error) {
	bytes, err := r.contractDB.Get(contractID[:])
	if err != nil {
		return nil, err
	}
	contract := &Contract{}
	if err := unmarshal(bytes, contract); err != nil {
		return nil, fmt.Errorf("failed to parse contract %s: %w", contractID, err)
	}
	return contract, nil
}

func (r *reader) ContractCode(contractID ids.ID) ([]byte, bool, error) {
	contract, err := r.GetContract(contractID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	default:
		return contract.Code, true, nil
	}
}

func (r *reader) StorageSlot(contractID, key ids.ID) (ids.ID, bool, error) {
	bytes, err := r.storageDB.Get(tx.SlotKey(contractID, key))
	switch {
	case errors.Is(err, database.ErrNotFound):
		return ids.Empty, false, nil
	case err != nil:
		return ids.Empty, false, err
	}
	value, err := ids.ToID(bytes)
	if err != nil {
		return ids.Empty, false, fmt.Errorf("failed to parse storage slot: %w", err)
	}
	return value, true, nil
}

func (r *reader) HasTx(txID ids.ID) (bool, error) {
	return r.txDB.Has(txID[:])
}

func (r *reader) GetTx(txID ids.ID) (*tx.Tx, error) {
	bytes, err := r.txDB.Get(txID[:])
	if err != nil {
		return nil, err
	}
	return tx.Parse(bytes)
}

func (r *reader) GetReceipts(txID ids.ID) ([]*receipts.Receipt, error) {
	status, err := r.GetTxStatus(txID)
	if err != nil {
		return nil, err
	}
	return r.GetReceiptsAt(status.Height, txID)
}

func (r *reader) GetReceiptsAt(height uint64, txID ids.ID) ([]*receipts.Receipt, error) {
	bytes, err := r.receiptDB.Get(receiptKey(height, txID))
	if err != nil {
		return nil, err
	}
	return receipts.Unmarshal(bytes)
}

func (r *reader) GetTxStatus(txID ids.ID) (*TxStatus, error) {
	bytes, err := r.statusDB.Get(txID[:])
	if err != nil {
		return nil, err
	}
	status := &TxStatus{}
	if err := unmarshal(bytes, status); err != nil {
		return nil, fmt.Errorf("failed to parse status of %s: %w", txID, err)
	}
	return status, nil
}

func (r *reader) GetBlock(blkID ids.ID) (*Block, error) {
	if r.blkCache != nil {
		if blk, ok := r.blkCache.Get(blkID); ok {
			return blk.(*Block), nil
		}
	}
	bytes, err := r.blockDB.Get(blkID[:])
	if err != nil {
		return nil, err
	}
	blk, err := ParseBlock(bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse block %s: %w", blkID, err)
	}
	if r.blkCache != nil {
		r.blkCache.Put(blkID, blk)
	}
	return blk, nil
}

func (r *reader) GetBlockIDAtHeight(height uint64) (ids.ID, error) {
	bytes, err := r.heightDB.Get(heightKey(height))
	if err != nil {
		return ids.Empty, err
	}
	return ids.ToID(bytes)
}

func (r *reader) GetLastAccepted() (ids.ID, error) {
	bytes, err := r.singletonDB.Get(lastAcceptedKey)
	if err != nil {
		return ids.Empty, err
	}
	return ids.ToID(bytes)
}

func (r *reader) GetGenesisHash() (ids.ID, error) {
	bytes, err := r.singletonDB.Get(genesisKey)
	if err != nil {
		return ids.Empty, err
	}
	return ids.ToID(bytes)
}
