// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package statetest provides storage doubles for tests.
package statetest

import (
	"errors"
	"sync/atomic"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
)

// ErrInjected is returned by batch writes while a FailingDB is failing.
var ErrInjected = errors.New("injected batch write failure")

// FailingDB is an in-memory database whose batch writes can be made to fail
// without applying any of their operations.
type FailingDB struct {
	database.Database

	failing int32
}

func NewFailingDB() *FailingDB {
	return &FailingDB{Database: memdb.New()}
}

// Fail makes every subsequent batch write fail until it is called with false.
func (db *FailingDB) Fail(fail bool) {
	v := int32(0)
	if fail {
		v = 1
	}
	atomic.StoreInt32(&db.failing, v)
}

func (db *FailingDB) NewBatch() database.Batch {
	return &failingBatch{
		Batch: db.Database.NewBatch(),
		db:    db,
	}
}

type failingBatch struct {
	database.Batch

	db *FailingDB
}

func (b *failingBatch) Write() error {
	if atomic.LoadInt32(&b.db.failing) == 1 {
		return ErrInjected
	}
	return b.Batch.Write()
}
