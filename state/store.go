// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/cache/metercacher"
	"github.com/ava-labs/avalanchego/database"
	"github.com/prometheus/client_golang/prometheus"
)

const blockCacheSize = 8192

var errDeltaClosed = errors.New("delta already committed or aborted")

// Store owns the committed ledger. Any number of readers may hold the
// committed view while a single writer builds a Delta; committing the delta
// excludes readers so no one observes a partially applied block.
type Store struct {
	lock      sync.RWMutex
	db        database.Database
	committed *reader
}

// NewStore wraps [db]. Block lookups through Read are cached and the cache is
// metered under [namespace].
func NewStore(db database.Database, namespace string, registerer prometheus.Registerer) (*Store, error) {
	committed := newReader(db)
	blkCache, err := metercacher.New(
		fmt.Sprintf("%s_block_cache", namespace),
		registerer,
		&cache.LRU{Size: blockCacheSize},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create block cache: %w", err)
	}
	committed.blkCache = blkCache
	return &Store{
		db:        db,
		committed: committed,
	}, nil
}

// Read runs [fn] against the committed ledger.
func (s *Store) Read(fn func(Chain) error) error {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return fn(s.committed)
}

// Begin starts a delta over the committed ledger. Only one delta may be
// open at a time.
func (s *Store) Begin() *Delta {
	return &Delta{
		State: newState(s.db),
		store: s,
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.db.Close()
}

// Delta is the writer's view of the next block.
type Delta struct {
	*State

	store  *Store
	closed bool
}

// Commit atomically applies the delta to the committed ledger. On failure
// the committed ledger is untouched and the delta is discarded.
func (d *Delta) Commit() error {
	if d.closed {
		return errDeltaClosed
	}
	d.closed = true

	d.store.lock.Lock()
	defer d.store.lock.Unlock()

	if err := d.State.Commit(); err != nil {
		d.State.Abort()
		return err
	}
	return nil
}

// Abort discards the delta. It is safe to call after Commit.
func (d *Delta) Abort() {
	if d.closed {
		return
	}
	d.closed = true
	d.State.Abort()
}
