// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package executor turns batches of transactions into committed blocks.
//
// Transactions of a batch are applied in order, each in its own nested delta
// over the block's delta, so a later transaction observes the outputs of an
// earlier one. The block delta reaches the store in a single atomic commit.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/timer/mockable"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/ledgervm/merkle"
	"github.com/ava-labs/ledgervm/receipts"
	"github.com/ava-labs/ledgervm/state"
	"github.com/ava-labs/ledgervm/tx"
)

var (
	// ErrStorage is returned when the ledger could not be read or the block
	// could not be committed. Nothing of the block is visible and the batch
	// may be produced again.
	ErrStorage = errors.New("storage failure")

	errNoGenesis = errors.New("ledger has no genesis block")
)

// Outcome is what happened to one transaction of a batch.
type Outcome struct {
	TxID    ids.ID
	Status  state.TxStatusKind
	Reason  string
	GasUsed uint64
	Fee     uint64

	// Receipts are the receipts of the run followed by its ScriptResult.
	// Empty for rejected and Create transactions.
	Receipts []*receipts.Receipt

	// Err is the validation error of a rejected transaction.
	Err error

	// Tx is the transaction as recorded in the ledger, with its change
	// amounts and receipts root filled in. nil when nothing was recorded.
	Tx *tx.Tx
}

// Output is a produced block and the outcome of every transaction of its
// batch, in submission order.
type Output struct {
	Block    *state.Block
	Outcomes []*Outcome
}

type Executor struct {
	config Config
	store  *state.Store
	clock  mockable.Clock
	log    log.Logger

	// lock makes block production single-writer. DryRun takes it too so
	// that it never reads a half-committed block.
	lock sync.Mutex
}

func New(config Config, store *state.Store, logger log.Logger) *Executor {
	return &Executor{
		config: config,
		store:  store,
		log:    logger,
	}
}

// Clock is the clock block timestamps are taken from.
func (e *Executor) Clock() *mockable.Clock { return &e.clock }

// Produce applies [txs] in order on top of the last accepted block and
// commits the result as the next block. Rejected and faulted transactions do
// not fail the block; only a storage failure does, in which case an error
// wrapping ErrStorage is returned and the ledger is unchanged.
func (e *Executor) Produce(ctx context.Context, txs []*tx.Tx) (*Output, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	delta := e.store.Begin()
	defer delta.Abort()

	parent, err := lastAccepted(delta)
	if err != nil {
		return nil, err
	}
	blk := &state.Block{
		ParentID:  parent.ID(),
		Height:    parent.Height + 1,
		Timestamp: e.clock.Time().Unix(),
	}
	// Timestamps never decrease, even if the local clock does.
	if blk.Timestamp < parent.Timestamp {
		blk.Timestamp = parent.Timestamp
	}

	outcomes := make([]*Outcome, 0, len(txs))
	var included, excluded []*receipts.Receipt
	for _, t := range txs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := e.apply(delta.State, t, blk.Height)
		if err != nil {
			return nil, fmt.Errorf("%w: applying %s: %v", ErrStorage, t.ID(), err)
		}
		outcomes = append(outcomes, out)

		if out.Status.Included() {
			blk.Txs = append(blk.Txs, out.TxID)
			included = append(included, out.Receipts...)
		} else {
			excluded = append(excluded, out.Receipts...)
			blk.Excluded = append(blk.Excluded, state.Exclusion{
				TxID:   out.TxID,
				Kind:   out.Status,
				Reason: out.Reason,
			})
		}
		blk.TotalGas += out.GasUsed
		blk.TotalFees += out.Fee
	}

	blk.TxRoot = merkle.RootOfIDs(blk.Txs)
	// Receipts of included transactions come first, then those of excluded
	// ones, each in batch order.
	if blk.ReceiptsRoot, err = receipts.Root(append(included, excluded...)); err != nil {
		return nil, err
	}
	if err := blk.Initialize(); err != nil {
		return nil, err
	}

	if err := e.writeBlock(delta.State, blk, outcomes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := delta.Commit(); err != nil {
		e.log.Error("commit failed", "height", blk.Height, "blkID", blk.ID(), "error", err)
		return nil, fmt.Errorf("%w: committing block %d: %v", ErrStorage, blk.Height, err)
	}

	e.log.Info("block produced",
		"height", blk.Height,
		"blkID", blk.ID(),
		"txs", len(blk.Txs),
		"excluded", len(blk.Excluded),
		"gas", blk.TotalGas,
	)
	return &Output{Block: blk, Outcomes: outcomes}, nil
}

// writeBlock records the block and the status of every transaction of its
// batch.
func (e *Executor) writeBlock(s *state.State, blk *state.Block, outcomes []*Outcome) error {
	for _, out := range outcomes {
		if out.Status == state.StatusRejected {
			// A duplicate of a committed transaction keeps its original
			// status.
			committed, err := s.HasTx(out.TxID)
			if err != nil {
				return err
			}
			if committed {
				continue
			}
		}
		status := &state.TxStatus{
			Kind:      out.Status,
			BlockID:   blk.ID(),
			Height:    blk.Height,
			Timestamp: blk.Timestamp,
			Reason:    out.Reason,
			GasUsed:   out.GasUsed,
			Fee:       out.Fee,
		}
		if err := s.PutTxStatus(out.TxID, status); err != nil {
			return err
		}
	}
	return s.PutBlock(blk)
}

// DryRun validates and executes [t] as if it were the only transaction of
// the next block, without committing anything.
func (e *Executor) DryRun(ctx context.Context, t *tx.Tx) (*Outcome, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	delta := e.store.Begin()
	defer delta.Abort()

	parent, err := lastAccepted(delta)
	if err != nil {
		return nil, err
	}
	out, err := e.apply(delta.State, t, parent.Height+1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return out, nil
}

func lastAccepted(chain state.Chain) (*state.Block, error) {
	blkID, err := chain.GetLastAccepted()
	if errors.Is(err, database.ErrNotFound) {
		return nil, errNoGenesis
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	blk, err := chain.GetBlock(blkID)
	if err != nil {
		return nil, fmt.Errorf("%w: last accepted block %s: %v", ErrStorage, blkID, err)
	}
	return blk, nil
}
