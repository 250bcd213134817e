// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledgervm

import (
	"context"
	"errors"
	"time"

	"github.com/bobg/multichan"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/ledgervm/executor"
)

var errNoPendingTxs = errors.New("there is no transaction to build a block from")

type builder struct {
	config  Config
	mempool *mempool
	exec    *executor.Executor
	feed    *multichan.W
	metrics *metrics
	log     log.Logger
}

// BuildBlock produces a block from the oldest pending transactions. If the
// block could not be committed its transactions go back to the mempool.
func (b *builder) BuildBlock(ctx context.Context) (*executor.Output, error) {
	txs := b.mempool.Pop(b.config.MaxBlockTxs)
	if len(txs) == 0 {
		return nil, errNoPendingTxs
	}

	out, err := b.exec.Produce(ctx, txs)
	if err != nil {
		b.mempool.Requeue(txs)
		return nil, err
	}
	b.mempool.Remove(txs)
	b.metrics.observe(out)
	b.feed.Write(out)
	return out, nil
}

// Run builds blocks until [ctx] is done.
func (b *builder) Run(ctx context.Context) error {
	var ticker <-chan time.Time
	if b.config.BlockProduction == ProductionInterval {
		t := time.NewTicker(b.config.BlockInterval)
		defer t.Stop()
		ticker = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.mempool.Pending():
			if ticker != nil {
				continue
			}
		case <-ticker:
			if b.mempool.Len() == 0 {
				continue
			}
		}

		if _, err := b.BuildBlock(ctx); err != nil && !errors.Is(err, errNoPendingTxs) {
			b.log.Error("block production failed", "error", err)
			// Back off before retrying the requeued transactions.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(b.config.BlockInterval):
			}
		}
	}
}
