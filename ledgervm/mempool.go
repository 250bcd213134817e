// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledgervm

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/ledgervm/tx"
)

var (
	errMempoolFull = errors.New("mempool is full")
	errDuplicateTx = errors.New("transaction is already pending")
)

// mempool is a bounded FIFO of submitted transactions. A popped transaction
// stays pending until its block is committed and it is removed.
type mempool struct {
	lock    sync.Mutex
	maxSize int
	txs     []*tx.Tx
	pending ids.Set

	// notify holds a value while the mempool may have transactions the
	// builder has not seen.
	notify chan struct{}
	size   prometheus.Gauge
}

func newMempool(maxSize int, size prometheus.Gauge) *mempool {
	return &mempool{
		maxSize: maxSize,
		pending: ids.Set{},
		notify:  make(chan struct{}, 1),
		size:    size,
	}
}

func (m *mempool) Add(t *tx.Tx) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	txID := t.ID()
	if m.pending.Contains(txID) {
		return fmt.Errorf("%w: %s", errDuplicateTx, txID)
	}
	if len(m.txs) >= m.maxSize {
		return fmt.Errorf("%w: failed to add %s at size (%d)", errMempoolFull, txID, m.maxSize)
	}
	m.txs = append(m.txs, t)
	m.pending.Add(txID)
	m.size.Set(float64(len(m.txs)))
	m.signal()
	return nil
}

// Pop dequeues up to [max] transactions in submission order. They remain
// pending until passed to Remove or Requeue.
func (m *mempool) Pop(max int) []*tx.Tx {
	m.lock.Lock()
	defer m.lock.Unlock()

	if max > len(m.txs) {
		max = len(m.txs)
	}
	popped := make([]*tx.Tx, max)
	copy(popped, m.txs)
	m.txs = m.txs[max:]
	m.size.Set(float64(len(m.txs)))
	if len(m.txs) > 0 {
		m.signal()
	}
	return popped
}

// Remove forgets popped transactions once their block is committed.
func (m *mempool) Remove(txs []*tx.Tx) {
	m.lock.Lock()
	defer m.lock.Unlock()

	for _, t := range txs {
		m.pending.Remove(t.ID())
	}
}

// Requeue puts back popped transactions whose block could not be committed,
// ahead of everything submitted since. The size bound is not enforced.
func (m *mempool) Requeue(txs []*tx.Tx) {
	m.lock.Lock()
	defer m.lock.Unlock()

	requeued := make([]*tx.Tx, 0, len(txs)+len(m.txs))
	requeued = append(requeued, txs...)
	m.txs = append(requeued, m.txs...)
	m.size.Set(float64(len(m.txs)))
	if len(m.txs) > 0 {
		m.signal()
	}
}

// Has reports whether [txID] is queued or in a block being produced.
func (m *mempool) Has(txID ids.ID) bool {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.pending.Contains(txID)
}

func (m *mempool) Len() int {
	m.lock.Lock()
	defer m.lock.Unlock()

	return len(m.txs)
}

// Pending fires after transactions were added.
func (m *mempool) Pending() <-chan struct{} { return m.notify }

func (m *mempool) signal() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}
