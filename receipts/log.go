// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package receipts

// Log is an append-only, ordered receipt sequence.
type Log struct {
	receipts []*Receipt
	size     uint64
}

func (l *Log) Append(r *Receipt) {
	l.receipts = append(l.receipts, r)
	l.size += r.Size()
}

func (l *Log) Len() int { return len(l.receipts) }

// Size is the sum of the sizes of the logged receipts.
func (l *Log) Size() uint64 { return l.size }

// Receipts returns a copy of the logged receipts in append order.
func (l *Log) Receipts() []*Receipt {
	out := make([]*Receipt, len(l.receipts))
	copy(out, l.receipts)
	return out
}

// Last returns the most recent receipt, or nil for an empty log.
func (l *Log) Last() *Receipt {
	if len(l.receipts) == 0 {
		return nil
	}
	return l.receipts[len(l.receipts)-1]
}
