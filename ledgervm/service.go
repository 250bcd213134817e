// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledgervm

import (
	"errors"
	"net/http"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/json"

	"github.com/ava-labs/ledgervm/receipts"
	"github.com/ava-labs/ledgervm/state"
	"github.com/ava-labs/ledgervm/tx"
)

var errBothIDAndHeight = errors.New("only one of id and height may be given")

// Service is the API service for this VM
type Service struct{ vm *VM }

// EmptyArgs is the argument of methods that take none.
type EmptyArgs struct{}

// SubmitArgs carries a hex encoded transaction.
type SubmitArgs struct {
	Tx string `json:"tx"`
}

type SubmitReply struct {
	TxID ids.ID `json:"txID"`
}

// Submit decodes, checks and queues a transaction.
func (s *Service) Submit(r *http.Request, args *SubmitArgs, reply *SubmitReply) error {
	txBytes, err := formatting.Decode(formatting.Hex, args.Tx)
	if err != nil {
		return err
	}
	reply.TxID, err = s.vm.Submit(r.Context(), txBytes)
	return err
}

type TxStatusReply struct {
	TxID   ids.ID          `json:"txID"`
	Status *state.TxStatus `json:"status"`
}

// SubmitAndAwait submits a transaction and waits until a block decides it.
func (s *Service) SubmitAndAwait(r *http.Request, args *SubmitArgs, reply *TxStatusReply) error {
	txBytes, err := formatting.Decode(formatting.Hex, args.Tx)
	if err != nil {
		return err
	}
	reply.TxID, reply.Status, err = s.vm.SubmitAndAwait(r.Context(), txBytes)
	return err
}

type DryRunReply struct {
	Status   state.TxStatusKind  `json:"status"`
	Reason   string              `json:"reason,omitempty"`
	GasUsed  json.Uint64         `json:"gasUsed"`
	Fee      json.Uint64         `json:"fee"`
	Receipts []*receipts.Receipt `json:"receipts"`
}

// DryRun executes a transaction against the committed ledger and discards
// the result.
func (s *Service) DryRun(r *http.Request, args *SubmitArgs, reply *DryRunReply) error {
	txBytes, err := formatting.Decode(formatting.Hex, args.Tx)
	if err != nil {
		return err
	}
	out, err := s.vm.DryRun(r.Context(), txBytes)
	if err != nil {
		return err
	}
	reply.Status = out.Status
	reply.Reason = out.Reason
	reply.GasUsed = json.Uint64(out.GasUsed)
	reply.Fee = json.Uint64(out.Fee)
	reply.Receipts = out.Receipts
	return nil
}

// GetBlockArgs selects a block by ID or by height. If neither is given the
// last accepted block is returned.
type GetBlockArgs struct {
	ID     *ids.ID      `json:"id"`
	Height *json.Uint64 `json:"height"`
}

type BlockReply struct {
	ID    ids.ID       `json:"id"`
	Block *state.Block `json:"block"`
}

func (s *Service) GetBlock(_ *http.Request, args *GetBlockArgs, reply *BlockReply) error {
	return s.vm.Read(func(c state.Chain) error {
		blk, err := selectBlock(c, args)
		if err != nil {
			return err
		}
		reply.ID = blk.ID()
		reply.Block = blk
		return nil
	})
}

func selectBlock(c state.Chain, args *GetBlockArgs) (*state.Block, error) {
	var (
		blkID ids.ID
		err   error
	)
	switch {
	case args.ID != nil && args.Height != nil:
		return nil, errBothIDAndHeight
	case args.ID != nil:
		blkID = *args.ID
	case args.Height != nil:
		blkID, err = c.GetBlockIDAtHeight(uint64(*args.Height))
	default:
		blkID, err = c.GetLastAccepted()
	}
	if err != nil {
		return nil, err
	}
	return c.GetBlock(blkID)
}

// Health reports whether the node can serve its ledger.
func (s *Service) Health(_ *http.Request, _ *EmptyArgs, reply *HealthReply) error {
	health, err := s.vm.HealthCheck()
	*reply = *health
	return err
}

type LastAcceptedReply struct {
	ID     ids.ID      `json:"id"`
	Height json.Uint64 `json:"height"`
}

func (s *Service) LastAccepted(_ *http.Request, _ *EmptyArgs, reply *LastAcceptedReply) error {
	return s.vm.Read(func(c state.Chain) error {
		blk, err := selectBlock(c, &GetBlockArgs{})
		if err != nil {
			return err
		}
		reply.ID = blk.ID()
		reply.Height = json.Uint64(blk.Height)
		return nil
	})
}

type TxIDArgs struct {
	TxID ids.ID `json:"txID"`
}

type GetTransactionReply struct {
	// Tx is the hex encoded transaction as recorded, with its change
	// amounts and receipts root filled in.
	Tx          string `json:"tx"`
	Transaction *tx.Tx `json:"transaction"`
}

func (s *Service) GetTransaction(_ *http.Request, args *TxIDArgs, reply *GetTransactionReply) error {
	return s.vm.Read(func(c state.Chain) error {
		t, err := c.GetTx(args.TxID)
		if err != nil {
			return err
		}
		reply.Tx, err = formatting.EncodeWithChecksum(formatting.Hex, t.Bytes())
		reply.Transaction = t
		return err
	})
}

func (s *Service) GetTransactionStatus(_ *http.Request, args *TxIDArgs, reply *TxStatusReply) error {
	status, err := s.vm.GetTxStatus(args.TxID)
	if err != nil {
		return err
	}
	reply.TxID = args.TxID
	reply.Status = status
	return nil
}

type ReceiptsReply struct {
	TxID     ids.ID              `json:"txID"`
	Receipts []*receipts.Receipt `json:"receipts"`
}

func (s *Service) GetReceipts(_ *http.Request, args *TxIDArgs, reply *ReceiptsReply) error {
	return s.vm.Read(func(c state.Chain) error {
		rs, err := c.GetReceipts(args.TxID)
		if err != nil {
			return err
		}
		reply.TxID = args.TxID
		reply.Receipts = rs
		return nil
	})
}

type BlockReceiptsReply struct {
	ID ids.ID `json:"id"`
	// Txs lists the included transactions followed by the excluded ones
	// that left receipts, the order the receipts root is computed in.
	Txs []ReceiptsReply `json:"txs"`
}

func (s *Service) GetBlockReceipts(_ *http.Request, args *GetBlockArgs, reply *BlockReceiptsReply) error {
	return s.vm.Read(func(c state.Chain) error {
		blk, err := selectBlock(c, args)
		if err != nil {
			return err
		}
		reply.ID = blk.ID()

		txIDs := append([]ids.ID(nil), blk.Txs...)
		for _, excluded := range blk.Excluded {
			if excluded.Kind == state.StatusFailed {
				txIDs = append(txIDs, excluded.TxID)
			}
		}
		for _, txID := range txIDs {
			rs, err := c.GetReceiptsAt(blk.Height, txID)
			if err != nil {
				return err
			}
			reply.Txs = append(reply.Txs, ReceiptsReply{TxID: txID, Receipts: rs})
		}
		return nil
	})
}

type GetCoinArgs struct {
	TxID        ids.ID     `json:"txID"`
	OutputIndex json.Uint8 `json:"outputIndex"`
}

type CoinReply struct {
	Coin *state.Coin `json:"coin"`
}

func (s *Service) GetCoin(_ *http.Request, args *GetCoinArgs, reply *CoinReply) error {
	return s.vm.Read(func(c state.Chain) error {
		coin, err := c.GetCoin(tx.UTXOID{TxID: args.TxID, OutputIndex: uint8(args.OutputIndex)})
		reply.Coin = coin
		return err
	})
}

type StorageSlotArgs struct {
	ContractID ids.ID `json:"contractID"`
	Key        ids.ID `json:"key"`
}

type StorageSlotReply struct {
	Value ids.ID `json:"value"`
	Set   bool   `json:"set"`
}

func (s *Service) GetStorageSlot(_ *http.Request, args *StorageSlotArgs, reply *StorageSlotReply) error {
	return s.vm.Read(func(c state.Chain) error {
		var err error
		reply.Value, reply.Set, err = c.StorageSlot(args.ContractID, args.Key)
		return err
	})
}
