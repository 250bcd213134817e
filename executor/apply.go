// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	safemath "github.com/ava-labs/avalanchego/utils/math"
	"github.com/davecgh/go-spew/spew"

	"github.com/ava-labs/ledgervm/interpreter"
	"github.com/ava-labs/ledgervm/receipts"
	"github.com/ava-labs/ledgervm/state"
	"github.com/ava-labs/ledgervm/tx"
	"github.com/ava-labs/ledgervm/validation"
)

// apply validates and executes [t] at [height] in a delta nested over
// [blockState]. The returned error is always a storage failure; everything
// that can go wrong with the transaction itself is reported in the Outcome.
func (e *Executor) apply(blockState *state.State, t *tx.Tx, height uint64) (*Outcome, error) {
	txID := t.ID()
	out := &Outcome{TxID: txID}

	txState := blockState.Nested()
	defer txState.Abort()

	v, err := validation.Validate(e.config.Params, t, height, txState)
	if err != nil {
		kind, ok := validation.KindOf(err)
		if !ok {
			return nil, err
		}
		e.log.Info("transaction rejected", "txID", txID, "kind", kind, "reason", err)
		out.Status = state.StatusRejected
		out.Reason = err.Error()
		out.Err = err
		return out, nil
	}

	var result *interpreter.Result
	if t.Type == tx.TypeScript {
		result, err = e.execute(txState, v)
		if err != nil {
			return nil, err
		}
		out.GasUsed = result.GasUsed
		out.Receipts = append(result.Receipts, receipts.ScriptResult(result.Status.Result(), result.GasUsed))

		switch result.Status {
		case interpreter.StatusSuccess:
			out.Status = state.StatusSuccess
		case interpreter.StatusRevert:
			out.Status = state.StatusReverted
			out.Reason = fmt.Sprintf("reverted with %d", result.ReturnValue)
		default:
			out.Status = state.StatusFailed
			out.Reason = result.Err.Error()
			e.log.Info("transaction faulted",
				"txID", txID,
				"reason", result.Reason,
				"policy", e.config.FaultPolicy,
			)
		}
		if result.Status != interpreter.StatusSuccess {
			e.backtrace(txID, result)
		}
	}

	out.Fee = v.Fee(out.GasUsed)

	receiptsRoot, err := receipts.Root(out.Receipts)
	if err != nil {
		return e.unrecordable(txID, err), nil
	}

	if out.Status == state.StatusFailed && e.config.FaultPolicy == FaultExclude {
		out.Fee = 0
		return out, blockState.PutReceipts(height, txID, out.Receipts)
	}

	success := out.Status == state.StatusSuccess
	recorded, err := settle(txState, v, out.Fee, success)
	if err != nil {
		return nil, err
	}
	if success {
		if result != nil {
			for _, w := range result.Writes {
				if err := txState.PutStorageSlot(w.ContractID, w.Key, w.Value); err != nil {
					return nil, err
				}
			}
		}
		if t.Type == tx.TypeCreate {
			if err := deploy(txState, t, height); err != nil {
				return nil, err
			}
		}
	}

	recorded.ReceiptsRoot = receiptsRoot
	if err := recorded.Initialize(); err != nil {
		return e.unrecordable(txID, err), nil
	}
	if err := txState.PutTx(recorded); err != nil {
		return nil, err
	}
	if err := txState.PutReceipts(height, txID, out.Receipts); err != nil {
		return nil, err
	}
	out.Tx = recorded
	return out, txState.Commit()
}

// unrecordable excludes a transaction whose results cannot be encoded. It
// leaves nothing behind and fails only the transaction, never the block.
func (e *Executor) unrecordable(txID ids.ID, err error) *Outcome {
	e.log.Warn("transaction results not encodable", "txID", txID, "error", err)
	return &Outcome{
		TxID:   txID,
		Status: state.StatusFailed,
		Reason: fmt.Sprintf("results not encodable: %v", err),
	}
}

func (e *Executor) execute(s *state.State, v *validation.Validated) (*interpreter.Result, error) {
	t := v.Tx
	contracts := ids.Set{}
	contracts.Add(t.ContractIDs()...)
	ctx := &interpreter.Context{
		TxID:      t.ID(),
		Height:    v.Height,
		Balances:  v.FreeBalances(),
		Contracts: contracts,
	}
	return interpreter.Execute(e.config.Params, t.Script, t.ScriptData, ctx, s, t.GasLimit)
}

func (e *Executor) backtrace(txID ids.ID, res *interpreter.Result) {
	if !e.config.Backtrace {
		return
	}
	e.log.Info("vm backtrace",
		"txID", txID,
		"status", res.Status,
		"reason", res.Reason,
		"contractID", res.ContractID,
		"depth", res.Depth,
		"pc", res.PC,
		"is", res.IS,
		"receipts", spew.Sdump(res.Receipts),
	)
}

// settle spends the coin inputs of [v], creates its coin outputs if
// [success], and pays each change output what is left of its asset after the
// coin outputs (if created) and, for the base asset, [fee]. The returned copy
// of the transaction carries the change amounts.
func settle(s *state.State, v *validation.Validated, fee uint64, success bool) (*tx.Tx, error) {
	t := v.Tx
	txID := t.ID()
	for _, in := range t.CoinInputs() {
		if err := s.SpendCoin(in.UTXOID); err != nil {
			return nil, err
		}
	}

	change := make(map[ids.ID]uint64, len(v.Inputs))
	for assetID, in := range v.Inputs {
		if success {
			in -= v.Outputs[assetID]
		}
		change[assetID] = in
	}
	left, err := safemath.Sub64(change[tx.BaseAssetID], fee)
	if err != nil {
		return nil, fmt.Errorf("fee %d exceeds base asset balance %d", fee, change[tx.BaseAssetID])
	}
	change[tx.BaseAssetID] = left

	recorded := *t
	recorded.Outputs = make([]tx.Output, len(t.Outputs))
	for i, o := range t.Outputs {
		recorded.Outputs[i] = o
		utxoID := tx.UTXOID{TxID: txID, OutputIndex: uint8(i)}
		switch o := o.(type) {
		case *tx.CoinOutput:
			if !success {
				continue
			}
			if err := s.PutCoin(utxoID, &state.Coin{
				Owner:        o.To,
				Amount:       o.Amount,
				AssetID:      o.AssetID,
				BlockCreated: v.Height,
			}); err != nil {
				return nil, err
			}
		case *tx.ChangeOutput:
			filled := &tx.ChangeOutput{
				To:      o.To,
				Amount:  change[o.AssetID],
				AssetID: o.AssetID,
			}
			recorded.Outputs[i] = filled
			if filled.Amount == 0 {
				continue
			}
			if err := s.PutCoin(utxoID, &state.Coin{
				Owner:        filled.To,
				Amount:       filled.Amount,
				AssetID:      filled.AssetID,
				BlockCreated: v.Height,
			}); err != nil {
				return nil, err
			}
		}
	}
	return &recorded, nil
}

// deploy stores the contract created by [t] and its initial storage.
func deploy(s *state.State, t *tx.Tx, height uint64) error {
	code := t.Bytecode()
	stateRoot := tx.StateRoot(t.StorageSlots)
	contractID := tx.ContractID(t.Salt, code, stateRoot)
	if err := s.PutContract(contractID, &state.Contract{
		Code:      code,
		Salt:      t.Salt,
		StateRoot: stateRoot,
		Height:    height,
	}); err != nil {
		return err
	}
	for _, slot := range t.StorageSlots {
		if err := s.PutStorageSlot(contractID, slot.Key, slot.Value); err != nil {
			return err
		}
	}
	return nil
}
