// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/crypto"
	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/ledgervm/asm"
	"github.com/ava-labs/ledgervm/interpreter"
	"github.com/ava-labs/ledgervm/receipts"
	"github.com/ava-labs/ledgervm/state"
	"github.com/ava-labs/ledgervm/state/statetest"
	"github.com/ava-labs/ledgervm/tx"
	"github.com/ava-labs/ledgervm/validation"
)

var (
	genesisHash = ids.ID{'g', 'e', 'n', 'e', 's', 'i', 's'}
	assetA      = ids.ID{0xaa}

	// storeContract writes 42 into slot 0 and returns 1.
	storeContract = asm.Program(
		asm.Move(16, asm.RegSP),
		asm.Cfei(32),
		asm.Movi(17, 42),
		asm.Sww(16, 18, 17),
		asm.Ret(asm.RegOne),
	)
	storeContractID = tx.ContractID(ids.Empty, storeContract, tx.StateRoot(nil))

	// scenarioScript logs 0xca and 0xba and returns success.
	scenarioScript = asm.Program(
		asm.Addi(16, asm.RegZero, 0xca),
		asm.Addi(17, asm.RegZero, 0xba),
		asm.Log(16, 17, asm.RegZero, asm.RegZero),
		asm.Ret(asm.RegOne),
	)
)

type testLedger struct {
	t     *testing.T
	keys  []*crypto.PrivateKeySECP256K1R
	store *state.Store
	exec  *Executor
	coins []*state.Coin
}

func newKeys(t *testing.T) []*crypto.PrivateKeySECP256K1R {
	factory := crypto.FactorySECP256K1R{}
	keys := make([]*crypto.PrivateKeySECP256K1R, 2)
	for i := range keys {
		key, err := factory.NewPrivateKey()
		require.NoError(t, err)
		keys[i] = key.(*crypto.PrivateKeySECP256K1R)
	}
	return keys
}

func newTestLedger(t *testing.T, db database.Database, config Config, keys []*crypto.PrivateKeySECP256K1R) *testLedger {
	require := require.New(t)

	store, err := state.NewStore(db, "test", prometheus.NewRegistry())
	require.NoError(err)

	logger := log.New()
	logger.SetHandler(log.DiscardHandler())
	exec := New(config, store, logger)
	exec.Clock().Set(time.Unix(1_000, 0))

	coins := []*state.Coin{
		{Owner: tx.OwnerOf(keys[0]), Amount: 1000, AssetID: tx.BaseAssetID},
		{Owner: tx.OwnerOf(keys[0]), Amount: 10, AssetID: assetA},
		{Owner: tx.OwnerOf(keys[1]), Amount: 1000, AssetID: tx.BaseAssetID},
	}
	_, err = exec.Initialize(genesisHash, &Genesis{
		Coins:     coins,
		Contracts: []*GenesisContract{{Code: storeContract}},
	})
	require.NoError(err)

	return &testLedger{t: t, keys: keys, store: store, exec: exec, coins: coins}
}

// input spends genesis coin [i] with the witness of its owner.
func (l *testLedger) input(i int) *tx.CoinInput {
	coin := l.coins[i]
	witness := uint8(0)
	if coin.Owner == tx.OwnerOf(l.keys[1]) {
		witness = 1
	}
	return &tx.CoinInput{
		UTXOID:       GenesisUTXOID(genesisHash, i),
		Owner:        coin.Owner,
		Amount:       coin.Amount,
		AssetID:      coin.AssetID,
		WitnessIndex: witness,
	}
}

func (l *testLedger) owner(k int) ids.ShortID { return tx.OwnerOf(l.keys[k]) }

func (l *testLedger) sign(t *tx.Tx) *tx.Tx {
	require.NoError(l.t, t.Sign(l.keys...))
	return t
}

func (l *testLedger) script(program []byte, inputs []tx.Input, outputs []tx.Output) *tx.Tx {
	return l.sign(&tx.Tx{
		Type:     tx.TypeScript,
		GasPrice: 1,
		GasLimit: 100,
		Inputs:   inputs,
		Outputs:  outputs,
		Script:   program,
	})
}

func (l *testLedger) produce(txs ...*tx.Tx) *Output {
	out, err := l.exec.Produce(context.Background(), txs)
	require.NoError(l.t, err)
	return out
}

func (l *testLedger) read(fn func(state.Chain)) {
	require.NoError(l.t, l.store.Read(func(c state.Chain) error {
		fn(c)
		return nil
	}))
}

func (l *testLedger) requireCoin(utxoID tx.UTXOID, amount uint64, status state.CoinStatus) {
	l.read(func(c state.Chain) {
		coin, err := c.GetCoin(utxoID)
		require.NoError(l.t, err)
		require.Equal(l.t, amount, coin.Amount)
		require.Equal(l.t, status, coin.Status)
	})
}

func (l *testLedger) requireNoCoin(utxoID tx.UTXOID) {
	l.read(func(c state.Chain) {
		_, err := c.GetCoin(utxoID)
		require.ErrorIs(l.t, err, database.ErrNotFound)
	})
}

func TestLogScript(t *testing.T) {
	require := require.New(t)

	l := newTestLedger(t, memdb.New(), DefaultConfig, newKeys(t))
	transaction := l.script(scenarioScript,
		[]tx.Input{l.input(0)},
		[]tx.Output{&tx.ChangeOutput{To: l.owner(0), AssetID: tx.BaseAssetID}},
	)
	txID := transaction.ID()

	out := l.produce(transaction)
	blk := out.Block
	require.Equal(uint64(1), blk.Height)
	require.Equal([]ids.ID{txID}, blk.Txs)
	require.Empty(blk.Excluded)
	require.Equal(uint64(8), blk.TotalGas)
	require.Equal(uint64(8), blk.TotalFees)
	require.Equal(int64(1_000), blk.Timestamp)

	outcome := out.Outcomes[0]
	require.Equal(state.StatusSuccess, outcome.Status)
	require.Len(outcome.Receipts, 3)
	logged := outcome.Receipts[0]
	require.Equal(receipts.KindLog, logged.Kind)
	require.Equal(uint64(202), logged.Ra)
	require.Equal(uint64(186), logged.Rb)
	result := outcome.Receipts[2]
	require.Equal(receipts.KindScriptResult, result.Kind)
	require.Equal(receipts.ResultSuccess, result.Result)
	require.Equal(uint64(8), result.GasUsed)

	l.requireCoin(GenesisUTXOID(genesisHash, 0), 1000, state.CoinSpent)
	l.requireCoin(tx.UTXOID{TxID: txID}, 992, state.CoinUnspent)

	l.read(func(c state.Chain) {
		lastAccepted, err := c.GetLastAccepted()
		require.NoError(err)
		require.Equal(blk.ID(), lastAccepted)

		status, err := c.GetTxStatus(txID)
		require.NoError(err)
		require.Equal(state.StatusSuccess, status.Kind)
		require.Equal(blk.ID(), status.BlockID)
		require.Equal(uint64(8), status.Fee)

		recorded, err := c.GetTx(txID)
		require.NoError(err)
		require.Equal(txID, recorded.ID())
		require.Equal(uint64(992), recorded.Outputs[0].(*tx.ChangeOutput).Amount)
		root, err := receipts.Root(outcome.Receipts)
		require.NoError(err)
		require.Equal(root, recorded.ReceiptsRoot)

		rs, err := c.GetReceipts(txID)
		require.NoError(err)
		require.Len(rs, len(outcome.Receipts))
		stored, err := receipts.Root(rs)
		require.NoError(err)
		require.Equal(root, stored)
	})
}

func TestRejectedMissingCoin(t *testing.T) {
	require := require.New(t)

	l := newTestLedger(t, memdb.New(), DefaultConfig, newKeys(t))
	missing := &tx.CoinInput{
		UTXOID: tx.UTXOID{TxID: ids.ID{0x77}},
		Owner:  l.owner(0),
		Amount: 5,
	}
	transaction := l.script(scenarioScript, []tx.Input{missing}, nil)
	txID := transaction.ID()

	out := l.produce(transaction)
	outcome := out.Outcomes[0]
	require.Equal(state.StatusRejected, outcome.Status)
	require.ErrorIs(outcome.Err, validation.ErrCoinNotFound)
	kind, _ := validation.KindOf(outcome.Err)
	require.Equal(validation.KindReferential, kind)
	require.Empty(out.Block.Txs)
	require.Equal([]state.Exclusion{{
		TxID:   txID,
		Kind:   state.StatusRejected,
		Reason: outcome.Reason,
	}}, out.Block.Excluded)

	l.read(func(c state.Chain) {
		has, err := c.HasTx(txID)
		require.NoError(err)
		require.False(has)

		status, err := c.GetTxStatus(txID)
		require.NoError(err)
		require.Equal(state.StatusRejected, status.Kind)
	})
}

func TestRejectedUnbalanced(t *testing.T) {
	require := require.New(t)

	l := newTestLedger(t, memdb.New(), DefaultConfig, newKeys(t))
	transaction := l.script(scenarioScript,
		[]tx.Input{l.input(0), l.input(1)},
		[]tx.Output{&tx.CoinOutput{To: l.owner(1), Amount: 20, AssetID: assetA}},
	)

	outcome := l.produce(transaction).Outcomes[0]
	require.Equal(state.StatusRejected, outcome.Status)
	kind, _ := validation.KindOf(outcome.Err)
	require.Equal(validation.KindEconomic, kind)
	l.requireCoin(GenesisUTXOID(genesisHash, 1), 10, state.CoinUnspent)
}

// outOfGasTx has 1000 base asset in, 100 of it to key 1 and the rest as
// change, and a gas limit its script cannot fit in.
func outOfGasTx(l *testLedger) *tx.Tx {
	return l.sign(&tx.Tx{
		Type:     tx.TypeScript,
		GasPrice: 2,
		GasLimit: 3,
		Inputs:   []tx.Input{l.input(0)},
		Outputs: []tx.Output{
			&tx.CoinOutput{To: l.owner(1), Amount: 100, AssetID: tx.BaseAssetID},
			&tx.ChangeOutput{To: l.owner(0), AssetID: tx.BaseAssetID},
		},
		Script: scenarioScript,
	})
}

func TestFaultCharged(t *testing.T) {
	require := require.New(t)

	l := newTestLedger(t, memdb.New(), DefaultConfig, newKeys(t))
	transaction := outOfGasTx(l)
	txID := transaction.ID()

	out := l.produce(transaction)
	outcome := out.Outcomes[0]
	require.Equal(state.StatusFailed, outcome.Status)
	require.Equal(uint64(3), outcome.GasUsed)
	require.Equal(uint64(6), outcome.Fee)
	require.Equal(interpreter.ErrOutOfGas.Error(), outcome.Reason)
	require.Empty(out.Block.Txs)
	require.Len(out.Block.Excluded, 1)
	require.Equal(state.StatusFailed, out.Block.Excluded[0].Kind)
	require.Equal(uint64(6), out.Block.TotalFees)

	panicked := outcome.Receipts[0]
	require.Equal(receipts.KindPanic, panicked.Kind)
	require.Equal(receipts.ReasonOutOfGas, panicked.Reason)
	require.Equal(receipts.ResultPanic, outcome.Receipts[1].Result)

	l.requireCoin(GenesisUTXOID(genesisHash, 0), 1000, state.CoinSpent)
	l.requireNoCoin(tx.UTXOID{TxID: txID, OutputIndex: 0})
	l.requireCoin(tx.UTXOID{TxID: txID, OutputIndex: 1}, 994, state.CoinUnspent)

	l.read(func(c state.Chain) {
		has, err := c.HasTx(txID)
		require.NoError(err)
		require.True(has)
	})
}

func TestFaultExcluded(t *testing.T) {
	require := require.New(t)

	config := DefaultConfig
	config.FaultPolicy = FaultExclude
	config.Backtrace = true
	l := newTestLedger(t, memdb.New(), config, newKeys(t))
	transaction := outOfGasTx(l)
	txID := transaction.ID()

	out := l.produce(transaction)
	outcome := out.Outcomes[0]
	require.Equal(state.StatusFailed, outcome.Status)
	require.Zero(outcome.Fee)
	require.Nil(outcome.Tx)
	require.Zero(out.Block.TotalFees)

	l.requireCoin(GenesisUTXOID(genesisHash, 0), 1000, state.CoinUnspent)
	l.requireNoCoin(tx.UTXOID{TxID: txID, OutputIndex: 1})
	l.read(func(c state.Chain) {
		has, err := c.HasTx(txID)
		require.NoError(err)
		require.False(has)

		status, err := c.GetTxStatus(txID)
		require.NoError(err)
		require.Equal(state.StatusFailed, status.Kind)

		rs, err := c.GetReceipts(txID)
		require.NoError(err)
		require.Equal(receipts.KindPanic, rs[0].Kind)
		require.Equal(receipts.ReasonOutOfGas, rs[0].Reason)
	})
}

func TestRevert(t *testing.T) {
	require := require.New(t)

	l := newTestLedger(t, memdb.New(), DefaultConfig, newKeys(t))
	transaction := l.script(
		asm.Program(asm.Rvrt(asm.RegOne)),
		[]tx.Input{l.input(0)},
		[]tx.Output{
			&tx.CoinOutput{To: l.owner(1), Amount: 100, AssetID: tx.BaseAssetID},
			&tx.ChangeOutput{To: l.owner(0), AssetID: tx.BaseAssetID},
		},
	)
	txID := transaction.ID()

	out := l.produce(transaction)
	outcome := out.Outcomes[0]
	require.Equal(state.StatusReverted, outcome.Status)
	require.Equal([]ids.ID{txID}, out.Block.Txs)
	require.Equal(receipts.KindRevert, outcome.Receipts[0].Kind)
	require.Equal(receipts.ResultRevert, outcome.Receipts[1].Result)

	l.requireCoin(GenesisUTXOID(genesisHash, 0), 1000, state.CoinSpent)
	l.requireNoCoin(tx.UTXOID{TxID: txID, OutputIndex: 0})
	l.requireCoin(tx.UTXOID{TxID: txID, OutputIndex: 1}, 999, state.CoinUnspent)
}

func TestChainedInBlock(t *testing.T) {
	require := require.New(t)

	l := newTestLedger(t, memdb.New(), DefaultConfig, newKeys(t))
	ret := asm.Program(asm.Ret(asm.RegOne))
	first := l.script(ret,
		[]tx.Input{l.input(0)},
		[]tx.Output{
			&tx.CoinOutput{To: l.owner(1), Amount: 400, AssetID: tx.BaseAssetID},
			&tx.ChangeOutput{To: l.owner(0), AssetID: tx.BaseAssetID},
		},
	)
	second := l.script(ret,
		[]tx.Input{&tx.CoinInput{
			UTXOID:       tx.UTXOID{TxID: first.ID()},
			Owner:        l.owner(1),
			Amount:       400,
			AssetID:      tx.BaseAssetID,
			WitnessIndex: 1,
		}},
		[]tx.Output{&tx.ChangeOutput{To: l.owner(1), AssetID: tx.BaseAssetID}},
	)

	out := l.produce(first, second)
	require.Equal([]ids.ID{first.ID(), second.ID()}, out.Block.Txs)
	for _, outcome := range out.Outcomes {
		require.Equal(state.StatusSuccess, outcome.Status, outcome.Reason)
	}

	l.requireCoin(tx.UTXOID{TxID: first.ID()}, 400, state.CoinSpent)
	l.requireCoin(tx.UTXOID{TxID: first.ID(), OutputIndex: 1}, 599, state.CoinUnspent)
	l.requireCoin(tx.UTXOID{TxID: second.ID()}, 399, state.CoinUnspent)
}

func TestDoubleSpendInBlock(t *testing.T) {
	require := require.New(t)

	l := newTestLedger(t, memdb.New(), DefaultConfig, newKeys(t))
	first := l.script(scenarioScript,
		[]tx.Input{l.input(0)},
		[]tx.Output{&tx.ChangeOutput{To: l.owner(0), AssetID: tx.BaseAssetID}},
	)
	second := l.script(asm.Program(asm.Ret(asm.RegOne)),
		[]tx.Input{l.input(0)},
		[]tx.Output{&tx.ChangeOutput{To: l.owner(1), AssetID: tx.BaseAssetID}},
	)
	require.NotEqual(first.ID(), second.ID())

	out := l.produce(first, second)
	require.Equal(state.StatusSuccess, out.Outcomes[0].Status)
	require.Equal(state.StatusRejected, out.Outcomes[1].Status)
	require.ErrorIs(out.Outcomes[1].Err, validation.ErrCoinSpent)
	require.Equal([]ids.ID{first.ID()}, out.Block.Txs)
	require.Equal(second.ID(), out.Block.Excluded[0].TxID)

	l.requireCoin(tx.UTXOID{TxID: first.ID()}, 992, state.CoinUnspent)
	l.requireNoCoin(tx.UTXOID{TxID: second.ID()})
}

func TestOversizedReceiptsFailOnlyTheTx(t *testing.T) {
	require := require.New(t)

	l := newTestLedger(t, memdb.New(), DefaultConfig, newKeys(t))
	spam := l.sign(&tx.Tx{
		Type:     tx.TypeScript,
		GasLimit: 2_000_000,
		Inputs:   []tx.Input{l.input(0)},
		Outputs:  []tx.Output{&tx.ChangeOutput{To: l.owner(0), AssetID: tx.BaseAssetID}},
		Script: asm.Program(
			asm.Movi(16, asm.MaxImm18),
			asm.Logd(asm.RegZero, asm.RegZero, asm.RegZero, 16),
			asm.Ji(1),
		),
	})
	normal := l.script(scenarioScript, []tx.Input{l.input(2)}, nil)

	out := l.produce(spam, normal)
	require.Equal(uint64(1), out.Block.Height)

	spammed := out.Outcomes[0]
	require.Equal(state.StatusFailed, spammed.Status)
	require.Equal(interpreter.ErrReceiptsTooLarge.Error(), spammed.Reason)
	require.Less(spammed.GasUsed, uint64(2_000_000))
	require.Equal(state.StatusSuccess, out.Outcomes[1].Status)
	require.Equal([]ids.ID{normal.ID()}, out.Block.Txs)

	l.read(func(c state.Chain) {
		rs, err := c.GetReceipts(spam.ID())
		require.NoError(err)
		var size uint64
		for _, r := range rs {
			size += r.Size()
		}
		require.LessOrEqual(size, tx.DefaultParams.MaxReceiptsSize+2*receipts.ScriptResult(0, 0).Size())
	})
}

func TestExcludedReceiptsSurviveRerun(t *testing.T) {
	require := require.New(t)

	config := DefaultConfig
	config.FaultPolicy = FaultExclude
	l := newTestLedger(t, memdb.New(), config, newKeys(t))

	// faults at height 1 and returns at any other height
	program := asm.Program(
		asm.Bhei(16),
		asm.Movi(17, 1),
		asm.Jnei(16, 17, 4),
		asm.Instruction(0),
		asm.Ret(asm.RegOne),
	)
	transaction := l.script(program,
		[]tx.Input{l.input(0)},
		[]tx.Output{&tx.ChangeOutput{To: l.owner(0), AssetID: tx.BaseAssetID}},
	)
	txID := transaction.ID()

	first := l.produce(transaction)
	require.Equal(state.StatusFailed, first.Outcomes[0].Status)
	second := l.produce(transaction)
	require.Equal(state.StatusSuccess, second.Outcomes[0].Status)

	l.read(func(c state.Chain) {
		rs, err := c.GetReceiptsAt(1, txID)
		require.NoError(err)
		root, err := receipts.Root(rs)
		require.NoError(err)
		require.Equal(first.Block.ReceiptsRoot, root)

		rs, err = c.GetReceipts(txID)
		require.NoError(err)
		require.Equal(receipts.KindReturn, rs[0].Kind)
		root, err = receipts.Root(rs)
		require.NoError(err)
		require.Equal(second.Block.ReceiptsRoot, root)
	})
}

func TestBytePriceCharged(t *testing.T) {
	require := require.New(t)

	l := newTestLedger(t, memdb.New(), DefaultConfig, newKeys(t))
	transaction := &tx.Tx{
		Type:      tx.TypeScript,
		GasPrice:  1,
		GasLimit:  100,
		BytePrice: 1,
		Inputs:    []tx.Input{l.input(0)},
		Outputs:   []tx.Output{&tx.ChangeOutput{To: l.owner(0), AssetID: tx.BaseAssetID}},
		Script:    scenarioScript,
	}
	l.sign(transaction)
	size := uint64(len(transaction.Bytes()))

	outcome := l.produce(transaction).Outcomes[0]
	require.Equal(state.StatusSuccess, outcome.Status, outcome.Reason)
	require.Equal(8+size, outcome.Fee)
	l.requireCoin(tx.UTXOID{TxID: transaction.ID()}, 1000-8-size, state.CoinUnspent)
}

func TestDuplicateTx(t *testing.T) {
	require := require.New(t)

	l := newTestLedger(t, memdb.New(), DefaultConfig, newKeys(t))
	transaction := l.script(scenarioScript, []tx.Input{l.input(0)}, nil)
	txID := transaction.ID()

	out := l.produce(transaction, transaction)
	require.Equal(state.StatusSuccess, out.Outcomes[0].Status)
	require.Equal(state.StatusRejected, out.Outcomes[1].Status)
	require.ErrorIs(out.Outcomes[1].Err, validation.ErrTxAlreadyCommitted)

	out = l.produce(transaction)
	require.Equal(state.StatusRejected, out.Outcomes[0].Status)

	l.read(func(c state.Chain) {
		status, err := c.GetTxStatus(txID)
		require.NoError(err)
		require.Equal(state.StatusSuccess, status.Kind)
		require.Equal(uint64(1), status.Height)
	})
}

func TestCallWritesContractStorage(t *testing.T) {
	require := require.New(t)

	l := newTestLedger(t, memdb.New(), DefaultConfig, newKeys(t))
	data := make([]byte, interpreter.FrameHeaderSize)
	copy(data, storeContractID[:])
	program := asm.Program(
		asm.Movi(16, interpreter.ScriptOffset+4*asm.InstructionSize),
		asm.Call(16, asm.RegZero),
		asm.Ret(asm.RegRET),
		asm.Noop(),
	)
	transaction := l.sign(&tx.Tx{
		Type:     tx.TypeScript,
		GasPrice: 1,
		GasLimit: 1_000,
		Inputs: []tx.Input{
			l.input(0),
			&tx.ContractInput{ContractID: storeContractID},
		},
		Outputs: []tx.Output{
			&tx.ContractOutput{InputIndex: 1},
			&tx.ChangeOutput{To: l.owner(0), AssetID: tx.BaseAssetID},
		},
		Script:     program,
		ScriptData: data,
	})

	outcome := l.produce(transaction).Outcomes[0]
	require.Equal(state.StatusSuccess, outcome.Status, outcome.Reason)
	require.Equal(receipts.KindCall, outcome.Receipts[0].Kind)

	l.read(func(c state.Chain) {
		value, ok, err := c.StorageSlot(storeContractID, ids.Empty)
		require.NoError(err)
		require.True(ok)
		require.Equal(uint64(42), binary.BigEndian.Uint64(value[:8]))
	})
}

func TestCreate(t *testing.T) {
	require := require.New(t)

	l := newTestLedger(t, memdb.New(), DefaultConfig, newKeys(t))
	code := asm.Program(asm.Ret(asm.RegOne))
	salt := ids.ID{9}
	slots := []tx.StorageSlot{{Key: ids.ID{1}, Value: ids.ID{2}}}
	stateRoot := tx.StateRoot(slots)
	contractID := tx.ContractID(salt, code, stateRoot)

	transaction := l.sign(&tx.Tx{
		Type:   tx.TypeCreate,
		Inputs: []tx.Input{l.input(0)},
		Outputs: []tx.Output{
			&tx.ContractCreatedOutput{ContractID: contractID, StateRoot: stateRoot},
			&tx.ChangeOutput{To: l.owner(0), AssetID: tx.BaseAssetID},
		},
		BytecodeWitnessIndex: 2,
		Salt:                 salt,
		StorageSlots:         slots,
	})
	transaction.Witnesses = append(transaction.Witnesses, code)
	require.NoError(transaction.Initialize())

	out := l.produce(transaction)
	outcome := out.Outcomes[0]
	require.Equal(state.StatusSuccess, outcome.Status, outcome.Reason)
	require.Zero(outcome.Fee)
	require.Empty(outcome.Receipts)

	l.requireCoin(tx.UTXOID{TxID: transaction.ID(), OutputIndex: 1}, 1000, state.CoinUnspent)
	l.read(func(c state.Chain) {
		contract, err := c.GetContract(contractID)
		require.NoError(err)
		require.Equal(code, contract.Code)
		require.Equal(uint64(1), contract.Height)

		value, ok, err := c.StorageSlot(contractID, ids.ID{1})
		require.NoError(err)
		require.True(ok)
		require.Equal(ids.ID{2}, value)
	})
}

func TestFailedCommitIsRetryable(t *testing.T) {
	require := require.New(t)

	db := statetest.NewFailingDB()
	l := newTestLedger(t, db, DefaultConfig, newKeys(t))
	transaction := l.script(scenarioScript, []tx.Input{l.input(0)}, nil)
	txID := transaction.ID()

	var genesisID ids.ID
	l.read(func(c state.Chain) {
		var err error
		genesisID, err = c.GetLastAccepted()
		require.NoError(err)
	})

	db.Fail(true)
	_, err := l.exec.Produce(context.Background(), []*tx.Tx{transaction})
	require.ErrorIs(err, ErrStorage)

	l.read(func(c state.Chain) {
		lastAccepted, err := c.GetLastAccepted()
		require.NoError(err)
		require.Equal(genesisID, lastAccepted)

		_, err = c.GetBlockIDAtHeight(1)
		require.ErrorIs(err, database.ErrNotFound)
		_, err = c.GetTxStatus(txID)
		require.ErrorIs(err, database.ErrNotFound)
	})
	l.requireCoin(GenesisUTXOID(genesisHash, 0), 1000, state.CoinUnspent)

	db.Fail(false)
	out := l.produce(transaction)
	require.Equal(uint64(1), out.Block.Height)
	require.Equal(state.StatusSuccess, out.Outcomes[0].Status)
}

func TestCanceledProduce(t *testing.T) {
	require := require.New(t)

	l := newTestLedger(t, memdb.New(), DefaultConfig, newKeys(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.exec.Produce(ctx, []*tx.Tx{l.script(scenarioScript, []tx.Input{l.input(0)}, nil)})
	require.ErrorIs(err, context.Canceled)
	l.read(func(c state.Chain) {
		_, err := c.GetBlockIDAtHeight(1)
		require.ErrorIs(err, database.ErrNotFound)
	})
}

func TestDeterministicBlocks(t *testing.T) {
	require := require.New(t)

	keys := newKeys(t)
	var outputs []*Output
	for i := 0; i < 2; i++ {
		l := newTestLedger(t, memdb.New(), DefaultConfig, keys)
		outputs = append(outputs, l.produce(
			l.script(scenarioScript, []tx.Input{l.input(0)}, nil),
			outOfGasTx(l),
			l.script(asm.Program(asm.Rvrt(asm.RegZero)), []tx.Input{l.input(2)}, nil),
		))
	}
	require.Equal(outputs[0].Block.ID(), outputs[1].Block.ID())
	require.Equal(outputs[0].Block.Bytes(), outputs[1].Block.Bytes())
	for i := range outputs[0].Outcomes {
		require.Equal(outputs[0].Outcomes[i].Receipts, outputs[1].Outcomes[i].Receipts)
	}
}

func TestDryRun(t *testing.T) {
	require := require.New(t)

	l := newTestLedger(t, memdb.New(), DefaultConfig, newKeys(t))
	transaction := l.script(scenarioScript, []tx.Input{l.input(0)}, nil)

	outcome, err := l.exec.DryRun(context.Background(), transaction)
	require.NoError(err)
	require.Equal(state.StatusSuccess, outcome.Status)
	require.Equal(uint64(8), outcome.GasUsed)

	l.requireCoin(GenesisUTXOID(genesisHash, 0), 1000, state.CoinUnspent)
	l.read(func(c state.Chain) {
		has, err := c.HasTx(transaction.ID())
		require.NoError(err)
		require.False(has)
		_, err = c.GetBlockIDAtHeight(1)
		require.ErrorIs(err, database.ErrNotFound)
	})

	// the dry run left nothing behind, so the real run is identical
	out := l.produce(transaction)
	require.Equal(outcome.Receipts, out.Outcomes[0].Receipts)
}

func TestInitializeIdempotent(t *testing.T) {
	require := require.New(t)

	db := memdb.New()
	l := newTestLedger(t, db, DefaultConfig, newKeys(t))

	first, err := l.exec.Initialize(genesisHash, &Genesis{})
	require.NoError(err)
	require.Equal(uint64(0), first.Height)

	second, err := l.exec.Initialize(genesisHash, &Genesis{})
	require.NoError(err)
	require.Equal(first.ID(), second.ID())

	_, err = l.exec.Initialize(ids.ID{1}, &Genesis{})
	require.ErrorIs(err, errGenesisMismatch)

	l.requireCoin(GenesisUTXOID(genesisHash, 2), 1000, state.CoinUnspent)
}

func TestFaultPolicyNames(t *testing.T) {
	require := require.New(t)

	for _, policy := range []FaultPolicy{FaultCharge, FaultExclude} {
		parsed, err := ParseFaultPolicy(policy.String())
		require.NoError(err)
		require.Equal(policy, parsed)
	}
	_, err := ParseFaultPolicy("ignore")
	require.Error(err)
}
