// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledgervm wires the ledger into a node: genesis, mempool, block
// builder, committed-block feed and the JSON-RPC service.
package ledgervm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	cjson "github.com/ava-labs/avalanchego/utils/json"
	"github.com/bobg/multichan"
	"github.com/gorilla/rpc/v2"
	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/ledgervm/executor"
	"github.com/ava-labs/ledgervm/state"
	"github.com/ava-labs/ledgervm/tx"
	"github.com/ava-labs/ledgervm/validation"
)

// Name/Version
const (
	Name    = "ledgervm"
	Version = "v1.0.0"
)

var (
	errShutdown        = errors.New("vm is shutting down")
	errGasPriceTooLow  = errors.New("gas price below node minimum")
	errBytePriceTooLow = errors.New("byte price below node minimum")
)

// VM is a single ledger node.
type VM struct {
	config Config
	params tx.Params
	log    log.Logger

	store   *state.Store
	exec    *executor.Executor
	mempool *mempool
	feed    *multichan.W
	metrics *metrics
	*builder

	genesis *state.Block
}

// Initialize opens the ledger in [db], committing the genesis described by
// [genesisBytes] if the ledger is empty.
func (vm *VM) Initialize(
	ctx context.Context,
	db database.Database,
	genesisBytes []byte,
	config Config,
	registerer prometheus.Registerer,
	logger log.Logger,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := config.Verify(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	execConfig, err := config.executorConfig()
	if err != nil {
		return err
	}
	logger.Info("Initializing ledger VM", "Version", Version, "production", config.BlockProduction)

	vm.config = config
	vm.params = execConfig.Params
	vm.log = logger

	vm.store, err = state.NewStore(db, Name, registerer)
	if err != nil {
		return err
	}
	vm.metrics, err = newMetrics(Name, registerer)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	vm.exec = executor.New(execConfig, vm.store, logger.New("module", "executor"))

	genesisHash, genesis, err := ParseGenesis(genesisBytes)
	if err != nil {
		return err
	}
	vm.genesis, err = vm.exec.Initialize(genesisHash, genesis)
	if err != nil {
		return fmt.Errorf("failed to initialize genesis: %w", err)
	}

	vm.mempool = newMempool(config.MempoolSize, vm.metrics.mempoolSize)
	vm.feed = multichan.New((*executor.Output)(nil))
	vm.builder = &builder{
		config:  config,
		mempool: vm.mempool,
		exec:    vm.exec,
		feed:    vm.feed,
		metrics: vm.metrics,
		log:     logger.New("module", "builder"),
	}
	return nil
}

// Submit decodes and checks a transaction against the committed ledger and
// adds it to the mempool.
func (vm *VM) Submit(ctx context.Context, txBytes []byte) (ids.ID, error) {
	if err := ctx.Err(); err != nil {
		return ids.Empty, err
	}
	t, err := tx.Parse(txBytes)
	if err != nil {
		return ids.Empty, err
	}
	if err := vm.check(t); err != nil {
		vm.log.Info("transaction rejected", "txID", t.ID(), "reason", err)
		return ids.Empty, err
	}
	if err := vm.mempool.Add(t); err != nil {
		return ids.Empty, err
	}
	return t.ID(), nil
}

// check validates [t] as if it were included in the next block. Coins that
// do not exist yet are accepted when the transaction creating them is
// pending; the executor validates again against the actual block.
func (vm *VM) check(t *tx.Tx) error {
	if t.GasPrice < vm.config.MinGasPrice {
		return fmt.Errorf("%w: %d < %d", errGasPriceTooLow, t.GasPrice, vm.config.MinGasPrice)
	}
	if t.BytePrice < vm.config.MinBytePrice {
		return fmt.Errorf("%w: %d < %d", errBytePriceTooLow, t.BytePrice, vm.config.MinBytePrice)
	}
	return vm.store.Read(func(c state.Chain) error {
		height, err := nextHeight(c)
		if err != nil {
			return err
		}
		_, err = validation.Validate(vm.params, t, height, c)
		if errors.Is(err, validation.ErrCoinNotFound) && vm.spendsPending(t, c) {
			return nil
		}
		return err
	})
}

func (vm *VM) spendsPending(t *tx.Tx, c state.Chain) bool {
	for _, in := range t.CoinInputs() {
		_, err := c.GetCoin(in.UTXOID)
		if err == nil {
			continue
		}
		if !errors.Is(err, database.ErrNotFound) || !vm.mempool.Has(in.UTXOID.TxID) {
			return false
		}
	}
	return true
}

// AwaitTx blocks until a block deciding [txID] is committed and returns the
// transaction's status.
func (vm *VM) AwaitTx(ctx context.Context, txID ids.ID) (*state.TxStatus, error) {
	// Subscribe before looking so that a block committed in between is not
	// missed.
	r := vm.feed.Reader()
	defer r.Dispose()

	status, err := vm.GetTxStatus(txID)
	if err == nil {
		return status, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	for {
		v, ok := r.Read(ctx)
		if !ok {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, errShutdown
		}
		out := v.(*executor.Output)
		for _, o := range out.Outcomes {
			if o.TxID == txID {
				return vm.GetTxStatus(txID)
			}
		}
	}
}

// SubmitAndAwait submits a transaction and waits for its block.
func (vm *VM) SubmitAndAwait(ctx context.Context, txBytes []byte) (ids.ID, *state.TxStatus, error) {
	txID, err := vm.Submit(ctx, txBytes)
	if err != nil {
		return ids.Empty, nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, vm.config.AwaitTimeout)
	defer cancel()

	status, err := vm.AwaitTx(ctx, txID)
	return txID, status, err
}

// DryRun executes a transaction on top of the committed ledger without
// committing it.
func (vm *VM) DryRun(ctx context.Context, txBytes []byte) (*executor.Outcome, error) {
	t, err := tx.Parse(txBytes)
	if err != nil {
		return nil, err
	}
	return vm.exec.DryRun(ctx, t)
}

// Subscribe returns a reader of every block committed from now on.
func (vm *VM) Subscribe() *multichan.R { return vm.feed.Reader() }

func (vm *VM) GetTxStatus(txID ids.ID) (*state.TxStatus, error) {
	var status *state.TxStatus
	err := vm.store.Read(func(c state.Chain) error {
		var err error
		status, err = c.GetTxStatus(txID)
		return err
	})
	return status, err
}

// Read runs [fn] against the committed ledger.
func (vm *VM) Read(fn func(state.Chain) error) error { return vm.store.Read(fn) }

// CreateHandlers returns a map where:
// Keys: The path extension for this VM's API (empty in this case)
// Values: The handler for the API
func (vm *VM) CreateHandlers() (map[string]http.Handler, error) {
	server := rpc.NewServer()
	codec := cjson.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	if err := server.RegisterService(&Service{vm: vm}, Name); err != nil {
		return nil, err
	}
	return map[string]http.Handler{
		"": server,
	}, nil
}

// Shutdown releases readers waiting on the feed and closes the ledger.
func (vm *VM) Shutdown() error {
	if vm.feed != nil {
		vm.feed.Close()
	}
	if vm.store == nil {
		return nil
	}
	return vm.store.Close()
}

func nextHeight(c state.Chain) (uint64, error) {
	blkID, err := c.GetLastAccepted()
	if err != nil {
		return 0, err
	}
	blk, err := c.GetBlock(blkID)
	if err != nil {
		return 0, err
	}
	return blk.Height + 1, nil
}

// HealthReply reports the state of the node.
type HealthReply struct {
	Healthy     bool   `json:"healthy"`
	Height      uint64 `json:"height"`
	MempoolSize int    `json:"mempoolSize"`
}

// HealthCheck reports the last accepted height and the pending transaction
// count. The node is unhealthy when the ledger cannot be read.
func (vm *VM) HealthCheck() (*HealthReply, error) {
	var height uint64
	err := vm.store.Read(func(c state.Chain) error {
		next, err := nextHeight(c)
		height = next - 1
		return err
	})
	if err != nil {
		return &HealthReply{}, err
	}
	return &HealthReply{
		Healthy:     true,
		Height:      height,
		MempoolSize: vm.mempool.Len(),
	}, nil
}
