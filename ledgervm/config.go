// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledgervm

import (
	"errors"
	"fmt"
	"time"

	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/ledgervm/executor"
	"github.com/ava-labs/ledgervm/tx"
)

const (
	// ProductionInstant builds a block as soon as transactions are pending.
	ProductionInstant = "instant"
	// ProductionInterval builds a block every BlockInterval.
	ProductionInterval = "interval"
)

var (
	errUnknownProduction = errors.New("unknown block production mode")
	errBadInterval       = errors.New("block interval must be positive")
	errBadMaxBlockTxs    = errors.New("max block txs must be positive")
	errBadMempoolSize    = errors.New("mempool size must be positive")
	errBadMaxGas         = errors.New("max gas per tx must be positive")
	errBadAwaitTimeout   = errors.New("await timeout must be positive")
)

// Config holds the node settings.
type Config struct {
	BlockProduction string        `json:"blockProduction"`
	BlockInterval   time.Duration `json:"blockInterval"`
	MaxBlockTxs     int           `json:"maxBlockTxs"`
	MempoolSize     int           `json:"mempoolSize"`
	FaultPolicy     string        `json:"faultPolicy"`
	VMBacktrace     bool          `json:"vmBacktrace"`
	MaxGasPerTx     uint64        `json:"maxGasPerTx"`
	AwaitTimeout    time.Duration `json:"awaitTimeout"`

	// Submissions priced below these are refused before validation.
	MinGasPrice  uint64 `json:"minGasPrice"`
	MinBytePrice uint64 `json:"minBytePrice"`
}

var DefaultConfig = Config{
	BlockProduction: ProductionInstant,
	BlockInterval:   time.Second,
	MaxBlockTxs:     256,
	MempoolSize:     4096,
	FaultPolicy:     executor.FaultCharge.String(),
	MaxGasPerTx:     tx.DefaultParams.MaxGasPerTx,
	AwaitTimeout:    30 * time.Second,
	MinGasPrice:     1,
}

// Verify returns the first problem found with the config.
func (c Config) Verify() error {
	errs := wrappers.Errs{}
	if c.BlockProduction != ProductionInstant && c.BlockProduction != ProductionInterval {
		errs.Add(fmt.Errorf("%w: %q", errUnknownProduction, c.BlockProduction))
	}
	if c.BlockInterval <= 0 {
		errs.Add(errBadInterval)
	}
	if c.MaxBlockTxs <= 0 {
		errs.Add(errBadMaxBlockTxs)
	}
	if c.MempoolSize <= 0 {
		errs.Add(errBadMempoolSize)
	}
	if _, err := executor.ParseFaultPolicy(c.FaultPolicy); err != nil {
		errs.Add(err)
	}
	if c.MaxGasPerTx == 0 {
		errs.Add(errBadMaxGas)
	}
	if c.AwaitTimeout <= 0 {
		errs.Add(errBadAwaitTimeout)
	}
	return errs.Err
}

func (c Config) params() tx.Params {
	params := tx.DefaultParams
	params.MaxGasPerTx = c.MaxGasPerTx
	return params
}

func (c Config) executorConfig() (executor.Config, error) {
	policy, err := executor.ParseFaultPolicy(c.FaultPolicy)
	if err != nil {
		return executor.Config{}, err
	}
	return executor.Config{
		Params:      c.params(),
		FaultPolicy: policy,
		Backtrace:   c.VMBacktrace,
	}, nil
}
