// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"errors"
	"fmt"

	"github.com/ava-labs/ledgervm/tx"
)

var ErrUnknownFaultPolicy = errors.New("unknown fault policy")

// FaultPolicy decides what a faulted transaction leaves behind.
type FaultPolicy uint8

const (
	// FaultCharge spends the inputs, burns the fee for the gas used and
	// refunds the rest through the change outputs, as a revert does.
	FaultCharge FaultPolicy = iota
	// FaultExclude drops the transaction without touching the ledger.
	FaultExclude
)

func (p FaultPolicy) String() string {
	switch p {
	case FaultCharge:
		return "charge"
	case FaultExclude:
		return "exclude"
	default:
		return fmt.Sprintf("FaultPolicy(%d)", uint8(p))
	}
}

// ParseFaultPolicy parses the names printed by String.
func ParseFaultPolicy(s string) (FaultPolicy, error) {
	switch s {
	case "charge":
		return FaultCharge, nil
	case "exclude":
		return FaultExclude, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFaultPolicy, s)
	}
}

type Config struct {
	Params      tx.Params
	FaultPolicy FaultPolicy
	// Backtrace logs the location and receipts of every reverted or faulted
	// run.
	Backtrace bool
}

var DefaultConfig = Config{
	Params:      tx.DefaultParams,
	FaultPolicy: FaultCharge,
}
