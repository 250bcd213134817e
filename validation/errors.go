// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package validation

import (
	"errors"
	"fmt"
)

// Kind classifies a validation failure. Checks run in Kind order, so a
// transaction failing several checks always reports the lowest Kind.
type Kind uint8

const (
	KindStructural Kind = iota
	KindReferential
	KindEconomic
	KindAuthorization
)

func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindReferential:
		return "referential"
	case KindEconomic:
		return "economic"
	case KindAuthorization:
		return "authorization"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Error is returned for every rejected transaction.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a validation error.
func KindOf(err error) (Kind, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Kind, true
	}
	return 0, false
}

func structural(err error, format string, args ...interface{}) error {
	return wrap(KindStructural, err, format, args...)
}

func referential(err error, format string, args ...interface{}) error {
	return wrap(KindReferential, err, format, args...)
}

func economic(err error, format string, args ...interface{}) error {
	return wrap(KindEconomic, err, format, args...)
}

func authorization(err error, format string, args ...interface{}) error {
	return wrap(KindAuthorization, err, format, args...)
}

func wrap(kind Kind, err error, format string, args ...interface{}) error {
	if format != "" {
		err = fmt.Errorf("%w: "+format, append([]interface{}{err}, args...)...)
	}
	return &Error{Kind: kind, Err: err}
}

// structural
var (
	ErrUnknownType             = errors.New("unknown transaction type")
	ErrTxTooLarge              = errors.New("transaction too large")
	ErrTooManyInputs           = errors.New("too many inputs")
	ErrTooManyOutputs          = errors.New("too many outputs")
	ErrTooManyWitnesses        = errors.New("too many witnesses")
	ErrWitnessTooLong          = errors.New("witness too long")
	ErrGasLimitTooHigh         = errors.New("gas limit exceeds maximum")
	ErrMissingScript           = errors.New("script transaction without script")
	ErrScriptTooLong           = errors.New("script too long")
	ErrScriptDataTooLong       = errors.New("script data too long")
	ErrUnalignedCode           = errors.New("code length is not a multiple of the instruction size")
	ErrWitnessIndex            = errors.New("witness index out of range")
	ErrDuplicateInput          = errors.New("duplicate input")
	ErrContractOutputIndex     = errors.New("contract output does not reference a contract input")
	ErrContractOutputMissing   = errors.New("contract input without exactly one contract output")
	ErrDuplicateChangeOutput   = errors.New("more than one change output for an asset")
	ErrChangeAssetNotInInputs  = errors.New("change output asset not spent by any input")
	ErrZeroCoinOutput          = errors.New("coin output with zero amount")
	ErrUnexpectedCreateFields  = errors.New("script transaction carries create fields")
	ErrUnexpectedScriptFields  = errors.New("create transaction carries a script")
	ErrContractInputInCreate   = errors.New("create transaction with contract inputs or outputs")
	ErrContractTooLarge        = errors.New("contract too large")
	ErrTooManyStorageSlots     = errors.New("too many storage slots")
	ErrUnsortedStorageSlots    = errors.New("storage slots not strictly ascending")
	ErrContractCreatedOutput   = errors.New("create transaction needs exactly one matching contract created output")
	ErrContractCreatedInScript = errors.New("contract created output in script transaction")
)

// referential
var (
	ErrTxAlreadyCommitted = errors.New("transaction already committed")
	ErrTxNotMature        = errors.New("transaction maturity not reached")
	ErrCoinNotFound       = errors.New("coin not found")
	ErrCoinSpent          = errors.New("coin already spent")
	ErrCoinMismatch       = errors.New("input does not match coin")
	ErrCoinNotMature      = errors.New("coin maturity not reached")
	ErrContractNotFound   = errors.New("contract not found")
	ErrContractExists     = errors.New("contract already deployed")
)

// economic
var (
	ErrInsufficientBalance = errors.New("outputs exceed inputs")
	ErrAmountOverflow      = errors.New("amount overflow")
)

// authorization
var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrWrongSigner      = errors.New("witness not signed by input owner")
)
