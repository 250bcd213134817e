// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package validation decides whether a transaction may be executed against a
// ledger view. It never writes to the view.
package validation

import (
	"bytes"
	"errors"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/crypto"
	safemath "github.com/ava-labs/avalanchego/utils/math"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/ledgervm/asm"
	"github.com/ava-labs/ledgervm/state"
	"github.com/ava-labs/ledgervm/tx"
)

// Validated is a transaction that passed every check at Height.
type Validated struct {
	Tx     *tx.Tx
	Height uint64

	// Inputs and Outputs are the per-asset sums of coin inputs and coin
	// outputs. Change outputs are not counted.
	Inputs  map[ids.ID]uint64
	Outputs map[ids.ID]uint64

	// ByteFee is the encoded size times BytePrice. It is paid whatever
	// the run does.
	ByteFee uint64
	// MaxFee is GasLimit * GasPrice plus ByteFee, reserved from the base
	// asset.
	MaxFee uint64
}

// Fee is what the transaction pays after a run that used [gasUsed].
func (v *Validated) Fee(gasUsed uint64) uint64 {
	return gasUsed*v.Tx.GasPrice + v.ByteFee
}

// FreeBalances is what a script may observe through BAL: inputs minus coin
// outputs, and for the base asset also minus the maximum fee.
func (v *Validated) FreeBalances() map[ids.ID]uint64 {
	free := make(map[ids.ID]uint64, len(v.Inputs))
	for assetID, in := range v.Inputs {
		free[assetID] = in - v.Outputs[assetID]
	}
	free[tx.BaseAssetID] -= v.MaxFee
	return free
}

// Validate runs the structural, referential, economic and authorization
// checks in that order and reports the first failure as an *Error.
func Validate(params tx.Params, t *tx.Tx, height uint64, chain state.Chain) (*Validated, error) {
	if err := checkStructure(params, t); err != nil {
		return nil, err
	}
	if err := checkReferences(t, height, chain); err != nil {
		return nil, err
	}
	v, err := checkBalances(t, height)
	if err != nil {
		return nil, err
	}
	if err := checkSignatures(t); err != nil {
		return nil, err
	}
	return v, nil
}

func checkStructure(params tx.Params, t *tx.Tx) error {
	if t.Type != tx.TypeScript && t.Type != tx.TypeCreate {
		return structural(ErrUnknownType, "%d", t.Type)
	}
	if uint64(len(t.Bytes())) > params.MaxTxSize {
		return structural(ErrTxTooLarge, "%d bytes", len(t.Bytes()))
	}
	if len(t.Inputs) > params.MaxInputs {
		return structural(ErrTooManyInputs, "%d", len(t.Inputs))
	}
	if len(t.Outputs) > params.MaxOutputs {
		return structural(ErrTooManyOutputs, "%d", len(t.Outputs))
	}
	if len(t.Witnesses) > params.MaxWitnesses {
		return structural(ErrTooManyWitnesses, "%d", len(t.Witnesses))
	}
	for i, w := range t.Witnesses {
		if len(w) > params.MaxWitnessLength {
			return structural(ErrWitnessTooLong, "witness %d", i)
		}
	}
	if t.GasLimit > params.MaxGasPerTx {
		return structural(ErrGasLimitTooHigh, "%d > %d", t.GasLimit, params.MaxGasPerTx)
	}
	if err := checkInputs(t); err != nil {
		return err
	}
	if err := checkOutputs(t); err != nil {
		return err
	}
	if t.Type == tx.TypeScript {
		return checkScript(params, t)
	}
	return checkCreate(params, t)
}

func checkInputs(t *tx.Tx) error {
	coins := make(map[tx.UTXOID]struct{}, len(t.Inputs))
	contracts := ids.Set{}
	for i, in := range t.Inputs {
		switch in := in.(type) {
		case *tx.CoinInput:
			if int(in.WitnessIndex) >= len(t.Witnesses) {
				return structural(ErrWitnessIndex, "input %d", i)
			}
			if _, ok := coins[in.UTXOID]; ok {
				return structural(ErrDuplicateInput, "coin %s", in.UTXOID)
			}
			coins[in.UTXOID] = struct{}{}
		case *tx.ContractInput:
			if contracts.Contains(in.ContractID) {
				return structural(ErrDuplicateInput, "contract %s", in.ContractID)
			}
			contracts.Add(in.ContractID)
		default:
			return structural(ErrUnknownType, "input %d", i)
		}
	}
	return nil
}

func checkOutputs(t *tx.Tx) error {
	spentAssets := ids.Set{}
	for _, in := range t.CoinInputs() {
		spentAssets.Add(in.AssetID)
	}

	changeAssets := ids.Set{}
	contractOutputs := make(map[uint8]int)
	for i, out := range t.Outputs {
		switch out := out.(type) {
		case *tx.CoinOutput:
			if out.Amount == 0 {
				return structural(ErrZeroCoinOutput, "output %d", i)
			}
		case *tx.ChangeOutput:
			if changeAssets.Contains(out.AssetID) {
				return structural(ErrDuplicateChangeOutput, "asset %s", out.AssetID)
			}
			if !spentAssets.Contains(out.AssetID) {
				return structural(ErrChangeAssetNotInInputs, "asset %s", out.AssetID)
			}
			changeAssets.Add(out.AssetID)
		case *tx.ContractOutput:
			idx := int(out.InputIndex)
			if idx >= len(t.Inputs) {
				return structural(ErrContractOutputIndex, "output %d", i)
			}
			if _, ok := t.Inputs[idx].(*tx.ContractInput); !ok {
				return structural(ErrContractOutputIndex, "output %d", i)
			}
			contractOutputs[out.InputIndex]++
		case *tx.ContractCreatedOutput:
			if t.Type == tx.TypeScript {
				return structural(ErrContractCreatedInScript, "output %d", i)
			}
		default:
			return structural(ErrUnknownType, "output %d", i)
		}
	}
	for i, in := range t.Inputs {
		if _, ok := in.(*tx.ContractInput); ok && contractOutputs[uint8(i)] != 1 {
			return structural(ErrContractOutputMissing, "input %d", i)
		}
	}
	return nil
}

func checkScript(params tx.Params, t *tx.Tx) error {
	if len(t.Script) == 0 {
		return structural(ErrMissingScript, "")
	}
	if len(t.Script) > params.MaxScriptLength {
		return structural(ErrScriptTooLong, "%d bytes", len(t.Script))
	}
	if len(t.Script)%asm.InstructionSize != 0 {
		return structural(ErrUnalignedCode, "%d bytes", len(t.Script))
	}
	if len(t.ScriptData) > params.MaxScriptDataLength {
		return structural(ErrScriptDataTooLong, "%d bytes", len(t.ScriptData))
	}
	if len(t.StorageSlots) != 0 || t.Salt != ids.Empty || t.BytecodeWitnessIndex != 0 {
		return structural(ErrUnexpectedCreateFields, "")
	}
	return nil
}

func checkCreate(params tx.Params, t *tx.Tx) error {
	if len(t.Script) != 0 || len(t.ScriptData) != 0 {
		return structural(ErrUnexpectedScriptFields, "")
	}
	if len(t.ContractIDs()) != 0 {
		return structural(ErrContractInputInCreate, "")
	}
	if int(t.BytecodeWitnessIndex) >= len(t.Witnesses) {
		return structural(ErrWitnessIndex, "bytecode witness %d", t.BytecodeWitnessIndex)
	}
	code := t.Bytecode()
	if len(code) > params.MaxContractSize {
		return structural(ErrContractTooLarge, "%d bytes", len(code))
	}
	if len(code)%asm.InstructionSize != 0 {
		return structural(ErrUnalignedCode, "%d bytes", len(code))
	}
	if len(t.StorageSlots) > params.MaxStorageSlots {
		return structural(ErrTooManyStorageSlots, "%d", len(t.StorageSlots))
	}
	for i := 1; i < len(t.StorageSlots); i++ {
		if bytes.Compare(t.StorageSlots[i-1].Key[:], t.StorageSlots[i].Key[:]) >= 0 {
			return structural(ErrUnsortedStorageSlots, "slot %d", i)
		}
	}

	stateRoot := tx.StateRoot(t.StorageSlots)
	contractID := tx.ContractID(t.Salt, code, stateRoot)
	created := 0
	for _, out := range t.Outputs {
		if out, ok := out.(*tx.ContractCreatedOutput); ok {
			if out.ContractID != contractID || out.StateRoot != stateRoot {
				return structural(ErrContractCreatedOutput, "expected %s", contractID)
			}
			created++
		}
	}
	if created != 1 {
		return structural(ErrContractCreatedOutput, "found %d", created)
	}
	return nil
}

func checkReferences(t *tx.Tx, height uint64, chain state.Chain) error {
	txID := t.ID()
	committed, err := chain.HasTx(txID)
	if err != nil {
		return err
	}
	if committed {
		return referential(ErrTxAlreadyCommitted, "%s", txID)
	}
	if t.Maturity > height {
		return referential(ErrTxNotMature, "maturity %d > height %d", t.Maturity, height)
	}
	for _, in := range t.Inputs {
		switch in := in.(type) {
		case *tx.CoinInput:
			coin, err := chain.GetCoin(in.UTXOID)
			if errors.Is(err, database.ErrNotFound) {
				return referential(ErrCoinNotFound, "%s", in.UTXOID)
			}
			if err != nil {
				return err
			}
			if coin.Status == state.CoinSpent {
				return referential(ErrCoinSpent, "%s", in.UTXOID)
			}
			if coin.Owner != in.Owner || coin.Amount != in.Amount || coin.AssetID != in.AssetID || coin.Maturity != in.Maturity {
				return referential(ErrCoinMismatch, "%s", in.UTXOID)
			}
			if !coin.Spendable(height) {
				return referential(ErrCoinNotMature, "%s", in.UTXOID)
			}
		case *tx.ContractInput:
			_, ok, err := chain.ContractCode(in.ContractID)
			if err != nil {
				return err
			}
			if !ok {
				return referential(ErrContractNotFound, "%s", in.ContractID)
			}
		}
	}
	if t.Type == tx.TypeCreate {
		contractID := tx.ContractID(t.Salt, t.Bytecode(), tx.StateRoot(t.StorageSlots))
		_, ok, err := chain.ContractCode(contractID)
		if err != nil {
			return err
		}
		if ok {
			return referential(ErrContractExists, "%s", contractID)
		}
	}
	return nil
}

func checkBalances(t *tx.Tx, height uint64) (*Validated, error) {
	v := &Validated{
		Tx:      t,
		Height:  height,
		Inputs:  make(map[ids.ID]uint64),
		Outputs: make(map[ids.ID]uint64),
	}
	for _, in := range t.CoinInputs() {
		sum, err := safemath.Add64(v.Inputs[in.AssetID], in.Amount)
		if err != nil {
			return nil, economic(ErrAmountOverflow, "inputs of %s", in.AssetID)
		}
		v.Inputs[in.AssetID] = sum
	}
	for _, out := range t.Outputs {
		if out, ok := out.(*tx.CoinOutput); ok {
			sum, err := safemath.Add64(v.Outputs[out.AssetID], out.Amount)
			if err != nil {
				return nil, economic(ErrAmountOverflow, "outputs of %s", out.AssetID)
			}
			v.Outputs[out.AssetID] = sum
		}
	}

	byteFee, err := safemath.Mul64(uint64(len(t.Bytes())), t.BytePrice)
	if err != nil {
		return nil, economic(ErrAmountOverflow, "byte fee")
	}
	gasFee, err := safemath.Mul64(t.GasLimit, t.GasPrice)
	if err != nil {
		return nil, economic(ErrAmountOverflow, "max fee")
	}
	maxFee, err := safemath.Add64(gasFee, byteFee)
	if err != nil {
		return nil, economic(ErrAmountOverflow, "max fee")
	}
	v.ByteFee = byteFee
	v.MaxFee = maxFee

	for _, out := range t.Outputs {
		out, ok := out.(*tx.CoinOutput)
		if !ok {
			continue
		}
		if in, spent := v.Inputs[out.AssetID], v.Outputs[out.AssetID]; in < spent {
			return nil, economic(ErrInsufficientBalance, "asset %s: %d < %d", out.AssetID, in, spent)
		}
	}
	required, err := safemath.Add64(v.Outputs[tx.BaseAssetID], maxFee)
	if err != nil {
		return nil, economic(ErrAmountOverflow, "base asset outputs plus fee")
	}
	if v.Inputs[tx.BaseAssetID] < required {
		return nil, economic(ErrInsufficientBalance, "base asset: %d < %d including fee", v.Inputs[tx.BaseAssetID], required)
	}
	return v, nil
}

// checkSignatures recovers every coin input's signer concurrently. The
// failure reported is the one of the lowest input index.
func checkSignatures(t *tx.Tx) error {
	coins := t.CoinInputs()
	if len(coins) == 0 {
		return nil
	}
	txID := t.ID()
	errs := make([]error, len(coins))

	var g errgroup.Group
	for i, in := range coins {
		i, in := i, in
		g.Go(func() error {
			factory := crypto.FactorySECP256K1R{}
			pub, err := factory.RecoverHashPublicKey(txID[:], t.Witnesses[in.WitnessIndex])
			switch {
			case err != nil:
				errs[i] = authorization(ErrInvalidSignature, "input %s: %v", in.UTXOID, err)
			case pub.Address() != in.Owner:
				errs[i] = authorization(ErrWrongSigner, "input %s", in.UTXOID)
			}
			return errs[i]
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
