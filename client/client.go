// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/json"
	"github.com/gorilla/rpc/v2/json2"

	"github.com/ava-labs/ledgervm/ledgervm"
	"github.com/ava-labs/ledgervm/receipts"
	"github.com/ava-labs/ledgervm/state"
	"github.com/ava-labs/ledgervm/tx"
)

// Client defines ledgervm client operations.
type Client interface {
	// Submit queues [t] and returns its ID.
	Submit(ctx context.Context, t *tx.Tx) (ids.ID, error)

	// SubmitAndAwait queues [t] and waits for the block deciding it.
	SubmitAndAwait(ctx context.Context, t *tx.Tx) (*state.TxStatus, error)

	// DryRun executes [t] against the committed ledger without keeping it.
	DryRun(ctx context.Context, t *tx.Tx) (*ledgervm.DryRunReply, error)

	// GetBlock fetches the block with [blkID], or the last accepted block if
	// [blkID] is nil.
	GetBlock(ctx context.Context, blkID *ids.ID) (*state.Block, error)

	// GetBlockAtHeight fetches the block at [height].
	GetBlockAtHeight(ctx context.Context, height uint64) (*state.Block, error)

	Health(ctx context.Context) (*ledgervm.HealthReply, error)
	LastAccepted(ctx context.Context) (ids.ID, uint64, error)
	GetTransaction(ctx context.Context, txID ids.ID) (*tx.Tx, error)
	GetTransactionStatus(ctx context.Context, txID ids.ID) (*state.TxStatus, error)
	GetReceipts(ctx context.Context, txID ids.ID) ([]*receipts.Receipt, error)
	GetBlockReceipts(ctx context.Context, blkID ids.ID) ([]ledgervm.ReceiptsReply, error)
	GetCoin(ctx context.Context, utxoID tx.UTXOID) (*state.Coin, error)
	GetStorageSlot(ctx context.Context, contractID, key ids.ID) (ids.ID, bool, error)
}

// New creates a new client object for the service served at [uri].
func New(uri string) Client {
	return &client{uri: uri, http: http.DefaultClient}
}

type client struct {
	uri  string
	http *http.Client
}

func (cli *client) send(ctx context.Context, method string, args, reply interface{}) error {
	body, err := json2.EncodeClientRequest(ledgervm.Name+"."+method, args)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cli.uri, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := cli.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to issue %s: %w", method, err)
	}
	defer resp.Body.Close()

	// Service errors arrive as JSON-RPC error objects, whatever the status.
	if err := json2.DecodeClientResponse(resp.Body, reply); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s returned status %d: %w", method, resp.StatusCode, err)
		}
		return err
	}
	return nil
}

func encodeTx(t *tx.Tx) (*ledgervm.SubmitArgs, error) {
	txHex, err := formatting.EncodeWithChecksum(formatting.Hex, t.Bytes())
	if err != nil {
		return nil, err
	}
	return &ledgervm.SubmitArgs{Tx: txHex}, nil
}

func (cli *client) Submit(ctx context.Context, t *tx.Tx) (ids.ID, error) {
	args, err := encodeTx(t)
	if err != nil {
		return ids.Empty, err
	}
	reply := new(ledgervm.SubmitReply)
	if err := cli.send(ctx, "submit", args, reply); err != nil {
		return ids.Empty, err
	}
	return reply.TxID, nil
}

func (cli *client) SubmitAndAwait(ctx context.Context, t *tx.Tx) (*state.TxStatus, error) {
	args, err := encodeTx(t)
	if err != nil {
		return nil, err
	}
	reply := new(ledgervm.TxStatusReply)
	if err := cli.send(ctx, "submitAndAwait", args, reply); err != nil {
		return nil, err
	}
	return reply.Status, nil
}

func (cli *client) DryRun(ctx context.Context, t *tx.Tx) (*ledgervm.DryRunReply, error) {
	args, err := encodeTx(t)
	if err != nil {
		return nil, err
	}
	reply := new(ledgervm.DryRunReply)
	return reply, cli.send(ctx, "dryRun", args, reply)
}

func (cli *client) getBlock(ctx context.Context, args *ledgervm.GetBlockArgs) (*state.Block, error) {
	reply := new(ledgervm.BlockReply)
	if err := cli.send(ctx, "getBlock", args, reply); err != nil {
		return nil, err
	}
	// Re-initialize to compute the block's ID from its fields.
	if err := reply.Block.Initialize(); err != nil {
		return nil, err
	}
	if reply.Block.ID() != reply.ID {
		return nil, fmt.Errorf("block %s does not hash to its ID (got %s)", reply.ID, reply.Block.ID())
	}
	return reply.Block, nil
}

func (cli *client) GetBlock(ctx context.Context, blkID *ids.ID) (*state.Block, error) {
	return cli.getBlock(ctx, &ledgervm.GetBlockArgs{ID: blkID})
}

func (cli *client) GetBlockAtHeight(ctx context.Context, height uint64) (*state.Block, error) {
	h := json.Uint64(height)
	return cli.getBlock(ctx, &ledgervm.GetBlockArgs{Height: &h})
}

func (cli *client) Health(ctx context.Context) (*ledgervm.HealthReply, error) {
	reply := new(ledgervm.HealthReply)
	if err := cli.send(ctx, "health", &ledgervm.EmptyArgs{}, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (cli *client) LastAccepted(ctx context.Context) (ids.ID, uint64, error) {
	reply := new(ledgervm.LastAcceptedReply)
	err := cli.send(ctx, "lastAccepted", &ledgervm.EmptyArgs{}, reply)
	return reply.ID, uint64(reply.Height), err
}

func (cli *client) GetTransaction(ctx context.Context, txID ids.ID) (*tx.Tx, error) {
	// The decoded form does not carry concrete input and output types, so
	// only the encoding is read back.
	reply := &struct {
		Tx string `json:"tx"`
	}{}
	if err := cli.send(ctx, "getTransaction", &ledgervm.TxIDArgs{TxID: txID}, reply); err != nil {
		return nil, err
	}
	txBytes, err := formatting.Decode(formatting.Hex, reply.Tx)
	if err != nil {
		return nil, err
	}
	return tx.Parse(txBytes)
}

func (cli *client) GetTransactionStatus(ctx context.Context, txID ids.ID) (*state.TxStatus, error) {
	reply := new(ledgervm.TxStatusReply)
	if err := cli.send(ctx, "getTransactionStatus", &ledgervm.TxIDArgs{TxID: txID}, reply); err != nil {
		return nil, err
	}
	return reply.Status, nil
}

func (cli *client) GetReceipts(ctx context.Context, txID ids.ID) ([]*receipts.Receipt, error) {
	reply := new(ledgervm.ReceiptsReply)
	if err := cli.send(ctx, "getReceipts", &ledgervm.TxIDArgs{TxID: txID}, reply); err != nil {
		return nil, err
	}
	return reply.Receipts, nil
}

func (cli *client) GetBlockReceipts(ctx context.Context, blkID ids.ID) ([]ledgervm.ReceiptsReply, error) {
	reply := new(ledgervm.BlockReceiptsReply)
	if err := cli.send(ctx, "getBlockReceipts", &ledgervm.GetBlockArgs{ID: &blkID}, reply); err != nil {
		return nil, err
	}
	return reply.Txs, nil
}

func (cli *client) GetCoin(ctx context.Context, utxoID tx.UTXOID) (*state.Coin, error) {
	reply := new(ledgervm.CoinReply)
	args := &ledgervm.GetCoinArgs{TxID: utxoID.TxID, OutputIndex: json.Uint8(utxoID.OutputIndex)}
	if err := cli.send(ctx, "getCoin", args, reply); err != nil {
		return nil, err
	}
	return reply.Coin, nil
}

func (cli *client) GetStorageSlot(ctx context.Context, contractID, key ids.ID) (ids.ID, bool, error) {
	reply := new(ledgervm.StorageSlotReply)
	args := &ledgervm.StorageSlotArgs{ContractID: contractID, Key: key}
	err := cli.send(ctx, "getStorageSlot", args, reply)
	return reply.Value, reply.Set, err
}
