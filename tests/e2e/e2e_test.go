// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// e2e implements the e2e tests.
package e2e_test

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/crypto"
	"github.com/ava-labs/avalanchego/utils/formatting"
	log "github.com/inconshreveable/log15"
	ginkgo "github.com/onsi/ginkgo/v2"
	"github.com/onsi/ginkgo/v2/formatter"
	"github.com/onsi/gomega"

	"github.com/ava-labs/ledgervm/asm"
	"github.com/ava-labs/ledgervm/client"
	"github.com/ava-labs/ledgervm/executor"
	"github.com/ava-labs/ledgervm/interpreter"
	"github.com/ava-labs/ledgervm/ledgervm"
	"github.com/ava-labs/ledgervm/receipts"
	"github.com/ava-labs/ledgervm/state"
	"github.com/ava-labs/ledgervm/tests/network"
	"github.com/ava-labs/ledgervm/tx"
)

func TestE2e(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "ledgervm e2e test suites")
}

var (
	requestTimeout time.Duration
	logLevel       string
)

func init() {
	flag.DurationVar(
		&requestTimeout,
		"request-timeout",
		30*time.Second,
		"timeout for transaction issuance and confirmation",
	)

	flag.StringVar(
		&logLevel,
		"log-level",
		"warn",
		"log level of the local node",
	)
}

// storeContract writes 42 into slot 0 and returns 1.
var storeContract = asm.Program(
	asm.Move(16, asm.RegSP),
	asm.Cfei(32),
	asm.Movi(17, 42),
	asm.Sww(16, 18, 17),
	asm.Ret(asm.RegOne),
)

const coinsPerKey = 4

var (
	net         network.StaticNetwork
	cli         client.Client
	keys        []*crypto.PrivateKeySECP256K1R
	genesisHash ids.ID
	contractID  ids.ID

	// nextCoin[k] is the index of key k's next unspent genesis coin.
	nextCoin = map[int]int{}
)

var _ = ginkgo.BeforeSuite(func() {
	lvl, err := log.LvlFromString(logLevel)
	gomega.Expect(err).Should(gomega.BeNil())
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(ginkgo.GinkgoWriter, log.TerminalFormat())))

	factory := crypto.FactorySECP256K1R{}
	keys = make([]*crypto.PrivateKeySECP256K1R, 2)
	for i := range keys {
		key, err := factory.NewPrivateKey()
		gomega.Expect(err).Should(gomega.BeNil())
		keys[i] = key.(*crypto.PrivateKeySECP256K1R)
	}

	// Coin i belongs to key i%2.
	genesis := ledgervm.Genesis{Timestamp: 1}
	for i := 0; i < 2*coinsPerKey; i++ {
		genesis.Coins = append(genesis.Coins, ledgervm.GenesisCoin{
			Owner:   tx.OwnerOf(keys[i%2]),
			Amount:  1000,
			AssetID: tx.BaseAssetID,
		})
	}
	code, err := formatting.EncodeWithChecksum(formatting.Hex, storeContract)
	gomega.Expect(err).Should(gomega.BeNil())
	genesis.Contracts = []ledgervm.GenesisContract{{Code: code}}
	genesisBytes, err := json.Marshal(&genesis)
	gomega.Expect(err).Should(gomega.BeNil())

	genesisHash, _, err = ledgervm.ParseGenesis(genesisBytes)
	gomega.Expect(err).Should(gomega.BeNil())
	contractID = tx.ContractID(ids.Empty, storeContract, tx.StateRoot(nil))

	net = network.NewLocalNetwork(genesisBytes, ledgervm.DefaultConfig)
	ginkgo.By("starting a local node", func() {
		gomega.Expect(net.CreateDefault(context.Background())).Should(gomega.BeNil())
	})
	uris, err := net.URIs(context.Background())
	gomega.Expect(err).Should(gomega.BeNil())
	outf("{{blue}}ledgervm RPC:{{/}} %q\n", uris[0])
	cli = client.New(uris[0])
})

var _ = ginkgo.AfterSuite(func() {
	outf("{{red}}shutting down local node{{/}}\n")
	gomega.Expect(net.Teardown(context.Background())).Should(gomega.BeNil())
})

// genesisInput spends the next unspent genesis coin of key [k].
func genesisInput(k int) *tx.CoinInput {
	i := nextCoin[k]
	gomega.Expect(i).Should(gomega.BeNumerically("<", coinsPerKey))
	nextCoin[k] = i + 1
	return &tx.CoinInput{
		UTXOID:       executor.GenesisUTXOID(genesisHash, 2*i+k),
		Owner:        tx.OwnerOf(keys[k]),
		Amount:       1000,
		AssetID:      tx.BaseAssetID,
		WitnessIndex: uint8(k),
	}
}

func script(program []byte, inputs []tx.Input, outputs []tx.Output) *tx.Tx {
	t := &tx.Tx{
		Type:     tx.TypeScript,
		GasPrice: 1,
		GasLimit: 100,
		Inputs:   inputs,
		Outputs:  outputs,
		Script:   program,
	}
	gomega.Expect(t.Sign(keys...)).Should(gomega.BeNil())
	return t
}

func transfer(program []byte, from int, amount uint64) *tx.Tx {
	return script(program,
		[]tx.Input{genesisInput(from)},
		[]tx.Output{
			&tx.CoinOutput{To: tx.OwnerOf(keys[1-from]), Amount: amount, AssetID: tx.BaseAssetID},
			&tx.ChangeOutput{To: tx.OwnerOf(keys[from]), AssetID: tx.BaseAssetID},
		},
	)
}

func submitAndAwait(t *tx.Tx) *state.TxStatus {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	status, err := cli.SubmitAndAwait(ctx, t)
	gomega.Expect(err).Should(gomega.BeNil())
	return status
}

var _ = ginkgo.Describe("[Genesis]", func() {
	ginkgo.It("reports healthy", func() {
		health, err := cli.Health(context.Background())
		gomega.Ω(err).Should(gomega.BeNil())
		gomega.Ω(health.Healthy).Should(gomega.BeTrue())
	})

	ginkgo.It("get genesis block", func() {
		blk, err := cli.GetBlockAtHeight(context.Background(), 0)
		gomega.Ω(err).Should(gomega.BeNil())
		gomega.Ω(blk.Height).Should(gomega.Equal(uint64(0)))
		gomega.Ω(blk.Timestamp).Should(gomega.Equal(int64(1)))
		gomega.Ω(blk.Txs).Should(gomega.BeEmpty())
	})

	ginkgo.It("get genesis coin", func() {
		coin, err := cli.GetCoin(context.Background(), executor.GenesisUTXOID(genesisHash, 1))
		gomega.Ω(err).Should(gomega.BeNil())
		gomega.Ω(coin.Owner).Should(gomega.Equal(tx.OwnerOf(keys[1])))
		gomega.Ω(coin.Amount).Should(gomega.Equal(uint64(1000)))
	})
})

var _ = ginkgo.Describe("[Transfer]", func() {
	ginkgo.It("moves coins and refunds change", func() {
		t := transfer(asm.Program(asm.Ret(asm.RegOne)), 0, 400)
		status := submitAndAwait(t)
		gomega.Ω(status.Kind).Should(gomega.Equal(state.StatusSuccess))
		gomega.Ω(status.Fee).Should(gomega.Equal(uint64(1)))

		ctx := context.Background()
		coin, err := cli.GetCoin(ctx, tx.UTXOID{TxID: t.ID()})
		gomega.Ω(err).Should(gomega.BeNil())
		gomega.Ω(coin.Owner).Should(gomega.Equal(tx.OwnerOf(keys[1])))
		gomega.Ω(coin.Amount).Should(gomega.Equal(uint64(400)))

		recorded, err := cli.GetTransaction(ctx, t.ID())
		gomega.Ω(err).Should(gomega.BeNil())
		gomega.Ω(recorded.ID()).Should(gomega.Equal(t.ID()))
		gomega.Ω(recorded.Outputs[1].(*tx.ChangeOutput).Amount).Should(gomega.Equal(uint64(599)))

		rs, err := cli.GetReceipts(ctx, t.ID())
		gomega.Ω(err).Should(gomega.BeNil())
		gomega.Ω(rs).Should(gomega.HaveLen(2))
		gomega.Ω(rs[1].Kind).Should(gomega.Equal(receipts.KindScriptResult))
		gomega.Ω(receipts.Root(rs)).Should(gomega.Equal(recorded.ReceiptsRoot))

		blk, err := cli.GetBlock(ctx, &status.BlockID)
		gomega.Ω(err).Should(gomega.BeNil())
		gomega.Ω(blk.Txs).Should(gomega.ContainElement(t.ID()))
		blockReceipts, err := cli.GetBlockReceipts(ctx, status.BlockID)
		gomega.Ω(err).Should(gomega.BeNil())
		gomega.Ω(blockReceipts).Should(gomega.HaveLen(len(blk.Txs)))
	})

	ginkgo.It("spends a coin created by a pending transaction", func() {
		first := transfer(asm.Program(asm.Ret(asm.RegOne)), 0, 400)
		second := script(asm.Program(asm.Ret(asm.RegOne)),
			[]tx.Input{&tx.CoinInput{
				UTXOID:       tx.UTXOID{TxID: first.ID()},
				Owner:        tx.OwnerOf(keys[1]),
				Amount:       400,
				AssetID:      tx.BaseAssetID,
				WitnessIndex: 1,
			}},
			[]tx.Output{&tx.ChangeOutput{To: tx.OwnerOf(keys[1]), AssetID: tx.BaseAssetID}},
		)

		txID, err := cli.Submit(context.Background(), first)
		gomega.Ω(err).Should(gomega.BeNil())
		gomega.Ω(txID).Should(gomega.Equal(first.ID()))
		status := submitAndAwait(second)
		gomega.Ω(status.Kind).Should(gomega.Equal(state.StatusSuccess))

		coin, err := cli.GetCoin(context.Background(), tx.UTXOID{TxID: second.ID()})
		gomega.Ω(err).Should(gomega.BeNil())
		gomega.Ω(coin.Amount).Should(gomega.Equal(uint64(399)))
	})

	ginkgo.It("rejects a transaction spending an unknown coin", func() {
		in := genesisInput(1)
		in.UTXOID = tx.UTXOID{TxID: ids.GenerateTestID()}
		t := script(asm.Program(asm.Ret(asm.RegOne)), []tx.Input{in}, nil)

		_, err := cli.Submit(context.Background(), t)
		gomega.Ω(err).ShouldNot(gomega.BeNil())
		_, err = cli.GetTransactionStatus(context.Background(), t.ID())
		gomega.Ω(err).ShouldNot(gomega.BeNil())
	})
})

var _ = ginkgo.Describe("[Script]", func() {
	ginkgo.It("reverts and keeps the fee", func() {
		t := transfer(asm.Program(asm.Rvrt(asm.RegOne)), 1, 100)
		status := submitAndAwait(t)
		gomega.Ω(status.Kind).Should(gomega.Equal(state.StatusReverted))

		_, err := cli.GetCoin(context.Background(), tx.UTXOID{TxID: t.ID()})
		gomega.Ω(err).ShouldNot(gomega.BeNil())
		change, err := cli.GetCoin(context.Background(), tx.UTXOID{TxID: t.ID(), OutputIndex: 1})
		gomega.Ω(err).Should(gomega.BeNil())
		gomega.Ω(change.Amount).Should(gomega.Equal(uint64(999)))
	})

	ginkgo.It("dry runs without committing", func() {
		t := transfer(asm.Program(asm.Ret(asm.RegOne)), 1, 100)
		reply, err := cli.DryRun(context.Background(), t)
		gomega.Ω(err).Should(gomega.BeNil())
		gomega.Ω(reply.Status).Should(gomega.Equal(state.StatusSuccess))
		gomega.Ω(reply.Receipts).Should(gomega.HaveLen(2))

		_, err = cli.GetTransactionStatus(context.Background(), t.ID())
		gomega.Ω(err).ShouldNot(gomega.BeNil())
	})

	ginkgo.It("calls a contract that writes its storage", func() {
		data := make([]byte, interpreter.FrameHeaderSize)
		copy(data, contractID[:])
		t := &tx.Tx{
			Type:     tx.TypeScript,
			GasPrice: 1,
			GasLimit: 1_000,
			Inputs: []tx.Input{
				genesisInput(0),
				&tx.ContractInput{ContractID: contractID},
			},
			Outputs: []tx.Output{
				&tx.ContractOutput{InputIndex: 1},
				&tx.ChangeOutput{To: tx.OwnerOf(keys[0]), AssetID: tx.BaseAssetID},
			},
			Script: asm.Program(
				asm.Movi(16, interpreter.ScriptOffset+4*asm.InstructionSize),
				asm.Call(16, asm.RegZero),
				asm.Ret(asm.RegRET),
				asm.Noop(),
			),
			ScriptData: data,
		}
		gomega.Ω(t.Sign(keys...)).Should(gomega.BeNil())

		status := submitAndAwait(t)
		gomega.Ω(status.Kind).Should(gomega.Equal(state.StatusSuccess), status.Reason)

		value, set, err := cli.GetStorageSlot(context.Background(), contractID, ids.Empty)
		gomega.Ω(err).Should(gomega.BeNil())
		gomega.Ω(set).Should(gomega.BeTrue())
		gomega.Ω(binary.BigEndian.Uint64(value[:8])).Should(gomega.Equal(uint64(42)))
	})
})

var _ = ginkgo.Describe("[Chain]", func() {
	ginkgo.It("links every block to its parent", func() {
		ctx := context.Background()
		lastID, height, err := cli.LastAccepted(ctx)
		gomega.Ω(err).Should(gomega.BeNil())

		blkID := lastID
		for h := height; h > 0; h-- {
			blk, err := cli.GetBlock(ctx, &blkID)
			gomega.Ω(err).Should(gomega.BeNil())
			gomega.Ω(blk.Height).Should(gomega.Equal(h))
			parent, err := cli.GetBlockAtHeight(ctx, h-1)
			gomega.Ω(err).Should(gomega.BeNil())
			gomega.Ω(blk.ParentID).Should(gomega.Equal(parent.ID()))
			gomega.Ω(blk.Timestamp).Should(gomega.BeNumerically(">=", parent.Timestamp))
			blkID = parent.ID()
		}
	})
})

// Outputs to stdout.
//
// e.g.,
//
//	Out("{{green}}{{bold}}hi there %q{{/}}", "aa")
//	Out("{{magenta}}{{bold}}hi therea{{/}} {{cyan}}{{underline}}b{{/}}")
//
// ref.
// https://github.com/onsi/ginkgo/blob/v2.0.0/formatter/formatter.go#L52-L73
func outf(format string, args ...interface{}) {
	s := formatter.F(format, args...)
	fmt.Fprint(formatter.ColorableStdOut, s)
}
