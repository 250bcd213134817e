// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// load implements the load tests.
package load_test

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/crypto"
	"github.com/ava-labs/avalanchego/utils/formatting"
	log "github.com/inconshreveable/log15"
	ginkgo "github.com/onsi/ginkgo/v2"
	"github.com/onsi/ginkgo/v2/formatter"
	"github.com/onsi/gomega"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/ledgervm/asm"
	"github.com/ava-labs/ledgervm/client"
	"github.com/ava-labs/ledgervm/executor"
	"github.com/ava-labs/ledgervm/ledgervm"
	"github.com/ava-labs/ledgervm/state"
	"github.com/ava-labs/ledgervm/tests/network"
	"github.com/ava-labs/ledgervm/tx"
)

func TestLoad(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "ledgervm load test suites")
}

var (
	requestTimeout time.Duration

	uris          string
	vmGenesisPath string
	privateKey    string

	workers         int
	blockProduction string
)

func init() {
	flag.DurationVar(
		&requestTimeout,
		"request-timeout",
		120*time.Second,
		"timeout for transaction issuance and confirmation",
	)

	flag.StringVar(
		&uris,
		"uris",
		"",
		"comma separated RPC URIs of running nodes. If empty a local node is started",
	)

	flag.StringVar(
		&vmGenesisPath,
		"vm-genesis-path",
		"",
		"genesis file of the running nodes",
	)

	flag.StringVar(
		&privateKey,
		"private-key",
		"",
		"checksummed hex key owning genesis coins of the running nodes",
	)

	flag.IntVar(
		&workers,
		"workers",
		8,
		"number of concurrent submitters",
	)

	flag.StringVar(
		&blockProduction,
		"block-production",
		ledgervm.ProductionInterval,
		"block production mode of the local node",
	)
}

const localCoins = 256

var (
	net       network.StaticNetwork
	instances []instance

	key         *crypto.PrivateKeySECP256K1R
	genesisHash ids.ID
	coins       []tx.CoinInput
)

type instance struct {
	uri string
	cli client.Client
}

var _ = ginkgo.BeforeSuite(func() {
	log.Root().SetHandler(log.LvlFilterHandler(log.LvlInfo, log.StreamHandler(ginkgo.GinkgoWriter, log.TerminalFormat())))

	var genesisBytes []byte
	factory := crypto.FactorySECP256K1R{}
	if uris == "" {
		k, err := factory.NewPrivateKey()
		gomega.Expect(err).Should(gomega.BeNil())
		key = k.(*crypto.PrivateKeySECP256K1R)

		genesis := ledgervm.Genesis{}
		for i := 0; i < localCoins; i++ {
			genesis.Coins = append(genesis.Coins, ledgervm.GenesisCoin{
				Owner:   tx.OwnerOf(key),
				Amount:  1_000_000,
				AssetID: tx.BaseAssetID,
			})
		}
		genesisBytes, err = json.Marshal(&genesis)
		gomega.Expect(err).Should(gomega.BeNil())

		config := ledgervm.DefaultConfig
		config.BlockProduction = blockProduction
		config.BlockInterval = 50 * time.Millisecond
		net = network.NewLocalNetwork(genesisBytes, config)
	} else {
		var err error
		genesisBytes, err = os.ReadFile(vmGenesisPath)
		gomega.Expect(err).Should(gomega.BeNil())
		keyBytes, err := formatting.Decode(formatting.Hex, privateKey)
		gomega.Expect(err).Should(gomega.BeNil())
		k, err := factory.ToPrivateKey(keyBytes)
		gomega.Expect(err).Should(gomega.BeNil())
		key = k.(*crypto.PrivateKeySECP256K1R)
		net = network.NewExistingNetwork(strings.Split(uris, ","))
	}

	hash, genesis, err := ledgervm.ParseGenesis(genesisBytes)
	gomega.Expect(err).Should(gomega.BeNil())
	genesisHash = hash
	for i, coin := range genesis.Coins {
		if coin.Owner != tx.OwnerOf(key) || coin.AssetID != tx.BaseAssetID {
			continue
		}
		coins = append(coins, tx.CoinInput{
			UTXOID:   executor.GenesisUTXOID(genesisHash, i),
			Owner:    coin.Owner,
			Amount:   coin.Amount,
			AssetID:  coin.AssetID,
			Maturity: coin.Maturity,
		})
	}
	gomega.Expect(coins).ShouldNot(gomega.BeEmpty())

	ginkgo.By("creating the network", func() {
		gomega.Expect(net.CreateDefault(context.Background())).Should(gomega.BeNil())
	})
	nodeURIs, err := net.URIs(context.Background())
	gomega.Expect(err).Should(gomega.BeNil())
	for _, u := range nodeURIs {
		outf("{{blue}}ledgervm RPC:{{/}} %q\n", u)
		instances = append(instances, instance{
			uri: u,
			cli: client.New(u),
		})
	}
})

var _ = ginkgo.AfterSuite(func() {
	outf("{{red}}shutting down network{{/}}\n")
	err := net.Teardown(context.Background())
	gomega.Expect(err).Should(gomega.BeNil())
})

// spend sends all of [in] back to its owner.
func spend(in tx.CoinInput) *tx.Tx {
	t := &tx.Tx{
		Type:     tx.TypeScript,
		GasPrice: 1,
		GasLimit: 100,
		Inputs:   []tx.Input{&in},
		Outputs: []tx.Output{
			&tx.ChangeOutput{To: in.Owner, AssetID: tx.BaseAssetID},
		},
		Script: asm.Program(asm.Ret(asm.RegOne)),
	}
	gomega.Ω(t.Sign(key)).Should(gomega.BeNil())
	return t
}

var _ = ginkgo.Describe("[Submit]", func() {
	ginkgo.It("get genesis block", func() {
		for _, inst := range instances {
			blk, err := inst.cli.GetBlockAtHeight(context.Background(), 0)
			gomega.Ω(err).Should(gomega.BeNil())
			gomega.Ω(blk.Height).Should(gomega.Equal(uint64(0)))
		}
	})

	ginkgo.It("submits chains of transactions", func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		g, gctx := errgroup.WithContext(ctx)

		var processed uint64
		start := time.Now()
		for w := 0; w < workers && w < len(coins); w++ {
			w := w
			cli := instances[w%len(instances)].cli
			g.Go(func() error {
				defer ginkgo.GinkgoRecover()

				for c := w; c < len(coins); c += workers {
					// Each step spends the change of the previous one.
					in := coins[c]
					for step := 0; step < 4; step++ {
						t := spend(in)
						status, err := cli.SubmitAndAwait(gctx, t)
						if err != nil {
							return err
						}
						gomega.Ω(status.Kind).Should(gomega.Equal(state.StatusSuccess), status.Reason)
						atomic.AddUint64(&processed, 1)

						in.UTXOID = tx.UTXOID{TxID: t.ID()}
						in.Amount -= status.Fee
						in.Maturity = 0
					}
				}
				return nil
			})
		}

		monitorCtx, stopMonitor := context.WithCancel(gctx)
		monitorDone := make(chan struct{})
		go func() {
			defer close(monitorDone)
			defer ginkgo.GinkgoRecover()

			cli := instances[0].cli
			for monitorCtx.Err() == nil {
				_, height, err := cli.LastAccepted(monitorCtx)
				if err == nil {
					txs := atomic.LoadUint64(&processed)
					log.Info("performance", "height", height,
						"txs", txs,
						"avg tps", float64(txs)/time.Since(start).Seconds(),
					)
				}
				select {
				case <-monitorCtx.Done():
				case <-time.After(time.Second):
				}
			}
		}()

		err := g.Wait()
		stopMonitor()
		<-monitorDone
		log.Info("exiting producer loop", "txs", atomic.LoadUint64(&processed), "err", err)
		gomega.Ω(err).Should(gomega.BeNil())
		gomega.Ω(atomic.LoadUint64(&processed)).Should(gomega.BeNumerically(">", 0))
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
