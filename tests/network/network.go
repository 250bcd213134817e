// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// network implements an interface for setting up a ledger node for testing purposes.
package network

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/ava-labs/avalanchego/database/memdb"
	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/ledgervm/ledgervm"
)

// RPCPath is where a node serves the ledgervm API.
const RPCPath = "/ext/" + ledgervm.Name

var (
	_ StaticNetwork = (*existingNetwork)(nil)
	_ StaticNetwork = (*localNetwork)(nil)

	errNotStarted = errors.New("network is not started")
)

// StaticNetwork supports a basic interface for setting up, interacting with, and destructing a network.
// This interface is intended to be used by tests that do not need to change the underlying state
// of the net
type StaticNetwork interface {
	CreateDefault(context.Context) error
	URIs(context.Context) ([]string, error)
	Teardown(context.Context) error
}

// existingNetwork implements the StaticNetwork interface and assumes that the network
// has already been constructed and does not require any startup/teardown.
type existingNetwork struct {
	uris []string
}

func NewExistingNetwork(uris []string) *existingNetwork {
	return &existingNetwork{
		uris: uris,
	}
}

func (e *existingNetwork) CreateDefault(context.Context) error    { return nil }
func (e *existingNetwork) URIs(context.Context) ([]string, error) { return e.uris, nil }
func (e *existingNetwork) Teardown(context.Context) error         { return nil }

// localNetwork runs a single in-memory node in this process.
type localNetwork struct {
	genesis []byte
	config  ledgervm.Config

	vm     *ledgervm.VM
	server *httptest.Server
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewLocalNetwork(genesis []byte, config ledgervm.Config) *localNetwork {
	return &localNetwork{
		genesis: genesis,
		config:  config,
	}
}

func (n *localNetwork) CreateDefault(ctx context.Context) error {
	log.Info("Starting local node", "production", n.config.BlockProduction)

	logger := log.New("module", ledgervm.Name)
	vm := &ledgervm.VM{}
	if err := vm.Initialize(ctx, memdb.New(), n.genesis, n.config, prometheus.NewRegistry(), logger); err != nil {
		return err
	}
	handlers, err := vm.CreateHandlers()
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	for extension, handler := range handlers {
		mux.Handle(RPCPath+extension, handler)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	n.vm = vm
	n.server = httptest.NewServer(mux)
	n.cancel = cancel
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := vm.Run(runCtx); !errors.Is(err, context.Canceled) {
			log.Error("block production stopped", "error", err)
		}
	}()
	log.Info("Local node serving", "uri", n.server.URL)
	return nil
}

func (n *localNetwork) URIs(context.Context) ([]string, error) {
	if n.server == nil {
		return nil, errNotStarted
	}
	return []string{n.server.URL + RPCPath}, nil
}

func (n *localNetwork) Teardown(context.Context) error {
	if n.server == nil {
		return errNotStarted
	}
	log.Info("Shutting down local node.")
	n.cancel()
	n.wg.Wait()
	n.server.Close()
	return n.vm.Shutdown()
}
