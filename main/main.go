// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/leveldb"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/utils/logging"
	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/ledgervm/ledgervm"
)

const (
	rpcPath     = "/ext/" + ledgervm.Name
	staticPath  = "/ext/vm/" + ledgervm.Name
	metricsPath = "/metrics"

	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	v, err := getViper(os.Args[1:])
	if err != nil {
		fmt.Printf("couldn't get config: %s\n", err)
		os.Exit(1)
	}
	// Print version and exit
	if v.GetBool(versionKey) {
		fmt.Printf("%s@%s\n", ledgervm.Name, ledgervm.Version)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, v); err != nil {
		fmt.Printf("node returned an error: %s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, v *viper.Viper) error {
	lvl, err := log.LvlFromString(v.GetString(logLevelKey))
	if err != nil {
		return err
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stdout, log.TerminalFormat())))
	logger := log.New("module", ledgervm.Name)

	genesisBytes, err := os.ReadFile(v.GetString(genesisFileKey))
	if err != nil {
		return fmt.Errorf("failed to read genesis: %w", err)
	}
	db, err := openDB(v.GetString(dbTypeKey), v.GetString(dbDirKey))
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	vm := &ledgervm.VM{}
	if err := vm.Initialize(ctx, db, genesisBytes, buildConfig(v), registry, logger); err != nil {
		_ = db.Close()
		return err
	}
	defer func() {
		if err := vm.Shutdown(); err != nil {
			logger.Error("failed to shut down", "error", err)
		}
	}()

	handlers, err := vm.CreateHandlers()
	if err != nil {
		return err
	}
	staticHandlers, err := ledgervm.CreateStaticHandlers()
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	for extension, handler := range handlers {
		mux.Handle(rpcPath+extension, handler)
	}
	for extension, handler := range staticHandlers {
		mux.Handle(staticPath+extension, handler)
	}
	mux.Handle(metricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	addr := net.JoinHostPort(v.GetString(httpHostKey), strconv.Itoa(v.GetInt(httpPortKey)))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving API", "addr", addr, "rpc", rpcPath, "metrics", metricsPath)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := vm.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openDB(dbType, dir string) (database.Database, error) {
	switch dbType {
	case dbTypeMem:
		return memdb.New(), nil
	case dbTypeLevelDB:
		return leveldb.New(dir, nil, logging.NoLog{})
	default:
		return nil, fmt.Errorf("unknown database type %q", dbType)
	}
}
