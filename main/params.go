// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ava-labs/ledgervm/ledgervm"
)

const (
	versionKey    = "version"
	configFileKey = "config-file"

	httpHostKey = "http-host"
	httpPortKey = "http-port"

	dbTypeKey = "db-type"
	dbDirKey  = "db-dir"

	logLevelKey    = "log-level"
	genesisFileKey = "genesis-file"

	blockProductionKey = "block-production"
	blockIntervalKey   = "block-interval"
	maxBlockTxsKey     = "max-block-txs"
	mempoolSizeKey     = "mempool-size"
	faultPolicyKey     = "fault-policy"
	vmBacktraceKey     = "vm-backtrace"
	maxGasPerTxKey     = "max-gas-per-tx"
	awaitTimeoutKey    = "await-timeout"
	minGasPriceKey     = "min-gas-price"
	minBytePriceKey    = "min-byte-price"

	envPrefix = "LEDGERVM"
)

const (
	dbTypeMem     = "memdb"
	dbTypeLevelDB = "leveldb"
)

func buildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(ledgervm.Name, pflag.ContinueOnError)

	fs.Bool(versionKey, false, "If true, prints the version and quits")
	fs.String(configFileKey, "", "Path to a config file. Flags and environment variables take precedence")

	fs.String(httpHostKey, "127.0.0.1", "Address the API server listens on")
	fs.Uint16(httpPortKey, 9650, "Port the API server listens on")

	fs.String(dbTypeKey, dbTypeLevelDB, "Database backend: memdb or leveldb")
	fs.String(dbDirKey, "ledgervm-db", "Directory of the leveldb database")

	fs.String(logLevelKey, "info", "Log level: crit, error, warn, info or debug")
	fs.String(genesisFileKey, "genesis.json", "Path to the genesis file")

	config := ledgervm.DefaultConfig
	fs.String(blockProductionKey, config.BlockProduction, "Block production mode: instant or interval")
	fs.Duration(blockIntervalKey, config.BlockInterval, "Time between blocks in interval mode")
	fs.Int(maxBlockTxsKey, config.MaxBlockTxs, "Maximum number of transactions per block")
	fs.Int(mempoolSizeKey, config.MempoolSize, "Maximum number of pending transactions")
	fs.String(faultPolicyKey, config.FaultPolicy, "What a faulted transaction leaves behind: charge or exclude")
	fs.Bool(vmBacktraceKey, config.VMBacktrace, "Log a backtrace for every reverted or faulted script")
	fs.Uint64(maxGasPerTxKey, config.MaxGasPerTx, "Maximum gas limit of a transaction")
	fs.Duration(awaitTimeoutKey, config.AwaitTimeout, "How long submitAndAwait waits for a block")
	fs.Uint64(minGasPriceKey, config.MinGasPrice, "Lowest gas price accepted into the mempool")
	fs.Uint64(minBytePriceKey, config.MinBytePrice, "Lowest byte price accepted into the mempool")

	return fs
}

// getViper returns the viper environment for the node binary
func getViper(args []string) (*viper.Viper, error) {
	v := viper.New()

	fs := buildFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile := v.GetString(configFileKey); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func buildConfig(v *viper.Viper) ledgervm.Config {
	return ledgervm.Config{
		BlockProduction: v.GetString(blockProductionKey),
		BlockInterval:   v.GetDuration(blockIntervalKey),
		MaxBlockTxs:     v.GetInt(maxBlockTxsKey),
		MempoolSize:     v.GetInt(mempoolSizeKey),
		FaultPolicy:     v.GetString(faultPolicyKey),
		VMBacktrace:     v.GetBool(vmBacktraceKey),
		MaxGasPerTx:     v.GetUint64(maxGasPerTxKey),
		AwaitTimeout:    v.GetDuration(awaitTimeoutKey),
		MinGasPrice:     v.GetUint64(minGasPriceKey),
		MinBytePrice:    v.GetUint64(minBytePriceKey),
	}
}
