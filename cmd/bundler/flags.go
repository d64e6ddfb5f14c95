// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.
//
// The N42 library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The N42 library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the N42 library. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"github.com/urfave/cli/v2"

	"github.com/n42blockchain/aa-bundler/conf"
)

var nodeFlags = []cli.Flag{
	&cli.StringFlag{
		Name:        "rpc.url",
		Usage:       "execution client JSON-RPC endpoint (needs debug_traceCall unless --unsafe)",
		Category:    "NODE",
		Value:       DefaultConfig.NodeCfg.ExecutionRPCURL,
		Destination: &DefaultConfig.NodeCfg.ExecutionRPCURL,
	},
	&cli.Uint64Flag{
		Name:        "chain.id",
		Usage:       "execution client chain ID",
		Category:    "NODE",
		Value:       DefaultConfig.NodeCfg.ChainID,
		Destination: &DefaultConfig.NodeCfg.ChainID,
	},
	&cli.StringFlag{
		Name:        "data.dir",
		Aliases:     []string{"datadir"},
		Usage:       "data directory (log files are written under its log/ subdirectory)",
		Category:    "NODE",
		Value:       DefaultConfig.NodeCfg.DataDir,
		Destination: &DefaultConfig.NodeCfg.DataDir,
	},
}

var bundlerFlags = []cli.Flag{
	&cli.StringFlag{
		Name:        "entrypoint",
		Usage:       "EntryPoint contract address this bundler accepts UserOperations for",
		Category:    "BUNDLER",
		Value:       DefaultConfig.BundlerCfg.EntryPointAddress,
		Destination: &DefaultConfig.BundlerCfg.EntryPointAddress,
	},
	&cli.StringFlag{
		Name:        "beneficiary",
		Usage:       "address credited with the handleOps fee",
		Category:    "BUNDLER",
		Destination: &DefaultConfig.BundlerCfg.BeneficiaryAddress,
	},
	&cli.StringFlag{
		Name:        "signer.key",
		Usage:       "path to the bundler's hex-encoded ECDSA signing key",
		Category:    "BUNDLER",
		Destination: &DefaultConfig.BundlerCfg.SigningKeyPath,
	},
	&cli.StringFlag{
		Name:     "submit.mode",
		Usage:    `how completed bundles reach the chain: "direct" or "relay"`,
		Category: "BUNDLER",
		Value:    string(DefaultConfig.BundlerCfg.SubmitMode),
		Action: func(ctx *cli.Context, v string) error {
			DefaultConfig.BundlerCfg.SubmitMode = conf.SubmitMode(v)
			return nil
		},
	},
	&cli.StringFlag{
		Name:        "submit.relay-url",
		Usage:       "relay eth_sendRawTransaction endpoint, used only with --submit.mode relay",
		Category:    "BUNDLER",
		Destination: &DefaultConfig.BundlerCfg.RelayURL,
	},
	&cli.DurationFlag{
		Name:        "bundle.interval",
		Usage:       "how often the auto-bundling loop runs",
		Category:    "BUNDLER",
		Value:       DefaultConfig.BundlerCfg.BundleInterval,
		Destination: &DefaultConfig.BundlerCfg.BundleInterval,
	},
	&cli.DurationFlag{
		Name:        "bundle.receipt-poll-interval",
		Usage:       "how often to poll for a mined handleOps receipt",
		Category:    "BUNDLER",
		Value:       DefaultConfig.BundlerCfg.ReceiptPollInterval,
		Destination: &DefaultConfig.BundlerCfg.ReceiptPollInterval,
	},
	&cli.StringFlag{
		Name:        "gossip.mempool-id",
		Usage:       "this bundler's alt-mempool ID on the P2P gossip network",
		Category:    "BUNDLER",
		Destination: &DefaultConfig.BundlerCfg.GossipMempoolID,
	},
	&cli.StringFlag{
		Name:        "gossip.listen-addr",
		Usage:       "libp2p multiaddr to listen on for UserOperation gossip; empty disables gossip",
		Category:    "BUNDLER",
		Destination: &DefaultConfig.BundlerCfg.GossipListenAddr,
	},
	&cli.BoolFlag{
		Name:        "unsafe",
		Usage:       "skip trace validation and expose the debug_bundler_* RPC namespace",
		Category:    "BUNDLER",
		Destination: &DefaultConfig.BundlerCfg.Unsafe,
	},
	&cli.StringFlag{
		Name:        "rpc.listen-addr",
		Usage:       "bundler JSON-RPC HTTP listen address",
		Category:    "BUNDLER",
		Value:       DefaultConfig.BundlerCfg.RPCListenAddr,
		Destination: &DefaultConfig.BundlerCfg.RPCListenAddr,
	},
	&cli.StringFlag{
		Name:        "grpc.listen-addr",
		Usage:       "bundler fleet-control gRPC listen address; empty disables the gRPC surface",
		Category:    "BUNDLER",
		Destination: &DefaultConfig.BundlerCfg.GRPCListenAddr,
	},
	&cli.StringSliceFlag{
		Name:     "rpc.cors-origins",
		Usage:    "origins allowed to make cross-origin JSON-RPC/websocket requests; empty disables CORS",
		Category: "BUNDLER",
	},
}

var loggerFlags = []cli.Flag{
	&cli.StringFlag{
		Name:        "log.level",
		Aliases:     []string{"verbosity"},
		Usage:       "log level (trace, debug, info, warn, error, fatal)",
		Category:    "LOGGING",
		Value:       DefaultConfig.LoggerCfg.Level,
		Destination: &DefaultConfig.LoggerCfg.Level,
	},
	&cli.StringFlag{
		Name:        "log.file",
		Usage:       "log file name (empty logs to console only)",
		Category:    "LOGGING",
		Value:       DefaultConfig.LoggerCfg.LogFile,
		Destination: &DefaultConfig.LoggerCfg.LogFile,
	},
}

// AllFlags returns every flag the bundler CLI accepts, grouped by category.
func AllFlags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, nodeFlags...)
	flags = append(flags, bundlerFlags...)
	flags = append(flags, loggerFlags...)
	return flags
}
