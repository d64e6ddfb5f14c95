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
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/n42blockchain/aa-bundler/common/types"
	"github.com/n42blockchain/aa-bundler/common/userop"
	"github.com/n42blockchain/aa-bundler/conf"
	"github.com/n42blockchain/aa-bundler/internal/bundler"
	"github.com/n42blockchain/aa-bundler/internal/entrypoint"
	"github.com/n42blockchain/aa-bundler/internal/mempool"
	"github.com/n42blockchain/aa-bundler/internal/p2p"
	"github.com/n42blockchain/aa-bundler/internal/reputation"
	"github.com/n42blockchain/aa-bundler/internal/submitter"
	"github.com/n42blockchain/aa-bundler/internal/tracer"
	"github.com/n42blockchain/aa-bundler/internal/validator"
	"github.com/n42blockchain/aa-bundler/log"
	"github.com/n42blockchain/aa-bundler/modules/rpc/grpcapi"
	"github.com/n42blockchain/aa-bundler/modules/rpc/jsonrpc"
	"github.com/n42blockchain/aa-bundler/params"
)

const banner = `
 ███╗   ██╗██╗  ██╗██████╗      █████╗  █████╗
 ████╗  ██║██║  ██║╚════██╗    ██╔══██╗██╔══██╗
 ██╔██╗ ██║███████║ █████╔╝    ███████║███████║
 ██║╚██╗██║╚════██║██╔═══╝     ██╔══██║██╔══██║
 ██║ ╚████║     ██║███████╗    ██║  ██║██║  ██║
 ╚═╝  ╚═══╝     ╚═╝╚══════╝    ╚═╝  ╚═╝╚═╝  ╚═╝
`

const usageText = `bundler [options]

Quick start:
  bundler --rpc.url http://127.0.0.1:8545 --signer.key ./signer.key

Submission mode:
  bundler --submit.mode relay --submit.relay-url https://relay.example/v1

Detailed help:
  bundler --help`

func main() {
	fmt.Print(banner)

	app := &cli.App{
		Name:       "bundler",
		Usage:      "ERC-4337 account abstraction bundler",
		UsageText:  usageText,
		Version:    params.VersionWithCommit(params.GitCommit, ""),
		Flags:      AllFlags(),
		Action:     appRun,
		Suggest:    true,
		Copyright:  "Copyright 2022-2026 The N42 Authors",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func appRun(cliCtx *cli.Context) error {
	log.Init(DefaultConfig.NodeCfg, DefaultConfig.LoggerCfg)

	bundlerCfg := DefaultConfig.BundlerCfg
	if origins := cliCtx.StringSlice("rpc.cors-origins"); len(origins) > 0 {
		bundlerCfg.CORSOrigins = origins
	}
	if err := bundlerCfg.Validate(); err != nil {
		return fmt.Errorf("bundler config: %w", err)
	}
	nodeCfg := DefaultConfig.NodeCfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	entryPointAddr := types.HexToAddress(bundlerCfg.EntryPointAddress)
	ep, err := entrypoint.Dial(ctx, nodeCfg.ExecutionRPCURL, entryPointAddr, new(big.Int).SetUint64(nodeCfg.ChainID))
	if err != nil {
		return fmt.Errorf("dial execution client: %w", err)
	}

	var signer *entrypoint.Signer
	if bundlerCfg.SigningKeyPath != "" {
		keyBytes, err := os.ReadFile(bundlerCfg.SigningKeyPath)
		if err != nil {
			return fmt.Errorf("read signing key: %w", err)
		}
		signer, err = entrypoint.NewSigner(strings.TrimSpace(string(keyBytes)))
		if err != nil {
			return fmt.Errorf("load signing key: %w", err)
		}
	}

	mp := mempool.NewMemPool()
	rep := reputation.NewEngine()
	rep.StartDecayLoop(time.Hour)
	defer rep.Stop()

	stages := []validator.Stage{
		&validator.SanityStage{EntryPoint: ep, Reputation: rep, Mempool: mp},
		&validator.SimulationStage{EntryPoint: ep},
	}
	if !bundlerCfg.Unsafe {
		tr, err := tracer.Default()
		if err != nil {
			return fmt.Errorf("load validation tracer: %w", err)
		}
		stages = append(stages, &validator.TraceStage{EntryPoint: ep, Tracer: tr})
	}
	pipeline := validator.NewPipeline(stages...)

	var sub submitter.Submitter
	switch bundlerCfg.SubmitMode {
	case conf.SubmitModeRelay:
		sub = submitter.NewRelay(ep, bundlerCfg.RelayURL)
	default:
		sub = submitter.NewDirect(ep)
	}

	var beneficiary types.Address
	if bundlerCfg.BeneficiaryAddress != "" {
		beneficiary = types.HexToAddress(bundlerCfg.BeneficiaryAddress)
	} else if signer != nil {
		beneficiary = signer.BundlerAddress()
	}

	b := bundler.New(mp, pipeline, ep, rep, signer, sub, beneficiary)
	b.PollInterval = bundlerCfg.ReceiptPollInterval
	b.Start(ctx, bundlerCfg.BundleInterval)
	defer b.Stop()

	mempoolID := bundlerCfg.GossipMempoolID
	if mempoolID == "" {
		mempoolID = p2p.DefaultMempoolID
	}

	var gossip *p2p.Service
	if bundlerCfg.GossipListenAddr != "" {
		gossip, err = p2p.NewService(ctx, bundlerCfg.GossipListenAddr, mempoolID)
		if err != nil {
			return fmt.Errorf("start p2p gossip: %w", err)
		}
		if err := gossip.Start(ctx); err != nil {
			return fmt.Errorf("start p2p gossip read loop: %w", err)
		}
		defer gossip.Close()

		go relayIncomingUserOperations(ctx, gossip, pipeline, mp, nodeCfg.ChainID)

		log.Info("bundler: gossip enabled", "peerID", gossip.PeerID(), "mempoolID", mempoolID, "listen", bundlerCfg.GossipListenAddr)
	}

	ethAPI := jsonrpc.NewBundlerAPI(mp, pipeline, ep, nodeCfg.ChainID)
	if gossip != nil {
		ethAPI.Gossip = &gossipPublisher{svc: gossip}
	}
	debugAPI := jsonrpc.NewDebugBundlerAPI(mp, b, rep)
	rpcServer, err := jsonrpc.NewServer(bundlerCfg.RPCListenAddr, ethAPI, debugAPI, bundlerCfg.Unsafe, jsonrpc.DefaultRateLimitConfig(), bundlerCfg.CORSOrigins)
	if err != nil {
		return fmt.Errorf("build rpc server: %w", err)
	}
	rpcServer.Start(ctx)

	var grpcServer *grpcapi.Server
	if bundlerCfg.GRPCListenAddr != "" {
		grpcServer = grpcapi.NewServer(bundlerCfg.GRPCListenAddr, mp, b, rep)
		if err := grpcServer.Start(ctx); err != nil {
			return fmt.Errorf("start grpc fleet-control server: %w", err)
		}
	}

	log.Info("bundler: running", "entryPoint", entryPointAddr.Hex(), "submitMode", bundlerCfg.SubmitMode, "rpc", bundlerCfg.RPCListenAddr, "grpc", bundlerCfg.GRPCListenAddr)

	<-ctx.Done()
	log.Info("bundler: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if grpcServer != nil {
		if err := grpcServer.Stop(shutdownCtx); err != nil {
			log.Warn("bundler: grpc server stop error", "err", err)
		}
	}
	return rpcServer.Stop(shutdownCtx)
}

// gossipPublisher adapts a running p2p.Service to jsonrpc.GossipPublisher,
// broadcasting each locally-submitted UserOperation as its own
// single-element batch.
type gossipPublisher struct {
	svc *p2p.Service
}

func (g *gossipPublisher) Publish(ctx context.Context, entryPoint types.Address, op *userop.UserOperation) error {
	return g.svc.Publish(ctx, &p2p.UserOperationsWithEntryPoint{
		EntryPoint:     entryPoint,
		UserOperations: []*userop.UserOperation{op},
	})
}

// relayIncomingUserOperations admits every UserOperation arriving over
// gossip into the local mempool, so peer-submitted operations become
// eligible for this bundler's own bundling loop just like ones
// submitted directly over JSON-RPC. Each operation first passes the same
// validation pipeline eth_sendUserOperation uses, as an admission pass,
// and then the mempool's own dedup/replacement rules; gossip never
// bypasses validation.
func relayIncomingUserOperations(ctx context.Context, svc *p2p.Service, pipeline *validator.Pipeline, mp mempool.Store, chainID uint64) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-svc.Incoming():
			if !ok {
				return
			}
			for _, op := range batch.UserOperations {
				h := &validator.Helper{Op: op, ChainID: chainID, Now: time.Now(), Admission: true}
				if err := pipeline.Validate(ctx, h); err != nil {
					log.Warn("bundler: rejected gossiped user operation", "err", err)
					continue
				}
				if _, err := mp.Add(op, batch.EntryPoint, chainID); err != nil {
					log.Warn("bundler: rejected gossiped user operation", "err", err)
				}
			}
		}
	}
}
