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

// Package grpcapi is the inter-bundler fleet-control surface: the same
// operator operations as jsonrpc's "debug_bundler" namespace, reachable
// over gRPC so an orchestrator can reach many bundlers without a bespoke
// HTTP client per listener. Like that namespace it is never started
// without an explicit operator opt-in.
package grpcapi

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"

	"github.com/n42blockchain/aa-bundler/api/protocol/bundlerpb"
	"github.com/n42blockchain/aa-bundler/common/types"
	"github.com/n42blockchain/aa-bundler/internal/bundler"
	"github.com/n42blockchain/aa-bundler/internal/mempool"
	"github.com/n42blockchain/aa-bundler/internal/reputation"
	"github.com/n42blockchain/aa-bundler/log"
)

// fleetControlServer adapts mempool.Store/*bundler.Bundler/*reputation.Engine
// to the bundlerpb.FleetControlServer contract.
type fleetControlServer struct {
	mempool    mempool.Store
	bundler    *bundler.Bundler
	reputation *reputation.Engine
}

func (s *fleetControlServer) ClearState(ctx context.Context, _ *bundlerpb.ClearStateRequest) (*bundlerpb.ClearStateResponse, error) {
	s.mempool.Clear()
	return &bundlerpb.ClearStateResponse{}, nil
}

func (s *fleetControlServer) DumpMempool(ctx context.Context, _ *bundlerpb.DumpMempoolRequest) (*bundlerpb.DumpMempoolResponse, error) {
	ops := s.mempool.All()
	out := make([]bundlerpb.UserOperationSummary, len(ops))
	for i, op := range ops {
		out[i] = bundlerpb.UserOperationSummary{
			Sender:   op.Sender.Hex(),
			Nonce:    op.Nonce.String(),
			CallData: op.CallData,
		}
	}
	return &bundlerpb.DumpMempoolResponse{Operations: out}, nil
}

func (s *fleetControlServer) SetReputation(ctx context.Context, req *bundlerpb.SetReputationRequest) (*bundlerpb.SetReputationResponse, error) {
	s.reputation.Set(types.HexToAddress(req.Address), req.Seen, req.Included)
	return &bundlerpb.SetReputationResponse{}, nil
}

func (s *fleetControlServer) SetWhitelist(ctx context.Context, req *bundlerpb.SetWhitelistRequest) (*bundlerpb.SetWhitelistResponse, error) {
	addr := types.HexToAddress(req.Address)
	if req.Whitelisted {
		s.reputation.AddWhitelist(addr)
	} else {
		s.reputation.RemoveWhitelist(addr)
	}
	return &bundlerpb.SetWhitelistResponse{}, nil
}

func (s *fleetControlServer) SetBlacklist(ctx context.Context, req *bundlerpb.SetBlacklistRequest) (*bundlerpb.SetBlacklistResponse, error) {
	addr := types.HexToAddress(req.Address)
	if req.Blacklisted {
		s.reputation.AddBlacklist(addr)
	} else {
		s.reputation.RemoveBlacklist(addr)
	}
	return &bundlerpb.SetBlacklistResponse{}, nil
}

func (s *fleetControlServer) DumpReputation(ctx context.Context, _ *bundlerpb.DumpReputationRequest) (*bundlerpb.DumpReputationResponse, error) {
	entries := s.reputation.DumpAll()
	out := make([]bundlerpb.ReputationEntry, len(entries))
	for i, e := range entries {
		out[i] = bundlerpb.ReputationEntry{
			Address:  e.Address.Hex(),
			Seen:     e.Seen,
			Included: e.Included,
		}
	}
	return &bundlerpb.DumpReputationResponse{Entries: out}, nil
}

func (s *fleetControlServer) SetBundlingMode(ctx context.Context, req *bundlerpb.SetBundlingModeRequest) (*bundlerpb.SetBundlingModeResponse, error) {
	switch req.Mode {
	case "auto":
		s.bundler.SetMode(bundler.ModeAuto)
	case "manual":
		s.bundler.SetMode(bundler.ModeManual)
	default:
		return nil, fmt.Errorf("grpcapi: unknown bundling mode %q, want \"auto\" or \"manual\"", req.Mode)
	}
	return &bundlerpb.SetBundlingModeResponse{}, nil
}

func (s *fleetControlServer) SendBundleNow(ctx context.Context, _ *bundlerpb.SendBundleNowRequest) (*bundlerpb.SendBundleNowResponse, error) {
	hash, err := s.bundler.SendBundleNow(ctx)
	if err != nil {
		return nil, err
	}
	return &bundlerpb.SendBundleNowResponse{TransactionHash: hash.Hex()}, nil
}

// Server is the bundler's gRPC fleet-control listener, the grpc-native
// counterpart to jsonrpc.Server's HTTP listener.
type Server struct {
	grpcServer *grpc.Server
	listenAddr string
	cancel     context.CancelFunc
}

// NewServer builds a fleet-control gRPC server bound to listenAddr
// (e.g. ":4338"), wrapping mp/b/rep the same way NewDebugBundlerAPI does
// for the JSON-RPC mirror.
func NewServer(listenAddr string, mp mempool.Store, b *bundler.Bundler, rep *reputation.Engine) *Server {
	grpcServer := grpc.NewServer()
	bundlerpb.RegisterFleetControlServer(grpcServer, &fleetControlServer{
		mempool:    mp,
		bundler:    b,
		reputation: rep,
	})
	return &Server{grpcServer: grpcServer, listenAddr: listenAddr}
}

// Start binds the listener and begins serving in a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return err
	}
	_, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go func() {
		log.Info("grpcapi: listening", "addr", s.listenAddr)
		if err := s.grpcServer.Serve(lis); err != nil {
			log.Warn("grpcapi: server stopped", "err", err)
		}
	}()
	return nil
}

// Stop gracefully drains in-flight calls and stops the listener.
func (s *Server) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	s.grpcServer.GracefulStop()
	return nil
}
