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

package jsonrpc

import (
	"context"
	"net/http"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/cors"

	"github.com/n42blockchain/aa-bundler/log"
)

// Server is the bundler's JSON-RPC 2.0 HTTP listener. It registers the
// "eth" namespace unconditionally and the "debug_bundler" namespace only
// when unsafe is set, matching every reference bundler's refusal to expose
// mempool/reputation internals on a public listener by default. A second
// path, /ws, upgrades to a push feed of newly admitted operation hashes.
type Server struct {
	rpcServer *gethrpc.Server
	handler   http.Handler
	listener  *http.Server
	limiter   *RateLimiter
	ws        *WSHub

	cancel context.CancelFunc
}

// NewServer builds the RPC server and its rate-limited, CORS-wrapped HTTP
// handler. addr is the listen address (e.g. ":4337"); rateLimit may be nil
// to disable limiting, and corsOrigins may be nil/empty to disable CORS
// entirely (same-origin only).
func NewServer(addr string, eth *BundlerAPI, debug *DebugBundlerAPI, unsafe bool, rateLimit *RateLimitConfig, corsOrigins []string) (*Server, error) {
	rpcServer := gethrpc.NewServer()
	if err := rpcServer.RegisterName("eth", eth); err != nil {
		return nil, err
	}
	if unsafe {
		if err := rpcServer.RegisterName("debug_bundler", debug); err != nil {
			return nil, err
		}
	}

	ws := NewWSHub()
	if eth != nil {
		eth.WS = ws
	}

	mux := http.NewServeMux()
	mux.Handle("/", rpcServer)
	mux.Handle("/ws", ws)

	var handler http.Handler = mux
	var limiter *RateLimiter
	if rateLimit != nil {
		limiter = NewRateLimiter(rateLimit)
		handler = RateLimitMiddleware(limiter, handler)
	}
	if len(corsOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: corsOrigins,
			AllowedMethods: []string{http.MethodPost, http.MethodGet},
			AllowedHeaders: []string{"*"},
		}).Handler(handler)
	}

	return &Server{
		rpcServer: rpcServer,
		handler:   handler,
		listener:  &http.Server{Addr: addr, Handler: handler},
		limiter:   limiter,
		ws:        ws,
	}, nil
}

// Start begins serving in a background goroutine, logging and swallowing
// http.ErrServerClosed the way the teacher's other long-running services
// treat their own expected shutdown error.
func (s *Server) Start(ctx context.Context) {
	_, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go func() {
		log.Info("jsonrpc: listening", "addr", s.listener.Addr)
		if err := s.listener.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("jsonrpc: server stopped", "err", err)
		}
	}()
}

// Stop gracefully shuts the HTTP listener and the underlying RPC server
// down.
func (s *Server) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.limiter != nil {
		s.limiter.Stop()
	}
	s.rpcServer.Stop()
	return s.listener.Shutdown(ctx)
}
