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

package conf

import "time"

// SubmitMode selects how a completed bundle reaches the chain.
type SubmitMode string

const (
	// SubmitModeDirect broadcasts through the bundler's own execution-client
	// connection.
	SubmitModeDirect SubmitMode = "direct"
	// SubmitModeRelay hands the signed transaction to an external relay
	// instead of broadcasting it locally.
	SubmitModeRelay SubmitMode = "relay"
)

// NodeConfig holds the execution-client connection the bundler validates
// and submits against.
type NodeConfig struct {
	// ExecutionRPCURL is the execution client's JSON-RPC endpoint (must
	// expose debug_traceCall for the trace validation stage).
	ExecutionRPCURL string `json:"execution_rpc_url" yaml:"execution_rpc_url"`

	// ChainID is the execution client's chain ID.
	ChainID uint64 `json:"chain_id" yaml:"chain_id"`

	// DataDir is the node's data directory; log files are written under its
	// log/ subdirectory. The bundler keeps its mempool and reputation in
	// memory and does not store them here.
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// DefaultNodeConfig returns the default node configuration.
func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		ExecutionRPCURL: "http://127.0.0.1:8545",
		ChainID:         1,
		DataDir:         "./data",
	}
}

// BundlerConfig holds the bundler's own operating parameters: which
// EntryPoint it bundles for, how it submits, and how aggressively it
// polls.
type BundlerConfig struct {
	// EntryPointAddress is the EntryPoint contract this bundler targets,
	// as a 0x-prefixed hex string.
	EntryPointAddress string `json:"entry_point_address" yaml:"entry_point_address"`

	// BeneficiaryAddress receives the handleOps fee, as a 0x-prefixed hex
	// string.
	BeneficiaryAddress string `json:"beneficiary_address" yaml:"beneficiary_address"`

	// SigningKeyPath points at the bundler's hex-encoded ECDSA private key
	// file used to sign handleOps transactions.
	SigningKeyPath string `json:"signing_key_path" yaml:"signing_key_path"`

	// SubmitMode is "direct" or "relay", see SubmitModeDirect/SubmitModeRelay.
	SubmitMode SubmitMode `json:"submit_mode" yaml:"submit_mode"`

	// RelayURL is the relay's eth_sendRawTransaction endpoint, used only
	// when SubmitMode is SubmitModeRelay.
	RelayURL string `json:"relay_url" yaml:"relay_url"`

	// BundleInterval is how often the auto-bundling loop runs.
	BundleInterval time.Duration `json:"bundle_interval" yaml:"bundle_interval"`

	// ReceiptPollInterval is how often WaitForReceipt polls for a mined
	// handleOps transaction.
	ReceiptPollInterval time.Duration `json:"receipt_poll_interval" yaml:"receipt_poll_interval"`

	// GossipMempoolID identifies this bundler's alt-mempool on the P2P
	// gossip network, as a 0x-prefixed 32-byte hex string.
	GossipMempoolID string `json:"gossip_mempool_id" yaml:"gossip_mempool_id"`

	// GossipListenAddr is the libp2p multiaddr this bundler's gossip
	// service listens on, e.g. "/ip4/0.0.0.0/tcp/9000". Empty disables
	// P2P gossip entirely; the bundler then only sees UserOperations
	// submitted directly over its own JSON-RPC.
	GossipListenAddr string `json:"gossip_listen_addr" yaml:"gossip_listen_addr"`

	// Unsafe skips the trace validation stage (for execution clients
	// without debug_traceCall) and enables the debug_bundler_* RPC
	// namespace, matching the reference bundler's combined --unsafe flag.
	Unsafe bool `json:"unsafe" yaml:"unsafe"`

	// RPCListenAddr is the bundler's own JSON-RPC HTTP listen address.
	RPCListenAddr string `json:"rpc_listen_addr" yaml:"rpc_listen_addr"`

	// GRPCListenAddr is the bundler's fleet-control gRPC listen address.
	// Empty disables the gRPC surface entirely; operators then reach
	// debug_bundler_* only through the JSON-RPC namespace.
	GRPCListenAddr string `json:"grpc_listen_addr" yaml:"grpc_listen_addr"`

	// CORSOrigins lists the Origin values the JSON-RPC/websocket listener
	// accepts cross-origin requests from. Empty disables CORS, restricting
	// browser clients to same-origin requests.
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins"`
}

// DefaultBundlerConfig returns the default bundler configuration.
func DefaultBundlerConfig() BundlerConfig {
	return BundlerConfig{
		EntryPointAddress:   "0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789",
		SubmitMode:          SubmitModeDirect,
		BundleInterval:      3 * time.Second,
		ReceiptPollInterval: 75 * time.Millisecond,
		Unsafe:              false,
		RPCListenAddr:       "127.0.0.1:4337",
	}
}

// Validate normalizes invalid or missing numeric fields to their defaults,
// matching LoggerConfig's self-healing validation style.
func (c *BundlerConfig) Validate() error {
	if c.SubmitMode == "" {
		c.SubmitMode = SubmitModeDirect
	}
	if c.BundleInterval <= 0 {
		c.BundleInterval = 3 * time.Second
	}
	if c.ReceiptPollInterval <= 0 {
		c.ReceiptPollInterval = 75 * time.Millisecond
	}
	if c.RPCListenAddr == "" {
		c.RPCListenAddr = "127.0.0.1:4337"
	}
	return nil
}
