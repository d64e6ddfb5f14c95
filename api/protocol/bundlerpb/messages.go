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

// Package bundlerpb is the wire contract for the bundler's inter-fleet
// control surface: the same operations as the debug_bundler_* JSON-RPC
// namespace, reachable over gRPC so a fleet operator or orchestrator
// process can reach many bundlers without going through each one's own
// HTTP listener. Message layout mirrors what protoc-gen-go would emit
// for the equivalent .proto, but is hand-authored and carried over the
// wire with the "json" codec (see codec.go) rather than the protobuf
// binary format, since this workspace has no protoc toolchain to
// generate and verify real .pb.go bindings against.
package bundlerpb

type ClearStateRequest struct{}

type ClearStateResponse struct{}

type DumpMempoolRequest struct{}

type UserOperationSummary struct {
	Sender   string `json:"sender"`
	Nonce    string `json:"nonce"`
	CallData []byte `json:"callData"`
}

type DumpMempoolResponse struct {
	Operations []UserOperationSummary `json:"operations"`
}

type SetReputationRequest struct {
	Address  string `json:"address"`
	Seen     uint64 `json:"seen"`
	Included uint64 `json:"included"`
}

type SetReputationResponse struct{}

type SetWhitelistRequest struct {
	Address     string `json:"address"`
	Whitelisted bool   `json:"whitelisted"`
}

type SetWhitelistResponse struct{}

type SetBlacklistRequest struct {
	Address     string `json:"address"`
	Blacklisted bool   `json:"blacklisted"`
}

type SetBlacklistResponse struct{}

type DumpReputationRequest struct{}

type ReputationEntry struct {
	Address  string `json:"address"`
	Seen     uint64 `json:"seen"`
	Included uint64 `json:"included"`
}

type DumpReputationResponse struct {
	Entries []ReputationEntry `json:"entries"`
}

type SetBundlingModeRequest struct {
	Mode string `json:"mode"`
}

type SetBundlingModeResponse struct{}

type SendBundleNowRequest struct{}

type SendBundleNowResponse struct {
	TransactionHash string `json:"transactionHash"`
}
