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

package submitter

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/n42blockchain/aa-bundler/common/types"
	"github.com/n42blockchain/aa-bundler/common/userop"
	"github.com/n42blockchain/aa-bundler/internal/entrypoint"
	"github.com/n42blockchain/aa-bundler/log"
	pkgerrors "github.com/n42blockchain/aa-bundler/pkg/errors"
)

// rpcRequest is a minimal JSON-RPC 2.0 envelope, matching the shape the
// teacher's own benchmarking client sends.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcResponse struct {
	Result interface{} `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Relay signs the bundle locally and hands the raw transaction to an
// external relay's eth_sendRawTransaction endpoint, Flashbots-style,
// instead of broadcasting it through the bundler's own node.
type Relay struct {
	EntryPoint *entrypoint.Client
	URL        string
	HTTPClient *http.Client
}

// NewRelay builds a Relay submitter posting signed bundles to url.
func NewRelay(ep *entrypoint.Client, url string) *Relay {
	return &Relay{
		EntryPoint: ep,
		URL:        url,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Submit signs the handleOps transaction without broadcasting it through
// the EntryPoint client's own connection, then POSTs it to the relay.
func (r *Relay) Submit(ctx context.Context, ops []*userop.UserOperation, beneficiary types.Address, signer *entrypoint.Signer) (types.Hash, error) {
	signedTx, err := r.EntryPoint.SignHandleOps(ctx, ops, beneficiary, signer)
	if err != nil {
		return types.Hash{}, err
	}

	raw, err := signedTx.MarshalBinary()
	if err != nil {
		return types.Hash{}, pkgerrors.Wrap(err, "submitter: marshal raw tx")
	}

	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  "eth_sendRawTransaction",
		Params:  []interface{}{"0x" + hex.EncodeToString(raw)},
		ID:      1,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return types.Hash{}, pkgerrors.Wrap(err, "submitter: encode relay request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return types.Hash{}, pkgerrors.Wrap(err, "submitter: build relay request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.HTTPClient.Do(httpReq)
	if err != nil {
		return types.Hash{}, pkgerrors.Wrap(err, "submitter: relay request")
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return types.Hash{}, pkgerrors.Wrap(err, "submitter: decode relay response")
	}
	if rpcResp.Error != nil {
		return types.Hash{}, pkgerrors.Wrap(pkgerrors.ErrHandleOpsReverted, fmt.Sprintf("submitter: relay rejected bundle: %s", rpcResp.Error.Message))
	}

	txHash := types.BytesToHash(signedTx.Hash().Bytes())
	log.Info("submitter: bundle relayed", "url", r.URL, "txHash", txHash.Hex(), "ops", len(ops))
	return txHash, nil
}

var _ Submitter = (*Relay)(nil)
