package submitter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewDirectWrapsEntryPointClient(t *testing.T) {
	d := NewDirect(nil)
	require.NotNil(t, d)
	var _ Submitter = d
}

func TestNewRelaySetsDefaultTimeout(t *testing.T) {
	r := NewRelay(nil, "http://localhost:8545")
	require.Equal(t, "http://localhost:8545", r.URL)
	require.Equal(t, 10*time.Second, r.HTTPClient.Timeout)
	var _ Submitter = r
}

func TestRPCRequestEncodesSendRawTransaction(t *testing.T) {
	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  "eth_sendRawTransaction",
		Params:  []interface{}{"0xdeadbeef"},
		ID:      1,
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	require.JSONEq(t, `{"jsonrpc":"2.0","method":"eth_sendRawTransaction","params":["0xdeadbeef"],"id":1}`, string(body))
}

func TestRPCResponseDecodesError(t *testing.T) {
	raw := `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"nonce too low"}}`
	var resp rpcResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	require.NotNil(t, resp.Error)
	require.Equal(t, "nonce too low", resp.Error.Message)
}
