package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressHexRoundTrip(t *testing.T) {
	a := HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789")
	require.Equal(t, "0x5ff137d4b0fdcd49dca30c7cf57e578a026d2789", a.Hex())
	require.False(t, a.IsZero())
}

func TestAddressJSONRoundTrip(t *testing.T) {
	a := HexToAddress("0x0000000071727De22E5E9d8BAf0edAc6f37da032"[:42])
	b, err := json.Marshal(a)
	require.NoError(t, err)

	var out Address
	require.NoError(t, json.Unmarshal(b, &out))
	require.Equal(t, a, out)
}

func TestBytesToAddressTruncatesAndPads(t *testing.T) {
	short := BytesToAddress([]byte{0x01, 0x02})
	require.Equal(t, Address{19: 0x02, 18: 0x01}, short)

	long := make([]byte, 24)
	for i := range long {
		long[i] = byte(i)
	}
	got := BytesToAddress(long)
	require.Equal(t, long[4:], got.Bytes())
}

func TestKeccak256HashDeterministic(t *testing.T) {
	h1 := Keccak256Hash([]byte("hello"))
	h2 := Keccak256Hash([]byte("hello"))
	require.Equal(t, h1, h2)
	require.NotEqual(t, Hash{}, h1)
}

func TestFromHexInvalid(t *testing.T) {
	require.Nil(t, FromHex("not-hex"))
}
