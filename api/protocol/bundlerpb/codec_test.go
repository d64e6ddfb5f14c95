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

package bundlerpb

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

func TestJSONCodecRoundTrips(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c, "json codec must be registered by this package's init()")

	in := &SetReputationRequest{Address: "0x00000000000000000000000000000000000007", Seen: 3, Included: 1}
	data, err := c.Marshal(in)
	require.NoError(t, err)

	out := new(SetReputationRequest)
	require.NoError(t, c.Unmarshal(data, out))
	require.Equal(t, in.Address, out.Address)
	require.Equal(t, in.Seen, out.Seen)
}
