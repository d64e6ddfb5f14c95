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

package p2p

import (
	"encoding/binary"
	"fmt"

	"github.com/golang/snappy"

	"github.com/n42blockchain/aa-bundler/common/encoding"
	"github.com/n42blockchain/aa-bundler/common/types"
	"github.com/n42blockchain/aa-bundler/common/userop"
	"github.com/n42blockchain/aa-bundler/params"
	pkgerrors "github.com/n42blockchain/aa-bundler/pkg/errors"
)

// UserOperationsTopicFormat is the gossip topic UserOperations are
// broadcast on, parameterized by the mempool ID this bundler gossips for.
const UserOperationsTopicFormat = "/account_abstraction/%s/user_operations/ssz_snappy"

// UserOperationsTopic renders the gossip topic for mempoolID, a
// 0x-prefixed 32-byte hex string.
func UserOperationsTopic(mempoolID string) string {
	return fmt.Sprintf(UserOperationsTopicFormat, mempoolID)
}

// UserOperationsWithEntryPoint is the gossip payload: a batch of
// UserOperations all targeting the same EntryPoint deployment, mirroring
// the bundler spec's wire message of the same name.
type UserOperationsWithEntryPoint struct {
	EntryPoint     types.Address
	UserOperations []*userop.UserOperation
}

// MarshalSSZ encodes the message as an SSZ container (20-byte fixed
// EntryPoint field, then a variable-size list of UserOperations), the
// same hand-rolled offset scheme as userop.UserOperation.MarshalSSZ.
func (m *UserOperationsWithEntryPoint) MarshalSSZ() ([]byte, error) {
	listBytes, err := marshalUserOpList(m.UserOperations)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 24)
	copy(out[:20], m.EntryPoint.Bytes())
	binary.LittleEndian.PutUint32(out[20:24], 24)
	return append(out, listBytes...), nil
}

// UnmarshalSSZ decodes a message previously produced by MarshalSSZ.
func (m *UserOperationsWithEntryPoint) UnmarshalSSZ(buf []byte) error {
	if len(buf) < 24 {
		return pkgerrors.New("p2p: ssz buffer shorter than UserOperationsWithEntryPoint fixed part")
	}
	m.EntryPoint = types.BytesToAddress(buf[:20])
	listOffset := binary.LittleEndian.Uint32(buf[20:24])
	if int(listOffset) > len(buf) {
		return pkgerrors.New("p2p: ssz list offset out of range")
	}
	ops, err := unmarshalUserOpList(buf[listOffset:])
	if err != nil {
		return err
	}
	m.UserOperations = ops
	return nil
}

// marshalUserOpList encodes a variable-size-element SSZ list as an
// offsets table (one uint32 per element, relative to the start of the
// list blob) followed by the concatenated element bytes.
func marshalUserOpList(ops []*userop.UserOperation) ([]byte, error) {
	offsetsTable := make([]byte, 4*len(ops))
	var elements []byte

	offset := len(offsetsTable)
	for i, op := range ops {
		binary.LittleEndian.PutUint32(offsetsTable[i*4:i*4+4], uint32(offset))
		encoded, err := op.MarshalSSZ()
		if err != nil {
			return nil, err
		}
		elements = append(elements, encoded...)
		offset += len(encoded)
	}
	return append(offsetsTable, elements...), nil
}

// unmarshalUserOpList decodes a list blob produced by marshalUserOpList.
// Because UserOperation is itself variable-size, element boundaries are
// derived from consecutive offsets (the final element runs to the end of
// the blob).
func unmarshalUserOpList(blob []byte) ([]*userop.UserOperation, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	if len(blob) < 4 {
		return nil, pkgerrors.New("p2p: ssz list blob shorter than one offset")
	}
	first := binary.LittleEndian.Uint32(blob[:4])
	if first%4 != 0 || int(first) > len(blob) {
		return nil, pkgerrors.New("p2p: ssz list first offset malformed")
	}
	count := int(first) / 4
	if count > params.MaxUserOperationsPerGossip {
		return nil, pkgerrors.New("p2p: ssz list carries more UserOperations than MaxUserOperationsPerGossip")
	}

	offsets := make([]uint32, count+1)
	for i := 0; i < count; i++ {
		offsets[i] = binary.LittleEndian.Uint32(blob[i*4 : i*4+4])
	}
	offsets[count] = uint32(len(blob))

	ops := make([]*userop.UserOperation, 0, count)
	for i := 0; i < count; i++ {
		start, end := offsets[i], offsets[i+1]
		if start > end || int(end) > len(blob) {
			return nil, pkgerrors.New("p2p: ssz list element offset out of range")
		}
		op := &userop.UserOperation{}
		if err := op.UnmarshalSSZ(blob[start:end]); err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// EncodeGossipMessage SSZ-encodes then snappy-compresses m for the wire,
// matching the topic suffix's "ssz_snappy" encoding. The snappy
// destination buffer is borrowed from the shared byte-slice pool since
// gossip messages are sent far more often than they're kept around.
func EncodeGossipMessage(m *UserOperationsWithEntryPoint) ([]byte, error) {
	raw, err := m.MarshalSSZ()
	if err != nil {
		return nil, err
	}

	dst := encoding.GetByteSlice(snappy.MaxEncodedLen(len(raw)))
	defer encoding.PutByteSlice(dst)

	encoded := snappy.Encode(dst, raw)
	out := make([]byte, len(encoded))
	copy(out, encoded)
	return out, nil
}

// DecodeGossipMessage reverses EncodeGossipMessage.
func DecodeGossipMessage(data []byte) (*UserOperationsWithEntryPoint, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "p2p: snappy decode")
	}
	m := &UserOperationsWithEntryPoint{}
	if err := m.UnmarshalSSZ(raw); err != nil {
		return nil, err
	}
	return m, nil
}
