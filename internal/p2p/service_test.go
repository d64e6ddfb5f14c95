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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewServiceJoinsItsOwnTopic(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	svc, err := NewService(ctx, "/ip4/127.0.0.1/tcp/0", DefaultMempoolID)
	require.NoError(t, err)
	defer svc.Close()

	require.NotEmpty(t, svc.PeerID())
	require.NoError(t, svc.Start(ctx))
}

func TestServicePublishWithoutPeersSucceeds(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	svc, err := NewService(ctx, "/ip4/127.0.0.1/tcp/0", DefaultMempoolID)
	require.NoError(t, err)
	defer svc.Close()
	require.NoError(t, svc.Start(ctx))

	// Publishing to a topic with zero subscribed peers still succeeds;
	// gossipsub just has nowhere to forward the message.
	err = svc.Publish(ctx, &UserOperationsWithEntryPoint{})
	require.NoError(t, err)
}

func TestServicePublishBeforeStartFails(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	svc, err := NewService(ctx, "/ip4/127.0.0.1/tcp/0", DefaultMempoolID)
	require.NoError(t, err)
	defer svc.Close()

	err = svc.Publish(ctx, &UserOperationsWithEntryPoint{})
	require.ErrorIs(t, err, errServiceNotRunning)
}
