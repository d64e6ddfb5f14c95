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
	"crypto/rand"
	"errors"
	"sync/atomic"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	p2pcrypto "github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"

	"github.com/n42blockchain/aa-bundler/log"
)

var (
	errServiceNotRunning = errors.New("p2p: service not running")
	errServiceRunning    = errors.New("p2p: service already running")
)

// Service joins a single bundler alt-mempool gossip topic and exchanges
// UserOperationsWithEntryPoint messages over it, following the
// NewGossipSub/JoinTopic/Publish/Subscribe shape of this repo's older
// protobuf-based pubsub wrapper, adapted to host its own libp2p identity
// (a bundler is a standalone process, not a module bolted onto an
// existing full node's network stack) and to the SSZ+snappy wire
// encoding UserOperationsWithEntryPoint defines.
type Service struct {
	host      host.Host
	pubsub    *pubsub.PubSub
	topic     *pubsub.Topic
	sub       *pubsub.Subscription
	mempoolID string
	entryPt   [20]byte

	incoming chan *UserOperationsWithEntryPoint
	running  int32
	cancel   context.CancelFunc
}

// NewService starts a libp2p host listening on listenAddr (a multiaddr,
// e.g. "/ip4/0.0.0.0/tcp/9000") with a freshly generated peer identity,
// and joins the UserOperations gossip topic for mempoolID.
func NewService(ctx context.Context, listenAddr string, mempoolID string) (*Service, error) {
	priv, _, err := p2pcrypto.GenerateKeyPairWithReader(p2pcrypto.Secp256k1, 256, rand.Reader)
	if err != nil {
		return nil, err
	}

	h, err := libp2p.New(
		libp2p.Identity(priv),
		libp2p.ListenAddrStrings(listenAddr),
	)
	if err != nil {
		return nil, err
	}

	gossip, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		h.Close()
		return nil, err
	}

	RegisterGossipTopic(UserOperationsTopic(mempoolID), &UserOperationsWithEntryPoint{})

	topicHandle, err := gossip.Join(UserOperationsTopic(mempoolID))
	if err != nil {
		h.Close()
		return nil, err
	}

	sub, err := topicHandle.Subscribe()
	if err != nil {
		h.Close()
		return nil, err
	}

	return &Service{
		host:      h,
		pubsub:    gossip,
		topic:     topicHandle,
		sub:       sub,
		mempoolID: mempoolID,
		incoming:  make(chan *UserOperationsWithEntryPoint, 64),
	}, nil
}

// Start launches the read loop delivering decoded gossip messages on
// Incoming(). Safe to call once; a second call returns
// errServiceRunning.
func (s *Service) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return errServiceRunning
	}

	readCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go func() {
		for {
			msg, err := s.sub.Next(readCtx)
			if err != nil {
				if readCtx.Err() != nil {
					return
				}
				log.Warn("p2p: gossip read failed", "err", err)
				continue
			}

			decoded, err := DecodeGossipMessage(msg.Data)
			if err != nil {
				log.Warn("p2p: dropping malformed gossip message", "peer", msg.GetFrom(), "err", err)
				continue
			}

			select {
			case s.incoming <- decoded:
			case <-readCtx.Done():
				return
			}
		}
	}()

	return nil
}

// Incoming returns the channel UserOperations batches gossiped by peers
// arrive on.
func (s *Service) Incoming() <-chan *UserOperationsWithEntryPoint {
	return s.incoming
}

// Publish broadcasts a UserOperations batch to every peer subscribed to
// this bundler's mempool topic.
func (s *Service) Publish(ctx context.Context, msg *UserOperationsWithEntryPoint) error {
	if atomic.LoadInt32(&s.running) == 0 {
		return errServiceNotRunning
	}

	data, err := EncodeGossipMessage(msg)
	if err != nil {
		return err
	}
	return s.topic.Publish(ctx, data)
}

// PeerID returns this bundler's libp2p peer identity.
func (s *Service) PeerID() string {
	return s.host.ID().String()
}

// Close stops the read loop, leaves the gossip topic and shuts down the
// libp2p host.
func (s *Service) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.sub.Cancel()
	if err := s.topic.Close(); err != nil {
		log.Warn("p2p: topic close failed", "err", err)
	}
	return s.host.Close()
}
