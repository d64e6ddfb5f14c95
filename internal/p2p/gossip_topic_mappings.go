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
	"reflect"
	"sync"
)

// =============================================================================
// Gossip Topic Registry (explicit registration, no init())
// =============================================================================

// GossipTopicRegistry maps gossip topics to the Go type carried on them,
// so a receive handler can pick the right SSZ decoder for an inbound
// message without topic-string parsing at every call site.
type GossipTopicRegistry struct {
	mu          sync.RWMutex
	topics      map[string]reflect.Type
	typeMapping map[reflect.Type]string
	initialized bool
}

// globalGossipRegistry is the singleton registry instance. Call
// InitGossipTopics() to initialize it.
var globalGossipRegistry = &GossipTopicRegistry{
	topics:      make(map[string]reflect.Type),
	typeMapping: make(map[reflect.Type]string),
}

// initOnce ensures InitGossipTopics is called only once even in concurrent
// scenarios.
var initOnce sync.Once

// DefaultMempoolID is the all-zero mempool ID this bundler gossips under
// absent an operator-configured one.
const DefaultMempoolID = "0x0000000000000000000000000000000000000000000000000000000000000000"

const defaultMempoolID = DefaultMempoolID

// InitGossipTopics initializes the gossip topic registry with the
// UserOperations topic for the default mempool ID. Per-mempool topics
// beyond the default are added via RegisterGossipTopic once the bundler
// knows its configured gossip mempool ID.
//
// Safe to call multiple times - subsequent calls are no-ops. Thread-safe
// via sync.Once.
func InitGossipTopics() {
	initOnce.Do(func() {
		globalGossipRegistry.mu.Lock()
		defer globalGossipRegistry.mu.Unlock()

		msgType := reflect.TypeOf(&UserOperationsWithEntryPoint{})
		topic := UserOperationsTopic(defaultMempoolID)
		globalGossipRegistry.topics[topic] = msgType
		globalGossipRegistry.typeMapping[msgType] = topic

		globalGossipRegistry.initialized = true
	})
}

// RegisterGossipTopic registers a custom gossip topic, used to add a
// bundler's configured mempool ID's own UserOperations topic alongside
// the default one.
func RegisterGossipTopic(topic string, msg interface{}) {
	globalGossipRegistry.mu.Lock()
	defer globalGossipRegistry.mu.Unlock()

	t := reflect.TypeOf(msg)
	globalGossipRegistry.topics[topic] = t
	globalGossipRegistry.typeMapping[t] = topic
}

// GossipTopicMappings returns the Go type carried on topic, or nil if the
// topic isn't registered.
func GossipTopicMappings(topic string) reflect.Type {
	InitGossipTopics()

	globalGossipRegistry.mu.RLock()
	defer globalGossipRegistry.mu.RUnlock()

	return globalGossipRegistry.topics[topic]
}

// AllTopics returns all registered topic names.
func AllTopics() []string {
	InitGossipTopics()

	globalGossipRegistry.mu.RLock()
	defer globalGossipRegistry.mu.RUnlock()

	topics := make([]string, 0, len(globalGossipRegistry.topics))
	for k := range globalGossipRegistry.topics {
		topics = append(topics, k)
	}
	return topics
}

// GossipTypeToTopic returns the topic registered for msg's type, or "" if
// none is registered.
func GossipTypeToTopic(msg interface{}) string {
	InitGossipTopics()

	globalGossipRegistry.mu.RLock()
	defer globalGossipRegistry.mu.RUnlock()

	return globalGossipRegistry.typeMapping[reflect.TypeOf(msg)]
}

// IsGossipTopicsInitialized returns whether the registry has been
// initialized.
func IsGossipTopicsInitialized() bool {
	globalGossipRegistry.mu.RLock()
	defer globalGossipRegistry.mu.RUnlock()
	return globalGossipRegistry.initialized
}

// ResetGossipTopics resets the registry (for testing only).
// WARNING: This function is NOT thread-safe with concurrent access.
// Only use in test setup/teardown when no other goroutines are accessing
// the registry.
func ResetGossipTopics() {
	globalGossipRegistry.mu.Lock()
	defer globalGossipRegistry.mu.Unlock()

	globalGossipRegistry.topics = make(map[string]reflect.Type)
	globalGossipRegistry.typeMapping = make(map[reflect.Type]string)
	globalGossipRegistry.initialized = false

	// Reset sync.Once by creating a new instance. Safe only in test
	// scenarios.
	initOnce = sync.Once{}
}
