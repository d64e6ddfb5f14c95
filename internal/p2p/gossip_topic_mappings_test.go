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
	"testing"
)

func TestInitGossipTopics(t *testing.T) {
	ResetGossipTopics()

	if IsGossipTopicsInitialized() {
		t.Error("Should not be initialized after reset")
	}

	InitGossipTopics()

	if !IsGossipTopicsInitialized() {
		t.Error("Should be initialized after InitGossipTopics()")
	}

	// Second call should be a no-op
	InitGossipTopics()
	if !IsGossipTopicsInitialized() {
		t.Error("Should still be initialized")
	}
}

func TestGossipTopicMappings(t *testing.T) {
	InitGossipTopics()

	defaultTopic := UserOperationsTopic(defaultMempoolID)
	msgType := GossipTopicMappings(defaultTopic)
	if msgType == nil {
		t.Error("Default UserOperations topic mapping should not be nil")
	}
	if msgType != reflect.TypeOf(&UserOperationsWithEntryPoint{}) {
		t.Error("Default UserOperations topic should map to *UserOperationsWithEntryPoint")
	}

	if GossipTopicMappings("non-existent") != nil {
		t.Error("Non-existent topic should return nil")
	}
}

func TestAllTopics(t *testing.T) {
	InitGossipTopics()

	topics := AllTopics()
	if len(topics) < 1 {
		t.Errorf("AllTopics() should return at least 1 topic, got %d", len(topics))
	}

	defaultTopic := UserOperationsTopic(defaultMempoolID)
	found := false
	for _, topic := range topics {
		if topic == defaultTopic {
			found = true
		}
	}
	if !found {
		t.Error("Default UserOperations topic not found in AllTopics()")
	}
}

func TestGossipTypeToTopic(t *testing.T) {
	InitGossipTopics()

	topic := GossipTypeToTopic(&UserOperationsWithEntryPoint{})
	defaultTopic := UserOperationsTopic(defaultMempoolID)
	if topic != defaultTopic {
		t.Errorf("Expected %s, got %s", defaultTopic, topic)
	}
}

func TestRegisterGossipTopic(t *testing.T) {
	ResetGossipTopics()
	InitGossipTopics()

	customTopic := UserOperationsTopic("0xdeadbeef")
	RegisterGossipTopic(customTopic, &UserOperationsWithEntryPoint{})

	if GossipTopicMappings(customTopic) == nil {
		t.Error("Custom mempool topic should be registered")
	}

	found := false
	for _, topic := range AllTopics() {
		if topic == customTopic {
			found = true
			break
		}
	}
	if !found {
		t.Error("Custom mempool topic should appear in AllTopics()")
	}
}

func TestGossipTopicsConcurrency(t *testing.T) {
	ResetGossipTopics()

	var wg sync.WaitGroup
	defaultTopic := UserOperationsTopic(defaultMempoolID)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			if i%3 == 0 {
				InitGossipTopics()
			}
			if i%5 == 0 {
				_ = AllTopics()
			}
			_ = GossipTopicMappings(defaultTopic)
			_ = GossipTypeToTopic(&UserOperationsWithEntryPoint{})
			_ = IsGossipTopicsInitialized()
		}(i)
	}

	wg.Wait()
	t.Log("gossip topics concurrent operations completed without race")
}

func TestAutoInitialization(t *testing.T) {
	ResetGossipTopics()

	defaultTopic := UserOperationsTopic(defaultMempoolID)
	if GossipTopicMappings(defaultTopic) == nil {
		t.Error("Auto-initialization should work for GossipTopicMappings")
	}

	ResetGossipTopics()

	if len(AllTopics()) == 0 {
		t.Error("Auto-initialization should work for AllTopics")
	}

	ResetGossipTopics()

	if GossipTypeToTopic(&UserOperationsWithEntryPoint{}) == "" {
		t.Error("Auto-initialization should work for GossipTypeToTopic")
	}
}
