// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.

package conf

import (
	"encoding/json"
	"testing"
	"time"
)

func TestBundlerConfigDefaults(t *testing.T) {
	cfg := DefaultBundlerConfig()

	if cfg.SubmitMode != SubmitModeDirect {
		t.Errorf("Expected SubmitMode %q, got %q", SubmitModeDirect, cfg.SubmitMode)
	}
	if cfg.BundleInterval != 3*time.Second {
		t.Errorf("Expected BundleInterval 3s, got %s", cfg.BundleInterval)
	}
	if cfg.ReceiptPollInterval != 75*time.Millisecond {
		t.Errorf("Expected ReceiptPollInterval 75ms, got %s", cfg.ReceiptPollInterval)
	}
	if cfg.Unsafe {
		t.Error("Expected Unsafe false by default")
	}
}

func TestBundlerConfigValidateFillsDefaults(t *testing.T) {
	cfg := BundlerConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}
	if cfg.SubmitMode != SubmitModeDirect {
		t.Errorf("Expected SubmitMode to default to %q, got %q", SubmitModeDirect, cfg.SubmitMode)
	}
	if cfg.BundleInterval != 3*time.Second {
		t.Errorf("Expected BundleInterval to default to 3s, got %s", cfg.BundleInterval)
	}
	if cfg.ReceiptPollInterval != 75*time.Millisecond {
		t.Errorf("Expected ReceiptPollInterval to default to 75ms, got %s", cfg.ReceiptPollInterval)
	}
}

func TestBundlerConfigValidatePreservesRelayMode(t *testing.T) {
	cfg := BundlerConfig{SubmitMode: SubmitModeRelay, RelayURL: "https://relay.example/v1/bundle"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}
	if cfg.SubmitMode != SubmitModeRelay {
		t.Errorf("Expected SubmitMode to remain %q, got %q", SubmitModeRelay, cfg.SubmitMode)
	}
}

func TestBundlerConfigJSONRoundTrip(t *testing.T) {
	cfg := DefaultBundlerConfig()
	cfg.EntryPointAddress = "0x0000000000000000000000000000000000dEaD"
	cfg.RelayURL = "https://relay.example/v1/bundle"

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("JSON marshal failed: %v", err)
	}

	var out BundlerConfig
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("JSON unmarshal failed: %v", err)
	}
	if out.EntryPointAddress != cfg.EntryPointAddress {
		t.Errorf("EntryPointAddress mismatch: expected %s, got %s", cfg.EntryPointAddress, out.EntryPointAddress)
	}
	if out.SubmitMode != cfg.SubmitMode {
		t.Errorf("SubmitMode mismatch: expected %s, got %s", cfg.SubmitMode, out.SubmitMode)
	}
}

func TestNodeConfigDefaults(t *testing.T) {
	cfg := DefaultNodeConfig()
	if cfg.ChainID == 0 {
		t.Error("Expected a non-zero default ChainID")
	}
	if cfg.ExecutionRPCURL == "" {
		t.Error("Expected a non-empty default ExecutionRPCURL")
	}
}
