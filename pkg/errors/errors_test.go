// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSanityStageErrors(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{ErrSenderAlreadyDeployed, "sender already deployed"},
		{ErrInitCodeTooShort, "initCode shorter than factory address"},
		{ErrFactoryNotDeployed, "factory not deployed"},
		{ErrVerificationGasLimitTooHigh, "verification gas limit too high"},
		{ErrPreVerificationGasTooLow, "pre-verification gas too low"},
		{ErrPaymasterNotDeployed, "paymaster not deployed"},
		{ErrPaymasterDepositTooLow, "paymaster deposit too low"},
		{ErrMaxFeePerGasTooLow, "max fee per gas too low"},
		{ErrTipAboveFeeCap, "max priority fee per gas higher than max fee per gas"},
		{ErrReplacementUnderpriced, "replacement operation underpriced"},
		{ErrSenderThrottledOrBanned, "sender throttled or banned"},
		{ErrEntityThrottledOrBanned, "entity throttled or banned"},
		{ErrSenderAlreadyHasPendingOp, "sender already has a pending operation"},
	}
	for _, tt := range tests {
		if tt.err.Error() != tt.expected {
			t.Errorf("expected error message %q, got %q", tt.expected, tt.err.Error())
		}
	}
}

func TestSimulationAndTraceStageErrors(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{ErrSimulateValidationReverted, "simulateValidation reverted"},
		{ErrSignatureValidationFailed, "signature validation failed"},
		{ErrExpiredOrNotDue, "operation expired or not yet due"},
		{ErrInsufficientStake, "insufficient stake"},
		{ErrAggregatorNotStaked, "aggregator not staked"},
		{ErrForbiddenOpcode, "forbidden opcode used during validation"},
		{ErrOutOfGasDuringValidation, "out of gas during validation"},
		{ErrForbiddenStorageAccess, "forbidden storage access"},
		{ErrMultipleCreate2, "multiple CREATE2 invocations"},
		{ErrForbiddenValueTransfer, "forbidden value transfer during validation"},
		{ErrForbiddenExternalCall, "forbidden external call during validation"},
		{ErrCodeHashChanged, "entity code hash changed since admission"},
	}
	for _, tt := range tests {
		if tt.err.Error() != tt.expected {
			t.Errorf("expected error message %q, got %q", tt.expected, tt.err.Error())
		}
	}
}

func TestBundlerAndPubSubErrors(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{ErrHandleOpsReverted, "handleOps transaction reverted"},
		{ErrNoOperationsToBundle, "no operations eligible for bundling"},
		{ErrSubmitterUnavailable, "submitter unavailable"},
		{ErrInvalidPubSub, "pubsub is nil"},
		{ErrMessageNotMapped, "message type is not mapped to a PubSub topic"},
		{ErrInvalidFetchedData, "invalid data returned from peer"},
		{ErrKeyNotFound, "db: key not found"},
		{ErrInvalidSize, "bit endian number has an invalid size"},
	}
	for _, tt := range tests {
		if tt.err.Error() != tt.expected {
			t.Errorf("expected error message %q, got %q", tt.expected, tt.err.Error())
		}
	}
}

func TestValidationError(t *testing.T) {
	t.Run("with message", func(t *testing.T) {
		err := NewValidationError(StageSimulation, "AA24", "signature error")
		want := "simulation: AA24: signature error"
		if err.Error() != want {
			t.Errorf("expected %q, got %q", want, err.Error())
		}
	})

	t.Run("without message", func(t *testing.T) {
		err := &ValidationError{Stage: StageSanity, Code: "AA10"}
		want := "sanity: AA10"
		if err.Error() != want {
			t.Errorf("expected %q, got %q", want, err.Error())
		}
	})
}

func TestWrap(t *testing.T) {
	t.Run("wrap nil error", func(t *testing.T) {
		if Wrap(nil, "context") != nil {
			t.Error("Wrap(nil) should return nil")
		}
	})

	t.Run("wrap error with context", func(t *testing.T) {
		original := errors.New("original error")
		wrapped := Wrap(original, "context message")

		expected := "context message: original error"
		if wrapped.Error() != expected {
			t.Errorf("expected %q, got %q", expected, wrapped.Error())
		}
		if !errors.Is(wrapped, original) {
			t.Error("wrapped error should unwrap to original")
		}
	})
}

func TestWrapf(t *testing.T) {
	t.Run("wrapf nil error", func(t *testing.T) {
		if Wrapf(nil, "context %d", 123) != nil {
			t.Error("Wrapf(nil) should return nil")
		}
	})

	t.Run("wrapf error with formatted context", func(t *testing.T) {
		original := errors.New("original error")
		wrapped := Wrapf(original, "context %d %s", 123, "test")

		expected := "context 123 test: original error"
		if wrapped.Error() != expected {
			t.Errorf("expected %q, got %q", expected, wrapped.Error())
		}
		if !errors.Is(wrapped, original) {
			t.Error("wrapped error should unwrap to original")
		}
	})
}

func TestIs(t *testing.T) {
	t.Run("is same error", func(t *testing.T) {
		if !Is(ErrSenderAlreadyDeployed, ErrSenderAlreadyDeployed) {
			t.Error("Is should return true for same error")
		}
	})

	t.Run("is different error", func(t *testing.T) {
		if Is(ErrSenderAlreadyDeployed, ErrFactoryNotDeployed) {
			t.Error("Is should return false for different errors")
		}
	})

	t.Run("is wrapped error", func(t *testing.T) {
		wrapped := fmt.Errorf("wrapped: %w", ErrSenderAlreadyDeployed)
		if !Is(wrapped, ErrSenderAlreadyDeployed) {
			t.Error("Is should return true for wrapped error")
		}
	})

	t.Run("is nil error", func(t *testing.T) {
		if Is(nil, ErrSenderAlreadyDeployed) {
			t.Error("Is(nil, err) should return false")
		}
	})
}

type customError struct {
	Code    int
	Message string
}

func (e *customError) Error() string { return e.Message }

func TestAs(t *testing.T) {
	t.Run("as matching type", func(t *testing.T) {
		original := &customError{Code: 404, Message: "not found"}
		wrapped := fmt.Errorf("wrapped: %w", original)

		var target *customError
		if !As(wrapped, &target) {
			t.Error("As should return true for matching type")
		}
		if target.Code != 404 {
			t.Errorf("expected Code 404, got %d", target.Code)
		}
	})

	t.Run("as non-matching type", func(t *testing.T) {
		err := errors.New("simple error")
		var target *customError
		if As(err, &target) {
			t.Error("As should return false for non-matching type")
		}
	})
}

func TestNew(t *testing.T) {
	err := New("test error")
	if err == nil || err.Error() != "test error" {
		t.Errorf("expected 'test error', got %v", err)
	}
}

func TestErrorf(t *testing.T) {
	t.Run("simple format", func(t *testing.T) {
		if err := Errorf("error %d", 123); err.Error() != "error 123" {
			t.Errorf("expected 'error 123', got %q", err.Error())
		}
	})

	t.Run("wrap with errorf", func(t *testing.T) {
		wrapped := Errorf("wrapped: %w", ErrSenderAlreadyDeployed)
		if !errors.Is(wrapped, ErrSenderAlreadyDeployed) {
			t.Error("Errorf with %w should wrap error")
		}
	})
}

func TestErrorUniqueness(t *testing.T) {
	allErrors := []error{
		ErrSenderAlreadyDeployed, ErrInitCodeTooShort, ErrFactoryNotDeployed,
		ErrVerificationGasLimitTooHigh, ErrPreVerificationGasTooLow,
		ErrPaymasterNotDeployed, ErrPaymasterDepositTooLow, ErrMaxFeePerGasTooLow,
		ErrTipAboveFeeCap, ErrReplacementUnderpriced, ErrSenderThrottledOrBanned,
		ErrEntityThrottledOrBanned, ErrSenderAlreadyHasPendingOp, ErrSimulateValidationReverted,
		ErrSignatureValidationFailed, ErrExpiredOrNotDue, ErrInsufficientStake,
		ErrAggregatorNotStaked, ErrForbiddenOpcode, ErrOutOfGasDuringValidation,
		ErrForbiddenStorageAccess, ErrMultipleCreate2, ErrForbiddenValueTransfer,
		ErrForbiddenExternalCall, ErrCodeHashChanged, ErrHandleOpsReverted, ErrNoOperationsToBundle,
		ErrSubmitterUnavailable, ErrInvalidPubSub, ErrMessageNotMapped,
		ErrInvalidFetchedData, ErrKeyNotFound, ErrInvalidSize,
	}

	seen := make(map[string]bool)
	for _, err := range allErrors {
		msg := err.Error()
		if seen[msg] {
			t.Errorf("duplicate error message: %s", msg)
		}
		seen[msg] = true
	}
}

func BenchmarkWrap(b *testing.B) {
	err := errors.New("original error")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Wrap(err, "context message")
	}
}

func BenchmarkIs(b *testing.B) {
	wrapped := fmt.Errorf("layer3: %w", fmt.Errorf("layer2: %w", ErrSenderAlreadyDeployed))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Is(wrapped, ErrSenderAlreadyDeployed)
	}
}
