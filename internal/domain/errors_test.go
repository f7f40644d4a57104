package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hypertd/hyperhook/internal/domain"
)

func TestErrorClassification(t *testing.T) {
	valErr := domain.NewValidationError("qty must be > 0")
	apiErr := domain.NewAPIError("exchange rejected order")
	netErr := &domain.NetworkError{Op: "post /exchange", Err: errors.New("connection reset")}
	parseErr := &domain.ResponseParseError{Raw: "{}", Err: errors.New("no statuses")}

	if !domain.IsValidation(valErr) || domain.IsRetryable(valErr) {
		t.Error("validation errors are permanent and never retryable")
	}
	if !domain.IsNetwork(netErr) || !domain.IsRetryable(netErr) {
		t.Error("network errors are transient and retryable")
	}
	if !domain.IsAPI(apiErr) || !domain.IsRetryable(apiErr) {
		t.Error("API errors are retryable")
	}
	// Unparseable responses are treated as API errors.
	if !domain.IsAPI(parseErr) || !domain.IsRetryable(parseErr) {
		t.Error("parse errors should classify as API errors")
	}
}

func TestErrorClassification_SurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("place order: %w", domain.NewValidationError("bad symbol"))
	if !domain.IsValidation(wrapped) {
		t.Error("classification should survive fmt.Errorf wrapping")
	}
	if domain.ErrorKind(wrapped) != "ValidationError" {
		t.Errorf("ErrorKind = %s, want ValidationError", domain.ErrorKind(wrapped))
	}
	if domain.ErrorKind(errors.New("boom")) != "UnknownError" {
		t.Error("unclassified errors report UnknownError")
	}
}
