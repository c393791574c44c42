package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestGetServiceErrorUnwraps(t *testing.T) {
	base := NotFound("job %d not found", 7)
	wrapped := fmt.Errorf("load job: %w", base)

	got := GetServiceError(wrapped)
	if got == nil {
		t.Fatalf("expected service error in chain")
	}
	if got.HTTPStatus != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", got.HTTPStatus, http.StatusNotFound)
	}
	if got.Message != "job 7 not found" {
		t.Fatalf("message = %q", got.Message)
	}
	if GetServiceError(fmt.Errorf("plain")) != nil {
		t.Fatalf("plain errors must not map to a service error")
	}
}

func TestWithDetailsDoesNotMutate(t *testing.T) {
	base := RateLimitExceeded(5, "1s")
	extended := base.WithDetails("key", "1.2.3.4")
	if _, ok := base.Details["key"]; ok {
		t.Fatalf("original details mutated")
	}
	if extended.Details["limit"] != 5 || extended.Details["key"] != "1.2.3.4" {
		t.Fatalf("unexpected details %v", extended.Details)
	}
}

func TestInternalKeepsCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Internal("save failed", cause)
	if !Is(err, cause) {
		t.Fatalf("cause not reachable through Unwrap")
	}
	if err.Error() != "save failed: disk full" {
		t.Fatalf("Error() = %q", err.Error())
	}
}
