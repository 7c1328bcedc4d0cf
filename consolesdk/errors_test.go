/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Shikhar Lohiya
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

package consolesdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
)

// fakeNetError implements net.Error with a configurable timeout flag
type fakeNetError struct {
	msg     string
	timeout bool
}

func (e *fakeNetError) Error() string   { return e.msg }
func (e *fakeNetError) Timeout() bool   { return e.timeout }
func (e *fakeNetError) Temporary() bool { return false }

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "phoneNumber", Message: "phone number must have at least 10 digits"}
	if !strings.Contains(err.Error(), "phoneNumber") {
		t.Errorf("Expected error to name the field, got: %s", err.Error())
	}

	err = &ValidationError{Message: "bad input"}
	if got := err.Error(); got != "validation failed: bad input" {
		t.Errorf("Unexpected message without field: %s", got)
	}
}

func TestNewGatewayError(t *testing.T) {
	t.Run("parses message key", func(t *testing.T) {
		resp := &http.Response{StatusCode: 503, Status: "503 Service Unavailable"}
		err := NewGatewayError(resp, []byte(`{"message":"no trunks available","trackingId":"agent-console_abc"}`))

		var ge *GatewayError
		if !errors.As(err, &ge) {
			t.Fatalf("Expected GatewayError, got %T", err)
		}
		if ge.StatusCode != 503 {
			t.Errorf("Expected status 503, got %d", ge.StatusCode)
		}
		if ge.Message != "no trunks available" {
			t.Errorf("Unexpected message: %s", ge.Message)
		}
		if ge.TrackingID != "agent-console_abc" {
			t.Errorf("Unexpected trackingId: %s", ge.TrackingID)
		}
	})

	t.Run("falls back to error key", func(t *testing.T) {
		resp := &http.Response{StatusCode: 400, Status: "400 Bad Request"}
		err := NewGatewayError(resp, []byte(`{"error":"invalid callId"}`))

		var ge *GatewayError
		if !errors.As(err, &ge) {
			t.Fatalf("Expected GatewayError, got %T", err)
		}
		if ge.Message != "invalid callId" {
			t.Errorf("Unexpected message: %s", ge.Message)
		}
	})

	t.Run("preserves unparseable body", func(t *testing.T) {
		resp := &http.Response{StatusCode: 502, Status: "502 Bad Gateway"}
		err := NewGatewayError(resp, []byte("<html>bad gateway</html>"))

		var ge *GatewayError
		if !errors.As(err, &ge) {
			t.Fatalf("Expected GatewayError, got %T", err)
		}
		if ge.Message != "" {
			t.Errorf("Expected empty message for non-JSON body, got: %s", ge.Message)
		}
		if string(ge.RawBody) != "<html>bad gateway</html>" {
			t.Error("Expected RawBody to preserve the original response")
		}
	})
}

func TestClassifyTransportError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		if err := ClassifyTransportError("initiate-call", time.Second, nil); err != nil {
			t.Errorf("Expected nil, got: %v", err)
		}
	})

	t.Run("deadline exceeded becomes timeout", func(t *testing.T) {
		wrapped := fmt.Errorf("Post \"http://x\": %w", context.DeadlineExceeded)
		err := ClassifyTransportError("initiate-call", 15*time.Second, wrapped)
		if !IsTimeout(err) {
			t.Fatalf("Expected TimeoutError, got %T: %v", err, err)
		}

		var te *TimeoutError
		errors.As(err, &te)
		if te.Budget != 15*time.Second {
			t.Errorf("Expected budget to be recorded, got %s", te.Budget)
		}
	})

	t.Run("net timeout becomes timeout", func(t *testing.T) {
		err := ClassifyTransportError("call-status", 10*time.Second, &fakeNetError{msg: "i/o timeout", timeout: true})
		if !IsTimeout(err) {
			t.Fatalf("Expected TimeoutError, got %T: %v", err, err)
		}
	})

	t.Run("refused connection becomes connectivity", func(t *testing.T) {
		err := ClassifyTransportError("initiate-call", time.Second, &fakeNetError{msg: "connection refused"})
		if !IsConnectivity(err) {
			t.Fatalf("Expected ConnectivityError, got %T: %v", err, err)
		}
		if IsTimeout(err) {
			t.Error("Connectivity error must not also classify as timeout")
		}
	})
}

func TestErrorPredicatesUnwrap(t *testing.T) {
	inner := &GatewayError{StatusCode: 500}
	wrapped := fmt.Errorf("initiate failed: %w", inner)

	if !IsGateway(wrapped) {
		t.Error("IsGateway should see through wrapping")
	}
	if IsValidation(wrapped) || IsConnectivity(wrapped) || IsTimeout(wrapped) {
		t.Error("Wrapped GatewayError must match only its own predicate")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil",
			err:  nil,
			want: "",
		},
		{
			name: "validation uses its own message",
			err:  &ValidationError{Field: "phoneNumber", Message: "phone number must have at least 10 digits"},
			want: "phone number must have at least 10 digits",
		},
		{
			name: "gateway prefers backend message",
			err:  &GatewayError{StatusCode: 503, Message: "no trunks available"},
			want: "no trunks available",
		},
		{
			name: "gateway falls back to generic",
			err:  &GatewayError{StatusCode: 503},
			want: "The call could not be completed. Please try again.",
		},
		{
			name: "timeout",
			err:  &TimeoutError{Operation: "initiate-call", Budget: 15 * time.Second},
			want: "The call server took too long to respond. Please try again.",
		},
		{
			name: "connectivity",
			err:  &ConnectivityError{Operation: "initiate-call", Err: errors.New("connection refused")},
			want: "Unable to reach the call server. Check your connection.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
