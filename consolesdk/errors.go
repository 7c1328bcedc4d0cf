/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Shikhar Lohiya
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

package consolesdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// The SDK surfaces every expected failure as one of four error kinds, so
// callers can map each kind to distinct user-facing handling:
//
//   - ValidationError: the caller's input was rejected locally, before any
//     network traffic. Fixable client-side.
//   - GatewayError: the backend explicitly refused the request (non-2xx, or
//     2xx with success=false).
//   - ConnectivityError: the backend could not be reached at all.
//   - TimeoutError: no response arrived within the request budget.
//
// Programming errors are not wrapped; they propagate as ordinary errors.

// ValidationError reports input rejected by local validation. No request
// was sent to the backend.
type ValidationError struct {
	// Field names the offending input (e.g. "phoneNumber").
	Field string

	// Message describes why the input was rejected.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return "validation failed: " + e.Message
}

// GatewayError reports an explicit refusal from the backend.
type GatewayError struct {
	// StatusCode is the HTTP status code from the response.
	StatusCode int

	// Status is the HTTP status line (e.g., "503 Service Unavailable").
	Status string

	// Message is the error message from the backend response body, when present.
	Message string

	// TrackingID is the request tracking identifier, when the backend echoes one.
	TrackingID string

	// RawBody is the raw response body bytes, preserved for debugging.
	RawBody []byte
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("gateway error: %d", e.StatusCode)
	if e.Message != "" {
		msg += " - " + e.Message
	}
	if e.TrackingID != "" {
		msg += " (trackingId: " + e.TrackingID + ")"
	}
	return msg
}

// ConnectivityError reports that the backend could not be reached: DNS
// failure, refused connection, broken socket. No response was received.
type ConnectivityError struct {
	// Operation names the call-control operation that failed (e.g. "initiate").
	Operation string

	// Err is the underlying transport error.
	Err error
}

// Error implements the error interface.
func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("connectivity error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *ConnectivityError) Unwrap() error { return e.Err }

// TimeoutError reports that the backend did not answer within the request
// budget.
type TimeoutError struct {
	// Operation names the call-control operation that timed out.
	Operation string

	// Budget is the timeout that elapsed.
	Budget time.Duration

	// Err is the underlying deadline error.
	Err error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Operation, e.Budget)
}

// Unwrap returns the underlying deadline error.
func (e *TimeoutError) Unwrap() error { return e.Err }

// --- Factories ---

// gatewayErrorBody is used to parse the backend's error response JSON.
type gatewayErrorBody struct {
	Message    string `json:"message"`
	Error      string `json:"error"`
	TrackingID string `json:"trackingId"`
}

// NewGatewayError creates a GatewayError from an HTTP response and its body.
// It parses the JSON body for a message (the backend uses both "message" and
// "error" keys depending on the endpoint) and a tracking ID.
func NewGatewayError(resp *http.Response, body []byte) error {
	ge := &GatewayError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		RawBody:    body,
	}

	var parsed gatewayErrorBody
	if len(body) > 0 {
		if err := json.Unmarshal(body, &parsed); err == nil {
			ge.Message = parsed.Message
			if ge.Message == "" {
				ge.Message = parsed.Error
			}
			ge.TrackingID = parsed.TrackingID
		}
		// If JSON parsing fails, leave Message empty — RawBody preserves the original
	}

	return ge
}

// ClassifyTransportError converts an error returned by http.Client.Do into
// the taxonomy: deadline expiry becomes a TimeoutError, everything else a
// ConnectivityError.
func ClassifyTransportError(operation string, budget time.Duration, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Operation: operation, Budget: budget, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Operation: operation, Budget: budget, Err: err}
	}

	return &ConnectivityError{Operation: operation, Err: err}
}

// --- Convenience functions ---

// IsValidation reports whether err is a local validation error.
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsGateway reports whether err is an explicit backend refusal.
func IsGateway(err error) bool {
	var e *GatewayError
	return errors.As(err, &e)
}

// IsConnectivity reports whether err indicates the backend was unreachable.
func IsConnectivity(err error) bool {
	var e *ConnectivityError
	return errors.As(err, &e)
}

// IsTimeout reports whether err indicates the request budget elapsed.
func IsTimeout(err error) bool {
	var e *TimeoutError
	return errors.As(err, &e)
}

// UserMessage maps an error to the message shown in the dialer's status line.
// Backend-supplied messages win when present; otherwise each kind gets a
// generic fallback.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}

	var ge *GatewayError
	if errors.As(err, &ge) {
		if ge.Message != "" {
			return ge.Message
		}
		return "The call could not be completed. Please try again."
	}

	var te *TimeoutError
	if errors.As(err, &te) {
		return "The call server took too long to respond. Please try again."
	}

	var ce *ConnectivityError
	if errors.As(err, &ce) {
		return "Unable to reach the call server. Check your connection."
	}

	return err.Error()
}
