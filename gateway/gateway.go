/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Shikhar Lohiya
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

// Package gateway translates call-control intents into the telephony
// gateway's HTTP surface and normalizes its response shapes and failure
// modes into the shared error taxonomy. Expected failures are returned,
// never panicked, so the session store can map each kind to a user-facing
// message.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shikharlohiya/agentconsole-sdk/consolesdk"
	"github.com/shikharlohiya/agentconsole-sdk/metrics"
)

// Client is the telephony gateway client
type Client struct {
	core   *consolesdk.Client
	config *Config
}

// New creates a new gateway client
func New(core *consolesdk.Client, config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 15 * time.Second
	}
	if config.StatusTimeout == 0 {
		config.StatusTimeout = 10 * time.Second
	}

	return &Client{
		core:   core,
		config: config,
	}
}

// Initiate dials an outbound call. The raw phone string is normalized
// locally; numbers resolving to fewer than 10 digits are rejected without a
// network call.
func (c *Client) Initiate(phoneNumber string) (*InitiateResult, error) {
	number, err := NormalizeNumber(phoneNumber)
	if err != nil {
		return nil, err
	}

	env, err := c.post("initiate-call", initiateRequest{
		PhoneNumber: number,
		AgentID:     c.config.AgentID,
	}, c.config.RequestTimeout)
	if err != nil {
		return nil, err
	}

	var data struct {
		CallID string `json:"callId"`
	}
	if err := env.DecodeData(&data); err != nil {
		return nil, fmt.Errorf("error parsing initiate response: %w", err)
	}
	if data.CallID == "" {
		return nil, &consolesdk.GatewayError{
			StatusCode: http.StatusOK,
			Message:    "gateway accepted the call but returned no callId",
		}
	}

	return &InitiateResult{CallID: data.CallID, Status: CallStatusConnecting}, nil
}

// Hangup ends a call. Hanging up an already-ended callId is reported by the
// backend as a refusal; callers that want idempotent semantics (the session
// store does) treat that refusal as success.
func (c *Client) Hangup(callID string) (*HangupResult, error) {
	if callID == "" {
		return nil, &consolesdk.ValidationError{Field: "callId", Message: "callId is required"}
	}

	env, err := c.post("hangup-call", hangupRequest{CallID: callID}, c.config.RequestTimeout)
	if err != nil {
		return nil, err
	}

	var data struct {
		Duration int `json:"duration"`
	}
	if err := env.DecodeData(&data); err != nil {
		// Some gateway versions omit the duration payload; treat as zero
		return &HangupResult{}, nil
	}

	return &HangupResult{Duration: data.Duration}, nil
}

// Disconnect ends a call via the legacy call-disconnection endpoint, with an
// optional reason forwarded to the gateway
func (c *Client) Disconnect(callID, reason string) (*HangupResult, error) {
	if callID == "" {
		return nil, &consolesdk.ValidationError{Field: "callId", Message: "callId is required"}
	}

	env, err := c.post("call-disconnection", disconnectRequest{CallID: callID, Reason: reason}, c.config.RequestTimeout)
	if err != nil {
		return nil, err
	}

	var data struct {
		Duration int `json:"duration"`
	}
	if err := env.DecodeData(&data); err != nil {
		return &HangupResult{}, nil
	}

	return &HangupResult{Duration: data.Duration}, nil
}

// Hold puts a call on hold
func (c *Client) Hold(callID string) error {
	return c.holdOrResume(callID, actionHold)
}

// Resume resumes a held call
func (c *Client) Resume(callID string) error {
	return c.holdOrResume(callID, actionResume)
}

// holdOrResume encodes the boolean action into the gateway's discrete values.
// The endpoint is a raw passthrough to the telephony provider: a 2xx status
// is the only success signal.
func (c *Client) holdOrResume(callID string, action holdOrResume) error {
	if callID == "" {
		return &consolesdk.ValidationError{Field: "callId", Message: "callId is required"}
	}

	return c.postRaw("hold-or-resume", holdResumeRequest{
		CLI:          c.config.CLI,
		CallID:       callID,
		HoldorResume: action,
	}, c.config.RequestTimeout)
}

// Merge conferences a third party into the call. The party number must
// resolve to at least 10 digits after stripping a leading country-code
// prefix and non-digit characters.
func (c *Client) Merge(callID, partyNumber string) error {
	if callID == "" {
		return &consolesdk.ValidationError{Field: "callId", Message: "callId is required"}
	}

	party, err := NormalizePartyNumber(partyNumber)
	if err != nil {
		return err
	}

	return c.postRaw("merge-call", mergeRequest{
		CLI:          c.config.CLI,
		CallID:       callID,
		CPartyNumber: party,
	}, c.config.RequestTimeout)
}

// Status polls the gateway's authoritative view of a call. Used only as a
// reconciliation fallback when the event channel is degraded.
func (c *Client) Status(callID string) (*CallStatus, error) {
	if callID == "" {
		return nil, &consolesdk.ValidationError{Field: "callId", Message: "callId is required"}
	}

	operation := "call-status"
	resp, err := c.doRequest(http.MethodGet, "call-status/"+callID, nil, operation, c.config.StatusTimeout)
	if err != nil {
		return nil, err
	}

	env, err := consolesdk.ParseEnvelope(resp)
	if err != nil {
		metrics.GatewayRequestsTotal.WithLabelValues(operation, outcomeLabel(err)).Inc()
		return nil, err
	}
	metrics.GatewayRequestsTotal.WithLabelValues(operation, "ok").Inc()

	var status CallStatus
	if err := env.DecodeData(&status); err != nil {
		return nil, fmt.Errorf("error parsing status response: %w", err)
	}
	if status.CallID == "" {
		status.CallID = callID
	}

	return &status, nil
}

// ---- HTTP helpers ----

// post sends an enveloped call-control request. Call-control requests are
// never retried: retrying an initiate could dial the customer twice.
func (c *Client) post(path string, body interface{}, budget time.Duration) (*consolesdk.Envelope, error) {
	resp, err := c.do(path, body, budget)
	if err != nil {
		return nil, err
	}

	env, err := consolesdk.ParseEnvelope(resp)
	metrics.GatewayRequestsTotal.WithLabelValues(path, outcomeLabel(err)).Inc()
	if err != nil {
		return nil, err
	}

	return env, nil
}

// postRaw sends a passthrough request where the response body shape is owned
// by the telephony provider. Only the HTTP status is interpreted.
func (c *Client) postRaw(path string, body interface{}, budget time.Duration) error {
	resp, err := c.do(path, body, budget)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := consolesdk.NewGatewayError(resp, raw)
		metrics.GatewayRequestsTotal.WithLabelValues(path, outcomeLabel(err)).Inc()
		return err
	}

	metrics.GatewayRequestsTotal.WithLabelValues(path, "ok").Inc()
	return nil
}

// do performs a single POST with the operation's budget
func (c *Client) do(path string, body interface{}, budget time.Duration) (*http.Response, error) {
	return c.doRequest(http.MethodPost, path, body, path, budget)
}

// doRequest builds and performs a single request with the operation's budget
// and a fresh tracking ID. Transport failures are classified into the shared
// taxonomy before returning.
func (c *Client) doRequest(method, path string, body interface{}, operation string, budget time.Duration) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("error marshaling %s payload: %w", operation, err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	ctx, cancel := context.WithTimeout(context.Background(), budget)
	defer cancel()

	url := c.core.BaseURL.String() + "/" + path
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating %s request: %w", operation, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trackingId", fmt.Sprintf("agent-console_%s", uuid.New().String()))
	for k, v := range c.core.Config.DefaultHeaders {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.core.GetHTTPClient().Do(req)
	metrics.GatewayRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		classified := consolesdk.ClassifyTransportError(operation, budget, err)
		metrics.GatewayRequestsTotal.WithLabelValues(operation, outcomeLabel(classified)).Inc()
		return nil, classified
	}

	return resp, nil
}

// outcomeLabel maps an error to its metrics outcome label
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case consolesdk.IsTimeout(err):
		return "timeout"
	case consolesdk.IsConnectivity(err):
		return "connectivity_error"
	case consolesdk.IsGateway(err):
		return "gateway_error"
	default:
		return "error"
	}
}

// ---- Number normalization ----

// NormalizeNumber strips non-digit characters from a raw phone string and
// rejects numbers resolving to fewer than 10 digits.
func NormalizeNumber(raw string) (string, error) {
	digits := stripNonDigits(raw)
	if len(digits) < 10 {
		return "", &consolesdk.ValidationError{
			Field:   "phoneNumber",
			Message: "phone number must have at least 10 digits",
		}
	}
	return digits, nil
}

// NormalizePartyNumber normalizes a conference party number: non-digits are
// stripped, then a leading country-code prefix ("91" or a trunk "0") is
// removed when the number is longer than 10 digits.
func NormalizePartyNumber(raw string) (string, error) {
	digits := stripNonDigits(raw)

	for len(digits) > 10 {
		switch {
		case strings.HasPrefix(digits, "0"):
			digits = digits[1:]
		case strings.HasPrefix(digits, "91"):
			digits = digits[2:]
		default:
			// Unknown prefix; keep the trailing 10 digits
			digits = digits[len(digits)-10:]
		}
	}

	if len(digits) < 10 {
		return "", &consolesdk.ValidationError{
			Field:   "partyNumber",
			Message: "party number must have at least 10 digits",
		}
	}
	return digits, nil
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
