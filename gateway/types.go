/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Shikhar Lohiya
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

package gateway

import "time"

// CallStatusValue is the status reported by the gateway for a call
type CallStatusValue string

const (
	CallStatusConnecting CallStatusValue = "connecting"
	CallStatusRinging    CallStatusValue = "ringing"
	CallStatusConnected  CallStatusValue = "connected"
	CallStatusEnded      CallStatusValue = "ended"
	CallStatusFailed     CallStatusValue = "failed"
)

// holdOrResume encodes the hold action into the gateway's discrete values
type holdOrResume string

const (
	actionHold   holdOrResume = "1"
	actionResume holdOrResume = "0"
)

// InitiateResult is the normalized result of a successful initiate
type InitiateResult struct {
	CallID string          `json:"callId"`
	Status CallStatusValue `json:"status"`
}

// HangupResult is the normalized result of a successful hangup
type HangupResult struct {
	// Duration is the call duration in seconds as reported by the gateway
	Duration int `json:"duration"`
}

// CallStatus is the gateway's authoritative view of a call, used as the
// reconciliation fallback when the event channel is degraded
type CallStatus struct {
	CallID   string          `json:"callId"`
	Status   CallStatusValue `json:"status"`
	Duration int             `json:"duration,omitempty"`
	Reason   string          `json:"reason,omitempty"`
}

// ---- Request bodies (gateway HTTP contract) ----

type initiateRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	AgentID     string `json:"agentId,omitempty"`
}

type hangupRequest struct {
	CallID string `json:"callId"`
	Reason string `json:"reason,omitempty"`
}

type disconnectRequest struct {
	CallID string `json:"call_id"`
	Reason string `json:"reason,omitempty"`
}

type holdResumeRequest struct {
	CLI          string       `json:"cli"`
	CallID       string       `json:"call_id"`
	HoldorResume holdOrResume `json:"HoldorResume"`
}

type mergeRequest struct {
	CLI          string `json:"cli"`
	CallID       string `json:"call_id"`
	CPartyNumber string `json:"cparty_number"`
}

// ---- Config ----

// Config holds configuration for the gateway client
type Config struct {
	// CLI is the originating caller-line-identity number presented to the
	// gateway on hold/resume and merge requests
	CLI string

	// AgentID identifies the agent on initiate requests
	AgentID string

	// RequestTimeout is the budget for call-control requests. Default: 15s.
	RequestTimeout time.Duration

	// StatusTimeout is the budget for the read-only status poll. Default: 10s.
	StatusTimeout time.Duration
}

// DefaultConfig returns a Config with the default request budgets
func DefaultConfig() *Config {
	return &Config{
		RequestTimeout: 15 * time.Second,
		StatusTimeout:  10 * time.Second,
	}
}
