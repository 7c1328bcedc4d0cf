/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Shikhar Lohiya
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

// Package callsession owns the call lifecycle. The Store is the single
// writer of call state: UI consumers invoke its commands and render from
// snapshots, the telephony gateway executes its intents, and the socket
// event stream is reconciled into it as the authoritative source of truth.
package callsession

import (
	"time"

	"github.com/shikharlohiya/agentconsole-sdk/gateway"
	"github.com/shikharlohiya/agentconsole-sdk/socket"
)

// State is the lifecycle state of the call session. Exactly one State is
// current at any instant; transitions happen only through the table below.
type State string

const (
	StateIdle       State = "idle"
	StateIncoming   State = "incoming"
	StateConnecting State = "connecting"
	StateActive     State = "active"
	StateEnded      State = "ended"
	StateFailed     State = "failed"
)

// validTransitions defines which state transitions are allowed
var validTransitions = map[State][]State{
	StateIdle:       {StateConnecting, StateIncoming},
	StateIncoming:   {StateActive, StateEnded, StateFailed},
	StateConnecting: {StateActive, StateEnded, StateFailed},
	StateActive:     {StateEnded, StateFailed},
	StateEnded:      {StateIdle},
	StateFailed:     {StateIdle},
}

// CanTransitionTo checks if a transition from the current state to next is valid
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal returns true for states that only lead back to idle
func (s State) IsTerminal() bool {
	return s == StateEnded || s == StateFailed
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// Snapshot is a read-only copy of the session handed to UI consumers. No
// consumer may hold a mutable reference into the Store; every read is a
// fresh copy.
type Snapshot struct {
	State            State
	CallID           string
	DialedNumber     string
	IsMuted          bool
	DurationSeconds  int
	LastError        string
	ConnectionStatus socket.Status
}

// Subscriber is notified with a fresh snapshot after every mutation
type Subscriber func(Snapshot)

// Gateway is the call-control surface the Store drives. *gateway.Client
// satisfies it; tests substitute fakes.
type Gateway interface {
	Initiate(phoneNumber string) (*gateway.InitiateResult, error)
	Hangup(callID string) (*gateway.HangupResult, error)
	Merge(callID, partyNumber string) error
	Status(callID string) (*gateway.CallStatus, error)
}

// Transport is the event channel the Store reconciles against.
// *socket.Client satisfies it.
type Transport interface {
	On(event string, handler socket.EventHandler)
	Status() socket.Status
}

// Config holds configuration for the session store
type Config struct {
	// AutoResetDelay is how long a terminal state (ended/failed) is shown
	// before the session resets to idle. Default: 5s.
	AutoResetDelay time.Duration

	// TickInterval is the duration ticker interval. Default: 1s.
	TickInterval time.Duration

	// newTicker and afterFunc are timer seams for tests. The ticker channel
	// must be closed by the returned stop function.
	newTicker func(d time.Duration) (<-chan time.Time, func())
	afterFunc func(d time.Duration, f func()) (cancel func())
}

// DefaultConfig returns a Config with production timers
func DefaultConfig() *Config {
	return &Config{
		AutoResetDelay: 5 * time.Second,
		TickInterval:   1 * time.Second,
	}
}

func (c *Config) withDefaults() *Config {
	if c == nil {
		c = DefaultConfig()
	}
	if c.AutoResetDelay == 0 {
		c.AutoResetDelay = 5 * time.Second
	}
	if c.TickInterval == 0 {
		c.TickInterval = 1 * time.Second
	}
	if c.newTicker == nil {
		c.newTicker = defaultNewTicker
	}
	if c.afterFunc == nil {
		c.afterFunc = defaultAfterFunc
	}
	return c
}
