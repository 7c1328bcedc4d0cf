/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Shikhar Lohiya
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

package callsession

import (
	"errors"
	"log"
	"sync"

	"github.com/shikharlohiya/agentconsole-sdk/consolesdk"
	"github.com/shikharlohiya/agentconsole-sdk/gateway"
	"github.com/shikharlohiya/agentconsole-sdk/metrics"
	"github.com/shikharlohiya/agentconsole-sdk/socket"
)

// Store is the call session state machine. It exclusively owns all writes to
// the session; every other component holds snapshots plus the right to
// invoke commands. Mutations are serialized by a mutex, and server-pushed
// events are authoritative over locally-optimistic state.
type Store struct {
	mu sync.Mutex

	gw        Gateway
	transport Transport
	config    *Config
	logger    consolesdk.Logger

	// Session state (spec'd fields)
	state          State
	callID         string
	incomingCallID string
	dialedNumber   string
	muted          bool
	duration       int
	lastError      string

	// attempt is a generation counter bumped on every new call attempt.
	// Async callbacks carry the generation they were issued under and are
	// discarded if the session has moved on.
	attempt          uint64
	initiateInFlight bool
	hangupOnAssign   bool

	stopTicker  func()
	cancelReset func()

	subscribers map[int]Subscriber
	nextSubID   int
}

// New creates a session store wired to the given gateway and transport.
// It subscribes to the transport's call events and to the synthetic
// reconnected event for post-outage reconciliation.
func New(gw Gateway, transport Transport, logger consolesdk.Logger, config *Config) *Store {
	if logger == nil {
		logger = log.Default()
	}

	s := &Store{
		gw:          gw,
		transport:   transport,
		config:      config.withDefaults(),
		logger:      logger,
		state:       StateIdle,
		subscribers: make(map[int]Subscriber),
	}

	if transport != nil {
		transport.On(socket.EventCallIncoming, s.handleCallEvent)
		transport.On(socket.EventCallInitiated, s.handleCallEvent)
		transport.On(socket.EventCallConnected, s.handleCallEvent)
		transport.On(socket.EventCallEnded, s.handleCallEvent)
		transport.On(socket.EventCallStatusUpdate, s.handleCallEvent)
		transport.On(socket.EventReconnected, s.handleReconnected)
	}

	return s
}

// Snapshot returns a read-only copy of the current session
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	connStatus := socket.StatusDisconnected
	if s.transport != nil {
		connStatus = s.transport.Status()
	}

	return Snapshot{
		State:            s.state,
		CallID:           s.callID,
		DialedNumber:     s.dialedNumber,
		IsMuted:          s.muted,
		DurationSeconds:  s.duration,
		LastError:        s.lastError,
		ConnectionStatus: connStatus,
	}
}

// Subscribe registers a subscriber notified after every mutation. The
// returned function unsubscribes it.
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// ---- Commands ----

// Initiate dials an outbound call. The state moves to connecting
// immediately (optimistic render) and is reconciled when the gateway
// responds and the server confirms. While a call is in flight a second
// Initiate is a no-op, so double-clicks never dial twice.
func (s *Store) Initiate(rawNumber string) error {
	s.mu.Lock()

	// Re-entrancy guard
	if s.state == StateConnecting || s.state == StateActive || s.initiateInFlight {
		s.mu.Unlock()
		return nil
	}
	if s.state != StateIdle {
		s.mu.Unlock()
		return &consolesdk.ValidationError{Field: "state", Message: "previous call must be cleared before dialing"}
	}

	if s.transport == nil || s.transport.Status() != socket.StatusConnected {
		s.mu.Unlock()
		return &consolesdk.ConnectivityError{
			Operation: "initiate",
			Err:       errors.New("event channel is not connected"),
		}
	}

	number, err := gateway.NormalizeNumber(rawNumber)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	s.attempt++
	attempt := s.attempt
	s.initiateInFlight = true
	s.hangupOnAssign = false
	s.dialedNumber = number
	s.transitionLocked(StateConnecting)
	s.mu.Unlock()

	s.notify()
	metrics.CallsInitiatedTotal.Inc()

	go s.runInitiate(attempt, number)
	return nil
}

// runInitiate performs the gateway call for one attempt generation
func (s *Store) runInitiate(attempt uint64, number string) {
	result, err := s.gw.Initiate(number)

	s.mu.Lock()
	if s.attempt != attempt {
		// The session moved on while the request was in flight
		s.initiateInFlight = false
		s.mu.Unlock()
		if err == nil && result != nil {
			go s.bestEffortHangup(result.CallID)
		}
		return
	}

	s.initiateInFlight = false

	if s.state != StateConnecting {
		// User ended the call before the gateway answered: issue a
		// best-effort hangup for whatever callId was assigned.
		hangup := s.hangupOnAssign
		s.hangupOnAssign = false
		s.mu.Unlock()
		if hangup && err == nil && result != nil {
			go s.bestEffortHangup(result.CallID)
		}
		return
	}

	if err != nil {
		s.failLocked(err)
		s.mu.Unlock()
		s.notify()
		return
	}

	s.callID = result.CallID
	s.mu.Unlock()
	s.notify()
}

// Accept answers an incoming call
func (s *Store) Accept() {
	s.mu.Lock()
	if s.state != StateIncoming {
		s.mu.Unlock()
		return
	}

	s.callID = s.incomingCallID
	s.incomingCallID = ""
	s.transitionLocked(StateActive)
	s.mu.Unlock()
	s.notify()
}

// Reject declines an incoming call with a best-effort hangup
func (s *Store) Reject() {
	s.mu.Lock()
	if s.state != StateIncoming {
		s.mu.Unlock()
		return
	}

	callID := s.incomingCallID
	s.incomingCallID = ""
	s.transitionLocked(StateEnded)
	s.mu.Unlock()
	s.notify()

	if callID != "" {
		go s.bestEffortHangup(callID)
	}
}

// End hangs up the current call. From connecting the session ends
// immediately and the hangup is fired best-effort once a callId exists; the
// UI never waits on the gateway. An explicit end while the event channel is
// down is recorded as a failure, since the true call outcome is unknown.
func (s *Store) End() {
	s.mu.Lock()
	switch s.state {
	case StateIncoming:
		s.mu.Unlock()
		s.Reject()
		return
	case StateConnecting, StateActive:
	default:
		s.mu.Unlock()
		return
	}

	if s.transport != nil && s.transport.Status() != socket.StatusConnected {
		s.failLocked(&consolesdk.ConnectivityError{
			Operation: "end",
			Err:       errors.New("connection to the call server was lost"),
		})
		s.mu.Unlock()
		s.notify()
		return
	}

	callID := s.callID
	if callID == "" && s.initiateInFlight {
		s.hangupOnAssign = true
	}
	s.transitionLocked(StateEnded)
	s.mu.Unlock()
	s.notify()

	if callID != "" {
		go s.bestEffortHangup(callID)
	}
}

// ToggleMute flips the mute flag. Valid only while active; otherwise it is
// ignored, since the UI disables the control anyway.
func (s *Store) ToggleMute() {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return
	}
	s.muted = !s.muted
	s.mu.Unlock()
	s.notify()
}

// Merge conferences a third party into the active call. It does not change
// session state; the gateway's passthrough response only signals acceptance.
func (s *Store) Merge(partyNumber string) error {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return &consolesdk.ValidationError{Field: "state", Message: "merge requires an active call"}
	}
	callID := s.callID
	s.mu.Unlock()

	return s.gw.Merge(callID, partyNumber)
}

// Clear explicitly resets a terminal session back to idle, clearing the
// dialed number, callId, and error
func (s *Store) Clear() {
	s.mu.Lock()
	if !s.state.IsTerminal() {
		s.mu.Unlock()
		return
	}
	s.transitionLocked(StateIdle)
	s.mu.Unlock()
	s.notify()
}

// ---- Event reconciliation ----

// handleCallEvent reconciles a server-pushed call event into the session.
// Server events are authoritative, but an event for a different callId than
// the current session's is stale and must not alter anything.
func (s *Store) handleCallEvent(ev *socket.Event) {
	s.mu.Lock()

	if ev.Name == socket.EventCallIncoming {
		if s.state != StateIdle {
			// Busy; the backend routes the call elsewhere
			s.mu.Unlock()
			return
		}
		s.attempt++
		s.incomingCallID = ev.CallID
		if caller, ok := ev.Data["callerNumber"].(string); ok {
			s.dialedNumber = caller
		}
		s.transitionLocked(StateIncoming)
		s.mu.Unlock()
		s.notify()
		return
	}

	if ev.CallID == "" || ev.CallID != s.callID {
		s.mu.Unlock()
		metrics.StaleEventsTotal.Inc()
		s.logger.Printf("callsession: discarding stale %s event for call %q", ev.Name, ev.CallID)
		return
	}

	changed := s.applyServerStatusLocked(ev.Name, ev.Status, ev.Reason)
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// applyServerStatusLocked maps a server event onto a transition. Caller
// must hold s.mu and have already matched the callId.
func (s *Store) applyServerStatusLocked(name, status, reason string) bool {
	switch name {
	case socket.EventCallInitiated:
		// Confirmation of our optimistic connecting state; nothing to apply
		return false
	case socket.EventCallConnected:
		return s.transitionLocked(StateActive)
	case socket.EventCallEnded:
		// Remote party hung up; no redundant gateway call
		return s.transitionLocked(StateEnded)
	case socket.EventCallStatusUpdate:
		switch status {
		case "connected", "active":
			return s.transitionLocked(StateActive)
		case "ended", "disconnected":
			return s.transitionLocked(StateEnded)
		case "failed":
			s.failLocked(&consolesdk.GatewayError{Message: reason})
			return true
		}
	}
	return false
}

// handleReconnected resolves any events missed during a connection outage.
// If a call is in flight, the gateway's status endpoint is polled rather
// than trusting stale local state indefinitely.
func (s *Store) handleReconnected(*socket.Event) {
	s.mu.Lock()
	if (s.state != StateConnecting && s.state != StateActive) || s.callID == "" {
		s.mu.Unlock()
		return
	}
	attempt := s.attempt
	callID := s.callID
	s.mu.Unlock()

	// Poll off the dispatch goroutine so a slow status request never stalls
	// event delivery
	go s.reconcile(attempt, callID)
}

// reconcile applies the gateway's authoritative call status for one attempt
// generation
func (s *Store) reconcile(attempt uint64, callID string) {
	status, err := s.gw.Status(callID)
	if err != nil {
		s.logger.Printf("callsession: reconcile poll for call %s failed: %v", callID, err)
		return
	}

	s.mu.Lock()
	if s.attempt != attempt || s.callID != callID {
		s.mu.Unlock()
		return
	}

	changed := false
	switch status.Status {
	case "connected", "active":
		changed = s.transitionLocked(StateActive)
	case "ended", "disconnected", "completed":
		changed = s.transitionLocked(StateEnded)
	case "failed":
		s.failLocked(&consolesdk.GatewayError{Message: status.Reason})
		changed = true
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// ---- State machine internals ----

// transitionLocked applies a transition and every side effect enumerated
// for it. All mutation of the session funnels through here (the duration
// increment in the ticker is the one exception, and the ticker itself is
// started and stopped here). Caller must hold s.mu.
func (s *Store) transitionLocked(to State) bool {
	from := s.state
	if from == to {
		return false
	}
	if !from.CanTransitionTo(to) {
		s.logger.Printf("callsession: rejected invalid transition %s -> %s", from, to)
		return false
	}

	s.state = to

	// Leaving-state effects
	if from == StateActive {
		s.muted = false
		s.stopTickerLocked()
		metrics.ActiveCall.Set(0)
		metrics.CallDurationSeconds.Observe(float64(s.duration))
	}
	if from == StateFailed {
		s.lastError = ""
	}
	if from.IsTerminal() && s.cancelReset != nil {
		s.cancelReset()
		s.cancelReset = nil
	}

	// Entering-state effects
	switch to {
	case StateConnecting, StateIncoming:
		s.duration = 0
	case StateActive:
		metrics.ActiveCall.Set(1)
		s.startTickerLocked()
	case StateEnded, StateFailed:
		s.callID = ""
		s.hangupOnAssign = s.hangupOnAssign && s.initiateInFlight
		s.scheduleAutoResetLocked()
	case StateIdle:
		s.dialedNumber = ""
		s.callID = ""
		s.incomingCallID = ""
		s.lastError = ""
	}

	return true
}

// failLocked records an error and transitions to failed. Caller must hold
// s.mu and be in a state that can fail.
func (s *Store) failLocked(err error) {
	metrics.CallsFailedTotal.WithLabelValues(errorKind(err)).Inc()
	if s.transitionLocked(StateFailed) {
		s.lastError = consolesdk.UserMessage(err)
	}
}

// scheduleAutoResetLocked arms the terminal-state auto-reset so the user is
// never stuck on ended/failed. Caller must hold s.mu.
func (s *Store) scheduleAutoResetLocked() {
	if s.cancelReset != nil {
		s.cancelReset()
	}

	s.cancelReset = s.config.afterFunc(s.config.AutoResetDelay, func() {
		s.mu.Lock()
		if !s.state.IsTerminal() {
			s.mu.Unlock()
			return
		}
		s.cancelReset = nil
		s.transitionLocked(StateIdle)
		s.mu.Unlock()
		s.notify()
	})
}

// bestEffortHangup fires a hangup without blocking the session on the
// result. A gateway refusal means the call was already gone, which is the
// outcome we wanted.
func (s *Store) bestEffortHangup(callID string) {
	if _, err := s.gw.Hangup(callID); err != nil {
		if consolesdk.IsGateway(err) {
			return
		}
		s.logger.Printf("callsession: best-effort hangup of %s failed: %v", callID, err)
	}
}

// notify delivers a fresh snapshot to every subscriber. Must be called
// without holding s.mu.
func (s *Store) notify() {
	snap := s.Snapshot()

	s.mu.Lock()
	subs := make([]Subscriber, 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// errorKind maps an error to its metrics label
func errorKind(err error) string {
	switch {
	case consolesdk.IsValidation(err):
		return "validation"
	case consolesdk.IsTimeout(err):
		return "timeout"
	case consolesdk.IsConnectivity(err):
		return "connectivity"
	case consolesdk.IsGateway(err):
		return "gateway"
	default:
		return "other"
	}
}
