/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Shikhar Lohiya
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

// Package socket maintains the long-lived websocket connection to the
// console backend's event stream. It exposes a typed event subscription
// registry, fire-and-forget emission, and automatic reconnection with
// exponential backoff. After a successful reconnect it fires a synthetic
// "reconnected" event so dependent components can re-synchronize.
package socket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shikharlohiya/agentconsole-sdk/consolesdk"
	"github.com/shikharlohiya/agentconsole-sdk/metrics"
)

// Status is the connection status of the event channel. It is independent of
// call state: losing the connection mid-call does not end the call.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
)

// Event names pushed by the backend, plus the synthetic reconnected event
// fired locally after a successful reconnection.
const (
	EventCallStatusUpdate = "callStatusUpdate"
	EventCallInitiated    = "call:initiated"
	EventCallConnected    = "call:connected"
	EventCallEnded        = "call:ended"
	EventCallIncoming     = "call:incoming"
	EventReconnected      = "reconnected"
)

// Config holds the configuration for the socket client
type Config struct {
	URL                         string        // Websocket URL of the backend event stream
	HandshakeTimeout            time.Duration // Timeout for the websocket handshake
	PingInterval                time.Duration // Interval between ping messages
	PongTimeout                 time.Duration // Timeout for receiving a pong response
	BackoffTimeMax              time.Duration // Maximum time between connection attempts
	BackoffTimeReset            time.Duration // Initial time before the first retry
	MaxRetries                  int           // Number of times to retry before giving up
	InitialConnectionMaxRetries int           // Number of times to retry the initial connection
}

// DefaultConfig returns the default configuration for the socket client
func DefaultConfig() *Config {
	return &Config{
		HandshakeTimeout:            10 * time.Second,
		PingInterval:                30 * time.Second,
		PongTimeout:                 10 * time.Second,
		BackoffTimeMax:              32 * time.Second,
		BackoffTimeReset:            1 * time.Second,
		MaxRetries:                  3,
		InitialConnectionMaxRetries: 5,
	}
}

// EventHandler is a function that handles a socket event
type EventHandler func(event *Event)

// StatusHandler is a function notified on every connection status change
type StatusHandler func(status Status)

// Event represents an event received from the backend event stream.
// Every call event carries the callId it belongs to; consumers must discard
// events whose callId does not match their current session.
type Event struct {
	Name      string                 `json:"event"`
	CallID    string                 `json:"callId,omitempty"`
	Status    string                 `json:"status,omitempty"`
	Timestamp int64                  `json:"timestamp,omitempty"`
	Duration  int                    `json:"duration,omitempty"`
	Reason    string                 `json:"reason,omitempty"`
	Data      map[string]interface{} `json:"-"`
}

// wireFrame is the raw JSON shape of a frame on the wire.
type wireFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client is the socket client for the backend event stream
type Client struct {
	core   *consolesdk.Client
	config *Config

	mu             sync.Mutex
	writeMu        sync.Mutex
	conn           *websocket.Conn
	status         Status
	lastError      string
	connecting     bool
	hasConnected   bool
	eventHandlers  map[string][]EventHandler
	statusHandlers []StatusHandler
	closeCh        chan struct{}
	retryCount     int
	currentBackoff time.Duration
}

// New creates a new socket client
func New(core *consolesdk.Client, config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	return &Client{
		core:           core,
		config:         config,
		status:         StatusDisconnected,
		eventHandlers:  make(map[string][]EventHandler),
		closeCh:        make(chan struct{}),
		currentBackoff: config.BackoffTimeReset,
	}
}

// SetURL sets the websocket URL for the event stream
func (c *Client) SetURL(url string) {
	c.mu.Lock()
	c.config.URL = url
	c.mu.Unlock()
}

// Connect establishes the websocket connection. It is idempotent: calling
// while already connected or connecting is a no-op.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.status == StatusConnected || c.connecting {
		c.mu.Unlock()
		return nil
	}

	url := c.config.URL
	if url == "" {
		c.mu.Unlock()
		return fmt.Errorf("no websocket URL configured")
	}

	c.connecting = true
	c.mu.Unlock()

	c.setStatus(StatusConnecting, "")
	return c.connectWithBackoff(url)
}

// Disconnect closes the websocket connection
func (c *Client) Disconnect() error {
	c.mu.Lock()
	if c.status == StatusDisconnected && !c.connecting {
		c.mu.Unlock()
		return nil
	}

	// Signal all goroutines to stop
	close(c.closeCh)

	// Create a new channel for future connections
	c.closeCh = make(chan struct{})

	conn := c.conn
	c.conn = nil
	c.connecting = false
	c.mu.Unlock()

	if conn != nil {
		// Send close message and close the connection
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Disconnected by client"))
		_ = conn.Close()
	}

	c.setStatus(StatusDisconnected, "")
	return nil
}

// Status returns the current connection status
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// IsConnected returns whether the client is connected to the event stream
func (c *Client) IsConnected() bool {
	return c.Status() == StatusConnected
}

// LastError returns the message of the last connection error, if any
func (c *Client) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// On registers an event handler for a specific event name. Multiple handlers
// per event are allowed; they are invoked in registration order.
func (c *Client) On(event string, handler EventHandler) {
	if handler == nil {
		return
	}

	c.mu.Lock()
	c.eventHandlers[event] = append(c.eventHandlers[event], handler)
	c.mu.Unlock()
}

// Off removes an event handler for a specific event name
func (c *Client) Off(event string, handler EventHandler) {
	if handler == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	handlers, ok := c.eventHandlers[event]
	if !ok {
		return
	}

	// Find the handler by comparing function pointers
	handlerPtr := fmt.Sprintf("%p", handler)
	for i, h := range handlers {
		if fmt.Sprintf("%p", h) == handlerPtr {
			// Remove handler preserving order
			c.eventHandlers[event] = append(handlers[:i], handlers[i+1:]...)
			break
		}
	}

	if len(c.eventHandlers[event]) == 0 {
		delete(c.eventHandlers, event)
	}
}

// OnStatusChange registers a handler notified on every status change
func (c *Client) OnStatusChange(handler StatusHandler) {
	if handler == nil {
		return
	}

	c.mu.Lock()
	c.statusHandlers = append(c.statusHandlers, handler)
	c.mu.Unlock()
}

// Emit sends an event to the backend. It is fire-and-forget: if the socket
// is not connected the event is dropped and logged as a warning. Emit never
// fails the caller.
func (c *Client) Emit(event string, payload interface{}) {
	c.mu.Lock()
	conn := c.conn
	connected := c.status == StatusConnected
	c.mu.Unlock()

	if !connected || conn == nil {
		c.core.GetLogger().Printf("socket: dropping emit of %q, not connected", event)
		metrics.SocketDroppedEmitsTotal.Inc()
		return
	}

	frame := map[string]interface{}{
		"event": event,
		"data":  payload,
	}
	msg, err := json.Marshal(frame)
	if err != nil {
		c.core.GetLogger().Printf("socket: failed to marshal emit of %q: %v", event, err)
		return
	}

	c.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, msg)
	c.writeMu.Unlock()
	if err != nil {
		c.core.GetLogger().Printf("socket: failed to emit %q: %v", event, err)
	}
}

// connectWithBackoff attempts to connect with exponential backoff
func (c *Client) connectWithBackoff(url string) error {
	// Reset retry state on new connection attempt
	c.mu.Lock()
	c.retryCount = 0
	c.currentBackoff = c.config.BackoffTimeReset
	maxRetries := c.config.MaxRetries
	if !c.hasConnected {
		maxRetries = c.config.InitialConnectionMaxRetries
	}
	c.mu.Unlock()

	var err error
	for c.retryCount <= maxRetries {
		err = c.attemptConnection(url)
		if err == nil {
			return nil
		}

		c.retryCount++
		if c.retryCount > maxRetries {
			break
		}

		// Wait for backoff time or until the client is closed
		select {
		case <-time.After(c.currentBackoff):
			c.currentBackoff *= 2
			if c.currentBackoff > c.config.BackoffTimeMax {
				c.currentBackoff = c.config.BackoffTimeMax
			}
		case <-c.closeCh:
			return nil // Stopped by user
		}
	}

	c.mu.Lock()
	c.connecting = false
	c.mu.Unlock()
	c.setStatus(StatusDisconnected, err.Error())
	return fmt.Errorf("failed to connect after %d attempts: %v", c.retryCount, err)
}

// attemptConnection makes a single connection attempt
func (c *Client) attemptConnection(url string) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.HandshakeTimeout,
	}

	headers := make(map[string][]string)
	for k, v := range c.core.Config.DefaultHeaders {
		headers[k] = []string{v}
	}

	conn, _, err := dialer.Dial(url, headers)
	if err != nil {
		return fmt.Errorf("failed to connect to websocket: %v", err)
	}

	conn.SetPongHandler(func(string) error {
		return c.handlePong()
	})

	c.mu.Lock()
	c.conn = conn
	c.connecting = false
	wasReconnect := c.hasConnected
	c.hasConnected = true
	c.mu.Unlock()

	c.setStatus(StatusConnected, "")

	// Start ping cycle and message listener. Both own the conn they were
	// started for; they never re-read the mutable field, which Disconnect
	// and reconnect overwrite concurrently.
	done := make(chan struct{})
	go c.startPingPong(conn, done)
	go c.listen(conn, done)

	// Fire the synthetic reconnected event so dependents re-synchronize.
	// Only after a drop, not on the first connection.
	if wasReconnect {
		metrics.SocketReconnectsTotal.Inc()
		c.dispatch(&Event{Name: EventReconnected, Timestamp: time.Now().UnixMilli()})
	}

	return nil
}

// listen reads messages from the given connection until it drops
func (c *Client) listen(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			c.handleConnectionError(conn, err)
			return
		}

		event, err := decodeFrame(message)
		if err != nil {
			c.core.GetLogger().Printf("socket: discarding malformed frame: %v", err)
			continue
		}

		metrics.SocketEventsTotal.WithLabelValues(event.Name).Inc()
		c.dispatch(event)
	}
}

// decodeFrame parses a wire frame into an Event
func decodeFrame(message []byte) (*Event, error) {
	var frame wireFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		return nil, err
	}
	if frame.Event == "" {
		return nil, fmt.Errorf("frame has no event name")
	}

	event := &Event{Name: frame.Event}
	if len(frame.Data) > 0 {
		if err := json.Unmarshal(frame.Data, event); err != nil {
			return nil, err
		}
		// Keep the full payload for operation-specific fields
		_ = json.Unmarshal(frame.Data, &event.Data)
	}
	// The payload never carries the event name; restore it after unmarshaling
	event.Name = frame.Event

	return event, nil
}

// dispatch invokes the handlers for an event, then any wildcard handlers.
// Handlers run sequentially in registration order on the listener goroutine,
// so state mutations triggered by events are serialized.
func (c *Client) dispatch(event *Event) {
	c.mu.Lock()
	handlers := make([]EventHandler, len(c.eventHandlers[event.Name]))
	copy(handlers, c.eventHandlers[event.Name])
	wildcard := make([]EventHandler, len(c.eventHandlers["*"]))
	copy(wildcard, c.eventHandlers["*"])
	c.mu.Unlock()

	for _, handler := range handlers {
		handler(event)
	}
	for _, handler := range wildcard {
		handler(event)
	}
}

// handleConnectionError records the drop and triggers reconnection. A
// deliberate Disconnect (or a connection already superseded by reconnect)
// clears or replaces c.conn first, so an error from a conn that is no longer
// current must not re-dial.
func (c *Client) handleConnectionError(conn *websocket.Conn, err error) {
	c.mu.Lock()
	current := c.conn == conn
	wasConnected := c.status == StatusConnected
	c.mu.Unlock()

	if !current || !wasConnected {
		return
	}

	c.setStatus(StatusDisconnected, err.Error())
	go c.reconnect()
}

// reconnect attempts to re-establish a dropped connection
func (c *Client) reconnect() {
	c.mu.Lock()
	if c.connecting {
		c.mu.Unlock()
		return
	}
	c.connecting = true
	conn := c.conn
	c.conn = nil
	url := c.config.URL
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}

	c.setStatus(StatusConnecting, "")
	if err := c.connectWithBackoff(url); err != nil {
		c.core.GetLogger().Printf("socket: reconnect failed: %v", err)
	}
}

// startPingPong keeps the given connection alive with periodic pings. It
// exits when the listener for the same connection closes done.
func (c *Client) startPingPong(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.ping(conn); err != nil {
				c.core.GetLogger().Printf("socket: ping failed: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}

// ping sends a ping message and arms the pong deadline
func (c *Client) ping(conn *websocket.Conn) error {
	if err := conn.SetReadDeadline(time.Now().Add(c.config.PongTimeout)); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.PingMessage, []byte(fmt.Sprintf("%d", time.Now().UnixMilli())))
}

// handlePong clears the pong deadline
func (c *Client) handlePong() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.SetReadDeadline(time.Time{})
}

// setStatus updates the connection status and notifies status handlers
func (c *Client) setStatus(status Status, errMsg string) {
	c.mu.Lock()
	if c.status == status && c.lastError == errMsg {
		c.mu.Unlock()
		return
	}
	c.status = status
	c.lastError = errMsg
	handlers := make([]StatusHandler, len(c.statusHandlers))
	copy(handlers, c.statusHandlers)
	c.mu.Unlock()

	for _, handler := range handlers {
		handler(status)
	}
}
