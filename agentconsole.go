/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Shikhar Lohiya
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

// Package agentconsole is the top-level client for the call-center agent
// console backend. It bundles the telephony gateway client, the real-time
// event channel, the call session store, and the console's CRUD surfaces
// (orders, feedback, call history) behind lazily-initialized plugin getters.
package agentconsole

import (
	"fmt"
	"sync"

	"github.com/shikharlohiya/agentconsole-sdk/callhistory"
	"github.com/shikharlohiya/agentconsole-sdk/callsession"
	"github.com/shikharlohiya/agentconsole-sdk/consolesdk"
	"github.com/shikharlohiya/agentconsole-sdk/feedback"
	"github.com/shikharlohiya/agentconsole-sdk/gateway"
	"github.com/shikharlohiya/agentconsole-sdk/orders"
	"github.com/shikharlohiya/agentconsole-sdk/socket"
)

// ConsoleClient is the top-level client for the agent console backend
type ConsoleClient struct {
	// Core client for the console backend
	core *consolesdk.Client

	// Plugin configuration applied on first use
	gatewayConfig *gateway.Config
	socketConfig  *socket.Config
	sessionConfig *callsession.Config

	// Plugins
	gatewayClient     *gateway.Client
	callHistoryClient *callhistory.Client
	ordersClient      *orders.Client
	feedbackClient    *feedback.Client

	// Internal plugins
	socketClient *socket.Client

	// Mutex for thread-safe lazy initialization of the call session
	sessionMu    sync.Mutex
	sessionStore *callsession.Store
}

// NewClient creates a new console client with the given configuration
func NewClient(config *consolesdk.Config) (*ConsoleClient, error) {
	core, err := consolesdk.NewClient(config)
	if err != nil {
		return nil, err
	}

	client := &ConsoleClient{
		core: core,
	}

	return client, nil
}

// SetGatewayConfig sets the gateway configuration (CLI, agent ID, timeouts).
// It must be called before the Gateway plugin is first used.
func (c *ConsoleClient) SetGatewayConfig(config *gateway.Config) {
	c.gatewayConfig = config
}

// SetSocketConfig sets the event channel configuration (URL, keepalive,
// backoff). It must be called before the Socket plugin is first used.
func (c *ConsoleClient) SetSocketConfig(config *socket.Config) {
	c.socketConfig = config
}

// SetSessionConfig sets the call session configuration (auto-reset delay,
// tick interval). It must be called before CallSession is first used.
func (c *ConsoleClient) SetSessionConfig(config *callsession.Config) {
	c.sessionConfig = config
}

// Gateway returns the telephony gateway plugin
func (c *ConsoleClient) Gateway() *gateway.Client {
	if c.gatewayClient == nil {
		c.gatewayClient = gateway.New(c.core, c.gatewayConfig)
	}
	return c.gatewayClient
}

// CallHistory returns the CallHistory plugin
func (c *ConsoleClient) CallHistory() *callhistory.Client {
	if c.callHistoryClient == nil {
		c.callHistoryClient = callhistory.New(c.core, nil)
	}
	return c.callHistoryClient
}

// Orders returns the Orders plugin
func (c *ConsoleClient) Orders() *orders.Client {
	if c.ordersClient == nil {
		c.ordersClient = orders.New(c.core, nil)
	}
	return c.ordersClient
}

// Feedback returns the Feedback plugin
func (c *ConsoleClient) Feedback() *feedback.Client {
	if c.feedbackClient == nil {
		c.feedbackClient = feedback.New(c.core, nil)
	}
	return c.feedbackClient
}

// Socket returns the event channel plugin (internal)
func (c *ConsoleClient) Socket() *socket.Client {
	if c.socketClient == nil {
		c.socketClient = socket.New(c.core, c.socketConfig)
	}
	return c.socketClient
}

// CallSession returns a fully-wired call session store.
//
// This is a convenience method that abstracts away the manual setup of the
// event channel, the gateway client, and the store's event subscriptions.
// The store is lazily initialized on first call and cached for subsequent
// calls; the event channel is connected as part of initialization.
//
// Simple usage:
//
//	session, err := client.CallSession()
//	session.Subscribe(render)
//	session.Initiate("9876543210")
//
// For advanced control over the socket, gateway, or store configuration,
// use the lower-level APIs directly (socket.New, gateway.New,
// callsession.New).
func (c *ConsoleClient) CallSession() (*callsession.Store, error) {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	if c.sessionStore != nil {
		return c.sessionStore, nil
	}

	sock := c.Socket()
	if err := sock.Connect(); err != nil {
		return nil, fmt.Errorf("event channel connection failed: %w", err)
	}

	c.sessionStore = callsession.New(c.Gateway(), sock, c.core.GetLogger(), c.sessionConfig)
	return c.sessionStore, nil
}

// Core returns the core console client
func (c *ConsoleClient) Core() *consolesdk.Client {
	return c.core
}
