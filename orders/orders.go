/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Shikhar Lohiya
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

// Package orders is the client for the console backend's order records. The
// console shows a customer's orders alongside the call so the agent can act
// on them without leaving the screen.
package orders

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shikharlohiya/agentconsole-sdk/consolesdk"
)

// Order represents a customer order
type Order struct {
	ID            string     `json:"id,omitempty"`
	CustomerPhone string     `json:"customerPhone,omitempty"`
	Description   string     `json:"description,omitempty"`
	Amount        float64    `json:"amount,omitempty"`
	Status        string     `json:"status,omitempty"`
	Created       *time.Time `json:"created,omitempty"`
	Updated       *time.Time `json:"updated,omitempty"`
}

// ListOptions contains the options for listing a customer's orders
type ListOptions struct {
	CustomerPhone string
	Status        string
	Limit         int
}

// Config holds the configuration for the Orders plugin
type Config struct{}

// DefaultConfig returns the default configuration for the Orders plugin
func DefaultConfig() *Config {
	return &Config{}
}

// Client is the orders API client
type Client struct {
	core   *consolesdk.Client
	config *Config
}

// New creates a new Orders plugin
func New(core *consolesdk.Client, config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	return &Client{
		core:   core,
		config: config,
	}
}

// List returns a customer's orders
func (c *Client) List(options *ListOptions) ([]Order, error) {
	if options == nil || options.CustomerPhone == "" {
		return nil, fmt.Errorf("customerPhone is required")
	}

	params := url.Values{}
	params.Set("customerPhone", options.CustomerPhone)
	if options.Status != "" {
		params.Set("status", options.Status)
	}
	if options.Limit > 0 {
		params.Set("limit", strconv.Itoa(options.Limit))
	}

	resp, err := c.core.Request(http.MethodGet, "orders", params, nil)
	if err != nil {
		return nil, err
	}

	env, err := consolesdk.ParseEnvelope(resp)
	if err != nil {
		return nil, err
	}

	var data struct {
		Orders []Order `json:"orders"`
	}
	if err := env.DecodeData(&data); err != nil {
		return nil, fmt.Errorf("error parsing orders response: %w", err)
	}

	return data.Orders, nil
}

// Get returns a single order by ID
func (c *Client) Get(orderID string) (*Order, error) {
	if orderID == "" {
		return nil, fmt.Errorf("orderID is required")
	}

	path := fmt.Sprintf("orders/%s", orderID)
	resp, err := c.core.Request(http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	env, err := consolesdk.ParseEnvelope(resp)
	if err != nil {
		return nil, err
	}

	var order Order
	if err := env.DecodeData(&order); err != nil {
		return nil, fmt.Errorf("error parsing order response: %w", err)
	}

	return &order, nil
}

// Create creates a new order for a customer
func (c *Client) Create(order *Order) (*Order, error) {
	if order == nil || order.CustomerPhone == "" {
		return nil, fmt.Errorf("customerPhone is required")
	}

	resp, err := c.core.Request(http.MethodPost, "orders", nil, order)
	if err != nil {
		return nil, err
	}

	env, err := consolesdk.ParseEnvelope(resp)
	if err != nil {
		return nil, err
	}

	var result Order
	if err := env.DecodeData(&result); err != nil {
		return nil, fmt.Errorf("error parsing order response: %w", err)
	}

	return &result, nil
}

// UpdateStatus updates the status of an existing order
func (c *Client) UpdateStatus(orderID, status string) (*Order, error) {
	if orderID == "" {
		return nil, fmt.Errorf("orderID is required")
	}
	if status == "" {
		return nil, fmt.Errorf("status is required")
	}

	path := fmt.Sprintf("orders/%s/status", orderID)
	payload := struct {
		Status string `json:"status"`
	}{Status: status}

	resp, err := c.core.Request(http.MethodPut, path, nil, payload)
	if err != nil {
		return nil, err
	}

	env, err := consolesdk.ParseEnvelope(resp)
	if err != nil {
		return nil, err
	}

	var result Order
	if err := env.DecodeData(&result); err != nil {
		return nil, fmt.Errorf("error parsing order response: %w", err)
	}

	return &result, nil
}
