/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Shikhar Lohiya
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

// Package feedback submits the console's feedback and complaint forms.
package feedback

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shikharlohiya/agentconsole-sdk/consolesdk"
)

// Feedback represents a feedback or complaint record captured during a call
type Feedback struct {
	ID            string     `json:"id,omitempty"`
	CallID        string     `json:"callId,omitempty"`
	CustomerPhone string     `json:"customerPhone,omitempty"`
	Category      string     `json:"category,omitempty"`
	Rating        int        `json:"rating,omitempty"`
	Comments      string     `json:"comments,omitempty"`
	AgentID       string     `json:"agentId,omitempty"`
	Created       *time.Time `json:"created,omitempty"`
}

// Config holds the configuration for the Feedback plugin
type Config struct{}

// DefaultConfig returns the default configuration for the Feedback plugin
func DefaultConfig() *Config {
	return &Config{}
}

// Client is the feedback API client
type Client struct {
	core   *consolesdk.Client
	config *Config
}

// New creates a new Feedback plugin
func New(core *consolesdk.Client, config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	return &Client{
		core:   core,
		config: config,
	}
}

// Submit records a feedback or complaint form
func (c *Client) Submit(fb *Feedback) (*Feedback, error) {
	if fb == nil || fb.CustomerPhone == "" {
		return nil, fmt.Errorf("customerPhone is required")
	}
	if fb.Category == "" {
		return nil, fmt.Errorf("category is required")
	}

	resp, err := c.core.Request(http.MethodPost, "feedback", nil, fb)
	if err != nil {
		return nil, err
	}

	env, err := consolesdk.ParseEnvelope(resp)
	if err != nil {
		return nil, err
	}

	var result Feedback
	if err := env.DecodeData(&result); err != nil {
		return nil, fmt.Errorf("error parsing feedback response: %w", err)
	}

	return &result, nil
}

// ListByCustomer returns a customer's previous feedback records
func (c *Client) ListByCustomer(customerPhone string) ([]Feedback, error) {
	if customerPhone == "" {
		return nil, fmt.Errorf("customerPhone is required")
	}

	params := url.Values{}
	params.Set("customerPhone", customerPhone)

	resp, err := c.core.Request(http.MethodGet, "feedback", params, nil)
	if err != nil {
		return nil, err
	}

	env, err := consolesdk.ParseEnvelope(resp)
	if err != nil {
		return nil, err
	}

	var data struct {
		Feedback []Feedback `json:"feedback"`
	}
	if err := env.DecodeData(&data); err != nil {
		return nil, fmt.Errorf("error parsing feedback response: %w", err)
	}

	return data.Feedback, nil
}
