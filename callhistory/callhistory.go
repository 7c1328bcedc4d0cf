/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Shikhar Lohiya
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

// Package callhistory retrieves the agent's recent call records for the
// console's history panel.
package callhistory

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shikharlohiya/agentconsole-sdk/consolesdk"
)

// Sort is the sort order for call history queries
type Sort string

const (
	SortAsc  Sort = "ASC"
	SortDesc Sort = "DESC"
)

// SortBy is the field call history records are sorted by
type SortBy string

const (
	SortByStartTime SortBy = "startTime"
	SortByEndTime   SortBy = "endTime"
)

// Record represents a single call history record
type Record struct {
	CallID          string     `json:"callId,omitempty"`
	PhoneNumber     string     `json:"phoneNumber,omitempty"`
	Direction       string     `json:"direction,omitempty"`
	Disposition     string     `json:"disposition,omitempty"`
	AgentID         string     `json:"agentId,omitempty"`
	StartTime       *time.Time `json:"startTime,omitempty"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	DurationSeconds int        `json:"durationSeconds,omitempty"`
	Missed          bool       `json:"missed,omitempty"`
	Read            bool       `json:"read,omitempty"`
}

// ListOptions contains the options for listing call history
type ListOptions struct {
	Days   int
	Limit  int
	Sort   Sort
	SortBy SortBy
}

// Config holds the configuration for the CallHistory plugin
type Config struct{}

// DefaultConfig returns the default configuration for the CallHistory plugin
func DefaultConfig() *Config {
	return &Config{}
}

// Client is the call history API client
type Client struct {
	core   *consolesdk.Client
	config *Config
}

// New creates a new CallHistory plugin
func New(core *consolesdk.Client, config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	return &Client{
		core:   core,
		config: config,
	}
}

// List returns the agent's recent call records
func (c *Client) List(options *ListOptions) ([]Record, error) {
	if options == nil {
		options = &ListOptions{}
	}

	params := url.Values{}
	if options.Days > 0 {
		params.Set("days", strconv.Itoa(options.Days))
	}
	if options.Limit > 0 {
		params.Set("limit", strconv.Itoa(options.Limit))
	}
	if options.Sort != "" {
		params.Set("sort", string(options.Sort))
	}
	if options.SortBy != "" {
		params.Set("sortBy", string(options.SortBy))
	}

	resp, err := c.core.Request(http.MethodGet, "call-history", params, nil)
	if err != nil {
		return nil, err
	}

	env, err := consolesdk.ParseEnvelope(resp)
	if err != nil {
		return nil, err
	}

	var data struct {
		Records []Record `json:"records"`
	}
	if err := env.DecodeData(&data); err != nil {
		return nil, fmt.Errorf("error parsing call history response: %w", err)
	}

	return data.Records, nil
}

// MarkMissedRead marks the given missed call records as read
func (c *Client) MarkMissedRead(callIDs []string) error {
	if len(callIDs) == 0 {
		return fmt.Errorf("at least one callId is required")
	}

	payload := struct {
		CallIDs []string `json:"callIds"`
	}{CallIDs: callIDs}

	resp, err := c.core.Request(http.MethodPut, "call-history/missed-calls", nil, payload)
	if err != nil {
		return err
	}

	_, err = consolesdk.ParseEnvelope(resp)
	return err
}
