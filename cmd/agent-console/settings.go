/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Shikhar Lohiya
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

package main

import (
	"fmt"
	"time"

	ini "gopkg.in/ini.v1"
)

// Settings holds application configuration loaded from settings.ini.
type Settings struct {
	baseURL        string
	websocketURL   string
	requestTimeout int
	statusTimeout  int

	agentID string
	cli     string

	autoResetDelay int

	metricsAddress string
}

// LoadSettings reads configuration from ini file and validates required fields.
func LoadSettings(cfg *ini.File) (*Settings, error) {
	s := &Settings{}

	sec := cfg.Section("backend")
	s.baseURL = sec.Key("base_url").MustString("http://localhost:8080/api")
	s.websocketURL = sec.Key("websocket_url").String()
	s.requestTimeout = sec.Key("request_timeout").MustInt(15)
	s.statusTimeout = sec.Key("status_timeout").MustInt(10)

	sec = cfg.Section("agent")
	s.agentID = sec.Key("id").String()
	s.cli = sec.Key("cli").String()

	sec = cfg.Section("console")
	s.autoResetDelay = sec.Key("auto_reset_delay").MustInt(5)

	sec = cfg.Section("metrics")
	s.metricsAddress = sec.Key("listen_address").String()

	if s.websocketURL == "" {
		return nil, fmt.Errorf("backend websocket_url must be set")
	}
	if s.agentID == "" {
		return nil, fmt.Errorf("agent id must be set")
	}
	if s.cli == "" {
		return nil, fmt.Errorf("agent cli must be set")
	}

	return s, nil
}

func (s *Settings) BaseURL() string      { return s.baseURL }
func (s *Settings) WebsocketURL() string { return s.websocketURL }

func (s *Settings) AgentID() string { return s.agentID }
func (s *Settings) CLI() string     { return s.cli }

func (s *Settings) MetricsAddress() string { return s.metricsAddress }

func (s *Settings) RequestTimeout() time.Duration {
	return time.Duration(s.requestTimeout) * time.Second
}

func (s *Settings) StatusTimeout() time.Duration {
	return time.Duration(s.statusTimeout) * time.Second
}

func (s *Settings) AutoResetDelay() time.Duration {
	return time.Duration(s.autoResetDelay) * time.Second
}
