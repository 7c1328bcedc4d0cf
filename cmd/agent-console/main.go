/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Shikhar Lohiya
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

// Command agent-console is a reference terminal client for the agent console
// backend. It wires the SDK end to end: settings from settings.ini, logrus
// logging with rotation, Prometheus metrics, the websocket event channel,
// and a dial/answer/hangup command loop driven by the call session store.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/ini.v1"

	"github.com/shikharlohiya/agentconsole-sdk"
	"github.com/shikharlohiya/agentconsole-sdk/callhistory"
	"github.com/shikharlohiya/agentconsole-sdk/callsession"
	"github.com/shikharlohiya/agentconsole-sdk/consolesdk"
	"github.com/shikharlohiya/agentconsole-sdk/gateway"
	"github.com/shikharlohiya/agentconsole-sdk/metrics"
	"github.com/shikharlohiya/agentconsole-sdk/socket"
)

func main() {
	settingsPath := flag.String("settings", "settings.ini", "path to settings file")
	flag.Parse()

	cfg, err := ini.Load(*settingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", *settingsPath, err)
		os.Exit(1)
	}

	initLogging(cfg)
	defer closeLogging()

	settings, err := LoadSettings(cfg)
	if err != nil {
		consoleLog.Fatalf("invalid settings: %v", err)
	}

	client, err := agentconsole.NewClient(&consolesdk.Config{
		BaseURL: settings.BaseURL(),
		Timeout: settings.RequestTimeout(),
		Logger:  &entryLogger{entry: sdkLog},
	})
	if err != nil {
		consoleLog.Fatalf("failed to create console client: %v", err)
	}

	gatewayConfig := gateway.DefaultConfig()
	gatewayConfig.CLI = settings.CLI()
	gatewayConfig.AgentID = settings.AgentID()
	gatewayConfig.RequestTimeout = settings.RequestTimeout()
	gatewayConfig.StatusTimeout = settings.StatusTimeout()
	client.SetGatewayConfig(gatewayConfig)

	socketConfig := socket.DefaultConfig()
	socketConfig.URL = settings.WebsocketURL()
	client.SetSocketConfig(socketConfig)

	sessionConfig := callsession.DefaultConfig()
	sessionConfig.AutoResetDelay = settings.AutoResetDelay()
	client.SetSessionConfig(sessionConfig)

	if addr := settings.MetricsAddress(); addr != "" {
		go serveMetrics(addr)
	}

	session, err := client.CallSession()
	if err != nil {
		consoleLog.Fatalf("failed to start call session: %v", err)
	}

	unsubscribe := session.Subscribe(renderSnapshot)
	defer unsubscribe()

	// Announce presence; fire-and-forget, dropped if the channel is down
	client.Socket().Emit("agentStatus", map[string]string{
		"agentId": settings.AgentID(),
		"status":  "available",
	})

	consoleLog.Infof("agent %s ready, backend %s", settings.AgentID(), settings.BaseURL())

	go commandLoop(client, session)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	client.Socket().Emit("agentStatus", map[string]string{
		"agentId": settings.AgentID(),
		"status":  "offline",
	})
	_ = client.Socket().Disconnect()
	consoleLog.Info("shutting down")
}

func serveMetrics(addr string) {
	handler := promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	consoleLog.Infof("metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		consoleLog.Errorf("metrics server stopped: %v", err)
	}
}

// renderSnapshot prints the session state after every mutation
func renderSnapshot(snap callsession.Snapshot) {
	switch snap.State {
	case callsession.StateActive:
		consoleLog.Infof("[%s] call %s with %s, %ds, muted=%v",
			snap.State, snap.CallID, snap.DialedNumber, snap.DurationSeconds, snap.IsMuted)
	case callsession.StateFailed:
		consoleLog.Warnf("[%s] %s", snap.State, snap.LastError)
	default:
		consoleLog.Infof("[%s] number=%s", snap.State, snap.DialedNumber)
	}
}

func commandLoop(client *agentconsole.ConsoleClient, session *callsession.Store) {
	scanner := bufio.NewScanner(os.Stdin)
	printHelp()

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "dial":
			if len(fields) < 2 {
				fmt.Println("usage: dial <number>")
				continue
			}
			if err := session.Initiate(fields[1]); err != nil {
				fmt.Println(consolesdk.UserMessage(err))
			}
		case "answer":
			session.Accept()
		case "reject":
			session.Reject()
		case "end":
			session.End()
		case "mute":
			session.ToggleMute()
		case "merge":
			if len(fields) < 2 {
				fmt.Println("usage: merge <number>")
				continue
			}
			if err := session.Merge(fields[1]); err != nil {
				fmt.Println(consolesdk.UserMessage(err))
			}
		case "clear":
			session.Clear()
		case "status":
			snap := session.Snapshot()
			fmt.Printf("state=%s callId=%s number=%s duration=%ds muted=%v connection=%s\n",
				snap.State, snap.CallID, snap.DialedNumber, snap.DurationSeconds,
				snap.IsMuted, snap.ConnectionStatus)
		case "history":
			printHistory(client)
		case "help":
			printHelp()
		case "quit", "exit":
			_ = syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
			return
		default:
			fmt.Printf("unknown command %q, try help\n", fields[0])
		}
	}
}

func printHistory(client *agentconsole.ConsoleClient) {
	records, err := client.CallHistory().List(&callhistory.ListOptions{
		Days:   7,
		Limit:  20,
		Sort:   callhistory.SortDesc,
		SortBy: callhistory.SortByStartTime,
	})
	if err != nil {
		fmt.Println(consolesdk.UserMessage(err))
		return
	}

	for _, r := range records {
		fmt.Printf("%-12s %-10s %-10s %4ds\n", r.PhoneNumber, r.Direction, r.Disposition, r.DurationSeconds)
	}
}

func printHelp() {
	fmt.Println("commands: dial <number> | answer | reject | end | mute | merge <number> | clear | status | history | help | quit")
}
