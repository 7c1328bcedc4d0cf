/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Shikhar Lohiya
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

// Package metrics provides Prometheus observability metrics for the agent
// console SDK: call lifecycle outcomes, gateway request health, and socket
// connection health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for the SDK. Binaries expose it
// via promhttp.HandlerFor(metrics.Registry, ...).
var Registry = prometheus.NewRegistry()

// factory registers metrics to the custom Registry directly
var factory = promauto.With(Registry)

// ---- Call lifecycle ----

// CallsInitiatedTotal counts outbound call attempts accepted by the session
// store (after local validation and the re-entrancy guard).
var CallsInitiatedTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "callsession",
	Name:      "calls_initiated_total",
	Help:      "Total outbound call attempts issued to the telephony gateway",
})

// CallsFailedTotal counts calls that ended in the failed state, by error kind.
var CallsFailedTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "callsession",
	Name:      "calls_failed_total",
	Help:      "Total calls that transitioned to failed, by error kind",
}, []string{"kind"})

// ActiveCall indicates whether a call is currently active (0 or 1).
var ActiveCall = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "callsession",
	Name:      "active_call",
	Help:      "1 while a call is in the active state, 0 otherwise",
})

// CallDurationSeconds tracks the duration of completed calls.
var CallDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "callsession",
	Name:      "call_duration_seconds",
	Help:      "Duration of calls that reached the active state",
	Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1200, 1800, 3600},
})

// StaleEventsTotal counts server events discarded because their callId did
// not match the current session.
var StaleEventsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "callsession",
	Name:      "stale_events_total",
	Help:      "Server call events discarded due to a callId mismatch",
})

// ---- Gateway requests ----

// GatewayRequestsTotal counts gateway call-control requests by operation and
// outcome (ok, gateway_error, connectivity_error, timeout).
var GatewayRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gateway",
	Name:      "requests_total",
	Help:      "Telephony gateway requests by operation and outcome",
}, []string{"operation", "outcome"})

// GatewayRequestDuration tracks gateway request latency by operation.
var GatewayRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "gateway",
	Name:      "request_duration_seconds",
	Help:      "Telephony gateway request latency by operation",
	Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
}, []string{"operation"})

// ---- Socket health ----

// SocketReconnectsTotal counts successful reconnections after a dropped
// connection.
var SocketReconnectsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "socket",
	Name:      "reconnects_total",
	Help:      "Successful websocket reconnections",
})

// SocketEventsTotal counts received events by event name.
var SocketEventsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "socket",
	Name:      "events_total",
	Help:      "Websocket events received, by event name",
}, []string{"event"})

// SocketDroppedEmitsTotal counts outbound emits dropped because the socket
// was not connected.
var SocketDroppedEmitsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "socket",
	Name:      "dropped_emits_total",
	Help:      "Outbound emits dropped while the socket was not connected",
})
