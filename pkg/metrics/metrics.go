// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes the scheduling engine's Prometheus
// instrumentation: per-view state transitions, inbox depth, action
// dispatch latency and in-flight transformation counts.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/schedoscope/scheduler/pkg/logger"
	"github.com/schedoscope/scheduler/pkg/sentry"
)

const (
	namespace = "schedoscope"
	subsystem = "core"
)

var (
	// errorCounter counts errors surfaced by a component, labeled by the
	// component name (router, supervisor, listenerbus, ...).
	errorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Total number of errors encountered by component",
		},
		[]string{"component"},
	)

	// stateTransitionsTotal counts C1 transitions, labeled by the state the
	// view left and the state it entered. Listeners and payload fields are
	// deliberately excluded to keep cardinality bounded.
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "view_state_transitions_total",
			Help:      "Total number of view scheduling-state transitions",
		},
		[]string{"from", "to"},
	)

	// actionDispatchDuration tracks how long the supervisor took to
	// interpret and dispatch the action set returned by a single C1 call.
	actionDispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "action_dispatch_duration_seconds",
			Help:      "Time spent dispatching the actions produced by one state machine transition",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"component"},
	)

	// inboxDepth is a gauge of how many messages are currently queued in a
	// supervisor's inbox, labeled by view urlPath.
	inboxDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "supervisor_inbox_depth",
			Help:      "Number of messages currently queued in a supervisor's inbox",
		},
		[]string{"view"},
	)

	// transformationsInFlight is a gauge of views currently awaiting a
	// TransformationSucceeded/TransformationFailed completion.
	transformationsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "transformations_in_flight",
			Help:      "Number of views with a Transform submitted and no completion yet",
		},
	)

	// retriesScheduledTotal counts every time a view enters Retrying.
	retriesScheduledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "retries_scheduled_total",
			Help:      "Total number of times a view transitioned into Retrying",
		},
	)

	// supervisorsActive is a gauge of how many supervisors the router
	// currently owns.
	supervisorsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "supervisors_active",
			Help:      "Number of view supervisors currently tracked by the router",
		},
	)
)

// IncErrorCount increments the error counter for a component.
func IncErrorCount(component string) {
	errorCounter.WithLabelValues(component).Inc()
}

// ObserveStateTransition records a C1 transition between two state labels.
func ObserveStateTransition(from, to string) {
	stateTransitionsTotal.WithLabelValues(from, to).Inc()
}

// ObserveActionDispatch records how long a component spent dispatching one
// transition's action set.
func ObserveActionDispatch(component string, d time.Duration) {
	actionDispatchDuration.WithLabelValues(component).Observe(d.Seconds())
}

// SetInboxDepth reports the current depth of a supervisor's inbox.
func SetInboxDepth(view string, depth int) {
	inboxDepth.WithLabelValues(view).Set(float64(depth))
}

// DeleteInboxDepth removes the inbox-depth series for a view that has been
// torn down, so stopped supervisors don't linger in /metrics forever.
func DeleteInboxDepth(view string) {
	inboxDepth.DeleteLabelValues(view)
}

// IncTransformationsInFlight and DecTransformationsInFlight track the
// at-most-one-in-flight invariant across the whole fleet of supervisors.
func IncTransformationsInFlight() { transformationsInFlight.Inc() }
func DecTransformationsInFlight() { transformationsInFlight.Dec() }

// IncRetriesScheduled records one more Retrying transition.
func IncRetriesScheduled() { retriesScheduledTotal.Inc() }

// SetSupervisorsActive reports the router's current supervisor count.
func SetSupervisorsActive(n int) { supervisorsActive.Set(float64(n)) }

// ServeHTTP starts a background HTTP server exposing /metrics. It is the
// ambient observability surface, distinct from any request surface for
// materialize/invalidate calls, which is out of scope for this module.
func ServeHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sentry.ReportIssue(err, sentry.IssueTypeFatal, logger.For("metrics"))
		}
	}()

	return server
}
