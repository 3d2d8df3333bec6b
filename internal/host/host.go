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

// Package host assembles C1-C5 into a running process: the listener bus,
// the metadata gateway, and the router's lazy supervisor factory. It is
// the one place that wires the out-of-scope collaborators (pkg/scheduling/
// viewgraph.Graph, pkg/scheduling/metadatagateway.Store, pkg/scheduling/
// supervisor.Executor, pkg/scheduling/supervisor.Bookkeeper) into the
// otherwise self-contained scheduling core, the way the teacher's cmd/
// main.go wires communication_state/control into its control loop.
package host

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/schedoscope/scheduler/pkg/config"
	"github.com/schedoscope/scheduler/pkg/logger"
	"github.com/schedoscope/scheduler/pkg/scheduling/listenerbus"
	"github.com/schedoscope/scheduler/pkg/scheduling/metadatagateway"
	"github.com/schedoscope/scheduler/pkg/scheduling/router"
	"github.com/schedoscope/scheduler/pkg/scheduling/state"
	"github.com/schedoscope/scheduler/pkg/scheduling/supervisor"
	"github.com/schedoscope/scheduler/pkg/scheduling/viewgraph"
	"github.com/schedoscope/scheduler/pkg/sentry"
)

// Collaborators are the out-of-scope systems a deployment must inject: the
// schema registry/dependency graph, the transformation executor and the
// metadata store's bookkeeping/query surface. See pkg/scheduling/
// viewgraph.Graph, pkg/scheduling/supervisor.Executor/Bookkeeper and
// pkg/scheduling/metadatagateway.Store.
type Collaborators struct {
	Graph      viewgraph.Graph
	Store      metadatagateway.Store
	Executor   supervisor.Executor
	Bookkeeper supervisor.Bookkeeper
	Sink       supervisor.ExternalSink
}

// Host owns the long-lived scheduling-core components for one process.
type Host struct {
	Bus      *listenerbus.Bus
	Gateway  *metadatagateway.Gateway
	Router   *router.Router
	dispatch *semaphore.Weighted
	cfg      config.SchedulingConfig
	collab   Collaborators
	log      *zap.SugaredLogger
}

// New builds a Host. Supervisors are created lazily by the router on first
// reference to a view, per SPEC_FULL.md §3.
func New(cfg config.SchedulingConfig, collab Collaborators) *Host {
	h := &Host{
		Bus:     listenerbus.New(),
		Gateway: metadatagateway.New(collab.Store, time.Duration(cfg.MetadataFetchTimeoutSeconds)*time.Second),
		cfg:     cfg,
		collab:  collab,
		log:     logger.For(logger.ComponentCore),
	}
	if cfg.ViewsDispatcherParallelism > 0 {
		h.dispatch = semaphore.NewWeighted(int64(cfg.ViewsDispatcherParallelism))
	}
	h.Router = router.NewWithShardCount(h.newSupervisor, cfg.RouterShardCount)
	return h
}

func (h *Host) newSupervisor(urlPath string) router.Supervisor {
	def, err := h.collab.Graph.Resolve(urlPath)
	if err != nil {
		sentry.ReportIssuef(sentry.IssueTypeError, h.log, "resolve view graph for %s: %v", urlPath, err)
		def = viewgraph.Definition{
			View:    state.View{URLPath: urlPath, TableName: urlPath},
			Initial: state.CreatedFromScratch{V: state.View{URLPath: urlPath, TableName: urlPath}},
		}
	}

	initial := def.Initial
	if initial == nil {
		initial = state.CreatedFromScratch{V: def.View}
	}

	return supervisor.New(def.View, initial, supervisor.Config{
		MaxRetries:             h.cfg.MaxRetries,
		RetryBackoffCapSeconds: h.cfg.RetryBackoffCapSeconds,
		CurrentCodeVersion:     def.CurrentCodeVersion,
		HasTransformationLogic: def.HasTransformationLogic,
		Dependencies:           def.Dependencies,
	}, supervisor.Deps{
		Router:     h.Router,
		Gateway:    h.Gateway,
		Executor:   h.collab.Executor,
		Bookkeeper: h.collab.Bookkeeper,
		Sink:       h.collab.Sink,
		Dispatch:   h.dispatch,
	}, h.Bus)
}
