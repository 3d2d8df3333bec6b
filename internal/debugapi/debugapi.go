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

// Package debugapi exposes a small, read-only gin surface for inspecting
// the scheduling engine's live state: which views the router currently
// knows about, and each one's current state-machine label. It is
// deliberately not the materialize/invalidate request surface — that's the
// out-of-scope CLI/HTTP/RPC layer per SPEC_FULL.md §1 — this is strictly
// for operators and tests to look inside a running process.
package debugapi

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/schedoscope/scheduler/pkg/scheduling/router"
	"github.com/schedoscope/scheduler/pkg/scheduling/state"
	"github.com/schedoscope/scheduler/pkg/sentry"
)

// Snapshotter is the subset of *supervisor.Supervisor this package needs. A
// router.Supervisor that doesn't implement it (e.g. a test double) is
// simply reported as not found rather than causing a type-assertion panic.
type Snapshotter interface {
	Snapshot() state.State
}

// Router is the subset of *router.Router this package needs.
type Router interface {
	Snapshot() []string
	Lookup(urlPath string) (router.Supervisor, bool)
}

// ViewStatus is the JSON shape returned for a single view.
type ViewStatus struct {
	URLPath                 string      `json:"urlPath"`
	TableName               string      `json:"tableName,omitempty"`
	Label                   state.Label `json:"label"`
	TransformationTimestamp time.Time   `json:"transformationTimestamp,omitempty"`
	WithErrors              bool        `json:"withErrors,omitempty"`
	Incomplete              bool        `json:"incomplete,omitempty"`
}

// New builds the gin engine serving GET /debug/views and
// GET /debug/views/:urlPath. debug controls gin's own mode and access-log
// verbosity, mirroring the teacher's setupGraphQLEndpoint.
func New(rtr Router, debug bool, log *zap.SugaredLogger) *gin.Engine {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	// Match routes on the escaped path so a urlPath with an encoded slash
	// (db%2FA) stays one :urlPath parameter; gin unescapes it for c.Param.
	engine.UseRawPath = true
	engine.Use(gin.Recovery())
	engine.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if debug {
			log.Infof("debugapi %s %s %d %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
		}
	})

	engine.GET("/debug/views", func(c *gin.Context) {
		paths := rtr.Snapshot()
		sort.Strings(paths)

		statuses := make([]ViewStatus, 0, len(paths))
		for _, p := range paths {
			st, ok := snapshotOf(rtr, p)
			if !ok {
				continue
			}
			statuses = append(statuses, toStatus(p, st))
		}
		c.JSON(http.StatusOK, statuses)
	})

	engine.GET("/debug/views/:urlPath", func(c *gin.Context) {
		p := c.Param("urlPath")
		st, ok := snapshotOf(rtr, p)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown view %q", p)})
			return
		}
		c.JSON(http.StatusOK, toStatus(p, st))
	})

	return engine
}

func snapshotOf(rtr Router, urlPath string) (state.State, bool) {
	sup, ok := rtr.Lookup(urlPath)
	if !ok {
		return nil, false
	}
	snap, ok := sup.(Snapshotter)
	if !ok {
		return nil, false
	}
	return snap.Snapshot(), true
}

func toStatus(urlPath string, st state.State) ViewStatus {
	out := ViewStatus{
		URLPath:   urlPath,
		TableName: st.View().TableName,
		Label:     st.Label(),
	}

	switch s := st.(type) {
	case state.Materialized:
		out.TransformationTimestamp = s.TransformationTimestamp
		out.WithErrors = s.WithErrors
		out.Incomplete = s.Incomplete
	case state.Transforming:
		out.WithErrors = s.WithErrors
		out.Incomplete = s.Incomplete
	case state.Retrying:
		out.WithErrors = s.WithErrors
		out.Incomplete = s.Incomplete
	}

	return out
}

// Serve starts the debug API listening on addr, reporting a fatal Sentry
// issue if the listener dies for any reason other than a graceful Shutdown.
func Serve(addr string, rtr Router, debug bool, log *zap.SugaredLogger) *http.Server {
	srv := &http.Server{
		Addr:    addr,
		Handler: New(rtr, debug, log),
	}

	go func() {
		log.Infow("starting debug API", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sentry.ReportIssue(err, sentry.IssueTypeFatal, log)
		}
	}()

	return srv
}
