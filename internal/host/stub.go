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

package host

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/schedoscope/scheduler/pkg/scheduling/metadatagateway"
	"github.com/schedoscope/scheduler/pkg/scheduling/state"
	"github.com/schedoscope/scheduler/pkg/scheduling/supervisor"
	"github.com/schedoscope/scheduler/pkg/scheduling/viewgraph"
)

// StubCollaborators returns placeholders for every out-of-scope
// collaborator, for running this binary standalone (no schema registry,
// transformation executor or metadata store wired in). Every method logs a
// warning each time it would have needed a real backend; nothing here
// fabricates behavior a real deployment depends on — it only lets the
// ambient metrics/debug surface come up without one, mirroring the
// teacher's cmd/main.go running with its backend connection left disabled
// when API_URL/AUTH_TOKEN are unset.
func StubCollaborators(log *zap.SugaredLogger) Collaborators {
	return Collaborators{
		Graph:      &stubGraph{log: log},
		Store:      &stubStore{log: log},
		Executor:   &stubExecutor{log: log},
		Bookkeeper: &stubBookkeeper{log: log},
		Sink:       &stubSink{log: log},
	}
}

type stubGraph struct{ log *zap.SugaredLogger }

func (g *stubGraph) Resolve(urlPath string) (viewgraph.Definition, error) {
	g.log.Warnw("no schema registry configured, treating view as freshly created", "view", urlPath)
	v := state.View{URLPath: urlPath, TableName: urlPath}
	return viewgraph.Definition{View: v, Initial: state.CreatedFromScratch{V: v}}, nil
}

type stubStore struct{ log *zap.SugaredLogger }

func (s *stubStore) GetMetaDataForMaterialize(_ context.Context, urlPath string, _ state.MaterializationMode, _ state.Listener) (string, time.Time, error) {
	s.log.Warnw("no metadata store configured", "view", urlPath)
	return "", time.Time{}, fmt.Errorf("metadata store not configured")
}

func (s *stubStore) LogTransformationTimestamp(_ context.Context, urlPath string, _ time.Time) error {
	s.log.Warnw("no metadata store configured, dropping transformation timestamp", "view", urlPath)
	return nil
}

func (s *stubStore) SetViewVersion(_ context.Context, urlPath string) error {
	s.log.Warnw("no metadata store configured, dropping view version update", "view", urlPath)
	return nil
}

func (s *stubStore) AddPartition(_ context.Context, urlPath string) error {
	s.log.Warnw("no metadata store configured, dropping partition add", "view", urlPath)
	return nil
}

func (s *stubStore) CheckVersion(_ context.Context, urlPath string) (metadatagateway.VersionCheck, error) {
	s.log.Warnw("no metadata store configured", "view", urlPath)
	return metadatagateway.VersionCheck{}, fmt.Errorf("metadata store not configured")
}

type stubExecutor struct{ log *zap.SugaredLogger }

func (e *stubExecutor) Submit(view state.View, onComplete func(state.TransformationSucceeded, *state.TransformationFailed)) {
	e.log.Warnw("no transformation executor configured", "view", view.URLPath)
	go onComplete(state.TransformationSucceeded{}, &state.TransformationFailed{})
}

func (e *stubExecutor) Touch(view state.View) {
	e.log.Warnw("no transformation executor configured, dropping touch", "view", view.URLPath)
}

func (e *stubExecutor) CheckSuccessFlag(view state.View, onResult func(exists bool, timestamp time.Time)) {
	e.log.Warnw("no transformation executor configured", "view", view.URLPath)
	go onResult(false, time.Time{})
}

type stubBookkeeper struct{ log *zap.SugaredLogger }

func (b *stubBookkeeper) LogTransformationTimestamp(view state.View, _ time.Time) {
	b.log.Warnw("no metadata store configured, dropping transformation timestamp", "view", view.URLPath)
}

func (b *stubBookkeeper) SetViewVersion(view state.View) {
	b.log.Warnw("no metadata store configured, dropping view version update", "view", view.URLPath)
}

type stubSink struct{ log *zap.SugaredLogger }

func (s *stubSink) Deliver(subscriberHandle string, n supervisor.Notice) {
	s.log.Warnw("no external listener sink configured, dropping notice", "subscriber", subscriberHandle, "view", n.View)
}
