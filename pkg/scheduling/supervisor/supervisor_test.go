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

package supervisor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/schedoscope/scheduler/pkg/scheduling/listenerbus"
	"github.com/schedoscope/scheduler/pkg/scheduling/metadatagateway"
	"github.com/schedoscope/scheduler/pkg/scheduling/state"
)

func TestSupervisor(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "supervisor")
}

type fakeRouter struct {
	mu        sync.Mutex
	forwarded []string
}

func (f *fakeRouter) Forward(urlPath string, msg any) { f.DelegateMessageToView(urlPath, msg) }

func (f *fakeRouter) DelegateMessageToView(urlPath string, _ any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forwarded = append(f.forwarded, urlPath)
}

func (f *fakeRouter) forwardedTo() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.forwarded))
	copy(out, f.forwarded)
	return out
}

type fakeExecutor struct {
	mu           sync.Mutex
	submitCount  int
	failSubmits  bool
	successFlag  bool
	touchedCount int
}

func (f *fakeExecutor) Submit(_ state.View, onComplete func(state.TransformationSucceeded, *state.TransformationFailed)) {
	f.mu.Lock()
	f.submitCount++
	fail := f.failSubmits
	f.mu.Unlock()

	go func() {
		if fail {
			onComplete(state.TransformationSucceeded{}, &state.TransformationFailed{})
			return
		}
		onComplete(state.TransformationSucceeded{HasData: true}, nil)
	}()
}

func (f *fakeExecutor) Touch(_ state.View) {
	f.mu.Lock()
	f.touchedCount++
	f.mu.Unlock()
}

func (f *fakeExecutor) CheckSuccessFlag(_ state.View, onResult func(exists bool, timestamp time.Time)) {
	f.mu.Lock()
	exists := f.successFlag
	f.mu.Unlock()
	go onResult(exists, time.Unix(1000, 0))
}

func (f *fakeExecutor) submits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitCount
}

type fakeBookkeeper struct {
	mu          sync.Mutex
	timestamps  int
	versionSets int
}

func (f *fakeBookkeeper) LogTransformationTimestamp(_ state.View, _ time.Time) {
	f.mu.Lock()
	f.timestamps++
	f.mu.Unlock()
}

func (f *fakeBookkeeper) SetViewVersion(_ state.View) {
	f.mu.Lock()
	f.versionSets++
	f.mu.Unlock()
}

type fakeSink struct {
	mu      sync.Mutex
	notices []Notice
}

func (f *fakeSink) Deliver(_ string, n Notice) {
	f.mu.Lock()
	f.notices = append(f.notices, n)
	f.mu.Unlock()
}

func (f *fakeSink) delivered() []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Notice, len(f.notices))
	copy(out, f.notices)
	return out
}

func newTestSupervisor(view state.View, initial state.State, cfg Config, router Router, exec Executor, book Bookkeeper, sink ExternalSink) *Supervisor {
	bus := listenerbus.New()
	return New(view, initial, cfg, Deps{
		Router:     router,
		Executor:   exec,
		Bookkeeper: book,
		Sink:       sink,
	}, bus)
}

type fakeStore struct {
	err error
}

func (f *fakeStore) GetMetaDataForMaterialize(_ context.Context, _ string, _ state.MaterializationMode, _ state.Listener) (string, time.Time, error) {
	if f.err != nil {
		return "", time.Time{}, f.err
	}
	return "v1", time.Unix(42, 0), nil
}

func (f *fakeStore) LogTransformationTimestamp(_ context.Context, _ string, _ time.Time) error { return nil }
func (f *fakeStore) SetViewVersion(_ context.Context, _ string) error                          { return nil }
func (f *fakeStore) AddPartition(_ context.Context, _ string) error                            { return nil }
func (f *fakeStore) CheckVersion(_ context.Context, _ string) (metadatagateway.VersionCheck, error) {
	return metadatagateway.VersionCheck{Status: metadatagateway.VersionOk}, nil
}

func newTestExternalSupervisor(view state.View, initial state.State, cfg Config, gateway *metadatagateway.Gateway, sink ExternalSink) *Supervisor {
	bus := listenerbus.New()
	return New(view, initial, cfg, Deps{
		Router:  &fakeRouter{},
		Gateway: gateway,
		Sink:    sink,
	}, bus)
}

var _ = Describe("Supervisor", func() {
	var view state.View

	BeforeEach(func() {
		view = state.View{URLPath: "db/A", TableName: "db/A"}
	})

	It("checks the success flag for a dependency-free view and reports Materialized", func() {
		exec := &fakeExecutor{successFlag: true}
		book := &fakeBookkeeper{}
		sink := &fakeSink{}
		sup := newTestSupervisor(view, state.CreatedFromScratch{V: view}, Config{MaxRetries: 3}, &fakeRouter{}, exec, book, sink)

		sup.Deliver(state.Materialize{Requester: state.Listener{External: "client-1"}})

		Eventually(func() state.Label {
			return sup.Snapshot().Label()
		}, time.Second).Should(Equal(state.LabelMaterialized))

		Eventually(func() []Notice { return sink.delivered() }).Should(HaveLen(1))
		Expect(sink.delivered()[0].Label).To(Equal(state.LabelMaterialized))
	})

	It("forwards a dependency materialize to the router and transforms once all dependencies answer", func() {
		router := &fakeRouter{}
		exec := &fakeExecutor{}
		book := &fakeBookkeeper{}
		sink := &fakeSink{}
		cfg := Config{MaxRetries: 3, HasTransformationLogic: true, Dependencies: []string{"db/B"}}
		sup := newTestSupervisor(view, state.CreatedFromScratch{V: view}, cfg, router, exec, book, sink)

		sup.Deliver(state.Materialize{Requester: state.Listener{External: "client-1"}})

		Eventually(func() []string { return router.forwardedTo() }).Should(ContainElement("db/B"))

		sup.Deliver(state.ViewMaterialized{Dependency: "db/B", TransformationTimestamp: time.Unix(500, 0)})

		Eventually(func() int { return exec.submits() }).Should(Equal(1))
		Eventually(func() state.Label { return sup.Snapshot().Label() }, time.Second).Should(Equal(state.LabelMaterialized))
		Expect(book.timestamps).To(BeNumerically(">=", 1))
	})

	It("retries a failing transformation up to MaxRetries and then reports Failed", func() {
		router := &fakeRouter{}
		exec := &fakeExecutor{failSubmits: true}
		book := &fakeBookkeeper{}
		sink := &fakeSink{}
		cfg := Config{MaxRetries: 1, RetryBackoffCapSeconds: 1, HasTransformationLogic: true}
		sup := newTestSupervisor(view, state.CreatedFromScratch{V: view}, cfg, router, exec, book, sink)

		sup.Deliver(state.Materialize{Requester: state.Listener{External: "client-1"}})

		Eventually(func() state.Label { return sup.Snapshot().Label() }, 3*time.Second).Should(Equal(state.LabelFailed))
		Eventually(func() []Notice { return sink.delivered() }).Should(HaveLen(1))
		Expect(sink.delivered()[0].Label).To(Equal(state.LabelFailed))
	})

	It("resolves metadata for an external view through the gateway and reports Materialized", func() {
		extView := state.View{URLPath: "ext/X", TableName: "ext/X", IsExternal: true}
		gw := metadatagateway.New(&fakeStore{}, time.Second)
		sink := &fakeSink{}
		sup := newTestExternalSupervisor(extView, state.CreatedFromScratch{V: extView}, Config{MaxRetries: 3}, gw, sink)

		sup.Deliver(state.Materialize{Requester: state.Listener{External: "client-x"}})

		Eventually(func() state.Label { return sup.Snapshot().Label() }, time.Second).Should(Equal(state.LabelMaterialized))
		Eventually(func() []Notice { return sink.delivered() }).Should(HaveLen(1))
		Expect(sink.delivered()[0].Label).To(Equal(state.LabelMaterialized))
	})

	It("reports Failed when the metadata gateway errors for an external view", func() {
		extView := state.View{URLPath: "ext/X", TableName: "ext/X", IsExternal: true}
		gw := metadatagateway.New(&fakeStore{err: errors.New("metadata store unreachable")}, time.Second)
		sink := &fakeSink{}
		sup := newTestExternalSupervisor(extView, state.CreatedFromScratch{V: extView}, Config{MaxRetries: 3}, gw, sink)

		sup.Deliver(state.Materialize{Requester: state.Listener{External: "client-x"}})

		Eventually(func() state.Label { return sup.Snapshot().Label() }, time.Second).Should(Equal(state.LabelFailed))
		Eventually(func() []Notice { return sink.delivered() }).Should(HaveLen(1))
		Expect(sink.delivered()[0].Label).To(Equal(state.LabelFailed))
	})
})
