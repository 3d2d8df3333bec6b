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

// Package supervisor implements C2: one actor per view, serializing every
// event that concerns that view through a single bounded inbox and driving
// it through pkg/scheduling/state.Decide, per SPEC_FULL.md §4.2. All of the
// view's collaborators (its dependencies, its listeners, the transformation
// executor, the metadata gateway) are reached by forwarding messages
// through the router or gateway rather than by locking shared state.
package supervisor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	internalfsm "github.com/schedoscope/scheduler/internal/fsm"
	"github.com/schedoscope/scheduler/pkg/backoff"
	"github.com/schedoscope/scheduler/pkg/logger"
	"github.com/schedoscope/scheduler/pkg/metrics"
	"github.com/schedoscope/scheduler/pkg/scheduling/listenerbus"
	"github.com/schedoscope/scheduler/pkg/scheduling/metadatagateway"
	"github.com/schedoscope/scheduler/pkg/scheduling/state"
	"github.com/schedoscope/scheduler/pkg/sentry"
	"github.com/schedoscope/scheduler/pkg/standarderrors"
	"github.com/schedoscope/scheduler/pkg/viewversion"
)

// Router is the subset of pkg/scheduling/router.Router a supervisor needs:
// somewhere to forward messages bound for other views.
type Router interface {
	Forward(urlPath string, msg any)
	DelegateMessageToView(urlPath string, msg any)
}

// Config bounds retries and timeouts, sourced from pkg/config per
// SPEC_FULL.md §6.
type Config struct {
	MaxRetries             int
	RetryBackoffCapSeconds int
	CurrentCodeVersion     string
	HasTransformationLogic bool
	Dependencies           []string
}

// Supervisor owns one view's scheduling state and inbox.
type Supervisor struct {
	view state.View
	cfg  Config

	router     Router
	bus        *listenerbus.Bus
	gateway    *metadatagateway.Gateway
	executor   Executor
	bookkeeper Bookkeeper
	sink       ExternalSink
	dispatch   *semaphore.Weighted

	inbox     chan state.Event
	lifecycle *internalfsm.Lifecycle
	stopCh    chan struct{}
	stopOnce  sync.Once

	mu                sync.Mutex
	cur               state.State
	lastKnownChecksum string
}

// Deps bundles a Supervisor's collaborators, mirroring the shape a Factory
// (see pkg/scheduling/router.Factory) closes over per view.
type Deps struct {
	Router     Router
	Gateway    *metadatagateway.Gateway
	Executor   Executor
	Bookkeeper Bookkeeper
	Sink       ExternalSink
	Dispatch   *semaphore.Weighted
}

const inboxCapacity = 64

// New builds a Supervisor for view in its bootstrap state and starts its
// inbox-draining goroutine. initial should be state.CreatedFromScratch or
// state.ReadFromSchemaManager, per SPEC_FULL.md §3's bootstrap rules;
// the metadata store adapter that resolves which one applies lives outside
// this module.
func New(view state.View, initial state.State, cfg Config, deps Deps, bus *listenerbus.Bus) *Supervisor {
	// The persisted checksum is only known for a view loaded from metadata;
	// a view created from scratch has none yet.
	var persistedChecksum string
	if rs, ok := initial.(state.ReadFromSchemaManager); ok {
		persistedChecksum = rs.Version
	}

	s := &Supervisor{
		view:              view,
		cfg:               cfg,
		router:            deps.Router,
		bus:               bus,
		gateway:           deps.Gateway,
		executor:          deps.Executor,
		bookkeeper:        deps.Bookkeeper,
		sink:              deps.Sink,
		dispatch:          deps.Dispatch,
		inbox:             make(chan state.Event, inboxCapacity),
		lifecycle:         internalfsm.NewLifecycle(),
		stopCh:            make(chan struct{}),
		cur:               initial,
		lastKnownChecksum: persistedChecksum,
	}
	go s.run()
	return s
}

// Deliver implements pkg/scheduling/router.Supervisor. msg must be a
// state.Event; anything else is a programmer error and is fatal, per
// SPEC_FULL.md §4.2's "unknown message kind" rule.
func (s *Supervisor) Deliver(msg any) {
	ev, ok := msg.(state.Event)
	if !ok {
		log := logger.For(logger.ComponentSupervisor)
		metrics.IncErrorCount(logger.ComponentSupervisor)
		sentry.ReportIssue(standarderrors.ErrUnknownMessageKind, sentry.IssueTypeFatal, log)
		return
	}

	select {
	case s.inbox <- ev:
	case <-s.stopCh:
		logger.For(logger.ComponentSupervisor).Warnw("dropping message for stopped supervisor",
			logger.FieldView, s.view.URLPath)
	}
}

// Stopped implements pkg/scheduling/router.Supervisor.
func (s *Supervisor) Stopped() bool {
	return s.lifecycle.IsStopped()
}

// Stop requests that the supervisor drain its inbox and exit. It does not
// block until the goroutine has actually exited.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Snapshot returns the view's current scheduling state, for the
// ambient debug surface (internal/debugapi).
func (s *Supervisor) Snapshot() state.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

func (s *Supervisor) run() {
	log := logger.For(logger.ComponentSupervisor)
	s.lifecycle.MarkRunning()

	for {
		select {
		case ev := <-s.inbox:
			metrics.SetInboxDepth(s.view.URLPath, len(s.inbox))
			s.process(ev)
		case <-s.stopCh:
			s.drainAndStop(log)
			return
		}
	}
}

func (s *Supervisor) drainAndStop(log *zap.SugaredLogger) {
	for {
		select {
		case ev := <-s.inbox:
			s.process(ev)
		default:
			s.lifecycle.RequestStop()
			if err := s.lifecycle.MarkStopped(); err != nil {
				logger.For(logger.ComponentSupervisor).Warnw("mark stopped", "error", err, logger.FieldView, s.view.URLPath)
			}
			metrics.DeleteInboxDepth(s.view.URLPath)
			log.Infow("supervisor stopped", logger.FieldView, s.view.URLPath)
			return
		}
	}
}

func (s *Supervisor) process(ev state.Event) {
	ctx := context.Background()
	if s.dispatch != nil {
		if err := s.dispatch.Acquire(ctx, 1); err != nil {
			return
		}
		defer s.dispatch.Release(1)
	}

	start := time.Now()

	s.mu.Lock()
	prev := s.cur
	params := state.Params{
		Now:                    start,
		Dependencies:           s.cfg.Dependencies,
		HasTransformationLogic: s.cfg.HasTransformationLogic,
		MaxRetries:             s.cfg.MaxRetries,
		ChecksumUnchanged:      viewversion.Unchanged(s.lastKnownChecksum, s.cfg.CurrentCodeVersion),
	}
	result := state.Decide(prev, ev, params)
	s.cur = result.Next
	s.mu.Unlock()

	// External views do not emit listener events (SPEC_FULL.md §4.4).
	publishStateChange, publishAction := s.bus.PublishStateChange, s.bus.PublishAction
	if s.view.IsExternal {
		publishStateChange = func(listenerbus.StateChangeEvent) {}
		publishAction = func(listenerbus.ActionEvent) {}
	}

	if prev.Label() != result.Next.Label() {
		metrics.ObserveStateTransition(string(prev.Label()), string(result.Next.Label()))
		if result.Next.Label() == state.LabelRetrying {
			metrics.IncRetriesScheduled()
		}
		publishStateChange(listenerbus.StateChangeEvent{
			View:     s.view.URLPath,
			Previous: prev.Label(),
			New:      result.Next.Label(),
		})
	}
	publishAction(listenerbus.ActionEvent{
		View:      s.view.URLPath,
		Previous:  prev.Label(),
		New:       result.Next.Label(),
		Actions:   result.Actions,
		Timestamp: start,
	})

	for _, action := range result.Actions {
		s.dispatchAction(action)
	}

	metrics.ObserveActionDispatch(logger.ComponentSupervisor, time.Since(start))
}

func (s *Supervisor) dispatchAction(a state.Action) {
	switch action := a.(type) {
	case state.MaterializeDependency:
		s.router.DelegateMessageToView(action.Dependency, state.Materialize{
			Requester: state.Listener{View: s.view.URLPath},
			Mode:      action.Mode,
		})

	case state.Transform:
		metrics.IncTransformationsInFlight()
		s.executor.Submit(action.View, func(succ state.TransformationSucceeded, fail *state.TransformationFailed) {
			metrics.DecTransformationsInFlight()
			if fail != nil {
				s.Deliver(*fail)
				return
			}
			s.Deliver(succ)
		})

	case state.CheckSuccessFlag:
		s.executor.CheckSuccessFlag(action.View, func(exists bool, ts time.Time) {
			s.Deliver(state.SuccessFlagChecked{Exists: exists, Timestamp: ts})
		})

	case state.RequestMetaDataForMaterialize:
		s.gateway.RequestMetaDataForMaterialize(context.Background(), action.View, action.Mode, action.Requester,
			func(resp metadatagateway.Response) {
				if resp.Err != nil {
					logger.For(logger.ComponentSupervisor).Warnw("metadata fetch failed",
						logger.FieldView, s.view.URLPath, "error", resp.Err)
					s.Deliver(state.TransformationFailed{})
					return
				}
				s.Deliver(resp.Event)
			})

	case state.WriteTransformationTimestamp:
		s.bookkeeper.LogTransformationTimestamp(action.View, action.Timestamp)

	case state.WriteTransformationChecksum:
		s.bookkeeper.SetViewVersion(action.View)
		s.mu.Lock()
		s.lastKnownChecksum = s.cfg.CurrentCodeVersion
		s.mu.Unlock()

	case state.TouchSuccessFlag:
		s.executor.Touch(action.View)

	case state.ReportMaterialized:
		s.reportToListeners(action.Listeners,
			func() state.Event {
				return state.ViewMaterialized{
					Dependency:              s.view.URLPath,
					TransformationTimestamp: action.TransformationTimestamp,
					WithErrors:              action.WithErrors,
					Incomplete:              action.Incomplete,
				}
			},
			func() Notice {
				return Notice{
					View:                    s.view.URLPath,
					Label:                   state.LabelMaterialized,
					WithErrors:              action.WithErrors,
					Incomplete:              action.Incomplete,
					TransformationTimestamp: action.TransformationTimestamp,
				}
			})

	case state.ReportNoDataAvailable:
		s.reportToListeners(action.Listeners,
			func() state.Event { return state.ViewHasNoData{Dependency: s.view.URLPath} },
			func() Notice { return Notice{View: s.view.URLPath, Label: state.LabelNoData} })

	case state.ReportFailed:
		s.reportToListeners(action.Listeners,
			func() state.Event { return state.ViewFailed{Dependency: s.view.URLPath} },
			func() Notice { return Notice{View: s.view.URLPath, Label: state.LabelFailed} })

	case state.ReportInvalidated:
		s.notifyExternalListeners(action.Listeners, state.LabelInvalidated)

	case state.ReportNotInvalidated:
		s.notifyExternalListeners(action.Listeners, state.LabelWaiting)

	case state.ArmRetryTimer:
		delay := backoff.Schedule(action.Retry, s.cfg.RetryBackoffCapSeconds)
		time.AfterFunc(delay, func() { s.Deliver(state.Retry{}) })

	default:
		log := logger.For(logger.ComponentSupervisor)
		metrics.IncErrorCount(logger.ComponentSupervisor)
		sentry.ReportIssuef(sentry.IssueTypeFatal, log, "unrecognized scheduling action for view %s", s.view.URLPath)
	}
}

// reportToListeners fans a dependency answer out to every listener: view
// listeners get folded back in as a dependency event on their own inbox,
// external listeners get a Notice on the sink.
func (s *Supervisor) reportToListeners(listeners []state.Listener, mkEvent func() state.Event, mkNotice func() Notice) {
	for _, l := range listeners {
		if l.IsView() {
			s.router.DelegateMessageToView(l.View, mkEvent())
			continue
		}
		if s.sink != nil {
			s.sink.Deliver(l.External, mkNotice())
		}
	}
}

// notifyExternalListeners handles the Invalidate acknowledgement actions,
// which only ever make sense for external clients: a view never issues
// Invalidate against another view in this design (see SPEC_FULL.md §4.1).
func (s *Supervisor) notifyExternalListeners(listeners []state.Listener, label state.Label) {
	for _, l := range listeners {
		if l.IsView() {
			logger.For(logger.ComponentSupervisor).Warnw("unexpected view listener for invalidate acknowledgement",
				logger.FieldView, s.view.URLPath, "listener", l.View)
			continue
		}
		if s.sink != nil {
			s.sink.Deliver(l.External, Notice{View: s.view.URLPath, Label: label})
		}
	}
}
