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

package state

import "time"

// successFlagCheckKey is a reserved dependency-set entry used to route a
// no-op (no-dependency, non-external) view's Materialize through the same
// Waiting/fan-in machinery used for real dependencies, rather than adding a
// bespoke tenth state variant for a single-member fan-in.
const successFlagCheckKey = "\x00success-flag-check"

// Params carries everything Decide needs beyond the state and the event
// that Decide itself must never fetch: the current time, the view's static
// dependency list, whether it has transformation logic of its own, the
// configured retry cap, and whether the persisted checksum already matches
// the view's current code version. The caller (the supervisor) is
// responsible for supplying these; Decide performs no I/O and reads no
// clock to produce them.
type Params struct {
	Now                    time.Time
	Dependencies           []string
	HasTransformationLogic bool
	MaxRetries             int
	ChecksumUnchanged      bool
}

// Result is what Decide returns: the next state and the actions to perform
// to realize the transition.
type Result struct {
	Next    State
	Actions []Action
}

// Decide is the pure, total state-machine transition function described in
// SPEC_FULL.md §4.1. It never mutates its inputs, never blocks and never
// reads ambient state; unhandled (state, event) combinations are explicit
// no-ops that return the input state unchanged and an empty action set,
// which is what keeps the function total per SPEC_FULL.md §8 property 2.
func Decide(s State, e Event, p Params) Result {
	switch cur := s.(type) {
	case CreatedFromScratch:
		return decideFromFresh(cur, e, p)
	case ReadFromSchemaManager:
		return decideFromFresh(cur, e, p)
	case Invalidated:
		return decideFromFresh(cur, e, p)
	case NoData:
		return decideFromFresh(cur, e, p)
	case Materialized:
		return decideFromMaterialized(cur, e, p)
	case Failed:
		return decideFromFresh(cur, e, p)
	case Waiting:
		return decideFromWaiting(cur, e, p)
	case Transforming:
		return decideFromTransforming(cur, e, p)
	case Retrying:
		return decideFromRetrying(cur, e, p)
	default:
		return Result{Next: s}
	}
}

// decideFromFresh handles events arriving in any state that has no
// materialization attempt in flight (Created, ReadFromSchemaManager,
// Invalidated, NoData, Failed). Anything other than Materialize/Invalidate
// is an explicit no-op that returns the exact input state unchanged, per
// SPEC_FULL.md §8 property 2 (totality).
func decideFromFresh(s State, e Event, p Params) Result {
	v := s.View()
	switch ev := e.(type) {
	case Materialize:
		return beginMaterialize(v, ev.Requester, ev.Mode, p)
	case Invalidate:
		return Result{
			Next:    Invalidated{V: v},
			Actions: []Action{ReportInvalidated{View: v, Listeners: []Listener{ev.Requester}}},
		}
	default:
		return Result{Next: s}
	}
}

func beginMaterialize(v View, requester Listener, mode MaterializationMode, p Params) Result {
	if v.IsExternal {
		return Result{
			Next: Waiting{
				V:                         v,
				Listeners:                 []Listener{requester},
				DependenciesMaterializing: map[string]struct{}{successFlagCheckKey: {}},
				Mode:                      mode,
			},
			Actions: []Action{RequestMetaDataForMaterialize{View: v, Mode: mode, Requester: requester}},
		}
	}

	if len(p.Dependencies) == 0 {
		if !p.HasTransformationLogic {
			return Result{
				Next: Waiting{
					V:                         v,
					Listeners:                 []Listener{requester},
					DependenciesMaterializing: map[string]struct{}{successFlagCheckKey: {}},
					Mode:                      mode,
				},
				Actions: []Action{CheckSuccessFlag{View: v}},
			}
		}

		// No dependencies to wait on but the view transforms its own data;
		// skip Waiting entirely rather than parking in it with an empty
		// DependenciesMaterializing set that no event could ever drain.
		return Result{
			Next:    Transforming{V: v, Listeners: []Listener{requester}, Mode: mode},
			Actions: []Action{Transform{View: v}},
		}
	}

	deps := make(map[string]struct{}, len(p.Dependencies))
	actions := make([]Action, 0, len(p.Dependencies))
	for _, d := range p.Dependencies {
		deps[d] = struct{}{}
		actions = append(actions, MaterializeDependency{Dependency: d, Mode: mode})
	}

	return Result{
		Next: Waiting{
			V:                         v,
			Listeners:                 []Listener{requester},
			DependenciesMaterializing: deps,
			Mode:                      mode,
		},
		Actions: actions,
	}
}

func decideFromMaterialized(cur Materialized, e Event, p Params) Result {
	switch ev := e.(type) {
	case Materialize:
		return beginMaterialize(cur.V, ev.Requester, ev.Mode, p)
	case Invalidate:
		return Result{
			Next:    Invalidated{V: cur.V},
			Actions: []Action{ReportInvalidated{View: cur.V, Listeners: []Listener{ev.Requester}}},
		}
	default:
		return Result{Next: cur}
	}
}

func decideFromWaiting(cur Waiting, e Event, p Params) Result {
	switch ev := e.(type) {
	case Materialize:
		cur.Listeners = append(cur.Listeners, ev.Requester)
		return Result{Next: cur}
	case Invalidate:
		return Result{
			Next:    cur,
			Actions: []Action{ReportNotInvalidated{View: cur.V, Listeners: []Listener{ev.Requester}}},
		}
	case SuccessFlagChecked:
		if _, ok := cur.DependenciesMaterializing[successFlagCheckKey]; !ok {
			return Result{Next: cur}
		}
		if ev.Exists {
			return Result{
				Next: Materialized{V: cur.V, TransformationTimestamp: ev.Timestamp},
				Actions: []Action{ReportMaterialized{
					View: cur.V, Listeners: cur.Listeners, TransformationTimestamp: ev.Timestamp,
				}},
			}
		}
		return Result{
			Next:    NoData{V: cur.V},
			Actions: []Action{ReportNoDataAvailable{View: cur.V, Listeners: cur.Listeners}},
		}
	case MetaDataForMaterialize:
		if _, ok := cur.DependenciesMaterializing[successFlagCheckKey]; !ok {
			return Result{Next: cur}
		}
		return Result{
			Next: Materialized{V: cur.V, TransformationTimestamp: ev.Timestamp},
			Actions: []Action{ReportMaterialized{
				View: cur.V, Listeners: cur.Listeners, TransformationTimestamp: ev.Timestamp,
			}},
		}
	case ViewMaterialized:
		return foldDependencyAnswer(cur, ev.Dependency, true, ev.WithErrors, ev.Incomplete, p)
	case ViewHasNoData:
		return foldDependencyAnswer(cur, ev.Dependency, false, false, true, p)
	case ViewFailed:
		return foldDependencyAnswer(cur, ev.Dependency, false, true, false, p)
	case TransformationFailed:
		if _, ok := cur.DependenciesMaterializing[successFlagCheckKey]; !ok {
			return Result{Next: cur}
		}
		return Result{
			Next:    Failed{V: cur.V},
			Actions: []Action{ReportFailed{View: cur.V, Listeners: cur.Listeners}},
		}
	default:
		return Result{Next: cur}
	}
}

// foldDependencyAnswer applies a single dependency's answer to a Waiting
// view per SPEC_FULL.md §4.1's fan-in rules.
func foldDependencyAnswer(cur Waiting, dep string, returnedData, withErrors, incomplete bool, p Params) Result {
	if _, ok := cur.DependenciesMaterializing[dep]; !ok {
		// Answer from a dependency we're not waiting on (duplicate/stale).
		return Result{Next: cur}
	}

	remaining := make(map[string]struct{}, len(cur.DependenciesMaterializing)-1)
	for d := range cur.DependenciesMaterializing {
		if d != dep {
			remaining[d] = struct{}{}
		}
	}

	oneDependencyReturnedData := cur.OneDependencyReturnedData || returnedData
	newWithErrors := cur.WithErrors || withErrors
	newIncomplete := cur.Incomplete || incomplete

	if len(remaining) > 0 {
		cur.DependenciesMaterializing = remaining
		cur.OneDependencyReturnedData = oneDependencyReturnedData
		cur.WithErrors = newWithErrors
		cur.Incomplete = newIncomplete
		return Result{Next: cur}
	}

	if !oneDependencyReturnedData {
		return Result{
			Next:    NoData{V: cur.V},
			Actions: []Action{ReportNoDataAvailable{View: cur.V, Listeners: cur.Listeners}},
		}
	}

	if cur.Mode == ModeSetOnly {
		// SET_ONLY never runs the transformation: it just records that the
		// view is up to date, per SPEC_FULL.md §4.1's mode enumeration.
		return Result{
			Next: Materialized{V: cur.V, TransformationTimestamp: p.Now, WithErrors: newWithErrors, Incomplete: newIncomplete},
			Actions: []Action{
				WriteTransformationTimestamp{View: cur.V, Timestamp: p.Now},
				WriteTransformationChecksum{View: cur.V},
				TouchSuccessFlag{View: cur.V},
				ReportMaterialized{
					View: cur.V, Listeners: cur.Listeners, TransformationTimestamp: p.Now,
					WithErrors: newWithErrors, Incomplete: newIncomplete,
				},
			},
		}
	}

	if p.ChecksumUnchanged && !cur.Mode.ForcesRetransform() {
		return Result{
			Next: Materialized{V: cur.V, TransformationTimestamp: p.Now, WithErrors: newWithErrors, Incomplete: newIncomplete},
			Actions: []Action{ReportMaterialized{
				View: cur.V, Listeners: cur.Listeners, TransformationTimestamp: p.Now,
				WithErrors: newWithErrors, Incomplete: newIncomplete,
			}},
		}
	}

	return Result{
		Next: Transforming{
			V: cur.V, Listeners: cur.Listeners, Retry: 0,
			WithErrors: newWithErrors, Incomplete: newIncomplete, Mode: cur.Mode,
		},
		Actions: []Action{Transform{View: cur.V}},
	}
}

func decideFromTransforming(cur Transforming, e Event, p Params) Result {
	switch ev := e.(type) {
	case Materialize:
		cur.Listeners = append(cur.Listeners, ev.Requester)
		return Result{Next: cur}
	case Invalidate:
		return Result{
			Next:    cur,
			Actions: []Action{ReportNotInvalidated{View: cur.V, Listeners: []Listener{ev.Requester}}},
		}
	case TransformationSucceeded:
		if ev.HasData {
			actions := []Action{
				WriteTransformationTimestamp{View: cur.V, Timestamp: p.Now},
				WriteTransformationChecksum{View: cur.V},
			}
			if cur.Mode != ModeTransformOnly {
				actions = append(actions, TouchSuccessFlag{View: cur.V})
			}
			actions = append(actions, ReportMaterialized{
				View: cur.V, Listeners: cur.Listeners, TransformationTimestamp: p.Now,
				WithErrors: cur.WithErrors, Incomplete: cur.Incomplete,
			})
			return Result{
				Next:    Materialized{V: cur.V, TransformationTimestamp: p.Now, WithErrors: cur.WithErrors, Incomplete: cur.Incomplete},
				Actions: actions,
			}
		}
		return Result{
			Next:    NoData{V: cur.V},
			Actions: []Action{ReportNoDataAvailable{View: cur.V, Listeners: cur.Listeners}},
		}
	case TransformationFailed:
		if cur.Retry < p.MaxRetries {
			next := Retrying{
				V: cur.V, Listeners: cur.Listeners, Retry: cur.Retry + 1,
				WithErrors: cur.WithErrors, Incomplete: cur.Incomplete, Mode: cur.Mode,
			}
			return Result{
				Next:    next,
				Actions: []Action{ArmRetryTimer{View: cur.V, Retry: next.Retry}},
			}
		}
		return Result{
			Next:    Failed{V: cur.V},
			Actions: []Action{ReportFailed{View: cur.V, Listeners: cur.Listeners}},
		}
	default:
		return Result{Next: cur}
	}
}

func decideFromRetrying(cur Retrying, e Event, p Params) Result {
	switch ev := e.(type) {
	case Materialize:
		cur.Listeners = append(cur.Listeners, ev.Requester)
		return Result{Next: cur}
	case Invalidate:
		return Result{
			Next:    cur,
			Actions: []Action{ReportNotInvalidated{View: cur.V, Listeners: []Listener{ev.Requester}}},
		}
	case Retry:
		return Result{
			Next: Transforming{
				V: cur.V, Listeners: cur.Listeners, Retry: cur.Retry,
				WithErrors: cur.WithErrors, Incomplete: cur.Incomplete, Mode: cur.Mode,
			},
			Actions: []Action{Transform{View: cur.V}},
		}
	default:
		return Result{Next: cur}
	}
}
