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

// Package fsm holds the actor-lifecycle state machine shared by every view
// supervisor. It is deliberately separate from the view scheduling state
// machine in pkg/scheduling/state: this one governs whether the
// supervisor's goroutine is alive at all, not what scheduling state the
// view it owns is in.
package fsm

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
)

const (
	// LifecycleEventSpawned fires once the supervisor's inbox-draining
	// goroutine has started running.
	LifecycleEventSpawned = "spawned"
	// LifecycleEventStop requests that the supervisor drain its inbox and
	// exit.
	LifecycleEventStop = "stop"
	// LifecycleEventStopped fires once the goroutine has actually returned.
	LifecycleEventStopped = "stopped"
)

const (
	// LifecycleStateSpawning is the state between construction and the
	// goroutine's first iteration.
	LifecycleStateSpawning = "spawning"
	// LifecycleStateRunning is the state while the inbox is being drained.
	LifecycleStateRunning = "running"
	// LifecycleStateStopping is the state after Stop() has been requested
	// but before the goroutine has observed it.
	LifecycleStateStopping = "stopping"
	// LifecycleStateStopped is the terminal state; the supervisor no longer
	// accepts messages.
	LifecycleStateStopped = "stopped"
)

// Lifecycle wraps a looplab/fsm.FSM with the four transitions every
// supervisor goroutine goes through, so that concurrent calls to Stop() or
// queries of "is this supervisor still alive" share one well-tested state
// machine instead of each supervisor re-deriving it from ad hoc booleans.
type Lifecycle struct {
	fsm *fsm.FSM
}

// NewLifecycle builds a Lifecycle starting in LifecycleStateSpawning.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		fsm: fsm.NewFSM(
			LifecycleStateSpawning,
			fsm.Events{
				{Name: LifecycleEventSpawned, Src: []string{LifecycleStateSpawning}, Dst: LifecycleStateRunning},
				{Name: LifecycleEventStop, Src: []string{LifecycleStateRunning}, Dst: LifecycleStateStopping},
				{Name: LifecycleEventStopped, Src: []string{LifecycleStateStopping}, Dst: LifecycleStateStopped},
			},
			fsm.Callbacks{},
		),
	}
}

// Current returns the current lifecycle state.
func (l *Lifecycle) Current() string {
	return l.fsm.Current()
}

// MarkRunning transitions Spawning -> Running. Safe to call even if another
// goroutine already did so; the transition is simply ignored.
func (l *Lifecycle) MarkRunning() {
	_ = l.fsm.Event(context.Background(), LifecycleEventSpawned)
}

// RequestStop transitions Running -> Stopping and reports whether the
// transition actually happened (false means a stop is already underway).
func (l *Lifecycle) RequestStop() bool {
	err := l.fsm.Event(context.Background(), LifecycleEventStop)
	return err == nil
}

// MarkStopped transitions Stopping -> Stopped.
func (l *Lifecycle) MarkStopped() error {
	if err := l.fsm.Event(context.Background(), LifecycleEventStopped); err != nil {
		return fmt.Errorf("mark stopped: %w", err)
	}
	return nil
}

// IsRunning reports whether the supervisor is still accepting messages.
func (l *Lifecycle) IsRunning() bool {
	return l.fsm.Current() == LifecycleStateRunning
}

// IsStopped reports whether the supervisor has fully shut down.
func (l *Lifecycle) IsStopped() bool {
	return l.fsm.Current() == LifecycleStateStopped
}
