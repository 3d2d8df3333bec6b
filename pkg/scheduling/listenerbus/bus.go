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

// Package listenerbus fans state-change and scheduling-action notifications
// out to registered observers (SPEC_FULL.md §4.4). Delivery is best-effort
// and unordered across subscribers, but strictly ordered for any one
// subscriber, since each subscriber is served by its own goroutine draining
// its own channel.
package listenerbus

import (
	"time"

	"github.com/schedoscope/scheduler/pkg/logger"
	"github.com/schedoscope/scheduler/pkg/scheduling/state"
)

// StateChangeEvent fires whenever a view's state variant (not just payload)
// changes.
type StateChangeEvent struct {
	View     string
	Previous state.Label
	New      state.Label
}

// ActionEvent fires for every transition, carrying the actions Decide
// produced alongside it.
type ActionEvent struct {
	View      string
	Previous  state.Label
	New       state.Label
	Actions   []state.Action
	Timestamp time.Time
}

// Observer receives bus events. Both methods must return quickly; slow
// observers only ever block their own subscriber goroutine, never the bus
// or other subscribers.
type Observer interface {
	OnStateChange(StateChangeEvent)
	OnAction(ActionEvent)
}

type subscription struct {
	inbox chan func(Observer)
	done  chan struct{}
}

// Bus is the listener bus itself. The zero value is not usable; use New.
type Bus struct {
	register   chan *subscription
	unregister chan *subscription
	publish    chan func(Observer)
	stop       chan struct{}
}

// New creates a Bus and starts its dispatch loop. Call Stop to release its
// goroutine.
func New() *Bus {
	b := &Bus{
		register:   make(chan *subscription),
		unregister: make(chan *subscription),
		publish:    make(chan func(Observer), 256),
		stop:       make(chan struct{}),
	}
	go b.run()
	return b
}

// Subscribe registers an observer and returns an unsubscribe function.
func (b *Bus) Subscribe(o Observer) func() {
	sub := &subscription{inbox: make(chan func(Observer), 64), done: make(chan struct{})}
	go func() {
		for {
			select {
			case fn, ok := <-sub.inbox:
				if !ok {
					return
				}
				fn(o)
			case <-sub.done:
				return
			}
		}
	}()

	select {
	case b.register <- sub:
	case <-b.stop:
	}

	return func() {
		close(sub.done)
		select {
		case b.unregister <- sub:
		case <-b.stop:
		}
	}
}

// PublishStateChange delivers a state-change event to every current
// subscriber. External views never emit listener events per SPEC_FULL.md
// §4.4, so callers should not call this for them.
func (b *Bus) PublishStateChange(ev StateChangeEvent) {
	b.enqueue(func(o Observer) { o.OnStateChange(ev) })
}

// PublishAction delivers a scheduling-action event to every current
// subscriber.
func (b *Bus) PublishAction(ev ActionEvent) {
	b.enqueue(func(o Observer) { o.OnAction(ev) })
}

func (b *Bus) enqueue(fn func(Observer)) {
	select {
	case b.publish <- fn:
	case <-b.stop:
	}
}

// Stop shuts down the bus's dispatch loop. Subscribers already registered
// stop receiving events.
func (b *Bus) Stop() {
	close(b.stop)
}

func (b *Bus) run() {
	log := logger.For(logger.ComponentListenerBus)
	subs := make(map[*subscription]struct{})

	for {
		select {
		case sub := <-b.register:
			subs[sub] = struct{}{}
		case sub := <-b.unregister:
			delete(subs, sub)
		case fn := <-b.publish:
			for sub := range subs {
				select {
				case sub.inbox <- fn:
				default:
					log.Warn("listener bus subscriber is backed up, dropping event (best-effort delivery)")
				}
			}
		case <-b.stop:
			return
		}
	}
}
