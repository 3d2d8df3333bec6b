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

// Package router implements C3: the keyed mapping from view identity to
// supervisor, per SPEC_FULL.md §4.3. The map is split into independently
// locked shards selected by hashing the urlPath, bounding lock contention
// to views that happen to collide into the same shard.
package router

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/schedoscope/scheduler/pkg/metrics"
)

const defaultShardCount = 32

// Supervisor is the subset of the view supervisor's interface the router
// needs: somewhere to deliver a message, and a way to know it's gone.
type Supervisor interface {
	Deliver(msg any)
	Stopped() bool
}

// Factory builds a new supervisor for a view on first reference. It is
// called at most once per urlPath while holding that urlPath's shard lock.
type Factory func(urlPath string) Supervisor

type shard struct {
	mu          sync.Mutex
	supervisors map[string]Supervisor
}

// Router is the concurrent map from urlPath to Supervisor.
type Router struct {
	shards  []*shard
	factory Factory
}

// New builds a Router with defaultShardCount shards.
func New(factory Factory) *Router {
	return NewWithShardCount(factory, defaultShardCount)
}

// NewWithShardCount builds a Router with an explicit shard count, mostly
// useful for tests that want to force collisions.
func NewWithShardCount(factory Factory, shardCount int) *Router {
	if shardCount <= 0 {
		shardCount = 1
	}
	shards := make([]*shard, shardCount)
	for i := range shards {
		shards[i] = &shard{
			supervisors: make(map[string]Supervisor),
		}
	}
	return &Router{shards: shards, factory: factory}
}

func (r *Router) shardFor(urlPath string) *shard {
	h := xxhash.Sum64String(urlPath)
	return r.shards[h%uint64(len(r.shards))]
}

// Lookup returns the existing supervisor for urlPath, if any.
func (r *Router) Lookup(urlPath string) (Supervisor, bool) {
	sh := r.shardFor(urlPath)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sup, ok := sh.supervisors[urlPath]
	return sup, ok
}

// LookupOrCreate returns the existing supervisor for urlPath, creating one
// via the Factory if it doesn't exist yet. Newly created supervisors are
// counted in pkg/metrics.SetSupervisorsActive.
func (r *Router) LookupOrCreate(urlPath string) Supervisor {
	sh := r.shardFor(urlPath)
	sh.mu.Lock()

	if sup, ok := sh.supervisors[urlPath]; ok {
		sh.mu.Unlock()
		return sup
	}

	sup := r.factory(urlPath)
	sh.supervisors[urlPath] = sup
	sh.mu.Unlock()

	// activeCount locks every shard, so it runs after this shard is released.
	metrics.SetSupervisorsActive(r.activeCount())
	return sup
}

// Forward delivers msg to urlPath's supervisor, creating it first if
// necessary. This never blocks on the supervisor itself.
func (r *Router) Forward(urlPath string, msg any) {
	r.LookupOrCreate(urlPath).Deliver(msg)
}

// DelegateMessageToView delivers msg to urlPath's supervisor, creating it
// via the Factory first if it doesn't exist yet — the same as Forward.
// Nothing else spawns a dependency's supervisor ahead of a reference to it,
// so creation can't be deferred to some other caller.
func (r *Router) DelegateMessageToView(urlPath string, msg any) {
	r.Forward(urlPath, msg)
}

// Broadcast delivers msg to every currently known supervisor. It does not
// create supervisors that don't exist yet.
func (r *Router) Broadcast(msg any) {
	for _, sh := range r.shards {
		sh.mu.Lock()
		targets := make([]Supervisor, 0, len(sh.supervisors))
		for _, sup := range sh.supervisors {
			targets = append(targets, sup)
		}
		sh.mu.Unlock()

		for _, sup := range targets {
			sup.Deliver(msg)
		}
	}
}

// Remove drops urlPath from the router once its supervisor has stopped.
func (r *Router) Remove(urlPath string) {
	sh := r.shardFor(urlPath)
	sh.mu.Lock()
	delete(sh.supervisors, urlPath)
	sh.mu.Unlock()

	metrics.SetSupervisorsActive(r.activeCount())
}

// Snapshot returns every urlPath the router currently tracks, for the
// ambient debug surface (internal/debugapi).
func (r *Router) Snapshot() []string {
	var out []string
	for _, sh := range r.shards {
		sh.mu.Lock()
		for urlPath := range sh.supervisors {
			out = append(out, urlPath)
		}
		sh.mu.Unlock()
	}
	return out
}

func (r *Router) activeCount() int {
	n := 0
	for _, sh := range r.shards {
		sh.mu.Lock()
		n += len(sh.supervisors)
		sh.mu.Unlock()
	}
	return n
}
