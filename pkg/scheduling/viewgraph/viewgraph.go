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

// Package viewgraph defines the out-of-scope schema registry's view-lookup
// interface: given a view's urlPath, the static facts a supervisor needs to
// build its pkg/scheduling/state.Params on every Decide call — its
// dependencies, whether it runs its own transformation, and its current
// code checksum. SPEC_FULL.md §1 places the metadata store/schema registry
// itself out of scope; this package only names the shape a supervisor
// factory needs from it.
package viewgraph

import "github.com/schedoscope/scheduler/pkg/scheduling/state"

// Definition is everything New(...) in pkg/scheduling/supervisor needs
// beyond the view identity itself to run that view's state machine.
type Definition struct {
	View                   state.View
	Dependencies           []string
	HasTransformationLogic bool
	CurrentCodeVersion     string
	Initial                state.State
}

// Graph resolves a view's Definition on first reference, per SPEC_FULL.md
// §3's "a supervisor is created on first reference to its view".
type Graph interface {
	Resolve(urlPath string) (Definition, error)
}
