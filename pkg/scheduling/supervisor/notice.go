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
	"time"

	"github.com/schedoscope/scheduler/pkg/scheduling/state"
)

// Notice is what an external (non-view) listener receives, matching the
// wire format in SPEC_FULL.md §6: { label, viewPath, withErrors?,
// incomplete?, transformationTimestamp? }.
type Notice struct {
	View                    string
	Label                   state.Label
	WithErrors              bool
	Incomplete              bool
	TransformationTimestamp time.Time
}

// ExternalSink delivers Notices to external (non-view) subscriber handles.
// A production implementation would push over a websocket/RPC stream; this
// module only defines the interface, per SPEC_FULL.md §1's scoping of the
// client/RPC surface out of this core.
type ExternalSink interface {
	Deliver(subscriberHandle string, n Notice)
}
