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

// Executor is the out-of-scope transformation executor's interface, per
// SPEC_FULL.md §6. Submit is asynchronous: the executor (or a test double)
// calls onComplete exactly once, from any goroutine, once the
// transformation finishes.
type Executor interface {
	Submit(view state.View, onComplete func(state.TransformationSucceeded, *state.TransformationFailed))
	Touch(view state.View)
	// CheckSuccessFlag answers a CheckSuccessFlag action for a
	// dependency-free, non-external view's Materialize.
	CheckSuccessFlag(view state.View, onResult func(exists bool, timestamp time.Time))
}

// Bookkeeper is the subset of the out-of-scope metadata store's interface
// that write-side actions (WriteTransformationTimestamp,
// WriteTransformationChecksum) use. It intentionally excludes the
// read/external-materialize path, which lives in pkg/scheduling/metadatagateway.
type Bookkeeper interface {
	LogTransformationTimestamp(view state.View, ts time.Time)
	SetViewVersion(view state.View)
}
