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

// Action is the tagged union of everything Decide can ask the supervisor
// (C2) to do. Actions carry no behavior of their own; C2 interprets them.
type Action interface {
	actionKind() string
}

// MaterializeDependency asks a dependency view to materialize.
type MaterializeDependency struct {
	Dependency string
	Mode       MaterializationMode
}

func (MaterializeDependency) actionKind() string { return "materialize-dependency" }

// Transform submits the view's own transformation to the executor.
type Transform struct {
	View View
}

func (Transform) actionKind() string { return "transform" }

// CheckSuccessFlag asks the adapter whether a _SUCCESS marker exists for a
// dependency-free, non-external view's output directory.
type CheckSuccessFlag struct {
	View View
}

func (CheckSuccessFlag) actionKind() string { return "check-success-flag" }

// RequestMetaDataForMaterialize asks the metadata gateway adapter (C5) to
// resolve version/timestamp for an external view's Materialize.
type RequestMetaDataForMaterialize struct {
	View      View
	Mode      MaterializationMode
	Requester Listener
}

func (RequestMetaDataForMaterialize) actionKind() string { return "request-metadata-for-materialize" }

// WriteTransformationTimestamp persists a new transformation time.
type WriteTransformationTimestamp struct {
	View      View
	Timestamp time.Time
}

func (WriteTransformationTimestamp) actionKind() string { return "write-transformation-timestamp" }

// WriteTransformationChecksum persists the view's current code version.
type WriteTransformationChecksum struct {
	View View
}

func (WriteTransformationChecksum) actionKind() string { return "write-transformation-checksum" }

// TouchSuccessFlag creates the _SUCCESS marker in the view's output directory.
type TouchSuccessFlag struct {
	View View
}

func (TouchSuccessFlag) actionKind() string { return "touch-success-flag" }

// ReportMaterialized notifies listeners of success.
type ReportMaterialized struct {
	View                    View
	Listeners               []Listener
	TransformationTimestamp time.Time
	WithErrors              bool
	Incomplete              bool
}

func (ReportMaterialized) actionKind() string { return "report-materialized" }

// ReportNoDataAvailable notifies listeners of an empty result.
type ReportNoDataAvailable struct {
	View      View
	Listeners []Listener
}

func (ReportNoDataAvailable) actionKind() string { return "report-no-data-available" }

// ReportFailed notifies listeners of terminal failure.
type ReportFailed struct {
	View      View
	Listeners []Listener
}

func (ReportFailed) actionKind() string { return "report-failed" }

// ReportInvalidated acknowledges an Invalidate.
type ReportInvalidated struct {
	View      View
	Listeners []Listener
}

func (ReportInvalidated) actionKind() string { return "report-invalidated" }

// ReportNotInvalidated rejects an Invalidate that arrived in an illegal state.
type ReportNotInvalidated struct {
	View      View
	Listeners []Listener
}

func (ReportNotInvalidated) actionKind() string { return "report-not-invalidated" }

// ArmRetryTimer asks the supervisor to schedule a Retry() delivery after
// 2^retry seconds (capped). Decide never touches a clock itself; it only
// signals that Retrying was entered.
type ArmRetryTimer struct {
	View  View
	Retry int
}

func (ArmRetryTimer) actionKind() string { return "arm-retry-timer" }
