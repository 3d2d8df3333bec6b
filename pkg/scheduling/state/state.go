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

// Label names a state variant in lower-case kebab form, matching the wire
// format in SPEC_FULL.md §6.
type Label string

const (
	LabelCreatedFromScratch    Label = "created"
	LabelReadFromSchemaManager Label = "read-from-schema-manager"
	LabelInvalidated           Label = "invalidated"
	LabelNoData                Label = "no-data"
	LabelWaiting               Label = "waiting"
	LabelTransforming          Label = "transforming"
	LabelRetrying              Label = "retrying"
	LabelMaterialized          Label = "materialized"
	LabelFailed                Label = "failed"
)

// State is the tagged union of every scheduling-state variant a view can be
// in. Exactly one concrete type below implements it for any given view at
// any given moment.
type State interface {
	// Label identifies the variant, for logging, metrics and the wire format.
	Label() Label
	// View returns the identity every variant carries.
	View() View
}

// CreatedFromScratch means no metadata is known yet for this view.
type CreatedFromScratch struct {
	V View
}

func (s CreatedFromScratch) Label() Label { return LabelCreatedFromScratch }
func (s CreatedFromScratch) View() View   { return s.V }

// ReadFromSchemaManager means the view's last known version/timestamp were
// loaded at bootstrap from the metadata store.
type ReadFromSchemaManager struct {
	V                 View
	Version           string
	LastTransformedAt time.Time
}

func (s ReadFromSchemaManager) Label() Label { return LabelReadFromSchemaManager }
func (s ReadFromSchemaManager) View() View   { return s.V }

// Invalidated means the view was explicitly invalidated; only a new
// Materialize can move it out of this state.
type Invalidated struct {
	V View
}

func (s Invalidated) Label() Label { return LabelInvalidated }
func (s Invalidated) View() View   { return s.V }

// NoData means the view's dependencies (or its own source) produced no data.
type NoData struct {
	V View
}

func (s NoData) Label() Label { return LabelNoData }
func (s NoData) View() View   { return s.V }

// Waiting means the view is waiting for a dependency fan-in to complete.
type Waiting struct {
	V                         View
	Listeners                 []Listener
	DependenciesMaterializing map[string]struct{}
	OneDependencyReturnedData bool
	WithErrors                bool
	Incomplete                bool
	Mode                      MaterializationMode
}

func (s Waiting) Label() Label { return LabelWaiting }
func (s Waiting) View() View   { return s.V }

// Transforming means a transformation request is in flight for the view.
type Transforming struct {
	V          View
	Listeners  []Listener
	Retry      int
	WithErrors bool
	Incomplete bool
	Mode       MaterializationMode
}

func (s Transforming) Label() Label { return LabelTransforming }
func (s Transforming) View() View   { return s.V }

// Retrying means a transformation failed and a backoff timer is armed.
type Retrying struct {
	V          View
	Listeners  []Listener
	Retry      int
	WithErrors bool
	Incomplete bool
	Mode       MaterializationMode
}

func (s Retrying) Label() Label { return LabelRetrying }
func (s Retrying) View() View   { return s.V }

// Materialized means the view is up to date.
type Materialized struct {
	V                       View
	TransformationTimestamp time.Time
	WithErrors              bool
	Incomplete              bool
}

func (s Materialized) Label() Label { return LabelMaterialized }
func (s Materialized) View() View   { return s.V }

// Failed means the view hit a non-recoverable failure.
type Failed struct {
	V View
}

func (s Failed) Label() Label { return LabelFailed }
func (s Failed) View() View   { return s.V }

// sameVariant reports whether a and b are the same state variant (ignoring
// payload), used by the supervisor to decide whether a transition is
// "status-worthy" per SPEC_FULL.md §4.2 ("payload-only changes do not emit
// status updates").
func sameVariant(a, b State) bool {
	return a.Label() == b.Label()
}

// SameVariant reports whether a and b are the same state variant.
func SameVariant(a, b State) bool {
	return sameVariant(a, b)
}
