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

// Package state implements the per-view scheduling state machine: a pure,
// total function from (current state, event) to (next state, actions). It
// has no I/O, no clock access and no concurrency of its own; callers (the
// view supervisor) own all of that.
package state

import "strings"

// View identifies a dataset by its stable urlPath, e.g. "db/Table/p1/p2".
// TableName is the "db/Table" prefix shared by every partition of a table.
type View struct {
	URLPath    string
	TableName  string
	IsExternal bool
}

// DeriveTableName extracts the "db/Table" prefix from a urlPath by keeping
// its first two "/"-separated segments.
func DeriveTableName(urlPath string) string {
	parts := strings.SplitN(urlPath, "/", 3)
	if len(parts) < 2 {
		return urlPath
	}
	return parts[0] + "/" + parts[1]
}

// Listener is either another view (by identity) or an opaque handle for an
// external subscriber (e.g. a client connection ID). Exactly one of the two
// fields is set.
type Listener struct {
	View     string // set when the listener is another view's urlPath
	External string // set when the listener is an external subscriber handle
}

// IsView reports whether this listener is another view rather than an
// external subscriber.
func (l Listener) IsView() bool {
	return l.View != ""
}
