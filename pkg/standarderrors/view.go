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

package standarderrors

import "errors"

var (
	// ErrViewNotFound names a router lookup that finds no supervisor when the
	// caller asked not to create one. Router.Lookup reports that case with a
	// false second result rather than this error.
	ErrViewNotFound = errors.New("view not found")

	// ErrUnknownMessageKind is returned when a supervisor's inbox receives a
	// message it does not know how to classify into an event. This is a
	// programmer error and is treated as fatal by the supervisor.
	ErrUnknownMessageKind = errors.New("unknown message kind")

	// ErrSupervisorStopped names a message sent to a supervisor that has
	// already stopped. Supervisor.Deliver logs and drops such a message
	// rather than returning this error.
	ErrSupervisorStopped = errors.New("supervisor stopped")

	// ErrMetadataFetchTimeout is returned by the metadata gateway adapter
	// when GetMetaDataForMaterialize does not complete before the
	// configured deadline.
	ErrMetadataFetchTimeout = errors.New("metadata fetch timed out")
)
