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

// Package viewversion fingerprints a view's transformation logic and
// compares it against the version last persisted for that view, per
// SPEC_FULL.md §4.1/§6's "transformation checksum / version" concept. A
// mismatch forces re-transformation even when every dependency reports
// unchanged data; a match lets a DEFAULT-mode materialize short-circuit
// straight to Materialized without re-running the transformation.
package viewversion

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Fingerprint computes a stable checksum for a view's transformation
// source. The caller supplies whatever bytes uniquely identify the
// current transformation logic (e.g. the rendered transformation template
// plus its parameter bindings); this package does not read files itself.
func Fingerprint(transformationSource []byte) string {
	sum := sha256.Sum256(transformationSource)
	return hex.EncodeToString(sum[:])
}

// CodeVersion wraps the checksum in a semver.Version so it composes with
// pkg/sentry's Masterminds/semver release tagging. Fingerprints
// aren't naturally dotted versions, so the checksum is encoded as the
// patch component of 0.0.<n> via its first eight hex digits (32 bits) — good enough for
// equality comparisons, which is all Unchanged needs.
func CodeVersion(checksum string) (*semver.Version, error) {
	if len(checksum) < 8 {
		return nil, fmt.Errorf("viewversion: checksum %q too short to derive a version from", checksum)
	}
	var low uint32
	for _, c := range checksum[:8] {
		low = low<<4 | uint32(hexDigit(byte(c)))
	}
	v, err := semver.NewVersion(fmt.Sprintf("0.0.%d", low))
	if err != nil {
		return nil, fmt.Errorf("viewversion: derive semver from checksum %q: %w", checksum, err)
	}
	return v, nil
}

func hexDigit(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

// Unchanged reports whether persisted and current identify the same
// transformation code. Both are raw checksums (as produced by
// Fingerprint); this is a plain equality check, with CodeVersion kept
// available separately for callers that need the semver.Version form
// (logging, metadata-store comparisons using CheckVersion's
// VersionOk/VersionMismatch outcomes).
func Unchanged(persisted, current string) bool {
	return persisted != "" && persisted == current
}
