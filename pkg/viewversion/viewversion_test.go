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

package viewversion

import "testing"

func TestFingerprintIsStable(t *testing.T) {
	a := Fingerprint([]byte("SELECT * FROM foo"))
	b := Fingerprint([]byte("SELECT * FROM foo"))
	c := Fingerprint([]byte("SELECT * FROM bar"))

	if a != b {
		t.Fatalf("expected identical input to produce identical fingerprints, got %q and %q", a, b)
	}
	if a == c {
		t.Fatalf("expected different input to produce different fingerprints")
	}
}

func TestUnchanged(t *testing.T) {
	cases := []struct {
		name      string
		persisted string
		current   string
		want      bool
	}{
		{"empty persisted means never materialized", "", "abc", false},
		{"matching checksums", "abc", "abc", true},
		{"differing checksums", "abc", "def", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Unchanged(tc.persisted, tc.current); got != tc.want {
				t.Errorf("Unchanged(%q, %q) = %v, want %v", tc.persisted, tc.current, got, tc.want)
			}
		})
	}
}

func TestCodeVersionRejectsShortChecksums(t *testing.T) {
	if _, err := CodeVersion("abc"); err == nil {
		t.Fatalf("expected an error for a too-short checksum")
	}
}

func TestCodeVersionParsesFingerprint(t *testing.T) {
	v, err := CodeVersion(Fingerprint([]byte("transformation-source")))
	if err != nil {
		t.Fatalf("CodeVersion: %v", err)
	}
	if v.Major() != 0 || v.Minor() != 0 {
		t.Fatalf("expected a 0.0.x version, got %s", v.String())
	}
}
