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

package config

import (
	"context"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scheduling-config.yaml")

	cfg, err := NewManager(path).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxRetries != DefaultMaxRetries {
		t.Errorf("expected MaxRetries=%d, got %d", DefaultMaxRetries, cfg.MaxRetries)
	}

	// A second load should now read back the persisted file.
	cfg2, err := NewManager(path).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error on reload: %v", err)
	}
	if cfg2 != cfg {
		t.Errorf("expected reload to match persisted defaults, got %+v vs %+v", cfg2, cfg)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scheduling-config.yaml")

	t.Setenv("SCHEDULING_MAX_RETRIES", "7")
	t.Setenv("SCHEDULING_DEBUG_API_ADDR", ":9999")

	cfg, err := NewManager(path).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxRetries != 7 {
		t.Errorf("expected env override MaxRetries=7, got %d", cfg.MaxRetries)
	}
	if cfg.DebugAPIAddr != ":9999" {
		t.Errorf("expected env override DebugAPIAddr=:9999, got %q", cfg.DebugAPIAddr)
	}
}

func TestLoadRejectsEmptyConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scheduling-config.yaml")

	mgr := NewManager(path)
	if err := mgr.write(context.Background(), SchedulingConfig{}); err != nil {
		t.Fatalf("failed to write empty config: %v", err)
	}

	if _, err := mgr.Load(context.Background()); err == nil {
		t.Fatal("expected an error loading an all-zero-value config file")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()

	clone.MaxRetries = 99
	if cfg.MaxRetries == 99 {
		t.Fatal("expected Clone to be independent of the original")
	}
}
