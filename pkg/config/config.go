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

// Package config loads the scheduling engine's ambient configuration: retry
// bounds, gateway timeouts and dispatcher parallelism, per SPEC_FULL.md §6.
// It follows the teacher's FileConfigManager shape (YAML on disk, read under
// a context-aware RWMutex, environment variables taking precedence) scoped
// to this module's much smaller settings surface.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/tiendc/go-deepcopy"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/schedoscope/scheduler/pkg/ctxutil/ctxrwmutex"
	"github.com/schedoscope/scheduler/pkg/env"
	"github.com/schedoscope/scheduler/pkg/logger"
)

// DefaultConfigPath is where the scheduling engine looks for its config
// file if SCHEDULING_CONFIG_PATH is unset.
const DefaultConfigPath = "/data/scheduling-config.yaml"

// Defaults for the keys SPEC_FULL.md §6 recognizes, plus the router shard
// count.
const (
	DefaultMaxRetries                  = 3
	DefaultRetryBackoffCapSeconds      = 300
	DefaultMetadataFetchTimeoutSeconds = 30
	DefaultViewsDispatcherParallelism  = 16
	DefaultRouterShardCount            = 32
)

// SchedulingConfig is everything the router/supervisor fleet needs beyond
// the view dependency graph itself, which is supplied by the out-of-scope
// metadata store.
type SchedulingConfig struct {
	MaxRetries                  int    `yaml:"maxRetries"`
	RetryBackoffCapSeconds      int    `yaml:"retryBackoffCapSeconds"`
	MetadataFetchTimeoutSeconds int    `yaml:"metadataFetchTimeoutSeconds"`
	ViewsDispatcherParallelism  int    `yaml:"viewsDispatcherParallelism"`
	RouterShardCount            int    `yaml:"routerShardCount"`
	MetricsAddr                 string `yaml:"metricsAddr"`
	DebugAPIAddr                string `yaml:"debugApiAddr"`
}

// Clone returns a deep copy, so a caller holding a SchedulingConfig never
// aliases the copy the Manager read from disk.
func (c SchedulingConfig) Clone() SchedulingConfig {
	var clone SchedulingConfig
	if err := deepcopy.Copy(&clone, &c); err != nil {
		return c
	}
	return clone
}

// Default returns a SchedulingConfig populated with the defaults above and
// the default metrics/debug listen addresses.
func Default() SchedulingConfig {
	return SchedulingConfig{
		MaxRetries:                  DefaultMaxRetries,
		RetryBackoffCapSeconds:      DefaultRetryBackoffCapSeconds,
		MetadataFetchTimeoutSeconds: DefaultMetadataFetchTimeoutSeconds,
		ViewsDispatcherParallelism:  DefaultViewsDispatcherParallelism,
		RouterShardCount:            DefaultRouterShardCount,
		MetricsAddr:                 ":8080",
		DebugAPIAddr:                ":8081",
	}
}

// Manager loads a SchedulingConfig from disk, falling back to Default and
// persisting it on first run, much like the teacher's
// GetConfigWithOverwritesOrCreateNew. Reads are guarded by a context-aware
// RWMutex so a reload never races a concurrent read.
//
// This module deliberately skips the teacher's filesystem.Service
// indirection: nothing here needs a swappable/mockable filesystem, config
// is read once at startup, so the stdlib os
// package is enough (see DESIGN.md's Open Question decisions).
type Manager struct {
	path string
	mu   ctxrwmutex.CtxRWMutex
	log  *zap.SugaredLogger
}

// NewManager builds a Manager reading from path.
func NewManager(path string) *Manager {
	return &Manager{
		path: path,
		mu:   *ctxrwmutex.NewCtxRWMutex(),
		log:  logger.For(logger.ComponentConfigManager),
	}
}

// Load reads the config file, applying environment-variable overrides and
// falling back to Default()+env overrides if the file does not exist yet.
// A freshly created config (from defaults) is persisted so subsequent
// restarts see a stable file.
func (m *Manager) Load(ctx context.Context) (SchedulingConfig, error) {
	if err := m.mu.RLock(ctx); err != nil {
		return SchedulingConfig{}, fmt.Errorf("lock config file: %w", err)
	}
	cfg, err := m.read()
	m.mu.RUnlock()

	if err != nil {
		if !os.IsNotExist(err) {
			return SchedulingConfig{}, err
		}
		cfg = Default()
		if writeErr := m.write(ctx, cfg); writeErr != nil {
			m.log.Warnw("failed to persist default config", "error", writeErr)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg.Clone(), nil
}

func (m *Manager) read() (SchedulingConfig, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return SchedulingConfig{}, err
	}

	var cfg SchedulingConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SchedulingConfig{}, fmt.Errorf("parse config file %s: %w", m.path, err)
	}
	if reflect.DeepEqual(cfg, SchedulingConfig{}) {
		return SchedulingConfig{}, fmt.Errorf("config file %s is empty", m.path)
	}
	return cfg, nil
}

func (m *Manager) write(ctx context.Context, cfg SchedulingConfig) error {
	if err := m.mu.Lock(ctx); err != nil {
		return fmt.Errorf("lock config file: %w", err)
	}
	defer m.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	m.log.Infow("wrote scheduling config", "path", m.path)
	return nil
}

func applyEnvOverrides(cfg *SchedulingConfig) {
	if v, err := env.GetAsInt("SCHEDULING_MAX_RETRIES", false, cfg.MaxRetries); err == nil {
		cfg.MaxRetries = v
	}
	if v, err := env.GetAsInt("SCHEDULING_RETRY_BACKOFF_CAP_SECONDS", false, cfg.RetryBackoffCapSeconds); err == nil {
		cfg.RetryBackoffCapSeconds = v
	}
	if v, err := env.GetAsInt("SCHEDULING_METADATA_FETCH_TIMEOUT_SECONDS", false, cfg.MetadataFetchTimeoutSeconds); err == nil {
		cfg.MetadataFetchTimeoutSeconds = v
	}
	if v, err := env.GetAsInt("SCHEDULING_VIEWS_DISPATCHER_PARALLELISM", false, cfg.ViewsDispatcherParallelism); err == nil {
		cfg.ViewsDispatcherParallelism = v
	}
	if v, err := env.GetAsInt("SCHEDULING_ROUTER_SHARD_COUNT", false, cfg.RouterShardCount); err == nil {
		cfg.RouterShardCount = v
	}
	if v, err := env.GetAsString("SCHEDULING_METRICS_ADDR", false, cfg.MetricsAddr); err == nil {
		cfg.MetricsAddr = v
	}
	if v, err := env.GetAsString("SCHEDULING_DEBUG_API_ADDR", false, cfg.DebugAPIAddr); err == nil {
		cfg.DebugAPIAddr = v
	}
}
