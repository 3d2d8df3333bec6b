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

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/schedoscope/scheduler/internal/debugapi"
	"github.com/schedoscope/scheduler/internal/host"
	"github.com/schedoscope/scheduler/pkg/config"
	"github.com/schedoscope/scheduler/pkg/logger"
	"github.com/schedoscope/scheduler/pkg/metrics"
	"github.com/schedoscope/scheduler/pkg/sentry"
	"github.com/schedoscope/scheduler/pkg/version"
)

func main() {
	logger.Initialize()
	sentry.InitSentry(version.GetAppVersion(), true)

	log := logger.For(logger.ComponentCore)
	log.Info("Starting scheduler...")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	path, err := configPath()
	if err != nil {
		sentry.ReportIssuef(sentry.IssueTypeFatal, log, "resolve config path: %v", err)
		os.Exit(1)
	}

	cfg, err := config.NewManager(path).Load(ctx)
	if err != nil {
		sentry.ReportIssuef(sentry.IssueTypeFatal, log, "load config: %v", err)
		os.Exit(1)
	}

	metricsServer := metrics.ServeHTTP(cfg.MetricsAddr)
	defer shutdown(metricsServer.Shutdown, log, "metrics server")

	// No schema registry, transformation executor or metadata store is
	// implemented by this module (SPEC_FULL.md §1 places them out of
	// scope); a real deployment supplies its own host.Collaborators. This
	// binary runs with stand-ins so the ambient metrics/debug surface
	// still comes up standalone.
	h := host.New(cfg, host.StubCollaborators(log))

	debugServer := debugapi.Serve(cfg.DebugAPIAddr, h.Router, false, log)
	defer shutdown(debugServer.Shutdown, log, "debug API server")

	log.Infow("scheduler running", "metricsAddr", cfg.MetricsAddr, "debugApiAddr", cfg.DebugAPIAddr)

	<-ctx.Done()
	log.Info("shutting down")
}

func configPath() (string, error) {
	if p := os.Getenv("SCHEDULING_CONFIG_PATH"); p != "" {
		return p, nil
	}
	return config.DefaultConfigPath, nil
}

func shutdown(shutdownFn func(context.Context) error, log *zap.SugaredLogger, name string) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := shutdownFn(shutdownCtx); err != nil {
		log.Errorf("failed to shut down %s: %v", name, err)
	}
}
