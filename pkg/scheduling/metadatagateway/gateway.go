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

// Package metadatagateway implements the thin adapter (C5) a view
// supervisor uses to resolve version/timestamp information for external
// views, per SPEC_FULL.md §4.5/§6.
package metadatagateway

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/schedoscope/scheduler/pkg/ctxutil"
	"github.com/schedoscope/scheduler/pkg/logger"
	"github.com/schedoscope/scheduler/pkg/scheduling/state"
	"github.com/schedoscope/scheduler/pkg/standarderrors"
)

// Store is the out-of-scope metadata store's interface, per SPEC_FULL.md §6.
// This module never implements Store itself; callers inject a real client.
type Store interface {
	GetMetaDataForMaterialize(ctx context.Context, urlPath string, mode state.MaterializationMode, origin state.Listener) (version string, timestamp time.Time, err error)
	LogTransformationTimestamp(ctx context.Context, urlPath string, ts time.Time) error
	SetViewVersion(ctx context.Context, urlPath string) error
	AddPartition(ctx context.Context, urlPath string) error
	CheckVersion(ctx context.Context, urlPath string) (VersionCheck, error)
}

// VersionCheck is the result of CheckVersion at bootstrap.
type VersionCheck struct {
	Status   VersionStatus
	OldValue string
	NewValue string
}

// VersionStatus enumerates CheckVersion's outcomes.
type VersionStatus int

const (
	VersionOk VersionStatus = iota
	VersionMismatch
	VersionCheckError
)

// Response is delivered back to the requesting supervisor's inbox as a
// state.MetaDataForMaterialize event, or as a failure signal on timeout.
type Response struct {
	CorrelationID uuid.UUID
	Event         state.MetaDataForMaterialize
	Err           error
}

// Gateway wraps a Store with correlation IDs and deadline enforcement so a
// supervisor never blocks its inbox-draining goroutine waiting on the
// metadata store.
type Gateway struct {
	store   Store
	timeout time.Duration
}

// New builds a Gateway. timeout bounds every request; SPEC_FULL.md §6 names
// it metadataFetchTimeoutSeconds.
func New(store Store, timeout time.Duration) *Gateway {
	return &Gateway{store: store, timeout: timeout}
}

// RequestMetaDataForMaterialize issues an asynchronous request and posts
// its outcome to deliver. It never blocks the caller: the store call itself
// runs in its own goroutine, and the deadline is enforced independently of
// the Store, so a Store that ignores its context still yields a timeout
// Response at the deadline (the Store call itself runs on until it returns).
func (g *Gateway) RequestMetaDataForMaterialize(
	ctx context.Context,
	view state.View,
	mode state.MaterializationMode,
	origin state.Listener,
	deliver func(Response),
) {
	log := logger.For(logger.ComponentMetadataGateway)
	correlationID := uuid.New()

	reqCtx, cancel := context.WithTimeout(ctx, g.timeout)

	go func() {
		defer cancel()

		if _, sufficient, err := ctxutil.HasSufficientTime(reqCtx, 0); err != nil || !sufficient {
			log.Warnw("insufficient time remaining before metadata fetch deadline",
				logger.FieldView, view.URLPath)
		}

		var version string
		var timestamp time.Time
		done := make(chan error, 1)
		go func() {
			var storeErr error
			version, timestamp, storeErr = g.store.GetMetaDataForMaterialize(reqCtx, view.URLPath, mode, origin)
			done <- storeErr
		}()

		var err error
		select {
		case err = <-done:
		case <-reqCtx.Done():
			err = reqCtx.Err()
		}
		if err != nil {
			deliver(Response{CorrelationID: correlationID, Err: wrapTimeout(err)})
			return
		}

		deliver(Response{
			CorrelationID: correlationID,
			Event: state.MetaDataForMaterialize{
				Version:   version,
				Timestamp: timestamp,
				Mode:      mode,
				Origin:    origin,
			},
		})
	}()
}

func wrapTimeout(err error) error {
	if err == context.DeadlineExceeded {
		return standarderrors.ErrMetadataFetchTimeout
	}
	return err
}
