// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ingest implements the incremental synchronization routines that
// keep the library up to date: filing sync, fact enrichment and macro sync.
// Each routine is a stateless pass driven by what is already in storage.
package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/penny-vault/pvsec/config"
	"github.com/penny-vault/pvsec/data"
	"github.com/penny-vault/pvsec/library"
	"github.com/penny-vault/pvsec/provider"
	"github.com/rs/zerolog"
)

type FilingSource interface {
	Filings(ctx context.Context, cik int64) ([]*data.FilingRecord, error)
}

type FactSource interface {
	CompanyFacts(ctx context.Context, cik int64) (*provider.CompanyFacts, error)
}

type MacroSource interface {
	Observations(ctx context.Context, seriesID string) ([]*provider.FredObservation, error)
}

// Syncer runs the synchronization routines against one library
type Syncer struct {
	Config  *config.Config
	Library *library.Library

	Filings FilingSource
	Facts   FactSource
	Macro   MacroSource

	// Now reports the current time; the fiscal year of fact snapshots is
	// taken from it
	Now func() time.Time
}

// NewSyncer wires the EDGAR and FRED clients described by cfg
func NewSyncer(cfg *config.Config, myLibrary *library.Library) *Syncer {
	sec := provider.NewSEC(cfg.SEC.BaseURL, cfg.SEC.UserAgent, cfg.SEC.Delay, cfg.SEC.Timeout)
	return &Syncer{
		Config:  cfg,
		Library: myLibrary,
		Filings: sec,
		Facts:   sec,
		Macro:   provider.NewFred(cfg.Fred.BaseURL, cfg.Fred.APIKey, cfg.Fred.Timeout),
		Now:     time.Now,
	}
}

// Run executes filing sync, fact enrichment and macro sync in that order.
// Unavailable remote sources never fail the run; any other error aborts
// it and the summaries of the routines that completed are returned.
func (syncer *Syncer) Run(ctx context.Context) ([]data.RunSummary, error) {
	routines := []func(context.Context) (data.RunSummary, error){
		syncer.SyncFilings,
		syncer.EnrichFacts,
		syncer.SyncMacro,
	}

	summaries := make([]data.RunSummary, 0, len(routines))
	for _, routine := range routines {
		summary, err := routine(ctx)
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

func newSummary(routine string) data.RunSummary {
	return data.RunSummary{
		Routine:   routine,
		StartTime: time.Now(),
	}
}

// skippable reports if err means the remote source was unavailable; it is
// logged and the caller moves on to the next entity
func skippable(logger *zerolog.Logger, err error) bool {
	if !errors.Is(err, provider.ErrUnavailable) {
		return false
	}

	logger.Warn().Err(err).Msg("remote source unavailable, skipping")
	return true
}
