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
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/penny-vault/pvsec/config"
	"github.com/penny-vault/pvsec/data"
	"github.com/penny-vault/pvsec/provider"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SyncMacro stores the latest observation of every configured macro series
// unless it is already present. All series share a single commit.
func (syncer *Syncer) SyncMacro(ctx context.Context) (summary data.RunSummary, err error) {
	logger := zerolog.Ctx(ctx).With().Str("Routine", data.MacroSyncRoutine).Logger()
	summary = newSummary(data.MacroSyncRoutine)

	defer func() {
		summary.EndTime = time.Now()
	}()

	batch, err := syncer.Library.Begin(ctx)
	if err != nil {
		return summary, err
	}
	defer batch.Rollback()

	for _, series := range syncer.Config.Fred.Series {
		seriesLogger := logger.With().Str("Series", series.Name).Str("SeriesID", series.ID).Logger()
		summary.Entities++

		observations, err := syncer.Macro.Observations(ctx, series.ID)
		if err != nil {
			if skippable(&seriesLogger, err) {
				summary.Skipped++
				continue
			}
			return summary, err
		}

		obs, err := latestObservation(series, observations)
		if err != nil {
			return summary, err
		}

		inserted, err := batch.InsertMacroObservation(ctx, obs)
		if err != nil {
			return summary, fmt.Errorf("could not save observation for %s: %w", series.Name, err)
		}

		if inserted {
			summary.Written++
		}

		seriesLogger.Debug().Str("Date", obs.Date).Bool("Inserted", inserted).Msg("macro series synced")
	}

	if err := batch.Commit(); err != nil {
		return summary, err
	}

	return summary, nil
}

// latestObservation converts the last observation FRED returned; the
// remote ordering is trusted to be chronological
func latestObservation(series config.Series, observations []*provider.FredObservation) (*data.MacroObservation, error) {
	if len(observations) == 0 {
		return nil, fmt.Errorf("%w: series %s returned no observations", provider.ErrMalformed, series.ID)
	}

	last := observations[len(observations)-1]
	obs := &data.MacroObservation{
		Series: series.Name,
		Date:   last.Date,
	}

	if last.Missing() {
		return obs, nil
	}

	val, err := decimal.NewFromString(last.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: series %s value %q: %w", provider.ErrMalformed, series.ID, last.Value, err)
	}

	obs.Value = decimal.NewNullDecimal(val)
	return obs, nil
}
