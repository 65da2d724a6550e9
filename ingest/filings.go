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

	"github.com/penny-vault/pvsec/data"
	"github.com/rs/zerolog"
)

// SyncFilings fetches the filing index of every tracked entity and inserts
// allowlisted filings that are not stored yet. Each entity is committed
// before the next one is requested.
func (syncer *Syncer) SyncFilings(ctx context.Context) (summary data.RunSummary, err error) {
	logger := zerolog.Ctx(ctx).With().Str("Routine", data.FilingSyncRoutine).Logger()
	summary = newSummary(data.FilingSyncRoutine)

	defer func() {
		summary.EndTime = time.Now()
	}()

	ciks, err := syncer.Library.TrackedEntities(ctx)
	if err != nil {
		return summary, fmt.Errorf("could not list tracked entities: %w", err)
	}

	logger.Info().Int("NumEntities", len(ciks)).Msg("syncing filings")

	for _, cik := range ciks {
		entityLogger := logger.With().Int64("CIK", cik).Logger()
		summary.Entities++

		filings, err := syncer.Filings.Filings(ctx, cik)
		if err != nil {
			if skippable(&entityLogger, err) {
				summary.Skipped++
				continue
			}
			return summary, err
		}

		numInserted, err := syncer.saveFilings(ctx, filings)
		if err != nil {
			return summary, fmt.Errorf("could not save filings for cik %d: %w", cik, err)
		}

		summary.Written += numInserted
		entityLogger.Debug().Int("NumFilings", len(filings)).Int("NumInserted", numInserted).Msg("filings synced")
	}

	return summary, nil
}

func (syncer *Syncer) saveFilings(ctx context.Context, filings []*data.FilingRecord) (int, error) {
	batch, err := syncer.Library.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer batch.Rollback()

	numInserted := 0
	for _, filing := range filings {
		if !data.IsAllowedForm(filing.FormType) {
			continue
		}

		inserted, err := batch.InsertFiling(ctx, filing)
		if err != nil {
			return 0, err
		}

		if inserted {
			numInserted++
			zerolog.Ctx(ctx).Info().Int64("CIK", filing.CIK).Str("FormType", filing.FormType).
				Str("AccessionNumber", filing.AccessionNumber).Str("ArchiveURL", filing.ArchiveURL()).Msg("new filing")
		}
	}

	if err := batch.Commit(); err != nil {
		return 0, err
	}

	return numInserted, nil
}
