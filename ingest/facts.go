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
	"github.com/penny-vault/pvsec/provider"
	"github.com/rs/zerolog"
)

const (
	USGaapNamespace = "us-gaap"
	USDUnit         = "USD"
	SharesUnit      = "shares"
)

// fact tags in order of preference
var (
	revenueTags = []string{
		"Revenues",
		"RevenueFromContractWithCustomerExcludingAssessedTax",
		"SalesRevenueNet",
	}
	netIncomeTags = []string{
		"NetIncomeLoss",
		"ProfitLoss",
		"NetIncomeLossAvailableToCommonStockholdersBasic",
	}
	assetsTags      = []string{"Assets"}
	sharesBasicTags = []string{"WeightedAverageSharesOutstandingBasic"}
)

// EnrichFacts fetches the structured facts of every tracked entity and
// replaces its snapshot for the current calendar year
func (syncer *Syncer) EnrichFacts(ctx context.Context) (summary data.RunSummary, err error) {
	logger := zerolog.Ctx(ctx).With().Str("Routine", data.FactEnrichmentRoutine).Logger()
	summary = newSummary(data.FactEnrichmentRoutine)

	defer func() {
		summary.EndTime = time.Now()
	}()

	ciks, err := syncer.Library.TrackedEntities(ctx)
	if err != nil {
		return summary, fmt.Errorf("could not list tracked entities: %w", err)
	}

	logger.Info().Int("NumEntities", len(ciks)).Msg("enriching facts")

	for _, cik := range ciks {
		entityLogger := logger.With().Int64("CIK", cik).Logger()
		summary.Entities++

		companyFacts, err := syncer.Facts.CompanyFacts(ctx, cik)
		if err != nil {
			if skippable(&entityLogger, err) {
				summary.Skipped++
				continue
			}
			return summary, err
		}

		snapshot := BuildSnapshot(cik, syncer.Now().Year(), companyFacts)
		if err := syncer.saveSnapshot(ctx, snapshot); err != nil {
			return summary, fmt.Errorf("could not save facts for cik %d: %w", cik, err)
		}

		summary.Written++
		entityLogger.Debug().Str("EntityName", companyFacts.EntityName).Int("FiscalYear", snapshot.FiscalYear).Msg("facts replaced")
	}

	return summary, nil
}

// BuildSnapshot extracts the tracked fields from a company facts document
func BuildSnapshot(cik int64, fiscalYear int, companyFacts *provider.CompanyFacts) *data.FactSnapshot {
	ns := companyFacts.Namespace(USGaapNamespace)
	return &data.FactSnapshot{
		CIK:         cik,
		FiscalYear:  fiscalYear,
		Revenue:     LatestValue(ns, revenueTags, USDUnit),
		NetIncome:   LatestValue(ns, netIncomeTags, USDUnit),
		Assets:      LatestValue(ns, assetsTags, USDUnit),
		SharesBasic: LatestValue(ns, sharesBasicTags, SharesUnit),
	}
}

func (syncer *Syncer) saveSnapshot(ctx context.Context, snapshot *data.FactSnapshot) error {
	batch, err := syncer.Library.Begin(ctx)
	if err != nil {
		return err
	}
	defer batch.Rollback()

	if err := batch.ReplaceFacts(ctx, snapshot); err != nil {
		return err
	}

	return batch.Commit()
}
