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
package ingest_test

import (
	"context"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pvsec/data"
	"github.com/penny-vault/pvsec/ingest"
	"github.com/penny-vault/pvsec/library"
	"github.com/penny-vault/pvsec/provider"
)

const appleFacts = `{
  "cik": 320193,
  "entityName": "Apple Inc.",
  "facts": {
    "dei": {
      "EntityCommonStockSharesOutstanding": {"units": {"shares": [{"end": "2024-01-19", "val": 15441881000}]}}
    },
    "us-gaap": {
      "Revenues": {"label": "Revenues", "units": {"USD": [
        {"end": "2023-12-31", "val": 150, "form": "10-K", "filed": "2024-02-01"},
        {"end": "2022-12-31", "val": 100, "form": "10-K", "filed": "2023-02-01"}
      ]}},
      "NetIncomeLoss": {"units": {"USD": [{"end": "2023-09-30", "val": -42}]}},
      "Assets": {"units": {"USD": [{"end": "2023-09-30", "val": 352583000000}]}},
      "WeightedAverageSharesOutstandingBasic": {"units": {
        "USD": [{"end": "2023-09-30", "val": 1}],
        "shares": [{"end": "2023-09-30", "val": 15744231000}]
      }}
    }
  }
}`

const appleFactsWithoutAssets = `{
  "entityName": "Apple Inc.",
  "facts": {
    "us-gaap": {
      "Revenues": {"units": {"USD": [{"end": "2024-12-31", "val": 175}]}},
      "NetIncomeLoss": {"units": {"USD": [{"end": "2024-09-30", "val": 10}]}},
      "WeightedAverageSharesOutstandingBasic": {"units": {"shares": [{"end": "2024-09-30", "val": 15000000000}]}}
    }
  }
}`

var _ = Describe("Fact enrichment", func() {
	var (
		ctx       context.Context
		remote    *fakeRemote
		myLibrary *library.Library
		syncer    *ingest.Syncer
	)

	BeforeEach(func() {
		ctx = context.Background()
		remote = newFakeRemote()
		DeferCleanup(remote.close)

		myLibrary = openTestLibrary(ctx)
		syncer = ingest.NewSyncer(testConfig(remote.server.URL), myLibrary)
		syncer.Now = func() time.Time {
			return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		}

		seedFiling(ctx, myLibrary, 320193, "S-1", "2023-01-05", "0000320193-23-000001", "Filed")
		remote.set("/api/xbrl/companyfacts/CIK0000320193.json", http.StatusOK, appleFacts)
	})

	It("stores the latest value of each field for the current year", func() {
		summary, err := syncer.EnrichFacts(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Routine).To(Equal(data.FactEnrichmentRoutine))
		Expect(summary.Written).To(Equal(1))

		snapshot, err := myLibrary.FactSnapshot(ctx, 320193, 2024)
		Expect(err).NotTo(HaveOccurred())
		Expect(snapshot.Revenue.Valid).To(BeTrue())
		Expect(snapshot.Revenue.Decimal.String()).To(Equal("150"))
		Expect(snapshot.NetIncome.Decimal.String()).To(Equal("-42"))
		Expect(snapshot.Assets.Decimal.String()).To(Equal("352583000000"))
		Expect(snapshot.SharesBasic.Decimal.String()).To(Equal("15744231000"))
	})

	It("replaces the snapshot in full on the next run", func() {
		_, err := syncer.EnrichFacts(ctx)
		Expect(err).NotTo(HaveOccurred())

		remote.set("/api/xbrl/companyfacts/CIK0000320193.json", http.StatusOK, appleFactsWithoutAssets)
		_, err = syncer.EnrichFacts(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(count(ctx, myLibrary, "SELECT count(*) FROM issuer_facts WHERE cik=320193 AND fiscal_year=2024")).To(Equal(1))

		snapshot, err := myLibrary.FactSnapshot(ctx, 320193, 2024)
		Expect(err).NotTo(HaveOccurred())
		Expect(snapshot.Revenue.Decimal.String()).To(Equal("175"))
		Expect(snapshot.NetIncome.Decimal.String()).To(Equal("10"))
		Expect(snapshot.Assets.Valid).To(BeFalse())
		Expect(snapshot.SharesBasic.Decimal.String()).To(Equal("15000000000"))
	})

	It("keeps snapshots of other years", func() {
		_, err := syncer.EnrichFacts(ctx)
		Expect(err).NotTo(HaveOccurred())

		syncer.Now = func() time.Time {
			return time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
		}
		_, err = syncer.EnrichFacts(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(count(ctx, myLibrary, "SELECT count(*) FROM issuer_facts WHERE cik=320193")).To(Equal(2))
	})

	It("writes an all-NULL snapshot when the issuer reports no us-gaap facts", func() {
		remote.set("/api/xbrl/companyfacts/CIK0000320193.json", http.StatusOK, `{"entityName": "Shell Co", "facts": {}}`)

		_, err := syncer.EnrichFacts(ctx)
		Expect(err).NotTo(HaveOccurred())

		snapshot, err := myLibrary.FactSnapshot(ctx, 320193, 2024)
		Expect(err).NotTo(HaveOccurred())
		Expect(snapshot.Revenue.Valid).To(BeFalse())
		Expect(snapshot.NetIncome.Valid).To(BeFalse())
		Expect(snapshot.Assets.Valid).To(BeFalse())
		Expect(snapshot.SharesBasic.Valid).To(BeFalse())
	})

	It("skips unavailable entities and leaves their snapshot untouched", func() {
		_, err := syncer.EnrichFacts(ctx)
		Expect(err).NotTo(HaveOccurred())

		seedFiling(ctx, myLibrary, 1000, "F-1", "2022-03-01", "0000001000-22-000001", "Filed")
		remote.set("/api/xbrl/companyfacts/CIK0000001000.json", http.StatusOK, appleFactsWithoutAssets)
		remote.set("/api/xbrl/companyfacts/CIK0000320193.json", http.StatusServiceUnavailable, "")

		summary, err := syncer.EnrichFacts(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Entities).To(Equal(2))
		Expect(summary.Skipped).To(Equal(1))
		Expect(summary.Written).To(Equal(1))

		snapshot, err := myLibrary.FactSnapshot(ctx, 320193, 2024)
		Expect(err).NotTo(HaveOccurred())
		Expect(snapshot.Assets.Decimal.String()).To(Equal("352583000000"))

		Expect(count(ctx, myLibrary, "SELECT count(*) FROM issuer_facts WHERE cik=1000")).To(Equal(1))
	})

	It("aborts on a malformed facts document", func() {
		remote.set("/api/xbrl/companyfacts/CIK0000320193.json", http.StatusOK, `{"facts": {"us-gaap": []}}`)

		_, err := syncer.EnrichFacts(ctx)
		Expect(err).To(MatchError(provider.ErrMalformed))
	})

	It("keeps snapshots committed for earlier entities when a later one fails", func() {
		seedFiling(ctx, myLibrary, 1000, "S-1", "2022-03-01", "0000001000-22-000001", "Filed")
		seedFiling(ctx, myLibrary, 2000, "F-1", "2022-04-01", "0000002000-22-000001", "Filed")
		remote.set("/api/xbrl/companyfacts/CIK0000001000.json", http.StatusOK, appleFactsWithoutAssets)
		remote.set("/api/xbrl/companyfacts/CIK0000002000.json", http.StatusOK, `{"facts": {"us-gaap": []}}`)

		summary, err := syncer.EnrichFacts(ctx)
		Expect(err).To(MatchError(provider.ErrMalformed))
		Expect(summary.Written).To(Equal(1))

		snapshot, err := myLibrary.FactSnapshot(ctx, 1000, 2024)
		Expect(err).NotTo(HaveOccurred())
		Expect(snapshot.Revenue.Decimal.String()).To(Equal("175"))
		Expect(count(ctx, myLibrary, "SELECT count(*) FROM issuer_facts WHERE cik=320193")).To(Equal(0))
	})

	It("falls back to the contract revenue and profit tags reported by current filers", func() {
		remote.set("/api/xbrl/companyfacts/CIK0000320193.json", http.StatusOK, `{
  "entityName": "Apple Inc.",
  "facts": {
    "us-gaap": {
      "RevenueFromContractWithCustomerExcludingAssessedTax": {"units": {"USD": [
        {"end": "2022-09-24", "val": 394328000000},
        {"end": "2023-09-30", "val": 383285000000}
      ]}},
      "SalesRevenueNet": {"units": {"USD": [{"end": "2018-09-29", "val": 265595000000}]}},
      "ProfitLoss": {"units": {"USD": [{"end": "2023-09-30", "val": 96995000000}]}}
    }
  }
}`)

		_, err := syncer.EnrichFacts(ctx)
		Expect(err).NotTo(HaveOccurred())

		snapshot, err := myLibrary.FactSnapshot(ctx, 320193, 2024)
		Expect(err).NotTo(HaveOccurred())
		Expect(snapshot.Revenue.Decimal.String()).To(Equal("383285000000"))
		Expect(snapshot.NetIncome.Decimal.String()).To(Equal("96995000000"))
	})
})
