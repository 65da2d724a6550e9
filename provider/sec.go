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
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/penny-vault/pvsec/data"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const DefaultSECBaseURL = "https://data.sec.gov"

var (
	ErrMisalignedFilings = errors.New("filing index sequences have different lengths")
)

// SEC retrieves filing indexes and structured company facts from EDGAR. All
// requests made through one SEC value are spaced at least delay apart.
type SEC struct {
	baseURL string
	client  *resty.Client
	limiter *rate.Limiter
}

// NewSEC creates an EDGAR client. SEC requires every request to identify
// the caller with a descriptive user agent.
func NewSEC(baseURL, userAgent string, delay, timeout time.Duration) *SEC {
	if baseURL == "" {
		baseURL = DefaultSECBaseURL
	}

	return &SEC{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newClient(userAgent, timeout),
		limiter: rate.NewLimiter(rate.Every(delay), 1),
	}
}

type secSubmissions struct {
	Name    string `json:"name"`
	Filings struct {
		Recent secRecentFilings `json:"recent"`
	} `json:"filings"`
}

type secRecentFilings struct {
	Form            []string `json:"form"`
	FilingDate      []string `json:"filingDate"`
	AccessionNumber []string `json:"accessionNumber"`
}

// CompanyFacts is the structured facts document for one issuer
type CompanyFacts struct {
	EntityName string                   `json:"entityName"`
	Facts      map[string]FactNamespace `json:"facts"`
}

// FactNamespace maps a fact tag (e.g. Revenues) to its reported values
type FactNamespace map[string]*FactTag

type FactTag struct {
	Label string `json:"label"`

	// Units maps a unit of measure (USD, shares, ...) to data points
	Units map[string][]*FactPoint `json:"units"`
}

type FactPoint struct {
	End   string          `json:"end"`
	Val   decimal.Decimal `json:"val"`
	Form  string          `json:"form"`
	Filed string          `json:"filed"`
}

// Namespace returns the named fact namespace (e.g. us-gaap) or an empty one
func (facts *CompanyFacts) Namespace(name string) FactNamespace {
	if ns, ok := facts.Facts[name]; ok && ns != nil {
		return ns
	}
	return FactNamespace{}
}

func (sec *SEC) get(ctx context.Context, url string, result interface{}) error {
	if err := sec.limiter.Wait(ctx); err != nil {
		return err
	}

	return fetchJSON(ctx, sec.client.R(), url, result)
}

// Filings fetches the recent filing index for cik. The index lists form
// types, filing dates and accession numbers as three parallel sequences;
// they must have the same length or ErrMisalignedFilings is returned.
func (sec *SEC) Filings(ctx context.Context, cik int64) ([]*data.FilingRecord, error) {
	url := fmt.Sprintf("%s/submissions/CIK%s.json", sec.baseURL, data.PadCIK(cik))

	var resp secSubmissions
	if err := sec.get(ctx, url, &resp); err != nil {
		return nil, err
	}

	recent := resp.Filings.Recent
	if len(recent.Form) != len(recent.FilingDate) || len(recent.Form) != len(recent.AccessionNumber) {
		return nil, fmt.Errorf("%w: cik %d has %d forms, %d filing dates, %d accession numbers", ErrMisalignedFilings,
			cik, len(recent.Form), len(recent.FilingDate), len(recent.AccessionNumber))
	}

	filings := make([]*data.FilingRecord, 0, len(recent.Form))
	for idx, form := range recent.Form {
		filings = append(filings, &data.FilingRecord{
			CIK:             cik,
			FormType:        form,
			FilingDate:      recent.FilingDate[idx],
			AccessionNumber: recent.AccessionNumber[idx],
		})
	}

	return filings, nil
}

// CompanyFacts fetches the XBRL company facts document for cik
func (sec *SEC) CompanyFacts(ctx context.Context, cik int64) (*CompanyFacts, error) {
	url := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%s.json", sec.baseURL, data.PadCIK(cik))

	facts := &CompanyFacts{}
	if err := sec.get(ctx, url, facts); err != nil {
		return nil, err
	}

	return facts, nil
}
