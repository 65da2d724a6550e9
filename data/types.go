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
package data

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// InitialStage is the stage label every new filing is created with
const InitialStage = "Filed"

// allowedForms lists the securities-offering filings (and their
// effectiveness / withdrawal notices) that are tracked
var allowedForms = map[string]bool{
	"S-1":    true,
	"F-1":    true,
	"S-1/A":  true,
	"F-1/A":  true,
	"424B4":  true,
	"EFFECT": true,
	"RW":     true,
}

var accessionMatcher = regexp.MustCompile(`/(\d{18})(?:/|$)`)

// IsAllowedForm reports if filings of the given form type are stored
func IsAllowedForm(formType string) bool {
	return allowedForms[formType]
}

// AllowedForms returns the form types recognized by the filing sync
func AllowedForms() []string {
	forms := make([]string, 0, len(allowedForms))
	for form := range allowedForms {
		forms = append(forms, form)
	}
	return forms
}

// FilingRecord is a single row of the filings_raw table
type FilingRecord struct {
	CIK             int64  `db:"cik"`
	FormType        string `db:"form_type"`
	FilingDate      string `db:"filing_date"`
	AccessionNumber string `db:"accession_number"`
	Stage           string `db:"stage"`
}

// ArchiveURL returns the EDGAR archive folder that holds the filing documents
func (filing *FilingRecord) ArchiveURL() string {
	return fmt.Sprintf("https://www.sec.gov/Archives/edgar/data/%s/%s", PadCIK(filing.CIK),
		strings.ReplaceAll(filing.AccessionNumber, "-", ""))
}

// FactSnapshot holds the latest reported financial facts for an issuer. A
// NULL value means the issuer did not report the fact.
type FactSnapshot struct {
	CIK         int64               `db:"cik"`
	FiscalYear  int                 `db:"fiscal_year"`
	Revenue     decimal.NullDecimal `db:"revenue"`
	NetIncome   decimal.NullDecimal `db:"net_income"`
	Assets      decimal.NullDecimal `db:"assets"`
	SharesBasic decimal.NullDecimal `db:"shares_basic"`
}

// MacroObservation is one dated value of a macroeconomic series
type MacroObservation struct {
	Series string              `db:"series"`
	Date   string              `db:"date"`
	Value  decimal.NullDecimal `db:"value"`
}

// PadCIK formats a CIK as the zero-padded 10 digit string used in SEC urls
func PadCIK(cik int64) string {
	return fmt.Sprintf("%010d", cik)
}

// ParseAccessionNumber extracts the dashed accession number from an EDGAR
// archive url, e.g. .../data/320193/000032019324000001/ -> 0000320193-24-000001
func ParseAccessionNumber(archiveURL string) (string, bool) {
	match := accessionMatcher.FindStringSubmatch(archiveURL)
	if match == nil {
		return "", false
	}

	acc := match[1]
	return fmt.Sprintf("%s-%s-%s", acc[:10], acc[10:12], acc[12:]), true
}
