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
package library

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

const (
	FilingsTable = "filings"
	FactsTable   = "facts"
	MacroTable   = "macro"
)

var (
	ErrUnknownTable = errors.New("unknown table")
)

type filingRow struct {
	CIK             int64  `csv:"cik"`
	FormType        string `csv:"form_type"`
	FilingDate      string `csv:"filing_date"`
	AccessionNumber string `csv:"accession_number"`
	Stage           string `csv:"stage"`
	ArchiveURL      string `csv:"archive_url"`
}

type factRow struct {
	CIK         int64  `csv:"cik"`
	FiscalYear  int    `csv:"fiscal_year"`
	Revenue     string `csv:"revenue"`
	NetIncome   string `csv:"net_income"`
	Assets      string `csv:"assets"`
	SharesBasic string `csv:"shares_basic"`
}

type macroRow struct {
	Series string `csv:"series"`
	Date   string `csv:"date"`
	Value  string `csv:"value"`
}

// ExportTables lists the table names accepted by ExportCSV
func ExportTables() []string {
	return []string{FilingsTable, FactsTable, MacroTable}
}

// ExportCSV writes every row of table as CSV to out. NULL values are
// written as empty fields.
func (myLibrary *Library) ExportCSV(ctx context.Context, table string, out io.Writer) error {
	var rows interface{}

	switch table {
	case FilingsTable:
		filings, err := myLibrary.Filings(ctx)
		if err != nil {
			return err
		}

		filingRows := make([]*filingRow, 0, len(filings))
		for _, filing := range filings {
			filingRows = append(filingRows, &filingRow{
				CIK:             filing.CIK,
				FormType:        filing.FormType,
				FilingDate:      filing.FilingDate,
				AccessionNumber: filing.AccessionNumber,
				Stage:           filing.Stage,
				ArchiveURL:      filing.ArchiveURL(),
			})
		}
		rows = filingRows

	case FactsTable:
		facts, err := myLibrary.FactSnapshots(ctx)
		if err != nil {
			return err
		}

		factRows := make([]*factRow, 0, len(facts))
		for _, snapshot := range facts {
			factRows = append(factRows, &factRow{
				CIK:         snapshot.CIK,
				FiscalYear:  snapshot.FiscalYear,
				Revenue:     nullString(snapshot.Revenue),
				NetIncome:   nullString(snapshot.NetIncome),
				Assets:      nullString(snapshot.Assets),
				SharesBasic: nullString(snapshot.SharesBasic),
			})
		}
		rows = factRows

	case MacroTable:
		observations, err := myLibrary.MacroObservations(ctx)
		if err != nil {
			return err
		}

		macroRows := make([]*macroRow, 0, len(observations))
		for _, obs := range observations {
			macroRows = append(macroRows, &macroRow{
				Series: obs.Series,
				Date:   obs.Date,
				Value:  nullString(obs.Value),
			})
		}
		rows = macroRows

	default:
		return fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}

	return gocsv.Marshal(rows, out)
}

func nullString(val decimal.NullDecimal) string {
	if !val.Valid {
		return ""
	}
	return val.Decimal.String()
}
