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
	"database/sql"
	"errors"

	"github.com/penny-vault/pvsec/data"
	"github.com/penny-vault/pvsec/db"
	"github.com/rs/zerolog/log"
)

// Batch groups writes into a single transaction
type Batch struct {
	tx      *sql.Tx
	dialect db.Dialect
}

// FilingExists checks for a filing by its natural key (cik, accession number)
func (batch *Batch) FilingExists(ctx context.Context, cik int64, accessionNumber string) (bool, error) {
	var one int
	err := batch.tx.QueryRowContext(ctx, rebind(batch.dialect,
		"SELECT 1 FROM filings_raw WHERE cik=? AND accession_number=?"), cik, accessionNumber).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

// InsertFiling saves the filing unless one with the same natural key is
// already stored. The stage is always set to data.InitialStage. Returns true
// if a row was written.
func (batch *Batch) InsertFiling(ctx context.Context, filing *data.FilingRecord) (bool, error) {
	exists, err := batch.FilingExists(ctx, filing.CIK, filing.AccessionNumber)
	if err != nil {
		return false, err
	}

	if exists {
		return false, nil
	}

	filing.Stage = data.InitialStage
	_, err = batch.tx.ExecContext(ctx, rebind(batch.dialect, `INSERT INTO filings_raw
(cik, form_type, filing_date, accession_number, stage) VALUES (?, ?, ?, ?, ?)`),
		filing.CIK, filing.FormType, filing.FilingDate, filing.AccessionNumber, filing.Stage)
	if err != nil {
		return false, err
	}

	return true, nil
}

// ReplaceFacts overwrites the snapshot stored for (cik, fiscal year) in
// full; columns that are NULL in facts become NULL in the table
func (batch *Batch) ReplaceFacts(ctx context.Context, facts *data.FactSnapshot) error {
	_, err := batch.tx.ExecContext(ctx, rebind(batch.dialect, `INSERT INTO issuer_facts
(cik, fiscal_year, revenue, net_income, assets, shares_basic) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (cik, fiscal_year) DO UPDATE SET
revenue=excluded.revenue, net_income=excluded.net_income, assets=excluded.assets,
shares_basic=excluded.shares_basic`),
		facts.CIK, facts.FiscalYear, facts.Revenue, facts.NetIncome, facts.Assets, facts.SharesBasic)
	return err
}

// InsertMacroObservation saves the observation if (series, date) is not
// already present; existing observations are never overwritten. Returns true
// if a row was written.
func (batch *Batch) InsertMacroObservation(ctx context.Context, obs *data.MacroObservation) (bool, error) {
	result, err := batch.tx.ExecContext(ctx, rebind(batch.dialect, `INSERT INTO macro_daily
(series, date, value) VALUES (?, ?, ?) ON CONFLICT (series, date) DO NOTHING`),
		obs.Series, obs.Date, obs.Value)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// Commit persists all writes made in the batch
func (batch *Batch) Commit() error {
	return batch.tx.Commit()
}

// Rollback discards the batch; it is a no-op after Commit
func (batch *Batch) Rollback() {
	if err := batch.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Error().Err(err).Msg("error rolling back tx")
	}
}
