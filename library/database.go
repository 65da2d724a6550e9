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
	"strconv"
	"strings"

	"github.com/georgysavva/scany/v2/sqlscan"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/penny-vault/pvsec/data"
	"github.com/penny-vault/pvsec/db"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Library is the relational store that filings, facts and macro
// observations are synchronized into
type Library struct {
	DBUrl   string
	Dialect db.Dialect

	DB *sql.DB
}

// Open connects to the database at dbURL and applies any outstanding migrations
func Open(ctx context.Context, dbURL string) (*Library, error) {
	dialect, driverName, dsn, err := db.ParseURL(dbURL)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(dbURL); err != nil {
		return nil, err
	}

	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	// the sync routines are single threaded; a single sqlite connection
	// also keeps writers from tripping over SQLITE_BUSY
	if dialect == db.SQLite {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &Library{
		DBUrl:   dbURL,
		Dialect: dialect,
		DB:      conn,
	}, nil
}

// Close the database handle
func (myLibrary *Library) Close() {
	if err := myLibrary.DB.Close(); err != nil {
		log.Error().Err(err).Msg("error closing database")
	}
}

// TrackedEntities returns the distinct CIKs already present in filings_raw
func (myLibrary *Library) TrackedEntities(ctx context.Context) ([]int64, error) {
	var ciks []int64
	err := sqlscan.Select(ctx, myLibrary.DB, &ciks, "SELECT DISTINCT cik FROM filings_raw ORDER BY cik")
	return ciks, err
}

// Begin starts a new batch of writes. Nothing is visible to other readers
// until Commit is called.
func (myLibrary *Library) Begin(ctx context.Context) (*Batch, error) {
	tx, err := myLibrary.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	return &Batch{
		tx:      tx,
		dialect: myLibrary.Dialect,
	}, nil
}

// Filings returns every stored filing ordered by cik and filing date
func (myLibrary *Library) Filings(ctx context.Context) ([]*data.FilingRecord, error) {
	var filings []*data.FilingRecord
	err := sqlscan.Select(ctx, myLibrary.DB, &filings, `SELECT cik, coalesce(form_type, '') AS form_type,
coalesce(filing_date, '') AS filing_date, coalesce(accession_number, '') AS accession_number,
coalesce(stage, '') AS stage FROM filings_raw ORDER BY cik, filing_date, accession_number`)
	return filings, err
}

// FactSnapshots returns every stored fact snapshot
func (myLibrary *Library) FactSnapshots(ctx context.Context) ([]*data.FactSnapshot, error) {
	var facts []*data.FactSnapshot
	err := sqlscan.Select(ctx, myLibrary.DB, &facts, `SELECT cik, fiscal_year, revenue, net_income, assets,
shares_basic FROM issuer_facts ORDER BY cik, fiscal_year`)
	return facts, err
}

// FactSnapshot returns the snapshot for the given entity and year
func (myLibrary *Library) FactSnapshot(ctx context.Context, cik int64, fiscalYear int) (*data.FactSnapshot, error) {
	facts := &data.FactSnapshot{}
	err := sqlscan.Get(ctx, myLibrary.DB, facts, myLibrary.rebind(`SELECT cik, fiscal_year, revenue, net_income,
assets, shares_basic FROM issuer_facts WHERE cik=? AND fiscal_year=?`), cik, fiscalYear)
	if err != nil {
		return nil, err
	}

	return facts, nil
}

// MacroObservations returns every stored macro observation
func (myLibrary *Library) MacroObservations(ctx context.Context) ([]*data.MacroObservation, error) {
	var observations []*data.MacroObservation
	err := sqlscan.Select(ctx, myLibrary.DB, &observations, "SELECT series, date, value FROM macro_daily ORDER BY series, date")
	return observations, err
}

func (myLibrary *Library) count(ctx context.Context, query string) (int, error) {
	count := 0
	err := myLibrary.DB.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

// NumTrackedEntities returns the number of distinct issuers in the library
func (myLibrary *Library) NumTrackedEntities(ctx context.Context) (int, error) {
	return myLibrary.count(ctx, "SELECT count(DISTINCT cik) FROM filings_raw")
}

// NumFilings returns the total number of stored filings
func (myLibrary *Library) NumFilings(ctx context.Context) (int, error) {
	return myLibrary.count(ctx, "SELECT count(*) FROM filings_raw")
}

// NumFactSnapshots returns the total number of stored fact snapshots
func (myLibrary *Library) NumFactSnapshots(ctx context.Context) (int, error) {
	return myLibrary.count(ctx, "SELECT count(*) FROM issuer_facts")
}

// NumMacroObservations returns the total number of stored macro observations
func (myLibrary *Library) NumMacroObservations(ctx context.Context) (int, error) {
	return myLibrary.count(ctx, "SELECT count(*) FROM macro_daily")
}

// LatestFilingDate returns the most recent filing date in the library or an
// empty string if there are no dated filings
func (myLibrary *Library) LatestFilingDate(ctx context.Context) (string, error) {
	var latest sql.NullString
	err := myLibrary.DB.QueryRowContext(ctx, "SELECT max(filing_date) FROM filings_raw").Scan(&latest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}

	return latest.String, err
}

func (myLibrary *Library) rebind(query string) string {
	return rebind(myLibrary.Dialect, query)
}

// rebind converts ? placeholders to the $N form postgres expects
func rebind(dialect db.Dialect, query string) string {
	if dialect != db.Postgres {
		return query
	}

	builder := strings.Builder{}
	builder.Grow(len(query) + 8)

	idx := 0
	for _, ch := range query {
		if ch == '?' {
			idx++
			builder.WriteByte('$')
			builder.WriteString(strconv.Itoa(idx))
			continue
		}
		builder.WriteRune(ch)
	}

	return builder.String()
}
