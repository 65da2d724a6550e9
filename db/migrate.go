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
package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*
var migrationFS embed.FS

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

var (
	ErrEmptyURL = errors.New("database url is empty")
)

// ParseURL determines the storage dialect from a database url and returns the
// dialect, the database/sql driver name, and the driver specific DSN. Anything
// that is not a postgres url is treated as the path of a SQLite database.
func ParseURL(databaseURL string) (Dialect, string, string, error) {
	databaseURL = strings.TrimSpace(databaseURL)
	switch {
	case databaseURL == "":
		return "", "", "", ErrEmptyURL
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return Postgres, "pgx", databaseURL, nil
	default:
		return SQLite, "sqlite", strings.TrimPrefix(databaseURL, "sqlite://"), nil
	}
}

// Migrate brings the schema of the database at databaseURL up to date. It
// runs on its own handle, closed before returning, so connections reserved by
// the migration driver are not held by the caller's pool.
func Migrate(databaseURL string) error {
	dialect, driverName, dsn, err := ParseURL(databaseURL)
	if err != nil {
		return err
	}

	instance, err := sql.Open(driverName, dsn)
	if err != nil {
		return err
	}

	var driver database.Driver
	switch dialect {
	case SQLite:
		driver, err = migratesqlite.WithInstance(instance, &migratesqlite.Config{})
	case Postgres:
		driver, err = migratepgx.WithInstance(instance, &migratepgx.Config{})
	default:
		err = fmt.Errorf("unsupported database dialect %q", dialect)
	}

	if err != nil {
		_ = instance.Close()
		return err
	}

	migrationDir, err := iofs.New(migrationFS, fmt.Sprintf("migrations/%s", dialect))
	if err != nil {
		_ = driver.Close()
		return err
	}

	migration, err := migrate.NewWithInstance("iofs", migrationDir, string(dialect), driver)
	if err != nil {
		_ = driver.Close()
		return err
	}

	err = migration.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		err = nil
	}

	// closes the driver, which releases its connection and instance
	sourceErr, dbErr := migration.Close()
	if err != nil {
		return err
	}

	if sourceErr != nil {
		return sourceErr
	}

	return dbErr
}
