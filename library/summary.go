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
	"fmt"
	"strings"
	"time"

	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary returns a description of the library in markdown
func (myLibrary *Library) Summary(ctx context.Context) (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	if _, err := builder.WriteString("# pvsec library\n"); err != nil {
		return "", err
	}

	if _, err := builder.WriteString("## Details\n\n"); err != nil {
		return "", err
	}

	// Database connection string
	if _, err := builder.WriteString(fmt.Sprintf("Database: %s (%s)\n\n", myLibrary.DBUrl, myLibrary.Dialect)); err != nil {
		return "", err
	}

	counts := []struct {
		label string
		fn    func(context.Context) (int, error)
	}{
		{"Tracked Issuers", myLibrary.NumTrackedEntities},
		{"Filings", myLibrary.NumFilings},
		{"Fact Snapshots", myLibrary.NumFactSnapshots},
		{"Macro Observations", myLibrary.NumMacroObservations},
	}

	for _, item := range counts {
		num, err := item.fn(ctx)
		if err != nil {
			return "", err
		}

		if _, err := builder.WriteString(p.Sprintf("  * %s: %d\n", item.label, num)); err != nil {
			return "", err
		}
	}

	// Most recent filing
	latest, err := myLibrary.LatestFilingDate(ctx)
	if err != nil {
		return "", err
	}

	if _, err := builder.WriteString(fmt.Sprintf("\nLatest Filing: %s\n", describeFilingDate(latest))); err != nil {
		return "", err
	}

	return builder.String(), nil
}

func describeFilingDate(filingDate string) string {
	if filingDate == "" {
		return "Never"
	}

	dt, err := time.Parse("2006-01-02", filingDate)
	if err != nil {
		return filingDate
	}

	return fmt.Sprintf("%s (%s)", timeago.English.Format(dt), dt.Format("01/02/2006"))
}
