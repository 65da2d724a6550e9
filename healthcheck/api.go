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
package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/penny-vault/pvsec/data"
	"github.com/penny-vault/pvsec/pkginfo"
)

var (
	ErrStatus = errors.New("status code is invalid")
)

type Status int

const (
	Success Status = iota
	Degraded
	Failed
)

// StatusOf classifies a finished run
func StatusOf(summaries []data.RunSummary, runErr error) Status {
	if runErr != nil {
		return Failed
	}

	for _, summary := range summaries {
		if summary.Degraded() {
			return Degraded
		}
	}

	return Success
}

// Report builds the plain text body sent along with a ping
func Report(summaries []data.RunSummary, runErr error) string {
	builder := strings.Builder{}
	for _, summary := range summaries {
		builder.WriteString(fmt.Sprintf("%s: entities=%d skipped=%d written=%d duration=%s\n",
			summary.Routine, summary.Entities, summary.Skipped, summary.Written, summary.Duration()))
	}

	if runErr != nil {
		builder.WriteString(fmt.Sprintf("error: %s\n", runErr))
	}

	return builder.String()
}

// Ping notifies a healthchecks.io check that a run finished. Failed runs
// are sent to the /fail endpoint; successful and degraded runs count as a
// success with the run report attached so skips remain visible.
func Ping(ctx context.Context, pingURL string, status Status, report string) error {
	url := strings.TrimRight(pingURL, "/")
	if status == Failed {
		url += "/fail"
	}

	client := resty.New()
	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/plain").
		SetHeader("User-Agent", pkginfo.UserAgent()).
		SetBody(report).
		Post(url)

	if err != nil {
		return err
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return nil
}
