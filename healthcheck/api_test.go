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
package healthcheck_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pvsec/data"
	"github.com/penny-vault/pvsec/healthcheck"
)

var _ = Describe("Healthcheck", func() {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	clean := data.RunSummary{Routine: data.FilingSyncRoutine, StartTime: start, EndTime: start.Add(2 * time.Second), Entities: 2, Written: 1}
	skipped := data.RunSummary{Routine: data.MacroSyncRoutine, StartTime: start, EndTime: start.Add(time.Second), Entities: 2, Skipped: 1, Written: 1}

	DescribeTable("StatusOf",
		func(summaries []data.RunSummary, runErr error, expected healthcheck.Status) {
			Expect(healthcheck.StatusOf(summaries, runErr)).To(Equal(expected))
		},
		Entry("clean run", []data.RunSummary{clean}, nil, healthcheck.Success),
		Entry("nothing to do", nil, nil, healthcheck.Success),
		Entry("skipped entity", []data.RunSummary{clean, skipped}, nil, healthcheck.Degraded),
		Entry("fault", []data.RunSummary{clean}, errors.New("boom"), healthcheck.Failed),
	)

	It("reports one line per routine and the error", func() {
		report := healthcheck.Report([]data.RunSummary{clean, skipped}, errors.New("boom"))
		Expect(report).To(Equal("filing-sync: entities=2 skipped=0 written=1 duration=2s\n" +
			"macro-sync: entities=2 skipped=1 written=1 duration=1s\n" +
			"error: boom\n"))
	})

	Describe("Ping", func() {
		var (
			method string
			path   string
			body   string
			status int
			server *httptest.Server
		)

		BeforeEach(func() {
			path = ""
			body = ""
			status = http.StatusOK
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				method = r.Method
				path = r.URL.Path
				raw, _ := io.ReadAll(r.Body)
				body = string(raw)
				w.WriteHeader(status)
			}))
			DeferCleanup(server.Close)
		})

		It("posts the report to the check url", func() {
			err := healthcheck.Ping(context.Background(), server.URL+"/check-uuid", healthcheck.Degraded, "report")
			Expect(err).NotTo(HaveOccurred())
			Expect(method).To(Equal(http.MethodPost))
			Expect(path).To(Equal("/check-uuid"))
			Expect(body).To(Equal("report"))
		})

		It("signals failures on the fail endpoint", func() {
			err := healthcheck.Ping(context.Background(), server.URL+"/check-uuid/", healthcheck.Failed, "error: boom")
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal("/check-uuid/fail"))
		})

		It("returns ErrStatus for an unexpected response", func() {
			status = http.StatusNotFound
			err := healthcheck.Ping(context.Background(), server.URL+"/check-uuid", healthcheck.Success, "")
			Expect(err).To(MatchError(healthcheck.ErrStatus))
		})
	})
})
