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
package provider_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pvsec/provider"
)

var _ = Describe("Fred", func() {
	var (
		query  url.Values
		path   string
		status int
		server *httptest.Server
	)

	BeforeEach(func() {
		status = http.StatusOK
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			query = r.URL.Query()
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"count": 3, "observations": [
				{"realtime_start": "2024-06-03", "realtime_end": "2024-06-03", "date": "2024-05-29", "value": "4.62"},
				{"realtime_start": "2024-06-03", "realtime_end": "2024-06-03", "date": "2024-05-30", "value": "."},
				{"realtime_start": "2024-06-03", "realtime_end": "2024-06-03", "date": "2024-05-31", "value": "4.51"}
			]}`))
		}))
		DeferCleanup(server.Close)
	})

	It("requests json observations for the series with the api key", func() {
		fred := provider.NewFred(server.URL, "secret", time.Second)

		observations, err := fred.Observations(context.Background(), "DGS10")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/fred/series/observations"))
		Expect(query.Get("series_id")).To(Equal("DGS10"))
		Expect(query.Get("api_key")).To(Equal("secret"))
		Expect(query.Get("file_type")).To(Equal("json"))

		Expect(observations).To(HaveLen(3))
		Expect(observations[2].Date).To(Equal("2024-05-31"))
		Expect(observations[2].Value).To(Equal("4.51"))
	})

	It("flags the missing value marker", func() {
		fred := provider.NewFred(server.URL, "secret", time.Second)

		observations, err := fred.Observations(context.Background(), "DGS10")
		Expect(err).NotTo(HaveOccurred())
		Expect(observations[0].Missing()).To(BeFalse())
		Expect(observations[1].Missing()).To(BeTrue())
	})

	It("reports a non-success status as unavailable", func() {
		status = http.StatusBadRequest
		fred := provider.NewFred(server.URL, "bad-key", time.Second)

		_, err := fred.Observations(context.Background(), "DGS10")
		Expect(err).To(MatchError(provider.ErrUnavailable))
	})
})
