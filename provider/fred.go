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
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultFredBaseURL = "https://api.stlouisfed.org"

// Fred retrieves economic indicators from the Federal Reserve Economic Data API
type Fred struct {
	baseURL string
	client  *resty.Client
}

func NewFred(baseURL, apiKey string, timeout time.Duration) *Fred {
	if baseURL == "" {
		baseURL = DefaultFredBaseURL
	}

	client := newClient("", timeout)
	if apiKey != "" {
		client.SetQueryParam("api_key", apiKey)
	}

	return &Fred{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Observations returns the observations of seriesID in the order FRED
// returns them (oldest first)
func (fred *Fred) Observations(ctx context.Context, seriesID string) ([]*FredObservation, error) {
	var resp fredResponse

	req := fred.client.R().
		SetQueryParam("file_type", "json").
		SetQueryParam("series_id", seriesID)

	if err := fetchJSON(ctx, req, fred.baseURL+"/fred/series/observations", &resp); err != nil {
		return nil, err
	}

	return resp.Observations, nil
}

type fredResponse struct {
	RealTimeStart    string             `json:"realtime_start"`
	RealTimeEnd      string             `json:"realtime_end"`
	ObservationStart string             `json:"observation_start"`
	ObservationEnd   string             `json:"observation_end"`
	Units            string             `json:"units"`
	OrderBy          string             `json:"order_by"`
	SortOrder        string             `json:"sort_order"`
	Count            int                `json:"count"`
	Observations     []*FredObservation `json:"observations"`
}

// FredObservation is a single dated value. FRED reports a missing value as "."
type FredObservation struct {
	RealTimeStart string `json:"realtime_start"`
	RealTimeEnd   string `json:"realtime_end"`
	Date          string `json:"date"`
	Value         string `json:"value"`
}

// Missing is true when FRED has no value for the observation date
func (obs *FredObservation) Missing() bool {
	return obs.Value == "."
}
