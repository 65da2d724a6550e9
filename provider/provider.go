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
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

var (
	// ErrUnavailable is returned when the remote source could not be reached
	// or answered with a non-success status. Callers skip the entity.
	ErrUnavailable = errors.New("remote source unavailable")

	// ErrMalformed is returned when a response could not be interpreted
	ErrMalformed = errors.New("malformed response")
)

// newClient builds the resty client shared by all requests to a provider
func newClient(userAgent string, timeout time.Duration) *resty.Client {
	client := resty.New().
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}

	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return client
}

// fetchJSON issues a GET for url and decodes the body into result. Transport
// errors and non-success statuses are reported as ErrUnavailable; a body
// that does not decode is reported as ErrMalformed.
func fetchJSON(ctx context.Context, req *resty.Request, url string, result interface{}) error {
	logger := zerolog.Ctx(ctx)

	resp, err := req.SetContext(ctx).Get(url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		return fmt.Errorf("%w: %s: %w", ErrUnavailable, url, err)
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("%w: %s returned status %d", ErrUnavailable, url, resp.StatusCode())
	}

	logger.Debug().Str("URL", url).Int("StatusCode", resp.StatusCode()).Dur("Elapsed", resp.Time()).Msg("fetched")

	if err := json.Unmarshal(resp.Body(), result); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformed, url, err)
	}

	return nil
}
