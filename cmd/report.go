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
package cmd

import (
	"context"
	"time"

	"github.com/penny-vault/pvsec/config"
	"github.com/penny-vault/pvsec/data"
	"github.com/penny-vault/pvsec/healthcheck"
	"github.com/penny-vault/pvsec/metrics"
	"github.com/rs/zerolog"
)

// reportTimeout bounds the health check ping and metrics push together
const reportTimeout = 30 * time.Second

// reportRun pings the health check and pushes metrics for a finished run,
// including one whose context was cancelled by an interrupt
func reportRun(logger zerolog.Logger, cfg *config.Config, summaries []data.RunSummary, runErr error) {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	if cfg.HealthChecks.PingURL != "" {
		status := healthcheck.StatusOf(summaries, runErr)
		if err := healthcheck.Ping(ctx, cfg.HealthChecks.PingURL, status, healthcheck.Report(summaries, runErr)); err != nil {
			logger.Error().Err(err).Msg("could not ping health check")
		}
	}

	if cfg.Metrics.PushGatewayURL != "" {
		collector := metrics.NewCollector()
		collector.Observe(summaries, runErr)
		if err := collector.Push(ctx, cfg.Metrics.PushGatewayURL); err != nil {
			logger.Error().Err(err).Msg("could not push metrics")
		}
	}
}
