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
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/hako/durafmt"
	"github.com/penny-vault/pvsec/ingest"
	"github.com/penny-vault/pvsec/library"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Synchronize filings, facts and macro series",
	Long: `The run sub-command executes filing sync, fact enrichment and macro sync, in
that order, and exits. Remote sources that are unavailable are skipped and reported
but do not change the exit status; only faults such as malformed responses or
database errors exit non-zero.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		cfg := mustLoadConfig()

		runLogger := log.With().Str("RunID", uuid.New().String()).Logger()
		ctx = runLogger.WithContext(ctx)

		myLibrary, err := library.Open(ctx, cfg.Database.URL)
		if err != nil {
			runLogger.Fatal().Err(err).Str("DBUrl", cfg.Database.URL).Msg("could not open library")
		}
		defer myLibrary.Close()

		startTime := time.Now()
		syncer := ingest.NewSyncer(cfg, myLibrary)
		summaries, runErr := syncer.Run(ctx)

		for _, summary := range summaries {
			runLogger.Info().Str("Routine", summary.Routine).Int("Entities", summary.Entities).
				Int("Skipped", summary.Skipped).Int("Written", summary.Written).
				Str("RunTime", durafmt.Parse(summary.Duration()).String()).Msg("routine finished")
		}

		reportRun(runLogger, cfg, summaries, runErr)

		if runErr != nil {
			myLibrary.Close()
			runLogger.Fatal().Err(runErr).Msg("run aborted")
		}

		runLogger.Info().Str("RunTime", durafmt.Parse(time.Since(startTime)).String()).Msg("run complete")
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
