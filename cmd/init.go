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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/penny-vault/pvsec/config"
	"github.com/penny-vault/pvsec/db"
	"github.com/penny-vault/pvsec/library"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Gather configuration and setup the database schema",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		config.SetDefaults(viper.GetViper())
		cfg := &config.Config{}
		if err := viper.Unmarshal(cfg); err != nil {
			log.Fatal().Err(err).Msg("could not read current configuration")
		}

		if len(cfg.Fred.Series) == 0 {
			cfg.Fred.Series = config.DefaultSeries()
		}

		form := huh.NewForm(
			// Get details about the database
			huh.NewGroup(
				huh.NewInput().
					Title("Where should the library be stored? (sqlite file path or postgres://[user[:password]@][netloc][:port][/dbname])").
					Value(&cfg.Database.URL).
					Validate(func(dbURL string) error {
						_, _, _, err := db.ParseURL(dbURL)
						return err
					}),
			),

			// Gather details required by the remote sources
			huh.NewGroup(
				huh.NewInput().
					Title("User agent sent to SEC EDGAR (e.g. \"Company Name admin@example.com\"):").
					Value(&cfg.SEC.UserAgent).
					Validate(func(userAgent string) error {
						if strings.TrimSpace(userAgent) == "" {
							return errors.New("a user agent is required")
						}
						return nil
					}),

				huh.NewInput().
					Title("What is your FRED api key?").
					Value(&cfg.Fred.APIKey),
			),
		)

		err := form.Run()
		if err != nil {
			log.Fatal().Err(err).Msg("error gathering settings")
		}

		if err := cfg.Validate(); err != nil {
			log.Fatal().Err(err).Msg("invalid configuration")
		}

		// Print settings summary
		{
			var sb strings.Builder
			keyword := func(s string) string {
				return lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Render(s)
			}

			fredKey := "not set"
			if cfg.Fred.APIKey != "" {
				fredKey = "set"
			}

			fmt.Fprintf(&sb, "%s\n\nDatabase: %s\nUser Agent: %s\nFRED API Key: %s\n\n",
				lipgloss.NewStyle().Bold(true).Render("PVSEC SETTINGS"),
				keyword(cfg.Database.URL),
				keyword(cfg.SEC.UserAgent),
				keyword(fredKey),
			)

			fmt.Fprint(&sb, lipgloss.NewStyle().Bold(true).Render("Macro Series"))
			for _, series := range cfg.Fred.Series {
				fmt.Fprintf(&sb, "\n%s: %s", series.Name, keyword(series.ID))
			}

			fmt.Println(
				lipgloss.NewStyle().
					Width(60).
					BorderStyle(lipgloss.RoundedBorder()).
					BorderForeground(lipgloss.Color("63")).
					Padding(1, 2).
					Render(sb.String()),
			)
		}

		confirmed := true
		confirmForm := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Create database and save settings?").
					Value(&confirmed),
			),
		)

		if err := confirmForm.Run(); err != nil {
			log.Fatal().Err(err).Msg("failed to create wizard")
		}

		if !confirmed {
			log.Info().Msg("initialization cancelled")
			return
		}

		log.Info().Msg("creating database tables")

		// opening the library runs the migrations
		myLibrary, err := library.Open(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("error setting up database")
		}
		myLibrary.Close()

		log.Info().Msg("database tables created")

		// save settings to config file
		configFN := cfgFile
		if configFN == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				log.Fatal().Err(err).Msg("could not determine user home directory")
			}
			configFN = filepath.Join(home, ".pvsec.toml")
		}

		log.Info().Str("ConfigFile", configFN).Msg("Saving configuration to config file")
		if err := config.Write(cfg, configFN); err != nil {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		log.Info().Msg("pvsec has been initialized; seed filings_raw with the CIKs to track")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
