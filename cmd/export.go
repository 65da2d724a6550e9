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
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/penny-vault/pvsec/backblaze"
	"github.com/penny-vault/pvsec/config"
	"github.com/penny-vault/pvsec/library"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	exportOutput string
	exportUpload bool
)

var exportCmd = &cobra.Command{
	Use:       fmt.Sprintf("export {%s}", strings.Join(library.ExportTables(), "|")),
	Short:     "Export a library table as CSV",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: library.ExportTables(),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary, err := library.Open(ctx, config.DatabaseURL(viper.GetViper()))
		if err != nil {
			log.Fatal().Err(err).Msg("could not open library")
		}
		defer myLibrary.Close()

		var bbCfg config.Backblaze
		if exportUpload {
			if exportOutput == "" || exportOutput == "-" {
				log.Fatal().Msg("--upload requires --output")
			}

			if err := viper.UnmarshalKey("backblaze", &bbCfg); err != nil {
				log.Fatal().Err(err).Msg("invalid backblaze configuration")
			}

			if !backblaze.Configured(bbCfg) {
				log.Fatal().Msg("--upload requires backblaze.application_id, backblaze.application_key and backblaze.bucket")
			}
		}

		var out io.Writer = os.Stdout
		var fh *os.File
		if exportOutput != "" && exportOutput != "-" {
			fh, err = os.Create(exportOutput)
			if err != nil {
				log.Fatal().Err(err).Str("FileName", exportOutput).Msg("could not create output file")
			}
			out = fh
		}

		if err := myLibrary.ExportCSV(ctx, args[0], out); err != nil {
			log.Fatal().Err(err).Str("Table", args[0]).Msg("export failed")
		}

		if fh == nil {
			return
		}

		if err := fh.Close(); err != nil {
			log.Fatal().Err(err).Str("FileName", exportOutput).Msg("could not close output file")
		}

		if exportUpload {
			if err := backblaze.Upload(bbCfg, exportOutput, "pvsec/"+args[0]); err != nil {
				log.Fatal().Err(err).Str("FileName", exportOutput).Msg("upload failed")
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write CSV to this file instead of stdout")
	exportCmd.Flags().BoolVar(&exportUpload, "upload", false, "upload the exported file to the configured backblaze bucket")
}
