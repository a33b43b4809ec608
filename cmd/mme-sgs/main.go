// Copyright 2025 EURECOM
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Contributors:
//   Giulio CAROTA
//   Thomas DU
//   Adlen KSENTINI

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/service"
)

var version = "0.1.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "mme-sgs",
	Short: "MME SGs and ESM signaling core",
	Long: `mme-sgs runs the MME_APP, SGS and S1AP tasks of an MME and answers
SGsAP alert procedures for the subscribers held in its UE directory.

Examples:
  mme-sgs serve --config config/mme.yaml   # run with a configuration file
  mme-sgs serve                            # run with defaults
  mme-sgs version`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MME tasks, the OAM API and the metrics server",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func setupLogger(level zerolog.Level) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Str("app", "mme-sgs").
		Logger()
	log.Logger = logger
	return logger
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := service.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = service.InitConfig(configPath); err != nil {
			return err
		}
	}

	logger := setupLogger(cfg.Level())
	service.NewMmeService(cfg, logger).Run()
	return nil
}

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML configuration file")
	rootCmd.AddCommand(serveCmd, versionCmd)
}

// execute runs the command line and returns the process exit code.
func execute(args []string) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		logger := setupLogger(zerolog.InfoLevel)
		logger.Error().Err(err).Msg("mme-sgs failed")
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(os.Args[1:]))
}
