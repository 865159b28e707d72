// Copyright 2026 CleverData
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

package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cleverdata/haul/internal/config"
	"github.com/cleverdata/haul/internal/journal"
	"github.com/cleverdata/haul/internal/notify"
	"github.com/cleverdata/haul/internal/report"
	"github.com/cleverdata/haul/internal/transfer"
)

var opReports bool

// loadBatch pulls the declared operations and limits out of the config file.
func loadBatch() ([]config.FileOperation, config.RateLimit, error) {
	var operations []config.FileOperation
	if err := viper.UnmarshalKey("operations", &operations); err != nil {
		return nil, config.RateLimit{}, fmt.Errorf("error parsing operations: %w", err)
	}
	if len(operations) == 0 {
		return nil, config.RateLimit{}, fmt.Errorf("no operations configured")
	}

	var global config.RateLimit
	if err := viper.UnmarshalKey("global_rate_limit", &global); err != nil {
		return nil, config.RateLimit{}, fmt.Errorf("error parsing global rate limit: %w", err)
	}
	return operations, global, nil
}

func initJournal() {
	var dbPath string
	if viper.IsSet("db_path") {
		dbPath = viper.GetString("db_path")
	} else {
		dataDir := "/var/lib/haul"
		if os.Getenv("OS") == "Windows_NT" {
			dataDir = filepath.Join(os.Getenv("ProgramData"), "CleverData", "HaulAgent")
		}
		dbPath = filepath.Join(dataDir, "state.db")
	}

	if err := journal.Init(dbPath); err != nil {
		log.Printf("Warning: Journal unavailable: %v", err)
	}
}

// sendWebhook posts the run summary when a webhook is configured. Shared by
// batch and watch modes.
func sendWebhook(results []transfer.OperationResult) {
	var webhook config.WebhookConfig
	if err := viper.UnmarshalKey("webhook", &webhook); err != nil || webhook.Endpoint == "" {
		return
	}
	if err := notify.SendRunSummary(context.Background(), webhook, notify.Summarize(results)); err != nil {
		log.Printf("Webhook notification failed: %v", err)
	}
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the configured operations once",
	Long: `Runs every operation in the config file in parallel, honoring the
per-operation and global rate limits, then prints the run report. A detailed
report is written to the report directory, and each operation's report is
optionally saved next to its destination.`,
	Run: func(cmd *cobra.Command, args []string) {
		operations, global, err := loadBatch()
		if err != nil {
			log.Fatalf("%v", err)
		}

		initJournal()

		fmt.Printf("Executing %d operations...\n\n", len(operations))
		results := transfer.ExecuteOperations(operations, global, func(msg string) {
			fmt.Println(msg)
		})

		fmt.Println()
		fmt.Print(report.Summary(results))

		reportDir := viper.GetString("report_dir")
		if reportDir == "" {
			reportDir = "reports"
		}
		if path, err := report.WriteDetailed(results, reportDir); err != nil {
			log.Printf("Could not write detailed report: %v", err)
		} else {
			fmt.Printf("\nDetailed report: %s\n", path)
		}

		if opReports {
			for _, status := range report.WriteOperationReports(results) {
				fmt.Println(status)
			}
		}

		journal.RecordAll(results)
		sendWebhook(results)
	},
}

func init() {
	runCmd.Flags().BoolVar(&opReports, "op-reports", false, "Save a report into each operation's destination")
	rootCmd.AddCommand(runCmd)
}
