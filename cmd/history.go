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
	"fmt"
	"log"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cleverdata/haul/internal/journal"
)

var historyLimit int
var resetName string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent journaled operations",
	Run: func(cmd *cobra.Command, args []string) {
		initJournal()

		entries := journal.Recent(historyLimit)
		if len(entries) == 0 {
			fmt.Println("No journaled operations.")
			return
		}

		fmt.Printf("% -20s % -15s % -6s % -8s % -6s % -10s %s\n",
			"FINISHED", "NAME", "TYPE", "STATUS", "FILES", "SIZE", "ERROR")
		fmt.Println("--------------------------------------------------------------------------------")
		for _, e := range entries {
			status := "OK"
			if !e.Success {
				status = "FAILED"
			}
			fmt.Printf("% -20s % -15s % -6s % -8s % -6d % -10s %s\n",
				e.FinishedAt.Format("2006-01-02 15:04:05"), e.Name, e.OpType,
				status, e.FilesProcessed, humanize.IBytes(uint64(e.TotalBytes)), e.Error)
		}
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset-history",
	Short: "Clear the operation journal",
	Long:  `Clears the local SQLite journal of completed operations. Use --name to clear only the entries of one operation.`,
	Run: func(cmd *cobra.Command, args []string) {
		initJournal()
		if resetName != "" {
			fmt.Printf("Clearing history for: %s\n", resetName)
		} else {
			fmt.Println("WARNING: Clearing ENTIRE operation journal.")
		}

		journal.ResetHistory(resetName)

		log.Println("Journal reset complete.")
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of entries to show")
	resetCmd.Flags().StringVarP(&resetName, "name", "n", "", "Specific operation name to clear from history")
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(resetCmd)
}
