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
	"os/signal"
	"syscall"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cleverdata/haul/internal/config"
	"github.com/cleverdata/haul/internal/journal"
	"github.com/cleverdata/haul/internal/transfer"
	"github.com/cleverdata/haul/internal/watch"
)

// RunWatcher is the entry point for the long-running process.
func RunWatcher(ctx context.Context) {
	initJournal()

	if service.Interactive() {
		fmt.Println("Haul Agent Starting...")
	} else {
		log.Println("Haul Agent Starting as Service...")
	}

	// reload config just in case
	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Config not found or invalid: %v", err)
	}

	operations, global, err := loadBatch()
	if err != nil {
		log.Printf("%v. Idling...", err)
		<-ctx.Done()
		return
	}

	var wc config.WatchConfig
	if err := viper.UnmarshalKey("watch", &wc); err != nil {
		log.Printf("Error parsing watch settings, using defaults: %v", err)
	}

	err = watch.Run(ctx, operations, global, wc, func(r transfer.OperationResult) {
		journal.Record(r)
		if r.Success {
			log.Printf("[%s] OK: %d files, %d bytes", r.OperationName, r.FilesProcessed, r.TotalSize)
		} else {
			log.Printf("[%s] FAILED: %s", r.OperationName, r.ErrorMessage)
		}
	})
	if err != nil && err != context.Canceled {
		log.Printf("Watcher stopped: %v", err)
	}
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch operation origins and re-run them on change (Internal Use)",
	Long:  `Runs the watcher process directly. Usually invoked by the system service.`,
	Run: func(cmd *cobra.Command, args []string) {
		if service.Interactive() {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			RunWatcher(ctx)
		} else {
			// When running as a service, we MUST call s.Run() to check in
			// with the service manager
			s, err := getService(viper.ConfigFileUsed())
			if err != nil {
				log.Fatalf("Failed to initialize service: %v", err)
			}
			s.Run()
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
