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
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cleverdata/haul/internal/config"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Manage the declared transfer operations",
}

var planAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new operation to the plan",
	Long: `Declares a copy or move operation in the config file. The origin must
exist unless --force is given; the destination is created at run time.

Rate limits accept either --bps (bytes per second) or --mb-per-min
(megabytes per minute). When both are set, --bps wins. Omit both for an
unthrottled operation.`,
	Example: `  haul plan add --name backups --from /srv/exports --to /mnt/archive/exports --type copy --mb-per-min 120`,
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		opType, _ := cmd.Flags().GetString("type")
		bps, _ := cmd.Flags().GetUint64("bps")
		mbPerMin, _ := cmd.Flags().GetUint64("mb-per-min")
		force, _ := cmd.Flags().GetBool("force")

		if name == "" || from == "" || to == "" {
			fmt.Println("Error: --name, --from, and --to are required.")
			return
		}

		if opType != string(config.OpCopy) && opType != string(config.OpMove) {
			fmt.Printf("Error: --type must be '%s' or '%s'.\n", config.OpCopy, config.OpMove)
			return
		}

		// --- VERIFICATION STEP ---
		if !force {
			if _, err := os.Stat(from); err != nil {
				fmt.Printf("Origin not accessible: %v\n", err)
				fmt.Println("Use --force to add anyway.")
				return
			}
		}
		// -------------------------

		absFrom, err := filepath.Abs(from)
		if err != nil {
			fmt.Printf("Invalid origin path: %v\n", err)
			return
		}
		absTo, err := filepath.Abs(to)
		if err != nil {
			fmt.Printf("Invalid destination path: %v\n", err)
			return
		}

		// Load existing operations
		var operations []config.FileOperation
		if err := viper.UnmarshalKey("operations", &operations); err != nil {
			operations = []config.FileOperation{}
		}

		// Check for duplicates
		for _, op := range operations {
			if op.Name == name {
				fmt.Printf("Error: Operation '%s' already exists.\n", name)
				return
			}
		}

		newOp := config.FileOperation{
			Name:        name,
			Origin:      absFrom,
			Destination: absTo,
			Type:        config.OperationType(opType),
			RateLimit: config.RateLimit{
				Enabled:            bps > 0 || mbPerMin > 0,
				BytesPerSecond:     bps,
				MegabytesPerMinute: mbPerMin,
			},
		}

		operations = append(operations, newOp)
		viper.Set("operations", config.ConfigMaps(operations))

		// Save config
		if viper.ConfigFileUsed() != "" {
			if err := viper.WriteConfig(); err != nil {
				fmt.Printf("Failed to update config: %v\n", err)
				return
			}
		} else {
			// No config exists yet, create one next to the executable
			exePath, _ := os.Executable()
			targetDir := filepath.Dir(exePath)
			viper.SetConfigFile(filepath.Join(targetDir, "config.yaml"))

			if err := viper.SafeWriteConfig(); err != nil {
				fmt.Printf("Failed to create config: %v\n", err)
				return
			}
		}

		fmt.Printf("Operation '%s' added: %s %s -> %s\n", name, opType, absFrom, absTo)
		if effective, ok := newOp.RateLimit.ResolvedBPS(); ok {
			fmt.Printf("Rate limit: %s/s\n", humanize.IBytes(effective))
		} else {
			fmt.Println("Rate limit: none")
		}
		fmt.Println("\n>>> IMPORTANT: Run 'haul restart' to apply these changes to the running service.")
	},
}

var planListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List declared operations",
	Run: func(cmd *cobra.Command, args []string) {
		var operations []config.FileOperation
		viper.UnmarshalKey("operations", &operations)

		if len(operations) == 0 {
			fmt.Println("No operations configured.")
			return
		}

		fmt.Printf("% -15s % -6s % -35s % -35s %s\n", "NAME", "TYPE", "ORIGIN", "DESTINATION", "LIMIT")
		fmt.Println("--------------------------------------------------------------------------------")
		for _, op := range operations {
			limit := "none"
			if effective, ok := op.RateLimit.ResolvedBPS(); ok {
				limit = humanize.IBytes(effective) + "/s"
			}
			fmt.Printf("% -15s % -6s % -35s % -35s %s\n", op.Name, op.Type, op.Origin, op.Destination, limit)
		}
	},
}

var planRemoveCmd = &cobra.Command{
	Use:     "remove [name]",
	Aliases: []string{"rm", "del"},
	Short:   "Remove a declared operation",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]

		var operations []config.FileOperation
		if err := viper.UnmarshalKey("operations", &operations); err != nil {
			fmt.Println("No operations configured.")
			return
		}

		found := false
		var updated []config.FileOperation
		for _, op := range operations {
			if op.Name == name {
				found = true
				continue
			}
			updated = append(updated, op)
		}

		if !found {
			fmt.Printf("Error: Operation '%s' not found.\n", name)
			return
		}

		viper.Set("operations", config.ConfigMaps(updated))
		if err := viper.WriteConfig(); err != nil {
			fmt.Printf("Failed to save config: %v\n", err)
			return
		}

		fmt.Printf("Operation '%s' removed successfully.\n", name)
		fmt.Println("\n>>> IMPORTANT: Run 'haul restart' to apply these changes to the running service.")
	},
}

func init() {
	planAddCmd.Flags().String("name", "", "Unique name for this operation")
	planAddCmd.Flags().String("from", "", "Origin file or directory")
	planAddCmd.Flags().String("to", "", "Destination path")
	planAddCmd.Flags().String("type", "copy", "Operation type: copy or move")
	planAddCmd.Flags().Uint64("bps", 0, "Rate limit in bytes per second")
	planAddCmd.Flags().Uint64("mb-per-min", 0, "Rate limit in megabytes per minute")
	planAddCmd.Flags().Bool("force", false, "Skip origin existence check")

	planCmd.AddCommand(planAddCmd)
	planCmd.AddCommand(planListCmd)
	planCmd.AddCommand(planRemoveCmd)
	rootCmd.AddCommand(planCmd)
}
