/**
* Copyright 2025 The Gencache Authors
* Licensed under the Apache License, Version 2.0 (the "License");
* you may not use this file except in compliance with the License.
* You may obtain a copy of the License at
* http://www.apache.org/licenses/LICENSE-2.0
* Unless required by applicable law or agreed to in writing, software
* distributed under the License is distributed on an "AS IS" BASIS,
* WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
* See the License for the specific language governing permissions and
* limitations under the License.
 */

package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "report cache contents, health score and recommendations",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		defer m.Close()

		agg, err := m.Statistics()
		if err != nil {
			return err
		}
		snap := m.Collector.Snapshot()

		bold := color.New(color.Bold)
		bold.Println("Cache Contents")
		fmt.Printf("  entries: %d\n", agg.Entries)
		fmt.Printf("  size:    %s of %s (%.0f%%)\n",
			byteCount(agg.Bytes), byteCount(cfg.Cache.SizeLimitBytes), snap.Utilization*100)

		if cfg.Cache.LanguageIsolation && len(agg.PerLanguage) > 0 {
			bold.Println("\nPer-Language")
			names := make([]string, 0, len(agg.PerLanguage))
			for name := range agg.PerLanguage {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				ls := agg.PerLanguage[name]
				fmt.Printf("  %-12s %6d entries  %10s\n", name, ls.Entries, byteCount(ls.Bytes))
			}
		}

		bold.Println("\nHealth")
		h := color.New(color.FgGreen)
		switch {
		case snap.HealthScore < 50:
			h = color.New(color.FgRed)
		case snap.HealthScore < 75:
			h = color.New(color.FgYellow)
		}
		h.Printf("  score: %.0f/100\n", snap.HealthScore)

		if len(snap.Recommendations) > 0 {
			bold.Println("\nRecommendations")
			for _, rec := range snap.Recommendations {
				fmt.Printf("  - %s\n", rec)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func byteCount(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
