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

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "evict least-recently-used entries until the cache fits its size budget",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		defer m.Close()

		result, err := m.Cleanup()
		if err != nil {
			return err
		}
		fmt.Printf("removed %d entries, freed %s\n",
			result.EntriesRemoved, byteCount(result.BytesFreed))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
