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

	"github.com/gencache/gencache/pkg/cache/languages"
)

var flagPurgeLanguage string

var purgeCmd = &cobra.Command{
	Use:   "purge [cache key]",
	Short: "remove the entry stored under a cache key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, ok := languages.Get(flagPurgeLanguage)
		if !ok {
			return fmt.Errorf("unknown language: %s", flagPurgeLanguage)
		}

		m, err := newManager()
		if err != nil {
			return err
		}
		defer m.Close()

		if m.Invalidate(args[0], lang) {
			fmt.Printf("purged %s/%s\n", lang, args[0])
		} else {
			fmt.Printf("no entry for %s/%s\n", lang, args[0])
		}
		return nil
	},
}

func init() {
	purgeCmd.Flags().StringVarP(&flagPurgeLanguage, "language", "l", "",
		"target language of the entry to purge (required)")
	purgeCmd.MarkFlagRequired("language")
	rootCmd.AddCommand(purgeCmd)
}
