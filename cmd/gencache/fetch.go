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
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gencache/gencache/pkg/cache/languages"
)

var (
	flagFetchLanguage string
	flagFetchOutDir   string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [cache key]",
	Short: "retrieve the artifacts stored under a cache key",
	Long: `fetch retrieves the generated artifacts stored under a cache key and
writes them into the output directory. A miss exits non-zero so build
tooling can fall back to running code generation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, ok := languages.Get(flagFetchLanguage)
		if !ok {
			return fmt.Errorf("unknown language: %s", flagFetchLanguage)
		}

		m, err := newManager()
		if err != nil {
			return err
		}
		defer m.Close()

		artifacts, ok := m.Fetch(args[0], lang)
		if !ok {
			return fmt.Errorf("cache miss for %s/%s", lang, args[0])
		}

		if err = os.MkdirAll(flagFetchOutDir, 0755); err != nil {
			return err
		}
		for _, a := range artifacts {
			path := filepath.Join(flagFetchOutDir, filepath.Base(a.Name))
			if err = os.WriteFile(path, a.Data, 0644); err != nil {
				return fmt.Errorf("could not write artifact [%s]: %w", path, err)
			}
		}

		fmt.Printf("fetched %d artifacts for %s/%s into %s\n",
			len(artifacts), lang, args[0], flagFetchOutDir)
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVarP(&flagFetchLanguage, "language", "l", "",
		"target language of the entry to fetch (required)")
	fetchCmd.Flags().StringVarP(&flagFetchOutDir, "out", "o", ".",
		"directory to write the fetched artifacts into")
	fetchCmd.MarkFlagRequired("language")
	rootCmd.AddCommand(fetchCmd)
}
