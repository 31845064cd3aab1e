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

	"github.com/gencache/gencache/pkg/cache/entry"
	"github.com/gencache/gencache/pkg/cache/languages"
)

var flagStoreLanguage string

var storeCmd = &cobra.Command{
	Use:   "store [cache key] [artifact files...]",
	Short: "store generated artifacts under a cache key",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, ok := languages.Get(flagStoreLanguage)
		if !ok {
			return fmt.Errorf("unknown language: %s", flagStoreLanguage)
		}

		artifacts := make([]entry.Artifact, 0, len(args)-1)
		for _, path := range args[1:] {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("could not read artifact [%s]: %w", path, err)
			}
			artifacts = append(artifacts, entry.Artifact{
				Name: filepath.Base(path),
				Data: data,
			})
		}

		m, err := newManager()
		if err != nil {
			return err
		}
		defer m.Close()

		e, err := m.Save(args[0], lang, artifacts)
		if err != nil {
			return err
		}

		// the process exits before any background reap would run, so
		// enforce the size budget now
		if _, err = m.Cleanup(); err != nil {
			return err
		}

		fmt.Printf("stored %d artifacts (%d bytes) under %s/%s\n",
			e.ArtifactCount, e.Size, lang, e.Key)
		return nil
	},
}

func init() {
	storeCmd.Flags().StringVarP(&flagStoreLanguage, "language", "l", "",
		"target language of the artifacts (required)")
	storeCmd.MarkFlagRequired("language")
	rootCmd.AddCommand(storeCmd)
}
