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

	"github.com/gencache/gencache/pkg/cache/status"
	"github.com/gencache/gencache/pkg/cache/validation"
)

var flagValidatePurge bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "verify the integrity of every entry in the local cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		defer m.Close()

		if m.Local == nil {
			return fmt.Errorf("the local cache is disabled; nothing to validate")
		}

		entries, err := m.Local.Enumerate()
		if err != nil {
			return err
		}

		var invalid int
		for _, meta := range entries {
			e, st, err := m.Local.Lookup(meta.Key, meta.Language)
			if err != nil || st != status.LookupStatusHit {
				invalid++
				reportInvalid(meta.Key, meta.Language.String(), st.String())
				if flagValidatePurge {
					m.Local.Invalidate(meta.Key, meta.Language)
				}
				continue
			}
			if r := validation.Validate(e, cfg.Cache); !r.Valid {
				invalid++
				reportInvalid(e.Key, e.Language.String(), r.Errors[0])
				if flagValidatePurge {
					m.Local.Invalidate(e.Key, e.Language)
				}
			}
		}

		fmt.Printf("validated %d entries, %d invalid\n", len(entries), invalid)
		return nil
	},
}

func reportInvalid(key, lang, detail string) {
	fmt.Printf("  invalid %s/%s: %s\n", lang, key, detail)
}

func init() {
	validateCmd.Flags().BoolVar(&flagValidatePurge, "purge", false,
		"remove entries that fail validation")
	rootCmd.AddCommand(validateCmd)
}
