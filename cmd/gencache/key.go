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
	"strings"

	"github.com/spf13/cobra"

	"github.com/gencache/gencache/pkg/cache/key"
	"github.com/gencache/gencache/pkg/cache/languages"
)

var (
	flagKeyDeps        []string
	flagKeyImports     []string
	flagKeyOptions     []string
	flagKeyRuleVersion string
	flagKeyLanguage    string
	flagKeyLangOptions []string
	flagKeyPlugins     []string
	flagKeyToolchain   string
)

var keyCmd = &cobra.Command{
	Use:   "key [proto files...]",
	Short: "derive the cache key for a set of build inputs",
	Long: `key derives the base cache key for the provided proto sources and
build inputs. When --language is set, the language-specific key is
derived and printed instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sources := make([]key.Source, len(args))
		for i, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("could not read proto source [%s]: %w", path, err)
			}
			sources[i] = key.Source{Name: path, Content: data}
		}

		compileOptions, err := parsePairs(flagKeyOptions)
		if err != nil {
			return err
		}

		ruleVersion := flagKeyRuleVersion
		if !cfg.Cache.InvalidateOnRuleChange {
			ruleVersion = ""
		}

		baseKey := key.DeriveBaseKey(sources, flagKeyDeps, flagKeyImports,
			compileOptions, ruleVersion)

		if flagKeyLanguage == "" {
			fmt.Println(baseKey)
			return nil
		}

		lang, ok := languages.Get(flagKeyLanguage)
		if !ok {
			return fmt.Errorf("unknown language: %s", flagKeyLanguage)
		}
		langOptions, err := parsePairs(flagKeyLangOptions)
		if err != nil {
			return err
		}
		fmt.Println(key.DeriveLanguageKey(baseKey, lang, langOptions,
			flagKeyPlugins, flagKeyToolchain))
		return nil
	},
}

// parsePairs splits k=v flag values into a map
func parsePairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		parts := strings.SplitN(p, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid option [%s]: expected key=value", p)
		}
		m[parts[0]] = parts[1]
	}
	return m, nil
}

func init() {
	keyCmd.Flags().StringSliceVar(&flagKeyDeps, "dep", nil,
		"transitive dependency identity (repeatable)")
	keyCmd.Flags().StringSliceVar(&flagKeyImports, "import-path", nil,
		"proto import path (repeatable)")
	keyCmd.Flags().StringSliceVar(&flagKeyOptions, "option", nil,
		"compiler option as key=value (repeatable)")
	keyCmd.Flags().StringVar(&flagKeyRuleVersion, "rule-version", "",
		"rule implementation version to fold into the base key")
	keyCmd.Flags().StringVarP(&flagKeyLanguage, "language", "l", "",
		"derive the key for this target language instead of the base key")
	keyCmd.Flags().StringSliceVar(&flagKeyLangOptions, "lang-option", nil,
		"language generation option as key=value (repeatable)")
	keyCmd.Flags().StringSliceVar(&flagKeyPlugins, "plugin", nil,
		"language plugin identity (repeatable)")
	keyCmd.Flags().StringVar(&flagKeyToolchain, "toolchain", "",
		"language toolchain version")
	rootCmd.AddCommand(keyCmd)
}
