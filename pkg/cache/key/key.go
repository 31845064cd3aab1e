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

// Package key derives the cache keys that index generated-code artifacts.
//
// Keys come in two tiers. The base key fingerprints everything shared by
// all target languages: proto source identities and contents, transitive
// dependencies, import paths, compiler options and the rule implementation
// version. The language key folds the base key together with the target
// language, its option set, its plugins and its toolchain version, so a
// configuration change for one language can never invalidate another's
// cached output.
//
// Derivation is a pure function of its inputs: no I/O, no clock, no
// process state. Set-valued inputs are sorted before hashing, so
// reordering inputs that carry no semantic order never changes the key.
package key

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/gencache/gencache/pkg/cache/languages"
)

// Length is the number of hex characters retained in a derived key,
// preserving 128 bits of digest entropy. The key indexes cache entries
// and is not a security boundary; artifact integrity is separately
// guarded by full-width checksums in entry metadata.
const Length = 32

// Sentinels for empty set-valued inputs. Hashing a typed sentinel rather
// than an empty string keeps an empty dependency list from colliding with
// an empty options dict.
const (
	noSources   = "no-sources"
	noDeps      = "no-deps"
	noImports   = "no-imports"
	noOptions   = "no-options"
	noPlugins   = "no-plugins"
	noRule      = "no-rule"
	noToolchain = "no-toolchain"
)

// Source identifies one proto source file by name and content
type Source struct {
	Name    string
	Content []byte
}

func checksum(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

func sourcesComponent(sources []Source) string {
	if len(sources) == 0 {
		return noSources
	}
	vals := make([]string, len(sources))
	for i, s := range sources {
		sum := sha256.Sum256(s.Content)
		vals[i] = s.Name + "=" + hex.EncodeToString(sum[:])
	}
	sort.Strings(vals)
	return checksum(strings.Join(vals, ","))
}

func listComponent(items []string, sentinel string) string {
	if len(items) == 0 {
		return sentinel
	}
	vals := make([]string, len(items))
	copy(vals, items)
	sort.Strings(vals)
	return checksum(strings.Join(vals, ","))
}

func mapComponent(m map[string]string, sentinel string) string {
	if len(m) == 0 {
		return sentinel
	}
	vals := make([]string, 0, len(m))
	for k, v := range m {
		vals = append(vals, k+"="+v)
	}
	sort.Strings(vals)
	return checksum(strings.Join(vals, ","))
}

// DeriveBaseKey calculates the language-agnostic cache key for the provided
// build inputs. Passing an empty ruleVersion excludes the rule implementation
// version from the key, for configurations that disable rule-change
// invalidation.
func DeriveBaseKey(sources []Source, transitiveDeps, importPaths []string,
	compileOptions map[string]string, ruleVersion string) string {

	rule := noRule
	if ruleVersion != "" {
		rule = "rule=" + ruleVersion
	}

	components := []string{
		sourcesComponent(sources),
		listComponent(transitiveDeps, noDeps),
		listComponent(importPaths, noImports),
		mapComponent(compileOptions, noOptions),
		rule,
	}

	return checksum(strings.Join(components, ":"))[:Length]
}

// DeriveLanguageKey calculates the language-specific cache key from a base
// key and the language's generation configuration
func DeriveLanguageKey(baseKey string, lang languages.Language,
	languageOptions map[string]string, plugins []string, toolchainVersion string) string {

	toolchain := noToolchain
	if toolchainVersion != "" {
		toolchain = "toolchain=" + toolchainVersion
	}

	components := []string{
		baseKey,
		"lang=" + lang.String(),
		mapComponent(languageOptions, noOptions),
		listComponent(plugins, noPlugins),
		toolchain,
	}

	return checksum(strings.Join(components, ":"))[:Length]
}
