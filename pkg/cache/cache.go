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

// Package cache defines the gencache storage client interface and provides
// general cache functionality shared by the storage backends
package cache

import (
	"errors"
	"sort"
	"strings"

	"github.com/gencache/gencache/pkg/cache/entry"
	"github.com/gencache/gencache/pkg/cache/languages"
	"github.com/gencache/gencache/pkg/cache/options"
	"github.com/gencache/gencache/pkg/cache/status"
	"github.com/gencache/gencache/pkg/locks"
)

// ErrKNF represents the error "key not found in cache"
var ErrKNF = errors.New("key not found in cache")

// Client is the interface for the supported storage backends.
// When making new backends, Lookup() must return ErrKNF on cache miss.
type Client interface {
	// Connect initializes the backend and must be called before any other method
	Connect() error
	// Lookup retrieves the entry stored under the provided key and language,
	// with artifact payloads loaded and decompressed
	Lookup(cacheKey string, lang languages.Language) (*entry.Entry, status.LookupStatus, error)
	// Store persists the entry; a partially written entry is never observable
	// as a valid hit
	Store(e *entry.Entry) error
	// Invalidate removes the entry stored under the provided key and language,
	// returning true if an entry existed and was removed
	Invalidate(cacheKey string, lang languages.Language) bool
	// Enumerate returns the metadata of all stored entries, without artifact payloads
	Enumerate() ([]*entry.Entry, error)
	// Statistics reports aggregate entry counts and sizes, with a per-language breakdown
	Statistics() (*AggregateStats, error)
	// Cleanup enforces the provided size budget in bytes, removing entries in
	// least-recently-used order until the cache fits
	Cleanup(sizeLimitBytes int64) (*CleanupResult, error)
	// Close releases any resources held by the backend
	Close() error
	// Configuration returns the Options the backend was built from
	Configuration() *options.Options
	Locker() locks.NamedLocker
	SetLocker(locks.NamedLocker)
}

// LanguageStats is the per-language portion of an AggregateStats
type LanguageStats struct {
	Entries int64
	Bytes   int64
}

// AggregateStats reports the current contents of a storage backend
type AggregateStats struct {
	Entries     int64
	Bytes       int64
	PerLanguage map[string]*LanguageStats
}

// Observe accumulates one entry's metadata into the AggregateStats
func (s *AggregateStats) Observe(e *entry.Entry) {
	s.Entries++
	s.Bytes += e.Size
	if s.PerLanguage == nil {
		s.PerLanguage = make(map[string]*LanguageStats)
	}
	l, ok := s.PerLanguage[e.Language.String()]
	if !ok {
		l = &LanguageStats{}
		s.PerLanguage[e.Language.String()] = l
	}
	l.Entries++
	l.Bytes += e.Size
}

// ParseAccessor splits a language/key accessor, as used by the Cache Index,
// back into its language and cache key
func ParseAccessor(acc string) (languages.Language, string, bool) {
	parts := strings.SplitN(acc, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return 0, "", false
	}
	lang, ok := languages.Get(parts[0])
	if !ok {
		return 0, "", false
	}
	return lang, parts[1], true
}

// CleanupResult reports the outcome of an eviction exercise
type CleanupResult struct {
	EntriesRemoved int
	BytesFreed     int64
}

// SelectForEviction returns the entries to remove so that totalBytes less
// the freed bytes fits within sizeLimitBytes. Entries are selected in
// least-recently-used order; ties on last-access time break by lexical
// key order so eviction is reproducible. No more entries are selected
// than necessary to reach the limit.
func SelectForEviction(entries []*entry.Entry, totalBytes, sizeLimitBytes int64) []*entry.Entry {
	if sizeLimitBytes <= 0 || totalBytes <= sizeLimitBytes {
		return nil
	}
	sorted := make([]*entry.Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].LastAccess.Equal(sorted[j].LastAccess) {
			return sorted[i].Key < sorted[j].Key
		}
		return sorted[i].LastAccess.Before(sorted[j].LastAccess)
	})
	bytesNeeded := totalBytes - sizeLimitBytes
	var bytesSelected int64
	var i int
	for bytesSelected < bytesNeeded && i < len(sorted) {
		bytesSelected += sorted[i].Size
		i++
	}
	return sorted[:i]
}
