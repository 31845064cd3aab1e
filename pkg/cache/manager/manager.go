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

// Package manager orchestrates lookups and stores across the local and
// remote cache tiers. All storage failures degrade to cache misses; a
// broken cache can slow a build down but never break it.
package manager

import (
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gencache/gencache/pkg/cache"
	"github.com/gencache/gencache/pkg/cache/entry"
	"github.com/gencache/gencache/pkg/cache/languages"
	"github.com/gencache/gencache/pkg/cache/metrics"
	"github.com/gencache/gencache/pkg/cache/options"
	"github.com/gencache/gencache/pkg/cache/stats"
	"github.com/gencache/gencache/pkg/cache/status"
	"github.com/gencache/gencache/pkg/cache/validation"
	"github.com/gencache/gencache/pkg/encoding"
	"github.com/gencache/gencache/pkg/observability/logging"
)

// Manager coordinates the local and remote cache tiers
type Manager struct {
	Config    *options.Options
	Local     cache.Client
	Remote    cache.Client
	Collector *stats.Collector
	group     singleflight.Group
}

// New returns a Manager for the provided tiers. Either tier may be nil
// when the corresponding Options flag disables it.
func New(cfg *options.Options, local, remote cache.Client, collector *stats.Collector) *Manager {
	if collector == nil {
		collector = stats.NewCollector(cfg.LanguageIsolation)
	}
	return &Manager{Config: cfg, Local: local, Remote: remote, Collector: collector}
}

// Fetch retrieves the validated artifacts stored under the provided key and
// language, consulting the local tier first and falling back to the remote
// tier. A remote hit is backfilled into the local tier. Concurrent fetches
// for the same key and language share one lookup.
func (m *Manager) Fetch(cacheKey string, lang languages.Language) ([]entry.Artifact, bool) {
	if !m.localEnabled() && !m.remoteEnabled() {
		return nil, false
	}

	acc := lang.String() + "/" + cacheKey
	v, _, _ := m.group.Do(acc, func() (interface{}, error) {
		return m.fetch(cacheKey, lang), nil
	})
	e, _ := v.(*entry.Entry)
	if e == nil {
		return nil, false
	}
	return e.Artifacts, true
}

func (m *Manager) fetch(cacheKey string, lang languages.Language) *entry.Entry {
	start := time.Now()

	if m.localEnabled() {
		if e := m.lookupTier(m.Local, cacheKey, lang, start); e != nil {
			return e
		}
	}

	if m.remoteEnabled() {
		if e := m.lookupTier(m.Remote, cacheKey, lang, start); e != nil {
			m.backfill(e)
			return e
		}
	}

	return nil
}

// lookupTier performs a validated lookup against one tier, purging any
// entry that fails validation
func (m *Manager) lookupTier(client cache.Client, cacheKey string,
	lang languages.Language, start time.Time) *entry.Entry {

	e, st, err := client.Lookup(cacheKey, lang)
	elapsed := time.Since(start)
	provider := client.Configuration().Provider
	metrics.ObserveCacheOperationDuration(client.Configuration().Name, provider, "get", elapsed)

	if err != nil || st != status.LookupStatusHit {
		m.Collector.RecordLookup(lang, st, elapsed)
		if st == status.LookupStatusError {
			// an unreadable entry is unrecoverable; remove it so the
			// next build repopulates it cleanly
			client.Invalidate(cacheKey, lang)
		}
		return nil
	}

	if r := validation.Validate(e, m.Config); !r.Valid {
		logging.Warn("cache entry failed validation",
			logging.Pairs{"key": cacheKey, "language": lang.String(),
				"provider": provider, "detail": r.Errors[0]})
		client.Invalidate(cacheKey, lang)
		m.Collector.RecordLookup(lang, status.LookupStatusInvalid, elapsed)
		return nil
	}

	m.Collector.RecordLookup(lang, status.LookupStatusHit, elapsed)
	return e
}

// backfill stores a remote hit into the local tier, best-effort
func (m *Manager) backfill(e *entry.Entry) {
	if !m.localEnabled() {
		return
	}
	if err := m.Local.Store(e); err != nil {
		logging.Warn("local cache backfill failed",
			logging.Pairs{"key": e.Key, "language": e.Language.String(),
				"detail": err.Error()})
	}
}

// Save builds an entry from the provided artifacts and stores it in each
// enabled tier. The remote store is best-effort; the returned error
// reflects only the local tier.
func (m *Manager) Save(cacheKey string, lang languages.Language,
	artifacts []entry.Artifact) (*entry.Entry, error) {

	if !m.localEnabled() && !m.remoteEnabled() {
		return nil, fmt.Errorf("no cache tier is enabled")
	}

	enc := encoding.IdentityID
	if m.Config.CompressionEnabled {
		enc = m.Config.EncodingID
	}
	e := entry.New(cacheKey, lang, artifacts, enc)

	start := time.Now()
	var err error
	if m.localEnabled() {
		err = m.Local.Store(e)
		metrics.ObserveCacheOperationDuration(m.Local.Configuration().Name,
			m.Local.Configuration().Provider, "set", time.Since(start))
	}

	if m.remoteEnabled() {
		if rerr := m.Remote.Store(e); rerr != nil {
			logging.Warn("remote cache store failed",
				logging.Pairs{"key": cacheKey, "language": lang.String(),
					"detail": rerr.Error()})
		}
	}

	if err != nil {
		return nil, err
	}
	m.Collector.RecordStore(time.Since(start))
	return e, nil
}

// Invalidate removes the entry for the provided key and language from
// every enabled tier, returning true if any tier held it
func (m *Manager) Invalidate(cacheKey string, lang languages.Language) bool {
	var removed bool
	if m.localEnabled() {
		removed = m.Local.Invalidate(cacheKey, lang)
	}
	if m.remoteEnabled() {
		if m.Remote.Invalidate(cacheKey, lang) {
			removed = true
		}
	}
	if removed {
		m.Collector.RecordInvalidation()
	}
	return removed
}

// Cleanup enforces the configured size budget on the local tier
func (m *Manager) Cleanup() (*cache.CleanupResult, error) {
	if !m.localEnabled() {
		return &cache.CleanupResult{}, nil
	}
	result, err := m.Local.Cleanup(m.Config.SizeLimitBytes)
	if err != nil {
		return nil, err
	}
	m.Collector.RecordEviction(result.EntriesRemoved)
	m.refreshSize()
	return result, nil
}

// Statistics reports the contents of the local tier
func (m *Manager) Statistics() (*cache.AggregateStats, error) {
	if !m.localEnabled() {
		return &cache.AggregateStats{}, nil
	}
	s, err := m.Local.Statistics()
	if err != nil {
		return nil, err
	}
	m.Collector.UpdateSize(s.Bytes, m.Config.SizeLimitBytes)
	return s, nil
}

func (m *Manager) refreshSize() {
	if s, err := m.Local.Statistics(); err == nil {
		m.Collector.UpdateSize(s.Bytes, m.Config.SizeLimitBytes)
	}
}

// Close closes every enabled tier
func (m *Manager) Close() error {
	var err error
	if m.Local != nil {
		err = m.Local.Close()
	}
	if m.Remote != nil {
		if rerr := m.Remote.Close(); err == nil {
			err = rerr
		}
	}
	return err
}

func (m *Manager) localEnabled() bool {
	return m.Config.LocalEnabled && m.Local != nil
}

func (m *Manager) remoteEnabled() bool {
	return m.Config.RemoteEnabled && m.Remote != nil
}
