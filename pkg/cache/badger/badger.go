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

// Package badger is a BadgerDB local storage backend. Badger manages entry
// expiration natively, so entries carry the configured TTL at write time
// and no reaper runs. Size budget enforcement happens in Cleanup.
package badger

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger"

	"github.com/gencache/gencache/pkg/cache"
	"github.com/gencache/gencache/pkg/cache/entry"
	"github.com/gencache/gencache/pkg/cache/languages"
	"github.com/gencache/gencache/pkg/cache/metrics"
	"github.com/gencache/gencache/pkg/cache/options"
	"github.com/gencache/gencache/pkg/cache/providers"
	"github.com/gencache/gencache/pkg/cache/status"
	"github.com/gencache/gencache/pkg/locks"
	"github.com/gencache/gencache/pkg/observability/logging"
)

// Cache describes a Badger Cache
type Cache struct {
	Name   string
	Config *options.Options
	dbh    *badger.DB
	locker locks.NamedLocker
}

// New returns an unconnected Badger Cache for the provided Options
func New(cfg *options.Options) *Cache {
	return &Cache{Name: cfg.Name, Config: cfg, locker: locks.NewNamedLocker()}
}

// Locker returns the cache's locker
func (c *Cache) Locker() locks.NamedLocker {
	return c.locker
}

// SetLocker sets the cache's locker
func (c *Cache) SetLocker(l locks.NamedLocker) {
	c.locker = l
}

// Configuration returns the Configuration for the Cache object
func (c *Cache) Configuration() *options.Options {
	return c.Config
}

// Connect opens the configured Badger key-value store
func (c *Cache) Connect() error {
	logging.Info("badger cache setup", logging.Pairs{"name": c.Name,
		"cacheDir": c.Config.Badger.Directory})

	opts := badger.DefaultOptions(c.Config.Badger.Directory)
	if c.Config.Badger.ValueDirectory != "" {
		opts.ValueDir = c.Config.Badger.ValueDirectory
	}
	opts.Logger = nil

	var err error
	c.dbh, err = badger.Open(opts)
	return err
}

// Store persists the entry's metadata and payload bundle in one transaction,
// both carrying the configured TTL
func (c *Cache) Store(e *entry.Entry) error {
	if !e.Language.IsValid() {
		return fmt.Errorf("invalid language: %d", int(e.Language))
	}

	metrics.ObserveCacheOperation(c.Name, providers.BadgerDB, "set", "none", float64(e.Size))

	meta, err := e.ToBytes()
	if err != nil {
		return err
	}
	payload, err := e.PayloadBytes()
	if err != nil {
		return err
	}

	acc := accessor(e.Key, e.Language)
	nl, _ := c.locker.Acquire(acc)
	defer nl.Release()

	metaKey, dataKey := keyNames(acc)
	err = c.dbh.Update(func(txn *badger.Txn) error {
		me := badger.NewEntry([]byte(metaKey), meta)
		de := badger.NewEntry([]byte(dataKey), payload)
		if c.Config.TTL > 0 {
			me = me.WithTTL(c.Config.TTL)
			de = de.WithTTL(c.Config.TTL)
		}
		if err2 := txn.SetEntry(me); err2 != nil {
			return err2
		}
		return txn.SetEntry(de)
	})
	if err != nil {
		return err
	}

	logging.Debug("badger cache store",
		logging.Pairs{"key": e.Key, "language": e.Language.String()})
	return nil
}

// Lookup retrieves the entry for the provided key and language, with
// artifact payloads loaded and decompressed. Badger drops expired keys
// itself, so an expired entry surfaces as a key miss.
func (c *Cache) Lookup(cacheKey string, lang languages.Language) (*entry.Entry, status.LookupStatus, error) {
	acc := accessor(cacheKey, lang)
	nl, _ := c.locker.RAcquire(acc)
	defer nl.RRelease()

	metaKey, dataKey := keyNames(acc)
	var meta, payload []byte
	err := c.dbh.View(func(txn *badger.Txn) error {
		item, err2 := txn.Get([]byte(metaKey))
		if err2 != nil {
			return err2
		}
		if meta, err2 = item.ValueCopy(nil); err2 != nil {
			return err2
		}
		item, err2 = txn.Get([]byte(dataKey))
		if err2 != nil {
			return err2
		}
		payload, err2 = item.ValueCopy(nil)
		return err2
	})
	if err == badger.ErrKeyNotFound {
		logging.Debug("badger cache miss",
			logging.Pairs{"key": cacheKey, "language": lang.String()})
		metrics.ObserveCacheMiss(c.Name, providers.BadgerDB)
		return nil, status.LookupStatusKeyMiss, cache.ErrKNF
	}
	if err != nil {
		return nil, status.LookupStatusError, err
	}

	e, err := entry.FromBytes(meta)
	if err != nil {
		metrics.ObserveCacheEvent(c.Name, providers.BadgerDB, "error", "metadata deserialization")
		return nil, status.LookupStatusError,
			fmt.Errorf("value for key [%s] could not be deserialized from cache", cacheKey)
	}
	if err = e.SetPayloadFromBytes(payload); err != nil {
		metrics.ObserveCacheEvent(c.Name, providers.BadgerDB, "error", "artifact payload corrupt")
		return e, status.LookupStatusError, err
	}

	c.touch(e, acc)

	logging.Debug("badger cache retrieve",
		logging.Pairs{"key": cacheKey, "language": lang.String()})
	metrics.ObserveCacheOperation(c.Name, providers.BadgerDB, "get", "hit", float64(e.Size))
	return e, status.LookupStatusHit, nil
}

// touch persists updated access metadata, best-effort, preserving the
// entry's remaining TTL
func (c *Cache) touch(e *entry.Entry, acc string) {
	e.AccessCount++
	e.LastAccess = time.Now()
	meta, err := e.ToBytes()
	if err != nil {
		return
	}
	metaKey, _ := keyNames(acc)
	c.dbh.Update(func(txn *badger.Txn) error {
		item, err2 := txn.Get([]byte(metaKey))
		if err2 != nil {
			return err2
		}
		me := badger.NewEntry([]byte(metaKey), meta)
		if exp := item.ExpiresAt(); exp > 0 {
			if remaining := time.Until(time.Unix(int64(exp), 0)); remaining > 0 {
				me = me.WithTTL(remaining)
			}
		}
		return txn.SetEntry(me)
	})
}

// Invalidate removes the entry for the provided key and language,
// returning true if an entry existed and was removed
func (c *Cache) Invalidate(cacheKey string, lang languages.Language) bool {
	acc := accessor(cacheKey, lang)
	nl, _ := c.locker.Acquire(acc)
	defer nl.Release()

	metaKey, dataKey := keyNames(acc)
	existed := false
	err := c.dbh.Update(func(txn *badger.Txn) error {
		if _, err2 := txn.Get([]byte(metaKey)); err2 != nil {
			return err2
		}
		existed = true
		if err2 := txn.Delete([]byte(metaKey)); err2 != nil {
			return err2
		}
		return txn.Delete([]byte(dataKey))
	})
	if err != nil && err != badger.ErrKeyNotFound {
		logging.Warn("badger cache invalidate failed",
			logging.Pairs{"key": cacheKey, "language": lang.String(), "detail": err.Error()})
		return false
	}
	if existed {
		metrics.ObserveCacheDel(c.Name, providers.BadgerDB, 0)
		logging.Debug("badger cache invalidate",
			logging.Pairs{"key": cacheKey, "language": lang.String()})
	}
	return existed
}

// Enumerate returns the metadata of all stored entries, without artifact payloads
func (c *Cache) Enumerate() ([]*entry.Entry, error) {
	entries := make([]*entry.Entry, 0)
	prefix := []byte(metaPrefix)
	err := c.dbh.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			meta, err2 := it.Item().ValueCopy(nil)
			if err2 != nil {
				continue
			}
			e, err2 := entry.FromBytes(meta)
			if err2 != nil {
				continue
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Statistics reports aggregate entry counts and sizes with a per-language breakdown
func (c *Cache) Statistics() (*cache.AggregateStats, error) {
	entries, err := c.Enumerate()
	if err != nil {
		return nil, err
	}
	stats := &cache.AggregateStats{}
	for _, e := range entries {
		stats.Observe(e)
	}
	return stats, nil
}

// Cleanup evicts least-recently-used entries until the cache fits sizeLimitBytes
func (c *Cache) Cleanup(sizeLimitBytes int64) (*cache.CleanupResult, error) {
	entries, err := c.Enumerate()
	if err != nil {
		return nil, err
	}
	var totalBytes int64
	for _, e := range entries {
		totalBytes += e.Size
	}
	result := &cache.CleanupResult{}
	for _, e := range cache.SelectForEviction(entries, totalBytes, sizeLimitBytes) {
		if c.Invalidate(e.Key, e.Language) {
			result.EntriesRemoved++
			result.BytesFreed += e.Size
		}
	}
	if result.EntriesRemoved > 0 {
		metrics.ObserveCacheEvent(c.Name, providers.BadgerDB, "eviction", "size_bytes")
	}
	return result, nil
}

// Close closes the database
func (c *Cache) Close() error {
	if c.dbh == nil {
		return nil
	}
	return c.dbh.Close()
}

const (
	metaPrefix = "meta:"
	dataPrefix = "data:"
)

func keyNames(acc string) (string, string) {
	return metaPrefix + acc, dataPrefix + acc
}

func accessor(cacheKey string, lang languages.Language) string {
	return lang.String() + "/" + cacheKey
}
