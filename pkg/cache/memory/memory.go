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

// Package memory is an in-process storage backend for tests and ephemeral
// single-invocation builds. Entries do not survive the process.
package memory

import (
	"sync"
	"time"

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

// Cache defines a Memory Cache client that conforms to the cache.Client interface
type Cache struct {
	Name     string
	Config   *options.Options
	client   sync.Map
	locker   locks.NamedLocker
	stopCh   chan struct{}
	stopOnce sync.Once
}

type cacheObject struct {
	entry      *entry.Entry
	expiration time.Time
}

// New returns an unconnected Memory Cache for the provided Options
func New(cfg *options.Options) *Cache {
	return &Cache{Name: cfg.Name, Config: cfg,
		locker: locks.NewNamedLocker(), stopCh: make(chan struct{})}
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

// Connect initializes the Cache and starts the expired entry reaper
func (c *Cache) Connect() error {
	logging.Info("memory cache setup", logging.Pairs{"name": c.Name})
	if c.Config.Index != nil && c.Config.Index.ReapInterval > 0 {
		go c.reaper(c.Config.Index.ReapInterval)
	}
	return nil
}

func accessor(cacheKey string, lang languages.Language) string {
	return lang.String() + "/" + cacheKey
}

// Store places a deep copy of the entry into the cache
func (c *Cache) Store(e *entry.Entry) error {
	var expiration time.Time
	if c.Config.TTL > 0 {
		expiration = e.Created.Add(c.Config.TTL)
	}
	metrics.ObserveCacheOperation(c.Name, providers.Memory, "set", "none", float64(e.Size))
	logging.Debug("memory cache store",
		logging.Pairs{"key": e.Key, "language": e.Language.String()})
	c.client.Store(accessor(e.Key, e.Language), &cacheObject{entry: e.Clone(), expiration: expiration})
	return nil
}

// Lookup retrieves the entry for the provided key and language
func (c *Cache) Lookup(cacheKey string, lang languages.Language) (*entry.Entry, status.LookupStatus, error) {
	acc := accessor(cacheKey, lang)
	nl, _ := c.locker.Acquire(acc)
	defer nl.Release()
	record, ok := c.client.Load(acc)
	if !ok {
		metrics.ObserveCacheMiss(c.Name, providers.Memory)
		return nil, status.LookupStatusKeyMiss, cache.ErrKNF
	}
	o := record.(*cacheObject)
	if !o.expiration.IsZero() && o.expiration.Before(time.Now()) {
		c.client.Delete(acc)
		metrics.ObserveCacheMiss(c.Name, providers.Memory)
		return nil, status.LookupStatusExpired, cache.ErrKNF
	}
	// touch by replacing the stored object, never by mutating it; readers
	// holding the old object must see stable access metadata
	e := o.entry.Clone()
	e.AccessCount++
	e.LastAccess = time.Now()
	c.client.Store(acc, &cacheObject{entry: e, expiration: o.expiration})
	metrics.ObserveCacheOperation(c.Name, providers.Memory, "get", "hit", float64(e.Size))
	return e.Clone(), status.LookupStatusHit, nil
}

// Invalidate removes the entry for the provided key and language
func (c *Cache) Invalidate(cacheKey string, lang languages.Language) bool {
	acc := accessor(cacheKey, lang)
	_, existed := c.client.Load(acc)
	c.client.Delete(acc)
	if existed {
		metrics.ObserveCacheDel(c.Name, providers.Memory, 0)
	}
	return existed
}

// Enumerate returns the metadata of all stored entries, without artifact payloads
func (c *Cache) Enumerate() ([]*entry.Entry, error) {
	entries := make([]*entry.Entry, 0)
	c.client.Range(func(_, value interface{}) bool {
		e := value.(*cacheObject).entry.Clone()
		for i := range e.Artifacts {
			e.Artifacts[i].Data = nil
		}
		entries = append(entries, e)
		return true
	})
	return entries, nil
}

// Statistics reports aggregate entry counts and sizes with a per-language breakdown
func (c *Cache) Statistics() (*cache.AggregateStats, error) {
	stats := &cache.AggregateStats{}
	c.client.Range(func(_, value interface{}) bool {
		stats.Observe(value.(*cacheObject).entry)
		return true
	})
	return stats, nil
}

// Cleanup evicts least-recently-used entries until the cache fits sizeLimitBytes
func (c *Cache) Cleanup(sizeLimitBytes int64) (*cache.CleanupResult, error) {
	entries, _ := c.Enumerate()
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
		metrics.ObserveCacheEvent(c.Name, providers.Memory, "eviction", "size_bytes")
	}
	return result, nil
}

// reaper continually removes expired entries
func (c *Cache) reaper(interval time.Duration) {
	for {
		select {
		case <-c.stopCh:
			return
		case <-time.After(interval):
		}
		now := time.Now()
		c.client.Range(func(k, value interface{}) bool {
			o := value.(*cacheObject)
			if !o.expiration.IsZero() && o.expiration.Before(now) {
				c.client.Delete(k)
			}
			return true
		})
	}
}

// Close stops the reaper
func (c *Cache) Close() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	return nil
}
