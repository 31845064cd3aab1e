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

// Package filesystem is the default local storage backend. Entries persist
// under {root}/{key-prefix-shard}/{language}/{key}/ as one metadata file
// plus one payload file per artifact, and are published atomically by
// staging into a temporary directory and renaming into place, so a
// partially written entry is never observable as a valid hit.
package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/gencache/gencache/pkg/cache"
	"github.com/gencache/gencache/pkg/cache/entry"
	"github.com/gencache/gencache/pkg/cache/index"
	"github.com/gencache/gencache/pkg/cache/languages"
	"github.com/gencache/gencache/pkg/cache/metrics"
	"github.com/gencache/gencache/pkg/cache/options"
	"github.com/gencache/gencache/pkg/cache/providers"
	"github.com/gencache/gencache/pkg/cache/status"
	"github.com/gencache/gencache/pkg/locks"
	"github.com/gencache/gencache/pkg/observability/logging"
)

const metaFile = "meta"

// Cache describes a Filesystem Cache
type Cache struct {
	Name   string
	Config *options.Options
	Index  *index.Index
	locker locks.NamedLocker
}

// New returns an unconnected Filesystem Cache for the provided Options
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

// Connect creates the cache root and restores the Cache Index
func (c *Cache) Connect() error {
	logging.Info("filesystem cache setup",
		logging.Pairs{"name": c.Name, "storagePath": c.Config.StoragePath})
	if err := makeDirectory(c.Config.StoragePath); err != nil {
		return err
	}

	indexData, _ := os.ReadFile(filepath.Join(c.Config.StoragePath, index.IndexKey))
	c.Index = index.NewIndex(c.Name, providers.Filesystem, indexData, c.Config.Index,
		c.Config.SizeLimitBytes, c.bulkRemove, c.flushIndex)

	if len(indexData) == 0 {
		c.rebuildIndex()
	}
	return nil
}

// rebuildIndex reconstructs index metadata from entries already on disk,
// for caches whose index file was lost or never flushed. Access ordering
// from the prior process is not recoverable; restored entries re-enter
// the LRU ordering as of now.
func (c *Cache) rebuildIndex() {
	entries, err := c.Enumerate()
	if err != nil || len(entries) == 0 {
		return
	}
	for _, e := range entries {
		c.Index.UpdateObject(&index.Object{
			Key:        accessor(e.Key, e.Language),
			Size:       e.Size,
			Expiration: c.expiration(e),
		})
	}
	logging.Info("filesystem cache index rebuilt",
		logging.Pairs{"name": c.Name, "entries": len(entries)})
}

func (c *Cache) expiration(e *entry.Entry) time.Time {
	if c.Config.TTL > 0 {
		return e.Created.Add(c.Config.TTL)
	}
	return time.Time{}
}

// Store atomically persists the entry under its key and language shard
func (c *Cache) Store(e *entry.Entry) error {
	if len(e.Key) < 2 {
		return fmt.Errorf("invalid cache key: %s", e.Key)
	}
	if !e.Language.IsValid() {
		return fmt.Errorf("invalid language: %d", int(e.Language))
	}

	metrics.ObserveCacheOperation(c.Name, providers.Filesystem, "set", "none", float64(e.Size))

	meta, err := e.ToBytes()
	if err != nil {
		return err
	}

	acc := accessor(e.Key, e.Language)
	nl, _ := c.locker.Acquire(acc)
	defer nl.Release()

	// stage the complete entry, then publish with a single rename
	tmp, err := os.MkdirTemp(c.Config.StoragePath, ".stage-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	if err = os.WriteFile(filepath.Join(tmp, metaFile), meta, 0644); err != nil {
		return err
	}
	for i := range e.Artifacts {
		var payload []byte
		if payload, err = e.EncodeArtifact(i); err != nil {
			return err
		}
		if err = os.WriteFile(filepath.Join(tmp, payloadFile(i)), payload, 0644); err != nil {
			return err
		}
	}

	dir := c.entryDir(e.Key, e.Language)
	if err = os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return err
	}
	os.RemoveAll(dir)
	if err = os.Rename(tmp, dir); err != nil {
		return err
	}

	logging.Debug("filesystem cache store",
		logging.Pairs{"key": e.Key, "language": e.Language.String(), "dir": dir})

	c.Index.UpdateObject(&index.Object{Key: acc, Size: e.Size, Expiration: c.expiration(e)})

	// opportunistic eviction on the write path only; lookups never pay for it
	if size, _ := c.Index.Size(); c.Config.SizeLimitBytes > 0 && size > c.Config.SizeLimitBytes {
		go c.Index.Reap()
	}
	return nil
}

// Lookup retrieves the entry for the provided key and language, with
// artifact payloads loaded and decompressed
func (c *Cache) Lookup(cacheKey string, lang languages.Language) (*entry.Entry, status.LookupStatus, error) {
	if len(cacheKey) < 2 {
		return nil, status.LookupStatusError, fmt.Errorf("invalid cache key: %s", cacheKey)
	}
	acc := accessor(cacheKey, lang)
	nl, _ := c.locker.RAcquire(acc)
	defer nl.RRelease()

	dir := c.entryDir(cacheKey, lang)
	meta, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		logging.Debug("filesystem cache miss",
			logging.Pairs{"key": cacheKey, "language": lang.String()})
		metrics.ObserveCacheMiss(c.Name, providers.Filesystem)
		return nil, status.LookupStatusKeyMiss, cache.ErrKNF
	}

	e, err := entry.FromBytes(meta)
	if err != nil {
		metrics.ObserveCacheEvent(c.Name, providers.Filesystem, "error", "metadata deserialization")
		return nil, status.LookupStatusError,
			fmt.Errorf("value for key [%s] could not be deserialized from cache", cacheKey)
	}

	if exp := c.Index.GetExpiration(acc); !exp.IsZero() && exp.Before(time.Now()) {
		// expired but not yet reaped; delete now rather than serving it
		c.removeEntry(cacheKey, lang)
		metrics.ObserveCacheMiss(c.Name, providers.Filesystem)
		return nil, status.LookupStatusExpired, cache.ErrKNF
	}

	for i := range e.Artifacts {
		payload, err := os.ReadFile(filepath.Join(dir, payloadFile(i)))
		if err != nil {
			metrics.ObserveCacheEvent(c.Name, providers.Filesystem, "error", "artifact payload missing")
			return e, status.LookupStatusError,
				fmt.Errorf("artifact %d for key [%s] could not be read from cache", i, cacheKey)
		}
		if err = e.DecodeArtifact(i, payload); err != nil {
			metrics.ObserveCacheEvent(c.Name, providers.Filesystem, "error", "artifact payload corrupt")
			return e, status.LookupStatusError, err
		}
	}

	c.Index.UpdateObjectAccessTime(acc)
	c.touch(e, dir)

	logging.Debug("filesystem cache retrieve",
		logging.Pairs{"key": cacheKey, "language": lang.String()})
	metrics.ObserveCacheOperation(c.Name, providers.Filesystem, "get", "hit", float64(e.Size))
	return e, status.LookupStatusHit, nil
}

// touch persists updated access metadata. Losing this write under a race
// only skews eviction ordering, so failures are ignored.
func (c *Cache) touch(e *entry.Entry, dir string) {
	e.AccessCount++
	e.LastAccess = time.Now()
	meta, err := e.ToBytes()
	if err != nil {
		return
	}
	tmp := filepath.Join(dir, metaFile+".tmp")
	if err = os.WriteFile(tmp, meta, 0644); err != nil {
		return
	}
	os.Rename(tmp, filepath.Join(dir, metaFile))
}

// Invalidate removes the entry for the provided key and language,
// returning true if an entry existed and was removed
func (c *Cache) Invalidate(cacheKey string, lang languages.Language) bool {
	if len(cacheKey) < 2 {
		return false
	}
	acc := accessor(cacheKey, lang)
	nl, _ := c.locker.Acquire(acc)
	defer nl.Release()
	return c.removeEntry(cacheKey, lang)
}

func (c *Cache) removeEntry(cacheKey string, lang languages.Language) bool {
	dir := c.entryDir(cacheKey, lang)
	if _, err := os.Stat(dir); err != nil {
		return false
	}
	if err := os.RemoveAll(dir); err != nil {
		logging.Warn("filesystem cache invalidate failed",
			logging.Pairs{"key": cacheKey, "language": lang.String(), "detail": err.Error()})
		return false
	}
	c.Index.RemoveObject(accessor(cacheKey, lang))
	logging.Debug("filesystem cache invalidate",
		logging.Pairs{"key": cacheKey, "language": lang.String()})
	return true
}

// bulkRemove deletes entry directories on behalf of the index's eviction
// exercise. The index has already dropped its own metadata for these keys.
func (c *Cache) bulkRemove(accessors []string) {
	for _, acc := range accessors {
		lang, key, ok := parseAccessor(acc)
		if !ok {
			continue
		}
		os.RemoveAll(c.entryDir(key, lang))
	}
}

func (c *Cache) flushIndex(data []byte) {
	path := filepath.Join(c.Config.StoragePath, index.IndexKey)
	if err := os.WriteFile(path+".tmp", data, 0644); err != nil {
		logging.Warn("unable to flush cache index", logging.Pairs{"detail": err.Error()})
		return
	}
	os.Rename(path+".tmp", path)
}

// Enumerate returns the metadata of all stored entries, without artifact payloads
func (c *Cache) Enumerate() ([]*entry.Entry, error) {
	entries := make([]*entry.Entry, 0)
	shards, err := os.ReadDir(c.Config.StoragePath)
	if err != nil {
		return nil, err
	}
	for _, shard := range shards {
		if !shard.IsDir() || strings.HasPrefix(shard.Name(), ".") {
			continue
		}
		shardPath := filepath.Join(c.Config.StoragePath, shard.Name())
		langs, err := os.ReadDir(shardPath)
		if err != nil {
			continue
		}
		for _, ld := range langs {
			if !ld.IsDir() {
				continue
			}
			langPath := filepath.Join(shardPath, ld.Name())
			keys, err := os.ReadDir(langPath)
			if err != nil {
				continue
			}
			for _, kd := range keys {
				if !kd.IsDir() {
					continue
				}
				meta, err := os.ReadFile(filepath.Join(langPath, kd.Name(), metaFile))
				if err != nil {
					continue
				}
				e, err := entry.FromBytes(meta)
				if err != nil {
					continue
				}
				entries = append(entries, e)
			}
		}
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

// Cleanup enforces the provided size budget via the Cache Index
func (c *Cache) Cleanup(sizeLimitBytes int64) (*cache.CleanupResult, error) {
	return c.Index.Cleanup(sizeLimitBytes), nil
}

// Close stops the Cache Index
func (c *Cache) Close() error {
	if c.Index != nil {
		c.Index.Close()
	}
	return nil
}

func (c *Cache) entryDir(cacheKey string, lang languages.Language) string {
	return filepath.Join(c.Config.StoragePath, cacheKey[:2], lang.String(), cacheKey)
}

func payloadFile(i int) string {
	return fmt.Sprintf("a%d", i)
}

func accessor(cacheKey string, lang languages.Language) string {
	return lang.String() + "/" + cacheKey
}

func parseAccessor(acc string) (languages.Language, string, bool) {
	lang, key, ok := cache.ParseAccessor(acc)
	if !ok || len(key) < 2 {
		return 0, "", false
	}
	return lang, key, true
}

// writeable returns true if the path is writeable by the calling process
func writeable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}

// makeDirectory creates a directory on the filesystem
func makeDirectory(path string) error {
	err := os.MkdirAll(path, 0755)
	if err != nil || !writeable(path) {
		return fmt.Errorf("[%s] directory is not writeable by gencache: %v", path, err)
	}
	return nil
}
