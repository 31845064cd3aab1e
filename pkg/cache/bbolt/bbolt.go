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

// Package bbolt is a single-file local storage backend. Each language gets
// its own bucket, and each entry is a metadata/payload key pair so that
// Enumerate and Statistics never load artifact payloads.
package bbolt

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"

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

// Cache describes a BBolt Cache
type Cache struct {
	Name   string
	Config *options.Options
	Index  *index.Index
	dbh    *bbolt.DB
	locker locks.NamedLocker
}

// New returns an unconnected BBolt Cache for the provided Options
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

// Connect opens the database, creates the per-language buckets and restores
// the Cache Index
func (c *Cache) Connect() error {
	logging.Info("bbolt cache setup", logging.Pairs{"name": c.Name,
		"cacheFile": c.Config.BBolt.Filename})

	var err error
	c.dbh, err = bbolt.Open(c.Config.BBolt.Filename, 0644, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return err
	}

	err = c.dbh.Update(func(tx *bbolt.Tx) error {
		if _, err2 := tx.CreateBucketIfNotExists([]byte(c.Config.BBolt.Bucket)); err2 != nil {
			return fmt.Errorf("create bucket: %w", err2)
		}
		for name := range languages.Names {
			if _, err2 := tx.CreateBucketIfNotExists([]byte(c.bucketName(name))); err2 != nil {
				return fmt.Errorf("create bucket: %w", err2)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	var indexData []byte
	c.dbh.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket([]byte(c.Config.BBolt.Bucket)).Get([]byte(index.IndexKey)); v != nil {
			indexData = make([]byte, len(v))
			copy(indexData, v)
		}
		return nil
	})

	c.Index = index.NewIndex(c.Name, providers.BBolt, indexData, c.Config.Index,
		c.Config.SizeLimitBytes, c.bulkRemove, c.flushIndex)

	if len(indexData) == 0 {
		c.rebuildIndex()
	}
	return nil
}

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
	logging.Info("bbolt cache index rebuilt",
		logging.Pairs{"name": c.Name, "entries": len(entries)})
}

func (c *Cache) expiration(e *entry.Entry) time.Time {
	if c.Config.TTL > 0 {
		return e.Created.Add(c.Config.TTL)
	}
	return time.Time{}
}

// Store persists the entry's metadata and payload bundle in one transaction
func (c *Cache) Store(e *entry.Entry) error {
	if !e.Language.IsValid() {
		return fmt.Errorf("invalid language: %d", int(e.Language))
	}

	metrics.ObserveCacheOperation(c.Name, providers.BBolt, "set", "none", float64(e.Size))

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

	metaKey, dataKey := keyNames(e.Key)
	err = c.dbh.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(c.bucketName(e.Language.String())))
		if err2 := b.Put([]byte(metaKey), meta); err2 != nil {
			return err2
		}
		return b.Put([]byte(dataKey), payload)
	})
	if err != nil {
		return err
	}

	logging.Debug("bbolt cache store",
		logging.Pairs{"key": e.Key, "language": e.Language.String()})

	c.Index.UpdateObject(&index.Object{Key: acc, Size: e.Size, Expiration: c.expiration(e)})

	if size, _ := c.Index.Size(); c.Config.SizeLimitBytes > 0 && size > c.Config.SizeLimitBytes {
		go c.Index.Reap()
	}
	return nil
}

// Lookup retrieves the entry for the provided key and language, with
// artifact payloads loaded and decompressed
func (c *Cache) Lookup(cacheKey string, lang languages.Language) (*entry.Entry, status.LookupStatus, error) {
	acc := accessor(cacheKey, lang)
	nl, _ := c.locker.RAcquire(acc)
	defer nl.RRelease()

	metaKey, dataKey := keyNames(cacheKey)
	var meta, payload []byte
	err := c.dbh.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(c.bucketName(lang.String())))
		if b == nil {
			return cache.ErrKNF
		}
		m := b.Get([]byte(metaKey))
		if m == nil {
			return cache.ErrKNF
		}
		meta = make([]byte, len(m))
		copy(meta, m)
		if d := b.Get([]byte(dataKey)); d != nil {
			payload = make([]byte, len(d))
			copy(payload, d)
		}
		return nil
	})
	if err != nil {
		logging.Debug("bbolt cache miss",
			logging.Pairs{"key": cacheKey, "language": lang.String()})
		metrics.ObserveCacheMiss(c.Name, providers.BBolt)
		return nil, status.LookupStatusKeyMiss, cache.ErrKNF
	}

	e, err := entry.FromBytes(meta)
	if err != nil {
		metrics.ObserveCacheEvent(c.Name, providers.BBolt, "error", "metadata deserialization")
		return nil, status.LookupStatusError,
			fmt.Errorf("value for key [%s] could not be deserialized from cache", cacheKey)
	}

	if exp := c.Index.GetExpiration(acc); !exp.IsZero() && exp.Before(time.Now()) {
		c.removeEntry(cacheKey, lang)
		metrics.ObserveCacheMiss(c.Name, providers.BBolt)
		return nil, status.LookupStatusExpired, cache.ErrKNF
	}

	if payload == nil {
		metrics.ObserveCacheEvent(c.Name, providers.BBolt, "error", "artifact payload missing")
		return e, status.LookupStatusError,
			fmt.Errorf("payload for key [%s] could not be read from cache", cacheKey)
	}
	if err = e.SetPayloadFromBytes(payload); err != nil {
		metrics.ObserveCacheEvent(c.Name, providers.BBolt, "error", "artifact payload corrupt")
		return e, status.LookupStatusError, err
	}

	c.Index.UpdateObjectAccessTime(acc)
	c.touch(e, lang)

	logging.Debug("bbolt cache retrieve",
		logging.Pairs{"key": cacheKey, "language": lang.String()})
	metrics.ObserveCacheOperation(c.Name, providers.BBolt, "get", "hit", float64(e.Size))
	return e, status.LookupStatusHit, nil
}

// touch persists updated access metadata, best-effort
func (c *Cache) touch(e *entry.Entry, lang languages.Language) {
	e.AccessCount++
	e.LastAccess = time.Now()
	meta, err := e.ToBytes()
	if err != nil {
		return
	}
	metaKey, _ := keyNames(e.Key)
	c.dbh.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(c.bucketName(lang.String()))).Put([]byte(metaKey), meta)
	})
}

// Invalidate removes the entry for the provided key and language,
// returning true if an entry existed and was removed
func (c *Cache) Invalidate(cacheKey string, lang languages.Language) bool {
	acc := accessor(cacheKey, lang)
	nl, _ := c.locker.Acquire(acc)
	defer nl.Release()
	if c.removeEntry(cacheKey, lang) {
		c.Index.RemoveObject(acc)
		return true
	}
	return false
}

func (c *Cache) removeEntry(cacheKey string, lang languages.Language) bool {
	metaKey, dataKey := keyNames(cacheKey)
	existed := false
	err := c.dbh.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(c.bucketName(lang.String())))
		if b == nil || b.Get([]byte(metaKey)) == nil {
			return nil
		}
		existed = true
		if err := b.Delete([]byte(metaKey)); err != nil {
			return err
		}
		return b.Delete([]byte(dataKey))
	})
	if err != nil {
		logging.Warn("bbolt cache invalidate failed",
			logging.Pairs{"key": cacheKey, "language": lang.String(), "detail": err.Error()})
		return false
	}
	if existed {
		logging.Debug("bbolt cache invalidate",
			logging.Pairs{"key": cacheKey, "language": lang.String()})
	}
	return existed
}

// bulkRemove deletes entry key pairs on behalf of the index's eviction
// exercise. The index has already dropped its own metadata for these keys.
func (c *Cache) bulkRemove(accessors []string) {
	c.dbh.Update(func(tx *bbolt.Tx) error {
		for _, acc := range accessors {
			lang, key, ok := cache.ParseAccessor(acc)
			if !ok {
				continue
			}
			b := tx.Bucket([]byte(c.bucketName(lang.String())))
			if b == nil {
				continue
			}
			metaKey, dataKey := keyNames(key)
			b.Delete([]byte(metaKey))
			b.Delete([]byte(dataKey))
		}
		return nil
	})
}

func (c *Cache) flushIndex(data []byte) {
	err := c.dbh.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(c.Config.BBolt.Bucket)).Put([]byte(index.IndexKey), data)
	})
	if err != nil {
		logging.Warn("unable to flush cache index", logging.Pairs{"detail": err.Error()})
	}
}

// Enumerate returns the metadata of all stored entries, without artifact payloads
func (c *Cache) Enumerate() ([]*entry.Entry, error) {
	entries := make([]*entry.Entry, 0)
	err := c.dbh.View(func(tx *bbolt.Tx) error {
		for name := range languages.Names {
			b := tx.Bucket([]byte(c.bucketName(name)))
			if b == nil {
				continue
			}
			cursor := b.Cursor()
			for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
				if !isMetaKey(string(k)) {
					continue
				}
				e, err := entry.FromBytes(v)
				if err != nil {
					continue
				}
				entries = append(entries, e)
			}
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

// Cleanup enforces the provided size budget via the Cache Index
func (c *Cache) Cleanup(sizeLimitBytes int64) (*cache.CleanupResult, error) {
	return c.Index.Cleanup(sizeLimitBytes), nil
}

// Close stops the Cache Index and closes the database
func (c *Cache) Close() error {
	if c.Index != nil {
		c.Index.Close()
	}
	if c.dbh == nil {
		return nil
	}
	return c.dbh.Close()
}

func (c *Cache) bucketName(lang string) string {
	return c.Config.BBolt.Bucket + "." + lang
}

const metaSuffix = ".meta"

func keyNames(cacheKey string) (string, string) {
	return cacheKey + metaSuffix, cacheKey + ".data"
}

func isMetaKey(k string) bool {
	return len(k) > len(metaSuffix) && k[len(k)-len(metaSuffix):] == metaSuffix
}

func accessor(cacheKey string, lang languages.Language) string {
	return lang.String() + "/" + cacheKey
}
