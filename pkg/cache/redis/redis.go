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

// Package redis is the remote storage backend, sharing entries between
// machines. Redis manages entry expiration natively, so entries carry the
// configured TTL at write time and no reaper runs.
package redis

import (
	"fmt"
	"time"

	"github.com/go-redis/redis"

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

// Redis client types
const (
	clientTypeStandard = "standard"
	clientTypeCluster  = "cluster"
	clientTypeSentinel = "sentinel"
)

// Cache represents a redis cache object that conforms to the cache.Client interface
type Cache struct {
	Name   string
	Config *options.Options
	client redis.Cmdable
	closer func() error
	locker locks.NamedLocker
}

// New returns an unconnected Redis Cache for the provided Options
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

// Connect connects to the configured Redis endpoint
func (c *Cache) Connect() error {
	logging.Info("connecting to redis",
		logging.Pairs{"name": c.Name, "clientType": c.Config.Redis.ClientType,
			"protocol": c.Config.Redis.Protocol, "endpoint": c.Config.Redis.Endpoint})

	switch c.Config.Redis.ClientType {
	case clientTypeSentinel:
		opts, err := c.sentinelOpts()
		if err != nil {
			return err
		}
		client := redis.NewFailoverClient(opts)
		c.client = client
		c.closer = client.Close
	case clientTypeCluster:
		opts, err := c.clusterOpts()
		if err != nil {
			return err
		}
		client := redis.NewClusterClient(opts)
		c.client = client
		c.closer = client.Close
	case clientTypeStandard, "":
		opts, err := c.clientOpts()
		if err != nil {
			return err
		}
		client := redis.NewClient(opts)
		c.client = client
		c.closer = client.Close
	default:
		return fmt.Errorf("invalid redis client type: %s", c.Config.Redis.ClientType)
	}

	return c.client.Ping().Err()
}

func (c *Cache) clientOpts() (*redis.Options, error) {
	if c.Config.Redis.Endpoint == "" {
		return nil, fmt.Errorf("invalid 'endpoint' config")
	}
	o := &redis.Options{
		Network: c.Config.Redis.Protocol,
		Addr:    c.Config.Redis.Endpoint,
		DB:      c.Config.Redis.DB,
	}
	if c.Config.Redis.Password != "" {
		o.Password = c.Config.Redis.Password
	}
	return o, nil
}

func (c *Cache) clusterOpts() (*redis.ClusterOptions, error) {
	if len(c.Config.Redis.Endpoints) == 0 {
		return nil, fmt.Errorf("invalid 'endpoints' config")
	}
	o := &redis.ClusterOptions{
		Addrs: c.Config.Redis.Endpoints,
	}
	if c.Config.Redis.Password != "" {
		o.Password = c.Config.Redis.Password
	}
	return o, nil
}

func (c *Cache) sentinelOpts() (*redis.FailoverOptions, error) {
	if len(c.Config.Redis.Endpoints) == 0 {
		return nil, fmt.Errorf("invalid 'endpoints' config")
	}
	if c.Config.Redis.SentinelMaster == "" {
		return nil, fmt.Errorf("invalid 'sentinel_master' config")
	}
	o := &redis.FailoverOptions{
		SentinelAddrs: c.Config.Redis.Endpoints,
		MasterName:    c.Config.Redis.SentinelMaster,
		DB:            c.Config.Redis.DB,
	}
	if c.Config.Redis.Password != "" {
		o.Password = c.Config.Redis.Password
	}
	return o, nil
}

// Store persists the entry's metadata and payload under a key pair, both
// carrying the configured TTL
func (c *Cache) Store(e *entry.Entry) error {
	if !e.Language.IsValid() {
		return fmt.Errorf("invalid language: %d", int(e.Language))
	}

	metrics.ObserveCacheOperation(c.Name, providers.Redis, "set", "none", float64(e.Size))

	meta, err := e.ToBytes()
	if err != nil {
		return err
	}
	payload, err := e.PayloadBytes()
	if err != nil {
		return err
	}

	metaKey, dataKey := keyNames(e.Key, e.Language)
	logging.Debug("redis cache store",
		logging.Pairs{"key": e.Key, "language": e.Language.String()})
	if err = c.client.Set(dataKey, payload, c.Config.TTL).Err(); err != nil {
		return err
	}
	return c.client.Set(metaKey, meta, c.Config.TTL).Err()
}

// Lookup retrieves the entry for the provided key and language, with
// artifact payloads loaded and decompressed. Redis drops expired keys
// itself, so an expired entry surfaces as a key miss.
func (c *Cache) Lookup(cacheKey string, lang languages.Language) (*entry.Entry, status.LookupStatus, error) {
	metaKey, dataKey := keyNames(cacheKey, lang)

	meta, err := c.client.Get(metaKey).Bytes()
	if err != nil {
		logging.Debug("redis cache miss",
			logging.Pairs{"key": cacheKey, "language": lang.String()})
		metrics.ObserveCacheMiss(c.Name, providers.Redis)
		return nil, status.LookupStatusKeyMiss, cache.ErrKNF
	}

	e, err := entry.FromBytes(meta)
	if err != nil {
		metrics.ObserveCacheEvent(c.Name, providers.Redis, "error", "metadata deserialization")
		return nil, status.LookupStatusError,
			fmt.Errorf("value for key [%s] could not be deserialized from cache", cacheKey)
	}

	payload, err := c.client.Get(dataKey).Bytes()
	if err != nil {
		metrics.ObserveCacheEvent(c.Name, providers.Redis, "error", "artifact payload missing")
		return e, status.LookupStatusError,
			fmt.Errorf("payload for key [%s] could not be read from cache", cacheKey)
	}
	if err = e.SetPayloadFromBytes(payload); err != nil {
		metrics.ObserveCacheEvent(c.Name, providers.Redis, "error", "artifact payload corrupt")
		return e, status.LookupStatusError, err
	}

	c.touch(e, metaKey)

	logging.Debug("redis cache retrieve",
		logging.Pairs{"key": cacheKey, "language": lang.String()})
	metrics.ObserveCacheOperation(c.Name, providers.Redis, "get", "hit", float64(e.Size))
	return e, status.LookupStatusHit, nil
}

// touch persists updated access metadata, best-effort, preserving the
// key's remaining TTL
func (c *Cache) touch(e *entry.Entry, metaKey string) {
	e.AccessCount++
	e.LastAccess = time.Now()
	meta, err := e.ToBytes()
	if err != nil {
		return
	}
	var ttl time.Duration
	if remaining, err := c.client.TTL(metaKey).Result(); err == nil && remaining > 0 {
		ttl = remaining
	}
	c.client.Set(metaKey, meta, ttl)
}

// Invalidate removes the entry for the provided key and language,
// returning true if an entry existed and was removed
func (c *Cache) Invalidate(cacheKey string, lang languages.Language) bool {
	metaKey, dataKey := keyNames(cacheKey, lang)
	removed, err := c.client.Del(metaKey, dataKey).Result()
	if err != nil {
		logging.Warn("redis cache invalidate failed",
			logging.Pairs{"key": cacheKey, "language": lang.String(), "detail": err.Error()})
		return false
	}
	if removed > 0 {
		metrics.ObserveCacheDel(c.Name, providers.Redis, float64(removed))
		logging.Debug("redis cache invalidate",
			logging.Pairs{"key": cacheKey, "language": lang.String()})
	}
	return removed > 0
}

// Enumerate returns the metadata of all stored entries, without artifact payloads
func (c *Cache) Enumerate() ([]*entry.Entry, error) {
	keys, err := c.client.Keys(keyPrefix + "*" + metaSuffix).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]*entry.Entry, 0, len(keys))
	for _, k := range keys {
		meta, err := c.client.Get(k).Bytes()
		if err != nil {
			continue
		}
		e, err := entry.FromBytes(meta)
		if err != nil {
			continue
		}
		entries = append(entries, e)
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
		metrics.ObserveCacheEvent(c.Name, providers.Redis, "eviction", "size_bytes")
	}
	return result, nil
}

// Close disconnects from the Redis Cache
func (c *Cache) Close() error {
	logging.Info("closing redis connection", logging.Pairs{"name": c.Name})
	if c.closer != nil {
		return c.closer()
	}
	return nil
}

const (
	keyPrefix  = "gencache:"
	metaSuffix = ":meta"
	dataSuffix = ":data"
)

func keyNames(cacheKey string, lang languages.Language) (string, string) {
	base := keyPrefix + lang.String() + ":" + cacheKey
	return base + metaSuffix, base + dataSuffix
}
