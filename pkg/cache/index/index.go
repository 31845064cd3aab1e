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

// Package index defines the Cache Index that tracks entry sizes and access
// times for backends that enforce retention internally, and performs the
// least-recently-used eviction exercise against the configured size budget.
package index

import (
	"sort"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/gencache/gencache/pkg/cache"
	"github.com/gencache/gencache/pkg/cache/metrics"
	"github.com/gencache/gencache/pkg/cache/options"
	"github.com/gencache/gencache/pkg/observability/logging"
)

// IndexKey is the key under which the index will write itself to its associated cache
const IndexKey = "cache.index"

// Object contains metadata about an entry in the Cache
type Object struct {
	// Key is the accessor of the entry in the cache, in language/key form
	Key string `msgpack:"key"`
	// Expiration is the time the entry expires from the Cache; zero means no expiration
	Expiration time.Time `msgpack:"expiration"`
	// LastWrite is the time the entry was last written
	LastWrite time.Time `msgpack:"lastwrite"`
	// LastAccess is the time the entry was last accessed
	LastAccess time.Time `msgpack:"lastaccess"`
	// Size is the size of the entry in bytes
	Size int64 `msgpack:"size"`
}

// Index maintains metadata about a Cache when retention enforcement is
// managed internally, like filesystem or bbolt
type Index struct {
	// CacheSize represents the size of the cache in bytes
	CacheSize int64 `msgpack:"cache_size"`
	// ObjectCount represents the count of entries in the Cache
	ObjectCount int64 `msgpack:"object_count"`
	// Objects is a map of Objects in the Cache
	Objects map[string]*Object `msgpack:"objects"`

	mtx            sync.Mutex
	name           string
	provider       string
	options        *options.IndexOptions
	sizeLimitBytes int64
	bulkRemoveFunc func([]string)
	flushFunc      func(data []byte)
	lastWrite      time.Time
	stopCh         chan struct{}
	stopOnce       sync.Once
}

// ToBytes returns a serialized byte slice representing the Index
func (idx *Index) ToBytes() []byte {
	idx.mtx.Lock()
	b, _ := msgpack.Marshal(idx)
	idx.mtx.Unlock()
	return b
}

// NewIndex returns a new Index for the provided cache, seeded from
// previously flushed indexData when present. bulkRemoveFunc is called
// with the language/key accessors of evicted entries; flushFunc, when
// non-nil, periodically receives the serialized index for persistence.
func NewIndex(cacheName, provider string, indexData []byte, o *options.IndexOptions,
	sizeLimitBytes int64, bulkRemoveFunc func([]string), flushFunc func(data []byte)) *Index {

	idx := &Index{
		name:           cacheName,
		provider:       provider,
		options:        o,
		sizeLimitBytes: sizeLimitBytes,
		bulkRemoveFunc: bulkRemoveFunc,
		flushFunc:      flushFunc,
		stopCh:         make(chan struct{}),
	}

	if len(indexData) > 0 {
		if err := msgpack.Unmarshal(indexData, idx); err != nil {
			logging.Warn("cache index could not be restored, starting empty",
				logging.Pairs{"cacheName": cacheName, "detail": err.Error()})
		}
	}
	if idx.Objects == nil {
		idx.Objects = make(map[string]*Object)
	}

	if flushFunc != nil && o.FlushInterval > 0 {
		go idx.flusher()
	}

	if o.ReapInterval > 0 {
		go idx.reaper()
	} else {
		logging.Warn("cache reaper did not start",
			logging.Pairs{"cacheName": idx.name, "reapInterval": o.ReapInterval})
	}

	return idx
}

// Close stops the reaper and flusher goroutines
func (idx *Index) Close() {
	idx.stopOnce.Do(func() { close(idx.stopCh) })
}

// UpdateObject writes or updates the Index metadata for the provided Object
func (idx *Index) UpdateObject(obj *Object) {
	if obj.Key == "" {
		return
	}
	idx.mtx.Lock()
	idx.lastWrite = time.Now()
	obj.LastAccess = time.Now()
	obj.LastWrite = obj.LastAccess
	if o, ok := idx.Objects[obj.Key]; ok {
		idx.CacheSize += obj.Size - o.Size
	} else {
		idx.CacheSize += obj.Size
		idx.ObjectCount++
	}
	idx.Objects[obj.Key] = obj
	metrics.ObserveCacheSizeChange(idx.name, idx.provider, idx.CacheSize, idx.ObjectCount)
	idx.mtx.Unlock()
}

// RemoveObject removes an Object's metadata from the Index
func (idx *Index) RemoveObject(key string) {
	idx.mtx.Lock()
	idx.removeLocked([]string{key})
	idx.mtx.Unlock()
}

func (idx *Index) removeLocked(keys []string) {
	for _, key := range keys {
		if o, ok := idx.Objects[key]; ok {
			idx.CacheSize -= o.Size
			idx.ObjectCount--
			delete(idx.Objects, key)
			metrics.ObserveCacheDel(idx.name, idx.provider, float64(o.Size))
		}
	}
	idx.lastWrite = time.Now()
	metrics.ObserveCacheSizeChange(idx.name, idx.provider, idx.CacheSize, idx.ObjectCount)
}

// UpdateObjectAccessTime updates the LastAccess for the object with the provided key
func (idx *Index) UpdateObjectAccessTime(key string) {
	idx.mtx.Lock()
	if o, ok := idx.Objects[key]; ok {
		o.LastAccess = time.Now()
	}
	idx.mtx.Unlock()
}

// GetExpiration returns the expiration recorded for the object with the provided key
func (idx *Index) GetExpiration(key string) time.Time {
	idx.mtx.Lock()
	defer idx.mtx.Unlock()
	if o, ok := idx.Objects[key]; ok {
		return o.Expiration
	}
	return time.Time{}
}

// Size returns the current byte size and entry count of the indexed cache
func (idx *Index) Size() (int64, int64) {
	idx.mtx.Lock()
	defer idx.mtx.Unlock()
	return idx.CacheSize, idx.ObjectCount
}

// flusher periodically writes the serialized index via the flush func
func (idx *Index) flusher() {
	var lastFlush time.Time
	for {
		select {
		case <-idx.stopCh:
			return
		case <-time.After(idx.options.FlushInterval):
		}
		idx.mtx.Lock()
		lastWrite := idx.lastWrite
		idx.mtx.Unlock()
		if lastWrite.Before(lastFlush) {
			continue
		}
		idx.flushFunc(idx.ToBytes())
		lastFlush = time.Now()
	}
}

// reaper continually removes expired entries and maintains the size budget
func (idx *Index) reaper() {
	for {
		select {
		case <-idx.stopCh:
			return
		case <-time.After(idx.options.ReapInterval):
		}
		idx.Reap()
	}
}

// Reap makes a single pass through the index, removing expired entries and
// evicting least-recently-accessed entries until the cache fits its budget
func (idx *Index) Reap() *cache.CleanupResult {
	return idx.Cleanup(idx.sizeLimitBytes)
}

// Cleanup removes expired entries, then evicts least-recently-accessed
// entries one at a time until the cache size fits sizeLimitBytes. A
// sizeLimitBytes of 0 disables size-based eviction. Ties on last-access
// time break by lexical key order so eviction is reproducible.
func (idx *Index) Cleanup(sizeLimitBytes int64) *cache.CleanupResult {
	idx.mtx.Lock()

	result := &cache.CleanupResult{}
	now := time.Now()

	removals := make([]string, 0)
	remainders := make([]*Object, 0, idx.ObjectCount)
	for _, o := range idx.Objects {
		if !o.Expiration.IsZero() && o.Expiration.Before(now) {
			removals = append(removals, o.Key)
			result.BytesFreed += o.Size
		} else {
			remainders = append(remainders, o)
		}
	}
	if len(removals) > 0 {
		metrics.ObserveCacheEvent(idx.name, idx.provider, "eviction", "ttl")
		idx.removeLocked(removals)
		result.EntriesRemoved += len(removals)
	}

	if sizeLimitBytes > 0 && idx.CacheSize > sizeLimitBytes && len(remainders) > 0 {
		logging.Debug("max cache size reached. evicting least-recently-accessed entries",
			logging.Pairs{"cacheSizeBytes": idx.CacheSize, "sizeLimitBytes": sizeLimitBytes})

		sort.Slice(remainders, func(i, j int) bool {
			if remainders[i].LastAccess.Equal(remainders[j].LastAccess) {
				return remainders[i].Key < remainders[j].Key
			}
			return remainders[i].LastAccess.Before(remainders[j].LastAccess)
		})

		bytesNeeded := idx.CacheSize - sizeLimitBytes
		if sizeLimitBytes > idx.options.MaxSizeBackoffBytes {
			bytesNeeded += idx.options.MaxSizeBackoffBytes
		}

		evictions := make([]string, 0, len(remainders))
		var bytesSelected int64
		for _, o := range remainders {
			if bytesSelected >= bytesNeeded {
				break
			}
			evictions = append(evictions, o.Key)
			bytesSelected += o.Size
		}

		if len(evictions) > 0 {
			metrics.ObserveCacheEvent(idx.name, idx.provider, "eviction", "size_bytes")
			idx.removeLocked(evictions)
			result.EntriesRemoved += len(evictions)
			result.BytesFreed += bytesSelected
			removals = append(removals, evictions...)
		}

		logging.Debug("size-based cache eviction exercise completed",
			logging.Pairs{"entriesRemoved": len(evictions), "bytesFreed": bytesSelected,
				"cacheSizeBytes": idx.CacheSize})
	}

	// the index map is already updated; the backend callback deletes the
	// underlying entries outside the index lock
	idx.mtx.Unlock()

	if len(removals) > 0 && idx.bulkRemoveFunc != nil {
		idx.bulkRemoveFunc(removals)
	}
	return result
}
