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

// Package metrics provides helper functions for observing cache events
// on the application's instrumented metrics
package metrics

import (
	"time"

	"github.com/gencache/gencache/pkg/observability/metrics"
)

// ObserveCacheMiss records a Cache Miss event
func ObserveCacheMiss(cacheName, provider string) {
	ObserveCacheOperation(cacheName, provider, "get", "kmiss", 0)
}

// ObserveCacheDel records a cache entry deletion event
func ObserveCacheDel(cacheName, provider string, count float64) {
	ObserveCacheOperation(cacheName, provider, "del", "none", count)
}

// ObserveCacheOperation increments counters as cache operations occur
func ObserveCacheOperation(cacheName, provider, operation, status string, bytes float64) {
	metrics.CacheObjectOperations.WithLabelValues(cacheName, provider, operation, status).Inc()
	if bytes > 0 {
		metrics.CacheByteOperations.WithLabelValues(cacheName, provider, operation, status).Add(bytes)
	}
}

// ObserveCacheEvent increments counters as cache events occur
func ObserveCacheEvent(cacheName, provider, event, reason string) {
	metrics.CacheEvents.WithLabelValues(cacheName, provider, event, reason).Inc()
}

// ObserveCacheOperationDuration records the elapsed time of a cache operation
func ObserveCacheOperationDuration(cacheName, provider, operation string, elapsed time.Duration) {
	metrics.CacheOperationDuration.WithLabelValues(cacheName, provider, operation).
		Observe(elapsed.Seconds())
}

// ObserveCacheSizeChange adjusts gauges as the cache size changes due to entry operations
func ObserveCacheSizeChange(cacheName, provider string, byteCount, objectCount int64) {
	metrics.CacheObjects.WithLabelValues(cacheName, provider).Set(float64(objectCount))
	metrics.CacheBytes.WithLabelValues(cacheName, provider).Set(float64(byteCount))
}
