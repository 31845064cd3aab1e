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

package options

import (
	"github.com/gencache/gencache/pkg/cache/providers"
	"github.com/gencache/gencache/pkg/encoding"
)

const (
	// DefaultCacheProvider is the default cache provider for any cache
	// that omits a provider
	DefaultCacheProvider = providers.Filesystem
	// DefaultCacheProviderID is the ProviderID matching DefaultCacheProvider
	DefaultCacheProviderID = providers.FilesystemID
	// DefaultSizeLimitMB is the default cache size budget in megabytes
	DefaultSizeLimitMB = 1024
	// DefaultTTLHours is the default entry time-to-live (0 disables TTL checks)
	DefaultTTLHours = 0
	// DefaultCompressionCodec is the codec applied to artifact payloads
	// when compression is enabled
	DefaultCompressionCodec = encoding.Snappy
	// DefaultStoragePath is the default filesystem cache root
	DefaultStoragePath = "/tmp/gencache"

	// DefaultReapIntervalSecs is the default Cache Index reap frequency
	DefaultReapIntervalSecs = 3
	// DefaultFlushIntervalSecs is the default Cache Index flush frequency
	DefaultFlushIntervalSecs = 5
	// DefaultMaxSizeBackoffBytes is how far below the size budget an
	// eviction exercise drives the cache; 0 evicts the minimum necessary
	DefaultMaxSizeBackoffBytes = 0

	// DefaultBBoltFile is the default bbolt database file
	DefaultBBoltFile = "gencache.db"
	// DefaultBBoltBucket is the default bbolt bucket prefix
	DefaultBBoltBucket = "gencache"

	// DefaultRedisClientType is the default redis client type
	DefaultRedisClientType = "standard"
	// DefaultRedisProtocol is the default redis connection method
	DefaultRedisProtocol = "tcp"
	// DefaultRedisEndpoint is the default redis endpoint
	DefaultRedisEndpoint = "redis:6379"
)
