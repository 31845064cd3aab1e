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

// Package options defines the configuration surface of the cache subsystem.
// Defaults are applied once at construction via New, and the assembled
// Options are validated eagerly before any cache is connected.
package options

import (
	"fmt"
	"time"

	"github.com/gencache/gencache/pkg/cache/providers"
	"github.com/gencache/gencache/pkg/encoding"
)

// Options is a collection defining the behavior of a cache
type Options struct {
	// Name is the Name of the cache, taken from the Key in the Caches map
	Name string `yaml:"-"`
	// Provider represents the type of cache to use: "filesystem", "memory",
	// "bbolt", "badger" or "redis"
	Provider string `yaml:"provider,omitempty"`
	// LocalEnabled indicates whether the local cache participates in lookups and stores
	LocalEnabled bool `yaml:"local_cache_enabled"`
	// RemoteEnabled indicates whether a remote cache participates in lookups and stores
	RemoteEnabled bool `yaml:"remote_cache_enabled"`
	// SizeLimitMB is the size budget in megabytes enforced by eviction
	SizeLimitMB int64 `yaml:"cache_size_limit_mb,omitempty"`
	// TTLHours is the entry time-to-live in hours; 0 disables TTL checks
	TTLHours int `yaml:"ttl_hours,omitempty"`
	// CompressionEnabled indicates whether artifact payloads are compressed at store time
	CompressionEnabled bool `yaml:"compression_enabled"`
	// CompressionCodec selects the payload codec: "snappy", "gzip", "zstd", "brotli" or "none"
	CompressionCodec string `yaml:"compression_codec,omitempty"`
	// LanguageIsolation indicates whether per-language statistics breakdowns are reported.
	// Entry key spaces are always isolated per-language regardless of this setting.
	LanguageIsolation bool `yaml:"language_isolation"`
	// InvalidateOnRuleChange indicates whether the rule implementation version
	// participates in base key derivation
	InvalidateOnRuleChange bool `yaml:"invalidate_on_rule_change"`
	// StoragePath is the root directory for filesystem-backed caches
	StoragePath string `yaml:"cache_storage_path,omitempty"`
	// Index provides options for the Cache Index
	Index *IndexOptions `yaml:"index,omitempty"`
	// BBolt provides options for BBolt caching
	BBolt *BBoltOptions `yaml:"bbolt,omitempty"`
	// Badger provides options for BadgerDB caching
	Badger *BadgerOptions `yaml:"badger,omitempty"`
	// Redis provides options for Redis caching
	Redis *RedisOptions `yaml:"redis,omitempty"`

	//  Synthetic Values

	// ProviderID represents the internal constant for the provided Provider string
	// and is automatically populated at load
	ProviderID providers.Provider `yaml:"-"`
	// EncodingID represents the internal constant for the provided CompressionCodec
	// and is automatically populated at load
	EncodingID encoding.Provider `yaml:"-"`
	// TTL is TTLHours as a Duration
	TTL time.Duration `yaml:"-"`
	// SizeLimitBytes is SizeLimitMB in bytes
	SizeLimitBytes int64 `yaml:"-"`
}

// IndexOptions defines the operation of the Cache Index
type IndexOptions struct {
	// ReapIntervalSecs defines how long the Cache Index reaper sleeps between reap cycles
	ReapIntervalSecs int `yaml:"reap_interval_secs,omitempty"`
	// FlushIntervalSecs sets how often the Cache Index saves its metadata to the cache
	FlushIntervalSecs int `yaml:"flush_interval_secs,omitempty"`
	// MaxSizeBackoffBytes indicates how far below the size budget an eviction
	// exercise drives the cache size
	MaxSizeBackoffBytes int64 `yaml:"max_size_backoff_bytes,omitempty"`

	ReapInterval  time.Duration `yaml:"-"`
	FlushInterval time.Duration `yaml:"-"`
}

// BBoltOptions is a collection of configurations for bbolt caching
type BBoltOptions struct {
	// Filename represents the filename (including path) of the bbolt database
	Filename string `yaml:"filename,omitempty"`
	// Bucket represents the name prefix of the per-language buckets
	Bucket string `yaml:"bucket,omitempty"`
}

// BadgerOptions is a collection of configurations for BadgerDB caching
type BadgerOptions struct {
	// Directory represents the path on disk where the Badger database should store data
	Directory string `yaml:"directory,omitempty"`
	// ValueDirectory represents the path on disk where the Badger database will store its value log
	ValueDirectory string `yaml:"value_directory,omitempty"`
}

// RedisOptions is a collection of configurations for connecting to Redis
type RedisOptions struct {
	// ClientType defines the type of Redis Client ("standard", "cluster", "sentinel")
	ClientType string `yaml:"client_type,omitempty"`
	// Protocol represents the connection method (e.g., "tcp", "unix")
	Protocol string `yaml:"protocol,omitempty"`
	// Endpoint represents FQDN:port or IPAddress:Port of the Redis endpoint
	Endpoint string `yaml:"endpoint,omitempty"`
	// Endpoints represents a collection of Cluster or Sentinel node addresses
	Endpoints []string `yaml:"endpoints,omitempty"`
	// Password can be set when using a password-protected redis instance
	Password string `yaml:"password,omitempty"`
	// SentinelMaster should be set when using Redis Sentinel to indicate the Master Node
	SentinelMaster string `yaml:"sentinel_master,omitempty"`
	// DB is the database to be selected after connecting to the server
	DB int `yaml:"db,omitempty"`
}

// New will return a pointer to an Options with the default configuration settings
func New() *Options {
	return &Options{
		Name:                   "default",
		Provider:               DefaultCacheProvider,
		ProviderID:             DefaultCacheProviderID,
		LocalEnabled:           true,
		RemoteEnabled:          false,
		SizeLimitMB:            DefaultSizeLimitMB,
		SizeLimitBytes:         DefaultSizeLimitMB * 1024 * 1024,
		TTLHours:               DefaultTTLHours,
		CompressionEnabled:     false,
		CompressionCodec:       DefaultCompressionCodec,
		EncodingID:             encoding.SnappyID,
		LanguageIsolation:      true,
		InvalidateOnRuleChange: true,
		StoragePath:            DefaultStoragePath,
		Index: &IndexOptions{
			ReapIntervalSecs:    DefaultReapIntervalSecs,
			FlushIntervalSecs:   DefaultFlushIntervalSecs,
			MaxSizeBackoffBytes: DefaultMaxSizeBackoffBytes,
			ReapInterval:        time.Duration(DefaultReapIntervalSecs) * time.Second,
			FlushInterval:       time.Duration(DefaultFlushIntervalSecs) * time.Second,
		},
		BBolt: &BBoltOptions{
			Filename: DefaultBBoltFile,
			Bucket:   DefaultBBoltBucket,
		},
		Badger: &BadgerOptions{},
		Redis: &RedisOptions{
			ClientType: DefaultRedisClientType,
			Protocol:   DefaultRedisProtocol,
			Endpoint:   DefaultRedisEndpoint,
		},
	}
}

// Clone returns an exact copy of the subject Options
func (o *Options) Clone() *Options {
	out := New()
	out.Name = o.Name
	out.Provider = o.Provider
	out.ProviderID = o.ProviderID
	out.LocalEnabled = o.LocalEnabled
	out.RemoteEnabled = o.RemoteEnabled
	out.SizeLimitMB = o.SizeLimitMB
	out.SizeLimitBytes = o.SizeLimitBytes
	out.TTLHours = o.TTLHours
	out.TTL = o.TTL
	out.CompressionEnabled = o.CompressionEnabled
	out.CompressionCodec = o.CompressionCodec
	out.EncodingID = o.EncodingID
	out.LanguageIsolation = o.LanguageIsolation
	out.InvalidateOnRuleChange = o.InvalidateOnRuleChange
	out.StoragePath = o.StoragePath

	out.Index.ReapIntervalSecs = o.Index.ReapIntervalSecs
	out.Index.FlushIntervalSecs = o.Index.FlushIntervalSecs
	out.Index.MaxSizeBackoffBytes = o.Index.MaxSizeBackoffBytes
	out.Index.ReapInterval = o.Index.ReapInterval
	out.Index.FlushInterval = o.Index.FlushInterval

	out.BBolt.Filename = o.BBolt.Filename
	out.BBolt.Bucket = o.BBolt.Bucket

	out.Badger.Directory = o.Badger.Directory
	out.Badger.ValueDirectory = o.Badger.ValueDirectory

	out.Redis.ClientType = o.Redis.ClientType
	out.Redis.Protocol = o.Redis.Protocol
	out.Redis.Endpoint = o.Redis.Endpoint
	out.Redis.Endpoints = o.Redis.Endpoints
	out.Redis.Password = o.Redis.Password
	out.Redis.SentinelMaster = o.Redis.SentinelMaster
	out.Redis.DB = o.Redis.DB

	return out
}

// Process derives the synthetic values from the user-provided settings.
// It is called once by the config loader after unmarshaling.
func (o *Options) Process() error {
	id, ok := providers.Names[o.Provider]
	if !ok {
		return fmt.Errorf("invalid cache provider name: %s", o.Provider)
	}
	o.ProviderID = id

	eid, ok := encoding.Get(o.CompressionCodec)
	if !ok {
		return fmt.Errorf("invalid compression codec name: %s", o.CompressionCodec)
	}
	o.EncodingID = eid

	if o.SizeLimitMB < 0 {
		return fmt.Errorf("cache_size_limit_mb must be >= 0: %d", o.SizeLimitMB)
	}
	o.SizeLimitBytes = o.SizeLimitMB * 1024 * 1024

	if o.TTLHours < 0 {
		return fmt.Errorf("ttl_hours must be >= 0: %d", o.TTLHours)
	}
	o.TTL = time.Duration(o.TTLHours) * time.Hour

	if o.ProviderID == providers.FilesystemID && o.StoragePath == "" {
		return fmt.Errorf("cache_storage_path required for cache provider: %s", o.Provider)
	}

	if o.Index != nil {
		o.Index.ReapInterval = time.Duration(o.Index.ReapIntervalSecs) * time.Second
		o.Index.FlushInterval = time.Duration(o.Index.FlushIntervalSecs) * time.Second
		if o.Index.MaxSizeBackoffBytes < 0 {
			return fmt.Errorf("max_size_backoff_bytes must be >= 0: %d", o.Index.MaxSizeBackoffBytes)
		}
	}

	return nil
}
