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

// Package registration builds storage backend clients from their Options
package registration

import (
	"fmt"

	"github.com/gencache/gencache/pkg/cache"
	"github.com/gencache/gencache/pkg/cache/badger"
	"github.com/gencache/gencache/pkg/cache/bbolt"
	"github.com/gencache/gencache/pkg/cache/filesystem"
	"github.com/gencache/gencache/pkg/cache/memory"
	"github.com/gencache/gencache/pkg/cache/options"
	"github.com/gencache/gencache/pkg/cache/providers"
	"github.com/gencache/gencache/pkg/cache/redis"
)

// NewCache returns an unconnected Cache client for the provided Options
func NewCache(cfg *options.Options) (cache.Client, error) {
	switch cfg.ProviderID {
	case providers.FilesystemID:
		return filesystem.New(cfg), nil
	case providers.BBoltID:
		return bbolt.New(cfg), nil
	case providers.BadgerDBID:
		return badger.New(cfg), nil
	case providers.RedisID:
		return redis.New(cfg), nil
	case providers.MemoryID:
		return memory.New(cfg), nil
	}
	return nil, fmt.Errorf("invalid cache provider: %s", cfg.Provider)
}

// NewRemoteCache returns an unconnected remote Cache client for the provided
// Options. Redis is the only supported remote provider.
func NewRemoteCache(cfg *options.Options) (cache.Client, error) {
	return redis.New(cfg), nil
}
