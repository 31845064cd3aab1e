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

package config

import (
	"os"
	"strconv"
)

const (
	// Environment variables
	evCacheProvider = "GENCACHE_CACHE_PROVIDER"
	evStoragePath   = "GENCACHE_CACHE_STORAGE_PATH"
	evSizeLimitMB   = "GENCACHE_CACHE_SIZE_LIMIT_MB"
	evTTLHours      = "GENCACHE_TTL_HOURS"
	evMetricsPort   = "GENCACHE_METRICS_PORT"
	evLogLevel      = "GENCACHE_LOG_LEVEL"
)

func (c *Config) loadEnvVars() {
	if x := os.Getenv(evCacheProvider); x != "" {
		c.Cache.Provider = x
	}

	if x := os.Getenv(evStoragePath); x != "" {
		c.Cache.StoragePath = x
	}

	if x := os.Getenv(evSizeLimitMB); x != "" {
		if y, err := strconv.ParseInt(x, 10, 64); err == nil {
			c.Cache.SizeLimitMB = y
		}
	}

	if x := os.Getenv(evTTLHours); x != "" {
		if y, err := strconv.ParseInt(x, 10, 64); err == nil {
			c.Cache.TTLHours = int(y)
		}
	}

	if x := os.Getenv(evMetricsPort); x != "" {
		if y, err := strconv.ParseInt(x, 10, 64); err == nil {
			c.Metrics.ListenPort = int(y)
		}
	}

	if x := os.Getenv(evLogLevel); x != "" {
		c.Logging.LogLevel = x
	}
}
