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

// Package metrics instruments the cache with Prometheus counters, gauges
// and histograms, and optionally serves them on a /metrics listener.
package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gencache/gencache/pkg/observability/logging"
)

const (
	metricNamespace = "gencache"
	cacheSubsystem  = "cache"
)

// Default histogram buckets, in seconds
var defaultBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5, 1}

// CacheObjectOperations is a Counter of operations (in # of entries) performed on the cache
var CacheObjectOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: metricNamespace,
		Subsystem: cacheSubsystem,
		Name:      "operation_objects_total",
		Help:      "Count of cache entry operations performed on a gencache cache",
	},
	[]string{"cache_name", "provider", "operation", "status"},
)

// CacheByteOperations is a Counter of operations (in # of bytes) performed on the cache
var CacheByteOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: metricNamespace,
		Subsystem: cacheSubsystem,
		Name:      "operation_bytes_total",
		Help:      "Count of bytes transferred in cache operations on a gencache cache",
	},
	[]string{"cache_name", "provider", "operation", "status"},
)

// CacheEvents is a Counter of events (evictions, errors, quarantines) occurring on the cache
var CacheEvents = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: metricNamespace,
		Subsystem: cacheSubsystem,
		Name:      "events_total",
		Help:      "Count of events occurring on a gencache cache",
	},
	[]string{"cache_name", "provider", "event", "reason"},
)

// CacheOperationDuration is a Histogram of cache lookup and store durations
var CacheOperationDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: metricNamespace,
		Subsystem: cacheSubsystem,
		Name:      "operation_duration_seconds",
		Help:      "Histogram of time required to perform a gencache cache operation",
		Buckets:   defaultBuckets,
	},
	[]string{"cache_name", "provider", "operation"},
)

// CacheObjects is a Gauge representing the number of entries in the cache
var CacheObjects = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: metricNamespace,
		Subsystem: cacheSubsystem,
		Name:      "usage_objects",
		Help:      "Number of entries in a gencache cache",
	},
	[]string{"cache_name", "provider"},
)

// CacheBytes is a Gauge representing the number of bytes in the cache
var CacheBytes = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: metricNamespace,
		Subsystem: cacheSubsystem,
		Name:      "usage_bytes",
		Help:      "Number of bytes in a gencache cache",
	},
	[]string{"cache_name", "provider"},
)

// CacheMaxBytes is a Gauge representing the cache's byte threshold for triggering eviction
var CacheMaxBytes = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: metricNamespace,
		Subsystem: cacheSubsystem,
		Name:      "max_usage_bytes",
		Help:      "Max size in bytes of a gencache cache before the eviction exercise triggers",
	},
	[]string{"cache_name", "provider"},
)

var registerOnce sync.Once

// Init registers the cache metric vectors and, when listenPort is > 0,
// starts the metrics listener endpoint
func Init(listenAddress string, listenPort int) {
	registerOnce.Do(func() {
		prometheus.MustRegister(CacheObjectOperations)
		prometheus.MustRegister(CacheByteOperations)
		prometheus.MustRegister(CacheEvents)
		prometheus.MustRegister(CacheOperationDuration)
		prometheus.MustRegister(CacheObjects)
		prometheus.MustRegister(CacheBytes)
		prometheus.MustRegister(CacheMaxBytes)
	})

	if listenPort > 0 {
		go func() {
			logging.Info("metrics http endpoint starting",
				logging.Pairs{"address": listenAddress, "port": listenPort})
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(fmt.Sprintf("%s:%d", listenAddress, listenPort), mux); err != nil {
				logging.Error("unable to start metrics http server",
					logging.Pairs{"detail": err.Error()})
			}
		}()
	}
}
