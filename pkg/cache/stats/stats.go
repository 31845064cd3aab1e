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

// Package stats accumulates cache effectiveness counters across a process's
// lifetime and derives a composite health score with tuning recommendations.
package stats

import (
	"fmt"
	"sync"
	"time"

	"github.com/gencache/gencache/pkg/cache/languages"
	"github.com/gencache/gencache/pkg/cache/status"
)

const (
	// TargetHitLatency is the hit latency above which the latency
	// component of the health score begins to degrade
	TargetHitLatency = 25 * time.Millisecond

	// healthy component weights
	weightHitRate     = 0.40
	weightLatency     = 0.30
	weightUtilization = 0.20
	weightEvictions   = 0.10

	// utilization above this fraction of the size budget degrades health
	utilizationHighWater = 0.80

	// hit rate below this threshold triggers a recommendation
	hitRateLowWater = 0.70
)

// LanguageCounters is the per-language portion of a Snapshot
type LanguageCounters struct {
	Hits   int64
	Misses int64
}

// HitRate returns the fraction of lookups for the language that hit
func (lc *LanguageCounters) HitRate() float64 {
	total := lc.Hits + lc.Misses
	if total == 0 {
		return 0
	}
	return float64(lc.Hits) / float64(total)
}

// Collector accumulates lookup, store and eviction observations
type Collector struct {
	mtx sync.Mutex

	hits          int64
	misses        int64
	expirations   int64
	errors        int64
	stores        int64
	invalidations int64

	evictedEntries int64
	evictionRuns   int64

	hitLatencyTotal   time.Duration
	storeLatencyTotal time.Duration

	perLanguage map[string]*LanguageCounters

	sizeBytes      int64
	sizeLimitBytes int64

	languageIsolation bool
	since             time.Time
}

// NewCollector returns a Collector. When languageIsolation is false the
// per-language breakdown is omitted from snapshots.
func NewCollector(languageIsolation bool) *Collector {
	return &Collector{
		perLanguage:       make(map[string]*LanguageCounters),
		languageIsolation: languageIsolation,
		since:             time.Now(),
	}
}

// RecordLookup observes one lookup outcome and its latency
func (c *Collector) RecordLookup(lang languages.Language, st status.LookupStatus, elapsed time.Duration) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	switch st {
	case status.LookupStatusHit:
		c.hits++
		c.hitLatencyTotal += elapsed
	case status.LookupStatusExpired:
		c.expirations++
		c.misses++
	case status.LookupStatusError, status.LookupStatusInvalid:
		c.errors++
		c.misses++
	default:
		c.misses++
	}
	lc, ok := c.perLanguage[lang.String()]
	if !ok {
		lc = &LanguageCounters{}
		c.perLanguage[lang.String()] = lc
	}
	if st == status.LookupStatusHit {
		lc.Hits++
	} else {
		lc.Misses++
	}
}

// RecordStore observes one store and its latency
func (c *Collector) RecordStore(elapsed time.Duration) {
	c.mtx.Lock()
	c.stores++
	c.storeLatencyTotal += elapsed
	c.mtx.Unlock()
}

// RecordInvalidation observes one explicit invalidation
func (c *Collector) RecordInvalidation() {
	c.mtx.Lock()
	c.invalidations++
	c.mtx.Unlock()
}

// RecordEviction observes one eviction exercise
func (c *Collector) RecordEviction(entriesRemoved int) {
	c.mtx.Lock()
	c.evictionRuns++
	c.evictedEntries += int64(entriesRemoved)
	c.mtx.Unlock()
}

// UpdateSize records the cache's current size against its budget
func (c *Collector) UpdateSize(sizeBytes, sizeLimitBytes int64) {
	c.mtx.Lock()
	c.sizeBytes = sizeBytes
	c.sizeLimitBytes = sizeLimitBytes
	c.mtx.Unlock()
}

// Reset zeroes all counters and restarts the observation window
func (c *Collector) Reset() {
	c.mtx.Lock()
	c.hits, c.misses, c.expirations, c.errors = 0, 0, 0, 0
	c.stores, c.invalidations = 0, 0
	c.evictedEntries, c.evictionRuns = 0, 0
	c.hitLatencyTotal, c.storeLatencyTotal = 0, 0
	c.perLanguage = make(map[string]*LanguageCounters)
	c.since = time.Now()
	c.mtx.Unlock()
}

// Snapshot is a point-in-time copy of the Collector's counters with the
// derived health score and recommendations
type Snapshot struct {
	Since time.Time

	Hits          int64
	Misses        int64
	Expirations   int64
	Errors        int64
	Stores        int64
	Invalidations int64

	EvictedEntries int64
	EvictionRuns   int64

	HitRate         float64
	AvgHitLatency   time.Duration
	AvgStoreLatency time.Duration

	SizeBytes      int64
	SizeLimitBytes int64
	Utilization    float64

	PerLanguage map[string]*LanguageCounters

	HealthScore     float64
	Recommendations []string
}

// Snapshot returns a consistent copy of the current counters with the
// health score and recommendations computed
func (c *Collector) Snapshot() *Snapshot {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	s := &Snapshot{
		Since:          c.since,
		Hits:           c.hits,
		Misses:         c.misses,
		Expirations:    c.expirations,
		Errors:         c.errors,
		Stores:         c.stores,
		Invalidations:  c.invalidations,
		EvictedEntries: c.evictedEntries,
		EvictionRuns:   c.evictionRuns,
		SizeBytes:      c.sizeBytes,
		SizeLimitBytes: c.sizeLimitBytes,
	}

	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	if c.hits > 0 {
		s.AvgHitLatency = c.hitLatencyTotal / time.Duration(c.hits)
	}
	if c.stores > 0 {
		s.AvgStoreLatency = c.storeLatencyTotal / time.Duration(c.stores)
	}
	if c.sizeLimitBytes > 0 {
		s.Utilization = float64(c.sizeBytes) / float64(c.sizeLimitBytes)
	}

	if c.languageIsolation {
		s.PerLanguage = make(map[string]*LanguageCounters, len(c.perLanguage))
		for k, v := range c.perLanguage {
			lc := *v
			s.PerLanguage[k] = &lc
		}
	}

	s.HealthScore = s.healthScore()
	s.Recommendations = s.recommendations()
	return s
}

// healthScore composes hit rate, hit latency, size utilization and
// eviction stability into a single 0-100 score
func (s *Snapshot) healthScore() float64 {
	score := weightHitRate * s.HitRate

	latency := 1.0
	if s.AvgHitLatency > TargetHitLatency {
		latency = float64(TargetHitLatency) / float64(s.AvgHitLatency)
	}
	score += weightLatency * latency

	utilization := 1.0
	if s.Utilization > utilizationHighWater {
		utilization = (1.0 - s.Utilization) / (1.0 - utilizationHighWater)
		if utilization < 0 {
			utilization = 0
		}
	}
	score += weightUtilization * utilization

	stability := 1.0
	if s.Stores > 0 && s.EvictedEntries > 0 {
		stability = 1.0 - float64(s.EvictedEntries)/float64(s.Stores)
		if stability < 0 {
			stability = 0
		}
	}
	score += weightEvictions * stability

	return score * 100
}

func (s *Snapshot) recommendations() []string {
	recs := make([]string, 0)
	if s.Hits+s.Misses > 0 && s.HitRate < hitRateLowWater {
		recs = append(recs, fmt.Sprintf(
			"hit rate is %.0f%%; review key derivation inputs for unstable values such as absolute paths or timestamps",
			s.HitRate*100))
	}
	if s.AvgHitLatency > TargetHitLatency {
		recs = append(recs, fmt.Sprintf(
			"average hit latency is %s; consider faster storage or a lighter compression codec",
			s.AvgHitLatency.Round(time.Millisecond)))
	}
	if s.Utilization > 0.90 {
		recs = append(recs, fmt.Sprintf(
			"cache is at %.0f%% of its size budget; consider raising cache_size_limit_mb",
			s.Utilization*100))
	}
	if s.Stores > 0 && float64(s.EvictedEntries) > float64(s.Stores)*0.5 {
		recs = append(recs,
			"evictions are churning recently stored entries; the size budget may be too small for this workload")
	}
	if s.Errors > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d lookups failed validation or deserialization; inspect storage health", s.Errors))
	}
	return recs
}
