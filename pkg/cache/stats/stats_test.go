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

package stats

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/gencache/gencache/pkg/cache/languages"
	"github.com/gencache/gencache/pkg/cache/status"
)

func TestRecordLookup(t *testing.T) {
	c := NewCollector(true)
	c.RecordLookup(languages.Go, status.LookupStatusHit, 5*time.Millisecond)
	c.RecordLookup(languages.Go, status.LookupStatusHit, 15*time.Millisecond)
	c.RecordLookup(languages.Go, status.LookupStatusKeyMiss, time.Millisecond)
	c.RecordLookup(languages.Python, status.LookupStatusExpired, time.Millisecond)
	c.RecordLookup(languages.Python, status.LookupStatusError, time.Millisecond)

	s := c.Snapshot()
	if s.Hits != 2 || s.Misses != 3 {
		t.Errorf("expected 2 hits 3 misses, got %d %d", s.Hits, s.Misses)
	}
	if s.Expirations != 1 {
		t.Errorf("expected 1 expiration, got %d", s.Expirations)
	}
	if s.Errors != 1 {
		t.Errorf("expected 1 error, got %d", s.Errors)
	}
	if s.HitRate != 0.4 {
		t.Errorf("expected hit rate 0.4, got %f", s.HitRate)
	}
	if s.AvgHitLatency != 10*time.Millisecond {
		t.Errorf("expected 10ms average hit latency, got %s", s.AvgHitLatency)
	}

	lc := s.PerLanguage["go"]
	if lc == nil || lc.Hits != 2 || lc.Misses != 1 {
		t.Errorf("unexpected go counters: %+v", lc)
	}
	if rate := lc.HitRate(); math.Abs(rate-2.0/3.0) > 0.0001 {
		t.Errorf("unexpected go hit rate: %f", rate)
	}
	lc = s.PerLanguage["python"]
	if lc == nil || lc.Hits != 0 || lc.Misses != 2 {
		t.Errorf("unexpected python counters: %+v", lc)
	}
}

func TestLanguageIsolationOff(t *testing.T) {
	c := NewCollector(false)
	c.RecordLookup(languages.Go, status.LookupStatusHit, time.Millisecond)
	if s := c.Snapshot(); s.PerLanguage != nil {
		t.Error("expected no per-language breakdown when isolation is off")
	}
}

func TestRecordStoreAndEviction(t *testing.T) {
	c := NewCollector(true)
	c.RecordStore(4 * time.Millisecond)
	c.RecordStore(8 * time.Millisecond)
	c.RecordInvalidation()
	c.RecordEviction(3)
	c.RecordEviction(0)

	s := c.Snapshot()
	if s.Stores != 2 || s.Invalidations != 1 {
		t.Errorf("expected 2 stores 1 invalidation, got %d %d", s.Stores, s.Invalidations)
	}
	if s.AvgStoreLatency != 6*time.Millisecond {
		t.Errorf("expected 6ms average store latency, got %s", s.AvgStoreLatency)
	}
	if s.EvictionRuns != 2 || s.EvictedEntries != 3 {
		t.Errorf("expected 2 runs 3 evicted, got %d %d", s.EvictionRuns, s.EvictedEntries)
	}
}

func TestUtilization(t *testing.T) {
	c := NewCollector(true)
	c.UpdateSize(50, 200)
	if s := c.Snapshot(); s.Utilization != 0.25 {
		t.Errorf("expected utilization 0.25, got %f", s.Utilization)
	}
	c.UpdateSize(50, 0)
	if s := c.Snapshot(); s.Utilization != 0 {
		t.Errorf("expected utilization 0 with no budget, got %f", s.Utilization)
	}
}

func TestHealthScoreHealthy(t *testing.T) {
	c := NewCollector(true)
	for i := 0; i < 9; i++ {
		c.RecordLookup(languages.Go, status.LookupStatusHit, 5*time.Millisecond)
	}
	c.RecordLookup(languages.Go, status.LookupStatusKeyMiss, time.Millisecond)
	c.RecordStore(time.Millisecond)
	c.UpdateSize(10, 100)

	s := c.Snapshot()
	// 0.40*0.9 hit rate + full latency, utilization and stability components
	want := 0.40*0.9 + 0.30 + 0.20 + 0.10
	if math.Abs(s.HealthScore-want*100) > 0.01 {
		t.Errorf("expected health score %.2f, got %.2f", want*100, s.HealthScore)
	}
	if len(s.Recommendations) != 0 {
		t.Errorf("expected no recommendations, got %v", s.Recommendations)
	}
}

func TestHealthScoreDegradedLatency(t *testing.T) {
	c := NewCollector(true)
	c.RecordLookup(languages.Go, status.LookupStatusHit, 50*time.Millisecond)

	s := c.Snapshot()
	// latency component halves at twice the target
	want := 0.40*1.0 + 0.30*0.5 + 0.20 + 0.10
	if math.Abs(s.HealthScore-want*100) > 0.01 {
		t.Errorf("expected health score %.2f, got %.2f", want*100, s.HealthScore)
	}
}

func TestHealthScoreHighUtilization(t *testing.T) {
	c := NewCollector(true)
	c.UpdateSize(95, 100)
	s := c.Snapshot()
	// (1-0.95)/(1-0.80) = 0.25 of the utilization component survives;
	// no lookups means the hit rate component contributes nothing
	want := 0.30 + 0.20*0.25 + 0.10
	if math.Abs(s.HealthScore-want*100) > 0.01 {
		t.Errorf("expected health score %.2f, got %.2f", want*100, s.HealthScore)
	}
}

func TestHealthScoreEvictionChurn(t *testing.T) {
	c := NewCollector(true)
	for i := 0; i < 10; i++ {
		c.RecordStore(time.Millisecond)
	}
	c.RecordEviction(8)
	s := c.Snapshot()
	want := 0.30 + 0.20 + 0.10*0.2
	if math.Abs(s.HealthScore-want*100) > 0.01 {
		t.Errorf("expected health score %.2f, got %.2f", want*100, s.HealthScore)
	}
}

func assertRecommendation(t *testing.T, recs []string, want string) {
	t.Helper()
	for _, r := range recs {
		if strings.Contains(r, want) {
			return
		}
	}
	t.Errorf("expected a recommendation containing %q, got %v", want, recs)
}

func TestRecommendations(t *testing.T) {
	c := NewCollector(true)
	// 1 hit, 2 misses: 33% hit rate, slow hits, one validation error
	c.RecordLookup(languages.Go, status.LookupStatusHit, 100*time.Millisecond)
	c.RecordLookup(languages.Go, status.LookupStatusKeyMiss, time.Millisecond)
	c.RecordLookup(languages.Go, status.LookupStatusError, time.Millisecond)
	c.UpdateSize(95, 100)
	for i := 0; i < 4; i++ {
		c.RecordStore(time.Millisecond)
	}
	c.RecordEviction(3)

	recs := c.Snapshot().Recommendations
	if len(recs) != 5 {
		t.Fatalf("expected 5 recommendations, got %d: %v", len(recs), recs)
	}
	assertRecommendation(t, recs, "key derivation inputs")
	assertRecommendation(t, recs, "average hit latency")
	assertRecommendation(t, recs, "size budget")
	assertRecommendation(t, recs, "churning recently stored entries")
	assertRecommendation(t, recs, "inspect storage health")
}

func TestReset(t *testing.T) {
	c := NewCollector(true)
	c.RecordLookup(languages.Go, status.LookupStatusHit, time.Millisecond)
	c.RecordStore(time.Millisecond)
	c.RecordEviction(2)
	c.Reset()

	s := c.Snapshot()
	if s.Hits != 0 || s.Stores != 0 || s.EvictedEntries != 0 {
		t.Errorf("expected zeroed counters after reset, got %+v", s)
	}
	if len(s.PerLanguage) != 0 {
		t.Errorf("expected empty per-language map after reset, got %v", s.PerLanguage)
	}
}
