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

package redis

import (
	"bytes"
	"testing"
	"time"

	"github.com/alicebob/miniredis"

	"github.com/gencache/gencache/pkg/cache/entry"
	"github.com/gencache/gencache/pkg/cache/languages"
	"github.com/gencache/gencache/pkg/cache/options"
	"github.com/gencache/gencache/pkg/cache/status"
	"github.com/gencache/gencache/pkg/encoding"
)

const cacheKey = "0123456789abcdef0123456789abcdef"

func setupRedisCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	cfg := options.New()
	cfg.Provider = "redis"
	cfg.Redis.Endpoint = s.Addr()
	c := New(cfg)
	if err = c.Connect(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		c.Close()
		s.Close()
	})
	return c, s
}

func testEntry(key string, lang languages.Language) *entry.Entry {
	return entry.New(key, lang, []entry.Artifact{
		{Name: "svc.pb.go", Data: []byte("package svc\n\ntype Svc struct{}\n")},
	}, encoding.SnappyID)
}

func TestConnectInvalidClientType(t *testing.T) {
	cfg := options.New()
	cfg.Provider = "redis"
	cfg.Redis.ClientType = "pipeline"
	c := New(cfg)
	if err := c.Connect(); err == nil {
		t.Error("expected invalid client type error")
	}
}

func TestConnectMissingEndpoint(t *testing.T) {
	cfg := options.New()
	cfg.Provider = "redis"
	cfg.Redis.Endpoint = ""
	c := New(cfg)
	if err := c.Connect(); err == nil {
		t.Error("expected invalid endpoint error")
	}
}

func TestSentinelOpts(t *testing.T) {
	cfg := options.New()
	cfg.Provider = "redis"
	cfg.Redis.ClientType = "sentinel"
	c := New(cfg)
	if _, err := c.sentinelOpts(); err == nil {
		t.Error("expected invalid endpoints error")
	}
	cfg.Redis.Endpoints = []string{"127.0.0.1:26379"}
	if _, err := c.sentinelOpts(); err == nil {
		t.Error("expected invalid sentinel_master error")
	}
	cfg.Redis.SentinelMaster = "mymaster"
	if _, err := c.sentinelOpts(); err != nil {
		t.Error(err)
	}
}

func TestClusterOpts(t *testing.T) {
	cfg := options.New()
	cfg.Provider = "redis"
	cfg.Redis.ClientType = "cluster"
	c := New(cfg)
	if _, err := c.clusterOpts(); err == nil {
		t.Error("expected invalid endpoints error")
	}
	cfg.Redis.Endpoints = []string{"127.0.0.1:6379"}
	if _, err := c.clusterOpts(); err != nil {
		t.Error(err)
	}
}

func TestStoreLookup(t *testing.T) {
	c, _ := setupRedisCache(t)
	e := testEntry(cacheKey, languages.Go)
	if err := c.Store(e); err != nil {
		t.Fatal(err)
	}

	got, st, err := c.Lookup(cacheKey, languages.Go)
	if err != nil {
		t.Fatal(err)
	}
	if st != status.LookupStatusHit {
		t.Errorf("expected hit, got %s", st)
	}
	if !bytes.Equal(got.Artifacts[0].Data, e.Artifacts[0].Data) {
		t.Error("artifact payload mismatch")
	}

	// the same key under another language is a separate entry
	if _, st, _ := c.Lookup(cacheKey, languages.Python); st != status.LookupStatusKeyMiss {
		t.Errorf("expected kmiss for other language, got %s", st)
	}
}

func TestLookupMiss(t *testing.T) {
	c, _ := setupRedisCache(t)
	if _, st, err := c.Lookup(cacheKey, languages.Go); err == nil || st != status.LookupStatusKeyMiss {
		t.Errorf("expected kmiss, got %s %v", st, err)
	}
}

func TestLookupCorruptMetadata(t *testing.T) {
	c, s := setupRedisCache(t)
	if err := c.Store(testEntry(cacheKey, languages.Go)); err != nil {
		t.Fatal(err)
	}
	metaKey, _ := keyNames(cacheKey, languages.Go)
	s.Set(metaKey, "garbage")
	if _, st, err := c.Lookup(cacheKey, languages.Go); err == nil || st != status.LookupStatusError {
		t.Errorf("expected error status for corrupt metadata, got %s %v", st, err)
	}
}

func TestLookupMissingPayload(t *testing.T) {
	c, s := setupRedisCache(t)
	if err := c.Store(testEntry(cacheKey, languages.Go)); err != nil {
		t.Fatal(err)
	}
	_, dataKey := keyNames(cacheKey, languages.Go)
	s.Del(dataKey)
	if _, st, err := c.Lookup(cacheKey, languages.Go); err == nil || st != status.LookupStatusError {
		t.Errorf("expected error status for missing payload, got %s %v", st, err)
	}
}

func TestExpiration(t *testing.T) {
	c, s := setupRedisCache(t)
	c.Config.TTL = time.Minute
	if err := c.Store(testEntry(cacheKey, languages.Go)); err != nil {
		t.Fatal(err)
	}
	if _, st, _ := c.Lookup(cacheKey, languages.Go); st != status.LookupStatusHit {
		t.Fatalf("expected hit before expiry, got %s", st)
	}

	s.FastForward(2 * time.Minute)
	if _, st, _ := c.Lookup(cacheKey, languages.Go); st != status.LookupStatusKeyMiss {
		t.Errorf("expected kmiss after expiry, got %s", st)
	}
}

func TestInvalidate(t *testing.T) {
	c, _ := setupRedisCache(t)
	if err := c.Store(testEntry(cacheKey, languages.Go)); err != nil {
		t.Fatal(err)
	}
	if !c.Invalidate(cacheKey, languages.Go) {
		t.Error("expected invalidate to remove the entry")
	}
	if c.Invalidate(cacheKey, languages.Go) {
		t.Error("expected second invalidate to return false")
	}
}

func TestEnumerateAndStatistics(t *testing.T) {
	c, _ := setupRedisCache(t)
	if err := c.Store(testEntry("aa00", languages.Go)); err != nil {
		t.Fatal(err)
	}
	if err := c.Store(testEntry("bb00", languages.Python)); err != nil {
		t.Fatal(err)
	}

	entries, err := c.Enumerate()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Artifacts[0].Data != nil {
			t.Error("expected enumerate to exclude artifact payloads")
		}
	}

	stats, err := c.Statistics()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 2 || len(stats.PerLanguage) != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestCleanup(t *testing.T) {
	c, _ := setupRedisCache(t)
	keys := []string{"aa00", "bb00", "cc00"}
	var perEntry int64
	for _, k := range keys {
		e := testEntry(k, languages.Go)
		perEntry = e.Size
		if err := c.Store(e); err != nil {
			t.Fatal(err)
		}
		// push each stored entry further back in the LRU order
		time.Sleep(2 * time.Millisecond)
		if _, _, err := c.Lookup(k, languages.Go); err != nil {
			t.Fatal(err)
		}
	}

	result, err := c.Cleanup(perEntry * 2)
	if err != nil {
		t.Fatal(err)
	}
	if result.EntriesRemoved != 1 {
		t.Fatalf("expected 1 entry removed, got %d", result.EntriesRemoved)
	}
	if _, st, _ := c.Lookup(keys[0], languages.Go); st != status.LookupStatusKeyMiss {
		t.Errorf("expected least-recently-used entry evicted, got %s", st)
	}
	if _, st, _ := c.Lookup(keys[2], languages.Go); st != status.LookupStatusHit {
		t.Errorf("expected most-recently-used entry to survive, got %s", st)
	}
}
