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

package badger

import (
	"bytes"
	"testing"
	"time"

	"github.com/gencache/gencache/pkg/cache/entry"
	"github.com/gencache/gencache/pkg/cache/languages"
	"github.com/gencache/gencache/pkg/cache/options"
	"github.com/gencache/gencache/pkg/cache/status"
	"github.com/gencache/gencache/pkg/encoding"
)

const cacheKey = "0123456789abcdef0123456789abcdef"

func newConnectedCache(t *testing.T) *Cache {
	cfg := options.New()
	cfg.Provider = "badger"
	cfg.Badger.Directory = t.TempDir()
	c := New(cfg)
	if err := c.Connect(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func testEntry(key string, lang languages.Language) *entry.Entry {
	return entry.New(key, lang, []entry.Artifact{
		{Name: "svc.pb.go", Data: []byte("package svc\n\ntype Svc struct{}\n")},
	}, encoding.SnappyID)
}

func TestConnectBadDirectory(t *testing.T) {
	cfg := options.New()
	cfg.Provider = "badger"
	cfg.Badger.Directory = "/proc/no-such-dir/badger"
	c := New(cfg)
	if err := c.Connect(); err == nil {
		c.Close()
		t.Error("expected connect to an unwriteable directory to fail")
	}
}

func TestStoreLookup(t *testing.T) {
	c := newConnectedCache(t)
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
	c := newConnectedCache(t)
	if _, st, err := c.Lookup(cacheKey, languages.Go); err == nil || st != status.LookupStatusKeyMiss {
		t.Errorf("expected kmiss, got %s %v", st, err)
	}
}

func TestExpiration(t *testing.T) {
	cfg := options.New()
	cfg.Provider = "badger"
	cfg.Badger.Directory = t.TempDir()
	cfg.TTL = 50 * time.Millisecond
	c := New(cfg)
	if err := c.Connect(); err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Store(testEntry(cacheKey, languages.Go)); err != nil {
		t.Fatal(err)
	}
	if _, st, _ := c.Lookup(cacheKey, languages.Go); st != status.LookupStatusHit {
		t.Fatalf("expected hit before expiry, got %s", st)
	}
	time.Sleep(100 * time.Millisecond)
	if _, st, _ := c.Lookup(cacheKey, languages.Go); st != status.LookupStatusKeyMiss {
		t.Errorf("expected kmiss after expiry, got %s", st)
	}
}

func TestTouchPreservesTTL(t *testing.T) {
	cfg := options.New()
	cfg.Provider = "badger"
	cfg.Badger.Directory = t.TempDir()
	cfg.TTL = time.Hour
	c := New(cfg)
	if err := c.Connect(); err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Store(testEntry(cacheKey, languages.Go)); err != nil {
		t.Fatal(err)
	}
	// the touch on a hit rewrites metadata without discarding its expiration
	if _, _, err := c.Lookup(cacheKey, languages.Go); err != nil {
		t.Fatal(err)
	}
	got, st, err := c.Lookup(cacheKey, languages.Go)
	if err != nil || st != status.LookupStatusHit {
		t.Fatalf("expected hit, got %s %v", st, err)
	}
	if got.AccessCount < 1 {
		t.Errorf("expected persisted access count, got %d", got.AccessCount)
	}
}

func TestInvalidate(t *testing.T) {
	c := newConnectedCache(t)
	if err := c.Store(testEntry(cacheKey, languages.Go)); err != nil {
		t.Fatal(err)
	}
	if !c.Invalidate(cacheKey, languages.Go) {
		t.Error("expected invalidate to remove the entry")
	}
	if c.Invalidate(cacheKey, languages.Go) {
		t.Error("expected second invalidate to return false")
	}
	if _, st, _ := c.Lookup(cacheKey, languages.Go); st != status.LookupStatusKeyMiss {
		t.Errorf("expected kmiss after invalidate, got %s", st)
	}
}

func TestEnumerateAndStatistics(t *testing.T) {
	c := newConnectedCache(t)
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
	c := newConnectedCache(t)
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

func TestPersistence(t *testing.T) {
	cfg := options.New()
	cfg.Provider = "badger"
	cfg.Badger.Directory = t.TempDir()
	c := New(cfg)
	if err := c.Connect(); err != nil {
		t.Fatal(err)
	}
	if err := c.Store(testEntry(cacheKey, languages.Go)); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	c2 := New(cfg)
	if err := c2.Connect(); err != nil {
		t.Fatal(err)
	}
	defer c2.Close()
	if _, st, _ := c2.Lookup(cacheKey, languages.Go); st != status.LookupStatusHit {
		t.Errorf("expected hit after reopen, got %s", st)
	}
}
