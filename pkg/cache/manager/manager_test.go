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

package manager

import (
	"bytes"
	"testing"

	"github.com/gencache/gencache/pkg/cache/entry"
	"github.com/gencache/gencache/pkg/cache/languages"
	"github.com/gencache/gencache/pkg/cache/memory"
	"github.com/gencache/gencache/pkg/cache/options"
)

const cacheKey = "0123456789abcdef0123456789abcdef"

func newTier(t *testing.T, name string) *memory.Cache {
	cfg := options.New()
	cfg.Name = name
	cfg.Provider = "memory"
	c := memory.New(cfg)
	if err := c.Connect(); err != nil {
		t.Fatal(err)
	}
	return c
}

func newManager(t *testing.T, remote bool) *Manager {
	cfg := options.New()
	cfg.Provider = "memory"
	var r *memory.Cache
	if remote {
		cfg.RemoteEnabled = true
		r = newTier(t, "remote")
	}
	m := New(cfg, newTier(t, "local"), nil, nil)
	if r != nil {
		m.Remote = r
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func testArtifacts() []entry.Artifact {
	return []entry.Artifact{
		{Name: "a.pb.go", Data: []byte("package a\n")},
		{Name: "b.pb.go", Data: []byte("package b\n")},
	}
}

func TestSaveFetch(t *testing.T) {
	m := newManager(t, false)

	if _, ok := m.Fetch(cacheKey, languages.Go); ok {
		t.Fatal("expected miss before save")
	}

	e, err := m.Save(cacheKey, languages.Go, testArtifacts())
	if err != nil {
		t.Fatal(err)
	}
	if e.ArtifactCount != 2 {
		t.Errorf("expected 2 artifacts, got %d", e.ArtifactCount)
	}

	artifacts, ok := m.Fetch(cacheKey, languages.Go)
	if !ok {
		t.Fatal("expected hit after save")
	}
	if len(artifacts) != 2 || !bytes.Equal(artifacts[0].Data, []byte("package a\n")) {
		t.Errorf("unexpected artifacts: %+v", artifacts)
	}

	s := m.Collector.Snapshot()
	if s.Hits != 1 || s.Misses != 1 || s.Stores != 1 {
		t.Errorf("expected 1 hit 1 miss 1 store, got %+v", s)
	}
}

func TestFetchLanguageIsolation(t *testing.T) {
	m := newManager(t, false)
	if _, err := m.Save(cacheKey, languages.Go, testArtifacts()); err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Fetch(cacheKey, languages.Python); ok {
		t.Error("expected miss for another language under the same key")
	}
}

func TestFetchPurgesInvalidEntry(t *testing.T) {
	m := newManager(t, false)
	if _, err := m.Save(cacheKey, languages.Go, testArtifacts()); err != nil {
		t.Fatal(err)
	}

	// corrupt the stored entry behind the manager's back
	local := m.Local.(*memory.Cache)
	e, _, err := local.Lookup(cacheKey, languages.Go)
	if err != nil {
		t.Fatal(err)
	}
	e.Artifacts[0].Data = []byte("tampered")
	if err = local.Store(e); err != nil {
		t.Fatal(err)
	}

	if _, ok := m.Fetch(cacheKey, languages.Go); ok {
		t.Fatal("expected tampered entry to be treated as a miss")
	}
	// the invalid entry was purged
	if _, _, err = local.Lookup(cacheKey, languages.Go); err == nil {
		t.Error("expected invalid entry to be purged from the tier")
	}
}

func TestRemoteBackfill(t *testing.T) {
	m := newManager(t, true)

	// seed only the remote tier
	e := entry.New(cacheKey, languages.Go, testArtifacts(), m.Config.EncodingID)
	if err := m.Remote.Store(e); err != nil {
		t.Fatal(err)
	}

	if _, ok := m.Fetch(cacheKey, languages.Go); !ok {
		t.Fatal("expected remote hit")
	}

	// the hit was backfilled into the local tier
	if _, _, err := m.Local.Lookup(cacheKey, languages.Go); err != nil {
		t.Error("expected backfilled local entry")
	}
}

func TestSaveWritesBothTiers(t *testing.T) {
	m := newManager(t, true)
	if _, err := m.Save(cacheKey, languages.Go, testArtifacts()); err != nil {
		t.Fatal(err)
	}
	if _, _, err := m.Local.Lookup(cacheKey, languages.Go); err != nil {
		t.Error("expected entry in local tier")
	}
	if _, _, err := m.Remote.Lookup(cacheKey, languages.Go); err != nil {
		t.Error("expected entry in remote tier")
	}
}

func TestInvalidate(t *testing.T) {
	m := newManager(t, true)
	if _, err := m.Save(cacheKey, languages.Go, testArtifacts()); err != nil {
		t.Fatal(err)
	}
	if !m.Invalidate(cacheKey, languages.Go) {
		t.Error("expected invalidate to remove the entry")
	}
	if _, ok := m.Fetch(cacheKey, languages.Go); ok {
		t.Error("expected miss after invalidate")
	}
	if m.Invalidate(cacheKey, languages.Go) {
		t.Error("expected second invalidate to return false")
	}
}

func TestNoTiersEnabled(t *testing.T) {
	cfg := options.New()
	cfg.LocalEnabled = false
	m := New(cfg, nil, nil, nil)

	if _, ok := m.Fetch(cacheKey, languages.Go); ok {
		t.Error("expected miss with no tiers enabled")
	}
	if _, err := m.Save(cacheKey, languages.Go, testArtifacts()); err == nil {
		t.Error("expected save with no tiers enabled to fail")
	}
}

func TestCleanup(t *testing.T) {
	m := newManager(t, false)
	keys := []string{"aa00", "bb00", "cc00"}
	var perEntry int64
	for _, k := range keys {
		e, err := m.Save(k, languages.Go, testArtifacts())
		if err != nil {
			t.Fatal(err)
		}
		perEntry = e.Size
	}

	m.Config.SizeLimitBytes = perEntry * 2
	result, err := m.Cleanup()
	if err != nil {
		t.Fatal(err)
	}
	if result.EntriesRemoved != 1 {
		t.Errorf("expected 1 entry removed, got %d", result.EntriesRemoved)
	}

	s := m.Collector.Snapshot()
	if s.EvictionRuns != 1 || s.EvictedEntries != 1 {
		t.Errorf("expected eviction recorded, got %+v", s)
	}
	if s.SizeBytes != perEntry*2 {
		t.Errorf("expected size %d after cleanup, got %d", perEntry*2, s.SizeBytes)
	}
}

func TestStatistics(t *testing.T) {
	m := newManager(t, false)
	if _, err := m.Save(cacheKey, languages.Go, testArtifacts()); err != nil {
		t.Fatal(err)
	}
	stats, err := m.Statistics()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 1 {
		t.Errorf("expected 1 entry, got %d", stats.Entries)
	}
}
