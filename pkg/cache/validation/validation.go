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

// Package validation checks retrieved cache entries before their artifacts
// are handed to a caller. An entry that fails any check is treated as a
// miss and purged, so a corrupt or stale entry can never poison a build.
package validation

import (
	"fmt"
	"time"

	"github.com/gencache/gencache/pkg/cache/entry"
	"github.com/gencache/gencache/pkg/cache/options"
)

// Result reports the outcome of validating one cache entry
type Result struct {
	Valid  bool
	Errors []string
}

func (r *Result) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Validate checks the entry's required fields, schema version, artifact
// integrity and age against the provided Options
func Validate(e *entry.Entry, cfg *options.Options) *Result {
	r := &Result{Valid: true}
	if e == nil {
		r.fail("entry is nil")
		return r
	}

	if e.Key == "" {
		r.fail("entry has no cache key")
	}
	if !e.Language.IsValid() {
		r.fail("unknown language: %d", int(e.Language))
	}
	if e.Created.IsZero() {
		r.fail("entry has no creation time")
	}

	if e.SchemaVersion < entry.MinSchemaVersion || e.SchemaVersion > entry.SchemaVersion {
		r.fail("unsupported schema version: %d", e.SchemaVersion)
	}

	if e.ArtifactCount != len(e.Artifacts) {
		r.fail("artifact count mismatch: recorded %d, found %d",
			e.ArtifactCount, len(e.Artifacts))
	}
	if len(e.Artifacts) == 0 {
		r.fail("entry has no artifacts")
	}
	for i := range e.Artifacts {
		a := &e.Artifacts[i]
		if a.Name == "" {
			r.fail("artifact %d has no name", i)
		}
		if a.Data == nil {
			r.fail("artifact %d [%s] has no payload", i, a.Name)
			continue
		}
		if !a.Verify() {
			r.fail("artifact %d [%s] failed checksum verification", i, a.Name)
		}
	}

	if cfg != nil && cfg.TTL > 0 && !e.Created.IsZero() &&
		time.Since(e.Created) > cfg.TTL {
		r.fail("entry expired: created %s, ttl %s", e.Created.Format(time.RFC3339), cfg.TTL)
	}

	return r
}
