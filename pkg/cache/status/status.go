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

// Package status governs the possible Cache Lookup Status values
package status

import "strconv"

// LookupStatus defines the possible status of a cache lookup
type LookupStatus int

const (
	// LookupStatusHit indicates a full cache hit on lookup
	LookupStatusHit = LookupStatus(iota)
	// LookupStatusKeyMiss indicates a full key miss (cache key does not exist) on lookup
	LookupStatusKeyMiss
	// LookupStatusExpired indicates the cache key exists but the entry exceeded its
	// configured time-to-live and is treated as a miss
	LookupStatusExpired
	// LookupStatusInvalid indicates the cache key exists but the entry failed
	// validation and was quarantined
	LookupStatusInvalid
	// LookupStatusPurge indicates the cache key, if it existed, was purged as directed
	LookupStatusPurge
	// LookupStatusError indicates that there was an error looking up the entry in the cache
	LookupStatusError
)

var lookupStatusNames = map[string]LookupStatus{
	"hit":     LookupStatusHit,
	"kmiss":   LookupStatusKeyMiss,
	"expired": LookupStatusExpired,
	"invalid": LookupStatusInvalid,
	"purge":   LookupStatusPurge,
	"error":   LookupStatusError,
}

var lookupStatusValues = make(map[LookupStatus]string)

func init() {
	for k, v := range lookupStatusNames {
		lookupStatusValues[v] = k
	}
}

func (s LookupStatus) String() string {
	if v, ok := lookupStatusValues[s]; ok {
		return v
	}
	return strconv.Itoa(int(s))
}
