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

// Package entry defines the stored unit of the cache: an ordered artifact
// set plus the metadata needed to validate and manage it. Metadata is
// serialized separately from artifact payloads so an entry can be
// validated without deserializing full artifact contents.
package entry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/gencache/gencache/pkg/cache/languages"
	"github.com/gencache/gencache/pkg/encoding"
)

// SchemaVersion is the cache schema version written into new entries.
// Bump whenever the persisted layout or metadata format changes in a way
// older readers cannot interpret.
const SchemaVersion = 1

// MinSchemaVersion is the oldest schema version this implementation
// still accepts on read
const MinSchemaVersion = 1

// Artifact is one generated output file produced by a code generation run
type Artifact struct {
	// Name is the artifact's output-relative file name
	Name string `msgpack:"name"`
	// Size is the uncompressed payload size in bytes
	Size int64 `msgpack:"size"`
	// SHA256 is the hex digest of the uncompressed payload
	SHA256 string `msgpack:"sha256"`
	// Data is the artifact payload; it is persisted separately from metadata
	Data []byte `msgpack:"-"`
}

// Checksum returns the hex sha256 digest of the provided payload
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Verify returns true if the Artifact's payload is present and matches
// the recorded size and checksum
func (a *Artifact) Verify() bool {
	return a.Data != nil && int64(len(a.Data)) == a.Size && Checksum(a.Data) == a.SHA256
}

// Entry is the stored unit for one cache key: the ordered artifact set
// and its management metadata
type Entry struct {
	// Key is the language cache key under which the Entry is stored
	Key string `msgpack:"key"`
	// Language is the code generation target language of the artifacts
	Language languages.Language `msgpack:"language"`
	// SchemaVersion is the cache schema version the Entry was written with
	SchemaVersion int `msgpack:"schema_version"`
	// Created is the time the Entry was stored
	Created time.Time `msgpack:"created"`
	// LastAccess is the time the Entry last served a hit
	LastAccess time.Time `msgpack:"last_access"`
	// AccessCount is the number of hits the Entry has served
	AccessCount int64 `msgpack:"access_count"`
	// Compressed indicates whether persisted payloads are compressed
	Compressed bool `msgpack:"compressed"`
	// Encoding is the codec applied to persisted payloads
	Encoding encoding.Provider `msgpack:"encoding"`
	// Size is the total uncompressed artifact bytes
	Size int64 `msgpack:"size"`
	// ArtifactCount is the number of artifacts in the Entry
	ArtifactCount int `msgpack:"artifact_count"`
	// Artifacts is the ordered artifact set
	Artifacts []Artifact `msgpack:"artifacts"`
}

// New returns an Entry for the provided artifacts, computing sizes and
// checksums, with creation metadata set to now
func New(cacheKey string, lang languages.Language, artifacts []Artifact,
	enc encoding.Provider) *Entry {

	e := &Entry{
		Key:           cacheKey,
		Language:      lang,
		SchemaVersion: SchemaVersion,
		Created:       time.Now(),
		Compressed:    enc != encoding.IdentityID,
		Encoding:      enc,
		ArtifactCount: len(artifacts),
		Artifacts:     make([]Artifact, len(artifacts)),
	}
	e.LastAccess = e.Created
	for i, a := range artifacts {
		a.Size = int64(len(a.Data))
		a.SHA256 = Checksum(a.Data)
		e.Artifacts[i] = a
		e.Size += a.Size
	}
	return e
}

// ToBytes returns the serialized metadata for the Entry. Artifact payloads
// are not included.
func (e *Entry) ToBytes() ([]byte, error) {
	return msgpack.Marshal(e)
}

// FromBytes returns a deserialized Entry from a serialized metadata byte slice
func FromBytes(data []byte) (*Entry, error) {
	e := &Entry{}
	if err := msgpack.Unmarshal(data, e); err != nil {
		return nil, err
	}
	return e, nil
}

// EncodeArtifact returns the persistable payload for the artifact at index i,
// compressed per the Entry's codec
func (e *Entry) EncodeArtifact(i int) ([]byte, error) {
	if i < 0 || i >= len(e.Artifacts) {
		return nil, fmt.Errorf("artifact index out of range: %d", i)
	}
	return encoding.Encode(e.Encoding, e.Artifacts[i].Data)
}

// DecodeArtifact fills the artifact at index i from its persisted payload,
// decompressing per the Entry's codec
func (e *Entry) DecodeArtifact(i int, data []byte) error {
	if i < 0 || i >= len(e.Artifacts) {
		return fmt.Errorf("artifact index out of range: %d", i)
	}
	b, err := encoding.Decode(e.Encoding, data)
	if err != nil {
		return err
	}
	e.Artifacts[i].Data = b
	return nil
}

// PayloadBytes returns all artifact payloads bundled into one serialized
// byte slice, for backends that store an entry as a metadata/payload
// key pair rather than discrete files
func (e *Entry) PayloadBytes() ([]byte, error) {
	payloads := make([][]byte, len(e.Artifacts))
	for i := range e.Artifacts {
		b, err := e.EncodeArtifact(i)
		if err != nil {
			return nil, err
		}
		payloads[i] = b
	}
	return msgpack.Marshal(payloads)
}

// SetPayloadFromBytes fills all artifact payloads from a bundle previously
// produced by PayloadBytes
func (e *Entry) SetPayloadFromBytes(data []byte) error {
	var payloads [][]byte
	if err := msgpack.Unmarshal(data, &payloads); err != nil {
		return err
	}
	if len(payloads) != len(e.Artifacts) {
		return fmt.Errorf("payload count mismatch: have %d artifacts, %d payloads",
			len(e.Artifacts), len(payloads))
	}
	for i, p := range payloads {
		if err := e.DecodeArtifact(i, p); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the Entry, including artifact payloads
func (e *Entry) Clone() *Entry {
	out := *e
	out.Artifacts = make([]Artifact, len(e.Artifacts))
	for i, a := range e.Artifacts {
		if a.Data != nil {
			d := make([]byte, len(a.Data))
			copy(d, a.Data)
			a.Data = d
		}
		out.Artifacts[i] = a
	}
	return &out
}
