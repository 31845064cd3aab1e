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

package encoding

import (
	"bytes"
	"strings"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	payload := []byte(strings.Repeat("message RoundTrip { string value = 1; }\n", 64))

	for _, p := range []Provider{IdentityID, SnappyID, GZipID, ZstandardID, BrotliID} {
		encoded, err := Encode(p, payload)
		if err != nil {
			t.Fatalf("%s encode: %v", p, err)
		}
		decoded, err := Decode(p, encoded)
		if err != nil {
			t.Fatalf("%s decode: %v", p, err)
		}
		if !bytes.Equal(decoded, payload) {
			t.Errorf("%s: payload mismatch after round trip", p)
		}
		if p != IdentityID && len(encoded) >= len(payload) {
			t.Errorf("%s: expected repetitive payload to compress, %d -> %d",
				p, len(payload), len(encoded))
		}
	}
}

func TestDecodeCorrupt(t *testing.T) {
	for _, p := range []Provider{SnappyID, GZipID, ZstandardID} {
		if _, err := Decode(p, []byte("not a compressed stream")); err == nil {
			t.Errorf("%s: expected corrupt stream to fail decode", p)
		}
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		name     string
		expected Provider
		ok       bool
	}{
		{"none", IdentityID, true},
		{"snappy", SnappyID, true},
		{"gzip", GZipID, true},
		{"zstd", ZstandardID, true},
		{"brotli", BrotliID, true},
		{"lzma", 0, false},
	}
	for _, test := range tests {
		p, ok := Get(test.name)
		if ok != test.ok {
			t.Errorf("%s: expected ok=%t, got %t", test.name, test.ok, ok)
			continue
		}
		if ok && p != test.expected {
			t.Errorf("%s: expected %d, got %d", test.name, test.expected, p)
		}
	}
}
