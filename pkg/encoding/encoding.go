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

// Package encoding provides the compression codecs available for cache
// artifact payloads.
package encoding

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/andybalholm/brotli"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Provider enumerates the supported payload compression codecs
type Provider int

const (
	// IdentityID indicates no compression
	IdentityID = Provider(iota)
	// SnappyID indicates the Snappy block format
	SnappyID
	// GZipID indicates the gzip format
	GZipID
	// ZstandardID indicates the Zstandard format
	ZstandardID
	// BrotliID indicates the Brotli format
	BrotliID

	Identity  = "none"
	Snappy    = "snappy"
	GZip      = "gzip"
	Zstandard = "zstd"
	Brotli    = "brotli"
)

// Names is a map of codec providers keyed by name
var Names = map[string]Provider{
	Identity:  IdentityID,
	Snappy:    SnappyID,
	GZip:      GZipID,
	Zstandard: ZstandardID,
	Brotli:    BrotliID,
}

// Values is a map of codec providers keyed by internal id
var Values = make(map[Provider]string)

func init() {
	for k, v := range Names {
		Values[v] = k
	}
}

func (p Provider) String() string {
	if v, ok := Values[p]; ok {
		return v
	}
	return strconv.Itoa(int(p))
}

// Get returns the Provider for the provided codec name, and true when the
// name is recognized
func Get(name string) (Provider, bool) {
	p, ok := Names[name]
	return p, ok
}

// Encode compresses data with the provided codec
func Encode(p Provider, data []byte) ([]byte, error) {
	switch p {
	case IdentityID:
		return data, nil
	case SnappyID:
		return snappy.Encode(nil, data), nil
	case GZipID:
		buf := &bytes.Buffer{}
		w := gzip.NewWriter(buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case ZstandardID:
		w, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		out := w.EncodeAll(data, nil)
		w.Close()
		return out, nil
	case BrotliID:
		buf := &bytes.Buffer{}
		w := brotli.NewWriter(buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unknown encoding provider: %d", int(p))
}

// Decode decompresses data with the provided codec
func Decode(p Provider, data []byte) ([]byte, error) {
	switch p {
	case IdentityID:
		return data, nil
	case SnappyID:
		return snappy.Decode(nil, data)
	case GZipID:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case ZstandardID:
		r, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return r.DecodeAll(data, nil)
	case BrotliID:
		return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	}
	return nil, fmt.Errorf("unknown encoding provider: %d", int(p))
}
