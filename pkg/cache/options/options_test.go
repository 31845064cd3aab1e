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

package options

import (
	"testing"
	"time"

	"github.com/gencache/gencache/pkg/cache/providers"
	"github.com/gencache/gencache/pkg/encoding"
)

func TestNewDefaults(t *testing.T) {
	o := New()
	if o.Provider != DefaultCacheProvider {
		t.Errorf("expected provider %s, got %s", DefaultCacheProvider, o.Provider)
	}
	if !o.LocalEnabled || o.RemoteEnabled {
		t.Error("expected local enabled and remote disabled by default")
	}
	if o.SizeLimitMB != DefaultSizeLimitMB {
		t.Errorf("expected size limit %d, got %d", DefaultSizeLimitMB, o.SizeLimitMB)
	}
	if o.SizeLimitBytes != DefaultSizeLimitMB*1024*1024 {
		t.Errorf("unexpected size limit bytes: %d", o.SizeLimitBytes)
	}
	if o.Index == nil || o.BBolt == nil || o.Badger == nil || o.Redis == nil {
		t.Error("expected all sub-options to be populated")
	}
}

func TestClone(t *testing.T) {
	o := New()
	o.Provider = providers.Redis
	o.Redis.Endpoint = "redis:6379"
	o.Index.MaxSizeBackoffBytes = 16384

	c := o.Clone()
	if c.Provider != o.Provider || c.Redis.Endpoint != o.Redis.Endpoint ||
		c.Index.MaxSizeBackoffBytes != o.Index.MaxSizeBackoffBytes {
		t.Error("clone mismatch")
	}

	c.Redis.Endpoint = "changed:6379"
	if o.Redis.Endpoint == c.Redis.Endpoint {
		t.Error("expected clone sub-options to be independent of the original")
	}
}

func TestProcess(t *testing.T) {
	o := New()
	o.SizeLimitMB = 2
	o.TTLHours = 48
	o.CompressionCodec = encoding.Zstandard
	if err := o.Process(); err != nil {
		t.Fatal(err)
	}
	if o.ProviderID != providers.FilesystemID {
		t.Errorf("expected provider id %d, got %d", providers.FilesystemID, o.ProviderID)
	}
	if o.EncodingID != encoding.ZstandardID {
		t.Errorf("expected encoding id %d, got %d", encoding.ZstandardID, o.EncodingID)
	}
	if o.SizeLimitBytes != 2*1024*1024 {
		t.Errorf("expected 2MB in bytes, got %d", o.SizeLimitBytes)
	}
	if o.TTL != 48*time.Hour {
		t.Errorf("expected 48h TTL, got %s", o.TTL)
	}
	if o.Index.ReapInterval != time.Duration(o.Index.ReapIntervalSecs)*time.Second {
		t.Errorf("unexpected reap interval: %s", o.Index.ReapInterval)
	}
}

func TestProcessInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"bad provider", func(o *Options) { o.Provider = "etcd" }},
		{"bad codec", func(o *Options) { o.CompressionCodec = "lzma" }},
		{"negative size", func(o *Options) { o.SizeLimitMB = -1 }},
		{"negative ttl", func(o *Options) { o.TTLHours = -1 }},
		{"fs without path", func(o *Options) { o.StoragePath = "" }},
		{"negative backoff", func(o *Options) { o.Index.MaxSizeBackoffBytes = -1 }},
	}
	for _, test := range tests {
		o := New()
		test.mutate(o)
		if err := o.Process(); err == nil {
			t.Errorf("%s: expected validation error", test.name)
		}
	}
}
