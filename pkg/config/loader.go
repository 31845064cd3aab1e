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

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Load returns the running configuration, starting with the defaults,
// overriding with the provided config file if any, and finally with
// environment variables. The assembled configuration is validated
// before it is returned.
func Load(path string) (*Config, error) {
	c := NewConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read config file [%s]: %w", path, err)
		}
		if err = yaml.UnmarshalStrict(data, c); err != nil {
			return nil, fmt.Errorf("could not parse config file [%s]: %w", path, err)
		}
	}

	c.loadEnvVars()

	if err := c.process(); err != nil {
		return nil, err
	}
	return c, nil
}

// process re-applies defaults for omitted sections and validates the
// assembled configuration
func (c *Config) process() error {
	if c.Main == nil {
		c.Main = &MainConfig{}
	}
	if c.Cache == nil {
		c.Cache = NewConfig().Cache
	}
	if c.Logging == nil {
		c.Logging = &LoggingConfig{LogLevel: DefaultLogLevel}
	}
	if c.Metrics == nil {
		c.Metrics = &MetricsConfig{ListenPort: DefaultMetricsListenPort}
	}
	return c.Cache.Process()
}
