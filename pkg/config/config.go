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

// Package config provides gencache configuration abilities, including
// parsing configuration files and environment variables, as well as
// default values and state.
package config

import (
	"github.com/gencache/gencache/pkg/cache/options"
)

// Config is the main configuration object
type Config struct {
	// Main is the primary MainConfig section
	Main *MainConfig `yaml:"main,omitempty"`
	// Cache configures the cache subsystem
	Cache *options.Options `yaml:"cache,omitempty"`
	// Logging provides configurations that affect logging behavior
	Logging *LoggingConfig `yaml:"logging,omitempty"`
	// Metrics provides configurations for collecting Metrics about the application
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// MainConfig is a collection of general configuration values
type MainConfig struct {
	// InstanceID represents a unique ID for the current instance,
	// when multiple instances run on the same host
	InstanceID int `yaml:"instance_id,omitempty"`
}

// LoggingConfig is a collection of Logging configurations
type LoggingConfig struct {
	// LogFile provides the filepath to the instance's logfile.
	// Set as empty string to log to Console
	LogFile string `yaml:"log_file,omitempty"`
	// LogLevel provides the most granular level (e.g., DEBUG, INFO, ERROR)
	// to log
	LogLevel string `yaml:"log_level,omitempty"`
}

// MetricsConfig is a collection of Metrics Collection configurations
type MetricsConfig struct {
	// ListenAddress is the address the metrics http listener will bind to
	ListenAddress string `yaml:"listen_address,omitempty"`
	// ListenPort is the port the metrics http listener will bind to;
	// 0 disables the listener
	ListenPort int `yaml:"listen_port,omitempty"`
}

// NewConfig returns a Config with default values
func NewConfig() *Config {
	return &Config{
		Main:    &MainConfig{},
		Cache:   options.New(),
		Logging: &LoggingConfig{LogLevel: DefaultLogLevel},
		Metrics: &MetricsConfig{ListenPort: DefaultMetricsListenPort},
	}
}

// Default configuration values
const (
	DefaultLogLevel          = "info"
	DefaultMetricsListenPort = 0
)
