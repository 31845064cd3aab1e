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

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gencache/gencache/pkg/appinfo"
	"github.com/gencache/gencache/pkg/cache"
	"github.com/gencache/gencache/pkg/cache/manager"
	"github.com/gencache/gencache/pkg/cache/registration"
	"github.com/gencache/gencache/pkg/cache/stats"
	"github.com/gencache/gencache/pkg/config"
	"github.com/gencache/gencache/pkg/observability/logging"
	"github.com/gencache/gencache/pkg/observability/metrics"
)

var (
	flagConfigPath  string
	flagLogLevel    string
	flagMetricsPort int

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "gencache",
	Short:         "gencache is a build artifact cache for generated code",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		appinfo.Set("gencache", applicationVersion, applicationBuildTime, applicationGitCommitID)
		if cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load(flagConfigPath)
		if err != nil {
			return err
		}
		if flagLogLevel != "" {
			cfg.Logging.LogLevel = flagLogLevel
		}
		if flagMetricsPort > 0 {
			cfg.Metrics.ListenPort = flagMetricsPort
		}

		logging.Init(cfg.Logging.LogFile, cfg.Logging.LogLevel, cfg.Main.InstanceID)
		metrics.Init(cfg.Metrics.ListenAddress, cfg.Metrics.ListenPort)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfigPath, "config", "c", "",
		"path to the gencache config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "",
		"override the configured log level")
	rootCmd.PersistentFlags().IntVar(&flagMetricsPort, "metrics-port", 0,
		"expose prometheus metrics on this port while the command runs")
}

// newManager builds and connects the cache tiers named by the loaded config
func newManager() (*manager.Manager, error) {
	var local, remote cache.Client
	var err error

	if cfg.Cache.LocalEnabled {
		if local, err = registration.NewCache(cfg.Cache); err != nil {
			return nil, err
		}
		if err = local.Connect(); err != nil {
			return nil, fmt.Errorf("could not connect to local cache: %w", err)
		}
	}

	if cfg.Cache.RemoteEnabled {
		if remote, err = registration.NewRemoteCache(cfg.Cache); err != nil {
			return nil, err
		}
		if err = remote.Connect(); err != nil {
			// remote unavailability degrades to local-only operation
			logging.Warn("could not connect to remote cache",
				logging.Pairs{"detail": err.Error()})
			remote = nil
		}
	}

	return manager.New(cfg.Cache, local, remote,
		stats.NewCollector(cfg.Cache.LanguageIsolation)), nil
}
