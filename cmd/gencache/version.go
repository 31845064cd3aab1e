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
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the gencache version and build details",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s", appinfo.Name, appinfo.Version)
		if appinfo.GitCommitID != "" {
			fmt.Printf(" (%s)", appinfo.GitCommitID)
		}
		if appinfo.BuildTime != "" {
			fmt.Printf(" built %s", appinfo.BuildTime)
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
