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

// gencache is the command-line interface to the build artifact cache,
// for inspecting, validating and maintaining a cache out-of-band of the
// code generation runs that populate it.
package main

import (
	"os"
)

var (
	applicationVersion     = "dev"
	applicationBuildTime   string
	applicationGitCommitID string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
