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

// Package languages enumerates the target languages for which generated
// code can be cached. Cache entries for different languages never share
// a key space, so a plugin or toolchain change for one language cannot
// invalidate another's cached output.
package languages

import "strconv"

// Language enumerates the supported code generation target languages
type Language int

const (
	// Go indicates generated Go code
	Go = Language(iota)
	// Python indicates generated Python code
	Python
	// Java indicates generated Java code
	Java
	// Cpp indicates generated C++ code
	Cpp
	// CSharp indicates generated C# code
	CSharp
	// Ruby indicates generated Ruby code
	Ruby
	// ObjC indicates generated Objective-C code
	ObjC
	// PHP indicates generated PHP code
	PHP
	// Rust indicates generated Rust code
	Rust
	// TypeScript indicates generated TypeScript code
	TypeScript
)

// Names is a map of Languages keyed by name
var Names = map[string]Language{
	"go":         Go,
	"python":     Python,
	"java":       Java,
	"cpp":        Cpp,
	"csharp":     CSharp,
	"ruby":       Ruby,
	"objc":       ObjC,
	"php":        PHP,
	"rust":       Rust,
	"typescript": TypeScript,
}

// Values is a map of Languages keyed by internal id
var Values = make(map[Language]string)

func init() {
	for k, v := range Names {
		Values[v] = k
	}
}

func (l Language) String() string {
	if v, ok := Values[l]; ok {
		return v
	}
	return strconv.Itoa(int(l))
}

// IsValid returns true if the Language is a known enumerated value
func (l Language) IsValid() bool {
	_, ok := Values[l]
	return ok
}

// Get returns the Language for the provided name, and true when the
// name is recognized
func Get(name string) (Language, bool) {
	l, ok := Names[name]
	return l, ok
}
