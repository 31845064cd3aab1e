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

package logging

import (
	"os"
	"testing"
)

func TestConsoleLogger(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"warn", "warn"},
		{"error", "error"},
		{"trace", "trace"},
		{"x", "info"},
	}
	// it should create a logger for each level
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			l := ConsoleLogger(tc.input)
			if l.Level() != tc.expected {
				t.Errorf("mismatch in log level: expected=%s actual=%s", tc.expected, l.Level())
			}
		})
	}
}

func TestNewConsoleFallback(t *testing.T) {
	l := New("", "warn", 0)
	if l.closer != nil {
		t.Error("expected console logger with no file handle")
	}
	if l.Level() != "warn" {
		t.Errorf("expected %s got %s", "warn", l.Level())
	}
}

func TestNewLogger_LogFile(t *testing.T) {
	td := t.TempDir()
	fileName := td + "/out.log"
	instanceFileName := td + "/out.1.log"
	// it should write to a per-instance log file
	l := New(fileName, "info", 1)
	l.Info("test entry", Pairs{"testKey": "testVal"})
	if _, err := os.Stat(instanceFileName); err != nil {
		t.Error(err)
	}
	l.Close()
}

func TestNewLoggerDebug_LogFile(t *testing.T) {
	fileName := t.TempDir() + "/out.debug.log"
	l := New(fileName, "debug", 0)
	l.Debug("test entry", Pairs{"testKey": "testVal"})
	if _, err := os.Stat(fileName); err != nil {
		t.Error(err)
	}
	l.Close()
}

func TestNewLoggerWarn_LogFile(t *testing.T) {
	fileName := t.TempDir() + "/out.warn.log"
	l := New(fileName, "warn", 0)
	l.Warn("test entry", Pairs{"testKey": "testVal"})
	if _, err := os.Stat(fileName); err != nil {
		t.Error(err)
	}
	l.Close()
}

func TestNewLoggerError_LogFile(t *testing.T) {
	fileName := t.TempDir() + "/out.error.log"
	l := New(fileName, "error", 0)
	l.Error("test entry", Pairs{"testKey": "testVal"})
	if _, err := os.Stat(fileName); err != nil {
		t.Error(err)
	}
	l.Close()
}

func TestNewLoggerFatal_LogFile(t *testing.T) {
	fileName := t.TempDir() + "/out.fatal.log"
	l := New(fileName, "debug", 0)
	var exitCode int
	l.exitFxn = func(code int) { exitCode = code }
	l.Fatal(-1, "test entry", Pairs{"testKey": "testVal"})
	if exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	if _, err := os.Stat(fileName); err != nil {
		t.Error(err)
	}
	l.Close()
}

func TestDefaultLogger(t *testing.T) {
	fileName := t.TempDir() + "/out.default.log"
	Init(fileName, "info", 0)
	defer func() {
		Close()
		Init("", "info", 0)
	}()

	Info("test entry", Pairs{"testKey": "testVal"})
	Warn("test entry", Pairs{"testKey": "testVal"})
	Error("test entry", Pairs{"testKey": "testVal"})
	Debug("suppressed at info", nil)
	if _, err := os.Stat(fileName); err != nil {
		t.Error(err)
	}
}
