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

// Package logging provides a logfmt event logger for the application,
// writing to the console or to a size-managed log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-stack/stack"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Pairs represents a key=value pair that helps to describe a log event
type Pairs map[string]interface{}

// Logger is an instance logger that writes log events in logfmt
type Logger struct {
	logger  log.Logger
	closer  io.Closer
	level   string
	exitFxn func(code int)
}

var logger = ConsoleLogger("info")

// Init sets the default package logger from the provided file path and level.
// An empty logFile logs to the console.
func Init(logFile, logLevel string, instanceID int) {
	logger = New(logFile, logLevel, instanceID)
}

// Close closes the default package logger
func Close() {
	logger.Close()
}

func mapToArray(event string, detail Pairs) []interface{} {
	a := make([]interface{}, (len(detail)*2)+2)
	var i int

	// Ensure the event description is the first Pair in the output order (after prefixes)
	a[i] = "event"
	a[i+1] = event
	i += 2

	for k, v := range detail {
		a[i] = k
		a[i+1] = v
		i += 2
	}
	return a
}

func newLogger(wr io.Writer, logLevel string) *Logger {
	l := &Logger{exitFxn: os.Exit}

	router := log.NewLogfmtLogger(log.NewSyncWriter(wr))
	router = log.With(router,
		"time", log.DefaultTimestampUTC,
		"app", "gencache",
		"caller", log.Valuer(func() interface{} {
			return pkgCaller{stack.Caller(6)}
		}),
	)

	l.level = strings.ToLower(logLevel)

	switch l.level {
	case "debug", "trace":
		router = level.NewFilter(router, level.AllowDebug())
	case "warn":
		router = level.NewFilter(router, level.AllowWarn())
	case "error":
		router = level.NewFilter(router, level.AllowError())
	default:
		l.level = "info"
		router = level.NewFilter(router, level.AllowInfo())
	}

	l.logger = router
	return l
}

// ConsoleLogger returns a Logger object that prints log events to the console
func ConsoleLogger(logLevel string) *Logger {
	return newLogger(os.Stdout, logLevel)
}

// New returns a Logger for the provided logging file path and level. The
// returned Logger will write to files distinguished from other instances
// by the instanceID.
func New(logFile, logLevel string, instanceID int) *Logger {
	if logFile == "" {
		return ConsoleLogger(logLevel)
	}
	if instanceID > 0 {
		logFile = strings.Replace(logFile, ".log", "."+strconv.Itoa(instanceID)+".log", 1)
	}
	wr := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    256, // megabytes
		MaxBackups: 80,
		MaxAge:     7, // days
		Compress:   true,
	}
	l := newLogger(wr, logLevel)
	l.closer = wr
	return l
}

// Level returns the configured level name of the Logger
func (l *Logger) Level() string {
	return l.level
}

// Debug sends a "DEBUG" event to the Logger
func (l *Logger) Debug(event string, detail Pairs) {
	level.Debug(l.logger).Log(mapToArray(event, detail)...)
}

// Info sends an "INFO" event to the Logger
func (l *Logger) Info(event string, detail Pairs) {
	level.Info(l.logger).Log(mapToArray(event, detail)...)
}

// Warn sends a "WARN" event to the Logger
func (l *Logger) Warn(event string, detail Pairs) {
	level.Warn(l.logger).Log(mapToArray(event, detail)...)
}

// Error sends an "ERROR" event to the Logger
func (l *Logger) Error(event string, detail Pairs) {
	level.Error(l.logger).Log(mapToArray(event, detail)...)
}

// Fatal sends a "FATAL" event to the Logger and exits the process with the
// provided exit code
func (l *Logger) Fatal(code int, event string, detail Pairs) {
	level.Error(l.logger).Log(mapToArray(event, detail)...)
	if code < 0 {
		code = 1
	}
	l.exitFxn(code)
}

// Close closes any opened file handles that were used for logging
func (l *Logger) Close() {
	if l.closer != nil {
		l.closer.Close()
	}
}

// Debug sends a "DEBUG" event to the default Logger
func Debug(event string, detail Pairs) {
	logger.Debug(event, detail)
}

// Info sends an "INFO" event to the default Logger
func Info(event string, detail Pairs) {
	logger.Info(event, detail)
}

// Warn sends a "WARN" event to the default Logger
func Warn(event string, detail Pairs) {
	logger.Warn(event, detail)
}

// Error sends an "ERROR" event to the default Logger
func Error(event string, detail Pairs) {
	logger.Error(event, detail)
}

// Fatal sends a "FATAL" event to the default Logger and exits the process
func Fatal(code int, event string, detail Pairs) {
	logger.Fatal(code, event, detail)
}

// pkgCaller wraps a stack.Call to make the default string output include the
// package path
type pkgCaller struct {
	c stack.Call
}

func (c pkgCaller) String() string {
	return strings.TrimPrefix(fmt.Sprintf("%+v", c.c), "github.com/gencache/gencache/")
}
