/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"strings"

	"github.com/pkg/errors"
)

// Level defines all available log levels for log messages.
type Level int

// Log levels.
const (
	CRITICAL Level = iota
	ERROR
	WARNING
	INFO
	DEBUG
)

var levelNames = []string{
	"CRITICAL",
	"ERROR",
	"WARNING",
	"INFO",
	"DEBUG",
}

// String returns the string representation of a logging level.
func (l Level) String() string {
	if l < CRITICAL || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel returns the log level from a string representation.
func ParseLevel(level string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(name, level) {
			return Level(i), nil
		}
	}
	// common aliases
	switch strings.ToUpper(level) {
	case "WARN":
		return WARNING, nil
	case "FATAL", "PANIC":
		return CRITICAL, nil
	}
	return ERROR, errors.Errorf("logger: invalid log level [%s]", level)
}

//Logger - Standard logger interface
type Logger interface {
	Fatal(v ...interface{})

	Fatalf(format string, v ...interface{})

	Debug(args ...interface{})

	Debugf(format string, args ...interface{})

	Info(args ...interface{})

	Infof(format string, args ...interface{})

	Warn(args ...interface{})

	Warnf(format string, args ...interface{})

	Error(args ...interface{})

	Errorf(format string, args ...interface{})
}

// LoggerProvider is a factory for module loggers
type LoggerProvider interface {
	GetLogger(module string) Logger
}

// Leveler is implemented by providers that manage per-module levels
type Leveler interface {
	SetLevel(module string, level Level)
	GetLevel(module string) Level
}
