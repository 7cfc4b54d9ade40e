/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package logging enables setting custom logger implementation.
//
//	Basic Flow:
//	1) Initialize logger provider (optional, zap is used otherwise)
//	2) Create new logger for specific module
//	3) Call log info
package logging

import (
	"sync"

	"github.com/hyperledger/fabric-ca-enroll/pkg/core/logging/api"
	"github.com/hyperledger/fabric-ca-enroll/pkg/core/logging/zaplog"
)

// Logger basic implementation of api.Logger interface
type Logger struct {
	instance api.Logger // access only via Logger.logger()
	module   string
	once     sync.Once
}

// logger factory singleton - access only via loggerProvider()
var (
	loggerProviderInstance api.LoggerProvider
	loggerProviderOnce     sync.Once
	levelMutex             sync.Mutex
	pendingLevels          = map[string]api.Level{}
)

// Level defines all available log levels for log messages.
type Level = api.Level

// Log levels.
const (
	CRITICAL = api.CRITICAL
	ERROR    = api.ERROR
	WARNING  = api.WARNING
	INFO     = api.INFO
	DEBUG    = api.DEBUG
)

const (
	loggerNotInitializedMsg = "Default logger initialized (call logging.Initialize to use a custom logger)"
	loggerModule            = "enroll/common"
)

// NewLogger creates and returns a Logger object based on the module name.
func NewLogger(module string) *Logger {
	// note: the underlying logger instance is lazy initialized on first use
	return &Logger{module: module}
}

func loggerProvider() api.LoggerProvider {
	loggerProviderOnce.Do(func() {
		install(zaplog.New())
		loggerProviderInstance.GetLogger(loggerModule).Debug(loggerNotInitializedMsg)
	})
	return loggerProviderInstance
}

// Initialize sets new logger provider which takes over logging operations.
// It has no effect once the first log output was produced.
func Initialize(l api.LoggerProvider) {
	loggerProviderOnce.Do(func() {
		install(l)
		loggerProviderInstance.GetLogger(loggerModule).Debug("Logger provider initialized")
	})
}

func install(l api.LoggerProvider) {
	loggerProviderInstance = l

	levelMutex.Lock()
	defer levelMutex.Unlock()
	if leveler, ok := l.(api.Leveler); ok {
		for module, level := range pendingLevels {
			leveler.SetLevel(module, level)
		}
	}
}

// SetLevel sets the log level of the given module. Levels set before the
// provider is installed are applied when it is.
func SetLevel(module string, level Level) {
	levelMutex.Lock()
	pendingLevels[module] = level
	levelMutex.Unlock()

	if leveler, ok := loggerProvider().(api.Leveler); ok {
		leveler.SetLevel(module, level)
	}
}

// GetLevel returns the log level of the given module. INFO is reported
// for providers that do not manage levels.
func GetLevel(module string) Level {
	if leveler, ok := loggerProvider().(api.Leveler); ok {
		return leveler.GetLevel(module)
	}
	levelMutex.Lock()
	defer levelMutex.Unlock()
	if level, ok := pendingLevels[module]; ok {
		return level
	}
	return INFO
}

// IsEnabledFor checks if the given log level is enabled for the module
func IsEnabledFor(module string, level Level) bool {
	return level <= GetLevel(module)
}

// LogLevel returns the log level from a string representation.
func LogLevel(level string) (Level, error) {
	return api.ParseLevel(level)
}

// Fatal calls Fatal function of underlying logger
func (l *Logger) Fatal(args ...interface{}) {
	l.logger().Fatal(args...)
}

// Fatalf calls Fatalf function of underlying logger
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.logger().Fatalf(format, args...)
}

// Debug calls Debug function of underlying logger
func (l *Logger) Debug(args ...interface{}) {
	l.logger().Debug(args...)
}

// Debugf calls Debugf function of underlying logger
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logger().Debugf(format, args...)
}

// Info calls Info function of underlying logger
func (l *Logger) Info(args ...interface{}) {
	l.logger().Info(args...)
}

// Infof calls Infof function of underlying logger
func (l *Logger) Infof(format string, args ...interface{}) {
	l.logger().Infof(format, args...)
}

// Warn calls Warn function of underlying logger
func (l *Logger) Warn(args ...interface{}) {
	l.logger().Warn(args...)
}

// Warnf calls Warnf function of underlying logger
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logger().Warnf(format, args...)
}

// Error calls Error function of underlying logger
func (l *Logger) Error(args ...interface{}) {
	l.logger().Error(args...)
}

// Errorf calls Errorf function of underlying logger
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logger().Errorf(format, args...)
}

func (l *Logger) logger() api.Logger {
	l.once.Do(func() {
		l.instance = loggerProvider().GetLogger(l.module)
	})
	return l.instance
}
