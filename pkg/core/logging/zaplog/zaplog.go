/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package zaplog is the default logger provider, backed by go.uber.org/zap.
// Each module gets its own atomic level so levels can be changed after
// loggers have been handed out.
package zaplog

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hyperledger/fabric-ca-enroll/pkg/core/logging/api"
)

const (
	// ConsoleEncoding writes human readable lines
	ConsoleEncoding = "console"
	// JSONEncoding writes one JSON object per line
	JSONEncoding = "json"
)

// Provider creates zap backed module loggers
type Provider struct {
	encoder zapcore.Encoder
	out     zapcore.WriteSyncer

	mutex        sync.RWMutex
	levels       map[string]zap.AtomicLevel
	defaultLevel api.Level
}

type options struct {
	encoding string
	out      io.Writer
	level    api.Level
}

// Option configures the provider
type Option func(*options)

// WithEncoding selects "console" (default) or "json" output
func WithEncoding(encoding string) Option {
	return func(o *options) {
		o.encoding = encoding
	}
}

// WithOutput redirects log output (default stderr)
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// WithDefaultLevel sets the level used for modules without an explicit level
func WithDefaultLevel(level api.Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// New returns a zap logger provider
func New(opts ...Option) *Provider {
	o := options{
		encoding: ConsoleEncoding,
		out:      os.Stderr,
		level:    api.INFO,
	}
	for _, opt := range opts {
		opt(&o)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.NameKey = "module"

	var encoder zapcore.Encoder
	if o.encoding == JSONEncoding {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	return &Provider{
		encoder:      encoder,
		out:          zapcore.Lock(zapcore.AddSync(o.out)),
		levels:       make(map[string]zap.AtomicLevel),
		defaultLevel: o.level,
	}
}

// GetLogger returns a sugared zap logger named after the module
func (p *Provider) GetLogger(module string) api.Logger {
	core := zapcore.NewCore(p.encoder, p.out, p.atomicLevel(module))
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Named(module).Sugar()
}

// SetLevel changes the level of a module, including loggers already created
func (p *Provider) SetLevel(module string, level api.Level) {
	p.atomicLevel(module).SetLevel(toZapLevel(level))
}

// GetLevel returns the level of a module
func (p *Provider) GetLevel(module string) api.Level {
	return fromZapLevel(p.atomicLevel(module).Level())
}

func (p *Provider) atomicLevel(module string) zap.AtomicLevel {
	p.mutex.RLock()
	lvl, ok := p.levels[module]
	p.mutex.RUnlock()
	if ok {
		return lvl
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()
	if lvl, ok = p.levels[module]; ok {
		return lvl
	}
	lvl = zap.NewAtomicLevelAt(toZapLevel(p.defaultLevel))
	p.levels[module] = lvl
	return lvl
}

func toZapLevel(level api.Level) zapcore.Level {
	switch level {
	case api.CRITICAL:
		return zapcore.DPanicLevel
	case api.ERROR:
		return zapcore.ErrorLevel
	case api.WARNING:
		return zapcore.WarnLevel
	case api.DEBUG:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

func fromZapLevel(level zapcore.Level) api.Level {
	switch {
	case level >= zapcore.DPanicLevel:
		return api.CRITICAL
	case level == zapcore.ErrorLevel:
		return api.ERROR
	case level == zapcore.WarnLevel:
		return api.WARNING
	case level == zapcore.DebugLevel:
		return api.DEBUG
	default:
		return api.INFO
	}
}
