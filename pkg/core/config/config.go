/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"bytes"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/hyperledger/fabric-ca-enroll/pkg/common/logging"
	"github.com/hyperledger/fabric-ca-enroll/pkg/common/providers/core"
)

var logger = logging.NewLogger("enroll/config")

// LogModules are the logger modules whose level follows client.logging.level
var LogModules = [...]string{"enroll", "enroll/ca", "enroll/wallet", "enroll/common", "enroll/config",
	"enroll/operations", "enroll/cmd"}

type options struct {
	envPrefix    string
	templatePath string
}

const (
	cmdRoot = "FABRIC_ENROLL"
)

// Option configures the package.
type Option func(opts *options) error

// FromReader loads configuration from in.
// configType can be "json" or "yaml".
func FromReader(in io.Reader, configType string, opts ...Option) core.ConfigProvider {
	return func() ([]core.ConfigBackend, error) {
		return initFromReader(in, configType, opts...)
	}
}

// FromFile reads from named config file
func FromFile(name string, opts ...Option) core.ConfigProvider {
	return func() ([]core.ConfigBackend, error) {
		backend, err := newBackend(opts...)
		if err != nil {
			return nil, err
		}

		if name == "" {
			return nil, errors.New("filename is required")
		}

		backend.configViper.SetConfigFile(name)

		// If a config file is found, read it in.
		err = backend.configViper.MergeInConfig()
		if err != nil {
			return nil, errors.Wrapf(err, "loading config file failed: %s", name)
		}

		if err := setLogLevel(backend); err != nil {
			return nil, err
		}

		return []core.ConfigBackend{backend}, nil
	}
}

// FromRaw will initialize the configs from a byte array
func FromRaw(configBytes []byte, configType string, opts ...Option) core.ConfigProvider {
	return func() ([]core.ConfigBackend, error) {
		buf := bytes.NewBuffer(configBytes)
		return initFromReader(buf, configType, opts...)
	}
}

func initFromReader(in io.Reader, configType string, opts ...Option) ([]core.ConfigBackend, error) {
	backend, err := newBackend(opts...)
	if err != nil {
		return nil, err
	}

	if configType == "" {
		return nil, errors.New("empty config type")
	}

	// read config from bytes array, but must set ConfigType
	// for viper to properly unmarshal the bytes array
	backend.configViper.SetConfigType(configType)
	err = backend.configViper.MergeConfig(in)
	if err != nil {
		return nil, errors.Wrap(err, "reading config failed")
	}
	if err := setLogLevel(backend); err != nil {
		return nil, err
	}

	return []core.ConfigBackend{backend}, nil
}

// WithEnvPrefix defines the prefix for environment variable overrides.
// See viper SetEnvPrefix for more information.
func WithEnvPrefix(prefix string) Option {
	return func(opts *options) error {
		opts.envPrefix = prefix
		return nil
	}
}

// WithTemplatePath loads defaults from the config file found in the given
// directory before the actual configuration is merged on top.
func WithTemplatePath(path string) Option {
	return func(opts *options) error {
		if path == "" {
			return errors.New("template path is empty")
		}
		opts.templatePath = path
		return nil
	}
}

func newBackend(opts ...Option) (*defConfigBackend, error) {
	o := options{
		envPrefix: cmdRoot,
	}

	for _, option := range opts {
		err := option(&o)
		if err != nil {
			return nil, errors.WithMessage(err, "Error in options passed to create new config backend")
		}
	}

	v := newViper(o.envPrefix)

	//default backend for config
	backend := &defConfigBackend{
		configViper: v,
		opts:        o,
	}

	err := backend.loadTemplateConfig()
	if err != nil {
		return nil, err
	}

	return backend, nil
}

func newViper(cmdRootPrefix string) *viper.Viper {
	myViper := viper.New()
	myViper.SetEnvPrefix(cmdRootPrefix)
	myViper.AutomaticEnv()
	replacer := strings.NewReplacer(".", "_")
	myViper.SetEnvKeyReplacer(replacer)
	return myViper
}

// setLogLevel applies client.logging.level to every module, then the
// per-module overrides from client.logging.modules
func setLogLevel(backend core.ConfigBackend) error {
	logLevel := logging.INFO
	if levelString, ok := backend.Lookup("client.logging.level"); ok {
		var err error
		logLevel, err = logging.LogLevel(cast.ToString(levelString))
		if err != nil {
			return errors.WithMessage(err, "invalid client.logging.level")
		}
	}

	for _, logModule := range LogModules {
		logging.SetLevel(logModule, logLevel)
	}

	modules, ok := backend.Lookup("client.logging.modules")
	if !ok {
		return nil
	}
	for module, level := range cast.ToStringMapString(modules) {
		l, err := logging.LogLevel(level)
		if err != nil {
			return errors.WithMessagef(err, "invalid log level for module %s", module)
		}
		logging.SetLevel(module, l)
	}
	return nil
}
