/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package lookup reads typed values and whole sections from a chain of
// configuration backends. The first backend holding a key wins.
package lookup

import (
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/hyperledger/fabric-ca-enroll/pkg/common/providers/core"
)

// New returns a lookup over the given backends, searched in order
func New(coreBackends ...core.ConfigBackend) *ConfigLookup {
	return &ConfigLookup{backends: coreBackends}
}

type unmarshalOpts struct {
	hooks []mapstructure.DecodeHookFunc
}

// UnmarshalOption describes a functional parameter unmarshaling
type UnmarshalOption func(o *unmarshalOpts)

// WithUnmarshalHookFunction adds a decode hook that runs after the
// duration and comma separated list hooks
func WithUnmarshalHookFunction(hookFunction mapstructure.DecodeHookFunc) UnmarshalOption {
	return func(o *unmarshalOpts) {
		o.hooks = append(o.hooks, hookFunction)
	}
}

// ConfigLookup performs key lookup and section decoding over backends
type ConfigLookup struct {
	backends []core.ConfigBackend
}

// Lookup returns the raw value of key from the first backend that has it
func (c *ConfigLookup) Lookup(key string) (interface{}, bool) {
	for _, backend := range c.backends {
		if backend == nil {
			continue
		}
		if val, ok := backend.Lookup(key); ok {
			return val, true
		}
	}
	return nil, false
}

// IsSet reports whether any backend holds key
func (c *ConfigLookup) IsSet(key string) bool {
	_, ok := c.Lookup(key)
	return ok
}

// GetBool returns the bool value of key, false when missing or invalid
func (c *ConfigLookup) GetBool(key string) bool {
	return get(c, key, false, cast.ToBoolE)
}

// GetString returns the string value of key
func (c *ConfigLookup) GetString(key string) string {
	return get(c, key, "", cast.ToStringE)
}

// GetStringOr returns the string value of key or def when it is missing or blank
func (c *ConfigLookup) GetStringOr(key, def string) string {
	if v := strings.TrimSpace(c.GetString(key)); v != "" {
		return v
	}
	return def
}

// GetLowerString returns the lower case string value of key
func (c *ConfigLookup) GetLowerString(key string) string {
	return strings.ToLower(c.GetString(key))
}

// GetInt returns the int value of key, 0 when missing or invalid
func (c *ConfigLookup) GetInt(key string) int {
	return get(c, key, 0, cast.ToIntE)
}

// GetDuration returns the duration of key. A bare number is taken as
// nanoseconds.
func (c *ConfigLookup) GetDuration(key string) time.Duration {
	return get(c, key, 0, cast.ToDurationE)
}

// GetDurationOr returns the duration of key or def when it is missing,
// invalid or not positive
func (c *ConfigLookup) GetDurationOr(key string, def time.Duration) time.Duration {
	if d := c.GetDuration(key); d > 0 {
		return d
	}
	return def
}

// GetStringSlice returns the list value of key. A comma separated string,
// as set from the environment, is split.
func (c *ConfigLookup) GetStringSlice(key string) []string {
	value, ok := c.Lookup(key)
	if !ok {
		return nil
	}
	if s, ok := value.(string); ok {
		return splitList(s)
	}
	return cast.ToStringSlice(value)
}

// UnmarshalKey decodes the section under key into rawVal. A missing
// section leaves rawVal untouched.
func (c *ConfigLookup) UnmarshalKey(key string, rawVal interface{}, opts ...UnmarshalOption) error {
	value, ok := c.Lookup(key)
	if !ok {
		return nil
	}

	unmarshalOptions := unmarshalOpts{}
	for _, param := range opts {
		param(&unmarshalOptions)
	}

	hooks := []mapstructure.DecodeHookFunc{
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(append(hooks, unmarshalOptions.hooks...)...),
		Result:           rawVal,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to create decoder for '%s'", key)
	}
	return errors.Wrapf(decoder.Decode(value), "invalid configuration for '%s'", key)
}

func get[T any](c *ConfigLookup, key string, def T, conv func(interface{}) (T, error)) T {
	value, ok := c.Lookup(key)
	if !ok {
		return def
	}
	v, err := conv(value)
	if err != nil {
		return def
	}
	return v
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
