/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package core

// ConfigBackend backend for all config types
type ConfigBackend interface {
	Lookup(key string, opts ...LookupOption) (interface{}, bool)
}

// ConfigProvider provides config backend for SDK config
type ConfigProvider func() ([]ConfigBackend, error)

// LookupOption option to lookup a config value
type LookupOption func(opts *LookupOpts)

// LookupOpts contains options for looking up key in config backend
type LookupOpts struct {
	UnmarshalType interface{}
}

// WithUnmarshalType lookup option for config unmarshalling
func WithUnmarshalType(unmarshalType interface{}) LookupOption {
	return func(opts *LookupOpts) {
		opts.UnmarshalType = unmarshalType
	}
}
