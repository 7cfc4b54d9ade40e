/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/hyperledger/fabric-ca-enroll/pkg/common/providers/core"
	"github.com/hyperledger/fabric-ca-enroll/pkg/util/pathvar"
)

// defConfigBackend is the viper backed configuration. Environment
// variables override single keys and also the leaves of whole sections,
// so FABRIC_ENROLL_ENROLLMENT_ADMINSECRET reaches the enrollment section
// without the secret being written to the file.
type defConfigBackend struct {
	configViper *viper.Viper
	opts        options
}

// Lookup gets the config item value by Key
func (c *defConfigBackend) Lookup(key string, opts ...core.LookupOption) (interface{}, bool) {
	lookupOpts := &core.LookupOpts{}
	for _, option := range opts {
		option(lookupOpts)
	}
	if lookupOpts.UnmarshalType != nil {
		if err := c.configViper.UnmarshalKey(key, lookupOpts.UnmarshalType); err != nil {
			logger.Debugf("Failed to unmarshal config key %s: %s", key, err)
			return nil, false
		}
		return lookupOpts.UnmarshalType, true
	}

	value := c.configViper.Get(key)
	section, isSection := value.(map[string]interface{})
	if value != nil && !isSection {
		return value, true
	}

	overrides := c.envOverrides(key)
	if len(overrides) == 0 {
		if value == nil {
			return nil, false
		}
		return value, true
	}
	merged := copySection(section)
	for path, v := range overrides {
		setLeaf(merged, path, v)
	}
	return merged, true
}

// envOverrides returns the environment values below the section key,
// keyed by their lower case path relative to it
func (c *defConfigBackend) envOverrides(key string) map[string]string {
	prefix := strings.ToUpper(strings.ReplaceAll(key, ".", "_")) + "_"
	if c.opts.envPrefix != "" {
		prefix = strings.ToUpper(c.opts.envPrefix) + "_" + prefix
	}

	var overrides map[string]string
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(strings.ToUpper(name), prefix) {
			continue
		}
		path := strings.ToLower(name[len(prefix):])
		if path == "" {
			continue
		}
		if overrides == nil {
			overrides = make(map[string]string)
		}
		overrides[path] = value
	}
	return overrides
}

// load Default config
func (c *defConfigBackend) loadTemplateConfig() error {
	templatePath := c.opts.templatePath
	if templatePath == "" {
		return nil
	}

	c.configViper.AddConfigPath(pathvar.Subst(templatePath))
	if err := c.configViper.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "loading template config from %s failed", templatePath)
	}
	return nil
}

func copySection(section map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(section))
	for k, v := range section {
		if sub, ok := v.(map[string]interface{}); ok {
			v = copySection(sub)
		}
		out[k] = v
	}
	return out
}

// setLeaf sets path, split on underscores, in section. A path that matches
// an existing key as a whole is set directly.
func setLeaf(section map[string]interface{}, path string, value string) {
	if _, ok := section[path]; ok {
		section[path] = value
		return
	}
	head, rest, nested := strings.Cut(path, "_")
	if !nested {
		section[path] = value
		return
	}
	sub, ok := section[head].(map[string]interface{})
	if !ok {
		sub = make(map[string]interface{})
		section[head] = sub
	}
	setLeaf(sub, rest, value)
}
