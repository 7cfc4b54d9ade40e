/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"github.com/mitchellh/mapstructure"

	"github.com/hyperledger/fabric-ca-enroll/pkg/common/providers/core"
)

//MockConfigBackend mocks config backend for unit tests
type MockConfigBackend struct {
	//KeyValueMap map to override CustomBackend key-values.
	KeyValueMap map[string]interface{}
}

//Lookup returns or unmarshals value for given key
func (b *MockConfigBackend) Lookup(key string, opts ...core.LookupOption) (interface{}, bool) {
	v, ok := b.KeyValueMap[key]
	if !ok {
		return nil, false
	}

	lookupOpts := &core.LookupOpts{}
	for _, option := range opts {
		option(lookupOpts)
	}
	if lookupOpts.UnmarshalType != nil {
		if err := mapstructure.Decode(v, lookupOpts.UnmarshalType); err != nil {
			return nil, false
		}
		return lookupOpts.UnmarshalType, true
	}
	return v, true
}
