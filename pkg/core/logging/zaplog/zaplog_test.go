/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package zaplog

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyperledger/fabric-ca-enroll/pkg/core/logging/api"
)

func TestModuleLevels(t *testing.T) {
	var buf bytes.Buffer
	p := New(WithOutput(&buf), WithDefaultLevel(api.WARNING))

	a := p.GetLogger("a")
	b := p.GetLogger("b")

	a.Info("a-info")
	b.Info("b-info")
	assert.Empty(t, buf.String())

	p.SetLevel("b", api.DEBUG)
	assert.Equal(t, api.DEBUG, p.GetLevel("b"))
	assert.Equal(t, api.WARNING, p.GetLevel("a"))

	b.Debug("b-debug")
	a.Debug("a-debug")
	assert.Contains(t, buf.String(), "b-debug")
	assert.NotContains(t, buf.String(), "a-debug")
}

func TestLevelRoundTrip(t *testing.T) {
	for _, level := range []api.Level{api.CRITICAL, api.ERROR, api.WARNING, api.INFO, api.DEBUG} {
		assert.Equal(t, level, fromZapLevel(toZapLevel(level)), level.String())
	}
}
