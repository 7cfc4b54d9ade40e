/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ca

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/fabric-ca-enroll/pkg/common/errors/status"
	"github.com/hyperledger/fabric-ca-enroll/pkg/core/config/endpoint"
	"github.com/hyperledger/fabric-ca-enroll/pkg/core/mocks"
)

const tlsCACert = `-----BEGIN CERTIFICATE-----
MIICSTCCAfCgAwIBAgIRAPQIzfkrCZjcpGwVhMSKd0AwCgYIKoZIzj0EAwIwdjEL
MAkGA1UEBhMCVVMxEzARBgNVBAgTCkNhbGlmb3JuaWExFjAUBgNVBAcTDVNhbiBG
cmFuY2lzY28xGTAXBgNVBAoTEG9yZzEuZXhhbXBsZS5jb20xHzAdBgNVBAMTFnRs
c2NhLm9yZzEuZXhhbXBsZS5jb20wHhcNMTcwNzI4MTQyNzIwWhcNMjcwNzI2MTQy
NzIwWjB2MQswCQYDVQQGEwJVUzETMBEGA1UECBMKQ2FsaWZvcm5pYTEWMBQGA1UE
BxMNU2FuIEZyYW5jaXNjbzEZMBcGA1UEChMQb3JnMS5leGFtcGxlLmNvbTEfMB0G
A1UEAxMWdGxzY2Eub3JnMS5leGFtcGxlLmNvbTBZMBMGByqGSM49AgEGCCqGSM49
AwEHA0IABMOiG8UplWTs898zZ99+PhDHPbKjZIDHVG+zQXopw8SqNdX3NAmZUKUU
sJ8JZ3M49Jq4Ms8EHSEwQf0Ifx3ICHujXzBdMA4GA1UdDwEB/wQEAwIBpjAPBgNV
HSUECDAGBgRVHSUAMA8GA1UdEwEB/wQFMAMBAf8wKQYDVR0OBCIEID9qJz7xhZko
V842OVjxCYYQwCjPIY+5e9ORR+8pxVzcMAoGCCqGSM49BAMCA0cAMEQCIGZ+KTfS
eezqv0ml1VeQEmnAEt5sJ2RJA58+LegUYMd6AiAfEe6BKqdY03qFUgEYmtKG+3Dr
O94CDp7l2k7hMQI0zQ==
-----END CERTIFICATE-----
`

func newProfile(cfg CAConfig) *ConnectionProfile {
	return &ConnectionProfile{CertificateAuthorities: map[string]CAConfig{"ca.org1.example.com": cfg}}
}

func TestNewClientUnknownCA(t *testing.T) {
	_, err := NewClient(newProfile(CAConfig{URL: "http://localhost:7054"}), "ca.org2.example.com")
	require.Error(t, err)
	assert.True(t, status.Is(err, status.ConfigurationError))

	_, err = NewClient(nil, "ca.org1.example.com")
	assert.True(t, status.Is(err, status.ConfigurationError))
}

func TestNewClient(t *testing.T) {
	c, err := NewClient(newProfile(CAConfig{URL: "http://localhost:7054", CAName: "ca-org1"}), "CA.org1.example.com",
		WithCSRHosts("app.example.com"), WithTimeout(time.Second))
	require.NoError(t, err)
	assert.Equal(t, "ca-org1", c.CAName())
	assert.Equal(t, "http://localhost:7054", c.URL())
	assert.Equal(t, []string{"app.example.com"}, c.csrHosts)
	assert.Equal(t, time.Second, c.httpClient.Timeout)
}

func TestNewClientTLS(t *testing.T) {
	// verification enabled without trust roots
	_, err := NewClient(newProfile(CAConfig{URL: "https://localhost:7054", HTTPOptions: HTTPOptions{Verify: true}}), "ca.org1.example.com")
	require.Error(t, err)
	assert.True(t, status.Is(err, status.ConfigurationError))

	// verification disabled
	c, err := NewClient(newProfile(CAConfig{URL: "https://localhost:7054"}), "ca.org1.example.com")
	require.NoError(t, err)
	transport := c.httpClient.Transport.(*http.Transport)
	assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)

	// verification enabled with a trust root
	c, err = NewClient(newProfile(CAConfig{
		URL:         "https://localhost:7054",
		TLSCACerts:  endpoint.MutualTLSConfig{Pem: []string{tlsCACert}},
		HTTPOptions: HTTPOptions{Verify: true},
	}), "ca.org1.example.com")
	require.NoError(t, err)
	transport = c.httpClient.Transport.(*http.Transport)
	assert.False(t, transport.TLSClientConfig.InsecureSkipVerify)
	assert.NotNil(t, transport.TLSClientConfig.RootCAs)

	// invalid trust root
	_, err = NewClient(newProfile(CAConfig{
		URL:        "https://localhost:7054",
		TLSCACerts: endpoint.MutualTLSConfig{Path: "missing.pem"},
	}), "ca.org1.example.com")
	assert.True(t, status.Is(err, status.ConfigurationError))
}

func TestNewClientBadOptions(t *testing.T) {
	profile := newProfile(CAConfig{URL: "http://localhost:7054"})

	_, err := NewClient(profile, "ca.org1.example.com", WithTimeout(0))
	assert.True(t, status.Is(err, status.ConfigurationError))

	_, err = NewClient(profile, "ca.org1.example.com", WithHTTPClient(nil))
	assert.True(t, status.Is(err, status.ConfigurationError))

	_, err = NewClient(newProfile(CAConfig{}), "ca.org1.example.com")
	assert.True(t, status.Is(err, status.ConfigurationError))
}

func TestProfileFromBackend(t *testing.T) {
	backend := &mocks.MockConfigBackend{KeyValueMap: map[string]interface{}{
		"certificateAuthorities": map[string]interface{}{
			"ca.org1.example.com": map[string]interface{}{
				"url":        "https://ca.org1.example.com:7054",
				"caName":     "ca-org1",
				"tlsCACerts": map[string]interface{}{"pem": []interface{}{tlsCACert}},
				"registrar":  map[string]interface{}{"enrollId": "admin", "enrollSecret": "adminpw"},
			},
			"ca.org2.example.com": map[string]interface{}{
				"url":         "http://ca.org2.example.com:8054",
				"httpOptions": map[string]interface{}{"verify": "false"},
			},
		},
		"organizations": map[string]interface{}{
			"Org1": map[string]interface{}{
				"mspid":                  "Org1MSP",
				"certificateAuthorities": []interface{}{"ca.org1.example.com"},
			},
		},
	}}

	profile, err := ProfileFromBackend(backend)
	require.NoError(t, err)

	c1, ok := profile.CAConfig("ca.org1.example.com")
	require.True(t, ok)
	assert.Equal(t, "ca-org1", c1.CAName)
	assert.True(t, c1.HTTPOptions.Verify, "verification defaults to enabled")
	assert.Equal(t, "admin", c1.Registrar.EnrollID)
	assert.Len(t, c1.TLSCACerts.Pem, 1)

	c2, ok := profile.CAConfig("ca.org2.example.com")
	require.True(t, ok)
	assert.False(t, c2.HTTPOptions.Verify)

	mspID, err := profile.MSPID("org1")
	require.NoError(t, err)
	assert.Equal(t, "Org1MSP", mspID)
	_, err = profile.MSPID("org9")
	assert.True(t, status.Is(err, status.ConfigurationError))

	host, err := profile.CAHostForOrganization("org1")
	require.NoError(t, err)
	assert.Equal(t, "ca.org1.example.com", host)
	_, err = profile.CAHostForOrganization("org9")
	assert.Error(t, err)
}
