/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package endpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePem = `-----BEGIN CERTIFICATE-----
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

func TestIsTLSEnabled(t *testing.T) {
	assert.True(t, IsTLSEnabled("https://ca.org1.example.com:7054"))
	assert.True(t, IsTLSEnabled("HTTPS://ca.org1.example.com:7054"))
	assert.False(t, IsTLSEnabled("http://ca.org1.example.com:7054"))
	assert.False(t, IsTLSEnabled("ca.org1.example.com:7054"))
}

func TestTLSConfigBytes(t *testing.T) {
	tlsConfig := TLSConfig{Pem: samplePem}
	require.NoError(t, tlsConfig.LoadBytes())
	assert.Equal(t, []byte(samplePem), tlsConfig.Bytes())

	path := writeTemp(t, "ca.pem", samplePem)
	tlsConfig = TLSConfig{Path: path}
	require.NoError(t, tlsConfig.LoadBytes())
	bytes1 := tlsConfig.Bytes()
	assert.NotEmpty(t, bytes1)

	//even after changing path, it should return previous bytes
	tlsConfig.Path = writeTemp(t, "other.pem", "other")
	assert.Equal(t, bytes1, tlsConfig.Bytes())

	require.NoError(t, tlsConfig.LoadBytes())
	assert.Equal(t, []byte("other"), tlsConfig.Bytes())
}

func TestTLSCert(t *testing.T) {
	tlsConfig := &TLSConfig{Pem: samplePem}
	require.NoError(t, tlsConfig.LoadBytes())

	c, ok, err := tlsConfig.TLSCert()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tlsca.org1.example.com", c.Subject.CommonName)

	// wrong path
	tlsConfig = &TLSConfig{Path: "dummy/path"}
	assert.Error(t, tlsConfig.LoadBytes())
	c, ok, err = tlsConfig.TLSCert()
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, c)

	// wrong pem
	tlsConfig = &TLSConfig{Pem: "wrongcertpem"}
	require.NoError(t, tlsConfig.LoadBytes())
	c, ok, err = tlsConfig.TLSCert()
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, c)
}

func TestCertPool(t *testing.T) {
	path := writeTemp(t, "ca.pem", samplePem)

	cfg := MutualTLSConfig{Pem: []string{samplePem}, Path: path + ", "}
	pool, count, err := cfg.CertPool()
	require.NoError(t, err)
	assert.NotNil(t, pool)
	assert.Equal(t, 2, count)

	cfg = MutualTLSConfig{}
	_, count, err = cfg.CertPool()
	require.NoError(t, err)
	assert.Zero(t, count)

	cfg = MutualTLSConfig{Path: "missing.pem"}
	_, _, err = cfg.CertPool()
	assert.Error(t, err)

	cfg = MutualTLSConfig{Pem: []string{"-----BEGIN CERTIFICATE-----\nAAAA\n-----END CERTIFICATE-----\n"}}
	_, _, err = cfg.CertPool()
	assert.Error(t, err)
}

func TestClientCertificate(t *testing.T) {
	cfg := MutualTLSConfig{}
	cert, err := cfg.ClientCertificate()
	require.NoError(t, err)
	assert.Nil(t, cert)

	cfg.Client.Cert.Pem = samplePem
	cfg.Client.Key.Pem = "not a key"
	_, err = cfg.ClientCertificate()
	assert.Error(t, err)
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}
