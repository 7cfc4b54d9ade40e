/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ca

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hyperledger/fabric-ca-enroll/pkg/common/errors/retry"
	"github.com/hyperledger/fabric-ca-enroll/pkg/common/errors/status"
	"github.com/hyperledger/fabric-ca-enroll/pkg/common/logging"
	"github.com/hyperledger/fabric-ca-enroll/pkg/core/config/endpoint"
)

var logger = logging.NewLogger("enroll/ca")

// Client is a handle to one certificate authority of the network
type Client struct {
	caHostName string
	caName     string
	baseURL    *url.URL
	httpClient *http.Client
	csrHosts   []string
	retry      retry.Opts
}

// NewClient builds a client for the CA registered under caHostName in the
// connection profile. It performs no network traffic.
func NewClient(profile *ConnectionProfile, caHostName string, opts ...Option) (*Client, error) {
	caConfig, ok := profile.CAConfig(caHostName)
	if !ok {
		return nil, status.New(status.ConfigStatus, status.ConfigurationError.ToInt32(),
			"certificate authority '"+caHostName+"' not found in connection profile", nil)
	}

	o := options{timeout: defaultTimeout}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, status.Wrap(err, status.ConfigStatus, status.ConfigurationError, "invalid CA client option")
		}
	}

	baseURL, err := NormalizeURL(caConfig.URL)
	if err != nil {
		return nil, status.Wrap(err, status.ConfigStatus, status.ConfigurationError,
			"invalid URL for certificate authority '"+caHostName+"'")
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient, err = newHTTPClient(caHostName, caConfig, o)
		if err != nil {
			return nil, err
		}
	}

	hosts := o.csrHosts
	if hosts == nil {
		// Default requested hosts are local hostname
		if hostname, _ := os.Hostname(); hostname != "" {
			hosts = []string{hostname}
		}
	}

	logger.Debugf("CA client created for %s at %s (TLS verify: %t)", caHostName, baseURL, caConfig.HTTPOptions.Verify)

	return &Client{
		caHostName: caHostName,
		caName:     caConfig.CAName,
		baseURL:    baseURL,
		httpClient: httpClient,
		csrHosts:   hosts,
		retry:      o.retry,
	}, nil
}

// CAName returns the name of the CA within its server
func (c *Client) CAName() string {
	return c.caName
}

// URL returns the normalized base URL of the CA
func (c *Client) URL() string {
	return c.baseURL.String()
}

func newHTTPClient(caHostName string, caConfig *CAConfig, o options) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if endpoint.IsTLSEnabled(caConfig.URL) {
		tlsConfig, err := newTLSConfig(caHostName, caConfig)
		if err != nil {
			return nil, err
		}
		transport.TLSClientConfig = tlsConfig
	}

	return &http.Client{Transport: transport, Timeout: o.timeout}, nil
}

func newTLSConfig(caHostName string, caConfig *CAConfig) (*tls.Config, error) {
	pool, count, err := caConfig.TLSCACerts.CertPool()
	if err != nil {
		return nil, status.Wrap(err, status.ConfigStatus, status.ConfigurationError,
			"failed to load TLS CA certificates for '"+caHostName+"'")
	}

	verify := caConfig.HTTPOptions.Verify
	if verify && count == 0 {
		return nil, status.New(status.ConfigStatus, status.ConfigurationError.ToInt32(),
			"no TLS CA certificates configured for '"+caHostName+"' and verification is enabled", nil)
	}
	if !verify {
		logger.Warnf("TLS server verification is disabled for certificate authority %s", caHostName)
	}

	//nolint:gosec // verification is a per CA setting
	tlsConfig := &tls.Config{
		RootCAs:            pool,
		InsecureSkipVerify: !verify,
		MinVersion:         tls.VersionTLS12,
	}

	clientCert, err := caConfig.TLSCACerts.ClientCertificate()
	if err != nil {
		return nil, status.Wrap(err, status.ConfigStatus, status.ConfigurationError,
			"failed to load TLS client certificate for '"+caHostName+"'")
	}
	if clientCert != nil {
		tlsConfig.Certificates = []tls.Certificate{*clientCert}
	}
	return tlsConfig, nil
}

// NormalizeURL normalizes a URL (from cfssl)
func NormalizeURL(addr string) (*url.URL, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("URL is empty")
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}
	if u.Opaque != "" {
		u.Host = net.JoinHostPort(u.Scheme, u.Opaque)
		u.Opaque = ""
	} else if u.Path != "" && !strings.Contains(u.Path, ":") && u.Host == "" {
		u.Host = net.JoinHostPort(u.Path, "")
		u.Path = ""
	} else if u.Scheme == "" {
		u.Host = u.Path
		u.Path = ""
	}
	if u.Scheme != "https" {
		u.Scheme = "http"
	}
	_, port, err := net.SplitHostPort(u.Host)
	if err != nil {
		_, port, err = net.SplitHostPort(u.Host + ":")
		if err != nil {
			return nil, err
		}
	}
	if port != "" {
		if _, err = strconv.Atoi(port); err != nil {
			return nil, errors.Errorf("invalid port %q", port)
		}
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u, nil
}
