/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ca

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	cfsslapi "github.com/cloudflare/cfssl/api"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/hyperledger/fabric-ca-enroll/pkg/common/errors/retry"
	"github.com/hyperledger/fabric-ca-enroll/pkg/common/errors/status"
)

const apiPrefix = "/api/v1/"

// Enroll requests a certificate for the identity. A new key pair is
// generated for every call and returned with the certificate.
func (c *Client) Enroll(ctx context.Context, req *EnrollmentRequest) (*Enrollment, error) {
	if req == nil || req.EnrollmentID == "" {
		return nil, status.New(status.ClientStatus, status.EnrollmentFailed.ToInt32(), "enrollment ID is required", nil)
	}
	if req.Secret == "" {
		return nil, status.New(status.ClientStatus, status.EnrollmentFailed.ToInt32(),
			"enrollment secret is required for "+req.EnrollmentID, nil)
	}
	logger.Debugf("Enrolling %s with CA %s", req.EnrollmentID, c.caHostName)

	csrPEM, key, err := c.generateCSR(req)
	if err != nil {
		return nil, errors.WithMessage(err, "failure generating CSR")
	}

	reqNet := &EnrollmentRequestNet{
		CAName:   c.caName,
		AttrReqs: req.AttrReqs,
	}
	reqNet.Request = string(csrPEM)
	reqNet.Hosts = c.csrHosts
	if req.CSR != nil && req.CSR.Hosts != nil {
		reqNet.Hosts = req.CSR.Hosts
	}
	reqNet.Profile = req.Profile
	reqNet.Label = req.Label

	body, err := json.Marshal(reqNet)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal enrollment request")
	}

	// Send the CSR to the fabric-ca server with basic auth header
	var result EnrollmentResponseNet
	err = c.invoke(ctx, func() error {
		post, err := c.newPost(ctx, "enroll", body)
		if err != nil {
			return err
		}
		post.SetBasicAuth(req.EnrollmentID, req.Secret)
		return c.sendReq(ctx, post, &result)
	})
	if err != nil {
		return nil, err
	}

	cert, err := base64.StdEncoding.DecodeString(result.Cert)
	if err != nil || len(cert) == 0 {
		return nil, errors.New("invalid response format from server: certificate is not valid base64")
	}
	chain, err := base64.StdEncoding.DecodeString(result.ServerInfo.CAChain)
	if err != nil {
		return nil, errors.New("invalid response format from server: CA chain is not valid base64")
	}

	logger.Debugf("Enrollment of %s completed", req.EnrollmentID)
	return &Enrollment{
		Certificate: cert,
		Key:         key,
		CAName:      result.ServerInfo.CAName,
		CAChain:     chain,
	}, nil
}

// Register registers a new identity on behalf of the registrar and
// returns the enrollment secret
func (c *Client) Register(ctx context.Context, req *RegistrationRequest, registrar Registrar) (string, error) {
	if req == nil || req.Name == "" {
		return "", status.New(status.ClientStatus, status.RegistrationFailed.ToInt32(), "registration name is required", nil)
	}
	if registrar == nil || len(registrar.EnrollmentCertificate()) == 0 || registrar.PrivateKey() == nil {
		return "", status.New(status.ClientStatus, status.RegistrationFailed.ToInt32(),
			"registrar identity is required to register "+req.Name, nil)
	}
	logger.Debugf("Registering %s with registrar %s", req.Name, registrar.EnrollmentID())

	netReq := *req
	if netReq.CAName == "" {
		netReq.CAName = c.caName
	}
	body, err := json.Marshal(&netReq)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal registration request")
	}

	var result RegistrationResponseNet
	err = c.invoke(ctx, func() error {
		post, err := c.newPost(ctx, "register", body)
		if err != nil {
			return err
		}
		token, err := createToken(registrar.PrivateKey(), registrar.EnrollmentCertificate(), post.Method, post.URL.RequestURI(), body)
		if err != nil {
			return errors.WithMessage(err, "failed to add token authorization header")
		}
		post.Header.Set("authorization", token)
		return c.sendReq(ctx, post, &result)
	})
	if err != nil {
		return "", err
	}
	if result.Secret == "" {
		return "", errors.New("invalid response format from server: secret is empty")
	}

	logger.Debugf("The register request for %s completed successfully", req.Name)
	return result.Secret, nil
}

// invoke runs the request with the retry options of the client
func (c *Client) invoke(ctx context.Context, send func() error) error {
	_, err := retry.NewInvoker(retry.New(c.retry)).Invoke(ctx, func() (interface{}, error) {
		return nil, send()
	})
	return err
}

func (c *Client) newPost(ctx context.Context, endpoint string, body []byte) (*http.Request, error) {
	u := *c.baseURL
	u.Path += apiPrefix + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "failed posting to %s", u.String())
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// sendReq sends the request and decodes the result of the cfssl response
// envelope into result. Request bodies are never logged: they carry
// secrets and CSRs.
func (c *Client) sendReq(ctx context.Context, req *http.Request, result interface{}) error {
	logger.Debugf("Sending request %s %s", req.Method, req.URL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return status.Wrap(ctxErr, status.ClientStatus, status.Timeout, req.Method+" "+req.URL.String())
		}
		return status.Wrap(err, status.HTTPTransportStatus, status.ConnectionFailed, req.Method+" "+req.URL.String()+" failed")
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Debugf("Failed to close the response body: %s", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return status.Wrap(err, status.HTTPTransportStatus, status.ConnectionFailed, "failed to read response of "+req.URL.String())
	}
	logger.Debugf("Received response %d from %s", resp.StatusCode, req.URL)

	var body *cfsslapi.Response
	if len(respBody) > 0 {
		body = new(cfsslapi.Response)
		if err := json.Unmarshal(respBody, body); err != nil {
			if resp.StatusCode >= 400 {
				return status.New(status.HTTPTransportStatus, int32(resp.StatusCode),
					"server returned HTTP "+resp.Status+" for "+req.URL.String(), nil)
			}
			return errors.Wrapf(err, "failed to parse response from %s", req.URL)
		}
		if len(body.Errors) > 0 {
			codes := make([]int, len(body.Errors))
			messages := make([]string, len(body.Errors))
			for i, e := range body.Errors {
				codes[i] = e.Code
				messages[i] = e.Message
			}
			return status.NewFromCAErrors(resp.StatusCode, codes, messages)
		}
	}
	if resp.StatusCode >= 400 {
		return status.New(status.FabricCAServerStatus, int32(resp.StatusCode),
			"failed with server status code "+resp.Status+" for "+req.URL.String(), nil)
	}
	if body == nil {
		return errors.Errorf("empty response body from %s", req.URL)
	}
	if !body.Success {
		return status.New(status.FabricCAServerStatus, int32(resp.StatusCode),
			"server returned failure for "+req.URL.String(), nil)
	}
	if result != nil {
		return errors.Wrap(mapstructure.Decode(body.Result, result), "invalid response format from server")
	}
	return nil
}
