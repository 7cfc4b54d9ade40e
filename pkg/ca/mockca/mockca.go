/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package mockca is an in-process Fabric CA server for tests. It signs real
// certificates for the CSRs it receives, checks enrollment secrets, and
// verifies the token of the registrar on register calls.
package mockca

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	cfsslapi "github.com/cloudflare/cfssl/api"
	"github.com/cloudflare/cfssl/config"
	"github.com/cloudflare/cfssl/csr"
	"github.com/cloudflare/cfssl/helpers"
	"github.com/cloudflare/cfssl/initca"
	"github.com/cloudflare/cfssl/signer"
	"github.com/cloudflare/cfssl/signer/local"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/hyperledger/fabric-ca-enroll/pkg/ca"
	"github.com/hyperledger/fabric-ca-enroll/pkg/common/logging"
)

var logger = logging.NewLogger("enroll/ca")

// Error codes returned by the server, as used by Fabric CA
const (
	ErrAuthenticationFailure = 20
	ErrCANotFound            = 19
	ErrBadRequest            = 23
	ErrTokenAuth             = 26
	ErrNotRegistrar          = 41
	ErrAffiliation           = 63
	ErrMaxEnrollments        = 71
	ErrAlreadyRegistered     = 74
)

const (
	// DefaultCAName is the name of the CA unless WithCAName is used
	DefaultCAName = "ca-org1"
	// BootstrapID is the enrollment ID of the bootstrap registrar
	BootstrapID = "admin"
	// BootstrapSecret is the secret of the bootstrap registrar
	BootstrapSecret = "adminpw"
)

// Identity is a registered identity
type Identity struct {
	ID             string
	Secret         string
	Type           string
	Affiliation    string
	Attributes     []ca.Attribute
	MaxEnrollments int
	Enrollments    int
	Registrar      bool
}

type failure struct {
	httpCode int
	code     int
	message  string
}

// Server is a mock Fabric CA
type Server struct {
	mutex        sync.Mutex
	caName       string
	caCert       *x509.Certificate
	caCertPEM    []byte
	signer       signer.Signer
	identities   map[string]*Identity
	affiliations map[string]bool
	failures     map[string][]failure
	calls        map[string]int

	srv *httptest.Server
}

// Option configures the server
type Option func(s *Server)

// WithCAName sets the CA name served
func WithCAName(name string) Option {
	return func(s *Server) {
		s.caName = name
	}
}

// WithAffiliations replaces the known affiliations
func WithAffiliations(affiliations ...string) Option {
	return func(s *Server) {
		s.affiliations = map[string]bool{}
		for _, a := range affiliations {
			s.affiliations[a] = true
		}
	}
}

// WithBootstrapIdentity replaces the secret of the bootstrap registrar
func WithBootstrapIdentity(id, secret string) Option {
	return func(s *Server) {
		delete(s.identities, BootstrapID)
		s.identities[id] = &Identity{ID: id, Secret: secret, Type: "client", Registrar: true}
	}
}

// New creates a CA with a fresh signing key. Call Start or StartTLS to
// serve it.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		caName: DefaultCAName,
		identities: map[string]*Identity{
			BootstrapID: {ID: BootstrapID, Secret: BootstrapSecret, Type: "client", Registrar: true},
		},
		affiliations: map[string]bool{
			"org1": true, "org1.department1": true, "org1.department2": true,
			"org2": true, "org2.department1": true,
		},
		failures: map[string][]failure{},
		calls:    map[string]int{},
	}
	for _, opt := range opts {
		opt(s)
	}

	certPEM, _, keyPEM, err := initca.New(&csr.CertificateRequest{
		CN:    "ca." + s.caName,
		Names: []csr.Name{{O: "Hyperledger", OU: "Fabric"}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create CA key pair")
	}
	caCert, err := helpers.ParseCertificatePEM(certPEM)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse CA certificate")
	}
	caKey, err := helpers.ParsePrivateKeyPEM(keyPEM)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse CA key")
	}

	policy := &config.Signing{Default: config.DefaultConfig()}
	s.signer, err = local.NewSigner(caKey, caCert, signer.DefaultSigAlgo(caKey), policy)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create signer")
	}
	s.caCert = caCert
	s.caCertPEM = certPEM

	return s, nil
}

// Handler returns the HTTP handler of the CA API
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/enroll", s.enroll)
		r.Post("/register", s.register)
	})
	return r
}

// Start serves the CA over plain HTTP
func (s *Server) Start() {
	s.srv = httptest.NewServer(s.Handler())
	logger.Debugf("Mock CA started on %s", s.srv.URL)
}

// StartTLS serves the CA over HTTPS with a self signed server certificate
func (s *Server) StartTLS() {
	s.srv = httptest.NewTLSServer(s.Handler())
	logger.Debugf("Mock CA started on %s", s.srv.URL)
}

// Close stops the server
func (s *Server) Close() {
	if s.srv != nil {
		s.srv.Close()
	}
}

// URL returns the base URL of the running server
func (s *Server) URL() string {
	return s.srv.URL
}

// TLSCertPEM returns the server TLS certificate, for use as trust root
func (s *Server) TLSCertPEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: s.srv.Certificate().Raw})
}

// CACertPEM returns the certificate of the issuing CA
func (s *Server) CACertPEM() []byte {
	return s.caCertPEM
}

// CAName returns the CA name
func (s *Server) CAName() string {
	return s.caName
}

// Profile returns a connection profile with a single CA entry named host
func (s *Server) Profile(host string) *ca.ConnectionProfile {
	cfg := ca.CAConfig{URL: s.URL(), CAName: s.caName, HTTPOptions: ca.HTTPOptions{Verify: true}}
	if strings.HasPrefix(s.URL(), "https://") {
		cfg.TLSCACerts.Pem = []string{string(s.TLSCertPEM())}
	}
	return &ca.ConnectionProfile{
		Organizations: map[string]ca.OrganizationConfig{
			"org1": {MSPID: "Org1MSP", CertificateAuthorities: []string{host}},
		},
		CertificateAuthorities: map[string]ca.CAConfig{host: cfg},
	}
}

// FailNext makes the next call to the endpoint ("enroll" or "register")
// fail with the given status and Fabric CA error code
func (s *Server) FailNext(endpoint string, httpCode, code int, message string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.failures[endpoint] = append(s.failures[endpoint], failure{httpCode: httpCode, code: code, message: message})
}

// Calls returns the number of requests received by the endpoint
func (s *Server) Calls(endpoint string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.calls[endpoint]
}

// Identity returns a copy of the registered identity
func (s *Server) Identity(id string) (Identity, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	i, ok := s.identities[id]
	if !ok {
		return Identity{}, false
	}
	return *i, true
}

// AddIdentity registers an identity directly
func (s *Server) AddIdentity(identity Identity) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	i := identity
	s.identities[identity.ID] = &i
}

// begin counts the call and returns an injected failure, if any
func (s *Server) begin(endpoint string) *failure {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.calls[endpoint]++
	pending := s.failures[endpoint]
	if len(pending) == 0 {
		return nil
	}
	f := pending[0]
	s.failures[endpoint] = pending[1:]
	return &f
}

func (s *Server) enroll(w http.ResponseWriter, req *http.Request) {
	if f := s.begin("enroll"); f != nil {
		sendError(w, f.httpCode, f.code, f.message)
		return
	}

	id, secret, ok := req.BasicAuth()
	if !ok {
		sendError(w, http.StatusUnauthorized, ErrAuthenticationFailure, "Authentication failure")
		return
	}

	var reqNet ca.EnrollmentRequestNet
	if err := json.NewDecoder(req.Body).Decode(&reqNet); err != nil {
		sendError(w, http.StatusBadRequest, ErrBadRequest, "Invalid request body")
		return
	}
	if reqNet.CAName != "" && reqNet.CAName != s.caName {
		sendError(w, http.StatusBadRequest, ErrCANotFound, "CA '"+reqNet.CAName+"' does not exist")
		return
	}

	s.mutex.Lock()
	identity, ok := s.identities[id]
	if !ok || identity.Secret != secret {
		s.mutex.Unlock()
		sendError(w, http.StatusUnauthorized, ErrAuthenticationFailure, "Authentication failure")
		return
	}
	if identity.MaxEnrollments > 0 && identity.Enrollments >= identity.MaxEnrollments {
		s.mutex.Unlock()
		sendError(w, http.StatusUnauthorized, ErrMaxEnrollments, "The identity "+id+" has already enrolled the maximum number of times")
		return
	}
	s.mutex.Unlock()

	csrBlock, _ := pem.Decode([]byte(reqNet.Request))
	if csrBlock == nil {
		sendError(w, http.StatusBadRequest, ErrBadRequest, "Invalid certificate request")
		return
	}
	csrTemplate, err := x509.ParseCertificateRequest(csrBlock.Bytes)
	if err != nil || csrTemplate.CheckSignature() != nil {
		sendError(w, http.StatusBadRequest, ErrBadRequest, "Invalid certificate request")
		return
	}
	if csrTemplate.Subject.CommonName != id {
		sendError(w, http.StatusBadRequest, ErrBadRequest, "The CSR subject common name must equal the enrollment ID")
		return
	}

	certPEM, err := s.signer.Sign(reqNet.SignRequest)
	if err != nil {
		sendError(w, http.StatusInternalServerError, ErrBadRequest, "Failed signing: "+err.Error())
		return
	}

	s.mutex.Lock()
	identity.Enrollments++
	s.mutex.Unlock()

	resp := &ca.EnrollmentResponseNet{
		Cert: base64.StdEncoding.EncodeToString(certPEM),
		ServerInfo: ca.ServerInfoResponseNet{
			CAName:  s.caName,
			CAChain: base64.StdEncoding.EncodeToString(s.caCertPEM),
			Version: "1.5.0",
		},
	}
	if err := cfsslapi.SendResponse(w, resp); err != nil {
		logger.Error(err)
	}
}

func (s *Server) register(w http.ResponseWriter, req *http.Request) {
	if f := s.begin("register"); f != nil {
		sendError(w, f.httpCode, f.code, f.message)
		return
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		sendError(w, http.StatusBadRequest, ErrBadRequest, "Failed to read body")
		return
	}

	callerID, err := s.verifyToken(req, body)
	if err != nil {
		sendError(w, http.StatusUnauthorized, ErrTokenAuth, "Authorization failure: "+err.Error())
		return
	}

	var regReq ca.RegistrationRequest
	if err := json.Unmarshal(body, &regReq); err != nil || regReq.Name == "" {
		sendError(w, http.StatusBadRequest, ErrBadRequest, "Invalid registration request")
		return
	}
	if regReq.CAName != "" && regReq.CAName != s.caName {
		sendError(w, http.StatusBadRequest, ErrCANotFound, "CA '"+regReq.CAName+"' does not exist")
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	caller, ok := s.identities[callerID]
	if !ok || !caller.Registrar {
		sendError(w, http.StatusUnauthorized, ErrNotRegistrar, "Caller "+callerID+" is not a registrar")
		return
	}
	if _, exists := s.identities[regReq.Name]; exists {
		sendError(w, http.StatusBadRequest, ErrAlreadyRegistered, "Identity '"+regReq.Name+"' is already registered")
		return
	}

	affiliation := regReq.Affiliation
	if affiliation == "" {
		affiliation = caller.Affiliation
	}
	if affiliation != "" && !s.affiliations[affiliation] {
		sendError(w, http.StatusBadRequest, ErrAffiliation, "Affiliation '"+affiliation+"' does not exist")
		return
	}

	secret := regReq.Secret
	if secret == "" {
		secret = randomSecret()
	}
	s.identities[regReq.Name] = &Identity{
		ID:             regReq.Name,
		Secret:         secret,
		Type:           regReq.Type,
		Affiliation:    affiliation,
		Attributes:     regReq.Attributes,
		MaxEnrollments: regReq.MaxEnrollments,
	}

	if err := cfsslapi.SendResponse(w, &ca.RegistrationResponseNet{Secret: secret}); err != nil {
		logger.Error(err)
	}
}

// verifyToken checks the token authorization header and returns the
// enrollment ID of the caller
func (s *Server) verifyToken(req *http.Request, body []byte) (string, error) {
	parts := strings.Split(req.Header.Get("authorization"), ".")
	if len(parts) != 2 {
		return "", errors.New("invalid token format")
	}
	b64cert, b64sig := parts[0], parts[1]

	certPEM, err := base64.StdEncoding.DecodeString(b64cert)
	if err != nil {
		return "", errors.New("invalid certificate encoding")
	}
	cert, err := helpers.ParseCertificatePEM(certPEM)
	if err != nil {
		return "", errors.New("invalid certificate")
	}
	if err := cert.CheckSignatureFrom(s.caCert); err != nil {
		return "", errors.New("certificate was not issued by this CA")
	}
	pub, ok := cert.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return "", errors.New("unsupported key type")
	}

	sig, err := base64.StdEncoding.DecodeString(b64sig)
	if err != nil {
		return "", errors.New("invalid signature encoding")
	}
	b64uri := base64.StdEncoding.EncodeToString([]byte(req.URL.RequestURI()))
	b64body := base64.StdEncoding.EncodeToString(body)
	payload := req.Method + "." + b64uri + "." + b64body + "." + b64cert
	digest := sha256.Sum256([]byte(payload))
	if !ecdsa.VerifyASN1(pub, digest[:], sig) {
		return "", errors.New("invalid signature")
	}

	return cert.Subject.CommonName, nil
}

func sendError(w http.ResponseWriter, httpCode, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpCode)
	if err := json.NewEncoder(w).Encode(cfsslapi.NewErrorResponse(message, code)); err != nil {
		logger.Error(err)
	}
}

func randomSecret() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
