/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package operations serves health, metrics and an HTTP front end for the
// enrollment workflows.
package operations

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperledger/fabric-lib-go/healthz"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hyperledger/fabric-ca-enroll/pkg/common/logging"
	"github.com/hyperledger/fabric-ca-enroll/pkg/enroll"
	"github.com/hyperledger/fabric-ca-enroll/pkg/wallet"
)

var logger = logging.NewLogger("enroll/operations")

// Enroller runs the enrollment workflows
type Enroller interface {
	AdminLabel() string
	EnsureAdminEnrolled(ctx context.Context) error
	EnsureUserEnrolled(ctx context.Context, req *enroll.UserRequest) (string, error)
}

// IdentityReader reads stored identities
type IdentityReader interface {
	Get(ctx context.Context, label string) (wallet.Identity, error)
	Exists(ctx context.Context, label string) (bool, error)
}

// Server is the operations HTTP server
type Server struct {
	cfg      Config
	enroller Enroller
	store    IdentityReader
	gatherer prometheus.Gatherer
	health   *healthz.HealthHandler

	mutex    sync.Mutex
	listener net.Listener
	httpSrv  *http.Server
}

// Option configures a Server
type Option func(s *Server)

// WithGatherer exposes the given registry on /metrics instead of the
// default one
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// New creates a server. The wallet is registered as a health checker.
func New(cfg *Config, enroller Enroller, store IdentityReader, opts ...Option) (*Server, error) {
	if cfg == nil || enroller == nil || store == nil {
		return nil, errors.New("operations server requires a configuration, an enroller and an identity store")
	}
	s := &Server{
		cfg:      *cfg,
		enroller: enroller,
		store:    store,
		gatherer: prometheus.DefaultGatherer,
		health:   healthz.NewHealthHandler(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.health.RegisterChecker("wallet", &walletChecker{store: store}); err != nil {
		return nil, errors.Wrap(err, "failed to register wallet health checker")
	}
	return s, nil
}

// RegisterChecker adds a component to /healthz
func (s *Server) RegisterChecker(component string, checker healthz.HealthChecker) error {
	return s.health.RegisterChecker(component, checker)
}

// Handler returns the router of the server
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, requestLogger)

	r.Method(http.MethodGet, "/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Route("/v1/identities", func(r chi.Router) {
		r.Use(bearerAuth(s.cfg.AuthToken))
		r.Post("/{label}", s.enrollIdentity)
		r.Get("/{label}", s.getIdentity)
	})
	return r
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.httpSrv != nil {
		return errors.New("operations server already started")
	}

	listener, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.cfg.ListenAddress)
	}
	s.listener = listener
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func(srv *http.Server) {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Operations server failed: %s", err)
		}
	}(s.httpSrv)

	if s.cfg.AuthToken == "" {
		logger.Warnf("No operations auth token is set, the identity endpoints on %s accept unauthenticated requests", listener.Addr())
	}
	logger.Infof("Operations server listening on %s", listener.Addr())
	return nil
}

// Addr returns the listening address, nil before Start
func (s *Server) Addr() net.Addr {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.mutex.Lock()
	srv := s.httpSrv
	s.httpSrv, s.listener = nil, nil
	s.mutex.Unlock()

	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "operations server shutdown failed")
	}
	logger.Info("Operations server stopped")
	return nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debugf("%s %s %d %s [%s]", r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
	})
}

// bearerAuth rejects requests without "Authorization: Bearer <token>". An
// empty token disables the check.
func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			given, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="fabric-enroll"`)
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "a valid bearer token is required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type walletChecker struct {
	store IdentityReader
}

// HealthCheck fails when the wallet cannot be read
func (c *walletChecker) HealthCheck(ctx context.Context) error {
	if _, err := c.store.Exists(ctx, "healthz"); err != nil {
		return errors.WithMessage(err, "wallet is not readable")
	}
	return nil
}
