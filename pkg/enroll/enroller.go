/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package enroll ensures that the administrator and user identities of an
// organization are enrolled with the Fabric CA and stored in a wallet.
//
// Both workflows are idempotent. An identity already in the wallet is never
// enrolled again, and concurrent calls for the same label are serialized so
// that the CA sees a single registration.
package enroll

//go:generate mockgen -destination=mocks/mockenroll.gen.go -package=mocks . CAClient,IdentityStore
//go:generate mockgen -destination=mocks/mockprovider.gen.go -package=mocks github.com/hyperledger/fabric-ca-enroll/pkg/wallet IdentityProvider

import (
	"context"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperledger/fabric-lib-go/common/metrics/disabled"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/hyperledger/fabric-ca-enroll/pkg/ca"
	"github.com/hyperledger/fabric-ca-enroll/pkg/common/errors/status"
	"github.com/hyperledger/fabric-ca-enroll/pkg/common/logging"
	"github.com/hyperledger/fabric-ca-enroll/pkg/core/logging/api"
	"github.com/hyperledger/fabric-ca-enroll/pkg/util/concurrent/lazycache"
	"github.com/hyperledger/fabric-ca-enroll/pkg/wallet"
)

const (
	tracerName = "github.com/hyperledger/fabric-ca-enroll/pkg/enroll"

	adminWorkflow = "admin"
	userWorkflow  = "user"

	outcomeEnrolled        = "enrolled"
	outcomeAlreadyEnrolled = "already_enrolled"
)

// CAClient is the CA capability used by the workflows
type CAClient interface {
	Enroll(ctx context.Context, req *ca.EnrollmentRequest) (*ca.Enrollment, error)
	Register(ctx context.Context, req *ca.RegistrationRequest, registrar ca.Registrar) (string, error)
}

// IdentityStore is the wallet capability used by the workflows
type IdentityStore interface {
	Get(ctx context.Context, label string) (wallet.Identity, error)
	Insert(ctx context.Context, label string, id wallet.Identity) error
	ProviderRegistry() *wallet.ProviderRegistry
}

// UserRequest describes the user to enroll
type UserRequest struct {
	UserID string
	// Affiliation overrides the configured default affiliation
	Affiliation string
	// Role is registered as a certificate attribute, the client type when empty
	Role string
}

// Enroller runs the enrollment workflows against one CA and one wallet
type Enroller struct {
	cfg     Config
	ca      CAClient
	store   IdentityStore
	logger  api.Logger
	metrics *Metrics
	tracer  trace.Tracer
	policy  *Policy
	locks   *lazycache.Cache[string, *semaphore.Weighted]
}

// Option configures an Enroller
type Option func(e *Enroller) error

// WithLogger replaces the "enroll" module logger
func WithLogger(logger api.Logger) Option {
	return func(e *Enroller) error {
		e.logger = logger
		return nil
	}
}

// WithMetrics records workflow outcomes and durations
func WithMetrics(m *Metrics) Option {
	return func(e *Enroller) error {
		e.metrics = m
		return nil
	}
}

// WithTracerProvider creates spans from the given provider instead of the
// global one
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Enroller) error {
		e.tracer = tp.Tracer(tracerName)
		return nil
	}
}

// WithPolicy sets the admission policy, replacing the configured one
func WithPolicy(expression string) Option {
	return func(e *Enroller) error {
		p, err := NewPolicy(expression)
		if err != nil {
			return err
		}
		e.policy = p
		return nil
	}
}

// New creates an Enroller
func New(cfg *Config, caClient CAClient, store IdentityStore, opts ...Option) (*Enroller, error) {
	if cfg == nil || caClient == nil || store == nil {
		return nil, status.New(status.ConfigStatus, status.ConfigurationError.ToInt32(), "enroller requires a configuration, a CA client and an identity store", nil)
	}
	c := *cfg
	c.setDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	e := &Enroller{
		cfg:     c,
		ca:      caClient,
		store:   store,
		logger:  logging.NewLogger("enroll"),
		metrics: NewMetrics(&disabled.Provider{}),
		tracer:  otel.Tracer(tracerName),
		locks: lazycache.New("enroll-locks", func(string) (*semaphore.Weighted, error) {
			return semaphore.NewWeighted(1), nil
		}),
	}
	if c.Policy != "" {
		p, err := NewPolicy(c.Policy)
		if err != nil {
			return nil, status.Wrap(err, status.ConfigStatus, status.ConfigurationError, "invalid enrollment configuration")
		}
		e.policy = p
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, status.Wrap(err, status.ConfigStatus, status.ConfigurationError, "invalid enroller option")
		}
	}
	return e, nil
}

// AdminLabel returns the wallet label reserved for the administrator
func (e *Enroller) AdminLabel() string {
	return e.cfg.AdminLabel
}

// EnsureAdminEnrolled enrolls the administrator and stores it in the wallet
// unless the wallet already holds it. On failure the wallet is unchanged.
func (e *Enroller) EnsureAdminEnrolled(ctx context.Context) (err error) {
	label := e.cfg.AdminLabel
	ctx, done := e.begin(ctx, adminWorkflow, label)
	outcome := ""
	defer func() { done(outcome, err) }()

	release, err := e.lock(ctx, label)
	if err != nil {
		return err
	}
	defer release()

	exists, err := e.exists(ctx, "enroll admin", label)
	if err != nil {
		return err
	}
	if exists {
		e.logger.Infof("An identity for the admin user %s already exists in the wallet", label)
		outcome = outcomeAlreadyEnrolled
		return nil
	}

	if e.cfg.AdminSecret == "" {
		return e.fail(status.New(status.ConfigStatus, status.ConfigurationError.ToInt32(),
			"enroll admin ["+label+"]: no bootstrap secret configured", nil))
	}

	enrollment, err := e.ca.Enroll(ctx, &ca.EnrollmentRequest{EnrollmentID: e.cfg.AdminID, Secret: e.cfg.AdminSecret})
	if err != nil {
		return e.fail(status.Wrap(err, status.ClientStatus, status.EnrollmentFailed, "enroll admin ["+label+"]"))
	}

	written, err := e.insert(ctx, "enroll admin", label, enrollment)
	if err != nil {
		return err
	}
	if !written {
		// another process stored the admin while the CA was enrolling
		e.logger.Infof("An identity for the admin user %s was stored concurrently, keeping it", label)
		outcome = outcomeAlreadyEnrolled
		return nil
	}

	e.logger.Infof("Successfully enrolled admin user %s and imported it into the wallet", label)
	outcome = outcomeEnrolled
	return nil
}

// EnsureUserEnrolled registers and enrolls the user with the administrator
// identity from the wallet, stores it and returns the hex encoded public
// key of the new enrollment. An empty key and no error are returned when
// the user is already in the wallet. On failure the wallet is unchanged.
func (e *Enroller) EnsureUserEnrolled(ctx context.Context, req *UserRequest) (pubKey string, err error) {
	if req == nil || strings.TrimSpace(req.UserID) == "" {
		return "", status.New(status.ClientStatus, status.PreconditionFailed.ToInt32(), "enroll user: user ID is required", nil)
	}
	if err := wallet.ValidateLabel(req.UserID); err != nil {
		return "", status.Wrap(err, status.ClientStatus, status.PreconditionFailed, "enroll user")
	}
	if req.Role == "" {
		withRole := *req
		withRole.Role = e.cfg.ClientType
		req = &withRole
	}
	label := req.UserID
	ctx, done := e.begin(ctx, userWorkflow, label)
	outcome := ""
	defer func() { done(outcome, err) }()

	release, err := e.lock(ctx, label)
	if err != nil {
		return "", err
	}
	defer release()

	exists, err := e.exists(ctx, "enroll user", label)
	if err != nil {
		return "", err
	}
	if exists {
		e.logger.Infof("An identity for the user %s already exists in the wallet", label)
		outcome = outcomeAlreadyEnrolled
		return "", nil
	}

	affiliation := req.Affiliation
	if affiliation == "" {
		affiliation = e.cfg.DefaultAffiliation
	}
	if err := e.admit(req, affiliation); err != nil {
		return "", err
	}

	admin, err := e.adminActor(ctx, label)
	if err != nil {
		return "", err
	}

	secret, err := e.ca.Register(ctx, &ca.RegistrationRequest{
		Name:        label,
		Type:        e.cfg.ClientType,
		Affiliation: affiliation,
		Attributes:  []ca.Attribute{{Name: e.cfg.RoleAttribute, Value: req.Role, ECert: true}},
	}, admin)
	if err != nil {
		return "", e.fail(status.Wrap(err, status.ClientStatus, status.RegistrationFailed, "register user ["+label+"]"))
	}

	enrollment, err := e.ca.Enroll(ctx, &ca.EnrollmentRequest{EnrollmentID: label, Secret: secret})
	if err != nil {
		return "", e.fail(status.Wrap(err, status.ClientStatus, status.EnrollmentFailed, "enroll user ["+label+"]"))
	}

	raw, err := wallet.PublicKeyBytes(enrollment.Key.Public())
	if err != nil {
		return "", e.fail(status.Wrap(err, status.ClientStatus, status.EnrollmentFailed, "enroll user ["+label+"]: public key"))
	}

	written, err := e.insert(ctx, "enroll user", label, enrollment)
	if err != nil {
		return "", err
	}
	if !written {
		return "", e.fail(status.Wrap(wallet.ErrAlreadyExists, status.WalletStatus, status.StoreWriteFailed,
			"enroll user ["+label+"]: identity was stored concurrently"))
	}

	e.logger.Infof("Successfully registered and enrolled user %s and imported it into the wallet", label)
	outcome = outcomeEnrolled
	return hex.EncodeToString(raw), nil
}

// begin starts the span and in-flight accounting of a workflow. The
// returned function ends both and records the outcome.
func (e *Enroller) begin(ctx context.Context, workflow, label string) (context.Context, func(outcome string, err error)) {
	opID := uuid.NewString()
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "enroll."+workflow, trace.WithAttributes(
		attribute.String("enroll.label", label),
		attribute.String("enroll.operation_id", opID),
	))
	e.metrics.InFlight.With("workflow", workflow).Add(1)
	e.logger.Debugf("Starting %s enrollment of %s [operation %s]", workflow, label, opID)

	return ctx, func(outcome string, err error) {
		e.metrics.InFlight.With("workflow", workflow).Add(-1)
		e.metrics.Duration.With("workflow", workflow).Observe(time.Since(start).Seconds())
		if err != nil {
			outcome = strings.ToLower(status.CodeOf(err).String())
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		e.metrics.Completed.With("workflow", workflow, "outcome", outcome).Add(1)
		span.SetAttributes(attribute.String("enroll.outcome", outcome))
		span.End()
		e.logger.Debugf("Finished %s enrollment of %s [operation %s]: %s", workflow, label, opID, outcome)
	}
}

// lock serializes workflows on the same label within this process. The
// lock entry is dropped once no caller holds or waits for it.
func (e *Enroller) lock(ctx context.Context, label string) (func(), error) {
	sem, unref, err := e.locks.Acquire(label)
	if err != nil {
		return nil, e.fail(status.Wrap(err, status.ClientStatus, status.Unknown, "lock enrollment of ["+label+"]"))
	}
	if err := sem.Acquire(ctx, 1); err != nil {
		unref()
		return nil, e.fail(status.Wrap(err, status.ClientStatus, status.Timeout, "waiting for enrollment of ["+label+"]"))
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			sem.Release(1)
			unref()
		})
	}, nil
}

func (e *Enroller) exists(ctx context.Context, op, label string) (bool, error) {
	_, err := e.store.Get(ctx, label)
	if err == nil {
		return true, nil
	}
	if wallet.IsNotFound(err) {
		return false, nil
	}
	return false, e.fail(status.Wrap(err, status.WalletStatus, status.StoreReadFailed, op+" ["+label+"]: wallet lookup"))
}

func (e *Enroller) admit(req *UserRequest, affiliation string) error {
	if e.policy == nil {
		return nil
	}
	allowed, err := e.policy.Allow(req, affiliation)
	if err != nil {
		return e.fail(status.Wrap(err, status.ClientStatus, status.PreconditionFailed, "enroll user ["+req.UserID+"]"))
	}
	if !allowed {
		return e.fail(status.New(status.ClientStatus, status.PreconditionFailed.ToInt32(),
			"enroll user ["+req.UserID+"]: rejected by enrollment policy ["+e.policy.String()+"]", nil))
	}
	return nil
}

// adminActor resolves the stored administrator into a registrar
func (e *Enroller) adminActor(ctx context.Context, label string) (*wallet.Actor, error) {
	adminLabel := e.cfg.AdminLabel
	admin, err := e.store.Get(ctx, adminLabel)
	if err != nil {
		if wallet.IsNotFound(err) {
			return nil, e.fail(status.New(status.ClientStatus, status.PreconditionFailed.ToInt32(),
				"enroll user ["+label+"]: an identity for the admin user ["+adminLabel+"] does not exist in the wallet, enroll the admin first", nil))
		}
		return nil, e.fail(status.Wrap(err, status.WalletStatus, status.StoreReadFailed, "enroll user ["+label+"]: admin lookup"))
	}

	provider, err := e.store.ProviderRegistry().Provider(admin.Type())
	if err != nil {
		return nil, e.fail(status.Wrap(err, status.WalletStatus, status.ProviderResolutionFailed, "enroll user ["+label+"]: admin identity"))
	}
	actor, err := provider.UserContext(ctx, admin, adminLabel)
	if err != nil {
		return nil, e.fail(status.Wrap(err, status.WalletStatus, status.ProviderResolutionFailed, "enroll user ["+label+"]: admin user context"))
	}
	return actor, nil
}

// insert stores the enrollment as an X.509 identity. It reports false when
// the label was taken by another writer, leaving that identity untouched.
func (e *Enroller) insert(ctx context.Context, op, label string, enrollment *ca.Enrollment) (bool, error) {
	keyPEM, err := wallet.EncodePrivateKeyPEM(enrollment.Key)
	if err != nil {
		return false, e.fail(status.Wrap(err, status.ClientStatus, status.EnrollmentFailed, op+" ["+label+"]: private key"))
	}
	id := wallet.NewX509Identity(e.cfg.MSPID, string(enrollment.Certificate), string(keyPEM))

	if err := e.store.Insert(ctx, label, id); err != nil {
		if wallet.IsAlreadyExists(err) {
			return false, nil
		}
		return false, e.fail(status.Wrap(err, status.WalletStatus, status.StoreWriteFailed, op+" ["+label+"]: wallet write"))
	}
	return true, nil
}

func (e *Enroller) fail(err *status.Status) error {
	e.logger.Errorf("%s", err)
	return errors.WithStack(err)
}
