/*
Copyright 2020 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/sha256"
	"io"
	"math/big"
	"sync"

	"github.com/miekg/pkcs11"
	"github.com/pkg/errors"

	"github.com/hyperledger/fabric-ca-enroll/pkg/ca"
	"github.com/hyperledger/fabric-ca-enroll/pkg/util/pathvar"
)

// HSMOptions locate the PKCS#11 token holding HSM identity keys
type HSMOptions struct {
	Lib   string
	Pin   string
	Label string
}

// HSMX509Provider resolves HSM-X.509 identities. The private key is looked
// up in the token by its subject key identifier, the SHA-256 of the
// uncompressed public point.
type HSMX509Provider struct {
	opts HSMOptions

	mutex   sync.Mutex
	module  *pkcs11.Ctx
	session pkcs11.SessionHandle
}

// NewHSMX509Provider returns the HSM-X.509 identity provider. The library
// is loaded on first use.
func NewHSMX509Provider(opts HSMOptions) *HSMX509Provider {
	return &HSMX509Provider{opts: opts}
}

// Type returns HSM-X.509
func (p *HSMX509Provider) Type() string {
	return HSMX509Type
}

// UserContext finds the key of the identity in the token and returns an
// actor signing with it
func (p *HSMX509Provider) UserContext(_ context.Context, identity Identity, label string) (*Actor, error) {
	id, ok := identity.(*Hsmx509Identity)
	if !ok {
		return nil, errors.Errorf("identity [%s] is not an HSM-X.509 identity", label)
	}
	certPEM, err := certificateBytes(id.Certificate())
	if err != nil {
		return nil, errors.WithMessagef(err, "identity [%s]", label)
	}
	pub, err := ecdsaPublicKey(certPEM)
	if err != nil {
		return nil, errors.WithMessagef(err, "identity [%s]", label)
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if err := p.open(); err != nil {
		return nil, err
	}
	keyID, err := ski(pub)
	if err != nil {
		return nil, errors.WithMessagef(err, "identity [%s]", label)
	}
	handle, err := p.findPrivateKey(keyID)
	if err != nil {
		return nil, errors.WithMessagef(err, "identity [%s]", label)
	}
	return NewActor(label, id.MSPID(), certPEM, &hsmSigner{provider: p, handle: handle, pub: pub}), nil
}

func (p *HSMX509Provider) open() error {
	if p.module != nil {
		return nil
	}
	if p.opts.Lib == "" {
		return errors.New("no PKCS#11 library configured for HSM identities")
	}

	lib := pathvar.Subst(p.opts.Lib)
	module := pkcs11.New(lib)
	if module == nil {
		return errors.Errorf("failed to load PKCS#11 library [%s]", lib)
	}
	if err := module.Initialize(); err != nil && !isPKCS11Error(err, pkcs11.CKR_CRYPTOKI_ALREADY_INITIALIZED) {
		module.Destroy()
		return errors.Wrap(err, "failed to initialize PKCS#11 library")
	}

	slot, err := findSlot(module, p.opts.Label)
	if err != nil {
		p.release(module)
		return err
	}
	session, err := module.OpenSession(slot, pkcs11.CKF_SERIAL_SESSION)
	if err != nil {
		p.release(module)
		return errors.Wrap(err, "failed to open PKCS#11 session")
	}
	if err := module.Login(session, pkcs11.CKU_USER, p.opts.Pin); err != nil && !isPKCS11Error(err, pkcs11.CKR_USER_ALREADY_LOGGED_IN) {
		_ = module.CloseSession(session)
		p.release(module)
		return errors.Wrap(err, "PKCS#11 login failed")
	}

	logger.Debugf("Opened PKCS#11 session on slot %d", slot)
	p.module = module
	p.session = session
	return nil
}

func findSlot(module *pkcs11.Ctx, label string) (uint, error) {
	slots, err := module.GetSlotList(true)
	if err != nil {
		return 0, errors.Wrap(err, "failed to list PKCS#11 slots")
	}
	for _, slot := range slots {
		if label == "" {
			return slot, nil
		}
		info, err := module.GetTokenInfo(slot)
		if err != nil {
			continue
		}
		if info.Label == label {
			return slot, nil
		}
	}
	return 0, errors.Errorf("no PKCS#11 token with label [%s]", label)
}

func (p *HSMX509Provider) findPrivateKey(id []byte) (pkcs11.ObjectHandle, error) {
	template := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_PRIVATE_KEY),
		pkcs11.NewAttribute(pkcs11.CKA_ID, id),
	}
	if err := p.module.FindObjectsInit(p.session, template); err != nil {
		return 0, errors.Wrap(err, "failed to search PKCS#11 token")
	}
	objects, _, err := p.module.FindObjects(p.session, 1)
	if finalErr := p.module.FindObjectsFinal(p.session); err == nil {
		err = finalErr
	}
	if err != nil {
		return 0, errors.Wrap(err, "failed to search PKCS#11 token")
	}
	if len(objects) == 0 {
		return 0, errors.New("private key not found in PKCS#11 token")
	}
	return objects[0], nil
}

func (p *HSMX509Provider) sign(handle pkcs11.ObjectHandle, digest []byte) ([]byte, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.module == nil {
		return nil, errors.New("PKCS#11 session is closed")
	}
	mech := []*pkcs11.Mechanism{pkcs11.NewMechanism(pkcs11.CKM_ECDSA, nil)}
	if err := p.module.SignInit(p.session, mech, handle); err != nil {
		return nil, errors.Wrap(err, "PKCS#11 sign init failed")
	}
	sig, err := p.module.Sign(p.session, digest)
	if err != nil {
		return nil, errors.Wrap(err, "PKCS#11 sign failed")
	}
	return sig, nil
}

// Close logs out and unloads the library
func (p *HSMX509Provider) Close() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.module == nil {
		return
	}
	_ = p.module.Logout(p.session)
	_ = p.module.CloseSession(p.session)
	p.release(p.module)
	p.module = nil
}

func (p *HSMX509Provider) release(module *pkcs11.Ctx) {
	_ = module.Finalize()
	module.Destroy()
}

func isPKCS11Error(err error, code uint) bool {
	var e pkcs11.Error
	return errors.As(err, &e) && uint(e) == code
}

// hsmSigner signs with a key held by the token. PKCS#11 returns raw r||s
// signatures, converted to low-S DER here.
type hsmSigner struct {
	provider *HSMX509Provider
	handle   pkcs11.ObjectHandle
	pub      *ecdsa.PublicKey
}

func (s *hsmSigner) Public() crypto.PublicKey {
	return s.pub
}

func (s *hsmSigner) Sign(_ io.Reader, digest []byte, _ crypto.SignerOpts) ([]byte, error) {
	raw, err := s.provider.sign(s.handle, digest)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || len(raw)%2 != 0 {
		return nil, errors.Errorf("invalid PKCS#11 signature length %d", len(raw))
	}
	half := len(raw) / 2
	r := new(big.Int).SetBytes(raw[:half])
	sv := new(big.Int).SetBytes(raw[half:])
	return ca.MarshalECDSASignature(s.pub, r, sv)
}

func ecdsaPublicKey(certPEM []byte) (*ecdsa.PublicKey, error) {
	cert, err := parseCertificate(certPEM)
	if err != nil {
		return nil, err
	}
	pub, ok := cert.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("certificate does not hold an ECDSA public key")
	}
	return pub, nil
}

func ski(pub *ecdsa.PublicKey) ([]byte, error) {
	raw, err := PublicKeyBytes(pub)
	if err != nil {
		return nil, err
	}
	hash := sha256.Sum256(raw)
	return hash[:], nil
}
