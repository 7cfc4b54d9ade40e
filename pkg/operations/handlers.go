/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operations

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hyperledger/fabric-ca-enroll/pkg/common/errors/status"
	"github.com/hyperledger/fabric-ca-enroll/pkg/enroll"
	"github.com/hyperledger/fabric-ca-enroll/pkg/wallet"
)

const maxRequestBody = 1 << 16

// EnrollRequest is the optional body of POST /v1/identities/{label}
type EnrollRequest struct {
	Affiliation string `json:"affiliation,omitempty"`
	Role        string `json:"role,omitempty"`
}

// EnrollResponse reports the outcome of an enrollment
type EnrollResponse struct {
	Label string `json:"label"`
	// Enrolled is false when the identity was already in the wallet
	Enrolled  bool   `json:"enrolled"`
	PublicKey string `json:"publicKey,omitempty"`
}

// IdentityResponse describes a stored identity. Private keys are never
// returned.
type IdentityResponse struct {
	Label       string `json:"label"`
	MSPID       string `json:"mspId"`
	Type        string `json:"type"`
	Certificate string `json:"certificate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// RequestID correlates the response with server logs
	RequestID string `json:"requestId,omitempty"`
}

func (s *Server) enrollIdentity(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "label")

	var req EnrollRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "failed to read request body")
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	if label == s.enroller.AdminLabel() {
		existed, err := s.store.Exists(ctx, label)
		if err != nil {
			writeStatusError(w, r, status.Wrap(err, status.WalletStatus, status.StoreReadFailed, "read identity ["+label+"]"))
			return
		}
		if err := s.enroller.EnsureAdminEnrolled(ctx); err != nil {
			writeStatusError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, &EnrollResponse{Label: label, Enrolled: !existed})
		return
	}

	pubKey, err := s.enroller.EnsureUserEnrolled(ctx, &enroll.UserRequest{UserID: label, Affiliation: req.Affiliation, Role: req.Role})
	if err != nil {
		writeStatusError(w, r, err)
		return
	}
	code := http.StatusOK
	if pubKey != "" {
		code = http.StatusCreated
	}
	writeJSON(w, code, &EnrollResponse{Label: label, Enrolled: pubKey != "", PublicKey: pubKey})
}

func (s *Server) getIdentity(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "label")
	id, err := s.store.Get(r.Context(), label)
	if err != nil {
		if wallet.IsNotFound(err) {
			writeError(w, r, http.StatusNotFound, "NOT_FOUND", "identity ["+label+"] does not exist")
			return
		}
		writeStatusError(w, r, status.Wrap(err, status.WalletStatus, status.StoreReadFailed, "read identity ["+label+"]"))
		return
	}
	writeJSON(w, http.StatusOK, &IdentityResponse{
		Label:       label,
		MSPID:       id.MSPID(),
		Type:        id.Type(),
		Certificate: id.Certificate(),
	})
}

// httpStatus maps status codes of the workflows to HTTP status codes
func httpStatus(code status.Code) int {
	switch code {
	case status.PreconditionFailed:
		return http.StatusPreconditionFailed
	case status.EnrollmentFailed, status.RegistrationFailed, status.ConnectionFailed:
		return http.StatusBadGateway
	case status.Timeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeStatusError(w http.ResponseWriter, r *http.Request, err error) {
	code := status.CodeOf(err)
	writeError(w, r, httpStatus(code), code.String(), err.Error())
}

func writeError(w http.ResponseWriter, r *http.Request, httpCode int, code, message string) {
	writeJSON(w, httpCode, &errorResponse{Code: code, Message: message, RequestID: middleware.GetReqID(r.Context())})
}

func writeJSON(w http.ResponseWriter, httpCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warnf("Failed to write response: %s", err)
	}
}
