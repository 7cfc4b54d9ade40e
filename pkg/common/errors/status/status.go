/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package status defines metadata for errors returned by the enrollment
// components. Callers may use it to decide how to handle certain error
// conditions without matching on message text.
// Status codes are divided by group, where each group represents the
// component that produced the failure.
package status

import (
	"errors"
	"fmt"

	"github.com/hyperledger/fabric-ca-enroll/pkg/common/errors/multi"
)

// Status provides additional information about an unsuccessful enrollment
// operation. Essentially, this object contains metadata about an error.
type Status struct {
	// Group status group
	Group Group
	// Code status code
	Code int32
	// Message status message
	Message string
	// Details any additional status details
	Details []interface{}

	cause error
}

// Group of status to help users infer status codes from various components
type Group int32

const (
	// UnknownStatus unknown status group
	UnknownStatus Group = iota

	// HTTPTransportStatus is the status associated with requests made over HTTP
	// connections
	HTTPTransportStatus

	// FabricCAServerStatus status returned by the Fabric CA server
	FabricCAServerStatus

	// ClientStatus is the status inferred by the enrollment client itself
	ClientStatus

	// WalletStatus status returned by an identity store
	WalletStatus

	// ConfigStatus status produced while resolving configuration
	ConfigStatus
)

// GroupName maps the groups in this packages to human-readable strings
var GroupName = map[int32]string{
	0: "Unknown",
	1: "HTTP Transport Status",
	2: "Fabric CA Server Status",
	3: "Client Status",
	4: "Wallet Status",
	5: "Config Status",
}

func (g Group) String() string {
	if s, ok := GroupName[int32(g)]; ok {
		return s
	}
	return GroupName[int32(UnknownStatus)]
}

// FromError returns a Status representing err if available,
// otherwise it returns nil, false.
func FromError(err error) (s *Status, ok bool) {
	if err == nil {
		return &Status{Code: int32(OK)}, true
	}
	if errors.As(err, &s) {
		return s, true
	}
	var m multi.Errors
	if errors.As(err, &m) {
		// Return all of the errors in the details
		var details []interface{}
		for _, err := range m {
			details = append(details, err)
		}
		return New(ClientStatus, MultipleErrors.ToInt32(), m.Error(), details), true
	}

	return nil, false
}

// CodeOf returns the code of the Status carried by err, or Unknown
func CodeOf(err error) Code {
	if s, ok := FromError(err); ok {
		return ToSDKStatusCode(s.Code)
	}
	return Unknown
}

// Is reports whether err carries a Status with the given code
func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	s, ok := FromError(err)
	return ok && s.Code == code.ToInt32()
}

func (s *Status) Error() string {
	return fmt.Sprintf("%s Code: (%d) %s. Description: %s", s.Group.String(), s.Code, s.codeString(), s.Message)
}

// Unwrap returns the underlying cause, if any
func (s *Status) Unwrap() error {
	return s.cause
}

func (s *Status) codeString() string {
	switch s.Group {
	case HTTPTransportStatus, FabricCAServerStatus:
		if s.Code >= 100 && s.Code < 600 {
			return fmt.Sprintf("HTTP_%d", s.Code)
		}
		return ToSDKStatusCode(s.Code).String()
	case ClientStatus, WalletStatus, ConfigStatus:
		return ToSDKStatusCode(s.Code).String()
	default:
		return Unknown.String()
	}
}

// New returns a Status with the given parameters
func New(group Group, code int32, msg string, details []interface{}) *Status {
	return &Status{Group: group, Code: code, Message: msg, Details: details}
}

// Wrap returns a Status whose message is msg followed by the cause. The
// cause remains reachable through errors.Is and errors.As.
func Wrap(cause error, group Group, code Code, msg string, details ...interface{}) *Status {
	s := &Status{Group: group, Code: code.ToInt32(), Message: msg, Details: details, cause: cause}
	if cause != nil {
		s.Message = fmt.Sprintf("%s: %s", msg, cause)
	}
	return s
}

// NewFromCAErrors creates a status from the error list of a Fabric CA
// response. The first entry provides the code.
func NewFromCAErrors(httpCode int, codes []int, messages []string) *Status {
	details := make([]interface{}, len(messages))
	for i, m := range messages {
		details[i] = m
	}
	code := int32(httpCode)
	if len(codes) > 0 && codes[0] != 0 {
		code = int32(codes[0])
	}
	msg := fmt.Sprintf("CA returned HTTP %d", httpCode)
	if len(messages) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, messages[0])
	}
	return &Status{Group: FabricCAServerStatus, Code: code, Message: msg, Details: details}
}
