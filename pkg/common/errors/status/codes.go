/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package status

import (
	"strconv"
)

// Code represents a status code
type Code uint32

const (
	// OK is returned on success.
	OK Code = 0

	// Unknown represents status codes that are uncategorized or unknown
	Unknown Code = 1

	// ConnectionFailed is returned when a connection to the CA or a store fails
	ConnectionFailed Code = 2

	// Timeout operation timed out or its context was cancelled
	Timeout Code = 5

	// MultipleErrors multiple errors occurred
	MultipleErrors Code = 7

	// ConfigurationError the topology or local configuration is missing or invalid
	ConfigurationError Code = 30

	// PreconditionFailed a prerequisite identity is absent or the request was rejected by policy
	PreconditionFailed Code = 31

	// EnrollmentFailed the CA rejected or failed the enroll call
	EnrollmentFailed Code = 32

	// RegistrationFailed the CA rejected or failed the register call
	RegistrationFailed Code = 33

	// StoreReadFailed the identity store could not be read
	StoreReadFailed Code = 34

	// StoreWriteFailed the identity store could not be written
	StoreWriteFailed Code = 35

	// ProviderResolutionFailed no identity provider handles the stored identity type
	ProviderResolutionFailed Code = 36

	// AlreadyEnrolled the identity is already in the store. Reported as an
	// outcome, never returned as an error by the enrollment flows.
	AlreadyEnrolled Code = 37
)

// CodeName maps the codes in this packages to human-readable strings
var CodeName = map[int32]string{
	0:  "OK",
	1:  "UNKNOWN",
	2:  "CONNECTION_FAILED",
	5:  "TIMEOUT",
	7:  "MULTIPLE_ERRORS",
	30: "CONFIGURATION_ERROR",
	31: "PRECONDITION_FAILED",
	32: "ENROLLMENT_FAILED",
	33: "REGISTRATION_FAILED",
	34: "STORE_READ_FAILED",
	35: "STORE_WRITE_FAILED",
	36: "PROVIDER_RESOLUTION_FAILED",
	37: "ALREADY_ENROLLED",
}

// ToInt32 cast to int32
func (c Code) ToInt32() int32 {
	return int32(c)
}

// String representation of the code
func (c Code) String() string {
	if s, ok := CodeName[c.ToInt32()]; ok {
		return s
	}
	return strconv.Itoa(int(c))
}

// ToSDKStatusCode cast to status code
func ToSDKStatusCode(c int32) Code {
	return Code(c)
}
