/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package multi is an error type that holds multiple errors. These errors
// typically originate from operations that target several identities, for
// example a batch enrollment where some users fail.
package multi

import (
	"strconv"
	"strings"
)

// Errors is used to represent multiple errors
type Errors []error

// New returns the non-nil errors as one error: nil when there are none,
// the error itself when there is one and Errors otherwise
func New(errs ...error) error {
	var m Errors
	for _, err := range errs {
		if err != nil {
			m = append(m, err)
		}
	}
	return m.ToError()
}

// Append adds err to errs, flattening errs when it already holds several
func Append(errs error, err error) error {
	m, ok := errs.(Errors)
	if !ok {
		return New(errs, err)
	}
	if err == nil {
		return errs
	}
	return append(m, err)
}

// Len returns how many errors err stands for
func Len(err error) int {
	if err == nil {
		return 0
	}
	if m, ok := err.(Errors); ok {
		return len(m)
	}
	return 1
}

// ToError returns nil for no errors and the single error for one
func (errs Errors) ToError() error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errs
	}
}

// Unwrap exposes the individual errors to errors.Is and errors.As
func (errs Errors) Unwrap() []error {
	return errs
}

// Error lists every error on its own line after a count
func (errs Errors) Error() string {
	switch len(errs) {
	case 0:
		return ""
	case 1:
		return errs[0].Error()
	}

	var b strings.Builder
	b.WriteString(strconv.Itoa(len(errs)))
	b.WriteString(" errors occurred:")
	for _, err := range errs {
		b.WriteString("\n\t* ")
		b.WriteString(err.Error())
	}
	return b.String()
}
