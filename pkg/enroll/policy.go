/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package enroll

import (
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// Policy is an admission expression evaluated before a user is
// registered, for example
//
//	role == 'client' && hasPrefix(affiliation, 'org1')
//
// Parameters are role, affiliation and userId.
type Policy struct {
	source string
	expr   *govaluate.EvaluableExpression
}

var policyFunctions = map[string]govaluate.ExpressionFunction{
	"hasPrefix": func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, errors.New("hasPrefix expects 2 arguments")
		}
		return strings.HasPrefix(cast.ToString(args[0]), cast.ToString(args[1])), nil
	},
}

// NewPolicy compiles the expression
func NewPolicy(expression string) (*Policy, error) {
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(expression, policyFunctions)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid enrollment policy [%s]", expression)
	}
	return &Policy{source: expression, expr: expr}, nil
}

// String returns the policy expression
func (p *Policy) String() string {
	return p.source
}

// Allow evaluates the policy for a request with its resolved affiliation
func (p *Policy) Allow(req *UserRequest, affiliation string) (bool, error) {
	result, err := p.expr.Evaluate(map[string]interface{}{
		"role":        req.Role,
		"affiliation": affiliation,
		"userId":      req.UserID,
	})
	if err != nil {
		return false, errors.Wrapf(err, "failed to evaluate enrollment policy [%s]", p.source)
	}
	allowed, ok := result.(bool)
	if !ok {
		return false, errors.Errorf("enrollment policy [%s] did not evaluate to a boolean", p.source)
	}
	return allowed, nil
}
