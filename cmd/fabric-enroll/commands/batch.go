/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package commands

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/hyperledger/fabric-ca-enroll/pkg/common/errors/multi"
	"github.com/hyperledger/fabric-ca-enroll/pkg/enroll"
)

// BatchFile lists the users to enroll
type BatchFile struct {
	Users []BatchUser `yaml:"users"`
}

// BatchUser is a user entry of a batch file
type BatchUser struct {
	UserID      string `yaml:"userId"`
	Affiliation string `yaml:"affiliation,omitempty"`
	Role        string `yaml:"role,omitempty"`
}

// BatchResult is the outcome for one user
type BatchResult struct {
	UserID    string `yaml:"userId"`
	Enrolled  bool   `yaml:"enrolled"`
	PublicKey string `yaml:"publicKey,omitempty"`
	Error     string `yaml:"error,omitempty"`
}

type batchOptions struct {
	file      string
	parallel  int
	skipAdmin bool
}

func newBatchCommand(opts *rootOptions) *cobra.Command {
	bopts := &batchOptions{}
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Enroll the users listed in a YAML file.",
		Long: `Enroll the users listed in a YAML file, for example

  users:
    - userId: alice
      role: client
    - userId: bob
      affiliation: org1.department2

The administrator is enrolled first unless --skip-admin is set. Results are
printed as YAML. The command fails when any user fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := readBatchFile(bopts.file)
			if err != nil {
				return err
			}
			return withEnvironment(cmd, opts, func(ctx context.Context, env *environment) error {
				if !bopts.skipAdmin {
					if err := env.enroller.EnsureAdminEnrolled(ctx); err != nil {
						return err
					}
				}
				results, err := runBatch(ctx, env.enroller, batch.Users, bopts.parallel)
				out, merr := yaml.Marshal(results)
				if merr != nil {
					return errors.Wrap(merr, "failed to marshal batch results")
				}
				if _, werr := cmd.OutOrStdout().Write(out); werr != nil {
					return werr
				}
				if err != nil {
					return errors.WithMessagef(err, "%d of %d users failed", multi.Len(err), len(batch.Users))
				}
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&bopts.file, "file", "f", "", "YAML file listing the users")
	flags.IntVarP(&bopts.parallel, "parallel", "p", 4, "number of users enrolled concurrently")
	flags.BoolVar(&bopts.skipAdmin, "skip-admin", false, "do not enroll the administrator first")
	return cmd
}

func readBatchFile(name string) (*BatchFile, error) {
	if name == "" {
		return nil, errors.New("a batch file is required (--file)")
	}
	raw, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read batch file [%s]", name)
	}
	batch := &BatchFile{}
	if err := yaml.UnmarshalStrict(raw, batch); err != nil {
		return nil, errors.Wrapf(err, "failed to parse batch file [%s]", name)
	}
	return batch, nil
}

type userEnroller interface {
	EnsureUserEnrolled(ctx context.Context, req *enroll.UserRequest) (string, error)
}

// runBatch enrolls the users with at most parallel workers. Every user is
// attempted; the failures are returned together.
func runBatch(ctx context.Context, e userEnroller, users []BatchUser, parallel int) ([]BatchResult, error) {
	if parallel < 1 {
		parallel = 1
	}
	results := make([]BatchResult, len(users))
	errs := make([]error, len(users))

	p := pool.New().WithMaxGoroutines(parallel)
	for i, u := range users {
		i, u := i, u
		p.Go(func() {
			pubKey, err := e.EnsureUserEnrolled(ctx, &enroll.UserRequest{UserID: u.UserID, Affiliation: u.Affiliation, Role: u.Role})
			results[i] = BatchResult{UserID: u.UserID, Enrolled: pubKey != "", PublicKey: pubKey}
			if err != nil {
				results[i].Error = err.Error()
				errs[i] = errors.WithMessagef(err, "user [%s]", u.UserID)
			}
		})
	}
	p.Wait()

	var err error
	for _, uerr := range errs {
		if uerr != nil {
			err = multi.Append(err, uerr)
		}
	}
	return results, err
}
