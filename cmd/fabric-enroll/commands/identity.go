/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package commands

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

// identityView is the printable form of a stored identity. It has no key.
type identityView struct {
	Label       string `yaml:"label"`
	MSPID       string `yaml:"mspId"`
	Type        string `yaml:"type"`
	Certificate string `yaml:"certificate"`
}

func newIdentityCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Inspect the identities in the wallet.",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the identity labels.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withEnvironment(cmd, opts, func(ctx context.Context, env *environment) error {
					labels, err := env.wallet.List(ctx)
					if err != nil {
						return err
					}
					for _, label := range labels {
						fmt.Fprintln(cmd.OutOrStdout(), label)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "show <label>",
			Short: "Show an identity. Private keys are never printed.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withEnvironment(cmd, opts, func(ctx context.Context, env *environment) error {
					id, err := env.wallet.Get(ctx, args[0])
					if err != nil {
						return errors.WithMessagef(err, "failed to read identity [%s]", args[0])
					}
					out, err := yaml.Marshal(&identityView{Label: args[0], MSPID: id.MSPID(), Type: id.Type(), Certificate: id.Certificate()})
					if err != nil {
						return err
					}
					_, err = cmd.OutOrStdout().Write(out)
					return err
				})
			},
		},
	)
	return cmd
}
