/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperledger/fabric-ca-enroll/pkg/enroll"
)

func newAdminCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "admin",
		Short: "Enroll the CA administrator unless the wallet already holds it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnvironment(cmd, opts, func(ctx context.Context, env *environment) error {
				if err := env.enroller.EnsureAdminEnrolled(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "admin identity [%s] is enrolled\n", env.enroller.AdminLabel())
				return nil
			})
		},
	}
}

func newUserCommand(opts *rootOptions) *cobra.Command {
	req := &enroll.UserRequest{}
	cmd := &cobra.Command{
		Use:   "user <userId>",
		Short: "Register and enroll a user with the administrator identity.",
		Long: `Register and enroll a user with the administrator identity from the wallet.
The hex encoded public key of the new enrollment is printed. Nothing is
printed when the user is already in the wallet.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.UserID = args[0]
			return withEnvironment(cmd, opts, func(ctx context.Context, env *environment) error {
				pubKey, err := env.enroller.EnsureUserEnrolled(ctx, req)
				if err != nil {
					return err
				}
				if pubKey != "" {
					fmt.Fprintln(cmd.OutOrStdout(), pubKey)
				}
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&req.Affiliation, "affiliation", "a", "", "affiliation of the user, the configured default when empty")
	flags.StringVarP(&req.Role, "role", "r", "client", "role attribute of the user")
	return cmd
}
