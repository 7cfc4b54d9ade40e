/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hyperledger/fabric-ca-enroll/pkg/operations"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var listenAddress string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve health, metrics and the enrollment HTTP API.",
		Long: `Serve /healthz, /metrics and the enrollment API:

  POST /v1/identities/{label}   enroll the administrator or a user
  GET  /v1/identities/{label}   show a stored identity without its key

The identity endpoints require "Authorization: Bearer <token>" when
operations.authToken (FABRIC_ENROLL_OPERATIONS_AUTHTOKEN) is set. Without a
token anyone who can reach the listener can enroll users, so do not bind
it to a public address unless a token is configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnvironment(cmd, opts, func(ctx context.Context, env *environment) error {
				cfg := operations.ConfigFromBackend(env.backends...)
				if listenAddress != "" {
					cfg.ListenAddress = listenAddress
				}
				srv, err := operations.New(cfg, env.enroller, env.wallet)
				if err != nil {
					return err
				}
				if err := srv.Start(); err != nil {
					return err
				}

				ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				<-ctx.Done()

				return srv.Stop(context.WithoutCancel(ctx))
			})
		},
	}
	cmd.Flags().StringVar(&listenAddress, "listen", "", "listen address, overrides operations.listenAddress")
	return cmd
}
