/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package commands implements the fabric-enroll command line.
package commands

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hyperledger/fabric-ca-enroll/pkg/ca"
	"github.com/hyperledger/fabric-ca-enroll/pkg/common/logging"
	"github.com/hyperledger/fabric-ca-enroll/pkg/common/providers/core"
	"github.com/hyperledger/fabric-ca-enroll/pkg/core/config"
	"github.com/hyperledger/fabric-ca-enroll/pkg/core/logging/zaplog"
	"github.com/hyperledger/fabric-ca-enroll/pkg/enroll"
	"github.com/hyperledger/fabric-ca-enroll/pkg/metrics"
	"github.com/hyperledger/fabric-ca-enroll/pkg/wallet"
)

var logger = logging.NewLogger("enroll/cmd")

type rootOptions struct {
	configFile  string
	logEncoding string
	timeout     time.Duration
}

// NewRootCommand returns the fabric-enroll command with all subcommands
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "fabric-enroll",
		Short: "Enroll Fabric CA identities into a wallet.",
		Long: `Enroll the organization administrator and application users with a Fabric CA
and store their X.509 identities in a wallet.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logEncoding != "" {
				logging.Initialize(zaplog.New(zaplog.WithEncoding(opts.logEncoding), zaplog.WithOutput(cmd.ErrOrStderr())))
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "configuration file (connection profile, enrollment and wallet sections)")
	flags.StringVar(&opts.logEncoding, "log-encoding", "", "log encoding: console or json")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "timeout of each CA request")

	cmd.AddCommand(
		newAdminCommand(opts),
		newUserCommand(opts),
		newBatchCommand(opts),
		newIdentityCommand(opts),
		newServeCommand(opts),
	)
	return cmd
}

// environment is the wired set of components a command works with
type environment struct {
	backends []core.ConfigBackend
	wallet   *wallet.Wallet
	enroller *enroll.Enroller
}

func newEnvironment(ctx context.Context, opts *rootOptions) (*environment, error) {
	if opts.configFile == "" {
		return nil, errors.New("a configuration file is required (--config)")
	}
	backends, err := config.FromFile(opts.configFile)()
	if err != nil {
		return nil, errors.WithMessage(err, "failed to load configuration")
	}

	enrollCfg, err := enroll.ConfigFromBackend(backends...)
	if err != nil {
		return nil, err
	}
	profile, err := ca.ProfileFromBackend(backends...)
	if err != nil {
		return nil, err
	}
	retryOpts, err := ca.RetryOptsFromBackend(backends...)
	if err != nil {
		return nil, err
	}
	caClient, err := ca.NewClient(profile, enrollCfg.CAHost, ca.WithTimeout(opts.timeout), ca.WithRetry(retryOpts))
	if err != nil {
		return nil, err
	}

	walletCfg, err := wallet.ConfigFromBackend(backends...)
	if err != nil {
		return nil, err
	}
	w, err := wallet.New(ctx, walletCfg)
	if err != nil {
		return nil, err
	}

	metricsProvider, err := metrics.NewProvider(metrics.ConfigFromBackend(backends...).Provider, nil)
	if err != nil {
		w.Close()
		return nil, err
	}

	enroller, err := enroll.New(enrollCfg, caClient, w, enroll.WithMetrics(enroll.NewMetrics(metricsProvider)))
	if err != nil {
		w.Close()
		return nil, err
	}

	logger.Debugf("Using CA [%s] at %s for MSP [%s]", enrollCfg.CAHost, caClient.URL(), enrollCfg.MSPID)
	return &environment{backends: backends, wallet: w, enroller: enroller}, nil
}

func (e *environment) Close() {
	if err := e.wallet.Close(); err != nil {
		logger.Warnf("Failed to close wallet: %s", err)
	}
}

// withEnvironment runs f against a fresh environment. Parsing of the
// command line is done at this point so usage is silenced.
func withEnvironment(cmd *cobra.Command, opts *rootOptions, f func(ctx context.Context, env *environment) error) error {
	cmd.SilenceUsage = true
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	env, err := newEnvironment(ctx, opts)
	if err != nil {
		return err
	}
	defer env.Close()
	return f(ctx, env)
}
