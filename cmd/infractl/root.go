package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/infracache/config"
	"github.com/unkn0wn-root/infracache/infrastructure"
	"github.com/unkn0wn-root/infracache/logging"
)

type rootOpts struct {
	configPath string
	// deps lets tests inject collaborators.
	deps infrastructure.Deps
}

func newRootCmd() *cobra.Command { return newRootCmdWith(&rootOpts{}) }

func newRootCmdWith(opts *rootOpts) *cobra.Command {
	root := &cobra.Command{
		Use:           "infractl",
		Short:         "Inspect and exercise the application's infrastructure",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (yaml, json or toml); APP_* env vars override it")

	root.AddCommand(
		newCheckCmd(opts),
		newCacheCmd(opts),
		newTokenCmd(opts),
	)
	return root
}

// withInfra builds the infrastructure for one command and tears it down after.
func (o *rootOpts) withInfra(ctx context.Context, f func(inf *infrastructure.Infrastructure) error) (err error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	deps := o.deps
	if deps.Logger == nil {
		l, err := logging.New(cfg.Log, nil)
		if err != nil {
			return err
		}
		defer func() { _ = l.Sync() }()
		deps.Logger = l
	}
	inf, err := infrastructure.New(ctx, cfg, deps)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := inf.Close(context.Background()); cerr != nil && err == nil {
			err = fmt.Errorf("close: %w", cerr)
		}
	}()
	return f(inf)
}

func newCheckCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Ping the database and the cache backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withInfra(cmd.Context(), func(inf *infrastructure.Infrastructure) error {
				if err := inf.Check(cmd.Context()); err != nil {
					return err
				}
				inf.Logger.Debug("check passed", zap.Bool("cache", inf.Cache.Enabled()))
				cache := "disabled"
				if inf.Cache.Enabled() {
					cache = string(inf.Config.Cache.Backend)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "database: ok (%s)\ncache: ok (%s)\n", inf.Config.Database.Provider, cache)
				return nil
			})
		},
	}
}
