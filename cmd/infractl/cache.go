package main

import (
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/infracache"
	"github.com/unkn0wn-root/infracache/infrastructure"
)

var errNotFound = errors.New("not found")

var outJSON = jsoniter.ConfigCompatibleWithStandardLibrary

func newCacheCmd(opts *rootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Read and write cache entries",
	}
	cmd.AddCommand(
		newCacheGetCmd(opts),
		newCacheSetCmd(opts),
		newCacheRmCmd(opts),
		newCacheExistsCmd(opts),
	)
	return cmd
}

func newCacheGetCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print the entry as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withInfra(cmd.Context(), func(inf *infrastructure.Infrastructure) error {
				v, ok, err := infracache.Get[any](cmd.Context(), inf.Cache, args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%s: %w", args[0], errNotFound)
				}
				b, err := outJSON.MarshalIndent(v, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			})
		},
	}
}

func newCacheSetCmd(opts *rootOpts) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "set KEY JSON",
		Short: "Store a JSON value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v any
			if err := outJSON.UnmarshalFromString(args[1], &v); err != nil {
				return fmt.Errorf("value is not JSON: %w", err)
			}
			return opts.withInfra(cmd.Context(), func(inf *infrastructure.Infrastructure) error {
				return infracache.Set(cmd.Context(), inf.Cache, args[0], v, ttl)
			})
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "expiry; 0 uses cache.defaultttl")
	return cmd
}

func newCacheRmCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:     "rm KEY",
		Aliases: []string{"remove"},
		Short:   "Remove an entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withInfra(cmd.Context(), func(inf *infrastructure.Infrastructure) error {
				return inf.Cache.Remove(cmd.Context(), args[0])
			})
		},
	}
}

func newCacheExistsCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "exists KEY",
		Short: "Print true or false",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withInfra(cmd.Context(), func(inf *infrastructure.Infrastructure) error {
				ok, err := inf.Cache.Exists(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ok)
				return nil
			})
		},
	}
}
