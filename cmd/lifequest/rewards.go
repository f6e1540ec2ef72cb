package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lifequest/lifequest-core/internal/application/command"
	"github.com/lifequest/lifequest-core/internal/domain/reward"
	"github.com/lifequest/lifequest-core/internal/infrastructure/catalog"
	"github.com/lifequest/lifequest-core/internal/infrastructure/persistence/redis"
	"github.com/lifequest/lifequest-core/pkg/logger"
)

func newRewardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewards",
		Short: "Manage the reward catalog",
	}
	cmd.AddCommand(newRewardsSeedCmd(), newRewardsValidateCmd(), newRewardsListCmd())
	return cmd
}

func newRewardsSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert reward definitions from a YAML catalog file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.requirePostgres(); err != nil {
				return err
			}
			if file == "" {
				file = a.cfg.Rewards.CatalogFile
			}
			defs, err := catalog.Load(file)
			if err != nil {
				return err
			}

			res, err := command.NewSeedRewardsHandler(a.writer, reward.DefaultRegistry(), a.log).Handle(ctx, defs)
			if err != nil {
				return err
			}

			if a.cache != nil {
				cached := redis.NewRewardCatalogCache(a.cache, a.catalog, a.cfg.Redis.CatalogTTL, a.log)
				if err := cached.Invalidate(ctx); err != nil {
					a.log.Warn("reward catalog cache not invalidated", logger.Err(err))
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "upserted %d reward(s) from %s\n", res.Upserted, file)
			for _, key := range res.UnknownConditions {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %s has a condition no evaluator handles\n", key)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog file (defaults to REWARD_CATALOG_FILE)")
	return cmd
}

func newRewardsValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Parse a catalog file without touching storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := catalog.Load(args[0])
			if err != nil {
				return err
			}
			registry := reward.DefaultRegistry()
			unknown := 0
			for _, d := range defs {
				if _, known := registry.Lookup(d.Condition().Base); !known {
					fmt.Fprintf(cmd.OutOrStdout(), "warning: %s: unknown condition %q\n", d.Key, d.ConditionType)
					unknown++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d reward(s) ok, %d with unknown conditions\n", len(defs)-unknown, unknown)
			return nil
		},
	}
	return cmd
}

func newRewardsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active rewards",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.requirePostgres(); err != nil {
				return err
			}
			defs, err := a.catalog.ListActive(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tKIND\tCONDITION\tTHRESHOLD\tITEM")
			for _, d := range defs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.Key, d.Kind, d.ConditionType, d.Threshold, d.ItemKey)
			}
			return w.Flush()
		},
	}
}
