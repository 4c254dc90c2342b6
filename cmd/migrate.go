package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the schema and seed reference data",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}
		if err := st.SeedCategories(ctx); err != nil {
			return err
		}

		// Seed the default proximity anchor once; existing preferences win.
		pref, err := st.GetPreference(ctx)
		if err != nil {
			return err
		}
		if pref == nil {
			if err := st.SetPreference(ctx, cfg.Query.DefaultZip, cfg.Query.DefaultMaxDistance); err != nil {
				return err
			}
		}

		zap.L().Info("migration complete", zap.String("driver", cfg.Store.Driver))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
