package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	prefsZip      string
	prefsDistance int
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Manage the saved location preference",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved location preference",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		pref, err := initQuery(st).GetPreference(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("zip %s, max distance %d miles\n", pref.ZipCode, pref.MaxDistance)
		return nil
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save the location preference",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if prefsZip == "" {
			return eris.New("--zip is required")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := initQuery(st).SetPreference(ctx, prefsZip, prefsDistance); err != nil {
			return err
		}
		fmt.Println("preference saved")
		return nil
	},
}

func init() {
	prefsSetCmd.Flags().StringVar(&prefsZip, "zip", "", "anchor ZIP code")
	prefsSetCmd.Flags().IntVar(&prefsDistance, "distance", 0, "max distance in miles (default from config)")
	prefsCmd.AddCommand(prefsShowCmd, prefsSetCmd)
	rootCmd.AddCommand(prefsCmd)
}
