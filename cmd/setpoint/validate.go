package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Compile every recipe of the station against its bounds",
	Long: `Loads the station file and compiles every recipe of every axis against the
configured bounds, reporting each recipe that would be rejected at start.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		store, err := openStation(cmd, logger)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		var failed []error
		for _, axis := range store.Station().Axes {
			eng, err := newEngine(store, axis, logger)
			if err != nil {
				return err
			}
			for _, recipe := range axis.Recipes {
				steps, err := eng.Compile(recipe)
				if err != nil {
					failed = append(failed, fmt.Errorf("%s/%s: %w", axis.Name, recipe.Name, err))
					fmt.Fprintf(out, "✗ %s/%s: %v\n", axis.Name, recipe.Name, err)
					continue
				}
				fmt.Fprintf(out, "✓ %s/%s: %d steps\n", axis.Name, recipe.Name, len(steps))
			}
		}
		if len(failed) > 0 {
			return fmt.Errorf("%d recipe(s) rejected: %w", len(failed), errors.Join(failed...))
		}
		fmt.Fprintln(out, "Station is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
