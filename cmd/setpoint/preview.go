package main

import (
	"fmt"

	"github.com/aretw0/setpoint/internal/compiler"
	"github.com/aretw0/setpoint/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview <axis> <recipe>",
	Short: "Show the compiled steps of a recipe without running it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		origin, _ := cmd.Flags().GetFloat64("origin")
		pointsOnly, _ := cmd.Flags().GetBool("points")

		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		store, err := openStation(cmd, logger)
		if err != nil {
			return err
		}
		axis, err := lookupAxis(store, args[0])
		if err != nil {
			return err
		}
		recipe, err := store.GetRecipe(axis.Name, args[1])
		if err != nil {
			return err
		}
		eng, err := newEngine(store, axis, logger)
		if err != nil {
			return err
		}
		steps, err := eng.Compile(recipe)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if pointsOnly {
			return tui.WritePoints(out, compiler.Preview(steps, origin))
		}
		rendered, err := tui.NewRenderer(out)(tui.StepsMarkdown(axis.Name+" / "+recipe.Name, steps, origin))
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(out, rendered)
		return err
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().Float64("origin", 0, "Time of the first point, in seconds")
	previewCmd.Flags().Bool("points", false, "Print the curve as 't v' lines instead of a table")
}
