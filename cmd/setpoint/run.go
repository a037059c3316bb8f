package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/setpoint/internal/presentation/tui"
	"github.com/aretw0/setpoint/pkg/adapters/file"
	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/aretw0/setpoint/pkg/runner"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <axis> <recipe>",
	Short: "Run a recipe on a simulated device in real time",
	Long: `Runs a recipe on one axis of the station, driven by the wall clock, against a
simulated device whose measurement follows every setpoint. Ctrl-C stops the run.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		journalDir, _ := cmd.Flags().GetString("journal")
		quiet, _ := cmd.Flags().GetBool("quiet")

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

		out := cmd.OutOrStdout()
		if !quiet {
			tui.PrintBanner(out)
		}
		w := axisWiring{
			logger: logger,
			hooks: domain.LifecycleHooks{
				OnStep: func(_ context.Context, e *domain.StepEvent) {
					fmt.Fprintf(out, "%4d  %s\n", e.Index, e.Step)
				},
			},
		}
		if journalDir != "" {
			w.journal = file.NewRunStore(journalDir)
		}
		d, err := newDriver(store, axis, w)
		if err != nil {
			return err
		}

		ctx, stop := runner.InterruptContext(cmd.Context())
		defer stop()

		loopDone := make(chan error, 1)
		go func() { loopDone <- d.Run(ctx) }()

		if err := d.Start(ctx, recipe); err != nil {
			stop()
			<-loopDone
			return err
		}
		_, waitErr := d.Wait(ctx)
		stop()
		<-loopDone
		if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
			return waitErr
		}

		snap := d.Snapshot()
		state := snap.State
		fmt.Fprintf(out, "run %s %s", snap.RunID, state.Status)
		if state.Reason != "" {
			fmt.Fprintf(out, " (%s)", state.Reason)
		}
		fmt.Fprintln(out)
		return state.Err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("journal", "", "Directory to journal the run into")
	runCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
