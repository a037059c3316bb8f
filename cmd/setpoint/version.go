package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/setpoint"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of setpoint",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "setpoint version %s\n", strings.TrimSpace(setpoint.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
