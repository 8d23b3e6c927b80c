package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMonitorCmd(mode *string) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Continuously poll for new scores and newly ranked beatmaps",
		Long:  "Runs the score poller and the beatmap poller concurrently until interrupted, recomputing pp for every new score as it appears.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd, *mode)
		},
	}
}

func runMonitor(cmd *cobra.Command, mode string) error {
	ctx, cancel := rootContext()
	defer cancel()

	deps, err := bootstrap(ctx, mode)
	if err != nil {
		return err
	}
	defer deps.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "monitoring mode=%s for new scores and beatmaps\n", deps.Mode.Name())
	return deps.MonitorNewScores(ctx)
}
