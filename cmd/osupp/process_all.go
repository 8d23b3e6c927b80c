package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProcessAllCmd(mode *string) *cobra.Command {
	var (
		reprocess bool
		threads   int
	)

	cmd := &cobra.Command{
		Use:   "process-all",
		Short: "Recompute pp for every user in the selected game mode",
		Long:  "Fans reprocessing out across a fixed worker pool, each worker owning its own database connections, resuming from the last checkpoint unless --reprocess is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcessAll(cmd, *mode, reprocess, threads)
		},
	}
	cmd.Flags().BoolVar(&reprocess, "reprocess", false, "restart from the beginning instead of resuming from the last checkpoint")
	cmd.Flags().IntVar(&threads, "threads", 4, "number of worker connections to fan reprocessing out across (defaults to the configured worker_count)")
	return cmd
}

func runProcessAll(cmd *cobra.Command, mode string, reprocess bool, threads int) error {
	ctx, cancel := rootContext()
	defer cancel()

	deps, err := bootstrap(ctx, mode)
	if err != nil {
		return err
	}
	defer deps.Close()

	if !cmd.Flags().Changed("threads") {
		threads = deps.Config.WorkerCount
	}

	fmt.Fprintf(cmd.OutOrStdout(), "reprocessing mode=%s reprocess=%v threads=%d\n", deps.Mode.Name(), reprocess, threads)
	return deps.ProcessAllUsers(ctx, reprocess, threads)
}
