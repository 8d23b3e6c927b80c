package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/okian/osupp/internal/adapters/batch"
	"github.com/okian/osupp/internal/app"
	"github.com/okian/osupp/internal/domain/model"
)

func newProcessUsersCmd(mode *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process-users <user_id...>",
		Short: "Recompute pp for a specific list of users and print a summary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcessUsers(cmd, *mode, args)
		},
	}
	return cmd
}

func runProcessUsers(cmd *cobra.Command, mode string, args []string) error {
	ctx, cancel := rootContext()
	defer cancel()

	deps, err := bootstrap(ctx, mode)
	if err != nil {
		return err
	}
	defer deps.Close()

	userIDs := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q: %w", arg, err)
		}
		userIDs = append(userIDs, id)
	}

	users, err := processUsers(ctx, deps, userIDs)
	if err != nil {
		return err
	}

	printUserSummary(cmd, users)
	return nil
}

// processUsers mirrors CProcessor::ProcessUsers: every id is processed
// against the shared replica/master connections and a single pair of
// batchers, since this is a one-off administrative run, not a fan-out.
func processUsers(ctx context.Context, deps *app.Dependencies, userIDs []int64) ([]*model.User, error) {
	newUsers := batch.New(deps.Master, deps.Config.BatchThreshold, batch.WithLogger(deps.Log))
	newScores := batch.New(deps.Master, deps.Config.BatchThreshold, batch.WithLogger(deps.Log))

	users := make([]*model.User, 0, len(userIDs))
	for _, id := range userIDs {
		user, err := deps.ProcessUser(ctx, 0, deps.Replica, deps.Master, newUsers, newScores, id)
		if err != nil {
			return nil, fmt.Errorf("process user %d: %w", id, err)
		}
		users = append(users, user)
	}
	return users, nil
}

func printUserSummary(cmd *cobra.Command, users []*model.User) {
	sort.Slice(users, func(i, j int) bool {
		a, b := users[i].PPRecord(), users[j].PPRecord()
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		return users[i].ID > users[j].ID
	})

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "============================")
	fmt.Fprintln(out, "======= USER SUMMARY =======")
	fmt.Fprintln(out, "============================")
	fmt.Fprintln(out, "      User    Perf.     Acc.")
	fmt.Fprintln(out, "----------------------------")
	for _, u := range users {
		r := u.PPRecord()
		fmt.Fprintf(out, "%10d  %5dpp  %6.2f%%\n", u.ID, int32(r.Value), r.Accuracy*100)
	}
	fmt.Fprintln(out, "=============================")
}
