package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskboard/internal/board"
	"github.com/twiced-technology-gmbh/taskboard/internal/clierr"
	"github.com/twiced-technology-gmbh/taskboard/internal/output"
	"github.com/twiced-technology-gmbh/taskboard/internal/session"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
	"github.com/twiced-technology-gmbh/taskboard/internal/taskdata"
)

var moveCmd = &cobra.Command{
	Use:   "move ID[,ID,...] [STATUS]",
	Short: "Move a task to a different status",
	Long: `Changes the status of a task. Provide the new status directly
(Todo, InProgress, Done), or use --next/--prev to move one column along.
Multiple IDs can be provided as a comma-separated list.`,
	Args: cobra.RangeArgs(1, 2), //nolint:mnd // 1 or 2 positional args
	RunE: runMove,
}

func init() {
	moveCmd.Flags().Bool("next", false, "move to next status")
	moveCmd.Flags().Bool("prev", false, "move to previous status")
	rootCmd.AddCommand(moveCmd)
}

func runMove(cmd *cobra.Command, args []string) error {
	ids, err := board.ParseIDs(args[0])
	if err != nil {
		return err
	}

	return runWithBoard(func(ctx context.Context, a *app, s *session.Session, snap taskdata.Snapshot) error {
		if len(ids) == 1 {
			return moveSingleTask(ctx, a, s, snap, ids[0], cmd, args)
		}
		return runBatch(ids, func(id string) error {
			_, _, err := executeMove(ctx, a, s, snap, id, cmd, args)
			return err
		})
	})
}

// moveResult wraps a task with a changed flag for JSON output.
type moveResult struct {
	*task.Task
	Changed bool `json:"changed"`
}

// moveSingleTask handles a single task move with full output.
func moveSingleTask(ctx context.Context, a *app, s *session.Session, snap taskdata.Snapshot, id string, cmd *cobra.Command, args []string) error {
	t, oldStatus, err := executeMove(ctx, a, s, snap, id, cmd, args)
	if err != nil {
		return err
	}

	if oldStatus == "" {
		return outputMoveResult(t, false)
	}

	if outputFormat() == output.FormatJSON {
		return outputMoveResult(t, true)
	}

	output.Messagef(os.Stdout, "Moved task %s: %s -> %s", task.ShortID(t.ID), oldStatus, t.Status)
	return nil
}

// executeMove resolves the target status and writes it. If the task is
// already there, oldStatus is empty and nothing is written.
func executeMove(ctx context.Context, a *app, s *session.Session, snap taskdata.Snapshot, id string, cmd *cobra.Command, args []string) (*task.Task, task.Status, error) {
	t, err := task.FindByPrefix(snap.Tasks, id)
	if err != nil {
		return nil, "", err
	}

	newStatus, err := resolveTargetStatus(cmd, args, t)
	if err != nil {
		return nil, "", err
	}

	if t.Status == newStatus {
		return t, "", nil
	}

	after, err := a.mutate(ctx, func(ctx context.Context) error {
		return a.repo.UpdateTaskStatus(ctx, t.ID, newStatus)
	})
	if err != nil {
		return nil, "", err
	}

	oldStatus := t.Status
	moved := *t
	moved.Status = newStatus
	logActivity(a.cfg, "move", t.ID, s.UserID, string(oldStatus)+" -> "+string(newStatus))
	return refetched(after, t.ID, &moved), oldStatus, nil
}

func resolveTargetStatus(cmd *cobra.Command, args []string, t *task.Task) (task.Status, error) {
	next, _ := cmd.Flags().GetBool("next")
	prev, _ := cmd.Flags().GetBool("prev")

	switch {
	case len(args) == 2: //nolint:mnd // positional arg
		return task.ParseStatus(args[1])
	case next:
		s, ok := task.NextStatus(t.Status)
		if !ok {
			return "", task.ValidateBoundaryError(t.ID, t.Status, "last")
		}
		return s, nil
	case prev:
		s, ok := task.PrevStatus(t.Status)
		if !ok {
			return "", task.ValidateBoundaryError(t.ID, t.Status, "first")
		}
		return s, nil
	default:
		return "", clierr.New(clierr.InvalidInput, "provide a target status or use --next/--prev")
	}
}

func outputMoveResult(t *task.Task, changed bool) error {
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, moveResult{Task: t, Changed: changed})
	}
	if !changed {
		output.Messagef(os.Stdout, "Task %s is already at %s", task.ShortID(t.ID), t.Status)
	}
	return nil
}
