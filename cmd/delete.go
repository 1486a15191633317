package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/twiced-technology-gmbh/taskboard/internal/board"
	"github.com/twiced-technology-gmbh/taskboard/internal/clierr"
	"github.com/twiced-technology-gmbh/taskboard/internal/output"
	"github.com/twiced-technology-gmbh/taskboard/internal/session"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
	"github.com/twiced-technology-gmbh/taskboard/internal/taskdata"
)

var deleteCmd = &cobra.Command{
	Use:     "delete ID[,ID,...]",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Long: `Permanently deletes a task. Prompts for confirmation in interactive mode.
Multiple IDs can be provided as a comma-separated list (requires --yes).`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolP("yes", "y", false, "skip confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	ids, err := board.ParseIDs(args[0])
	if err != nil {
		return err
	}

	yes, _ := cmd.Flags().GetBool("yes")
	if len(ids) > 1 && !yes {
		return clierr.New(clierr.ConfirmationReq, "batch delete requires --yes")
	}

	return runWithBoard(func(ctx context.Context, a *app, s *session.Session, snap taskdata.Snapshot) error {
		if len(ids) == 1 {
			return deleteSingleTask(ctx, a, s, snap, ids[0], yes)
		}
		return runBatch(ids, func(id string) error {
			t, err := task.FindByPrefix(snap.Tasks, id)
			if err != nil {
				return err
			}
			return executeDelete(ctx, a, s, t)
		})
	})
}

// deleteSingleTask handles a single task delete with confirmation and output.
func deleteSingleTask(ctx context.Context, a *app, s *session.Session, snap taskdata.Snapshot, id string, yes bool) error {
	t, err := task.FindByPrefix(snap.Tasks, id)
	if err != nil {
		return err
	}

	if !yes {
		ok, err := confirmDelete(a.base, fmt.Sprintf("Delete task %s %q? [y/N] ", task.ShortID(t.ID), t.Title))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(os.Stderr, "Canceled.")
			return nil
		}
		var cancel context.CancelFunc
		ctx, cancel = a.storeContext()
		defer cancel()
	}

	if err := executeDelete(ctx, a, s, t); err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]interface{}{
			"status": "deleted",
			"id":     t.ID,
			"title":  t.Title,
		})
	}

	output.Messagef(os.Stdout, "Deleted task %s: %s", task.ShortID(t.ID), t.Title)
	return nil
}

// confirmDelete is the prompt used by delete; tests replace it.
var confirmDelete = confirm

// confirm asks on stderr and reads a yes/no answer from stdin. It refuses
// to prompt when stdin is not a terminal and gives up when ctx is done.
func confirm(ctx context.Context, prompt string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, clierr.New(clierr.ConfirmationReq,
			"cannot prompt for confirmation (not a terminal); use --yes")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	fmt.Fprint(os.Stderr, prompt)

	answers := make(chan string, 1)
	go func() {
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		answers <- answer
	}()
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr)
		return false, nil
	case answer := <-answers:
		answer = strings.TrimSpace(strings.ToLower(answer))
		return answer == "y" || answer == "yes", nil
	}
}

func executeDelete(ctx context.Context, a *app, s *session.Session, t *task.Task) error {
	_, err := a.mutate(ctx, func(ctx context.Context) error {
		return a.repo.DeleteTask(ctx, t.ID)
	})
	if err != nil {
		return err
	}
	logActivity(a.cfg, "delete", t.ID, s.UserID, t.Title)
	return nil
}
