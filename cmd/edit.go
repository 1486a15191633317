package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/twiced-technology-gmbh/taskboard/internal/board"
	"github.com/twiced-technology-gmbh/taskboard/internal/clierr"
	"github.com/twiced-technology-gmbh/taskboard/internal/date"
	"github.com/twiced-technology-gmbh/taskboard/internal/output"
	"github.com/twiced-technology-gmbh/taskboard/internal/session"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
	"github.com/twiced-technology-gmbh/taskboard/internal/taskdata"
)

var editCmd = &cobra.Command{
	Use:   "edit ID[,ID,...]",
	Short: "Edit a task",
	Long: `Modifies fields of an existing task. Only specified fields are changed.
Multiple IDs can be provided as a comma-separated list.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	addEditFlags(editCmd.Flags())
	rootCmd.AddCommand(editCmd)
}

func addEditFlags(fs *pflag.FlagSet) {
	fs.String("title", "", "new title")
	fs.String("status", "", "new status")
	fs.String("priority", "", "new priority")
	fs.String("assignee", "", "new assignee user id (\"me\" for yourself)")
	fs.Bool("unassign", false, "clear the assignee")
	fs.StringSlice("add-tag", nil, "add tags")
	fs.StringSlice("remove-tag", nil, "remove tags")
	fs.String("deadline", "", "new deadline (YYYY-MM-DD, today, tomorrow, +Nd)")
	fs.Bool("clear-deadline", false, "clear deadline")
	fs.String("description", "", "new description (replaces the whole text)")
	fs.StringP("append-description", "a", "", "append text to the description")
	fs.BoolP("timestamp", "t", false, "prefix a timestamp line when appending")
}

func runEdit(cmd *cobra.Command, args []string) error {
	ids, err := board.ParseIDs(args[0])
	if err != nil {
		return err
	}

	return runWithBoard(func(ctx context.Context, a *app, s *session.Session, snap taskdata.Snapshot) error {
		if len(ids) == 1 {
			return editSingleTask(ctx, a, s, snap, ids[0], cmd)
		}
		return runBatch(ids, func(id string) error {
			_, err := executeEdit(ctx, a, s, snap, id, cmd)
			return err
		})
	})
}

// editSingleTask handles a single task edit with full output.
func editSingleTask(ctx context.Context, a *app, s *session.Session, snap taskdata.Snapshot, id string, cmd *cobra.Command) error {
	t, err := executeEdit(ctx, a, s, snap, id, cmd)
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, t)
	}

	output.Messagef(os.Stdout, "Updated task %s: %s", task.ShortID(t.ID), t.Title)
	return nil
}

// executeEdit finds the task, applies the flags, writes and logs. It returns
// the task as read back after the write.
func executeEdit(ctx context.Context, a *app, s *session.Session, snap taskdata.Snapshot, id string, cmd *cobra.Command) (*task.Task, error) {
	t, err := task.FindByPrefix(snap.Tasks, id)
	if err != nil {
		return nil, err
	}

	in := task.UpdateFrom(t)
	changed, err := applyEditFlags(cmd, &in, s, snap)
	if err != nil {
		return nil, err
	}

	newStatus := t.Status
	if v, _ := cmd.Flags().GetString("status"); v != "" {
		if newStatus, err = task.ParseStatus(v); err != nil {
			return nil, err
		}
	}
	statusChanged := newStatus != t.Status

	if !changed && !statusChanged {
		return nil, clierr.New(clierr.NoChanges, "no changes specified")
	}

	after, err := a.mutate(ctx, func(ctx context.Context) error {
		if changed {
			if err := a.repo.UpdateTask(ctx, t.ID, in); err != nil {
				return err
			}
		}
		if statusChanged {
			return a.repo.UpdateTaskStatus(ctx, t.ID, newStatus)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	edited := *t
	edited.Title = in.Title
	edited.Description = in.Description
	edited.Priority = in.Priority
	edited.Deadline = in.Deadline
	edited.AssignedTo = in.AssignedTo
	edited.Tags = in.Tags
	edited.Status = newStatus

	if changed {
		logActivity(a.cfg, "edit", t.ID, s.UserID, in.Title)
	}
	if statusChanged {
		logActivity(a.cfg, "move", t.ID, s.UserID, string(t.Status)+" -> "+string(newStatus))
	}
	return refetched(after, t.ID, &edited), nil
}

func applyEditFlags(cmd *cobra.Command, in *task.UpdateInput, s *session.Session, snap taskdata.Snapshot) (bool, error) {
	changed, err := applySimpleEditFlags(cmd, in, s, snap)
	if err != nil {
		return false, err
	}

	for _, fn := range []func(*cobra.Command, *task.UpdateInput) (bool, error){
		applyDescriptionFlags,
		applyTagDeadlineFlags,
	} {
		c, fnErr := fn(cmd, in)
		if fnErr != nil {
			return false, fnErr
		}
		if c {
			changed = true
		}
	}
	return changed, nil
}

func applySimpleEditFlags(cmd *cobra.Command, in *task.UpdateInput, s *session.Session, snap taskdata.Snapshot) (bool, error) {
	changed := false

	if v, _ := cmd.Flags().GetString("title"); v != "" {
		if err := task.ValidateTitle(v); err != nil {
			return false, err
		}
		in.Title = v
		changed = true
	}
	if v, _ := cmd.Flags().GetString("priority"); v != "" {
		p, err := task.ParsePriority(v)
		if err != nil {
			return false, err
		}
		in.Priority = p
		changed = true
	}

	assigneeSet := cmd.Flags().Changed("assignee")
	unassign, _ := cmd.Flags().GetBool("unassign")
	if assigneeSet && unassign {
		return false, clierr.New(clierr.InvalidInput, "cannot use --assignee and --unassign together")
	}
	if assigneeSet {
		v, _ := cmd.Flags().GetString("assignee")
		id, err := resolveAssignee(v, s.UserID, snap)
		if err != nil {
			return false, err
		}
		in.AssignedTo = id
		changed = true
	}
	if unassign {
		in.AssignedTo = ""
		changed = true
	}
	return changed, nil
}

func applyDescriptionFlags(cmd *cobra.Command, in *task.UpdateInput) (bool, error) {
	descSet := cmd.Flags().Changed("description")
	appendSet := cmd.Flags().Changed("append-description")
	if descSet && appendSet {
		return false, clierr.New(clierr.InvalidInput, "cannot use --description and --append-description together")
	}
	if descSet {
		in.Description, _ = cmd.Flags().GetString("description")
		return true, nil
	}
	if appendSet {
		v, _ := cmd.Flags().GetString("append-description")
		ts, _ := cmd.Flags().GetBool("timestamp")
		in.Description = appendDescription(in.Description, v, ts)
		return true, nil
	}
	return false, nil
}

func applyTagDeadlineFlags(cmd *cobra.Command, in *task.UpdateInput) (bool, error) {
	changed := false

	if v, _ := cmd.Flags().GetStringSlice("add-tag"); len(v) > 0 {
		in.Tags = task.NormalizeTags(append(in.Tags, v...))
		changed = true
	}
	if v, _ := cmd.Flags().GetStringSlice("remove-tag"); len(v) > 0 {
		in.Tags = removeAll(in.Tags, v...)
		changed = true
	}

	deadlineSet := cmd.Flags().Changed("deadline")
	clearDeadline, _ := cmd.Flags().GetBool("clear-deadline")
	if deadlineSet && clearDeadline {
		return false, clierr.New(clierr.InvalidInput, "cannot use --deadline and --clear-deadline together")
	}
	if deadlineSet {
		v, _ := cmd.Flags().GetString("deadline")
		d, err := date.ParseDeadline(v, now())
		if err != nil {
			return false, task.ValidateDate("deadline", v, err)
		}
		in.Deadline = &d
		changed = true
	}
	if clearDeadline {
		in.Deadline = nil
		changed = true
	}
	return changed, nil
}

func removeAll(slice []string, items ...string) []string {
	remove := make(map[string]bool, len(items))
	for _, item := range items {
		remove[item] = true
	}
	result := make([]string, 0, len(slice))
	for _, s := range slice {
		if !remove[s] {
			result = append(result, s)
		}
	}
	return result
}

// appendDescription appends text to the existing description, optionally
// prefixed with a timestamp line.
func appendDescription(existing, text string, addTimestamp bool) string {
	var b strings.Builder

	if existing != "" {
		b.WriteString(strings.TrimRight(existing, "\n"))
		b.WriteString("\n\n")
	}

	if addTimestamp {
		b.WriteString(now().Format("[2006-01-02 Mon 15:04]"))
		b.WriteByte('\n')
	}

	b.WriteString(text)
	return b.String()
}
