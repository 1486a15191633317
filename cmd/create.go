package cmd

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/twiced-technology-gmbh/taskboard/internal/clierr"
	"github.com/twiced-technology-gmbh/taskboard/internal/date"
	"github.com/twiced-technology-gmbh/taskboard/internal/output"
	"github.com/twiced-technology-gmbh/taskboard/internal/session"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
	"github.com/twiced-technology-gmbh/taskboard/internal/taskdata"
)

var createCmd = &cobra.Command{
	Use:     "create [TITLE]",
	Aliases: []string{"add"},
	Short:   "Create a new task",
	Long: `Creates a new task in the Todo column.

Title can be provided as a positional argument or via --title flag.
The task is assigned to you unless --assignee names someone else.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().String("title", "", "task title (alternative to positional argument)")
	createCmd.Flags().String("priority", "", "task priority: Low, Medium or High (default from config)")
	createCmd.Flags().String("assignee", "", "user id of the assignee (default: you)")
	createCmd.Flags().StringSlice("tags", nil, "comma-separated tags")
	createCmd.Flags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		switch name {
		case "tag":
			name = "tags"
		case "body":
			name = "description"
		case "due":
			name = "deadline"
		}
		return pflag.NormalizedName(name)
	})
	createCmd.Flags().String("deadline", "", "deadline (YYYY-MM-DD, today, tomorrow, +Nd)")
	createCmd.Flags().String("description", "", "task description (markdown)")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	title, err := resolveCreateTitle(cmd, args)
	if err != nil {
		return err
	}

	return runWithBoard(func(ctx context.Context, a *app, s *session.Session, snap taskdata.Snapshot) error {
		in := task.CreateInput{
			Title:    title,
			Priority: a.cfg.Defaults.Priority,
			UserID:   s.UserID,
		}
		if err := applyCreateFlags(cmd, &in, snap); err != nil {
			return err
		}

		var created []*task.Task
		_, err := a.mutate(ctx, func(ctx context.Context) error {
			var err error
			created, err = a.repo.CreateTask(ctx, in)
			return err
		})
		if err != nil {
			return err
		}

		for _, t := range created {
			logActivity(a.cfg, "create", t.ID, s.UserID, t.Title)
		}
		return outputCreateResult(created)
	})
}

func outputCreateResult(created []*task.Task) error {
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, created)
	}

	for _, t := range created {
		output.Messagef(os.Stdout, "Created task %s: %s", task.ShortID(t.ID), t.Title)
		output.Messagef(os.Stdout, "  Status: %s | Priority: %s", t.Status, t.Priority)
		if t.AssignedTo != "" {
			output.Messagef(os.Stdout, "  Assignee: %s", t.AssignedTo)
		}
		if len(t.Tags) > 0 {
			output.Messagef(os.Stdout, "  Tags: %s", strings.Join(t.Tags, ", "))
		}
		if t.Deadline != nil {
			output.Messagef(os.Stdout, "  Deadline: %s", date.String(t.Deadline))
		}
	}
	return nil
}

// resolveCreateTitle returns the task title from either the positional arg or --title flag.
func resolveCreateTitle(cmd *cobra.Command, args []string) (string, error) {
	flagTitle, _ := cmd.Flags().GetString("title")
	hasPositional := len(args) > 0
	hasFlag := flagTitle != ""

	switch {
	case hasPositional && hasFlag:
		return "", clierr.New(clierr.InvalidInput,
			"title provided both as argument and --title flag; use one or the other")
	case hasPositional:
		return args[0], task.ValidateTitle(args[0])
	case hasFlag:
		return flagTitle, task.ValidateTitle(flagTitle)
	default:
		return "", errors.New("title is required: provide it as an argument or with --title")
	}
}

func applyCreateFlags(cmd *cobra.Command, in *task.CreateInput, snap taskdata.Snapshot) error {
	if v, _ := cmd.Flags().GetString("priority"); v != "" {
		p, err := task.ParsePriority(v)
		if err != nil {
			return err
		}
		in.Priority = p
	}
	if v, _ := cmd.Flags().GetString("assignee"); v != "" {
		id, err := resolveAssignee(v, in.UserID, snap)
		if err != nil {
			return err
		}
		in.AssignedTo = id
	}
	if v, _ := cmd.Flags().GetStringSlice("tags"); len(v) > 0 {
		in.Tags = task.NormalizeTags(v)
	}
	if v, _ := cmd.Flags().GetString("deadline"); v != "" {
		d, err := date.ParseDeadline(v, now())
		if err != nil {
			return task.ValidateDate("deadline", v, err)
		}
		in.Deadline = &d
	}
	if v, _ := cmd.Flags().GetString("description"); v != "" {
		in.Description = v
	}
	return nil
}

// resolveAssignee maps "me" to the signed-in user and checks the id against
// the user list when it loaded.
func resolveAssignee(v, self string, snap taskdata.Snapshot) (string, error) {
	if strings.EqualFold(v, "me") {
		return self, nil
	}
	if snap.Err(taskdata.Users) != nil {
		return v, nil
	}
	if _, ok := snap.UserByID(v); !ok {
		return "", clierr.Newf(clierr.UserNotFound, "user not found: %s", v).
			WithDetails(map[string]any{"id": v})
	}
	return v, nil
}
