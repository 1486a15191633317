package cmd

import (
	"context"
	"errors"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskboard/internal/output"
	"github.com/twiced-technology-gmbh/taskboard/internal/session"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
	"github.com/twiced-technology-gmbh/taskboard/internal/taskdata"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users",
	Long: `Lists everyone tasks can be assigned to. Works without signing in, so
you can find your USER_ID for 'taskboard login'.`,
	Args: cobra.NoArgs,
	RunE: runUsers,
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags",
	Long: `Lists the tag catalog with the number of tasks carrying each tag. Tags used
on tasks but missing from the catalog are listed too.`,
	Args: cobra.NoArgs,
	RunE: runTags,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(tagsCmd)
}

func runUsers(_ *cobra.Command, _ []string) error {
	return runWithApp(func(ctx context.Context, a *app) error {
		users, err := a.repo.GetUsers(ctx)
		if err != nil {
			return err
		}
		sort.SliceStable(users, func(i, j int) bool { return users[i].Name < users[j].Name })

		var currentID string
		if s, err := session.Load(a.cfg.Dir()); err == nil {
			currentID = s.UserID
		} else if !errors.Is(err, session.ErrNoSession) {
			a.log.WithError(err).Warn("reading session")
		}

		format := outputFormat()
		if format == output.FormatJSON {
			if users == nil {
				users = []task.User{}
			}
			return output.JSON(os.Stdout, users)
		}
		if format == output.FormatCompact {
			for _, u := range users {
				output.Messagef(os.Stdout, "%s %s", u.ID, u.Name)
			}
			return nil
		}
		output.UsersTable(os.Stdout, users, currentID)
		return nil
	})
}

// tagUsage is one row of the tags listing.
type tagUsage struct {
	Name      string `json:"name"`
	Count     int    `json:"count"`
	InCatalog bool   `json:"in_catalog"`
}

func runTags(_ *cobra.Command, _ []string) error {
	return runWithBoard(func(_ context.Context, _ *app, _ *session.Session, snap taskdata.Snapshot) error {
		usage := tagCounts(snap.Tasks)
		names := mergeTags(snap.Tags, usage)

		format := outputFormat()
		if format == output.FormatJSON {
			catalog := make(map[string]bool, len(snap.Tags))
			for _, t := range snap.Tags {
				catalog[t] = true
			}
			rows := make([]tagUsage, len(names))
			for i, n := range names {
				rows[i] = tagUsage{Name: n, Count: usage[n], InCatalog: catalog[n]}
			}
			return output.JSON(os.Stdout, rows)
		}
		if format == output.FormatCompact {
			for _, n := range names {
				output.Messagef(os.Stdout, "%s %d", n, usage[n])
			}
			return nil
		}
		output.TagsTable(os.Stdout, names, usage)
		return nil
	})
}

func tagCounts(tasks []*task.Task) map[string]int {
	usage := map[string]int{}
	for _, t := range tasks {
		for _, tg := range t.Tags {
			usage[tg]++
		}
	}
	return usage
}

// mergeTags returns the catalog in its order followed by used tags the
// catalog lacks, sorted.
func mergeTags(catalog []string, usage map[string]int) []string {
	seen := make(map[string]bool, len(catalog))
	out := make([]string, 0, len(catalog)+len(usage))
	for _, t := range catalog {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	var extra []string
	for t := range usage {
		if !seen[t] {
			extra = append(extra, t)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}
