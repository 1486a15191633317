package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskboard/internal/clierr"
	"github.com/twiced-technology-gmbh/taskboard/internal/output"
	"github.com/twiced-technology-gmbh/taskboard/internal/session"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update your profile",
	Long:  `Shows the signed-in user's profile. Use --name to change your display name.`,
	Args:  cobra.NoArgs,
	RunE:  runProfile,
}

func init() {
	profileCmd.Flags().String("name", "", "new display name")
	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, _ []string) error {
	return runWithApp(func(ctx context.Context, a *app) error {
		s, err := requireSession(a.cfg)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			name = strings.TrimSpace(name)
			if name == "" {
				return clierr.New(clierr.InvalidInput, "name must not be empty").
					WithDetails(map[string]any{"field": "name"})
			}
			if err := a.repo.UpdateUserProfile(ctx, s.UserID, name); err != nil {
				return err
			}
			s.UserName = name
			if err := session.Save(a.cfg.Dir(), s); err != nil {
				a.log.WithError(err).Warn("updating session name")
			}
			logActivity(a.cfg, "profile", "", s.UserID, name)
		}

		u, err := a.repo.GetUser(ctx, s.UserID)
		if err != nil {
			return err
		}

		if outputFormat() == output.FormatJSON {
			return output.JSON(os.Stdout, u)
		}
		output.Messagef(os.Stdout, "ID:    %s", u.ID)
		output.Messagef(os.Stdout, "Name:  %s", u.Name)
		if u.Image != "" {
			output.Messagef(os.Stdout, "Image: %s", u.Image)
		}
		return nil
	})
}
