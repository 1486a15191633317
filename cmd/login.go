package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskboard/internal/output"
	"github.com/twiced-technology-gmbh/taskboard/internal/session"
)

var loginCmd = &cobra.Command{
	Use:   "login USER_ID",
	Short: "Sign in as a user",
	Long: `Records USER_ID as the signed-in user on this machine. The user must exist
in the user table; run 'taskboard users' to see who is there. A running
board picks up the change automatically.`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func runLogin(_ *cobra.Command, args []string) error {
	return runWithApp(func(ctx context.Context, a *app) error {
		u, err := a.repo.GetUser(ctx, args[0])
		if err != nil {
			return err
		}

		s := &session.Session{UserID: u.ID, UserName: u.Name, SignedIn: now().UTC()}
		if err := session.Save(a.cfg.Dir(), s); err != nil {
			return err
		}
		logActivity(a.cfg, "login", "", u.ID, u.Name)

		if outputFormat() == output.FormatJSON {
			return output.JSON(os.Stdout, s)
		}
		output.Messagef(os.Stdout, "Signed in as %s (%s)", displayName(s), s.UserID)
		return nil
	})
}

func runLogout(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	prev, err := session.Load(cfg.Dir())
	if errors.Is(err, session.ErrNoSession) {
		prev = nil
	} else if err != nil {
		return err
	}

	if err := session.Clear(cfg.Dir()); err != nil {
		return err
	}

	signedOut := prev != nil
	if signedOut {
		logActivity(cfg, "logout", "", prev.UserID, "")
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]bool{"signed_out": signedOut})
	}
	if !signedOut {
		output.Messagef(os.Stdout, "Not signed in.")
		return nil
	}
	output.Messagef(os.Stdout, "Signed out %s.", displayName(prev))
	return nil
}

func runWhoami(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := requireSession(cfg)
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, s)
	}
	output.Messagef(os.Stdout, "%s (%s), signed in %s ago",
		displayName(s), s.UserID, output.FormatDuration(now().Sub(s.SignedIn)))
	return nil
}

func displayName(s *session.Session) string {
	if s.UserName != "" {
		return s.UserName
	}
	return s.UserID
}
