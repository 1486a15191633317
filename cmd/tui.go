package cmd

import (
	"context"
	"errors"
	"io"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskboard/internal/config"
	"github.com/twiced-technology-gmbh/taskboard/internal/session"
	"github.com/twiced-technology-gmbh/taskboard/internal/tui"
	"github.com/twiced-technology-gmbh/taskboard/internal/watcher"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive board",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), cfg.Timeout())
	a, err := newApp(connectCtx, cfg)
	cancelConnect()
	if err != nil {
		return err
	}
	defer a.Close()

	// Diagnostics on stderr would tear the alternate screen.
	if cfg.Log.File == "" {
		a.log.SetOutput(io.Discard)
	}

	s, err := session.Load(cfg.Dir())
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			a.log.WithError(err).Warn("reading session")
		}
		s = nil
	}

	model := tui.NewBoard(a.loader, a.repo, tui.Options{
		Dir:             cfg.Dir(),
		BoardName:       cfg.Board.Name,
		Session:         s,
		Timeout:         cfg.Timeout(),
		RefreshInterval: cfg.RefreshInterval(),
		TitleLines:      cfg.TitleLines(),
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go startTUIWatcher(ctx, cfg.Dir(), p)

	_, err = p.Run()
	return err
}

// startTUIWatcher forwards sign-in, sign-out and config edits made by other
// commands to the running board.
func startTUIWatcher(ctx context.Context, dir string, p *tea.Program) {
	w, err := watcher.New([]string{dir}, []string{session.FileName, config.ConfigFileName}, func(changed []string) {
		if slices.Contains(changed, session.FileName) {
			s, err := session.Load(dir)
			if err != nil && !errors.Is(err, session.ErrNoSession) {
				p.Send(tui.ErrMsg{Err: err})
				return
			}
			p.Send(tui.SessionMsg{Session: s})
			return
		}
		p.Send(tui.ReloadMsg{})
	})
	if err != nil {
		return // non-fatal: the board still refreshes on its timer
	}
	defer w.Close()
	w.Run(ctx, func(err error) {
		p.Send(tui.ErrMsg{Err: err})
	})
}
