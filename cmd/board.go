package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskboard/internal/board"
	"github.com/twiced-technology-gmbh/taskboard/internal/output"
	"github.com/twiced-technology-gmbh/taskboard/internal/session"
	"github.com/twiced-technology-gmbh/taskboard/internal/taskdata"
	"github.com/twiced-technology-gmbh/taskboard/internal/watcher"
)

var flagWatch bool

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show the task board",
	Long: `Displays the board as three columns: Todo, InProgress and Done. Within a
column overdue tasks come first, then higher priorities.

Use --watch to keep the display live. The board is refetched every
tui.refresh_interval and whenever someone signs in or out on this machine.
Press Ctrl+C to stop.`,
	RunE: runBoard,
}

func init() {
	rootCmd.AddCommand(boardCmd)
	boardCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "live-update the board")
	boardCmd.Flags().Bool("mine", false, "show only tasks assigned to you")
	boardCmd.Flags().String("tag", "", "show only tasks with this tag")
}

func runBoard(cmd *cobra.Command, _ []string) error {
	mine, _ := cmd.Flags().GetBool("mine")
	tag, _ := cmd.Flags().GetString("tag")

	return runWithBoard(func(_ context.Context, a *app, _ *session.Session, snap taskdata.Snapshot) error {
		view := boardView{tag: tag, mine: mine}
		if err := view.render(snap); err != nil {
			return err
		}
		if !flagWatch {
			return nil
		}
		return watchBoard(a, view)
	})
}

// boardView is the filter applied to every render. "Mine" follows whoever
// is signed in at render time.
type boardView struct {
	tag  string
	mine bool
}

func (v boardView) render(snap taskdata.Snapshot) error {
	criteria := board.Criteria{Tag: v.tag}
	if v.mine && snap.Session != nil {
		criteria.AssignedTo = snap.Session.UserID
	}
	cols := board.GroupByStatus(board.Filter(snap.Tasks, criteria), now())

	format := outputFormat()
	if format == output.FormatJSON {
		return output.JSON(os.Stdout, cols)
	}
	if format == output.FormatCompact {
		output.BoardCompact(os.Stdout, cols, now())
		return nil
	}

	output.BoardTable(os.Stdout, cols, now())
	return nil
}

func watchBoard(a *app, view boardView) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var mu sync.Mutex
	unsubscribe := a.loader.Subscribe(func(snap taskdata.Snapshot) {
		if snap.Loading || ctx.Err() != nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		clearScreen()
		if snap.Session == nil {
			output.Messagef(os.Stdout, "Signed out. Waiting for 'taskboard login'...")
			return
		}
		warnPartial(snap)
		if err := view.render(snap); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: rendering board: %v\n", err)
		}
	})
	defer unsubscribe()

	timeout := a.cfg.Timeout()
	w, err := watcher.New([]string{a.cfg.Dir()}, []string{session.FileName}, func(_ []string) {
		s, err := session.Load(a.cfg.Dir())
		if err != nil && !errors.Is(err, session.ErrNoSession) {
			fmt.Fprintf(os.Stderr, "Warning: reading session: %v\n", err)
			return
		}
		rctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		a.loader.SetSession(rctx, s)
	})
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer w.Close()

	go w.Run(ctx, func(watchErr error) {
		fmt.Fprintf(os.Stderr, "Warning: file watcher: %v\n", watchErr)
	})

	fmt.Fprintln(os.Stderr, "Watching for changes... (Ctrl+C to stop)")

	var tick <-chan time.Time
	if interval := a.cfg.RefreshInterval(); interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			rctx, cancel := context.WithTimeout(ctx, timeout)
			a.loader.Refetch(rctx)
			cancel()
		}
	}
}

// clearScreen sends ANSI escape codes to clear the terminal and move the
// cursor to the top-left corner.
func clearScreen() {
	fmt.Fprint(os.Stdout, "\033[2J\033[H")
}
