package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/twiced-technology-gmbh/taskboard/internal/board"
	"github.com/twiced-technology-gmbh/taskboard/internal/session"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
	"github.com/twiced-technology-gmbh/taskboard/internal/taskdata"
)

// --- Messages ---

// SnapshotMsg carries loader state into the update loop.
type SnapshotMsg struct{ Snapshot taskdata.Snapshot }

// SessionMsg is sent when the signed-in user changes on disk. A nil
// Session means signed out.
type SessionMsg struct{ Session *session.Session }

// ReloadMsg asks the board to refetch.
type ReloadMsg struct{}

// TickMsg is sent periodically to refresh the board from the store.
type TickMsg struct{}

type mutationMsg struct {
	snap taskdata.Snapshot
	err  error
}

// ErrMsg reports a background failure, such as a watcher error.
type ErrMsg struct{ Err error }

// --- Key bindings ---

type keyMap struct {
	ForceQuit     key.Binding
	Quit          key.Binding
	Left          key.Binding
	Right         key.Binding
	Up            key.Binding
	Down          key.Binding
	MoveNext      key.Binding
	MovePrev      key.Binding
	Delete        key.Binding
	Refresh       key.Binding
	Open          key.Binding
	CyclePriority key.Binding
	CycleTag      key.Binding
	Mine          key.Binding
	ClearFilter   key.Binding
}

var keys = keyMap{
	ForceQuit:     key.NewBinding(key.WithKeys("ctrl+c")),
	Quit:          key.NewBinding(key.WithKeys("q", keyEsc), key.WithHelp("q", "quit")),
	Left:          key.NewBinding(key.WithKeys("h", "left")),
	Right:         key.NewBinding(key.WithKeys("l", "right")),
	Up:            key.NewBinding(key.WithKeys("k", "up")),
	Down:          key.NewBinding(key.WithKeys("j", "down")),
	MoveNext:      key.NewBinding(key.WithKeys("]", "L", "shift+right"), key.WithHelp("]", "advance")),
	MovePrev:      key.NewBinding(key.WithKeys("[", "H", "shift+left"), key.WithHelp("[", "back")),
	Delete:        key.NewBinding(key.WithKeys("d", "D"), key.WithHelp("d", "del")),
	Refresh:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Open:          key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	CyclePriority: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "priority")),
	CycleTag:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "tag")),
	Mine:          key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mine")),
	ClearFilter:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
}

func (k keyMap) statusHelp() []key.Binding {
	return []key.Binding{k.MovePrev, k.MoveNext, k.Delete, k.Open, k.CyclePriority, k.CycleTag, k.Mine, k.ClearFilter, k.Refresh, k.Quit}
}

// --- Commands ---

func (b *Board) tickCmd() tea.Cmd {
	if b.opts.RefreshInterval <= 0 {
		return nil
	}
	return tea.Tick(b.opts.RefreshInterval, func(time.Time) tea.Msg { return TickMsg{} })
}

func (b *Board) refetchCmd() tea.Cmd {
	loader, timeout := b.loader, b.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return SnapshotMsg{Snapshot: loader.Refetch(ctx)}
	}
}

func (b *Board) setSessionCmd(s *session.Session) tea.Cmd {
	loader, timeout := b.loader, b.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return SnapshotMsg{Snapshot: loader.SetSession(ctx, s)}
	}
}

func (b *Board) moveCmd(id string, from, to task.Status) tea.Cmd {
	loader, mut, timeout := b.loader, b.mutator, b.opts.Timeout
	dir, user := b.opts.Dir, b.userID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		snap, err := loader.Mutate(ctx, func(ctx context.Context) error {
			return mut.UpdateTaskStatus(ctx, id, to)
		})
		if err == nil && dir != "" {
			board.LogMutation(dir, "move", id, user, string(from)+" -> "+string(to))
		}
		return mutationMsg{snap: snap, err: err}
	}
}

func (b *Board) deleteCmd(id, title string) tea.Cmd {
	loader, mut, timeout := b.loader, b.mutator, b.opts.Timeout
	dir, user := b.opts.Dir, b.userID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		snap, err := loader.Mutate(ctx, func(ctx context.Context) error {
			return mut.DeleteTask(ctx, id)
		})
		if err == nil && dir != "" {
			board.LogMutation(dir, "delete", id, user, title)
		}
		return mutationMsg{snap: snap, err: err}
	}
}

func (b *Board) userID() string {
	if b.snap.Session == nil {
		return ""
	}
	return b.snap.Session.UserID
}
