// Package tui implements the interactive terminal board.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/twiced-technology-gmbh/taskboard/internal/board"
	"github.com/twiced-technology-gmbh/taskboard/internal/clierr"
	"github.com/twiced-technology-gmbh/taskboard/internal/session"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
	"github.com/twiced-technology-gmbh/taskboard/internal/taskdata"
)

// view represents the current screen state.
type view int

const (
	viewBoard view = iota
	viewConfirmDelete
	viewDetail
)

// Key and layout constants.
const (
	keyEsc = "esc"

	boardChrome       = 2 // blank line + status bar below the column area
	errorChrome       = 1 // extra line when error toast is displayed
	defaultTitleLines = 2
	defaultTimeout    = 10 * time.Second
	doubleClickWindow = 500 * time.Millisecond
)

// Mutator performs the writes the board offers. The repository implements it.
type Mutator interface {
	UpdateTaskStatus(ctx context.Context, id string, status task.Status) error
	DeleteTask(ctx context.Context, id string) error
}

// Options configures a Board.
type Options struct {
	// Dir is the board directory; mutations are recorded in its activity log.
	Dir       string
	BoardName string
	// Session is handed to the loader on start. Nil starts signed out.
	Session *session.Session
	// Timeout bounds each loader or mutation call.
	Timeout time.Duration
	// RefreshInterval triggers a background refetch; zero disables it.
	RefreshInterval time.Duration
	TitleLines      int
}

// Board is the top-level bubbletea model.
type Board struct {
	loader  *taskdata.Loader
	mutator Mutator
	opts    Options

	snap      taskdata.Snapshot
	tasks     []*task.Task // filtered view of snap.Tasks
	columns   []column
	criteria  board.Criteria
	activeCol int
	activeRow int
	view      view
	width     int
	height    int
	err       error
	now       func() time.Time

	// Delete confirmation.
	deleteID    string
	deleteTitle string

	lastClickCol  int
	lastClickRow  int
	lastClickTime time.Time
}

// column groups tasks belonging to a single status.
type column struct {
	status    task.Status
	tasks     []*task.Task
	scrollOff int // first visible row index
}

// NewBoard creates a Board over loader. Status moves and deletes go through
// mutator and are always followed by a refetch.
func NewBoard(loader *taskdata.Loader, mutator Mutator, opts Options) *Board {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.TitleLines <= 0 {
		opts.TitleLines = defaultTitleLines
	}
	b := &Board{loader: loader, mutator: mutator, opts: opts, now: time.Now}
	b.apply(loader.Snapshot())
	return b
}

// SetNow overrides the clock used for overdue and age display (for testing).
func (b *Board) SetNow(fn func() time.Time) {
	b.now = fn
	b.rebuild()
}

// Init implements tea.Model.
func (b *Board) Init() tea.Cmd {
	return tea.Batch(b.setSessionCmd(b.opts.Session), b.tickCmd())
}

// Update implements tea.Model.
func (b *Board) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return b.handleKey(msg)
	case tea.MouseMsg:
		return b.handleMouse(msg)
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		b.clampRow()
		return b, nil
	case SnapshotMsg:
		b.apply(msg.Snapshot)
		return b, nil
	case SessionMsg:
		return b, b.setSessionCmd(msg.Session)
	case ReloadMsg:
		return b, b.refetchCmd()
	case TickMsg:
		return b, tea.Batch(b.refetchCmd(), b.tickCmd())
	case mutationMsg:
		b.apply(msg.snap)
		b.err = msg.err
		return b, nil
	case ErrMsg:
		b.err = msg.Err
		return b, nil
	}
	return b, nil
}

// View implements tea.Model.
func (b *Board) View() string {
	if b.width == 0 {
		return "Loading..."
	}

	switch b.view {
	case viewConfirmDelete:
		return b.viewDeleteConfirm()
	case viewDetail:
		return b.viewDetail()
	default:
		return b.viewBoard()
	}
}

func (b *Board) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.ForceQuit) {
		return b, tea.Quit
	}

	switch b.view {
	case viewBoard:
		return b.handleBoardKey(msg)
	case viewConfirmDelete:
		return b.handleDeleteKey(msg)
	case viewDetail:
		return b.handleDetailKey(msg)
	}
	return b, nil
}

func (b *Board) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return b, tea.Quit
	case key.Matches(msg, keys.Left):
		if b.activeCol > 0 {
			b.activeCol--
			b.clampRow()
		}
	case key.Matches(msg, keys.Right):
		if b.activeCol < len(b.columns)-1 {
			b.activeCol++
			b.clampRow()
		}
	case key.Matches(msg, keys.Down):
		col := b.currentColumn()
		if col != nil && b.activeRow < len(col.tasks)-1 {
			b.activeRow++
			b.ensureVisible()
		}
	case key.Matches(msg, keys.Up):
		if b.activeRow > 0 {
			b.activeRow--
			b.ensureVisible()
		}
	case key.Matches(msg, keys.MoveNext):
		return b, b.moveSelected(true)
	case key.Matches(msg, keys.MovePrev):
		return b, b.moveSelected(false)
	case key.Matches(msg, keys.Delete):
		b.handleDeleteStart()
	case key.Matches(msg, keys.Refresh):
		b.err = nil
		return b, b.refetchCmd()
	case key.Matches(msg, keys.Open):
		if b.selectedTask() != nil {
			b.view = viewDetail
		}
	case key.Matches(msg, keys.CyclePriority):
		b.criteria.Priority = cyclePriority(b.criteria.Priority)
		b.rebuild()
	case key.Matches(msg, keys.CycleTag):
		b.criteria.Tag = cycleString(b.criteria.Tag, b.snap.Tags)
		b.rebuild()
	case key.Matches(msg, keys.Mine):
		b.toggleMine()
		b.rebuild()
	case key.Matches(msg, keys.ClearFilter):
		b.criteria = board.Criteria{}
		b.rebuild()
	}
	return b, nil
}

func (b *Board) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit), key.Matches(msg, keys.Open):
		b.view = viewBoard
	case key.Matches(msg, keys.MoveNext):
		return b, b.moveSelected(true)
	case key.Matches(msg, keys.MovePrev):
		return b, b.moveSelected(false)
	case key.Matches(msg, keys.Delete):
		b.handleDeleteStart()
	}
	return b, nil
}

func (b *Board) handleDeleteStart() {
	if t := b.selectedTask(); t != nil {
		b.deleteID = t.ID
		b.deleteTitle = t.Title
		b.view = viewConfirmDelete
	}
}

func (b *Board) handleDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		b.view = viewBoard
		return b, b.deleteCmd(b.deleteID, b.deleteTitle)
	case "n", "N", keyEsc, "q":
		b.view = viewBoard
	}
	return b, nil
}

func (b *Board) toggleMine() {
	if b.criteria.AssignedTo != "" {
		b.criteria.AssignedTo = ""
		return
	}
	if b.snap.Session != nil {
		b.criteria.AssignedTo = b.snap.Session.UserID
	}
}

// moveSelected moves the selected task one column forward or back. Moving
// past either end of the board is reported instead of sent to the store.
func (b *Board) moveSelected(forward bool) tea.Cmd {
	t := b.selectedTask()
	if t == nil {
		return nil
	}
	next, ok := task.NextStatus(t.Status)
	edge := "last"
	if !forward {
		next, ok = task.PrevStatus(t.Status)
		edge = "first"
	}
	if !ok {
		b.err = task.ValidateBoundaryError(t.ID, t.Status, edge)
		return nil
	}
	return b.moveCmd(t.ID, t.Status, next)
}

// handleMouse handles mouse click events for card selection.
func (b *Board) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return b, nil
	}
	if b.view != viewBoard {
		return b, nil
	}

	colWidth := b.columnWidth()
	clickedCol := msg.X / colWidth
	if clickedCol >= len(b.columns) {
		return b, nil
	}

	col := &b.columns[clickedCol]
	lineY := msg.Y - 1
	if lineY < 0 {
		b.activeCol = clickedCol
		b.clampRow()
		return b, nil
	}

	clickedRow := -1
	cardLine := 0
	for rowIdx := col.scrollOff; rowIdx < len(col.tasks); rowIdx++ {
		cardH := b.cardHeight(col.tasks[rowIdx], colWidth)
		if lineY < cardLine+cardH {
			clickedRow = rowIdx
			break
		}
		cardLine += cardH
	}

	if clickedRow < 0 {
		b.activeCol = clickedCol
		b.clampRow()
		return b, nil
	}

	now := b.now()
	isDoubleClick := clickedCol == b.lastClickCol &&
		clickedRow == b.lastClickRow &&
		now.Sub(b.lastClickTime) < doubleClickWindow

	b.activeCol = clickedCol
	b.activeRow = clickedRow
	b.lastClickCol = clickedCol
	b.lastClickRow = clickedRow
	b.lastClickTime = now
	b.ensureVisible()

	if isDoubleClick {
		b.view = viewDetail
	}
	return b, nil
}

// apply replaces the board's data with snap and rebuilds the columns,
// keeping the selection on the same task when it still exists.
func (b *Board) apply(snap taskdata.Snapshot) {
	b.snap = snap
	if snap.Session == nil {
		b.criteria.AssignedTo = ""
	}
	b.rebuild()
}

func (b *Board) rebuild() {
	var selectedID string
	if t := b.selectedTask(); t != nil {
		selectedID = t.ID
	}

	b.tasks = board.Filter(b.snap.Tasks, b.criteria)
	cols := board.GroupByStatus(b.tasks, b.now())

	prev := b.columns
	b.columns = make([]column, 0, len(task.Statuses))
	for i, c := range cols.All() {
		col := column{status: c.Status, tasks: c.Tasks}
		if i < len(prev) {
			col.scrollOff = prev[i].scrollOff
		}
		b.columns = append(b.columns, col)
	}

	if selectedID != "" {
		for ci, col := range b.columns {
			for ri, t := range col.tasks {
				if t.ID == selectedID {
					b.activeCol, b.activeRow = ci, ri
				}
			}
		}
	}
	b.clampRow()
}

func (b *Board) currentColumn() *column {
	if b.activeCol >= 0 && b.activeCol < len(b.columns) {
		return &b.columns[b.activeCol]
	}
	return nil
}

func (b *Board) selectedTask() *task.Task {
	col := b.currentColumn()
	if col == nil || len(col.tasks) == 0 {
		return nil
	}
	if b.activeRow >= 0 && b.activeRow < len(col.tasks) {
		return col.tasks[b.activeRow]
	}
	return nil
}

func (b *Board) clampRow() {
	col := b.currentColumn()
	if col == nil || len(col.tasks) == 0 {
		b.activeRow = 0
		return
	}
	if b.activeRow >= len(col.tasks) {
		b.activeRow = len(col.tasks) - 1
	}
	if col.scrollOff >= len(col.tasks) {
		col.scrollOff = 0
	}
	b.ensureVisible()
}

// chromeHeight returns the number of lines consumed by non-card elements below
// the column area: blank line + status bar (+ error line when an error is shown).
func (b *Board) chromeHeight() int {
	h := boardChrome
	if b.errorText() != "" {
		h += errorChrome
	}
	return h
}

// visibleCardsForColumn returns the number of cards that fit in the column,
// accounting for scroll indicator lines ("↑ N more" / "↓ N more") that
// consume vertical space.
func (b *Board) visibleCardsForColumn(col *column, width int) int {
	budget := b.height - b.chromeHeight()
	if budget < 1 {
		return 1
	}

	// Always need 1 line for column header.
	avail := budget - 1

	if col.scrollOff > 0 {
		avail--
	}

	n := b.fitCardsInHeight(col, avail, width)

	if col.scrollOff+n < len(col.tasks) {
		n = b.fitCardsInHeight(col, avail-1, width)
		if n < 1 {
			n = 1
		}
	}

	return n
}

// ensureVisible adjusts the active column's scroll offset so the
// selected row is within the visible window.
func (b *Board) ensureVisible() {
	col := b.currentColumn()
	if col == nil {
		return
	}
	w := b.columnWidth()

	for range len(col.tasks) + 1 {
		maxVis := b.visibleCardsForColumn(col, w)

		switch {
		case b.activeRow >= col.scrollOff+maxVis:
			col.scrollOff = b.activeRow - maxVis + 1
		case b.activeRow < col.scrollOff:
			col.scrollOff = b.activeRow
		default:
			return
		}
	}
}

func (b *Board) fitCardsInHeight(col *column, avail, width int) int {
	if len(col.tasks) == 0 || avail < 1 {
		return 1
	}

	used := 0
	count := 0
	for i := col.scrollOff; i < len(col.tasks); i++ {
		cardLines := b.cardHeight(col.tasks[i], width)
		if count > 0 && used+cardLines > avail {
			break
		}
		count++
		used += cardLines
		if used >= avail {
			break
		}
	}

	if count < 1 {
		return 1
	}
	return count
}

func cyclePriority(current task.Priority) task.Priority {
	// Highest first, then back to unfiltered.
	order := []task.Priority{task.High, task.Medium, task.Low, ""}
	for i, p := range order {
		if p == current {
			return order[(i+1)%len(order)]
		}
	}
	return ""
}

func cycleString(current string, values []string) string {
	if len(values) == 0 {
		return ""
	}
	if current == "" {
		return values[0]
	}
	for i, v := range values {
		if v == current {
			if i+1 < len(values) {
				return values[i+1]
			}
			return ""
		}
	}
	return ""
}

// isBoundary reports whether err is the board-edge error from a move.
func isBoundary(err error) bool {
	return clierr.CodeOf(err) == clierr.BoundaryError
}
