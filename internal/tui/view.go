package tui

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/twiced-technology-gmbh/taskboard/internal/board"
	"github.com/twiced-technology-gmbh/taskboard/internal/date"
	"github.com/twiced-technology-gmbh/taskboard/internal/output"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
	"github.com/twiced-technology-gmbh/taskboard/internal/taskdata"
)

// --- Styles ---

var (
	columnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("236")).
				Padding(0, 1)

	activeColumnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("62")).
				Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activeCardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("226")).
			Padding(0, 1)

	overdueCardStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("196")).
				Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	titleStyle     = lipgloss.NewStyle().Bold(true)

	priorityStyles = map[task.Priority]lipgloss.Style{
		task.High:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		task.Medium: lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		task.Low:    lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	}

	// tagColorPalette is a set of distinct, readable terminal colors for auto-coloring tags.
	tagColorPalette = []lipgloss.Color{"33", "36", "35", "32", "91", "34", "93", "96"}

	dialogPadY = 1
	dialogPadX = 2

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(dialogPadY, dialogPadX)
)

// tagStyle returns a consistent lipgloss style for a tag, derived by hashing
// the tag name into the tagColorPalette. Same tag always gets the same color.
func tagStyle(tag string) lipgloss.Style {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tag))
	color := tagColorPalette[h.Sum32()%uint32(len(tagColorPalette))]
	return lipgloss.NewStyle().Foreground(color)
}

func priorityStyle(p task.Priority) lipgloss.Style {
	if st, ok := priorityStyles[p]; ok {
		return st
	}
	return dimStyle
}

// --- View rendering ---

func (b *Board) viewBoard() string {
	if b.snap.Session == nil {
		return b.viewSignedOut()
	}

	colWidth := b.columnWidth()

	renderedCols := make([]string, len(b.columns))
	for i, col := range b.columns {
		renderedCols[i] = b.renderColumn(i, col, colWidth)
	}

	boardView := lipgloss.JoinHorizontal(lipgloss.Top, renderedCols...)

	// Clamp from the bottom (keeping headers at the top) and pad if needed.
	targetHeight := b.height - b.chromeHeight()
	if targetHeight > 0 {
		actual := strings.Count(boardView, "\n") + 1
		if actual > targetHeight {
			viewLines := strings.SplitN(boardView, "\n", targetHeight+1)
			boardView = strings.Join(viewLines[:targetHeight], "\n")
		} else if actual < targetHeight {
			boardView += strings.Repeat("\n", targetHeight-actual)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, boardView, "", b.renderStatusBar())
}

func (b *Board) viewSignedOut() string {
	content := titleStyle.Render("Not signed in") + "\n\n" +
		"  Run 'taskboard login USER_ID' in another terminal.\n" +
		"  The board loads as soon as a session appears.\n\n" +
		dimStyle.Render("q:quit")
	return dialogStyle.Render(content)
}

func (b *Board) columnWidth() int {
	if b.width == 0 || len(b.columns) == 0 {
		return 30 //nolint:mnd // default column width
	}
	// Total rendered width = w * numColumns (JoinHorizontal adds no gaps).
	w := b.width / len(b.columns)
	const maxColWidth = 75
	if w > maxColWidth {
		w = maxColWidth
	}
	return w
}

func (b *Board) renderColumn(colIdx int, col column, width int) string {
	headerText := fmt.Sprintf("%s (%d)", col.status, len(col.tasks))
	const headerPad = 2
	headerText = truncate(headerText, width-headerPad)

	var header string
	if colIdx == b.activeCol {
		header = activeColumnHeaderStyle.Width(width).Render(headerText)
	} else {
		header = columnHeaderStyle.Width(width).Render(headerText)
	}

	maxVis := b.visibleCardsForColumn(&col, width)
	start := col.scrollOff
	end := start + maxVis
	if end > len(col.tasks) {
		end = len(col.tasks)
	}
	if start > len(col.tasks) {
		start = len(col.tasks)
	}

	parts := []string{header}

	if start > 0 {
		indicator := fmt.Sprintf("  ↑ %d more", start)
		parts = append(parts, dimStyle.Width(width).Render(truncate(indicator, width)))
	}

	if len(col.tasks) == 0 {
		empty := "  (empty)"
		if b.snap.Loading {
			empty = "  loading..."
		}
		parts = append(parts, dimStyle.Width(width).Render(empty))
	} else {
		for rowIdx := start; rowIdx < end; rowIdx++ {
			t := col.tasks[rowIdx]
			active := colIdx == b.activeCol && rowIdx == b.activeRow
			parts = append(parts, b.renderCard(t, active, width))
		}
	}

	if end < len(col.tasks) {
		remaining := len(col.tasks) - end
		indicator := fmt.Sprintf("  ↓ %d more", remaining)
		parts = append(parts, dimStyle.Width(width).Render(truncate(indicator, width)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (b *Board) renderCard(t *task.Task, active bool, width int) string {
	content := strings.Join(b.cardContentLines(t, width), "\n")

	style := cardStyle
	if board.IsOverdue(t, b.now()) {
		style = overdueCardStyle
	}
	if active {
		style = activeCardStyle
	}

	return style.Width(width - 2).Render(content) //nolint:mnd // border width
}

func (b *Board) cardHeight(t *task.Task, width int) int {
	return len(b.cardContentLines(t, width)) + 2 //nolint:mnd // top and bottom borders
}

func (b *Board) cardContentLines(t *task.Task, width int) []string {
	const cardChrome = 4 // border (2) + padding (2)
	cardWidth := width - cardChrome
	if cardWidth < 1 {
		cardWidth = 1
	}

	var lines []string
	for _, l := range wrapTitle(t.Title, cardWidth, b.opts.TitleLines) {
		lines = append(lines, titleStyle.Render(l))
	}

	meta := priorityStyle(t.Priority).Render(string(t.Priority))
	if d := date.String(t.Deadline); d != "" {
		if board.IsOverdue(t, b.now()) {
			meta += "  " + errorStyle.Render("overdue "+humanDuration(b.now().Sub(*t.Deadline)))
		} else {
			meta += "  " + dimStyle.Render("due "+d)
		}
	}
	lines = append(lines, meta)

	var who []string
	if name := t.AssigneeName(); name != "" {
		who = append(who, dimStyle.Render("@"+truncate(name, cardWidth/2))) //nolint:mnd // name gets at most half
	}
	for _, tg := range t.Tags {
		who = append(who, tagStyle(tg).Render("#"+tg))
	}
	if len(who) > 0 {
		lines = append(lines, truncateStyled(strings.Join(who, " "), cardWidth))
	}
	return lines
}

// wrapTitle splits a title across maxLines lines, word-wrapping at word
// boundaries. Each line is at most maxWidth characters.
func wrapTitle(title string, maxWidth, maxLines int) []string {
	if maxLines < 1 {
		maxLines = 1
	}
	if lipgloss.Width(title) <= maxWidth || maxLines == 1 {
		return []string{truncate(title, maxWidth)}
	}

	words := strings.Fields(title)
	lines := make([]string, 0, maxLines)
	var current strings.Builder

	for i, word := range words {
		if current.Len() == 0 {
			current.WriteString(word)
			continue
		}
		if lipgloss.Width(current.String())+1+lipgloss.Width(word) <= maxWidth {
			current.WriteByte(' ')
			current.WriteString(word)
		} else {
			lines = append(lines, truncate(current.String(), maxWidth))
			current.Reset()
			current.WriteString(word)
			if len(lines) == maxLines-1 {
				// Last line: append all remaining words.
				for _, w := range words[i+1:] {
					current.WriteByte(' ')
					current.WriteString(w)
				}
				break
			}
		}
	}
	if current.Len() > 0 {
		lines = append(lines, truncate(current.String(), maxWidth))
	}
	return lines
}

// errorText is the toast shown above the status bar: the last action's
// error, else any partial-load errors.
func (b *Board) errorText() string {
	if b.err != nil {
		return b.err.Error()
	}
	if len(b.snap.Errors) == 0 {
		return ""
	}
	parts := make([]string, 0, len(b.snap.Errors))
	for _, e := range b.snap.Errors {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

func (b *Board) renderStatusBar() string {
	name := b.opts.BoardName
	if name == "" {
		name = "taskboard"
	}
	parts := []string{" " + name}
	if s := b.snap.Session; s != nil {
		who := s.UserName
		if who == "" {
			who = s.UserID
		}
		parts = append(parts, "@"+who)
	}
	count := strconv.Itoa(len(b.tasks)) + " tasks"
	if len(b.tasks) != len(b.snap.Tasks) {
		count = fmt.Sprintf("%d/%d tasks", len(b.tasks), len(b.snap.Tasks))
	}
	parts = append(parts, count)
	if f := b.filterLabel(); f != "" {
		parts = append(parts, f)
	}
	if b.snap.Loading {
		parts = append(parts, "loading...")
	} else if b.snap.State == taskdata.Partial {
		parts = append(parts, "partial")
	}

	help := make([]string, 0, len(keys.statusHelp()))
	for _, k := range keys.statusHelp() {
		h := k.Help()
		help = append(help, h.Key+":"+h.Desc)
	}
	parts = append(parts, strings.Join(help, " "))

	status := truncate(strings.Join(parts, " | "), b.width)

	if msg := b.errorText(); msg != "" {
		style := errorStyle
		if b.err == nil || isBoundary(b.err) {
			style = warnStyle
		}
		return style.Render(truncate("Error: "+msg, b.width)) + "\n" + statusBarStyle.Render(status)
	}
	return statusBarStyle.Render(status)
}

func (b *Board) filterLabel() string {
	var f []string
	if b.criteria.Priority != "" {
		f = append(f, "priority="+string(b.criteria.Priority))
	}
	if b.criteria.Tag != "" {
		f = append(f, "tag="+b.criteria.Tag)
	}
	if b.criteria.AssignedTo != "" {
		f = append(f, "mine")
	}
	if len(f) == 0 {
		return ""
	}
	return "filter: " + strings.Join(f, ",")
}

func (b *Board) viewDeleteConfirm() string {
	content := errorStyle.Render("Delete task?") + "\n\n" +
		fmt.Sprintf("  %s: %s", task.ShortID(b.deleteID), b.deleteTitle) + "\n\n" +
		dimStyle.Render("y:yes  n:no")

	return dialogStyle.Render(content)
}

func (b *Board) viewDetail() string {
	t := b.selectedTask()
	if t == nil {
		return b.viewBoard()
	}
	now := b.now()

	field := func(label, value string) string {
		return fmt.Sprintf("  %-10s %s", label+":", value)
	}
	deadline := date.String(t.Deadline)
	switch {
	case deadline == "":
		deadline = dimStyle.Render("--")
	case board.IsOverdue(t, now):
		deadline = errorStyle.Render(deadline + " (overdue)")
	}
	assignee := t.AssigneeName()
	if assignee == "" {
		assignee = dimStyle.Render("--")
	}
	tags := dimStyle.Render("--")
	if len(t.Tags) > 0 {
		styled := make([]string, 0, len(t.Tags))
		for _, tg := range t.Tags {
			styled = append(styled, tagStyle(tg).Render(tg))
		}
		tags = strings.Join(styled, ", ")
	}

	lines := []string{
		titleStyle.Render(t.Title),
		"",
		field("ID", t.ID),
		field("Status", string(t.Status)),
		field("Priority", priorityStyle(t.Priority).Render(string(t.Priority))),
		field("Assignee", assignee),
		field("Tags", tags),
		field("Deadline", deadline),
		field("Created", t.CreatedAt.UTC().Format("2006-01-02 15:04")+" ("+humanDuration(now.Sub(t.CreatedAt))+" ago)"),
	}
	if strings.TrimSpace(t.Description) != "" {
		const descPad = 8
		lines = append(lines, "", strings.TrimRight(output.Markdown(t.Description, max(20, b.width-descPad)), "\n")) //nolint:mnd // min wrap width
	}
	lines = append(lines, "", dimStyle.Render("[:back  ]:advance  d:del  enter/q:close"))

	content := strings.Join(lines, "\n")
	if b.err != nil {
		content += "\n" + errorStyle.Render(b.err.Error())
	}
	return dialogStyle.Render(content)
}

func truncate(s string, maxLen int) string {
	if maxLen < 4 { //nolint:mnd // minimum length for truncation
		maxLen = 4
	}
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	// Slice by runes to avoid breaking multi-byte UTF-8 characters.
	runes := []rune(s)
	target := maxLen - 3 //nolint:mnd // room for "..."
	if target > len(runes) {
		target = len(runes)
	}
	for target > 0 && lipgloss.Width(string(runes[:target])) > maxLen-3 {
		target--
	}
	return string(runes[:target]) + "..."
}

// truncateStyled cuts an already styled line to width without splitting
// escape sequences.
func truncateStyled(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

// humanDuration formats a duration as a compact human-readable string.
// Examples: "<1m", "5m", "2h", "3d", "2w", "3mo", "1y".
func humanDuration(d time.Duration) string {
	const (
		day   = 24 * time.Hour
		week  = 7 * day
		month = 30 * day
		year  = 365 * day
	)
	if d < 0 {
		d = -d
	}

	switch {
	case d < time.Minute:
		return "<1m"
	case d < time.Hour:
		return strconv.Itoa(int(d.Minutes())) + "m"
	case d < day:
		return strconv.Itoa(int(d.Hours())) + "h"
	case d < week:
		return strconv.Itoa(int(d/day)) + "d"
	case d < month:
		return strconv.Itoa(int(d/week)) + "w"
	case d < year:
		return strconv.Itoa(int(d/month)) + "mo"
	default:
		return strconv.Itoa(int(d/year)) + "y"
	}
}
