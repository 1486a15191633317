package output

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

const markdownWidth = 80

// Markdown renders a task description for the terminal. Rendering failures
// fall back to the raw text.
func Markdown(src string, width int) string {
	style := "dark"
	if colorProfile == termenv.Ascii {
		style = "notty"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithColorProfile(colorProfile),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return plain(src)
	}
	out, err := r.Render(src)
	if err != nil {
		return plain(src)
	}
	return out
}

func plain(src string) string {
	return strings.TrimRight(src, "\n") + "\n"
}
