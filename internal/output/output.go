// Package output handles formatting CLI output as table, JSON, or compact.
package output

import "os"

// Format represents an output format.
type Format int

const (
	// FormatAuto uses the default format (table).
	FormatAuto Format = iota
	FormatJSON
	FormatTable
	// FormatCompact prints one line per record.
	FormatCompact
)

// EnvOutput selects the output format when no flag does.
const EnvOutput = "TASKBOARD_OUTPUT"

// ParseFormat maps a format name to a Format. Unknown names yield FormatAuto.
func ParseFormat(name string) Format {
	switch name {
	case "json":
		return FormatJSON
	case "compact", "oneline":
		return FormatCompact
	case "table":
		return FormatTable
	default:
		return FormatAuto
	}
}

// Detect picks the format from flags, then TASKBOARD_OUTPUT, then table.
// JSON wins over compact, which wins over table.
func Detect(jsonFlag, tableFlag, compactFlag bool) Format {
	switch {
	case jsonFlag:
		return FormatJSON
	case compactFlag:
		return FormatCompact
	case tableFlag:
		return FormatTable
	}
	if f := ParseFormat(os.Getenv(EnvOutput)); f != FormatAuto {
		return f
	}
	return FormatTable
}
