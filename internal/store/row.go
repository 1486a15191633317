package store

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Row is one record keyed by column name.
type Row map[string]any

// String returns the column as a string. Missing and NULL columns yield "".
func (r Row) String(column string) string {
	switch v := r[column].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case [16]byte:
		// pgx decodes uuid columns to raw bytes.
		return uuid.UUID(v).String()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Strings returns the column as a string list. Backends without array
// types store lists as JSON text, which is decoded here.
func (r Row) Strings(column string) []string {
	switch v := r[column].(type) {
	case []string:
		return append([]string{}, v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		return decodeList([]byte(v))
	case []byte:
		return decodeList(v)
	}
	return []string{}
}

func decodeList(b []byte) []string {
	var out []string
	if err := json.Unmarshal(b, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}
