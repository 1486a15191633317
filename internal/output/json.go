package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/twiced-technology-gmbh/taskboard/internal/clierr"
)

// JSON writes data as indented JSON to the given writer.
func JSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// ErrorResponse is the JSON envelope for a failed command.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// NewErrorResponse describes err. Errors without a code are internal.
func NewErrorResponse(err error) ErrorResponse {
	var cliErr *clierr.Error
	if errors.As(err, &cliErr) {
		return ErrorResponse{Error: cliErr.Message, Code: cliErr.Code, Details: cliErr.Details}
	}
	return ErrorResponse{Error: err.Error(), Code: clierr.InternalError}
}

// JSONError writes err as an ErrorResponse. Write failures are ignored
// since the process is about to exit anyway.
func JSONError(w io.Writer, err error) {
	_ = JSON(w, NewErrorResponse(err))
}

// BatchResult is the outcome for one id of a multi-id command.
type BatchResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// NewBatchResult records the outcome of the operation on id.
func NewBatchResult(id string, err error) BatchResult {
	if err == nil {
		return BatchResult{ID: id, OK: true}
	}
	var cliErr *clierr.Error
	if errors.As(err, &cliErr) {
		return BatchResult{ID: id, Error: cliErr.Message, Code: cliErr.Code}
	}
	return BatchResult{ID: id, Error: err.Error()}
}
