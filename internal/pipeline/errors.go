package pipeline

import (
	"fmt"
	"strings"
)

// ErrorKind classifies why a run aborted.
type ErrorKind string

// Error kinds.
const (
	// KindIngestion covers unreadable, empty, malformed or unsupported files.
	KindIngestion ErrorKind = "INGESTION"
	// KindSchema covers required columns that are missing or ambiguous.
	KindSchema ErrorKind = "SCHEMA"
)

// Error aborts a run. Reason is the user-facing message.
type Error struct {
	Kind    ErrorKind
	Reason  string
	Missing []string
	Found   []string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	if e.Err == nil {
		return fmt.Sprintf("pipeline: %s (%s)", e.Kind, e.Reason)
	}

	return fmt.Sprintf("pipeline: %s (%s): %v", e.Kind, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

func newError(kind ErrorKind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// Column hints shown with a missing-columns error.
const (
	leadColumnsHint       = "Status, Data da conversão:, Segmento/Categoria"
	conversionColumnsHint = "Tipo"
)

func missingColumnsReason(missing, found []string, hint string) string {
	return fmt.Sprintf(
		"required columns not found after normalization: %s. "+
			"Check the column names in your spreadsheet (%s or close variations). "+
			"Columns found in the file: %s",
		strings.Join(missing, ", "), hint, strings.Join(found, ", "),
	)
}
