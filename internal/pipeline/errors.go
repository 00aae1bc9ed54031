package pipeline

import (
	"fmt"
	"strings"
)

// ParseError reports that the uploaded bytes could not be read as a
// delimited table with either the sniffed or the fallback delimiter.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("the file could not be read as a delimited table: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError reports that one or more required field groups had no
// matching header. Its message is user-facing and must stay actionable:
// it lists what was found, what was expected, and how to fix it.
type SchemaError struct {
	// Found holds the headers discovered in the file, trimmed but in
	// their original casing.
	Found []string
	// Missing holds the canonical names of the unmatched field groups.
	Missing []string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("unrecognized columns\n\n")
	fmt.Fprintf(&b, "Columns found in your file: %s\n\n", strings.Join(e.Found, ", "))
	b.WriteString("Expected columns (at least one per group):\n")
	for _, group := range fieldGroups {
		fmt.Fprintf(&b, "- %s: %s\n", group.Name, strings.Join(group.Aliases, ", "))
	}
	fmt.Fprintf(&b, "\nMissing group(s): %s\n", strings.Join(e.Missing, ", "))
	b.WriteString("\nTip: rename your columns in your spreadsheet to match one of the variants above, then upload again.")
	return b.String()
}

// UserError is the single error shape the transport layer renders in
// place of results. It wraps the underlying parse or schema failure so
// callers can still inspect the cause.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string { return e.Message }

func (e *UserError) Unwrap() error { return e.Err }

func newUserError(err error) *UserError {
	return &UserError{Message: err.Error(), Err: err}
}
