package rules

import (
	"fmt"
	"strings"
)

// ParseError reports a malformed rules file: the offending line's text
// plus line/column, so callers can render a caret indicator the way the
// original plumber's parser does.
type ParseError struct {
	Line    int
	Col     int
	Text    string
	Message string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (line %d, column %d)", e.Message, e.Line, e.Col)
}

// Caret renders the two-line "offending text + caret" indicator described
// in the rules-parser spec: a tab, (col-1) spaces, then a caret under the
// offending column.
func (e *ParseError) Caret() string {
	if e.Line == 0 {
		return ""
	}
	col := e.Col
	if col < 1 {
		col = 1
	}
	return e.Text + "\n" + "\t" + strings.Repeat(" ", col-1) + "^"
}

func parseErr(ln logicalLine, col int, format string, args ...any) *ParseError {
	return &ParseError{
		Line:    ln.number,
		Col:     col,
		Text:    ln.raw,
		Message: fmt.Sprintf(format, args...),
	}
}

func parseErrAt(lineNo, col int, text, format string, args ...any) *ParseError {
	return &ParseError{
		Line:    lineNo,
		Col:     col,
		Text:    text,
		Message: fmt.Sprintf(format, args...),
	}
}
