package rules

import "strings"

// token is one whitespace-delimited run of non-whitespace characters,
// with its 1-based rune column within the owning logicalLine's content.
type token struct {
	text string
	col  int
}

// logicalLine is one non-blank, non-whole-line-comment line of a rules
// file, with any inline comment already stripped.
type logicalLine struct {
	number   int
	raw      string // full original line text, for error reporting
	content  string // raw with any trailing comment removed
	indented bool   // true if the line began with a space or tab
	tokens   []token
}

// tokenizeLines splits src into logical lines, dropping blank lines and
// whole-line comments, and stripping inline comments (a '#' preceded by
// whitespace) from the rest.
func tokenizeLines(src string) []logicalLine {
	var out []logicalLine

	rawLines := strings.Split(src, "\n")
	for i, raw := range rawLines {
		raw = strings.TrimRight(raw, "\r")
		lineNo := i + 1

		fields := splitFields(raw)
		cut := len(fields)
		for idx, f := range fields {
			if strings.HasPrefix(f.text, "#") {
				cut = idx
				break
			}
		}
		fields = fields[:cut]
		if len(fields) == 0 {
			continue
		}

		content := contentUpTo(raw, fields)
		indented := len(raw) > 0 && isSpace(rune(raw[0]))

		out = append(out, logicalLine{
			number:   lineNo,
			raw:      raw,
			content:  content,
			indented: indented,
			tokens:   fields,
		})
	}

	return out
}

// contentUpTo returns the prefix of raw ending just after the last
// surviving field, preserving column alignment with raw (needed for
// caret-accurate error reporting and for locating the remainder of a
// clause line after its fixed-position tokens).
func contentUpTo(raw string, fields []token) string {
	last := fields[len(fields)-1]
	runes := []rune(raw)
	end := last.col - 1 + len([]rune(last.text))
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[:end])
}

func splitFields(raw string) []token {
	var out []token
	runes := []rune(raw)

	i := 0
	for i < len(runes) {
		if isSpace(runes[i]) {
			i++
			continue
		}
		start := i
		for i < len(runes) && !isSpace(runes[i]) {
			i++
		}
		out = append(out, token{text: string(runes[start:i]), col: start + 1})
	}

	return out
}

func isSpace(r rune) bool { return r == ' ' || r == '\t' }

// substringFromCol returns the suffix of content starting at the 1-based
// rune column col.
func substringFromCol(content string, col int) string {
	runes := []rune(content)
	if col-1 >= len(runes) || col < 1 {
		return ""
	}
	return string(runes[col-1:])
}
