// Package template expands the `{name}`/`{N}` placeholders used in rule
// clause templates against a message context and a capture tuple.
package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mario-plumb/mario/internal/message"
)

// BadReferenceError is returned when a template references a placeholder
// that does not exist at expansion time: an out-of-range capture index, or
// a message field that was never set.
type BadReferenceError struct {
	Template    string
	Placeholder string
}

func (e *BadReferenceError) Error() string {
	return fmt.Sprintf("undefined reference {%s} in template %q", e.Placeholder, e.Template)
}

// Expand performs single-pass substitution of every `{...}` placeholder in
// template against ctx and captures. `{` and `}` cannot be escaped; this
// mirrors the original rules language and is a known limitation, not a bug.
func Expand(tmpl string, ctx *message.Context, captures message.Captures) (string, error) {
	var out strings.Builder
	out.Grow(len(tmpl))

	i := 0
	for i < len(tmpl) {
		ch := tmpl[i]
		if ch != '{' {
			out.WriteByte(ch)
			i++
			continue
		}

		end := strings.IndexByte(tmpl[i:], '}')
		if end == -1 {
			// No closing brace: treat the rest of the template literally,
			// matching the original's single-pass, unescaped grammar.
			out.WriteString(tmpl[i:])
			break
		}
		end += i

		name := tmpl[i+1 : end]
		value, err := resolve(name, ctx, captures)
		if err != nil {
			return "", &BadReferenceError{Template: tmpl, Placeholder: name}
		}
		out.WriteString(value)
		i = end + 1
	}

	return out.String(), nil
}

func resolve(name string, ctx *message.Context, captures message.Captures) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty placeholder")
	}

	if n, err := strconv.Atoi(name); err == nil && n >= 0 {
		v, ok := captures.Get(n)
		if !ok {
			return "", fmt.Errorf("capture index %d out of range", n)
		}
		return v, nil
	}

	v, ok := ctx.Get(name)
	if !ok {
		return "", fmt.Errorf("field %q not set", name)
	}
	return v, nil
}

// ListReferences returns every raw placeholder name referenced by tmpl, in
// order of appearance, including duplicates. Used to log expanded
// bindings before an action is invoked.
func ListReferences(tmpl string) []string {
	var refs []string

	i := 0
	for i < len(tmpl) {
		start := strings.IndexByte(tmpl[i:], '{')
		if start == -1 {
			break
		}
		start += i

		end := strings.IndexByte(tmpl[start:], '}')
		if end == -1 {
			break
		}
		end += start

		refs = append(refs, tmpl[start+1:end])
		i = end + 1
	}

	return refs
}
