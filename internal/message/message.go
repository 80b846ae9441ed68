// Package message defines the mutable context a rules program evaluates
// against: the payload, its Kind tag, and the well-known fields a rule's
// clauses read and write.
package message

import (
	"fmt"
	"net/url"
)

// Kind tags how the message payload should be interpreted.
type Kind int

const (
	// Raw designates an opaque byte blob whose type must be sniffed.
	Raw Kind = iota
	// URL designates that Data is a URL string.
	URL
)

// String renders the Kind the way rule files spell it ("url"/"raw").
func (k Kind) String() string {
	switch k {
	case URL:
		return "url"
	case Raw:
		return "raw"
	default:
		return "unknown"
	}
}

// ParseKind parses the "url"/"raw" token used in `kind is` clauses and on
// the CLI.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "url":
		return URL, nil
	case "raw":
		return Raw, nil
	default:
		return 0, fmt.Errorf("unknown kind %q, want %q or %q", s, URL, Raw)
	}
}

// Well-known field names. User-defined names assigned by `arg rewrite`
// clauses live alongside these in the same Context.
const (
	FieldData     = "data"
	FieldKind     = "kind"
	FieldNetloc   = "netloc"
	FieldNetpath  = "netpath"
	FieldFilename = "filename"
)

// Context is the mutable keyed store a rule's clauses read from and write
// to. Values are the raw []byte payload (kind=Raw), the Kind tag under
// "kind", or strings (everything else). A Context is owned exclusively by the one evaluation
// in progress; matching clauses mutate it in place and mutations from a
// clause that later fails are not rolled back (see the matching engine's
// package doc for why).
type Context struct {
	fields map[string]any
}

// NewURL builds a message Context for a URL payload. netloc and netpath
// are populated immediately from the URL's authority and path components,
// per the invariant that they must be set before rules run.
func NewURL(raw string) (*Context, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing message url: %w", err)
	}

	c := &Context{fields: make(map[string]any, 8)}
	c.fields[FieldData] = raw
	c.fields[FieldKind] = URL
	c.fields[FieldNetloc] = u.Host
	c.fields[FieldNetpath] = u.Path
	return c, nil
}

// NewRaw builds a message Context for an opaque byte payload.
func NewRaw(data []byte) *Context {
	c := &Context{fields: make(map[string]any, 4)}
	c.fields[FieldData] = data
	c.fields[FieldKind] = Raw
	return c
}

// Kind returns the message's Kind tag.
func (c *Context) Kind() Kind {
	k, _ := c.fields[FieldKind].(Kind)
	return k
}

// DataString returns the data field as a string. For kind=Raw this is a
// lossy conversion; `arg istype` on a Raw message sniffs the raw bytes
// via Bytes() instead.
func (c *Context) DataString() string {
	switch v := c.fields[FieldData].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

// Bytes returns the data field as raw bytes, converting a string payload
// if necessary.
func (c *Context) Bytes() []byte {
	switch v := c.fields[FieldData].(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	default:
		return nil
	}
}

// Get looks up a field by name, returning its string representation and
// whether it was present. Numeric capture indices are never stored here;
// see the Captures type for those.
func (c *Context) Get(name string) (string, bool) {
	v, ok := c.fields[name]
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	case Kind:
		return t.String(), true
	default:
		return fmt.Sprint(t), true
	}
}

// Set stores or overwrites a field, used by `arg rewrite` clauses and by
// the download action to record the temp file path.
func (c *Context) Set(name, value string) {
	c.fields[name] = value
}

// Clone returns a copy of the Context with its own field map, so Set on
// the clone does not affect the original; a []byte payload is shared,
// not copied. The orchestrator does not use
// this by default (spec.md documents that failed-clause mutations persist
// into the next rule), but it is exposed for a "staged" evaluator that
// wants clone-on-rule-entry, commit-on-success semantics instead.
func (c *Context) Clone() *Context {
	clone := &Context{fields: make(map[string]any, len(c.fields))}
	for k, v := range c.fields {
		clone.fields[k] = v
	}
	return clone
}
