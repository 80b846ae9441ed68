// Package match implements the matching engine: evaluating a rule's match
// clauses in order against a message Context, short-circuiting on the
// first clause that fails.
//
// A failed clause's mutations are NOT rolled back. If `arg rewrite`
// clause 2 of a rule runs and then clause 3 fails the rule, the
// rewritten field stays rewritten and the next rule sees it. This
// matches the original plumber's behavior and is documented, not
// accidental; see the orchestrator package for how that interacts with
// rule ordering.
package match

import (
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/mario-plumb/mario/internal/message"
	"github.com/mario-plumb/mario/internal/mime"
	"github.com/mario-plumb/mario/internal/rules"
	"github.com/mario-plumb/mario/internal/template"
)

// matchTimeout bounds a single regexp2 match, guarding against
// catastrophic backtracking in a user-authored pattern.
const matchTimeout = 2 * time.Second

// Engine evaluates rules against a message Context. It caches compiled
// patterns across calls, so a long-lived Engine should be reused across
// an entire plumbing run rather than constructed per rule.
type Engine struct {
	classifier mime.Classifier

	mu    sync.Mutex
	cache map[string]*regexp2.Regexp
}

// New returns an Engine backed by classifier, used for `arg istype`
// clauses.
func New(classifier mime.Classifier) *Engine {
	return &Engine{
		classifier: classifier,
		cache:      make(map[string]*regexp2.Regexp),
	}
}

// EvaluateRule runs rule's match clauses in order against ctx, mutating
// ctx in place as `arg rewrite` clauses succeed. It returns the capture
// tuple accumulated from every successful `arg matches` clause, each
// clause appending its groups in clause order (nil if none ran), whether every clause matched, and any hard error (a
// malformed pattern, a BadReference from an unresolved template). A
// clause that simply fails to match is not an error: it yields
// (_, false, nil).
func (e *Engine) EvaluateRule(rule rules.Rule, ctx *message.Context) (message.Captures, bool, error) {
	var captures message.Captures

	for _, clause := range rule.MatchClauses {
		switch c := clause.(type) {
		case rules.KindIs:
			if ctx.Kind() != c.Want {
				return captures, false, nil
			}

		case rules.ArgIs:
			value, err := template.Expand(c.Template, ctx, captures)
			if err != nil {
				return captures, false, err
			}
			if !containsString(c.Choices, value) {
				return captures, false, nil
			}

		case rules.ArgMatches:
			value, err := template.Expand(c.Template, ctx, captures)
			if err != nil {
				return captures, false, err
			}
			got, ok, err := e.firstMatch(c.Patterns, value)
			if err != nil {
				return captures, false, err
			}
			if !ok {
				return captures, false, nil
			}
			captures = append(captures, got...)

		case rules.ArgIsType:
			value, err := template.Expand(c.Template, ctx, captures)
			if err != nil {
				return captures, false, err
			}
			got, ok := e.classify(ctx, value)
			if !ok {
				return captures, false, nil
			}
			if _, matched, err := e.firstMatch(c.Patterns, got); err != nil {
				return captures, false, err
			} else if !matched {
				return captures, false, nil
			}

		case rules.ArgRewrite:
			value, err := template.Expand(c.Template, ctx, captures)
			if err != nil {
				return captures, false, err
			}
			ctx.Set(c.Field, applySubstitutions(value, c.Substitutions))

		default:
			return captures, false, nil
		}
	}

	return captures, true, nil
}

// firstMatch tries each pattern in order against value and returns the
// capture groups of the first one that matches. This "first success"
// semantics resolves an ambiguity in the original implementation where
// multiple patterns could match and only the first one's groups were
// ever used; DESIGN.md ("Open Question decisions") records the choice.
func (e *Engine) firstMatch(patterns []string, value string) (message.Captures, bool, error) {
	for _, pattern := range patterns {
		re, err := e.compile(pattern)
		if err != nil {
			return nil, false, err
		}

		m, err := re.FindStringMatch(value)
		if err != nil {
			return nil, false, err
		}
		if m == nil {
			continue
		}

		return groupsToCaptures(m), true, nil
	}
	return nil, false, nil
}

// groupsToCaptures returns the explicit capture groups (index 1+),
// skipping the whole match at index 0, matching
// praetorian-inc/titus's pkg/matcher/regexp.go. A pattern with no
// explicit groups falls back to group 0 so a plain literal match still
// yields something for {0}.
func groupsToCaptures(m *regexp2.Match) message.Captures {
	groups := m.Groups()
	start := 1
	if len(groups) <= 1 {
		start = 0
	}

	caps := make(message.Captures, 0, len(groups)-start)
	for i := start; i < len(groups); i++ {
		g := groups[i]
		if len(g.Captures) == 0 {
			caps = append(caps, "")
			continue
		}
		caps = append(caps, g.Captures[len(g.Captures)-1].String())
	}
	return caps
}

// compile compiles pattern, preferring RE2 mode (linear time, no
// catastrophic backtracking) and falling back to full Perl-compatible
// mode for patterns that use features RE2 rejects (lookaround,
// backreferences). A bounded MatchTimeout guards the fallback path
// against the backtracking RE2 mode exists to avoid.
func (e *Engine) compile(pattern string) (*regexp2.Regexp, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if re, ok := e.cache[pattern]; ok {
		return re, nil
	}

	re, err := regexp2.Compile(pattern, regexp2.RE2)
	if err != nil {
		re, err = regexp2.Compile(pattern, regexp2.None)
		if err != nil {
			return nil, err
		}
	}
	re.MatchTimeout = matchTimeout

	e.cache[pattern] = re
	return re, nil
}

// classify resolves an `arg istype` target to a MIME type: sniffed from
// raw bytes for a Raw-kind message, otherwise guessed from the
// expansion's path/extension with an HTTP HEAD lookup as a last resort.
func (e *Engine) classify(ctx *message.Context, expanded string) (string, bool) {
	if ctx.Kind() == message.Raw {
		return e.classifier.GuessFromBuffer(ctx.Bytes())
	}

	if t, ok := e.classifier.GuessFromPath(expanded); ok {
		return t, true
	}
	return e.classifier.HeadLookup(expanded)
}

func applySubstitutions(value string, subs []rules.Substitution) string {
	for _, s := range subs {
		if s.Needle == "" {
			continue
		}
		value = strings.ReplaceAll(value, s.Needle, s.Replacement)
	}
	return value
}

func containsString(choices []string, value string) bool {
	for _, c := range choices {
		if c == value {
			return true
		}
	}
	return false
}
