// Package rules implements the rules-file grammar: a line-oriented,
// indentation-aware DSL that compiles into an immutable Program of Rules.
package rules

import "github.com/mario-plumb/mario/internal/message"

// MatchClause is the tagged variant of the five match-clause shapes a Rule
// can carry. Exactly one concrete type implements it per clause.
type MatchClause interface {
	isMatchClause()
}

// KindIs matches iff the message's Kind equals Want. At most one may
// appear per rule, and if present it must be the first clause.
type KindIs struct {
	Want message.Kind
}

func (KindIs) isMatchClause() {}

// ArgIs succeeds iff the expansion of Template equals one of Choices.
type ArgIs struct {
	Template string
	Choices  []string
}

func (ArgIs) isMatchClause() {}

// ArgMatches succeeds iff any pattern in Patterns matches the expansion of
// Template; matching stops at the first pattern that matches (first-match
// semantics, see DESIGN.md's "Open Question decisions" for why).
type ArgMatches struct {
	Template string
	Patterns []string
}

func (ArgMatches) isMatchClause() {}

// ArgIsType succeeds iff the classified MIME type of the expansion of
// Template matches any pattern in Patterns.
type ArgIsType struct {
	Template string
	Patterns []string
}

func (ArgIsType) isMatchClause() {}

// ArgRewrite folds Substitutions left to right over the expansion of
// Template and stores the result into message[Field]. Never fails.
type ArgRewrite struct {
	Template      string
	Field         string
	Substitutions []Substitution
}

func (ArgRewrite) isMatchClause() {}

// Substitution is one `needle,replacement` pair of an `arg rewrite`
// clause.
type Substitution struct {
	Needle      string
	Replacement string
}

// ActionClause is the tagged variant of the two action-clause shapes.
type ActionClause interface {
	isActionClause()
}

// ActionRun expands Template and spawns it as a subprocess.
type ActionRun struct {
	Template string
}

func (ActionRun) isActionClause() {}

// ActionDownload expands Template as a URL, downloads it to a temp file,
// and records the path in message["filename"].
type ActionDownload struct {
	Template string
}

func (ActionDownload) isActionClause() {}

// Rule is a named, ordered group of clauses under a `[name]` heading.
type Rule struct {
	Name          string
	MatchClauses  []MatchClause
	ActionClauses []ActionClause
}

// Program is an ordered sequence of Rules, parsed once and thereafter
// immutable.
type Program struct {
	Rules []Rule
}
