package rules

import (
	"strings"

	"github.com/mario-plumb/mario/internal/message"
)

// Parse compiles rules-file source into a normalized Program. Parsing has
// no global state: two invocations on identical bytes yield identical
// programs (byte-for-byte, field order included).
//
// Every `data verb ...` clause is rewritten here to the equivalent
// `arg verb {data} ...` form, so downstream packages never see a `data`
// clause shape.
func Parse(src string) (*Program, error) {
	lines := tokenizeLines(src)
	if len(lines) == 0 {
		return nil, &ParseError{Message: "rules file contains no rules"}
	}

	var rules []Rule
	i := 0
	for i < len(lines) {
		rule, consumed, err := parseRule(lines, i)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
		i += consumed
	}

	if len(rules) == 0 {
		return nil, &ParseError{Message: "rules file contains no rules"}
	}

	return &Program{Rules: rules}, nil
}

func parseRule(lines []logicalLine, i int) (Rule, int, error) {
	name, err := parseHeading(lines[i])
	if err != nil {
		return Rule{}, 0, err
	}
	start := i
	i++

	var matchClauses []MatchClause

	if i < len(lines) && isKindLine(lines[i]) {
		k, err := parseKindClause(lines[i])
		if err != nil {
			return Rule{}, 0, err
		}
		matchClauses = append(matchClauses, KindIs{Want: k})
		i++
	}

	for i < len(lines) && isMatchOpeningLine(lines[i]) {
		if isKindLine(lines[i]) {
			return Rule{}, 0, parseErr(lines[i], 1, "kind clause must be the first clause in a rule")
		}
		clause, consumed, err := parseMatchClause(lines, i)
		if err != nil {
			return Rule{}, 0, err
		}
		matchClauses = append(matchClauses, clause)
		i += consumed
	}

	if i >= len(lines) || !isActionOpeningLine(lines[i]) {
		ln := lines[len(lines)-1]
		if i < len(lines) {
			ln = lines[i]
		}
		return Rule{}, 0, parseErr(ln, 1, "rule %q has no plumb actions", name)
	}

	var actionClauses []ActionClause
	for i < len(lines) && isActionOpeningLine(lines[i]) {
		ac, err := parseActionClause(lines[i])
		if err != nil {
			return Rule{}, 0, err
		}
		actionClauses = append(actionClauses, ac)
		i++
	}

	return Rule{Name: name, MatchClauses: matchClauses, ActionClauses: actionClauses}, i - start, nil
}

func parseHeading(ln logicalLine) (string, error) {
	content := strings.TrimSpace(ln.content)
	if !strings.HasPrefix(content, "[") || !strings.HasSuffix(content, "]") || len(content) < 2 {
		return "", parseErr(ln, 1, "expected a [rule name] heading")
	}
	inner := strings.TrimSpace(content[1 : len(content)-1])
	if inner == "" {
		return "", parseErr(ln, 1, "rule heading must not be empty")
	}
	if strings.ContainsAny(inner, " \t") {
		return "", parseErr(ln, 1, "rule name %q must not contain whitespace", inner)
	}
	if strings.ContainsAny(inner, "{}[]") {
		return "", parseErr(ln, 1, "rule name %q must not contain { } [ ]", inner)
	}
	return inner, nil
}

func isKindLine(ln logicalLine) bool {
	return len(ln.tokens) > 0 && ln.tokens[0].text == "kind"
}

func isMatchOpeningLine(ln logicalLine) bool {
	if len(ln.tokens) == 0 {
		return false
	}
	switch ln.tokens[0].text {
	case "arg", "data", "kind":
		return true
	default:
		return false
	}
}

func isActionOpeningLine(ln logicalLine) bool {
	return len(ln.tokens) > 0 && ln.tokens[0].text == "plumb"
}

func parseKindClause(ln logicalLine) (message.Kind, error) {
	if len(ln.tokens) != 3 || ln.tokens[1].text != "is" {
		return 0, parseErr(ln, 1, "expected 'kind is url' or 'kind is raw'")
	}
	k, err := message.ParseKind(ln.tokens[2].text)
	if err != nil {
		return 0, parseErr(ln, ln.tokens[2].col, "%s", err)
	}
	return k, nil
}

func parseMatchClause(lines []logicalLine, i int) (MatchClause, int, error) {
	ln := lines[i]
	tokens := ln.tokens
	object := tokens[0].text

	if len(tokens) < 2 {
		return nil, 0, parseErr(ln, 1, "expected a verb after %q", object)
	}
	verb := tokens[1].text
	switch verb {
	case "is", "istype", "matches", "rewrite":
	default:
		return nil, 0, parseErr(ln, tokens[1].col, "unknown verb %q", verb)
	}

	var variable string
	var restIdx int // index into tokens where pattern_list tokens begin

	if object == "data" {
		variable = "{data}"
		restIdx = 2
	} else {
		if len(tokens) < 3 {
			return nil, 0, parseErr(ln, 1, "expected a variable after %q %q", object, verb)
		}
		variable = tokens[2].text
		restIdx = 3
	}

	items := collectFirstLineItems(ln, tokens, restIdx, verb)

	consumed := 1
	for i+consumed < len(lines) && lines[i+consumed].indented {
		cont := lines[i+consumed]
		if verb == "rewrite" {
			items = append(items, strings.TrimSpace(cont.content))
		} else {
			for _, tk := range cont.tokens {
				items = append(items, tk.text)
			}
		}
		consumed++
	}

	clause, err := buildMatchClause(ln, verb, variable, items)
	if err != nil {
		return nil, 0, err
	}
	return clause, consumed, nil
}

func collectFirstLineItems(ln logicalLine, tokens []token, restIdx int, verb string) []string {
	if restIdx >= len(tokens) {
		return nil
	}

	if verb == "rewrite" {
		rest := strings.TrimSpace(substringFromCol(ln.content, tokens[restIdx].col))
		if rest == "" {
			return nil
		}
		return []string{rest}
	}

	var items []string
	for _, tk := range tokens[restIdx:] {
		items = append(items, tk.text)
	}
	return items
}

func buildMatchClause(ln logicalLine, verb, variable string, items []string) (MatchClause, error) {
	switch verb {
	case "is":
		if len(items) == 0 {
			return nil, parseErr(ln, 1, "arg is requires at least one choice")
		}
		return ArgIs{Template: variable, Choices: items}, nil
	case "matches":
		if len(items) == 0 {
			return nil, parseErr(ln, 1, "arg matches requires at least one pattern")
		}
		return ArgMatches{Template: variable, Patterns: items}, nil
	case "istype":
		if len(items) == 0 {
			return nil, parseErr(ln, 1, "arg istype requires at least one pattern")
		}
		return ArgIsType{Template: variable, Patterns: items}, nil
	case "rewrite":
		field := fieldNameFromTemplate(variable)
		if field == "" {
			return nil, parseErr(ln, 1, "arg rewrite target must be a single {name} reference, got %q", variable)
		}
		subs := make([]Substitution, 0, len(items))
		for _, it := range items {
			needle, repl := splitCSVPair(it)
			subs = append(subs, Substitution{Needle: needle, Replacement: repl})
		}
		return ArgRewrite{Template: variable, Field: field, Substitutions: subs}, nil
	default:
		return nil, parseErr(ln, 1, "unknown verb %q", verb)
	}
}

func fieldNameFromTemplate(variable string) string {
	if len(variable) < 3 || variable[0] != '{' || variable[len(variable)-1] != '}' {
		return ""
	}
	inner := variable[1 : len(variable)-1]
	if inner == "" || strings.ContainsAny(inner, "{}") {
		return ""
	}
	return inner
}

func splitCSVPair(s string) (needle, replacement string) {
	idx := strings.IndexByte(s, ',')
	if idx == -1 {
		return s, ""
	}
	return s[:idx], s[idx+1:]
}

func parseActionClause(ln logicalLine) (ActionClause, error) {
	tokens := ln.tokens
	if len(tokens) < 2 {
		return nil, parseErr(ln, 1, "expected 'plumb run' or 'plumb download'")
	}
	verb := tokens[1].text
	if len(tokens) < 3 {
		return nil, parseErr(ln, 1, "plumb %s requires an argument", verb)
	}

	argTokens := make([]string, 0, len(tokens)-2)
	for _, tk := range tokens[2:] {
		argTokens = append(argTokens, tk.text)
	}
	arg := strings.Join(argTokens, " ")

	switch verb {
	case "run":
		return ActionRun{Template: arg}, nil
	case "download":
		return ActionDownload{Template: arg}, nil
	default:
		return nil, parseErr(ln, tokens[1].col, "unknown plumb action %q", verb)
	}
}
