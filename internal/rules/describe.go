package rules

// Describe renders p into a plain, YAML-friendly structure for the
// CLI's `--explain` dump: concrete clause interfaces don't marshal
// usefully on their own, so this flattens each clause into a tagged map
// with a `kind` discriminator.
func (p *Program) Describe() []map[string]any {
	out := make([]map[string]any, 0, len(p.Rules))
	for _, rule := range p.Rules {
		out = append(out, map[string]any{
			"name":    rule.Name,
			"match":   describeMatchClauses(rule.MatchClauses),
			"actions": describeActionClauses(rule.ActionClauses),
		})
	}
	return out
}

func describeMatchClauses(clauses []MatchClause) []map[string]any {
	out := make([]map[string]any, 0, len(clauses))
	for _, c := range clauses {
		switch v := c.(type) {
		case KindIs:
			out = append(out, map[string]any{"kind": "kind_is", "want": v.Want.String()})
		case ArgIs:
			out = append(out, map[string]any{"kind": "arg_is", "template": v.Template, "choices": v.Choices})
		case ArgMatches:
			out = append(out, map[string]any{"kind": "arg_matches", "template": v.Template, "patterns": v.Patterns})
		case ArgIsType:
			out = append(out, map[string]any{"kind": "arg_istype", "template": v.Template, "patterns": v.Patterns})
		case ArgRewrite:
			subs := make([]map[string]any, 0, len(v.Substitutions))
			for _, s := range v.Substitutions {
				subs = append(subs, map[string]any{"needle": s.Needle, "replacement": s.Replacement})
			}
			out = append(out, map[string]any{
				"kind": "arg_rewrite", "template": v.Template, "field": v.Field, "substitutions": subs,
			})
		}
	}
	return out
}

func describeActionClauses(clauses []ActionClause) []map[string]any {
	out := make([]map[string]any, 0, len(clauses))
	for _, c := range clauses {
		switch v := c.(type) {
		case ActionRun:
			out = append(out, map[string]any{"kind": "plumb_run", "template": v.Template})
		case ActionDownload:
			out = append(out, map[string]any{"kind": "plumb_download", "template": v.Template})
		}
	}
	return out
}
