package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mario-plumb/mario/internal/message"
)

func TestParse_SimpleRule(t *testing.T) {
	src := "[simple]\n" +
		"arg is {data} foo\n" +
		"plumb run echo {data}\n"

	prog, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, prog.Rules, 1)

	r := prog.Rules[0]
	assert.Equal(t, "simple", r.Name)
	require.Len(t, r.MatchClauses, 1)

	is, ok := r.MatchClauses[0].(ArgIs)
	require.True(t, ok, "MatchClauses[0] = %T, want ArgIs", r.MatchClauses[0])
	assert.Equal(t, "{data}", is.Template)
	assert.Equal(t, []string{"foo"}, is.Choices)

	require.Len(t, r.ActionClauses, 1)
	run, ok := r.ActionClauses[0].(ActionRun)
	require.True(t, ok)
	assert.Equal(t, "echo {data}", run.Template)
}

func TestParse_DataRewrittenToArgData(t *testing.T) {
	// Grounded on mario/tests.py data_object_rule: `data is foo` must be
	// indistinguishable, post-parse, from `arg is {data} foo`.
	src := "[data-rule]\n" +
		"data is foo\n" +
		"plumb run echo\n"

	prog, err := Parse(src)
	require.NoError(t, err)

	is, ok := prog.Rules[0].MatchClauses[0].(ArgIs)
	require.True(t, ok)
	assert.Equal(t, "{data}", is.Template)
}

func TestParse_MultipleMargsRule(t *testing.T) {
	// Grounded on mario/tests.py multiple_margs_rule: several match clauses
	// under one heading, each collected independently.
	src := "[multi]\n" +
		"arg is {data} foo\n" +
		"arg matches {data} ba+r\n" +
		"plumb run echo\n"

	prog, err := Parse(src)
	require.NoError(t, err)
	assert.Len(t, prog.Rules[0].MatchClauses, 2)
}

func TestParse_MultipleRules(t *testing.T) {
	src := "[one]\n" +
		"arg is {data} foo\n" +
		"plumb run echo one\n" +
		"[two]\n" +
		"arg is {data} bar\n" +
		"plumb run echo two\n"

	prog, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, prog.Rules, 2)
	assert.Equal(t, "one", prog.Rules[0].Name)
	assert.Equal(t, "two", prog.Rules[1].Name)
}

func TestParse_CommentImmunity(t *testing.T) {
	// Grounded on mario/tests.py rule_with_comment: both whole-line and
	// inline comments must vanish without affecting clause parsing.
	src := "# a whole-line comment\n" +
		"[commented] # trailing comment on the heading\n" +
		"arg is {data} foo # another trailing comment\n" +
		"plumb run echo {data}\n"

	prog, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, prog.Rules, 1)
	assert.Equal(t, "commented", prog.Rules[0].Name)

	is := prog.Rules[0].MatchClauses[0].(ArgIs)
	assert.Equal(t, []string{"foo"}, is.Choices)
}

func TestParse_LiberalWhitespace(t *testing.T) {
	// Grounded on mario/tests.py liberal_whitespace: runs of whitespace
	// collapse identically to single spaces.
	a := "[w]\narg is {data}    foo\nplumb run   echo   {data}\n"
	b := "[w]\narg is {data} foo\nplumb run echo {data}\n"

	pa, err := Parse(a)
	require.NoError(t, err)
	pb, err := Parse(b)
	require.NoError(t, err)

	assert.Equal(t, pb.Rules[0].ActionClauses[0], pa.Rules[0].ActionClauses[0])
}

func TestParse_UTF8Names(t *testing.T) {
	// Grounded on mario/tests.py rule_utf8_names.
	src := "[règle]\n" +
		"arg is {data} café\n" +
		"plumb run echo {data}\n"

	prog, err := Parse(src)
	require.NoError(t, err)
	assert.Equal(t, "règle", prog.Rules[0].Name)

	is := prog.Rules[0].MatchClauses[0].(ArgIs)
	assert.Equal(t, "café", is.Choices[0])
}

func TestParse_MultilinePatternList(t *testing.T) {
	src := "[multiline]\n" +
		"arg matches {data} foo\n" +
		"    bar\n" +
		"    baz\n" +
		"plumb run echo\n"

	prog, err := Parse(src)
	require.NoError(t, err)

	m := prog.Rules[0].MatchClauses[0].(ArgMatches)
	assert.Equal(t, []string{"foo", "bar", "baz"}, m.Patterns)
}

func TestParse_RewriteKeepsInternalSpaces(t *testing.T) {
	// Grounded on mario/tests.py CoreTest.test_arg_rewrite_simple, which
	// proves a substitution item such as "g,g jing" must survive with its
	// internal space intact rather than being split into two tokens.
	src := "[rewrite]\n" +
		"arg rewrite {data} oo,\n" +
		"    g,g jing\n" +
		"plumb run echo {data}\n"

	prog, err := Parse(src)
	require.NoError(t, err)

	rw := prog.Rules[0].MatchClauses[0].(ArgRewrite)
	assert.Equal(t, "data", rw.Field)
	require.Len(t, rw.Substitutions, 2)
	assert.Equal(t, Substitution{Needle: "oo", Replacement: ""}, rw.Substitutions[0])
	assert.Equal(t, Substitution{Needle: "g", Replacement: "g jing"}, rw.Substitutions[1])
}

func TestParse_KindClause(t *testing.T) {
	src := "[kinded]\n" +
		"kind is url\n" +
		"arg is {data} foo\n" +
		"plumb run echo\n"

	prog, err := Parse(src)
	require.NoError(t, err)

	k, ok := prog.Rules[0].MatchClauses[0].(KindIs)
	require.True(t, ok)
	assert.Equal(t, message.URL, k.Want)
}

func TestParse_KindClauseMustBeFirst(t *testing.T) {
	src := "[bad]\n" +
		"arg is {data} foo\n" +
		"kind is url\n" +
		"plumb run echo\n"

	_, err := Parse(src)
	require.Error(t, err)
}

func TestParse_EmptyFileIsError(t *testing.T) {
	_, err := Parse("")
	require.Error(t, err)
}

func TestParse_ZeroPatternArgMatchesIsError(t *testing.T) {
	src := "[bad]\narg matches {data}\nplumb run echo\n"
	_, err := Parse(src)
	require.Error(t, err)
}

func TestParse_RuleWithNoActionsIsError(t *testing.T) {
	src := "[bad]\narg is {data} foo\n"
	_, err := Parse(src)
	require.Error(t, err)
}

func TestParse_ParseErrorCaret(t *testing.T) {
	src := "not-a-heading\n"
	_, err := Parse(src)
	require.Error(t, err)

	pe, ok := err.(*ParseError)
	require.True(t, ok, "err = %T, want *ParseError", err)
	assert.NotEmpty(t, pe.Caret())
}
