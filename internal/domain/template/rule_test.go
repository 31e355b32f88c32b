package template

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRule_AllowedLines(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		want Allowed
	}{
		{name: "no rule", rule: nil, want: Allowed{Any: true}},
		{name: "variant without allowedOn", rule: Rule{{TopLevel: true}}, want: Allowed{Any: true}},
		{name: "task only", rule: Rule{{AllowedOn: []LineKind{LineTask}}}, want: Allowed{Task: true}},
		{name: "list only", rule: Rule{{AllowedOn: []LineKind{LineList}}}, want: Allowed{List: true}},
		{
			name: "union across variants",
			rule: Rule{{AllowedOn: []LineKind{LineTask}}, {AllowedOn: []LineKind{LineList}}},
			want: Allowed{Task: true, List: true},
		},
		{
			name: "any dominates",
			rule: Rule{{AllowedOn: []LineKind{LineTask}}, {AllowedOn: []LineKind{LineAny}}},
			want: Allowed{Any: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.rule.AllowedLines())
		})
	}
}

func TestVariant_AllowsLine(t *testing.T) {
	v := Variant{AllowedOn: []LineKind{LineTask}}
	require.True(t, v.AllowsLine(LineTask))
	require.False(t, v.AllowsLine(LineList))
	require.False(t, v.AllowsLine(LineNone))

	require.True(t, Variant{}.AllowsLine(LineNone))
	require.True(t, Variant{AllowedOn: []LineKind{LineAny}}.AllowsLine(LineList))
}

func TestParseID(t *testing.T) {
	ns, key, err := ParseID("agile.board.column")
	require.NoError(t, err)
	require.Equal(t, "agile", ns)
	require.Equal(t, "board.column", key)

	for _, bad := range []string{"", "agile", ".epic", "agile."} {
		_, _, err := ParseID(bad)
		require.ErrorIs(t, err, ErrInvalidID, bad)
	}

	require.Equal(t, "column", LastSegment("agile.board.column"))
	require.Equal(t, "agile", LastSegment("agile"))
}

func TestParams(t *testing.T) {
	p := Params{"title": "x", "__record": 42, "count": 3}

	require.Equal(t, "3", p.String("count"))
	require.Equal(t, "", p.String("missing"))
	require.Equal(t, Params{"title": "x", "count": 3}, p.WithoutScratch())
	require.Equal(t, []string{"__record", "count", "title"}, p.Keys())

	merged := p.Merge(Params{"title": "y"})
	require.Equal(t, "y", merged.String("title"))
	require.Equal(t, "x", p.String("title"), "merge must not mutate the receiver")
}

func TestInsertError(t *testing.T) {
	cause := &RulesViolationError{Messages: []string{"requires a parent"}}
	err := &InsertError{Code: CodeParentMissing, TemplateID: "agile.story", Message: "needs epic", Err: cause}

	require.Equal(t, "PARENT_MISSING [agile.story]: needs epic", err.Error())
	require.True(t, IsCode(err, CodeParentMissing))
	require.False(t, IsCode(err, CodeRenderFailed))

	var rv *RulesViolationError
	require.ErrorAs(t, err, &rv)
	require.Equal(t, "template not allowed here: requires a parent", rv.Error())
}
