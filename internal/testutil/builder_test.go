package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func read(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestLine_String(t *testing.T) {
	tests := []struct {
		name string
		line Line
		want string
	}{
		{name: "open task", line: Task("ship"), want: "- [ ] ship"},
		{name: "done task", line: Task("ship", Done()), want: "- [x] ship"},
		{name: "nested with anchor", line: Task("ship", Indent(2), BlockID("s1")), want: "    - [ ] ship ^s1"},
		{name: "custom marker", line: Item("note", Marker("1.")), want: "1. note"},
		{name: "markup before anchor", line: Item("note", Markup("<b>x</b>"), BlockID("n")), want: "- note <b>x</b> ^n"},
		{name: "prose", line: Prose("Intro", BlockID("intro")), want: "Intro ^intro"},
		{name: "blank", line: Blank(), want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.line.String())
		})
	}
}

func TestBuilder_Build(t *testing.T) {
	b := NewVault(t).
		WithDoc("a.md", Task("one"), Item("two")).
		WithRaw("nested/b.md", "raw")
	root := b.Build()

	require.Equal(t, b.Root(), root)
	require.Equal(t, "- [ ] one\n- two\n", read(t, root, "a.md"))
	require.Equal(t, "raw", read(t, root, "nested/b.md"))
}

func TestWithStandardVault(t *testing.T) {
	root := NewVault(t).WithStandardVault().Build()
	require.Equal(t, "- [x] Done thing ^a1\n- [ ] Open thing ^a2\n", read(t, root, "notes.md"))
	require.Equal(t, "Intro ^intro\n- [/] Working ^a1\n", read(t, root, "sub/plan.md"))
	require.FileExists(t, filepath.Join(root, ".hidden", "secret.md"))
}

func TestWithAgilePlan(t *testing.T) {
	root := NewVault(t).WithAgilePlan("plan.md").Build()
	require.Equal(t, "- [ ] Launch ^launch\n  - [ ] Onboarding ^onboarding\n    - [ ] Signup form ^signup\n", read(t, root, "plan.md"))
}
