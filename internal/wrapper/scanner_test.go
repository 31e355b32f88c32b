package wrapper

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestFindTagEnd(t *testing.T) {
	tests := []struct {
		name string
		s    string
		open int
		want int
	}{
		{name: "simple", s: `<span a="1">x`, open: 0, want: 11},
		{name: "gt inside double quotes", s: `<span a="1>2">x`, open: 0, want: 13},
		{name: "gt inside single quotes", s: `<span a='1>2'>x`, open: 0, want: 13},
		{name: "mixed quotes", s: `<span a="it's" b='say "hi"'>`, open: 0, want: 27},
		{name: "unterminated", s: `<span a="1"`, open: 0, want: 11},
		{name: "unterminated quote", s: `<span a="1>`, open: 0, want: 11},
		{name: "open offset", s: `ab<i>`, open: 2, want: 4},
		{name: "empty", s: ``, open: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FindTagEnd(tt.s, tt.open))
		})
	}
}

func TestHasAttr(t *testing.T) {
	require.True(t, HasAttr(`<span data-template-key="x">`, AttrKey))
	require.True(t, HasAttr(`<SPAN DATA-TEMPLATE-KEY = "x">`, AttrKey))
	require.True(t, HasAttr(`<span data-template-key=x>`, AttrKey))
	require.False(t, HasAttr(`<span data-template-key>`, AttrKey))
	require.False(t, HasAttr(`<span data-tpl-var="x">`, AttrKey))
}

func TestFindAllWrappers_NestedReportsOuterOnly(t *testing.T) {
	input := `A <span data-template-key="x">B<span data-template-key="y">C</span>D</span> E`

	got := FindAllWrappers(input)

	require.Equal(t, []string{`<span data-template-key="x">B<span data-template-key="y">C</span>D</span>`}, got)
}

func TestFindAllWrappers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "no wrappers", input: "plain text", want: []string{}},
		{name: "span without key is ignored", input: `a <span class="x">b</span> c`, want: []string{}},
		{
			name:  "siblings",
			input: `<span data-template-key="a">1</span> and <span data-template-key="b">2</span>`,
			want:  []string{`<span data-template-key="a">1</span>`, `<span data-template-key="b">2</span>`},
		},
		{
			name:  "case insensitive tags",
			input: `x <SPAN data-template-key="a">1</SPAN> y`,
			want:  []string{`<SPAN data-template-key="a">1</SPAN>`},
		},
		{
			name:  "other tags do not affect depth",
			input: `<span data-template-key="a"><strong>1</strong><a href="u">l</a></span>tail`,
			want:  []string{`<span data-template-key="a"><strong>1</strong><a href="u">l</a></span>`},
		},
		{
			name:  "value markers balance",
			input: `<span data-template-key="a"><span data-tpl-var="t">v</span></span>!`,
			want:  []string{`<span data-template-key="a"><span data-tpl-var="t">v</span></span>`},
		},
		{
			name:  "quoted gt in attribute",
			input: `<span data-template-key="a" title="1 > 0">v</span> rest`,
			want:  []string{`<span data-template-key="a" title="1 > 0">v</span>`},
		},
		{
			name:  "spanner is not a marker",
			input: `<spanner data-template-key="a">v</spanner>`,
			want:  []string{},
		},
		{
			name:  "bare lt in text",
			input: `<span data-template-key="a">1 < 2</span> rest`,
			want:  []string{`<span data-template-key="a">1 < 2</span>`},
		},
		{
			name:  "unbalanced takes remainder",
			input: `pre <span data-template-key="a">open <span>inner</span> never closed`,
			want:  []string{`<span data-template-key="a">open <span>inner</span> never closed`},
		},
		{
			name:  "unterminated opening tag",
			input: `pre <span data-template-key="a"`,
			want:  []string{`<span data-template-key="a"`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindAllWrappers(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FindAllWrappers() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRemoveWrappersByTemplate_SpaceReplacement(t *testing.T) {
	res := RemoveWrappersByTemplate(`pre <span data-template-key="x">Z</span> post`)

	require.Equal(t, "pre   post", res.WithoutWrappers)
	require.Equal(t, []string{`<span data-template-key="x">Z</span>`}, res.RemovedWrappers)
}

func TestRemoveWrappersByTemplate_NoWrappers(t *testing.T) {
	res := RemoveWrappersByTemplate("- [ ] nothing here")

	require.Equal(t, "- [ ] nothing here", res.WithoutWrappers)
	require.Empty(t, res.RemovedWrappers)
}

func TestRemoveWrappersByTemplate_Multiple(t *testing.T) {
	res := RemoveWrappersByTemplate(`<span data-template-key="a">1</span>mid<span data-template-key="b">2</span>`)

	require.Equal(t, " mid ", res.WithoutWrappers)
	require.Len(t, res.RemovedWrappers, 2)
}

// fragment generates text mixing prose, well-formed wrappers, stray tags and
// truncated markup.
func fragment() *rapid.Generator[string] {
	pieces := rapid.SampledFrom([]string{
		"text", " ", "- [ ] ", "<", ">", `"`, "'",
		`<span data-template-key="a">`, `<span>`, `</span>`, `<SPAN data-template-key='b'>`,
		`<b>`, `</b>`, `<span data-tpl-var="t">v</span>`, `<span data-template-key="c" title="x>y">`,
	})
	return rapid.Custom(func(t *rapid.T) string {
		parts := rapid.SliceOfN(pieces, 0, 20).Draw(t, "parts")
		return strings.Join(parts, "")
	})
}

func TestRemoveWrappersByTemplate_Idempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		input := fragment().Draw(t, "input")

		once := RemoveWrappersByTemplate(input).WithoutWrappers
		twice := RemoveWrappersByTemplate(once).WithoutWrappers

		require.Equal(t, once, twice)
	})
}

func TestFindAllWrapperRanges_NeverPanicsAndStaysInBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		input := fragment().Draw(t, "input")

		ranges := FindAllWrapperRanges(input)

		prevEnd := 0
		for _, r := range ranges {
			require.GreaterOrEqual(t, r.Start, prevEnd)
			require.Greater(t, r.End, r.Start)
			require.LessOrEqual(t, r.End, len(input))
			prevEnd = r.End
		}
	})
}

func TestFindMatchingWrapperEnd(t *testing.T) {
	line := `- [ ] <span data-template-key="a">x<span data-template-key="b">y</span></span> tail`
	open := strings.Index(line, "<span")
	afterOpen := FindTagEnd(line, open) + 1

	end, ok := FindMatchingWrapperEnd(line, afterOpen)

	require.True(t, ok)
	require.Equal(t, `<span data-template-key="a">x<span data-template-key="b">y</span></span>`, line[open:end])
}

func TestFindMatchingWrapperEnd_NotFound(t *testing.T) {
	line := `<span data-template-key="a">never closed`

	_, ok := FindMatchingWrapperEnd(line, FindTagEnd(line, 0)+1)
	require.False(t, ok)

	_, ok = FindMatchingWrapperEnd(line, -1)
	require.False(t, ok)
	_, ok = FindMatchingWrapperEnd(line, len(line)+5)
	require.False(t, ok)
}

func TestFindOpeningTagByAttr(t *testing.T) {
	line := `- [ ] <span data-template-wrapper="tpl-1" data-template-key="agile.epic">E</span> <span data-template-wrapper='tpl-2' data-template-key="meta.link">L</span>`

	tests := []struct {
		name  string
		attr  string
		value string
		want  string
	}{
		{name: "double quoted id", attr: AttrWrapper, value: "tpl-1", want: `<span data-template-wrapper="tpl-1" data-template-key="agile.epic">`},
		{name: "single quoted id", attr: AttrWrapper, value: "tpl-2", want: `<span data-template-wrapper='tpl-2' data-template-key="meta.link">`},
		{name: "by key", attr: AttrKey, value: "meta.link", want: `<span data-template-wrapper='tpl-2' data-template-key="meta.link">`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok := FindOpeningTagByAttr(line, tt.attr, tt.value)
			require.True(t, ok)
			require.Equal(t, tt.want, line[start:end+1])
		})
	}
}

func TestFindOpeningTagByAttr_Unquoted(t *testing.T) {
	line := `<span data-template-wrapper=tpl-9>x</span>`

	start, _, ok := FindOpeningTagByAttr(line, AttrWrapper, "tpl-9")

	require.True(t, ok)
	require.Equal(t, 0, start)
}

func TestFindOpeningTagByAttr_NotFound(t *testing.T) {
	_, _, ok := FindOpeningTagByAttr(`<span data-template-wrapper="tpl-10">x</span>`, AttrWrapper, "tpl-1")
	require.False(t, ok, "prefix of another id must not match")

	_, _, ok = FindOpeningTagByAttr(`<b data-template-wrapper="tpl-1">x</b>`, AttrWrapper, "tpl-1")
	require.False(t, ok, "attribute on a non-marker element")

	_, _, ok = FindOpeningTagByAttr(`<span>x</span> <b data-template-wrapper="tpl-1">`, AttrWrapper, "tpl-1")
	require.False(t, ok, "nearest marker closed before the attribute")
}
