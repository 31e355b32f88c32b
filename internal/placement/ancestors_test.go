package placement

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	initiative = `- [ ] <span data-template-key="agile.initiative" data-order-tag="artifact">Initiative</span>`
	epic       = `  - [ ] <span data-template-key="agile.epic" data-order-tag="artifact">Epic</span>`
	story      = `    - [ ] <span data-template-key="agile.story" data-order-tag="artifact">Story</span>`
)

func TestAncestorsFromLines_InitiativeEpic(t *testing.T) {
	lines := []string{
		`- [ ] <span data-template-key="agile.initiative">Initiative</span>`,
		`  - [ ] <span data-template-key="agile.epic">Epic</span>`,
	}

	require.Equal(t, []string{"agile.initiative"}, AncestorsFromLines(lines, 1, lines[1]))
}

func TestAncestorsFromLines(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		index int
		want  []string
	}{
		{
			name:  "top level",
			lines: []string{initiative},
			index: 0,
			want:  []string{},
		},
		{
			name:  "nearest first",
			lines: []string{initiative, epic, story, "      - [ ] child"},
			index: 3,
			want:  []string{"agile.story", "agile.epic", "agile.initiative"},
		},
		{
			name:  "siblings are not ancestors",
			lines: []string{initiative, epic, `  - [ ] <span data-template-key="agile.epic">Other</span>`, "    - [ ] child"},
			index: 3,
			want:  []string{"agile.epic", "agile.initiative"},
		},
		{
			name:  "prose and blank lines skipped",
			lines: []string{initiative, "", "some prose", "  - [ ] child"},
			index: 3,
			want:  []string{"agile.initiative"},
		},
		{
			name:  "plain list ancestor has empty id",
			lines: []string{"- heading", "  - [ ] child"},
			index: 1,
			want:  []string{""},
		},
		{
			name:  "stops at indentation zero",
			lines: []string{"- [ ] <span data-template-key=\"x.y\">far</span>", initiative, "  - [ ] child"},
			index: 2,
			want:  []string{"agile.initiative"},
		},
		{
			name:  "deeper lines above are skipped",
			lines: []string{initiative, "      - [ ] deep", "  - [ ] child"},
			index: 2,
			want:  []string{"agile.initiative"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, AncestorsFromLines(tt.lines, tt.index, tt.lines[tt.index]))
		})
	}
}

func TestAncestorsFromLines_LiveLineOverridesBuffer(t *testing.T) {
	lines := []string{initiative, ""}

	require.Empty(t, AncestorsFromLines(lines, 1, ""))
	require.Equal(t, []string{"agile.initiative"}, AncestorsFromLines(lines, 1, "  - [ ] typed"))
}

func TestAncestorsFromText(t *testing.T) {
	lines := []string{initiative, "  - [ ] child  "}

	require.Equal(t, []string{"agile.initiative"}, AncestorsFromText(lines, "  - [ ] child  "))
	require.Equal(t, []string{"agile.initiative"}, AncestorsFromText(lines, "  - [ ] child"))
	require.Empty(t, AncestorsFromText(lines, "missing"))
}

func TestTemplateIDOfLine(t *testing.T) {
	tags := DefaultAncestorTags

	t.Run("right-most artifact wins", func(t *testing.T) {
		line := `- [ ] <span data-template-key="agile.epic" data-order-tag="artifact">A</span> <span data-template-key="agile.story" data-order-tag="artifact">B</span> <span data-template-key="meta.priority" data-order-tag="meta">P</span>`
		require.Equal(t, "agile.story", TemplateIDOfLine(line, tags))
	})

	t.Run("falls back to right-most keyed wrapper", func(t *testing.T) {
		line := `- <span data-template-key="meta.link">L</span> <span data-template-key="meta.priority">P</span>`
		require.Equal(t, "meta.priority", TemplateIDOfLine(line, tags))
	})

	t.Run("order tag compared case-insensitively", func(t *testing.T) {
		line := `- <span data-template-key="a.b" data-order-tag="Artifact">x</span> <span data-template-key="c.d">y</span>`
		require.Equal(t, "a.b", TemplateIDOfLine(line, tags))
	})

	t.Run("no wrapper", func(t *testing.T) {
		require.Equal(t, "", TemplateIDOfLine("- plain", tags))
	})
}

func TestFindLine(t *testing.T) {
	lines := []string{"a ", "b", "a"}

	require.Equal(t, 2, FindLine(lines, "a"))
	require.Equal(t, 0, FindLine(lines, "a "))
	require.Equal(t, 1, FindLine(lines, "b\t"))
	require.Equal(t, -1, FindLine(lines, "c"))
}

func TestAncestors_DispatchesOnIndex(t *testing.T) {
	lines := []string{initiative, "  - [ ] child"}

	require.Equal(t, []string{"agile.initiative"}, Ancestors(NewContext(lines, 1, "")))
	require.Equal(t, []string{"agile.initiative"}, Ancestors(TextContext(initiative+"\n  - [ ] child", "  - [ ] child", "")))
	require.Equal(t, -1, NewContext(lines, 7, "").LineIndex)
}
