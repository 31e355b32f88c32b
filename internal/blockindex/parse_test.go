package blockindex

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/tasktpl/internal/domain/template"
	"github.com/zjrosen/tasktpl/internal/workflow"
	"github.com/zjrosen/tasktpl/internal/wrapper"
)

func TestParseBlocks(t *testing.T) {
	tag := wrapper.Wrap(wrapper.Attrs{InstanceID: "tpl-1", Key: "meta.priority"}, wrapper.Var("level", "high"))
	text := "# Notes\n" +
		"- [x] Ship it ^ship\n" +
		"- [/] Half " + tag + " done ^half-1\r\n" +
		"- plain item ^item\n" +
		"Prose paragraph ^para\n" +
		"no id here\n" +
		"email me^not-an-id\n" +
		"- [ ] dup ^ship\n"

	want := []workflow.Record{
		{Ref: "n.md#^ship", Path: "n.md", BlockID: "ship", Line: 1, Text: "- [x] Ship it", Kind: template.LineTask, Status: "x"},
		{Ref: "n.md#^half-1", Path: "n.md", BlockID: "half-1", Line: 2, Text: "- [/] Half done", Kind: template.LineTask, Status: "/"},
		{Ref: "n.md#^item", Path: "n.md", BlockID: "item", Line: 3, Text: "- plain item", Kind: template.LineList},
		{Ref: "n.md#^para", Path: "n.md", BlockID: "para", Line: 4, Text: "Prose paragraph", Kind: template.LineNone},
	}
	if diff := cmp.Diff(want, ParseBlocks("n.md", text)); diff != "" {
		t.Errorf("ParseBlocks mismatch (-want +got):\n%s", diff)
	}
}

func TestParseBlocks_WrapperAfterBlockID(t *testing.T) {
	tag := wrapper.Wrap(wrapper.Attrs{InstanceID: "tpl-2", Key: "meta.priority"}, wrapper.Var("level", "high"))
	text := "- [x] first ^first " + tag + " \n" +
		"- [ ] second ^second " + tag + tag + "\n" +
		"- [ ] " + tag + " ^third\n"

	want := []workflow.Record{
		{Ref: "n.md#^first", Path: "n.md", BlockID: "first", Line: 0, Text: "- [x] first", Kind: template.LineTask, Status: "x"},
		{Ref: "n.md#^second", Path: "n.md", BlockID: "second", Line: 1, Text: "- [ ] second", Kind: template.LineTask, Status: " "},
		{Ref: "n.md#^third", Path: "n.md", BlockID: "third", Line: 2, Text: "- [ ]", Kind: template.LineTask, Status: " "},
	}
	if diff := cmp.Diff(want, ParseBlocks("n.md", text)); diff != "" {
		t.Errorf("ParseBlocks mismatch (-want +got):\n%s", diff)
	}
}

func TestParseBlocks_Empty(t *testing.T) {
	require.Empty(t, ParseBlocks("n.md", ""))
	require.Empty(t, ParseBlocks("n.md", "- [ ] nothing to see"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		status string
		kind   template.LineKind
		want   string
	}{
		{" ", template.LineTask, StatusTodo},
		{"x", template.LineTask, StatusDone},
		{"X", template.LineTask, StatusDone},
		{"/", template.LineTask, StatusInProgress},
		{"-", template.LineTask, StatusCancelled},
		{">", template.LineTask, StatusDeferred},
		{"?", template.LineTask, StatusOther},
		{"", template.LineList, StatusNote},
		{"x", template.LineNone, StatusNote},
	}
	for _, tt := range tests {
		t.Run(tt.status+"/"+string(tt.kind), func(t *testing.T) {
			require.Equal(t, tt.want, Classifier.Classify(&workflow.Record{Status: tt.status, Kind: tt.kind}))
		})
	}
	require.Equal(t, StatusNote, Classify(nil))
}
