package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/tasktpl/internal/domain/template"
)

// fakeLookup resolves exact references from a map and records every query.
type fakeLookup struct {
	refs    map[string]*Record
	ids     map[string]*Record
	errs    map[string]error
	queries []string
}

func (f *fakeLookup) Resolve(_ context.Context, ref string) (*Record, error) {
	f.queries = append(f.queries, ref)
	if err := f.errs[ref]; err != nil {
		return nil, err
	}
	return f.refs[ref], nil
}

// idLookup adds id-only resolution.
type idLookup struct {
	*fakeLookup
}

func (f idLookup) ResolveID(_ context.Context, id string) (*Record, error) {
	f.queries = append(f.queries, "id:"+id)
	return f.ids[id], nil
}

func TestReferenceCandidates(t *testing.T) {
	tests := []struct {
		ref, doc string
		want     []string
	}{
		{"notes/todo#^abc", "", []string{"notes/todo#^abc", "#^abc", "notes/todo.md#^abc"}},
		{"notes/todo.md#^abc", "", []string{"notes/todo.md#^abc", "#^abc"}},
		{"#^abc", "daily.md", []string{"#^abc", "daily.md#^abc"}},
		{"^abc", "daily", []string{"^abc", "#^abc", "daily.md#^abc"}},
		{"abc", "", []string{"abc", "#^abc"}},
		{"  abc  ", "", []string{"abc", "#^abc"}},
		{"notes/todo.md", "", []string{"notes/todo.md"}},
		{"", "x.md", nil},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			require.Equal(t, tt.want, ReferenceCandidates(tt.ref, tt.doc))
		})
	}
}

func TestResolveReference_TriesCandidatesInOrder(t *testing.T) {
	rec := &Record{Path: "notes/todo.md", BlockID: "abc"}
	lookup := &fakeLookup{refs: map[string]*Record{"notes/todo.md#^abc": rec}}

	patch, err := ResolveReference(context.Background(), template.Params{RefParam: "notes/todo#^abc"}, Ports{Lookup: lookup})

	require.NoError(t, err)
	require.Same(t, rec, patch[RecordParam])
	require.Equal(t, []string{"notes/todo#^abc", "#^abc", "notes/todo.md#^abc"}, lookup.queries)
}

func TestResolveReference_FirstHitWins(t *testing.T) {
	first := &Record{BlockID: "abc", Text: "exact"}
	lookup := &fakeLookup{refs: map[string]*Record{"#^abc": first, "a.md#^abc": {Text: "later"}}}

	patch, err := ResolveReference(context.Background(), template.Params{RefParam: "#^abc"}, Ports{Lookup: lookup, Path: "a.md"})

	require.NoError(t, err)
	require.Same(t, first, patch[RecordParam])
	require.Equal(t, []string{"#^abc"}, lookup.queries)
}

func TestResolveReference_FallsBackToIDLookup(t *testing.T) {
	rec := &Record{BlockID: "abc", Path: "elsewhere.md"}
	lookup := idLookup{&fakeLookup{ids: map[string]*Record{"abc": rec}}}

	patch, err := ResolveReference(context.Background(), template.Params{RefParam: "abc"}, Ports{Lookup: lookup})

	require.NoError(t, err)
	require.Same(t, rec, patch[RecordParam])
	require.Equal(t, []string{"abc", "#^abc", "id:abc"}, lookup.queries)
}

func TestResolveReference_CandidateErrorsAreSkipped(t *testing.T) {
	rec := &Record{BlockID: "abc"}
	lookup := &fakeLookup{
		refs: map[string]*Record{"#^abc": rec},
		errs: map[string]error{"x#^abc": errors.New("bad path")},
	}

	patch, err := ResolveReference(context.Background(), template.Params{RefParam: "x#^abc"}, Ports{Lookup: lookup})

	require.NoError(t, err)
	require.Same(t, rec, patch[RecordParam])
}

func TestResolveReference_NotFound(t *testing.T) {
	lookup := &fakeLookup{errs: map[string]error{"#^zzz": errors.New("db down")}}

	patch, err := ResolveReference(context.Background(), template.Params{RefParam: "zzz"}, Ports{Lookup: lookup})
	require.EqualError(t, err, "db down")
	require.Nil(t, patch)

	patch, err = ResolveReference(context.Background(), template.Params{RefParam: "nope"}, Ports{Lookup: &fakeLookup{}})
	require.NoError(t, err)
	require.Nil(t, patch)
}

func TestResolveReference_NoRefOrNoLookup(t *testing.T) {
	patch, err := ResolveReference(context.Background(), template.Params{}, Ports{})
	require.NoError(t, err)
	require.Nil(t, patch)

	_, err = ResolveReference(context.Background(), template.Params{RefParam: "abc"}, Ports{})
	require.ErrorIs(t, err, ErrNoLookup)
}

func TestClassifyReference(t *testing.T) {
	classifier := ClassifierFunc(func(rec *Record) string { return "status-of-" + rec.BlockID })
	rec := &Record{BlockID: "abc"}

	patch, err := ClassifyReference(context.Background(), template.Params{RecordParam: rec}, Ports{Classifier: classifier})
	require.NoError(t, err)
	require.Equal(t, template.Params{StatusParam: "status-of-abc"}, patch)

	patch, err = ClassifyReference(context.Background(), template.Params{RecordParam: rec, StatusParam: "pinned"}, Ports{Classifier: classifier})
	require.NoError(t, err)
	require.Nil(t, patch, "caller-supplied status is kept")

	patch, err = ClassifyReference(context.Background(), template.Params{}, Ports{Classifier: classifier})
	require.NoError(t, err)
	require.Nil(t, patch)

	_, err = ClassifyReference(context.Background(), template.Params{RecordParam: rec}, Ports{})
	require.ErrorIs(t, err, ErrNoClassifier)
}
