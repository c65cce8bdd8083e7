package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxnavo/internal/engine"
	"taxnavo/internal/model"
)

func TestLoadEmbedded(t *testing.T) {
	r, err := LoadEmbedded()
	require.NoError(t, err)

	assert.Equal(t, []int{2025, 2024, 2023, 2022}, r.Years())

	for _, year := range r.Years() {
		set, err := r.Get(year)
		require.NoError(t, err)
		assert.Equal(t, year, set.Year)
		assert.NotEmpty(t, set.Questions, "year %d", year)
		assert.NoError(t, Validate(set), "year %d", year)
	}
}

func TestRegistry_UnknownYear(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get(1999)
	assert.ErrorIs(t, err, ErrUnknownYear)
}

func TestParse(t *testing.T) {
	data := []byte(`
year: 2030
title: "Test"
documents: ["Photo ID"]
questions:
  - id: "1"
    prompt: "Any dependents?"
    kind: choice
    options: ["Yes", "No"]
    documents: {in: ["Yes"], names: ["Dependent SSN cards"]}
  - id: "2"
    prompt: "How many?"
    kind: free_form
    input: number
    show_if: {question: "1", in: ["yes"]}
  - id: "3"
    prompt: "Notes"
    kind: free_form
    input: textarea
    show_if:
      any_of:
        - {question: "1", in: ["No"]}
        - {question: "2", in: ["0"]}
`)
	set, err := Parse(data)
	require.NoError(t, err)

	want := []model.Question{
		{
			ID: "1", Prompt: "Any dependents?", Kind: model.KindChoice, Options: []string{"Yes", "No"},
			Documents: &model.DocumentRule{In: []string{"Yes"}, Names: []string{"Dependent SSN cards"}},
		},
		{
			ID: "2", Prompt: "How many?", Kind: model.KindFreeForm, InputType: model.InputNumber,
			ShowIf: &model.Condition{Question: "1", In: []string{"yes"}},
		},
		{
			ID: "3", Prompt: "Notes", Kind: model.KindFreeForm, InputType: model.InputTextarea,
			ShowIf: &model.Condition{AnyOf: []model.Condition{
				{Question: "1", In: []string{"No"}},
				{Question: "2", In: []string{"0"}},
			}},
		},
	}
	if diff := cmp.Diff(want, set.Questions); diff != "" {
		t.Errorf("questions mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"Photo ID"}, set.Documents)
}

func TestValidate(t *testing.T) {
	yesNo := []string{"Yes", "No"}
	tests := []struct {
		name    string
		set     model.QuestionSet
		wantErr bool
	}{
		{
			name: "valid",
			set: model.QuestionSet{Year: 2024, Questions: []model.Question{
				{ID: "1", Kind: model.KindChoice, Options: yesNo},
				{ID: "2", Kind: model.KindFreeForm, ShowIf: &model.Condition{Question: "1", In: []string{"Yes"}}},
			}},
		},
		{
			name: "duplicate id",
			set: model.QuestionSet{Year: 2024, Questions: []model.Question{
				{ID: "1", Kind: model.KindChoice, Options: yesNo},
				{ID: "1", Kind: model.KindChoice, Options: yesNo},
			}},
			wantErr: true,
		},
		{
			name:    "empty id",
			set:     model.QuestionSet{Year: 2024, Questions: []model.Question{{Kind: model.KindFreeForm}}},
			wantErr: true,
		},
		{
			name:    "choice without options",
			set:     model.QuestionSet{Year: 2024, Questions: []model.Question{{ID: "1", Kind: model.KindChoice}}},
			wantErr: true,
		},
		{
			name:    "free form with options",
			set:     model.QuestionSet{Year: 2024, Questions: []model.Question{{ID: "1", Kind: model.KindFreeForm, Options: yesNo}}},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			set:     model.QuestionSet{Year: 2024, Questions: []model.Question{{ID: "1", Kind: "slider"}}},
			wantErr: true,
		},
		{
			name: "forward reference",
			set: model.QuestionSet{Year: 2024, Questions: []model.Question{
				{ID: "1", Kind: model.KindFreeForm, ShowIf: &model.Condition{Question: "2", In: []string{"Yes"}}},
				{ID: "2", Kind: model.KindChoice, Options: yesNo},
			}},
			wantErr: true,
		},
		{
			name: "value not an option",
			set: model.QuestionSet{Year: 2024, Questions: []model.Question{
				{ID: "1", Kind: model.KindChoice, Options: yesNo},
				{ID: "2", Kind: model.KindFreeForm, ShowIf: &model.Condition{Question: "1", In: []string{"Maybe"}}},
			}},
			wantErr: true,
		},
		{
			name: "nested bad reference",
			set: model.QuestionSet{Year: 2024, Questions: []model.Question{
				{ID: "1", Kind: model.KindChoice, Options: yesNo},
				{ID: "2", Kind: model.KindFreeForm, ShowIf: &model.Condition{AnyOf: []model.Condition{
					{Question: "1", In: []string{"Yes"}},
					{Question: "9", In: []string{"Yes"}},
				}}},
			}},
			wantErr: true,
		},
		{
			name: "document rule without names",
			set: model.QuestionSet{Year: 2024, Questions: []model.Question{
				{ID: "1", Kind: model.KindChoice, Options: yesNo, Documents: &model.DocumentRule{In: []string{"Yes"}}},
			}},
			wantErr: true,
		},
		{
			name:    "bad year",
			set:     model.QuestionSet{Questions: []model.Question{{ID: "1", Kind: model.KindFreeForm}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.set)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSet)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadDir_OverridesYear(t *testing.T) {
	r, err := LoadEmbedded()
	require.NoError(t, err)

	dir := t.TempDir()
	body := "year: 2024\ntitle: \"Short\"\nquestions:\n  - id: \"a\"\n    prompt: \"Name?\"\n    kind: free_form\n    input: text\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2024.yaml"), []byte(body), 0o644))

	require.NoError(t, r.LoadDir(dir))
	set, err := r.Get(2024)
	require.NoError(t, err)
	assert.Equal(t, "Short", set.Title)
	assert.Len(t, set.Questions, 1)
}

func TestLoadDir_RejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	body := "year: 2024\nquestions:\n  - id: \"a\"\n    kind: choice\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(body), 0o644))

	err := NewRegistry().LoadDir(dir)
	assert.ErrorIs(t, err, ErrInvalidSet)
}

// Walks the 2025 set down the married branch and checks the spouse block opens.
func TestEmbedded2025_SpouseBranch(t *testing.T) {
	r, err := LoadEmbedded()
	require.NoError(t, err)
	set, err := r.Get(2025)
	require.NoError(t, err)

	idx := func(id model.QuestionID) int {
		for i, q := range set.Questions {
			if q.ID == id {
				return i
			}
		}
		t.Fatalf("question %s not found", id)
		return -1
	}

	e := engine.New(set.Questions, model.AnswerMap{"4": model.Text("Single")})
	assert.False(t, e.Visible(idx("53")))
	assert.False(t, e.Visible(idx("54")))

	e = engine.New(set.Questions, model.AnswerMap{"4": model.Text("Married"), "53": model.Text("Jointly")})
	assert.True(t, e.Visible(idx("53")))
	assert.True(t, e.Visible(idx("54")))
	assert.False(t, e.Visible(idx("55")))
}

func TestEmbedded_RequiredDocuments(t *testing.T) {
	r, err := LoadEmbedded()
	require.NoError(t, err)
	set, err := r.Get(2024)
	require.NoError(t, err)

	base := set.RequiredDocuments(model.AnswerMap{})
	assert.Equal(t, set.Documents, base)

	withDeps := set.RequiredDocuments(model.AnswerMap{"5": model.Text("Yes")})
	assert.Contains(t, withDeps, "Dependent Social Security cards")
}
