package model

import "strings"

// QuestionID is the stable key of a question within one question set.
// It is also the answer-map key, so it must never change once published.
type QuestionID string

// Kind separates questions that branch on a fixed option list from
// questions that take typed input.
type Kind string

const (
	KindChoice   Kind = "choice"    // Single-select from Options
	KindFreeForm Kind = "free_form" // Typed entry, see InputType
)

// InputType is the presentation sub-kind of a free-form question
type InputType string

const (
	InputText     InputType = "text"
	InputNumber   InputType = "number"
	InputDate     InputType = "date"
	InputTextarea InputType = "textarea"
	InputEmail    InputType = "email"
)

// Question is one authored entry of a year's question set. Question sets are
// loaded once and never mutated at runtime. InputType applies to free_form
// questions and Options to choice questions.
type Question struct {
	ID          QuestionID `json:"id" bson:"id" yaml:"id"`
	Prompt      string     `json:"prompt" bson:"prompt" yaml:"prompt"`
	Explanation string     `json:"explanation,omitempty" bson:"explanation,omitempty" yaml:"explanation,omitempty"`
	Kind        Kind       `json:"kind" bson:"kind" yaml:"kind"`
	InputType   InputType  `json:"inputType,omitempty" bson:"inputType,omitempty" yaml:"input,omitempty"`
	Placeholder string     `json:"placeholder,omitempty" bson:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Options     []string   `json:"options,omitempty" bson:"options,omitempty" yaml:"options,omitempty"`
	ShowIf      *Condition `json:"showIf,omitempty" bson:"showIf,omitempty" yaml:"show_if,omitempty"`
	// ProfileField names the derived profile field this answer feeds, if any
	ProfileField string `json:"profileField,omitempty" bson:"profileField,omitempty" yaml:"profile_field,omitempty"`
	// Documents lists paperwork the user must upload when answered with one of In
	Documents *DocumentRule `json:"documents,omitempty" bson:"documents,omitempty" yaml:"documents,omitempty"`

	// Predicate is used by question lists authored in Go. It takes
	// precedence over ShowIf.
	Predicate func(AnswerMap) bool `json:"-" bson:"-" yaml:"-"`
}

// IsVisible reports whether the question is shown for the given answers.
// Questions without a predicate are always visible.
func (q *Question) IsVisible(answers AnswerMap) bool {
	if q.Predicate != nil {
		return q.Predicate(answers)
	}
	if q.ShowIf != nil {
		return q.ShowIf.Eval(answers)
	}
	return true
}

// HasOption reports whether value is one of the question's options
func (q *Question) HasOption(value string) bool {
	for _, opt := range q.Options {
		if opt == value {
			return true
		}
	}
	return false
}

// Condition is the data form of a visibility predicate.
//
// A leaf condition names a question and the values that satisfy it:
//
//	show_if: {question: "5", in: ["Yes"]}
//
// Leaves compose with any_of / all_of. An unanswered question never
// satisfies a leaf. Comparison ignores case and surrounding space.
type Condition struct {
	Question QuestionID  `json:"question,omitempty" bson:"question,omitempty" yaml:"question,omitempty"`
	In       []string    `json:"in,omitempty" bson:"in,omitempty" yaml:"in,omitempty"`
	AnyOf    []Condition `json:"anyOf,omitempty" bson:"anyOf,omitempty" yaml:"any_of,omitempty"`
	AllOf    []Condition `json:"allOf,omitempty" bson:"allOf,omitempty" yaml:"all_of,omitempty"`
}

// Eval evaluates the condition against answers. It has no side effects.
func (c *Condition) Eval(answers AnswerMap) bool {
	if c == nil {
		return true
	}
	if c.Question != "" && !c.matchLeaf(answers) {
		return false
	}
	for i := range c.AllOf {
		if !c.AllOf[i].Eval(answers) {
			return false
		}
	}
	if len(c.AnyOf) > 0 {
		matched := false
		for i := range c.AnyOf {
			if c.AnyOf[i].Eval(answers) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func (c *Condition) matchLeaf(answers AnswerMap) bool {
	v, ok := answers[c.Question]
	if !ok {
		return false
	}
	got := strings.TrimSpace(v.String())
	for _, want := range c.In {
		if strings.EqualFold(got, strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

// References returns every question id the condition depends on
func (c *Condition) References() []QuestionID {
	if c == nil {
		return nil
	}
	var refs []QuestionID
	if c.Question != "" {
		refs = append(refs, c.Question)
	}
	for i := range c.AnyOf {
		refs = append(refs, c.AnyOf[i].References()...)
	}
	for i := range c.AllOf {
		refs = append(refs, c.AllOf[i].References()...)
	}
	return refs
}

// DocumentRule ties required uploads to an answer
type DocumentRule struct {
	In    []string `json:"in" bson:"in" yaml:"in"`
	Names []string `json:"names" bson:"names" yaml:"names"`
}

// QuestionSet is the authored question list for one tax year
type QuestionSet struct {
	Year      int        `json:"year" bson:"year" yaml:"year"`
	Title     string     `json:"title" bson:"title" yaml:"title"`
	Documents []string   `json:"documents,omitempty" bson:"documents,omitempty" yaml:"documents,omitempty"` // always required
	Questions []Question `json:"questions" bson:"questions" yaml:"questions"`
}

// RequiredDocuments lists the uploads implied by answers, always-required
// documents first, without duplicates. Hidden questions do not contribute.
func (s *QuestionSet) RequiredDocuments(answers AnswerMap) []string {
	seen := make(map[string]bool)
	var docs []string
	add := func(names ...string) {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				docs = append(docs, n)
			}
		}
	}
	add(s.Documents...)
	for i := range s.Questions {
		q := &s.Questions[i]
		if q.Documents == nil || !q.IsVisible(answers) {
			continue
		}
		leaf := Condition{Question: q.ID, In: q.Documents.In}
		if leaf.Eval(answers) {
			add(q.Documents.Names...)
		}
	}
	return docs
}
