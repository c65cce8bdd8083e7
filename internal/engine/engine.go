// Package engine walks a year's question list for one user.
//
// The cursor is an index into the authored list, not into a filtered list of
// visible questions. Visibility is evaluated each time the cursor moves, so
// editing an earlier answer can make a later question reachable again.
package engine

import (
	"errors"
	"fmt"
	"math"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"

	"taxnavo/internal/model"
)

var (
	ErrComplete      = errors.New("questionnaire is complete")
	ErrOutOfOrder    = errors.New("answer is not for the current question")
	ErrInvalidAnswer = errors.New("invalid answer")
)

// decimalPattern accepts plain decimal numbers only. ParseFloat alone would
// also take NaN, Inf and hex floats.
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ChangeFunc receives a snapshot of the full answer map after every recorded
// answer. It runs on the caller's goroutine and must not block.
type ChangeFunc func(answers model.AnswerMap)

// Option configures an Engine
type Option func(*Engine)

// WithOnChange sets the hook that hands answer snapshots to persistence
func WithOnChange(fn ChangeFunc) Option {
	return func(e *Engine) {
		e.onChange = fn
	}
}

// Engine holds the question list, the accumulated answers and the cursor.
// It is not safe for concurrent use.
type Engine struct {
	questions []model.Question
	answers   model.AnswerMap
	cursor    int
	onChange  ChangeFunc
}

// New creates an engine over questions, hydrated with answers. The cursor
// starts at the first visible question.
func New(questions []model.Question, answers model.AnswerMap, opts ...Option) *Engine {
	e := &Engine{
		questions: questions,
		answers:   answers.Clone(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cursor = e.nextVisible(-1)
	return e
}

// Len returns the number of authored questions
func (e *Engine) Len() int {
	return len(e.questions)
}

// Cursor returns the current index into the authored list
func (e *Engine) Cursor() int {
	return e.cursor
}

// IsComplete reports whether the cursor is at the terminal position
func (e *Engine) IsComplete() bool {
	return e.cursor >= len(e.questions)
}

// Current returns the question under the cursor. ok is false once the
// questionnaire is complete.
func (e *Engine) Current() (q *model.Question, ok bool) {
	if e.IsComplete() {
		return nil, false
	}
	return &e.questions[e.cursor], true
}

// Visible reports whether the question at index i is shown for the current
// answers. Out-of-range indexes are never visible.
func (e *Engine) Visible(i int) bool {
	if i < 0 || i >= len(e.questions) {
		return false
	}
	return e.questions[i].IsVisible(e.answers)
}

// RecordAnswer stores value for the current question. On error the answers
// and cursor are left untouched.
func (e *Engine) RecordAnswer(id model.QuestionID, value model.AnswerValue) error {
	q, ok := e.Current()
	if !ok {
		return ErrComplete
	}
	if q.ID != id {
		return fmt.Errorf("%w: got %q, current is %q", ErrOutOfOrder, id, q.ID)
	}
	normalized, err := Validate(q, value)
	if err != nil {
		return err
	}

	e.answers[id] = normalized
	if e.onChange != nil {
		e.onChange(e.answers.Clone())
	}
	return nil
}

// Advance moves to the next visible question, or to the terminal position.
// It is a no-op once complete.
func (e *Engine) Advance() {
	if e.IsComplete() {
		return
	}
	e.cursor = e.nextVisible(e.cursor)
}

// Retreat moves to the previous visible question, clamped at 0. Answers are
// kept.
func (e *Engine) Retreat() {
	for i := e.cursor - 1; i >= 0; i-- {
		if e.Visible(i) {
			e.cursor = i
			return
		}
	}
	e.cursor = 0
}

// Seek sets the cursor directly, clamped to [0, Len()]. Visibility is not
// checked.
func (e *Engine) Seek(i int) {
	switch {
	case i < 0:
		e.cursor = 0
	case i > len(e.questions):
		e.cursor = len(e.questions)
	default:
		e.cursor = i
	}
}

// Progress returns (cursor+1)/Len() capped at 1. The denominator is the
// authored question count, so skipped blocks still count toward the total.
func (e *Engine) Progress() float64 {
	if len(e.questions) == 0 {
		return 1
	}
	p := float64(e.cursor+1) / float64(len(e.questions))
	if p > 1 {
		return 1
	}
	return p
}

// Answers returns a copy of the accumulated answers
func (e *Engine) Answers() model.AnswerMap {
	return e.answers.Clone()
}

// Answer returns the recorded answer for id, if any
func (e *Engine) Answer(id model.QuestionID) (model.AnswerValue, bool) {
	v, ok := e.answers[id]
	return v, ok
}

func (e *Engine) nextVisible(from int) int {
	for i := from + 1; i < len(e.questions); i++ {
		if e.Visible(i) {
			return i
		}
	}
	return len(e.questions)
}

// Validate checks value against the question and returns the value as it
// should be stored. Numeric text for number questions is stored as a number.
func Validate(q *model.Question, value model.AnswerValue) (model.AnswerValue, error) {
	switch q.Kind {
	case model.KindChoice:
		if value.IsNumber() || !q.HasOption(value.String()) {
			return value, fmt.Errorf("%w: %q is not one of %v", ErrInvalidAnswer, value.String(), q.Options)
		}
		return value, nil

	case model.KindFreeForm:
		if value.IsBlank() {
			return value, fmt.Errorf("%w: answer is required", ErrInvalidAnswer)
		}
		switch q.InputType {
		case model.InputNumber:
			if n, ok := value.Float(); ok {
				if math.IsNaN(n) || math.IsInf(n, 0) {
					return value, fmt.Errorf("%w: %v is not a finite number", ErrInvalidAnswer, n)
				}
				return value, nil
			}
			text := strings.ReplaceAll(strings.TrimSpace(value.String()), ",", "")
			if !decimalPattern.MatchString(text) {
				return value, fmt.Errorf("%w: %q is not a number", ErrInvalidAnswer, value.String())
			}
			// out-of-range literals such as 1e400 fail with ErrRange
			n, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return value, fmt.Errorf("%w: %q is not a number", ErrInvalidAnswer, value.String())
			}
			return model.Number(n), nil
		case model.InputDate:
			if _, err := time.Parse("2006-01-02", strings.TrimSpace(value.String())); err != nil {
				return value, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidAnswer, value.String())
			}
		case model.InputEmail:
			if _, err := mail.ParseAddress(strings.TrimSpace(value.String())); err != nil {
				return value, fmt.Errorf("%w: %q is not an email address", ErrInvalidAnswer, value.String())
			}
		}
		return value, nil

	default:
		return value, fmt.Errorf("%w: unknown question kind %q", ErrInvalidAnswer, q.Kind)
	}
}
