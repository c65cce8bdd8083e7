package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"taxnavo/internal/engine"
	"taxnavo/internal/model"
)

const backOption = "« Back"

// backInput is typed into a free-form prompt to return to the previous question
const backInput = "<"

type huhPrompter struct{}

func (huhPrompter) Ask(q *model.Question, current string, progress float64) (string, bool, error) {
	title := fmt.Sprintf("[%3.0f%%] %s", progress*100, q.Prompt)

	var value string
	var field huh.Field
	switch q.Kind {
	case model.KindChoice:
		opts := make([]huh.Option[string], 0, len(q.Options)+1)
		for _, o := range q.Options {
			opts = append(opts, huh.NewOption(o, o).Selected(o == current))
		}
		opts = append(opts, huh.NewOption(backOption, backOption))
		field = huh.NewSelect[string]().
			Title(title).
			Description(q.Explanation).
			Options(opts...).
			Value(&value)

	default:
		value = current
		field = huh.NewInput().
			Title(title).
			Description(describe(q)).
			Placeholder(q.Placeholder).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == backInput {
					return nil
				}
				_, err := engine.Validate(q, model.Text(s))
				return err
			}).
			Value(&value)
	}

	if err := huh.NewForm(huh.NewGroup(field)).Run(); err != nil {
		return "", false, fmt.Errorf("prompt failed: %w", err)
	}
	if value == backOption || strings.TrimSpace(value) == backInput {
		return "", true, nil
	}
	return value, false, nil
}

func describe(q *model.Question) string {
	hint := "Type " + backInput + " to go back."
	switch q.InputType {
	case model.InputDate:
		hint = "YYYY-MM-DD. " + hint
	case model.InputNumber:
		hint = "A number. " + hint
	}
	if q.Explanation != "" {
		return q.Explanation + "\n" + hint
	}
	return hint
}
