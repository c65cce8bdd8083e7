package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"taxnavo/internal/engine"
	"taxnavo/internal/model"
	"taxnavo/internal/service"
)

const localUser = "local"

// prompter asks one question. back is true when the user wants the previous
// question instead of answering.
type prompter interface {
	Ask(q *model.Question, current string, progress float64) (answer string, back bool, err error)
}

type runner struct {
	svc    *service.QuestionnaireService
	prompt prompter
	out    io.Writer
}

// run walks the year's questionnaire from the saved position until the
// terminal position, then saves and prints the document checklist
func (r *runner) run(ctx context.Context, year int, restart bool) error {
	st, err := r.svc.State(ctx, localUser, year)
	if err != nil {
		return err
	}
	if st.HydrationFailed {
		fmt.Fprintln(r.out, "Could not read saved answers; starting fresh.")
	}
	if restart || st.Complete {
		if st, err = r.svc.Seek(ctx, localUser, year, 0); err != nil {
			return err
		}
		if q := st.Question; q != nil && !q.IsVisible(st.Answers) {
			if st, err = r.svc.Advance(ctx, localUser, year); err != nil {
				return err
			}
		}
	}

	for !st.Complete {
		q := st.Question
		current := ""
		if v, ok := st.Answers[q.ID]; ok {
			current = v.String()
		}

		answer, back, err := r.prompt.Ask(q, current, st.Progress)
		if err != nil {
			return err
		}
		if back {
			if st, err = r.svc.Retreat(ctx, localUser, year); err != nil {
				return err
			}
			continue
		}

		st, err = r.svc.RecordAnswer(ctx, localUser, year, q.ID, model.Text(answer))
		if errors.Is(err, engine.ErrInvalidAnswer) {
			fmt.Fprintln(r.out, err)
			continue
		}
		if err != nil {
			return err
		}
		if st, err = r.svc.Advance(ctx, localUser, year); err != nil {
			return err
		}
	}

	if _, err := r.svc.SaveNow(ctx, localUser, year); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "\nAll done for %d. Your answers are saved.\n", year)

	docs, err := r.svc.RequiredDocuments(ctx, localUser, year)
	if err != nil {
		return err
	}
	if len(docs) > 0 {
		fmt.Fprintln(r.out, "\nPlease gather these documents:")
		for _, d := range docs {
			fmt.Fprintf(r.out, "  - %s\n", d)
		}
	}
	return nil
}
