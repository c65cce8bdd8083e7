// Package catalog holds the per-year question sets. Years differ only in
// data: every set is a YAML document run by the same engine.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"taxnavo/internal/model"
)

//go:embed data/*.yaml
var embedded embed.FS

var (
	ErrUnknownYear = errors.New("no question set for year")
	ErrInvalidSet  = errors.New("invalid question set")
)

// Parse decodes and validates one YAML question set
func Parse(data []byte) (*model.QuestionSet, error) {
	var set model.QuestionSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("decode question set: %w", err)
	}
	if err := Validate(&set); err != nil {
		return nil, err
	}
	return &set, nil
}

// Validate checks a set for authoring mistakes and reports all of them.
// A condition may only reference a question that comes before it.
func Validate(set *model.QuestionSet) error {
	var problems []error
	fail := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	if set.Year <= 0 {
		fail("year must be positive, got %d", set.Year)
	}

	earlier := make(map[model.QuestionID]*model.Question, len(set.Questions))
	for i := range set.Questions {
		q := &set.Questions[i]
		if q.ID == "" {
			fail("question %d: empty id", i)
			continue
		}
		if _, dup := earlier[q.ID]; dup {
			fail("question %s: duplicate id", q.ID)
		}

		switch q.Kind {
		case model.KindChoice:
			if len(q.Options) == 0 {
				fail("question %s: choice without options", q.ID)
			}
		case model.KindFreeForm:
			if len(q.Options) > 0 {
				fail("question %s: free_form with options", q.ID)
			}
		default:
			fail("question %s: unknown kind %q", q.ID, q.Kind)
		}

		checkCondition(q.ID, q.ShowIf, earlier, fail)

		if q.Documents != nil {
			if len(q.Documents.Names) == 0 {
				fail("question %s: document rule without names", q.ID)
			}
			if q.Kind == model.KindChoice {
				for _, v := range q.Documents.In {
					if !hasOptionFold(q, v) {
						fail("question %s: document rule value %q is not an option", q.ID, v)
					}
				}
			}
		}

		earlier[q.ID] = q
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w %d: %w", ErrInvalidSet, set.Year, errors.Join(problems...))
	}
	return nil
}

func checkCondition(owner model.QuestionID, c *model.Condition, earlier map[model.QuestionID]*model.Question, fail func(string, ...interface{})) {
	if c == nil {
		return
	}
	if c.Question == "" && len(c.AnyOf) == 0 && len(c.AllOf) == 0 {
		fail("question %s: empty condition", owner)
		return
	}
	if c.Question != "" {
		ref, ok := earlier[c.Question]
		switch {
		case !ok:
			fail("question %s: condition references %s which does not precede it", owner, c.Question)
		case len(c.In) == 0:
			fail("question %s: condition on %s has no values", owner, c.Question)
		case ref.Kind == model.KindChoice:
			for _, v := range c.In {
				if !hasOptionFold(ref, v) {
					fail("question %s: %q is not an option of %s", owner, v, c.Question)
				}
			}
		}
	}
	for i := range c.AnyOf {
		checkCondition(owner, &c.AnyOf[i], earlier, fail)
	}
	for i := range c.AllOf {
		checkCondition(owner, &c.AllOf[i], earlier, fail)
	}
}

func hasOptionFold(q *model.Question, v string) bool {
	probe := model.Condition{Question: q.ID, In: []string{v}}
	for _, opt := range q.Options {
		if probe.Eval(model.AnswerMap{q.ID: model.Text(opt)}) {
			return true
		}
	}
	return false
}

// Registry maps tax years to question sets. Safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	sets map[int]*model.QuestionSet
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{sets: make(map[int]*model.QuestionSet)}
}

// Register validates set and stores it, replacing any set for the same year
func (r *Registry) Register(set *model.QuestionSet) error {
	if err := Validate(set); err != nil {
		return err
	}
	r.mu.Lock()
	r.sets[set.Year] = set
	r.mu.Unlock()
	return nil
}

// Get returns the set for year
func (r *Registry) Get(year int) (*model.QuestionSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.sets[year]
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrUnknownYear, year)
	}
	return set, nil
}

// Years lists registered years, newest first
func (r *Registry) Years() []int {
	r.mu.RLock()
	years := make([]int, 0, len(r.sets))
	for y := range r.sets {
		years = append(years, y)
	}
	r.mu.RUnlock()
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// LoadEmbedded builds a registry from the sets compiled into the binary
func LoadEmbedded() (*Registry, error) {
	r := NewRegistry()
	entries, err := embedded.ReadDir("data")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		data, err := embedded.ReadFile("data/" + e.Name())
		if err != nil {
			return nil, err
		}
		if err := r.add(e.Name(), data); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LoadDir registers every *.yaml file in dir, replacing embedded years
func (r *Registry) LoadDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return err
	}
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		if err := r.add(f, data); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) add(name string, data []byte) error {
	set, err := Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	r.mu.Lock()
	r.sets[set.Year] = set
	r.mu.Unlock()
	return nil
}
