package ranking

import (
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/catalog"
)

// unparsedFilterMinutes is the duration assumed for candidates whose duration
// cell carries no number. Any limit below 999 excludes them.
const unparsedFilterMinutes = 999

// Filter is a single step narrowing the candidate pool.
type Filter interface {
	Name() string
	Apply(candidates []Candidate) ([]Candidate, Step)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// RunFilters applies steps in order, logging the counts of each.
func RunFilters(logger *zap.Logger, steps []Filter, candidates []Candidate) []Candidate {
	for _, step := range steps {
		next, info := step.Apply(candidates)
		logger.Debug("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)
		candidates = next
	}
	return candidates
}

type durationFilter struct {
	limit int
}

// NewDurationFilter drops candidates longer than limit minutes.
func NewDurationFilter(limit int) Filter {
	return &durationFilter{limit: limit}
}

func (f *durationFilter) Name() string { return "max_duration" }

func (f *durationFilter) Apply(candidates []Candidate) ([]Candidate, Step) {
	initial := len(candidates)
	kept := make([]Candidate, 0, initial)
	for _, c := range candidates {
		if FilterMinutes(c.Record) <= f.limit {
			kept = append(kept, c)
		}
	}
	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}
}

// FilterMinutes is the duration used when applying a limit.
func FilterMinutes(r catalog.Record) int {
	return r.DurationOr(unparsedFilterMinutes)
}
