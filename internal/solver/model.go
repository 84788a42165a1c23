package solver

import (
	"time"

	"github.com/shiftwise-dev/workforce/backend/internal/domain"
)

// Input is the immutable snapshot a solve runs on. The solver never touches
// a repository; the worker assembles this from the read-only collaborators.
type Input struct {
	Parameters domain.OptimizationParameters
	Resources  []*domain.HumanResource
	Periods    []*domain.DemandPeriod
	Leaves     []*domain.LeaveTake

	// Schedule scope; working-time cycles are anchored at StartDate and
	// fixed monthly costs are pro-rated over [StartDate, EndDate].
	StartDate time.Time
	EndDate   time.Time
}

type Solution struct {
	Assignments          []domain.TourScheduleAssignment `json:"assignments"`
	Feasible             bool                            `json:"feasible"`
	UnsatisfiedPeriodIDs []int64                         `json:"unsatisfiedPeriodIDs"`
	TotalCost            float64                         `json:"totalCost"`
}

type window struct {
	start time.Time
	end   time.Time
}

func (w window) overlaps(start, end time.Time) bool {
	return w.start.Before(end) && start.Before(w.end)
}

func overlapsAny(windows []window, start, end time.Time) bool {
	for _, w := range windows {
		if w.overlaps(start, end) {
			return true
		}
	}
	return false
}

// resourceState is the per-resource bookkeeping accumulated while committing
// assignments: occupied windows, hours per working-time cycle and running cost.
type resourceState struct {
	resource *domain.HumanResource

	skills         map[string]struct{}
	qualifications map[string]struct{}
	behaviours     map[string]struct{}

	windows       []window
	normalHours   map[int64]float64
	overtimeHours map[int64]float64
	engagements   map[int64]int32

	totalHours float64
	totalCost  float64
}

// candidate is one eligible (resource, period) pairing with the split of the
// period's hours into normal and overtime capacity.
type candidate struct {
	state        *resourceState
	normalPart   float64
	overtimePart float64
	marginalCost float64
	exactMatch   bool
}

func newResourceState(r *domain.HumanResource) *resourceState {
	return &resourceState{
		resource:       r,
		skills:         toSet(r.Skills),
		qualifications: toSet(r.Qualification),
		behaviours:     toSet(r.Behaviours),
		normalHours:    make(map[int64]float64),
		overtimeHours:  make(map[int64]float64),
		engagements:    make(map[int64]int32),
	}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func containsAll(set map[string]struct{}, required []string) bool {
	for _, v := range required {
		if _, ok := set[v]; !ok {
			return false
		}
	}
	return true
}

func setEquals(set map[string]struct{}, other []string) bool {
	return len(set) == len(other) && containsAll(set, other)
}
