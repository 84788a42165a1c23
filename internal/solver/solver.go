// Package solver assigns human resources to the demand periods of a tour
// schedule. It is a pure computation: a Solver is built from an immutable
// snapshot, holds no state across Solve calls and performs no I/O, so repeated
// runs on identical input produce identical output.
package solver

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shiftwise-dev/workforce/backend/internal/domain"
)

const defaultCycleDays = 7

// hoursEpsilon absorbs float drift when comparing accumulated hours against
// contracted capacity.
const hoursEpsilon = 1e-9

type Solver struct {
	in               Input
	states           []*resourceState // sorted by resource ID
	leavesByResource map[int64][]*domain.LeaveTake
}

// New validates the snapshot and builds the solver. All precondition
// violations are reported in a single error.
func New(in Input) (*Solver, error) {
	var violations []string

	if len(in.Periods) == 0 {
		violations = append(violations, "no demand periods")
	}
	if in.EndDate.Before(in.StartDate) {
		violations = append(violations, "schedule end date before start date")
	}
	for _, p := range in.Periods {
		if p.MinHeadcount < 0 {
			violations = append(violations, fmt.Sprintf("demand period %d: negative min headcount", p.ID))
		}
		if p.MinHeadcount > p.MaxHeadcount {
			violations = append(violations, fmt.Sprintf("demand period %d: min headcount %d exceeds max %d", p.ID, p.MinHeadcount, p.MaxHeadcount))
		}
		if !p.EndTime.After(p.StartTime) {
			violations = append(violations, fmt.Sprintf("demand period %d: end time not after start time", p.ID))
		}
	}
	for _, r := range in.Resources {
		if r.MinQuantity < 0 {
			violations = append(violations, fmt.Sprintf("resource %d: negative min quantity", r.ID))
		}
		if r.MinQuantity > r.MaxQuantity {
			violations = append(violations, fmt.Sprintf("resource %d: min quantity %d exceeds max %d", r.ID, r.MinQuantity, r.MaxQuantity))
		}
		if r.CostPerHour < 0 || r.OvertimeCostPerHour < 0 {
			violations = append(violations, fmt.Sprintf("resource %d: negative cost rate", r.ID))
		}
		if r.ContractedHours < 0 {
			violations = append(violations, fmt.Sprintf("resource %d: negative contracted hours", r.ID))
		}
	}
	if len(violations) > 0 {
		return nil, fmt.Errorf("invalid solver input: %s", strings.Join(violations, "; "))
	}

	s := &Solver{
		in:               in,
		leavesByResource: make(map[int64][]*domain.LeaveTake),
	}

	for _, l := range in.Leaves {
		s.leavesByResource[l.HumanResourceID] = append(s.leavesByResource[l.HumanResourceID], l)
	}

	return s, nil
}

// Solve assigns resources period by period in chronological order. Periods
// that cannot reach their minimum headcount are reported as unsatisfied while
// the remaining periods are still solved.
func (s *Solver) Solve() *Solution {
	// per-resource bookkeeping is rebuilt on every run, so a reused Solver
	// produces the same solution each time
	s.states = make([]*resourceState, 0, len(s.in.Resources))
	for _, r := range s.in.Resources {
		s.states = append(s.states, newResourceState(r))
	}
	sort.Slice(s.states, func(i, j int) bool {
		return s.states[i].resource.ID < s.states[j].resource.ID
	})

	periods := make([]*domain.DemandPeriod, len(s.in.Periods))
	copy(periods, s.in.Periods)
	sort.Slice(periods, func(i, j int) bool {
		if !periods[i].StartTime.Equal(periods[j].StartTime) {
			return periods[i].StartTime.Before(periods[j].StartTime)
		}
		if !periods[i].EndTime.Equal(periods[j].EndTime) {
			return periods[i].EndTime.Before(periods[j].EndTime)
		}
		return periods[i].ID < periods[j].ID
	})

	solution := &Solution{
		Assignments:          make([]domain.TourScheduleAssignment, 0),
		UnsatisfiedPeriodIDs: make([]int64, 0),
	}

	for _, p := range periods {
		candidates := s.eligibleCandidates(p)
		s.rankCandidates(candidates)

		need := int(p.MinHeadcount)
		if len(candidates) < need {
			solution.UnsatisfiedPeriodIDs = append(solution.UnsatisfiedPeriodIDs, p.ID)
			continue
		}

		picked := candidates[:need]
		// within one period the output is ordered by resource ID
		sort.Slice(picked, func(i, j int) bool {
			return picked[i].state.resource.ID < picked[j].state.resource.ID
		})

		for _, c := range picked {
			solution.Assignments = append(solution.Assignments, s.commit(c, p))
			solution.TotalCost += c.marginalCost
		}
	}

	// fixed monthly costs, pro-rated over the schedule range, counted once
	// per resource that received any work
	scheduleDays := s.in.EndDate.Sub(s.in.StartDate).Hours() / 24
	for _, st := range s.states {
		if st.totalHours > 0 {
			solution.TotalCost += st.resource.MonthlyFixedCost * scheduleDays / 30
		}
	}

	solution.Feasible = len(solution.UnsatisfiedPeriodIDs) == 0
	return solution
}

// eligibleCandidates returns the resources that can legally take the period:
// required sets covered, no leave or committed assignment overlapping the
// window, engagement quantity not exhausted, and enough normal or overtime
// capacity left in the working-time cycle.
func (s *Solver) eligibleCandidates(p *domain.DemandPeriod) []*candidate {
	hours := p.EndTime.Sub(p.StartTime).Hours()

	var candidates []*candidate
	for _, st := range s.states {
		r := st.resource
		cycle := s.cycleIndex(r, p.StartTime)

		if !containsAll(st.skills, p.RequiredSkills) ||
			!containsAll(st.qualifications, p.RequiredQualifications) ||
			!containsAll(st.behaviours, p.RequiredBehaviours) {
			continue
		}
		if s.onLeave(r.ID, p.StartTime, p.EndTime) {
			continue
		}
		if overlapsAny(st.windows, p.StartTime, p.EndTime) {
			continue
		}
		if r.MaxQuantity > 0 && st.engagements[cycle] >= r.MaxQuantity {
			continue
		}

		normalPart := hours
		overtimePart := 0.0
		remaining := r.ContractedHours - st.normalHours[cycle]
		if remaining < hours-hoursEpsilon {
			if remaining < 0 {
				remaining = 0
			}
			normalPart = remaining
			overtimePart = hours - remaining

			if !s.in.Parameters.AllowOvertime {
				continue
			}
			if s.in.Parameters.MaxOvertimeHours > 0 &&
				st.overtimeHours[cycle]+overtimePart > s.in.Parameters.MaxOvertimeHours+hoursEpsilon {
				continue
			}
		}

		candidates = append(candidates, &candidate{
			state:        st,
			normalPart:   normalPart,
			overtimePart: overtimePart,
			marginalCost: normalPart*r.CostPerHour + overtimePart*r.OvertimeCostPerHour,
			exactMatch:   setEquals(st.qualifications, p.RequiredQualifications),
		})
	}

	return candidates
}

// rankCandidates orders candidates by the conflict-resolution rules: normal
// capacity before overtime, then priority weight descending, then lower
// accumulated cost, then (when fairness weighting is on) fewer assigned hours,
// then exact qualification match, then cheaper marginal cost, and finally
// resource ID ascending so repeated runs break ties identically.
func (s *Solver) rankCandidates(candidates []*candidate) {
	fairness := s.in.Parameters.FairnessWeight > 0

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]

		aOvertime := a.overtimePart > 0
		bOvertime := b.overtimePart > 0
		if aOvertime != bOvertime {
			return !aOvertime
		}
		if a.state.resource.PriorityWeight != b.state.resource.PriorityWeight {
			return a.state.resource.PriorityWeight > b.state.resource.PriorityWeight
		}
		if a.state.totalCost != b.state.totalCost {
			return a.state.totalCost < b.state.totalCost
		}
		if fairness && a.state.totalHours != b.state.totalHours {
			return a.state.totalHours < b.state.totalHours
		}
		if a.exactMatch != b.exactMatch {
			return a.exactMatch
		}
		if a.marginalCost != b.marginalCost {
			return a.marginalCost < b.marginalCost
		}
		return a.state.resource.ID < b.state.resource.ID
	})
}

func (s *Solver) commit(c *candidate, p *domain.DemandPeriod) domain.TourScheduleAssignment {
	st := c.state
	cycle := s.cycleIndex(st.resource, p.StartTime)

	st.windows = append(st.windows, window{start: p.StartTime, end: p.EndTime})
	st.normalHours[cycle] += c.normalPart
	st.overtimeHours[cycle] += c.overtimePart
	st.engagements[cycle]++
	st.totalHours += c.normalPart + c.overtimePart
	st.totalCost += c.marginalCost

	return domain.TourScheduleAssignment{
		HumanResourceID: st.resource.ID,
		DemandPeriodID:  p.ID,
		StartTime:       p.StartTime,
		EndTime:         p.EndTime,
		OvertimeHours:   c.overtimePart,
	}
}

func (s *Solver) onLeave(resourceID int64, start, end time.Time) bool {
	for _, l := range s.leavesByResource[resourceID] {
		if l.StartTime.Before(end) && start.Before(l.EndTime) {
			return true
		}
	}
	return false
}

// cycleIndex buckets a point in time into the resource's working-time cycle,
// anchored at the schedule start date.
func (s *Solver) cycleIndex(r *domain.HumanResource, t time.Time) int64 {
	days := r.CycleDays
	if days <= 0 {
		days = defaultCycleDays
	}
	return int64(t.Sub(s.in.StartDate) / (time.Duration(days) * 24 * time.Hour))
}
