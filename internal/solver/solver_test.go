package solver

import (
	"testing"
	"time"

	"github.com/shiftwise-dev/workforce/backend/internal/domain"
	"github.com/stretchr/testify/require"
)

var scheduleStart = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
var scheduleEnd = scheduleStart.AddDate(0, 0, 28)

func testResource(id int64, skills []string, contractedHours float64) *domain.HumanResource {
	return &domain.HumanResource{
		ID:                  id,
		FullName:            "resource",
		Skills:              skills,
		CostPerHour:         10,
		OvertimeCostPerHour: 15,
		ContractedHours:     contractedHours,
		CycleDays:           7,
		MaxQuantity:         100,
	}
}

func testPeriod(id int64, dayOffset int, startHour, endHour int, minHC, maxHC int32, skills ...string) *domain.DemandPeriod {
	day := scheduleStart.AddDate(0, 0, dayOffset)
	return &domain.DemandPeriod{
		ID:             id,
		StartTime:      day.Add(time.Duration(startHour) * time.Hour),
		EndTime:        day.Add(time.Duration(endHour) * time.Hour),
		MinHeadcount:   minHC,
		MaxHeadcount:   maxHC,
		RequiredSkills: skills,
	}
}

func testInput(resources []*domain.HumanResource, periods []*domain.DemandPeriod) Input {
	return Input{
		Parameters: domain.OptimizationParameters{OptimizationID: 1},
		Resources:  resources,
		Periods:    periods,
		StartDate:  scheduleStart,
		EndDate:    scheduleEnd,
	}
}

func solve(t *testing.T, in Input) *Solution {
	t.Helper()
	s, err := New(in)
	require.NoError(t, err)
	return s.Solve()
}

func TestSolveTieBreaksByResourceID(t *testing.T) {
	// two equivalent resources, one 4h period needing skill X: the lower ID
	// wins, and repeated runs agree
	in := testInput(
		[]*domain.HumanResource{
			testResource(1, []string{"X"}, 8),
			testResource(2, []string{"X", "Y"}, 8),
		},
		[]*domain.DemandPeriod{testPeriod(10, 0, 9, 13, 1, 1, "X")},
	)

	sol := solve(t, in)
	require.True(t, sol.Feasible)
	require.Len(t, sol.Assignments, 1)
	require.Equal(t, int64(1), sol.Assignments[0].HumanResourceID)
	require.Equal(t, int64(10), sol.Assignments[0].DemandPeriodID)
	require.Equal(t, 0.0, sol.Assignments[0].OvertimeHours)

	again := solve(t, in)
	require.Equal(t, sol, again)
}

func TestSolveDeterminism(t *testing.T) {
	resources := []*domain.HumanResource{
		testResource(3, []string{"X", "Y"}, 40),
		testResource(1, []string{"X"}, 40),
		testResource(2, []string{"Y"}, 40),
		testResource(4, []string{"X", "Y", "Z"}, 40),
	}
	periods := []*domain.DemandPeriod{
		testPeriod(1, 0, 8, 16, 2, 3, "X"),
		testPeriod(2, 0, 16, 22, 1, 2, "Y"),
		testPeriod(3, 1, 8, 16, 1, 1, "Z"),
		testPeriod(4, 2, 8, 12, 2, 2),
	}

	first := solve(t, testInput(resources, periods))
	for i := 0; i < 5; i++ {
		require.Equal(t, first, solve(t, testInput(resources, periods)))
	}
}

func TestSolveReusedSolverIsRepeatable(t *testing.T) {
	// a second run on the same Solver must not see bookings left over from
	// the first one
	in := testInput(
		[]*domain.HumanResource{
			testResource(1, []string{"X"}, 8),
			testResource(2, []string{"X"}, 8),
		},
		[]*domain.DemandPeriod{testPeriod(10, 0, 9, 13, 1, 1, "X")},
	)

	s, err := New(in)
	require.NoError(t, err)

	first := s.Solve()
	second := s.Solve()

	require.Len(t, first.Assignments, 1)
	require.Equal(t, int64(1), first.Assignments[0].HumanResourceID)
	require.Equal(t, first, second)
}

func TestSolveNoDoubleBooking(t *testing.T) {
	resources := []*domain.HumanResource{
		testResource(1, []string{"X"}, 80),
		testResource(2, []string{"X"}, 80),
	}
	// overlapping periods force the solver to spread them out
	periods := []*domain.DemandPeriod{
		testPeriod(1, 0, 8, 16, 1, 1, "X"),
		testPeriod(2, 0, 12, 20, 1, 1, "X"),
		testPeriod(3, 0, 15, 18, 0, 1, "X"),
	}

	sol := solve(t, testInput(resources, periods))

	byResource := make(map[int64][]domain.TourScheduleAssignment)
	for _, a := range sol.Assignments {
		byResource[a.HumanResourceID] = append(byResource[a.HumanResourceID], a)
	}
	for _, list := range byResource {
		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				overlap := list[i].StartTime.Before(list[j].EndTime) && list[j].StartTime.Before(list[i].EndTime)
				require.False(t, overlap, "resource %d double-booked", list[i].HumanResourceID)
			}
		}
	}
}

func TestSolveHeadcountBounds(t *testing.T) {
	resources := []*domain.HumanResource{
		testResource(1, []string{"X"}, 40),
		testResource(2, []string{"X"}, 40),
		testResource(3, []string{"X"}, 40),
		testResource(4, []string{"X"}, 40),
	}
	periods := []*domain.DemandPeriod{
		testPeriod(1, 0, 8, 12, 2, 3, "X"),
		testPeriod(2, 1, 8, 12, 1, 4, "X"),
	}

	sol := solve(t, testInput(resources, periods))
	require.True(t, sol.Feasible)

	counts := make(map[int64]int32)
	for _, a := range sol.Assignments {
		counts[a.DemandPeriodID]++
	}
	for _, p := range periods {
		require.GreaterOrEqual(t, counts[p.ID], p.MinHeadcount)
		require.LessOrEqual(t, counts[p.ID], p.MaxHeadcount)
	}
}

func TestSolveSkillEligibility(t *testing.T) {
	resources := []*domain.HumanResource{
		testResource(1, []string{"X"}, 40),
		testResource(2, []string{"X", "Y"}, 40),
	}
	resources[1].Qualification = []string{"nurse"}
	periods := []*domain.DemandPeriod{
		{
			ID:                     1,
			StartTime:              scheduleStart.Add(8 * time.Hour),
			EndTime:                scheduleStart.Add(12 * time.Hour),
			MinHeadcount:           1,
			MaxHeadcount:           1,
			RequiredSkills:         []string{"Y"},
			RequiredQualifications: []string{"nurse"},
		},
	}

	sol := solve(t, testInput(resources, periods))
	require.True(t, sol.Feasible)
	require.Len(t, sol.Assignments, 1)
	require.Equal(t, int64(2), sol.Assignments[0].HumanResourceID)
}

func TestSolvePartialInfeasibility(t *testing.T) {
	resources := []*domain.HumanResource{testResource(1, []string{"X"}, 40)}
	periods := []*domain.DemandPeriod{
		testPeriod(1, 0, 8, 12, 2, 3, "X"), // needs 2, only 1 eligible
		testPeriod(2, 1, 8, 12, 1, 1, "X"),
	}

	sol := solve(t, testInput(resources, periods))
	require.False(t, sol.Feasible)
	require.Equal(t, []int64{1}, sol.UnsatisfiedPeriodIDs)

	// the unsatisfied period gets nothing, the other is still solved
	require.Len(t, sol.Assignments, 1)
	require.Equal(t, int64(2), sol.Assignments[0].DemandPeriodID)
}

func TestSolveRespectsLeave(t *testing.T) {
	resources := []*domain.HumanResource{
		testResource(1, []string{"X"}, 40),
		testResource(2, []string{"X"}, 40),
	}
	in := testInput(resources, []*domain.DemandPeriod{testPeriod(1, 0, 8, 12, 1, 1, "X")})
	in.Leaves = []*domain.LeaveTake{
		{
			ID:              1,
			HumanResourceID: 1,
			StartTime:       scheduleStart,
			EndTime:         scheduleStart.AddDate(0, 0, 1),
		},
	}

	sol := solve(t, in)
	require.True(t, sol.Feasible)
	require.Len(t, sol.Assignments, 1)
	require.Equal(t, int64(2), sol.Assignments[0].HumanResourceID)
}

func TestSolveOvertime(t *testing.T) {
	// 6 contracted hours, one 8h period: only assignable with overtime, and
	// the 2h shortfall is charged as overtime
	resources := []*domain.HumanResource{testResource(1, []string{"X"}, 6)}
	periods := []*domain.DemandPeriod{testPeriod(1, 0, 8, 16, 1, 1, "X")}

	in := testInput(resources, periods)
	sol := solve(t, in)
	require.False(t, sol.Feasible)
	require.Empty(t, sol.Assignments)

	in.Parameters.AllowOvertime = true
	in.Parameters.MaxOvertimeHours = 10
	sol = solve(t, in)
	require.True(t, sol.Feasible)
	require.Len(t, sol.Assignments, 1)
	require.Equal(t, 2.0, sol.Assignments[0].OvertimeHours)
	// 6h normal at 10 + 2h overtime at 15
	require.InDelta(t, 90.0, sol.TotalCost, 1e-9)
}

func TestSolvePrefersNormalCapacityOverOvertime(t *testing.T) {
	exhausted := testResource(1, []string{"X"}, 2)
	exhausted.PriorityWeight = 5
	fresh := testResource(2, []string{"X"}, 40)

	in := testInput(
		[]*domain.HumanResource{exhausted, fresh},
		[]*domain.DemandPeriod{testPeriod(1, 0, 8, 16, 1, 1, "X")},
	)
	in.Parameters.AllowOvertime = true

	sol := solve(t, in)
	require.Len(t, sol.Assignments, 1)
	// higher priority does not beat normal capacity
	require.Equal(t, int64(2), sol.Assignments[0].HumanResourceID)
}

func TestSolveFairnessSpreadsHours(t *testing.T) {
	resources := []*domain.HumanResource{
		testResource(1, []string{"X"}, 40),
		testResource(2, []string{"X"}, 40),
	}
	periods := []*domain.DemandPeriod{
		testPeriod(1, 0, 8, 12, 1, 1, "X"),
		testPeriod(2, 1, 8, 12, 1, 1, "X"),
	}

	in := testInput(resources, periods)
	in.Parameters.FairnessWeight = 1

	sol := solve(t, in)
	require.Len(t, sol.Assignments, 2)
	require.NotEqual(t, sol.Assignments[0].HumanResourceID, sol.Assignments[1].HumanResourceID)
}

func TestNewRejectsInvalidInput(t *testing.T) {
	_, err := New(testInput([]*domain.HumanResource{testResource(1, nil, 40)}, nil))
	require.ErrorContains(t, err, "no demand periods")

	bad := testResource(1, []string{"X"}, 40)
	bad.MinQuantity = 3
	bad.MaxQuantity = 1
	_, err = New(testInput(
		[]*domain.HumanResource{bad},
		[]*domain.DemandPeriod{testPeriod(1, 0, 8, 12, 1, 1, "X")},
	))
	require.ErrorContains(t, err, "min quantity 3 exceeds max 1")

	_, err = New(testInput(
		[]*domain.HumanResource{testResource(1, []string{"X"}, 40)},
		[]*domain.DemandPeriod{testPeriod(1, 0, 12, 12, 2, 1, "X")},
	))
	require.ErrorContains(t, err, "min headcount 2 exceeds max 1")
	require.ErrorContains(t, err, "end time not after start time")
}
