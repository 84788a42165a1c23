// Package seed generates fixture data for development environments.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shiftwise-dev/workforce/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var (
	firstNames = []string{"Alex", "Robin", "Sam", "Jamie", "Morgan", "Casey", "Taylor", "Jordan", "Riley", "Quinn"}
	lastNames  = []string{"Smith", "Jones", "Miller", "Brown", "Davis", "Wilson", "Moore", "Clark", "Lewis", "Walker"}

	skillPool         = []string{"reception", "security", "first-aid", "cash-handling", "logistics", "driving"}
	qualificationPool = []string{"forklift-license", "security-cert", "food-safety", "crowd-management"}
	behaviourPool     = []string{"night-shift", "customer-facing", "team-lead"}

	leaveTypes = []string{"vacation", "sick", "training", "parental"}
)

func pickSome(pool []string, max int) []string {
	n := 1 + rand.Intn(max)
	picked := make([]string, 0, n)
	for _, i := range rand.Perm(len(pool))[:n] {
		picked = append(picked, pool[i])
	}
	return picked
}

func RandomUser(password string) (*domain.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	first := firstNames[rand.Intn(len(firstNames))]
	last := lastNames[rand.Intn(len(lastNames))]
	username := fmt.Sprintf("%s.%s%d", first, last, rand.Intn(10000))

	return &domain.User{
		Username:     username,
		PasswordHash: string(hashed),
		FullName:     first + " " + last,
		Email:        username + "@example.com",
		Role:         domain.RolePlanner,
	}, nil
}

func RandomHumanResource(environmentID int64) *domain.HumanResource {
	costPerHour := 12 + rand.Float64()*18

	return &domain.HumanResource{
		EnvironmentID:       environmentID,
		FullName:            firstNames[rand.Intn(len(firstNames))] + " " + lastNames[rand.Intn(len(lastNames))],
		Skills:              pickSome(skillPool, 3),
		Qualification:       pickSome(qualificationPool, 2),
		Behaviours:          pickSome(behaviourPool, 2),
		CostPerHour:         costPerHour,
		OvertimeCostPerHour: costPerHour * 1.5,
		MonthlyFixedCost:    float64(200 + rand.Intn(400)),
		ContractedHours:     float64(20 + 5*rand.Intn(5)),
		CycleDays:           7,
		MinQuantity:         0,
		MaxQuantity:         int32(5 + rand.Intn(10)),
		PriorityWeight:      float64(rand.Intn(10)),
	}
}

// RandomTourSchedule lays out one morning and one evening demand period per
// day over the given range.
func RandomTourSchedule(environmentID int64, start time.Time, days int) *domain.TourSchedule {
	schedule := &domain.TourSchedule{
		EnvironmentID: environmentID,
		Name:          fmt.Sprintf("Tour schedule %s", start.Format("2006-01-02")),
		StartDate:     start,
		EndDate:       start.AddDate(0, 0, days),
	}

	for day := 0; day < days; day++ {
		base := start.AddDate(0, 0, day)
		minHeadcount := int32(1 + rand.Intn(3))

		schedule.Periods = append(schedule.Periods,
			domain.DemandPeriod{
				WorkUnitID:     1,
				StartTime:      base.Add(8 * time.Hour),
				EndTime:        base.Add(14 * time.Hour),
				MinHeadcount:   minHeadcount,
				MaxHeadcount:   minHeadcount + 2,
				RequiredSkills: pickSome(skillPool, 2),
			},
			domain.DemandPeriod{
				WorkUnitID:         2,
				StartTime:          base.Add(14 * time.Hour),
				EndTime:            base.Add(20 * time.Hour),
				MinHeadcount:       minHeadcount,
				MaxHeadcount:       minHeadcount + 2,
				RequiredSkills:     pickSome(skillPool, 2),
				RequiredBehaviours: []string{"customer-facing"},
			},
		)
	}

	return schedule
}

func RandomLeaveTake(humanResourceID int64, scheduleStart time.Time) *domain.LeaveTake {
	start := scheduleStart.AddDate(0, 0, rand.Intn(14))
	return &domain.LeaveTake{
		HumanResourceID: humanResourceID,
		LeaveType:       leaveTypes[rand.Intn(len(leaveTypes))],
		StartTime:       start,
		EndTime:         start.AddDate(0, 0, 1+rand.Intn(3)),
	}
}
