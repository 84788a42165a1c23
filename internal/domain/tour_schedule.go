package domain

import "time"

// DemandPeriod is a time-bounded slot of a tour schedule requiring a headcount
// within [MinHeadcount, MaxHeadcount] and a set of skills, qualifications and
// behaviours.
type DemandPeriod struct {
	ID                     int64     `json:"id"`
	WorkUnitID             int64     `json:"workUnitID"`
	StartTime              time.Time `json:"startTime"`
	EndTime                time.Time `json:"endTime"`
	MinHeadcount           int32     `json:"minHeadcount"`
	MaxHeadcount           int32     `json:"maxHeadcount"`
	RequiredSkills         []string  `json:"requiredSkills"`
	RequiredQualifications []string  `json:"requiredQualifications"`
	RequiredBehaviours     []string  `json:"requiredBehaviours"`
}

type TourSchedule struct {
	ID            int64          `json:"id"`
	EnvironmentID int64          `json:"environmentID"`
	Name          string         `json:"name"`
	StartDate     time.Time      `json:"startDate"`
	EndDate       time.Time      `json:"endDate"`
	Periods       []DemandPeriod `json:"periods"`
	CreatedAt     time.Time      `json:"createdAt"`
	Version       int32          `json:"-"`
}
