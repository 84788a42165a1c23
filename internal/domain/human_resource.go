package domain

import "time"

// HumanResource describes one assignable worker: what they can do, what they
// cost, and how much they may work per working-time cycle.
type HumanResource struct {
	ID            int64    `json:"id"`
	EnvironmentID int64    `json:"environmentID"`
	FullName      string   `json:"fullName"`
	Skills        []string `json:"skills"`
	Qualification []string `json:"qualifications"`
	Behaviours    []string `json:"behaviours"`

	CostPerHour         float64 `json:"costPerHour"`
	OvertimeCostPerHour float64 `json:"overtimeCostPerHour"`
	MonthlyFixedCost    float64 `json:"monthlyFixedCost"`

	// ContractedHours is the normal-capacity cap per working-time cycle of
	// CycleDays days.
	ContractedHours float64 `json:"contractedHours"`
	CycleDays       int32   `json:"cycleDays"`

	// MinQuantity/MaxQuantity bound how many engagements the resource takes
	// within one cycle.
	MinQuantity int32 `json:"minQuantity"`
	MaxQuantity int32 `json:"maxQuantity"`

	PriorityWeight float64 `json:"priorityWeight"`

	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}
