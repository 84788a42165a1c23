package domain

import "time"

type OptimizationStatus string

const (
	OptimizationPending    OptimizationStatus = "Pending"
	OptimizationInProgress OptimizationStatus = "InProgress"
	OptimizationCompleted  OptimizationStatus = "Completed"
	OptimizationFailed     OptimizationStatus = "Failed"
)

// Optimization is the persisted unit of work tracking one solve request for a
// tour schedule. The row is only ever written as a whole; the status claim and
// the worker's terminal write are the two conditional exceptions (see
// repository).
type Optimization struct {
	ID                   int64              `json:"id"`
	TourScheduleID       int64              `json:"tourScheduleID"`
	EnvironmentID        int64              `json:"environmentID"`
	StartDate            time.Time          `json:"startDate"`
	EndDate              time.Time          `json:"endDate"`
	Status               OptimizationStatus `json:"status"`
	ErrorMessage         *string            `json:"errorMessage,omitempty"`
	UnsatisfiedPeriodIDs []int64            `json:"unsatisfiedPeriodIDs,omitempty"`
	CreatedAt            time.Time          `json:"createdAt"`
	Version              int32              `json:"-"`
}

// OptimizationParameters is the solve request payload. The weights are passed
// through to the solver untouched.
type OptimizationParameters struct {
	OptimizationID   int64   `json:"optimizationID"`
	CostWeight       float64 `json:"costWeight"`
	FairnessWeight   float64 `json:"fairnessWeight"`
	AllowOvertime    bool    `json:"allowOvertime"`
	MaxOvertimeHours float64 `json:"maxOvertimeHours"`
}

// SolveMessage is the envelope published to the optimization queue.
type SolveMessage struct {
	Parameters  OptimizationParameters `json:"parameters"`
	NotifyEmail string                 `json:"notifyEmail,omitempty"`
}

// TourScheduleAssignment binds one human resource to one demand period for a
// concrete time window. OvertimeHours is the part of the window charged at the
// resource's overtime rate.
type TourScheduleAssignment struct {
	ID              int64     `json:"id"`
	OptimizationID  int64     `json:"optimizationID"`
	HumanResourceID int64     `json:"humanResourceID"`
	DemandPeriodID  int64     `json:"demandPeriodID"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	OvertimeHours   float64   `json:"overtimeHours"`
}
