package domain

import "time"

// LeaveTake is a confirmed absence interval of a human resource. The solver
// treats these as hard unavailability.
type LeaveTake struct {
	ID              int64     `json:"id"`
	HumanResourceID int64     `json:"humanResourceID"`
	LeaveType       string    `json:"leaveType"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	CreatedAt       time.Time `json:"createdAt"`
	Version         int32     `json:"-"`
}
