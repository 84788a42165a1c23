package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type OptimizationFinishedMailData struct {
	OptimizationID  int64  `json:"optimizationID"`
	TourScheduleID  int64  `json:"tourScheduleID"`
	Status          string `json:"status"`
	AssignmentCount int    `json:"assignmentCount"`
	ErrorMessage    string `json:"errorMessage,omitempty"`
}
