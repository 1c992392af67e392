package dto

import "time"

// GradingProgress summarizes one assignment's evaluation backlog.
type GradingProgress struct {
	AssignmentID      uint      `json:"assignment_id"`
	Title             string    `json:"title"`
	DueDate           time.Time `json:"due_date"`
	Submissions       int       `json:"submissions"`
	Evaluated         int       `json:"evaluated"`
	AwaitingReview    int       `json:"awaiting_review"`
	AveragePercentage float64   `json:"average_percentage"`
}

// TeacherDashboardResponse aggregates grading workload for a teacher.
type TeacherDashboardResponse struct {
	TotalSubmissions  int               `json:"total_submissions"`
	TotalEvaluated    int               `json:"total_evaluated"`
	TotalAwaiting     int               `json:"total_awaiting"`
	AveragePercentage float64           `json:"average_percentage"`
	Assignments       []GradingProgress `json:"assignments"`
	GeneratedAt       time.Time         `json:"generated_at"`
	CacheHit          bool              `json:"cache_hit"`
}
