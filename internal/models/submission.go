package models

import "time"

const (
	// SubmissionStatusInProgress means the evaluation is open for grading.
	SubmissionStatusInProgress = "in_progress"
	// SubmissionStatusEvaluated means the evaluation has been finalized and
	// the submission is permanently read-only.
	SubmissionStatusEvaluated = "evaluated"
)

// Submission is a student's answer set for one assignment.
type Submission struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	AssignmentID    uint       `gorm:"not null;index" json:"assignment_id"`
	StudentID       uint       `gorm:"not null;index" json:"student_id"`
	Status          string     `gorm:"size:32;not null" json:"status"`
	OverallFeedback string     `gorm:"type:text" json:"overall_feedback"`
	EvaluatedAt     *time.Time `json:"evaluated_at"`
	EvaluatedBy     *uint      `json:"evaluated_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Assignment      Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
	Student         Student    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Answers         []Answer   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"answers"`
}

// IsEvaluated reports whether the submission's evaluation was finalized.
func (s Submission) IsEvaluated() bool {
	return s.Status == SubmissionStatusEvaluated
}
