package models

import "time"

// Answer is one student response within a submission, together with its
// grading state. Verdict stores the tri-state judgment; multiple-choice
// verdicts are settled when the submission is loaded for evaluation.
type Answer struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SubmissionID   uint      `gorm:"not null;index" json:"submission_id"`
	QuestionID     uint      `gorm:"not null;index" json:"question_id"`
	StudentAnswer  string    `gorm:"type:text" json:"student_answer"`
	AttachmentURL  string    `gorm:"size:512" json:"attachment_url"`
	AwardedMarks   float64   `gorm:"not null;default:0" json:"awarded_marks"`
	Verdict        string    `gorm:"size:16;not null;default:pending" json:"verdict"`
	TeacherComment string    `gorm:"type:text" json:"teacher_comment"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Question       Question  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"question"`
}
