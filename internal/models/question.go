package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	// QuestionTypeMultipleChoice is auto-resolved against the answer key.
	QuestionTypeMultipleChoice = "multiple_choice"
	// QuestionTypeFreeText requires a manual verdict.
	QuestionTypeFreeText = "free_text"
	// QuestionTypeCode requires a manual verdict; answers may attach files.
	QuestionTypeCode = "code"
)

// Question belongs to an assignment. Options are stored as a JSON array and
// only populated for multiple choice; AnswerKey holds the correct option.
type Question struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	AssignmentID uint           `gorm:"not null;index" json:"assignment_id"`
	Position     int            `gorm:"not null" json:"position"`
	Type         string         `gorm:"size:32;not null" json:"type"`
	Text         string         `gorm:"type:text;not null" json:"text"`
	MaxMarks     float64        `gorm:"not null" json:"max_marks"`
	Options      datatypes.JSON `json:"options,omitempty"`
	AnswerKey    string         `gorm:"size:255" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// IsMultipleChoice reports whether the question resolves automatically.
func (q Question) IsMultipleChoice() bool {
	return q.Type == QuestionTypeMultipleChoice
}
