package models

import "time"

// Assignment is an authored set of questions with a deadline.
type Assignment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	DueDate     time.Time  `gorm:"not null" json:"due_date"`
	FileURL     string     `gorm:"size:512" json:"file_url"`
	MaxMarks    float64    `gorm:"not null;default:0" json:"max_marks"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Questions   []Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions"`
	Submissions []Submission
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}

// SumQuestionMarks recomputes the assignment-wide maximum from its questions.
func (a Assignment) SumQuestionMarks() float64 {
	var total float64
	for _, question := range a.Questions {
		total += question.MaxMarks
	}
	return total
}
