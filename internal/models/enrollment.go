package models

import "time"

// Enrollment is a student's subscription to a class.
type Enrollment struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	Class *TutorClass `db:"-" json:"class,omitempty"`
}
