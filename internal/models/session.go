package models

import "time"

// SessionStatus is the lifecycle state of a one-to-one session.
type SessionStatus string

const (
	SessionScheduled  SessionStatus = "scheduled"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

// Session is a tutoring session between one tutor and one student.
type Session struct {
	ID          string        `db:"id" json:"id"`
	TutorID     string        `db:"tutor_id" json:"tutor_id"`
	StudentID   string        `db:"student_id" json:"student_id"`
	Title       string        `db:"title" json:"title"`
	Subject     string        `db:"subject" json:"subject"`
	StartTime   time.Time     `db:"start_time" json:"start_time"`
	EndTime     *time.Time    `db:"end_time" json:"end_time"`
	MeetingLink *string       `db:"meeting_link" json:"meeting_link"`
	Status      SessionStatus `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}

// HasParticipant reports whether the profile is the tutor or the student.
func (s Session) HasParticipant(profileID string) bool {
	return profileID != "" && (s.TutorID == profileID || s.StudentID == profileID)
}
