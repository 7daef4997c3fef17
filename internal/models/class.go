package models

import "time"

// Weekdays lists the schedule day codes in calendar order.
var Weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// TutorClass is a recurring class run by a tutor for a monthly price.
type TutorClass struct {
	ID           string    `db:"id" json:"id"`
	TutorID      string    `db:"tutor_id" json:"tutor_id"`
	Title        string    `db:"title" json:"title"`
	Subject      string    `db:"subject" json:"subject"`
	Grade        int       `db:"grade" json:"grade"`
	MonthlyPrice float64   `db:"monthly_price" json:"monthly_price"`
	ScheduleDays []string  `db:"-" json:"schedule_days"`
	StartTime    string    `db:"start_time" json:"start_time"`
	MeetingLink  *string   `db:"meeting_link" json:"meeting_link"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`

	Tutor           *Sender `db:"-" json:"tutor,omitempty"`
	EnrollmentCount int     `db:"-" json:"enrollment_count"`
}

// HasMeetingLink reports whether a video room was provisioned for the class.
func (c TutorClass) HasMeetingLink() bool {
	return c.MeetingLink != nil && *c.MeetingLink != ""
}

// NewClass carries the fields a tutor supplies when creating a class.
type NewClass struct {
	Title        string   `json:"title" binding:"required,min=3"`
	Subject      string   `json:"subject" binding:"required"`
	Grade        int      `json:"grade" binding:"required,min=10,max=12"`
	MonthlyPrice float64  `json:"monthly_price" binding:"min=0"`
	ScheduleDays []string `json:"schedule_days" binding:"required,min=1,dive,weekday"`
	StartTime    string   `json:"start_time" binding:"required,clock"`
}
