package classes

import (
	"context"

	"tutoring-service/internal/models"
)

// hoursPerClass is the credited learning time per enrolled class.
const hoursPerClass = 2

// Stats are the dashboard counters for one profile. Upcoming sessions count
// one per active class.
type Stats struct {
	TotalClasses     int  `json:"total_classes"`
	TotalStudents    int  `json:"total_students"`
	UpcomingSessions int  `json:"upcoming_sessions"`
	HoursLearned     *int `json:"hours_learned,omitempty"`
}

// Stats counts a tutor's active classes and their active enrollments, or a
// student's active enrollments.
func (s *Service) Stats(ctx context.Context, profile models.Profile) (Stats, error) {
	if profile.IsTutor() {
		list, err := s.classes.ListClassesByTutor(ctx, profile.ID)
		if err != nil {
			return Stats{}, err
		}
		if err := s.attachCounts(ctx, list); err != nil {
			return Stats{}, err
		}
		stats := Stats{TotalClasses: len(list), UpcomingSessions: len(list)}
		for _, c := range list {
			stats.TotalStudents += c.EnrollmentCount
		}
		return stats, nil
	}

	enrollments, err := s.enrollments.ListForStudent(ctx, profile.ID)
	if err != nil {
		return Stats{}, err
	}
	hours := len(enrollments) * hoursPerClass
	return Stats{
		TotalClasses:     len(enrollments),
		UpcomingSessions: len(enrollments),
		HoursLearned:     &hours,
	}, nil
}
