// Package classes implements recurring classes: creation with a provisioned
// video room, discovery, subscriptions and membership checks.
package classes

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"tutoring-service/internal/logging"
	"tutoring-service/internal/models"
	"tutoring-service/internal/repositories"
	"tutoring-service/internal/rooms"
)

var (
	ErrNotTutor   = errors.New("only tutors can create classes")
	ErrNotStudent = errors.New("only students can subscribe to classes")
	ErrNotOwner   = errors.New("class belongs to another tutor")
	ErrNotMember  = errors.New("not a member of this class")
	ErrNoSession  = errors.New("no active session for this class")
)

type Service struct {
	classes     repositories.ClassRepository
	enrollments repositories.EnrollmentRepository
	rooms       rooms.Provisioner
	validate    *validator.Validate
	log         zerolog.Logger
}

func NewService(classes repositories.ClassRepository, enrollments repositories.EnrollmentRepository, provisioner rooms.Provisioner) *Service {
	return &Service{
		classes:     classes,
		enrollments: enrollments,
		rooms:       provisioner,
		validate:    newValidator(),
		log:         logging.With("classes"),
	}
}

// CreateClass provisions a room labelled with the class title, then stores the
// class with the room URL as its meeting link. Nothing is stored when
// provisioning fails.
func (s *Service) CreateClass(ctx context.Context, tutor models.Profile, in models.NewClass) (models.TutorClass, error) {
	if !tutor.IsTutor() {
		return models.TutorClass{}, ErrNotTutor
	}
	if err := s.validate.Struct(in); err != nil {
		return models.TutorClass{}, err
	}

	room, err := s.rooms.CreateRoom(ctx, in.Title)
	if err != nil {
		return models.TutorClass{}, fmt.Errorf("provision room: %w", err)
	}

	class, err := s.classes.CreateClass(ctx, tutor.ID, in, room.URL)
	if err != nil {
		// The room is left to expire on its own.
		s.log.Error().Err(err).Str("room", room.Name).Msg("class insert failed after room was provisioned")
		return models.TutorClass{}, err
	}

	s.log.Info().Str("class_id", class.ID).Str("tutor_id", tutor.ID).Str("room", room.Name).Msg("class created")
	return class, nil
}

// Browse lists active classes, newest first, with enrollment counts.
func (s *Service) Browse(ctx context.Context, f Filter) ([]models.TutorClass, error) {
	list, err := s.classes.ListActiveClasses(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.attachCounts(ctx, list); err != nil {
		return nil, err
	}
	return f.Apply(list), nil
}

// ClassesForProfile returns a tutor's own classes or a student's enrolled ones.
func (s *Service) ClassesForProfile(ctx context.Context, profile models.Profile) ([]models.TutorClass, error) {
	if profile.IsTutor() {
		list, err := s.classes.ListClassesByTutor(ctx, profile.ID)
		if err != nil {
			return nil, err
		}
		if err := s.attachCounts(ctx, list); err != nil {
			return nil, err
		}
		return list, nil
	}

	enrollments, err := s.enrollments.ListForStudent(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	list := make([]models.TutorClass, 0, len(enrollments))
	for _, e := range enrollments {
		if e.Class != nil {
			list = append(list, *e.Class)
		}
	}
	return list, nil
}

func (s *Service) attachCounts(ctx context.Context, list []models.TutorClass) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]string, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.ID)
	}
	counts, err := s.classes.EnrollmentCounts(ctx, ids)
	if err != nil {
		return err
	}
	for i := range list {
		list[i].EnrollmentCount = counts[list[i].ID]
	}
	return nil
}

// Subscribe enrolls a student. A second subscription returns
// repositories.ErrAlreadySubscribed.
func (s *Service) Subscribe(ctx context.Context, student models.Profile, classID string) (models.Enrollment, error) {
	if !student.IsStudent() {
		return models.Enrollment{}, ErrNotStudent
	}
	class, err := s.classes.GetClass(ctx, classID)
	if err != nil {
		return models.Enrollment{}, err
	}
	if !class.IsActive {
		return models.Enrollment{}, repositories.ErrClassNotFound
	}
	return s.enrollments.Enroll(ctx, student.ID, classID)
}

// Students returns the roster of a class owned by tutor.
func (s *Service) Students(ctx context.Context, tutor models.Profile, classID string) ([]models.Profile, error) {
	class, err := s.classes.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class.TutorID != tutor.ID {
		return nil, ErrNotOwner
	}
	return s.enrollments.ListStudents(ctx, classID)
}

// Authorize returns the class when profile is its tutor or an enrolled student.
func (s *Service) Authorize(ctx context.Context, profile models.Profile, classID string) (models.TutorClass, error) {
	class, err := s.classes.GetClass(ctx, classID)
	if err != nil {
		return models.TutorClass{}, err
	}
	if class.TutorID == profile.ID {
		return class, nil
	}
	enrolled, err := s.enrollments.IsEnrolled(ctx, classID, profile.ID)
	if err != nil {
		return models.TutorClass{}, err
	}
	if !enrolled {
		return models.TutorClass{}, ErrNotMember
	}
	return class, nil
}

// JoinLink returns the class meeting link for a member.
func (s *Service) JoinLink(ctx context.Context, profile models.Profile, classID string) (string, error) {
	class, err := s.Authorize(ctx, profile, classID)
	if err != nil {
		return "", err
	}
	if !class.HasMeetingLink() {
		return "", ErrNoSession
	}
	return *class.MeetingLink, nil
}
