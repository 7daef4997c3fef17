package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"tutoring-service/internal/models"
	"tutoring-service/internal/repositories"
	"tutoring-service/internal/rooms"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, key models.ConversationKey) ([]models.MessageWithSender, error) {
	args := m.Called(ctx, key)
	var msgs []models.MessageWithSender
	if val := args.Get(0); val != nil {
		msgs = val.([]models.MessageWithSender)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID string) (models.MessageWithSender, error) {
	args := m.Called(ctx, messageID)
	var msg models.MessageWithSender
	if val := args.Get(0); val != nil {
		msg = val.(models.MessageWithSender)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, key models.ConversationKey, senderID string, content string) (models.Message, error) {
	args := m.Called(ctx, key, senderID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

type ClassRepositoryMock struct {
	mock.Mock
}

func (m *ClassRepositoryMock) CreateClass(ctx context.Context, tutorID string, in models.NewClass, meetingLink string) (models.TutorClass, error) {
	args := m.Called(ctx, tutorID, in, meetingLink)
	var class models.TutorClass
	if val := args.Get(0); val != nil {
		class = val.(models.TutorClass)
	}
	return class, args.Error(1)
}

func (m *ClassRepositoryMock) GetClass(ctx context.Context, classID string) (models.TutorClass, error) {
	args := m.Called(ctx, classID)
	var class models.TutorClass
	if val := args.Get(0); val != nil {
		class = val.(models.TutorClass)
	}
	return class, args.Error(1)
}

func (m *ClassRepositoryMock) ListActiveClasses(ctx context.Context) ([]models.TutorClass, error) {
	args := m.Called(ctx)
	var list []models.TutorClass
	if val := args.Get(0); val != nil {
		list = val.([]models.TutorClass)
	}
	return list, args.Error(1)
}

func (m *ClassRepositoryMock) ListClassesByTutor(ctx context.Context, tutorID string) ([]models.TutorClass, error) {
	args := m.Called(ctx, tutorID)
	var list []models.TutorClass
	if val := args.Get(0); val != nil {
		list = val.([]models.TutorClass)
	}
	return list, args.Error(1)
}

func (m *ClassRepositoryMock) EnrollmentCounts(ctx context.Context, classIDs []string) (map[string]int, error) {
	args := m.Called(ctx, classIDs)
	var counts map[string]int
	if val := args.Get(0); val != nil {
		counts = val.(map[string]int)
	}
	return counts, args.Error(1)
}

type EnrollmentRepositoryMock struct {
	mock.Mock
}

func (m *EnrollmentRepositoryMock) Enroll(ctx context.Context, studentID string, classID string) (models.Enrollment, error) {
	args := m.Called(ctx, studentID, classID)
	var e models.Enrollment
	if val := args.Get(0); val != nil {
		e = val.(models.Enrollment)
	}
	return e, args.Error(1)
}

func (m *EnrollmentRepositoryMock) IsEnrolled(ctx context.Context, classID string, studentID string) (bool, error) {
	args := m.Called(ctx, classID, studentID)
	return args.Bool(0), args.Error(1)
}

func (m *EnrollmentRepositoryMock) ListForStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	args := m.Called(ctx, studentID)
	var list []models.Enrollment
	if val := args.Get(0); val != nil {
		list = val.([]models.Enrollment)
	}
	return list, args.Error(1)
}

func (m *EnrollmentRepositoryMock) ListStudents(ctx context.Context, classID string) ([]models.Profile, error) {
	args := m.Called(ctx, classID)
	var list []models.Profile
	if val := args.Get(0); val != nil {
		list = val.([]models.Profile)
	}
	return list, args.Error(1)
}

type ProfileRepositoryMock struct {
	mock.Mock
}

func (m *ProfileRepositoryMock) GetProfile(ctx context.Context, profileID string) (models.Profile, error) {
	args := m.Called(ctx, profileID)
	var p models.Profile
	if val := args.Get(0); val != nil {
		p = val.(models.Profile)
	}
	return p, args.Error(1)
}

func (m *ProfileRepositoryMock) GetByUserID(ctx context.Context, userID string) (models.Profile, error) {
	args := m.Called(ctx, userID)
	var p models.Profile
	if val := args.Get(0); val != nil {
		p = val.(models.Profile)
	}
	return p, args.Error(1)
}

type SessionRepositoryMock struct {
	mock.Mock
}

func (m *SessionRepositoryMock) GetSession(ctx context.Context, sessionID string) (models.Session, error) {
	args := m.Called(ctx, sessionID)
	var s models.Session
	if val := args.Get(0); val != nil {
		s = val.(models.Session)
	}
	return s, args.Error(1)
}

type ProvisionerMock struct {
	mock.Mock
}

func (m *ProvisionerMock) CreateRoom(ctx context.Context, label string) (rooms.Room, error) {
	args := m.Called(ctx, label)
	var room rooms.Room
	if val := args.Get(0); val != nil {
		room = val.(rooms.Room)
	}
	return room, args.Error(1)
}

var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.ClassRepository = (*ClassRepositoryMock)(nil)
var _ repositories.EnrollmentRepository = (*EnrollmentRepositoryMock)(nil)
var _ repositories.ProfileRepository = (*ProfileRepositoryMock)(nil)
var _ repositories.SessionRepository = (*SessionRepositoryMock)(nil)
var _ rooms.Provisioner = (*ProvisionerMock)(nil)
