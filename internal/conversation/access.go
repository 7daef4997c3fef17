package conversation

import (
	"context"
	"errors"

	"tutoring-service/internal/classes"
	"tutoring-service/internal/models"
	"tutoring-service/internal/repositories"
)

var ErrForbidden = errors.New("not a participant of this conversation")

// ClassAuthorizer resolves class membership. *classes.Service implements it.
type ClassAuthorizer interface {
	Authorize(ctx context.Context, profile models.Profile, classID string) (models.TutorClass, error)
}

// Access decides who may read and post in a conversation: the two
// participants of a session, or the tutor and enrolled students of a class.
type Access struct {
	sessions repositories.SessionRepository
	classes  ClassAuthorizer
}

func NewAccess(sessions repositories.SessionRepository, authorizer ClassAuthorizer) *Access {
	return &Access{sessions: sessions, classes: authorizer}
}

// Check returns nil when profile may use the conversation. Unknown
// conversations return the repository's not-found error.
func (a *Access) Check(ctx context.Context, profile models.Profile, key models.ConversationKey) error {
	if err := key.Validate(); err != nil {
		return err
	}

	if key.Kind == models.KindSession {
		session, err := a.sessions.GetSession(ctx, key.ID)
		if err != nil {
			return err
		}
		if !session.HasParticipant(profile.ID) {
			return ErrForbidden
		}
		return nil
	}

	_, err := a.classes.Authorize(ctx, profile, key.ID)
	if errors.Is(err, classes.ErrNotMember) {
		return ErrForbidden
	}
	return err
}
