package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"tutoring-service/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository looks up one-to-one sessions.
type SessionRepository interface {
	GetSession(ctx context.Context, sessionID string) (models.Session, error)
}

// SessionRepo is a sqlx implementation of SessionRepository.
type SessionRepo struct {
	db *sqlx.DB
}

// NewSessionRepo constructs a SessionRepo.
func NewSessionRepo(db *sqlx.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// GetSession fetches a session by id.
func (r *SessionRepo) GetSession(ctx context.Context, sessionID string) (models.Session, error) {
	if !validID(sessionID) {
		return models.Session{}, ErrSessionNotFound
	}
	var s models.Session
	err := r.db.GetContext(ctx, &s, `SELECT id, tutor_id, student_id, title, subject, start_time, end_time, meeting_link, status, created_at
        FROM sessions WHERE id=$1`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, ErrSessionNotFound
	}
	return s, err
}
