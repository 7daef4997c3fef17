package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"tutoring-service/internal/models"
)

var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository looks up user profiles.
type ProfileRepository interface {
	GetProfile(ctx context.Context, profileID string) (models.Profile, error)
	GetByUserID(ctx context.Context, userID string) (models.Profile, error)
}

// ProfileRepo is a sqlx implementation of ProfileRepository.
type ProfileRepo struct {
	db *sqlx.DB
}

// NewProfileRepo constructs a ProfileRepo.
func NewProfileRepo(db *sqlx.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

const selectProfile = `SELECT id, user_id, full_name, role, grade, avatar_url, created_at, updated_at FROM profiles`

// GetProfile fetches a profile by id.
func (r *ProfileRepo) GetProfile(ctx context.Context, profileID string) (models.Profile, error) {
	return r.get(ctx, selectProfile+` WHERE id=$1`, profileID)
}

// GetByUserID fetches the profile owned by an auth user.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID string) (models.Profile, error) {
	return r.get(ctx, selectProfile+` WHERE user_id=$1`, userID)
}

func (r *ProfileRepo) get(ctx context.Context, query string, arg string) (models.Profile, error) {
	var p models.Profile
	err := r.db.GetContext(ctx, &p, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return p, err
}
