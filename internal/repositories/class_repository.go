package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"tutoring-service/internal/models"
)

var ErrClassNotFound = errors.New("class not found")

// ClassRepository abstracts class persistence.
type ClassRepository interface {
	CreateClass(ctx context.Context, tutorID string, in models.NewClass, meetingLink string) (models.TutorClass, error)
	GetClass(ctx context.Context, classID string) (models.TutorClass, error)
	ListActiveClasses(ctx context.Context) ([]models.TutorClass, error)
	ListClassesByTutor(ctx context.Context, tutorID string) ([]models.TutorClass, error)
	EnrollmentCounts(ctx context.Context, classIDs []string) (map[string]int, error)
}

// ClassRepo is a sqlx implementation of ClassRepository.
type ClassRepo struct {
	db *sqlx.DB
}

// NewClassRepo constructs a ClassRepo.
func NewClassRepo(db *sqlx.DB) *ClassRepo {
	return &ClassRepo{db: db}
}

const classColumns = `c.id, c.tutor_id, c.title, c.subject, c.grade, c.monthly_price, c.schedule_days,
        c.start_time, c.meeting_link, c.is_active, c.created_at`

const selectClassWithTutor = `SELECT ` + classColumns + `,
        p.id AS tutor_profile_id, p.full_name AS tutor_full_name, p.avatar_url AS tutor_avatar_url
        FROM classes c
        LEFT JOIN profiles p ON p.id = c.tutor_id`

type classRow struct {
	models.TutorClass
	Days           pq.StringArray `db:"schedule_days"`
	TutorProfileID sql.NullString `db:"tutor_profile_id"`
	TutorFullName  sql.NullString `db:"tutor_full_name"`
	TutorAvatarURL sql.NullString `db:"tutor_avatar_url"`
}

func (r classRow) toModel() models.TutorClass {
	out := r.TutorClass
	out.ScheduleDays = []string(r.Days)
	if r.TutorProfileID.Valid {
		tutor := &models.Sender{ID: r.TutorProfileID.String, FullName: r.TutorFullName.String}
		if r.TutorAvatarURL.Valid {
			avatar := r.TutorAvatarURL.String
			tutor.AvatarURL = &avatar
		}
		out.Tutor = tutor
	}
	return out
}

func classesFromRows(rows []classRow) []models.TutorClass {
	out := make([]models.TutorClass, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out
}

// CreateClass inserts an active class with the provisioned meeting link.
func (r *ClassRepo) CreateClass(ctx context.Context, tutorID string, in models.NewClass, meetingLink string) (models.TutorClass, error) {
	var link *string
	if meetingLink != "" {
		link = &meetingLink
	}
	var row classRow
	err := r.db.QueryRowxContext(ctx, `INSERT INTO classes AS c (tutor_id, title, subject, grade, monthly_price, schedule_days, start_time, meeting_link)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+classColumns,
		tutorID, in.Title, in.Subject, in.Grade, in.MonthlyPrice, pq.Array(in.ScheduleDays), in.StartTime, link).
		StructScan(&row)
	if err != nil {
		return models.TutorClass{}, err
	}
	return row.toModel(), nil
}

// GetClass fetches a class with its tutor.
func (r *ClassRepo) GetClass(ctx context.Context, classID string) (models.TutorClass, error) {
	if !validID(classID) {
		return models.TutorClass{}, ErrClassNotFound
	}
	var row classRow
	err := r.db.GetContext(ctx, &row, selectClassWithTutor+` WHERE c.id=$1`, classID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TutorClass{}, ErrClassNotFound
	}
	if err != nil {
		return models.TutorClass{}, err
	}
	return row.toModel(), nil
}

// ListActiveClasses returns every active class, newest first.
func (r *ClassRepo) ListActiveClasses(ctx context.Context) ([]models.TutorClass, error) {
	var rows []classRow
	if err := r.db.SelectContext(ctx, &rows, selectClassWithTutor+` WHERE c.is_active = TRUE ORDER BY c.created_at DESC`); err != nil {
		return nil, err
	}
	return classesFromRows(rows), nil
}

// ListClassesByTutor returns a tutor's active classes, newest first.
func (r *ClassRepo) ListClassesByTutor(ctx context.Context, tutorID string) ([]models.TutorClass, error) {
	var rows []classRow
	if err := r.db.SelectContext(ctx, &rows, selectClassWithTutor+` WHERE c.tutor_id=$1 AND c.is_active = TRUE ORDER BY c.created_at DESC`, tutorID); err != nil {
		return nil, err
	}
	return classesFromRows(rows), nil
}

// EnrollmentCounts returns the number of active enrollments per class id.
func (r *ClassRepo) EnrollmentCounts(ctx context.Context, classIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(classIDs))
	if len(classIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		ClassID string `db:"class_id"`
		Count   int    `db:"count"`
	}
	err := r.db.SelectContext(ctx, &rows, `SELECT class_id, COUNT(*) AS count FROM enrollments
        WHERE class_id = ANY($1) AND is_active = TRUE GROUP BY class_id`, pq.Array(classIDs))
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ClassID] = row.Count
	}
	return counts, nil
}
