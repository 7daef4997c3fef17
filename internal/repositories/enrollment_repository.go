package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"tutoring-service/internal/models"
)

var ErrAlreadySubscribed = errors.New("already subscribed to class")

// uniqueViolation is the postgres SQLSTATE for duplicate keys.
const uniqueViolation = "23505"

// EnrollmentRepository abstracts class subscriptions.
type EnrollmentRepository interface {
	Enroll(ctx context.Context, studentID string, classID string) (models.Enrollment, error)
	IsEnrolled(ctx context.Context, classID string, studentID string) (bool, error)
	ListForStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
	ListStudents(ctx context.Context, classID string) ([]models.Profile, error)
}

// EnrollmentRepo is a sqlx implementation of EnrollmentRepository.
type EnrollmentRepo struct {
	db *sqlx.DB
}

// NewEnrollmentRepo constructs an EnrollmentRepo.
func NewEnrollmentRepo(db *sqlx.DB) *EnrollmentRepo {
	return &EnrollmentRepo{db: db}
}

// Enroll subscribes a student to a class.
func (r *EnrollmentRepo) Enroll(ctx context.Context, studentID string, classID string) (models.Enrollment, error) {
	var e models.Enrollment
	err := r.db.QueryRowxContext(ctx, `INSERT INTO enrollments (student_id, class_id) VALUES ($1, $2)
        RETURNING id, student_id, class_id, is_active, created_at`, studentID, classID).StructScan(&e)
	if isUniqueViolation(err) {
		return models.Enrollment{}, ErrAlreadySubscribed
	}
	return e, err
}

// IsEnrolled checks for an active enrollment.
func (r *EnrollmentRepo) IsEnrolled(ctx context.Context, classID string, studentID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM enrollments WHERE class_id=$1 AND student_id=$2 AND is_active = TRUE)`, classID, studentID)
	return exists, err
}

// ListForStudent returns active enrollments with their class and tutor.
func (r *EnrollmentRepo) ListForStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	var rows []struct {
		EnrollmentID        string    `db:"enrollment_id"`
		EnrollmentCreatedAt time.Time `db:"enrollment_created_at"`
		classRow
	}
	err := r.db.SelectContext(ctx, &rows, `SELECT e.id AS enrollment_id, e.created_at AS enrollment_created_at, `+classColumns+`,
        p.id AS tutor_profile_id, p.full_name AS tutor_full_name, p.avatar_url AS tutor_avatar_url
        FROM enrollments e
        INNER JOIN classes c ON c.id = e.class_id
        LEFT JOIN profiles p ON p.id = c.tutor_id
        WHERE e.student_id=$1 AND e.is_active = TRUE AND c.is_active = TRUE
        ORDER BY e.created_at DESC`, studentID)
	if err != nil {
		return nil, err
	}

	out := make([]models.Enrollment, 0, len(rows))
	for _, row := range rows {
		class := row.classRow.toModel()
		out = append(out, models.Enrollment{
			ID:        row.EnrollmentID,
			StudentID: studentID,
			ClassID:   class.ID,
			IsActive:  true,
			CreatedAt: row.EnrollmentCreatedAt,
			Class:     &class,
		})
	}
	return out, nil
}

// ListStudents returns the profiles actively enrolled in a class.
func (r *EnrollmentRepo) ListStudents(ctx context.Context, classID string) ([]models.Profile, error) {
	var students []models.Profile
	err := r.db.SelectContext(ctx, &students, `SELECT p.id, p.user_id, p.full_name, p.role, p.grade, p.avatar_url, p.created_at, p.updated_at
        FROM enrollments e INNER JOIN profiles p ON p.id = e.student_id
        WHERE e.class_id=$1 AND e.is_active = TRUE ORDER BY p.full_name ASC`, classID)
	return students, err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
