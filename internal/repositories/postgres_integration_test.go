//go:build integration

package repositories_test

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"tutoring-service/internal/db"
	"tutoring-service/internal/models"
	"tutoring-service/internal/repositories"
)

// startPostgres runs a throwaway postgres with migrations applied and
// returns the DSN and an open handle.
func startPostgres(t *testing.T) (string, *sqlx.DB) {
	t.Helper()
	ctx := context.Background()

	dockerCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if exec.CommandContext(dockerCtx, "docker", "info").Run() != nil {
		t.Skip("docker not available")
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "tutor",
				"POSTGRES_PASSWORD": "tutor",
				"POSTGRES_DB":       "tutoring",
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort("5432/tcp"),
			).WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://tutor:tutor@%s:%s/tutoring?sslmode=disable", host, port.Port())
	database, err := db.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return dsn, database
}

func insertProfile(t *testing.T, database *sqlx.DB, name string, role models.UserRole) string {
	t.Helper()
	var id string
	require.NoError(t, database.Get(&id, `INSERT INTO profiles (user_id, full_name, role) VALUES ($1, $2, $3) RETURNING id`,
		"auth-"+strings.ReplaceAll(strings.ToLower(name), " ", "-"), name, role))
	return id
}

func TestPostgresRepositories(t *testing.T) {
	dsn, database := startPostgres(t)
	ctx := context.Background()

	tutorID := insertProfile(t, database, "Sipho Dlamini", models.RoleTutor)
	studentID := insertProfile(t, database, "Naledi Khumalo", models.RoleStudent)

	classRepo := repositories.NewClassRepo(database)
	enrollments := repositories.NewEnrollmentRepo(database)
	messages := repositories.NewMessageRepo(database)

	class, err := classRepo.CreateClass(ctx, tutorID, models.NewClass{
		Title:        "Grade 11 Maths Mastery",
		Subject:      "Mathematics",
		Grade:        11,
		MonthlyPrice: 450,
		ScheduleDays: []string{"Mon", "Wed"},
		StartTime:    "16:00",
	}, "https://tutor.daily.co/class-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Mon", "Wed"}, class.ScheduleDays)
	assert.InDelta(t, 450, class.MonthlyPrice, 0.001)

	t.Run("messages oldest first with id tiebreak", func(t *testing.T) {
		base := time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC)
		rows := []struct {
			id  string
			at  time.Time
			txt string
		}{
			{"00000000-0000-4000-8000-000000000003", base.Add(time.Minute), "third"},
			{"00000000-0000-4000-8000-000000000002", base, "second"},
			{"00000000-0000-4000-8000-000000000001", base, "first"},
		}
		for _, r := range rows {
			_, err := database.Exec(`INSERT INTO messages (id, class_id, sender_id, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
				r.id, class.ID, studentID, r.txt, r.at)
			require.NoError(t, err)
		}

		list, err := messages.ListMessages(ctx, models.ClassKey(class.ID))
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []string{"first", "second", "third"}, []string{list[0].Content, list[1].Content, list[2].Content})
		require.NotNil(t, list[0].Sender)
		assert.Equal(t, "Naledi Khumalo", list[0].Sender.FullName)

		got, err := messages.GetMessage(ctx, rows[0].id)
		require.NoError(t, err)
		assert.Equal(t, "third", got.Content)
	})

	t.Run("blank content violates the check", func(t *testing.T) {
		_, err := messages.CreateMessage(ctx, models.ClassKey(class.ID), studentID, "   ")
		require.Error(t, err)
	})

	t.Run("second subscription conflicts", func(t *testing.T) {
		_, err := enrollments.Enroll(ctx, studentID, class.ID)
		require.NoError(t, err)

		_, err = enrollments.Enroll(ctx, studentID, class.ID)
		require.ErrorIs(t, err, repositories.ErrAlreadySubscribed)

		enrolled, err := enrollments.IsEnrolled(ctx, class.ID, studentID)
		require.NoError(t, err)
		assert.True(t, enrolled)

		counts, err := classRepo.EnrollmentCounts(ctx, []string{class.ID})
		require.NoError(t, err)
		assert.Equal(t, 1, counts[class.ID])

		mine, err := enrollments.ListForStudent(ctx, studentID)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		require.NotNil(t, mine[0].Class)
		assert.Equal(t, class.ID, mine[0].Class.ID)
	})

	t.Run("insert notifies listeners without content", func(t *testing.T) {
		listener := pq.NewListener(dsn, time.Second, 10*time.Second, nil)
		defer listener.Close()
		require.NoError(t, listener.Listen(db.InsertChannel))

		msg, err := messages.CreateMessage(ctx, models.ClassKey(class.ID), tutorID, "welcome")
		require.NoError(t, err)

		select {
		case n := <-listener.Notify:
			require.NotNil(t, n)
			assert.Contains(t, n.Extra, `"messages"`)
			assert.Contains(t, n.Extra, msg.ID)
			assert.NotContains(t, n.Extra, "welcome")
		case <-time.After(10 * time.Second):
			t.Fatal("no notification for inserted message")
		}
	})
}
