package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"tutoring-service/internal/logging"
)

// InsertChannel is the NOTIFY channel carrying inserted message rows.
const InsertChannel = "row_inserts"

// Connect opens the database and applies migrations.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(ctx context.Context, db *sqlx.DB) error {
	migrations := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE TABLE IF NOT EXISTS profiles (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            user_id TEXT NOT NULL UNIQUE,
            full_name TEXT NOT NULL,
            role TEXT NOT NULL CHECK (role IN ('student', 'tutor')),
            grade INT,
            avatar_url TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS classes (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            tutor_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            title TEXT NOT NULL,
            subject TEXT NOT NULL,
            grade INT NOT NULL,
            monthly_price NUMERIC(10,2) NOT NULL DEFAULT 0,
            schedule_days TEXT[] NOT NULL DEFAULT '{}',
            start_time TEXT NOT NULL,
            meeting_link TEXT,
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS enrollments (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            student_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            class_id UUID NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE(student_id, class_id)
        );`,
		`CREATE TABLE IF NOT EXISTS sessions (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            tutor_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            student_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            title TEXT NOT NULL,
            subject TEXT NOT NULL,
            start_time TIMESTAMPTZ NOT NULL,
            end_time TIMESTAMPTZ,
            meeting_link TEXT,
            status TEXT NOT NULL DEFAULT 'scheduled',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS messages (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            session_id UUID REFERENCES sessions(id) ON DELETE CASCADE,
            class_id UUID REFERENCES classes(id) ON DELETE CASCADE,
            sender_id UUID NOT NULL REFERENCES profiles(id),
            content TEXT NOT NULL CHECK (length(btrim(content)) > 0),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK ((session_id IS NULL) <> (class_id IS NULL))
        );`,
		`CREATE INDEX IF NOT EXISTS messages_session_created_idx ON messages (session_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS messages_class_created_idx ON messages (class_id, created_at);`,
		// content is left out of the payload: NOTIFY caps payloads at 8000 bytes
		// and subscribers re-read the full row anyway.
		`CREATE OR REPLACE FUNCTION notify_message_insert() RETURNS trigger AS $$
        BEGIN
            PERFORM pg_notify('` + InsertChannel + `', json_build_object(
                'table', TG_TABLE_NAME,
                'row', json_build_object(
                    'id', NEW.id,
                    'session_id', NEW.session_id,
                    'class_id', NEW.class_id,
                    'sender_id', NEW.sender_id,
                    'created_at', NEW.created_at
                )
            )::text);
            RETURN NEW;
        END;
        $$ LANGUAGE plpgsql;`,
		`DROP TRIGGER IF EXISTS messages_notify_insert ON messages;`,
		`CREATE TRIGGER messages_notify_insert AFTER INSERT ON messages
            FOR EACH ROW EXECUTE FUNCTION notify_message_insert();`,
	}

	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	logging.Info().Int("statements", len(migrations)).Msg("database migrations applied")
	return nil
}
