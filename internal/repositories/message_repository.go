package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tutoring-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines reads and inserts for conversation messages.
type MessageRepository interface {
	ListMessages(ctx context.Context, key models.ConversationKey) ([]models.MessageWithSender, error)
	GetMessage(ctx context.Context, messageID string) (models.MessageWithSender, error)
	CreateMessage(ctx context.Context, key models.ConversationKey, senderID string, content string) (models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const selectMessageWithSender = `SELECT m.id, m.session_id, m.class_id, m.sender_id, m.content, m.created_at,
        p.id AS sender_profile_id, p.full_name AS sender_full_name, p.avatar_url AS sender_avatar_url
        FROM messages m
        LEFT JOIN profiles p ON p.id = m.sender_id`

type messageRow struct {
	models.Message
	SenderProfileID sql.NullString `db:"sender_profile_id"`
	SenderFullName  sql.NullString `db:"sender_full_name"`
	SenderAvatarURL sql.NullString `db:"sender_avatar_url"`
}

// toModel validates the joined shape; a missing profile yields a nil sender.
func (r messageRow) toModel() (models.MessageWithSender, error) {
	if r.ID == "" {
		return models.MessageWithSender{}, errors.New("message row without id")
	}
	if (r.SessionID == nil) == (r.ClassID == nil) {
		return models.MessageWithSender{}, fmt.Errorf("message %s: %w", r.ID, models.ErrInvalidKey)
	}
	out := models.MessageWithSender{Message: r.Message}
	if r.SenderProfileID.Valid {
		sender := &models.Sender{ID: r.SenderProfileID.String, FullName: r.SenderFullName.String}
		if r.SenderAvatarURL.Valid {
			avatar := r.SenderAvatarURL.String
			sender.AvatarURL = &avatar
		}
		out.Sender = sender
	}
	return out, nil
}

// ListMessages returns every message of the conversation oldest first, with sender snapshots.
func (r *MessageRepo) ListMessages(ctx context.Context, key models.ConversationKey) ([]models.MessageWithSender, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	query := selectMessageWithSender + ` WHERE m.` + key.Column() + `=$1 ORDER BY m.created_at ASC, m.id ASC`

	var rows []messageRow
	if err := r.db.SelectContext(ctx, &rows, query, key.ID); err != nil {
		return nil, err
	}
	msgs := make([]models.MessageWithSender, 0, len(rows))
	for _, row := range rows {
		msg, err := row.toModel()
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// GetMessage retrieves a single message with its sender snapshot.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID string) (models.MessageWithSender, error) {
	if !validID(messageID) {
		return models.MessageWithSender{}, ErrMessageNotFound
	}
	var row messageRow
	err := r.db.GetContext(ctx, &row, selectMessageWithSender+` WHERE m.id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MessageWithSender{}, ErrMessageNotFound
	}
	if err != nil {
		return models.MessageWithSender{}, err
	}
	return row.toModel()
}

// CreateMessage stores a message; the database assigns id and created_at.
func (r *MessageRepo) CreateMessage(ctx context.Context, key models.ConversationKey, senderID string, content string) (models.Message, error) {
	if err := key.Validate(); err != nil {
		return models.Message{}, err
	}
	var msg models.Message
	query := `INSERT INTO messages (` + key.Column() + `, sender_id, content) VALUES ($1, $2, $3)
        RETURNING id, session_id, class_id, sender_id, content, created_at`
	err := r.db.QueryRowxContext(ctx, query, key.ID, senderID, content).StructScan(&msg)
	return msg, err
}
