package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/akinalp/socialspace/database"
	"github.com/akinalp/socialspace/models"
	"github.com/akinalp/socialspace/pkg"
)

type sqliteMessageRepo struct {
	db database.TxQuerier
}

// NewSQLiteMessageRepo returns a MessageRepository over db.
func NewSQLiteMessageRepo(db database.TxQuerier) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

// orderedPair puts the pair in the (user_a < user_b) order the table uses.
func orderedPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

func (r *sqliteMessageRepo) GetOrCreateConversation(ctx context.Context, userA, userB string) (string, error) {
	a, b := orderedPair(userA, userB)

	if _, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO conversations (id, user_a, user_b)
		VALUES (lower(hex(randomblob(8))), ?, ?)`, a, b,
	); err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return "", fmt.Errorf("%w: user", pkg.ErrNotFound)
		}
		return "", fmt.Errorf("failed to create conversation: %w", err)
	}
	return r.FindConversation(ctx, a, b)
}

func (r *sqliteMessageRepo) FindConversation(ctx context.Context, userA, userB string) (string, error) {
	a, b := orderedPair(userA, userB)

	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM conversations WHERE user_a = ? AND user_b = ?`, a, b,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: conversation", pkg.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to find conversation: %w", err)
	}
	return id, nil
}

func (r *sqliteMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, receiver_id, message)
		VALUES (lower(hex(randomblob(8))), ?, ?, ?, ?)
		RETURNING id, created_at`,
		msg.ConversationID, msg.SenderID, msg.ReceiverID, msg.Message,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *sqliteMessageRepo) ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, conversation_id, sender_id, receiver_id, message, created_at
		FROM messages WHERE conversation_id = ?
		ORDER BY created_at, rowid`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.ReceiverID, &m.Message, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}
	return messages, nil
}
