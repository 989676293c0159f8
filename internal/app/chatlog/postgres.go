package chatlog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists chat messages in the chat_messages table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a chat log backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Append implements Store.
func (s *PostgresStore) Append(ctx context.Context, m Message) error {
	const q = `
		INSERT INTO chat_messages (id, website_id, user_id, user_name, color, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, q, m.ID, m.WebsiteID, m.UserID, m.UserName, m.Color, m.Message, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("append chat message: %w", err)
	}

	return nil
}

// Recent implements Store. The inner query selects the newest rows; the
// outer one flips them back to oldest-first for the client.
func (s *PostgresStore) Recent(ctx context.Context, websiteID string, limit int) ([]Message, error) {
	const q = `
		SELECT id, website_id, user_id, user_name, color, message, created_at
		FROM (
			SELECT id, website_id, user_id, user_name, color, message, created_at
			FROM chat_messages
			WHERE website_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) newest
		ORDER BY created_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, q, websiteID, limit)
	if err != nil {
		return nil, fmt.Errorf("query chat history: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.WebsiteID, &m.UserID, &m.UserName, &m.Color, &m.Message, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat history: %w", err)
	}

	return messages, nil
}
