package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/watizat/connect/internal/model"
	"github.com/watizat/connect/internal/repository"
)

var _ repository.MessageRepository = (*Store)(nil)

func (s *Store) CreateMessage(ctx context.Context, msg *model.Message) error {
	msg.ID = xid.New().String()
	msg.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (id, from_user_id, to_user_id, body, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		msg.ID, msg.FromUserID, msg.ToUserID, msg.Body, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: creating message: %w", err)
	}
	return nil
}

func (s *Store) Conversation(ctx context.Context, a, b string) ([]model.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, from_user_id, to_user_id, body, created_at
		 FROM messages
		 WHERE (from_user_id = $1 AND to_user_id = $2)
		    OR (from_user_id = $2 AND to_user_id = $1)
		 ORDER BY seq ASC`,
		a, b,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing conversation: %w", err)
	}
	defer rows.Close()

	msgs := make([]model.Message, 0)
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.FromUserID, &m.ToUserID, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scanning message row: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating messages: %w", err)
	}
	return msgs, nil
}

func (s *Store) HasMessageFrom(ctx context.Context, from, to string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM messages WHERE from_user_id = $1 AND to_user_id = $2)`,
		from, to,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: checking messages %s -> %s: %w", from, to, err)
	}
	return exists, nil
}

func (s *Store) CountMessages(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: counting messages: %w", err)
	}
	return n, nil
}
