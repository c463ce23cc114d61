package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/watizat/connect/internal/model"
	"github.com/watizat/connect/internal/repository"
)

var _ repository.MessageRepository = (*DB)(nil)

// CreateMessage inserts msg. It sets msg.ID and msg.CreatedAt.
func (db *DB) CreateMessage(ctx context.Context, msg *model.Message) error {
	msg.ID = xid.New().String()
	msg.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO messages (id, from_user_id, to_user_id, body, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.FromUserID, msg.ToUserID, msg.Body, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating message: %w", err)
	}
	return nil
}

// Conversation returns the messages between a and b in both directions,
// oldest first.
func (db *DB) Conversation(ctx context.Context, a, b string) ([]model.Message, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, from_user_id, to_user_id, body, created_at
		 FROM messages
		 WHERE (from_user_id = ? AND to_user_id = ?)
		    OR (from_user_id = ? AND to_user_id = ?)
		 ORDER BY rowid ASC`,
		a, b, b, a,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing conversation: %w", err)
	}
	defer rows.Close()

	msgs := make([]model.Message, 0)
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.FromUserID, &m.ToUserID, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning message row: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating messages: %w", err)
	}
	return msgs, nil
}

// HasMessageFrom reports whether from has written at least once to to.
func (db *DB) HasMessageFrom(ctx context.Context, from, to string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM messages WHERE from_user_id = ? AND to_user_id = ?)`,
		from, to,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking messages %s -> %s: %w", from, to, err)
	}
	return exists, nil
}

// CountMessages returns the total number of stored messages.
func (db *DB) CountMessages(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting messages: %w", err)
	}
	return n, nil
}
