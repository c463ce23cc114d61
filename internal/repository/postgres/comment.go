package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/watizat/connect/internal/model"
	"github.com/watizat/connect/internal/repository"
)

var _ repository.CommentRepository = (*Store)(nil)

func (s *Store) CreateComment(ctx context.Context, c *model.Comment) error {
	c.ID = xid.New().String()
	c.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO comments (id, post_id, user_id, body, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.PostID, c.UserID, c.Body, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: creating comment on %s: %w", c.PostID, err)
	}
	return nil
}

func (s *Store) ListComments(ctx context.Context, postID string) ([]model.Comment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.id, c.post_id, c.user_id, u.name, c.body, c.created_at
		 FROM comments c
		 JOIN users u ON u.id = c.user_id
		 WHERE c.post_id = $1
		 ORDER BY c.seq ASC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing comments of %s: %w", postID, err)
	}
	defer rows.Close()

	comments := make([]model.Comment, 0)
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.AuthorName, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating comments: %w", err)
	}
	return comments, nil
}
