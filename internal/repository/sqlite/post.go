package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/watizat/connect/internal/apperror"
	"github.com/watizat/connect/internal/model"
	"github.com/watizat/connect/internal/repository"
)

var _ repository.PostRepository = (*DB)(nil)

const postColumns = `id, user_id, type, category, title, description, images, created_at`

// CreatePost inserts post. It sets post.ID and post.CreatedAt.
func (db *DB) CreatePost(ctx context.Context, post *model.Post) error {
	post.ID = xid.New().String()
	post.CreatedAt = time.Now().UTC()

	images, err := encodeList(post.Images)
	if err != nil {
		return fmt.Errorf("sqlite: encoding post images: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO posts (`+postColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID,
		post.UserID,
		string(post.Type),
		string(post.Category),
		post.Title,
		post.Description,
		images,
		post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}
	return nil
}

// GetPostByID retrieves a single post.
func (db *DB) GetPostByID(ctx context.Context, id string) (*model.Post, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = ?`, id)

	p, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}
	return p, nil
}

// List returns every post matching filter, in insertion order.
//
// The matching engine filters the whole candidate set, so there is no
// LIMIT here: paginating before filtering would return short pages.
func (db *DB) List(ctx context.Context, filter repository.PostFilter) ([]model.Post, error) {
	var (
		where []string
		args  []any
	)
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(filter.Category))
	}
	if filter.AuthorID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.AuthorID)
	}

	query := `SELECT ` + postColumns + ` FROM posts`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY rowid ASC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}
	return posts, nil
}

// ListByAuthor returns every post written by userID, in insertion order.
func (db *DB) ListByAuthor(ctx context.Context, userID string) ([]model.Post, error) {
	return db.List(ctx, repository.PostFilter{AuthorID: userID})
}

// DeletePost removes a post by ID.
func (db *DB) DeletePost(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("post", id)
	}
	return nil
}

// CountPostsByType returns the number of posts per type.
func (db *DB) CountPostsByType(ctx context.Context) (map[model.PostType]int, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT type, COUNT(*) FROM posts GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting posts: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.PostType]int)
	for rows.Next() {
		var (
			typ string
			n   int
		)
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post count: %w", err)
		}
		counts[model.PostType(typ)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating post counts: %w", err)
	}
	return counts, nil
}

func scanPost(row rowScanner) (*model.Post, error) {
	var (
		p             model.Post
		typ, category string
		images        string
	)
	if err := row.Scan(
		&p.ID, &p.UserID, &typ, &category,
		&p.Title, &p.Description, &images, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	p.Type = model.PostType(typ)
	p.Category = model.Category(category)

	var err error
	if p.Images, err = decodeList[string](images); err != nil {
		return nil, fmt.Errorf("decoding images: %w", err)
	}
	return &p, nil
}
