package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"github.com/watizat/connect/internal/apperror"
	"github.com/watizat/connect/internal/model"
	"github.com/watizat/connect/internal/repository"
)

var _ repository.PostRepository = (*Store)(nil)

const postColumns = `id, user_id, type, category, title, description, images, created_at`

func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	post.ID = xid.New().String()
	post.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO posts (`+postColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		post.ID,
		post.UserID,
		string(post.Type),
		string(post.Category),
		post.Title,
		post.Description,
		nonNil(post.Images),
		post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: creating post: %w", err)
	}
	return nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*model.Post, error) {
	p, err := scanPost(s.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("postgres: getting post %s: %w", id, err)
	}
	return p, nil
}

// List returns every post matching filter, in insertion order.
func (s *Store) List(ctx context.Context, filter repository.PostFilter) ([]model.Post, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, cond+" = $"+strconv.Itoa(len(args)))
	}
	if filter.Type != "" {
		add("type", string(filter.Type))
	}
	if filter.Category != "" {
		add("category", string(filter.Category))
	}
	if filter.AuthorID != "" {
		add("user_id", filter.AuthorID)
	}

	query := `SELECT ` + postColumns + ` FROM posts`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY seq ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning post row: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating posts: %w", err)
	}
	return posts, nil
}

func (s *Store) ListByAuthor(ctx context.Context, userID string) ([]model.Post, error) {
	return s.List(ctx, repository.PostFilter{AuthorID: userID})
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting post %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("post", id)
	}
	return nil
}

func (s *Store) CountPostsByType(ctx context.Context) (map[model.PostType]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT type, COUNT(*) FROM posts GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("postgres: counting posts: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.PostType]int)
	for rows.Next() {
		var (
			typ string
			n   int
		)
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("postgres: scanning post count: %w", err)
		}
		counts[model.PostType(typ)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating post counts: %w", err)
	}
	return counts, nil
}

func scanPost(row pgx.Row) (*model.Post, error) {
	var (
		p             model.Post
		typ, category string
	)
	if err := row.Scan(
		&p.ID, &p.UserID, &typ, &category,
		&p.Title, &p.Description, &p.Images, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	p.Type = model.PostType(typ)
	p.Category = model.Category(category)
	p.Images = nonNil(p.Images)
	return &p, nil
}
