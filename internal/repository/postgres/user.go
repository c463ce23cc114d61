package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"github.com/watizat/connect/internal/apperror"
	"github.com/watizat/connect/internal/model"
	"github.com/watizat/connect/internal/repository"
)

var _ repository.UserRepository = (*Store)(nil)

const userColumns = `id, email, password_hash, name, role, languages,
	help_categories, need_categories, professional_area, availability,
	created_at, updated_at`

// CreateUser inserts a new account and sets its ID and timestamps.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		string(user.Role),
		nonNil(user.Languages),
		nonNil(model.CategoryStrings(user.HelpCategories)),
		nonNil(model.CategoryStrings(user.NeedCategories)),
		user.ProfessionalArea,
		user.Availability,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("postgres: inserting user %s: %w", user.Email, err)
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", id, err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("postgres: getting user by email: %w", err)
	}
	return u, nil
}

// UpdateUser rewrites the mutable profile fields.
func (s *Store) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	tag, err := s.pool.Exec(ctx,
		`UPDATE users
		 SET name = $1, languages = $2, help_categories = $3, need_categories = $4,
		     professional_area = $5, availability = $6, updated_at = $7
		 WHERE id = $8`,
		user.Name,
		nonNil(user.Languages),
		nonNil(model.CategoryStrings(user.HelpCategories)),
		nonNil(model.CategoryStrings(user.NeedCategories)),
		user.ProfessionalArea,
		user.Availability,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating user %s: %w", user.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("user", user.ID)
	}
	return nil
}

// ListUsers returns every account in registration order.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating users: %w", err)
	}
	return users, nil
}

func (s *Store) UpdateUserRole(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET role = $1, help_categories = $2, need_categories = $3, updated_at = $4
		 WHERE id = $5`,
		string(user.Role),
		nonNil(model.CategoryStrings(user.HelpCategories)),
		nonNil(model.CategoryStrings(user.NeedCategories)),
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating role of %s: %w", user.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("user", user.ID)
	}
	return nil
}

// DeleteUser removes the account. Posts, comments and messages go with it
// through ON DELETE CASCADE.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting user %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

func (s *Store) CountUsersByRole(ctx context.Context) (map[model.Role]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("postgres: counting users: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Role]int)
	for rows.Next() {
		var (
			role string
			n    int
		)
		if err := rows.Scan(&role, &n); err != nil {
			return nil, fmt.Errorf("postgres: scanning user count: %w", err)
		}
		counts[model.Role(role)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating user counts: %w", err)
	}
	return counts, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u          model.User
		role       string
		help, need []string
	)
	if err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &role, &u.Languages,
		&help, &need, &u.ProfessionalArea, &u.Availability,
		&u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	u.Languages = nonNil(u.Languages)
	u.HelpCategories = toCategories(help)
	u.NeedCategories = toCategories(need)
	return &u, nil
}
