package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/watizat/connect/internal/apperror"
	"github.com/watizat/connect/internal/model"
	"github.com/watizat/connect/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, email, password_hash, name, role, languages,
	help_categories, need_categories, professional_area, availability,
	created_at, updated_at`

// CreateUser inserts a new account. It sets user.ID and the timestamps.
// A duplicate email yields an apperror.ErrConflict error.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	langs, help, need, err := encodeUserLists(user)
	if err != nil {
		return fmt.Errorf("sqlite: encoding user %s: %w", user.Email, err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		string(user.Role),
		langs,
		help,
		need,
		user.ProfessionalArea,
		user.Availability,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}

	return nil
}

// GetUserByID retrieves a user by internal ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetUserByEmail retrieves a user by (already normalised) email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return u, nil
}

// UpdateUser rewrites the mutable profile fields. Email, role and password
// are not changed here.
func (db *DB) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	langs, help, need, err := encodeUserLists(user)
	if err != nil {
		return fmt.Errorf("sqlite: encoding user %s: %w", user.ID, err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET name = ?, languages = ?, help_categories = ?, need_categories = ?,
		     professional_area = ?, availability = ?, updated_at = ?
		 WHERE id = ?`,
		user.Name,
		langs,
		help,
		need,
		user.ProfessionalArea,
		user.Availability,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("user", user.ID)
	}
	return nil
}

// ListUsers returns every account in registration order.
func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return users, nil
}

// UpdateUserRole rewrites the role and both category lists.
func (db *DB) UpdateUserRole(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	_, help, need, err := encodeUserLists(user)
	if err != nil {
		return fmt.Errorf("sqlite: encoding user %s: %w", user.ID, err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET role = ?, help_categories = ?, need_categories = ?, updated_at = ?
		 WHERE id = ?`,
		string(user.Role), help, need, user.UpdatedAt, user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating role of %s: %w", user.ID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("user", user.ID)
	}
	return nil
}

// DeleteUser removes an account and everything it owns in one transaction:
// its comments, the comments under its posts, its posts and every message
// it sent or received.
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: starting transaction: %w", err)
	}
	defer tx.Rollback()

	cleanup := []struct {
		query string
		args  []any
	}{
		{`DELETE FROM comments WHERE user_id = ? OR post_id IN (SELECT id FROM posts WHERE user_id = ?)`, []any{id, id}},
		{`DELETE FROM messages WHERE from_user_id = ? OR to_user_id = ?`, []any{id, id}},
		{`DELETE FROM posts WHERE user_id = ?`, []any{id}},
	}
	for _, c := range cleanup {
		if _, err := tx.ExecContext(ctx, c.query, c.args...); err != nil {
			return fmt.Errorf("sqlite: deleting data of user %s: %w", id, err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing user deletion: %w", err)
	}
	return nil
}

// CountUsersByRole returns the number of accounts per role.
func (db *DB) CountUsersByRole(ctx context.Context) (map[model.Role]int, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting users: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Role]int)
	for rows.Next() {
		var (
			role string
			n    int
		)
		if err := rows.Scan(&role, &n); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user count: %w", err)
		}
		counts[model.Role(role)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user counts: %w", err)
	}
	return counts, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u                 model.User
		role              string
		langs, help, need string
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&role,
		&langs,
		&help,
		&need,
		&u.ProfessionalArea,
		&u.Availability,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = model.Role(role)

	if u.Languages, err = decodeList[string](langs); err != nil {
		return nil, fmt.Errorf("decoding languages: %w", err)
	}
	// Stored tags are not re-validated: an unknown one simply never matches.
	if u.HelpCategories, err = decodeList[model.Category](help); err != nil {
		return nil, fmt.Errorf("decoding help_categories: %w", err)
	}
	if u.NeedCategories, err = decodeList[model.Category](need); err != nil {
		return nil, fmt.Errorf("decoding need_categories: %w", err)
	}
	return &u, nil
}

func encodeUserLists(u *model.User) (langs, help, need string, err error) {
	if langs, err = encodeList(u.Languages); err != nil {
		return
	}
	if help, err = encodeList(u.HelpCategories); err != nil {
		return
	}
	need, err = encodeList(u.NeedCategories)
	return
}
