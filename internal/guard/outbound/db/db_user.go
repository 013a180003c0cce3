package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/loginguard/internal/guard/entity"
)

const userColumns = `id, username, email, display_name, password_hash, role, status`

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.DisplayName, &u.PasswordHash, &u.Role, &u.Status); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByLogin matches login against username or email, case insensitive.
func (s *DB) GetUserByLogin(ctx context.Context, login string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByLogin")
	defer func() { s.endSpan(span, err) }()

	const q = `SELECT ` + userColumns + ` FROM users
WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($1)
ORDER BY (LOWER(username) = LOWER($1)) DESC
LIMIT 1`

	u, err := scanUser(s.conn.QueryRow(ctx, q, login))
	if err != nil {
		return nil, s.mapError(err)
	}

	return u, nil
}

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(s.conn.QueryRow(ctx, q, id))
	if err != nil {
		return nil, s.mapError(err)
	}

	return u, nil
}
