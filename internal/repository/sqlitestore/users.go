package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/domain"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/model"
)

const userColumns = `id, external_id, email, username, role, created_at`

type UserStore struct {
	db *sql.DB
}

func scanUser(row scanner) (*model.User, error) {
	var u model.User
	var created string
	if err := row.Scan(&u.ID, &u.ExternalID, &u.Email, &u.Username, &u.Role, &created); err != nil {
		return nil, err
	}
	var err error
	if u.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) Upsert(ctx context.Context, id model.Identity) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `
		INSERT INTO users (external_id, email, username) VALUES (?, ?, ?)
		ON CONFLICT (external_id) DO UPDATE SET
			email = CASE WHEN excluded.email <> '' THEN excluded.email ELSE users.email END,
			username = CASE WHEN excluded.username <> '' THEN excluded.username ELSE users.username END
		RETURNING `+userColumns,
		id.ExternalID, id.Email, id.Username))
	if err != nil {
		return nil, translate(err, "upsert user")
	}
	return u, nil
}

func (s *UserStore) FindByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE external_id = ?`, externalID))
	if err != nil {
		return nil, translate(err, "find user")
	}
	return u, nil
}

func (s *UserStore) List(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, translate(err, "list users")
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, translate(err, "scan user")
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "list users")
	}
	return users, nil
}

func (s *UserStore) SetRole(ctx context.Context, externalID, role string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`UPDATE users SET role = ? WHERE external_id = ? RETURNING `+userColumns, role, externalID))
	if err != nil {
		if constraint(err) == checkConstraint {
			return nil, domain.Invalid("role", fmt.Sprintf("unknown role %q", role))
		}
		return nil, translate(err, "set user role")
	}
	return u, nil
}
