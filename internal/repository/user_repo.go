package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/db"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/domain"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/model"
)

const userColumns = `id, external_id, email, username, role, created_at`

type UserRepo struct {
	pool db.Pool
}

func NewUserRepo(pool db.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.ExternalID, &u.Email, &u.Username, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Upsert returns the local user for an identity, creating it on first sight.
// Non-empty email/username from the token refresh the stored values; the
// role is never touched.
func (r *UserRepo) Upsert(ctx context.Context, id model.Identity) (*model.User, error) {
	query := `
		INSERT INTO users (external_id, email, username) VALUES ($1, $2, $3)
		ON CONFLICT (external_id) DO UPDATE SET
			email = CASE WHEN EXCLUDED.email <> '' THEN EXCLUDED.email ELSE users.email END,
			username = CASE WHEN EXCLUDED.username <> '' THEN EXCLUDED.username ELSE users.username END
		RETURNING ` + userColumns

	u, err := scanUser(r.pool.QueryRow(ctx, query, id.ExternalID, id.Email, id.Username))
	if err != nil {
		return nil, translate(err, "upsert user")
	}
	return u, nil
}

func (r *UserRepo) FindByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE external_id = $1`, externalID))
	if err != nil {
		return nil, translate(err, "find user")
	}
	return u, nil
}

// List returns all users, newest first.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
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

func (r *UserRepo) SetRole(ctx context.Context, externalID, role string) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`UPDATE users SET role = $2 WHERE external_id = $1 RETURNING `+userColumns, externalID, role))
	if err != nil {
		if pgCode(err) == codeCheckViolation {
			return nil, domain.Invalid("role", fmt.Sprintf("unknown role %q", role))
		}
		return nil, translate(err, "set user role")
	}
	return u, nil
}
