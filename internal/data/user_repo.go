package data

// Package data provides Postgres-backed repositories. The gateway's only
// durable table is the cached user record refreshed on login; sessions
// live in Redis.

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/clycites/clygate/internal/data/pgxutil"
	domainauth "github.com/clycites/clygate/internal/domain/auth"
	apperrors "github.com/clycites/clygate/internal/errors"
)

// userRow is the database shape of a cached user record.
type userRow struct {
	ID            string    `db:"id"`
	FirstName     string    `db:"first_name"`
	LastName      string    `db:"last_name"`
	Email         string    `db:"email"`
	Role          string    `db:"role"`
	EmailVerified bool      `db:"email_verified"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r userRow) toDomain() domainauth.User {
	return domainauth.User{
		ID:            r.ID,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Email:         r.Email,
		Role:          domainauth.Role(r.Role),
		EmailVerified: r.EmailVerified,
	}
}

const userColumns = `id, first_name, last_name, email, role, email_verified, created_at, updated_at`

// UserRepo provides database operations for the cached user records.
// It implements ports.UserRepository.
type UserRepo struct {
	DB *sql.DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// Upsert inserts the user record or refreshes it if the ID already
// exists. Login is the writer here, so the newest identity always wins.
func (r *UserRepo) Upsert(ctx context.Context, user domainauth.User) (domainauth.User, error) {
	if strings.TrimSpace(user.ID) == "" {
		return domainauth.User{}, apperrors.ValidationField("id", "user ID is required")
	}
	if strings.TrimSpace(user.Email) == "" {
		return domainauth.User{}, apperrors.ValidationField("email", "user email is required")
	}

	var out userRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO users (id, first_name, last_name, email, role, email_verified)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				first_name = EXCLUDED.first_name,
				last_name = EXCLUDED.last_name,
				email = EXCLUDED.email,
				role = EXCLUDED.role,
				email_verified = EXCLUDED.email_verified,
				updated_at = now()
			RETURNING `+userColumns,
			user.ID,
			user.FirstName,
			user.LastName,
			strings.ToLower(strings.TrimSpace(user.Email)),
			string(user.Role),
			user.EmailVerified,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[userRow])
		return err
	})
	if err != nil {
		return domainauth.User{}, apperrors.MapDBError(err)
	}
	return out.toDomain(), nil
}

// GetByID retrieves a cached user record by ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (domainauth.User, error) {
	if strings.TrimSpace(id) == "" {
		return domainauth.User{}, apperrors.ValidationField("id", "user ID is required")
	}

	var out userRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[userRow])
		return err
	})
	if err != nil {
		return domainauth.User{}, apperrors.MapDBError(err)
	}
	return out.toDomain(), nil
}

// List retrieves all cached user records ordered by email.
func (r *UserRepo) List(ctx context.Context) ([]domainauth.User, error) {
	var rowsOut []userRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY email ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[userRow])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	users := make([]domainauth.User, 0, len(rowsOut))
	for _, row := range rowsOut {
		users = append(users, row.toDomain())
	}
	return users, nil
}
