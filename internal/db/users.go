package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pengzhou/bz-studypal-api/internal/model"
)

// schemaStatements bootstraps everything the auth subsystem touches. The
// questions/subjects tables are owned by the CRUD side of the application,
// but the profile's derived counts read them, so a standalone deployment
// still needs them to exist.
var schemaStatements = []string{
	`
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT,
		name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'STUDENT',
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		google_id TEXT UNIQUE,
		avatar TEXT,
		preferred_language TEXT NOT NULL DEFAULT 'zh',
		email_verified BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_login_at TIMESTAMPTZ
	)
	`,
	`
	CREATE TABLE IF NOT EXISTS subjects (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
	`,
	`
	CREATE TABLE IF NOT EXISTS questions (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
	`,
	`CREATE INDEX IF NOT EXISTS subjects_user_id_idx ON subjects(user_id)`,
	`CREATE INDEX IF NOT EXISTS questions_user_id_idx ON questions(user_id)`,
}

func (db *Postgres) EnsureSchema(ctx context.Context) error {
	for _, query := range schemaStatements {
		if _, err := db.Pool.Exec(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

const userColumns = `id, email, COALESCE(password_hash, ''), name, role, status,
	COALESCE(google_id, ''), COALESCE(avatar, ''), preferred_language,
	email_verified, created_at, last_login_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Role,
		&user.Status,
		&user.GoogleID,
		&user.Avatar,
		&user.PreferredLanguage,
		&user.EmailVerified,
		&user.CreatedAt,
		&user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail expects an already-lowercased email.
func (db *Postgres) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(db.Pool.QueryRow(ctx, query, email))
}

func (db *Postgres) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(db.Pool.QueryRow(ctx, query, userID))
}

type CreateUserParams struct {
	Email             string
	PasswordHash      string
	Name              string
	GoogleID          string
	Avatar            string
	PreferredLanguage string
	EmailVerified     bool
}

func (db *Postgres) CreateUser(ctx context.Context, params CreateUserParams) (*model.User, error) {
	query := `
		INSERT INTO users (id, email, password_hash, name, google_id, avatar, preferred_language, email_verified, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, NOW())
		RETURNING ` + userColumns
	if params.PreferredLanguage == "" {
		params.PreferredLanguage = "zh"
	}
	return scanUser(db.Pool.QueryRow(ctx, query,
		uuid.New().String(),
		params.Email,
		params.PasswordHash,
		params.Name,
		params.GoogleID,
		params.Avatar,
		params.PreferredLanguage,
		params.EmailVerified,
	))
}

// UpdateUser applies the non-nil fields of update and returns the fresh row.
func (db *Postgres) UpdateUser(ctx context.Context, userID string, update model.UserUpdate) (*model.User, error) {
	query := `
		UPDATE users SET
			google_id = COALESCE($2, google_id),
			avatar = COALESCE($3, avatar),
			email_verified = COALESCE($4, email_verified),
			status = COALESCE($5, status),
			last_login_at = COALESCE($6, last_login_at)
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(db.Pool.QueryRow(ctx, query,
		userID,
		update.GoogleID,
		update.Avatar,
		update.EmailVerified,
		(*string)(update.Status),
		update.LastLoginAt,
	))
}

func (db *Postgres) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := db.Pool.Exec(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, userID, at)
	return err
}

// CountOwned returns the question and subject counts shown on the profile.
// The tables themselves belong to the CRUD side of the application.
func (db *Postgres) CountOwned(ctx context.Context, userID string) (questions, subjects int, err error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM questions WHERE user_id = $1),
			(SELECT COUNT(*) FROM subjects WHERE user_id = $1)
	`
	if err = db.Pool.QueryRow(ctx, query, userID).Scan(&questions, &subjects); err != nil {
		return 0, 0, err
	}
	return questions, subjects, nil
}

func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
