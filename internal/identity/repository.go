package identity

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates no user matched the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail indicates the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrTokenMismatch indicates the presented reset token no longer matches
	// the stored one (consumed, or superseded by a newer request).
	ErrTokenMismatch = errors.New("reset token mismatch")
	// ErrResetExpired indicates the stored reset token is past its expiration.
	ErrResetExpired = errors.New("reset token expired")
)

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByCode(ctx context.Context, code string) (User, error)
	SetResetToken(ctx context.Context, id int64, token string, expiry time.Time) error
	UpdatePasswordAndClearReset(ctx context.Context, id int64, hash, expectToken string) error
	UpdateRole(ctx context.Context, id int64, role Role) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, user_code, email, name, password_hash, role, active, reset_token, reset_expiration, created_at`

// Create inserts a new user and fills in the generated id.
func (r *PostgresRepository) Create(ctx context.Context, user *User) error {
	row := r.db.QueryRow(ctx, `INSERT INTO users (user_code, email, name, password_hash, role, active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		user.UserCode, user.Email, user.Name, user.PasswordHash, string(user.Role), user.Active, user.CreatedAt.UTC())
	if err := row.Scan(&user.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// FindByEmail fetches a user by email address.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// FindByCode fetches a user by public user code.
func (r *PostgresRepository) FindByCode(ctx context.Context, code string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_code = $1`, code)
	return scanUser(row)
}

// SetResetToken stores a reset token and expiry, overwriting any previous pair.
func (r *PostgresRepository) SetResetToken(ctx context.Context, id int64, token string, expiry time.Time) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET reset_token = $1, reset_expiration = $2 WHERE id = $3`,
		token, expiry.UTC(), id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePasswordAndClearReset replaces the password hash and clears both reset
// fields in a single conditional update. The update only applies while the
// stored token equals expectToken and is unexpired, so two concurrent
// redemptions of the same token produce exactly one success.
func (r *PostgresRepository) UpdatePasswordAndClearReset(ctx context.Context, id int64, hash, expectToken string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users
        SET password_hash = $1, reset_token = NULL, reset_expiration = NULL
        WHERE id = $2 AND reset_token = $3 AND reset_expiration > now()`,
		hash, id, expectToken)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() > 0 {
		return nil
	}

	// Lost the conditional update; report why.
	var token *string
	var expiry *time.Time
	row := r.db.QueryRow(ctx, `SELECT reset_token, reset_expiration FROM users WHERE id = $1`, id)
	if err := row.Scan(&token, &expiry); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if token == nil || *token != expectToken {
		return ErrTokenMismatch
	}
	return ErrResetExpired
}

// UpdateRole changes the user's role.
func (r *PostgresRepository) UpdateRole(ctx context.Context, id int64, role Role) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET role = $1 WHERE id = $2`, string(role), id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		user      User
		role      string
		createdAt time.Time
	)
	if err := row.Scan(&user.ID, &user.UserCode, &user.Email, &user.Name, &user.PasswordHash,
		&role, &user.Active, &user.ResetToken, &user.ResetExpiration, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.Role = Role(role)
	user.CreatedAt = createdAt.UTC()
	return user, nil
}
