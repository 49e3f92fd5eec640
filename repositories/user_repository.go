package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ff-arena/tournament-platform/models"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserEmailConflict   = errors.New("user email conflict")
	ErrUserFFIDConflict    = errors.New("user ffid conflict")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByConfirmationToken(ctx context.Context, token string) (*models.User, error)
	GetByPasswordResetToken(ctx context.Context, token string) (*models.User, error)
	List(ctx context.Context, search string) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	SetActive(ctx context.Context, id int, active bool) error
	ConfirmEmail(ctx context.Context, id int) error
	SetPasswordResetToken(ctx context.Context, id int, token string, expiresAt time.Time) error
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)

	// CreditBalance applies a signed delta atomically. DebitBalanceIfSufficient
	// is the compare-and-set used for entry fees and withdrawals: it only
	// succeeds when the current balance covers the amount.
	CreditBalance(ctx context.Context, exec SQLExecutor, id int, amount int) error
	DebitBalanceIfSufficient(ctx context.Context, exec SQLExecutor, id int, amount int) error
	IncrementStats(ctx context.Context, exec SQLExecutor, id int, kills, wins, matches int) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const userColumns = `
	id, name, email, ffid, phone, role, password_hash, balance,
	kills, wins, matches, is_active, created_at,
	email_confirmed, email_confirmation_token, password_reset_token, password_reset_expires_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.FFID, &u.Phone, &u.Role, &u.PasswordHash, &u.Balance,
		&u.Kills, &u.Wins, &u.Matches, &u.IsActive, &u.CreatedAt,
		&u.EmailConfirmed, &u.EmailConfirmationToken, &u.PasswordResetToken, &u.PasswordResetExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, ffid, phone, role, password_hash, balance, is_active, email_confirmation_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.FFID, user.Phone, user.Role,
		user.PasswordHash, user.Balance, user.IsActive, user.EmailConfirmationToken,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			switch pqErr.Constraint {
			case "users_email_key":
				return ErrUserEmailConflict
			case "users_ffid_key":
				return ErrUserFFIDConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.User, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *postgresUserRepository) GetByConfirmationToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE email_confirmation_token = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, token))
}

func (r *postgresUserRepository) GetByPasswordResetToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE password_reset_token = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, token))
}

func (r *postgresUserRepository) List(ctx context.Context, search string) ([]models.User, error) {
	query := `SELECT` + userColumns + ` FROM users`
	args := []interface{}{}
	if search != "" {
		query += ` WHERE name ILIKE $1 OR email ILIKE $1 OR ffid ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, scanErr := scanUser(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *postgresUserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET
			name = $1, ffid = $2, phone = $3, password_hash = $4,
			email_confirmed = $5, password_reset_token = $6, password_reset_expires_at = $7
		WHERE id = $8`

	result, err := r.db.ExecContext(ctx, query,
		user.Name, user.FFID, user.Phone, user.PasswordHash,
		user.EmailConfirmed, user.PasswordResetToken, user.PasswordResetExpiresAt,
		user.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" && pqErr.Constraint == "users_ffid_key" {
			return ErrUserFFIDConflict
		}
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) SetActive(ctx context.Context, id int, active bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) ConfirmEmail(ctx context.Context, id int) error {
	query := `UPDATE users SET email_confirmed = TRUE, email_confirmation_token = NULL WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) SetPasswordResetToken(ctx context.Context, id int, token string, expiresAt time.Time) error {
	query := `UPDATE users SET password_reset_token = $1, password_reset_expires_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, token, expiresAt, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

func (r *postgresUserRepository) CreditBalance(ctx context.Context, exec SQLExecutor, id int, amount int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE users SET balance = balance + $1 WHERE id = $2`, amount, id)
	if err != nil {
		return fmt.Errorf("failed to credit balance for user %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) DebitBalanceIfSufficient(ctx context.Context, exec SQLExecutor, id int, amount int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE users SET balance = balance - $1 WHERE id = $2 AND balance >= $1`
	result, err := executor.ExecContext(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("failed to debit balance for user %d: %w", id, err)
	}
	// Zero rows here means either a missing user or not enough balance; the
	// caller has already resolved the user, so report the balance case.
	return checkAffectedRows(result, ErrInsufficientBalance)
}

func (r *postgresUserRepository) IncrementStats(ctx context.Context, exec SQLExecutor, id int, kills, wins, matches int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE users SET kills = kills + $1, wins = wins + $2, matches = matches + $3 WHERE id = $4`
	result, err := executor.ExecContext(ctx, query, kills, wins, matches, id)
	if err != nil {
		return fmt.Errorf("failed to update stats for user %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}
