package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ff-arena/tournament-platform/models"
)

var (
	ErrRequestNotFound       = errors.New("request not found")
	ErrRequestAlreadyDecided = errors.New("request has already been decided")
)

type RechargeRequestRepository interface {
	Create(ctx context.Context, exec SQLExecutor, req *models.RechargeRequest) error
	GetByID(ctx context.Context, id int) (*models.RechargeRequest, error)
	List(ctx context.Context, status *models.RequestStatus) ([]models.RechargeRequest, error)
	Decide(ctx context.Context, exec SQLExecutor, id int, status models.RequestStatus, decidedBy int, decidedAt time.Time) error
	CountPending(ctx context.Context) (int, error)
}

type WithdrawRequestRepository interface {
	Create(ctx context.Context, exec SQLExecutor, req *models.WithdrawRequest) error
	GetByID(ctx context.Context, id int) (*models.WithdrawRequest, error)
	List(ctx context.Context, status *models.RequestStatus) ([]models.WithdrawRequest, error)
	Decide(ctx context.Context, exec SQLExecutor, id int, status models.RequestStatus, decidedBy int, decidedAt time.Time) error
	CountPending(ctx context.Context) (int, error)
}

type postgresRechargeRequestRepository struct {
	db *sql.DB
}

func NewPostgresRechargeRequestRepository(db *sql.DB) RechargeRequestRepository {
	return &postgresRechargeRequestRepository{db: db}
}

func (r *postgresRechargeRequestRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRechargeRequestRepository) Create(ctx context.Context, exec SQLExecutor, req *models.RechargeRequest) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO recharge_requests (user_id, username, amount, method, transaction_ref, sender_number, slip_key, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	return executor.QueryRowContext(ctx, query,
		req.UserID, req.Username, req.Amount, req.Method, req.TransactionID, req.SenderNumber, req.SlipKey, req.Status,
	).Scan(&req.ID, &req.CreatedAt)
}

func (r *postgresRechargeRequestRepository) GetByID(ctx context.Context, id int) (*models.RechargeRequest, error) {
	query := `
		SELECT id, user_id, username, amount, method, transaction_ref, sender_number, slip_key, status, created_at, decided_at, decided_by
		FROM recharge_requests WHERE id = $1`

	var req models.RechargeRequest
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&req.ID, &req.UserID, &req.Username, &req.Amount, &req.Method, &req.TransactionID,
		&req.SenderNumber, &req.SlipKey, &req.Status, &req.CreatedAt, &req.DecidedAt, &req.DecidedBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *postgresRechargeRequestRepository) List(ctx context.Context, status *models.RequestStatus) ([]models.RechargeRequest, error) {
	query := `
		SELECT id, user_id, username, amount, method, transaction_ref, sender_number, slip_key, status, created_at, decided_at, decided_by
		FROM recharge_requests`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]models.RechargeRequest, 0)
	for rows.Next() {
		var req models.RechargeRequest
		if scanErr := rows.Scan(
			&req.ID, &req.UserID, &req.Username, &req.Amount, &req.Method, &req.TransactionID,
			&req.SenderNumber, &req.SlipKey, &req.Status, &req.CreatedAt, &req.DecidedAt, &req.DecidedBy,
		); scanErr != nil {
			return nil, scanErr
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// Decide flips a pending request into a terminal state. The status guard in
// the WHERE clause makes a second decision on the same request a no-op row
// count, reported as ErrRequestAlreadyDecided.
func (r *postgresRechargeRequestRepository) Decide(ctx context.Context, exec SQLExecutor, id int, status models.RequestStatus, decidedBy int, decidedAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE recharge_requests
		SET status = $1, decided_by = $2, decided_at = $3
		WHERE id = $4 AND status = $5`

	result, err := executor.ExecContext(ctx, query, status, decidedBy, decidedAt, id, models.RequestPending)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRequestAlreadyDecided)
}

func (r *postgresRechargeRequestRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recharge_requests WHERE status = $1`, models.RequestPending).Scan(&count)
	return count, err
}

type postgresWithdrawRequestRepository struct {
	db *sql.DB
}

func NewPostgresWithdrawRequestRepository(db *sql.DB) WithdrawRequestRepository {
	return &postgresWithdrawRequestRepository{db: db}
}

func (r *postgresWithdrawRequestRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresWithdrawRequestRepository) Create(ctx context.Context, exec SQLExecutor, req *models.WithdrawRequest) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO withdraw_requests (user_id, username, amount, method, account_number, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return executor.QueryRowContext(ctx, query,
		req.UserID, req.Username, req.Amount, req.Method, req.AccountNumber, req.Status,
	).Scan(&req.ID, &req.CreatedAt)
}

func (r *postgresWithdrawRequestRepository) GetByID(ctx context.Context, id int) (*models.WithdrawRequest, error) {
	query := `
		SELECT id, user_id, username, amount, method, account_number, status, created_at, decided_at, decided_by
		FROM withdraw_requests WHERE id = $1`

	var req models.WithdrawRequest
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&req.ID, &req.UserID, &req.Username, &req.Amount, &req.Method,
		&req.AccountNumber, &req.Status, &req.CreatedAt, &req.DecidedAt, &req.DecidedBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *postgresWithdrawRequestRepository) List(ctx context.Context, status *models.RequestStatus) ([]models.WithdrawRequest, error) {
	query := `
		SELECT id, user_id, username, amount, method, account_number, status, created_at, decided_at, decided_by
		FROM withdraw_requests`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]models.WithdrawRequest, 0)
	for rows.Next() {
		var req models.WithdrawRequest
		if scanErr := rows.Scan(
			&req.ID, &req.UserID, &req.Username, &req.Amount, &req.Method,
			&req.AccountNumber, &req.Status, &req.CreatedAt, &req.DecidedAt, &req.DecidedBy,
		); scanErr != nil {
			return nil, scanErr
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (r *postgresWithdrawRequestRepository) Decide(ctx context.Context, exec SQLExecutor, id int, status models.RequestStatus, decidedBy int, decidedAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE withdraw_requests
		SET status = $1, decided_by = $2, decided_at = $3
		WHERE id = $4 AND status = $5`

	result, err := executor.ExecContext(ctx, query, status, decidedBy, decidedAt, id, models.RequestPending)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRequestAlreadyDecided)
}

func (r *postgresWithdrawRequestRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM withdraw_requests WHERE status = $1`, models.RequestPending).Scan(&count)
	return count, err
}
