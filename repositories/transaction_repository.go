package repositories

import (
	"context"
	"database/sql"

	"github.com/ff-arena/tournament-platform/models"
)

// TransactionRepository is the append-only ledger. Entries are inserted and
// listed, never updated or deleted.
type TransactionRepository interface {
	Append(ctx context.Context, exec SQLExecutor, tx *models.Transaction) error
	ListByUser(ctx context.Context, userID int) ([]models.Transaction, error)
}

type postgresTransactionRepository struct {
	db *sql.DB
}

func NewPostgresTransactionRepository(db *sql.DB) TransactionRepository {
	return &postgresTransactionRepository{db: db}
}

func (r *postgresTransactionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTransactionRepository) Append(ctx context.Context, exec SQLExecutor, tx *models.Transaction) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO transactions (user_id, type, amount, status, method, tournament_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return executor.QueryRowContext(ctx, query,
		tx.UserID, tx.Type, tx.Amount, tx.Status, tx.Method, tx.TournamentID,
	).Scan(&tx.ID, &tx.CreatedAt)
}

func (r *postgresTransactionRepository) ListByUser(ctx context.Context, userID int) ([]models.Transaction, error) {
	query := `
		SELECT id, user_id, type, amount, status, method, tournament_id, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]models.Transaction, 0)
	for rows.Next() {
		var tx models.Transaction
		if scanErr := rows.Scan(
			&tx.ID, &tx.UserID, &tx.Type, &tx.Amount, &tx.Status, &tx.Method, &tx.TournamentID, &tx.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}
