package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ff-arena/tournament-platform/models"
	"github.com/lib/pq"
)

var (
	ErrResultNotFound      = errors.New("tournament result not found")
	ErrResultAlreadyExists = errors.New("tournament result already exists")
)

// ResultRepository stores the immutable per-tournament results record. The
// tournament_id unique constraint is the idempotency guard for prize
// distribution: a second Save for the same tournament fails.
type ResultRepository interface {
	Save(ctx context.Context, exec SQLExecutor, result *models.TournamentResult) error
	GetByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.TournamentResult, error)
}

type postgresResultRepository struct {
	db *sql.DB
}

func NewPostgresResultRepository(db *sql.DB) ResultRepository {
	return &postgresResultRepository{db: db}
}

func (r *postgresResultRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresResultRepository) Save(ctx context.Context, exec SQLExecutor, result *models.TournamentResult) error {
	executor := r.getExecutor(exec)

	query := `
		INSERT INTO tournament_results (tournament_id, total_players)
		VALUES ($1, $2)
		RETURNING id, calculated_at`

	err := executor.QueryRowContext(ctx, query, result.TournamentID, result.TotalPlayers).
		Scan(&result.ID, &result.CalculatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrResultAlreadyExists
		}
		return fmt.Errorf("failed to save tournament result: %w", err)
	}

	winnerQuery := `
		INSERT INTO tournament_winners (result_id, user_id, name, place, prize, kills)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	for i := range result.Winners {
		w := &result.Winners[i]
		w.ResultID = result.ID
		if err := executor.QueryRowContext(ctx, winnerQuery,
			w.ResultID, w.UserID, w.Name, w.Place, w.Prize, w.Kills,
		).Scan(&w.ID); err != nil {
			return fmt.Errorf("failed to save winner entry (place %d): %w", w.Place, err)
		}
	}
	return nil
}

func (r *postgresResultRepository) GetByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.TournamentResult, error) {
	executor := r.getExecutor(exec)

	var result models.TournamentResult
	query := `SELECT id, tournament_id, total_players, calculated_at FROM tournament_results WHERE tournament_id = $1`
	err := executor.QueryRowContext(ctx, query, tournamentID).
		Scan(&result.ID, &result.TournamentID, &result.TotalPlayers, &result.CalculatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}

	winnerQuery := `
		SELECT id, result_id, user_id, name, place, prize, kills
		FROM tournament_winners
		WHERE result_id = $1
		ORDER BY place ASC`

	rows, err := executor.QueryContext(ctx, winnerQuery, result.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var w models.WinnerEntry
		if scanErr := rows.Scan(&w.ID, &w.ResultID, &w.UserID, &w.Name, &w.Place, &w.Prize, &w.Kills); scanErr != nil {
			return nil, scanErr
		}
		result.Winners = append(result.Winners, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &result, nil
}
