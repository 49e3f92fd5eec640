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
	ErrTournamentNotFound      = errors.New("tournament not found")
	ErrTournamentFull          = errors.New("tournament is full")
	ErrTournamentStatusChanged = errors.New("tournament status changed concurrently")
)

type ListTournamentsFilter struct {
	Status *models.TournamentStatus
	Limit  int
	Offset int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	UpdateBannerKey(ctx context.Context, id int, bannerKey *string) error
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
	TotalRevenue(ctx context.Context) (int, error)

	// MarkLive and MarkComplete carry the status guard in SQL so a tournament
	// can never transition twice for the same condition, no matter how many
	// scheduler runs or admin clicks race.
	MarkLive(ctx context.Context, exec SQLExecutor, id int, roomID, roomPassword string, liveAt time.Time) error
	MarkCompleted(ctx context.Context, exec SQLExecutor, id int, completedAt time.Time) error
	IncrementJoinedPlayers(ctx context.Context, exec SQLExecutor, id int) error
	ListDueForStatusUpdate(ctx context.Context, now time.Time) ([]*models.Tournament, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, title, type, entry_fee, prize_pool, kill_reward, max_players, schedule,
	status, joined_players, room_id, room_password, live_at, completed_at,
	banner_key, created_by, created_at`

func scanTournament(row interface{ Scan(...interface{}) error }) (*models.Tournament, error) {
	var t models.Tournament
	err := row.Scan(
		&t.ID, &t.Title, &t.Type, &t.EntryFee, &t.PrizePool, &t.KillReward, &t.MaxPlayers, &t.Schedule,
		&t.Status, &t.JoinedPlayers, &t.RoomID, &t.RoomPassword, &t.LiveAt, &t.CompletedAt,
		&t.BannerKey, &t.CreatedBy, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (title, type, entry_fee, prize_pool, kill_reward, max_players, schedule, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Title, t.Type, t.EntryFee, t.PrizePool, t.KillReward, t.MaxPlayers, t.Schedule, t.Status, t.CreatedBy,
	).Scan(&t.ID, &t.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return fmt.Errorf("invalid tournament reference: %w", err)
		}
		return err
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	return scanTournament(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	query += " ORDER BY schedule DESC, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, *t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			title = $1, type = $2, entry_fee = $3, prize_pool = $4,
			kill_reward = $5, max_players = $6, schedule = $7
		WHERE id = $8`

	result, err := r.db.ExecContext(ctx, query,
		t.Title, t.Type, t.EntryFee, t.PrizePool, t.KillReward, t.MaxPlayers, t.Schedule, t.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateBannerKey(ctx context.Context, id int, bannerKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE tournaments SET banner_key = $1 WHERE id = $2`, bannerKey, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament banner key: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tournaments`).Scan(&count)
	return count, err
}

func (r *postgresTournamentRepository) TotalRevenue(ctx context.Context) (int, error) {
	var revenue int
	query := `SELECT COALESCE(SUM(entry_fee * joined_players), 0) FROM tournaments`
	err := r.db.QueryRowContext(ctx, query).Scan(&revenue)
	return revenue, err
}

func (r *postgresTournamentRepository) MarkLive(ctx context.Context, exec SQLExecutor, id int, roomID, roomPassword string, liveAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournaments
		SET status = $1, room_id = $2, room_password = $3, live_at = $4
		WHERE id = $5 AND status = $6`

	result, err := executor.ExecContext(ctx, query,
		models.StatusLive, roomID, roomPassword, liveAt, id, models.StatusUpcoming,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentStatusChanged)
}

func (r *postgresTournamentRepository) MarkCompleted(ctx context.Context, exec SQLExecutor, id int, completedAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET status = $1, completed_at = $2 WHERE id = $3 AND status = $4`

	result, err := executor.ExecContext(ctx, query, models.StatusCompleted, completedAt, id, models.StatusLive)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentStatusChanged)
}

func (r *postgresTournamentRepository) IncrementJoinedPlayers(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET joined_players = joined_players + 1 WHERE id = $1 AND joined_players < max_players`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentFull)
}

// ListDueForStatusUpdate returns tournaments whose automatic transition
// condition currently holds: upcoming ones inside the go-live window
// [schedule-10m, schedule), and live ones past live_at + 2h.
func (r *postgresTournamentRepository) ListDueForStatusUpdate(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	query := `
		SELECT` + tournamentColumns + `
		FROM tournaments
		WHERE
			(status = $1 AND schedule - INTERVAL '10 minutes' <= $3 AND $3 < schedule)
			OR
			(status = $2 AND live_at IS NOT NULL AND live_at + INTERVAL '2 hours' <= $3)`

	rows, err := r.db.QueryContext(ctx, query, models.StatusUpcoming, models.StatusLive, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments for auto status update: %w", err)
	}
	defer rows.Close()

	var tournaments []*models.Tournament
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament for auto status update: %w", scanErr)
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}
