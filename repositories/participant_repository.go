package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ff-arena/tournament-platform/models"
	"github.com/lib/pq"
)

var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrAlreadyJoined       = errors.New("user already joined this tournament")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, participant *models.Participant) error
	FindByTournamentAndUser(ctx context.Context, tournamentID, userID int) (*models.Participant, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Participant, error)
	ListByUser(ctx context.Context, userID int) ([]*models.Participant, error)
	UpdateKills(ctx context.Context, tournamentID, userID, kills int) error
	SetResult(ctx context.Context, exec SQLExecutor, id int, place int) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const participantColumns = `
	id, tournament_id, user_id, name, ffid, play_mode,
	partner_name, partner_ffid, entry_paid, kills, result, joined_at`

func scanParticipant(row interface{ Scan(...interface{}) error }) (*models.Participant, error) {
	var p models.Participant
	err := row.Scan(
		&p.ID, &p.TournamentID, &p.UserID, &p.Name, &p.FFID, &p.PlayMode,
		&p.PartnerName, &p.PartnerFFID, &p.EntryPaid, &p.Kills, &p.Result, &p.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO participants (tournament_id, user_id, name, ffid, play_mode, partner_name, partner_ffid, entry_paid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, joined_at`

	err := executor.QueryRowContext(ctx, query,
		p.TournamentID, p.UserID, p.Name, p.FFID, p.PlayMode, p.PartnerName, p.PartnerFFID, p.EntryPaid,
	).Scan(&p.ID, &p.JoinedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				// participants_tournament_id_user_id_key
				return ErrAlreadyJoined
			case "23503":
				return ErrTournamentNotFound
			}
		}
		return err
	}
	return nil
}

func (r *postgresParticipantRepository) FindByTournamentAndUser(ctx context.Context, tournamentID, userID int) (*models.Participant, error) {
	query := `SELECT` + participantColumns + ` FROM participants WHERE tournament_id = $1 AND user_id = $2`
	return scanParticipant(r.db.QueryRowContext(ctx, query, tournamentID, userID))
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Participant, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + participantColumns + ` FROM participants WHERE tournament_id = $1 ORDER BY joined_at ASC, id ASC`

	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		p, scanErr := scanParticipant(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *postgresParticipantRepository) ListByUser(ctx context.Context, userID int) ([]*models.Participant, error) {
	query := `SELECT` + participantColumns + ` FROM participants WHERE user_id = $1 ORDER BY joined_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		p, scanErr := scanParticipant(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *postgresParticipantRepository) UpdateKills(ctx context.Context, tournamentID, userID, kills int) error {
	query := `UPDATE participants SET kills = $1 WHERE tournament_id = $2 AND user_id = $3`
	result, err := r.db.ExecContext(ctx, query, kills, tournamentID, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) SetResult(ctx context.Context, exec SQLExecutor, id int, place int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE participants SET result = $1 WHERE id = $2`, place, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}
