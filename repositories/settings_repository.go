package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ff-arena/tournament-platform/models"
)

var ErrSettingsNotFound = errors.New("settings row not found")

// SettingsRepository manages the single platform configuration row.
type SettingsRepository interface {
	Get(ctx context.Context) (*models.Settings, error)
	Update(ctx context.Context, settings *models.Settings) error
}

type postgresSettingsRepository struct {
	db *sql.DB
}

func NewPostgresSettingsRepository(db *sql.DB) SettingsRepository {
	return &postgresSettingsRepository{db: db}
}

func (r *postgresSettingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	query := `
		SELECT id, admin_signup_code, min_withdrawal, payout_places, payment_note, updated_at
		FROM settings
		ORDER BY id ASC
		LIMIT 1`

	var s models.Settings
	err := r.db.QueryRowContext(ctx, query).Scan(
		&s.ID, &s.AdminSignupCode, &s.MinWithdrawal, &s.PayoutPlaces, &s.PaymentNote, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresSettingsRepository) Update(ctx context.Context, s *models.Settings) error {
	query := `
		UPDATE settings
		SET admin_signup_code = $1, min_withdrawal = $2, payout_places = $3, payment_note = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		s.AdminSignupCode, s.MinWithdrawal, s.PayoutPlaces, s.PaymentNote, s.ID,
	).Scan(&s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSettingsNotFound
		}
		return err
	}
	return nil
}
