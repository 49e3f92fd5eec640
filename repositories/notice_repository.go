package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ff-arena/tournament-platform/models"
)

var (
	ErrNoticeNotFound       = errors.New("notice not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

type NoticeRepository interface {
	Create(ctx context.Context, notice *models.Notice) error
	List(ctx context.Context) ([]models.Notice, error)
	Delete(ctx context.Context, id int) error
}

type NotificationRepository interface {
	Append(ctx context.Context, exec SQLExecutor, n *models.Notification) error
	ListByUser(ctx context.Context, userID int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id int) error
}

type postgresNoticeRepository struct {
	db *sql.DB
}

func NewPostgresNoticeRepository(db *sql.DB) NoticeRepository {
	return &postgresNoticeRepository{db: db}
}

func (r *postgresNoticeRepository) Create(ctx context.Context, n *models.Notice) error {
	query := `INSERT INTO notices (title, message, created_by) VALUES ($1, $2, $3) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, n.Title, n.Message, n.CreatedBy).Scan(&n.ID, &n.CreatedAt)
}

func (r *postgresNoticeRepository) List(ctx context.Context) ([]models.Notice, error) {
	query := `SELECT id, title, message, created_by, created_at FROM notices ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notices := make([]models.Notice, 0)
	for rows.Next() {
		var n models.Notice
		if scanErr := rows.Scan(&n.ID, &n.Title, &n.Message, &n.CreatedBy, &n.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		notices = append(notices, n)
	}
	return notices, rows.Err()
}

func (r *postgresNoticeRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrNoticeNotFound)
}

type postgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresNotificationRepository) Append(ctx context.Context, exec SQLExecutor, n *models.Notification) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO notifications (user_id, title, message, tournament_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return executor.QueryRowContext(ctx, query, n.UserID, n.Title, n.Message, n.TournamentID).
		Scan(&n.ID, &n.CreatedAt)
}

func (r *postgresNotificationRepository) ListByUser(ctx context.Context, userID int) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, title, message, tournament_id, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if scanErr := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.TournamentID, &n.Read, &n.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *postgresNotificationRepository) MarkRead(ctx context.Context, userID, id int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrNotificationNotFound)
}
