package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ff-arena/tournament-platform/models"
	"github.com/ff-arena/tournament-platform/repositories"
)

type CreateNoticeInput struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

type NoticeService interface {
	CreateNotice(ctx context.Context, createdBy int, input CreateNoticeInput) (*models.Notice, error)
	ListNotices(ctx context.Context) ([]models.Notice, error)
	DeleteNotice(ctx context.Context, id int) error

	ListNotifications(ctx context.Context, userID int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id int) error
}

type noticeService struct {
	noticeRepo       repositories.NoticeRepository
	notificationRepo repositories.NotificationRepository
	hub              EventBroadcaster
	logger           *slog.Logger
}

func NewNoticeService(
	noticeRepo repositories.NoticeRepository,
	notificationRepo repositories.NotificationRepository,
	hub EventBroadcaster,
	logger *slog.Logger,
) NoticeService {
	return &noticeService{
		noticeRepo:       noticeRepo,
		notificationRepo: notificationRepo,
		hub:              hub,
		logger:           logger,
	}
}

func (s *noticeService) CreateNotice(ctx context.Context, createdBy int, input CreateNoticeInput) (*models.Notice, error) {
	if input.Title == "" || input.Message == "" {
		return nil, ErrValidationFailed
	}

	notice := &models.Notice{
		Title:     input.Title,
		Message:   input.Message,
		CreatedBy: createdBy,
	}
	if err := s.noticeRepo.Create(ctx, notice); err != nil {
		return nil, err
	}

	s.hub.BroadcastToRoom(RoomTournaments, Event{Type: EventNotification, Payload: notice})
	return notice, nil
}

func (s *noticeService) ListNotices(ctx context.Context) ([]models.Notice, error) {
	return s.noticeRepo.List(ctx)
}

func (s *noticeService) DeleteNotice(ctx context.Context, id int) error {
	if err := s.noticeRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNoticeNotFound) {
			return ErrNoticeNotFound
		}
		return err
	}
	return nil
}

func (s *noticeService) ListNotifications(ctx context.Context, userID int) ([]models.Notification, error) {
	return s.notificationRepo.ListByUser(ctx, userID)
}

// MarkNotificationRead is best effort from the caller's point of view; a
// stale id is not an error worth surfacing.
func (s *noticeService) MarkNotificationRead(ctx context.Context, userID, id int) error {
	if err := s.notificationRepo.MarkRead(ctx, userID, id); err != nil {
		s.logger.Warn("failed to mark notification read",
			slog.Int("user_id", userID), slog.Int("notification_id", id), slog.Any("error", err))
	}
	return nil
}
