package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ff-arena/tournament-platform/models"
	"github.com/ff-arena/tournament-platform/repositories"
)

type UpdateProfileInput struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

type UserService interface {
	GetProfile(ctx context.Context, userID int) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error)
	ListTransactions(ctx context.Context, userID int) ([]models.Transaction, error)

	// Admin operations.
	ListUsers(ctx context.Context, search string) ([]models.User, error)
	AdjustBalance(ctx context.Context, userID, adminID, delta int) (*models.User, error)
	SetActive(ctx context.Context, userID int, active bool) error
	DeleteUser(ctx context.Context, userID int) error
}

type userService struct {
	txManager       repositories.TxManager
	userRepo        repositories.UserRepository
	transactionRepo repositories.TransactionRepository
	hub             EventBroadcaster
	logger          *slog.Logger
}

func NewUserService(
	txManager repositories.TxManager,
	userRepo repositories.UserRepository,
	transactionRepo repositories.TransactionRepository,
	hub EventBroadcaster,
	logger *slog.Logger,
) UserService {
	return &userService{
		txManager:       txManager,
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		hub:             hub,
		logger:          logger,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrValidationFailed
		}
		user.Name = *input.Name
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) ListTransactions(ctx context.Context, userID int) ([]models.Transaction, error) {
	return s.transactionRepo.ListByUser(ctx, userID)
}

func (s *userService) ListUsers(ctx context.Context, search string) ([]models.User, error) {
	users, err := s.userRepo.List(ctx, search)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *userService) AdjustBalance(ctx context.Context, userID, adminID, delta int) (*models.User, error) {
	if delta == 0 {
		return nil, ErrInvalidAmount
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if delta > 0 {
			if err := s.userRepo.CreditBalance(ctx, exec, userID, delta); err != nil {
				return err
			}
		} else {
			if err := s.userRepo.DebitBalanceIfSufficient(ctx, exec, userID, -delta); err != nil {
				if errors.Is(err, repositories.ErrInsufficientBalance) {
					return ErrInsufficientBalance
				}
				return err
			}
		}
		entry := &models.Transaction{
			UserID: userID,
			Type:   models.TxAdminAdded,
			Amount: delta,
			Status: models.TxStatusCompleted,
		}
		return s.transactionRepo.Append(ctx, exec, entry)
	})
	if err != nil {
		return nil, err
	}

	user.Balance += delta
	user.PasswordHash = ""

	s.logger.Info("admin adjusted balance",
		slog.Int("user_id", userID), slog.Int("admin_id", adminID), slog.Int("delta", delta))
	s.hub.BroadcastToRoom(UserRoom(userID), Event{Type: EventBalanceUpdated, Payload: map[string]int{"balance": user.Balance}})
	return user, nil
}

func (s *userService) SetActive(ctx context.Context, userID int, active bool) error {
	if err := s.userRepo.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	s.logger.Info("user active flag changed", slog.Int("user_id", userID), slog.Bool("active", active))
	return nil
}

func (s *userService) DeleteUser(ctx context.Context, userID int) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *userService) getUser(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
