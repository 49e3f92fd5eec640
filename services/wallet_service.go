package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ff-arena/tournament-platform/models"
	"github.com/ff-arena/tournament-platform/repositories"
	"github.com/ff-arena/tournament-platform/storage"
)

type SubmitRechargeInput struct {
	Amount        int    `json:"amount"`
	Method        string `json:"method"`
	TransactionID string `json:"transaction_id"`
	SenderNumber  string `json:"sender_number"`
}

type SubmitWithdrawInput struct {
	Amount        int    `json:"amount"`
	Method        string `json:"method"`
	AccountNumber string `json:"account_number"`
}

type WalletService interface {
	SubmitRecharge(ctx context.Context, userID int, input SubmitRechargeInput, slipContentType string, slip io.Reader) (*models.RechargeRequest, error)
	SubmitWithdraw(ctx context.Context, userID int, input SubmitWithdrawInput) (*models.WithdrawRequest, error)

	ApproveRecharge(ctx context.Context, requestID, adminID int) (*models.RechargeRequest, error)
	RejectRecharge(ctx context.Context, requestID, adminID int) (*models.RechargeRequest, error)
	ApproveWithdraw(ctx context.Context, requestID, adminID int) (*models.WithdrawRequest, error)
	RejectWithdraw(ctx context.Context, requestID, adminID int) (*models.WithdrawRequest, error)

	ListRechargeRequests(ctx context.Context, status *models.RequestStatus) ([]models.RechargeRequest, error)
	ListWithdrawRequests(ctx context.Context, status *models.RequestStatus) ([]models.WithdrawRequest, error)
}

type walletService struct {
	txManager        repositories.TxManager
	rechargeRepo     repositories.RechargeRequestRepository
	withdrawRepo     repositories.WithdrawRequestRepository
	userRepo         repositories.UserRepository
	transactionRepo  repositories.TransactionRepository
	notificationRepo repositories.NotificationRepository
	settingsRepo     repositories.SettingsRepository
	uploader         storage.FileUploader
	hub              EventBroadcaster
	logger           *slog.Logger

	now func() time.Time
}

func NewWalletService(
	txManager repositories.TxManager,
	rechargeRepo repositories.RechargeRequestRepository,
	withdrawRepo repositories.WithdrawRequestRepository,
	userRepo repositories.UserRepository,
	transactionRepo repositories.TransactionRepository,
	notificationRepo repositories.NotificationRepository,
	settingsRepo repositories.SettingsRepository,
	uploader storage.FileUploader,
	hub EventBroadcaster,
	logger *slog.Logger,
) WalletService {
	return &walletService{
		txManager:        txManager,
		rechargeRepo:     rechargeRepo,
		withdrawRepo:     withdrawRepo,
		userRepo:         userRepo,
		transactionRepo:  transactionRepo,
		notificationRepo: notificationRepo,
		settingsRepo:     settingsRepo,
		uploader:         uploader,
		hub:              hub,
		logger:           logger,
		now:              time.Now,
	}
}

func (s *walletService) SubmitRecharge(ctx context.Context, userID int, input SubmitRechargeInput, slipContentType string, slip io.Reader) (*models.RechargeRequest, error) {
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if input.Method == "" || input.TransactionID == "" || input.SenderNumber == "" {
		return nil, ErrValidationFailed
	}

	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	request := &models.RechargeRequest{
		UserID:        userID,
		Username:      user.Name,
		Amount:        input.Amount,
		Method:        input.Method,
		TransactionID: input.TransactionID,
		SenderNumber:  input.SenderNumber,
		Status:        models.RequestPending,
	}

	if slip != nil && s.uploader != nil {
		key := fmt.Sprintf("slips/%d/%d", userID, s.now().UnixNano())
		uploadResult, err := s.uploader.Upload(ctx, key, slipContentType, slip)
		if err != nil {
			return nil, fmt.Errorf("failed to upload payment slip: %w", err)
		}
		request.SlipKey = &uploadResult.Key
		request.SlipURL = &uploadResult.Location
	}

	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.rechargeRepo.Create(ctx, exec, request); err != nil {
			return fmt.Errorf("failed to create recharge request: %w", err)
		}
		entry := &models.Transaction{
			UserID: userID,
			Type:   models.TxRechargeRequest,
			Amount: input.Amount,
			Status: models.TxStatusPending,
			Method: &input.Method,
		}
		return s.transactionRepo.Append(ctx, exec, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("recharge request submitted",
		slog.Int("user_id", userID), slog.Int("amount", input.Amount))
	return request, nil
}

func (s *walletService) SubmitWithdraw(ctx context.Context, userID int, input SubmitWithdrawInput) (*models.WithdrawRequest, error) {
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if input.Method == "" || input.AccountNumber == "" {
		return nil, ErrValidationFailed
	}

	// The minimum is checked before anything is recorded, so an undersized
	// request leaves no trace.
	minWithdrawal := models.DefaultMinWithdrawal
	if settings, err := s.settingsRepo.Get(ctx); err == nil && settings.MinWithdrawal > 0 {
		minWithdrawal = settings.MinWithdrawal
	}
	if input.Amount < minWithdrawal {
		return nil, ErrBelowMinWithdrawal
	}

	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Balance < input.Amount {
		return nil, ErrInsufficientBalance
	}

	request := &models.WithdrawRequest{
		UserID:        userID,
		Username:      user.Name,
		Amount:        input.Amount,
		Method:        input.Method,
		AccountNumber: input.AccountNumber,
		Status:        models.RequestPending,
	}

	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.withdrawRepo.Create(ctx, exec, request); err != nil {
			return fmt.Errorf("failed to create withdraw request: %w", err)
		}
		entry := &models.Transaction{
			UserID: userID,
			Type:   models.TxWithdrawalRequest,
			Amount: -input.Amount,
			Status: models.TxStatusPending,
			Method: &input.Method,
		}
		return s.transactionRepo.Append(ctx, exec, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("withdraw request submitted",
		slog.Int("user_id", userID), slog.Int("amount", input.Amount))
	return request, nil
}

func (s *walletService) ApproveRecharge(ctx context.Context, requestID, adminID int) (*models.RechargeRequest, error) {
	request, err := s.getRechargeRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	decidedAt := s.now()
	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.rechargeRepo.Decide(ctx, exec, requestID, models.RequestApproved, adminID, decidedAt); err != nil {
			if errors.Is(err, repositories.ErrRequestAlreadyDecided) {
				return ErrRequestAlreadyDecided
			}
			return err
		}
		if err := s.userRepo.CreditBalance(ctx, exec, request.UserID, request.Amount); err != nil {
			return fmt.Errorf("failed to credit balance: %w", err)
		}
		entry := &models.Transaction{
			UserID: request.UserID,
			Type:   models.TxRecharge,
			Amount: request.Amount,
			Status: models.TxStatusApproved,
			Method: &request.Method,
		}
		if err := s.transactionRepo.Append(ctx, exec, entry); err != nil {
			return err
		}
		notification := &models.Notification{
			UserID:  request.UserID,
			Title:   "Recharge approved",
			Message: fmt.Sprintf("Your recharge of %d has been approved.", request.Amount),
		}
		return s.notificationRepo.Append(ctx, exec, notification)
	})
	if err != nil {
		return nil, err
	}

	request.Status = models.RequestApproved
	request.DecidedAt = &decidedAt
	request.DecidedBy = &adminID

	s.logger.Info("recharge request approved",
		slog.Int("request_id", requestID), slog.Int("user_id", request.UserID), slog.Int("amount", request.Amount))
	s.hub.BroadcastToRoom(UserRoom(request.UserID), Event{Type: EventRequestUpdated, Payload: request})
	return request, nil
}

func (s *walletService) RejectRecharge(ctx context.Context, requestID, adminID int) (*models.RechargeRequest, error) {
	request, err := s.getRechargeRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	decidedAt := s.now()
	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		err := s.rechargeRepo.Decide(ctx, exec, requestID, models.RequestRejected, adminID, decidedAt)
		if errors.Is(err, repositories.ErrRequestAlreadyDecided) {
			return ErrRequestAlreadyDecided
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	request.Status = models.RequestRejected
	request.DecidedAt = &decidedAt
	request.DecidedBy = &adminID
	s.hub.BroadcastToRoom(UserRoom(request.UserID), Event{Type: EventRequestUpdated, Payload: request})
	return request, nil
}

func (s *walletService) ApproveWithdraw(ctx context.Context, requestID, adminID int) (*models.WithdrawRequest, error) {
	request, err := s.getWithdrawRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	decidedAt := s.now()
	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.withdrawRepo.Decide(ctx, exec, requestID, models.RequestApproved, adminID, decidedAt); err != nil {
			if errors.Is(err, repositories.ErrRequestAlreadyDecided) {
				return ErrRequestAlreadyDecided
			}
			return err
		}
		// The balance may have dropped since submission, so the debit is
		// re-checked here. Approval never overdraws an account.
		if err := s.userRepo.DebitBalanceIfSufficient(ctx, exec, request.UserID, request.Amount); err != nil {
			if errors.Is(err, repositories.ErrInsufficientBalance) {
				return ErrInsufficientBalance
			}
			return fmt.Errorf("failed to debit balance: %w", err)
		}
		entry := &models.Transaction{
			UserID: request.UserID,
			Type:   models.TxWithdrawal,
			Amount: -request.Amount,
			Status: models.TxStatusApproved,
			Method: &request.Method,
		}
		if err := s.transactionRepo.Append(ctx, exec, entry); err != nil {
			return err
		}
		notification := &models.Notification{
			UserID:  request.UserID,
			Title:   "Withdrawal approved",
			Message: fmt.Sprintf("Your withdrawal of %d has been approved.", request.Amount),
		}
		return s.notificationRepo.Append(ctx, exec, notification)
	})
	if err != nil {
		return nil, err
	}

	request.Status = models.RequestApproved
	request.DecidedAt = &decidedAt
	request.DecidedBy = &adminID

	s.logger.Info("withdraw request approved",
		slog.Int("request_id", requestID), slog.Int("user_id", request.UserID), slog.Int("amount", request.Amount))
	s.hub.BroadcastToRoom(UserRoom(request.UserID), Event{Type: EventRequestUpdated, Payload: request})
	return request, nil
}

func (s *walletService) RejectWithdraw(ctx context.Context, requestID, adminID int) (*models.WithdrawRequest, error) {
	request, err := s.getWithdrawRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	// Rejection only flips the request status. No balance was reserved at
	// submission, so there is nothing to refund.
	decidedAt := s.now()
	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		err := s.withdrawRepo.Decide(ctx, exec, requestID, models.RequestRejected, adminID, decidedAt)
		if errors.Is(err, repositories.ErrRequestAlreadyDecided) {
			return ErrRequestAlreadyDecided
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	request.Status = models.RequestRejected
	request.DecidedAt = &decidedAt
	request.DecidedBy = &adminID
	s.hub.BroadcastToRoom(UserRoom(request.UserID), Event{Type: EventRequestUpdated, Payload: request})
	return request, nil
}

func (s *walletService) ListRechargeRequests(ctx context.Context, status *models.RequestStatus) ([]models.RechargeRequest, error) {
	requests, err := s.rechargeRepo.List(ctx, status)
	if err != nil {
		return nil, err
	}
	if s.uploader != nil {
		for i := range requests {
			if requests[i].SlipKey != nil {
				url := s.uploader.GetPublicURL(*requests[i].SlipKey)
				requests[i].SlipURL = &url
			}
		}
	}
	return requests, nil
}

func (s *walletService) ListWithdrawRequests(ctx context.Context, status *models.RequestStatus) ([]models.WithdrawRequest, error) {
	return s.withdrawRepo.List(ctx, status)
}

func (s *walletService) getRechargeRequest(ctx context.Context, id int) (*models.RechargeRequest, error) {
	request, err := s.rechargeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return request, nil
}

func (s *walletService) getWithdrawRequest(ctx context.Context, id int) (*models.WithdrawRequest, error) {
	request, err := s.withdrawRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return request, nil
}
