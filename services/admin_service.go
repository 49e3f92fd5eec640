package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ff-arena/tournament-platform/models"
	"github.com/ff-arena/tournament-platform/repositories"
	"golang.org/x/sync/errgroup"
)

type DashboardStats struct {
	TotalUsers              int `json:"total_users"`
	TotalTournaments        int `json:"total_tournaments"`
	TotalRevenue            int `json:"total_revenue"`
	PendingRechargeRequests int `json:"pending_recharge_requests"`
	PendingWithdrawRequests int `json:"pending_withdraw_requests"`
}

type UpdateSettingsInput struct {
	AdminSignupCode *string `json:"admin_signup_code,omitempty"`
	MinWithdrawal   *int    `json:"min_withdrawal,omitempty"`
	PayoutPlaces    *int    `json:"payout_places,omitempty"`
	PaymentNote     *string `json:"payment_note,omitempty"`
}

type AdminService interface {
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
	GetSettings(ctx context.Context) (*models.Settings, error)
	UpdateSettings(ctx context.Context, input UpdateSettingsInput) (*models.Settings, error)
}

type adminService struct {
	userRepo       repositories.UserRepository
	tournamentRepo repositories.TournamentRepository
	rechargeRepo   repositories.RechargeRequestRepository
	withdrawRepo   repositories.WithdrawRequestRepository
	settingsRepo   repositories.SettingsRepository
}

func NewAdminService(
	userRepo repositories.UserRepository,
	tournamentRepo repositories.TournamentRepository,
	rechargeRepo repositories.RechargeRequestRepository,
	withdrawRepo repositories.WithdrawRequestRepository,
	settingsRepo repositories.SettingsRepository,
) AdminService {
	return &adminService{
		userRepo:       userRepo,
		tournamentRepo: tournamentRepo,
		rechargeRepo:   rechargeRepo,
		withdrawRepo:   withdrawRepo,
		settingsRepo:   settingsRepo,
	}
}

// GetDashboardStats gathers the counters concurrently; a failure in any of
// them fails the whole snapshot.
func (s *adminService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		count, err := s.userRepo.Count(gctx)
		if err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		stats.TotalUsers = count
		return nil
	})
	g.Go(func() error {
		count, err := s.tournamentRepo.Count(gctx)
		if err != nil {
			return fmt.Errorf("failed to count tournaments: %w", err)
		}
		stats.TotalTournaments = count
		return nil
	})
	g.Go(func() error {
		revenue, err := s.tournamentRepo.TotalRevenue(gctx)
		if err != nil {
			return fmt.Errorf("failed to compute revenue: %w", err)
		}
		stats.TotalRevenue = revenue
		return nil
	})
	g.Go(func() error {
		count, err := s.rechargeRepo.CountPending(gctx)
		if err != nil {
			return fmt.Errorf("failed to count pending recharge requests: %w", err)
		}
		stats.PendingRechargeRequests = count
		return nil
	})
	g.Go(func() error {
		count, err := s.withdrawRepo.CountPending(gctx)
		if err != nil {
			return fmt.Errorf("failed to count pending withdraw requests: %w", err)
		}
		stats.PendingWithdrawRequests = count
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *adminService) GetSettings(ctx context.Context) (*models.Settings, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrSettingsNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return settings, nil
}

func (s *adminService) UpdateSettings(ctx context.Context, input UpdateSettingsInput) (*models.Settings, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	if input.AdminSignupCode != nil {
		if *input.AdminSignupCode == "" {
			return nil, ErrValidationFailed
		}
		settings.AdminSignupCode = *input.AdminSignupCode
	}
	if input.MinWithdrawal != nil {
		if *input.MinWithdrawal <= 0 {
			return nil, ErrValidationFailed
		}
		settings.MinWithdrawal = *input.MinWithdrawal
	}
	if input.PayoutPlaces != nil {
		if *input.PayoutPlaces <= 0 {
			return nil, ErrValidationFailed
		}
		settings.PayoutPlaces = *input.PayoutPlaces
	}
	if input.PaymentNote != nil {
		settings.PaymentNote = *input.PaymentNote
	}

	if err := s.settingsRepo.Update(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}
	return settings, nil
}
